package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"blogadmin/config"
	"blogadmin/handlers"
	"blogadmin/routes"
	"blogadmin/storage"
	"blogadmin/storage/memory"
	"blogadmin/storage/postgres"
	"blogadmin/storage/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found") // Non-fatal in production
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	jwtSecret := []byte(cfg.JWTSecret)

	adminPassHash := cfg.AdminPassHash
	if adminPassHash == "" {
		plain := os.Getenv("ADMIN_PASSWORD")
		if plain == "" {
			log.Fatal("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH environment variable is required")
		}
		adminPassHash, err = handlers.HashPassword(plain)
		if err != nil {
			log.Fatalf("Error hashing admin password: %v", err)
		}
	}

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Error opening storage: %v", err)
	}
	defer store.Close()

	if cfg.SeedData {
		if err := storage.Seed(context.Background(), store); err != nil {
			log.Printf("Warning: Error seeding initial data: %v", err)
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Setup CORS - the admin UI runs on its own origin
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.AllowMethods = []string{
		"GET",
		"POST",
		"PUT",
		"DELETE",
		"PATCH",
	}
	r.Use(cors.New(corsConfig))

	routes.SetupRoutes(r, store, jwtSecret, cfg.AdminUser, adminPassHash, cfg.MutationDelay)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
}

func openStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath)
	case "memory":
		return memory.New(), nil
	default:
		return postgres.Initialize(postgres.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
		})
	}
}
