package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment   string
	ServerPort    string
	DBDriver      string // postgres | sqlite | memory
	DBHost        string
	DBPort        int
	DBUser        string
	DBPassword    string
	DBName        string
	SQLitePath    string
	JWTSecret     string
	AdminUser     string
	AdminPassHash string // bcrypt hash; plain ADMIN_PASSWORD is hashed at startup when unset
	SeedData      bool
	// MutationDelay artificially slows mutating endpoints so the admin UI's
	// optimistic window is visible during demos. Zero in normal operation.
	MutationDelay time.Duration
}

func Load() (*Config, error) {
	return &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		ServerPort:    getEnv("PORT", "8080"),
		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnvInt("DB_PORT", 5432),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBName:        getEnv("DB_NAME", "blogadmin"),
		SQLitePath:    getEnv("SQLITE_PATH", "blogadmin.db"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPassHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SeedData:      getEnv("SEED_DATA", "false") == "true",
		MutationDelay: time.Duration(getEnvInt("MUTATION_DELAY_MS", 0)) * time.Millisecond,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
