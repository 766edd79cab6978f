package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"blogadmin/handlers"
	"blogadmin/middleware"
	"blogadmin/storage"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, store storage.Storage, jwtSecret []byte, adminUser, adminPassHash string, mutationDelay time.Duration) {
	authHandler := handlers.NewAuthHandler(jwtSecret, adminUser, adminPassHash)
	postHandler := handlers.NewPostHandler(store, mutationDelay)
	healthHandler := handlers.NewHealthHandler(store)

	// Public routes
	r.POST("/login", authHandler.Login)
	r.GET("/health", healthHandler.HealthCheck)

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(jwtSecret))
	{
		// Post routes. The bulk route is registered before the :id routes so
		// "bulk" is never parsed as a post id.
		protected.DELETE("/posts/bulk", postHandler.BulkDeletePosts)
		protected.GET("/posts/stats", postHandler.GetPostsStats)

		protected.GET("/posts", postHandler.ListPosts)
		protected.POST("/posts", postHandler.CreatePost)
		protected.GET("/posts/:id", postHandler.GetPost)
		protected.PUT("/posts/:id", postHandler.UpdatePost)
		protected.PATCH("/posts/:id", postHandler.UpdatePost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)
	}
}
