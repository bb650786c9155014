package routes

import (
	"document-routing-api/controllers"
	"document-routing-api/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the API. auth guards every route except /health.
func SetupRoutes(router *gin.Engine, documents *controllers.DocumentController, auth gin.HandlerFunc) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"message": "Document Routing API is running",
			})
		})

		// Protected routes (require a bearer token)
		protected := v1.Group("")
		protected.Use(auth)
		{
			docs := protected.Group("/documents")
			{
				docs.GET("", documents.ListDocuments)
				docs.GET("/:id", documents.GetDocument)
				docs.GET("/:id/history", documents.GetHistory)
				docs.GET("/:id/qr", documents.GetQRPayload)

				// Any role; the workflow decides what is legal
				docs.POST("/:id/actions", documents.SubmitAction)

				// Only admins create, revise and delete
				docs.POST("", middleware.RequireRole("admin"), documents.CreateDocument)
				docs.DELETE("/:id", middleware.RequireRole("admin"), documents.DeleteDocument)
				docs.POST("/:id/clone", middleware.RequireRole("admin"), documents.CloneDocument)
				docs.POST("/:id/resubmit", middleware.RequireRole("admin"), documents.ResubmitDocument)
			}

			protected.POST("/scan", documents.Scan)
		}
	}
}
