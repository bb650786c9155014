package main

import (
	"log"
	"os"

	"document-routing-api/config"
	"document-routing-api/controllers"
	"document-routing-api/middleware"
	"document-routing-api/monitor"
	"document-routing-api/routes"
	"document-routing-api/services"
	"document-routing-api/workflow"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, logWriter := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	config.InitDB()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logWriter

	var notifier services.Notifier = services.NopNotifier{}
	smtp := config.LoadSMTPSettings()
	if smtp.Configured() {
		notifier = services.NewMailNotifier(smtp)
	} else {
		log.Println("SMTP not configured, notifications disabled")
	}

	service := services.NewDocumentService(
		services.NewGormDocumentStore(config.DB),
		workflow.NewEngine(nil),
		notifier,
		[]byte(os.Getenv("QR_SIGNING_KEY")),
	)

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Setup routes
	routes.SetupRoutes(router, controllers.NewDocumentController(service), middleware.AuthMiddleware())

	// Log monitor, only when MONITOR_TOKEN is set
	monitor.Register(router, config.LogFilePath(), os.Getenv("MONITOR_TOKEN"))

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if ginMode == "release" {
		log.Printf("Running in production mode")
	} else {
		log.Printf("Running in development mode")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
