package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"site-inventory/internal/config"
	"site-inventory/internal/database"
	"site-inventory/internal/router"
	"site-inventory/internal/utils"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.NewMySQL(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.DBMigrateOnStart {
		if err := database.NewMigrator(db, utils.GetLogger()).Run(context.Background()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis (optional - commit progress falls back to batch state)
	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Printf("Application will continue without live commit progress")
	} else {
		defer redisClient.Close()
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    cfg.UploadMaxSize + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Setup routes
	closeRoutes := router.Setup(app, db, redisClient, cfg)
	defer closeRoutes()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\nGracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := fmt.Sprintf(":%s", cfg.AppPort)
	log.Printf("Server starting on %s (audit mode: %s)", port, cfg.AuditMode)
	if err := app.Listen(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	fmt.Println("Server exited")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
