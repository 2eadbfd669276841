// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"log"
	"time"

	"kobo/internal/config"
	"kobo/internal/repositories"
	"kobo/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if !config.IsProduction() {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize databases (PostgreSQL + Redis)
	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("connected to database")

	app := fiber.New(fiber.Config{
		AppName:      "kobo",
		ErrorHandler: fiber.DefaultErrorHandler,
	})

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        config.GetIntEnv("RATE_LIMIT_MAX", 100),
		Expiration: config.GetDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
	}))

	routes.SetupRoutes(app, repositories.DB, logger)

	port := config.GetEnv("PORT", "8080")
	logger.WithField("port", port).Info("starting server")
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
