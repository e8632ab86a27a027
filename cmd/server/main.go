package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mensa-app/mensa/internal/config"
	"github.com/mensa-app/mensa/internal/database"
	"github.com/mensa-app/mensa/internal/handlers"
	"github.com/mensa-app/mensa/internal/schedule"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The daily meal schedule is fixed at startup
	sched := schedule.Default()
	if err := sched.Validate(); err != nil {
		log.Fatalf("Invalid meal schedule: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	app := handlers.NewApp(db, cfg, sched, nil)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}
