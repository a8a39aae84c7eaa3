package main

//go:generate swag init

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/satheeshds/invoicing/cmd"
	"github.com/satheeshds/invoicing/config"
	"github.com/satheeshds/invoicing/logger"
)

// @title           Invoicing API
// @version         1.0.0
// @description     API for issuing invoices, recording payments and reconciling balances.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Setup(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute(cfg)
}
