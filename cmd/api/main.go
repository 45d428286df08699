package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/app"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/config"
)

func main() {
	// Missing .env is fine; real deployments set environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("run application: %v", err)
	}
}
