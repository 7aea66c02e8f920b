package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/credvault/internal/server"
	"github.com/dmitrijs2005/credvault/internal/server/config"
)

func main() {

	// .env is optional; flags and JSON config take precedence anyway.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
