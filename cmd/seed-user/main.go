package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dimitrije/gigflow-api/internal/config"
	"github.com/dimitrije/gigflow-api/internal/database"
	"github.com/dimitrije/gigflow-api/internal/logging"
	"github.com/dimitrije/gigflow-api/internal/services"
)

// seed-user creates (or finds) a user and prints an access token for it, so
// the API can be exercised locally without an OAuth provider.
func main() {
	if len(os.Args) != 3 {
		fmt.Println("Usage: seed-user <email> <name>")
		os.Exit(1)
	}

	email, name := os.Args[1], os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.IsProduction())
	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	user, err := services.NewUserService(db).FindOrCreate(ctx, email, name)
	if err != nil {
		log.WithError(err).Fatal("failed to create user")
	}

	token, err := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry).GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		log.WithError(err).Fatal("failed to issue token")
	}

	fmt.Printf("user_id=%s\n", user.ID)
	fmt.Printf("access_token=%s\n", token)
}
