package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"techservice/internal/database"
	"techservice/internal/repository"
)

// One-shot cleanup of expired refresh tokens and expired revocation ledger
// rows. The api binary runs the same sweep daily; this exists for cron use
// and for manual runs against a cold database.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	refreshDeleted, err := repository.NewRefreshTokenRepository(db).DeleteExpired(ctx, now)
	if err != nil {
		log.Fatalf("cleanup refresh_tokens failed: %v", err)
	}

	revokedDeleted, err := repository.NewRevokedTokenRepository(db).DeleteExpired(ctx, now)
	if err != nil {
		log.Fatalf("cleanup revoked_tokens failed: %v", err)
	}

	log.Printf("auth cleanup completed: refresh_tokens=%d revoked_tokens=%d", refreshDeleted, revokedDeleted)
}
