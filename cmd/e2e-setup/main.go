package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"ebook-subscription/internal/config"
	"ebook-subscription/internal/infra/db/postgres"
	"ebook-subscription/internal/infra/redis"
)

// Sets up a clean, predictable database state for manual end-to-end testing:
// ensures the schema exists, wipes payment data and seeds a test account.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/4] Ensuring schema...")
	_, err = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS users (
    id             TEXT PRIMARY KEY,
    email          TEXT NOT NULL UNIQUE,
    first_name     TEXT,
    last_name      TEXT,
    phone          TEXT,
    is_premium     BOOLEAN NOT NULL DEFAULT FALSE,
    premium_expiry TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS payments (
    id              TEXT PRIMARY KEY,
    order_id        TEXT NOT NULL UNIQUE,
    user_id         TEXT NOT NULL REFERENCES users(id),
    amount          BIGINT NOT NULL,
    duration_months INT NOT NULL,
    status          TEXT NOT NULL,
    snap_token      TEXT,
    payment_url     TEXT,
    payment_method  TEXT,
    paid_at         TIMESTAMPTZ,
    expires_at      TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS payments_user_id_idx ON payments (user_id);
`)
	if err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}

	log.Println("[2/4] Wiping Redis cache...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	log.Println("[3/4] Wiping payment data...")
	if _, err := pool.Exec(ctx, `TRUNCATE payments, users RESTART IDENTITY CASCADE;`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("[4/4] Seeding test account...")
	_, err = pool.Exec(ctx, `
INSERT INTO users (id, email, first_name, last_name, phone, created_at)
VALUES ($1, 'reader@example.test', 'Test', 'Reader', '+6281200000000', $2);
`, uuid.NewString(), time.Now())
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}

	log.Println("--- E2E Environment Setup Complete ---")
}
