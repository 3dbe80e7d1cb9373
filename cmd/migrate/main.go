package main

import (
	"context"
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/storage/postgres"
)

// Утилита миграций: применяет или откатывает схему отдельно от сервиса.
//
//	migrate -direction up
//	migrate -direction down -target 0
func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	target := flag.Int("target", 0, "target schema version (0 = latest for up, everything for down)")
	flag.Parse()

	dsn := os.Getenv("COMMERCE_POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("COMMERCE_POSTGRES_DSN is required")
	}

	ctx := context.Background()
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer func() { _ = store.Close() }()

	switch *direction {
	case "up":
		err = store.MigrateUp(ctx, *target)
	case "down":
		err = store.MigrateDown(ctx, *target)
	default:
		log.Fatalf("unknown direction %q", *direction)
	}
	if err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	log.Info("migrations applied")
}
