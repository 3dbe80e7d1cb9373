package app

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config — конфигурация сервиса, читается из переменных окружения.
type Config struct {
	// HTTPAddr — адрес основного API-сервера.
	HTTPAddr string
	// MetricsAddr — адрес сервера метрик Prometheus.
	MetricsAddr string

	// StorageBackend — "memory" либо "postgres".
	StorageBackend string
	PostgresDSN    string

	// KafkaBrokers пуст, если публикация событий в Kafka выключена.
	KafkaBrokers []string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	LogLevel string
}

const (
	storageMemory   = "memory"
	storagePostgres = "postgres"
)

// LoadConfig читает конфигурацию из окружения и проверяет её согласованность.
func LoadConfig() (Config, error) {
	cfg := Config{
		HTTPAddr:           envOr("COMMERCE_HTTP_ADDR", ":8080"),
		MetricsAddr:        envOr("COMMERCE_METRICS_ADDR", ":9090"),
		StorageBackend:     envOr("COMMERCE_STORAGE", storageMemory),
		PostgresDSN:        os.Getenv("COMMERCE_POSTGRES_DSN"),
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    50,
		LogLevel:           envOr("COMMERCE_LOG_LEVEL", "info"),
	}

	if brokers := os.Getenv("COMMERCE_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	if raw := os.Getenv("COMMERCE_OUTBOX_POLL_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse COMMERCE_OUTBOX_POLL_INTERVAL: %w", err)
		}
		cfg.OutboxPollInterval = interval
	}

	switch cfg.StorageBackend {
	case storageMemory, storagePostgres:
	default:
		return Config{}, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == storagePostgres && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("COMMERCE_POSTGRES_DSN is required for postgres storage")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
