package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/authz"
	"github.com/vladislavdragonenkov/commerce/internal/checkout"
	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/health"
	"github.com/vladislavdragonenkov/commerce/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/commerce/internal/metrics"
	"github.com/vladislavdragonenkov/commerce/internal/service/catalog"
	"github.com/vladislavdragonenkov/commerce/internal/service/coupon"
	"github.com/vladislavdragonenkov/commerce/internal/service/orders"
	outboxsvc "github.com/vladislavdragonenkov/commerce/internal/service/outbox"
	"github.com/vladislavdragonenkov/commerce/internal/service/payment"
	"github.com/vladislavdragonenkov/commerce/internal/storage/memory"
	"github.com/vladislavdragonenkov/commerce/internal/storage/postgres"
)

// Dependencies — собранный граф зависимостей сервиса.
type Dependencies struct {
	Orders   *orders.Orchestrator
	Catalog  *catalog.Manager
	Health   *health.Registry
	Metrics  *metrics.OperationMetrics
	Outbox   domain.OutboxRepository
	Worker   *outboxsvc.Worker
	Producer *kafka.Producer

	pg *postgres.Store
}

// BuildDependencies собирает зависимости согласно конфигурации.
// Ошибка конфигурации реестра операций фатальна: сервис с дырой в реестре
// не должен подняться.
func BuildDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	deps := &Dependencies{
		Health: health.NewRegistry(logger.WithField("component", "health")),
	}
	deps.Metrics = metrics.NewOperationMetrics()

	var (
		orderRepo    domain.OrderRepository
		storeRepo    domain.StoreRepository
		productRepo  domain.ProductRepository
		variantRepo  domain.VariantRepository
		linkRepo     domain.StoreProductRepository
		timelineRepo domain.TimelineRepository
	)

	switch cfg.StorageBackend {
	case storagePostgres:
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.pg = pg
		deps.Health.Register("postgres", pg.Ping)

		orderRepo = postgres.NewOrderRepository(pg)
		catalogRepo := postgres.NewCatalogRepository(pg)
		storeRepo, productRepo, variantRepo, linkRepo = catalogRepo, catalogRepo, catalogRepo, catalogRepo
		deps.Outbox = postgres.NewOutboxRepository(pg)
		timelineRepo = postgres.NewTimelineRepository(pg)
	default:
		orderRepo = memory.NewOrderRepository()
		catalogRepo := memory.NewCatalogRepository()
		storeRepo, productRepo, variantRepo, linkRepo = catalogRepo, catalogRepo, catalogRepo, catalogRepo
		deps.Outbox = memory.NewOutboxRepository()
		timelineRepo = memory.NewTimelineRepository()
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		deps.Producer = producer
		deps.Worker = outboxsvc.NewWorker(
			deps.Outbox,
			kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents),
			outboxsvc.WithLogger(logger.WithField("component", "outbox-worker")),
			outboxsvc.WithPollInterval(cfg.OutboxPollInterval),
			outboxsvc.WithBatchSize(cfg.OutboxBatchSize),
		)
	}

	coupons := coupon.NewService()
	payments := payment.NewMockVerifier()

	registry, err := checkout.NewRegistry(checkout.DefaultConfig(coupons, payments))
	if err != nil {
		return nil, fmt.Errorf("build operation registry: %w", err)
	}

	gate := authz.NewGate(linkRepo)

	deps.Orders = orders.NewOrchestrator(orderRepo, storeRepo, variantRepo, registry, gate, orders.Options{
		Outbox:   deps.Outbox,
		Timeline: timelineRepo,
		Producer: deps.Producer,
		Metrics:  deps.Metrics,
		Logger:   logger.WithField("component", "orders"),
	})
	deps.Catalog = catalog.NewManager(
		linkRepo, storeRepo, productRepo, gate, deps.Outbox,
		logger.WithField("component", "catalog"),
	)

	return deps, nil
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close() {
	if d.Producer != nil {
		_ = d.Producer.Close()
	}
	if d.pg != nil {
		_ = d.pg.Close()
	}
}
