package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/api"
	"github.com/vladislavdragonenkov/commerce/internal/api/handlers"
	"github.com/vladislavdragonenkov/commerce/internal/version"
)

const shutdownTimeout = 10 * time.Second

// Run поднимает сервис и блокируется до отмены контекста. Завершение
// graceful: сначала перестаём принимать запросы, затем гасим воркер и
// закрываем подключения.
func Run(ctx context.Context, cfg Config, logger *log.Entry) error {
	logger.WithField("version", version.String()).Info("starting commerce platform service")

	deps, err := BuildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	router := api.NewRouter(api.Deps{
		Orders:        handlers.NewOrderHandler(deps.Orders, logger.WithField("component", "http")),
		StoreProducts: handlers.NewStoreProductHandler(deps.Catalog, logger.WithField("component", "http")),
		Health:        deps.Health,
		Logger:        logger.WithField("component", "http"),
	})

	apiServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		logger.WithField("addr", cfg.MetricsAddr).Info("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if deps.Worker != nil {
		go deps.Worker.Run(workerCtx)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("api server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("metrics server shutdown failed")
	}

	logger.Info("service stopped")
	return nil
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
