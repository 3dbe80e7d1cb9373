package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const checkTimeout = 3 * time.Second

// Checker — одиночная проверка готовности зависимости.
type Checker func(ctx context.Context) error

// Registry собирает именованные проверки готовности сервиса.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Checker
	logger *log.Entry
}

// NewRegistry создаёт пустой реестр проверок.
func NewRegistry(logger *log.Entry) *Registry {
	if logger == nil {
		logger = log.New().WithField("component", "health")
	}
	return &Registry{
		checks: make(map[string]Checker),
		logger: logger,
	}
}

// Register добавляет именованную проверку.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check
}

// LivenessHandler отвечает 200, пока процесс жив.
func (r *Registry) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// ReadinessHandler прогоняет все проверки и отвечает 503, если хоть одна упала.
func (r *Registry) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), checkTimeout)
		defer cancel()

		r.mu.RLock()
		checks := make(map[string]Checker, len(r.checks))
		for name, check := range r.checks {
			checks[name] = check
		}
		r.mu.RUnlock()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				r.logger.WithError(err).WithField("check", name).Warn("readiness check failed")
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	}
}
