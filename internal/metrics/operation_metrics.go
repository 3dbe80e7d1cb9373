package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics содержит метрики операций жизненного цикла заказа.
type OperationMetrics struct {
	// Счётчик операций с метками operation/result.
	operations *prometheus.CounterVec
	// Гистограмма времени выполнения операции.
	duration *prometheus.HistogramVec

	// Счётчики событий outbox/timeline.
	outboxEvents   prometheus.Counter
	timelineEvents prometheus.Counter
}

// NewOperationMetrics создаёт метрики в default registry.
func NewOperationMetrics() *OperationMetrics {
	return NewOperationMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOperationMetricsWithRegisterer создаёт метрики в указанном registry
// (отдельный registry используется тестами).
func NewOperationMetricsWithRegisterer(registerer prometheus.Registerer) *OperationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OperationMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "commerce_order_operations_total",
			Help: "Total number of order lifecycle operations grouped by operation and result.",
		}, []string{"operation", "result"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "commerce_order_operation_duration_seconds",
			Help:    "Duration of order lifecycle operations in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_outbox_events_total",
			Help: "Total number of events enqueued into the transactional outbox.",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_timeline_events_total",
			Help: "Total number of order timeline events recorded.",
		}),
	}
}

// RecordOperation фиксирует исход операции.
func (m *OperationMetrics) RecordOperation(operation, result string) {
	m.operations.WithLabelValues(operation, result).Inc()
}

// RecordDuration записывает время выполнения операции.
func (m *OperationMetrics) RecordDuration(operation string, duration time.Duration) {
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OperationMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OperationMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
