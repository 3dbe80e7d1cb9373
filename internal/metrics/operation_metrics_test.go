package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func TestOperationMetrics_RecordOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewOperationMetricsWithRegisterer(registry)

	m.RecordOperation("add_item", "success")
	m.RecordOperation("add_item", "success")
	m.RecordOperation("add_item", "failure")

	family := gatherFamily(t, registry, "commerce_order_operations_total")
	counts := make(map[string]float64)
	for _, metric := range family.GetMetric() {
		key := labelValue(metric, "operation") + "/" + labelValue(metric, "result")
		counts[key] = metric.GetCounter().GetValue()
	}

	if counts["add_item/success"] != 2 {
		t.Fatalf("expected 2 successes, got %v", counts["add_item/success"])
	}
	if counts["add_item/failure"] != 1 {
		t.Fatalf("expected 1 failure, got %v", counts["add_item/failure"])
	}
}

func TestOperationMetrics_RecordDuration(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewOperationMetricsWithRegisterer(registry)

	m.RecordDuration("complete", 30*time.Millisecond)
	m.RecordDuration("complete", 70*time.Millisecond)

	family := gatherFamily(t, registry, "commerce_order_operation_duration_seconds")
	metric := family.GetMetric()[0]
	if got := metric.GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("expected 2 observations, got %d", got)
	}
	if got := metric.GetHistogram().GetSampleSum(); got < 0.09 || got > 0.11 {
		t.Fatalf("unexpected observation sum: %v", got)
	}
}

func TestOperationMetrics_EventCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewOperationMetricsWithRegisterer(registry)

	m.RecordOutboxEvent()
	m.RecordOutboxEvent()
	m.RecordTimelineEvent()

	outbox := gatherFamily(t, registry, "commerce_outbox_events_total")
	if got := outbox.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 outbox events, got %v", got)
	}
	timeline := gatherFamily(t, registry, "commerce_timeline_events_total")
	if got := timeline.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 timeline event, got %v", got)
	}
}

func TestOperationMetrics_ReregistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewOperationMetricsWithRegisterer(registry)
	second := NewOperationMetricsWithRegisterer(registry)

	first.RecordOperation("create", "success")
	second.RecordOperation("create", "success")

	family := gatherFamily(t, registry, "commerce_order_operations_total")
	if got := family.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected shared counter with value 2, got %v", got)
	}
}
