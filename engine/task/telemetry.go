package task

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records task run counts and latency.
type Metrics struct {
	runs    metric.Int64Counter
	latency metric.Float64Histogram
}

// NewMetrics registers the task instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		return nil, nil
	}
	runs, err := meter.Int64Counter(
		"wfa_task_runs_total",
		metric.WithDescription("Total task runs grouped by task and result kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run counter: %w", err)
	}
	latency, err := meter.Float64Histogram(
		"wfa_task_duration_seconds",
		metric.WithDescription("Task run latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}
	return &Metrics{runs: runs, latency: latency}, nil
}

func (m *Metrics) record(ctx context.Context, task string, kind Kind, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("task", task),
		attribute.String("kind", kind.String()),
	)
	m.runs.Add(ctx, 1, attrs)
	m.latency.Record(ctx, duration.Seconds(), attrs)
}
