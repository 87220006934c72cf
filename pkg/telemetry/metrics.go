package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce              sync.Once
	metricsInitErr           error
	workflowExecutionCounter metric.Int64Counter
	workflowEmptyCounter     metric.Int64Counter
	workflowLatencyHistogram metric.Float64Histogram
)

// WorkflowMetrics captures the fields needed to record workflow execution metrics.
type WorkflowMetrics struct {
	Outcome  string
	Nodes    int
	Duration time.Duration
}

// RecordWorkflow emits counters and histograms that describe workflow execution behaviour.
func RecordWorkflow(ctx context.Context, m WorkflowMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("workflow.outcome", m.Outcome),
		attribute.Int("workflow.nodes", m.Nodes),
	}

	workflowExecutionCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if m.Duration > 0 {
		workflowLatencyHistogram.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}

	if m.Outcome != "ok" {
		workflowEmptyCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("argon.workflow")

		workflowExecutionCounter, metricsInitErr = meter.Int64Counter(
			"argon.workflow.executions_total",
			metric.WithDescription("Workflow executions partitioned by outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		workflowEmptyCounter, metricsInitErr = meter.Int64Counter(
			"argon.workflow.empty_results_total",
			metric.WithDescription("Workflow executions that folded to an empty result"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		workflowLatencyHistogram, metricsInitErr = meter.Float64Histogram(
			"argon.workflow.duration_ms",
			metric.WithDescription("Wall-clock duration of workflow executions"),
			metric.WithUnit("ms"),
		)
	})
	return metricsInitErr
}
