package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics counts runner activity. With telemetry off these are
// no-op instruments, so callers record unconditionally.
type RunMetrics struct {
	steps       metric.Int64Counter
	backendRuns metric.Int64Counter
}

func NewRunMetrics() *RunMetrics {
	meter := Meter("")
	steps, _ := meter.Int64Counter("inshallah.runner.steps",
		metric.WithDescription("Loop steps executed, by final issue outcome"))
	runs, _ := meter.Int64Counter("inshallah.backend.runs",
		metric.WithDescription("Backend subprocess invocations, by CLI and exit class"))
	return &RunMetrics{steps: steps, backendRuns: runs}
}

func (m *RunMetrics) RecordStep(ctx context.Context, outcome string) {
	if m == nil || m.steps == nil {
		return
	}
	m.steps.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *RunMetrics) RecordBackendRun(ctx context.Context, cli string, exit int) {
	if m == nil || m.backendRuns == nil {
		return
	}
	class := "ok"
	if exit != 0 {
		class = "nonzero"
	}
	m.backendRuns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("cli", cli), attribute.String("exit", class)))
}
