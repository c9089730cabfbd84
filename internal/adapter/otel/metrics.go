// Package otel provides OpenTelemetry instrumentation for the gateway.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "x402-gateway"

// Metrics holds the gateway's metric instruments.
type Metrics struct {
	Challenges     metric.Int64Counter
	Admissions     metric.Int64Counter
	Rejections     metric.Int64Counter
	ToolCalls      metric.Int64Counter
	ToolFailures   metric.Int64Counter
	UpstreamMillis metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Challenges, err = meter.Int64Counter("x402.payments.challenges",
		metric.WithDescription("Number of 402 challenges issued"))
	if err != nil {
		return nil, err
	}

	m.Admissions, err = meter.Int64Counter("x402.payments.admissions",
		metric.WithDescription("Number of invocations admitted with a payment proof"))
	if err != nil {
		return nil, err
	}

	m.Rejections, err = meter.Int64Counter("x402.payments.rejections",
		metric.WithDescription("Number of payment proofs rejected by the verifier"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("x402.tools.calls",
		metric.WithDescription("Number of tool executions"))
	if err != nil {
		return nil, err
	}

	m.ToolFailures, err = meter.Int64Counter("x402.tools.failures",
		metric.WithDescription("Number of failed tool executions"))
	if err != nil {
		return nil, err
	}

	m.UpstreamMillis, err = meter.Float64Histogram("x402.upstream.duration_ms",
		metric.WithDescription("Upstream capability call duration in milliseconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
