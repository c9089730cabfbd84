package otel

import (
	"context"
	"log/slog"
)

// ShutdownFunc is called to flush and shut down the trace provider.
type ShutdownFunc func(ctx context.Context) error

// InitTracer returns a no-op shutdown function. Exporter selection (OTLP,
// stdout) is deployment-specific; without one the instruments above still
// record through the global no-op provider.
func InitTracer(serviceName string) ShutdownFunc {
	slog.Info("otel initialized", "service", serviceName)
	return func(_ context.Context) error {
		return nil
	}
}
