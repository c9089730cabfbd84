// Package logger provides structured logging setup for the x402 gateway and agent.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/Ankitanand2411/Agent-x402/internal/config"
)

// New creates a *slog.Logger from the given Logging config. Records are
// written as JSON to stdout, carry a "service" attribute, and pick up the
// request ID from the context when one is present.
func New(cfg config.Logging) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	return slog.New(requestIDHandler{h}).With("service", cfg.Service)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// requestIDHandler decorates records with the request ID stored in the
// context, so handlers never have to thread it through manually.
type requestIDHandler struct {
	slog.Handler
}

func (h requestIDHandler) Handle(ctx context.Context, rec slog.Record) error {
	if id := RequestID(ctx); id != "" {
		rec.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, rec)
}

func (h requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h requestIDHandler) WithGroup(name string) slog.Handler {
	return requestIDHandler{h.Handler.WithGroup(name)}
}
