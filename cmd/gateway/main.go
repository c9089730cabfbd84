// The gateway serves the paid tool marketplace: an open discovery surface
// plus payment-gated tool invocation behind the 402 handshake.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Ankitanand2411/Agent-x402/internal/adapter/adzuna"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/groq"
	x402http "github.com/Ankitanand2411/Agent-x402/internal/adapter/http"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/mcpsrv"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/natspub"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/otel"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/ristretto"
	"github.com/Ankitanand2411/Agent-x402/internal/config"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/payment"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
	"github.com/Ankitanand2411/Agent-x402/internal/logger"
	"github.com/Ankitanand2411/Agent-x402/internal/middleware"
	"github.com/Ankitanand2411/Agent-x402/internal/port/events"
	"github.com/Ankitanand2411/Agent-x402/internal/resilience"
	"github.com/Ankitanand2411/Agent-x402/internal/service"
)

const serviceName = "x402-gateway"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.ValidateGateway(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"network", cfg.Payment.Network,
		"verify_mode", cfg.Payment.VerifyMode,
	)
	if !cfg.PaymentsEnabled() {
		slog.Warn("no payee address configured, challenges will carry an empty payTo (set EVM_WALLET_ADDRESS)")
	}

	ctx := context.Background()

	shutdownTracer := otel.InitTracer(serviceName)
	defer func() { _ = shutdownTracer(ctx) }()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	cache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	var publisher events.Publisher
	if cfg.NATS.URL != "" {
		pub, err := natspub.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer pub.Close()
		publisher = pub
		slog.Info("nats connected", "url", cfg.NATS.URL)
	}

	// --- Upstream clients ---

	jobs := adzuna.NewClient(cfg.Adzuna.BaseURL, cfg.Adzuna.AppID, cfg.Adzuna.AppKey)
	jobs.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	jobs.SetCache(cache, cfg.Cache.UpstreamTTL)

	speech := groq.NewClient(cfg.Groq.BaseURL, cfg.Groq.APIKey)
	speech.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Catalog, payment gate, executor ---

	catalog := tool.DefaultCatalog()

	var verifier payment.Verifier
	switch cfg.Payment.VerifyMode {
	case "presence":
		verifier = payment.AcceptPresence{}
	default:
		verifier = payment.RejectAll{}
	}
	// Replay rejection is opt-in: the minimal protocol admits reused
	// proofs, so the default posture keeps that behavior.
	if cfg.Payment.ReplayGuard {
		verifier = payment.NewReplayGuard(verifier, cache, cfg.Cache.ProofTTL)
	}

	terms := payment.Terms{
		Currency: cfg.Payment.Currency,
		Network:  cfg.Payment.Network,
		Asset:    cfg.Payment.Asset,
		PayTo:    cfg.Payment.PayTo,
	}
	gate := middleware.NewPaymentGate(catalog, terms, verifier, metrics, publisher)

	executor, err := service.NewExecutor(catalog, jobs, speech, cfg.Groq, metrics, log)
	if err != nil {
		return fmt.Errorf("executor: %w", err)
	}

	// --- HTTP ---

	handlers := &x402http.Handlers{
		Catalog:  catalog,
		Executor: executor,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(x402http.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(x402http.Logger)
	// The limiter keys on the socket peer address, so it runs before
	// RealIP rewrites RemoteAddr from forwarded headers.
	r.Use(limiter.Handler)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(otel.HTTPMiddleware(serviceName))

	x402http.MountRoutes(r, handlers, gate)

	// Optional MCP discovery surface.
	if cfg.MCP.Addr != "" {
		mcpSrv := mcpsrv.NewServer(mcpsrv.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    serviceName,
			Version: "0.1.0",
		}, catalog)
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mcpSrv.Stop(stopCtx)
		}()
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("gateway listening", "addr", addr, "tools", len(catalog.List()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
