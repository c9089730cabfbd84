// The agent answers a user query against the paid tool marketplace: it
// discovers tools, lets the model pick one, settles the 402 payment and
// composes the final answer. Progress can be observed over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ankitanand2411/Agent-x402/internal/adapter/evmrpc"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/groq"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/market"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/ws"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/yellow"
	"github.com/Ankitanand2411/Agent-x402/internal/config"
	"github.com/Ankitanand2411/Agent-x402/internal/logger"
	"github.com/Ankitanand2411/Agent-x402/internal/port/progress"
	"github.com/Ankitanand2411/Agent-x402/internal/port/settlement"
	"github.com/Ankitanand2411/Agent-x402/internal/resilience"
	"github.com/Ankitanand2411/Agent-x402/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: agent <query>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.ValidateAgent(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logCfg := cfg.Logging
	if logCfg.Service == "" || logCfg.Service == "x402-gateway" {
		logCfg.Service = "x402-agent"
	}
	log := logger.New(logCfg)
	slog.SetDefault(log)

	ctx := context.Background()

	mkt := market.NewClient(cfg.Agent.MarketURL)
	mkt.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	llm := groq.NewClient(cfg.Groq.BaseURL, cfg.Groq.APIKey)

	// Settlement is optional: without a signer the agent still answers
	// unpaid queries and refuses paid tool calls instead of crashing.
	var (
		wallet  settlement.Wallet
		channel service.ChannelSettler
	)
	if cfg.SignerConfigured() {
		w := evmrpc.NewWallet(cfg.Settlement.RPCURL, cfg.Settlement.From, cfg.Settlement.PollInterval)
		wallet = w
		yl := yellow.NewService(w, cfg.Settlement.Token)
		channel = yl

		g, initCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := yl.Initialize(initCtx); err != nil {
				slog.Warn("payment channel unavailable, will settle on chain", "error", err)
			}
			return nil
		})
		g.Go(func() error {
			if _, err := mkt.FetchTools(initCtx); err != nil {
				return fmt.Errorf("marketplace unreachable: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		slog.Warn("no settlement signer configured, paid tools are unavailable (set EVM_RPC_URL / EVM_FROM_ADDRESS)")
	}

	payer := service.NewPayer(channel, wallet, cfg.Settlement.ConfirmTimeout, log)

	var sink progress.Sink = progress.Discard{}
	var wsSrv *http.Server
	if cfg.Agent.WSPort != "" {
		hub := ws.NewHub()
		sink = hub

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.HandleWS)
		wsSrv = &http.Server{
			Addr:              ":" + cfg.Agent.WSPort,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("progress websocket listening", "addr", wsSrv.Addr)
			if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("websocket server failed", "error", err)
			}
		}()
	}

	orch := service.NewOrchestrator(mkt, payer, llm, cfg.Agent, cfg.Groq.ChatModel, sink, log)
	outcome := orch.Run(ctx, query)

	if wsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = wsSrv.Shutdown(shutdownCtx)
	}

	out, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if outcome.Failure != "" {
		return fmt.Errorf("session failed: %s", outcome.Failure)
	}
	return nil
}
