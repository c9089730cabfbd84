// Package config provides hierarchical configuration loading for the
// Agent-x402 marketplace gateway and agent.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the gateway and the agent.
type Config struct {
	Server     Server     `yaml:"server"`
	Adzuna     Adzuna     `yaml:"adzuna"`
	Groq       Groq       `yaml:"groq"`
	Payment    Payment    `yaml:"payment"`
	Settlement Settlement `yaml:"settlement"`
	Agent      Agent      `yaml:"agent"`
	NATS       NATS       `yaml:"nats"`
	MCP        MCP        `yaml:"mcp"`
	Logging    Logging    `yaml:"logging"`
	Breaker    Breaker    `yaml:"breaker"`
	Rate       Rate       `yaml:"rate"`
	Cache      Cache      `yaml:"cache"`
}

// Server holds HTTP server configuration for the gateway.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Adzuna holds credentials and endpoint for the Adzuna job-search API.
// AppID and AppKey are required to start the gateway.
type Adzuna struct {
	BaseURL string `yaml:"base_url"`
	AppID   string `yaml:"app_id"`
	AppKey  string `yaml:"app_key"`
}

// Groq holds Groq API configuration. The gateway uses it for speech
// synthesis; the agent uses it for tool selection and answer composition.
type Groq struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	ChatModel   string `yaml:"chat_model"`
	SpeechModel string `yaml:"speech_model"`
	SpeechVoice string `yaml:"speech_voice"`
}

// Payment holds the gateway's payment-gate configuration.
// PayTo is the settlement account that receives tool payments; when empty
// the gateway still issues challenges but payments cannot be received.
type Payment struct {
	PayTo       string `yaml:"pay_to"`
	Currency    string `yaml:"currency"`
	Network     string `yaml:"network"`
	Asset       string `yaml:"asset"`
	VerifyMode  string `yaml:"verify_mode"`  // "presence" | "reject"
	ReplayGuard bool   `yaml:"replay_guard"` // reject reused proofs; off reproduces the minimal protocol
}

// Settlement holds the agent's on-chain settlement configuration.
// Optional: when RPCURL or From is unset the agent runs without a signer
// and refuses paid tool calls instead of crashing.
type Settlement struct {
	RPCURL         string        `yaml:"rpc_url"`
	From           string        `yaml:"from"`
	Token          string        `yaml:"token"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

// Agent holds client-side orchestrator configuration.
type Agent struct {
	MarketURL       string `yaml:"market_url"`
	WSPort          string `yaml:"ws_port"`           // empty disables the progress WebSocket server
	StrictPricing   bool   `yaml:"strict_pricing"`    // fail on unparsable price instead of defaulting to 0
	RejectMultiCall bool   `yaml:"reject_multi_call"` // fail when the model requests more than one tool
}

// NATS holds the optional payment-event stream configuration.
// An empty URL disables event publishing.
type NATS struct {
	URL string `yaml:"url"`
}

// MCP holds the optional MCP discovery server configuration.
// An empty address disables it.
type MCP struct {
	Addr string `yaml:"addr"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Breaker holds circuit breaker configuration for upstream HTTP clients.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds per-IP rate limiter configuration for the gateway.
type Rate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Cache holds in-process cache configuration.
type Cache struct {
	MaxSizeMB   int64         `yaml:"max_size_mb"`
	UpstreamTTL time.Duration `yaml:"upstream_ttl"`
	ProofTTL    time.Duration `yaml:"proof_ttl"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "3000",
			CORSOrigin: "http://localhost:5173",
		},
		Adzuna: Adzuna{
			BaseURL: "https://api.adzuna.com/v1/api",
		},
		Groq: Groq{
			BaseURL:     "https://api.groq.com/openai/v1",
			ChatModel:   "llama-3.1-8b-instant",
			SpeechModel: "canopylabs/orpheus-v1-english",
			SpeechVoice: "autumn",
		},
		Payment: Payment{
			Currency:   "USDC",
			Network:    "sepolia",
			Asset:      "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
			VerifyMode: "presence",
		},
		Settlement: Settlement{
			Token:          "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
			ConfirmTimeout: 90 * time.Second,
			PollInterval:   2 * time.Second,
		},
		Agent: Agent{
			MarketURL: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "x402-gateway",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
		},
		Cache: Cache{
			MaxSizeMB:   32,
			UpstreamTTL: 30 * time.Second,
			ProofTTL:    24 * time.Hour,
		},
	}
}
