package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "x402.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.CORSOrigin, "X402_CORS_ORIGIN")

	setString(&cfg.Adzuna.BaseURL, "ADZUNA_BASE_URL")
	setString(&cfg.Adzuna.AppID, "ADZUNA_APP_ID")
	setString(&cfg.Adzuna.AppKey, "ADZUNA_APP_KEY")

	setString(&cfg.Groq.BaseURL, "GROQ_BASE_URL")
	setString(&cfg.Groq.APIKey, "GROQ_API_KEY")
	setString(&cfg.Groq.ChatModel, "GROQ_CHAT_MODEL")
	setString(&cfg.Groq.SpeechModel, "GROQ_SPEECH_MODEL")
	setString(&cfg.Groq.SpeechVoice, "GROQ_SPEECH_VOICE")

	setString(&cfg.Payment.PayTo, "EVM_WALLET_ADDRESS")
	setString(&cfg.Payment.Currency, "X402_CURRENCY")
	setString(&cfg.Payment.Network, "X402_NETWORK")
	setString(&cfg.Payment.Asset, "X402_ASSET")
	setString(&cfg.Payment.VerifyMode, "X402_VERIFY_MODE")
	setBool(&cfg.Payment.ReplayGuard, "X402_REPLAY_GUARD")

	setString(&cfg.Settlement.RPCURL, "EVM_RPC_URL")
	setString(&cfg.Settlement.From, "EVM_FROM_ADDRESS")
	setString(&cfg.Settlement.Token, "EVM_TOKEN_ADDRESS")
	setDuration(&cfg.Settlement.ConfirmTimeout, "X402_CONFIRM_TIMEOUT")
	setDuration(&cfg.Settlement.PollInterval, "X402_POLL_INTERVAL")

	setString(&cfg.Agent.MarketURL, "X402_MARKET_URL")
	setString(&cfg.Agent.WSPort, "X402_WS_PORT")
	setBool(&cfg.Agent.StrictPricing, "X402_STRICT_PRICING")
	setBool(&cfg.Agent.RejectMultiCall, "X402_REJECT_MULTI_CALL")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.MCP.Addr, "X402_MCP_ADDR")

	setString(&cfg.Logging.Level, "X402_LOG_LEVEL")
	setString(&cfg.Logging.Service, "X402_LOG_SERVICE")

	setInt(&cfg.Breaker.MaxFailures, "X402_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "X402_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "X402_RATE_RPS")
	setInt(&cfg.Rate.Burst, "X402_RATE_BURST")

	setInt64(&cfg.Cache.MaxSizeMB, "X402_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.UpstreamTTL, "X402_CACHE_UPSTREAM_TTL")
	setDuration(&cfg.Cache.ProofTTL, "X402_CACHE_PROOF_TTL")
}

// ValidateGateway checks the fields the gateway binary requires at startup.
// Missing upstream credentials abort startup; a missing payee address is
// reported separately so the caller can warn and degrade.
func (c *Config) ValidateGateway() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Adzuna.AppID == "" || c.Adzuna.AppKey == "" {
		return errors.New("adzuna.app_id and adzuna.app_key are required (set ADZUNA_APP_ID / ADZUNA_APP_KEY)")
	}
	switch c.Payment.VerifyMode {
	case "presence", "reject":
	default:
		return fmt.Errorf("payment.verify_mode must be \"presence\" or \"reject\", got %q", c.Payment.VerifyMode)
	}
	if c.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if c.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

// PaymentsEnabled reports whether the gateway has a payee address configured.
func (c *Config) PaymentsEnabled() bool {
	return c.Payment.PayTo != ""
}

// ValidateAgent checks the fields the agent binary requires at startup.
func (c *Config) ValidateAgent() error {
	if c.Agent.MarketURL == "" {
		return errors.New("agent.market_url is required")
	}
	if c.Groq.APIKey == "" {
		return errors.New("groq.api_key is required (set GROQ_API_KEY)")
	}
	return nil
}

// SignerConfigured reports whether the agent has a settlement signer.
func (c *Config) SignerConfigured() bool {
	return c.Settlement.RPCURL != "" && c.Settlement.From != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
