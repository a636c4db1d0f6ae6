// Package config loads application configuration from environment variables
// and organization settings from a YAML file.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	SecretKey       []byte // Nil when ATTENTIONHUB_SECRET_KEY is unset.
	AnthropicAPIKey string
	AnthropicModel  string
	InsightsMaxAge  time.Duration
	ClassifyRPS     float64
}

// HasSecretKey reports whether credential encryption is available.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) > 0
}

// secretKeyBytes is the required AES-256 key length.
const secretKeyBytes = 32

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional. Defaults: ATTENTIONHUB_LISTEN_ADDR (127.0.0.1:8080),
// ATTENTIONHUB_DB_PATH (attentionhub.db), ATTENTIONHUB_INSIGHTS_MAX_AGE (1m),
// ATTENTIONHUB_CLASSIFY_RPS (2). ATTENTIONHUB_SECRET_KEY must be 64 hex characters
// when set; without it stored credentials are unavailable.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("ATTENTIONHUB_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "attentionhub.db"
	if v, ok := os.LookupEnv("ATTENTIONHUB_DB_PATH"); ok {
		dbPath = v
	}

	var secretKey []byte
	if v := strings.TrimSpace(os.Getenv("ATTENTIONHUB_SECRET_KEY")); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("ATTENTIONHUB_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != secretKeyBytes {
			return nil, fmt.Errorf("ATTENTIONHUB_SECRET_KEY must decode to %d bytes, got %d", secretKeyBytes, len(key))
		}
		secretKey = key
	}

	maxAge := time.Minute
	if v, ok := os.LookupEnv("ATTENTIONHUB_INSIGHTS_MAX_AGE"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ATTENTIONHUB_INSIGHTS_MAX_AGE has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("ATTENTIONHUB_INSIGHTS_MAX_AGE must not be negative, got %s", v)
		}
		maxAge = parsed
	}

	rps := 2.0
	if v, ok := os.LookupEnv("ATTENTIONHUB_CLASSIFY_RPS"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("ATTENTIONHUB_CLASSIFY_RPS has invalid number %q: %w", v, err)
		}
		rps = parsed
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		SecretKey:       secretKey,
		AnthropicAPIKey: os.Getenv("ATTENTIONHUB_ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("ATTENTIONHUB_ANTHROPIC_MODEL"),
		InsightsMaxAge:  maxAge,
		ClassifyRPS:     rps,
	}, nil
}
