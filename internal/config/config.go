// Package config loads process configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is everything the composition root needs to wire the engine.
type Config struct {
	// Provider selects the reply generator / judge backend:
	// "anthropic", "openai", "fallback" or "dummy".
	Provider string

	AnthropicAPIKey string
	OpenAIAPIKey    string

	// NLIBaseURL points at the hosted scoring service. Empty means the
	// deterministic offline scorer in the CLI.
	NLIBaseURL string

	// StorePath is the SQLite file; empty selects the in-memory store.
	StorePath string

	RequiredPositiveJudgements int
	MaxAssistantTurns          int

	ConfidenceThreshold float64
	NoveltyMin          float64
	MinAssistantWords   int
	TopicSignalMin      float64
	TopicNeutralMax     float64
}

// Load reads the environment. A .env file in the working directory is
// applied first without overriding variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Provider:        envStr("ARBITER_PROVIDER", "dummy"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		NLIBaseURL:      os.Getenv("ARBITER_NLI_URL"),
		StorePath:       os.Getenv("ARBITER_STORE_PATH"),
	}

	var err error
	if cfg.RequiredPositiveJudgements, err = envInt("ARBITER_REQUIRED_POSITIVES", 1); err != nil {
		return nil, err
	}
	if cfg.MaxAssistantTurns, err = envInt("ARBITER_MAX_TURNS", 5); err != nil {
		return nil, err
	}
	if cfg.ConfidenceThreshold, err = envFloat("ARBITER_CONFIDENCE_THRESHOLD", 0.70); err != nil {
		return nil, err
	}
	if cfg.NoveltyMin, err = envFloat("ARBITER_NOVELTY_MIN", 0.25); err != nil {
		return nil, err
	}
	if cfg.MinAssistantWords, err = envInt("ARBITER_MIN_ASSISTANT_WORDS", 8); err != nil {
		return nil, err
	}
	if cfg.TopicSignalMin, err = envFloat("ARBITER_TOPIC_SIGNAL_MIN", 0.30); err != nil {
		return nil, err
	}
	if cfg.TopicNeutralMax, err = envFloat("ARBITER_TOPIC_NEUTRAL_MAX", 0.72); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("config: ANTHROPIC_API_KEY is required for provider anthropic")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: OPENAI_API_KEY is required for provider openai")
		}
	case "fallback":
		if c.AnthropicAPIKey == "" || c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: provider fallback needs both ANTHROPIC_API_KEY and OPENAI_API_KEY")
		}
	case "dummy":
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}

	if c.RequiredPositiveJudgements < 1 {
		return fmt.Errorf("config: RequiredPositiveJudgements must be >= 1, got %d", c.RequiredPositiveJudgements)
	}
	if c.MaxAssistantTurns < 1 {
		return fmt.Errorf("config: MaxAssistantTurns must be >= 1, got %d", c.MaxAssistantTurns)
	}
	for name, v := range map[string]float64{
		"ConfidenceThreshold": c.ConfidenceThreshold,
		"NoveltyMin":          c.NoveltyMin,
		"TopicSignalMin":      c.TopicSignalMin,
		"TopicNeutralMax":     c.TopicNeutralMax,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s must be within [0,1], got %g", name, v)
		}
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return v, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return v, nil
}
