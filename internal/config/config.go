package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	GrafanaURL    string `yaml:"grafana_url"`
	GrafanaAPIKey string `yaml:"grafana_api_key"`

	OllamaURL      string `yaml:"ollama_url"`
	OllamaGenModel string `yaml:"ollama_gen_model"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	TurnTimeoutSeconds       int `yaml:"turn_timeout_seconds"`
	ClassifierTimeoutSeconds int `yaml:"classifier_timeout_seconds"`
	CatalogTimeoutSeconds    int `yaml:"catalog_timeout_seconds"`
	MaxRounds                int `yaml:"max_rounds"`
	DisplayLimit             int `yaml:"display_limit"`

	APIRateLimitRPS   int `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int `yaml:"api_rate_limit_burst"`
	APIMaxInFlight    int `yaml:"api_max_in_flight"`

	BreakerEnabled bool `yaml:"breaker_enabled"`
}

// Load resolves configuration from environment variables with defaults,
// then applies an optional YAML overlay named by CONFIG_FILE. The
// resolved value object is consumed read-only at startup and never
// re-read mid-turn.
func Load() (Config, error) {
	cfg := Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		GrafanaURL:    mustEnv("GRAFANA_URL", "http://localhost:3000"),
		GrafanaAPIKey: mustEnv("GRAFANA_API_KEY", ""),

		OllamaURL:      mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel: mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "assistant.turns"),

		TurnTimeoutSeconds:       mustEnvInt("TURN_TIMEOUT_SECONDS", 20),
		ClassifierTimeoutSeconds: mustEnvInt("CLASSIFIER_TIMEOUT_SECONDS", 10),
		CatalogTimeoutSeconds:    mustEnvInt("CATALOG_TIMEOUT_SECONDS", 8),
		MaxRounds:                mustEnvInt("MAX_ROUNDS", 1),
		DisplayLimit:             mustEnvInt("DISPLAY_LIMIT", 20),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 32),

		BreakerEnabled: mustEnvBool("BREAKER_ENABLED", true),
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
