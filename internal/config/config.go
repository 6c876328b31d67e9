// Package config loads process configuration once at startup. The returned
// Config is treated as read-only for the lifetime of the process.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Database, libpq-style parameters
	PGDatabase string `json:"pg_database"`
	PGUser     string `json:"pg_user"`
	PGPassword string `json:"pg_password"`
	PGHost     string `json:"pg_host"`
	PGPort     string `json:"pg_port"`

	// Language model
	LLMProvider       string `json:"llm_provider"` // "gemini" | "anthropic"
	LLMTimeoutSeconds int    `json:"llm_timeout_seconds"`
	GoogleAPIKey      string `json:"google_api_key"`
	GeminiAPIURL      string `json:"gemini_api_url"`
	AnthropicAPIKey   string `json:"anthropic_api_key"`
	AnthropicBaseURL  string `json:"anthropic_base_url"`
	AnthropicModel    string `json:"anthropic_model"`

	// Hosted agent
	AgentModel   string `json:"agent_model"`
	AgentTimeout int    `json:"agent_timeout"`

	// Guards, all applied outside the core pipeline except SQL validation
	EnableSQLValidation    bool     `json:"enable_sql_validation"`
	EnablePIIDetection     bool     `json:"enable_pii_detection"`
	EnablePromptValidation bool     `json:"enable_prompt_validation"`
	EnableDataMasking      bool     `json:"enable_data_masking"`
	EnableAuditLogging     bool     `json:"enable_audit_logging"`
	SensitiveColumns       []string `json:"sensitive_columns"`
	PIIKeywords            []string `json:"pii_keywords"`
}

// Load builds the configuration from defaults, an optional JSON file
// (NL2SQL_CONFIG), a .env file and finally the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		Host:                   DefaultHost,
		Port:                   DefaultPort,
		Environment:            DefaultEnvironment,
		APIPrefix:              DefaultAPIPrefix,
		LogLevel:               DefaultLogLevel,
		CORSOrigins:            DefaultCORSOrigins,
		APIKeyHeader:           "X-API-Key",
		EnableAuth:             true,
		RateLimitPerMinute:     DefaultRateLimitPerMinute,
		LLMProvider:            DefaultLLMProvider,
		GeminiAPIURL:           DefaultGeminiURL,
		AgentModel:             DefaultAgentModel,
		AgentTimeout:           DefaultAgentTimeout,
		EnablePIIDetection:     true,
		EnablePromptValidation: true,
		EnableDataMasking:      true,
		EnableAuditLogging:     true,
		SensitiveColumns:       DefaultSensitiveColumns,
		PIIKeywords:            DefaultPIIKeywords,
	}

	if err := LoadDotEnv(getEnv("NL2SQL_ENV_FILE", DefaultEnvFile)); err != nil {
		return nil, err
	}

	if path := getEnv("NL2SQL_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot work at all
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLMProvider)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.PGPort != "" {
		if _, err := strconv.ParseUint(c.PGPort, 10, 16); err != nil {
			return fmt.Errorf("invalid PGPORT %q", c.PGPort)
		}
	}
	return nil
}

// LLMTimeout is zero when no timeout was configured
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// LLMConfigured reports whether the selected provider has a credential
func (c *Config) LLMConfigured() bool {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicAPIKey != ""
	}
	return c.GoogleAPIKey != ""
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("ENVIRONMENT", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("API_PREFIX", ""); v != "" {
		cfg.APIPrefix = v
	}
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := getEnv("NL2SQL_API_KEYS", ""); v != "" {
		cfg.APIKeys = splitList(v)
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = parseBool(v)
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}

	if v, ok := os.LookupEnv("PGDATABASE"); ok {
		cfg.PGDatabase = v
	}
	if v, ok := os.LookupEnv("PGUSER"); ok {
		cfg.PGUser = v
	}
	if v, ok := os.LookupEnv("PGPASSWORD"); ok {
		cfg.PGPassword = v
	}
	if v, ok := os.LookupEnv("PGHOST"); ok {
		cfg.PGHost = v
	}
	if v, ok := os.LookupEnv("PGPORT"); ok {
		cfg.PGPort = v
	}

	if v := getEnv("LLM_PROVIDER", ""); v != "" {
		cfg.LLMProvider = strings.ToLower(v)
	}
	if v := getEnv("LLM_TIMEOUT_SECONDS", ""); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.LLMTimeoutSeconds = s
		}
	}
	if v := getEnv("GOOGLE_API_KEY", ""); v != "" {
		cfg.GoogleAPIKey = v
	}
	if v := getEnv("GEMINI_API_URL", ""); v != "" {
		cfg.GeminiAPIURL = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("ANTHROPIC_MODEL", ""); v != "" {
		cfg.AnthropicModel = v
	}
	if v := getEnv("AGENT_MODEL", ""); v != "" {
		cfg.AgentModel = v
	}
	if v := getEnv("AGENT_TIMEOUT", ""); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.AgentTimeout = s
		}
	}

	if v := getEnv("ENABLE_SQL_VALIDATION", ""); v != "" {
		cfg.EnableSQLValidation = parseBool(v)
	}
	if v := getEnv("ENABLE_PII_DETECTION", ""); v != "" {
		cfg.EnablePIIDetection = parseBool(v)
	}
	if v := getEnv("ENABLE_PROMPT_VALIDATION", ""); v != "" {
		cfg.EnablePromptValidation = parseBool(v)
	}
	if v := getEnv("ENABLE_DATA_MASKING", ""); v != "" {
		cfg.EnableDataMasking = parseBool(v)
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = parseBool(v)
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
