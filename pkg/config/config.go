package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	envVendor         = "CHORUS_VENDOR"
	envModel          = "CHORUS_MODEL"
	envNotifyBotToken = "CHORUS_NOTIFY_BOT_TOKEN"
	envNotifyChatIDs  = "CHORUS_NOTIFY_CHAT_IDS"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Engine  EngineConfig  `json:"engine"`
	Vendors VendorsConfig `json:"vendors"`
	Notify  NotifyConfig  `json:"notify"`
	Gateway GatewayConfig `json:"gateway"`
	Logging LoggingConfig `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// EngineConfig holds the operator-level defaults for the decision engine.
type EngineConfig struct {
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
}

// VendorsConfig stores per-vendor connection settings.
type VendorsConfig struct {
	OpenAI     OpenAIVendorConfig     `json:"openai"`
	OpenRouter CompatibleVendorConfig `json:"openrouter"`
	Gemini     CompatibleVendorConfig `json:"gemini"`
}

// OpenAIVendorConfig configures the direct OpenAI client.
type OpenAIVendorConfig struct {
	BaseURL               string `json:"base_url"`
	Organization          string `json:"organization"`
	Project               string `json:"project"`
	APIKeyEnv             string `json:"api_key_env"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// CompatibleVendorConfig configures an OpenAI-compatible vendor endpoint.
type CompatibleVendorConfig struct {
	BaseURL               string `json:"base_url"`
	APIKeyEnv             string `json:"api_key_env"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// NotifyConfig configures the escalation notifier.
type NotifyConfig struct {
	Enabled  bool     `json:"enabled"`
	BotToken string   `json:"bot_token"`
	ChatIDs  []string `json:"chat_ids"`
}

// GatewayConfig configures HTTP gateway bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoadConfig resolves config.json, unmarshals it, and applies environment overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if vendor := strings.TrimSpace(os.Getenv(envVendor)); vendor != "" {
		cfg.Engine.Vendor = vendor
	}

	if model := strings.TrimSpace(os.Getenv(envModel)); model != "" {
		cfg.Engine.Model = model
	}

	if token := strings.TrimSpace(os.Getenv(envNotifyBotToken)); token != "" {
		cfg.Notify.BotToken = token
	}

	if rawChatIDs := strings.TrimSpace(os.Getenv(envNotifyChatIDs)); rawChatIDs != "" {
		cfg.Notify.ChatIDs = parseCSV(rawChatIDs)
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is CHORUS_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("CHORUS_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("CHORUS_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
