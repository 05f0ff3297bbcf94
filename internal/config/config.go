// Package config provides configuration management for PRPilot.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// envPrefix scopes the service's own environment variables; the well
// known credential variables (GITHUB_TOKEN etc.) are read unprefixed.
const envPrefix = "PRPILOT_"

// Config holds all configuration for the PRPilot server.
type Config struct {
	// Addr is the address the HTTP server listens on (e.g., ":7080").
	Addr string `koanf:"addr"`

	// GitHubToken is the token used for all GitHub API operations.
	GitHubToken string `koanf:"github_token"`

	// WebhookSecret verifies webhook payload signatures when set.
	WebhookSecret string `koanf:"webhook_secret"`

	// BotLogin is the service's own GitHub login, used to ignore events
	// the service itself caused.
	BotLogin string `koanf:"bot_login"`

	// LLM provider selection. Provider is "anthropic", "openai", or
	// "auto" (prefer Anthropic when both keys are present).
	LLMProvider     string `koanf:"llm_provider"`
	LLMModel        string `koanf:"llm_model"`
	AnthropicAPIKey string `koanf:"anthropic_api_key"`
	OpenAIAPIKey    string `koanf:"openai_api_key"`

	// Trigger labels.
	ReviewLabel  string `koanf:"review_label"`
	TestGenLabel string `koanf:"testgen_label"`

	// TestRoot is the repository directory scanned for existing test
	// files; UIPageRoot marks files as UI code by path prefix.
	TestRoot   string `koanf:"test_root"`
	UIPageRoot string `koanf:"ui_page_root"`

	// MaxFileChars bounds the content size included per changed file.
	MaxFileChars int `koanf:"max_file_chars"`

	// Slack notifications (optional).
	SlackBotToken string `koanf:"slack_bot_token"`
	SlackChannel  string `koanf:"slack_channel"`
}

// Load builds a Config from defaults layered under PRPILOT_* environment
// variables, with the usual credential variables as fallbacks.
func Load() (*Config, error) {
	k := koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"addr":           ":7080",
		"llm_provider":   "auto",
		"review_label":   "ready-for-review",
		"testgen_label":  "ready-for-tests",
		"test_root":      "__tests__",
		"ui_page_root":   "app/",
		"max_file_chars": 32000,
	}, "."), nil)

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.WebhookSecret == "" {
		cfg.WebhookSecret = os.Getenv("GITHUB_WEBHOOK_SECRET")
	}
	if cfg.AnthropicAPIKey == "" {
		cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.SlackBotToken == "" {
		cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")
	}

	return &cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	if c.AnthropicAPIKey == "" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("at least one of ANTHROPIC_API_KEY or OPENAI_API_KEY is required")
	}
	return nil
}

// SlackEnabled reports whether completion notifications are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}
