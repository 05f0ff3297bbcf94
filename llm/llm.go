// Package llm provides the model capability consumed by the agents: plain
// text generation and schema-constrained structured generation. The
// provider (Anthropic or OpenAI) is selected from configuration.
package llm

import (
	"context"
	"fmt"
)

// Client is the minimal interface for making model calls. The agents
// don't care about the provider -- they need a prompt-to-text call and a
// prompt-to-typed-object call.
type Client interface {
	// GenerateText sends a prompt and returns the model's free-text
	// response.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateObject sends a prompt and decodes the model's response into
	// out, constraining the output with a JSON schema reflected from
	// out's type. Returns an error when the output cannot be decoded into
	// the schema.
	GenerateObject(ctx context.Context, prompt string, out any) error
}

// Config selects and parameterizes a provider.
type Config struct {
	// Provider is "anthropic", "openai", or "auto" (prefer Anthropic when
	// both keys are present).
	Provider string

	// Model overrides the provider's default model name.
	Model string

	AnthropicAPIKey string
	OpenAIAPIKey    string
}

// New creates a Client from the given configuration.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider selected but no API key configured")
		}
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but no API key configured")
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model), nil
	case "", "auto":
		if cfg.AnthropicAPIKey != "" {
			return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model), nil
		}
		if cfg.OpenAIAPIKey != "" {
			return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model), nil
		}
		return nil, fmt.Errorf("no model API key found (set ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
