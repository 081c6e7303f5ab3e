// Package aiconnectors builds langchaingo model clients for the
// configured generative-text provider.
package aiconnectors

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider identifies a generative-text backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
	ProviderOllama Provider = "ollama"
)

// ModelConfig contains per-model generation settings.
type ModelConfig struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Options configures a connector.
type Options struct {
	Provider    Provider    `json:"provider"`
	APIKey      string      `json:"api_key"`
	BaseURL     string      `json:"base_url,omitempty"`
	ModelConfig ModelConfig `json:"model_config,omitempty"`
}

// DefaultModel returns the fallback model name for a provider.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderGemini:
		return "gemini-2.0-flash-exp"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderClaude:
		return "claude-3-5-haiku-latest"
	case ProviderOllama:
		return "llama3"
	default:
		return ""
	}
}

// Connector is a configured connection to one provider.
type Connector struct {
	provider Provider
	llm      llms.Model
	options  Options
}

// NewConnector creates a connector for the configured provider. Providers
// other than ollama require an API key.
func NewConnector(ctx context.Context, options Options) (*Connector, error) {
	if options.ModelConfig.Model == "" {
		options.ModelConfig.Model = DefaultModel(options.Provider)
	}
	if options.APIKey == "" && options.Provider != ProviderOllama {
		return nil, fmt.Errorf("missing API key for provider %s", options.Provider)
	}

	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.ModelConfig.Model).
		Float64("temperature", options.ModelConfig.Temperature).
		Msg("Creating AI connector")

	var model llms.Model
	var err error
	switch options.Provider {
	case ProviderGemini:
		model, err = googleai.New(ctx, googleai.WithAPIKey(options.APIKey))
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(options.ModelConfig.Model),
			openai.WithToken(options.APIKey),
		}
		if options.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(options.BaseURL))
		}
		model, err = openai.New(opts...)
	case ProviderClaude:
		model, err = anthropic.New(
			anthropic.WithToken(options.APIKey),
			anthropic.WithModel(options.ModelConfig.Model),
		)
	case ProviderOllama:
		baseURL := options.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model, err = ollama.New(
			ollama.WithServerURL(baseURL),
			ollama.WithModel(options.ModelConfig.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", options.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}

	return &Connector{
		provider: options.Provider,
		llm:      model,
		options:  options,
	}, nil
}

// Call invokes the model with the connector's generation parameters.
// Gemini needs the model named per call since the client is created
// without a default model.
func (c *Connector) Call(ctx context.Context, input string, options ...llms.CallOption) (string, error) {
	callOptions := []llms.CallOption{
		llms.WithTemperature(c.options.ModelConfig.Temperature),
	}
	if c.options.ModelConfig.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(c.options.ModelConfig.MaxTokens))
	}
	if c.provider == ProviderGemini {
		callOptions = append(callOptions, llms.WithModel(c.options.ModelConfig.Model))
	}
	callOptions = append(callOptions, options...)

	return llms.GenerateFromSinglePrompt(ctx, c.llm, input, callOptions...)
}

// GetProvider returns the connector's provider.
func (c *Connector) GetProvider() Provider {
	return c.provider
}

// GetModel returns the configured model name.
func (c *Connector) GetModel() string {
	return c.options.ModelConfig.Model
}
