// Package llm is the provider gateway: it builds a chat model for the
// configured backend and calls it under a hard deadline, substituting a
// canned degraded-mode reply when the call fails or runs late.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/cohere"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tbourn/wellness-chat-backend/internal/config"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderCohere    = "cohere"
)

const defaultOllamaURL = "http://localhost:11434"

// ErrUnknownProvider is returned by NewModel for an unsupported provider.
var ErrUnknownProvider = errors.New("unknown llm provider")

// Generator is the slice of a langchaingo model the gateway uses.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// NewModel constructs the chat model for cfg.Provider.
func NewModel(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	var (
		m   Generator
		err error
	)
	switch cfg.Provider {
	case ProviderOpenAI:
		m, err = newOpenAI(cfg)
	case ProviderAnthropic:
		m, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
	case ProviderGemini:
		m, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	case ProviderOllama:
		url := cfg.BaseURL
		if url == "" {
			url = defaultOllamaURL
		}
		m, err = ollama.New(
			ollama.WithServerURL(url),
			ollama.WithModel(cfg.Model),
		)
	case ProviderCohere:
		opts := []cohere.Option{
			cohere.WithToken(cfg.APIKey),
			cohere.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, cohere.WithBaseURL(cfg.BaseURL))
		}
		m, err = cohere.New(opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Provider, err)
	}
	return m, nil
}

func newOpenAI(cfg config.LLMConfig) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}
