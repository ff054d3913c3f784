// Package generation submits README prompts to hosted language models.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	defaultOpenAIModel = "gpt-4o"
	defaultGeminiModel = "gemini-2.5-flash"
)

// ErrEmptyCompletion reports a response that carried no text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Generator produces a single completion for a system and user prompt.
type Generator interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	// BaseURL overrides the OpenAI-compatible endpoint; ignored for Gemini.
	BaseURL string
	Logger  *zap.Logger
}

// NewGenerator constructs the Generator named by config.Provider.
// An empty provider selects OpenAI.
func NewGenerator(ctx context.Context, config Config) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))
	switch provider {
	case "", ProviderOpenAI:
		return NewOpenAIGenerator(config)
	case ProviderGemini:
		return NewGeminiGenerator(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", config.Provider)
	}
}

func modelOrDefault(model string, fallback string) string {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		return fallback
	}
	return trimmedModel
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
