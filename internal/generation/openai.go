package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// LLMGenerator completes prompts through a langchaingo chat model.
type LLMGenerator struct {
	model     llms.Model
	modelName string
	logger    *zap.Logger
}

// NewOpenAIGenerator builds an LLMGenerator backed by the OpenAI chat API.
// Without an API key the client falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIGenerator(config Config) (*LLMGenerator, error) {
	modelName := modelOrDefault(config.Model, defaultOpenAIModel)
	options := []openai.Option{openai.WithModel(modelName)}
	if apiKey := strings.TrimSpace(config.APIKey); apiKey != "" {
		options = append(options, openai.WithToken(apiKey))
	}
	if baseURL := strings.TrimSpace(config.BaseURL); baseURL != "" {
		options = append(options, openai.WithBaseURL(baseURL))
	}
	client, clientErr := openai.New(options...)
	if clientErr != nil {
		return nil, fmt.Errorf("create openai client: %w", clientErr)
	}
	return NewLLMGenerator(client, modelName, config.Logger), nil
}

// NewLLMGenerator wraps an existing langchaingo model.
func NewLLMGenerator(model llms.Model, modelName string, logger *zap.Logger) *LLMGenerator {
	return &LLMGenerator{model: model, modelName: modelName, logger: loggerOrNop(logger)}
}

// Complete sends the prompts as system and human messages and returns the first choice.
func (generator *LLMGenerator) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	generator.logger.Info("requesting completion", zap.String("model", generator.modelName))
	response, generateErr := generator.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	})
	if generateErr != nil {
		return "", fmt.Errorf("generate with %s: %w", generator.modelName, generateErr)
	}
	if response == nil || len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Content) == "" {
		return "", ErrEmptyCompletion
	}
	return response.Choices[0].Content, nil
}

var _ Generator = (*LLMGenerator)(nil)
