package generation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	genai "google.golang.org/genai"
)

// GeminiGenerator completes prompts with the Gemini API.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

// NewGeminiGenerator creates a Gemini client. Without an API key the client
// reads GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func NewGeminiGenerator(ctx context.Context, config Config) (*GeminiGenerator, error) {
	client, clientErr := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(config.APIKey),
		Backend: genai.BackendGeminiAPI,
	})
	if clientErr != nil {
		return nil, fmt.Errorf("create gemini client: %w", clientErr)
	}
	return &GeminiGenerator{
		client:    client,
		modelName: modelOrDefault(config.Model, defaultGeminiModel),
		logger:    loggerOrNop(config.Logger),
	}, nil
}

// Complete sends userPrompt with systemPrompt as the system instruction.
func (generator *GeminiGenerator) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	generator.logger.Info("requesting completion", zap.String("model", generator.modelName))
	response, generateErr := generator.client.Models.GenerateContent(ctx, generator.modelName,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser)},
	)
	if generateErr != nil {
		return "", fmt.Errorf("generate with %s: %w", generator.modelName, generateErr)
	}
	completion := responseText(response)
	if strings.TrimSpace(completion) == "" {
		return "", ErrEmptyCompletion
	}
	return completion, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		builder.WriteString(part.Text)
	}
	return builder.String()
}

var _ Generator = (*GeminiGenerator)(nil)
