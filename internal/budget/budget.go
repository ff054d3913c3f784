// Package budget bounds the extracted repository text to a model context size.
//
// Token counts are estimated as one token per four characters, where a character
// is a Unicode code point. Truncation keeps a prefix of the text and may cut
// through a file header or a line.
package budget

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/temirov/readmegen/internal/tokenizer"
)

const (
	// CharactersPerToken is the fixed ratio used by EstimateTokens.
	CharactersPerToken = 4
	// DefaultMaxTokens is the context ceiling used when none is configured.
	DefaultMaxTokens = 15000
)

// Context is the possibly truncated text handed to prompt assembly.
type Context struct {
	Text               string
	Truncated          bool
	EstimatedTokens    int
	OriginalCharacters int
	// CountedTokens is the tokenizer count of Text; zero when no counter is configured.
	CountedTokens int
}

// EstimateTokens returns the character count of text divided by CharactersPerToken.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / CharactersPerToken
}

// Apply truncates text to maxTokens*CharactersPerToken characters when its
// estimate exceeds maxTokens. It reports whether truncation happened.
// Apply is idempotent for a fixed maxTokens.
func Apply(text string, maxTokens int) (string, bool) {
	if maxTokens < 0 {
		maxTokens = 0
	}
	if EstimateTokens(text) <= maxTokens {
		return text, false
	}
	return prefixCharacters(text, maxTokens*CharactersPerToken), true
}

// prefixCharacters returns the first limit code points of text.
func prefixCharacters(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	characterIndex := 0
	for byteOffset := range text {
		if characterIndex == limit {
			return text[:byteOffset]
		}
		characterIndex++
	}
	return text
}

// Budgeter applies a configured token ceiling and reports diagnostics.
type Budgeter struct {
	maxTokens int
	counter   tokenizer.Counter
	logger    *zap.Logger
}

// Option configures a Budgeter.
type Option func(*Budgeter)

// WithCounter attaches a tokenizer whose count is logged alongside the estimate.
func WithCounter(counter tokenizer.Counter) Option {
	return func(budgeter *Budgeter) {
		budgeter.counter = counter
	}
}

// WithLogger sets the logger used for budget diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(budgeter *Budgeter) {
		if logger != nil {
			budgeter.logger = logger
		}
	}
}

// NewBudgeter constructs a Budgeter. A non-positive maxTokens selects DefaultMaxTokens.
func NewBudgeter(maxTokens int, options ...Option) *Budgeter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	budgeter := &Budgeter{maxTokens: maxTokens, logger: zap.NewNop()}
	for _, option := range options {
		option(budgeter)
	}
	return budgeter
}

// MaxTokens returns the configured ceiling.
func (budgeter *Budgeter) MaxTokens() int {
	return budgeter.maxTokens
}

// Budget applies the ceiling to text.
func (budgeter *Budgeter) Budget(text string) Context {
	estimatedTokens := EstimateTokens(text)
	budgetedText, truncated := Apply(text, budgeter.maxTokens)
	context := Context{
		Text:               budgetedText,
		Truncated:          truncated,
		EstimatedTokens:    estimatedTokens,
		OriginalCharacters: utf8.RuneCountInString(text),
	}

	if budgeter.counter != nil {
		countResult, countErr := tokenizer.CountText(budgeter.counter, budgetedText)
		if countErr != nil {
			budgeter.logger.Warn("token count failed", zap.String("tokenizer", budgeter.counter.Name()), zap.Error(countErr))
		} else if countResult.Counted {
			context.CountedTokens = countResult.Tokens
		}
	}

	if truncated {
		budgeter.logger.Warn("context exceeds token budget, truncating",
			zap.Int("estimated_tokens", estimatedTokens),
			zap.Int("max_tokens", budgeter.maxTokens),
			zap.Int("kept_characters", budgeter.maxTokens*CharactersPerToken),
			zap.Int("counted_tokens", context.CountedTokens),
		)
	} else {
		budgeter.logger.Debug("context within token budget",
			zap.Int("estimated_tokens", estimatedTokens),
			zap.Int("counted_tokens", context.CountedTokens),
		)
	}
	return context
}
