package budget_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/temirov/readmegen/internal/budget"
)

type stubCounter struct{}

func (stubCounter) Name() string { return "stub" }

func (stubCounter) CountString(input string) (int, error) { return len(strings.Fields(input)), nil }

func TestEstimateTokens(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "below one token", text: "abc", expected: 0},
		{name: "exact", text: "abcdefgh", expected: 2},
		{name: "integer division", text: "abcdefghij", expected: 2},
		{name: "multibyte counts characters", text: "ééééééééé", expected: 2},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := budget.EstimateTokens(testCase.text); actual != testCase.expected {
				t.Fatalf("expected %d, got %d", testCase.expected, actual)
			}
		})
	}
}

func TestApply(t *testing.T) {
	testCases := []struct {
		name              string
		text              string
		maxTokens         int
		expectedText      string
		expectedTruncated bool
	}{
		{name: "within budget", text: "abcdefgh", maxTokens: 2, expectedText: "abcdefgh", expectedTruncated: false},
		{name: "remainder within budget", text: "abcdefghijk", maxTokens: 2, expectedText: "abcdefghijk", expectedTruncated: false},
		{name: "over budget", text: "abcdefghijkl", maxTokens: 2, expectedText: "abcdefgh", expectedTruncated: true},
		{name: "cuts through header", text: "--- File: a.go ---\npackage a", maxTokens: 2, expectedText: "--- File", expectedTruncated: true},
		{name: "multibyte prefix", text: "éééééééééééé", maxTokens: 2, expectedText: "éééééééé", expectedTruncated: true},
		{name: "zero budget", text: "abcd", maxTokens: 0, expectedText: "", expectedTruncated: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actualText, actualTruncated := budget.Apply(testCase.text, testCase.maxTokens)
			if actualText != testCase.expectedText || actualTruncated != testCase.expectedTruncated {
				t.Fatalf("expected (%q, %t), got (%q, %t)", testCase.expectedText, testCase.expectedTruncated, actualText, actualTruncated)
			}
			if actualTruncated && !strings.HasPrefix(testCase.text, actualText) {
				t.Fatalf("truncated text must be a prefix of the input")
			}
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	text := strings.Repeat("func main() {}\n", 1000)
	for _, maxTokens := range []int{0, 1, 100, 3749, 3750, 10000} {
		once, _ := budget.Apply(text, maxTokens)
		twice, truncatedAgain := budget.Apply(once, maxTokens)
		if once != twice {
			t.Fatalf("maxTokens=%d: second application changed the text", maxTokens)
		}
		if truncatedAgain {
			t.Fatalf("maxTokens=%d: second application must not truncate", maxTokens)
		}
	}
}

func TestBudgeterTruncatesTwentyThousandTokens(t *testing.T) {
	text := strings.Repeat("x", 80000)
	budgeter := budget.NewBudgeter(15000)
	context := budgeter.Budget(text)
	if !context.Truncated {
		t.Fatalf("expected truncation")
	}
	if utf8.RuneCountInString(context.Text) != 60000 {
		t.Fatalf("expected 60000 characters, got %d", utf8.RuneCountInString(context.Text))
	}
	if context.EstimatedTokens != 20000 {
		t.Fatalf("expected estimate 20000, got %d", context.EstimatedTokens)
	}
	if context.OriginalCharacters != 80000 {
		t.Fatalf("expected 80000 original characters, got %d", context.OriginalCharacters)
	}
}

func TestBudgeterDefaultsAndCounter(t *testing.T) {
	budgeter := budget.NewBudgeter(0, budget.WithCounter(stubCounter{}), budget.WithLogger(nil))
	if budgeter.MaxTokens() != budget.DefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", budgeter.MaxTokens())
	}
	context := budgeter.Budget("one two three")
	if context.Truncated {
		t.Fatalf("unexpected truncation")
	}
	if context.CountedTokens != 3 {
		t.Fatalf("expected counted tokens 3, got %d", context.CountedTokens)
	}
}
