package prompt_test

import (
	"strings"
	"testing"

	"github.com/temirov/readmegen/internal/budget"
	"github.com/temirov/readmegen/internal/prompt"
)

func TestBuildUserPrompt(t *testing.T) {
	testCases := []struct {
		name           string
		context        budget.Context
		expectedNotice bool
	}{
		{
			name:           "complete codebase",
			context:        budget.Context{Text: "--- File: main.py ---\nprint(1)"},
			expectedNotice: false,
		},
		{
			name:           "truncated codebase",
			context:        budget.Context{Text: "--- File: main.py ---\npri", Truncated: true},
			expectedNotice: true,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			userPrompt := prompt.BuildUserPrompt(testCase.context)
			if !strings.HasSuffix(userPrompt, "Here is the codebase:\n"+testCase.context.Text) {
				t.Fatalf("prompt must end with the codebase, got %q", userPrompt)
			}
			if strings.Contains(userPrompt, prompt.TruncationNotice) != testCase.expectedNotice {
				t.Fatalf("truncation notice presence expected %t", testCase.expectedNotice)
			}
			for _, section := range []string{"Project Title", "Description", "Features", "Installation", "Usage"} {
				if !strings.Contains(userPrompt, section) {
					t.Fatalf("prompt is missing section %q", section)
				}
			}
		})
	}
}
