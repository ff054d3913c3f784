package readme_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/temirov/readmegen/internal/budget"
	"github.com/temirov/readmegen/internal/prompt"
	"github.com/temirov/readmegen/internal/readme"
	"github.com/temirov/readmegen/internal/retrieval"
)

const testRepositoryURL = "https://github.com/example/project"

type fakeCloner struct {
	files       map[string]string
	err         error
	removeRoot  bool
	destination string
	hadDeadline bool
}

func (cloner *fakeCloner) Clone(ctx context.Context, _ string, destination string) error {
	cloner.destination = destination
	_, cloner.hadDeadline = ctx.Deadline()
	if cloner.err != nil {
		return cloner.err
	}
	for relativePath, content := range cloner.files {
		absolutePath := filepath.Join(destination, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(absolutePath, []byte(content), 0o600); err != nil {
			return err
		}
	}
	if cloner.removeRoot {
		return os.RemoveAll(destination)
	}
	return nil
}

type fakeGenerator struct {
	completion   string
	err          error
	systemPrompt string
	userPrompt   string
	called       bool
}

func (generator *fakeGenerator) Complete(_ context.Context, systemPrompt string, userPrompt string) (string, error) {
	generator.called = true
	generator.systemPrompt = systemPrompt
	generator.userPrompt = userPrompt
	return generator.completion, generator.err
}

func newTestService(t *testing.T, cloner *fakeCloner, generator *fakeGenerator, tempRoot string, stages *[]readme.Stage) *readme.Service {
	t.Helper()
	service, err := readme.NewService(readme.Options{
		Cloner:    cloner,
		Generator: generator,
		Budgeter:  budget.NewBudgeter(15000),
		TempRoot:  tempRoot,
		OnStage: func(stage readme.Stage) {
			if stages != nil {
				*stages = append(*stages, stage)
			}
		},
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return service
}

func assertNoSnapshots(t *testing.T, tempRoot string) {
	t.Helper()
	remaining, err := os.ReadDir(tempRoot)
	if err != nil {
		t.Fatalf("read temp root: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected snapshot directories to be removed, found %d", len(remaining))
	}
}

func TestGenerateSucceeds(t *testing.T) {
	tempRoot := t.TempDir()
	cloner := &fakeCloner{files: map[string]string{"README.md": "# Old", "main.py": "print(1)"}}
	generator := &fakeGenerator{completion: "# Project\n"}
	var stages []readme.Stage
	service := newTestService(t, cloner, generator, tempRoot, &stages)

	result, err := service.Generate(context.Background(), testRepositoryURL)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if result.Readme != "# Project\n" {
		t.Fatalf("unexpected readme %q", result.Readme)
	}
	if result.Truncated || result.FilesIncluded != 1 || result.FilesSkipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if generator.systemPrompt != prompt.SystemPrompt {
		t.Fatalf("unexpected system prompt %q", generator.systemPrompt)
	}
	if !strings.HasSuffix(generator.userPrompt, "--- File: main.py ---\nprint(1)") {
		t.Fatalf("user prompt must embed the extracted document, got %q", generator.userPrompt)
	}
	if strings.Contains(generator.userPrompt, prompt.TruncationNotice) {
		t.Fatalf("untruncated prompt must not carry the truncation notice")
	}
	if !cloner.hadDeadline {
		t.Fatalf("clone must run with a deadline")
	}
	expectedStages := []readme.Stage{
		readme.StageIdle,
		readme.StageCloning,
		readme.StageExtracting,
		readme.StageBudgeting,
		readme.StagePromptBuilding,
		readme.StageGenerating,
		readme.StageResponding,
		readme.StageCleaningUp,
		readme.StageDone,
	}
	if strings.Join(stageNames(stages), ",") != strings.Join(stageNames(expectedStages), ",") {
		t.Fatalf("expected stages %v, got %v", expectedStages, stages)
	}
	if _, statErr := os.Stat(cloner.destination); !os.IsNotExist(statErr) {
		t.Fatalf("snapshot %s still exists", cloner.destination)
	}
	assertNoSnapshots(t, tempRoot)
}

func TestGenerateTruncatesLargeRepositories(t *testing.T) {
	tempRoot := t.TempDir()
	header := "--- File: main.go ---\n"
	content := strings.Repeat("x", 80000-len(header))
	cloner := &fakeCloner{files: map[string]string{"main.go": content}}
	generator := &fakeGenerator{completion: "# Large"}
	service := newTestService(t, cloner, generator, tempRoot, nil)

	result, err := service.Generate(context.Background(), testRepositoryURL)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !result.Truncated || result.EstimatedTokens != 20000 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(generator.userPrompt, prompt.TruncationNotice) {
		t.Fatalf("truncated prompt must carry the truncation notice")
	}
	expectedCodebase := header + strings.Repeat("x", 60000-len(header))
	if !strings.HasSuffix(generator.userPrompt, "\n"+expectedCodebase) {
		t.Fatalf("prompt must embed exactly the first 60000 characters")
	}
	assertNoSnapshots(t, tempRoot)
}

func TestGenerateFailures(t *testing.T) {
	testCases := []struct {
		name             string
		repositoryURL    string
		cloner           *fakeCloner
		generator        *fakeGenerator
		expectedKind     readme.ErrorKind
		expectedStatus   int
		expectedDetail   string
		expectedLastStep readme.Stage
		expectGenerate   bool
	}{
		{
			name:           "malformed url",
			repositoryURL:  "not a url",
			cloner:         &fakeCloner{},
			generator:      &fakeGenerator{},
			expectedKind:   readme.ErrorKindClientInput,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "repo_url must be an absolute URL",
		},
		{
			name:           "clone failure",
			repositoryURL:  testRepositoryURL,
			cloner:         &fakeCloner{err: retrieval.ErrRetrieval},
			generator:      &fakeGenerator{},
			expectedKind:   readme.ErrorKindClientInput,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Failed to clone repository. Ensure the URL is correct and repository is public. Error: repository retrieval failed",
		},
		{
			name:           "only test files",
			repositoryURL:  testRepositoryURL,
			cloner:         &fakeCloner{files: map[string]string{"app.test.js": "test()"}},
			generator:      &fakeGenerator{},
			expectedKind:   readme.ErrorKindClientInput,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Could not find any readable code files in the repository.",
		},
		{
			name:           "generation failure",
			repositoryURL:  testRepositoryURL,
			cloner:         &fakeCloner{files: map[string]string{"main.go": "package main"}},
			generator:      &fakeGenerator{err: errors.New("quota exceeded")},
			expectedKind:   readme.ErrorKindUpstreamService,
			expectedStatus: http.StatusInternalServerError,
			expectedDetail: "Failed to generate README: quota exceeded",
			expectGenerate: true,
		},
		{
			name:           "snapshot disappears",
			repositoryURL:  testRepositoryURL,
			cloner:         &fakeCloner{removeRoot: true},
			generator:      &fakeGenerator{},
			expectedKind:   readme.ErrorKindUnexpected,
			expectedStatus: http.StatusInternalServerError,
			expectedDetail: "An unexpected error occurred: ",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			tempRoot := t.TempDir()
			var stages []readme.Stage
			service := newTestService(t, testCase.cloner, testCase.generator, tempRoot, &stages)

			_, err := service.Generate(context.Background(), testCase.repositoryURL)
			var requestError *readme.RequestError
			if !errors.As(err, &requestError) {
				t.Fatalf("expected *readme.RequestError, got %v", err)
			}
			if requestError.Kind() != testCase.expectedKind {
				t.Fatalf("expected kind %s, got %s", testCase.expectedKind, requestError.Kind())
			}
			if requestError.StatusCode() != testCase.expectedStatus {
				t.Fatalf("expected status %d, got %d", testCase.expectedStatus, requestError.StatusCode())
			}
			if !strings.HasPrefix(requestError.Detail(), testCase.expectedDetail) {
				t.Fatalf("expected detail prefix %q, got %q", testCase.expectedDetail, requestError.Detail())
			}
			if testCase.generator.called != testCase.expectGenerate {
				t.Fatalf("generator called: expected %t", testCase.expectGenerate)
			}
			assertFailedBeforeCleanup(t, stages)
			assertNoSnapshots(t, tempRoot)
		})
	}
}

// assertFailedBeforeCleanup checks that failed is recorded once and precedes any cleanup.
func assertFailedBeforeCleanup(t *testing.T, stages []readme.Stage) {
	t.Helper()
	failedIndex, cleanupIndex, failedCount := -1, -1, 0
	for index, stage := range stages {
		switch stage {
		case readme.StageFailed:
			failedIndex = index
			failedCount++
		case readme.StageCleaningUp:
			cleanupIndex = index
		case readme.StageDone:
			t.Fatalf("failed request must not reach done, got %v", stages)
		}
	}
	if failedCount != 1 {
		t.Fatalf("expected exactly one failed stage, got %v", stages)
	}
	if cleanupIndex >= 0 && cleanupIndex != failedIndex+1 {
		t.Fatalf("expected cleaning_up right after failed, got %v", stages)
	}
	if cleanupIndex >= 0 && cleanupIndex != len(stages)-1 {
		t.Fatalf("expected cleaning_up to be the last stage, got %v", stages)
	}
}

func TestGenerateRecordsFailedBeforeCleanup(t *testing.T) {
	var stages []readme.Stage
	service := newTestService(t, &fakeCloner{err: retrieval.ErrRetrieval}, &fakeGenerator{}, t.TempDir(), &stages)
	if _, err := service.Generate(context.Background(), testRepositoryURL); err == nil {
		t.Fatalf("expected clone failure")
	}
	expectedStages := []readme.Stage{readme.StageIdle, readme.StageCloning, readme.StageFailed, readme.StageCleaningUp}
	if strings.Join(stageNames(stages), ",") != strings.Join(stageNames(expectedStages), ",") {
		t.Fatalf("expected stages %v, got %v", expectedStages, stages)
	}
}

type runeCounter struct{}

func (runeCounter) Name() string { return "runes" }

func (runeCounter) CountString(input string) (int, error) {
	return len([]rune(input)), nil
}

func TestGenerateReportsCountedTokens(t *testing.T) {
	cloner := &fakeCloner{files: map[string]string{"main.py": "print(1)"}}
	service, err := readme.NewService(readme.Options{
		Cloner:    cloner,
		Generator: &fakeGenerator{completion: "# Counted"},
		Budgeter:  budget.NewBudgeter(15000, budget.WithCounter(runeCounter{})),
		TempRoot:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	result, generateErr := service.Generate(context.Background(), testRepositoryURL)
	if generateErr != nil {
		t.Fatalf("Generate error: %v", generateErr)
	}
	expectedCount := len([]rune("--- File: main.py ---\nprint(1)"))
	if result.CountedTokens != expectedCount {
		t.Fatalf("expected %d counted tokens, got %d", expectedCount, result.CountedTokens)
	}
}

func TestGenerateAppliesGenerationTimeout(t *testing.T) {
	generator := &deadlineGenerator{}
	service, err := readme.NewService(readme.Options{
		Cloner:            &fakeCloner{files: map[string]string{"main.go": "package main"}},
		Generator:         generator,
		TempRoot:          t.TempDir(),
		GenerationTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	_, generateErr := service.Generate(context.Background(), testRepositoryURL)
	if !errors.Is(generateErr, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", generateErr)
	}
	if readme.Classify(generateErr).Kind() != readme.ErrorKindUpstreamService {
		t.Fatalf("timeouts must be classified as upstream failures")
	}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	if _, err := readme.NewService(readme.Options{Generator: &fakeGenerator{}}); err == nil {
		t.Fatalf("expected error without cloner")
	}
	if _, err := readme.NewService(readme.Options{Cloner: &fakeCloner{}}); err == nil {
		t.Fatalf("expected error without generator")
	}
}

type deadlineGenerator struct{}

func (deadlineGenerator) Complete(ctx context.Context, _ string, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func stageNames(stages []readme.Stage) []string {
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, string(stage))
	}
	return names
}
