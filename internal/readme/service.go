// Package readme orchestrates README generation for a single repository request:
// clone, extract, budget, prompt, generate, and clean up.
package readme

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/readmegen/internal/budget"
	"github.com/temirov/readmegen/internal/extract"
	"github.com/temirov/readmegen/internal/filter"
	"github.com/temirov/readmegen/internal/generation"
	"github.com/temirov/readmegen/internal/prompt"
	"github.com/temirov/readmegen/internal/retrieval"
)

const (
	// DefaultCloneTimeout bounds the retrieval call.
	DefaultCloneTimeout = 2 * time.Minute
	// DefaultGenerationTimeout bounds the generation call.
	DefaultGenerationTimeout = 3 * time.Minute

	snapshotDirectoryPattern = "readmegen-*"

	cloneFailedDetailFormat = "Failed to clone repository. Ensure the URL is correct and repository is public. Error: %v"
	noReadableContentDetail = "Could not find any readable code files in the repository."
	generationFailedFormat  = "Failed to generate README: %v"
	unexpectedErrorPrefix   = "An unexpected error occurred: "
)

// Stage names a step of request processing.
type Stage string

// Stages in processing order. StageFailed may follow cloning, extracting, or generating,
// and is recorded before the snapshot is cleaned up.
const (
	StageIdle           Stage = "idle"
	StageCloning        Stage = "cloning"
	StageExtracting     Stage = "extracting"
	StageBudgeting      Stage = "budgeting"
	StagePromptBuilding Stage = "prompt_building"
	StageGenerating     Stage = "generating"
	StageResponding     Stage = "responding"
	StageCleaningUp     Stage = "cleaning_up"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// Result is a generated README with extraction diagnostics.
type Result struct {
	Readme          string
	Truncated       bool
	FilesIncluded   int
	FilesSkipped    int
	EstimatedTokens int
	// CountedTokens is the tokenizer count of the budgeted text; zero without a tokenizer.
	CountedTokens int
}

// Options configures a Service. Cloner and Generator are required.
type Options struct {
	Cloner            retrieval.Cloner
	Generator         generation.Generator
	Extractor         *extract.Extractor
	Budgeter          *budget.Budgeter
	Logger            *zap.Logger
	TempRoot          string
	CloneTimeout      time.Duration
	GenerationTimeout time.Duration
	// OnStage, when set, observes every stage transition.
	OnStage func(Stage)
}

// Service generates README documents. It holds no per-request state and is safe
// for concurrent use; each request owns a private snapshot directory.
type Service struct {
	cloner            retrieval.Cloner
	generator         generation.Generator
	extractor         *extract.Extractor
	budgeter          *budget.Budgeter
	logger            *zap.Logger
	tempRoot          string
	cloneTimeout      time.Duration
	generationTimeout time.Duration
	onStage           func(Stage)
}

// NewService validates options and applies defaults.
func NewService(options Options) (*Service, error) {
	if options.Cloner == nil {
		return nil, errors.New("readme service requires a cloner")
	}
	if options.Generator == nil {
		return nil, errors.New("readme service requires a generator")
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	extractor := options.Extractor
	if extractor == nil {
		extractor = extract.NewExtractor(filter.DefaultPolicy(), logger)
	}
	budgeter := options.Budgeter
	if budgeter == nil {
		budgeter = budget.NewBudgeter(budget.DefaultMaxTokens, budget.WithLogger(logger))
	}
	cloneTimeout := options.CloneTimeout
	if cloneTimeout <= 0 {
		cloneTimeout = DefaultCloneTimeout
	}
	generationTimeout := options.GenerationTimeout
	if generationTimeout <= 0 {
		generationTimeout = DefaultGenerationTimeout
	}
	onStage := options.OnStage
	if onStage == nil {
		onStage = func(Stage) {}
	}
	return &Service{
		cloner:            options.Cloner,
		generator:         options.Generator,
		extractor:         extractor,
		budgeter:          budgeter,
		logger:            logger,
		tempRoot:          options.TempRoot,
		cloneTimeout:      cloneTimeout,
		generationTimeout: generationTimeout,
		onStage:           onStage,
	}, nil
}

// Generate produces a README for repositoryURL. Failures are returned as *RequestError.
// The snapshot directory is removed before Generate returns on every path.
func (service *Service) Generate(ctx context.Context, repositoryURL string) (result Result, err error) {
	requestLogger := service.logger.With(zap.String("repository", repositoryURL))
	service.transition(requestLogger, StageIdle)

	normalizedURL, validationErr := ValidateRepositoryURL(repositoryURL)
	if validationErr != nil {
		service.transition(requestLogger, StageFailed)
		return Result{}, validationErr
	}

	snapshotDirectory, createErr := os.MkdirTemp(service.tempRoot, snapshotDirectoryPattern)
	if createErr != nil {
		service.transition(requestLogger, StageFailed)
		return Result{}, NewUnexpectedError(unexpectedErrorPrefix+createErr.Error(), fmt.Errorf("create snapshot directory: %w", createErr))
	}
	defer func() {
		if err != nil {
			service.transition(requestLogger, StageFailed)
			requestLogger.Warn("readme request failed", zap.Error(err))
		}
		service.transition(requestLogger, StageCleaningUp)
		service.removeSnapshot(requestLogger, snapshotDirectory)
		if err == nil {
			service.transition(requestLogger, StageDone)
		}
	}()

	service.transition(requestLogger, StageCloning)
	if cloneErr := service.clone(ctx, normalizedURL, snapshotDirectory); cloneErr != nil {
		return Result{}, NewClientInputError(fmt.Sprintf(cloneFailedDetailFormat, cloneErr), cloneErr)
	}

	service.transition(requestLogger, StageExtracting)
	document, extractErr := service.extractor.Extract(ctx, snapshotDirectory)
	if extractErr != nil {
		return Result{}, NewUnexpectedError(unexpectedErrorPrefix+extractErr.Error(), extractErr)
	}
	codebaseText := document.Text()
	if codebaseText == "" {
		return Result{}, NewClientInputError(noReadableContentDetail, nil)
	}

	service.transition(requestLogger, StageBudgeting)
	budgetedContext := service.budgeter.Budget(codebaseText)

	service.transition(requestLogger, StagePromptBuilding)
	userPrompt := prompt.BuildUserPrompt(budgetedContext)

	service.transition(requestLogger, StageGenerating)
	generatedReadme, generateErr := service.complete(ctx, userPrompt)
	if generateErr != nil {
		return Result{}, NewUpstreamServiceError(fmt.Sprintf(generationFailedFormat, generateErr), generateErr)
	}
	requestLogger.Info("readme generated")

	service.transition(requestLogger, StageResponding)
	return Result{
		Readme:          generatedReadme,
		Truncated:       budgetedContext.Truncated,
		FilesIncluded:   len(document.Entries),
		FilesSkipped:    len(document.Skips),
		EstimatedTokens: budgetedContext.EstimatedTokens,
		CountedTokens:   budgetedContext.CountedTokens,
	}, nil
}

func (service *Service) clone(ctx context.Context, repositoryURL string, destination string) error {
	cloneContext, cancel := context.WithTimeout(ctx, service.cloneTimeout)
	defer cancel()
	return service.cloner.Clone(cloneContext, repositoryURL, destination)
}

func (service *Service) complete(ctx context.Context, userPrompt string) (string, error) {
	generationContext, cancel := context.WithTimeout(ctx, service.generationTimeout)
	defer cancel()
	return service.generator.Complete(generationContext, prompt.SystemPrompt, userPrompt)
}

// removeSnapshot deletes the snapshot directory. Failures are logged and never returned.
func (service *Service) removeSnapshot(logger *zap.Logger, snapshotDirectory string) {
	logger.Debug("cleaning up temporary directory", zap.String("directory", snapshotDirectory))
	if removeErr := os.RemoveAll(snapshotDirectory); removeErr != nil {
		logger.Warn("failed to remove temporary directory", zap.String("directory", snapshotDirectory), zap.Error(removeErr))
	}
}

func (service *Service) transition(logger *zap.Logger, stage Stage) {
	logger.Debug("stage", zap.String("stage", string(stage)))
	service.onStage(stage)
}
