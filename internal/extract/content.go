// Package extract walks a checked-out repository and collects the text of its source files.
package extract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/readmegen/internal/filter"
	"github.com/temirov/readmegen/internal/utils"
)

const (
	// FileHeaderPrefix opens the provenance header rendered before each file.
	FileHeaderPrefix = "--- File: "
	// FileHeaderSuffix closes the provenance header.
	FileHeaderSuffix = " ---\n"
	// EntrySeparator joins rendered files.
	EntrySeparator = "\n\n"
)

// SkipReason names why a file was left out of a Document.
type SkipReason string

// Skip reasons reported by Walk.
const (
	SkipReasonFiltered   SkipReason = "filtered"
	SkipReasonTooLarge   SkipReason = "too_large"
	SkipReasonNotRegular SkipReason = "not_regular"
	// SkipReasonBinary is reported only when the policy opts into binary skipping.
	SkipReasonBinary     SkipReason = "binary"
	SkipReasonReadError  SkipReason = "read_error"
	SkipReasonEmpty      SkipReason = "empty"
)

// Entry is a file whose text survived extraction.
type Entry struct {
	Path    string
	Content string
}

// Render returns the entry with its provenance header.
func (entry Entry) Render() string {
	return FileHeaderPrefix + entry.Path + FileHeaderSuffix + entry.Content
}

// Skip records a file that was not extracted. Skips are diagnostics, never failures.
type Skip struct {
	Path      string
	Reason    SkipReason
	SizeBytes int64
	Err       error
}

// Result is the outcome for one visited file: exactly one of Entry or Skip is meaningful.
type Result struct {
	Entry Entry
	Skip  *Skip
}

// Skipped reports whether the result carries a Skip.
func (result Result) Skipped() bool {
	return result.Skip != nil
}

// Document holds extracted entries in traversal order along with the skip trail.
type Document struct {
	Entries []Entry
	Skips   []Skip
}

// Text renders every entry and joins them with EntrySeparator.
// A document without entries renders as the empty string.
func (document Document) Text() string {
	renderedEntries := make([]string, 0, len(document.Entries))
	for _, entry := range document.Entries {
		renderedEntries = append(renderedEntries, entry.Render())
	}
	return strings.Join(renderedEntries, EntrySeparator)
}

// Empty reports whether no file survived extraction.
func (document Document) Empty() bool {
	return len(document.Entries) == 0
}

// Extractor walks directory trees according to a filter.Policy.
type Extractor struct {
	policy filter.Policy
	logger *zap.Logger
}

// NewExtractor constructs an Extractor. A nil logger disables logging.
func NewExtractor(policy filter.Policy, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{policy: policy, logger: logger}
}

// Walk visits rootPath depth-first in lexical order and reports one Result per file.
// Ignored directories are pruned before they are read. Per-file problems become
// Skip results; Walk only fails when the root cannot be read, the context ends,
// or visit returns an error.
func (extractor *Extractor) Walk(ctx context.Context, rootPath string, visit func(Result) error) error {
	absoluteRootPath, absolutePathError := filepath.Abs(rootPath)
	if absolutePathError != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", rootPath, absolutePathError)
	}
	cleanedRootPath := filepath.Clean(absoluteRootPath)

	return filepath.WalkDir(cleanedRootPath, func(walkedPath string, directoryEntry fs.DirEntry, accessError error) error {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		if walkedPath == cleanedRootPath {
			if accessError != nil {
				return fmt.Errorf("read repository root %s: %w", cleanedRootPath, accessError)
			}
			return nil
		}

		relativePath := utils.RelativePathOrSelf(walkedPath, cleanedRootPath)
		if accessError != nil {
			if directoryEntry != nil && directoryEntry.IsDir() {
				extractor.logger.Warn("skipping unreadable directory", zap.String("path", relativePath), zap.Error(accessError))
				return filepath.SkipDir
			}
			return visit(Result{Skip: &Skip{Path: relativePath, Reason: SkipReasonReadError, Err: accessError}})
		}

		if directoryEntry.IsDir() {
			if !extractor.policy.ShouldDescend(directoryEntry.Name()) {
				extractor.logger.Debug("pruning directory", zap.String("path", relativePath))
				return filepath.SkipDir
			}
			return nil
		}

		return visit(extractor.inspectFile(walkedPath, relativePath, directoryEntry))
	})
}

// Extract walks rootPath and collects every Result into a Document.
func (extractor *Extractor) Extract(ctx context.Context, rootPath string) (Document, error) {
	var document Document
	walkError := extractor.Walk(ctx, rootPath, func(result Result) error {
		if result.Skipped() {
			document.Skips = append(document.Skips, *result.Skip)
			return nil
		}
		document.Entries = append(document.Entries, result.Entry)
		return nil
	})
	if walkError != nil {
		return Document{}, walkError
	}
	extractor.logger.Info("repository crawl finished",
		zap.Int("files_included", len(document.Entries)),
		zap.Int("files_skipped", len(document.Skips)),
	)
	return document, nil
}

func (extractor *Extractor) inspectFile(walkedPath string, relativePath string, directoryEntry fs.DirEntry) Result {
	skip := func(reason SkipReason, sizeBytes int64, err error) Result {
		fields := []zap.Field{zap.String("path", relativePath), zap.String("reason", string(reason))}
		switch reason {
		case SkipReasonTooLarge:
			extractor.logger.Info("skipping file", append(fields, zap.String("size", utils.DescribeOversize(sizeBytes, extractor.policy.MaxFileSizeBytes())))...)
		case SkipReasonReadError:
			extractor.logger.Warn("could not read file", append(fields, zap.Error(err))...)
		default:
			extractor.logger.Debug("skipping file", fields...)
		}
		return Result{Skip: &Skip{Path: relativePath, Reason: reason, SizeBytes: sizeBytes, Err: err}}
	}

	if !directoryEntry.Type().IsRegular() {
		return skip(SkipReasonNotRegular, 0, nil)
	}
	if !extractor.policy.ShouldInclude(directoryEntry.Name()) {
		return skip(SkipReasonFiltered, 0, nil)
	}

	fileInfo, infoError := directoryEntry.Info()
	if infoError != nil {
		return skip(SkipReasonReadError, 0, infoError)
	}
	if extractor.policy.ExceedsSizeLimit(fileInfo.Size()) {
		return skip(SkipReasonTooLarge, fileInfo.Size(), nil)
	}

	// #nosec G304
	fileBytes, fileReadError := os.ReadFile(walkedPath)
	if fileReadError != nil {
		return skip(SkipReasonReadError, fileInfo.Size(), fileReadError)
	}
	if extractor.policy.SkipsBinaryContent() && utils.IsBinary(fileBytes) {
		return skip(SkipReasonBinary, int64(len(fileBytes)), nil)
	}
	fileContent := utils.DecodeText(fileBytes)
	if utils.IsBlank(fileContent) {
		return skip(SkipReasonEmpty, int64(len(fileBytes)), nil)
	}

	extractor.logger.Debug("reading file", zap.String("path", relativePath))
	return Result{Entry: Entry{Path: relativePath, Content: fileContent}}
}
