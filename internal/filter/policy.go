// Package filter decides which repository paths are traversed and which files are
// treated as source content. Decisions depend only on names and sizes.
package filter

import (
	"strings"

	"github.com/temirov/readmegen/internal/utils"
)

// DefaultMaxFileSizeBytes is the largest file size, in bytes, that is read during extraction.
const DefaultMaxFileSizeBytes int64 = 1 << 20

var (
	defaultIgnoredDirectories = []string{
		".git",
		"node_modules",
		"dist",
		"build",
		"__pycache__",
		"venv",
		"target",
		"docs",
	}
	defaultIgnoredExtensions = []string{
		// documentation and data
		".lock", ".log", ".md", ".txt", ".json", ".yml", ".yaml", ".xml", ".csv",
		// images
		".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp",
		// styles
		".css", ".scss", ".sass", ".less",
		// binaries, archives, fonts, media
		".pdf", ".zip", ".gz", ".tar", ".jar", ".exe", ".dll", ".so", ".dylib",
		".woff", ".woff2", ".ttf", ".eot", ".mp3", ".mp4",
	}
	defaultIgnoredNames = []string{
		"LICENSE",
		".DS_Store",
		".gitignore",
		".gitattributes",
		"go.sum",
	}
	defaultIgnoredSuffixes = []string{
		".test.js", ".spec.js",
		".test.ts", ".spec.ts",
		".test.jsx", ".spec.jsx",
		".test.tsx", ".spec.tsx",
		"_test.go", "_test.py",
	}
)

// Additions lists rules appended to the default policy.
type Additions struct {
	Directories       []string
	Extensions        []string
	Names             []string
	Suffixes          []string
	// SkipBinaryContent skips files whose leading bytes contain a NUL byte. Off by default,
	// so UTF-16 sources still reach the document.
	SkipBinaryContent bool
}

// Policy is an immutable set of path rules. A Policy is safe for concurrent use.
type Policy struct {
	ignoredDirectories map[string]struct{}
	ignoredNames       map[string]struct{}
	ignoredExtensions  []string
	ignoredSuffixes    []string
	maxFileSizeBytes   int64
	skipBinaryContent  bool
}

// DefaultPolicy returns the built-in rules.
func DefaultPolicy() Policy {
	return NewPolicy(Additions{})
}

// NewPolicy returns the built-in rules extended with additions.
// Blank entries and duplicates are discarded.
func NewPolicy(additions Additions) Policy {
	return Policy{
		ignoredDirectories: toSet(append(append([]string{}, defaultIgnoredDirectories...), additions.Directories...)),
		ignoredNames:       toSet(append(append([]string{}, defaultIgnoredNames...), additions.Names...)),
		ignoredExtensions:  normalizeExtensions(append(append([]string{}, defaultIgnoredExtensions...), additions.Extensions...)),
		ignoredSuffixes:    deduplicate(append(append([]string{}, defaultIgnoredSuffixes...), additions.Suffixes...)),
		maxFileSizeBytes:   DefaultMaxFileSizeBytes,
		skipBinaryContent:  additions.SkipBinaryContent,
	}
}

// ShouldDescend reports whether a directory with the given base name is traversed.
// Matching is exact and case-sensitive.
func (policy Policy) ShouldDescend(directoryName string) bool {
	_, ignored := policy.ignoredDirectories[directoryName]
	return !ignored
}

// ShouldInclude reports whether a file with the given base name is a source candidate.
func (policy Policy) ShouldInclude(fileName string) bool {
	if _, ignored := policy.ignoredNames[fileName]; ignored {
		return false
	}
	for _, suffix := range policy.ignoredSuffixes {
		if strings.HasSuffix(fileName, suffix) {
			return false
		}
	}
	for _, extension := range policy.ignoredExtensions {
		if strings.HasSuffix(fileName, extension) {
			return false
		}
	}
	return true
}

// ExceedsSizeLimit reports whether a file of sizeBytes is too large to read.
func (policy Policy) ExceedsSizeLimit(sizeBytes int64) bool {
	return sizeBytes > policy.maxFileSizeBytes
}

// SkipsBinaryContent reports whether files with NUL bytes are left out.
func (policy Policy) SkipsBinaryContent() bool {
	return policy.skipBinaryContent
}

// MaxFileSizeBytes returns the per-file size ceiling.
func (policy Policy) MaxFileSizeBytes() int64 {
	return policy.maxFileSizeBytes
}

func toSet(values []string) map[string]struct{} {
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if trimmedValue == "" {
			continue
		}
		result[trimmedValue] = struct{}{}
	}
	return result
}

// normalizeExtensions prefixes bare extensions such as "rs" with a dot.
func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, extension := range extensions {
		trimmedExtension := strings.TrimSpace(extension)
		if trimmedExtension == "" {
			continue
		}
		if !strings.HasPrefix(trimmedExtension, ".") {
			trimmedExtension = "." + trimmedExtension
		}
		normalized = append(normalized, trimmedExtension)
	}
	return deduplicate(normalized)
}

func deduplicate(values []string) []string {
	trimmedValues := make([]string, 0, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if trimmedValue == "" {
			continue
		}
		trimmedValues = append(trimmedValues, trimmedValue)
	}
	return utils.DeduplicatePatterns(trimmedValues)
}
