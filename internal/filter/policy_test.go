package filter_test

import (
	"testing"

	"github.com/temirov/readmegen/internal/filter"
)

func TestShouldDescend(t *testing.T) {
	policy := filter.DefaultPolicy()
	testCases := []struct {
		name          string
		directoryName string
		expected      bool
	}{
		{name: "git metadata", directoryName: ".git", expected: false},
		{name: "node modules", directoryName: "node_modules", expected: false},
		{name: "dist", directoryName: "dist", expected: false},
		{name: "build", directoryName: "build", expected: false},
		{name: "python cache", directoryName: "__pycache__", expected: false},
		{name: "virtualenv", directoryName: "venv", expected: false},
		{name: "target", directoryName: "target", expected: false},
		{name: "docs", directoryName: "docs", expected: false},
		{name: "source", directoryName: "src", expected: true},
		{name: "case sensitive", directoryName: "Docs", expected: true},
		{name: "partial name", directoryName: "builder", expected: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := policy.ShouldDescend(testCase.directoryName); actual != testCase.expected {
				t.Fatalf("ShouldDescend(%q): expected %t, got %t", testCase.directoryName, testCase.expected, actual)
			}
		})
	}
}

func TestShouldInclude(t *testing.T) {
	policy := filter.DefaultPolicy()
	testCases := []struct {
		name     string
		fileName string
		expected bool
	}{
		{name: "python source", fileName: "main.py", expected: true},
		{name: "go source", fileName: "server.go", expected: true},
		{name: "makefile", fileName: "Makefile", expected: true},
		{name: "markdown", fileName: "README.md", expected: false},
		{name: "lock file", fileName: "yarn.lock", expected: false},
		{name: "json", fileName: "package.json", expected: false},
		{name: "yaml", fileName: "compose.yaml", expected: false},
		{name: "image", fileName: "logo.png", expected: false},
		{name: "vector image", fileName: "icon.svg", expected: false},
		{name: "stylesheet", fileName: "site.css", expected: false},
		{name: "license", fileName: "LICENSE", expected: false},
		{name: "go checksum", fileName: "go.sum", expected: false},
		{name: "javascript test", fileName: "app.test.js", expected: false},
		{name: "typescript spec", fileName: "app.spec.ts", expected: false},
		{name: "go test", fileName: "server_test.go", expected: false},
		{name: "extension only as infix", fileName: "notes.md.go", expected: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := policy.ShouldInclude(testCase.fileName); actual != testCase.expected {
				t.Fatalf("ShouldInclude(%q): expected %t, got %t", testCase.fileName, testCase.expected, actual)
			}
		})
	}
}

func TestExceedsSizeLimit(t *testing.T) {
	policy := filter.DefaultPolicy()
	if policy.ExceedsSizeLimit(filter.DefaultMaxFileSizeBytes) {
		t.Fatalf("a file exactly at the ceiling must be readable")
	}
	if !policy.ExceedsSizeLimit(filter.DefaultMaxFileSizeBytes + 1) {
		t.Fatalf("a file above the ceiling must be skipped")
	}
	if policy.SkipsBinaryContent() {
		t.Fatalf("binary skipping must be opt-in")
	}
	if policy.MaxFileSizeBytes() != 1<<20 {
		t.Fatalf("expected 1 MiB ceiling, got %d", policy.MaxFileSizeBytes())
	}
}

func TestNewPolicyAppendsAdditions(t *testing.T) {
	policy := filter.NewPolicy(filter.Additions{
		Directories: []string{"vendor", " "},
		Extensions:  []string{"sql", ".proto"},
		Names:       []string{"Dockerfile"},
		Suffixes:    []string{"_mock.go"},
	})
	testCases := []struct {
		name     string
		decision bool
	}{
		{name: "added directory", decision: policy.ShouldDescend("vendor")},
		{name: "default directory kept", decision: policy.ShouldDescend(".git")},
		{name: "bare extension normalized", decision: policy.ShouldInclude("schema.sql")},
		{name: "dotted extension", decision: policy.ShouldInclude("api.proto")},
		{name: "added name", decision: policy.ShouldInclude("Dockerfile")},
		{name: "added suffix", decision: policy.ShouldInclude("store_mock.go")},
		{name: "default extension kept", decision: policy.ShouldInclude("README.md")},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if testCase.decision {
				t.Fatalf("expected the entry to be rejected")
			}
		})
	}
	if !filter.NewPolicy(filter.Additions{SkipBinaryContent: true}).SkipsBinaryContent() {
		t.Fatalf("expected binary skipping to be enabled by additions")
	}
	if !policy.ShouldDescend("sql") {
		t.Fatalf("extension additions must not affect directories")
	}
	if !policy.ShouldDescend("") {
		t.Fatalf("blank additions must be discarded")
	}
}
