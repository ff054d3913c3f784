// Package output renders generation results for the command line.
package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/readmegen/internal/readme"
)

// Supported output formats.
const (
	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
)

const (
	indentPrefix   = ""
	indentSpacer   = "  "
	xmlRootElement = "result"
)

// Report is the serialized form of a generation result.
type Report struct {
	XMLName         xml.Name `json:"-" xml:"result"`
	Repository      string   `json:"repository" xml:"repository"`
	Readme          string   `json:"readme" xml:"readme"`
	Truncated       bool     `json:"truncated" xml:"truncated"`
	FilesIncluded   int      `json:"filesIncluded" xml:"filesIncluded"`
	FilesSkipped    int      `json:"filesSkipped" xml:"filesSkipped"`
	EstimatedTokens int      `json:"estimatedTokens" xml:"estimatedTokens"`
	CountedTokens   int      `json:"countedTokens,omitempty" xml:"countedTokens,omitempty"`
}

// NewReport pairs a result with the repository it was generated for.
func NewReport(repositoryURL string, result readme.Result) Report {
	return Report{
		XMLName:         xml.Name{Local: xmlRootElement},
		Repository:      repositoryURL,
		Readme:          result.Readme,
		Truncated:       result.Truncated,
		FilesIncluded:   result.FilesIncluded,
		FilesSkipped:    result.FilesSkipped,
		EstimatedTokens: result.EstimatedTokens,
		CountedTokens:   result.CountedTokens,
	}
}

// IsSupportedFormat reports whether format is recognized.
func IsSupportedFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatRaw, FormatJSON, FormatXML:
		return true
	default:
		return false
	}
}

// Render returns the report in the requested format. Raw output is the README text alone.
func Render(report Report, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatRaw:
		return report.Readme, nil
	case FormatJSON:
		var buffer bytes.Buffer
		encoder := json.NewEncoder(&buffer)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent(indentPrefix, indentSpacer)
		if err := encoder.Encode(report); err != nil {
			return "", fmt.Errorf("render json: %w", err)
		}
		return strings.TrimSuffix(buffer.String(), "\n"), nil
	case FormatXML:
		encoded, err := xml.MarshalIndent(report, indentPrefix, indentSpacer)
		if err != nil {
			return "", fmt.Errorf("render xml: %w", err)
		}
		return xml.Header + string(encoded), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// Write renders the report and writes it to writer followed by a newline.
func Write(writer io.Writer, report Report, format string) error {
	rendered, err := Render(report, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(writer, rendered)
	return err
}
