package readme

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errInvalidRepositoryURL = errors.New("invalid repository URL")

// ValidateRepositoryURL checks that rawURL is an absolute http or https URL with a host
// and returns its normalized form.
func ValidateRepositoryURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", NewClientInputError("repo_url is required", errInvalidRepositoryURL)
	}
	parsedURL, parseErr := url.Parse(trimmedURL)
	if parseErr != nil {
		return "", NewClientInputError(fmt.Sprintf("repo_url is not a valid URL: %v", parseErr), errors.Join(errInvalidRepositoryURL, parseErr))
	}
	if !parsedURL.IsAbs() || parsedURL.Host == "" {
		return "", NewClientInputError("repo_url must be an absolute URL", errInvalidRepositoryURL)
	}
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", NewClientInputError(fmt.Sprintf("repo_url scheme %q is not supported; use http or https", parsedURL.Scheme), errInvalidRepositoryURL)
	}
	parsedURL.Scheme = scheme
	return parsedURL.String(), nil
}
