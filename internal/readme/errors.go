package readme

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a failed README request.
type ErrorKind string

// Error kinds.
const (
	// ErrorKindClientInput covers malformed URLs, failed clones, and repositories without readable code.
	ErrorKindClientInput ErrorKind = "client_input"
	// ErrorKindUpstreamService covers generation service failures.
	ErrorKindUpstreamService ErrorKind = "upstream_service"
	// ErrorKindUnexpected covers everything else.
	ErrorKindUnexpected ErrorKind = "unexpected"
)

// RequestError is a classified request failure carrying a client-facing detail message.
type RequestError struct {
	kind   ErrorKind
	detail string
	err    error
}

// Error returns the detail message.
func (requestError *RequestError) Error() string {
	return requestError.detail
}

// Unwrap exposes the underlying cause.
func (requestError *RequestError) Unwrap() error {
	return requestError.err
}

// Kind reports the classification.
func (requestError *RequestError) Kind() ErrorKind {
	return requestError.kind
}

// Detail returns the message intended for API clients.
func (requestError *RequestError) Detail() string {
	return requestError.detail
}

// StatusCode maps the classification to an HTTP status code.
func (requestError *RequestError) StatusCode() int {
	if requestError.kind == ErrorKindClientInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NewClientInputError creates a RequestError of kind ErrorKindClientInput.
func NewClientInputError(detail string, cause error) *RequestError {
	return &RequestError{kind: ErrorKindClientInput, detail: detail, err: cause}
}

// NewUpstreamServiceError creates a RequestError of kind ErrorKindUpstreamService.
func NewUpstreamServiceError(detail string, cause error) *RequestError {
	return &RequestError{kind: ErrorKindUpstreamService, detail: detail, err: cause}
}

// NewUnexpectedError creates a RequestError of kind ErrorKindUnexpected.
func NewUnexpectedError(detail string, cause error) *RequestError {
	return &RequestError{kind: ErrorKindUnexpected, detail: detail, err: cause}
}

// Classify returns err as a RequestError, treating unclassified errors as unexpected.
func Classify(err error) *RequestError {
	if err == nil {
		return nil
	}
	var requestError *RequestError
	if errors.As(err, &requestError) {
		return requestError
	}
	return NewUnexpectedError(unexpectedErrorPrefix+err.Error(), err)
}
