package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat signals an upload with an unrecognized file extension.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrParseFailure signals unreadable or structurally invalid file content.
	ErrParseFailure = errors.New("parsing error")
	// ErrCorruptedFile is reserved for stricter content checks; no parser produces it yet.
	ErrCorruptedFile = errors.New("corrupted file")
	// ErrDocumentNotFound signals a missing knowledge-base chunk.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidRequest signals a malformed request from the caller.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMissingCredential signals that no API key is configured for the provider.
	ErrMissingCredential = errors.New("missing credential")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrTimeout signals that an external call exceeded its deadline. Callers may retry.
	ErrTimeout = errors.New("external call timed out")
)

// ProviderError carries the provider-supplied message and HTTP status of a failed call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	kind       error
}

// NewProviderError wraps a provider failure with one of the provider sentinels.
func NewProviderError(kind error, provider string, status int, message string) error {
	return &ProviderError{Provider: provider, StatusCode: status, Message: message, kind: kind}
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s %d: %s", e.kind.Error(), e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.kind.Error(), e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.kind }
