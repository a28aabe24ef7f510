package parser

import (
	"fmt"

	"github.com/kailas-cloud/moe/internal/domain"
)

// Kind classifies a parse failure for the caller.
type Kind string

const (
	// KindUnsupportedFormat means the extension is not one of SupportedExtensions.
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	// KindParsingError means the content could not be read or is structurally invalid.
	KindParsingError Kind = "PARSING_ERROR"
	// KindCorruptedFile is reserved; no strategy produces it.
	KindCorruptedFile Kind = "CORRUPTED_FILE"
)

// Error is a boundary-crossing parse failure.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Unwrap exposes both the domain sentinel for Kind and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindUnsupportedFormat:
		return domain.ErrUnsupportedFormat
	case KindCorruptedFile:
		return domain.ErrCorruptedFile
	default:
		return domain.ErrParseFailure
	}
}

func parsingError(message string, cause error) *Error {
	e := &Error{Kind: KindParsingError, Message: message, Err: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}
