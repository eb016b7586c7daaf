// Package apperror defines the failure taxonomy shared by the interview pipeline.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes pipeline failures.
type Kind string

const (
	KindInput         Kind = "input_error"
	KindTranscription Kind = "transcription_error"
	KindGeneration    Kind = "generation_error"
	KindEncoding      Kind = "encoding_error"
	KindInternal      Kind = "internal_error"
)

// Error is a categorized pipeline failure. Message is safe to show to users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Input creates an error for missing or invalid request input.
func Input(message string) *Error {
	return &Error{Kind: KindInput, Message: message}
}

// Transcription creates an error for a failed or empty transcription.
func Transcription(message string, cause error) *Error {
	return &Error{Kind: KindTranscription, Message: message, Err: cause}
}

// Generation creates an error for a failed or empty model answer.
func Generation(message string, cause error) *Error {
	return &Error{Kind: KindGeneration, Message: message, Err: cause}
}

// Encoding creates an error for payload construction failures.
func Encoding(message string, cause error) *Error {
	return &Error{Kind: KindEncoding, Message: message, Err: cause}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: cause}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// HTTPStatus maps err to a response status: input failures are 400, everything else 500.
func HTTPStatus(err error) int {
	if KindOf(err) == KindInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the user-facing message for err.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Failed to process interview"
}
