package common

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error kinds. Every failure surfaced by the comparison flow wraps exactly one of these.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrExtraction    = errors.New("extraction failure")
	ErrRendering     = errors.New("rendering failure")
	ErrMissingInput  = errors.New("missing input")
	ErrInvalidInput  = errors.New("invalid input")
)

// Error codes rendered to API clients.
const (
	CodeConfiguration = "CONFIG_ERROR"
	CodeExtraction    = "EXTRACTION_FAILED"
	CodeRendering     = "RENDERING_FAILED"
	CodeMissingInput  = "MISSING_INPUT"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeTimeout       = "TIMEOUT"
	CodeInternal      = "INTERNAL"
)

// kindError ties a sentinel kind to the wrapped cause so errors.Is matches both.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func newKindError(code string, kind error, message string, cause error) *AppError {
	return NewAppError(code, message, &kindError{kind: kind, cause: cause})
}

func ConfigurationError(message string, cause error) error {
	return newKindError(CodeConfiguration, ErrConfiguration, message, cause)
}

func ExtractionFailure(message string, cause error) error {
	return newKindError(CodeExtraction, ErrExtraction, message, cause)
}

func RenderingFailure(message string, cause error) error {
	return newKindError(CodeRendering, ErrRendering, message, cause)
}

func MissingInput(message string) error {
	return newKindError(CodeMissingInput, ErrMissingInput, message, nil)
}

func InvalidInput(message string) error {
	return newKindError(CodeInvalidInput, ErrInvalidInput, message, nil)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf returns the client-facing code for err.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, ErrMissingInput):
		return CodeMissingInput
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrRendering):
		return CodeRendering
	case errors.Is(err, ErrExtraction):
		return CodeExtraction
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// GRPCError converts an application error into a gRPC status.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch CodeOf(err) {
	case CodeMissingInput, CodeInvalidInput:
		return status.Error(codes.InvalidArgument, err.Error())
	case CodeTimeout:
		return status.Error(codes.DeadlineExceeded, err.Error())
	case CodeExtraction, CodeRendering:
		return status.Error(codes.Unavailable, err.Error())
	case CodeConfiguration:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	return InternalError(err.Error())
}
