// Package errors provides the error taxonomy shared by every pipeline stage.
package errors

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	// Abort the stage that raises them.
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeFormat        = "FORMAT_ERROR"
	CodeInternal      = "INTERNAL_ERROR"

	// Soft: the current unit of work is skipped or abandoned.
	CodeCoverage      = "COVERAGE_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeRemoteService = "REMOTE_SERVICE_ERROR"

	// Reported as a status instead of a score.
	CodeEmptyEvaluation = "EMPTY_EVALUATION_SET"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Convenience constructors.

// ConfigurationError reports a missing credential or input resource.
func ConfigurationError(message string) *AppError {
	return New(CodeConfiguration, message)
}

// MissingFileError reports a required input file that does not exist.
func MissingFileError(path string, err error) *AppError {
	return Wrap(CodeConfiguration, fmt.Sprintf("required file %s not found", path), err).
		WithDetail("path", path)
}

// FormatError reports a malformed record. Line numbers are 1-based; pass 0
// when the error is not tied to a line.
func FormatError(source string, line int, message string) *AppError {
	err := New(CodeFormat, message).WithDetail("source", source)
	if line > 0 {
		err.Message = fmt.Sprintf("%s:%d: %s", source, line, message)
		err = err.WithDetail("line", fmt.Sprintf("%d", line))
	} else {
		err.Message = fmt.Sprintf("%s: %s", source, message)
	}
	return err
}

// CoverageError reports an id that one file references and a companion
// file lacks.
func CoverageError(kind, id string) *AppError {
	return New(CodeCoverage, fmt.Sprintf("%s %s not found", kind, id)).WithDetail(kind, id)
}

// RateLimitedError reports throttling by a remote service.
func RateLimitedError(service string, err error) *AppError {
	return Wrap(CodeRateLimited, fmt.Sprintf("%s rate limit exceeded", service), err)
}

// RemoteServiceError reports any other remote failure.
func RemoteServiceError(service string, err error) *AppError {
	return Wrap(CodeRemoteService, fmt.Sprintf("%s request failed", service), err)
}

// EmptyEvaluationError reports a run that shares no queries with the judgments.
func EmptyEvaluationError(run string) *AppError {
	return New(CodeEmptyEvaluation, "no evaluable queries").WithDetail("run", run)
}

// InternalError creates an internal error.
func InternalError(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}

// IsCode reports whether any error in err's chain is an AppError with code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsConfiguration checks if error is a configuration error.
func IsConfiguration(err error) bool {
	return IsCode(err, CodeConfiguration)
}

// IsFormat checks if error is a format error.
func IsFormat(err error) bool {
	return IsCode(err, CodeFormat)
}

// IsCoverage checks if error is a coverage error.
func IsCoverage(err error) bool {
	return IsCode(err, CodeCoverage)
}
