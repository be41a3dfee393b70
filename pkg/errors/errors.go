// Package errors provides categorized errors with suggestions and context
// for the reconciliation engine CLI and service layer.
//
// The computational core (allocation, scoring) raises no errors by design;
// errors arise only at the edges: loading files, validating configuration,
// and enforcing the one-in-flight-submission invariant in the service
// layer.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category represents different classes of errors
type Category string

const (
	CategoryFile           Category = "file"
	CategoryParse          Category = "parse"
	CategoryValidation     Category = "validation"
	CategoryConfiguration  Category = "configuration"
	CategoryReconciliation Category = "reconciliation"
	CategoryInternal       Category = "internal"
)

// Code represents specific error codes within categories
type Code string

const (
	// File errors
	CodeFileNotFound   Code = "file_not_found"
	CodeFilePermission Code = "file_permission"

	// Parse errors
	CodeInvalidFormat Code = "invalid_format"
	CodeMissingColumn Code = "missing_column"
	CodeInvalidData   Code = "invalid_data"

	// Validation errors
	CodeInvalidDate  Code = "invalid_date"
	CodeMissingField Code = "missing_field"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"

	// Reconciliation errors
	CodeSubmissionInFlight Code = "submission_in_flight"
	CodeLookupFailed       Code = "lookup_failed"

	// Internal errors
	CodeUnexpectedError Code = "unexpected_error"
)

// ReconError is the base error type for all application errors
type ReconError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconError) Unwrap() error {
	return e.Cause
}

// ExitCode returns an appropriate process exit code for the error
func (e *ReconError) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconError) WithContext(key string, value interface{}) *ReconError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconError) WithSuggestion(suggestion string) *ReconError {
	e.Suggestion = suggestion
	return e
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new ReconError
func New(category Category, code Code, message string) *ReconError {
	return &ReconError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconError context
func Wrap(err error, category Category, code Code, message string) *ReconError {
	if err == nil {
		return nil
	}

	return &ReconError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// FileError creates a file-related error
func FileError(code Code, path string, err error) *ReconError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	result := New(CategoryFile, code, message)
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error for a file location
func ParseError(code Code, file string, line int, field, value string, err error) *ReconError {
	var message, suggestion string

	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", field, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d, column '%s': '%s'", file, line, field, value)
		suggestion = "correct the data format or remove the invalid entry"
	default:
		message = fmt.Sprintf("invalid format in file %s at line %d", file, line)
		suggestion = "check the data format and ensure it matches the expected structure"
	}

	result := New(CategoryParse, code, message)
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("field", field)
}

// ValidationError creates a validation-related error
func ValidationError(code Code, field string, value interface{}, err error) *ReconError {
	var message, suggestion string

	switch code {
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	result := New(CategoryValidation, code, message)
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(setting string, value interface{}, err error) *ReconError {
	message := fmt.Sprintf("invalid configuration for '%s': %v", setting, value)

	result := New(CategoryConfiguration, CodeInvalidConfig, message)
	if err != nil {
		result = Wrap(err, CategoryConfiguration, CodeInvalidConfig, message)
	}

	return result.
		WithSuggestion("check the configuration documentation for valid values").
		WithContext("setting", setting).
		WithContext("value", value)
}

// ReconciliationError creates a reconciliation-related error
func ReconciliationError(code Code, operation string, err error) *ReconError {
	var message, suggestion string

	switch code {
	case CodeSubmissionInFlight:
		message = fmt.Sprintf("a reconciliation submission is already in flight for %s", operation)
		suggestion = "wait for the pending submission to complete before retrying"
	case CodeLookupFailed:
		message = fmt.Sprintf("lookup failed during %s", operation)
		suggestion = "check the data source and try again"
	default:
		message = fmt.Sprintf("reconciliation error during %s", operation)
		suggestion = "review the data and configuration"
	}

	result := New(CategoryReconciliation, code, message)
	if err != nil {
		result = Wrap(err, CategoryReconciliation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *ReconError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	result := New(CategoryInternal, CodeUnexpectedError, message)
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// IsReconError checks if an error is a ReconError
func IsReconError(err error) bool {
	_, ok := err.(*ReconError)
	return ok
}

// AsReconError extracts a ReconError from an error chain
func AsReconError(err error) (*ReconError, bool) {
	var reconErr *ReconError
	if errors.As(err, &reconErr) {
		return reconErr, true
	}
	return nil, false
}

// HasCode checks if an error chain contains a ReconError with the code
func HasCode(err error, code Code) bool {
	if reconErr, ok := AsReconError(err); ok {
		return reconErr.Code == code
	}
	return false
}

// FormatForDisplay renders an error for CLI output, one line per detail
func FormatForDisplay(err error) string {
	reconErr, ok := AsReconError(err)
	if !ok {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error [%s/%s]: %s", reconErr.Category, reconErr.Code, reconErr.Message)
	if reconErr.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", reconErr.Suggestion)
	}
	for key, value := range reconErr.Context {
		fmt.Fprintf(&b, "\n  %s: %v", key, value)
	}
	return b.String()
}
