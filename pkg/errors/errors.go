// Package errors provides custom error types for the cardsync system.
// These errors enable better error handling, programmatic error checking,
// and improved debugging throughout the application.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is is an alias for the standard library errors.Is.
var Is = errors.Is

// As is an alias for the standard library errors.As.
var As = errors.As

// Join is an alias for the standard library errors.Join.
var Join = errors.Join

// Common sentinel errors for the cardsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAmbiguous indicates that a decision requires an explicit selection
	ErrAmbiguous = errors.New("ambiguous resolution")

	// ErrDirectoryUnavailable indicates that the directory service is unreachable
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrNotImplemented indicates that a feature is not yet implemented
	ErrNotImplemented = errors.New("not implemented")
)

// ParseError represents an error parsing a single card, row, or line.
// A ParseError is never fatal to a batch: the malformed record is
// skipped and its siblings continue processing.
type ParseError struct {
	Format  string // "vcard", "csv", "yaml", "json"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, line int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Line:    line,
		Message: message,
	}
}

// ValidationError represents a record that cannot join the batch,
// such as one with no usable display name and no fallback source.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// AmbiguityError indicates that multiple existing matches were found
// and no selection was supplied. The core never guesses which match to
// use; the caller must disambiguate before a plan can be finalized.
type AmbiguityError struct {
	DisplayName string
	MatchKey    string
	Matches     int
}

// Error implements the error interface
func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%d existing matches for %q (key %q) require an explicit selection", e.Matches, e.DisplayName, e.MatchKey)
}

// Is implements errors.Is support
func (e *AmbiguityError) Is(target error) bool {
	return target == ErrAmbiguous
}

// NewAmbiguityError creates a new AmbiguityError
func NewAmbiguityError(displayName, matchKey string, matches int) *AmbiguityError {
	return &AmbiguityError{DisplayName: displayName, MatchKey: matchKey, Matches: matches}
}

// OperationError represents a single failed create, update, or delete
// against the directory service. It carries enough context to retry the
// operation manually; it never aborts the remaining batch.
type OperationError struct {
	Operation   string // "create", "delete", "list", "ensure-location"
	DisplayName string // record the operation was for
	LocationID  string
	ExternalID  string
	Err         error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	switch {
	case e.ExternalID != "":
		return fmt.Sprintf("failed to %s record %s (id %s): %v", e.Operation, e.DisplayName, e.ExternalID, e.Err)
	case e.LocationID != "":
		return fmt.Sprintf("failed to %s record %s in location %s: %v", e.Operation, e.DisplayName, e.LocationID, e.Err)
	default:
		return fmt.Sprintf("failed to %s record %s: %v", e.Operation, e.DisplayName, e.Err)
	}
}

// Unwrap implements errors.Unwrap
func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError
func NewOperationError(operation, displayName string, err error) *OperationError {
	return &OperationError{
		Operation:   operation,
		DisplayName: displayName,
		Err:         err,
	}
}

// APIError represents an error from the directory service API
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("directory API error (status %d) at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("directory API error at %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 404 {
		return target == ErrNotFound
	}
	if e.StatusCode >= 500 {
		return target == ErrDirectoryUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAmbiguous checks if an error requires caller disambiguation
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrAmbiguous)
}

// IsDirectoryUnavailable checks if an error indicates the directory is unreachable
func IsDirectoryUnavailable(err error) bool {
	return errors.Is(err, ErrDirectoryUnavailable)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapOperation wraps an error as an OperationError
func WrapOperation(operation, displayName string, err error) error {
	if err == nil {
		return nil
	}
	return NewOperationError(operation, displayName, err)
}
