// Package errors provides structured error handling for recnotes operations.
// It defines error codes, error types, and provides utilities for creating
// and handling errors with context and structured information.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeCanceled      ErrorCode = "CANCELED"

	// Input parsing errors.
	CodeScanFormat ErrorCode = "SCAN_FORMAT"
	CodeMapFormat  ErrorCode = "MAP_FORMAT"

	// Note emission errors.
	CodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	CodeNotInitialized   ErrorCode = "NOT_INITIALIZED"

	// Resolution errors.
	CodeResolveFailed ErrorCode = "RESOLVE_FAILED"

	// File system errors.
	CodeFileNotFound    ErrorCode = "FILE_NOT_FOUND"
	CodeFilePermission  ErrorCode = "FILE_PERMISSION"
	CodeFileWrite       ErrorCode = "FILE_WRITE"
	CodeDirectoryCreate ErrorCode = "DIRECTORY_CREATE"
)

// ParseError represents an error raised while reading one of the input
// sources (host list, grepable scan, nmap XML, host map).
type ParseError struct {
	Code    ErrorCode
	Message string
	Source  string
	Line    int
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	switch {
	case e.Source != "" && e.Line > 0:
		msg = fmt.Sprintf("%s (source: %s, line: %d)", msg, e.Source, e.Line)
	case e.Source != "":
		msg = fmt.Sprintf("%s (source: %s)", msg, e.Source)
	case e.Line > 0:
		msg = fmt.Sprintf("%s (line: %d)", msg, e.Line)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *ParseError) WithContext(key string, value interface{}) *ParseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSource records which input the error came from.
func (e *ParseError) WithSource(source string) *ParseError {
	e.Source = source
	return e
}

// NewParseError creates a new parse error with the specified code and message.
func NewParseError(code ErrorCode, message string) *ParseError {
	return &ParseError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewParseErrorAtLine creates a parse error pointing at a 1-based input line.
func NewParseErrorAtLine(code ErrorCode, message string, line int) *ParseError {
	return &ParseError{
		Code:    code,
		Message: message,
		Line:    line,
		Context: make(map[string]interface{}),
	}
}

// WrapParseError wraps an existing error as a parse error.
func WrapParseError(code ErrorCode, message string, err error) *ParseError {
	return &ParseError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// NoteError represents errors raised while producing notes or vault files.
type NoteError struct {
	Code    ErrorCode
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *NoteError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path: %s)", msg, e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *NoteError) Unwrap() error {
	return e.Cause
}

// NewNoteError creates a new note error for a path.
func NewNoteError(code ErrorCode, message, path string) *NoteError {
	return &NoteError{
		Code:    code,
		Message: message,
		Path:    path,
	}
}

// WrapNoteError wraps an existing error as a note error.
func WrapNoteError(code ErrorCode, message, path string, err error) *NoteError {
	return &NoteError{
		Code:    code,
		Message: message,
		Path:    path,
		Cause:   err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
	}
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetCode extracts the error code from an error if it has one. Wrapped errors
// are searched, so a ParseError returned through fmt.Errorf("%w") still
// reports its code.
func GetCode(err error) ErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	var ne *NoteError
	if errors.As(err, &ne) {
		return ne.Code
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return GetCode(err) == code
}

// IsFatal determines if an error should terminate the process. A broken scan
// format means the upstream tool emitted something unsupported; a missing
// template or destination means no note can be produced at all.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodeScanFormat, CodeTemplateNotFound, CodeNotInitialized,
		CodeDirectoryCreate, CodeConfiguration, CodeValidation:
		return true
	default:
		return false
	}
}

// Common error creation functions

// ErrFileNotFound creates an error for a missing input file.
func ErrFileNotFound(path string, err error) *ParseError {
	return WrapParseError(CodeFileNotFound, "Input file could not be found", err).WithSource(path)
}

// ErrFileUnreadable creates an error for an input file that exists but cannot be read.
func ErrFileUnreadable(path string, err error) *ParseError {
	return WrapParseError(CodeFilePermission, "Input file could not be read", err).WithSource(path)
}

// ErrPortDescriptor creates an error for a port descriptor with the wrong field count.
func ErrPortDescriptor(line int, descriptor string, fields int) *ParseError {
	return NewParseErrorAtLine(CodeScanFormat,
		fmt.Sprintf("Port descriptor %q has %d fields, expected 8", descriptor, fields), line).
		WithContext("descriptor", descriptor)
}

// ErrTemplateNotFound creates an error for a template that cannot be loaded.
func ErrTemplateNotFound(path string, err error) *NoteError {
	return WrapNoteError(CodeTemplateNotFound, "Template could not be loaded", path, err)
}
