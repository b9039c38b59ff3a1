// Package errors provides structured error types for glyph.
// Errors include context, causes, and actionable suggestions.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig     Category = "config"     // Configuration loading/parsing errors
	CategoryInput      Category = "input"      // Key file and vector file content errors
	CategoryProjection Category = "projection" // Dimensionality reduction errors
	CategoryRender     Category = "render"     // Plot rendering errors
	CategoryCommand    Category = "command"    // CLI usage errors
	CategoryIO         Category = "io"         // File/IO errors
	CategoryInternal   Category = "internal"   // Internal/unexpected errors
)

// GlyphError is a structured error with context and suggestions.
// It implements the error interface and supports error wrapping.
type GlyphError struct {
	// Code is a unique identifier for this error type (e.g., "KEY_FIELD_MISSING")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error (for wrapping)
	Cause error

	// Suggestions are actionable remediation steps for the user
	Suggestions []string
}

// Error implements the error interface.
func (e *GlyphError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *GlyphError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two GlyphErrors match if they have the same Code.
func (e *GlyphError) Is(target error) bool {
	if t, ok := target.(*GlyphError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new GlyphError with the given code, category, and message.
func New(code string, category Category, message string) *GlyphError {
	return &GlyphError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// Newf creates a new GlyphError with a formatted message.
func Newf(code string, category Category, format string, args ...interface{}) *GlyphError {
	return New(code, category, fmt.Sprintf(format, args...))
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *GlyphError) WithContext(key, value string) *GlyphError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *GlyphError) WithCause(cause error) *GlyphError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *GlyphError) WithSuggestion(suggestion string) *GlyphError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// HasContext returns true if the error has context information.
func (e *GlyphError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *GlyphError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as sorted key="value" pairs.
func (e *GlyphError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps an existing error with a GlyphError.
func Wrap(err error, code string, category Category, message string) *GlyphError {
	return New(code, category, message).WithCause(err)
}

// AsGlyphError attempts to convert an error to a GlyphError.
// Unlike a plain type assertion it walks the wrap chain.
func AsGlyphError(err error) (*GlyphError, bool) {
	for err != nil {
		if ge, ok := err.(*GlyphError); ok {
			return ge, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsCategory checks if an error is a GlyphError with the given category.
func IsCategory(err error, category Category) bool {
	if ge, ok := AsGlyphError(err); ok {
		return ge.Category == category
	}
	return false
}

// IsCode checks if an error is a GlyphError with the given code.
func IsCode(err error, code string) bool {
	if ge, ok := AsGlyphError(err); ok {
		return ge.Code == code
	}
	return false
}

// -----------------------------------------------------------------------------
// Category Constructors
// -----------------------------------------------------------------------------

// Config creates a new configuration error.
func Config(code, message string) *GlyphError {
	return New(code, CategoryConfig, message)
}

// Configf creates a new configuration error with formatted message.
func Configf(code, format string, args ...interface{}) *GlyphError {
	return Newf(code, CategoryConfig, format, args...)
}

// Input creates a new input content error.
// Use for missing key file fields or malformed vector files.
func Input(code, message string) *GlyphError {
	return New(code, CategoryInput, message)
}

// Inputf creates a new input error with formatted message.
func Inputf(code, format string, args ...interface{}) *GlyphError {
	return Newf(code, CategoryInput, format, args...)
}

// Projection creates a new projection error.
func Projection(code, message string) *GlyphError {
	return New(code, CategoryProjection, message)
}

// Projectionf creates a new projection error with formatted message.
func Projectionf(code, format string, args ...interface{}) *GlyphError {
	return Newf(code, CategoryProjection, format, args...)
}

// Render creates a new plot rendering error.
func Render(code, message string) *GlyphError {
	return New(code, CategoryRender, message)
}

// Renderf creates a new render error with formatted message.
func Renderf(code, format string, args ...interface{}) *GlyphError {
	return Newf(code, CategoryRender, format, args...)
}

// Command creates a new CLI usage error.
func Command(code, message string) *GlyphError {
	return New(code, CategoryCommand, message)
}

// Commandf creates a new command error with formatted message.
func Commandf(code, format string, args ...interface{}) *GlyphError {
	return Newf(code, CategoryCommand, format, args...)
}

// IOWrap wraps an error as a file/IO error.
// Use for file read/write failures, permission issues, or disk errors.
func IOWrap(err error, code, message string) *GlyphError {
	return Wrap(err, code, CategoryIO, message)
}

// Internal creates a new internal/unexpected error.
func Internal(code, message string) *GlyphError {
	return New(code, CategoryInternal, message)
}

// -----------------------------------------------------------------------------
// Quick Constructors
// -----------------------------------------------------------------------------

// FileNotFound creates an IO_FILE_NOT_FOUND error for path.
func FileNotFound(path string, cause error) *GlyphError {
	return IOWrap(cause, ErrIOFileNotFound, "file not found").
		WithContext("path", path)
}

// ReadFailed creates an IO_READ_FAILED error for path.
func ReadFailed(path string, cause error) *GlyphError {
	return IOWrap(cause, ErrIOReadFailed, "failed to read file").
		WithContext("path", path)
}

// WriteFailed creates an IO_WRITE_FAILED error for path.
func WriteFailed(path string, cause error) *GlyphError {
	return IOWrap(cause, ErrIOWriteFailed, "failed to write file").
		WithContext("path", path)
}
