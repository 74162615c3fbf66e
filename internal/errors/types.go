// Package errors defines the error taxonomy of the build pipeline. Every
// per-file failure is a *StitchError tagged with a Kind so callers can decide
// whether to log-and-continue or stop.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorises a pipeline failure.
type Kind string

const (
	// KindMissingInput is never returned by compilers (a missing source
	// compiles to empty output) but is used when a caller needs a source.
	KindMissingInput         Kind = "missing_input"
	KindDialectUnregistered  Kind = "dialect_unregistered"
	KindCompileFailure       Kind = "compile_failure"
	KindWriteFailure         Kind = "write_failure"
	KindConfigurationMissing Kind = "configuration_missing"
	KindLookupFailure        Kind = "lookup_failure"
	KindConfigInvalid        Kind = "config_invalid"
)

// Common error codes.
const (
	ErrCodeTemplateParse   = "ERR_TEMPLATE_PARSE"
	ErrCodeTemplateExec    = "ERR_TEMPLATE_EXEC"
	ErrCodeMarkdownRender  = "ERR_MARKDOWN_RENDER"
	ErrCodeReadSource      = "ERR_READ_SOURCE"
	ErrCodeUnknownVariable = "ERR_UNKNOWN_VARIABLE"
	ErrCodeNoDialect       = "ERR_NO_DIALECT"
	ErrCodeMkdir           = "ERR_MKDIR"
	ErrCodeWriteFile       = "ERR_WRITE_FILE"
	ErrCodeOutsideViews    = "ERR_OUTSIDE_VIEWS"
	ErrCodeNoViews         = "ERR_NO_VIEWS"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeStylesheet      = "ERR_STYLESHEET"
)

// StitchError is a structured error type with context.
type StitchError struct {
	Kind     Kind
	Code     string
	Message  string
	FilePath string
	Cause    error
}

// Error implements the error interface.
func (e *StitchError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *StitchError) Unwrap() error {
	return e.Cause
}

// Is matches another *StitchError with the same kind and code. An empty code
// on the target matches any code of that kind.
func (e *StitchError) Is(target error) bool {
	var t *StitchError
	if !errors.As(target, &t) {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}

	return t.Code == "" || e.Code == t.Code
}

// Error creation functions

// NewCompileError creates a compile failure for a source file.
func NewCompileError(code, path string, cause error) *StitchError {
	return &StitchError{
		Kind:     KindCompileFailure,
		Code:     code,
		Message:  "compile failed",
		FilePath: path,
		Cause:    cause,
	}
}

// NewWriteError creates a write failure for a destination file.
func NewWriteError(code, path string, cause error) *StitchError {
	return &StitchError{
		Kind:     KindWriteFailure,
		Code:     code,
		Message:  "write failed",
		FilePath: path,
		Cause:    cause,
	}
}

// NewLookupError reports a `this.*` path that does not exist in the
// configuration. Segment is the first key that could not be found.
func NewLookupError(path, segment string) *StitchError {
	return &StitchError{
		Kind:    KindLookupFailure,
		Code:    ErrCodeUnknownVariable,
		Message: fmt.Sprintf("cannot resolve %q: no field %q", path, segment),
	}
}

// NewDialectError reports an extension without a registered dialect.
func NewDialectError(ext, path string) *StitchError {
	return &StitchError{
		Kind:     KindDialectUnregistered,
		Code:     ErrCodeNoDialect,
		Message:  fmt.Sprintf("no dialect registered for %q, using passthrough", ext),
		FilePath: path,
	}
}

// NewConfigurationMissingError reports a views directory that does not exist.
func NewConfigurationMissingError(path string) *StitchError {
	return &StitchError{
		Kind:     KindConfigurationMissing,
		Code:     ErrCodeNoViews,
		Message:  "views directory does not exist",
		FilePath: path,
	}
}

// NewConfigError creates a configuration validation error.
func NewConfigError(message string) *StitchError {
	return &StitchError{
		Kind:    KindConfigInvalid,
		Code:    ErrCodeConfigInvalid,
		Message: message,
	}
}

// IsKind reports whether err, or anything it wraps, is a *StitchError of kind k.
func IsKind(err error, k Kind) bool {
	return errors.Is(err, &StitchError{Kind: k})
}

// KindOf returns the kind of the first *StitchError in err's chain, or "".
func KindOf(err error) Kind {
	var se *StitchError
	if errors.As(err, &se) {
		return se.Kind
	}

	return ""
}
