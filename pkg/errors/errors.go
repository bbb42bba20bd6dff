package errors

import (
	"fmt"
)

// ConfigError reports an unusable build configuration: an unresolvable source,
// an unknown format tag or an unsupported compression choice.
type ConfigError struct {
	Option  string
	Message string
	Err     error
}

// NewConfigError constructs a ConfigError.
func NewConfigError(option, message string, err error) error {
	return &ConfigError{Option: option, Message: message, Err: err}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Option != "" {
		return fmt.Sprintf("config error: %s: %s", e.Option, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseError represents a descriptor parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures metadata and source validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CompileError represents a bytecode compilation failure for one source file.
type CompileError struct {
	Path string
	Err  error
}

// NewCompileError constructs a CompileError for the given relative path.
func NewCompileError(path string, err error) error {
	return &CompileError{Path: path, Err: err}
}

func (e *CompileError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("compile error: %s: %v", e.Path, e.Err)
}

// Unwrap exposes the root error.
func (e *CompileError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ArchiveError indicates the output archive could not be written.
type ArchiveError struct {
	Path string
	Op   string
	Err  error
}

// NewArchiveError constructs an ArchiveError for the failed operation.
func NewArchiveError(path, op string, err error) error {
	return &ArchiveError{Path: path, Op: op, Err: err}
}

func (e *ArchiveError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("archive error [%s] %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("archive error %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ArchiveError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConventionError reports a produced archive that breaks its layout conventions.
type ConventionError struct {
	Archive string
	Entry   string
	Message string
}

// NewConventionError constructs a ConventionError.
func NewConventionError(archive, entry, message string) error {
	return &ConventionError{Archive: archive, Entry: entry, Message: message}
}

func (e *ConventionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Entry != "" {
		return fmt.Sprintf("convention error [%s]: %s: %s", e.Archive, e.Entry, e.Message)
	}
	return fmt.Sprintf("convention error [%s]: %s", e.Archive, e.Message)
}
