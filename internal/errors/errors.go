package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigurationError indicates an invalid analyzer registration or config (fatal at startup)
	ConfigurationError ErrorCode = "CONFIGURATION_ERROR"
	// DependencyCycle indicates a cycle among analyzer dependency declarations
	DependencyCycle ErrorCode = "DEPENDENCY_CYCLE"
	// PluginFault indicates an analyzer failed or panicked while running
	PluginFault ErrorCode = "PLUGIN_FAULT"
	// UpstreamSkip indicates an analyzer was skipped because a dependency errored
	UpstreamSkip ErrorCode = "UPSTREAM_SKIP"
	// UnknownDependency indicates an analyzer declared a dependency that was never registered
	UnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"
	// ScanFailed indicates the module scan could not run at all
	ScanFailed ErrorCode = "SCAN_FAILED"
	// InvalidPolicy indicates a malformed layer policy
	InvalidPolicy ErrorCode = "INVALID_POLICY"
	// InvalidAction indicates a malformed raw restructuring action
	InvalidAction ErrorCode = "INVALID_ACTION"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing a file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	File        string        `json:"file,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Error represents a modplan error with code, message, and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error with the suggested fixes registered for code.
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: SuggestedFixes(code),
	}
}

// Newf creates a new Error with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error with the same code, so callers can test
// errors.Is(err, errors.New(errors.ConfigurationError, "", nil)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Describe returns err's text without the code prefix of a leading *Error.
func Describe(err error) string {
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigurationError: {
		{
			Type:        EditFile,
			File:        ".modplan/config.json",
			Description: "Remove the duplicate or malformed analyzer registration",
		},
	},
	DependencyCycle: {
		{
			Type:        RunCommand,
			Command:     "modplan analyze --verbose",
			Safe:        true,
			Description: "Inspect the analyzer order; one dependsOn edge must be removed",
		},
	},
	ScanFailed: {
		{
			Type:        RunCommand,
			Command:     "ls -la ${repo_root}",
			Safe:        true,
			Description: "Check that the repository root exists and is readable",
		},
	},
	InvalidPolicy: {
		{
			Type:        EditFile,
			File:        "layers.toml",
			Description: "Fix unknown layer names in allow lists or duplicate layer names",
		},
	},
}

// SuggestedFixes returns suggested fixes for an error code
func SuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
