package transport

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of transport errors
type ErrorType string

const (
	// Configuration errors
	ErrorTypeConfigValidation ErrorType = "config_validation"
	ErrorTypeConfigMissing    ErrorType = "config_missing"

	// Store errors
	ErrorTypeStoreLoad ErrorType = "store_load"

	// Endpoint errors
	ErrorTypeBind    ErrorType = "bind"
	ErrorTypeConnect ErrorType = "connect"

	// Socket lifecycle errors. End-of-stream is not a category of its own:
	// Read surfaces io.EOF raw so io.Copy and friends keep their semantics.
	ErrorTypeNotOpen     ErrorType = "not_open"
	ErrorTypeAlreadyOpen ErrorType = "already_open"
	ErrorTypeTimedOut    ErrorType = "timed_out"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a structured transport error with context
type Error struct {
	Type        ErrorType
	Message     string
	Cause       error
	Context     map[string]interface{}
	Suggestions []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", string(e.Type)))
	parts = append(parts, e.Message)

	if len(e.Context) > 0 {
		var contextParts []string
		for key, value := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", key, value))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

// Unwrap returns the underlying error for error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for resolving the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// NewError creates a new transport error with the specified type and message
func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewErrorWithCause creates a new transport error with an underlying cause
func NewErrorWithCause(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Configuration error constructors
func NewConfigMissingError(field string) *Error {
	return NewError(ErrorTypeConfigMissing, fmt.Sprintf("required configuration field '%s' is missing", field)).
		WithContext("field", field).
		WithSuggestion(fmt.Sprintf("Set the '%s' field before building the endpoint", field))
}

func NewConfigValidationError(field string, value interface{}, reason string) *Error {
	return NewError(ErrorTypeConfigValidation, fmt.Sprintf("invalid configuration field '%s'", field)).
		WithContext("field", field).
		WithContext("value", value).
		WithContext("reason", reason)
}

// NewStoreLoadError wraps any key-store or trust-store failure. Callers are
// deliberately not told whether the file was missing, the password was wrong,
// or the contents were corrupt; the cause is attached for diagnostics only.
func NewStoreLoadError(path string, cause error) *Error {
	return NewErrorWithCause(ErrorTypeStoreLoad, "could not establish the secure context", cause).
		WithContext("store", path).
		WithSuggestion("Verify the store file exists and is readable").
		WithSuggestion("Check the store password and format")
}

// NewBindError wraps a server-side bind or listener configuration failure.
func NewBindError(port int, cause error) *Error {
	return NewErrorWithCause(ErrorTypeBind, fmt.Sprintf("could not bind to port %d", port), cause).
		WithContext("port", port).
		WithSuggestion("Check that the port is not already in use").
		WithSuggestion("Ensure the process may bind to the requested interface")
}

// NewConnectError wraps a client-side connection failure.
func NewConnectError(host string, port int, cause error) *Error {
	return NewErrorWithCause(ErrorTypeConnect, fmt.Sprintf("could not connect to %s on port %d", host, port), cause).
		WithContext("host", host).
		WithContext("port", port).
		WithSuggestion("Verify the remote endpoint is listening").
		WithSuggestion("Check DNS resolution and network reachability")
}

func NewNotOpenError(operation string) *Error {
	return NewError(ErrorTypeNotOpen, fmt.Sprintf("transport is not open for %s", operation)).
		WithContext("operation", operation)
}

func NewAlreadyOpenError() *Error {
	return NewError(ErrorTypeAlreadyOpen, "transport is already open")
}

// Error classification helpers
func IsConfigurationError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		switch te.Type {
		case ErrorTypeConfigValidation, ErrorTypeConfigMissing:
			return true
		}
	}
	return false
}

func IsStoreLoadError(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Type == ErrorTypeStoreLoad
}

func IsBindError(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Type == ErrorTypeBind
}

func IsConnectError(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Type == ErrorTypeConnect
}

func IsTimeoutError(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Type == ErrorTypeTimedOut
}
