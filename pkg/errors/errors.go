// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Dirigent.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies Dirigent errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeConfiguration indicates an invalid tool set or run configuration.
	// Raised before any model call is made; never recoverable.
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// CodeDispatch indicates a tool-call dispatch failure: unknown tool,
	// argument validation failure, or a failure inside the tool itself.
	// Always recoverable; the model sees it as a tool result.
	CodeDispatch ErrorCode = "DISPATCH_ERROR"

	// CodeTransport indicates the completion API call itself failed.
	// Fatal to the run; not retried by the core loop.
	CodeTransport ErrorCode = "TRANSPORT_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeContextLost indicates the context was canceled mid-operation.
	CodeContextLost ErrorCode = "CONTEXT_LOST"
)

// DirigentError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type DirigentError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
}

// Error implements the error interface.
func (e *DirigentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *DirigentError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *DirigentError) MarshalJSON() ([]byte, error) {
	type Alias DirigentError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new DirigentError with the given code, message, and cause.
// Dispatch errors default to recoverable; everything else defaults to fatal.
func New(code ErrorCode, msg string, cause error) *DirigentError {
	return &DirigentError{
		Code:        code,
		Message:     msg,
		Err:         cause,
		Context:     make(map[string]interface{}),
		Attributes:  make(map[string]string),
		Recoverable: code == CodeDispatch,
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *DirigentError) WithContext(key string, value interface{}) *DirigentError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *DirigentError) WithAttribute(key, value string) *DirigentError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *DirigentError) WithRecoverable(recoverable bool) *DirigentError {
	e.Recoverable = recoverable
	return e
}

// AsDirigentError attempts to convert an error to a DirigentError.
// Returns the error as DirigentError if it is one, or wraps it otherwise.
func AsDirigentError(err error) *DirigentError {
	if err == nil {
		return nil
	}
	var de *DirigentError
	if stderrors.As(err, &de) {
		return de
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the error code of err, or CodeInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var de *DirigentError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return CodeOf(err) == CodeConfiguration }

// IsDispatch reports whether err is a recoverable dispatch error.
func IsDispatch(err error) bool { return CodeOf(err) == CodeDispatch }

// IsTransport reports whether err is a completion API transport error.
func IsTransport(err error) bool { return CodeOf(err) == CodeTransport }

// RecoverableString returns "true" or "false" as a string for observability.
func (e *DirigentError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}
