// Package errors provides standardized error handling for the loan pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Intake errors
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeDispatchFailed              ErrorCode = "DISPATCH_FAILED"

	// Worker errors
	ErrCodeMessageParseFailed   ErrorCode = "MESSAGE_PARSE_FAILED"
	ErrCodeCacheWriteFailed     ErrorCode = "CACHE_WRITE_FAILED"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"

	// Lookup errors
	ErrCodeCacheReadFailed  ErrorCode = "CACHE_READ_FAILED"
	ErrCodeDecisionNotFound ErrorCode = "DECISION_NOT_FOUND"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches two StandardErrors by code so sentinel comparisons work.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if errors.As(target, &std) {
		return e.Code == std.Code
	}
	return false
}

// CodeOf extracts the error code from err, or empty when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return ""
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable, caller-fixable intake error.
// It is rejected before any side effect takes place.
func NewValidationError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationValidationFailed,
		Message:   "Application validation failed",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewDispatchError creates a retryable error for a failed channel append.
// The caller may retry the whole submission; publishing is not idempotent.
func NewDispatchError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDispatchFailed,
		Message:   "Failed to publish application to the message channel",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewMessageParseError creates a non-retryable error for an unprocessable
// channel payload. These messages are dead-lettered, never reprocessed.
func NewMessageParseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMessageParseFailed,
		Message:   "Channel payload is malformed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCacheWriteError creates a retryable error for a failed decision write.
func NewCacheWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheWriteFailed,
		Message:   "Failed to write decision record to cache",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCacheReadError creates a retryable error for a failed status read.
func NewCacheReadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheReadFailed,
		Message:   "Failed to read decision record from cache",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDatabaseInsertError creates a retryable error for the durable
// write-behind path.
func NewDatabaseInsertError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Failed to insert decision record into database",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ErrDecisionNotFound is the terminal, non-error outcome of status lookup:
// never submitted, not yet decided and expired are indistinguishable.
var ErrDecisionNotFound = &StandardError{
	Code:      ErrCodeDecisionNotFound,
	Message:   "No decision found for applicant",
	Retryable: false,
}

// IsNotFound reports whether err is the not-found lookup outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDecisionNotFound)
}
