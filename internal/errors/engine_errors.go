package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Transient failures, recovered by falling back to cached or built-in data
	ErrorCategoryNetwork ErrorCategory = "NETWORK"
	ErrorCategoryTimeout ErrorCategory = "TIMEOUT"
	ErrorCategoryOffline ErrorCategory = "OFFLINE"

	// Remote answered but the answer is unusable
	ErrorCategoryNotFound ErrorCategory = "NOT_FOUND"
	ErrorCategoryDecode   ErrorCategory = "DECODE"

	// User-facing or best-effort failures
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	ErrorCategoryAdvisory   ErrorCategory = "ADVISORY"

	// Local infrastructure
	ErrorCategoryStorage       ErrorCategory = "STORAGE"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
)

// EngineError represents a categorized error with context
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsTransient reports whether the error should be absorbed by a fallback path
// instead of being shown to the user.
func (e *EngineError) IsTransient() bool {
	switch e.Category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryOffline:
		return true
	default:
		return false
	}
}

// NewEngineError creates a new categorized error
func NewEngineError(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with engine error context
func WrapError(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithMessage replaces the human-readable message
func (e *EngineError) WithMessage(message string) *EngineError {
	e.Message = message
	return e
}

// CategoryOf returns the category of err, or "" when err carries none.
func CategoryOf(err error) ErrorCategory {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.Category
	}
	return ""
}

// IsCategory reports whether any EngineError in err's chain has the category
func IsCategory(err error, category ErrorCategory) bool {
	return CategoryOf(err) == category
}

// IsOffline reports whether err means no remote data and no cache were available
func IsOffline(err error) bool {
	return IsCategory(err, ErrorCategoryOffline)
}

// IsTimeout reports whether err is a time-bounded call that ran out of time
func IsTimeout(err error) bool {
	return IsCategory(err, ErrorCategoryTimeout)
}

// IsTransient reports whether err should be recovered by a fallback path
func IsTransient(err error) bool {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.IsTransient()
	}
	return false
}

// CategorizeError attempts to categorize a generic error
func CategorizeError(err error, component, operation string) *EngineError {
	if err == nil {
		return nil
	}

	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "context deadline exceeded") {
		return WrapError(err, ErrorCategoryTimeout, component, operation)
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "dns") || strings.Contains(errMsg, "dial") ||
		strings.Contains(errMsg, "eof") {
		return WrapError(err, ErrorCategoryNetwork, component, operation)
	}

	if strings.Contains(errMsg, "unmarshal") || strings.Contains(errMsg, "invalid character") ||
		strings.Contains(errMsg, "json") {
		return WrapError(err, ErrorCategoryDecode, component, operation)
	}

	// Anything else on the wire is treated as a network failure so callers fall back
	return WrapError(err, ErrorCategoryNetwork, component, operation)
}

// Common error constructors
func NewNetworkError(component, operation string, err error) *EngineError {
	return WrapError(err, ErrorCategoryNetwork, component, operation)
}

func NewTimeoutError(component, operation string, err error) *EngineError {
	return WrapError(err, ErrorCategoryTimeout, component, operation)
}

func NewOfflineError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryOffline, component, operation, message)
}

func NewNotFoundError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryNotFound, component, operation, message)
}

func NewDecodeError(component, operation string, err error) *EngineError {
	return WrapError(err, ErrorCategoryDecode, component, operation)
}

func NewValidationError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryValidation, component, operation, message)
}

func NewAdvisoryError(component, operation string, err error) *EngineError {
	return WrapError(err, ErrorCategoryAdvisory, component, operation)
}

func NewStorageError(component, operation string, err error) *EngineError {
	return WrapError(err, ErrorCategoryStorage, component, operation)
}

func NewConfigurationError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryConfiguration, component, operation, message)
}

// Error recovery strategies
type RecoveryAction string

const (
	RecoveryActionRetry    RecoveryAction = "RETRY"
	RecoveryActionSkip     RecoveryAction = "SKIP"
	RecoveryActionStop     RecoveryAction = "STOP"
	RecoveryActionFallback RecoveryAction = "FALLBACK"
)

// GetRecoveryAction suggests a recovery action based on error category.
// Nothing in the engine is fatal; STOP is reserved for local misconfiguration.
// SKIP means the error is reported to the caller as is.
func (e *EngineError) GetRecoveryAction() RecoveryAction {
	switch e.Category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryOffline, ErrorCategoryDecode:
		return RecoveryActionFallback
	case ErrorCategoryNotFound, ErrorCategoryValidation, ErrorCategoryAdvisory:
		return RecoveryActionSkip
	case ErrorCategoryConfiguration:
		return RecoveryActionStop
	case ErrorCategoryStorage:
		return RecoveryActionRetry
	default:
		return RecoveryActionFallback
	}
}

// RecoveryFor returns the recovery action for err. Errors outside the
// taxonomy are reported as is.
func RecoveryFor(err error) RecoveryAction {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.GetRecoveryAction()
	}
	return RecoveryActionSkip
}
