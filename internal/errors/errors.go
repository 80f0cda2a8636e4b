package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrRuleSourceNotFound indicates the rule file was not found
	ErrRuleSourceNotFound = errors.New("rule source not found")

	// ErrInvalidRule indicates a rule definition failed validation
	ErrInvalidRule = errors.New("invalid rule definition")

	// ErrTransportUnavailable indicates the mail transport is not configured
	ErrTransportUnavailable = errors.New("mail transport unavailable")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound             = "NOT_FOUND"
	CodeDuplicateEntry       = "DUPLICATE_ENTRY"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeRuleSourceNotFound   = "RULE_SOURCE_NOT_FOUND"
	CodeInvalidRule          = "INVALID_RULE"
	CodeTransportUnavailable = "TRANSPORT_UNAVAILABLE"
	CodeInternalError        = "INTERNAL_ERROR"
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrRuleSourceNotFound)
}

// IsInvalidRule checks if the error is a rule validation error
func IsInvalidRule(err error) bool {
	return errors.Is(err, ErrInvalidRule)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRuleSourceNotFound):
		return CodeRuleSourceNotFound
	case IsNotFound(err):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateEntry):
		return CodeDuplicateEntry
	case errors.Is(err, ErrInvalidRule):
		return CodeInvalidRule
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrTransportUnavailable):
		return CodeTransportUnavailable
	default:
		return CodeInternalError
	}
}
