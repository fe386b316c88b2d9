package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Engine error taxonomy. Fatal only where documented: a normalization failure
// aborts the whole document, a malformed rule location aborts that field;
// everything else is collected and surfaced per field.
var (
	ErrNormalization  = errors.New("normalization failed")
	ErrResolution     = errors.New("malformed rule location")
	ErrValidation     = errors.New("validation failed")
	ErrRuleGeneration = errors.New("rule generation failed")
	ErrConflict       = errors.New("version conflict")
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NormalizationError(message string, cause error) error {
	if cause == nil {
		cause = ErrNormalization
	} else {
		cause = fmt.Errorf("%w: %w", ErrNormalization, cause)
	}
	return NewAppError("NORMALIZATION_ERROR", message, cause)
}

func ResolutionError(message string) error {
	return NewAppError("RESOLUTION_ERROR", message, ErrResolution)
}

func RuleGenerationError(message string, cause error) error {
	if cause == nil {
		cause = ErrRuleGeneration
	} else {
		cause = fmt.Errorf("%w: %w", ErrRuleGeneration, cause)
	}
	return NewAppError("RULEGEN_ERROR", message, cause)
}

func ConflictError(message string) error {
	return NewAppError("CONFLICT", message, ErrConflict)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
