package services

import (
	"errors"

	apperrors "github.com/dta-platform/assessment-engine/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Definition specific errors
	ErrDefinitionNotFound     = errors.New("form definition not found")
	ErrDefinitionNotEditable  = errors.New("form definition cannot be edited in current status")
	ErrDefinitionNotPublished = errors.New("form definition is not published")
	ErrDefinitionIntegrity    = errors.New("form definition failed integrity check")

	// Submission errors
	ErrSubmissionFailed  = errors.New("submission to persistence collaborator failed")
	ErrSubmissionPending = errors.New("a submission is already in flight")

	// Attempt / wizard errors
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptCompleted = errors.New("attempt already completed")
	ErrSessionNotFound  = errors.New("wizard session not found or expired")
	ErrStepInvalid      = errors.New("current step has invalid answers")
	ErrStepIncomplete   = errors.New("current step has missing answers")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDefinitionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrStepInvalid) ||
		errors.Is(err, ErrStepIncomplete) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAttemptCompleted) ||
		errors.Is(err, ErrSubmissionPending)
}
