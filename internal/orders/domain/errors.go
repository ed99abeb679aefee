package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrValidation matches every ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrDomainRule matches every DomainRuleViolation via errors.Is.
	ErrDomainRule = errors.New("domain rule violated")

	// ErrAlreadyCancelled is the rule broken by cancelling a cancelled order.
	ErrAlreadyCancelled = errors.New("order is already cancelled")

	// ErrCorruptOrder is returned by Reconstitute when stored data is structurally incomplete.
	ErrCorruptOrder = errors.New("corrupt order data")
)

// ValidationError reports malformed construction input. It is the caller's fault and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for the named input field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DomainRuleViolation reports an illegal state transition on an existing order.
type DomainRuleViolation struct {
	OrderID uuid.UUID
	Rule    error
}

func (e *DomainRuleViolation) Error() string {
	return fmt.Sprintf("order %s: %v", e.OrderID, e.Rule)
}

func (e *DomainRuleViolation) Unwrap() error {
	return e.Rule
}

func (e *DomainRuleViolation) Is(target error) bool {
	return target == ErrDomainRule
}
