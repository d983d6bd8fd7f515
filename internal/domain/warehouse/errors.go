package warehouse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrValidation is matched by every ValidationError
var ErrValidation = shared.NewDomainError("VALIDATION_ERROR", "Validation failed")

// ValidationError collects per-field rule violations found before any mutation
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError holding a single field message
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add records a message for field. The first message per field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = message
}

// Merge copies the fields of other under prefix
func (e *ValidationError) Merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for field, msg := range other.Fields {
		e.Add(prefix+field, msg)
	}
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e as an error when it holds messages, nil otherwise
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// InsufficientStockError is returned when a move would drive a balance below zero
type InsufficientStockError struct {
	ProductID     uuid.UUID
	ProductName   string
	WarehouseID   uuid.UUID
	WarehouseName string
	Available     decimal.Decimal
	Required      decimal.Decimal
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q in warehouse %q: available %s, required %s",
		e.ProductName, e.WarehouseName,
		valueobject.FormatQuantity(e.Available), valueobject.FormatQuantity(e.Required))
}

// Unwrap lets errors.Is match shared.ErrInsufficientStock
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// StateError guards a transition that is illegal in the current status.
// All StateErrors unwrap to shared.ErrInvalidState; errors.Is compares Reason.
type StateError struct {
	Reason  string
	Message string
}

// Error implements the error interface
func (e *StateError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match shared.ErrInvalidState
func (e *StateError) Unwrap() error {
	return shared.ErrInvalidState
}

// Is matches another StateError with the same reason
func (e *StateError) Is(target error) bool {
	t, ok := target.(*StateError)
	return ok && t.Reason == e.Reason
}

// State errors
var (
	ErrAlreadyPosted    = &StateError{Reason: "ALREADY_POSTED", Message: "document is already posted"}
	ErrNotPosted        = &StateError{Reason: "NOT_POSTED", Message: "document is not posted"}
	ErrAlreadyProcessed = &StateError{Reason: "ALREADY_PROCESSED", Message: "cash request is already processed"}
)

// newStateError builds a StateError with the reason of base and a detailed message
func newStateError(base *StateError, format string, args ...any) *StateError {
	return &StateError{Reason: base.Reason, Message: fmt.Sprintf(format, args...)}
}
