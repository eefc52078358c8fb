package models

import (
	"errors"
	"fmt"
)

// Sentinel causes carried inside a ValidationError.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Operations reported by OperationError.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ValidationError is returned when a product invariant or business rule
// would be violated.
type ValidationError struct {
	Field  string
	Reason string
	Value  interface{}
	Err    error
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product: field=%s, reason=%s, value=%v", e.Field, e.Reason, e.Value)
}

// Unwrap exposes the sentinel cause, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is allows matching any ValidationError with errors.Is.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NotFoundError is returned when no product has the requested identifier.
type NotFoundError struct {
	ProductID int64
}

// Error implements the error interface for NotFoundError
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product not found: id=%d", e.ProductID)
}

// Is allows matching any NotFoundError with errors.Is.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// ConflictError is returned when a save is based on a stale version of the row.
type ConflictError struct {
	ProductID int64
	Version   int64
}

// Error implements the error interface for ConflictError
func (e *ConflictError) Error() string {
	return fmt.Sprintf("product was modified concurrently: id=%d, version=%d", e.ProductID, e.Version)
}

// Is allows matching any ConflictError with errors.Is.
func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)
	return ok
}

// OperationError wraps a failure of a create, update or delete that is not
// attributable to validation, typically a storage error.
type OperationError struct {
	Op  string
	Err error
}

// Error implements the error interface for OperationError
func (e *OperationError) Error() string {
	return fmt.Sprintf("failed to %s product: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, reason string, value interface{}) error {
	return &ValidationError{Field: field, Reason: reason, Value: value}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(productID int64) error {
	return &NotFoundError{ProductID: productID}
}

// NewConflictError creates a new ConflictError
func NewConflictError(productID, version int64) error {
	return &ConflictError{ProductID: productID, Version: version}
}

// NewOperationError creates a new OperationError
func NewOperationError(op string, err error) error {
	return &OperationError{Op: op, Err: err}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFoundError checks if an error is a NotFoundError
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflictError checks if an error is a ConflictError
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsOperationError checks if an error is an OperationError
func IsOperationError(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe)
}
