package billing

import (
	"errors"
	"fmt"

	"github.com/satheeshds/invoicing/models"
)

var (
	// ErrNotFound is returned when an invoice or member does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLineItemLocked is returned when price, quantity, rate or region is edited on an
	// invoice that already has payments. Reprice is the explicit way to do that.
	ErrLineItemLocked = errors.New("line item cannot be edited after a payment has been recorded")
)

// ValidationError represents malformed or missing input, rejected before any derivation runs.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ExcessPaymentError is returned when a payment exceeds the balance due.
type ExcessPaymentError struct {
	Amount     models.Money
	BalanceDue models.Money
}

// Excess is the part of the payment that could not be applied.
func (e *ExcessPaymentError) Excess() models.Money {
	return e.Amount - e.BalanceDue
}

// Error implements the error interface.
func (e *ExcessPaymentError) Error() string {
	return fmt.Sprintf("payment of %d exceeds balance due %d by %d", e.Amount, e.BalanceDue, e.Excess())
}

// SequenceParseError reports a stored invoice number that does not match INV-NNN.
type SequenceParseError struct {
	Value string
}

// Error implements the error interface.
func (e *SequenceParseError) Error() string {
	return fmt.Sprintf("invoice number %q does not match %s<digits>", e.Value, NumberPrefix)
}

// StaleWriteError is returned when the stored version differs from the one the caller read.
type StaleWriteError struct {
	ID       int64
	Expected int64
}

// Error implements the error interface.
func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("invoice %d was modified concurrently (expected version %d); refetch and retry", e.ID, e.Expected)
}

// ConflictError is returned when a unique value such as an invoice number is already taken.
// The caller may retry with a freshly generated value.
type ConflictError struct {
	Field string
	Value string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// TransportError wraps a persistence or network failure. It is never retried by the engine.
type TransportError struct {
	// Op is the operation that failed (e.g., "create invoice").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// WrapTransportError wraps err as a TransportError unless it is nil or already typed.
func WrapTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// isClassified reports whether err already carries one of the engine's error kinds.
func isClassified(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrLineItemLocked) {
		return true
	}
	var (
		transportErr  *TransportError
		validationErr *ValidationError
		excessErr     *ExcessPaymentError
		staleErr      *StaleWriteError
		conflictErr   *ConflictError
	)
	return errors.As(err, &transportErr) ||
		errors.As(err, &validationErr) ||
		errors.As(err, &excessErr) ||
		errors.As(err, &staleErr) ||
		errors.As(err, &conflictErr)
}
