package billing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapTransportError(t *testing.T) {
	assert.NoError(t, WrapTransportError("get invoice", nil))

	cause := errors.New("connection reset")
	err := WrapTransportError("get invoice", cause)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "get invoice", transportErr.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "get invoice: connection reset", err.Error())
}

func TestWrapTransportErrorKeepsClassifiedErrors(t *testing.T) {
	classified := []error{
		ErrNotFound,
		fmt.Errorf("invoice 7: %w", ErrNotFound),
		ErrLineItemLocked,
		NewValidationError("amount", "amount must be positive"),
		&ExcessPaymentError{Amount: 700, BalanceDue: 680},
		&StaleWriteError{ID: 1, Expected: 2},
		&ConflictError{Field: "invoice_number", Value: "INV-001"},
		&TransportError{Op: "list invoices", Err: errors.New("timeout")},
	}
	for _, err := range classified {
		t.Run(err.Error(), func(t *testing.T) {
			assert.Same(t, err, WrapTransportError("record payment", err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	excess := &ExcessPaymentError{Amount: 700, BalanceDue: 680}
	assert.Equal(t, "payment of 700 exceeds balance due 680 by 20", excess.Error())

	assert.Equal(t, "validation error: bad input", NewValidationError("", "bad input").Error())
	assert.Equal(t, "validation error for field 'tax_rate': not allowed", NewValidationError("tax_rate", "not allowed").Error())
	assert.Equal(t, `invoice_number "INV-001" already exists`, (&ConflictError{Field: "invoice_number", Value: "INV-001"}).Error())
}
