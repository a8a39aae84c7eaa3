package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextInvoiceNumber(t *testing.T) {
	tests := []struct {
		last string
		want string
	}{
		{"", "INV-001"},
		{"INV-001", "INV-002"},
		{"INV-009", "INV-010"},
		{"INV-099", "INV-100"},
		{"INV-999", "INV-1000"},
		{"INV-1000", "INV-1001"},
		{"INV-000", "INV-001"},
		{"INV-7", "INV-008"},
	}
	for _, tt := range tests {
		t.Run(tt.last, func(t *testing.T) {
			got, err := NextInvoiceNumber(tt.last)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextInvoiceNumberMalformed(t *testing.T) {
	for _, last := range []string{"BADID", "INV-", "INV-12a", "inv-001", "INV-+12", "INV--1", "INV-18446744073709551616", "INV-18446744073709551615"} {
		t.Run(last, func(t *testing.T) {
			got, err := NextInvoiceNumber(last)
			assert.Equal(t, FirstInvoiceNumber, got)
			var seqErr *SequenceParseError
			require.ErrorAs(t, err, &seqErr)
			assert.Equal(t, last, seqErr.Value)
		})
	}
}

func TestNextInvoiceNumberSequential(t *testing.T) {
	last := ""
	for i := 1; i <= 12; i++ {
		next, err := NextInvoiceNumber(last)
		require.NoError(t, err)
		assert.Equal(t, FormatInvoiceNumber(uint64(i)), next)
		last = next
	}
	assert.Equal(t, "INV-012", last)
}
