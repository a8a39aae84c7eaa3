package billing

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberPrefix is the literal prefix of every invoice number.
const NumberPrefix = "INV-"

// FirstInvoiceNumber is issued when no invoice exists yet.
const FirstInvoiceNumber = NumberPrefix + "001"

// FormatInvoiceNumber renders n as INV-NNN, widening past 999.
func FormatInvoiceNumber(n uint64) string {
	return fmt.Sprintf("%s%03d", NumberPrefix, n)
}

// ParseInvoiceNumber returns the numeric suffix of an INV-NNN identifier.
func ParseInvoiceNumber(s string) (uint64, error) {
	digits, ok := strings.CutPrefix(s, NumberPrefix)
	if !ok || digits == "" {
		return 0, &SequenceParseError{Value: s}
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, &SequenceParseError{Value: s}
		}
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, &SequenceParseError{Value: s}
	}
	return n, nil
}

// NextInvoiceNumber returns the identifier that follows last. An empty last means no
// invoice exists. A malformed last yields FirstInvoiceNumber together with a
// *SequenceParseError the caller must log; the store's unique index catches the
// collision this fallback can cause.
func NextInvoiceNumber(last string) (string, error) {
	if last == "" {
		return FirstInvoiceNumber, nil
	}
	n, err := ParseInvoiceNumber(last)
	if err != nil {
		return FirstInvoiceNumber, err
	}
	if n == ^uint64(0) {
		return FirstInvoiceNumber, &SequenceParseError{Value: last}
	}
	return FormatInvoiceNumber(n + 1), nil
}
