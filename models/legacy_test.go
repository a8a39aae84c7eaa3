package models

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLegacyInvoiceAliases(t *testing.T) {
	rec, err := NormalizeLegacyInvoice([]byte(`{
		"invoiceNumber": "INV-007",
		"invoiceDate": "10-05-2024",
		"dueDate": "2024-06-09",
		"customerName": " Acme Traders ",
		"customerState": "Gujarat",
		"customerMobile": "",
		"gross": "1000.50",
		"taxRate": 18,
		"total_Amount": 1181,
		"balanceDue": "500",
		"unknown": true
	}`))
	require.NoError(t, err)

	assert.Equal(t, "INV-007", rec.InvoiceNumber)
	require.NotNil(t, rec.IssueDate)
	assert.Equal(t, civil.Date{Year: 2024, Month: 5, Day: 10}, *rec.IssueDate)
	require.NotNil(t, rec.DueDate)
	assert.Equal(t, civil.Date{Year: 2024, Month: 6, Day: 9}, *rec.DueDate)
	assert.Equal(t, "Acme Traders", rec.PartyName)
	assert.Equal(t, "Gujarat", rec.PartyRegion)
	assert.Nil(t, rec.PartyPhone)
	assert.True(t, rec.UnitPrice.Equal(decimal.RequireFromString("1000.50")))
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(1)))
	require.NotNil(t, rec.TaxRate)
	assert.True(t, rec.TaxRate.Equal(decimal.NewFromInt(18)))
	require.NotNil(t, rec.TotalAmount)
	assert.Equal(t, Money(1181), *rec.TotalAmount)
	require.NotNil(t, rec.BalanceDue)
	assert.Equal(t, Money(500), *rec.BalanceDue)
	assert.Nil(t, rec.PaidAmount)
}

func TestNormalizeLegacyInvoiceCanonicalWins(t *testing.T) {
	rec, err := NormalizeLegacyInvoice([]byte(`{"total": 10, "total_amount": 20, "invoice_number": "INV-001", "invoiceNumber": "INV-999"}`))
	require.NoError(t, err)
	require.NotNil(t, rec.TotalAmount)
	assert.Equal(t, Money(20), *rec.TotalAmount)
	assert.Equal(t, "INV-001", rec.InvoiceNumber)
}

func TestNormalizeLegacyInvoiceErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an object", `[1, 2]`},
		{"bad date", `{"issue_date": "someday"}`},
		{"bad amount", `{"total": "lots"}`},
		{"name not a string", `{"customerName": 42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeLegacyInvoice([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	assert.Equal(t, Money(3), MoneyFromDecimal(decimal.RequireFromString("2.5")))
	assert.Equal(t, Money(2), MoneyFromDecimal(decimal.RequireFromString("2.49")))
	assert.Equal(t, Money(0), MoneyFromDecimal(decimal.RequireFromString("-4")))
	assert.Equal(t, "1180", Money(1180).String())
}

func TestNormalizeLegacyInvoiceStatusAndComponents(t *testing.T) {
	rec, err := NormalizeLegacyInvoice([]byte(`{
		"invoiceNumber": "INV-001",
		"customerState": "Gujarat",
		"gross": 1000,
		"cgst": 90,
		"sgst": "90",
		"igst": 0,
		"paymentStatus": "Partially Paid",
		"paidAmount": 500
	}`))
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, rec.PaymentStatus)
	require.NotNil(t, rec.CGST)
	assert.Equal(t, Money(90), *rec.CGST)
	require.NotNil(t, rec.SGST)
	assert.Equal(t, Money(90), *rec.SGST)
	require.NotNil(t, rec.RecordedTax())
	assert.Equal(t, Money(180), *rec.RecordedTax())
	assert.Nil(t, rec.TaxRate)

	rec, err = NormalizeLegacyInvoice([]byte(`{"taxAmount": 50, "igst": 360, "status": "PAID"}`))
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, rec.PaymentStatus)
	require.NotNil(t, rec.RecordedTax())
	assert.Equal(t, Money(50), *rec.RecordedTax())

	rec, err = NormalizeLegacyInvoice([]byte(`{"gross": 10, "paymentStatus": "settled-ish"}`))
	require.NoError(t, err)
	assert.Equal(t, PaymentStatus(""), rec.PaymentStatus)
	assert.Nil(t, rec.RecordedTax())
}
