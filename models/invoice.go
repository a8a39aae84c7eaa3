package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the canonical settlement state of an invoice.
type PaymentStatus string

const (
	StatusDue           PaymentStatus = "Due"
	StatusPartiallyPaid PaymentStatus = "PartiallyPaid"
	StatusPaid          PaymentStatus = "Paid"
	StatusOverdue       PaymentStatus = "Overdue"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusDue, StatusPartiallyPaid, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// TaxLine is one component of an invoice's tax amount.
type TaxLine struct {
	Name   string          `json:"name"` // GST, CGST, SGST, IGST
	Rate   decimal.Decimal `json:"rate"`
	Amount Money           `json:"amount"`
}

// Invoice represents a receivable invoice to a customer.
type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     civil.Date      `json:"issue_date"`
	DueDate       *civil.Date     `json:"due_date"`
	Term          string          `json:"term"`
	PartyName     string          `json:"party_name"`
	PartyEmail    *string         `json:"party_email"`
	PartyPhone    *string         `json:"party_phone"`
	PartyRegion   string          `json:"party_region"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      decimal.Decimal `json:"quantity"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	TaxLines      []TaxLine       `json:"tax_lines"`
	Subtotal      Money           `json:"subtotal"`
	TaxAmount     Money           `json:"tax_amount"`
	TotalAmount   Money           `json:"total_amount"`
	BalanceDue    Money           `json:"balance_due"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Notes         *string         `json:"notes"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	// Computed fields
	PaidAmount Money `json:"paid_amount"`
}

// Paid returns the amount collected so far. It is always derived from the balance.
func (i *Invoice) Paid() Money {
	return i.TotalAmount - i.BalanceDue
}

// HasPayments reports whether any money has been recorded against the invoice.
func (i *Invoice) HasPayments() bool {
	return i.BalanceDue < i.TotalAmount
}

// InvoiceInput is used for creating invoices.
type InvoiceInput struct {
	IssueDate   *civil.Date      `json:"issue_date"`
	DueDate     *civil.Date      `json:"due_date"`
	PartyName   string           `json:"party_name"`
	PartyEmail  *string          `json:"party_email"`
	PartyPhone  *string          `json:"party_phone"`
	PartyRegion string           `json:"party_region"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Quantity    *decimal.Decimal `json:"quantity"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	Notes       *string          `json:"notes"`
}

func (i *InvoiceInput) Validate() string {
	i.PartyName = strings.TrimSpace(i.PartyName)
	if i.PartyName == "" {
		return "party_name is required"
	}
	if i.UnitPrice == nil {
		return "unit_price is required"
	}
	if i.UnitPrice.IsNegative() {
		return "unit_price must be non-negative"
	}
	if i.Quantity == nil {
		one := decimal.NewFromInt(1)
		i.Quantity = &one
	}
	if !i.Quantity.IsPositive() {
		return "quantity must be positive"
	}
	if i.TaxRate != nil && i.TaxRate.IsNegative() {
		return "tax_rate must be non-negative"
	}
	if i.IssueDate != nil && !i.IssueDate.IsValid() {
		return "issue_date is not a valid date"
	}
	if i.DueDate != nil && !i.DueDate.IsValid() {
		return "due_date is not a valid date"
	}
	return ""
}

// InvoicePatch carries a partial update. Nil fields are left unchanged, except that an
// explicit "due_date": null removes the due date.
type InvoicePatch struct {
	IssueDate    *civil.Date      `json:"issue_date"`
	DueDate      *civil.Date      `json:"due_date"`
	ClearDueDate bool             `json:"-"`
	PartyName    *string          `json:"party_name"`
	PartyEmail   *string          `json:"party_email"`
	PartyPhone   *string          `json:"party_phone"`
	PartyRegion  *string          `json:"party_region"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Quantity     *decimal.Decimal `json:"quantity"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	Notes        *string          `json:"notes"`
}

// UnmarshalJSON tells an absent due_date apart from an explicit null.
func (p *InvoicePatch) UnmarshalJSON(data []byte) error {
	type plain InvoicePatch
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["due_date"]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		decoded.ClearDueDate = true
	}
	*p = InvoicePatch(decoded)
	return nil
}

func (p *InvoicePatch) Validate() string {
	if p.PartyName != nil && strings.TrimSpace(*p.PartyName) == "" {
		return "party_name must not be empty"
	}
	if p.UnitPrice != nil && p.UnitPrice.IsNegative() {
		return "unit_price must be non-negative"
	}
	if p.Quantity != nil && !p.Quantity.IsPositive() {
		return "quantity must be positive"
	}
	if p.TaxRate != nil && p.TaxRate.IsNegative() {
		return "tax_rate must be non-negative"
	}
	if p.IssueDate != nil && !p.IssueDate.IsValid() {
		return "issue_date is not a valid date"
	}
	if p.DueDate != nil && !p.DueDate.IsValid() {
		return "due_date is not a valid date"
	}
	return ""
}

// Apply copies the set fields of p onto a copy of inv.
func (p *InvoicePatch) Apply(inv Invoice) Invoice {
	if p.IssueDate != nil {
		inv.IssueDate = *p.IssueDate
	}
	if p.DueDate != nil {
		d := *p.DueDate
		inv.DueDate = &d
	} else if p.ClearDueDate {
		inv.DueDate = nil
	}
	if p.PartyName != nil {
		inv.PartyName = strings.TrimSpace(*p.PartyName)
	}
	if p.PartyEmail != nil {
		inv.PartyEmail = p.PartyEmail
	}
	if p.PartyPhone != nil {
		inv.PartyPhone = p.PartyPhone
	}
	if p.PartyRegion != nil {
		inv.PartyRegion = strings.TrimSpace(*p.PartyRegion)
	}
	if p.UnitPrice != nil {
		inv.UnitPrice = *p.UnitPrice
	}
	if p.Quantity != nil {
		inv.Quantity = *p.Quantity
	}
	if p.TaxRate != nil {
		inv.TaxRate = *p.TaxRate
	}
	if p.Notes != nil {
		inv.Notes = p.Notes
	}
	return inv
}

// InvoiceFilter narrows ListInvoices.
type InvoiceFilter struct {
	Status PaymentStatus
	Search string
	From   *civil.Date
	To     *civil.Date
}
