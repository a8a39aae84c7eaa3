package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// legacyFieldNames maps every key historical records used to the canonical field name.
// Canonical names map to themselves so a record may mix both schemes.
var legacyFieldNames = map[string]string{
	"invoice_number": "invoice_number",
	"invoiceNumber":  "invoice_number",
	"issue_date":     "issue_date",
	"invoiceDate":    "issue_date",
	"issueDate":      "issue_date",
	"due_date":       "due_date",
	"dueDate":        "due_date",
	"party_name":     "party_name",
	"customerName":   "party_name",
	"party_email":    "party_email",
	"customerEmail":  "party_email",
	"party_phone":    "party_phone",
	"customerMobile": "party_phone",
	"party_region":   "party_region",
	"customerState":  "party_region",
	"unit_price":     "unit_price",
	"unitPrice":      "unit_price",
	"gross":          "unit_price",
	"quantity":       "quantity",
	"tax_rate":       "tax_rate",
	"taxRate":        "tax_rate",
	"total_amount":   "total_amount",
	"totalAmount":    "total_amount",
	"total_Amount":   "total_amount",
	"total":          "total_amount",
	"balance_due":    "balance_due",
	"balanceDue":     "balance_due",
	"paid_amount":    "paid_amount",
	"paidAmount":     "paid_amount",
	"payment_status": "payment_status",
	"paymentStatus":  "payment_status",
	"status":         "payment_status",
	"tax_amount":     "tax_amount",
	"taxAmount":      "tax_amount",
	"cgst":           "cgst",
	"CGST":           "cgst",
	"sgst":           "sgst",
	"SGST":           "sgst",
	"igst":           "igst",
	"IGST":           "igst",
	"notes":          "notes",
}

// legacyDateLayouts are tried in order when reading historical dates.
var legacyDateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
}

// LegacyInvoice is a historical invoice record normalized to canonical fields.
// Amount fields are nil when the record did not carry them. PaymentStatus is empty
// when the record had none or an unknown one.
type LegacyInvoice struct {
	InvoiceNumber string
	IssueDate     *civil.Date
	DueDate       *civil.Date
	PartyName     string
	PartyEmail    *string
	PartyPhone    *string
	PartyRegion   string
	UnitPrice     decimal.Decimal
	Quantity      decimal.Decimal
	TaxRate       *decimal.Decimal
	TotalAmount   *Money
	BalanceDue    *Money
	PaidAmount    *Money
	TaxAmount     *Money
	CGST          *Money
	SGST          *Money
	IGST          *Money
	PaymentStatus PaymentStatus
	Notes         *string
}

// RecordedTax is the tax the record claims: its tax amount, else the sum of whichever
// GST components it carries. Nil when it carries neither.
func (r LegacyInvoice) RecordedTax() *Money {
	if r.TaxAmount != nil {
		return r.TaxAmount
	}
	var sum Money
	found := false
	for _, c := range []*Money{r.CGST, r.SGST, r.IGST} {
		if c != nil {
			sum += *c
			found = true
		}
	}
	if !found {
		return nil
	}
	return &sum
}

// NormalizeLegacyInvoice decodes a JSON object written under any historical naming
// scheme. When a canonical key and an alias are both present the canonical key wins.
func NormalizeLegacyInvoice(data []byte) (LegacyInvoice, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return LegacyInvoice{}, fmt.Errorf("decoding legacy invoice: %w", err)
	}

	fields := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		canonical, ok := legacyFieldNames[key]
		if !ok {
			continue
		}
		if _, seen := fields[canonical]; seen && key != canonical {
			continue
		}
		fields[canonical] = value
	}

	var rec LegacyInvoice
	var err error
	if rec.InvoiceNumber, err = legacyString(fields, "invoice_number"); err != nil {
		return rec, err
	}
	if rec.PartyName, err = legacyString(fields, "party_name"); err != nil {
		return rec, err
	}
	if rec.PartyRegion, err = legacyString(fields, "party_region"); err != nil {
		return rec, err
	}
	if rec.PartyEmail, err = legacyOptionalString(fields, "party_email"); err != nil {
		return rec, err
	}
	if rec.PartyPhone, err = legacyOptionalString(fields, "party_phone"); err != nil {
		return rec, err
	}
	if rec.Notes, err = legacyOptionalString(fields, "notes"); err != nil {
		return rec, err
	}
	if rec.IssueDate, err = legacyDate(fields, "issue_date"); err != nil {
		return rec, err
	}
	if rec.DueDate, err = legacyDate(fields, "due_date"); err != nil {
		return rec, err
	}

	price, err := legacyDecimal(fields, "unit_price")
	if err != nil {
		return rec, err
	}
	if price != nil {
		rec.UnitPrice = *price
	}
	rec.Quantity = decimal.NewFromInt(1)
	qty, err := legacyDecimal(fields, "quantity")
	if err != nil {
		return rec, err
	}
	if qty != nil && qty.IsPositive() {
		rec.Quantity = *qty
	}
	if rec.TaxRate, err = legacyDecimal(fields, "tax_rate"); err != nil {
		return rec, err
	}
	if rec.TotalAmount, err = legacyMoney(fields, "total_amount"); err != nil {
		return rec, err
	}
	if rec.BalanceDue, err = legacyMoney(fields, "balance_due"); err != nil {
		return rec, err
	}
	if rec.PaidAmount, err = legacyMoney(fields, "paid_amount"); err != nil {
		return rec, err
	}
	for _, m := range []struct {
		key    string
		target **Money
	}{{"tax_amount", &rec.TaxAmount}, {"cgst", &rec.CGST}, {"sgst", &rec.SGST}, {"igst", &rec.IGST}} {
		if *m.target, err = legacyMoney(fields, m.key); err != nil {
			return rec, err
		}
	}
	status, err := legacyOptionalString(fields, "payment_status")
	if err != nil {
		return rec, err
	}
	if status != nil {
		rec.PaymentStatus = legacyStatus(*status)
	}
	return rec, nil
}

// legacyStatus accepts the stored spellings ("PartiallyPaid", "Partially Paid",
// "partial", ...) and returns "" for anything unrecognised.
func legacyStatus(s string) PaymentStatus {
	switch strings.ToLower(strings.ReplaceAll(s, " ", "")) {
	case "due", "unpaid":
		return StatusDue
	case "partiallypaid", "partial":
		return StatusPartiallyPaid
	case "paid":
		return StatusPaid
	case "overdue":
		return StatusOverdue
	}
	return ""
}

func legacyString(fields map[string]json.RawMessage, key string) (string, error) {
	s, err := legacyOptionalString(fields, key)
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

func legacyOptionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	value, ok := fields[key]
	if !ok || string(value) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("field %s: %w", key, err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

func legacyDate(fields map[string]json.RawMessage, key string) (*civil.Date, error) {
	s, err := legacyOptionalString(fields, key)
	if err != nil || s == nil {
		return nil, err
	}
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			d := civil.DateOf(t)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("field %s: unrecognised date %q", key, *s)
}

// legacyDecimal accepts both JSON numbers and numeric strings.
func legacyDecimal(fields map[string]json.RawMessage, key string) (*decimal.Decimal, error) {
	value, ok := fields[key]
	if !ok || string(value) == "null" || string(value) == `""` {
		return nil, nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(value); err != nil {
		return nil, fmt.Errorf("field %s: %w", key, err)
	}
	return &d, nil
}

func legacyMoney(fields map[string]json.RawMessage, key string) (*Money, error) {
	d, err := legacyDecimal(fields, key)
	if err != nil || d == nil {
		return nil, err
	}
	m := MoneyFromDecimal(*d)
	return &m, nil
}
