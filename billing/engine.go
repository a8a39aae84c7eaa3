package billing

import (
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/satheeshds/invoicing/models"
	"github.com/shopspring/decimal"
)

// Tolerance is the largest decimal difference treated as no change.
var Tolerance = decimal.New(1, -6)

// Engine derives invoice fields under one set of tax rules.
type Engine struct {
	rules TaxRules
}

// NewEngine validates rules and returns an engine using them.
func NewEngine(rules TaxRules) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Engine{rules: rules}, nil
}

// Rules returns the tax rules the engine applies.
func (e *Engine) Rules() TaxRules {
	return e.rules
}

// NewInvoice builds a fresh invoice from validated input with nothing paid. Its status
// is Due unless the total is zero.
func (e *Engine) NewInvoice(in models.InvoiceInput, number string, today civil.Date) (models.Invoice, error) {
	inv := models.Invoice{
		InvoiceNumber: number,
		IssueDate:     today,
		DueDate:       in.DueDate,
		PartyName:     in.PartyName,
		PartyEmail:    in.PartyEmail,
		PartyPhone:    in.PartyPhone,
		PartyRegion:   in.PartyRegion,
		Quantity:      decimal.NewFromInt(1),
		TaxRate:       decimal.Zero,
		Notes:         in.Notes,
	}
	if in.IssueDate != nil {
		inv.IssueDate = *in.IssueDate
	}
	if in.UnitPrice != nil {
		inv.UnitPrice = *in.UnitPrice
	}
	if in.Quantity != nil {
		inv.Quantity = *in.Quantity
	}
	if in.TaxRate != nil {
		if err := e.rules.CheckRate(*in.TaxRate); err != nil {
			return models.Invoice{}, err
		}
		inv.TaxRate = *in.TaxRate
	}

	inv = e.Derive(inv)
	inv.BalanceDue = inv.TotalAmount
	inv.PaymentStatus = SettlementStatus(inv.BalanceDue, inv.TotalAmount)
	return inv, nil
}

// Derive returns inv with term, tax lines and totals computed from its inputs.
// Balance and status are left alone.
func (e *Engine) Derive(inv models.Invoice) models.Invoice {
	inv.Term = ResolveTerm(inv.IssueDate, inv.DueDate)
	tax := e.rules.Compute(LineItemOf(&inv))
	inv.Subtotal = tax.Subtotal
	inv.TaxAmount = tax.TaxAmount
	inv.TotalAmount = tax.TotalAmount
	inv.TaxLines = tax.Lines
	if e.rules.Mode == TaxModeJurisdiction {
		inv.TaxRate = tax.Rate
	}
	return inv
}

// Recompute makes one derivation pass over edited, the caller's copy of current with new
// inputs applied, and returns the record to persist together with the fields that
// changed. Derived fields of edited are ignored, so running Recompute on its own output
// reports no changes. Once an invoice has payments any edit to its line item fails with
// ErrLineItemLocked and leaves current as it was, even when the totals would not move.
func (e *Engine) Recompute(current, edited models.Invoice) (models.Invoice, []string, error) {
	if current.HasPayments() && lineItemChanged(LineItemOf(&current), LineItemOf(&edited)) {
		return current, nil, ErrLineItemLocked
	}
	if !edited.TaxRate.Equal(current.TaxRate) {
		if err := e.rules.CheckRate(edited.TaxRate); err != nil {
			return current, nil, err
		}
	}

	candidate := e.Derive(edited)
	candidate.BalanceDue = current.BalanceDue
	if totalsChanged(current, candidate) {
		if current.HasPayments() {
			return current, nil, ErrLineItemLocked
		}
		candidate.BalanceDue = candidate.TotalAmount
	}
	candidate.PaymentStatus = SettlementStatus(candidate.BalanceDue, candidate.TotalAmount)

	next, changed := merge(current, candidate)
	return next, changed, nil
}

// Reprice re-derives an invoice that may already have payments, keeping the amount paid
// and moving the balance to the new total minus that amount. It is the explicit
// reconciliation for line-item edits that Recompute refuses.
func (e *Engine) Reprice(current, edited models.Invoice) (models.Invoice, []string, error) {
	if !edited.TaxRate.Equal(current.TaxRate) {
		if err := e.rules.CheckRate(edited.TaxRate); err != nil {
			return current, nil, err
		}
	}

	candidate := e.Derive(edited)
	paid := current.Paid()
	if candidate.TotalAmount < paid {
		return current, nil, NewValidationError("unit_price",
			fmt.Sprintf("new total %d is below the %d already paid", candidate.TotalAmount, paid))
	}
	candidate.BalanceDue = candidate.TotalAmount - paid
	candidate.PaymentStatus = SettlementStatus(candidate.BalanceDue, candidate.TotalAmount)

	next, changed := merge(current, candidate)
	return next, changed, nil
}

// lineItemChanged compares the raw line inputs. Decimals match within Tolerance and the
// region must match exactly.
func lineItemChanged(a, b LineItem) bool {
	return !decimalClose(a.UnitPrice, b.UnitPrice) ||
		!decimalClose(a.Quantity, b.Quantity) ||
		!decimalClose(a.TaxRate, b.TaxRate) ||
		a.Region != b.Region
}

func totalsChanged(a, b models.Invoice) bool {
	return a.Subtotal != b.Subtotal ||
		a.TaxAmount != b.TaxAmount ||
		a.TotalAmount != b.TotalAmount ||
		!taxLinesEqual(a.TaxLines, b.TaxLines)
}

// merge starts from current and copies over each field of candidate that differs
// beyond Tolerance.
func merge(current, candidate models.Invoice) (models.Invoice, []string) {
	next := current
	var changed []string
	set := func(field string, differs bool, apply func()) {
		if differs {
			apply()
			changed = append(changed, field)
		}
	}

	set("issue_date", current.IssueDate != candidate.IssueDate, func() { next.IssueDate = candidate.IssueDate })
	set("due_date", !sameDate(current.DueDate, candidate.DueDate), func() { next.DueDate = candidate.DueDate })
	set("term", current.Term != candidate.Term, func() { next.Term = candidate.Term })
	set("party_name", current.PartyName != candidate.PartyName, func() { next.PartyName = candidate.PartyName })
	set("party_email", !sameString(current.PartyEmail, candidate.PartyEmail), func() { next.PartyEmail = candidate.PartyEmail })
	set("party_phone", !sameString(current.PartyPhone, candidate.PartyPhone), func() { next.PartyPhone = candidate.PartyPhone })
	set("party_region", current.PartyRegion != candidate.PartyRegion, func() { next.PartyRegion = candidate.PartyRegion })
	set("unit_price", !decimalClose(current.UnitPrice, candidate.UnitPrice), func() { next.UnitPrice = candidate.UnitPrice })
	set("quantity", !decimalClose(current.Quantity, candidate.Quantity), func() { next.Quantity = candidate.Quantity })
	set("tax_rate", !decimalClose(current.TaxRate, candidate.TaxRate), func() { next.TaxRate = candidate.TaxRate })
	set("tax_lines", !taxLinesEqual(current.TaxLines, candidate.TaxLines), func() { next.TaxLines = candidate.TaxLines })
	set("subtotal", current.Subtotal != candidate.Subtotal, func() { next.Subtotal = candidate.Subtotal })
	set("tax_amount", current.TaxAmount != candidate.TaxAmount, func() { next.TaxAmount = candidate.TaxAmount })
	set("total_amount", current.TotalAmount != candidate.TotalAmount, func() { next.TotalAmount = candidate.TotalAmount })
	set("balance_due", current.BalanceDue != candidate.BalanceDue, func() { next.BalanceDue = candidate.BalanceDue })
	set("payment_status", current.PaymentStatus != candidate.PaymentStatus, func() { next.PaymentStatus = candidate.PaymentStatus })
	set("notes", !sameString(current.Notes, candidate.Notes), func() { next.Notes = candidate.Notes })

	return next, changed
}

func taxLinesEqual(a, b []models.TaxLine) bool {
	return slices.EqualFunc(a, b, func(x, y models.TaxLine) bool {
		return x.Name == y.Name && x.Amount == y.Amount && decimalClose(x.Rate, y.Rate)
	})
}

func decimalClose(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

func sameDate(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
