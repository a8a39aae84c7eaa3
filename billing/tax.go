package billing

import (
	"fmt"
	"strings"

	"github.com/satheeshds/invoicing/models"
	"github.com/shopspring/decimal"
)

// TaxMode selects which tax rule a deployment applies.
type TaxMode string

const (
	// TaxModeFlat applies the invoice's own tax rate as a single GST component.
	TaxModeFlat TaxMode = "flat"

	// TaxModeJurisdiction derives the rate from the party's region: the home region is
	// split into CGST and SGST, any other region pays IGST, no region pays nothing.
	TaxModeJurisdiction TaxMode = "jurisdiction"
)

// AllowedTaxRates are the percentages accepted in flat mode.
var AllowedTaxRates = []decimal.Decimal{
	decimal.NewFromInt(0),
	decimal.NewFromInt(5),
	decimal.NewFromInt(12),
	decimal.NewFromInt(18),
	decimal.NewFromInt(28),
}

const (
	TaxGST  = "GST"
	TaxCGST = "CGST"
	TaxSGST = "SGST"
	TaxIGST = "IGST"
)

// TaxRules is the deployment's tax configuration.
type TaxRules struct {
	Mode         TaxMode
	HomeRegion   string
	CombinedRate decimal.Decimal // percent, jurisdiction mode only
}

// DefaultTaxRules returns flat-mode rules. Switching to jurisdiction mode uses
// Gujarat as the home region at 18%.
func DefaultTaxRules() TaxRules {
	return TaxRules{
		Mode:         TaxModeFlat,
		HomeRegion:   "Gujarat",
		CombinedRate: decimal.NewFromInt(18),
	}
}

// Validate checks the rules themselves, not an invoice.
func (r TaxRules) Validate() error {
	switch r.Mode {
	case TaxModeFlat:
	case TaxModeJurisdiction:
		if strings.TrimSpace(r.HomeRegion) == "" {
			return fmt.Errorf("jurisdiction tax mode requires a home region")
		}
		if r.CombinedRate.IsNegative() {
			return fmt.Errorf("combined tax rate must be non-negative, got %s", r.CombinedRate)
		}
	default:
		return fmt.Errorf("unknown tax mode %q", r.Mode)
	}
	return nil
}

// CheckRate validates a user-supplied rate. Jurisdiction mode ignores the rate.
func (r TaxRules) CheckRate(rate decimal.Decimal) error {
	if r.Mode != TaxModeFlat {
		return nil
	}
	for _, allowed := range AllowedTaxRates {
		if rate.Equal(allowed) {
			return nil
		}
	}
	return NewValidationError("tax_rate", fmt.Sprintf("%s is not one of 0, 5, 12, 18, 28", rate))
}

// InferRate returns the allowed rate whose tax on subtotal comes closest to tax. It
// recovers the rate of records that stored only the tax amounts.
func InferRate(subtotal, tax models.Money) decimal.Decimal {
	best, bestDiff := decimal.Zero, models.Money(-1)
	for _, rate := range AllowedTaxRates {
		diff := percentOf(subtotal, rate) - tax
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = rate, diff
		}
	}
	return best
}

// LineItem holds the raw inputs of the single invoice line.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	TaxRate   decimal.Decimal
	Region    string
}

// LineItemOf extracts the tax inputs from an invoice.
func LineItemOf(inv *models.Invoice) LineItem {
	return LineItem{
		UnitPrice: inv.UnitPrice,
		Quantity:  inv.Quantity,
		TaxRate:   inv.TaxRate,
		Region:    inv.PartyRegion,
	}
}

// TaxBreakdown is the output of Compute.
type TaxBreakdown struct {
	Subtotal    models.Money
	TaxAmount   models.Money
	TotalAmount models.Money
	Rate        decimal.Decimal // effective combined percentage
	Lines       []models.TaxLine
}

// Compute derives subtotal, tax and total for item. It never fails: negative inputs
// count as zero and every component is rounded half-up to whole units.
func (r TaxRules) Compute(item LineItem) TaxBreakdown {
	price := nonNegative(item.UnitPrice)
	qty := nonNegative(item.Quantity)
	subtotal := models.MoneyFromDecimal(price.Mul(qty))

	var lines []models.TaxLine
	switch r.Mode {
	case TaxModeJurisdiction:
		lines = r.jurisdictionLines(subtotal, item.Region)
	default:
		lines = flatLines(subtotal, nonNegative(item.TaxRate))
	}

	out := TaxBreakdown{
		Subtotal: subtotal,
		Rate:     decimal.Zero,
		Lines:    lines,
	}
	for _, l := range lines {
		out.TaxAmount += l.Amount
		out.Rate = out.Rate.Add(l.Rate)
	}
	out.TotalAmount = out.Subtotal + out.TaxAmount
	return out
}

func (r TaxRules) jurisdictionLines(subtotal models.Money, region string) []models.TaxLine {
	region = strings.TrimSpace(region)
	if region == "" || r.CombinedRate.IsZero() {
		return nil
	}
	if strings.EqualFold(region, strings.TrimSpace(r.HomeRegion)) {
		half := r.CombinedRate.Div(decimal.NewFromInt(2))
		share := percentOf(subtotal, half)
		return []models.TaxLine{
			{Name: TaxCGST, Rate: half, Amount: share},
			{Name: TaxSGST, Rate: half, Amount: share},
		}
	}
	return []models.TaxLine{
		{Name: TaxIGST, Rate: r.CombinedRate, Amount: percentOf(subtotal, r.CombinedRate)},
	}
}

func flatLines(subtotal models.Money, rate decimal.Decimal) []models.TaxLine {
	if rate.IsZero() {
		return nil
	}
	return []models.TaxLine{{Name: TaxGST, Rate: rate, Amount: percentOf(subtotal, rate)}}
}

func percentOf(amount models.Money, rate decimal.Decimal) models.Money {
	return models.MoneyFromDecimal(amount.Decimal().Mul(rate).Shift(-2))
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
