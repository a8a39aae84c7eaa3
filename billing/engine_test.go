package billing

import (
	"testing"

	"github.com/satheeshds/invoicing/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, rules TaxRules) *Engine {
	t.Helper()
	engine, err := NewEngine(rules)
	require.NoError(t, err)
	return engine
}

func TestNewEngineRejectsBadRules(t *testing.T) {
	_, err := NewEngine(TaxRules{Mode: "mixed"})
	assert.Error(t, err)
}

func TestNewInvoiceDefaults(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	price := dec("250")
	today := date(2024, 5, 10)

	inv, err := engine.NewInvoice(models.InvoiceInput{PartyName: "Walk-in", UnitPrice: &price}, "INV-004", today)
	require.NoError(t, err)
	assert.Equal(t, "INV-004", inv.InvoiceNumber)
	assert.Equal(t, today, inv.IssueDate)
	assert.True(t, inv.Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, DueOnReceipt, inv.Term)
	assert.Equal(t, models.Money(250), inv.TotalAmount)
	assert.Equal(t, inv.TotalAmount, inv.BalanceDue)
	assert.Equal(t, models.StatusDue, inv.PaymentStatus)
}

func TestNewInvoiceZeroTotalIsPaid(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	price := dec("0")
	inv, err := engine.NewInvoice(models.InvoiceInput{PartyName: "Sample", UnitPrice: &price}, "INV-001", date(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, models.Money(0), inv.BalanceDue)
	assert.Equal(t, models.StatusPaid, inv.PaymentStatus)
}

func TestNewInvoiceRejectsUnknownRate(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	price, rate := dec("100"), dec("7")
	_, err := engine.NewInvoice(models.InvoiceInput{PartyName: "x", UnitPrice: &price, TaxRate: &rate}, "INV-001", date(2024, 1, 1))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tax_rate", vErr.Field)
}

func TestNewInvoiceJurisdictionRecordsEffectiveRate(t *testing.T) {
	engine := newEngine(t, TaxRules{Mode: TaxModeJurisdiction, HomeRegion: "Gujarat", CombinedRate: dec("18")})
	price := dec("1000")
	inv, err := engine.NewInvoice(models.InvoiceInput{PartyName: "x", PartyRegion: "Gujarat", UnitPrice: &price}, "INV-001", date(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, inv.TaxRate.Equal(dec("18")))
	assert.Len(t, inv.TaxLines, 2)
	assert.Equal(t, models.Money(1180), inv.TotalAmount)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	inv := scenarioA(t)

	next, changed, err := engine.Recompute(inv, inv)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, inv, next)

	again, changed, err := engine.Recompute(next, next)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, next, again)
}

func TestRecomputeIgnoresStaleDerivedFields(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	inv := scenarioA(t)

	edited := inv
	edited.TotalAmount = 1
	edited.Term = "hand edited"
	edited.TaxAmount = 99

	next, changed, err := engine.Recompute(inv, edited)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, inv, next)
}

func TestRecomputeWritesOnlyChangedFields(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	inv := scenarioA(t)

	patch := models.InvoicePatch{DueDate: datePtr(2024, 2, 15)}
	next, changed, err := engine.Recompute(inv, patch.Apply(inv))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"due_date", "term"}, changed)
	assert.Equal(t, "45 days", next.Term)
	assert.Equal(t, inv.TotalAmount, next.TotalAmount)

	_, changed, err = engine.Recompute(next, next)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestRecomputeToleratesDecimalNoise(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	inv := scenarioA(t)

	edited := inv
	edited.Quantity = dec("2.0000000001")
	next, changed, err := engine.Recompute(inv, edited)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.True(t, next.Quantity.Equal(dec("2")))
}

func TestRecomputeResetsBalanceBeforePayment(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	inv := scenarioA(t)

	price := dec("500")
	patch := models.InvoicePatch{UnitPrice: &price}
	next, changed, err := engine.Recompute(inv, patch.Apply(inv))
	require.NoError(t, err)
	assert.Contains(t, changed, "total_amount")
	assert.Contains(t, changed, "balance_due")
	assert.Equal(t, models.Money(1180), next.TotalAmount)
	assert.Equal(t, models.Money(1180), next.BalanceDue)
	assert.Equal(t, models.StatusDue, next.PaymentStatus)
}

func TestRecomputeLocksLineItemAfterPayment(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	inv, err := ApplyPayment(scenarioA(t), 1000)
	require.NoError(t, err)

	price := dec("500")
	patch := models.InvoicePatch{UnitPrice: &price}
	got, changed, err := engine.Recompute(inv, patch.Apply(inv))
	assert.ErrorIs(t, err, ErrLineItemLocked)
	assert.Nil(t, changed)
	assert.Equal(t, inv, got)

	// Same total, different line.
	price, qty := dec("2000"), dec("1")
	patch = models.InvoicePatch{UnitPrice: &price, Quantity: &qty}
	got, changed, err = engine.Recompute(inv, patch.Apply(inv))
	assert.ErrorIs(t, err, ErrLineItemLocked)
	assert.Nil(t, changed)
	assert.Equal(t, inv, got)

	// A sub-unit price change rounds to the same total but is still an edit.
	price = dec("1000.001")
	patch = models.InvoicePatch{UnitPrice: &price}
	_, _, err = engine.Recompute(inv, patch.Apply(inv))
	assert.ErrorIs(t, err, ErrLineItemLocked)

	region := "Karnataka"
	patch = models.InvoicePatch{PartyRegion: &region}
	_, _, err = engine.Recompute(inv, patch.Apply(inv))
	assert.ErrorIs(t, err, ErrLineItemLocked)

	// Restating the current inputs is not an edit.
	price, qty = dec("1000.0000001"), dec("2")
	patch = models.InvoicePatch{UnitPrice: &price, Quantity: &qty}
	_, changed, err = engine.Recompute(inv, patch.Apply(inv))
	require.NoError(t, err)
	assert.Empty(t, changed)

	// Editing non-financial fields is still allowed.
	name := "Acme Traders Pvt Ltd"
	patch = models.InvoicePatch{PartyName: &name}
	next, changed, err := engine.Recompute(inv, patch.Apply(inv))
	require.NoError(t, err)
	assert.Equal(t, []string{"party_name"}, changed)
	assert.Equal(t, models.Money(1360), next.BalanceDue)
}

func TestReprice(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	inv, err := ApplyPayment(scenarioA(t), 1000)
	require.NoError(t, err)

	price := dec("1500")
	patch := models.InvoicePatch{UnitPrice: &price}
	next, changed, err := engine.Reprice(inv, patch.Apply(inv))
	require.NoError(t, err)
	assert.Contains(t, changed, "balance_due")
	assert.Equal(t, models.Money(3540), next.TotalAmount)
	assert.Equal(t, models.Money(2540), next.BalanceDue)
	assert.Equal(t, models.Money(1000), next.Paid())
	assert.Equal(t, models.StatusPartiallyPaid, next.PaymentStatus)

	price = dec("100")
	patch = models.InvoicePatch{UnitPrice: &price}
	got, _, err := engine.Reprice(inv, patch.Apply(inv))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, inv, got)
}

func TestRepriceToExactlyPaidSettles(t *testing.T) {
	engine := newEngine(t, DefaultTaxRules())
	inv, err := ApplyPayment(scenarioA(t), 1180)
	require.NoError(t, err)

	price := dec("500")
	patch := models.InvoicePatch{UnitPrice: &price}
	next, _, err := engine.Reprice(inv, patch.Apply(inv))
	require.NoError(t, err)
	assert.Equal(t, models.Money(0), next.BalanceDue)
	assert.Equal(t, models.StatusPaid, next.PaymentStatus)
}
