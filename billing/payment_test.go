package billing

import (
	"testing"

	"github.com/satheeshds/invoicing/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioA(t *testing.T) models.Invoice {
	t.Helper()
	engine, err := NewEngine(DefaultTaxRules())
	require.NoError(t, err)
	price, qty, rate := dec("1000"), dec("2"), dec("18")
	inv, err := engine.NewInvoice(models.InvoiceInput{
		PartyName: "Acme Traders",
		IssueDate: datePtr(2024, 1, 1),
		DueDate:   datePtr(2024, 1, 31),
		UnitPrice: &price,
		Quantity:  &qty,
		TaxRate:   &rate,
	}, "INV-001", date(2024, 1, 1))
	require.NoError(t, err)
	return inv
}

func TestPaymentScenarios(t *testing.T) {
	inv := scenarioA(t)
	assert.Equal(t, models.Money(2000), inv.Subtotal)
	assert.Equal(t, models.Money(360), inv.TaxAmount)
	assert.Equal(t, models.Money(2360), inv.TotalAmount)
	assert.Equal(t, models.Money(2360), inv.BalanceDue)
	assert.Equal(t, models.StatusDue, inv.PaymentStatus)

	// Scenario B
	inv, err := ApplyPayment(inv, 1000)
	require.NoError(t, err)
	assert.Equal(t, models.Money(1360), inv.BalanceDue)
	assert.Equal(t, models.StatusPartiallyPaid, inv.PaymentStatus)

	// Scenario C
	inv, err = ApplyPayment(inv, 1360)
	require.NoError(t, err)
	assert.Equal(t, models.Money(0), inv.BalanceDue)
	assert.Equal(t, models.StatusPaid, inv.PaymentStatus)
	assert.Equal(t, models.Money(2360), inv.Paid())
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	inv := scenarioA(t)
	inv, err := ApplyPayment(inv, 1000)
	require.NoError(t, err)

	got, err := ApplyPayment(inv, inv.BalanceDue+1)
	var excess *ExcessPaymentError
	require.ErrorAs(t, err, &excess)
	assert.Equal(t, models.Money(1), excess.Excess())
	assert.Equal(t, models.Money(1360), excess.BalanceDue)
	assert.Equal(t, inv, got)
	assert.Equal(t, models.Money(1360), got.BalanceDue)
}

func TestApplyPaymentRejectsNonPositive(t *testing.T) {
	inv := scenarioA(t)
	for _, amount := range []models.Money{0, -10} {
		got, err := ApplyPayment(inv, amount)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, inv.BalanceDue, got.BalanceDue)
	}
}

func TestApplyPaymentMonotonic(t *testing.T) {
	inv := scenarioA(t)
	previous := inv.BalanceDue
	for _, amount := range []models.Money{1, 500, 999, 3000, 800, 60, 1} {
		next, err := ApplyPayment(inv, amount)
		if err != nil {
			assert.Equal(t, inv, next)
			continue
		}
		assert.LessOrEqual(t, next.BalanceDue, previous)
		assert.GreaterOrEqual(t, next.BalanceDue, models.Money(0))
		assert.Equal(t, next.BalanceDue == 0, next.PaymentStatus == models.StatusPaid)
		previous = next.BalanceDue
		inv = next
	}
	assert.Equal(t, models.Money(0), inv.BalanceDue)
}

func TestMarkFullyPaid(t *testing.T) {
	inv := scenarioA(t)
	inv, err := ApplyPayment(inv, 360)
	require.NoError(t, err)

	paid, settled := MarkFullyPaid(inv)
	assert.Equal(t, models.Money(2000), settled)
	assert.Equal(t, models.Money(0), paid.BalanceDue)
	assert.Equal(t, models.StatusPaid, paid.PaymentStatus)

	again, settled := MarkFullyPaid(paid)
	assert.Equal(t, models.Money(0), settled)
	assert.Equal(t, paid, again)
}
