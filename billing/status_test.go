package billing

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/satheeshds/invoicing/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveStatus(t *testing.T) {
	today := date(2024, 6, 15)
	yesterday := datePtr(2024, 6, 14)
	tomorrow := datePtr(2024, 6, 16)

	tests := []struct {
		name    string
		balance models.Money
		total   models.Money
		due     *civil.Date
		want    models.PaymentStatus
	}{
		{"nothing owed", 0, 2360, yesterday, models.StatusPaid},
		{"negative balance counts as paid", -5, 2360, nil, models.StatusPaid},
		{"past due untouched", 2360, 2360, yesterday, models.StatusOverdue},
		{"scenario F", 500, 2360, yesterday, models.StatusOverdue},
		{"due today is not overdue", 500, 2360, &today, models.StatusPartiallyPaid},
		{"future untouched", 2360, 2360, tomorrow, models.StatusDue},
		{"no due date untouched", 2360, 2360, nil, models.StatusDue},
		{"partial", 1360, 2360, tomorrow, models.StatusPartiallyPaid},
		{"zero total", 0, 0, yesterday, models.StatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStatus(tt.balance, tt.total, tt.due, today))
		})
	}
}

func TestSettlementStatusNeverOverdue(t *testing.T) {
	assert.Equal(t, models.StatusDue, SettlementStatus(100, 100))
	assert.Equal(t, models.StatusPartiallyPaid, SettlementStatus(40, 100))
	assert.Equal(t, models.StatusPaid, SettlementStatus(0, 100))
}

func TestPresentRefreshesStaleStatus(t *testing.T) {
	inv := models.Invoice{
		TotalAmount:   2360,
		BalanceDue:    500,
		DueDate:       datePtr(2024, 6, 14),
		PaymentStatus: models.StatusPartiallyPaid,
	}
	Present(&inv, date(2024, 6, 15))
	assert.Equal(t, models.StatusOverdue, inv.PaymentStatus)
	assert.Equal(t, models.Money(1860), inv.PaidAmount)

	Present(&inv, date(2024, 6, 1))
	assert.Equal(t, models.StatusPartiallyPaid, inv.PaymentStatus)
}
