package billing

import (
	"cloud.google.com/go/civil"
	"github.com/satheeshds/invoicing/models"
)

// ResolveStatus is the single source of truth for an invoice's payment status.
// Rules apply in order: nothing owed is Paid, past due is Overdue, untouched is Due,
// anything else is PartiallyPaid.
func ResolveStatus(balance, total models.Money, due *civil.Date, today civil.Date) models.PaymentStatus {
	if balance <= 0 {
		return models.StatusPaid
	}
	if due != nil && due.Before(today) {
		return models.StatusOverdue
	}
	return SettlementStatus(balance, total)
}

// SettlementStatus is ResolveStatus without the date rule. It is what gets persisted,
// so a stored status never claims Overdue.
func SettlementStatus(balance, total models.Money) models.PaymentStatus {
	switch {
	case balance <= 0:
		return models.StatusPaid
	case balance >= total:
		return models.StatusDue
	default:
		return models.StatusPartiallyPaid
	}
}

// Present refreshes the read-time fields of inv for the given day.
func Present(inv *models.Invoice, today civil.Date) {
	inv.PaymentStatus = ResolveStatus(inv.BalanceDue, inv.TotalAmount, inv.DueDate, today)
	inv.PaidAmount = inv.Paid()
}
