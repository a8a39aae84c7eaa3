package billing

import "github.com/satheeshds/invoicing/models"

// ApplyPayment returns a copy of inv with amount taken off the balance. Overpayment is
// rejected rather than clamped so the caller can report the exact excess. On error the
// returned invoice is inv unchanged.
func ApplyPayment(inv models.Invoice, amount models.Money) (models.Invoice, error) {
	if amount <= 0 {
		return inv, NewValidationError("amount", "must be positive")
	}
	if amount > inv.BalanceDue {
		return inv, &ExcessPaymentError{Amount: amount, BalanceDue: inv.BalanceDue}
	}
	inv.BalanceDue -= amount
	inv.PaymentStatus = SettlementStatus(inv.BalanceDue, inv.TotalAmount)
	return inv, nil
}

// MarkFullyPaid returns a copy of inv with nothing left to pay, and the amount settled.
func MarkFullyPaid(inv models.Invoice) (models.Invoice, models.Money) {
	settled := inv.BalanceDue
	if settled < 0 {
		settled = 0
	}
	inv.BalanceDue = 0
	inv.PaymentStatus = models.StatusPaid
	return inv, settled
}
