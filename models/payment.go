package models

import "time"

const (
	PaymentKindPayment    = "payment"
	PaymentKindSettlement = "settlement"
)

// Payment is a ledger row recording money applied to an invoice.
type Payment struct {
	ID           int64     `json:"id"`
	InvoiceID    int64     `json:"invoice_id"`
	Kind         string    `json:"kind"` // payment, settlement
	Amount       Money     `json:"amount"`
	BalanceAfter Money     `json:"balance_after"`
	Reference    *string   `json:"reference"`
	CreatedAt    time.Time `json:"created_at"`
}

// PaymentInput is used for recording a payment against an invoice.
type PaymentInput struct {
	Amount    Money   `json:"amount"`
	Reference *string `json:"reference"`
}

func (p *PaymentInput) Validate() string {
	if p.Amount <= 0 {
		return "amount must be positive"
	}
	return ""
}
