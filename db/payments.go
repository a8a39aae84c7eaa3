package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

const paymentColumns = `id, invoice_id, kind, amount, balance_after, reference, created_at`

func scanPayment(scanner interface{ Scan(...any) error }) (models.Payment, error) {
	var p models.Payment
	err := scanner.Scan(&p.ID, &p.InvoiceID, &p.Kind, &p.Amount, &p.BalanceAfter, &p.Reference, &p.CreatedAt)
	return p, err
}

// RecordPayment stores the reconciled invoice and appends the ledger row in one
// transaction. Either both are written or neither is.
func (s *Store) RecordPayment(ctx context.Context, inv models.Invoice, expectedVersion int64, payment models.Payment) (models.Invoice, models.Payment, error) {
	var updated models.Invoice
	var recorded models.Payment

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = updateInvoice(ctx, tx, inv, expectedVersion)
		if err != nil {
			return s.explainMissedUpdate(ctx, tx, err, inv.ID, expectedVersion)
		}
		recorded, err = scanPayment(tx.QueryRow(ctx, `INSERT INTO invoice_payments (invoice_id, kind, amount, balance_after, reference)
			VALUES ($1, $2, $3, $4, $5) RETURNING `+paymentColumns,
			inv.ID, payment.Kind, payment.Amount, updated.BalanceDue, payment.Reference))
		if err != nil {
			return billing.WrapTransportError("record payment", err)
		}
		return nil
	})
	if err != nil {
		return models.Invoice{}, models.Payment{}, billing.WrapTransportError("record payment", err)
	}
	return updated, recorded, nil
}

// ListPayments returns the ledger of an invoice, oldest first.
func (s *Store) ListPayments(ctx context.Context, invoiceID int64) ([]models.Payment, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+paymentColumns+` FROM invoice_payments
		WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, billing.WrapTransportError("list payments", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, billing.WrapTransportError("list payments", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, billing.WrapTransportError("list payments", err)
	}
	return payments, nil
}
