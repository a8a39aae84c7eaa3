package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

// ImportResult reports the outcome of a legacy import.
type ImportResult struct {
	Imported int             `json:"imported"`
	Failed   []ImportFailure `json:"failed"`
}

// ImportFailure describes one record that could not be imported.
type ImportFailure struct {
	Index         int    `json:"index"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Error         string `json:"error"`
}

// Import reads a JSON array of historical invoice records, whatever naming scheme they
// use, and stores each one. Derived fields are recomputed, with the rate inferred from
// the recorded GST components when the record has no rate. A recorded balance, a Paid
// status or a paid amount is kept so historical payments survive. A bad record is reported and skipped,
// a transport failure aborts the import.
func (s *InvoiceService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return ImportResult{}, billing.NewValidationError("", fmt.Sprintf("import must be a JSON array: %v", err))
	}

	result := ImportResult{Failed: []ImportFailure{}}
	for i, raw := range records {
		number, err := s.importOne(ctx, raw)
		if err == nil {
			result.Imported++
			continue
		}
		if isTransport(err) {
			return result, err
		}
		s.log.Warn().Int("index", i).Str("invoice_number", number).Err(err).Msg("skipping legacy invoice")
		result.Failed = append(result.Failed, ImportFailure{Index: i, InvoiceNumber: number, Error: err.Error()})
	}
	s.log.Info().
		Int("imported", result.Imported).
		Int("failed", len(result.Failed)).
		Msg("legacy import finished")
	return result, nil
}

func (s *InvoiceService) importOne(ctx context.Context, raw json.RawMessage) (string, error) {
	rec, err := models.NormalizeLegacyInvoice(raw)
	if err != nil {
		return "", billing.NewValidationError("", err.Error())
	}

	in := models.InvoiceInput{
		IssueDate:   rec.IssueDate,
		DueDate:     rec.DueDate,
		PartyName:   rec.PartyName,
		PartyEmail:  rec.PartyEmail,
		PartyPhone:  rec.PartyPhone,
		PartyRegion: rec.PartyRegion,
		UnitPrice:   &rec.UnitPrice,
		Quantity:    &rec.Quantity,
		TaxRate:     rec.TaxRate,
		Notes:       rec.Notes,
	}
	if in.TaxRate == nil {
		if tax := rec.RecordedTax(); tax != nil {
			subtotal := s.engine.Rules().Compute(billing.LineItem{UnitPrice: rec.UnitPrice, Quantity: rec.Quantity}).Subtotal
			rate := billing.InferRate(subtotal, *tax)
			in.TaxRate = &rate
		}
	}
	if msg := in.Validate(); msg != "" {
		return rec.InvoiceNumber, billing.NewValidationError("", msg)
	}

	number := rec.InvoiceNumber
	if number == "" {
		if number, err = s.NextNumber(ctx); err != nil {
			return "", err
		}
	}
	inv, err := s.engine.NewInvoice(in, number, s.Today())
	if err != nil {
		return number, err
	}

	if rec.TotalAmount != nil && *rec.TotalAmount != inv.TotalAmount {
		s.log.Warn().
			Str("invoice_number", number).
			Int64("recorded_total", int64(*rec.TotalAmount)).
			Int64("derived_total", int64(inv.TotalAmount)).
			Msg("legacy total differs from derived total, keeping derived")
	}
	switch {
	case rec.BalanceDue != nil:
		inv.BalanceDue = clampMoney(*rec.BalanceDue, inv.TotalAmount)
	case rec.PaymentStatus == models.StatusPaid:
		// Paid records were saved with paidAmount 0.
		inv.BalanceDue = 0
	case rec.PaidAmount != nil:
		inv.BalanceDue = clampMoney(inv.TotalAmount-*rec.PaidAmount, inv.TotalAmount)
	}
	inv.PaymentStatus = billing.SettlementStatus(inv.BalanceDue, inv.TotalAmount)

	if _, err := s.store.CreateInvoice(ctx, inv); err != nil {
		return number, err
	}
	return number, nil
}

func clampMoney(m, limit models.Money) models.Money {
	return min(max(m, 0), limit)
}

func isTransport(err error) bool {
	var transportErr *billing.TransportError
	return errors.As(err, &transportErr)
}
