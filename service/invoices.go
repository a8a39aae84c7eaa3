package service

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/report"
)

// InvoiceStore is the persistence contract required by the invoice service.
type InvoiceStore interface {
	LatestInvoice(ctx context.Context) (*models.Invoice, error)
	HighestInvoiceNumber(ctx context.Context) (string, error)
	GetInvoice(ctx context.Context, id int64) (models.Invoice, error)
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error)
	CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error)
	UpdateInvoice(ctx context.Context, inv models.Invoice, expectedVersion int64) (models.Invoice, error)
	RecordPayment(ctx context.Context, inv models.Invoice, expectedVersion int64, payment models.Payment) (models.Invoice, models.Payment, error)
	DeleteInvoice(ctx context.Context, id int64) error
	ListPayments(ctx context.Context, invoiceID int64) ([]models.Payment, error)
}

// Reporter computes dashboard figures and exports over a set of invoices.
type Reporter interface {
	Summarize(ctx context.Context, invoices []models.Invoice, members int) (report.Summary, error)
	Export(ctx context.Context, invoices []models.Invoice, format report.Format, path string) error
}

// InvoiceService orchestrates the billing engine and delegates persistence to the store.
type InvoiceService struct {
	store    InvoiceStore
	members  MemberCounter
	reporter Reporter
	engine   *billing.Engine
	loc      *time.Location
	nowFn    func() time.Time
	log      zerolog.Logger
}

// MemberCounter reports how many members exist, for the dashboard.
type MemberCounter interface {
	CountMembers(ctx context.Context) (int, error)
}

// NewInvoiceService constructs an InvoiceService. Dates are resolved in loc; a nil loc
// means UTC.
func NewInvoiceService(store InvoiceStore, members MemberCounter, reporter Reporter, engine *billing.Engine, loc *time.Location, log zerolog.Logger) *InvoiceService {
	if loc == nil {
		loc = time.UTC
	}
	return &InvoiceService{
		store:    store,
		members:  members,
		reporter: reporter,
		engine:   engine,
		loc:      loc,
		nowFn:    time.Now,
		log:      log,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *InvoiceService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Today is the current calendar date in the service's location.
func (s *InvoiceService) Today() civil.Date {
	return civil.DateOf(s.nowFn().In(s.loc))
}

// NextNumber returns the identifier the next created invoice will get. The sequence
// continues from the highest INV-NNN number stored, so imported records carrying older
// or foreign numbers never rewind it.
func (s *InvoiceService) NextNumber(ctx context.Context) (string, error) {
	last, err := s.store.HighestInvoiceNumber(ctx)
	if err != nil {
		return "", err
	}
	next, err := billing.NextInvoiceNumber(last)
	if err != nil {
		var parseErr *billing.SequenceParseError
		if !errors.As(err, &parseErr) {
			return "", err
		}
		s.log.Warn().
			Str("last_invoice_number", last).
			Str("fallback", next).
			Err(err).
			Msg("unparseable invoice number, restarting sequence")
	}
	return next, nil
}

// Latest returns the most recently created invoice, or nil when there is none.
func (s *InvoiceService) Latest(ctx context.Context) (*models.Invoice, error) {
	inv, err := s.store.LatestInvoice(ctx)
	if err != nil || inv == nil {
		return nil, err
	}
	billing.Present(inv, s.Today())
	return inv, nil
}

// Create validates in, assigns the next invoice number and persists the derived invoice.
func (s *InvoiceService) Create(ctx context.Context, in models.InvoiceInput) (models.Invoice, error) {
	if msg := in.Validate(); msg != "" {
		return models.Invoice{}, billing.NewValidationError("", msg)
	}
	number, err := s.NextNumber(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	inv, err := s.engine.NewInvoice(in, number, s.Today())
	if err != nil {
		return models.Invoice{}, err
	}
	created, err := s.store.CreateInvoice(ctx, inv)
	if err != nil {
		return models.Invoice{}, err
	}
	s.log.Info().
		Int64("invoice_id", created.ID).
		Str("invoice_number", created.InvoiceNumber).
		Int64("total_amount", int64(created.TotalAmount)).
		Msg("invoice created")
	billing.Present(&created, s.Today())
	return created, nil
}

// Get returns an invoice with its status resolved for today.
func (s *InvoiceService) Get(ctx context.Context, id int64) (models.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return models.Invoice{}, err
	}
	billing.Present(&inv, s.Today())
	return inv, nil
}

// List returns invoices matching filter. Status is resolved before filtering so that
// asking for Overdue finds invoices whose stored status still says Due.
func (s *InvoiceService) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, billing.NewValidationError("status", "must be one of: Due, PartiallyPaid, Paid, Overdue")
	}
	invoices, err := s.store.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	out := invoices[:0]
	for _, inv := range invoices {
		billing.Present(&inv, today)
		if filter.Status == "" || inv.PaymentStatus == filter.Status {
			out = append(out, inv)
		}
	}
	return out, nil
}

// Update applies patch through the recompute guard. expectedVersion of 0 means the
// caller did not supply one and the version just read is used.
func (s *InvoiceService) Update(ctx context.Context, id int64, patch models.InvoicePatch, expectedVersion int64) (models.Invoice, []string, error) {
	if msg := patch.Validate(); msg != "" {
		return models.Invoice{}, nil, billing.NewValidationError("", msg)
	}
	current, err := s.load(ctx, id, expectedVersion)
	if err != nil {
		return models.Invoice{}, nil, err
	}

	next, changed, err := s.engine.Recompute(current, patch.Apply(current))
	if err != nil {
		return models.Invoice{}, nil, err
	}
	if len(changed) == 0 {
		billing.Present(&current, s.Today())
		return current, nil, nil
	}

	updated, err := s.store.UpdateInvoice(ctx, next, current.Version)
	if err != nil {
		return models.Invoice{}, nil, err
	}
	s.log.Info().
		Int64("invoice_id", id).
		Strs("changed", changed).
		Int64("version", updated.Version).
		Msg("invoice updated")
	billing.Present(&updated, s.Today())
	return updated, changed, nil
}

// Reprice re-derives the totals of an invoice that already has payments, keeping what
// was paid.
func (s *InvoiceService) Reprice(ctx context.Context, id int64, patch models.InvoicePatch, expectedVersion int64) (models.Invoice, []string, error) {
	if msg := patch.Validate(); msg != "" {
		return models.Invoice{}, nil, billing.NewValidationError("", msg)
	}
	current, err := s.load(ctx, id, expectedVersion)
	if err != nil {
		return models.Invoice{}, nil, err
	}

	next, changed, err := s.engine.Reprice(current, patch.Apply(current))
	if err != nil {
		return models.Invoice{}, nil, err
	}
	if len(changed) == 0 {
		billing.Present(&current, s.Today())
		return current, nil, nil
	}

	updated, err := s.store.UpdateInvoice(ctx, next, current.Version)
	if err != nil {
		return models.Invoice{}, nil, err
	}
	s.log.Info().
		Int64("invoice_id", id).
		Strs("changed", changed).
		Int64("balance_due", int64(updated.BalanceDue)).
		Msg("invoice repriced")
	billing.Present(&updated, s.Today())
	return updated, changed, nil
}

// ApplyPayment records a payment and returns the updated invoice with its ledger row.
func (s *InvoiceService) ApplyPayment(ctx context.Context, id int64, in models.PaymentInput, expectedVersion int64) (models.Invoice, models.Payment, error) {
	if msg := in.Validate(); msg != "" {
		return models.Invoice{}, models.Payment{}, billing.NewValidationError("amount", msg)
	}
	current, err := s.load(ctx, id, expectedVersion)
	if err != nil {
		return models.Invoice{}, models.Payment{}, err
	}

	next, err := billing.ApplyPayment(current, in.Amount)
	if err != nil {
		return models.Invoice{}, models.Payment{}, err
	}
	updated, payment, err := s.store.RecordPayment(ctx, next, current.Version, models.Payment{
		InvoiceID: id,
		Kind:      models.PaymentKindPayment,
		Amount:    in.Amount,
		Reference: in.Reference,
	})
	if err != nil {
		return models.Invoice{}, models.Payment{}, err
	}
	s.log.Info().
		Int64("invoice_id", id).
		Int64("amount", int64(in.Amount)).
		Int64("balance_due", int64(updated.BalanceDue)).
		Str("status", string(updated.PaymentStatus)).
		Msg("payment applied")
	billing.Present(&updated, s.Today())
	return updated, payment, nil
}

// MarkPaid settles the whole remaining balance. An invoice that is already paid is
// returned as is and no ledger row is written.
func (s *InvoiceService) MarkPaid(ctx context.Context, id int64, expectedVersion int64) (models.Invoice, error) {
	current, err := s.load(ctx, id, expectedVersion)
	if err != nil {
		return models.Invoice{}, err
	}

	next, settled := billing.MarkFullyPaid(current)
	if settled == 0 {
		billing.Present(&current, s.Today())
		return current, nil
	}
	updated, _, err := s.store.RecordPayment(ctx, next, current.Version, models.Payment{
		InvoiceID: id,
		Kind:      models.PaymentKindSettlement,
		Amount:    settled,
	})
	if err != nil {
		return models.Invoice{}, err
	}
	s.log.Info().
		Int64("invoice_id", id).
		Int64("settled", int64(settled)).
		Msg("invoice marked paid")
	billing.Present(&updated, s.Today())
	return updated, nil
}

// Payments returns the payment ledger of an invoice.
func (s *InvoiceService) Payments(ctx context.Context, id int64) ([]models.Payment, error) {
	if _, err := s.store.GetInvoice(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, id)
}

// Delete removes an invoice permanently.
func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("invoice_id", id).Msg("invoice deleted")
	return nil
}

// Dashboard summarizes every invoice with statuses resolved for today.
func (s *InvoiceService) Dashboard(ctx context.Context) (report.Summary, error) {
	invoices, err := s.List(ctx, models.InvoiceFilter{})
	if err != nil {
		return report.Summary{}, err
	}
	members, err := s.members.CountMembers(ctx)
	if err != nil {
		return report.Summary{}, err
	}
	return s.reporter.Summarize(ctx, invoices, members)
}

// Export writes every invoice, statuses resolved for today, to path.
func (s *InvoiceService) Export(ctx context.Context, format report.Format, path string) (int, error) {
	invoices, err := s.List(ctx, models.InvoiceFilter{})
	if err != nil {
		return 0, err
	}
	if err := s.reporter.Export(ctx, invoices, format, path); err != nil {
		return 0, err
	}
	return len(invoices), nil
}

// load reads the raw stored invoice and checks the caller's version against it.
func (s *InvoiceService) load(ctx context.Context, id int64, expectedVersion int64) (models.Invoice, error) {
	current, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return models.Invoice{}, err
	}
	if expectedVersion != 0 && expectedVersion != current.Version {
		return models.Invoice{}, &billing.StaleWriteError{ID: id, Expected: expectedVersion}
	}
	return current, nil
}
