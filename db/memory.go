package db

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

// MemoryStore is an in-memory implementation of the store contracts used for testing
// services and handlers without a running Postgres. It enforces the same uniqueness and
// version rules as Store.
type MemoryStore struct {
	mu       sync.Mutex
	invoices map[int64]models.Invoice
	payments map[int64][]models.Payment
	members  map[int64]models.Member
	seq      map[string]int64
	err      error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: map[int64]models.Invoice{},
		payments: map[int64][]models.Payment{},
		members:  map[int64]models.Member{},
		seq:      map[string]int64{},
	}
}

// WithError configures the store to fail every subsequent call with a TransportError
// wrapping err. A nil err restores normal behaviour.
func (m *MemoryStore) WithError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *MemoryStore) fail(op string) error {
	return billing.WrapTransportError(op, m.err)
}

// id hands out serial ids per table.
func (m *MemoryStore) id(table string) int64 {
	m.seq[table]++
	return m.seq[table]
}

func cloneInvoice(inv models.Invoice) models.Invoice {
	inv.TaxLines = slices.Clone(inv.TaxLines)
	if inv.TaxLines == nil {
		inv.TaxLines = []models.TaxLine{}
	}
	inv.PaidAmount = inv.Paid()
	return inv
}

// LatestInvoice returns the invoice with the highest id, or nil.
func (m *MemoryStore) LatestInvoice(ctx context.Context) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("fetch latest invoice"); err != nil {
		return nil, err
	}
	var latest *models.Invoice
	for _, inv := range m.invoices {
		if latest == nil || inv.ID > latest.ID {
			c := cloneInvoice(inv)
			latest = &c
		}
	}
	return latest, nil
}

// HighestInvoiceNumber returns the INV-NNN number with the largest suffix, or "".
func (m *MemoryStore) HighestInvoiceNumber(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("fetch invoice sequence"); err != nil {
		return "", err
	}
	highest, number := uint64(0), ""
	for _, inv := range m.invoices {
		n, err := billing.ParseInvoiceNumber(inv.InvoiceNumber)
		if err != nil {
			continue
		}
		if number == "" || n > highest {
			highest, number = n, inv.InvoiceNumber
		}
	}
	return number, nil
}

// GetInvoice returns one invoice.
func (m *MemoryStore) GetInvoice(ctx context.Context, id int64) (models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("get invoice"); err != nil {
		return models.Invoice{}, err
	}
	inv, ok := m.invoices[id]
	if !ok {
		return models.Invoice{}, billing.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

// ListInvoices returns invoices newest first, applying the search and date filters.
func (m *MemoryStore) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("list invoices"); err != nil {
		return nil, err
	}
	search := strings.ToLower(filter.Search)
	out := []models.Invoice{}
	for _, inv := range m.invoices {
		if search != "" && !matchesSearch(inv, search) {
			continue
		}
		if filter.From != nil && inv.IssueDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && inv.IssueDate.After(*filter.To) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	slices.SortFunc(out, func(a, b models.Invoice) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func matchesSearch(inv models.Invoice, search string) bool {
	if strings.Contains(strings.ToLower(inv.InvoiceNumber), search) ||
		strings.Contains(strings.ToLower(inv.PartyName), search) {
		return true
	}
	return inv.Notes != nil && strings.Contains(strings.ToLower(*inv.Notes), search)
}

// CreateInvoice stores inv under a new id with version 1.
func (m *MemoryStore) CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("create invoice"); err != nil {
		return models.Invoice{}, err
	}
	for _, existing := range m.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return models.Invoice{}, &billing.ConflictError{Field: "invoice_number", Value: inv.InvoiceNumber}
		}
	}
	now := time.Now().UTC()
	inv.ID = m.id("invoices")
	inv.Version = 1
	inv.CreatedAt = now
	inv.UpdatedAt = now
	m.invoices[inv.ID] = cloneInvoice(inv)
	return cloneInvoice(inv), nil
}

// UpdateInvoice replaces inv if the stored version equals expectedVersion.
func (m *MemoryStore) UpdateInvoice(ctx context.Context, inv models.Invoice, expectedVersion int64) (models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update invoice"); err != nil {
		return models.Invoice{}, err
	}
	return m.updateLocked(inv, expectedVersion)
}

func (m *MemoryStore) updateLocked(inv models.Invoice, expectedVersion int64) (models.Invoice, error) {
	stored, ok := m.invoices[inv.ID]
	if !ok {
		return models.Invoice{}, billing.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return models.Invoice{}, &billing.StaleWriteError{ID: inv.ID, Expected: expectedVersion}
	}
	inv.InvoiceNumber = stored.InvoiceNumber
	inv.CreatedAt = stored.CreatedAt
	inv.Version = stored.Version + 1
	inv.UpdatedAt = time.Now().UTC()
	m.invoices[inv.ID] = cloneInvoice(inv)
	return cloneInvoice(inv), nil
}

// RecordPayment updates the invoice and appends a ledger row atomically.
func (m *MemoryStore) RecordPayment(ctx context.Context, inv models.Invoice, expectedVersion int64, payment models.Payment) (models.Invoice, models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("record payment"); err != nil {
		return models.Invoice{}, models.Payment{}, err
	}
	updated, err := m.updateLocked(inv, expectedVersion)
	if err != nil {
		return models.Invoice{}, models.Payment{}, err
	}
	payment.ID = m.id("invoice_payments")
	payment.InvoiceID = inv.ID
	payment.BalanceAfter = updated.BalanceDue
	payment.CreatedAt = updated.UpdatedAt
	m.payments[inv.ID] = append(m.payments[inv.ID], payment)
	return updated, payment, nil
}

// DeleteInvoice removes an invoice and its ledger.
func (m *MemoryStore) DeleteInvoice(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("delete invoice"); err != nil {
		return err
	}
	if _, ok := m.invoices[id]; !ok {
		return billing.ErrNotFound
	}
	delete(m.invoices, id)
	delete(m.payments, id)
	return nil
}

// ListPayments returns the ledger of an invoice, oldest first.
func (m *MemoryStore) ListPayments(ctx context.Context, invoiceID int64) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("list payments"); err != nil {
		return nil, err
	}
	out := slices.Clone(m.payments[invoiceID])
	if out == nil {
		out = []models.Payment{}
	}
	return out, nil
}

// ListMembers returns every member ordered by name.
func (m *MemoryStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("list members"); err != nil {
		return nil, err
	}
	out := []models.Member{}
	for _, member := range m.members {
		out = append(out, member)
	}
	slices.SortFunc(out, func(a, b models.Member) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// GetMember returns one member.
func (m *MemoryStore) GetMember(ctx context.Context, id int64) (models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("get member"); err != nil {
		return models.Member{}, err
	}
	member, ok := m.members[id]
	if !ok {
		return models.Member{}, billing.ErrNotFound
	}
	return member, nil
}

// MemberByUsername looks a member up case-insensitively.
func (m *MemoryStore) MemberByUsername(ctx context.Context, username string) (models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("find member"); err != nil {
		return models.Member{}, err
	}
	for _, member := range m.members {
		if strings.EqualFold(member.Username, username) {
			return member, nil
		}
	}
	return models.Member{}, billing.ErrNotFound
}

func (m *MemoryStore) usernameTaken(username string, except int64) bool {
	for _, member := range m.members {
		if member.ID != except && strings.EqualFold(member.Username, username) {
			return true
		}
	}
	return false
}

// CreateMember stores a new member.
func (m *MemoryStore) CreateMember(ctx context.Context, member models.Member) (models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("create member"); err != nil {
		return models.Member{}, err
	}
	if m.usernameTaken(member.Username, 0) {
		return models.Member{}, &billing.ConflictError{Field: "username", Value: member.Username}
	}
	now := time.Now().UTC()
	member.ID = m.id("members")
	member.CreatedAt = now
	member.UpdatedAt = now
	m.members[member.ID] = member
	return member, nil
}

// UpdateMember replaces a member's profile. An empty PasswordHash keeps the stored one.
func (m *MemoryStore) UpdateMember(ctx context.Context, member models.Member) (models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update member"); err != nil {
		return models.Member{}, err
	}
	stored, ok := m.members[member.ID]
	if !ok {
		return models.Member{}, billing.ErrNotFound
	}
	if m.usernameTaken(member.Username, member.ID) {
		return models.Member{}, &billing.ConflictError{Field: "username", Value: member.Username}
	}
	if member.PasswordHash == "" {
		member.PasswordHash = stored.PasswordHash
	}
	member.CreatedAt = stored.CreatedAt
	member.UpdatedAt = time.Now().UTC()
	m.members[member.ID] = member
	return member, nil
}

// DeleteMember removes a member.
func (m *MemoryStore) DeleteMember(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("delete member"); err != nil {
		return err
	}
	if _, ok := m.members[id]; !ok {
		return billing.ErrNotFound
	}
	delete(m.members, id)
	return nil
}

// CountMembers returns how many members exist.
func (m *MemoryStore) CountMembers(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("count members"); err != nil {
		return 0, err
	}
	return len(m.members), nil
}
