package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

const uniqueViolation = "23505"

const invoiceColumns = `id, invoice_number, issue_date, due_date, term,
		party_name, party_email, party_phone, party_region,
		unit_price, quantity, tax_rate, tax_lines,
		subtotal, tax_amount, total_amount, balance_due, payment_status,
		notes, version, created_at, updated_at`

const invoiceSelectQuery = `SELECT ` + invoiceColumns + ` FROM invoices`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists invoices, their payments and members in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanInvoice(scanner interface{ Scan(...any) error }) (models.Invoice, error) {
	var inv models.Invoice
	var issue time.Time
	var due *time.Time
	err := scanner.Scan(&inv.ID, &inv.InvoiceNumber, &issue, &due, &inv.Term,
		&inv.PartyName, &inv.PartyEmail, &inv.PartyPhone, &inv.PartyRegion,
		&inv.UnitPrice, &inv.Quantity, &inv.TaxRate, &inv.TaxLines,
		&inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount, &inv.BalanceDue, &inv.PaymentStatus,
		&inv.Notes, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return inv, err
	}
	inv.IssueDate = civil.DateOf(issue)
	if due != nil {
		d := civil.DateOf(*due)
		inv.DueDate = &d
	}
	inv.PaidAmount = inv.Paid()
	return inv, nil
}

func dateArg(d *civil.Date) any {
	if d == nil {
		return nil
	}
	return d.In(time.UTC)
}

func taxLinesArg(lines []models.TaxLine) []models.TaxLine {
	if lines == nil {
		return []models.TaxLine{}
	}
	return lines
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// GetInvoice returns the stored invoice with the given id.
func (s *Store) GetInvoice(ctx context.Context, id int64) (models.Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, invoiceSelectQuery+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return inv, billing.ErrNotFound
	}
	return inv, billing.WrapTransportError("get invoice", err)
}

// LatestInvoice returns the most recently created invoice, or nil when there is none.
func (s *Store) LatestInvoice(ctx context.Context) (*models.Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, invoiceSelectQuery+" ORDER BY id DESC LIMIT 1"))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, billing.WrapTransportError("fetch latest invoice", err)
	}
	return &inv, nil
}

// HighestInvoiceNumber returns the INV-NNN number with the largest numeric suffix, or
// "" when none exists. Numbers in any other format are ignored.
func (s *Store) HighestInvoiceNumber(ctx context.Context) (string, error) {
	var number string
	err := s.pool.QueryRow(ctx, `SELECT invoice_number FROM invoices
		WHERE invoice_number ~ '^INV-[0-9]+$'
		ORDER BY CAST(substr(invoice_number, 5) AS NUMERIC) DESC, id DESC
		LIMIT 1`).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", billing.WrapTransportError("fetch invoice sequence", err)
	}
	return number, nil
}

// ListInvoices returns invoices newest first. Status filtering is left to the caller
// because Overdue only exists at read time.
func (s *Store) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	query := invoiceSelectQuery
	var conditions []string
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(invoice_number ILIKE $%d OR party_name ILIKE $%d OR notes ILIKE $%d)", n, n, n))
	}
	if filter.From != nil {
		args = append(args, dateArg(filter.From))
		conditions = append(conditions, fmt.Sprintf("issue_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, dateArg(filter.To))
		conditions = append(conditions, fmt.Sprintf("issue_date <= $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, billing.WrapTransportError("list invoices", err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, billing.WrapTransportError("list invoices", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, billing.WrapTransportError("list invoices", err)
	}
	return invoices, nil
}

// CreateInvoice inserts inv and returns it with its id, version and timestamps.
// A taken invoice number fails with *billing.ConflictError.
func (s *Store) CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO invoices (invoice_number, issue_date, due_date, term,
		party_name, party_email, party_phone, party_region,
		unit_price, quantity, tax_rate, tax_lines,
		subtotal, tax_amount, total_amount, balance_due, payment_status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+invoiceColumns,
		inv.InvoiceNumber, inv.IssueDate.In(time.UTC), dateArg(inv.DueDate), inv.Term,
		inv.PartyName, inv.PartyEmail, inv.PartyPhone, inv.PartyRegion,
		inv.UnitPrice, inv.Quantity, inv.TaxRate, taxLinesArg(inv.TaxLines),
		inv.Subtotal, inv.TaxAmount, inv.TotalAmount, inv.BalanceDue, inv.PaymentStatus, inv.Notes)
	created, err := scanInvoice(row)
	if isUniqueViolation(err) {
		return models.Invoice{}, &billing.ConflictError{Field: "invoice_number", Value: inv.InvoiceNumber}
	}
	if err != nil {
		return models.Invoice{}, billing.WrapTransportError("create invoice", err)
	}
	return created, nil
}

// UpdateInvoice writes every mutable column of inv if the stored version still equals
// expectedVersion, and bumps the version.
func (s *Store) UpdateInvoice(ctx context.Context, inv models.Invoice, expectedVersion int64) (models.Invoice, error) {
	updated, err := updateInvoice(ctx, s.pool, inv, expectedVersion)
	if err != nil {
		return models.Invoice{}, s.explainMissedUpdate(ctx, s.pool, err, inv.ID, expectedVersion)
	}
	return updated, nil
}

func updateInvoice(ctx context.Context, q querier, inv models.Invoice, expectedVersion int64) (models.Invoice, error) {
	row := q.QueryRow(ctx, `UPDATE invoices SET issue_date = $3, due_date = $4, term = $5,
		party_name = $6, party_email = $7, party_phone = $8, party_region = $9,
		unit_price = $10, quantity = $11, tax_rate = $12, tax_lines = $13,
		subtotal = $14, tax_amount = $15, total_amount = $16, balance_due = $17, payment_status = $18,
		notes = $19, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+invoiceColumns,
		inv.ID, expectedVersion, inv.IssueDate.In(time.UTC), dateArg(inv.DueDate), inv.Term,
		inv.PartyName, inv.PartyEmail, inv.PartyPhone, inv.PartyRegion,
		inv.UnitPrice, inv.Quantity, inv.TaxRate, taxLinesArg(inv.TaxLines),
		inv.Subtotal, inv.TaxAmount, inv.TotalAmount, inv.BalanceDue, inv.PaymentStatus,
		inv.Notes)
	return scanInvoice(row)
}

// explainMissedUpdate turns an update that matched no row into ErrNotFound or a
// StaleWriteError, and anything else into a TransportError.
func (s *Store) explainMissedUpdate(ctx context.Context, q querier, err error, id, expectedVersion int64) error {
	if !errors.Is(err, pgx.ErrNoRows) {
		return billing.WrapTransportError("update invoice", err)
	}
	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)", id).Scan(&exists); err != nil {
		return billing.WrapTransportError("update invoice", err)
	}
	if !exists {
		return billing.ErrNotFound
	}
	return &billing.StaleWriteError{ID: id, Expected: expectedVersion}
}

// DeleteInvoice removes an invoice and its payment ledger.
func (s *Store) DeleteInvoice(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return billing.WrapTransportError("delete invoice", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}
