// Package report computes dashboard figures and exports over a snapshot of invoices
// loaded into an in-memory DuckDB database.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/satheeshds/invoicing/models"
)

// Format is an export file format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// ParseFormat accepts "parquet" or "csv" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatParquet, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (use parquet or csv)", s)
}

// Summary is the dashboard view of all invoices.
type Summary struct {
	InvoiceCount   int           `json:"invoice_count"`
	MemberCount    int           `json:"member_count"`
	TotalBilled    models.Money  `json:"total_billed"`
	TotalCollected models.Money  `json:"total_collected"`
	TotalPending   models.Money  `json:"total_pending"`
	OverdueAmount  models.Money  `json:"overdue_amount"`
	PaidCount      int           `json:"paid_count"`
	PendingCount   int           `json:"pending_count"`
	OverdueCount   int           `json:"overdue_count"`
	ByStatus       []StatusTotal `json:"by_status"`
	Monthly        []MonthTotal  `json:"monthly"`
}

// StatusTotal aggregates invoices sharing a payment status.
type StatusTotal struct {
	Status  models.PaymentStatus `json:"status"`
	Count   int                  `json:"count"`
	Billed  models.Money         `json:"billed"`
	Balance models.Money         `json:"balance"`
}

// MonthTotal aggregates invoices issued in one calendar month (YYYY-MM).
type MonthTotal struct {
	Month     string       `json:"month"`
	Count     int          `json:"count"`
	Billed    models.Money `json:"billed"`
	Collected models.Money `json:"collected"`
}

// Reporter runs analytical queries on an embedded DuckDB instance.
type Reporter struct {
	db *sql.DB
}

// Open starts an in-memory DuckDB database.
func Open() (*Reporter, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging duckdb: %w", err)
	}
	return &Reporter{db: db}, nil
}

// Close releases the DuckDB instance.
func (r *Reporter) Close() error {
	return r.db.Close()
}

const snapshotTable = `CREATE TEMP TABLE snapshot (
	id BIGINT,
	invoice_number VARCHAR,
	issue_date DATE,
	due_date DATE,
	term VARCHAR,
	party_name VARCHAR,
	party_region VARCHAR,
	unit_price DOUBLE,
	quantity DOUBLE,
	tax_rate DOUBLE,
	subtotal BIGINT,
	tax_amount BIGINT,
	total_amount BIGINT,
	balance_due BIGINT,
	paid_amount BIGINT,
	payment_status VARCHAR
)`

// withSnapshot loads invoices into a temp table on a dedicated connection and calls fn.
// Invoices must already carry their read-time status.
func (r *Reporter) withSnapshot(ctx context.Context, invoices []models.Invoice, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring duckdb connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, snapshotTable); err != nil {
		return fmt.Errorf("creating snapshot table: %w", err)
	}
	defer conn.ExecContext(context.Background(), "DROP TABLE IF EXISTS snapshot")

	if err := loadSnapshot(ctx, conn, invoices); err != nil {
		return err
	}
	return fn(conn)
}

func loadSnapshot(ctx context.Context, conn *sql.Conn, invoices []models.Invoice) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot VALUES
		(?, ?, CAST(? AS DATE), CAST(? AS DATE), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	defer stmt.Close()

	for _, inv := range invoices {
		var due any
		if inv.DueDate != nil {
			due = inv.DueDate.String()
		}
		_, err := stmt.ExecContext(ctx,
			inv.ID, inv.InvoiceNumber, inv.IssueDate.String(), due, inv.Term,
			inv.PartyName, inv.PartyRegion,
			inv.UnitPrice.InexactFloat64(), inv.Quantity.InexactFloat64(), inv.TaxRate.InexactFloat64(),
			int64(inv.Subtotal), int64(inv.TaxAmount), int64(inv.TotalAmount), int64(inv.BalanceDue),
			int64(inv.Paid()), string(inv.PaymentStatus))
		if err != nil {
			return fmt.Errorf("loading invoice %s: %w", inv.InvoiceNumber, err)
		}
	}
	return tx.Commit()
}

// Summarize computes the dashboard figures for invoices.
func (r *Reporter) Summarize(ctx context.Context, invoices []models.Invoice, members int) (Summary, error) {
	s := Summary{MemberCount: members, ByStatus: []StatusTotal{}, Monthly: []MonthTotal{}}
	err := r.withSnapshot(ctx, invoices, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, `SELECT
			count(*),
			CAST(COALESCE(sum(total_amount), 0) AS BIGINT),
			CAST(COALESCE(sum(paid_amount), 0) AS BIGINT),
			CAST(COALESCE(sum(balance_due), 0) AS BIGINT),
			CAST(COALESCE(sum(balance_due) FILTER (WHERE payment_status = 'Overdue'), 0) AS BIGINT),
			count(*) FILTER (WHERE payment_status = 'Paid'),
			count(*) FILTER (WHERE payment_status IN ('Due', 'PartiallyPaid')),
			count(*) FILTER (WHERE payment_status = 'Overdue')
			FROM snapshot`).Scan(&s.InvoiceCount, &s.TotalBilled, &s.TotalCollected, &s.TotalPending,
			&s.OverdueAmount, &s.PaidCount, &s.PendingCount, &s.OverdueCount)
		if err != nil {
			return fmt.Errorf("summarizing invoices: %w", err)
		}

		if s.ByStatus, err = statusTotals(ctx, conn); err != nil {
			return err
		}
		s.Monthly, err = monthTotals(ctx, conn)
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	return s, nil
}

func statusTotals(ctx context.Context, conn *sql.Conn) ([]StatusTotal, error) {
	rows, err := conn.QueryContext(ctx, `SELECT payment_status, count(*),
		CAST(sum(total_amount) AS BIGINT), CAST(sum(balance_due) AS BIGINT)
		FROM snapshot GROUP BY payment_status ORDER BY payment_status`)
	if err != nil {
		return nil, fmt.Errorf("grouping by status: %w", err)
	}
	defer rows.Close()

	totals := []StatusTotal{}
	for rows.Next() {
		var st StatusTotal
		if err := rows.Scan(&st.Status, &st.Count, &st.Billed, &st.Balance); err != nil {
			return nil, fmt.Errorf("grouping by status: %w", err)
		}
		totals = append(totals, st)
	}
	return totals, rows.Err()
}

func monthTotals(ctx context.Context, conn *sql.Conn) ([]MonthTotal, error) {
	rows, err := conn.QueryContext(ctx, `SELECT strftime(issue_date, '%Y-%m') AS month, count(*),
		CAST(sum(total_amount) AS BIGINT), CAST(sum(paid_amount) AS BIGINT)
		FROM snapshot GROUP BY month ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("grouping by month: %w", err)
	}
	defer rows.Close()

	totals := []MonthTotal{}
	for rows.Next() {
		var m MonthTotal
		if err := rows.Scan(&m.Month, &m.Count, &m.Billed, &m.Collected); err != nil {
			return nil, fmt.Errorf("grouping by month: %w", err)
		}
		totals = append(totals, m)
	}
	return totals, rows.Err()
}

// Export writes invoices to path in the given format, ordered by invoice id.
func (r *Reporter) Export(ctx context.Context, invoices []models.Invoice, format Format, path string) error {
	var options string
	switch format {
	case FormatParquet:
		options = "FORMAT PARQUET"
	case FormatCSV:
		options = "FORMAT CSV, HEADER"
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}

	return r.withSnapshot(ctx, invoices, func(conn *sql.Conn) error {
		query := fmt.Sprintf("COPY (SELECT * FROM snapshot ORDER BY id) TO '%s' (%s)",
			strings.ReplaceAll(path, "'", "''"), options)
		if _, err := conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("exporting invoices to %s: %w", path, err)
		}
		return nil
	})
}
