package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/models"
)

func newReporter(t *testing.T) *Reporter {
	t.Helper()
	r, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func invoice(id int64, number string, issue civil.Date, total, balance models.Money, status models.PaymentStatus) models.Invoice {
	return models.Invoice{
		ID:            id,
		InvoiceNumber: number,
		IssueDate:     issue,
		Term:          "Due on Receipt",
		PartyName:     "Acme",
		UnitPrice:     decimal.NewFromInt(int64(total)),
		Quantity:      decimal.NewFromInt(1),
		TaxRate:       decimal.Zero,
		Subtotal:      total,
		TotalAmount:   total,
		BalanceDue:    balance,
		PaymentStatus: status,
	}
}

func sampleInvoices() []models.Invoice {
	return []models.Invoice{
		invoice(1, "INV-001", civil.Date{Year: 2024, Month: 1, Day: 10}, 1180, 0, models.StatusPaid),
		invoice(2, "INV-002", civil.Date{Year: 2024, Month: 1, Day: 20}, 1000, 400, models.StatusPartiallyPaid),
		invoice(3, "INV-003", civil.Date{Year: 2024, Month: 2, Day: 5}, 500, 500, models.StatusOverdue),
		invoice(4, "INV-004", civil.Date{Year: 2024, Month: 2, Day: 6}, 300, 300, models.StatusDue),
	}
}

func TestSummarize(t *testing.T) {
	r := newReporter(t)

	s, err := r.Summarize(context.Background(), sampleInvoices(), 3)
	require.NoError(t, err)

	assert.Equal(t, 4, s.InvoiceCount)
	assert.Equal(t, 3, s.MemberCount)
	assert.Equal(t, models.Money(2980), s.TotalBilled)
	assert.Equal(t, models.Money(1780), s.TotalCollected)
	assert.Equal(t, models.Money(1200), s.TotalPending)
	assert.Equal(t, models.Money(500), s.OverdueAmount)
	assert.Equal(t, 1, s.PaidCount)
	assert.Equal(t, 2, s.PendingCount)
	assert.Equal(t, 1, s.OverdueCount)
	assert.Equal(t, s.TotalBilled, s.TotalCollected+s.TotalPending)

	require.Len(t, s.ByStatus, 4)
	byStatus := map[models.PaymentStatus]StatusTotal{}
	for _, st := range s.ByStatus {
		byStatus[st.Status] = st
	}
	assert.Equal(t, models.Money(400), byStatus[models.StatusPartiallyPaid].Balance)
	assert.Equal(t, 1, byStatus[models.StatusOverdue].Count)

	require.Len(t, s.Monthly, 2)
	assert.Equal(t, MonthTotal{Month: "2024-01", Count: 2, Billed: 2180, Collected: 1780}, s.Monthly[0])
	assert.Equal(t, MonthTotal{Month: "2024-02", Count: 2, Billed: 800, Collected: 0}, s.Monthly[1])
}

func TestSummarizeEmpty(t *testing.T) {
	r := newReporter(t)

	s, err := r.Summarize(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Zero(t, s.InvoiceCount)
	assert.Zero(t, s.TotalBilled)
	assert.Empty(t, s.ByStatus)
	assert.Empty(t, s.Monthly)
}

func TestSummarizeIsRepeatable(t *testing.T) {
	r := newReporter(t)
	ctx := context.Background()

	first, err := r.Summarize(ctx, sampleInvoices(), 1)
	require.NoError(t, err)
	second, err := r.Summarize(ctx, sampleInvoices(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExportCSV(t *testing.T) {
	r := newReporter(t)
	path := filepath.Join(t.TempDir(), "invoices.csv")

	require.NoError(t, r.Export(context.Background(), sampleInvoices(), FormatCSV, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "id,invoice_number,issue_date"))
	assert.Contains(t, lines[1], "INV-001")
	assert.Contains(t, lines[3], "Overdue")
}

func TestExportParquet(t *testing.T) {
	r := newReporter(t)
	path := filepath.Join(t.TempDir(), "invoices.parquet")

	require.NoError(t, r.Export(context.Background(), sampleInvoices(), FormatParquet, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
