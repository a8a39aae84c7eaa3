package db

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/config"
	"github.com/satheeshds/invoicing/models"
)

// openTestStore connects to TEST_DATABASE_URL and starts from empty tables.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, config.DatabaseConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	truncate(t, pool)
	return NewStore(pool)
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE invoice_payments, invoices, members RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func newTestInvoice(t *testing.T, number string) models.Invoice {
	t.Helper()
	engine, err := billing.NewEngine(billing.DefaultTaxRules())
	require.NoError(t, err)
	price, rate := decimal.NewFromInt(1000), decimal.NewFromInt(18)
	due := civil.Date{Year: 2024, Month: 5, Day: 31}
	inv, err := engine.NewInvoice(models.InvoiceInput{
		PartyName: "Acme Traders",
		DueDate:   &due,
		UnitPrice: &price,
		TaxRate:   &rate,
	}, number, civil.Date{Year: 2024, Month: 5, Day: 1})
	require.NoError(t, err)
	return inv
}

func TestStoreInvoiceRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	latest, err := store.LatestInvoice(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	created, err := store.CreateInvoice(ctx, newTestInvoice(t, "INV-001"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, models.Money(1180), created.TotalAmount)
	assert.Equal(t, "30 days", created.Term)
	require.Len(t, created.TaxLines, 1)

	got, err := store.GetInvoice(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.InvoiceNumber, got.InvoiceNumber)
	assert.Equal(t, civil.Date{Year: 2024, Month: 5, Day: 1}, got.IssueDate)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, civil.Date{Year: 2024, Month: 5, Day: 31}, *got.DueDate)
	assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(1000)))

	_, err = store.CreateInvoice(ctx, newTestInvoice(t, "INV-001"))
	var conflictErr *billing.ConflictError
	assert.ErrorAs(t, err, &conflictErr)

	latest, err = store.LatestInvoice(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "INV-001", latest.InvoiceNumber)

	// Numbers outside the INV-NNN sequence never become its head.
	_, err = store.CreateInvoice(ctx, newTestInvoice(t, "INV-010"))
	require.NoError(t, err)
	_, err = store.CreateInvoice(ctx, newTestInvoice(t, "INV-999-OLD"))
	require.NoError(t, err)
	_, err = store.CreateInvoice(ctx, newTestInvoice(t, "INV-002"))
	require.NoError(t, err)
	highest, err := store.HighestInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-010", highest)

	_, err = store.GetInvoice(ctx, created.ID+100)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestStoreVersionCheck(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateInvoice(ctx, newTestInvoice(t, "INV-001"))
	require.NoError(t, err)

	notes := "call before shipping"
	created.Notes = &notes
	updated, err := store.UpdateInvoice(ctx, created, created.Version)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = store.UpdateInvoice(ctx, created, created.Version)
	var staleErr *billing.StaleWriteError
	assert.ErrorAs(t, err, &staleErr)

	created.ID += 100
	_, err = store.UpdateInvoice(ctx, created, 1)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestStoreRecordPayment(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateInvoice(ctx, newTestInvoice(t, "INV-001"))
	require.NoError(t, err)

	paid, err := billing.ApplyPayment(created, 500)
	require.NoError(t, err)
	inv, payment, err := store.RecordPayment(ctx, paid, created.Version,
		models.Payment{InvoiceID: created.ID, Kind: models.PaymentKindPayment, Amount: 500})
	require.NoError(t, err)
	assert.Equal(t, models.Money(680), inv.BalanceDue)
	assert.Equal(t, models.Money(680), payment.BalanceAfter)
	assert.Equal(t, int64(2), inv.Version)

	// A stale payment leaves no ledger row behind.
	_, _, err = store.RecordPayment(ctx, paid, created.Version,
		models.Payment{InvoiceID: created.ID, Kind: models.PaymentKindPayment, Amount: 500})
	var staleErr *billing.StaleWriteError
	assert.ErrorAs(t, err, &staleErr)

	ledger, err := store.ListPayments(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, models.Money(500), ledger[0].Amount)

	require.NoError(t, store.DeleteInvoice(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteInvoice(ctx, created.ID), billing.ErrNotFound)
}

func TestStoreMembers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	m, err := store.CreateMember(ctx, models.Member{Name: "Asha", Username: "asha", Email: "asha@example.com",
		Role: models.RoleAdmin, Status: models.MemberActive, PasswordHash: "hash"})
	require.NoError(t, err)

	found, err := store.MemberByUsername(ctx, "ASHA")
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	_, err = store.CreateMember(ctx, models.Member{Name: "Other", Username: "asha", Email: "o@example.com",
		Role: models.RoleMember, Status: models.MemberActive, PasswordHash: "hash"})
	var conflictErr *billing.ConflictError
	assert.ErrorAs(t, err, &conflictErr)

	m.Name = "Asha Rao"
	m.PasswordHash = ""
	updated, err := store.UpdateMember(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", updated.Name)
	found, err = store.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", found.PasswordHash)

	n, err := store.CountMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.DeleteMember(ctx, m.ID))
	_, err = store.GetMember(ctx, m.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}
