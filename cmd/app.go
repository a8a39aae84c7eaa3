package cmd

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/db"
	"github.com/satheeshds/invoicing/logger"
	"github.com/satheeshds/invoicing/report"
	"github.com/satheeshds/invoicing/service"
)

// app bundles the connections and services shared by the commands.
type app struct {
	pool     *pgxpool.Pool
	reporter *report.Reporter
	store    *db.Store
	invoices *service.InvoiceService
	members  *service.MemberService
}

// openApp connects to Postgres, applies migrations and builds the services.
func openApp(ctx context.Context) (*app, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	engine, err := billing.NewEngine(cfg.Tax)
	if err != nil {
		return nil, err
	}

	pool, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	reporter, err := report.Open()
	if err != nil {
		pool.Close()
		return nil, err
	}

	store := db.NewStore(pool)
	return &app{
		pool:     pool,
		reporter: reporter,
		store:    store,
		invoices: service.NewInvoiceService(store, store, reporter, engine, cfg.Location, logger.WithComponent("invoices")),
		members:  service.NewMemberService(store, logger.WithComponent("members")),
	}, nil
}

func (a *app) Close() {
	if err := a.reporter.Close(); err != nil {
		log := logger.WithComponent("cmd")
		log.Warn().Err(err).Msg("Failed to close reporter")
	}
	a.pool.Close()
}
