package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satheeshds/invoicing/config"
	"github.com/satheeshds/invoicing/logger"
)

var version = "1.0.0"

// cfg is loaded once by main before any command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "invoicing",
	Short: "Invoicing - issue invoices, take payments and reconcile balances",
	Long: `Invoicing keeps the books for invoices issued to customers: it numbers them,
derives tax and totals from the line item, applies payments against the balance
due and reports on what is billed, collected and overdue.

Run "invoicing serve" to start the HTTP API. The other commands operate on the
same database directly.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command selected on the command line.
func Execute(c config.Config) {
	cfg = c
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
