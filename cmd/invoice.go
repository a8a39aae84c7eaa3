package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satheeshds/invoicing/logger"
	"github.com/satheeshds/invoicing/report"
)

var importCmd = &cobra.Command{
	Use:   "import [json-file]",
	Short: "Import historical invoices from a JSON export",
	Long: `Import a JSON array of invoices exported from an older system. Field names
may be snake_case, camelCase or the legacy spellings; totals are re-derived and
a recorded balance or paid amount is kept.

Records that fail validation are skipped and reported. The command stops at the
first database error.`,
	Example: `  # Import an export and print the summary
  invoicing import invoices.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all invoices to Parquet or CSV",
	Example: `  # Parquet, the default
  invoicing export -o invoices.parquet

  # CSV with a header row
  invoicing export --format csv -o invoices.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var nextNumberCmd = &cobra.Command{
	Use:   "next-number",
	Short: "Print the number the next invoice will receive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		number, err := a.invoices.NextNumber(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), number)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(nextNumberCmd)

	exportCmd.Flags().StringP("output", "o", "", "Output file path (required)")
	exportCmd.Flags().String("format", "", "parquet or csv (default: from the output extension, else parquet)")
	_ = exportCmd.MarkFlagRequired("output")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close import file")
		}
	}()

	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info().Str("file", path).Msg("Starting legacy import")
	result, err := a.invoices.Import(ctx, f)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	outputPath, _ := cmd.Flags().GetString("output")
	formatFlag, _ := cmd.Flags().GetString("format")
	if formatFlag == "" {
		formatFlag = strings.TrimPrefix(filepath.Ext(outputPath), ".")
		if formatFlag != string(report.FormatCSV) {
			formatFlag = string(report.FormatParquet)
		}
	}
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.invoices.Export(ctx, format, outputPath)
	if err != nil {
		return err
	}
	log.Info().
		Str("output", outputPath).
		Str("format", string(format)).
		Int("invoices", n).
		Msg("Export completed")
	return nil
}
