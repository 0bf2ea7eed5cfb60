// Command generate writes the synthetic UrbanMart sales dataset using the
// configured defaults and prints a short preview.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"urbanmart-dashboard/internal/config"
	"urbanmart-dashboard/internal/dataset"
	"urbanmart-dashboard/internal/generator"
	"urbanmart-dashboard/internal/models"
	"urbanmart-dashboard/internal/observability"
)

const previewRows = 5

func run(cfg config.DatasetConfig, out io.Writer, logger *slog.Logger) error {
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	gen, err := generator.New(generator.DefaultTables(), logger)
	if err != nil {
		return fmt.Errorf("building generator: %w", err)
	}

	txs, _, err := gen.Generate(params)
	if err != nil {
		return fmt.Errorf("generating dataset: %w", err)
	}
	if err := dataset.WriteFile(cfg.CSVFile, txs); err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}

	fmt.Fprintf(out, "Saved %s\n", cfg.CSVFile)
	fmt.Fprintf(out, "Shape: (%d, %d)\n\n", len(txs), len(dataset.Columns))
	return preview(out, txs[:min(previewRows, len(txs))])
}

func preview(out io.Writer, txs []models.Transaction) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(dataset.Columns, "\t"))
	for _, tx := range txs {
		fmt.Fprintln(tw, strings.Join(dataset.Record(tx), "\t"))
	}
	return tw.Flush()
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Logger, os.Stderr)

	if err := run(cfg.Dataset, os.Stdout, logger); err != nil {
		logger.Error("generate failed", "error", err)
		os.Exit(1)
	}
}
