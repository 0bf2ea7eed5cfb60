// Command analyze prints the sanity report for the sales dataset,
// generating the file first when it does not exist.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"urbanmart-dashboard/internal/config"
	"urbanmart-dashboard/internal/dataset"
	"urbanmart-dashboard/internal/generator"
	"urbanmart-dashboard/internal/observability"
	"urbanmart-dashboard/internal/report"
)

func run(cfg config.DatasetConfig, out io.Writer, logger *slog.Logger) error {
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	gen, err := generator.New(generator.DefaultTables(), logger)
	if err != nil {
		return fmt.Errorf("building generator: %w", err)
	}

	frame, err := dataset.NewLoader(gen, params, logger).Load(cfg.CSVFile)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	return report.Write(out, cfg.StoreName, frame)
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
		logger.Error("analyze failed", "error", err)
		os.Exit(1)
	}
}
