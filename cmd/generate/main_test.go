package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanmart-dashboard/internal/config"
	"urbanmart-dashboard/internal/dataset"
)

func testDatasetConfig(t *testing.T, rows int) config.DatasetConfig {
	t.Helper()
	return config.DatasetConfig{
		CSVFile:   filepath.Join(t.TempDir(), "out", "urbanmart_sales.csv"),
		StoreName: "UrbanMart",
		Rows:      rows,
		Seed:      42,
		StartDate: "2024-01-01",
		EndDate:   "2024-12-31",
	}
}

func TestRun(t *testing.T) {
	cfg := testDatasetConfig(t, 40)
	var out bytes.Buffer

	require.NoError(t, run(cfg, &out, slog.New(slog.NewTextHandler(io.Discard, nil))))

	text := out.String()
	assert.Contains(t, text, "Shape: (40, 14)")
	assert.Contains(t, text, "transaction_id")
	assert.Contains(t, text, "payment_method")

	// header + five preview rows after the blank line
	tail := text[strings.Index(text, "\n\n")+2:]
	assert.Len(t, strings.Split(strings.TrimRight(tail, "\n"), "\n"), 6)

	frame, err := dataset.ReadFile(cfg.CSVFile)
	require.NoError(t, err)
	assert.Equal(t, 40, frame.Len())
}

func TestRun_Deterministic(t *testing.T) {
	a := testDatasetConfig(t, 100)
	b := testDatasetConfig(t, 100)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, run(a, io.Discard, logger))
	require.NoError(t, run(b, io.Discard, logger))

	first, err := os.ReadFile(a.CSVFile)
	require.NoError(t, err)
	second, err := os.ReadFile(b.CSVFile)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_FewerRowsThanPreview(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(testDatasetConfig(t, 2), &out, slog.New(slog.NewTextHandler(io.Discard, nil))))
	assert.Contains(t, out.String(), "Shape: (2, 14)")
}

func TestRun_InvalidDates(t *testing.T) {
	cfg := testDatasetConfig(t, 10)
	cfg.EndDate = "2023-01-01"
	assert.Error(t, run(cfg, io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil))))
}
