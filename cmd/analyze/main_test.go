package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanmart-dashboard/internal/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRun_GeneratesAndReports(t *testing.T) {
	cfg := config.DatasetConfig{
		CSVFile:   filepath.Join(t.TempDir(), "urbanmart_sales.csv"),
		StoreName: "UrbanMart",
		Rows:      1200,
		Seed:      42,
		StartDate: "2024-01-01",
		EndDate:   "2024-12-31",
	}

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out, discard))

	text := out.String()
	assert.Contains(t, text, "Welcome to UrbanMart Sales Analysis")
	assert.Contains(t, text, "Total number of rows: 1,200")
	assert.Contains(t, text, "Unique store IDs: ['S001', 'S002', 'S003', 'S004', 'S005', 'S006']")
	assert.Contains(t, text, "S005 -> Tech Park")

	_, err := os.Stat(cfg.CSVFile)
	assert.NoError(t, err)
}

func TestRun_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	csv := "transaction_id,date,store_id,store_location,transaction_type\n" +
		"T0000001,2024-03-01,S002,Uptown,Online\n" +
		"T0000002,2024-03-02,S002,Uptown,instore\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cfg := config.DatasetConfig{
		CSVFile:   path,
		StoreName: "Corner Shop",
		Rows:      10,
		Seed:      1,
		StartDate: "2024-01-01",
		EndDate:   "2024-12-31",
	}

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out, discard))

	text := out.String()
	assert.Contains(t, text, "Welcome to Corner Shop Sales Analysis")
	assert.Contains(t, text, "Total number of rows: 2")
	assert.Contains(t, text, "Online: 1\nIn-store: 1\n")
}
