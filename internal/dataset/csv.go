package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"urbanmart-dashboard/internal/models"
)

const DateLayout = "2006-01-02"

const (
	ColTransactionID   = "transaction_id"
	ColDate            = "date"
	ColStoreID         = "store_id"
	ColStoreLocation   = "store_location"
	ColChannel         = "channel"
	ColCustomerID      = "customer_id"
	ColCustomerSegment = "customer_segment"
	ColProductCategory = "product_category"
	ColProductName     = "product_name"
	ColUnitPrice       = "unit_price"
	ColQuantity        = "quantity"
	ColDiscountPct     = "discount_pct"
	ColSalesAmount     = "sales_amount"
	ColPaymentMethod   = "payment_method"

	// legacyChannel is the name older exports used for the channel column.
	legacyChannel = "transaction_type"
)

// Columns is the persisted column order.
var Columns = []string{
	ColTransactionID, ColDate, ColStoreID, ColStoreLocation, ColChannel,
	ColCustomerID, ColCustomerSegment, ColProductCategory, ColProductName,
	ColUnitPrice, ColQuantity, ColDiscountPct, ColSalesAmount, ColPaymentMethod,
}

var ErrEmptyFile = errors.New("empty file")

func Write(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, tx := range txs {
		if err := cw.Write(Record(tx)); err != nil {
			return fmt.Errorf("write %s: %w", tx.TransactionID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Record formats tx as one row in Columns order.
func Record(tx models.Transaction) []string {
	return []string{
		tx.TransactionID,
		tx.Date.Format(DateLayout),
		tx.StoreID,
		tx.StoreLocation,
		tx.Channel,
		tx.CustomerID,
		tx.CustomerSegment,
		tx.ProductCategory,
		tx.ProductName,
		formatFloat(tx.UnitPrice),
		strconv.Itoa(tx.Quantity),
		formatFloat(tx.DiscountPct),
		formatFloat(tx.SalesAmount),
		tx.PaymentMethod,
	}
}

// WriteFile writes txs to path, creating parent directories as needed.
func WriteFile(path string, txs []models.Transaction) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if err := Write(f, txs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Frame is a persisted table read back as raw strings. Empty cells are null.
type Frame struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

func ReadFrame(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	f := &Frame{Header: header, index: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		f.Header[i] = name
		f.index[name] = i
	}
	if _, ok := f.index[ColChannel]; !ok {
		if i, ok := f.index[legacyChannel]; ok {
			f.index[ColChannel] = i
		}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(f.Rows)+1, err)
		}
		f.Rows = append(f.Rows, rec)
	}
	return f, nil
}

func ReadFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ReadFrame(file)
}

func (f *Frame) Len() int {
	return len(f.Rows)
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the raw values of a column, with nil for empty or missing
// cells. A column absent from the header yields all nils.
func (f *Frame) Column(name string) []any {
	out := make([]any, len(f.Rows))
	for i := range f.Rows {
		if v, ok := f.cell(i, name); ok {
			out[i] = v
		}
	}
	return out
}

func (f *Frame) cell(row int, name string) (string, bool) {
	i, ok := f.index[name]
	if !ok || i >= len(f.Rows[row]) {
		return "", false
	}
	v := f.Rows[row][i]
	if v == "" {
		return "", false
	}
	return v, true
}

func (f *Frame) str(row int, name string) string {
	v, _ := f.cell(row, name)
	return strings.TrimSpace(v)
}

// Dates parses the date column, with nil for values that do not parse.
func (f *Frame) Dates() []*time.Time {
	out := make([]*time.Time, len(f.Rows))
	for i := range f.Rows {
		if d, ok := parseDate(f.str(i, ColDate)); ok {
			out[i] = &d
		}
	}
	return out
}

// Transactions coerces the frame into typed records. Rows whose date or sales
// amount cannot be parsed are dropped and counted; other numeric fields that do
// not parse are left at zero.
func (f *Frame) Transactions() (txs []models.Transaction, dropped int) {
	txs = make([]models.Transaction, 0, len(f.Rows))
	for i := range f.Rows {
		date, ok := parseDate(f.str(i, ColDate))
		if !ok {
			dropped++
			continue
		}
		amount, ok := parseNumber(f.str(i, ColSalesAmount))
		if !ok {
			dropped++
			continue
		}

		tx := models.Transaction{
			TransactionID:   f.str(i, ColTransactionID),
			Date:            date,
			StoreID:         f.str(i, ColStoreID),
			StoreLocation:   f.str(i, ColStoreLocation),
			Channel:         f.str(i, ColChannel),
			CustomerID:      f.str(i, ColCustomerID),
			CustomerSegment: f.str(i, ColCustomerSegment),
			ProductCategory: f.str(i, ColProductCategory),
			ProductName:     f.str(i, ColProductName),
			SalesAmount:     amount,
			PaymentMethod:   f.str(i, ColPaymentMethod),
		}
		tx.UnitPrice, _ = parseNumber(f.str(i, ColUnitPrice))
		tx.DiscountPct, _ = parseNumber(f.str(i, ColDiscountPct))
		tx.Quantity = parseQuantity(f.str(i, ColQuantity))

		txs = append(txs, tx)
	}
	return txs, dropped
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, true
	}
	// Exports that went through a datetime column carry a midnight time.
	if d, err := time.Parse(time.DateTime, s); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// parseNumber parses a finite float. NaN and infinities count as nulls.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseQuantity(s string) int {
	if q, err := strconv.Atoi(s); err == nil {
		return q
	}
	if q, ok := parseNumber(s); ok && math.Abs(q) <= math.MaxInt32 {
		return int(q)
	}
	return 0
}
