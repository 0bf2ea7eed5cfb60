package services

import (
	"slices"
	"time"

	"urbanmart-dashboard/internal/models"
)

// Filter restricts the working subset before every aggregate. Zero dates are
// unbounded. A nil list selects every value; a non-nil empty list selects none,
// which is what a cleared multi-select means.
type Filter struct {
	Start      time.Time
	End        time.Time
	Stores     []string
	Categories []string
	Channels   []string
}

// Match reports whether tx falls inside the filter. Start and End are
// compared by calendar day and are both inclusive.
func (f Filter) Match(tx models.Transaction) bool {
	if !f.Start.IsZero() && tx.Date.Before(day(f.Start)) {
		return false
	}
	if !f.End.IsZero() && tx.Date.After(day(f.End)) {
		return false
	}
	if f.Stores != nil && !slices.Contains(f.Stores, tx.StoreID) {
		return false
	}
	if f.Categories != nil && !slices.Contains(f.Categories, tx.ProductCategory) {
		return false
	}
	if f.Channels != nil && !slices.Contains(f.Channels, tx.Channel) {
		return false
	}
	return true
}

func (f Filter) Apply(data []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(data))
	for _, tx := range data {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
