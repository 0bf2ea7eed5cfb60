// Package report prints the plain-text sanity checks run against a persisted
// sales dataset.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"urbanmart-dashboard/internal/dataset"
	"urbanmart-dashboard/internal/models"
	"urbanmart-dashboard/internal/services"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// Sanity holds the figures printed by Write.
type Sanity struct {
	Rows       int
	StoreIDs   []string
	MinDate    *time.Time
	MaxDate    *time.Time
	Categories []string
	Locations  map[string]string
	Channels   models.ChannelCounts
}

// Check computes the sanity figures for a frame. Null cells are ignored
// everywhere; dates that do not parse are excluded from the range.
func Check(f *dataset.Frame) Sanity {
	s := Sanity{
		Rows:       f.Len(),
		StoreIDs:   distinct(f.Column(dataset.ColStoreID)),
		Categories: distinct(f.Column(dataset.ColProductCategory)),
		Locations:  map[string]string{},
		Channels:   services.CountChannels(f.Column(dataset.ColChannel)),
	}

	for _, d := range f.Dates() {
		if d == nil {
			continue
		}
		if s.MinDate == nil || d.Before(*s.MinDate) {
			s.MinDate = d
		}
		if s.MaxDate == nil || d.After(*s.MaxDate) {
			s.MaxDate = d
		}
	}

	ids := f.Column(dataset.ColStoreID)
	locs := f.Column(dataset.ColStoreLocation)
	for i := range ids {
		id, ok1 := ids[i].(string)
		loc, ok2 := locs[i].(string)
		if ok1 && ok2 {
			s.Locations[id] = loc
		}
	}
	return s
}

// Write prints the sanity report for f, introduced with storeName.
func Write(w io.Writer, storeName string, f *dataset.Frame) error {
	s := Check(f)
	p := message.NewPrinter(language.English)

	var b strings.Builder
	p.Fprintf(&b, "Welcome to %s Sales Analysis\n", storeName)

	b.WriteString("\n--- Sanity Checks ---\n")
	p.Fprintf(&b, "Total number of rows: %d\n", s.Rows)
	fmt.Fprintf(&b, "Unique store IDs: %s\n", listString(s.StoreIDs))
	fmt.Fprintf(&b, "Date range (min to max): %s to %s\n", formatDate(s.MinDate), formatDate(s.MaxDate))

	b.WriteString("\nProduct categories list:\n")
	fmt.Fprintf(&b, "%s\n", listString(s.Categories))

	b.WriteString("\nStore dictionary (store_id -> store_location):\n")
	keys := make([]string, 0, len(s.Locations))
	for k := range s.Locations {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s -> %s\n", k, s.Locations[k])
	}

	b.WriteString("\nManual transaction counts:\n")
	p.Fprintf(&b, "Online: %d\n", s.Channels.Online)
	p.Fprintf(&b, "In-store: %d\n", s.Channels.InStore)

	_, err := io.WriteString(w, b.String())
	return err
}

func distinct(values []any) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		s, ok := v.(string)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func listString(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "NaT"
	}
	return t.Format(dateTimeLayout)
}
