package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"urbanmart-dashboard/internal/models"
)

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.943 generate

// Fragment ids patched by the SSE endpoints.
const (
	KPIsID       = "kpis"
	CategoriesID = "category-content"
	StoresID     = "store-content"
	WeekdaysID   = "weekday-content"
	DailyID      = "daily-content"
	CustomersID  = "customer-content"
	RawDataID    = "raw-content"
	FilterErrID  = "filter-error"
)

const dateLayout = "2006-01-02"

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func count(n int) string {
	return printer.Sprintf("%d", n)
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func decimal2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Render writes c to a string for use as an SSE element patch.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Signals is the client filter state bound to the dashboard controls.
type Signals struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Stores     []string `json:"stores"`
	Categories []string `json:"categories"`
	Channels   []string `json:"channels"`
	Top        int      `json:"top"`
}

// InitialSignals selects the full date range and every option.
func InitialSignals(opts models.FilterOptions, top int) Signals {
	s := Signals{
		Stores:     nonNil(opts.Stores),
		Categories: nonNil(opts.Categories),
		Channels:   nonNil(opts.Channels),
		Top:        top,
	}
	if !opts.MinDate.IsZero() {
		s.Start = opts.MinDate.Format(dateLayout)
		s.End = opts.MaxDate.Format(dateLayout)
	}
	return s
}

// pageSignals adds the browser-local chart series to the filter state.
type pageSignals struct {
	Signals
	Monthly []models.MonthlyRevenue `json:"_monthly"`
	Rows    int                     `json:"_rows"`
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// signalsJSON is the data-signals value of the page body.
func signalsJSON(initial Signals) (string, error) {
	b, err := json.Marshal(pageSignals{
		Signals: initial,
		Monthly: []models.MonthlyRevenue{},
	})
	if err != nil {
		return "", fmt.Errorf("encoding initial signals: %w", err)
	}
	return string(b), nil
}

type kpiCard struct {
	Label string
	Value string
}

func kpiCards(k models.KPIs) []kpiCard {
	return []kpiCard{
		{"Total Sales", money(k.TotalSales)},
		{"Orders", count(k.Orders)},
		{"Customers", count(k.Customers)},
		{"Avg Order Value", money(k.AvgOrderValue)},
	}
}

func weekdayPeak(rows []models.WeekdayRevenue) float64 {
	var peak float64
	for _, r := range rows {
		peak = max(peak, r.Revenue)
	}
	return peak
}

func barWidth(revenue, peak float64) string {
	return fmt.Sprintf("width:%.1f%%", revenue/peak*100)
}

func shortDay(weekday string) string {
	if len(weekday) > 3 {
		return weekday[:3]
	}
	return weekday
}

// Chart area of the daily trend, in SVG user units.
const (
	trendWidth  = 800.0
	trendHeight = 200.0
)

type trendPoint struct {
	X, Y  string
	Label string
}

type trendChart struct {
	Caption  string
	ViewBox  string
	Polyline string
	Points   []trendPoint
}

// plotTrend scales daily revenue onto the chart area, highest day at the top.
// A chart with no points means there is nothing to draw.
func plotTrend(days []models.DailyRevenue) trendChart {
	var peak float64
	best := 0
	for i, d := range days {
		if d.Revenue > peak {
			peak, best = d.Revenue, i
		}
	}
	if peak == 0 {
		return trendChart{}
	}

	step := 0.0
	if len(days) > 1 {
		step = trendWidth / float64(len(days)-1)
	}
	chart := trendChart{
		Caption: printer.Sprintf("%d days, best day %s with %s", len(days), days[best].Day, money(peak)),
		ViewBox: fmt.Sprintf("-4 -4 %.0f %.0f", trendWidth+8, trendHeight+8),
		Points:  make([]trendPoint, len(days)),
	}
	coords := make([]string, len(days))
	for i, d := range days {
		p := trendPoint{
			X:     fmt.Sprintf("%.1f", float64(i)*step),
			Y:     fmt.Sprintf("%.1f", trendHeight-d.Revenue/peak*trendHeight),
			Label: d.Day + ": " + money(d.Revenue),
		}
		chart.Points[i] = p
		coords[i] = p.X + "," + p.Y
	}
	chart.Polyline = strings.Join(coords, " ")
	return chart
}

func rowsCaption(shown, total int) string {
	return printer.Sprintf("Showing %d of %d filtered rows", shown, total)
}
