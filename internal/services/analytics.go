package services

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"urbanmart-dashboard/internal/dataset"
	"urbanmart-dashboard/internal/models"
)

const (
	DefaultTopCustomers = 10
	MinTopCustomers     = 5
	MaxTopCustomers     = 50
	DefaultPreviewRows  = 200
)

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Summary is every dashboard aggregate computed over one filtered subset.
type Summary struct {
	KPIs       models.KPIs                  `json:"kpis"`
	Categories []models.CategoryPerformance `json:"categories"`
	Daily      []models.DailyRevenue        `json:"daily"`
	Weekdays   []models.WeekdayRevenue      `json:"weekdays"`
	Monthly    []models.MonthlyRevenue      `json:"monthly"`
	Stores     []models.StorePerformance    `json:"stores"`
	Customers  []models.CustomerValue       `json:"customers"`
	Rows       int                          `json:"rows"`
}

// Analytics holds the loaded table and answers aggregate queries over
// filtered views of it. The table itself is never modified after loading.
type Analytics struct {
	mu       sync.RWMutex
	data     []models.Transaction
	options  models.FilterOptions
	dropped  int
	source   string
	loadedAt time.Time
	logger   *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		logger: slog.Default(),
	}
}

func (a *Analytics) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

func (a *Analytics) SetData(data []models.Transaction) {
	a.replace(data, 0, "memory")
}

func (a *Analytics) replace(data []models.Transaction, dropped int, source string) {
	options := filterOptions(data)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.data = data
	a.options = options
	a.dropped = dropped
	a.source = source
	a.loadedAt = time.Now()
}

// LoadFrame coerces a persisted frame and replaces the current table. Rows
// with an unparseable date or sales amount are dropped.
func (a *Analytics) LoadFrame(source string, f *dataset.Frame) error {
	if f == nil {
		return fmt.Errorf("nil frame")
	}
	data, dropped := f.Transactions()
	if len(data) == 0 && f.Len() > 0 {
		return fmt.Errorf("no valid records found in %s", source)
	}

	a.replace(data, dropped, source)

	if dropped > 0 {
		a.logger.Warn("dropped unparseable rows", "source", source, "dropped", dropped)
	}
	a.logger.Info("analytics table ready", "source", source, "records", len(data))
	return nil
}

func (a *Analytics) Filtered(f Filter) []models.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return f.Apply(a.data)
}

func (a *Analytics) Summarize(f Filter, topN int) *Summary {
	rows := a.Filtered(f)
	return &Summary{
		KPIs:       kpis(rows),
		Categories: categoryPerformance(rows),
		Daily:      dailyRevenue(rows),
		Weekdays:   weekdayRevenue(rows),
		Monthly:    monthlyRevenue(rows),
		Stores:     storePerformance(rows),
		Customers:  topCustomers(rows, topN),
		Rows:       len(rows),
	}
}

func (a *Analytics) KPIs(f Filter) models.KPIs {
	return kpis(a.Filtered(f))
}

func (a *Analytics) CategoryPerformance(f Filter) []models.CategoryPerformance {
	return categoryPerformance(a.Filtered(f))
}

func (a *Analytics) DailyRevenue(f Filter) []models.DailyRevenue {
	return dailyRevenue(a.Filtered(f))
}

func (a *Analytics) WeekdayRevenue(f Filter) []models.WeekdayRevenue {
	return weekdayRevenue(a.Filtered(f))
}

func (a *Analytics) MonthlyRevenue(f Filter) []models.MonthlyRevenue {
	return monthlyRevenue(a.Filtered(f))
}

func (a *Analytics) StorePerformance(f Filter) []models.StorePerformance {
	return storePerformance(a.Filtered(f))
}

func (a *Analytics) TopCustomers(f Filter, limit int) []models.CustomerValue {
	return topCustomers(a.Filtered(f), limit)
}

// Preview returns the first limit rows of the filtered table.
func (a *Analytics) Preview(f Filter, limit int) []models.Transaction {
	rows := a.Filtered(f)
	if limit >= 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func (a *Analytics) FilterOptions() models.FilterOptions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.options
}

func (a *Analytics) ChannelCounts() models.ChannelCounts {
	a.mu.RLock()
	defer a.mu.RUnlock()

	values := make([]any, len(a.data))
	for i, tx := range a.data {
		values[i] = tx.Channel
	}
	return CountChannels(values)
}

// Counts returns the number of loaded records and of rows dropped while
// loading them.
func (a *Analytics) Counts() (records, dropped int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data), a.dropped
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count": len(a.data),
		"dropped_rows": a.dropped,
		"source":       a.source,
		"last_loaded":  a.loadedAt,
		"stores":       len(a.options.Stores),
		"categories":   len(a.options.Categories),
		"channels":     len(a.options.Channels),
		"min_date":     a.options.MinDate,
		"max_date":     a.options.MaxDate,
	}
}

// ClampTopN keeps a requested customer count inside the dashboard's slider
// range, falling back to the default for non-positive input.
func ClampTopN(n int) int {
	switch {
	case n <= 0:
		return DefaultTopCustomers
	case n < MinTopCustomers:
		return MinTopCustomers
	case n > MaxTopCustomers:
		return MaxTopCustomers
	}
	return n
}

func filterOptions(data []models.Transaction) models.FilterOptions {
	var opts models.FilterOptions
	stores := map[string]bool{}
	categories := map[string]bool{}
	channels := map[string]bool{}

	for i, tx := range data {
		if i == 0 || tx.Date.Before(opts.MinDate) {
			opts.MinDate = tx.Date
		}
		if i == 0 || tx.Date.After(opts.MaxDate) {
			opts.MaxDate = tx.Date
		}
		stores[tx.StoreID] = true
		categories[tx.ProductCategory] = true
		channels[tx.Channel] = true
	}

	opts.Stores = sortedKeys(stores)
	opts.Categories = sortedKeys(categories)
	opts.Channels = sortedKeys(channels)
	return opts
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func kpis(rows []models.Transaction) models.KPIs {
	var k models.KPIs
	orders := map[string]struct{}{}
	customers := map[string]struct{}{}
	for _, tx := range rows {
		k.TotalSales += tx.SalesAmount
		orders[tx.TransactionID] = struct{}{}
		customers[tx.CustomerID] = struct{}{}
	}
	k.Orders = len(orders)
	k.Customers = len(customers)
	if k.Orders > 0 {
		k.AvgOrderValue = k.TotalSales / float64(k.Orders)
	}
	return k
}

type categoryGroup struct {
	perf      models.CategoryPerformance
	orders    map[string]struct{}
	customers map[string]struct{}
}

func categoryPerformance(rows []models.Transaction) []models.CategoryPerformance {
	groups := make(map[string]*categoryGroup)
	for _, tx := range rows {
		g := groups[tx.ProductCategory]
		if g == nil {
			g = &categoryGroup{
				perf:      models.CategoryPerformance{Category: tx.ProductCategory},
				orders:    map[string]struct{}{},
				customers: map[string]struct{}{},
			}
			groups[tx.ProductCategory] = g
		}
		g.perf.Revenue += tx.SalesAmount
		g.perf.Units += tx.Quantity
		g.orders[tx.TransactionID] = struct{}{}
		g.customers[tx.CustomerID] = struct{}{}
	}

	result := make([]models.CategoryPerformance, 0, len(groups))
	for _, g := range groups {
		g.perf.Orders = len(g.orders)
		g.perf.Customers = len(g.customers)
		if g.perf.Orders > 0 {
			g.perf.AOV = g.perf.Revenue / float64(g.perf.Orders)
		}
		result = append(result, g.perf)
	}
	slices.SortFunc(result, func(a, b models.CategoryPerformance) int {
		return byRevenueDesc(a.Revenue, b.Revenue, a.Category, b.Category)
	})
	return result
}

func dailyRevenue(rows []models.Transaction) []models.DailyRevenue {
	groups := make(map[string]float64)
	for _, tx := range rows {
		groups[tx.Date.Format(dataset.DateLayout)] += tx.SalesAmount
	}

	result := make([]models.DailyRevenue, 0, len(groups))
	for d, revenue := range groups {
		result = append(result, models.DailyRevenue{Day: d, Revenue: revenue})
	}
	slices.SortFunc(result, func(a, b models.DailyRevenue) int {
		return strings.Compare(a.Day, b.Day)
	})
	return result
}

func weekdayRevenue(rows []models.Transaction) []models.WeekdayRevenue {
	groups := make(map[time.Weekday]float64)
	for _, tx := range rows {
		groups[tx.Date.Weekday()] += tx.SalesAmount
	}

	result := make([]models.WeekdayRevenue, 0, len(groups))
	for _, wd := range weekdayOrder {
		if revenue, ok := groups[wd]; ok {
			result = append(result, models.WeekdayRevenue{Weekday: wd.String(), Revenue: revenue})
		}
	}
	return result
}

func monthlyRevenue(rows []models.Transaction) []models.MonthlyRevenue {
	groups := make(map[string]float64)
	for _, tx := range rows {
		groups[tx.Date.Format("2006-01")] += tx.SalesAmount
	}

	result := make([]models.MonthlyRevenue, 0, len(groups))
	for m, revenue := range groups {
		result = append(result, models.MonthlyRevenue{Month: m, Revenue: revenue})
	}
	slices.SortFunc(result, func(a, b models.MonthlyRevenue) int {
		return strings.Compare(a.Month, b.Month)
	})
	return result
}

type storeGroup struct {
	perf   models.StorePerformance
	orders map[string]struct{}
}

func storePerformance(rows []models.Transaction) []models.StorePerformance {
	groups := make(map[[2]string]*storeGroup)
	for _, tx := range rows {
		key := [2]string{tx.StoreID, tx.StoreLocation}
		g := groups[key]
		if g == nil {
			g = &storeGroup{
				perf:   models.StorePerformance{StoreID: tx.StoreID, StoreLocation: tx.StoreLocation},
				orders: map[string]struct{}{},
			}
			groups[key] = g
		}
		g.perf.Revenue += tx.SalesAmount
		g.orders[tx.TransactionID] = struct{}{}
	}

	result := make([]models.StorePerformance, 0, len(groups))
	for _, g := range groups {
		g.perf.Orders = len(g.orders)
		result = append(result, g.perf)
	}
	slices.SortFunc(result, func(a, b models.StorePerformance) int {
		return byRevenueDesc(a.Revenue, b.Revenue, a.StoreID, b.StoreID)
	})
	return result
}

type customerGroup struct {
	value  models.CustomerValue
	orders map[string]struct{}
}

// topCustomers ranks customers by total spend. A negative limit returns
// every customer.
func topCustomers(rows []models.Transaction, limit int) []models.CustomerValue {
	groups := make(map[[2]string]*customerGroup)
	for _, tx := range rows {
		key := [2]string{tx.CustomerID, tx.CustomerSegment}
		g := groups[key]
		if g == nil {
			g = &customerGroup{
				value: models.CustomerValue{
					CustomerID:      tx.CustomerID,
					CustomerSegment: tx.CustomerSegment,
				},
				orders: map[string]struct{}{},
			}
			groups[key] = g
		}
		g.value.TotalSpend += tx.SalesAmount
		g.orders[tx.TransactionID] = struct{}{}
		if tx.Date.After(g.value.LastPurchase) {
			g.value.LastPurchase = tx.Date
		}
	}

	result := make([]models.CustomerValue, 0, len(groups))
	for _, g := range groups {
		g.value.Orders = len(g.orders)
		if g.value.Orders > 0 {
			g.value.AvgOrderValue = g.value.TotalSpend / float64(g.value.Orders)
		}
		result = append(result, g.value)
	}
	slices.SortFunc(result, func(a, b models.CustomerValue) int {
		return byRevenueDesc(a.TotalSpend, b.TotalSpend, a.CustomerID, b.CustomerID)
	})

	if limit >= 0 && len(result) > limit {
		return result[:limit]
	}
	return result
}

// byRevenueDesc orders by revenue, highest first, then by key ascending.
func byRevenueDesc(ra, rb float64, ka, kb string) int {
	if ra > rb {
		return -1
	}
	if ra < rb {
		return 1
	}
	return strings.Compare(ka, kb)
}
