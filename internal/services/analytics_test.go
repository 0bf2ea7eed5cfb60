package services

import (
	"strings"
	"testing"
	"time"

	"urbanmart-dashboard/internal/dataset"
	"urbanmart-dashboard/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testTransactions() []models.Transaction {
	return []models.Transaction{
		{
			TransactionID:   "T0000001",
			Date:            date(2024, 1, 1), // Monday
			StoreID:         "S001",
			StoreLocation:   "Downtown",
			Channel:         "Online",
			CustomerID:      "C00001",
			CustomerSegment: "Premium",
			ProductCategory: "Electronics",
			ProductName:     "Smart Speaker",
			UnitPrice:       60.00,
			Quantity:        2,
			DiscountPct:     0.10,
			SalesAmount:     108.00,
			PaymentMethod:   "Card",
		},
		{
			TransactionID:   "T0000002",
			Date:            date(2024, 1, 2), // Tuesday
			StoreID:         "S002",
			StoreLocation:   "Uptown",
			Channel:         "In-store",
			CustomerID:      "C00002",
			CustomerSegment: "Budget",
			ProductCategory: "Groceries",
			ProductName:     "Rice 5kg",
			UnitPrice:       18.00,
			Quantity:        1,
			SalesAmount:     18.00,
			PaymentMethod:   "Cash",
		},
		{
			TransactionID:   "T0000003",
			Date:            date(2024, 1, 2),
			StoreID:         "S001",
			StoreLocation:   "Downtown",
			Channel:         "In-store",
			CustomerID:      "C00001",
			CustomerSegment: "Premium",
			ProductCategory: "Groceries",
			ProductName:     "Coffee 250g",
			UnitPrice:       6.00,
			Quantity:        3,
			SalesAmount:     18.00,
			PaymentMethod:   "Wallet",
		},
		{
			TransactionID:   "T0000004",
			Date:            date(2024, 2, 4), // Sunday
			StoreID:         "S003",
			StoreLocation:   "Midtown",
			Channel:         "Online",
			CustomerID:      "C00003",
			CustomerSegment: "Regular",
			ProductCategory: "Clothing",
			ProductName:     "Jeans",
			UnitPrice:       35.00,
			Quantity:        1,
			SalesAmount:     35.00,
			PaymentMethod:   "UPI",
		},
	}
}

func newTestAnalytics() *Analytics {
	a := NewAnalytics()
	a.SetData(testTransactions())
	return a
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
}

func TestAnalytics_KPIs(t *testing.T) {
	a := newTestAnalytics()

	k := a.KPIs(Filter{})
	if k.TotalSales != 179.00 {
		t.Errorf("TotalSales = %v, want 179", k.TotalSales)
	}
	if k.Orders != 4 {
		t.Errorf("Orders = %d, want 4", k.Orders)
	}
	if k.Customers != 3 {
		t.Errorf("Customers = %d, want 3", k.Customers)
	}
	if k.AvgOrderValue != 179.00/4 {
		t.Errorf("AvgOrderValue = %v, want %v", k.AvgOrderValue, 179.00/4)
	}

	empty := a.KPIs(Filter{Stores: []string{"S999"}})
	if empty.Orders != 0 || empty.AvgOrderValue != 0 {
		t.Errorf("empty subset should have zero KPIs, got %+v", empty)
	}
}

func TestAnalytics_CategoryPerformance(t *testing.T) {
	a := newTestAnalytics()
	result := a.CategoryPerformance(Filter{})

	if len(result) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(result))
	}
	if result[0].Category != "Electronics" {
		t.Errorf("top category = %q, want Electronics", result[0].Category)
	}
	for i := 1; i < len(result); i++ {
		if result[i-1].Revenue < result[i].Revenue {
			t.Error("CategoryPerformance() should be sorted by revenue descending")
		}
	}

	var groceries models.CategoryPerformance
	for _, c := range result {
		if c.Category == "Groceries" {
			groceries = c
		}
	}
	if groceries.Revenue != 36 || groceries.Orders != 2 || groceries.Customers != 2 || groceries.Units != 4 {
		t.Errorf("unexpected groceries aggregate: %+v", groceries)
	}
	if groceries.AOV != 18 {
		t.Errorf("groceries AOV = %v, want 18", groceries.AOV)
	}
}

func TestAnalytics_DailyAndWeekday(t *testing.T) {
	a := newTestAnalytics()

	daily := a.DailyRevenue(Filter{})
	want := []models.DailyRevenue{
		{Day: "2024-01-01", Revenue: 108},
		{Day: "2024-01-02", Revenue: 36},
		{Day: "2024-02-04", Revenue: 35},
	}
	if len(daily) != len(want) {
		t.Fatalf("daily = %+v, want %+v", daily, want)
	}
	for i := range want {
		if daily[i] != want[i] {
			t.Errorf("daily[%d] = %+v, want %+v", i, daily[i], want[i])
		}
	}

	weekdays := a.WeekdayRevenue(Filter{})
	var names []string
	for _, w := range weekdays {
		names = append(names, w.Weekday)
	}
	if got := strings.Join(names, ","); got != "Monday,Tuesday,Sunday" {
		t.Errorf("weekday order = %s, want Monday,Tuesday,Sunday", got)
	}

	monthly := a.MonthlyRevenue(Filter{})
	if len(monthly) != 2 || monthly[0].Month != "2024-01" || monthly[0].Revenue != 144 {
		t.Errorf("unexpected monthly revenue: %+v", monthly)
	}
}

func TestAnalytics_StorePerformance(t *testing.T) {
	a := newTestAnalytics()
	result := a.StorePerformance(Filter{})

	if len(result) != 3 {
		t.Fatalf("expected 3 stores, got %d", len(result))
	}
	if result[0].StoreID != "S001" || result[0].StoreLocation != "Downtown" {
		t.Errorf("top store = %+v, want S001 Downtown", result[0])
	}
	if result[0].Revenue != 126 || result[0].Orders != 2 {
		t.Errorf("S001 aggregate = %+v", result[0])
	}
}

func TestAnalytics_TopCustomers(t *testing.T) {
	a := newTestAnalytics()

	all := a.TopCustomers(Filter{}, 10)
	if len(all) != 3 {
		t.Fatalf("expected 3 customers, got %d", len(all))
	}
	top := all[0]
	if top.CustomerID != "C00001" || top.TotalSpend != 126 || top.Orders != 2 {
		t.Errorf("top customer = %+v", top)
	}
	if !top.LastPurchase.Equal(date(2024, 1, 2)) {
		t.Errorf("last purchase = %v, want 2024-01-02", top.LastPurchase)
	}
	if top.AvgOrderValue != 63 {
		t.Errorf("avg order value = %v, want 63", top.AvgOrderValue)
	}

	limited := a.TopCustomers(Filter{}, 2)
	if len(limited) != 2 {
		t.Errorf("TopCustomers() should limit to 2, got %d", len(limited))
	}
}

func TestAnalytics_Filters(t *testing.T) {
	a := newTestAnalytics()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 4},
		{"date range", Filter{Start: date(2024, 1, 2), End: date(2024, 1, 31)}, 2},
		{"end inclusive with time of day", Filter{End: time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)}, 1},
		{"store", Filter{Stores: []string{"S001"}}, 2},
		{"category", Filter{Categories: []string{"Groceries", "Clothing"}}, 3},
		{"channel", Filter{Channels: []string{"Online"}}, 2},
		{"combined", Filter{Stores: []string{"S001"}, Channels: []string{"In-store"}}, 1},
		{"no match", Filter{Categories: []string{"Toys"}}, 0},
		{"cleared store list", Filter{Stores: []string{}}, 0},
		{"cleared channel list", Filter{Channels: []string{}, Stores: []string{"S001"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(a.Filtered(tt.filter)); got != tt.want {
				t.Errorf("Filtered() = %d rows, want %d", got, tt.want)
			}
		})
	}
}

func TestAnalytics_Summarize(t *testing.T) {
	a := newTestAnalytics()
	s := a.Summarize(Filter{Channels: []string{"In-store"}}, 5)

	if s.Rows != 2 {
		t.Errorf("Rows = %d, want 2", s.Rows)
	}
	if s.KPIs.TotalSales != 36 {
		t.Errorf("TotalSales = %v, want 36", s.KPIs.TotalSales)
	}
	if len(s.Categories) != 1 || s.Categories[0].Category != "Groceries" {
		t.Errorf("unexpected categories: %+v", s.Categories)
	}
	if len(s.Customers) != 2 {
		t.Errorf("unexpected customers: %+v", s.Customers)
	}
}

func TestAnalytics_FilterOptions(t *testing.T) {
	a := newTestAnalytics()
	opts := a.FilterOptions()

	if !opts.MinDate.Equal(date(2024, 1, 1)) || !opts.MaxDate.Equal(date(2024, 2, 4)) {
		t.Errorf("date range = %v..%v", opts.MinDate, opts.MaxDate)
	}
	if strings.Join(opts.Stores, ",") != "S001,S002,S003" {
		t.Errorf("stores = %v", opts.Stores)
	}
	if strings.Join(opts.Categories, ",") != "Clothing,Electronics,Groceries" {
		t.Errorf("categories = %v", opts.Categories)
	}
	if strings.Join(opts.Channels, ",") != "In-store,Online" {
		t.Errorf("channels = %v", opts.Channels)
	}
}

func TestAnalytics_Preview(t *testing.T) {
	a := newTestAnalytics()
	if got := len(a.Preview(Filter{}, 2)); got != 2 {
		t.Errorf("Preview(2) = %d rows", got)
	}
	if got := len(a.Preview(Filter{}, DefaultPreviewRows)); got != 4 {
		t.Errorf("Preview(200) = %d rows", got)
	}
}

func TestAnalytics_LoadFrame(t *testing.T) {
	csv := strings.Join(dataset.Columns, ",") + "\n" +
		"T0000001,2024-01-02,S001,Downtown,Online,C00001,Budget,Groceries,Rice 5kg,18.5,2,0.05,35.15,Card\n" +
		"T0000002,bogus,S002,Uptown,In-store,C00002,Regular,Clothing,Jeans,35,1,0,35,Cash\n"

	frame, err := dataset.ReadFrame(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}

	a := NewAnalytics()
	if err := a.LoadFrame("test.csv", frame); err != nil {
		t.Fatalf("LoadFrame() error = %v", err)
	}

	stats := a.Stats()
	if stats["record_count"] != 1 {
		t.Errorf("record_count = %v, want 1", stats["record_count"])
	}
	if stats["dropped_rows"] != 1 {
		t.Errorf("dropped_rows = %v, want 1", stats["dropped_rows"])
	}
	if stats["source"] != "test.csv" {
		t.Errorf("source = %v", stats["source"])
	}
	if records, dropped := a.Counts(); records != 1 || dropped != 1 {
		t.Errorf("Counts() = %d, %d; want 1, 1", records, dropped)
	}
}

func TestAnalytics_LoadFrame_AllInvalid(t *testing.T) {
	csv := strings.Join(dataset.Columns, ",") + "\n" +
		"T0000001,bogus,S001,Downtown,Online,C00001,Budget,Groceries,Rice 5kg,18.5,2,0.05,35.15,Card\n"

	frame, err := dataset.ReadFrame(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if err := NewAnalytics().LoadFrame("bad.csv", frame); err == nil {
		t.Error("LoadFrame() should fail when no rows survive coercion")
	}
	if err := NewAnalytics().LoadFrame("nil", nil); err == nil {
		t.Error("LoadFrame(nil) should fail")
	}
}

func TestAnalytics_ChannelCounts(t *testing.T) {
	counts := newTestAnalytics().ChannelCounts()
	if counts.Online != 2 || counts.InStore != 2 {
		t.Errorf("ChannelCounts() = %+v, want 2/2", counts)
	}
}

func TestCountChannels(t *testing.T) {
	values := []any{"Online", "ONLINE ", "in-store", "InStore", "in store", nil, 42, "other"}
	got := CountChannels(values)

	if got.Online != 2 {
		t.Errorf("Online = %d, want 2", got.Online)
	}
	if got.InStore != 3 {
		t.Errorf("InStore = %d, want 3", got.InStore)
	}

	if empty := CountChannels(nil); empty != (models.ChannelCounts{}) {
		t.Errorf("CountChannels(nil) = %+v", empty)
	}
}

func TestClampTopN(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 10}, {-3, 10}, {1, 5}, {5, 5}, {25, 25}, {50, 50}, {51, 50},
	}
	for _, tt := range tests {
		if got := ClampTopN(tt.in); got != tt.want {
			t.Errorf("ClampTopN(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := newTestAnalytics()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- true }()

			_ = a.Summarize(Filter{}, 10)
			_ = a.FilterOptions()
			_ = a.Stats()
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestAnalytics_EmptyData(t *testing.T) {
	a := NewAnalytics()

	s := a.Summarize(Filter{}, 10)
	if s.Rows != 0 || len(s.Categories) != 0 || len(s.Customers) != 0 || len(s.Daily) != 0 {
		t.Errorf("empty analytics should produce empty summary, got %+v", s)
	}
	if s.Categories == nil {
		t.Error("empty aggregates should be empty slices, not nil")
	}
}

func BenchmarkAnalytics_Summarize(b *testing.B) {
	a := NewAnalytics()
	base := testTransactions()
	data := make([]models.Transaction, 0, 20000)
	for i := 0; i < 5000; i++ {
		data = append(data, base...)
	}
	a.SetData(data)

	b.ResetTimer()
	for b.Loop() {
		_ = a.Summarize(Filter{}, DefaultTopCustomers)
	}
}
