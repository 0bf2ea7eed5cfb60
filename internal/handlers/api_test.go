package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"urbanmart-dashboard/internal/dataset"
	"urbanmart-dashboard/internal/errors"
	"urbanmart-dashboard/internal/models"
	"urbanmart-dashboard/internal/services"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	a.SetLogger(testLogger)
	a.SetData([]models.Transaction{
		{
			TransactionID:   "T0000001",
			Date:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			StoreID:         "S001",
			StoreLocation:   "Downtown",
			Channel:         models.ChannelOnline,
			CustomerID:      "C00001",
			CustomerSegment: "Premium",
			ProductCategory: "Electronics",
			ProductName:     "Smart Speaker",
			UnitPrice:       60,
			Quantity:        2,
			DiscountPct:     0.1,
			SalesAmount:     108,
			PaymentMethod:   "Card",
		},
		{
			TransactionID:   "T0000002",
			Date:            time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			StoreID:         "S002",
			StoreLocation:   "Uptown",
			Channel:         models.ChannelInStore,
			CustomerID:      "C00002",
			CustomerSegment: "Budget",
			ProductCategory: "Groceries",
			ProductName:     "Rice 5kg",
			UnitPrice:       18,
			Quantity:        1,
			SalesAmount:     18,
			PaymentMethod:   "Cash",
		},
		{
			TransactionID:   "T0000003",
			Date:            time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC),
			StoreID:         "S001",
			StoreLocation:   "Downtown",
			Channel:         models.ChannelInStore,
			CustomerID:      "C00001",
			CustomerSegment: "Premium",
			ProductCategory: "Clothing",
			ProductName:     "Jeans",
			UnitPrice:       35,
			Quantity:        1,
			SalesAmount:     35,
			PaymentMethod:   "Wallet",
		},
	})
	return a
}

type envelope struct {
	Data    json.RawMessage  `json:"data"`
	Error   *errors.AppError `json:"error"`
	Success bool             `json:"success"`
}

func doGet(t *testing.T, h http.HandlerFunc, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, target, nil))

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return w, env
}

func TestAPIHandlers_KPIs(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	w, env := doGet(t, h.HandleKPIs(), "/api/kpis")
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var k models.KPIs
	if err := json.Unmarshal(env.Data, &k); err != nil {
		t.Fatal(err)
	}
	if k.TotalSales != 161 || k.Orders != 3 || k.Customers != 2 {
		t.Errorf("unexpected KPIs %+v", k)
	}
}

func TestAPIHandlers_KPIsSkipNonFiniteAmounts(t *testing.T) {
	csv := strings.Join(dataset.Columns, ",") + "\n" +
		"T0000001,2024-01-02,S001,Downtown,Online,C00001,Budget,Groceries,Rice 5kg,10.5,1,0,10.5,Card\n" +
		"T0000002,2024-01-03,S001,Downtown,Online,C00002,Budget,Groceries,Rice 5kg,10.5,1,0,NaN,Card\n" +
		"T0000003,2024-01-04,S001,Downtown,Online,C00003,Budget,Groceries,Rice 5kg,10.5,1,0,-Infinity,Card\n"
	frame, err := dataset.ReadFrame(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}

	a := services.NewAnalytics()
	a.SetLogger(testLogger)
	if err := a.LoadFrame("sales.csv", frame); err != nil {
		t.Fatal(err)
	}
	if records, dropped := a.Counts(); records != 1 || dropped != 2 {
		t.Fatalf("Counts() = %d, %d; want 1, 2", records, dropped)
	}

	h := NewAPIHandlers(a, nil, testLogger)
	w, env := doGet(t, h.HandleKPIs(), "/api/kpis")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
	var k models.KPIs
	if err := json.Unmarshal(env.Data, &k); err != nil {
		t.Fatal(err)
	}
	if k.TotalSales != 10.5 || k.Orders != 1 {
		t.Errorf("unexpected KPIs %+v", k)
	}
}

func TestAPIHandlers_Filters(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"no filter", "", 161},
		{"single store", "store=S002", 18},
		{"repeated stores", "store=S001&store=S002", 161},
		{"comma separated", "store=S001,S002", 161},
		{"channel", "channel=In-store", 53},
		{"date range inclusive", "start=2024-01-01&end=2024-01-02", 126},
		{"category and store", "category=Clothing&store=S001", 35},
		{"no match", "category=Beverages", 0},
		{"blank store parameter", "store=", 161},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doGet(t, h.HandleKPIs(), "/api/kpis?"+tt.query)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			var k models.KPIs
			if err := json.Unmarshal(env.Data, &k); err != nil {
				t.Fatal(err)
			}
			if k.TotalSales != tt.want {
				t.Errorf("total sales = %v, want %v", k.TotalSales, tt.want)
			}
		})
	}
}

func TestAPIHandlers_InvalidFilter(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	tests := []struct {
		name  string
		query url.Values
	}{
		{"bad start", url.Values{"start": {"01/02/2024"}}},
		{"end before start", url.Values{"start": {"2024-02-01"}, "end": {"2024-01-01"}}},
		{"top too small", url.Values{"top": {"2"}}},
		{"top too large", url.Values{"top": {"100"}}},
		{"top not a number", url.Values{"top": {"ten"}}},
		{"limit too large", url.Values{"limit": {"9999"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doGet(t, h.HandleTopCustomers(), "/api/customers?"+tt.query.Encode())
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if env.Success || env.Error == nil || env.Error.Code != errors.CodeValidation {
				t.Errorf("unexpected envelope: %s", w.Body.String())
			}
		})
	}
}

func TestAPIHandlers_TopCustomers(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	_, env := doGet(t, h.HandleTopCustomers(), "/api/customers?top=5")
	var customers []models.CustomerValue
	if err := json.Unmarshal(env.Data, &customers); err != nil {
		t.Fatal(err)
	}
	if len(customers) != 2 {
		t.Fatalf("got %d customers, want 2", len(customers))
	}
	if customers[0].CustomerID != "C00001" || customers[0].TotalSpend != 143 {
		t.Errorf("unexpected top customer %+v", customers[0])
	}
}

func TestAPIHandlers_Summary(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	_, env := doGet(t, h.HandleSummary(), "/api/summary")
	var s services.Summary
	if err := json.Unmarshal(env.Data, &s); err != nil {
		t.Fatal(err)
	}
	if s.Rows != 3 || len(s.Categories) != 3 || len(s.Stores) != 2 || len(s.Monthly) != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.Categories[0].Category != "Electronics" {
		t.Errorf("categories should be sorted by revenue, got %q first", s.Categories[0].Category)
	}
}

func TestAPIHandlers_Series(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	for _, tc := range []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"daily", h.HandleDailyRevenue(), `"day":"2024-01-01"`},
		{"weekday", h.HandleWeekdayRevenue(), `"weekday":"Monday"`},
		{"monthly", h.HandleMonthlyRevenue(), `"month":"2024-02"`},
		{"stores", h.HandleStores(), `"store_location":"Uptown"`},
		{"categories", h.HandleCategories(), `"product_category":"Groceries"`},
		{"preview", h.HandlePreview(), `"transaction_id":"T0000001"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tc.handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tc.want) {
				t.Errorf("response %s does not contain %s", w.Body.String(), tc.want)
			}
		})
	}
}

func TestAPIHandlers_PreviewLimit(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	_, env := doGet(t, h.HandlePreview(), "/api/preview?limit=1")
	var rows []models.Transaction
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
}

func TestAPIHandlers_OptionsAndChannels(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	_, env := doGet(t, h.HandleOptions, "/api/options")
	var opts models.FilterOptions
	if err := json.Unmarshal(env.Data, &opts); err != nil {
		t.Fatal(err)
	}
	if len(opts.Stores) != 2 || len(opts.Channels) != 2 {
		t.Errorf("unexpected options %+v", opts)
	}

	_, env = doGet(t, h.HandleChannels, "/api/channels")
	var counts models.ChannelCounts
	if err := json.Unmarshal(env.Data, &counts); err != nil {
		t.Fatal(err)
	}
	if counts.Online != 1 || counts.InStore != 2 {
		t.Errorf("unexpected channel counts %+v", counts)
	}
}

func TestAPIHandlers_Health(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	w, env := doGet(t, h.HandleHealth, "/health")
	if w.Code != http.StatusOK || !strings.Contains(string(env.Data), `"status":"healthy"`) {
		t.Errorf("unexpected health response %d: %s", w.Code, w.Body.String())
	}

	empty := NewAPIHandlers(services.NewAnalytics(), nil, testLogger)
	w, _ = doGet(t, empty.HandleHealth, "/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("empty analytics health status = %d, want 503", w.Code)
	}
}

func TestAPIHandlers_Stats(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger)

	_, env := doGet(t, h.HandleStats, "/admin/stats")
	var stats map[string]any
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats["record_count"] != float64(3) || stats["source"] != "memory" {
		t.Errorf("unexpected stats %v", stats)
	}
}

func BenchmarkAPIHandlers_Summary(b *testing.B) {
	h := NewAPIHandlers(createTestAnalytics(), nil, testLogger).HandleSummary()
	req := httptest.NewRequest(http.MethodGet, "/api/summary?store=S001", nil)

	for b.Loop() {
		h(httptest.NewRecorder(), req)
	}
}
