package models

import "time"

const (
	ChannelOnline  = "Online"
	ChannelInStore = "In-store"
)

type Transaction struct {
	TransactionID   string    `json:"transaction_id"`
	Date            time.Time `json:"date"`
	StoreID         string    `json:"store_id"`
	StoreLocation   string    `json:"store_location"`
	Channel         string    `json:"channel"`
	CustomerID      string    `json:"customer_id"`
	CustomerSegment string    `json:"customer_segment"`
	ProductCategory string    `json:"product_category"`
	ProductName     string    `json:"product_name"`
	UnitPrice       float64   `json:"unit_price"`
	Quantity        int       `json:"quantity"`
	DiscountPct     float64   `json:"discount_pct"`
	SalesAmount     float64   `json:"sales_amount"`
	PaymentMethod   string    `json:"payment_method"`
}

type KPIs struct {
	TotalSales    float64 `json:"total_sales"`
	Orders        int     `json:"orders"`
	Customers     int     `json:"customers"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

type CategoryPerformance struct {
	Category  string  `json:"product_category"`
	Revenue   float64 `json:"revenue"`
	Orders    int     `json:"orders"`
	Customers int     `json:"customers"`
	Units     int     `json:"units"`
	AOV       float64 `json:"aov"`
}

type DailyRevenue struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
}

type WeekdayRevenue struct {
	Weekday string  `json:"weekday"`
	Revenue float64 `json:"revenue"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type StorePerformance struct {
	StoreID       string  `json:"store_id"`
	StoreLocation string  `json:"store_location"`
	Revenue       float64 `json:"revenue"`
	Orders        int     `json:"orders"`
}

type CustomerValue struct {
	CustomerID      string    `json:"customer_id"`
	CustomerSegment string    `json:"customer_segment"`
	TotalSpend      float64   `json:"total_spend"`
	Orders          int       `json:"orders"`
	LastPurchase    time.Time `json:"last_purchase"`
	AvgOrderValue   float64   `json:"avg_order_value"`
}

type ChannelCounts struct {
	Online  int `json:"online"`
	InStore int `json:"in_store"`
}

type FilterOptions struct {
	MinDate    time.Time `json:"min_date"`
	MaxDate    time.Time `json:"max_date"`
	Stores     []string  `json:"stores"`
	Categories []string  `json:"categories"`
	Channels   []string  `json:"channels"`
}
