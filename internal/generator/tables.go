package generator

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidTables is returned when the static distribution tables cannot be
// sampled from.
var ErrInvalidTables = errors.New("invalid generator tables")

const weightTolerance = 1e-9

type Store struct {
	ID       string
	Location string
	Weight   float64
}

type Product struct {
	Name      string
	BasePrice float64
}

// QuantityRange is inclusive on both ends.
type QuantityRange struct {
	Min int
	Max int
}

// Weighted is a categorical distribution over Values.
type Weighted[T any] struct {
	Values  []T
	Weights []float64
}

// Tables holds every static lookup and distribution the generator samples from.
// A Tables value is treated as read-only once handed to New.
type Tables struct {
	Stores   []Store
	Channels Weighted[string]
	Segments Weighted[string]

	Categories      []string
	CategoryWeights []float64
	// OnlineShift is added to CategoryWeights for online transactions before
	// renormalizing.
	OnlineShift map[string]float64

	Catalog    map[string][]Product
	Quantities map[string]QuantityRange
	Discounts  map[string]Weighted[float64]

	PaymentMethods []string
	PaymentWeights map[string][]float64

	PriceNoiseMin float64
	PriceNoiseMax float64
	CustomerCount int
}

func DefaultTables() *Tables {
	staples := Weighted[float64]{
		Values:  []float64{0, 0.05, 0.10, 0.15},
		Weights: []float64{0.55, 0.25, 0.15, 0.05},
	}

	return &Tables{
		Stores: []Store{
			{ID: "S001", Location: "Downtown", Weight: 0.22},
			{ID: "S002", Location: "Uptown", Weight: 0.18},
			{ID: "S003", Location: "Midtown", Weight: 0.20},
			{ID: "S004", Location: "Riverside", Weight: 0.14},
			{ID: "S005", Location: "Tech Park", Weight: 0.16},
			{ID: "S006", Location: "Old Town", Weight: 0.10},
		},
		Channels: Weighted[string]{
			Values:  []string{"Online", "In-store"},
			Weights: []float64{0.35, 0.65},
		},
		Segments: Weighted[string]{
			Values:  []string{"Budget", "Regular", "Premium"},
			Weights: []float64{0.35, 0.50, 0.15},
		},
		Categories:      []string{"Groceries", "Beverages", "Household", "Personal Care", "Electronics", "Clothing"},
		CategoryWeights: []float64{0.32, 0.14, 0.16, 0.14, 0.12, 0.12},
		OnlineShift: map[string]float64{
			"Electronics": 0.05,
			"Groceries":   -0.03,
			"Household":   -0.02,
		},
		Catalog: map[string][]Product{
			"Groceries": {
				{"Rice 5kg", 18.0}, {"Pasta Pack", 2.5}, {"Olive Oil 1L", 10.0},
				{"Breakfast Cereal", 4.5}, {"Coffee 250g", 6.0},
			},
			"Beverages": {
				{"Sparkling Water 6-pack", 4.0}, {"Orange Juice", 3.5},
				{"Soda 12-pack", 7.5}, {"Green Tea Box", 3.0},
			},
			"Household": {
				{"Laundry Detergent", 9.0}, {"Dish Soap", 3.0},
				{"Paper Towels", 6.5}, {"Trash Bags", 5.0},
			},
			"Personal Care": {
				{"Shampoo", 6.0}, {"Toothpaste", 2.5},
				{"Body Wash", 5.5}, {"Deodorant", 4.0},
			},
			"Electronics": {
				{"Wireless Earbuds", 45.0}, {"Phone Charger", 15.0},
				{"Smart Speaker", 60.0}, {"Power Bank", 25.0},
			},
			"Clothing": {
				{"T-Shirt", 12.0}, {"Jeans", 35.0},
				{"Sneakers", 55.0}, {"Jacket", 70.0},
			},
		},
		Quantities: map[string]QuantityRange{
			"Groceries":     {1, 5},
			"Beverages":     {1, 5},
			"Household":     {1, 5},
			"Personal Care": {1, 5},
			"Clothing":      {1, 3},
			"Electronics":   {1, 2},
		},
		Discounts: map[string]Weighted[float64]{
			"Groceries": {
				Values:  []float64{0, 0.05, 0.10},
				Weights: []float64{0.75, 0.18, 0.07},
			},
			"Beverages":     staples,
			"Household":     staples,
			"Personal Care": staples,
			"Clothing": {
				Values:  []float64{0, 0.10, 0.20, 0.30},
				Weights: []float64{0.35, 0.35, 0.20, 0.10},
			},
			"Electronics": {
				Values:  []float64{0, 0.05, 0.10, 0.15, 0.20},
				Weights: []float64{0.40, 0.25, 0.20, 0.10, 0.05},
			},
		},
		PaymentMethods: []string{"Card", "Cash", "Wallet", "UPI"},
		PaymentWeights: map[string][]float64{
			"In-store": {0.45, 0.25, 0.15, 0.15},
			"Online":   {0.55, 0.00, 0.25, 0.20},
		},
		PriceNoiseMin: 0.95,
		PriceNoiseMax: 1.10,
		CustomerCount: 5000,
	}
}

// Validate reports every problem found in the tables, wrapped in
// ErrInvalidTables.
func (t *Tables) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(t.Stores) == 0 {
		add("store table is empty")
	}
	storeWeights := make([]float64, len(t.Stores))
	seen := make(map[string]bool, len(t.Stores))
	for i, s := range t.Stores {
		if s.ID == "" || s.Location == "" {
			add("store %d: id and location are required", i)
		}
		if seen[s.ID] {
			add("store %q listed twice", s.ID)
		}
		seen[s.ID] = true
		storeWeights[i] = s.Weight
	}
	if err := checkWeights(storeWeights); err != nil {
		add("store weights: %w", err)
	}

	if err := checkDistribution(t.Channels.Values, t.Channels.Weights); err != nil {
		add("channels: %w", err)
	}
	if err := checkDistribution(t.Segments.Values, t.Segments.Weights); err != nil {
		add("segments: %w", err)
	}
	if t.CustomerCount < 1 {
		add("customer count must be positive, got %d", t.CustomerCount)
	}

	if err := checkDistribution(t.Categories, t.CategoryWeights); err != nil {
		add("categories: %w", err)
	}
	for cat := range t.OnlineShift {
		if !slices.Contains(t.Categories, cat) {
			add("online shift names unknown category %q", cat)
		}
	}
	if _, err := t.onlineCategoryWeights(); err != nil {
		add("online categories: %w", err)
	}

	for _, cat := range t.Categories {
		products := t.Catalog[cat]
		if len(products) == 0 {
			add("category %q has an empty catalog", cat)
		}
		for _, p := range products {
			if p.BasePrice <= 0 {
				add("product %q in %q has non-positive base price %v", p.Name, cat, p.BasePrice)
			}
		}

		q, ok := t.Quantities[cat]
		if !ok {
			add("category %q has no quantity range", cat)
		} else if q.Min < 1 || q.Max < q.Min {
			add("category %q has invalid quantity range %d-%d", cat, q.Min, q.Max)
		}

		d, ok := t.Discounts[cat]
		if !ok {
			add("category %q has no discount distribution", cat)
			continue
		}
		if err := checkDistribution(d.Values, d.Weights); err != nil {
			add("discounts for %q: %w", cat, err)
		}
		for _, v := range d.Values {
			if v < 0 || v >= 1 {
				add("discount %v for %q outside [0, 1)", v, cat)
			}
		}
	}

	for _, ch := range t.Channels.Values {
		w, ok := t.PaymentWeights[ch]
		if !ok {
			add("channel %q has no payment distribution", ch)
			continue
		}
		if err := checkDistribution(t.PaymentMethods, w); err != nil {
			add("payment methods for %q: %w", ch, err)
		}
	}

	if t.PriceNoiseMin <= 0 || t.PriceNoiseMax < t.PriceNoiseMin {
		add("invalid price noise range [%v, %v]", t.PriceNoiseMin, t.PriceNoiseMax)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTables, errors.Join(errs...))
	}
	return nil
}

// onlineCategoryWeights applies OnlineShift to the base category weights and
// renormalizes the result to sum to 1.
func (t *Tables) onlineCategoryWeights() ([]float64, error) {
	if len(t.CategoryWeights) != len(t.Categories) {
		return nil, fmt.Errorf("%d categories but %d weights", len(t.Categories), len(t.CategoryWeights))
	}
	out := slices.Clone(t.CategoryWeights)
	for i, cat := range t.Categories {
		out[i] += t.OnlineShift[cat]
	}
	var sum float64
	for i, w := range out {
		if w < 0 {
			return nil, fmt.Errorf("shifted weight for %q is negative", t.Categories[i])
		}
		sum += w
	}
	if sum <= 0 {
		return nil, errors.New("shifted weights sum to zero")
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

func checkDistribution[T any](values []T, weights []float64) error {
	if len(values) == 0 {
		return errors.New("no values")
	}
	if len(values) != len(weights) {
		return fmt.Errorf("%d values but %d weights", len(values), len(weights))
	}
	return checkWeights(weights)
}

func checkWeights(weights []float64) error {
	var sum float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("weight %d is %v", i, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights sum to %v, want 1", sum)
	}
	return nil
}
