package generator

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"urbanmart-dashboard/internal/models"
)

const (
	DateLayout = "2006-01-02"

	// pcgStream is the fixed second half of the PCG state; the seed supplies
	// the first.
	pcgStream = 0x5eed_0fa1_e5da_7a00
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Params struct {
	Count int       `validate:"gte=0"`
	Seed  int64     `validate:"-"`
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required,gtefield=Start"`
}

// DefaultParams mirrors the dataset shipped with the dashboard.
func DefaultParams() Params {
	return Params{
		Count: 25000,
		Seed:  42,
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

type Generator struct {
	tables *Tables
	logger *slog.Logger

	locations      map[string]string
	store          categorical
	channel        categorical
	categoryBase   categorical
	categoryOnline categorical
	discount       map[string]categorical
	payment        map[string]categorical
}

// New validates tables and prepares the samplers. The tables must not be
// modified afterwards.
func New(tables *Tables, logger *slog.Logger) (*Generator, error) {
	if tables == nil {
		return nil, fmt.Errorf("%w: nil tables", ErrInvalidTables)
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Generator{
		tables:    tables,
		logger:    logger,
		locations: make(map[string]string, len(tables.Stores)),
		discount:  make(map[string]categorical, len(tables.Categories)),
		payment:   make(map[string]categorical, len(tables.Channels.Values)),
	}

	storeWeights := make([]float64, len(tables.Stores))
	for i, s := range tables.Stores {
		g.locations[s.ID] = s.Location
		storeWeights[i] = s.Weight
	}

	online, err := tables.onlineCategoryWeights()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}

	// Validate has already checked every weight vector, so these only fail on
	// programmer error.
	g.store = mustCategorical(storeWeights)
	g.channel = mustCategorical(tables.Channels.Weights)
	g.categoryBase = mustCategorical(tables.CategoryWeights)
	g.categoryOnline = mustCategorical(online)
	for _, cat := range tables.Categories {
		g.discount[cat] = mustCategorical(tables.Discounts[cat].Weights)
	}
	for _, ch := range tables.Channels.Values {
		g.payment[ch] = mustCategorical(tables.PaymentWeights[ch])
	}

	return g, nil
}

func mustCategorical(weights []float64) categorical {
	c, err := newCategorical(weights)
	if err != nil {
		panic(err)
	}
	return c
}

func (g *Generator) Tables() *Tables {
	return g.tables
}

// Location returns the fixed location of a store id.
func (g *Generator) Location(storeID string) (string, bool) {
	loc, ok := g.locations[storeID]
	return loc, ok
}

// NewRand returns the random source used for a given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

// Generate builds a customer pool and a batch of transactions from a single
// source seeded with p.Seed. Equal params always yield equal output.
func (g *Generator) Generate(p Params) ([]models.Transaction, *CustomerPool, error) {
	if err := validate.Struct(p); err != nil {
		return nil, nil, fmt.Errorf("invalid params: %w", err)
	}

	rng := NewRand(p.Seed)
	pool, err := NewCustomerPool(rng, g.tables.CustomerCount, g.tables.Segments)
	if err != nil {
		return nil, nil, fmt.Errorf("build customer pool: %w", err)
	}

	txs, err := g.GenerateWith(rng, pool, p)
	if err != nil {
		return nil, nil, err
	}
	return txs, pool, nil
}

// GenerateWith draws p.Count transactions from rng using an existing pool.
// p.Seed is ignored.
func (g *Generator) GenerateWith(rng *rand.Rand, pool *CustomerPool, p Params) ([]models.Transaction, error) {
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if pool == nil || pool.Len() == 0 {
		return nil, fmt.Errorf("customer pool is empty")
	}

	start := time.Now()
	n := p.Count
	txs := make([]models.Transaction, n)

	first := civilDate(p.Start)
	days := int(civilDate(p.End).Sub(first).Hours()/24) + 1
	for i := range txs {
		txs[i].Date = first.AddDate(0, 0, rng.IntN(days))
	}

	for i := range txs {
		s := g.tables.Stores[g.store.draw(rng)]
		txs[i].StoreID = s.ID
		txs[i].StoreLocation = g.locations[s.ID]
	}

	for i := range txs {
		txs[i].Channel = g.tables.Channels.Values[g.channel.draw(rng)]
	}

	for i := range txs {
		dist := g.categoryBase
		if txs[i].Channel == models.ChannelOnline {
			dist = g.categoryOnline
		}
		txs[i].ProductCategory = g.tables.Categories[dist.draw(rng)]
	}

	for i := range txs {
		items := g.tables.Catalog[txs[i].ProductCategory]
		item := items[rng.IntN(len(items))]
		noise := uniform(rng, g.tables.PriceNoiseMin, g.tables.PriceNoiseMax)
		txs[i].ProductName = item.Name
		txs[i].UnitPrice = roundCents(item.BasePrice * noise)
	}

	for i := range txs {
		q := g.tables.Quantities[txs[i].ProductCategory]
		txs[i].Quantity = intBetween(rng, q.Min, q.Max)
	}

	for i := range txs {
		cat := txs[i].ProductCategory
		txs[i].DiscountPct = g.tables.Discounts[cat].Values[g.discount[cat].draw(rng)]
	}

	for i := range txs {
		c := pool.Draw(rng)
		txs[i].CustomerID = c.ID
		txs[i].CustomerSegment = c.Segment
	}

	for i := range txs {
		ch := txs[i].Channel
		txs[i].PaymentMethod = g.tables.PaymentMethods[g.payment[ch].draw(rng)]
	}

	for i := range txs {
		txs[i].SalesAmount = SalesAmount(txs[i].UnitPrice, txs[i].Quantity, txs[i].DiscountPct)
		txs[i].TransactionID = fmt.Sprintf("T%07d", i+1)
	}

	slices.SortStableFunc(txs, func(a, b models.Transaction) int {
		return a.Date.Compare(b.Date)
	})

	g.logger.Debug("generated transactions",
		"count", n,
		"days", days,
		"customers", pool.Len(),
		"duration", time.Since(start),
	)

	return txs, nil
}

// SalesAmount is the net amount of a line: price times quantity less the
// discount, rounded to cents.
func SalesAmount(unitPrice float64, quantity int, discountPct float64) float64 {
	gross := decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	net := gross.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discountPct)))
	return net.Round(2).InexactFloat64()
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
