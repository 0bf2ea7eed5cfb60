package generator

import (
	"fmt"
	"math/rand/v2"
)

type Customer struct {
	ID      string
	Segment string
}

// CustomerPool is the fixed set of customers transactions are drawn from. Each
// customer's segment is decided once, when the pool is built.
type CustomerPool struct {
	customers []Customer
	segments  map[string]string
}

func NewCustomerPool(rng *rand.Rand, size int, segments Weighted[string]) (*CustomerPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("customer pool size must be positive, got %d", size)
	}
	if err := checkDistribution(segments.Values, segments.Weights); err != nil {
		return nil, fmt.Errorf("segments: %w", err)
	}
	dist, err := newCategorical(segments.Weights)
	if err != nil {
		return nil, fmt.Errorf("segments: %w", err)
	}

	pool := &CustomerPool{
		customers: make([]Customer, size),
		segments:  make(map[string]string, size),
	}
	for i := range pool.customers {
		pool.customers[i].ID = fmt.Sprintf("C%05d", i+1)
	}
	for i := range pool.customers {
		c := &pool.customers[i]
		c.Segment = segments.Values[dist.draw(rng)]
		pool.segments[c.ID] = c.Segment
	}
	return pool, nil
}

func (p *CustomerPool) Len() int {
	return len(p.customers)
}

// Segment looks up the segment assigned to id at pool creation.
func (p *CustomerPool) Segment(id string) (string, bool) {
	s, ok := p.segments[id]
	return s, ok
}

// Draw picks a customer uniformly, with replacement.
func (p *CustomerPool) Draw(rng *rand.Rand) Customer {
	return p.customers[rng.IntN(len(p.customers))]
}
