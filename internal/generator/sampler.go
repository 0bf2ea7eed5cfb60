package generator

import (
	"errors"
	"math/rand/v2"
	"sort"
)

// categorical draws indexes in proportion to a fixed weight vector.
type categorical struct {
	cum []float64
}

func newCategorical(weights []float64) (categorical, error) {
	if len(weights) == 0 {
		return categorical{}, errors.New("no weights")
	}
	cum := make([]float64, len(weights))
	var total float64
	for i, w := range weights {
		if w < 0 {
			return categorical{}, errors.New("negative weight")
		}
		total += w
		cum[i] = total
	}
	if total <= 0 {
		return categorical{}, errors.New("weights sum to zero")
	}
	return categorical{cum: cum}, nil
}

// draw never returns an index whose weight is zero.
func (c categorical) draw(rng *rand.Rand) int {
	u := rng.Float64() * c.cum[len(c.cum)-1]
	return sort.Search(len(c.cum), func(i int) bool { return c.cum[i] > u })
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// intBetween returns an integer in [lo, hi].
func intBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}
