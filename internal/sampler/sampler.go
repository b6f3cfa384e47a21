// Package sampler draws every random value of a run from an explicitly
// seeded source. Two samplers built from the same seed return identical
// sequences; nothing here touches the global generator.
package sampler

import (
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
)

// ErrExhausted is returned when rejection sampling gives up.
var ErrExhausted = errors.New("sampler: rejection sampling exhausted")

const (
	maxRejections   = 1000
	poissonNormalAt = 30
)

type Sampler struct {
	seed int64
	rand *rand.Rand
}

func New(seed int64) *Sampler {
	return &Sampler{
		seed: seed,
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (s *Sampler) Seed() int64 { return s.seed }

// Fork returns an independent sampler for stream. The child depends only on
// the parent seed and the stream name, never on draws already made.
func (s *Sampler) Fork(stream string) *Sampler {
	h := fnv.New64a()
	h.Write([]byte(stream))
	return New(s.seed ^ int64(h.Sum64()))
}

func (s *Sampler) Float64() float64 { return s.rand.Float64() }

// IntRange returns a uniform integer in [lo, hi].
func (s *Sampler) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rand.Intn(hi-lo+1)
}

// Float64Range returns a uniform value in [lo, hi).
func (s *Sampler) Float64Range(lo, hi float64) float64 {
	return lo + s.rand.Float64()*(hi-lo)
}

func (s *Sampler) Bernoulli(p float64) bool {
	return s.rand.Float64() < p
}

// Categorical returns a uniform index in [0, n).
func (s *Sampler) Categorical(n int) int {
	return s.rand.Intn(n)
}

// Pick returns a uniform element of items.
func Pick[T any](s *Sampler, items []T) T {
	return items[s.Categorical(len(items))]
}

func (s *Sampler) LogNormal(mu, sigma float64) float64 {
	return math.Exp(mu + sigma*s.rand.NormFloat64())
}

// PositiveMoney draws log-normal amounts until one stays positive after
// rounding to cents.
func (s *Sampler) PositiveMoney(mu, sigma float64) (float64, error) {
	for i := 0; i < maxRejections; i++ {
		v := dataset.RoundCents(s.LogNormal(mu, sigma))
		if v > 0 {
			return v, nil
		}
	}
	return 0, ErrExhausted
}

// Poisson uses Knuth's multiplication method for small lambda and a rounded
// normal approximation above it.
func (s *Sampler) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > poissonNormalAt {
		k := math.Round(lambda + math.Sqrt(lambda)*s.rand.NormFloat64())
		if k < 0 {
			return 0
		}
		return int(k)
	}
	limit := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= s.rand.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// Weights turns per-item weights into a cumulative table for WeightedIndex.
// A nil result means every weight was zero.
func Weights(weights []float64) []float64 {
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w > 0 {
			total += w
		}
		cum[i] = total
	}
	if total == 0 {
		return nil
	}
	return cum
}

// WeightedIndex picks an index with probability proportional to its weight.
// An empty table falls back to a uniform pick over n items.
func (s *Sampler) WeightedIndex(cumulative []float64, n int) int {
	if len(cumulative) == 0 {
		return s.Categorical(n)
	}
	target := s.rand.Float64() * cumulative[len(cumulative)-1]
	i := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > target })
	if i >= len(cumulative) {
		i = len(cumulative) - 1
	}
	return i
}

// DateBetween returns a uniform calendar date in [from, to], both inclusive.
func (s *Sampler) DateBetween(from, to time.Time) time.Time {
	from, to = day(from), day(to)
	span := int(to.Sub(from).Hours() / 24)
	if span <= 0 {
		return from
	}
	return from.AddDate(0, 0, s.IntRange(0, span))
}

// SampleIndexes picks k distinct indexes of [0, n) and returns them sorted.
func (s *Sampler) SampleIndexes(n, k int) []int {
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if k == n {
		return idx
	}
	for i := 0; i < k; i++ {
		j := i + s.rand.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := idx[:k]
	sort.Ints(out)
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
