package sampler

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawIsReproducible(t *testing.T) {
	specs := []Spec{
		{Kind: KindUniform, A: 0, B: 1},
		{Kind: KindLogNormal, A: 3, B: 1},
		{Kind: KindPoisson, A: 4},
		{Kind: KindPoisson, A: 80},
		{Kind: KindIntRange, A: 1, B: 3},
		{Kind: KindBernoulli, A: 0.05},
	}
	for _, spec := range specs {
		a, err := Draw(99, spec, 200)
		require.NoError(t, err)
		b, err := Draw(99, spec, 200)
		require.NoError(t, err)
		assert.Equal(t, a, b, "kind %s", spec.Kind)

		c, err := Draw(100, spec, 200)
		require.NoError(t, err)
		if spec.Kind != KindBernoulli {
			assert.NotEqual(t, a, c, "kind %s should depend on the seed", spec.Kind)
		}
	}

	_, err := Draw(1, Spec{Kind: "zipf"}, 1)
	assert.Error(t, err)
}

func TestForkIsIndependentOfParentDraws(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 50; i++ {
		b.Float64()
	}
	fa, fb := a.Fork("orders"), b.Fork("orders")
	for i := 0; i < 20; i++ {
		assert.Equal(t, fa.Float64(), fb.Float64())
	}
	assert.NotEqual(t, New(7).Fork("orders").Float64(), New(7).Fork("payments").Float64())
}

func TestIntRangeIsInclusive(t *testing.T) {
	s := New(1)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := s.IntRange(1, 3)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 3)
		seen[v] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 5, s.IntRange(5, 5))
}

func TestPoissonMean(t *testing.T) {
	for _, lambda := range []float64{2, 45} {
		s := New(3)
		const n = 20000
		sum := 0
		for i := 0; i < n; i++ {
			sum += s.Poisson(lambda)
		}
		mean := float64(sum) / n
		assert.InDelta(t, lambda, mean, 4*math.Sqrt(lambda/n), "lambda %g", lambda)
	}
	assert.Equal(t, 0, New(3).Poisson(0))
}

func TestPositiveMoney(t *testing.T) {
	s := New(11)
	for i := 0; i < 1000; i++ {
		v, err := s.PositiveMoney(3, 1)
		require.NoError(t, err)
		require.Greater(t, v, 0.0)
		require.Equal(t, math.Round(v*100)/100, v)
	}

	_, err := s.PositiveMoney(-40, 0.1)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestWeightedIndex(t *testing.T) {
	s := New(5)
	cum := Weights([]float64{0, 3, 0, 1})
	counts := make([]int, 4)
	for i := 0; i < 4000; i++ {
		counts[s.WeightedIndex(cum, 4)]++
	}
	assert.Zero(t, counts[0])
	assert.Zero(t, counts[2])
	assert.InDelta(t, 3000, counts[1], 200)

	assert.Nil(t, Weights([]float64{0, 0}))
	idx := s.WeightedIndex(nil, 2)
	assert.Contains(t, []int{0, 1}, idx)
}

func TestDateBetweenIsInclusive(t *testing.T) {
	s := New(8)
	from := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		d := s.DateBetween(from, to)
		seen[d.Format("2006-01-02")] = true
		require.Zero(t, d.Hour())
	}
	assert.Equal(t, map[string]bool{"2024-01-01": true, "2024-01-02": true, "2024-01-03": true}, seen)
	assert.Equal(t, to, s.DateBetween(to, to))
}

func TestSampleIndexes(t *testing.T) {
	s := New(2)
	got := s.SampleIndexes(100, 10)
	require.Len(t, got, 10)
	assert.IsIncreasing(t, got)
	assert.Equal(t, []int{0, 1, 2}, s.SampleIndexes(3, 3))
	assert.Len(t, s.SampleIndexes(3, 9), 3)
}
