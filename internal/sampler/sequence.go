package sampler

import "fmt"

type Kind string

const (
	KindUniform   Kind = "uniform"
	KindLogNormal Kind = "lognormal"
	KindPoisson   Kind = "poisson"
	KindIntRange  Kind = "int_range"
	KindBernoulli Kind = "bernoulli"
)

// Spec names a distribution and its parameters. A and B are interpreted per
// kind: (lo, hi) for ranges, (mu, sigma) for lognormal, lambda or p in A.
type Spec struct {
	Kind Kind
	A, B float64
}

// Draw returns n values of spec from a fresh sampler seeded with seed.
func Draw(seed int64, spec Spec, n int) ([]float64, error) {
	s := New(seed)
	out := make([]float64, n)
	for i := range out {
		switch spec.Kind {
		case KindUniform:
			out[i] = s.Float64Range(spec.A, spec.B)
		case KindLogNormal:
			out[i] = s.LogNormal(spec.A, spec.B)
		case KindPoisson:
			out[i] = float64(s.Poisson(spec.A))
		case KindIntRange:
			out[i] = float64(s.IntRange(int(spec.A), int(spec.B)))
		case KindBernoulli:
			if s.Bernoulli(spec.A) {
				out[i] = 1
			}
		default:
			return nil, fmt.Errorf("sampler: unknown distribution %q", spec.Kind)
		}
	}
	return out, nil
}
