package gpr

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Posterior sampling.
//
// A draw from the joint posterior at m query points is
//
//	sample = mean + L_post·z,  z ~ N(0, I_m)
//
// where L_post is the Cholesky factor of the m×m posterior covariance.
// The posterior is factored once per Sample call; each of the n_samples
// draws then costs O(m²).
//////

// Sample draws random vectors from the joint posterior distribution at
// the query points.
//
// Parameters:
// - queries: Query input vectors, each of the model's dimensionality
// - nSamples: Number of draws to return
// - seed: Seed for the draw sequence; equal seeds produce equal draws
//
// Returns:
//   - [][]float64: nSamples vectors of length len(queries)
//   - error: ErrEmptyTrainingSet, ErrDimensionMismatch, or
//     ErrNotPositiveDefinite when the posterior covariance cannot be
//     factored even with jitter recovery (for example, when two query
//     points coincide)
//
// Determinism:
//   - Draws come from a PCG source seeded only by the seed argument, so
//     a fixed model, query set, and seed always reproduce the same
//     samples.
//
// Sample takes the read lock and may run concurrently with other
// readers.
func (m *Model) Sample(queries [][]float64, nSamples int, seed uint64) ([][]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mean, cov, err := m.predictJointLocked(queries)
	if err != nil {
		return nil, err
	}

	if len(queries) == 0 || nSamples <= 0 {
		return make([][]float64, 0), nil
	}

	// The posterior covariance is a fresh, typically much smaller
	// matrix; it gets its own factorization under the same jitter
	// policy as the training factor.
	factor, err := factorize(cov, m.jitter, m.logger)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}

	normal := distuv.Normal{
		Mu:    0,
		Sigma: 1,
		Src:   rand.NewPCG(seed, seed),
	}

	samples := make([][]float64, 0, nSamples)
	z := make([]float64, len(queries))

	for s := 0; s < nSamples; s++ {
		for i := range z {
			z[i] = normal.Rand()
		}

		draw := make([]float64, len(queries))
		for i := range draw {
			// Row i of the lower-triangular factor only touches z[0..i].
			draw[i] = mean[i] + floats.Dot(factor.row(i), z[:i+1])
		}

		samples = append(samples, draw)
	}

	return samples, nil
}
