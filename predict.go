package gpr

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//////
// Posterior prediction.
//
// Per query point x:
//
//	k    = covariance vector between x and the training inputs
//	mean = prior(x) + k·alpha                    (O(n))
//	w    = L⁻¹·k by forward substitution          (O(n²))
//	var  = kernel(x, x) − w·w
//
// Joint mode extends the same solve to full posterior covariance
// between query points: cov[i][j] = k(q_i, q_j) − w_i·w_j.
//////

// Predict returns the marginal posterior (mean and per-point variance)
// at each query point.
//
// Parameters:
// - queries: Query input vectors, each of the model's dimensionality
//
// Returns:
//   - []Prediction: Mean, variance, and the Clamped instability
//     diagnostic per query, in query order
//   - error: ErrEmptyTrainingSet or ErrDimensionMismatch
//
// Cost is O(m·n²) for m queries over n training points. Predict takes
// the read lock and may run concurrently with other readers; results
// are computed on demand and never cached.
func (m *Model) Predict(queries [][]float64) ([]Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkQueries(queries); err != nil {
		return nil, err
	}

	preds := make([]Prediction, len(queries))
	for i, x := range queries {
		preds[i] = m.predictOne(x)
	}

	return preds, nil
}

// PredictJoint returns the posterior mean vector and the full m×m
// posterior covariance among the query points.
//
// The covariance is over latent function values (no observation noise
// on the diagonal). Cost is O(m·n²) for the solves plus O(m²·n) for the
// covariance block. An empty query set returns nil results and no
// error.
func (m *Model) PredictJoint(queries [][]float64) ([]float64, *mat.SymDense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.predictJointLocked(queries)
}

// predictJointLocked is PredictJoint without locking, shared with the
// sampler (which already holds the read lock).
func (m *Model) predictJointLocked(queries [][]float64) ([]float64, *mat.SymDense, error) {
	if err := m.checkQueries(queries); err != nil {
		return nil, nil, err
	}

	if len(queries) == 0 {
		return nil, nil, nil
	}

	mean := make([]float64, len(queries))
	ws := make([][]float64, len(queries))

	for i, x := range queries {
		k := covarianceVector(m.inputs, x, m.kernel)
		mean[i] = m.prior.Value(x) + floats.Dot(k, m.alpha)
		ws[i] = m.factor.forwardSolve(k)
	}

	cov := crossCovariance(queries, m.kernel)
	for i := range queries {
		for j := i; j < len(queries); j++ {
			cov.SetSym(i, j, cov.At(i, j)-floats.Dot(ws[i], ws[j]))
		}
	}

	return mean, cov, nil
}

// PredictBatch computes marginal predictions in parallel across worker
// goroutines. Batch prediction over independent query points is
// embarrassingly parallel: every worker only reads the trained factor
// and alpha, which no reader may mutate.
//
// workers <= 1 degrades to the sequential Predict. Results are
// identical to Predict regardless of worker count.
func (m *Model) PredictBatch(queries [][]float64, workers int) ([]Prediction, error) {
	if workers <= 1 {
		return m.Predict(queries)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkQueries(queries); err != nil {
		return nil, err
	}

	if workers > len(queries) {
		workers = len(queries)
	}

	preds := make([]Prediction, len(queries))

	var wg sync.WaitGroup

	// Contiguous chunks, one per worker; each worker writes only its
	// own slots.
	chunk := (len(queries) + workers - 1) / workers
	for start := 0; start < len(queries); start += chunk {
		end := start + chunk
		if end > len(queries) {
			end = len(queries)
		}

		wg.Add(1)

		go func(start, end int) {
			defer wg.Done()

			for i := start; i < end; i++ {
				preds[i] = m.predictOne(queries[i])
			}
		}(start, end)
	}

	wg.Wait()

	return preds, nil
}

// predictOne computes the marginal posterior at a single validated
// query point. Callers hold at least the read lock.
func (m *Model) predictOne(x []float64) Prediction {
	k := covarianceVector(m.inputs, x, m.kernel)

	mean := m.prior.Value(x) + floats.Dot(k, m.alpha)

	w := m.factor.forwardSolve(k)
	variance := m.kernel.EvaluateDiag(x) - floats.Dot(w, w)

	// A negative raw variance is numerical noise from a near-singular
	// covariance; report 0 and flag it rather than propagating the
	// negative value.
	if variance < 0 {
		return Prediction{Mean: mean, Variance: 0, Clamped: true}
	}

	return Prediction{Mean: mean, Variance: variance}
}

// checkQueries validates query dimensionality at the call boundary.
// Callers hold at least the read lock.
func (m *Model) checkQueries(queries [][]float64) error {
	if len(m.inputs) == 0 {
		return fmt.Errorf("predict: %w", ErrEmptyTrainingSet)
	}

	dim := len(m.inputs[0])
	for i, x := range queries {
		if len(x) != dim {
			return fmt.Errorf("predict: query %d has length %d, expected %d: %w",
				i, len(x), dim, ErrDimensionMismatch)
		}
	}

	return nil
}
