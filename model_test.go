package gpr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fitScenario builds the reference model used across the tests:
// squared-exponential kernel (ℓ=1, v=1), noise 1e-6, observations that
// roughly trace a sine curve.
func fitScenario(t *testing.T) *Model {
	t.Helper()

	model, err := Fit(
		[][]float64{{0}, {1}, {2}},
		[]float64{0, 0.84, 0.91},
		NewSquaredExponential(1.0, 1.0),
		1e-6,
	)
	require.NoError(t, err)

	return model
}

func TestFitValidation(t *testing.T) {
	k := NewSquaredExponential(1, 1)

	_, err := Fit(nil, nil, k, 1e-6)
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)

	_, err = Fit([][]float64{{0}, {1}}, []float64{0}, k, 1e-6)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	// Ragged inputs.
	_, err = Fit([][]float64{{0}, {1, 2}}, []float64{0, 1}, k, 1e-6)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFitSucceedsWithPositiveNoise(t *testing.T) {
	inputs := [][]float64{{0, 0}, {0.1, -0.2}, {1, 0.5}, {2, -0.3}, {0.5, 1.2}}
	outputs := []float64{0.1, 0.15, 0.84, 0.91, -0.2}

	for _, noise := range []float64{1e-4, 1e-2, 1} {
		model, err := Fit(inputs, outputs, NewSquaredExponential(1.2, 0.8), noise)
		require.NoError(t, err, "noise=%g", noise)

		preds, err := model.Predict(inputs)
		require.NoError(t, err)

		for _, p := range preds {
			assert.GreaterOrEqual(t, p.Variance, 0.0)
		}
	}
}

func TestPredictInterpolatesWithZeroNoise(t *testing.T) {
	inputs := [][]float64{{0}, {1}, {2}}
	outputs := []float64{0, 0.84, 0.91}

	model, err := Fit(inputs, outputs, NewSquaredExponential(1.0, 1.0), 0)
	require.NoError(t, err)

	preds, err := model.Predict(inputs)
	require.NoError(t, err)

	for i, p := range preds {
		assert.InDelta(t, outputs[i], p.Mean, 1e-6)
		assert.InDelta(t, 0.0, p.Variance, 1e-9)
		assert.GreaterOrEqual(t, p.Variance, 0.0)
	}
}

func TestPredictScenarioValues(t *testing.T) {
	model := fitScenario(t)

	preds, err := model.Predict([][]float64{{1.5}, {10}})
	require.NoError(t, err)

	// Values verified against an independent implementation of the
	// same posterior equations.
	assert.InDelta(t, 1.01621260441259, preds[0].Mean, 1e-9)
	assert.InDelta(t, 0.0178930959345832, preds[0].Variance, 1e-9)

	// Far from all training data the posterior relaxes to the prior:
	// zero mean, full signal variance.
	assert.InDelta(t, 0.0, preds[1].Mean, 1e-9)
	assert.InDelta(t, 1.0, preds[1].Variance, 1e-9)

	// Uncertainty between observations is far smaller than far away
	// from them.
	assert.Less(t, preds[0].Variance, preds[1].Variance)
}

func TestAddPointMatchesFullRefit(t *testing.T) {
	inputs := [][]float64{{0, 0}, {1, 0.5}, {2, -0.3}}
	outputs := []float64{0.1, 0.84, 0.91}
	newX := []float64{0.5, 1.2}
	newY := -0.2

	kernel := NewSquaredExponential(1.2, 0.8)

	incremental, err := Fit(inputs, outputs, kernel, 1e-4)
	require.NoError(t, err)
	require.NoError(t, incremental.AddPoint(newX, newY))

	full, err := Fit(
		append(cloneInputs(inputs), newX),
		append(cloneVector(outputs), newY),
		kernel,
		1e-4,
	)
	require.NoError(t, err)

	queries := [][]float64{{0.3, 0.3}, {1.5, -0.2}, {3, 3}, {0.5, 1.2}}

	got, err := incremental.Predict(queries)
	require.NoError(t, err)

	want, err := full.Predict(queries)
	require.NoError(t, err)

	for i := range queries {
		assert.InDelta(t, want[i].Mean, got[i].Mean, 1e-9)
		assert.InDelta(t, want[i].Variance, got[i].Variance, 1e-9)
	}
}

func TestAddPointChain(t *testing.T) {
	// Absorb several points one by one and verify against a single fit.
	allInputs := [][]float64{{0}, {0.7}, {1.3}, {2.1}, {2.9}}
	allOutputs := []float64{0, 0.64, 0.96, 0.86, 0.24}

	kernel := NewSquaredExponential(1.0, 1.0)

	incremental, err := Fit(allInputs[:2], allOutputs[:2], kernel, 1e-5)
	require.NoError(t, err)

	for i := 2; i < len(allInputs); i++ {
		require.NoError(t, incremental.AddPoint(allInputs[i], allOutputs[i]))
	}

	full, err := Fit(allInputs, allOutputs, kernel, 1e-5)
	require.NoError(t, err)

	assert.Equal(t, full.Len(), incremental.Len())

	queries := [][]float64{{0.5}, {1.8}, {4}}

	got, err := incremental.Predict(queries)
	require.NoError(t, err)

	want, err := full.Predict(queries)
	require.NoError(t, err)

	for i := range queries {
		assert.InDelta(t, want[i].Mean, got[i].Mean, 1e-9)
		assert.InDelta(t, want[i].Variance, got[i].Variance, 1e-9)
	}
}

func TestFitRankDeficientFails(t *testing.T) {
	// Duplicate inputs with zero noise: the covariance matrix is
	// genuinely rank-deficient and jitter must not mask it.
	_, err := Fit(
		[][]float64{{1}, {1}},
		[]float64{0.5, 0.5},
		NewSquaredExponential(1.0, 1.0),
		0,
	)
	assert.ErrorIs(t, err, ErrNotPositiveDefinite)
}

func TestAddPointTransactional(t *testing.T) {
	model, err := Fit(
		[][]float64{{0}, {1}},
		[]float64{0, 1},
		NewSquaredExponential(1.0, 1.0),
		0,
	)
	require.NoError(t, err)

	before, err := model.Predict([][]float64{{0.5}, {2}})
	require.NoError(t, err)

	// Duplicate of an existing input with zero noise cannot be
	// factored in.
	err = model.AddPoint([]float64{1}, 5)
	assert.ErrorIs(t, err, ErrNotPositiveDefinite)

	// Wrong dimensionality is rejected at the boundary.
	err = model.AddPoint([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	// The model is exactly as it was before the failed calls.
	assert.Equal(t, 2, model.Len())

	after, err := model.Predict([][]float64{{0.5}, {2}})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPredictDimensionMismatch(t *testing.T) {
	model := fitScenario(t)

	_, err := model.Predict([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLinearKernelRegression(t *testing.T) {
	// y = 2x observed with small noise: the linear-kernel GP recovers
	// the line. The Gram matrix is rank 1, so the noise carries the
	// factorization.
	model, err := Fit(
		[][]float64{{1}, {2}, {3}},
		[]float64{2, 4, 6},
		NewLinear(1.0),
		1e-2,
	)
	require.NoError(t, err)

	preds, err := model.Predict([][]float64{{2.5}})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, preds[0].Mean, 0.2)
}

func TestMeanPriorRelaxesToOutputMean(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prior = NewMeanPrior()

	model, err := FitWithConfig(
		cfg,
		[][]float64{{0}, {1}, {2}},
		[]float64{4.9, 5.1, 5.0},
		NewSquaredExponential(1.0, 1.0),
	)
	require.NoError(t, err)

	// Far from all observations the posterior mean is the fitted
	// output mean, not zero.
	preds, err := model.Predict([][]float64{{100}})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, preds[0].Mean, 1e-6)
}

func TestLinearPriorFitRecoversTrend(t *testing.T) {
	p := NewLinearPrior()

	// Exact line y = 1 + 2x: least squares must recover it.
	p.fit(
		[][]float64{{0}, {1}, {2}, {3}},
		[]float64{1, 3, 5, 7},
	)

	assert.InDelta(t, 1.0, p.Bias, 1e-9)
	require.Len(t, p.Weights, 1)
	assert.InDelta(t, 2.0, p.Weights[0], 1e-9)

	assert.InDelta(t, 11.0, p.Value([]float64{5}), 1e-9)
}

func TestLinearPriorRelaxesToFittedLine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prior = NewLinearPrior()

	model, err := FitWithConfig(
		cfg,
		[][]float64{{0}, {1}, {2}, {3}},
		[]float64{1, 3, 5, 7},
		NewSquaredExponential(1.0, 1.0),
	)
	require.NoError(t, err)

	// Far from all observations the posterior mean follows the fitted
	// trend y = 1 + 2x, not a constant.
	preds, err := model.Predict([][]float64{{10}})
	require.NoError(t, err)
	assert.InDelta(t, 21.0, preds[0].Mean, 1e-6)
}

func TestLinearPriorFixedWeightsAreNotRefitted(t *testing.T) {
	p := NewLinearPriorWithWeights(3.0, []float64{-1.0})

	p.fit(
		[][]float64{{0}, {1}},
		[]float64{100, 200},
	)

	// The coefficients were pinned at construction time.
	assert.InDelta(t, 3.0, p.Bias, 1e-12)
	assert.InDelta(t, 2.0, p.Value([]float64{1}), 1e-12)
}

func TestAccessors(t *testing.T) {
	model := fitScenario(t)

	assert.Equal(t, 3, model.Len())
	assert.Equal(t, 1, model.Dim())
	assert.Equal(t, []float64{1.0, 1.0}, model.Kernel().Parameters())
	assert.InDelta(t, 1e-6, model.Noise().Variance([]float64{0}), 1e-18)
}

func TestConcurrentReadersWithWriter(t *testing.T) {
	model := fitScenario(t)

	queries := [][]float64{{0.5}, {1.5}, {2.5}}

	var wg sync.WaitGroup

	// Readers predict and sample while a writer absorbs points; the
	// race detector verifies the locking discipline.
	for r := 0; r < 8; r++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < 50; i++ {
				if _, err := model.Predict(queries); err != nil {
					t.Error(err)

					return
				}
			}
		}()
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := 0; i < 5; i++ {
			x := 3 + 0.5*float64(i)
			if err := model.AddPoint([]float64{x}, 0.1); err != nil {
				t.Error(err)

				return
			}
		}
	}()

	wg.Wait()

	assert.Equal(t, 8, model.Len())
}
