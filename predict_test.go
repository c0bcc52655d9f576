package gpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictJointValues(t *testing.T) {
	model := fitScenario(t)

	mean, cov, err := model.PredictJoint([][]float64{{0.5}, {3.0}})
	require.NoError(t, err)

	// Verified against an independent implementation of the same
	// posterior equations.
	assert.InDelta(t, 0.42912047595851727, mean[0], 1e-9)
	assert.InDelta(t, 0.36516753727049920, mean[1], 1e-9)

	assert.InDelta(t, 0.017893095934583214, cov.At(0, 0), 1e-9)
	assert.InDelta(t, 0.039046696649868415, cov.At(0, 1), 1e-9)
	assert.InDelta(t, 0.519361296176927, cov.At(1, 1), 1e-9)

	// SymDense storage guarantees exact symmetry.
	assert.Equal(t, cov.At(0, 1), cov.At(1, 0))
}

func TestPredictJointDiagonalMatchesMarginal(t *testing.T) {
	model := fitScenario(t)

	queries := [][]float64{{0.25}, {1.4}, {5}}

	mean, cov, err := model.PredictJoint(queries)
	require.NoError(t, err)

	marginal, err := model.Predict(queries)
	require.NoError(t, err)

	for i := range queries {
		assert.InDelta(t, marginal[i].Mean, mean[i], 1e-12)
		assert.InDelta(t, marginal[i].Variance, cov.At(i, i), 1e-12)
	}
}

func TestPredictBatchMatchesSequential(t *testing.T) {
	model := fitScenario(t)

	queries := make([][]float64, 0, 100)
	for i := 0; i < 100; i++ {
		queries = append(queries, []float64{-2 + 0.07*float64(i)})
	}

	sequential, err := model.Predict(queries)
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 3, 8, 200} {
		parallel, err := model.PredictBatch(queries, workers)
		require.NoError(t, err)

		// Identical, not merely close: workers only partition the
		// queries, the arithmetic per query is unchanged.
		assert.Equal(t, sequential, parallel, "workers=%d", workers)
	}
}

func TestVarianceNeverNegative(t *testing.T) {
	// Near-duplicate training points with zero noise push the raw
	// variance at the cluster to the edge of singularity.
	model, err := Fit(
		[][]float64{{0}, {1e-9}, {1}},
		[]float64{0.5, 0.5, 1.0},
		NewSquaredExponential(1.0, 1.0),
		1e-4,
	)
	require.NoError(t, err)

	queries := [][]float64{{0}, {1e-9}, {5e-10}, {1}, {2}}

	preds, err := model.Predict(queries)
	require.NoError(t, err)

	for i, p := range preds {
		assert.GreaterOrEqual(t, p.Variance, 0.0, "query %d", i)
	}
}
