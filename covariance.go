package gpr

import "gonum.org/v1/gonum/mat"

//////
// Covariance matrix builders.
//
// These helpers assemble the covariance blocks the engine factorizes:
// the n×n training matrix, the length-n vector between one query and
// the training set, and the m×m block among a set of query points.
//
// Symmetry guard: each off-diagonal entry is evaluated exactly once and
// written to both triangles through SymDense, so floating-point
// asymmetry in the kernel cannot drift into the factorization.
//////

// covarianceMatrix builds the training covariance matrix
//
//	M[i][j] = kernel(x_i, x_j) + noise(x_i)·δ_ij
//
// Cost is O(n²) kernel evaluations (the upper triangle only).
func covarianceMatrix(inputs [][]float64, kernel Kernel, noise NoiseModel) *mat.SymDense {
	n := len(inputs)

	m := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		m.SetSym(i, i, kernel.EvaluateDiag(inputs[i])+noise.Variance(inputs[i]))

		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, kernel.Evaluate(inputs[i], inputs[j]))
		}
	}

	return m
}

// covarianceVector builds the covariance vector between a single query
// point and every training input. Cost is O(n) kernel evaluations.
func covarianceVector(inputs [][]float64, x []float64, kernel Kernel) []float64 {
	k := make([]float64, len(inputs))

	for i := range inputs {
		k[i] = kernel.Evaluate(inputs[i], x)
	}

	return k
}

// crossCovariance builds the m×m prior covariance block among a set of
// query points (no noise on the diagonal: the posterior is over latent
// function values, not noisy observations).
func crossCovariance(queries [][]float64, kernel Kernel) *mat.SymDense {
	m := len(queries)

	c := mat.NewSymDense(m, nil)

	for i := 0; i < m; i++ {
		c.SetSym(i, i, kernel.EvaluateDiag(queries[i]))

		for j := i + 1; j < m; j++ {
			c.SetSym(i, j, kernel.Evaluate(queries[i], queries[j]))
		}
	}

	return c
}
