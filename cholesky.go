package gpr

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//////
// Cholesky factorization engine.
//
// The factor is stored as a packed row-major lower triangle: row i
// occupies i+1 contiguous entries. This layout makes the O(n²)
// incremental extension a pure append (the existing n rows are never
// touched when a new observation is absorbed) and keeps the inner
// products of both the factorization and the triangular solves on
// contiguous slices.
//
// Numerical-rank policy: a pivot d (the squared new diagonal entry)
// fails when d <= pivotTol · s, where s is the mean diagonal of the
// matrix being factored. A strict d <= 0 test would let diagonal jitter
// "rescue" genuinely rank-deficient matrices (e.g. duplicate training
// inputs with zero noise) and silently hand back a near-garbage solve;
// the relative tolerance surfaces those as ErrNotPositiveDefinite.
//////

// pivotTol is the relative numerical-rank tolerance for Cholesky
// pivots. It sits far below the smallest pivot produced by any healthy
// noise level (noise variance >= ~1e-4 of the signal) and far above the
// residual pivots of a rank-deficient matrix patched by jitter alone.
const pivotTol = 1e-5

// choleskyFactor is a lower-triangular matrix L with L·Lᵀ equal to the
// factored covariance matrix (possibly plus recovery jitter on the
// diagonal). It is exclusively owned by the model that created it.
type choleskyFactor struct {
	n       int
	data    []float64 // packed rows: row i at offset i(i+1)/2, length i+1
	diagSum float64   // running sum of the source matrix diagonal
}

// row returns the packed slice for row i.
func (f *choleskyFactor) row(i int) []float64 {
	off := i * (i + 1) / 2

	return f.data[off : off+i+1]
}

// at returns L[i][j] for j <= i.
func (f *choleskyFactor) at(i, j int) float64 {
	return f.data[i*(i+1)/2+j]
}

// scale is the mean diagonal of the factored matrix, the reference for
// all relative tolerances.
func (f *choleskyFactor) scale() float64 {
	if f.n == 0 {
		return 0
	}

	return f.diagSum / float64(f.n)
}

// factorize computes the Cholesky factor of a symmetric
// positive-definite matrix, O(n³) time and O(n²) space.
//
// On a pivot failure the whole factorization is retried with jitter
// added to the full diagonal, following the policy's geometric
// schedule. Returns ErrNotPositiveDefinite once the schedule is
// exhausted.
func factorize(a mat.Symmetric, jitter JitterPolicy, logger *zap.Logger) (*choleskyFactor, error) {
	n := a.SymmetricDim()

	var diagSum float64
	for i := 0; i < n; i++ {
		diagSum += a.At(i, i)
	}

	scale := 0.0
	if n > 0 {
		scale = diagSum / float64(n)
	}

	// First attempt runs without jitter.
	eps := 0.0

	for attempt := 0; ; attempt++ {
		f, ok := factorizeAttempt(a, n, eps, scale)
		if ok {
			f.diagSum = diagSum + float64(n)*eps

			return f, nil
		}

		if attempt >= jitter.MaxAttempts {
			return nil, fmt.Errorf("factorizing %d×%d covariance matrix (jitter attempts exhausted): %w",
				n, n, ErrNotPositiveDefinite)
		}

		if attempt == 0 {
			eps = jitter.Initial * scale
		} else {
			eps *= jitter.Growth
		}

		logger.Warn("Cholesky pivot failed, retrying with diagonal jitter",
			zap.Int("attempt", attempt+1),
			zap.Float64("jitter", eps),
		)
	}
}

// factorizeAttempt runs one Cholesky–Crout pass over a + eps·I. It
// reports false as soon as a pivot falls below the rank tolerance.
func factorizeAttempt(a mat.Symmetric, n int, eps, scale float64) (*choleskyFactor, bool) {
	data := make([]float64, n*(n+1)/2)

	off := 0
	for i := 0; i < n; i++ {
		ri := data[off : off+i+1]

		joff := 0
		for j := 0; j <= i; j++ {
			rj := data[joff : joff+j+1]
			sum := floats.Dot(ri[:j], rj[:j])

			if i == j {
				d := a.At(i, i) + eps - sum
				if d <= pivotTol*scale {
					return nil, false
				}

				ri[i] = math.Sqrt(d)
			} else {
				ri[j] = (a.At(i, j) - sum) / rj[j]
			}

			joff += j + 1
		}

		off += i + 1
	}

	return &choleskyFactor{n: n, data: data}, true
}

// extendRow computes the row that extends the factor by one
// observation, without mutating the factor.
//
// Given the covariance vector b between the new point and the n
// existing points and the new self-covariance c, it forward-solves
// L·r = b (O(n²)) and computes the new diagonal d = sqrt(c − r·r). The
// jitter policy is applied to c when the pivot fails.
//
// This is the O(n²) path that makes absorbing one observation cheap
// compared to the O(n³) full refactorization; the caller appends the
// returned row only after every fallible step has succeeded.
func (f *choleskyFactor) extendRow(b []float64, c float64, jitter JitterPolicy, logger *zap.Logger) ([]float64, float64, error) {
	r := f.forwardSolve(b)
	rr := floats.Dot(r, r)

	// The extended matrix's diagonal mean shifts slightly; the existing
	// scale is the policy reference, falling back to c for an empty
	// factor.
	scale := f.scale()
	if f.n == 0 {
		scale = c
	}

	eps := 0.0

	for attempt := 0; ; attempt++ {
		if d := c + eps - rr; d > pivotTol*scale {
			return r, math.Sqrt(d), nil
		}

		if attempt >= jitter.MaxAttempts {
			return nil, 0, fmt.Errorf("extending %d×%d factor by one row (jitter attempts exhausted): %w",
				f.n, f.n, ErrNotPositiveDefinite)
		}

		if attempt == 0 {
			eps = jitter.Initial * scale
		} else {
			eps *= jitter.Growth
		}

		logger.Warn("incremental Cholesky pivot failed, retrying with jitter on the new diagonal",
			zap.Int("attempt", attempt+1),
			zap.Float64("jitter", eps),
		)
	}
}

// appendRow grows the factor in place with a row previously produced by
// extendRow. It cannot fail.
func (f *choleskyFactor) appendRow(r []float64, d float64) {
	f.data = append(f.data, r...)
	f.data = append(f.data, d)
	f.n++
	f.diagSum += d*d + floats.Dot(r, r)
}

// forwardSolve solves L·x = b by forward substitution, O(n²).
func (f *choleskyFactor) forwardSolve(b []float64) []float64 {
	x := make([]float64, f.n)

	off := 0
	for i := 0; i < f.n; i++ {
		ri := f.data[off : off+i+1]
		x[i] = (b[i] - floats.Dot(ri[:i], x[:i])) / ri[i]
		off += i + 1
	}

	return x
}

// backwardSolve solves Lᵀ·x = b by backward substitution, O(n²).
func (f *choleskyFactor) backwardSolve(b []float64) []float64 {
	x := make([]float64, f.n)

	for i := f.n - 1; i >= 0; i-- {
		sum := b[i]
		for k := i + 1; k < f.n; k++ {
			sum -= f.at(k, i) * x[k]
		}

		x[i] = sum / f.at(i, i)
	}

	return x
}
