package gpr

import "errors"

//////
// Error taxonomy.
//
// All failures are explicit error values; the library never produces
// silent NaNs. Errors returned by the package wrap one of the sentinels
// below, so callers can classify failures with errors.Is regardless of
// the context attached at the call site.
//////

var (
	// ErrDimensionMismatch is returned when an input vector's length
	// disagrees with the dimensionality the model (or kernel) expects.
	//
	// Detected at the call boundary (Fit, AddPoint, Predict, Sample);
	// the offending call fails immediately and no state is modified.
	ErrDimensionMismatch = errors.New("gpr: input dimension mismatch")

	// ErrNotPositiveDefinite is returned when Cholesky factorization
	// (full or incremental) fails even after the bounded jitter-retry
	// sequence has been exhausted.
	//
	// This is fatal to the failing call only: Fit produces no model and
	// AddPoint leaves the model exactly as it was. Callers may retry
	// with a larger noise value or different kernel parameters; the
	// library never retries beyond the embedded jitter policy.
	ErrNotPositiveDefinite = errors.New("gpr: covariance matrix is not positive definite")

	// ErrEmptyTrainingSet is returned when Fit is given no training
	// points, or when Predict/Sample is invoked on a model that holds
	// no observations.
	ErrEmptyTrainingSet = errors.New("gpr: empty training set")
)
