// Package gpr implements Gaussian Process regression: fitting a
// kernel-based probabilistic model to scarce training data and
// producing, for arbitrary query inputs, a predictive mean, a
// predictive variance, and samples from the posterior distribution. It
// is a building block for downstream decision algorithms such as
// Bayesian optimization, not an end-user application.
//
// # Features
//
// The package includes the following key features:
//
//   - Exact GP regression: Cholesky-based fit with cached factor and
//     solve vector, O(n) mean and O(n²) variance per query
//   - Incremental updates: AddPoint absorbs a new observation in O(n²)
//     through an incremental extension of the cached factor, instead of
//     the O(n³) full refit
//   - Numerical-stability policy: bounded diagonal-jitter retries with a
//     relative pivot tolerance, surfacing genuine rank deficiency as an
//     explicit error instead of silent NaNs
//   - Pluggable kernels: squared-exponential, Matérn-3/2, linear, and
//     sum/product composites, with parameter accessors for future
//     fitting algorithms
//   - Pluggable priors and noise models: zero/constant/fitted-mean prior
//     means, constant or input-dependent observation noise
//   - Joint and marginal prediction: per-point variances or the full
//     posterior covariance between query points
//   - Seeded posterior sampling: deterministic draws for a fixed model,
//     query set, and seed
//   - Thread-safe models: single-writer/multiple-reader locking, with
//     parallel batch prediction across worker goroutines
//
// # Fitting and predicting
//
// The basic round trip:
//
//	model, err := gpr.Fit(
//	    [][]float64{{0}, {1}, {2}},   // training inputs
//	    []float64{0, 0.84, 0.91},     // training outputs
//	    gpr.NewSquaredExponential(1.0, 1.0),
//	    1e-6,                          // noise variance
//	)
//	if err != nil {
//	    // ErrNotPositiveDefinite: retry with more noise or another kernel.
//	}
//
//	preds, err := model.Predict([][]float64{{1.5}})
//	// preds[0].Mean, preds[0].Variance
//
// Absorbing a new observation keeps the cached factorization
// consistent and costs O(n²):
//
//	if err := model.AddPoint([]float64{3}, 0.14); err != nil {
//	    // Model is unchanged on failure.
//	}
//
// # Sampling
//
// Sample draws joint posterior realizations at a set of query points,
// deterministically for a given seed:
//
//	draws, err := model.Sample(queries, 100, 42)
//
// # Configuration
//
// FitWithConfig exposes the full configuration surface:
//
//	cfg := gpr.DefaultConfig()
//	cfg.Prior = gpr.NewMeanPrior()             // relax to the output mean far from data
//	cfg.Noise = gpr.ConstantNoise(1e-4)
//	cfg.Logger = logger                        // zap diagnostics
//
//	model, err := gpr.FitWithConfig(cfg, inputs, outputs, kernel)
//
// # Error handling
//
// All failures are explicit error values wrapping one of the package
// sentinels (ErrDimensionMismatch, ErrNotPositiveDefinite,
// ErrEmptyTrainingSet); classify them with errors.Is. Fit and AddPoint
// are transactional: a failure leaves any existing model state exactly
// as it was. Variance clamping near singularity is reported through the
// non-fatal Prediction.Clamped diagnostic rather than an error.
//
// # Thread safety
//
// A fitted model may be read concurrently: Predict, PredictJoint,
// PredictBatch, Sample, and the accessors only take a read lock.
// AddPoint mutates shared state and holds the write lock for the
// duration of one incremental update. The kernel, prior, and noise
// model are immutable after Fit and must not be mutated by callers
// while the model is in use.
package gpr
