package gpr

import "go.uber.org/zap"

//////
// Configuration and result types.
//////

// Prediction is the posterior at a single query point, computed on
// demand and never cached.
type Prediction struct {
	// Mean is the posterior mean at the query point.
	Mean float64

	// Variance is the posterior variance at the query point. It is never
	// negative: a raw value below zero is numerical noise from a
	// near-singular covariance and is floored at 0 (see Clamped).
	Variance float64

	// Clamped reports that the raw variance came out negative and was
	// floored at 0. This is a non-fatal numerical-instability
	// diagnostic, not an error: the prediction is still usable, but the
	// model is operating close to singularity (typically noise too
	// small for near-duplicate training inputs).
	Clamped bool
}

// JitterPolicy controls the positive-definiteness recovery sequence
// used by every factorization in the package.
//
// When a Cholesky pivot fails, the factorization is retried with a
// small value (jitter) added to the diagonal, growing geometrically per
// attempt. Jitter is expressed relative to the mean diagonal of the
// matrix being factored so the policy is invariant to the overall
// scale of the kernel.
//
// The zero value disables recovery entirely (a single attempt, no
// jitter); use DefaultJitter for the standard policy.
type JitterPolicy struct {
	// MaxAttempts is the number of jittered retries after the initial
	// zero-jitter attempt.
	MaxAttempts int

	// Initial is the first retry's jitter as a fraction of the mean
	// diagonal.
	Initial float64

	// Growth multiplies the jitter on each subsequent attempt.
	Growth float64
}

// DefaultJitter returns the standard recovery policy: 5 retries
// starting at 1e-10 of the mean diagonal and growing by a factor of 10
// per attempt.
func DefaultJitter() JitterPolicy {
	return JitterPolicy{
		MaxAttempts: 5,
		Initial:     1e-10,
		Growth:      10,
	}
}

// ModelConfig holds all configuration for fitting a model. Most callers
// should start from DefaultConfig and override what they need:
//
//	cfg := gpr.DefaultConfig()
//	cfg.Noise = gpr.ConstantNoise(1e-4)
//	cfg.Prior = gpr.NewMeanPrior()
//
//	model, err := gpr.FitWithConfig(cfg, inputs, outputs, kernel)
type ModelConfig struct {
	// Noise supplies the observation-noise variance added to the
	// covariance diagonal, per training point. Defaults to
	// ConstantNoise(1e-6).
	Noise NoiseModel

	// Prior is the prior mean function. Defaults to the zero prior.
	// Trainable priors (MeanPrior) are fitted once during Fit and
	// frozen afterwards.
	Prior Prior

	// Jitter is the positive-definiteness recovery policy applied by
	// every factorization (fit, incremental update, and posterior
	// sampling). Defaults to DefaultJitter().
	Jitter JitterPolicy

	// Logger receives structured diagnostics: fit dimensions at Debug,
	// jitter retries at Warn. If nil, logging is disabled.
	Logger *zap.Logger
}

// DefaultConfig returns a default configuration suitable for inputs and
// outputs of order 1.
func DefaultConfig() ModelConfig {
	return ModelConfig{
		Noise:  ConstantNoise(1e-6),
		Prior:  NewZeroPrior(),
		Jitter: DefaultJitter(),
		Logger: nil, // Default to no logging.
	}
}
