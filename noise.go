package gpr

//////
// Pluggable observation-noise strategies.
//
// The model adds noise variance to the diagonal of the training
// covariance matrix. Most callers want a single constant value, but the
// strategy is pluggable so that schemes which account for uncertainty
// on the inputs themselves (for example, a per-point variance derived
// from measurement error) can be expressed without touching the engine.
//////

// NoiseModel produces the noise variance added to the covariance
// diagonal for a given training input.
//
// Implementations must be deterministic and safe for concurrent reads:
// the model evaluates the noise once per training point during Fit and
// AddPoint, and never mutates the noise model afterwards.
type NoiseModel interface {
	// Variance returns the noise variance for the observation at x.
	Variance(x []float64) float64
}

// ConstantNoise is a NoiseModel with the same variance at every input.
// This is the default used by Fit.
type ConstantNoise float64

// Variance returns the constant noise variance.
func (c ConstantNoise) Variance(_ []float64) float64 {
	return float64(c)
}

// NoiseFunc adapts an ordinary function to the NoiseModel interface,
// for heteroscedastic schemes where the noise depends on the input:
//
//	cfg.NoiseModel = gpr.NoiseFunc(func(x []float64) float64 {
//	    return 1e-4 + 1e-2*math.Abs(x[0]) // noisier far from origin
//	})
type NoiseFunc func(x []float64) float64

// Variance invokes the wrapped function.
func (f NoiseFunc) Variance(x []float64) float64 {
	return f(x)
}
