package gpr

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

//////
// GP model state: fit and incremental point addition.
//////

// Model is a fitted Gaussian Process regression model. It owns the
// training set, an immutable reference to its kernel, the cached
// Cholesky factor of the training covariance matrix, and the derived
// solve vectors used for prediction.
//
// Consistency protocol:
//   - The factor always matches the current training set exactly. Every
//     mutation happens through AddPoint, which performs all fallible
//     work before touching any field, so a failed update leaves the
//     model byte-for-byte unchanged.
//
// Thread safety:
//   - All fields are protected by an RWMutex with a
//     single-writer/multiple-reader discipline: Predict, PredictJoint,
//     PredictBatch, Sample and the accessors take the read lock and may
//     run concurrently; AddPoint takes the write lock for the duration
//     of one incremental update.
//
// Memory usage:
//   - O(n²) for the factor, O(n·d) for the training inputs, where n is
//     the number of observations and d the input dimension.
type Model struct {
	// mu protects access to all fields.
	mu sync.RWMutex

	// inputs holds the training inputs in fit/add order. Each entry is
	// a private copy of the caller's vector.
	inputs [][]float64

	// outputs holds the observed value for each training input.
	outputs []float64

	// kernel is the covariance function. Immutable after Fit: the model
	// holds a shared-read reference and never mutates it.
	kernel Kernel

	// noise supplies the per-point noise variance on the covariance
	// diagonal. Immutable after Fit.
	noise NoiseModel

	// prior is the prior mean function. Trainable priors are fitted
	// once inside Fit and frozen afterwards.
	prior Prior

	// jitter is the positive-definiteness recovery policy shared by all
	// factorizations performed on behalf of this model.
	jitter JitterPolicy

	// factor is the cached Cholesky factor L of the training covariance
	// matrix. Exclusively owned by the model.
	factor *choleskyFactor

	// z caches the forward solve L·z = (outputs − prior). Kept so that
	// an incremental update only has to append one entry before the
	// O(n²) backward solve for alpha.
	z []float64

	// alpha is the solve vector (K⁻¹ applied to the prior-adjusted
	// outputs). It makes mean prediction O(n) per query.
	alpha []float64

	// logger receives structured diagnostics.
	logger *zap.Logger
}

// Fit builds a GP model from training data with a constant noise
// variance and the default configuration.
//
// Parameters:
// - inputs: Training input vectors (all the same length)
// - outputs: Observed value for each input (same length as inputs)
// - kernel: Covariance function; must not be mutated while the model lives
// - noise: Constant observation-noise variance added to the covariance diagonal
//
// Returns:
//   - *Model: The fitted model
//   - error: ErrEmptyTrainingSet, ErrDimensionMismatch, or
//     ErrNotPositiveDefinite (in which case no model is produced)
//
// Usage example:
//
//	model, err := gpr.Fit(
//	    [][]float64{{0}, {1}, {2}},
//	    []float64{0, 0.84, 0.91},
//	    gpr.NewSquaredExponential(1.0, 1.0),
//	    1e-6,
//	)
//
// Cost: O(n²) kernel evaluations plus an O(n³) factorization.
func Fit(inputs [][]float64, outputs []float64, kernel Kernel, noise float64) (*Model, error) {
	cfg := DefaultConfig()
	cfg.Noise = ConstantNoise(noise)

	return FitWithConfig(cfg, inputs, outputs, kernel)
}

// FitWithConfig builds a GP model with full control over the noise
// model, prior, jitter policy, and logging. See ModelConfig.
//
// On any failure no partial model is produced.
func FitWithConfig(cfg ModelConfig, inputs [][]float64, outputs []float64, kernel Kernel) (*Model, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("fit: %w", ErrEmptyTrainingSet)
	}

	if len(inputs) != len(outputs) {
		return nil, fmt.Errorf("fit: %d inputs vs %d outputs: %w", len(inputs), len(outputs), ErrDimensionMismatch)
	}

	dim := len(inputs[0])
	for i, x := range inputs {
		if len(x) != dim {
			return nil, fmt.Errorf("fit: input %d has length %d, expected %d: %w", i, len(x), dim, ErrDimensionMismatch)
		}
	}

	if cfg.Noise == nil {
		cfg.Noise = ConstantNoise(1e-6)
	}

	if cfg.Prior == nil {
		cfg.Prior = NewZeroPrior()
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	logger := cfg.Logger.Named("gpr")

	logger.Debug("fitting model",
		zap.Int("samples", len(inputs)),
		zap.Int("dimension", dim),
	)

	// Trainable priors calibrate once, before the solve, and are frozen
	// afterwards.
	if tp, ok := cfg.Prior.(trainablePrior); ok {
		tp.fit(inputs, outputs)
	}

	// The caller keeps ownership of its slices; the model works on
	// private copies.
	ownInputs := cloneInputs(inputs)
	ownOutputs := cloneVector(outputs)

	cov := covarianceMatrix(ownInputs, kernel, cfg.Noise)

	factor, err := factorize(cov, cfg.Jitter, logger)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	// Two triangular solves against the prior-adjusted outputs:
	// L·z = (y − prior), then Lᵀ·alpha = z.
	resid := make([]float64, len(ownOutputs))
	for i := range ownOutputs {
		resid[i] = ownOutputs[i] - cfg.Prior.Value(ownInputs[i])
	}

	z := factor.forwardSolve(resid)
	alpha := factor.backwardSolve(z)

	return &Model{
		inputs:  ownInputs,
		outputs: ownOutputs,
		kernel:  kernel,
		noise:   cfg.Noise,
		prior:   cfg.Prior,
		jitter:  cfg.Jitter,
		factor:  factor,
		z:       z,
		alpha:   alpha,
		logger:  logger,
	}, nil
}

// AddPoint absorbs one new observation into the model in O(n²) instead
// of the O(n³) a full refit would cost.
//
// The covariance vector between x and the existing training inputs is
// forward-solved against the cached factor to produce the factor's new
// row, the new diagonal comes from the self-covariance of x (with the
// usual jitter recovery), the cached forward-solve vector gains one
// entry, and a single O(n²) backward solve refreshes alpha. The factor
// is never rebuilt.
//
// Transactional semantics: on any failure (dimension mismatch, or
// ErrNotPositiveDefinite after jitter exhaustion) the model is left
// exactly as it was before the call. All fallible work happens before
// the first field is touched.
//
// AddPoint takes the write lock and is serialized against every other
// call on the same model.
func (m *Model) AddPoint(x []float64, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(x) != len(m.inputs[0]) {
		return fmt.Errorf("add point: input has length %d, expected %d: %w",
			len(x), len(m.inputs[0]), ErrDimensionMismatch)
	}

	b := covarianceVector(m.inputs, x, m.kernel)
	c := m.kernel.EvaluateDiag(x) + m.noise.Variance(x)

	r, d, err := m.factor.extendRow(b, c, m.jitter, m.logger)
	if err != nil {
		return fmt.Errorf("add point: %w", err)
	}

	// Nothing below can fail; mutate in one uninterrupted sequence.
	zNew := (y - m.prior.Value(x) - floats.Dot(r, m.z)) / d

	m.factor.appendRow(r, d)
	m.z = append(m.z, zNew)
	m.alpha = m.factor.backwardSolve(m.z)
	m.inputs = append(m.inputs, cloneVector(x))
	m.outputs = append(m.outputs, y)

	m.logger.Debug("absorbed observation",
		zap.Int("samples", len(m.inputs)),
	)

	return nil
}

//////
// Accessors.
//////

// Len returns the number of training observations.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.inputs)
}

// Dim returns the input dimensionality the model expects.
func (m *Model) Dim() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.inputs[0])
}

// Kernel returns the model's kernel. The kernel is shared, not copied:
// callers must not mutate it while the model is in use.
func (m *Model) Kernel() Kernel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.kernel
}

// Noise returns the model's noise strategy.
func (m *Model) Noise() NoiseModel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.noise
}
