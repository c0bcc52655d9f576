package gpr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

//////
// Kernel interface and built-in covariance functions.
//
// A kernel is a pure, symmetric function producing a covariance value
// between two input vectors. Kernels carry their own parameters and are
// never mutated by the model after Fit: composites exclusively own
// their sub-kernels, and callers must not modify a kernel while a model
// holds a reference to it.
//////

// Kernel is the capability interface implemented by every covariance
// function in the package.
//
// Invariants:
// - Symmetry: Evaluate(x, xp) == Evaluate(xp, x)
// - Diagonal shortcut: EvaluateDiag(x) == Evaluate(x, x)
//
// Dimension handling:
//   - Dimension agreement is validated at the model API boundary (Fit,
//     AddPoint, Predict, Sample), which returns ErrDimensionMismatch
//     before any kernel runs. Calling Evaluate directly with vectors of
//     different lengths panics; a mismatch there is a programming
//     error, never data-dependent.
//
// Parameter accessors:
//   - Parameters and SetParameters exist for future fitting algorithms
//     (for example, gradient-based marginal-likelihood optimization).
//     The engine itself never calls SetParameters.
type Kernel interface {
	// Evaluate returns the covariance between x and xp.
	Evaluate(x, xp []float64) float64

	// EvaluateDiag returns the self-covariance Evaluate(x, x). Stationary
	// kernels answer this in O(1) without touching the input.
	EvaluateDiag(x []float64) float64

	// Parameters returns the kernel's parameter vector. Composite kernels
	// report the concatenation of their sub-kernels' parameters.
	Parameters() []float64

	// SetParameters replaces the kernel's parameter vector. It returns an
	// error when the number of values does not match Parameters().
	SetParameters(params []float64) error
}

//////
// Squared-exponential (RBF) kernel.
//////

// SquaredExponential is the squared-exponential (also known as RBF or
// Gaussian) kernel:
//
//	k(x, xp) = Variance * exp(-||x - xp||² / (2 * LengthScale²))
//
// LengthScale controls the smoothness of interpolation (larger =
// smoother), Variance controls the amplitude. Both must be positive.
//
// Usage example:
//
//	k := gpr.NewSquaredExponential(1.0, 1.0)
//	cov := k.Evaluate([]float64{0}, []float64{1})
type SquaredExponential struct {
	// LengthScale is the characteristic length scale (must be positive).
	LengthScale float64

	// Variance is the signal variance (must be positive).
	Variance float64
}

// NewSquaredExponential creates a squared-exponential kernel with the
// given length scale and signal variance.
func NewSquaredExponential(lengthScale, variance float64) *SquaredExponential {
	return &SquaredExponential{LengthScale: lengthScale, Variance: variance}
}

// Evaluate returns the squared-exponential covariance between x and xp.
// Panics if the vectors have different lengths.
func (k *SquaredExponential) Evaluate(x, xp []float64) float64 {
	if len(x) != len(xp) {
		panic("gpr: input vectors must have the same length")
	}

	var sum float64

	for i := range x {
		diff := x[i] - xp[i]

		sum += diff * diff
	}

	return k.Variance * math.Exp(-sum/(2*k.LengthScale*k.LengthScale))
}

// EvaluateDiag returns the self-covariance, which for a stationary
// kernel is simply the signal variance.
func (k *SquaredExponential) EvaluateDiag(_ []float64) float64 {
	return k.Variance
}

// Parameters returns [LengthScale, Variance].
func (k *SquaredExponential) Parameters() []float64 {
	return []float64{k.LengthScale, k.Variance}
}

// SetParameters sets [LengthScale, Variance].
func (k *SquaredExponential) SetParameters(params []float64) error {
	if len(params) != 2 {
		return fmt.Errorf("gpr: squared-exponential kernel expects 2 parameters, got %d", len(params))
	}

	k.LengthScale = params[0]
	k.Variance = params[1]

	return nil
}

//////
// Matérn-3/2 kernel.
//////

// Matern32 is the Matérn kernel with smoothness parameter ν = 3/2:
//
//	k(x, xp) = Variance * (1 + √3·r/ℓ) * exp(-√3·r/ℓ),  r = ||x - xp||
//
// It produces rougher (once-differentiable) sample paths than the
// squared-exponential kernel, which is often a better match for
// physical processes.
type Matern32 struct {
	// LengthScale is the characteristic length scale (must be positive).
	LengthScale float64

	// Variance is the signal variance (must be positive).
	Variance float64
}

// NewMatern32 creates a Matérn-3/2 kernel with the given length scale
// and signal variance.
func NewMatern32(lengthScale, variance float64) *Matern32 {
	return &Matern32{LengthScale: lengthScale, Variance: variance}
}

// Evaluate returns the Matérn-3/2 covariance between x and xp. Panics
// if the vectors have different lengths.
func (k *Matern32) Evaluate(x, xp []float64) float64 {
	if len(x) != len(xp) {
		panic("gpr: input vectors must have the same length")
	}

	var sum float64

	for i := range x {
		diff := x[i] - xp[i]

		sum += diff * diff
	}

	t := math.Sqrt(3*sum) / k.LengthScale

	return k.Variance * (1 + t) * math.Exp(-t)
}

// EvaluateDiag returns the self-covariance (the signal variance).
func (k *Matern32) EvaluateDiag(_ []float64) float64 {
	return k.Variance
}

// Parameters returns [LengthScale, Variance].
func (k *Matern32) Parameters() []float64 {
	return []float64{k.LengthScale, k.Variance}
}

// SetParameters sets [LengthScale, Variance].
func (k *Matern32) SetParameters(params []float64) error {
	if len(params) != 2 {
		return fmt.Errorf("gpr: matern-3/2 kernel expects 2 parameters, got %d", len(params))
	}

	k.LengthScale = params[0]
	k.Variance = params[1]

	return nil
}

//////
// Linear (dot-product) kernel.
//////

// Linear is the homogeneous linear kernel:
//
//	k(x, xp) = Variance * ⟨x, xp⟩
//
// The resulting Gaussian process is a Bayesian linear model. The Gram
// matrix of a linear kernel is rank-deficient whenever the training set
// has more points than input dimensions, so models using it need a
// strictly positive noise value to remain factorizable.
type Linear struct {
	// Variance scales the dot product (must be positive).
	Variance float64
}

// NewLinear creates a linear kernel with the given variance.
func NewLinear(variance float64) *Linear {
	return &Linear{Variance: variance}
}

// Evaluate returns the linear covariance between x and xp. Panics if
// the vectors have different lengths.
func (k *Linear) Evaluate(x, xp []float64) float64 {
	return k.Variance * floats.Dot(x, xp)
}

// EvaluateDiag returns Variance * ||x||².
func (k *Linear) EvaluateDiag(x []float64) float64 {
	return k.Variance * floats.Dot(x, x)
}

// Parameters returns [Variance].
func (k *Linear) Parameters() []float64 {
	return []float64{k.Variance}
}

// SetParameters sets [Variance].
func (k *Linear) SetParameters(params []float64) error {
	if len(params) != 1 {
		return fmt.Errorf("gpr: linear kernel expects 1 parameter, got %d", len(params))
	}

	k.Variance = params[0]

	return nil
}

//////
// Composite kernels.
//////

// Sum is the sum of two kernels: k(x, xp) = Left(x, xp) + Right(x, xp).
//
// Both sub-kernels are exclusively owned by the composite; the combined
// parameter vector is the concatenation of Left's parameters followed
// by Right's.
//
// Usage example:
//
//	k := gpr.NewSum(
//	    gpr.NewSquaredExponential(2.0, 1.0), // slow trend
//	    gpr.NewMatern32(0.3, 0.2),           // fast roughness
//	)
type Sum struct {
	Left  Kernel
	Right Kernel
}

// NewSum creates the sum of two kernels.
func NewSum(left, right Kernel) *Sum {
	return &Sum{Left: left, Right: right}
}

// Evaluate returns Left(x, xp) + Right(x, xp).
func (k *Sum) Evaluate(x, xp []float64) float64 {
	return k.Left.Evaluate(x, xp) + k.Right.Evaluate(x, xp)
}

// EvaluateDiag returns Left(x, x) + Right(x, x).
func (k *Sum) EvaluateDiag(x []float64) float64 {
	return k.Left.EvaluateDiag(x) + k.Right.EvaluateDiag(x)
}

// Parameters returns the concatenated parameters of both sub-kernels.
func (k *Sum) Parameters() []float64 {
	return append(k.Left.Parameters(), k.Right.Parameters()...)
}

// SetParameters splits params between the two sub-kernels in order.
func (k *Sum) SetParameters(params []float64) error {
	return setCompositeParameters("sum", params, k.Left, k.Right)
}

// Product is the product of two kernels:
// k(x, xp) = Left(x, xp) * Right(x, xp).
//
// Both sub-kernels are exclusively owned by the composite; the combined
// parameter vector is the concatenation of Left's parameters followed
// by Right's.
type Product struct {
	Left  Kernel
	Right Kernel
}

// NewProduct creates the product of two kernels.
func NewProduct(left, right Kernel) *Product {
	return &Product{Left: left, Right: right}
}

// Evaluate returns Left(x, xp) * Right(x, xp).
func (k *Product) Evaluate(x, xp []float64) float64 {
	return k.Left.Evaluate(x, xp) * k.Right.Evaluate(x, xp)
}

// EvaluateDiag returns Left(x, x) * Right(x, x).
func (k *Product) EvaluateDiag(x []float64) float64 {
	return k.Left.EvaluateDiag(x) * k.Right.EvaluateDiag(x)
}

// Parameters returns the concatenated parameters of both sub-kernels.
func (k *Product) Parameters() []float64 {
	return append(k.Left.Parameters(), k.Right.Parameters()...)
}

// SetParameters splits params between the two sub-kernels in order.
func (k *Product) SetParameters(params []float64) error {
	return setCompositeParameters("product", params, k.Left, k.Right)
}

// setCompositeParameters distributes a combined parameter vector across
// the sub-kernels of a composite, left to right.
func setCompositeParameters(kind string, params []float64, left, right Kernel) error {
	nl := len(left.Parameters())
	nr := len(right.Parameters())

	if len(params) != nl+nr {
		return fmt.Errorf("gpr: %s kernel expects %d parameters, got %d", kind, nl+nr, len(params))
	}

	if err := left.SetParameters(params[:nl]); err != nil {
		return err
	}

	return right.SetParameters(params[nl:])
}
