package gpr

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//////
// Prior mean functions.
//
// The prior is the value the model predicts in the absence of nearby
// training data. The engine subtracts the prior from the outputs before
// solving and adds it back to every predictive mean, so far from all
// observations the posterior mean relaxes to the prior instead of to
// zero.
//////

// Prior maps an input to the model's prior mean at that input.
//
// A prior may additionally implement trainablePrior to be fitted once
// from the training data during Fit. After Fit returns, the prior is
// immutable: AddPoint never refits it.
type Prior interface {
	// Value returns the prior mean at x.
	Value(x []float64) float64
}

// trainablePrior is implemented by priors that calibrate themselves
// from the training data during Fit.
type trainablePrior interface {
	fit(inputs [][]float64, outputs []float64)
}

// ZeroPrior is the zero-mean prior. This is the default used by Fit and
// gives the textbook GP posterior equations unchanged.
type ZeroPrior struct{}

// NewZeroPrior creates a zero-mean prior.
func NewZeroPrior() ZeroPrior {
	return ZeroPrior{}
}

// Value returns 0.
func (ZeroPrior) Value(_ []float64) float64 {
	return 0
}

// ConstantPrior predicts a fixed constant far from the data.
type ConstantPrior struct {
	// C is the constant prior mean.
	C float64
}

// NewConstantPrior creates a constant prior with the given mean.
func NewConstantPrior(c float64) *ConstantPrior {
	return &ConstantPrior{C: c}
}

// Value returns the constant.
func (p *ConstantPrior) Value(_ []float64) float64 {
	return p.C
}

// MeanPrior is a constant prior whose value is fitted to the arithmetic
// mean of the training outputs during Fit. Useful when the outputs are
// far from zero and no better baseline is known.
type MeanPrior struct {
	c float64
}

// NewMeanPrior creates a prior that calibrates itself to the mean of
// the training outputs when the model is fitted.
func NewMeanPrior() *MeanPrior {
	return &MeanPrior{}
}

// Value returns the fitted mean (0 before the prior has been fitted).
func (p *MeanPrior) Value(_ []float64) float64 {
	return p.c
}

func (p *MeanPrior) fit(_ [][]float64, outputs []float64) {
	if len(outputs) == 0 {
		return
	}

	var sum float64
	for _, y := range outputs {
		sum += y
	}

	p.c = sum / float64(len(outputs))
}

// LinearPrior is an affine prior mean:
//
//	prior(x) = Bias + ⟨Weights, x⟩
//
// Created through NewLinearPrior, the coefficients are fitted during
// Fit by least squares against the design matrix [1|X], so the GP
// models only the residuals around the trend; far from all
// observations the posterior mean relaxes to the fitted line instead
// of to a constant. NewLinearPriorWithWeights fixes the coefficients
// up front and skips fitting.
type LinearPrior struct {
	// Bias is the intercept term.
	Bias float64

	// Weights holds one slope per input dimension. A nil Weights means
	// the prior has not been fitted yet and contributes only the bias.
	Weights []float64

	fitted bool
}

// NewLinearPrior creates an affine prior whose intercept and slopes
// are fitted by least squares when the model is fitted.
func NewLinearPrior() *LinearPrior {
	return &LinearPrior{}
}

// NewLinearPriorWithWeights creates an affine prior with fixed
// coefficients; it is never refitted.
func NewLinearPriorWithWeights(bias float64, weights []float64) *LinearPrior {
	return &LinearPrior{Bias: bias, Weights: cloneVector(weights), fitted: true}
}

// Value returns Bias + ⟨Weights, x⟩ (just Bias before fitting).
func (p *LinearPrior) Value(x []float64) float64 {
	if p.Weights == nil {
		return p.Bias
	}

	return p.Bias + floats.Dot(p.Weights, x)
}

func (p *LinearPrior) fit(inputs [][]float64, outputs []float64) {
	if p.fitted || len(inputs) == 0 {
		return
	}

	n := len(inputs)
	dim := len(inputs[0])

	// Design matrix [1|X]: a constant column for the intercept, then
	// the inputs.
	a := mat.NewDense(n, dim+1, nil)
	for i, x := range inputs {
		a.Set(i, 0, 1)

		for j, v := range x {
			a.Set(i, j+1, v)
		}
	}

	var w mat.VecDense
	if err := w.SolveVec(a, mat.NewVecDense(n, cloneVector(outputs))); err != nil {
		// Degenerate design matrix (e.g. identical inputs): keep the
		// zero prior rather than a garbage trend.
		return
	}

	p.Bias = w.AtVec(0)

	p.Weights = make([]float64, dim)
	for j := range p.Weights {
		p.Weights[j] = w.AtVec(j + 1)
	}
}
