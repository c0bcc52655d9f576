package gpr

import "golang.org/x/exp/constraints"

//////
// Helper functions.
//////

// ToFloat64s converts a slice of any numeric type to float64 values.
// The engine works exclusively in float64; callers whose observations
// are integers (iteration counts, byte sizes, durations in
// nanoseconds) can convert without writing the loop themselves.
//
// Returns a new slice; the input is never modified. Integer values
// convert exactly up to 2⁵³.
func ToFloat64s[T constraints.Integer | constraints.Float](vals []T) []float64 {
	floats := make([]float64, len(vals))

	for i, v := range vals {
		floats[i] = float64(v)
	}

	return floats
}

// ToInputs converts a slice of numeric vectors to the [][]float64 form
// taken by Fit and Predict. Each row is converted independently; the
// input is never modified.
//
// Usage example:
//
//	inputs := gpr.ToInputs([][]int{{1, 2}, {3, 4}})
//	// [][]float64{{1, 2}, {3, 4}}
func ToInputs[T constraints.Integer | constraints.Float](rows [][]T) [][]float64 {
	out := make([][]float64, len(rows))

	for i, row := range rows {
		out[i] = ToFloat64s(row)
	}

	return out
}

// cloneVector returns a private copy of a float64 slice. The model
// copies every vector that crosses its API boundary so later caller
// mutations cannot corrupt the cached factorization.
func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)

	return out
}

// cloneInputs deep-copies a set of input vectors.
func cloneInputs(inputs [][]float64) [][]float64 {
	out := make([][]float64, len(inputs))

	for i, x := range inputs {
		out[i] = cloneVector(x)
	}

	return out
}
