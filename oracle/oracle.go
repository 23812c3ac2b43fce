// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

// Package oracle defines the contract the codec consumes from the external
// next-symbol distribution model (the neural predictor is out of scope;
// see spec.md §1/§4.2), plus reference implementations used by tests and by
// the decoy fallback.
package oracle

import (
	"fmt"
	"math"

	"github.com/lakshyaberia1/guardlocker/errs"
	"github.com/lakshyaberia1/guardlocker/symbols"
	"gonum.org/v1/gonum/floats"
)

// Epsilon is the numerical floor applied to any probability mass before it
// participates in cumulative-interval math (spec.md §3/§4.3).
const Epsilon = 1e-10

// Distribution is a length-AlphabetSize probability vector over the fixed
// alphabet, indexed by symbols.IDOf.
type Distribution []float64

// Predictor is the oracle contract: a pure, reentrant function of the
// symbol history. Implementations MUST be safe for concurrent calls and
// MUST NOT hold hidden state that context doesn't capture.
type Predictor interface {
	Predict(context []symbols.Symbol) (Distribution, error)
}

// PredictorFunc adapts a plain function to the Predictor interface.
type PredictorFunc func(context []symbols.Symbol) (Distribution, error)

// Predict implements Predictor.
func (f PredictorFunc) Predict(context []symbols.Symbol) (Distribution, error) {
	return f(context)
}

// Validate checks that d has the right length and sums to 1 within
// tolerance, in the style of the teacher's ValidateOrthogonality: a
// bounded loop checking a numerical invariant against an epsilon. Unlike
// ValidateOrthogonality this does not reject small deviations outright —
// it reports them as an OracleFailure so the caller can refuse to proceed,
// matching spec.md §7.
func Validate(d Distribution) error {
	if len(d) != symbols.AlphabetSize {
		return fmt.Errorf("%w: distribution has length %d, want %d", errs.ErrOracleFailure, len(d), symbols.AlphabetSize)
	}
	sum := 0.0
	for i, p := range d {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return fmt.Errorf("%w: distribution[%d] = %v is not a valid probability", errs.ErrOracleFailure, i, p)
		}
		sum += p
	}
	const tolerance = 1e-9
	if math.Abs(sum-1.0) > tolerance {
		return fmt.Errorf("%w: distribution sums to %v, want 1±%v", errs.ErrOracleFailure, sum, tolerance)
	}
	return nil
}

// Clamped returns a copy of d with every entry floored at Epsilon, as
// spec.md §3 requires ("an implementation MUST clamp at ε before use").
// Every entry is then divided by the new total so the vector still sums
// to 1 within tolerance after clamping.
func Clamped(d Distribution) Distribution {
	out := make(Distribution, len(d))
	copy(out, d)
	sum := 0.0
	for i, p := range out {
		if p < Epsilon {
			out[i] = Epsilon
		}
		sum += out[i]
	}
	if sum != 1.0 && len(out) > 0 {
		// Renormalize so clamping never pushes the total meaningfully off 1.
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// Cumulative returns the cumulative distribution of d: Cumulative(d)[i] is
// the sum of d[0..i]. The last entry is forced to exactly 1.0 to absorb
// floating point residue at the tail (spec.md §4.3 numerical policy).
func Cumulative(d Distribution) []float64 {
	cum := make([]float64, len(d))
	floats.CumSum(cum, d)
	if n := len(cum); n > 0 {
		cum[n-1] = 1.0
	}
	return cum
}

// Interval returns [L, R) for the symbol at id under the cumulative array
// produced by Cumulative.
func Interval(cum []float64, id int) (lo, hi float64) {
	if id == 0 {
		lo = 0.0
	} else {
		lo = cum[id-1]
	}
	hi = cum[id]
	return lo, hi
}
