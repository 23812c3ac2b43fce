// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package oracle

import (
	"math"

	"github.com/lakshyaberia1/guardlocker/symbols"
)

// Uniform is a context-independent Predictor that spreads all mass evenly
// over the printable alphabet and the SEP marker, excluding PAD and UNK
// (which a well-formed predictor should never emit). Under Uniform every
// chunk width in the interval codec is 8 bits (spec.md §8 scenario 2),
// making it the reference oracle for the reproducible end-to-end tests.
type Uniform struct {
	dist Distribution
}

// NewUniform builds a Uniform oracle once; Predict is then a pure,
// allocation-free lookup regardless of context.
func NewUniform() *Uniform {
	d := make(Distribution, symbols.AlphabetSize)
	// 95 printable symbols + SEP share the mass; PAD/UNK get the epsilon
	// floor only, same as any other symbol a well-trained model starves.
	active := 96
	p := 1.0 / float64(active)
	for i := 0; i < symbols.AlphabetSize; i++ {
		sym := symbols.SymbolOf(i)
		if sym == symbols.PAD || sym == symbols.UNK {
			continue
		}
		d[i] = p
	}
	return &Uniform{dist: Clamped(d)}
}

// Predict implements Predictor. Context is ignored by construction.
func (u *Uniform) Predict(_ []symbols.Symbol) (Distribution, error) {
	out := make(Distribution, len(u.dist))
	copy(out, u.dist)
	return out, nil
}

// Zipf is a context-independent Predictor whose mass decays as 1/rank^s
// over a fixed ordering of the alphabet, giving property tests a skewed
// distribution (unlike Uniform, chunk widths here vary symbol to symbol).
type Zipf struct {
	dist Distribution
}

// NewZipf builds a Zipf-shaped distribution with exponent s over the
// alphabet ordering returned by symbols.SymbolOf(0..AlphabetSize).
func NewZipf(s float64) *Zipf {
	d := make(Distribution, symbols.AlphabetSize)
	sum := 0.0
	for i := 0; i < symbols.AlphabetSize; i++ {
		w := 1.0 / math.Pow(float64(i+1), s)
		d[i] = w
		sum += w
	}
	for i := range d {
		d[i] /= sum
	}
	return &Zipf{dist: Clamped(d)}
}

// Predict implements Predictor. Context is ignored by construction.
func (z *Zipf) Predict(_ []symbols.Symbol) (Distribution, error) {
	out := make(Distribution, len(z.dist))
	copy(out, z.dist)
	return out, nil
}
