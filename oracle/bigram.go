// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package oracle

import (
	"fmt"

	"github.com/lakshyaberia1/guardlocker/errs"
	"github.com/lakshyaberia1/guardlocker/symbols"
	"gonum.org/v1/gonum/mat"
)

// Bigram is a reference Predictor backed by a row-normalized character
// bigram frequency table: a gonum mat.Dense of shape
// (AlphabetSize x AlphabetSize) where row i holds P(next | previous = i).
// It is not the production neural model (that stays out of scope per
// spec.md §1) but it gives the codec a non-flat, context-sensitive,
// matrix-backed distribution to exercise — the same numerical shape a
// trained model's output layer has, built the way the teacher repo builds
// its orthogonal matrix: accumulate into a Dense, then read rows back out
// via RawRowView-style access.
type Bigram struct {
	counts *mat.Dense // (AlphabetSize x AlphabetSize), row-normalized on Finalize
	start  Distribution
}

// NewBigram creates an empty bigram table. Call Observe for every adjacent
// symbol pair in a training corpus, then Finalize before using it as a
// Predictor.
func NewBigram() *Bigram {
	return &Bigram{
		counts: mat.NewDense(symbols.AlphabetSize, symbols.AlphabetSize, nil),
	}
}

// Observe records one (previous, next) adjacency from a training corpus.
func (b *Bigram) Observe(previous, next symbols.Symbol) {
	pi, ni := symbols.IDOf(previous), symbols.IDOf(next)
	b.counts.Set(pi, ni, b.counts.At(pi, ni)+1)
}

// Finalize row-normalizes the count matrix into probabilities and derives
// the context-less "start of vault" distribution from the SEP row, then
// freezes the table: Bigram is immutable (and therefore trivially
// reentrant) from this point on.
func (b *Bigram) Finalize() {
	r, c := b.counts.Dims()
	for i := 0; i < r; i++ {
		row := mat.Row(nil, i, b.counts)
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		if sum == 0 {
			// No observations for this row: fall back to uniform so the
			// table stays a total function over every context symbol.
			u := 1.0 / float64(c)
			for j := 0; j < c; j++ {
				b.counts.Set(i, j, u)
			}
			continue
		}
		for j := 0; j < c; j++ {
			b.counts.Set(i, j, row[j]/sum)
		}
	}
	b.start = Clamped(Distribution(mat.Row(nil, symbols.IDOf(symbols.SEP), b.counts)))
}

// Predict implements Predictor. The distribution depends only on the last
// symbol of context (a first-order Markov model), matching the bounded
// receptive field spec.md §3 allows an implementation to truncate to.
func (b *Bigram) Predict(context []symbols.Symbol) (Distribution, error) {
	if b.start == nil {
		return nil, fmt.Errorf("%w: bigram table used before Finalize", errs.ErrOracleFailure)
	}
	if len(context) == 0 {
		out := make(Distribution, len(b.start))
		copy(out, b.start)
		return out, nil
	}
	prev := context[len(context)-1]
	row := mat.Row(nil, symbols.IDOf(prev), b.counts)
	return Clamped(Distribution(row)), nil
}
