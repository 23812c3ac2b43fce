// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"math"
	mathrand "math/rand/v2"
	"sort"

	"github.com/lakshyaberia1/guardlocker/errs"
	"github.com/lakshyaberia1/guardlocker/oracle"
	"github.com/lakshyaberia1/guardlocker/symbols"
)

// MaxChunkBits caps the per-symbol chunk width (spec.md §4.3 step 3).
const MaxChunkBits = 32

// Chunk is one symbol's encoding under the interval codec: a value drawn
// uniformly from its integer sub-interval, and the bit width that
// sub-interval was drawn from.
type Chunk struct {
	Value uint64
	Bits  int
}

// ChunkWidth computes the bit width b for an interval of size [lo, hi):
// b = clamp(ceil(-log2(hi-lo)) + 1, 1, MaxChunkBits). More probable
// symbols get narrower intervals and so consume fewer bits.
func ChunkWidth(lo, hi float64) int {
	size := hi - lo
	if size <= 0 {
		size = oracle.Epsilon
	}
	bits := int(math.Ceil(-math.Log2(size))) + 1
	if bits < 1 {
		bits = 1
	}
	if bits > MaxChunkBits {
		bits = MaxChunkBits
	}
	return bits
}

// integerSubInterval maps [lo, hi) into [0, 2^bits) and returns the
// integer bounds [ceil(lo·2^bits), floor(hi·2^bits)), widening to a single
// point if rounding collapsed the interval to empty (spec.md §4.3 step 4).
// Rounding start up keeps every x in the range a bit prefix that lies
// wholly inside [lo, hi), so no shorter prefix can decode as a neighbour.
// At any width other than ChunkWidth(lo, hi) the interval is empty, so
// the decoder only accepts a symbol at the width the encoder used for it.
func integerSubInterval(lo, hi float64, bits int) (start, end uint64) {
	space := float64(uint64(1) << uint(bits))
	start = uint64(math.Ceil(lo * space))
	if bits != ChunkWidth(lo, hi) {
		return start, start
	}
	end = uint64(hi * space)
	if end <= start {
		end = start + 1
	}
	return start, end
}

// EncodeSymbol is the C3 forward step: given the distribution at the
// current context position and the symbol actually being encoded, it
// returns the (value, bits) chunk to append to the seed.
func EncodeSymbol(rng *mathrand.Rand, dist oracle.Distribution, sym symbols.Symbol) (Chunk, error) {
	if err := oracle.Validate(dist); err != nil {
		return Chunk{}, err
	}
	dist = oracle.Clamped(dist)
	cum := oracle.Cumulative(dist)
	id := symbols.IDOf(sym)
	lo, hi := oracle.Interval(cum, id)

	bits := ChunkWidth(lo, hi)
	start, end := integerSubInterval(lo, hi, bits)

	// Draw uniformly in [start, end) with a CSPRNG, per spec.md §4.3 step 5
	// and §5's CSPRNG requirement.
	span := end - start
	value := start + rng.Uint64N(span)
	return Chunk{Value: value, Bits: bits}, nil
}

// DecodeSymbol is the C3 inverse step: given the next bits of the seed
// (seen as an arbitrary-width bit window) and the distribution at the
// current context position, find the (symbol, bits) pair the forward
// encoder would have produced, or fail over to the always-total fallback
// described in spec.md §4.3 step 3.
//
// peek(b) must return the next b bits of the remaining seed, MSB-first,
// as a uint64 (zero-extended once the seed is exhausted, so the decoder
// stays total on arbitrary byte strings — required for honey-encryption
// decoys).
func DecodeSymbol(dist oracle.Distribution, peek func(bits int) uint64) (sym symbols.Symbol, bits int, err error) {
	if err := oracle.Validate(dist); err != nil {
		return 0, 0, err
	}
	dist = oracle.Clamped(dist)
	cum := oracle.Cumulative(dist)

	for b := 1; b <= MaxChunkBits; b++ {
		x := peek(b)
		if id, ok := locateSymbol(cum, x, b); ok {
			return symbols.SymbolOf(id), b, nil
		}
	}

	// Unreachable when the encoder produced this seed (spec.md §4.3 step
	// 3), but the decoder must still be total over adversarial bytes.
	x := peek(MaxChunkBits)
	id, _ := locateSymbol(cum, x, MaxChunkBits)
	return symbols.SymbolOf(id), MaxChunkBits, nil
}

// locateSymbol finds the id whose integer sub-interval at width bits
// contains x, and reports whether that interval actually contains it.
//
// The initial guess comes from a real-valued binary search on the
// cumulative distribution (cum[i] > q, q = x/2^bits), matching the
// right-side tie-break spec.md §4.3 mandates. The guess is then verified
// against integerSubInterval, which is empty unless bits is that
// symbol's own chunk width; id+1 is also checked when x lies at or past
// the guessed symbol's upper integer bound.
func locateSymbol(cum []float64, x uint64, bits int) (id int, ok bool) {
	space := float64(uint64(1) << uint(bits))
	q := float64(x) / space

	// Right-side binary search: strict < on cumulative, <= on the upper
	// bound, so probability ties break toward the lower symbol id. This
	// ordering is part of the wire contract (spec.md §4.3).
	id = sort.Search(len(cum), func(i int) bool { return cum[i] > q })
	if id >= len(cum) {
		id = len(cum) - 1
	}

	lo, hi := oracle.Interval(cum, id)
	start, end := integerSubInterval(lo, hi, bits)
	if x >= start && x < end {
		return id, true
	}
	if x >= end && id+1 < len(cum) {
		lo2, hi2 := oracle.Interval(cum, id+1)
		start2, end2 := integerSubInterval(lo2, hi2, bits)
		if x >= start2 && x < end2 {
			return id + 1, true
		}
	}
	return id, false
}

// mustValidBits is a defensive check used by callers that assemble Chunks
// into a packer; it surfaces ErrInternalInvariant rather than silently
// packing a malformed chunk.
func mustValidBits(bits int) error {
	if bits < 1 || bits > MaxChunkBits {
		return fmt.Errorf("%w: chunk width %d out of [1, %d]", errs.ErrInternalInvariant, bits, MaxChunkBits)
	}
	return nil
}
