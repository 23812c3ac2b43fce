// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"testing"

	"github.com/lakshyaberia1/guardlocker/oracle"
	"github.com/lakshyaberia1/guardlocker/symbols"
)

func TestChunkWidthMonotonicInSize(t *testing.T) {
	wide := ChunkWidth(0.0, 0.5)  // common symbol, big interval
	narrow := ChunkWidth(0.5, 0.500001) // rare symbol, tiny interval
	if wide >= narrow {
		t.Fatalf("ChunkWidth(wide)=%d should be < ChunkWidth(narrow)=%d", wide, narrow)
	}
}

func TestChunkWidthClampedToRange(t *testing.T) {
	if b := ChunkWidth(0.0, 1.0); b != 1 {
		t.Fatalf("ChunkWidth(whole interval) = %d, want 1", b)
	}
	if b := ChunkWidth(0.5, 0.5); b != MaxChunkBits {
		t.Fatalf("ChunkWidth(empty interval) = %d, want %d", b, MaxChunkBits)
	}
}

func TestEncodeDecodeSymbolRoundTrip(t *testing.T) {
	rng, err := NewSecureRNG()
	if err != nil {
		t.Fatalf("NewSecureRNG: %v", err)
	}
	dist, _ := oracle.NewZipf(1.1).Predict(nil)

	for id := 0; id < symbols.AlphabetSize; id++ {
		sym := symbols.SymbolOf(id)
		chunk, err := EncodeSymbol(rng, dist, sym)
		if err != nil {
			t.Fatalf("EncodeSymbol(%d): %v", id, err)
		}

		gotSym, gotBits, err := DecodeSymbol(dist, func(b int) uint64 {
			// Present exactly the bits the encoder drew, left-padded/
			// truncated to the requested window width so every trial
			// width in DecodeSymbol's search sees the same fixed value.
			if b <= chunk.Bits {
				return chunk.Value >> uint(chunk.Bits-b)
			}
			return chunk.Value << uint(b-chunk.Bits)
		})
		if err != nil {
			t.Fatalf("DecodeSymbol(%d): %v", id, err)
		}
		if gotSym != sym {
			t.Fatalf("DecodeSymbol round-trip: id=%d got symbol %q (bits=%d), want %q (bits=%d)",
				id, gotSym, gotBits, sym, chunk.Bits)
		}
	}
}

func TestDecodeSymbolIsTotalOnAllZeroInput(t *testing.T) {
	dist, _ := oracle.NewUniform().Predict(nil)
	sym, bits, err := DecodeSymbol(dist, func(int) uint64 { return 0 })
	if err != nil {
		t.Fatalf("DecodeSymbol(all-zero): %v", err)
	}
	if bits < 1 || bits > MaxChunkBits {
		t.Fatalf("DecodeSymbol(all-zero) bits = %d, out of range", bits)
	}
	if symbols.IDOf(sym) < 0 {
		t.Fatalf("DecodeSymbol(all-zero) produced invalid symbol %q", sym)
	}
}

func TestDecodeSymbolRejectsInvalidDistribution(t *testing.T) {
	if _, _, err := DecodeSymbol(oracle.Distribution{0.5, 0.5}, func(int) uint64 { return 0 }); err == nil {
		t.Fatal("DecodeSymbol: want error on malformed distribution")
	}
}
