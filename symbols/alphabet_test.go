// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package symbols

import (
	"errors"
	"testing"

	"github.com/lakshyaberia1/guardlocker/errs"
)

func TestIDOfRoundTrip(t *testing.T) {
	for b := PrintableLow; b <= PrintableHigh; b++ {
		sym := Symbol(b)
		id := IDOf(sym)
		if got := SymbolOf(id); got != sym {
			t.Errorf("SymbolOf(IDOf(%q)) = %q, want %q", sym, got, sym)
		}
	}
}

func TestIDOfReservedMarkers(t *testing.T) {
	tests := []struct {
		name string
		sym  Symbol
	}{
		{"sep", SEP},
		{"pad", PAD},
		{"unk", UNK},
	}
	seen := map[int]bool{}
	for _, tt := range tests {
		id := IDOf(tt.sym)
		if id < 0 || id >= AlphabetSize {
			t.Errorf("%s: id %d out of range [0, %d)", tt.name, id, AlphabetSize)
		}
		if seen[id] {
			t.Errorf("%s: id %d collides with another reserved marker", tt.name, id)
		}
		seen[id] = true
	}
}

func TestIDOfUnknownCodePoint(t *testing.T) {
	// Outside the printable range maps to UNK's id, never to a printable id.
	if got, want := IDOf(Symbol(0x01)), IDOf(UNK); got != want {
		t.Errorf("IDOf(0x01) = %d, want UNK id %d", got, want)
	}
}

func TestAlphabetSize(t *testing.T) {
	if AlphabetSize != 98 {
		t.Fatalf("AlphabetSize = %d, want 98 (95 printable + SEP + PAD + UNK)", AlphabetSize)
	}
}

func TestEncodeDecodeVaultRoundTrip(t *testing.T) {
	passwords := []string{"abc", "MySecret2024", "p", ""}
	stream, err := EncodeVault(passwords)
	if err != nil {
		t.Fatalf("EncodeVault: %v", err)
	}
	got := DecodeStream(stream)
	want := []string{"abc", "MySecret2024", "p"} // empty password drops out
	if len(got) != len(want) {
		t.Fatalf("DecodeStream(EncodeVault(P)) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEncodeVaultEmptyList(t *testing.T) {
	stream, err := EncodeVault(nil)
	if err != nil {
		t.Fatalf("EncodeVault(nil): %v", err)
	}
	if len(stream) != 1 || stream[0] != SEP {
		t.Fatalf("EncodeVault(nil) = %v, want a single SEP terminator", stream)
	}
}

func TestEncodeVaultRejectsControlCharacter(t *testing.T) {
	_, err := EncodeVault([]string{"ab"})
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("EncodeVault with control char: err = %v, want errs.ErrInvalidInput", err)
	}
}

func TestDecodeStreamDropsDoubleSeparators(t *testing.T) {
	stream := []Symbol{SEP, 'a', SEP, SEP, 'b', SEP}
	got := DecodeStream(stream)
	want := []string{"a", "b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("DecodeStream = %v, want %v", got, want)
	}
}
