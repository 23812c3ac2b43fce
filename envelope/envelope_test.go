// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	e := New(DefaultKDFIterations, nil)
	seed := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	sidecar := []byte(`{"plaintext_entries":[]}`)

	record, err := e.Seal("correct horse battery staple", Header{PasswordCount: 2}, seed, 29, sidecar)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	_, gotSeed, gotBits, gotSidecar, err := e.Open("correct horse battery staple", record)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(gotSeed, seed) {
		t.Fatalf("Open seed = %x, want %x", gotSeed, seed)
	}
	if gotBits != 29 {
		t.Fatalf("Open bitsUsed = %d, want 29", gotBits)
	}
	if !bytes.Equal(gotSidecar, sidecar) {
		t.Fatalf("Open sidecar = %q, want %q", gotSidecar, sidecar)
	}
}

func TestOpenWrongMasterFailsAuth(t *testing.T) {
	e := New(DefaultKDFIterations, nil)
	record, err := e.Seal("correct horse battery staple", Header{PasswordCount: 1}, []byte{1, 2, 3}, 24, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	_, _, _, _, err = e.Open("wrong password", record)
	if !errors.Is(err, ErrAuthFailure) {
		t.Fatalf("Open(wrong master): err = %v, want ErrAuthFailure", err)
	}
}

func TestOpenTamperedCiphertextFailsAuth(t *testing.T) {
	e := New(DefaultKDFIterations, nil)
	record, err := e.Seal("correct horse battery staple", Header{PasswordCount: 1}, []byte{1, 2, 3}, 24, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	tampered := append([]byte(nil), record...)
	tampered[len(tampered)-1] ^= 0xFF // flip last byte of the GCM tag

	_, _, _, _, err = e.Open("correct horse battery staple", tampered)
	if !errors.Is(err, ErrAuthFailure) {
		t.Fatalf("Open(tampered): err = %v, want ErrAuthFailure", err)
	}
}

func TestOpenRejectsTruncatedHeader(t *testing.T) {
	e := New(DefaultKDFIterations, nil)
	_, _, _, _, err := e.Open("master", []byte{'H', 'V', 'L', 'T'})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Open(short header): err = %v, want ErrMalformed", err)
	}
}

func TestNewClampsLowIterationCount(t *testing.T) {
	e := New(10, nil)
	if e.Iterations != MinKDFIterations {
		t.Fatalf("Iterations = %d, want clamped to %d", e.Iterations, MinKDFIterations)
	}
}

func TestSealProducesFreshNoncePerCall(t *testing.T) {
	e := New(DefaultKDFIterations, nil)
	r1, err := e.Seal("m", Header{}, []byte{1}, 8, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	r2, err := e.Seal("m", Header{}, []byte{1}, 8, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(r1, r2) {
		t.Fatal("two Seal calls with identical input produced identical records (nonce/salt reuse)")
	}
}
