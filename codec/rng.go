// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec implements the Interval Codec (C3) and Seed Packer (C4):
// the bijection between a symbol-at-a-time walk through a distribution
// oracle and a packed, (near-)uniform bit stream.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	mathrand "math/rand/v2"
	"sync"
)

// CryptoSource implements rand.Source (math/rand/v2) using AES-CTR
// keystream output, adapted from the teacher's plugins/utils/crypto_source.go.
// There it backed gonum's NormFloat64 for Scale-And-Perturb noise; here it
// backs Uint64N draws that pick the uniformly random point inside a
// symbol's integer sub-interval (spec.md §4.3 step 5).
type CryptoSource struct {
	mu     sync.Mutex
	stream cipher.Stream
	buf    [8]byte
}

// NewCryptoSource creates a deterministic CSPRNG-shaped source from a
// 32-byte seed. The same seed always produces the same stream of draws,
// which the decoy fallback (C7) relies on for per-entry determinism.
func NewCryptoSource(seed [32]byte) (*CryptoSource, error) {
	block, err := aes.NewCipher(seed[:])
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	return &CryptoSource{stream: cipher.NewCTR(block, iv)}, nil
}

// Uint64 returns the next 64 bits of AES-CTR keystream.
func (s *CryptoSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.stream.XORKeyStream(s.buf[:], s.buf[:])
	var v uint64
	for _, b := range s.buf {
		v = v<<8 | uint64(b)
	}
	return v
}

// NewSecureRNG mirrors the teacher's matrix_utils.go NewSecureRNG: 32 bytes
// of crypto/rand entropy seed a fast userspace ChaCha8 generator, used for
// the high-volume per-symbol draws the forward interval codec makes. This
// is the CSPRNG spec.md §5 requires ("ordinary PRNGs break the security
// argument") without paying crypto/rand's syscall cost per symbol.
func NewSecureRNG() (*mathrand.Rand, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	return mathrand.New(mathrand.NewChaCha8(seed)), nil
}

// NewDeterministicRNG builds a math/rand/v2.Rand whose entire output
// stream is a pure function of seed — used by the decoy fallback, which
// must be deterministic per (wrong key, entry index) but must not reuse
// crypto/rand (that would make two decode calls diverge).
func NewDeterministicRNG(seed [32]byte) (*mathrand.Rand, error) {
	src, err := NewCryptoSource(seed)
	if err != nil {
		return nil, err
	}
	return mathrand.New(src), nil
}
