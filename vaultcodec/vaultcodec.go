// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

// Package vaultcodec implements the Vault Codec (C5): the high-level
// encode_vault/decode_seed pair built on top of codec's interval codec and
// seed packer, plus the termination bounds (separator, max password
// length, max vault size) that make decode a defense against adversarial
// or corrupted seeds rather than only a correctness primitive.
package vaultcodec

import (
	"context"
	"fmt"
	mathrand "math/rand/v2"

	"github.com/lakshyaberia1/guardlocker/codec"
	"github.com/lakshyaberia1/guardlocker/errs"
	"github.com/lakshyaberia1/guardlocker/oracle"
	"github.com/lakshyaberia1/guardlocker/symbols"
)

// DefaultMaxPasswordLength is the per-password symbol cap applied when an
// options struct doesn't override it (spec.md §4.5).
const DefaultMaxPasswordLength = 25

// DecodeOptions bounds decode so that it terminates even on adversarial or
// corrupted seed bytes: a runaway distribution oracle can never make
// decode loop forever or allocate unbounded memory. These are defenses,
// not correctness conditions — the encoder is responsible for staying
// within them on the forward path.
type DecodeOptions struct {
	MaxPasswords      int
	MaxTotalLength    int
	MaxPasswordLength int
}

// DefaultDecodeOptions mirrors the teacher's FieldSchema-with-Default
// pattern: callers get sane bounds unless they explicitly override them.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		MaxPasswords:      256,
		MaxTotalLength:    256 * DefaultMaxPasswordLength,
		MaxPasswordLength: DefaultMaxPasswordLength,
	}
}

func (o DecodeOptions) withDefaults() DecodeOptions {
	if o.MaxPasswords <= 0 {
		o.MaxPasswords = DefaultDecodeOptions().MaxPasswords
	}
	if o.MaxTotalLength <= 0 {
		o.MaxTotalLength = DefaultDecodeOptions().MaxTotalLength
	}
	if o.MaxPasswordLength <= 0 {
		o.MaxPasswordLength = DefaultMaxPasswordLength
	}
	return o
}

// EncodeResult is the output of Encode: the packed seed bytes plus the
// number of real (non-padding) bits the packer wrote.
type EncodeResult struct {
	Seed     []byte
	BitsUsed int
}

// Encode runs C1's EncodeVault to build the flat symbol stream, then walks
// it through the interval codec and seed packer one symbol at a time,
// extending the predictor's context after every symbol including SEP
// (spec.md §4.5's encode algorithm).
func Encode(ctx context.Context, pred oracle.Predictor, rng *mathrand.Rand, passwords []string) (EncodeResult, error) {
	stream, err := symbols.EncodeVault(passwords)
	if err != nil {
		return EncodeResult{}, err
	}

	w := codec.NewBitWriter()
	history := make([]symbols.Symbol, 0, len(stream))

	for _, sym := range stream {
		if err := ctx.Err(); err != nil {
			return EncodeResult{}, fmt.Errorf("%w: %v", errs.ErrAborted, err)
		}
		dist, err := pred.Predict(history)
		if err != nil {
			return EncodeResult{}, fmt.Errorf("%w: %v", errs.ErrOracleFailure, err)
		}
		chunk, err := codec.EncodeSymbol(rng, dist, sym)
		if err != nil {
			return EncodeResult{}, err
		}
		if err := w.WriteChunk(chunk); err != nil {
			return EncodeResult{}, err
		}
		history = append(history, sym)
	}

	seed, bits := w.Bytes()
	return EncodeResult{Seed: seed, BitsUsed: bits}, nil
}

// Decode is C5's inverse: it walks seed bit-by-bit through C3's inverse
// step, reassembling SEP-terminated passwords, and is total over arbitrary
// byte strings (required so the envelope's decoy fallback can feed it
// garbage and still get a well-formed password list back).
func Decode(pred oracle.Predictor, seed []byte, opts DecodeOptions) ([]string, error) {
	opts = opts.withDefaults()

	r := codec.NewBitReader(seed)
	history := make([]symbols.Symbol, 0, opts.MaxTotalLength+1)
	var passwords []string
	var buf []rune
	totalSymbols := 0

	flush := func() {
		if len(buf) > 0 {
			passwords = append(passwords, string(buf))
			buf = nil
		}
	}

	for len(passwords) < opts.MaxPasswords && totalSymbols < opts.MaxTotalLength && !r.Exhausted() {
		dist, err := pred.Predict(history)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrOracleFailure, err)
		}
		sym, bits, err := codec.DecodeSymbol(dist, r.Peek)
		if err != nil {
			return nil, err
		}
		r.Advance(bits)
		history = append(history, sym)
		totalSymbols++

		// PAD and UNK end a password the same way SEP does, so no decoded
		// password ever contains a reserved marker.
		if symbols.IsReservedOrUnknown(sym) {
			flush()
			continue
		}
		buf = append(buf, rune(sym))
		if len(buf) >= opts.MaxPasswordLength {
			// Adversarial distribution protection (spec.md §4.5): force a
			// flush as if SEP had been emitted rather than growing buf
			// without bound.
			flush()
		}
	}
	// A password still in buf when the loop stops was never terminated by
	// SEP (e.g. symbols decoded from the zero padding after the final
	// SEP), so it is dropped rather than returned.
	return passwords, nil
}
