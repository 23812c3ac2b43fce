// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

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

// Append is the C8 incremental appender: it encodes only the new
// password (plus its trailing separator) against the context built from
// the passwords already in the vault, then concatenates the delta onto
// the existing seed at the bit level. The caller supplies the prior
// plaintext passwords — vaultcodec has no way to recover them from seed
// bytes alone without re-running Decode, and doing that would defeat the
// point of an incremental append.
//
// Prefix-keeping (spec.md §4.8): decoding oldSeed‖Δseed under the same
// predictor recovers priorPasswords followed by newPassword, because
// Append never rewrites oldSeed's bytes — it only writes new bits after
// them, using the same MSB-first packer order Encode uses.
func Append(ctx context.Context, pred oracle.Predictor, rng *mathrand.Rand, oldSeed []byte, oldBitsUsed int, priorPasswords []string, newPassword string) (EncodeResult, error) {
	history, err := symbols.EncodeVault(priorPasswords)
	if err != nil {
		return EncodeResult{}, err
	}

	deltaStream := make([]symbols.Symbol, 0, len(newPassword)+1)
	for i, r := range newPassword {
		sym := symbols.Symbol(r)
		if symbols.IsReservedOrUnknown(sym) {
			return EncodeResult{}, fmt.Errorf("%w: appended password contains unrepresentable code point %q at index %d", errs.ErrInvalidInput, r, i)
		}
		deltaStream = append(deltaStream, sym)
	}
	deltaStream = append(deltaStream, symbols.SEP)

	dw := codec.NewBitWriter()
	for _, sym := range deltaStream {
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
		if err := dw.WriteChunk(chunk); err != nil {
			return EncodeResult{}, err
		}
		history = append(history, sym)
	}

	deltaSeed, deltaBits := dw.Bytes()

	w := codec.NewBitWriter()
	w.WriteBits(oldSeed, oldBitsUsed)
	w.WriteBits(deltaSeed, deltaBits)
	seed, bits := w.Bytes()

	return EncodeResult{Seed: seed, BitsUsed: bits}, nil
}
