// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package guardlocker

import (
	"context"
	"fmt"
	"time"

	"github.com/lakshyaberia1/guardlocker/codec"
	"github.com/lakshyaberia1/guardlocker/envelope"
	"github.com/lakshyaberia1/guardlocker/vaultcodec"
)

// AppendPassword is C8 end to end: it re-opens the existing vault under
// master (which must succeed — appending to a vault the caller cannot
// open is rejected rather than silently appending to a decoy), then
// extends the seed's bit string in place via vaultcodec.Append, and
// reseals under a fresh salt and nonce.
//
// priorPasswords lets the caller skip a redundant Decode when it already
// holds the plaintext (e.g. the in-memory vault it just displayed); if
// empty, they are recovered from the existing ciphertext.
func (v *Vault) AppendPassword(oldCiphertext []byte, oldMeta Metadata, master string, entry PasswordEntry, priorPasswords []PasswordEntry) ([]byte, Metadata, error) {
	if v.predictor == nil {
		return nil, Metadata{}, fmt.Errorf("guardlocker: Vault has a nil predictor")
	}

	header, seed, seedBits, sidecarBytes, err := v.envelopeFor().Open(master, oldCiphertext)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("guardlocker: append: %w", err)
	}

	sc := parseSidecar(sidecarBytes)
	if len(priorPasswords) == 0 {
		plain, decErr := vaultcodec.Decode(v.predictor, seed, vaultcodec.DefaultDecodeOptions())
		if decErr != nil {
			return nil, Metadata{}, decErr
		}
		priorPasswords = mergePasswords(plain, sc)
	}

	priorPlain := make([]string, len(priorPasswords))
	for i, e := range priorPasswords {
		priorPlain[i] = e.Password
	}

	rng, err := codec.NewSecureRNG()
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("guardlocker: build append RNG: %w", err)
	}

	delta, err := vaultcodec.Append(context.Background(), v.predictor, rng, seed, seedBits, priorPlain, entry.Password)
	if err != nil {
		return nil, Metadata{}, err
	}

	allEntries := append(append([]PasswordEntry{}, priorPasswords...), entry)
	sidecarOut, err := buildSidecar(allEntries, decodeHoneyAccounts(sc))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("guardlocker: marshal sidecar: %w", err)
	}

	now := time.Now()
	newHeader := envelope.Header{
		CreatedMS:     header.CreatedMS,
		UpdatedMS:     now.UnixMilli(),
		PasswordCount: uint32(len(allEntries)),
		Flags:         header.Flags,
	}
	_ = oldMeta // retained for interface symmetry with EncryptVault/DecryptVault

	record, err := v.envelopeFor().Seal(master, newHeader, delta.Seed, delta.BitsUsed, sidecarOut)
	if err != nil {
		return nil, Metadata{}, err
	}
	sealedHeader, _, parseErr := envelope.UnmarshalHeader(record)
	if parseErr != nil {
		return nil, Metadata{}, fmt.Errorf("guardlocker: internal: %w", parseErr)
	}
	return record, metadataFromHeader(sealedHeader), nil
}
