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

// EncryptVault is C5+C6 end to end: it honey-encodes each entry's
// Password into a seed via the vault codec, packs the website/username
// plaintext and any honey-account stubs into the sidecar, and seals the
// result under master with a fresh salt and nonce (spec.md §6).
func (v *Vault) EncryptVault(passwords []PasswordEntry, master string, honeyAccounts []HoneyAccount) ([]byte, Metadata, error) {
	if v.predictor == nil {
		return nil, Metadata{}, fmt.Errorf("guardlocker: Vault has a nil predictor")
	}

	plain := make([]string, len(passwords))
	for i, e := range passwords {
		plain[i] = e.Password
	}

	rng, err := codec.NewSecureRNG()
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("guardlocker: build encode RNG: %w", err)
	}

	res, err := vaultcodec.Encode(context.Background(), v.predictor, rng, plain)
	if err != nil {
		return nil, Metadata{}, err
	}

	sidecarBytes, err := buildSidecar(passwords, honeyAccounts)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("guardlocker: marshal sidecar: %w", err)
	}

	now := time.Now()
	header := envelope.Header{
		CreatedMS:     now.UnixMilli(),
		UpdatedMS:     now.UnixMilli(),
		PasswordCount: uint32(len(passwords)),
	}
	if len(honeyAccounts) > 0 {
		header.Flags |= envelope.HoneyAccountFlag
	}

	record, err := v.envelopeFor().Seal(master, header, res.Seed, res.BitsUsed, sidecarBytes)
	if err != nil {
		return nil, Metadata{}, err
	}

	sealedHeader, _, parseErr := envelope.UnmarshalHeader(record)
	if parseErr != nil {
		// Unreachable: Seal just produced this header itself.
		return nil, Metadata{}, fmt.Errorf("guardlocker: internal: %w", parseErr)
	}
	return record, metadataFromHeader(sealedHeader), nil
}
