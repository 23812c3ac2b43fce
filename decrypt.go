// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package guardlocker

import (
	"errors"
	"fmt"

	"github.com/lakshyaberia1/guardlocker/decoy"
	"github.com/lakshyaberia1/guardlocker/envelope"
	"github.com/lakshyaberia1/guardlocker/vaultcodec"
)

// DecryptVault is total over ciphertext: a wrong master, a corrupted
// envelope, or a malformed packed seed never surfaces an error to the
// caller — each instead falls back to a synthesized decoy of the right
// length (spec.md §7). The only error DecryptVault can return is for
// malformed Go-level caller input (a nil Predictor), never for anything
// about the bytes of ciphertext itself.
//
// meta is the caller's last-known-good Metadata for this vault (normally
// whatever EncryptVault/AppendPassword most recently returned). It is
// consulted only when ciphertext is too damaged to parse even its own
// header, so a decoy of plausible length can still be produced.
func (v *Vault) DecryptVault(ciphertext []byte, master string, meta Metadata) ([]PasswordEntry, error) {
	if v.predictor == nil {
		return nil, fmt.Errorf("guardlocker: Vault has a nil predictor")
	}

	header, seed, _, sidecarBytes, err := v.envelopeFor().Open(master, ciphertext)
	if err == nil {
		passwords, decErr := vaultcodec.Decode(v.predictor, seed, vaultcodec.DefaultDecodeOptions())
		if decErr == nil {
			sc := parseSidecar(sidecarBytes)
			return mergePasswords(passwords, sc), nil
		}
		// seed decoded from a successfully authenticated envelope should
		// never fail: Decode is total. Treat as internal invariant rather
		// than silently falling to the decoy path, which would mask a bug.
		return nil, decErr
	}

	if !errors.Is(err, envelope.ErrAuthFailure) && !errors.Is(err, envelope.ErrMalformed) {
		return nil, err
	}

	// AuthFailure or Malformed: synthesize a decoy, keyed by the best
	// available salt/iteration count (the ciphertext's own header if it
	// parsed, else the caller-supplied fallback metadata).
	count := meta.PasswordCount
	salt := meta.Salt
	iterations := meta.KDFIterations
	if h, _, parseErr := envelope.UnmarshalHeader(ciphertext); parseErr == nil {
		header = h
		count = header.PasswordCount
		salt = header.Salt
		iterations = header.KDFIterations
	}
	if iterations == 0 {
		iterations = envelope.DefaultKDFIterations
	}

	derivedKey := envelope.DeriveKey(master, salt[:], int(iterations))
	entries, synthErr := decoy.Synthesize(v.predictor, derivedKey, int(count), decoy.Options{
		Temperature:       v.decoyTemperature,
		MaxPasswordLength: vaultcodec.DefaultMaxPasswordLength,
	})
	if synthErr != nil {
		return nil, synthErr
	}

	out := make([]PasswordEntry, len(entries))
	for i, e := range entries {
		out[i] = PasswordEntry{Website: e.Website, Username: e.Username, Password: e.Password}
	}
	return out, nil
}
