// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

// Package errs holds the error kinds shared across the codec packages, so
// that every package can return an `errors.Is`-compatible sentinel without
// importing the root module (which would create an import cycle).
//
// See spec.md §7 for the full kind/propagation table. AuthFailure and
// Malformed are deliberately not defined here: the envelope package
// defines them (ErrAuthFailure, ErrMalformed) and DecryptVault turns both
// into a decoy, so they never leave decrypt_vault.
package errs

import "errors"

var (
	// ErrInvalidInput: reserved symbol in password, password too long,
	// count over limit. Raised by symbols/vaultcodec. Never substituted.
	ErrInvalidInput = errors.New("guardlocker: invalid input")

	// ErrOracleFailure: the distribution oracle returned a non-probability
	// vector, or one of the wrong length. Fatal: the codec refuses to
	// proceed.
	ErrOracleFailure = errors.New("guardlocker: oracle failure")

	// ErrAborted: cancellation fired between symbols. No partial seed is
	// ever returned alongside this error.
	ErrAborted = errors.New("guardlocker: aborted")

	// ErrInternalInvariant: decoder fallthrough or an impossible chunk
	// width. Indicates a bug in the codec itself, not bad input.
	ErrInternalInvariant = errors.New("guardlocker: internal invariant violated")
)
