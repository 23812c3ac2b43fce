// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

// Package guardlocker wires the Symbol Table, Distribution Oracle,
// Interval Codec, Seed Packer, Vault Codec, Envelope, Decoy Fallback and
// Incremental Appender into the public honey-encrypted password vault
// surface: EncryptVault, DecryptVault, AppendPassword.
package guardlocker

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/lakshyaberia1/guardlocker/envelope"
	"github.com/lakshyaberia1/guardlocker/oracle"
)

// PasswordEntry is one honey-encrypted account: Password is encoded into
// the seed via the vault codec, Website/Username travel as plaintext in
// the sidecar (spec.md §6's sidecar_json "plaintext_entries").
type PasswordEntry struct {
	Website  string
	Username string
	Password string
}

// HoneyAccount is a decoy-monitoring stub carried alongside the real
// vault: a fabricated account whose use in the wild signals a breach.
// guardlocker stores these as opaque sidecar data; it does not itself
// monitor them (breach notification is out of scope, spec.md §1).
type HoneyAccount struct {
	Website   string
	Username  string
	Password  string
	CreatedAt time.Time
}

// Metadata is the public, serializable counterpart of envelope.Header: a
// versioned metadata record the caller is expected to retain alongside
// the ciphertext blob (e.g. in a database row). It is also consulted as
// a fallback source of truth when a ciphertext is too damaged to even
// parse its embedded header, so that DecryptVault can still synthesize a
// length-correct decoy (spec.md §7: "total over inputs").
type Metadata struct {
	Version          uint16
	KDFIterations    uint32
	Salt             [envelope.SaltSize]byte
	Nonce            [envelope.NonceSize]byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PasswordCount    uint32
	HasHoneyAccounts bool
}

func metadataFromHeader(h envelope.Header) Metadata {
	return Metadata{
		Version:          h.Version,
		KDFIterations:    h.KDFIterations,
		Salt:             h.Salt,
		Nonce:            h.Nonce,
		CreatedAt:        time.UnixMilli(h.CreatedMS),
		UpdatedAt:        time.UnixMilli(h.UpdatedMS),
		PasswordCount:    h.PasswordCount,
		HasHoneyAccounts: h.HasHoneyAccounts(),
	}
}

func (m Metadata) toHeader() envelope.Header {
	flags := uint8(0)
	if m.HasHoneyAccounts {
		flags |= envelope.HoneyAccountFlag
	}
	return envelope.Header{
		Version:       m.Version,
		KDFIterations: m.KDFIterations,
		Salt:          m.Salt,
		Nonce:         m.Nonce,
		CreatedMS:     m.CreatedAt.UnixMilli(),
		UpdatedMS:     m.UpdatedAt.UnixMilli(),
		PasswordCount: m.PasswordCount,
		Flags:         flags,
	}
}

// Option configures a Vault at construction time.
type Option func(*Vault)

// WithKDFIterations overrides the PBKDF2 iteration count new vaults are
// sealed with (existing vaults keep whatever count their header records).
func WithKDFIterations(n int) Option {
	return func(v *Vault) { v.kdfIterations = n }
}

// WithLogger attaches a logger for the envelope's internal diagnostic
// warnings (e.g. a KDF iteration count configured below the floor).
// Logging itself stays out of scope (spec.md §1); this only wires the
// one diagnostic hook the envelope already has.
func WithLogger(logger hclog.Logger) Option {
	return func(v *Vault) { v.logger = logger }
}

// WithDecoyTemperature overrides τ for C7 sampling (default 1.0).
func WithDecoyTemperature(t float64) Option {
	return func(v *Vault) { v.decoyTemperature = t }
}

// Vault ties the distribution oracle to an envelope/codec configuration.
// Its only mutable state is a lazily-built envelope.Envelope, guarded the
// same check-lock-check way the teacher's vectorBackend guards its cached
// matrix: readers take the fast RLock path once the envelope exists.
// Per-call scratch (symbol context, packer state, RNG) is never shared
// across calls, so concurrent Encrypt/Decrypt/Append calls on one Vault
// need no synchronization beyond the oracle's own reentrancy guarantee.
type Vault struct {
	predictor oracle.Predictor

	kdfIterations    int
	decoyTemperature float64
	logger           hclog.Logger

	mu  sync.RWMutex
	env *envelope.Envelope
}

// NewVault builds a Vault around the given distribution oracle. p must be
// non-nil and is used as-is (not copied); it must be safe for concurrent
// Predict calls, per its own contract (spec.md §4.2).
func NewVault(p oracle.Predictor, opts ...Option) *Vault {
	v := &Vault{
		predictor:        p,
		kdfIterations:    envelope.DefaultKDFIterations,
		decoyTemperature: 1.0,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Vault) envelopeFor() *envelope.Envelope {
	v.mu.RLock()
	if v.env != nil {
		env := v.env
		v.mu.RUnlock()
		return env
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.env != nil {
		return v.env
	}
	v.env = envelope.New(v.kdfIterations, v.logger)
	return v.env
}
