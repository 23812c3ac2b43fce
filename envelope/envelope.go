// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/crypto/pbkdf2"
)

// MinKDFIterations is the floor spec.md §6 mandates ("≥100,000
// iterations"). Envelope clamps up to this floor rather than rejecting a
// caller-supplied lower value outright, logging a warning the way the
// teacher's config handler warns on an oversized dimension instead of
// refusing it outright.
const MinKDFIterations = 100_000

// DefaultKDFIterations is used when a caller doesn't specify one.
const DefaultKDFIterations = 100_000

// KeySize is the AES-256 key length the KDF must produce.
const KeySize = 32

// ErrAuthFailure signals an AEAD tag mismatch: the supplied master does
// not match the one the vault was sealed under. Per spec.md §7 this is
// caught by decrypt_vault and converted into a decoy; it never reaches
// the caller of the public API.
var ErrAuthFailure = errors.New("envelope: authentication failed")

// Envelope seals and opens vault records. Iterations and Logger are
// read-only configuration; Envelope itself holds no per-call state, so a
// single instance may be shared across goroutines (spec.md §5).
type Envelope struct {
	Iterations int
	Logger     hclog.Logger
}

// New builds an Envelope with the given KDF iteration count, clamped up
// to MinKDFIterations. A nil logger is replaced with hclog's discard
// logger so callers never need a nil check.
func New(iterations int, logger hclog.Logger) *Envelope {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if iterations < MinKDFIterations {
		if iterations > 0 {
			logger.Warn("configured kdf iteration count below recommended floor, clamping",
				"configured", iterations, "floor", MinKDFIterations)
		}
		iterations = MinKDFIterations
	}
	return &Envelope{Iterations: iterations, Logger: logger}
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over master and salt, the teacher's
// pack-adopted KDF primitive from golang.org/x/crypto, producing a
// KeySize-byte AES-256 key.
func DeriveKey(master string, salt []byte, iterations int) [KeySize]byte {
	raw := pbkdf2.Key([]byte(master), salt, iterations, KeySize, sha256.New)
	var key [KeySize]byte
	copy(key[:], raw)
	return key
}

// payloadPrefixSize is seed_len(4 BE) ‖ bits_used(4 BE): bits_used rides
// alongside seed_len because the seed packer (codec.BitWriter) rounds its
// byte output up to a whole byte, so the trailing bits of the final byte
// may be padding rather than real packed content. Incremental append
// needs the exact bit boundary to resume the bit stream without splicing
// in those padding bits as spurious symbols. Decode itself does not need
// this value: it reads on into the padding, but whatever it decodes there
// is never terminated by SEP and is dropped.
const payloadPrefixSize = 8

// Seal builds a complete on-disk record: header bytes ‖ AEAD ciphertext
// (with the 16-byte GCM tag appended), where payload =
// seed_len(4 BE) ‖ bits_used(4 BE) ‖ seed ‖ sidecar. The header is passed
// as AEAD associated data and also persisted in the clear, per spec.md
// §6 — metadata authenticity rides on AAD, not on being inside the
// ciphertext.
func (e *Envelope) Seal(master string, header Header, seed []byte, seedBitsUsed int, sidecar []byte) ([]byte, error) {
	var salt [SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("envelope: generate salt: %w", err)
	}
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("envelope: generate nonce: %w", err)
	}
	header.Version = Version
	header.KDFIterations = uint32(e.Iterations)
	header.Salt = salt
	header.Nonce = nonce

	key := DeriveKey(master, salt[:], e.Iterations)
	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: build AEAD: %w", err)
	}

	payload := make([]byte, payloadPrefixSize+len(seed)+len(sidecar))
	binary.BigEndian.PutUint32(payload, uint32(len(seed)))
	binary.BigEndian.PutUint32(payload[4:], uint32(seedBitsUsed))
	copy(payload[payloadPrefixSize:], seed)
	copy(payload[payloadPrefixSize+len(seed):], sidecar)

	headerBytes := header.Marshal()
	body := gcm.Seal(nil, nonce[:], payload, headerBytes)

	record := make([]byte, 0, len(headerBytes)+len(body))
	record = append(record, headerBytes...)
	record = append(record, body...)
	return record, nil
}

// Open parses header + body from record and authenticates/decrypts the
// payload under the key derived from master. It returns ErrAuthFailure on
// a tag mismatch and ErrMalformed on a structurally inconsistent payload
// (seed_len that doesn't fit); both are meant to be caught by a caller
// that falls back to a decoy (spec.md §4.6/§7), never surfaced further.
func (e *Envelope) Open(master string, record []byte) (header Header, seed []byte, seedBitsUsed int, sidecar []byte, err error) {
	header, headerLen, err := UnmarshalHeader(record)
	if err != nil {
		return Header{}, nil, 0, nil, err
	}
	body := record[headerLen:]

	key := DeriveKey(master, header.Salt[:], int(header.KDFIterations))
	gcm, err := newGCM(key)
	if err != nil {
		return Header{}, nil, 0, nil, fmt.Errorf("envelope: build AEAD: %w", err)
	}

	payload, err := gcm.Open(nil, header.Nonce[:], body, record[:headerLen])
	if err != nil {
		return Header{}, nil, 0, nil, fmt.Errorf("%w", ErrAuthFailure)
	}

	if len(payload) < payloadPrefixSize {
		return Header{}, nil, 0, nil, fmt.Errorf("%w: payload shorter than seed_len/bits_used prefix", ErrMalformed)
	}
	seedLen := binary.BigEndian.Uint32(payload)
	bitsUsed := binary.BigEndian.Uint32(payload[4:])
	if int(seedLen) > len(payload)-payloadPrefixSize {
		return Header{}, nil, 0, nil, fmt.Errorf("%w: seed_len %d exceeds payload size %d", ErrMalformed, seedLen, len(payload)-payloadPrefixSize)
	}
	seed = payload[payloadPrefixSize : payloadPrefixSize+seedLen]
	sidecar = payload[payloadPrefixSize+seedLen:]
	return header, seed, int(bitsUsed), sidecar, nil
}

func newGCM(key [KeySize]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
