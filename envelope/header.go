// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

// Package envelope implements the Envelope (C6): key derivation from a
// master passphrase and authenticated encryption of the composite record
// (seed_len‖bits_used‖seed‖sidecar_json), plus the versioned on-disk header that
// doubles as AEAD associated data (spec.md §6).
package envelope

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed signals a structurally inconsistent on-disk record (short
// header, bad magic, or — once the body is open — a seed_len prefix that
// doesn't fit the payload). Per spec.md §7 this is caught by decrypt_vault
// and converted into a decoy, same as ErrAuthFailure; it never reaches the
// caller of the public API.
var ErrMalformed = errors.New("envelope: malformed record")

// Magic is the fixed 4-byte tag identifying a guardlocker vault file.
var Magic = [4]byte{'H', 'V', 'L', 'T'}

// Version is the current on-disk format version.
const Version uint16 = 1

// SaltSize, NonceSize and the rest fix the header layout byte-for-byte;
// changing any of them changes the wire format (spec.md §6).
const (
	SaltSize  = 32
	NonceSize = 12
	TagSize   = 16

	// HoneyAccountFlag is flags bit 0: set when the sidecar carries honey
	// account stubs.
	HoneyAccountFlag = 1 << 0

	headerSize = 4 + 2 + 4 + SaltSize + NonceSize + 8 + 8 + 4 + 1
)

// Header is the unencrypted prefix of an on-disk vault: versioned
// metadata that also serves as GCM associated data, so tampering with any
// field (including the declared password count) invalidates the AEAD tag
// just as tampering with the ciphertext body does.
type Header struct {
	Version       uint16
	KDFIterations uint32
	Salt          [SaltSize]byte
	Nonce         [NonceSize]byte
	CreatedMS     int64
	UpdatedMS     int64
	PasswordCount uint32
	Flags         uint8
}

// Marshal serializes the header to its fixed big-endian wire layout.
func (h Header) Marshal() []byte {
	buf := make([]byte, headerSize)
	off := 0
	copy(buf[off:], Magic[:])
	off += 4
	binary.BigEndian.PutUint16(buf[off:], h.Version)
	off += 2
	binary.BigEndian.PutUint32(buf[off:], h.KDFIterations)
	off += 4
	copy(buf[off:], h.Salt[:])
	off += SaltSize
	copy(buf[off:], h.Nonce[:])
	off += NonceSize
	binary.BigEndian.PutUint64(buf[off:], uint64(h.CreatedMS))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], uint64(h.UpdatedMS))
	off += 8
	binary.BigEndian.PutUint32(buf[off:], h.PasswordCount)
	off += 4
	buf[off] = h.Flags
	return buf
}

// UnmarshalHeader parses the fixed-layout header prefix of an on-disk
// vault, returning the number of bytes consumed.
func UnmarshalHeader(data []byte) (Header, int, error) {
	if len(data) < headerSize {
		return Header{}, 0, fmt.Errorf("%w: header truncated: have %d bytes, want %d", ErrMalformed, len(data), headerSize)
	}
	var h Header
	off := 0
	if string(data[off:off+4]) != string(Magic[:]) {
		return Header{}, 0, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	off += 4
	h.Version = binary.BigEndian.Uint16(data[off:])
	off += 2
	h.KDFIterations = binary.BigEndian.Uint32(data[off:])
	off += 4
	copy(h.Salt[:], data[off:off+SaltSize])
	off += SaltSize
	copy(h.Nonce[:], data[off:off+NonceSize])
	off += NonceSize
	h.CreatedMS = int64(binary.BigEndian.Uint64(data[off:]))
	off += 8
	h.UpdatedMS = int64(binary.BigEndian.Uint64(data[off:]))
	off += 8
	h.PasswordCount = binary.BigEndian.Uint32(data[off:])
	off += 4
	h.Flags = data[off]
	off++
	return h, off, nil
}

// HasHoneyAccounts reports whether the sidecar is expected to carry honey
// account stubs.
func (h Header) HasHoneyAccounts() bool {
	return h.Flags&HoneyAccountFlag != 0
}
