// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

// Package decoy implements the Decoy Fallback (C7): when the envelope
// fails to authenticate, or the seed it opens is malformed, the caller
// always receives a plausible-looking vault instead of an error. Unlike
// the Vault Codec, decoy entries are drawn directly from the distribution
// oracle by temperature-scaled sampling — there is no seed to decode from,
// only the metadata's declared password count.
package decoy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	mathrand "math/rand/v2"

	"github.com/lakshyaberia1/guardlocker/codec"
	"github.com/lakshyaberia1/guardlocker/errs"
	"github.com/lakshyaberia1/guardlocker/oracle"
	"github.com/lakshyaberia1/guardlocker/symbols"
)

// DefaultTemperature is τ in spec.md §4.7.
const DefaultTemperature = 1.0

// seedLabel is the HMAC domain-separation label for per-entry decoy RNG
// seeds (spec.md §4.7's "deterministically keyed by entry index").
const seedLabel = "guardlocker-decoy"

// Entry is one synthesized account in a decoy vault.
type Entry struct {
	Website  string
	Username string
	Password string
}

// Options bounds decoy password synthesis the same way vaultcodec bounds
// real decode (spec.md §4.5's max_password_length applies symmetrically
// here, since a misbehaving oracle must not make C7 loop forever either).
type Options struct {
	Temperature       float64
	MaxPasswordLength int
}

// DefaultOptions returns τ=1.0 and the shared 25-symbol password cap.
func DefaultOptions() Options {
	return Options{Temperature: DefaultTemperature, MaxPasswordLength: 25}
}

func (o Options) withDefaults() Options {
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxPasswordLength <= 0 {
		o.MaxPasswordLength = 25
	}
	return o
}

// Synthesize builds count decoy entries, deterministic in (derivedKey,
// index): two calls with the same wrong key and the same declared
// password count are byte-identical, so an attacker retrying decryption
// with the same guess cannot distinguish a real vault from a decoy by
// instability (spec.md §4.7, P7).
func Synthesize(pred oracle.Predictor, derivedKey [32]byte, count int, opts Options) ([]Entry, error) {
	opts = opts.withDefaults()
	if count < 0 {
		return nil, fmt.Errorf("%w: negative decoy entry count %d", errs.ErrInvalidInput, count)
	}

	entries := make([]Entry, count)
	for i := 0; i < count; i++ {
		seed := entrySeed(derivedKey, i)
		rng, err := codec.NewDeterministicRNG(seed)
		if err != nil {
			return nil, fmt.Errorf("decoy: build per-entry RNG: %w", err)
		}
		password, err := samplePassword(pred, rng, opts)
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{
			Website:  fmt.Sprintf("site-%d.example.com", i),
			Username: fmt.Sprintf("user%d", i),
			Password: password,
		}
	}
	return entries, nil
}

// entrySeed derives the per-entry CSPRNG seed HMAC-SHA256(derivedKey,
// "guardlocker-decoy" || index_be32) — the wrong master key the attacker
// supplied plus the entry index, never wall-clock time or process state.
func entrySeed(derivedKey [32]byte, index int) [32]byte {
	mac := hmac.New(sha256.New, derivedKey[:])
	mac.Write([]byte(seedLabel))
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(index))
	mac.Write(idx[:])

	var seed [32]byte
	copy(seed[:], mac.Sum(nil))
	return seed
}

// samplePassword draws symbols directly from pred (not through the
// interval codec: there is no seed here to consume) at temperature
// opts.Temperature until SEP or MaxPasswordLength.
func samplePassword(pred oracle.Predictor, rng *mathrand.Rand, opts Options) (string, error) {
	context := []symbols.Symbol{symbols.SEP}
	var out []rune

	for len(out) < opts.MaxPasswordLength {
		sym, err := sampleSymbol(pred, context, rng, opts.Temperature)
		if err != nil {
			return "", err
		}
		context = append(context, sym)
		if sym == symbols.SEP {
			break
		}
		out = append(out, rune(sym))
	}
	return string(out), nil
}

// maxResampleAttempts bounds the PAD/UNK resample loop in sampleSymbol.
// PAD/UNK sit at oracle.Epsilon after Clamped, so a real draw of either
// is exceedingly unlikely; the cap only guards against a pathological
// oracle that concentrates mass there, keeping Synthesize total.
const maxResampleAttempts = 64

// sampleSymbol draws one symbol from pred at the given context and
// temperature, resampling away PAD/UNK: a decoy password's plaintext
// must never contain a reserved or unrepresentable marker, since a real
// vault's plaintext never can either (symbols.EncodeVault rejects them
// at encode time) — letting one through here would make a decoy
// distinguishable from a real vault, defeating spec.md §4.7's purpose.
func sampleSymbol(pred oracle.Predictor, context []symbols.Symbol, rng *mathrand.Rand, temperature float64) (symbols.Symbol, error) {
	for attempt := 0; attempt < maxResampleAttempts; attempt++ {
		dist, err := pred.Predict(context)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", errs.ErrOracleFailure, err)
		}
		scaled := withTemperature(oracle.Clamped(dist), temperature)
		id := sampleIndex(scaled, rng)
		sym := symbols.SymbolOf(id)
		if sym == symbols.SEP || !symbols.IsReservedOrUnknown(sym) {
			return sym, nil
		}
	}
	// PAD/UNK kept winning the draw across every attempt: terminate the
	// password rather than loop unboundedly, same as hitting SEP.
	return symbols.SEP, nil
}

// withTemperature applies p_i^(1/T), renormalized, the standard
// temperature-scaled softmax reshaping. T=1.0 is the identity transform.
func withTemperature(dist oracle.Distribution, temperature float64) oracle.Distribution {
	if temperature == 1.0 {
		return dist
	}
	out := make(oracle.Distribution, len(dist))
	sum := 0.0
	invT := 1.0 / temperature
	for i, p := range dist {
		v := math.Pow(p, invT)
		out[i] = v
		sum += v
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// sampleIndex draws a uniform point in [0,1) from rng and returns the
// symbol id whose cumulative interval contains it.
func sampleIndex(dist oracle.Distribution, rng *mathrand.Rand) int {
	cum := oracle.Cumulative(dist)
	q := rng.Float64()
	lo, hi := 0, len(cum)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cum[mid] > q {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
