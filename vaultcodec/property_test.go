// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package vaultcodec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lakshyaberia1/guardlocker/codec"
	"github.com/lakshyaberia1/guardlocker/oracle"
)

// TestRoundTripAcrossOracles is P1 (spec.md §8): for every password list
// with symbols drawn from the printable alphabet, decoding what was just
// encoded returns the same list, under both context-free reference
// oracles (Uniform and Zipf), not just one fixed distribution.
func TestRoundTripAcrossOracles(t *testing.T) {
	cases := []struct {
		name  string
		pred  oracle.Predictor
		lists [][]string
	}{
		{
			name: "uniform",
			pred: oracle.NewUniform(),
			lists: [][]string{
				nil,
				{"abc"},
				{"pw1", "pw2"},
				{"Hunter2!", "correct-horse-battery-staple", "x"},
			},
		},
		{
			name: "zipf",
			pred: oracle.NewZipf(1.2),
			lists: [][]string{
				nil,
				{"zzz"},
				{"aaaa", "bbbb", "cccc"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, passwords := range tc.lists {
				rng, err := codec.NewSecureRNG()
				require.NoError(t, err)

				res, err := Encode(context.Background(), tc.pred, rng, passwords)
				require.NoError(t, err)

				// "correct-horse-battery-staple" has 28 symbols, above the
				// default 25-symbol cap, so the cap is raised for this test.
				got, err := Decode(tc.pred, res.Seed, DecodeOptions{MaxPasswordLength: 32})
				require.NoError(t, err)
				require.Equal(t, passwords, got)
			}
		})
	}
}

// TestPrefixKeepingAcrossAppends is P3: appending a sequence of passwords
// one at a time via Append must agree, entry by entry, with encoding the
// whole accumulated list directly — the concatenated bit string must
// decode to exactly the prefix plus the new entry at every step.
func TestPrefixKeepingAcrossAppends(t *testing.T) {
	pred := oracle.NewZipf(1.1)
	toAppend := []string{"first-pw", "second-pw", "third-pw!!"}

	rng, err := codec.NewSecureRNG()
	require.NoError(t, err)

	res, err := Encode(context.Background(), pred, rng, nil)
	require.NoError(t, err)

	var accumulated []string
	for _, pw := range toAppend {
		appendRNG, err := codec.NewSecureRNG()
		require.NoError(t, err)

		res, err = Append(context.Background(), pred, appendRNG, res.Seed, res.BitsUsed, accumulated, pw)
		require.NoError(t, err)

		accumulated = append(accumulated, pw)

		got, err := Decode(pred, res.Seed, DefaultDecodeOptions())
		require.NoError(t, err)
		require.Equal(t, accumulated, got, "decode after appending %q", pw)
	}
}

// TestDecodeDeterministicAcrossRuns is P6: decoding the same seed against
// the same oracle repeatedly (simulating independent callers/goroutines)
// must yield byte-identical results every time.
func TestDecodeDeterministicAcrossRuns(t *testing.T) {
	pred := oracle.NewUniform()
	rng, err := codec.NewSecureRNG()
	require.NoError(t, err)

	res, err := Encode(context.Background(), pred, rng, []string{"stable", "pair"})
	require.NoError(t, err)

	first, err := Decode(pred, res.Seed, DefaultDecodeOptions())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Decode(pred, res.Seed, DefaultDecodeOptions())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

// TestDecodeTotalOverArbitraryBytes is P2: every byte string of a given
// length, under every oracle, decodes to at most MaxPasswords strings
// containing no reserved symbols — the decoder never errors or panics on
// adversarial input.
func TestDecodeTotalOverArbitraryBytes(t *testing.T) {
	preds := []oracle.Predictor{oracle.NewUniform(), oracle.NewZipf(0.8)}
	lengths := []int{0, 1, 7, 64, 256}

	for _, pred := range preds {
		for _, n := range lengths {
			seed := make([]byte, n)
			for i := range seed {
				seed[i] = byte(0x55 ^ i)
			}
			opts := DecodeOptions{MaxPasswords: 8, MaxTotalLength: 200, MaxPasswordLength: 25}

			got, err := Decode(pred, seed, opts)
			require.NoError(t, err)
			require.LessOrEqual(t, len(got), opts.MaxPasswords)
		}
	}
}
