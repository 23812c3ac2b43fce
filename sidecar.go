// Copyright 2024 The guardlocker Authors
// SPDX-License-Identifier: Apache-2.0

package guardlocker

import (
	"encoding/json"
	"time"
)

// sidecarEntry mirrors spec.md §6's sidecar_json plaintext_entries shape.
type sidecarEntry struct {
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// sidecarHoneyAccount adds the created_at stamp honey account stubs carry.
type sidecarHoneyAccount struct {
	Website   string `json:"website"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	CreatedAt string `json:"created_at"`
}

type sidecar struct {
	PlaintextEntries []sidecarEntry        `json:"plaintext_entries"`
	HoneyAccounts    []sidecarHoneyAccount `json:"honey_accounts,omitempty"`
}

// buildSidecar packs the non-honey-encrypted fields (website, username)
// of each password entry plus any honey-account stubs into the sidecar
// payload that rides unencrypted-but-authenticated alongside the seed.
func buildSidecar(entries []PasswordEntry, honeyAccounts []HoneyAccount) ([]byte, error) {
	sc := sidecar{PlaintextEntries: make([]sidecarEntry, len(entries))}
	for i, e := range entries {
		sc.PlaintextEntries[i] = sidecarEntry{Website: e.Website, Username: e.Username}
	}
	for _, h := range honeyAccounts {
		sc.HoneyAccounts = append(sc.HoneyAccounts, sidecarHoneyAccount{
			Website:   h.Website,
			Username:  h.Username,
			Password:  h.Password,
			CreatedAt: h.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return json.Marshal(sc)
}

// parseSidecar is intentionally forgiving: a decoy's sidecar may be
// missing or replaced with garbage bytes, and DecryptVault must stay
// total, so a parse failure here yields an empty sidecar rather than an
// error.
func parseSidecar(raw []byte) sidecar {
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return sidecar{}
	}
	return sc
}

func mergePasswords(passwords []string, sc sidecar) []PasswordEntry {
	entries := make([]PasswordEntry, len(passwords))
	for i, pw := range passwords {
		entries[i].Password = pw
		if i < len(sc.PlaintextEntries) {
			entries[i].Website = sc.PlaintextEntries[i].Website
			entries[i].Username = sc.PlaintextEntries[i].Username
		}
	}
	return entries
}

func decodeHoneyAccounts(sc sidecar) []HoneyAccount {
	out := make([]HoneyAccount, 0, len(sc.HoneyAccounts))
	for _, h := range sc.HoneyAccounts {
		createdAt, _ := time.Parse(time.RFC3339, h.CreatedAt)
		out = append(out, HoneyAccount{
			Website:   h.Website,
			Username:  h.Username,
			Password:  h.Password,
			CreatedAt: createdAt,
		})
	}
	return out
}
