// Package signal handles fingerprint-based deduplication and persistence of
// detected signals.
package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint computes a deterministic 32-character hex digest over the
// identifying fields of a signal. Detectors hash only stable fields (type,
// source IDs, dates) so the same real-world event always maps to the same
// fingerprint across runs.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:32]
}
