package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the deterministic checkpoint key for a query: the sha256
// hex digest of its normalized text. Two queries differing only in case or
// whitespace share a fingerprint; the resolved SubQuery sequence does not
// participate (lookup happens before decomposition).
func Fingerprint(q Query) string {
	sum := sha256.Sum256([]byte(q.Normalized()))
	return hex.EncodeToString(sum[:])
}
