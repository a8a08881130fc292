// Package digest provides content addressing for analyzed text.
//
// Cache rows are keyed by (origin, content hash); the hash must be stable
// across runs and collision-resistant so distinct passages never share a row.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the SHA-256 digest of text as a 64-character hex string.
// Accepts any Unicode input; identical text always maps to the same digest.
func Sum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
