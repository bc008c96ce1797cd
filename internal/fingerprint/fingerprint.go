// Package fingerprint derives the fallback identity of a posting whose source
// supplies no usable native id.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const sep = "|"

// Compute returns the hex SHA-256 of the trimmed, lower-cased url, title and
// company joined by "|". The result is 64 characters long.
func Compute(canonicalURL, title, company string) string {
	raw := normalize(canonicalURL) + sep + normalize(title) + sep + normalize(company)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
