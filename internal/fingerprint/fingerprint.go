// Package fingerprint computes content digests used for exact-duplicate detection.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
)

// Hash is a lowercase hex digest of the exact bytes of a text.
type Hash string

// Of returns the 128-bit digest of text. No normalization is applied: texts
// that differ only in whitespace produce different hashes.
func Of(text string) Hash {
	sum := md5.Sum([]byte(text))
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the hex form of h.
func (h Hash) String() string {
	return string(h)
}
