package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey derives a "prefix:hex" cache key from its components. Each part
// is JSON-encoded into the digest so struct fields contribute by name and
// reordering values cannot produce the same key. The full 256-bit digest
// is kept; figure keys are never typed by hand.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		// Encoding into a hash cannot fail for the value types used here.
		_ = enc.Encode(p)
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the SHA-256 digest of data as a 64-character hex string.
// The pipeline uses it to fingerprint data file contents for figure keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
