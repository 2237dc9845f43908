package mapper

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint hashes the mapped output of a record: the header fields in a
// canonical encoding, then the body. It is a pure function of mapped output
// only; remote metadata never feeds it directly, so cosmetic remote changes
// do not register as content changes.
func Fingerprint(fields map[string]any, body string) string {
	// json.Marshal sorts map keys, which gives a canonical field encoding.
	canonical, err := json.Marshal(fields)
	if err != nil {
		// Field values are plain strings, bools, numbers, and string
		// slices; marshaling cannot fail for those. Fall back to hashing
		// the body alone rather than panicking.
		canonical = nil
	}

	h := sha256.New()
	h.Write(canonical)
	h.Write([]byte{0})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}
