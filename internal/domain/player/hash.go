package player

import (
	"crypto/sha1"
	"encoding/hex"

	sonic "github.com/bytedance/sonic"
)

// HashRecord returns the content hash of an attribute bag: the hex SHA-1 of
// its JSON form. Map keys are serialized in sorted order so deeply equal bags
// always hash the same. The digest is a change-detection short-circuit, not an
// integrity guarantee.
func HashRecord(data Attributes) string {
	raw, err := sonic.ConfigStd.Marshal(map[string]any(data))
	if err != nil {
		// Attribute bags come out of a JSON-compatible XML decode, so
		// serialization cannot realistically fail; hash the error text to
		// keep the fast path total.
		raw = []byte(err.Error())
	}

	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}
