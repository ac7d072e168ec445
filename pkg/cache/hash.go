package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// keySchema is hashed into every derived key. Bump it whenever the cached
// layout document changes shape so older entries stop matching.
const keySchema = 1

// hashKey returns "prefix:<sha256>" over the schema version followed by the
// JSON encoding of each part. Parts are strings and plain option structs,
// so encoding cannot fail.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(keySchema)
	for _, p := range parts {
		_ = enc.Encode(p)
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of data. Input documents are addressed by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
