package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// ContentHash canonicalizes a raw record (stable key order, JSON encoding)
// and returns its SHA-256 hex digest, used to detect no-op remote payloads
// without diffing every field.
func ContentHash(record map[string]interface{}) string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		ordered = append(ordered, k, record[k])
	}

	encoded, err := json.Marshal(ordered)
	if err != nil {
		// canonicalization of a JSON-originated map cannot fail in practice;
		// fall back to hashing the error text so callers never panic.
		encoded = []byte(err.Error())
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
