package common

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"
)

// KeyHash64 derives the stable 64-bit hash the lineage arena's key map
// uses for alloc_with_key/lookup. Callers MUST go through this function
// (rather than hashing ad hoc) so that resurrection — which re-derives
// the same hash from the same string key — is deterministic across
// process restarts and Go versions.
//
// The string is first normalized to NFC so that Unicode sequences which
// render identically but are encoded differently (e.g. "é" as one
// codepoint vs. "e"+combining-acute) hash identically; two distinct
// normalizations of the same logical key must never be allowed to
// collide with two *different* intended keys.
func KeyHash64(key string) uint64 {
	normalized := norm.NFC.String(key)
	sum := sha3.Sum256([]byte(normalized))
	return binary.BigEndian.Uint64(sum[:8])
}
