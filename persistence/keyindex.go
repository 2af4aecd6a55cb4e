package persistence

import (
	"encoding/binary"

	"github.com/laphilosophia/mindfry/common"
)

// KeyIndex is a disk-backed reverse index from a key hash to the
// lineage id it names, from which engine.Engine rebuilds the in-memory
// PsycheArena key map after a resurrect. Grounded on original_source/src/persistence/indexer.rs's
// LineageIndexer, adapted from sled Tree onto the shared leveldb
// Store with the nsKeyIndex namespace and a uint64 key hash
// (common.KeyHash64) in place of the raw string key.
type KeyIndex struct {
	store *Store
}

// NewKeyIndex wraps store with the key-index namespace.
func NewKeyIndex(store *Store) *KeyIndex {
	return &KeyIndex{store: store}
}

// Insert records hash64 -> id.
func (k *KeyIndex) Insert(hash64 uint64, id common.LineageId) error {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(id))
	return k.store.put(nsKeyIndex, hash64, b)
}

// Remove deletes hash64 from the index, if present.
func (k *KeyIndex) Remove(hash64 uint64) error {
	return k.store.delete(nsKeyIndex, hash64)
}

// Get resolves hash64 to a lineage id.
func (k *KeyIndex) Get(hash64 uint64) (common.LineageId, bool) {
	b, ok := k.store.get(nsKeyIndex, hash64)
	if !ok || len(b) < 4 {
		return common.NullLineage, false
	}
	return common.LineageId(binary.BigEndian.Uint32(b)), true
}

// Rebuild clears the index and repopulates it from entries, matching
// the Rust original's post-resurrect rebuild step.
func (k *KeyIndex) Rebuild(entries map[uint64]common.LineageId) (int, error) {
	k.clear()
	for hash64, id := range entries {
		if err := k.Insert(hash64, id); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

func (k *KeyIndex) clear() {
	var toDelete []uint64
	k.store.iterateNamespace(nsKeyIndex, func(id uint64, _ []byte) bool {
		toDelete = append(toDelete, id)
		return true
	})
	for _, id := range toDelete {
		k.store.delete(nsKeyIndex, id)
	}
}

// Len returns the number of indexed entries.
func (k *KeyIndex) Len() int {
	n := 0
	k.store.iterateNamespace(nsKeyIndex, func(uint64, []byte) bool {
		n++
		return true
	})
	return n
}

// ForEach visits every (hash64, id) pair in the index.
func (k *KeyIndex) ForEach(fn func(hash64 uint64, id common.LineageId)) {
	k.store.iterateNamespace(nsKeyIndex, func(hash64 uint64, v []byte) bool {
		if len(v) >= 4 {
			fn(hash64, common.LineageId(binary.BigEndian.Uint32(v)))
		}
		return true
	})
}
