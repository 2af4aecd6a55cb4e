package cortex

import "github.com/laphilosophia/mindfry/common"

// RetentionBuffer maps a lineage id to its remaining TTL ticks. An
// entry represents a lineage that may be deleted unless it recovers
// (is restored) before its TTL reaches zero.
type RetentionBuffer struct {
	entries    map[common.LineageId]uint8
	DefaultTTL uint8
}

// NewRetentionBuffer creates an empty buffer with the given default TTL.
func NewRetentionBuffer(defaultTTL uint8) *RetentionBuffer {
	return &RetentionBuffer{
		entries:    make(map[common.LineageId]uint8),
		DefaultTTL: defaultTTL,
	}
}

// Restore removes id from the buffer if present (the lineage proved
// stable again and no longer needs a reprieve countdown).
func (r *RetentionBuffer) Restore(id common.LineageId) {
	delete(r.entries, id)
}

// MarkOrTick is the buffer's single state-transition operation:
//   - absent: insert with DefaultTTL, return false.
//   - present, TTL == 0: remove, return true (the zero-TTL boundary —
//     a fresh insert with DefaultTTL==0 does NOT immediately return
//     true, the very next call does, per spec.md §8's boundary law).
//   - present, TTL > 0: decrement; if the decremented value reaches 0,
//     remove and return true in the same call (the lineage is ready
//     for deletion as soon as its last tick elapses, not one call
//     later) — otherwise store the decremented value and return false.
//
// For DefaultTTL=n (n >= 1) this makes the (n+1)th call the one that
// returns true: call 1 inserts at n, calls 2..n decrement without
// reaching zero, and call n+1 is the decrement that lands on zero.
func (r *RetentionBuffer) MarkOrTick(id common.LineageId) bool {
	ttl, present := r.entries[id]
	if !present {
		r.entries[id] = r.DefaultTTL
		return false
	}
	if ttl == 0 {
		delete(r.entries, id)
		return true
	}
	if ttl-1 == 0 {
		delete(r.entries, id)
		return true
	}
	r.entries[id] = ttl - 1
	return false
}

// Insert sets id's remaining TTL directly, inserting or overwriting the
// entry. Used by persistence.Resurrect to restore exact TTL countdowns
// from a snapshot, bypassing MarkOrTick's insert-at-DefaultTTL rule.
func (r *RetentionBuffer) Insert(id common.LineageId, ttl uint8) {
	r.entries[id] = ttl
}

// Peek returns the remaining TTL for id, if present.
func (r *RetentionBuffer) Peek(id common.LineageId) (uint8, bool) {
	ttl, ok := r.entries[id]
	return ttl, ok
}

// Len returns the number of lineages currently pending.
func (r *RetentionBuffer) Len() int { return len(r.entries) }

// ForEach visits every pending (id, ttl) pair.
func (r *RetentionBuffer) ForEach(fn func(id common.LineageId, ttl uint8)) {
	for id, ttl := range r.entries {
		fn(id, ttl)
	}
}
