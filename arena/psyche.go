package arena

import "github.com/laphilosophia/mindfry/common"

// PsycheArena is the slab allocator owning every Lineage record, with
// free-list reuse and an optional key map for named lookup. It is not
// internally synchronized; callers (engine.Engine) hold the exclusive
// or shared guard around it per the concurrency model.
type PsycheArena struct {
	slots    []Lineage
	freeList []common.LineageId
	keyMap   map[uint64]common.LineageId
	count    int
}

// NewPsycheArena returns an empty arena pre-sized to capacity (a soft
// hint only: the arena grows its backing slice once the free list is
// exhausted).
func NewPsycheArena(capacity int) *PsycheArena {
	return &PsycheArena{
		slots:  make([]Lineage, 0, capacity),
		keyMap: make(map[uint64]common.LineageId),
	}
}

// Len returns the number of active slots.
func (a *PsycheArena) Len() int { return a.count }

// Cap returns the number of slots in the backing slice, active or free.
func (a *PsycheArena) Cap() int { return len(a.slots) }

// Alloc pops a free-list slot if available (reusing its id), else
// appends. Returns the new id.
func (a *PsycheArena) Alloc(l Lineage) common.LineageId {
	l.Flags = l.Flags.Set(FlagActive)
	id := a.allocSlot(l)
	a.count++
	return id
}

// AllocWithKey is Alloc plus inserting hash64 -> id into the key map.
// Collisions on hash64 are accepted as equal for lookup purposes; the
// caller is responsible for supplying a stable hash (common.KeyHash64).
func (a *PsycheArena) AllocWithKey(hash64 uint64, l Lineage) common.LineageId {
	id := a.Alloc(l)
	a.keyMap[hash64] = id
	return id
}

func (a *PsycheArena) allocSlot(l Lineage) common.LineageId {
	if n := len(a.freeList); n > 0 {
		id := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.slots[id] = l
		return id
	}
	a.slots = append(a.slots, l)
	return common.LineageId(len(a.slots) - 1)
}

// Get returns a pointer to the record if id is in range and active.
// The pointer aliases arena storage: callers mutating through it are
// mutating the arena directly (arena.Get and arena.GetMut are the same
// operation in Go — there is no separate read-only view at this
// layer; engine.Engine enforces the shared/exclusive distinction).
func (a *PsycheArena) Get(id common.LineageId) (*Lineage, bool) {
	if int(id) < 0 || int(id) >= len(a.slots) {
		return nil, false
	}
	l := &a.slots[id]
	if !l.IsActive() {
		return nil, false
	}
	return l, true
}

// Lookup resolves a key hash to a lineage id in O(1).
func (a *PsycheArena) Lookup(hash64 uint64) (common.LineageId, bool) {
	id, ok := a.keyMap[hash64]
	return id, ok
}

// RestoreAt writes l directly into slot id, growing the backing slice
// with inactive filler slots if needed, and marks it active. Unlike
// Alloc it does not consult or touch the free list: callers rebuilding
// an arena from a snapshot use this so that every lineage keeps the
// same id it had before the snapshot was taken.
func (a *PsycheArena) RestoreAt(id common.LineageId, l Lineage) {
	for int(id) >= len(a.slots) {
		a.slots = append(a.slots, Lineage{})
	}
	l.Flags = l.Flags.Set(FlagActive)
	a.slots[id] = l
	a.count++
}

// RestoreKey re-inserts a hash64 -> id mapping, used by resurrect after
// RestoreAt has repopulated the slots.
func (a *PsycheArena) RestoreKey(hash64 uint64, id common.LineageId) {
	a.keyMap[hash64] = id
}

// Free clears ACTIVE, pushes the slot to the free list and decrements
// count. It is idempotent: freeing an already-free or out-of-range id
// returns false and never panics.
func (a *PsycheArena) Free(id common.LineageId) bool {
	l, ok := a.Get(id)
	if !ok {
		return false
	}
	l.Flags = l.Flags.Clear(FlagActive)
	a.freeList = append(a.freeList, id)
	a.count--
	// Remove any key-map entries pointing at this id so a later
	// Lookup cannot resolve to a freed (and possibly recycled) slot.
	for k, v := range a.keyMap {
		if v == id {
			delete(a.keyMap, k)
		}
	}
	return true
}

// ForEach visits every active slot, paired with its id, in slab order.
// The callback may return false to stop iteration early.
func (a *PsycheArena) ForEach(fn func(id common.LineageId, l *Lineage) bool) {
	for i := range a.slots {
		if !a.slots[i].IsActive() {
			continue
		}
		if !fn(common.LineageId(i), &a.slots[i]) {
			return
		}
	}
}
