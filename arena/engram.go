package arena

import "github.com/laphilosophia/mindfry/common"

// Engram is one entry in a lineage's fixed-depth history ring: a
// stimulation event plus a link to the previous entry in the ring.
type Engram struct {
	Timestamp   int64
	Stimulation float32
	PayloadId   common.PayloadId
	SourceId    common.LineageId
	PrevIndex   common.EngramIndex
}

// StrataArena is the flat block backing every lineage's engram ring:
// engrams[lineageID*Depth + slot]. Depth (D) is fixed at construction.
type StrataArena struct {
	engrams []Engram
	depth   int
}

// NewStrataArena allocates a flat block sized for maxLineages rings of
// depth entries each.
func NewStrataArena(maxLineages, depth int) *StrataArena {
	return &StrataArena{
		engrams: make([]Engram, maxLineages*depth),
		depth:   depth,
	}
}

// Depth returns the fixed ring depth D.
func (s *StrataArena) Depth() int { return s.depth }

// Grow extends the backing block to cover newMaxLineages rings,
// preserving existing entries. It is a no-op if the arena is already
// large enough.
func (s *StrataArena) Grow(newMaxLineages int) {
	need := newMaxLineages * s.depth
	if need <= len(s.engrams) {
		return
	}
	grown := make([]Engram, need)
	copy(grown, s.engrams)
	s.engrams = grown
}

func (s *StrataArena) slotFor(id common.LineageId, slot int) int {
	return int(id)*s.depth + slot
}

// Record writes a new engram into the ring for lineage id, given the
// lineage's current head (sentinel if it has none yet), and returns
// the new head. If currentHead is the sentinel, slot 0 is chosen;
// otherwise the ring advances to (currentHeadSlot+1) mod D. The new
// engram's PrevIndex is set to currentHead, so history is a ring with
// a cold link once it has wrapped.
func (s *StrataArena) Record(id common.LineageId, currentHead common.EngramIndex, e Engram) common.EngramIndex {
	var slot int
	if currentHead.IsNull() {
		slot = 0
	} else {
		currentSlot := int(currentHead) - int(id)*s.depth
		slot = (currentSlot + 1) % s.depth
	}
	idx := s.slotFor(id, slot)
	if idx >= len(s.engrams) {
		s.Grow(int(id) + 1)
		idx = s.slotFor(id, slot)
	}
	e.PrevIndex = currentHead
	s.engrams[idx] = e
	return common.EngramIndex(idx)
}

// History lazily walks the PrevIndex chain starting at head, yielding
// at most Depth entries newest-first and stopping at the sentinel. The
// callback may return false to stop early.
func (s *StrataArena) History(head common.EngramIndex, fn func(e Engram) bool) {
	cur := head
	for i := 0; i < s.depth && !cur.IsNull(); i++ {
		if int(cur) >= len(s.engrams) {
			return
		}
		e := s.engrams[cur]
		if !fn(e) {
			return
		}
		cur = e.PrevIndex
	}
}

// Raw exposes the underlying flat block, e.g. for snapshot serialization.
func (s *StrataArena) Raw() []Engram { return s.engrams }
