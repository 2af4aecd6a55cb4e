package arena

import (
	"testing"

	"github.com/laphilosophia/mindfry/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocThenGetIsActive(t *testing.T) {
	a := NewPsycheArena(4)
	id := a.Alloc(Lineage{Energy: 0.5})
	l, ok := a.Get(id)
	require.True(t, ok)
	assert.True(t, l.IsActive())
	assert.Equal(t, float32(0.5), l.Energy)
}

func TestFreeThenGetReturnsFalse(t *testing.T) {
	a := NewPsycheArena(4)
	id := a.Alloc(Lineage{Energy: 0.1})
	require.True(t, a.Free(id))
	_, ok := a.Get(id)
	assert.False(t, ok)
}

func TestFreeIdempotent(t *testing.T) {
	a := NewPsycheArena(4)
	id := a.Alloc(Lineage{})
	require.True(t, a.Free(id))
	assert.False(t, a.Free(id))
}

func TestFreeRecyclesId(t *testing.T) {
	a := NewPsycheArena(4)
	first := a.Alloc(Lineage{})
	require.True(t, a.Free(first))
	second := a.Alloc(Lineage{})
	assert.Equal(t, first, second)
}

func TestGetOutOfRangeIsNone(t *testing.T) {
	a := NewPsycheArena(4)
	_, ok := a.Get(common.LineageId(99))
	assert.False(t, ok)
}

func TestAllocWithKeyAndLookup(t *testing.T) {
	a := NewPsycheArena(4)
	id := a.AllocWithKey(common.KeyHash64("foo"), Lineage{Energy: 0.3})
	got, ok := a.Lookup(common.KeyHash64("foo"))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestFreeRemovesKeyMapEntry(t *testing.T) {
	a := NewPsycheArena(4)
	hash := common.KeyHash64("bar")
	id := a.AllocWithKey(hash, Lineage{})
	require.True(t, a.Free(id))
	_, ok := a.Lookup(hash)
	assert.False(t, ok)
}

func TestForEachOnlyActive(t *testing.T) {
	a := NewPsycheArena(4)
	a.Alloc(Lineage{Energy: 0.1})
	dead := a.Alloc(Lineage{Energy: 0.2})
	a.Alloc(Lineage{Energy: 0.3})
	require.True(t, a.Free(dead))

	var seen []common.LineageId
	a.ForEach(func(id common.LineageId, l *Lineage) bool {
		seen = append(seen, id)
		return true
	})
	assert.Len(t, seen, 2)
}

func TestCountTracksActiveSlots(t *testing.T) {
	a := NewPsycheArena(4)
	id1 := a.Alloc(Lineage{})
	a.Alloc(Lineage{})
	assert.Equal(t, 2, a.Len())
	a.Free(id1)
	assert.Equal(t, 1, a.Len())
}
