package persistence

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/cortex"
	"github.com/laphilosophia/mindfry/graph"
	"github.com/laphilosophia/mindfry/trit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempEngine(t *testing.T) *Engine {
	t.Helper()
	dir, err := os.MkdirTemp("", "mindfry-persistence-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	e, err := Open(dir, 16)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestSnapshotRoundTripPreservesSlotIdentity(t *testing.T) {
	e := tempEngine(t)

	a := arena.NewPsycheArena(4)
	id0 := a.Alloc(arena.Lineage{Energy: 0.75, Threshold: 0.5, DecayRate: 0.02, LastAccess: 10})
	id1 := a.Alloc(arena.Lineage{Energy: 0.25, Threshold: 0.4, DecayRate: 0.01, LastAccess: 20})
	id2 := a.Alloc(arena.Lineage{Energy: 0.9, Threshold: 0.6, DecayRate: 0.03, LastAccess: 30})
	a.Free(id0) // opens a gap, which the id-preserving restore must respect

	s := arena.NewStrataArena(4, 2)
	g := graph.NewBondGraph(4)
	g.Connect(graph.Bond{Source: id1, Target: id2, Strength: 0.5, Polarity: graph.PolarityExcite, Flags: graph.FlagActive})

	c := cortex.New(trit.Octet{}.Set(trit.Preservation, trit.Excite), 0.5, 3)
	c.SetMood(0.25)
	c.Retention.Insert(id1, 2)

	_, err := e.Save(123, a, s, g, c)
	require.NoError(t, err)

	restored, err := e.Resurrect()
	require.NoError(t, err)
	require.Equal(t, int64(123), restored.TakenAtNs)

	_, ok := restored.Psyche.Get(id0)
	require.False(t, ok, "freed slot must not come back active")

	l1, ok := restored.Psyche.Get(id1)
	require.True(t, ok)
	require.InDelta(t, 0.25, l1.Energy, 0.0001)

	expected := arena.Lineage{Energy: 0.25, Threshold: 0.4, DecayRate: 0.01, LastAccess: 20, Flags: arena.FlagActive}
	if diff := cmp.Diff(expected, *l1, cmpopts.IgnoreUnexported(arena.Lineage{})); diff != "" {
		t.Fatalf("restored lineage mismatch (-want +got):\n%s", diff)
	}

	l2, ok := restored.Psyche.Get(id2)
	require.True(t, ok)
	require.InDelta(t, 0.9, l2.Energy, 0.0001)

	require.NotNil(t, restored.Cortex)
	require.InDelta(t, 0.25, restored.Cortex.Mood(), 0.0001)
	ttl, pending := restored.Cortex.Retention.Peek(id1)
	require.True(t, pending)
	require.Equal(t, uint8(2), ttl)

	found := false
	restored.Bonds.ForEach(func(_ common.BondId, b *graph.Bond) bool {
		if b.Source == id1 && b.Target == id2 {
			found = true
		}
		return true
	})
	require.True(t, found, "bond between id1 and id2 must survive the round trip")
}

func TestKeyIndexRebuildReplacesPriorEntries(t *testing.T) {
	dir, err := os.MkdirTemp("", "mindfry-keyindex-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	store, err := OpenStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	idx := NewKeyIndex(store)
	require.NoError(t, idx.Insert(111, common.LineageId(9)))
	require.Equal(t, 1, idx.Len())

	n, err := idx.Rebuild(map[uint64]common.LineageId{
		222: common.LineageId(1),
		333: common.LineageId(2),
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, stale := idx.Get(111)
	require.False(t, stale)

	id, ok := idx.Get(222)
	require.True(t, ok)
	require.Equal(t, common.LineageId(1), id)
}

func TestListAndNewest(t *testing.T) {
	e := tempEngine(t)
	a := arena.NewPsycheArena(1)
	s := arena.NewStrataArena(1, 1)
	g := graph.NewBondGraph(1)

	_, ok := e.Newest()
	require.False(t, ok)

	id0, err := e.Save(10, a, s, g, nil)
	require.NoError(t, err)
	id1, err := e.Save(20, a, s, g, nil)
	require.NoError(t, err)

	require.ElementsMatch(t, []uint64{id0, id1}, e.List())
	newest, ok := e.Newest()
	require.True(t, ok)
	require.Equal(t, id1, newest)
}

func TestEngineKeyIndexIsBackedByTheSameStore(t *testing.T) {
	e := tempEngine(t)
	require.NoError(t, e.KeyIndex().Insert(999, common.LineageId(7)))
	id, ok := e.KeyIndex().Get(999)
	require.True(t, ok)
	assert.Equal(t, common.LineageId(7), id)
}

func TestMetaOfServesSaveThenSurvivesReopen(t *testing.T) {
	dir, err := os.MkdirTemp("", "mindfry-meta-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	e, err := Open(dir, 16)
	require.NoError(t, err)

	a := arena.NewPsycheArena(4)
	a.Alloc(arena.Lineage{Energy: 0.5})
	a.Alloc(arena.Lineage{Energy: 0.6})
	s := arena.NewStrataArena(4, 1)
	g := graph.NewBondGraph(4)

	id, err := e.Save(42, a, s, g, nil)
	require.NoError(t, err)

	meta, ok := e.MetaOf(id)
	require.True(t, ok)
	assert.Equal(t, int64(42), meta.TakenAtNs)
	assert.Equal(t, 2, meta.LineageCount)
	assert.False(t, meta.HasCortex)
	require.NoError(t, e.Close())

	reopened, err := Open(dir, 16)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	warmed, ok := reopened.MetaOf(id)
	require.True(t, ok, "warmMetaCache must repopulate the cache from disk on reopen")
	assert.Equal(t, meta.LineageCount, warmed.LineageCount)
}
