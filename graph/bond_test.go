package graph

import (
	"testing"

	"github.com/laphilosophia/mindfry/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsNullEndpoint(t *testing.T) {
	g := NewBondGraph(4)
	_, ok := g.Connect(Bond{Source: common.NullLineage, Target: 1})
	assert.False(t, ok)
}

func TestConnectRejectsOutOfRange(t *testing.T) {
	g := NewBondGraph(2)
	_, ok := g.Connect(Bond{Source: 0, Target: 99})
	assert.False(t, ok)
}

func TestConnectAppearsInBothAdjacency(t *testing.T) {
	g := NewBondGraph(4)
	id, ok := g.Connect(Bond{Source: 0, Target: 1, Strength: 1})
	require.True(t, ok)
	assert.Contains(t, g.Neighbors(0), id)
	assert.Contains(t, g.Neighbors(1), id)
}

func TestDisconnectRemovesFromBothAdjacency(t *testing.T) {
	g := NewBondGraph(4)
	id, _ := g.Connect(Bond{Source: 0, Target: 1, Strength: 1})
	require.True(t, g.Disconnect(id))
	assert.NotContains(t, g.Neighbors(0), id)
	assert.NotContains(t, g.Neighbors(1), id)
}

func TestFindBondSymmetric(t *testing.T) {
	g := NewBondGraph(4)
	id, _ := g.Connect(Bond{Source: 0, Target: 1, Strength: 1})
	ab, okAB := g.FindBond(0, 1)
	ba, okBA := g.FindBond(1, 0)
	require.True(t, okAB)
	require.True(t, okBA)
	assert.Equal(t, id, ab)
	assert.Equal(t, id, ba)
}

func TestParallelBondsAllowed(t *testing.T) {
	g := NewBondGraph(4)
	id1, _ := g.Connect(Bond{Source: 0, Target: 1, Strength: 1})
	id2, _ := g.Connect(Bond{Source: 0, Target: 1, Strength: 0.5})
	assert.NotEqual(t, id1, id2)
	assert.Len(t, g.Neighbors(0), 2)
}

func TestPruneDisconnectsBelowThreshold(t *testing.T) {
	g := NewBondGraph(4)
	weak, _ := g.Connect(Bond{Source: 0, Target: 1, Strength: 0.1})
	strong, _ := g.Connect(Bond{Source: 0, Target: 2, Strength: 0.9})
	always := func(b *Bond, now int64) float32 { return b.Strength }
	count := g.Prune(0, 0.5, always)
	assert.Equal(t, 1, count)
	_, weakOk := g.Get(weak)
	_, strongOk := g.Get(strong)
	assert.False(t, weakOk)
	assert.True(t, strongOk)
}

func TestNeighborsWithStrengthExcludesInactive(t *testing.T) {
	g := NewBondGraph(4)
	keep, _ := g.Connect(Bond{Source: 0, Target: 1, Strength: 0.7})
	dead, _ := g.Connect(Bond{Source: 0, Target: 2, Strength: 0.7})
	g.Disconnect(dead)
	always := func(b *Bond, now int64) float32 { return b.Strength }
	ns := g.NeighborsWithStrength(0, 0, always)
	require.Len(t, ns, 1)
	assert.Equal(t, common.LineageId(1), ns[0].Other)
	_ = keep
}
