package dynamics

import (
	"testing"

	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChain(t *testing.T) (*arena.PsycheArena, *graph.BondGraph, *SynapseEngine) {
	t.Helper()
	a := arena.NewPsycheArena(4)
	g := graph.NewBondGraph(4)
	decay := NewDecayEngine(0.01)
	syn := NewSynapseEngine(decay, DefaultSynapseConfig())
	return a, g, syn
}

func TestPropagationChainExcitatory(t *testing.T) {
	a, g, syn := setupChain(t)
	aId := a.Alloc(arena.Lineage{Energy: 0.5})
	bId := a.Alloc(arena.Lineage{Energy: 0.1})
	cId := a.Alloc(arena.Lineage{Energy: 0.1})
	g.Connect(graph.Bond{Source: aId, Target: bId, Strength: 1.0, Polarity: graph.PolarityExcite, Flags: graph.FlagActive})
	g.Connect(graph.Bond{Source: bId, Target: cId, Strength: 1.0, Polarity: graph.PolarityExcite, Flags: graph.FlagActive})

	count := syn.Propagate(a, g, aId, 1.0, 0)

	bLineage, _ := a.Get(bId)
	cLineage, _ := a.Get(cId)
	assert.InDelta(t, 0.6, bLineage.Energy, 0.001)
	assert.InDelta(t, 0.35, cLineage.Energy, 0.001)
	assert.Equal(t, 2, count)
}

func TestPropagationNeutralInsulator(t *testing.T) {
	a, g, syn := setupChain(t)
	aId := a.Alloc(arena.Lineage{Energy: 0.5})
	bId := a.Alloc(arena.Lineage{Energy: 0.1})
	g.Connect(graph.Bond{Source: aId, Target: bId, Strength: 1.0, Polarity: graph.PolarityUnknown, Flags: graph.FlagActive})

	count := syn.Propagate(a, g, aId, 1.0, 0)

	bLineage, _ := a.Get(bId)
	assert.Equal(t, 0, count)
	assert.Equal(t, float32(0.1), bLineage.Energy)
}

func TestPropagationAntagonismInhibits(t *testing.T) {
	a, g, syn := setupChain(t)
	aId := a.Alloc(arena.Lineage{Energy: 0.5})
	bId := a.Alloc(arena.Lineage{Energy: 0.8})
	g.Connect(graph.Bond{Source: aId, Target: bId, Strength: 1.0, Polarity: graph.PolarityInhibit, Flags: graph.FlagActive})

	syn.Propagate(a, g, aId, 1.0, 0)

	bLineage, _ := a.Get(bId)
	assert.Less(t, float64(bLineage.Energy), 0.8)
}

func TestPropagationTerminatesWithVisitedBound(t *testing.T) {
	a, g, syn := setupChain(t)
	a0 := a.Alloc(arena.Lineage{Energy: 1})
	a1 := a.Alloc(arena.Lineage{Energy: 0})
	a2 := a.Alloc(arena.Lineage{Energy: 0})
	a3 := a.Alloc(arena.Lineage{Energy: 0})
	// Build a cycle: a0->a1->a2->a3->a0.
	g.Connect(graph.Bond{Source: a0, Target: a1, Strength: 1, Polarity: graph.PolarityExcite, Flags: graph.FlagActive})
	g.Connect(graph.Bond{Source: a1, Target: a2, Strength: 1, Polarity: graph.PolarityExcite, Flags: graph.FlagActive})
	g.Connect(graph.Bond{Source: a2, Target: a3, Strength: 1, Polarity: graph.PolarityExcite, Flags: graph.FlagActive})
	g.Connect(graph.Bond{Source: a3, Target: a0, Strength: 1, Polarity: graph.PolarityExcite, Flags: graph.FlagActive})

	count := syn.Propagate(a, g, a0, 1.0, 0)
	require.LessOrEqual(t, count, 4) // at most |active lineages|
}
