package gc

import (
	"testing"

	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/cortex"
	"github.com/laphilosophia/mindfry/dynamics"
	"github.com/laphilosophia/mindfry/trit"
	"github.com/stretchr/testify/assert"
)

// TestGcPassesWithRetentionBuffer walks four consecutive passes over
// three lineages with energies {0.9, 0.05, 0.03}, a preservation-biased
// personality and a short retention TTL, checking the exact
// retained/pending/pruned counts at each pass.
func TestGcPassesWithRetentionBuffer(t *testing.T) {
	a := arena.NewPsycheArena(4)
	now := int64(1_000_000_000)
	a.Alloc(arena.Lineage{Energy: 0.9, LastAccess: now})
	a.Alloc(arena.Lineage{Energy: 0.05, LastAccess: now})
	a.Alloc(arena.Lineage{Energy: 0.03, LastAccess: now})

	decay := dynamics.NewDecayEngine(0.001)
	var personality trit.Octet
	personality = personality.Set(trit.Preservation, trit.Excite)
	c := cortex.New(personality, 0.5, 3)
	p := New(decay, c)

	pass1 := p.Pass(a, now)
	assert.Equal(t, Result{Processed: 3, Retained: 1, Pending: 2, Pruned: 0}, pass1)

	pass2 := p.Pass(a, now)
	assert.Equal(t, Result{Processed: 3, Retained: 1, Pending: 2, Pruned: 0}, pass2)

	pass3 := p.Pass(a, now)
	assert.Equal(t, Result{Processed: 3, Retained: 1, Pending: 2, Pruned: 0}, pass3)

	pass4 := p.Pass(a, now)
	assert.Equal(t, 2, pass4.Pruned)
	assert.Equal(t, 0, pass4.Pending)
	assert.Equal(t, 1, a.Len())
}

// TestGcRestoreClearsRetentionEntry verifies a lineage that recovers to
// a stable (+1) verdict is removed from the retention buffer rather
// than left to tick down.
func TestGcRestoreClearsRetentionEntry(t *testing.T) {
	a := arena.NewPsycheArena(2)
	now := int64(1)
	id := a.Alloc(arena.Lineage{Energy: 0.01, LastAccess: now})

	decay := dynamics.NewDecayEngine(0.001)
	c := cortex.New(trit.Octet{}, 0.5, 3)
	p := New(decay, c)

	p.Pass(a, now) // marks pending
	_, pending := c.Retention.Peek(id)
	assert.True(t, pending)

	l, _ := a.Get(id)
	l.Energy = 0.99

	p.Pass(a, now)
	_, stillPending := c.Retention.Peek(id)
	assert.False(t, stillPending)
}
