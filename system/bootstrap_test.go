package system

import (
	"testing"

	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/dynamics"
	"github.com/laphilosophia/mindfry/stability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureBootstrapsInitialEnergies(t *testing.T) {
	a := arena.NewPsycheArena(8)
	lineages := Ensure(a)

	health, ok := a.Get(lineages.Health)
	require.True(t, ok)
	assert.Equal(t, float32(1.0), health.Energy)

	state, ok := a.Get(lineages.State)
	require.True(t, ok)
	assert.Equal(t, float32(1.0), state.Energy)

	resistance, ok := a.Get(lineages.Resistance)
	require.True(t, ok)
	assert.Equal(t, float32(0.5), resistance.Energy)
}

func TestEnsureIsIdempotent(t *testing.T) {
	a := arena.NewPsycheArena(8)
	first := Ensure(a)
	l, _ := a.Get(first.Health)
	l.Energy = 0.2 // simulate some decay/stimulation having happened

	second := Ensure(a)
	assert.Equal(t, first.Health, second.Health)
	again, _ := a.Get(second.Health)
	assert.Equal(t, float32(0.2), again.Energy, "re-ensuring must not reset an existing lineage")
}

func TestApplyRecoveryNormalIsNoop(t *testing.T) {
	a := arena.NewPsycheArena(8)
	lineages := Ensure(a)
	decay := dynamics.NewDecayEngine(0.001)

	ApplyRecovery(a, decay, lineages, stability.Normal, 1)

	_, ok := a.Lookup(0) // sanity: no stray alloc happened for a bogus hash
	assert.False(t, ok)
	assert.Equal(t, 3, a.Len(), "Normal recovery must not allocate shock/coma/instability")
	resistance, _ := a.Get(lineages.Resistance)
	assert.Equal(t, float32(0.5), resistance.Energy, "Normal recovery must not bump resistance")
}

func TestApplyRecoveryShockStimulatesInstabilityAndResistance(t *testing.T) {
	a := arena.NewPsycheArena(8)
	lineages := Ensure(a)
	decay := dynamics.NewDecayEngine(0.001)

	ApplyRecovery(a, decay, lineages, stability.Shock, 1)

	resistance, _ := a.Get(lineages.Resistance)
	assert.Greater(t, float64(resistance.Energy), 0.5)

	instabilityId, ok := a.Lookup(common.KeyHash64(KeyInstability))
	require.True(t, ok)
	instability, _ := a.Get(instabilityId)
	assert.InDelta(t, 0.3, instability.Energy, 0.0001)
}

func TestDecayResistanceClampsAtZero(t *testing.T) {
	a := arena.NewPsycheArena(8)
	lineages := Ensure(a)
	l, _ := a.Get(lineages.Resistance)
	l.Energy = 0.005

	DecayResistance(a, lineages.Resistance, 1)
	after, _ := a.Get(lineages.Resistance)
	assert.Equal(t, float32(0), after.Energy)
}
