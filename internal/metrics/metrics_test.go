package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterAccumulates(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("gc.pruned")
	c.Inc(3)
	c.Inc(2)
	assert.Equal(t, int64(5), c.Count())
	assert.Same(t, c, r.Counter("gc.pruned"), "repeated lookup returns the same handle")
}

func TestGaugeHoldsLastValue(t *testing.T) {
	r := NewRegistry()
	g := r.Gauge("psyche.len")
	g.Update(10)
	g.Update(7)
	assert.Equal(t, int64(7), g.Value())
}

func TestMeterTracksDeltaSinceSnapshot(t *testing.T) {
	r := NewRegistry()
	m := r.Meter("decay.ticks")
	m.Mark(4)
	assert.Equal(t, int64(4), m.SinceLastSnapshot())
	m.Mark(2)
	assert.Equal(t, int64(2), m.SinceLastSnapshot())
	assert.Equal(t, int64(6), m.Total())
}

func TestRegistrySnapshotCoversAllKinds(t *testing.T) {
	r := NewRegistry()
	r.Counter("c").Inc(1)
	r.Gauge("g").Update(2)
	r.Meter("m").Mark(3)

	snap := r.Snapshot()
	assert.Equal(t, int64(1), snap["c"])
	assert.Equal(t, int64(2), snap["g"])
	assert.Equal(t, int64(3), snap["m"])
}
