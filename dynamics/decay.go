package dynamics

import (
	"math"
	"time"

	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/graph"
	"golang.org/x/sync/errgroup"
)

// DecayEngine computes lazy exponential decay for lineages and bonds,
// optionally through the precomputed LUT fast path, and runs the
// periodic decay tick (scan + min-energy census).
type DecayEngine struct {
	LUT                *DecayLUT
	MinEnergyThreshold float64
	lastTick           int64 // ns timestamp of the last tick_psyche call
}

// NewDecayEngine builds a decay engine with a freshly constructed LUT.
func NewDecayEngine(minEnergyThreshold float64) *DecayEngine {
	return &DecayEngine{
		LUT:                NewDecayLUT(DefaultRateBuckets, DefaultTimeBuckets),
		MinEnergyThreshold: minEnergyThreshold,
	}
}

// ElapsedSeconds converts two ns timestamps into elapsed seconds,
// clamping negative results (clock skew, out-of-order calls) to 0.
func ElapsedSeconds(lastAccessNs, nowNs int64) float64 {
	if nowNs <= lastAccessNs {
		return 0
	}
	return float64(nowNs-lastAccessNs) / float64(time.Second)
}

// ObservableEnergy is lineage.energy if PROTECTED, else
// lineage.energy * exp(-decay_rate * elapsed). When exact is false the
// LUT fast path is used; strict-fidelity callers (e.g. the testable
// monotonicity property) should pass exact=true.
func (d *DecayEngine) ObservableEnergy(l *arena.Lineage, nowNs int64, exact bool) float64 {
	if l.Flags.Has(arena.FlagProtected) {
		return float64(l.Energy)
	}
	elapsed := ElapsedSeconds(l.LastAccess, nowNs)
	factor := d.factor(float64(l.DecayRate), elapsed, exact)
	return float64(l.Energy) * factor
}

// ObservableBondStrength mirrors ObservableEnergy for bonds.
func (d *DecayEngine) ObservableBondStrength(b *graph.Bond, nowNs int64, exact bool) float64 {
	if b.Flags.Has(graph.FlagProtected) {
		return float64(b.Strength)
	}
	elapsed := ElapsedSeconds(b.LastAccess, nowNs)
	return float64(b.Strength) * d.factor(float64(b.DecayRate), elapsed, exact)
}

// ObservableBondStrengthFn adapts ObservableBondStrength to the
// graph.ObservableStrength signature graph.NeighborsWithStrength and
// graph.Prune expect, using the LUT fast path (exact=false).
func (d *DecayEngine) ObservableBondStrengthFn() graph.ObservableStrength {
	return func(b *graph.Bond, nowNs int64) float32 {
		return float32(d.ObservableBondStrength(b, nowNs, false))
	}
}

func (d *DecayEngine) factor(rate, elapsed float64, exact bool) float64 {
	if exact || d.LUT == nil {
		return math.Exp(-rate * elapsed)
	}
	return d.LUT.Lookup(rate, elapsed)
}

// Stimulate computes the current observable energy, adds delta, clamps
// to [0,1], writes the result back with LastAccess = now, and
// refreshes the CONSCIOUS advisory flag. A Stimulate followed by an
// immediate read therefore yields clamp(prev_observable+delta, 0, 1).
func (d *DecayEngine) Stimulate(l *arena.Lineage, delta float64, nowNs int64) float64 {
	observable := d.ObservableEnergy(l, nowNs, true)
	next := common.Clamp01(observable + delta)
	l.Energy = float32(next)
	l.LastAccess = nowNs
	if next >= float64(l.Threshold) {
		l.Flags = l.Flags.Set(arena.FlagConscious)
	} else {
		l.Flags = l.Flags.Clear(arena.FlagConscious)
	}
	l.Flags = l.Flags.Set(arena.FlagDirty)
	return next
}

// TickResult is returned by TickPsyche.
type TickResult struct {
	Scanned    int
	BelowFloor int
	ElapsedMs  int64
}

// TickPsyche scans every active lineage, recomputes observable energy
// and counts how many fall below MinEnergyThreshold. It never mutates
// lineage state (freeing is delegated to the GC pipeline) and updates
// lastTick. ElapsedMs is measured against the *previous* lastTick,
// captured before it is overwritten — unlike the known-buggy source
// behavior this spec calls out as an open question (§9.3), which
// reassigned lastTick before measuring and so always read zero.
func (d *DecayEngine) TickPsyche(a *arena.PsycheArena, nowNs int64) TickResult {
	prevTick := d.lastTick
	var res TickResult
	a.ForEach(func(id common.LineageId, l *arena.Lineage) bool {
		res.Scanned++
		if d.ObservableEnergy(l, nowNs, false) < d.MinEnergyThreshold {
			res.BelowFloor++
		}
		return true
	})
	d.lastTick = nowNs
	if prevTick > 0 {
		res.ElapsedMs = (nowNs - prevTick) / int64(time.Millisecond)
	}
	return res
}

// LastTick returns the ns timestamp of the last TickPsyche call (0 if
// never ticked).
func (d *DecayEngine) LastTick() int64 { return d.lastTick }

// BatchDecayFactors bulk-computes every active lineage's current
// observable energy, indexed by lineage id (0 for free slots). When parallel is true it
// fans out across non-overlapping slab slices using errgroup,
// matching benches/decay.rs's bulk entry point; each worker only
// reads/writes its own slice, so no torn reads are possible.
func (d *DecayEngine) BatchDecayFactors(a *arena.PsycheArena, nowNs int64, parallel bool) []float64 {
	n := a.Cap()
	out := make([]float64, n)
	compute := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			l, ok := a.Get(common.LineageId(i))
			if !ok {
				continue
			}
			out[i] = d.ObservableEnergy(l, nowNs, false)
		}
	}
	if !parallel || n < 256 {
		compute(0, n)
		return out
	}
	workers := 4
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			compute(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
