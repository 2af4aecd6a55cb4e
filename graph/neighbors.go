package graph

import "github.com/laphilosophia/mindfry/common"

// NeighborStrength pairs a neighbor's lineage id with a bond's current
// (decayed) strength.
type NeighborStrength struct {
	Other    common.LineageId
	Strength float32
}

// ObservableStrength computes a bond's lazily-decayed current strength
// at nowNs. It is implemented by
// dynamics.DecayEngine.ObservableBondStrengthFn so that graph has no
// dependency on the decay engine; callers inject it.
type ObservableStrength func(b *Bond, nowNs int64) float32

// NeighborsWithStrength yields (other endpoint, current strength) for
// every active bond touching id, using observable to lazily decay each
// bond's strength. Inactive bonds are excluded.
func (g *BondGraph) NeighborsWithStrength(id common.LineageId, nowNs int64, observable ObservableStrength) []NeighborStrength {
	ids := g.adjacency[id]
	out := make([]NeighborStrength, 0, len(ids))
	for _, bid := range ids {
		b, ok := g.Get(bid)
		if !ok {
			continue
		}
		out = append(out, NeighborStrength{
			Other:    b.Other(id),
			Strength: observable(b, nowNs),
		})
	}
	return out
}

// Prune scans all active bonds and disconnects those whose current
// strength (per observable) is below threshold. Returns the count of
// disconnected bonds. Collects ids first, then disconnects, so the
// prune pass never mutates the slab mid-scan.
func (g *BondGraph) Prune(nowNs int64, threshold float32, observable ObservableStrength) int {
	var toPrune []common.BondId
	g.ForEach(func(id common.BondId, b *Bond) bool {
		if observable(b, nowNs) < threshold {
			toPrune = append(toPrune, id)
		}
		return true
	})
	for _, id := range toPrune {
		g.Disconnect(id)
	}
	return len(toPrune)
}
