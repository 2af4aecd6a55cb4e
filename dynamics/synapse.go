package dynamics

import (
	mapset "github.com/deckarep/golang-set"
	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/graph"
)

// SynapseConfig holds the three propagation safety rails.
type SynapseConfig struct {
	Cutoff     float64 // energy floor; default 0.1
	MaxDepth   int     // depth ceiling; default 10
	Resistance float64 // damping per hop; default 0.5
}

// DefaultSynapseConfig returns the spec's documented defaults.
func DefaultSynapseConfig() SynapseConfig {
	return SynapseConfig{Cutoff: 0.1, MaxDepth: 10, Resistance: 0.5}
}

// SynapseEngine propagates stimulation through the bond graph with
// damping and polarity weighting, subject to an energy floor, a depth
// ceiling and a per-propagation visited set.
type SynapseEngine struct {
	Config SynapseConfig
	Decay  *DecayEngine
}

// NewSynapseEngine builds a synapse engine sharing a decay engine
// (propagation stimulates neighbors, which is itself a decay-engine
// operation).
func NewSynapseEngine(decay *DecayEngine, cfg SynapseConfig) *SynapseEngine {
	return &SynapseEngine{Config: cfg, Decay: decay}
}

// Propagate starts from (source, inputEnergy) and recursively
// stimulates neighbors through active bonds, honoring the three
// safety rails. It returns the count of distinct lineages mutated.
// Siblings at each hop are processed in adjacency-list order; the
// visited set (github.com/deckarep/golang-set, a teacher dependency)
// prevents re-entry, so that order decides which path first claims a
// shared downstream neighbor.
func (s *SynapseEngine) Propagate(a *arena.PsycheArena, g *graph.BondGraph, source common.LineageId, inputEnergy float64, nowNs int64) int {
	visited := mapset.NewSet()
	visited.Add(source)
	count := s.propagate(a, g, source, inputEnergy, 0, nowNs, visited)
	return count
}

func (s *SynapseEngine) propagate(a *arena.PsycheArena, g *graph.BondGraph, from common.LineageId, inputEnergy float64, depth int, nowNs int64, visited mapset.Set) int {
	if absf(inputEnergy) < s.Config.Cutoff {
		return 0
	}
	if depth >= s.Config.MaxDepth {
		return 0
	}
	mutated := 0
	for _, bondId := range g.Neighbors(from) {
		bond, ok := g.Get(bondId)
		if !ok || !bond.IsActive() {
			continue
		}
		other := bond.Other(from)
		if visited.Contains(other) {
			continue
		}
		p := bond.Polarity.Weight()
		if p == 0 {
			// Unknown polarity is an insulator: skip with no recursion.
			continue
		}
		strength := s.Decay.ObservableBondStrength(bond, nowNs, false)
		transfer := inputEnergy * strength * float64(p)
		decayed := transfer * (1 - s.Config.Resistance)

		lineage, ok := a.Get(other)
		if !ok {
			continue
		}
		s.Decay.Stimulate(lineage, decayed, nowNs)
		visited.Add(other)
		mutated++

		mutated += s.propagate(a, g, other, decayed, depth+1, nowNs, visited)
	}
	return mutated
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
