// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package gc implements the ternary retention/GC pipeline joining the
// decay engine's scan with the Cortex's verdicts and the retention
// buffer's TTL reprieve. Grounded on spec.md §4.H and
// benches/stability.rs's pass-timing entry point.
package gc

import (
	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/cortex"
	"github.com/laphilosophia/mindfry/dynamics"
	"github.com/laphilosophia/mindfry/trit"
)

// Result is the outcome of one GC pass.
type Result struct {
	Processed int
	Retained  int
	Pending   int
	Pruned    int
}

// Pipeline runs periodic GC passes over a psyche arena.
type Pipeline struct {
	Decay  *dynamics.DecayEngine
	Cortex *cortex.Cortex
}

// New builds a GC pipeline over the given decay engine and cortex.
func New(decay *dynamics.DecayEngine, c *cortex.Cortex) *Pipeline {
	return &Pipeline{Decay: decay, Cortex: c}
}

// Pass runs one GC pass:
//  1. for each active lineage, compute viability = observable_energy -
//     min_energy_threshold, apply a preservation bias from the
//     personality's PRESERVATION dimension, and ask the Cortex to
//     decide a ternary verdict;
//  2. +1 (stable) restores the lineage from the retention buffer;
//  3. 0 or -1 (unstable/obsolete) — routed through the buffer
//     identically, since the TTL semantics does not distinguish
//     "unsure" from "obsolete" today, only the policy that consults
//     it might one day — via MarkOrTick;
//  4. ids that MarkOrTick reports ready are freed only after the full
//     scan, so the scan itself never observes a mutated arena.
func (p *Pipeline) Pass(a *arena.PsycheArena, nowNs int64) Result {
	var res Result
	var toFree []common.LineageId

	preservationWeight := float64(p.Cortex.Personality.Get(trit.Preservation).Weight())

	a.ForEach(func(id common.LineageId, l *arena.Lineage) bool {
		res.Processed++
		viability := p.Decay.ObservableEnergy(l, nowNs, false) - p.Decay.MinEnergyThreshold
		adjusted := viability + 0.1*preservationWeight
		verdict := p.Cortex.Decide(adjusted)

		switch verdict {
		case trit.Excite:
			p.Cortex.Retention.Restore(id)
			res.Retained++
		default: // Unknown or Inhibit: both routed through the TTL buffer.
			if p.Cortex.Retention.MarkOrTick(id) {
				toFree = append(toFree, id)
			} else {
				res.Pending++
			}
		}
		return true
	})

	for _, id := range toFree {
		if a.Free(id) {
			res.Pruned++
		}
	}
	return res
}
