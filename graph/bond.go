// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package graph implements the bond graph: a slab of living, decaying,
// polarity-bearing edges plus dual adjacency (each endpoint keeps one
// vector of the bond ids touching it). Grounded on
// original_source/src/graph/bond.rs, in the same non-owning,
// integer-endpoint style the teacher's snapshot diff layers use to
// reference accounts by hash rather than by pointer
// (core/state/snapshot/difflayer.go).
package graph

import "github.com/laphilosophia/mindfry/common"

// BondFlags is the bitset carried by a Bond record.
type BondFlags uint8

const (
	FlagActive BondFlags = 1 << iota
	FlagLearned
	FlagBidirectional
	FlagProtected
)

func (f BondFlags) Has(bit BondFlags) bool        { return f&bit != 0 }
func (f BondFlags) Set(bit BondFlags) BondFlags   { return f | bit }
func (f BondFlags) Clear(bit BondFlags) BondFlags { return f &^ bit }

// Polarity mirrors trit.Trit without importing the trit package, so
// graph has no dependency on the ternary primitives beyond the plain
// integer weight it needs for propagation. Values: -1 inhibit, 0
// unknown/insulator, +1 excite.
type Polarity int8

const (
	PolarityInhibit Polarity = -1
	PolarityUnknown Polarity = 0
	PolarityExcite  Polarity = 1
)

// Weight returns the signed integer polarity weight.
func (p Polarity) Weight() int { return int(p) }

// Bond is a living edge between two lineages.
type Bond struct {
	Source     common.LineageId
	Target     common.LineageId
	Strength   float32
	Cost       float32
	DecayRate  float32
	LastAccess int64
	Flags      BondFlags
	Polarity   Polarity
}

// IsActive reports whether the slot is live.
func (b *Bond) IsActive() bool { return b.Flags.Has(FlagActive) }

// Other returns the endpoint of b that is not from. If from is
// neither endpoint, it returns the source (callers are expected to
// only call this with a known endpoint).
func (b *Bond) Other(from common.LineageId) common.LineageId {
	if b.Source == from {
		return b.Target
	}
	return b.Source
}

// BondGraph is the slab allocator for bonds plus dual adjacency: for
// each lineage id, one vector of the bond ids touching it (as either
// endpoint). Not internally synchronized; see package engine.
type BondGraph struct {
	slots       []Bond
	freeList    []common.BondId
	adjacency   map[common.LineageId][]common.BondId
	maxLineages int
	count       int
}

// NewBondGraph returns an empty graph accepting endpoints up to maxLineages.
func NewBondGraph(maxLineages int) *BondGraph {
	return &BondGraph{
		adjacency:   make(map[common.LineageId][]common.BondId),
		maxLineages: maxLineages,
	}
}

// Len returns the number of active bonds.
func (g *BondGraph) Len() int { return g.count }

// SetMaxLineages updates the accepted endpoint range, e.g. after the
// psyche arena has grown past its original capacity.
func (g *BondGraph) SetMaxLineages(n int) {
	if n > g.maxLineages {
		g.maxLineages = n
	}
}

// Connect allocates a new bond. It rejects null or out-of-range
// endpoints. On success it appends the new id to both endpoints'
// adjacency vectors (not deduplicated: parallel bonds are legal).
func (g *BondGraph) Connect(b Bond) (common.BondId, bool) {
	if b.Source.IsNull() || b.Target.IsNull() {
		return common.NullBond, false
	}
	if int(b.Source) >= g.maxLineages || int(b.Target) >= g.maxLineages {
		return common.NullBond, false
	}
	b.Flags = b.Flags.Set(FlagActive)
	id := g.allocSlot(b)
	g.adjacency[b.Source] = append(g.adjacency[b.Source], id)
	g.adjacency[b.Target] = append(g.adjacency[b.Target], id)
	g.count++
	return id, true
}

func (g *BondGraph) allocSlot(b Bond) common.BondId {
	if n := len(g.freeList); n > 0 {
		id := g.freeList[n-1]
		g.freeList = g.freeList[:n-1]
		g.slots[id] = b
		return id
	}
	g.slots = append(g.slots, b)
	return common.BondId(len(g.slots) - 1)
}

// Get returns a pointer to the bond if id is in range and active.
func (g *BondGraph) Get(id common.BondId) (*Bond, bool) {
	if int(id) < 0 || int(id) >= len(g.slots) {
		return nil, false
	}
	b := &g.slots[id]
	if !b.IsActive() {
		return nil, false
	}
	return b, true
}

// Neighbors returns the raw adjacency slice for a lineage id: every
// active bond id it participates in, including parallel ones
// (Disconnect removes a bond's id from the adjacency).
func (g *BondGraph) Neighbors(id common.LineageId) []common.BondId {
	return g.adjacency[id]
}

// Disconnect clears ACTIVE, removes the id from both endpoints'
// adjacency vectors and pushes the slot to the free list.
func (g *BondGraph) Disconnect(id common.BondId) bool {
	b, ok := g.Get(id)
	if !ok {
		return false
	}
	b.Flags = b.Flags.Clear(FlagActive)
	g.removeFromAdjacency(b.Source, id)
	g.removeFromAdjacency(b.Target, id)
	g.freeList = append(g.freeList, id)
	g.count--
	return true
}

func (g *BondGraph) removeFromAdjacency(lineage common.LineageId, id common.BondId) {
	list := g.adjacency[lineage]
	for i, v := range list {
		if v == id {
			g.adjacency[lineage] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// FindBond searches the shorter of a's/b's adjacency lists and returns
// the first active bond connecting a and b. Returns NullBond, false if
// none is found. Symmetric: FindBond(a,b) == FindBond(b,a).
func (g *BondGraph) FindBond(a, b common.LineageId) (common.BondId, bool) {
	listA, listB := g.adjacency[a], g.adjacency[b]
	search, anchor, want := listA, a, b
	if len(listB) < len(listA) {
		search, anchor, want = listB, b, a
	}
	for _, id := range search {
		bond, ok := g.Get(id)
		if !ok {
			continue
		}
		if bond.Other(anchor) == want {
			return id, true
		}
	}
	return common.NullBond, false
}

// ForEach visits every active bond, paired with its id, in slab order.
func (g *BondGraph) ForEach(fn func(id common.BondId, b *Bond) bool) {
	for i := range g.slots {
		if !g.slots[i].IsActive() {
			continue
		}
		if !fn(common.BondId(i), &g.slots[i]) {
			return
		}
	}
}
