// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package arena implements the cache-packed slab allocators of the
// engine: the lineage arena (this file and psyche.go) and the strata
// arena (engram.go). Grounded on original_source/src/arena/psyche.rs
// and strata.rs, in the teacher's slab/free-list idiom seen in
// trie/stacktrie.go's node pooling and core/vm/analysis.go's flat
// bitvec allocation.
package arena

import "github.com/laphilosophia/mindfry/common"

// Lineage is the neuron-like record. Field order and widths are chosen
// to land the struct at 32 bytes, half of a 64-byte cache line:
// four float32 payload fields, an 8-byte timestamp, a
// 4-byte ring head index and a 1-byte flag set plus 3 bytes of
// explicit padding.
type Lineage struct {
	Energy     float32
	Threshold  float32
	DecayRate  float32
	Rigidity   float32
	LastAccess int64
	HeadIndex  uint32
	Flags      Flags
	_          [3]byte
}

// IsActive reports whether the slot is live.
func (l *Lineage) IsActive() bool { return l.Flags.Has(FlagActive) }

// HeadEngram returns the lineage's strata ring head, or the sentinel
// when HeadIndex holds the sentinel value. A zero-value Lineage has
// HeadIndex 0, which is returned as engram index 0.
func (l *Lineage) HeadEngram() common.EngramIndex {
	if l.HeadIndex == uint32(common.NullEngram) {
		return common.NullEngram
	}
	return common.EngramIndex(l.HeadIndex)
}

// SetHeadEngram updates the ring head.
func (l *Lineage) SetHeadEngram(idx common.EngramIndex) {
	l.HeadIndex = uint32(idx)
}
