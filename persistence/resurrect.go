// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package persistence

import (
	"encoding/binary"
	"math"

	"github.com/golang/snappy"
	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/cortex"
	"github.com/laphilosophia/mindfry/graph"
	"github.com/laphilosophia/mindfry/trit"
)

// Restored bundles the arenas rebuilt by Resurrect. Cortex is nil if
// the snapshot carried no cortex section.
type Restored struct {
	Psyche    *arena.PsycheArena
	Strata    *arena.StrataArena
	Bonds     *graph.BondGraph
	Cortex    *cortex.Cortex
	TakenAtNs int64
}

// Resurrect loads the newest snapshot and rebuilds fresh arenas from
// it. Lineage ids are restored via arena.PsycheArena.RestoreAt, so
// every lineage keeps the slot it had when the snapshot was taken;
// this resolves the open question the source implementation left
// undefined (its restore path pushed lineages onto a fresh Vec in
// iteration order, silently renumbering them whenever a free slot had
// been reused in the middle of the arena). Bond ids are NOT guaranteed
// to be preserved: bonds are re-inserted via BondGraph.Connect into a
// fresh graph, which numbers them sequentially in saved order, since nothing in the spec's
// public surface addresses a bond by id across a restart.
func (e *Engine) Resurrect() (*Restored, error) {
	id, ok := e.Newest()
	if !ok {
		return nil, common.NotFound(common.KindSnapshot, "no snapshot present")
	}
	record, ok := e.store.get(nsSnapshot, id)
	if !ok {
		return nil, common.NotFound(common.KindSnapshot, "snapshot vanished between list and read")
	}
	nowNs, hasCortex, psycheBlob, strataBlob, bondBlob, cortexBlob, ok := disassembleRecord(record)
	if !ok {
		return nil, &common.KindError{Err: common.ErrMalformed, Kind: common.KindSnapshot, Detail: "truncated record"}
	}

	psyche, err := decodePsycheSection(psycheBlob)
	if err != nil {
		return nil, err
	}
	strata, err := decodeStrataSection(strataBlob)
	if err != nil {
		return nil, err
	}
	bonds, err := decodeBondSection(bondBlob, psyche.Cap())
	if err != nil {
		return nil, err
	}

	var c *cortex.Cortex
	if hasCortex {
		c, err = decodeCortexSection(cortexBlob)
		if err != nil {
			return nil, err
		}
	}

	return &Restored{Psyche: psyche, Strata: strata, Bonds: bonds, Cortex: c, TakenAtNs: nowNs}, nil
}

func decodePsycheSection(blob []byte) (*arena.PsycheArena, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, wrapMalformed(common.KindLineage, err)
	}
	if len(raw) < 4 {
		return nil, wrapMalformed(common.KindLineage, errShortSection)
	}
	count := binary.BigEndian.Uint32(raw[0:4])
	a := arena.NewPsycheArena(int(count))
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+4+lineageWireSize > len(raw) {
			return nil, wrapMalformed(common.KindLineage, errShortSection)
		}
		id := common.LineageId(binary.BigEndian.Uint32(raw[off : off+4]))
		off += 4
		l, ok := decodeLineage(raw[off : off+lineageWireSize])
		if !ok {
			return nil, wrapMalformed(common.KindLineage, errShortSection)
		}
		off += lineageWireSize
		a.RestoreAt(id, l)
	}
	return a, nil
}

func decodeStrataSection(blob []byte) (*arena.StrataArena, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, wrapMalformed(common.KindLineage, err)
	}
	if len(raw) < 8 {
		return nil, wrapMalformed(common.KindLineage, errShortSection)
	}
	total := binary.BigEndian.Uint32(raw[0:4])
	depth := binary.BigEndian.Uint32(raw[4:8])
	s := arena.NewStrataArena(0, int(depth))
	if depth > 0 {
		s.Grow(int((total + depth - 1) / depth))
	}
	off := 8
	for i := uint32(0); i < total; i++ {
		if off+engramWireSize > len(raw) {
			return nil, wrapMalformed(common.KindLineage, errShortSection)
		}
		e, ok := decodeEngram(raw[off : off+engramWireSize])
		if !ok {
			return nil, wrapMalformed(common.KindLineage, errShortSection)
		}
		off += engramWireSize
		s.Raw()[i] = e
	}
	return s, nil
}

func decodeBondSection(blob []byte, maxLineages int) (*graph.BondGraph, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, wrapMalformed(common.KindBond, err)
	}
	if len(raw) < 4 {
		return nil, wrapMalformed(common.KindBond, errShortSection)
	}
	count := binary.BigEndian.Uint32(raw[0:4])
	g := graph.NewBondGraph(maxLineages)
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+4+bondWireSize > len(raw) {
			return nil, wrapMalformed(common.KindBond, errShortSection)
		}
		off += 4 // the original bond id is not preserved, see Resurrect's doc comment.
		b, ok := decodeBond(raw[off : off+bondWireSize])
		if !ok {
			return nil, wrapMalformed(common.KindBond, errShortSection)
		}
		off += bondWireSize
		g.Connect(b)
	}
	return g, nil
}

func decodeCortexSection(blob []byte) (*cortex.Cortex, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, wrapMalformed(common.KindSnapshot, err)
	}
	if len(raw) < 20 {
		return nil, wrapMalformed(common.KindSnapshot, errShortSection)
	}
	personality := trit.UnpackOctet(binary.BigEndian.Uint16(raw[0:2]))
	mood := math.Float64frombits(binary.BigEndian.Uint64(raw[2:10]))
	baseThreshold := math.Float64frombits(binary.BigEndian.Uint64(raw[10:18]))
	defaultTTL := raw[18]
	n := int(raw[19])

	c := cortex.New(personality, baseThreshold, defaultTTL)
	c.SetMood(mood)

	off := 20
	for i := 0; i < n; i++ {
		if off+5 > len(raw) {
			return nil, wrapMalformed(common.KindSnapshot, errShortSection)
		}
		lineageId := common.LineageId(binary.BigEndian.Uint32(raw[off : off+4]))
		ttl := raw[off+4]
		off += 5
		c.Retention.Insert(lineageId, ttl)
	}
	return c, nil
}
