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
	"github.com/hashicorp/golang-lru"
	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/cortex"
	"github.com/laphilosophia/mindfry/graph"
)

// Meta describes one snapshot without requiring the full blob to be
// decompressed and decoded; it is what the metadata cache holds.
type Meta struct {
	Id           uint64
	TakenAtNs    int64
	LineageCount int
	BondCount    int
	HasCortex    bool
}

// Engine bundles a Store with an in-memory metadata cache (so MetaOf
// callers that only need a snapshot's shape don't pay to decompress
// and decode every section), grounded on the
// teacher's widespread use of hashicorp/golang-lru for hot metadata
// (e.g. trie node caches), plus the KeyIndex reverse lookup the key-
// bearing half of Engine.Create keeps current.
type Engine struct {
	store    *Store
	metaLRU  *lru.Cache
	keyIndex *KeyIndex
	nextId   uint64
}

// Open opens the storage engine at path with a metadata cache sized
// for maxMetaEntries recent snapshots, warming that cache from every
// snapshot already on disk so a process restart doesn't cost the next
// MetaOf caller a full decode.
func Open(path string, maxMetaEntries int) (*Engine, error) {
	store, err := openStore(path)
	if err != nil {
		return nil, err
	}
	c, _ := lru.New(maxMetaEntries)
	e := &Engine{store: store, metaLRU: c, keyIndex: NewKeyIndex(store)}
	e.loadNextId()
	e.warmMetaCache()
	return e, nil
}

// KeyIndex exposes the store's hash64 -> LineageId reverse index, from
// which engine.Engine rebuilds the in-memory PsycheArena key map after
// a resurrect.
func (e *Engine) KeyIndex() *KeyIndex { return e.keyIndex }

// MetaOf returns the cached shape of snapshot id, if known.
func (e *Engine) MetaOf(id uint64) (Meta, bool) {
	v, ok := e.metaLRU.Get(id)
	if !ok {
		return Meta{}, false
	}
	return v.(Meta), true
}

// warmMetaCache populates metaLRU from every snapshot record already on
// disk, decoding only the section counts rather than the full arenas.
func (e *Engine) warmMetaCache() {
	e.store.iterateNamespace(nsSnapshot, func(id uint64, record []byte) bool {
		nowNs, hasCortex, psycheBlob, _, bondBlob, _, ok := disassembleRecord(record)
		if !ok {
			return true
		}
		lineages, _ := snappyCount(psycheBlob)
		bonds, _ := snappyCount(bondBlob)
		e.metaLRU.Add(id, Meta{Id: id, TakenAtNs: nowNs, LineageCount: lineages, BondCount: bonds, HasCortex: hasCortex})
		return true
	})
}

// snappyCount decodes a section just far enough to read its leading
// uint32 entry count, without building the arena it describes.
func snappyCount(blob []byte) (int, error) {
	if len(blob) == 0 {
		return 0, nil
	}
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return 0, err
	}
	if len(raw) < 4 {
		return 0, nil
	}
	return int(binary.BigEndian.Uint32(raw[0:4])), nil
}

func openStore(path string) (*Store, error) { return OpenStore(path) }

func (e *Engine) loadNextId() {
	var max uint64
	e.store.iterateNamespace(nsSnapshot, func(id uint64, _ []byte) bool {
		if id+1 > max {
			max = id + 1
		}
		return true
	})
	e.nextId = max
}

// Close closes the underlying store.
func (e *Engine) Close() error { return e.store.Close() }

// Save encodes the full engine state (psyche arena, strata arena, bond
// graph, and optionally the cortex) into one snapshot record, snappy
// compresses each section independently, and writes it durably.
// Returns the new snapshot id.
func (e *Engine) Save(nowNs int64, a *arena.PsycheArena, s *arena.StrataArena, g *graph.BondGraph, c *cortex.Cortex) (uint64, error) {
	id := e.nextId
	e.nextId++

	psycheBlob := snappy.Encode(nil, encodePsycheSection(a))
	strataBlob := snappy.Encode(nil, encodeStrataSection(s))
	bondBlob := snappy.Encode(nil, encodeBondSection(g))

	var cortexBlob []byte
	hasCortex := c != nil
	if hasCortex {
		cortexBlob = snappy.Encode(nil, encodeCortexSection(c))
	}

	record := assembleRecord(nowNs, psycheBlob, strataBlob, bondBlob, cortexBlob, hasCortex)
	if err := e.store.put(nsSnapshot, id, record); err != nil {
		return 0, err
	}

	meta := Meta{Id: id, TakenAtNs: nowNs, LineageCount: a.Len(), BondCount: g.Len(), HasCortex: hasCortex}
	e.metaLRU.Add(id, meta)
	return id, nil
}

// List returns every snapshot id known to the store, ascending.
func (e *Engine) List() []uint64 {
	var ids []uint64
	e.store.iterateNamespace(nsSnapshot, func(id uint64, _ []byte) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Newest returns the highest snapshot id, or false if none exist.
func (e *Engine) Newest() (uint64, bool) {
	ids := e.List()
	if len(ids) == 0 {
		return 0, false
	}
	max := ids[0]
	for _, id := range ids[1:] {
		if id > max {
			max = id
		}
	}
	return max, true
}

// record layout: a small fixed header (8-byte timestamp, a cortex flag
// byte and 4 length-prefixes) followed by the four (at most) compressed sections, in
// the order psyche, strata, bond, cortex.
func assembleRecord(nowNs int64, psyche, strata, bond, cortexBlob []byte, hasCortex bool) []byte {
	header := make([]byte, 8+1+4*4)
	binary.BigEndian.PutUint64(header[0:8], uint64(nowNs))
	if hasCortex {
		header[8] = 1
	}
	off := 9
	for _, blob := range [][]byte{psyche, strata, bond, cortexBlob} {
		binary.BigEndian.PutUint32(header[off:off+4], uint32(len(blob)))
		off += 4
	}
	out := make([]byte, 0, len(header)+len(psyche)+len(strata)+len(bond)+len(cortexBlob))
	out = append(out, header...)
	out = append(out, psyche...)
	out = append(out, strata...)
	out = append(out, bond...)
	out = append(out, cortexBlob...)
	return out
}

func disassembleRecord(record []byte) (nowNs int64, hasCortex bool, psyche, strata, bond, cortexBlob []byte, ok bool) {
	if len(record) < 25 {
		return
	}
	nowNs = int64(binary.BigEndian.Uint64(record[0:8]))
	hasCortex = record[8] == 1
	lens := make([]uint32, 4)
	off := 9
	for i := range lens {
		lens[i] = binary.BigEndian.Uint32(record[off : off+4])
		off += 4
	}
	body := record[off:]
	sections := make([][]byte, 4)
	cursor := 0
	for i, l := range lens {
		end := cursor + int(l)
		if end > len(body) {
			return
		}
		sections[i] = body[cursor:end]
		cursor = end
	}
	return nowNs, hasCortex, sections[0], sections[1], sections[2], sections[3], true
}

func encodePsycheSection(a *arena.PsycheArena) []byte {
	var out []byte
	count := uint32(0)
	var entries []byte
	a.ForEach(func(id common.LineageId, l *arena.Lineage) bool {
		idBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(idBuf, uint32(id))
		entries = append(entries, idBuf...)
		entries = append(entries, encodeLineage(*l)...)
		count++
		return true
	})
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, count)
	out = append(out, header...)
	out = append(out, entries...)
	return out
}

func encodeStrataSection(s *arena.StrataArena) []byte {
	raw := s.Raw()
	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(raw)))
	binary.BigEndian.PutUint32(header[4:8], uint32(s.Depth()))
	out := append([]byte(nil), header...)
	for _, e := range raw {
		out = append(out, encodeEngram(e)...)
	}
	return out
}

func encodeBondSection(g *graph.BondGraph) []byte {
	var entries []byte
	count := uint32(0)
	g.ForEach(func(id common.BondId, b *graph.Bond) bool {
		idBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(idBuf, uint32(id))
		entries = append(entries, idBuf...)
		entries = append(entries, encodeBond(*b)...)
		count++
		return true
	})
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, count)
	return append(header, entries...)
}

func encodeCortexSection(c *cortex.Cortex) []byte {
	out := make([]byte, 2+8+8+1+1)
	binary.BigEndian.PutUint16(out[0:2], c.Personality.Pack())
	binary.BigEndian.PutUint64(out[2:10], math.Float64bits(c.Mood()))
	binary.BigEndian.PutUint64(out[10:18], math.Float64bits(c.Quantizer.BaseThreshold))
	out[18] = c.Retention.DefaultTTL
	entries := make([]byte, 0)
	n := 0
	c.Retention.ForEach(func(id common.LineageId, ttl uint8) {
		b := make([]byte, 5)
		binary.BigEndian.PutUint32(b[0:4], uint32(id))
		b[4] = ttl
		entries = append(entries, b...)
		n++
	})
	out[19] = byte(n)
	out = append(out, entries...)
	return out
}
