// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package persistence implements the snapshot/resurrect contract: a
// fixed-width binary encoding of every arena, compressed with snappy
// blob-by-blob, durably placed in a leveldb-backed storage engine.
// Grounded on core/rawdb/freezer_table.go's encoding/binary plus
// golang/snappy technique (the freezer's own file-chaining and index
// machinery is not reused: a single leveldb instance already gives
// mindfry atomic, ordered, crash-safe storage, so the fixed-width codec
// is all that is adapted from the freezer table).
package persistence

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/graph"
)

// errShortSection is returned (wrapped) when a decompressed section is
// too small to hold the header or entries its own length prefix claims.
var errShortSection = errors.New("persistence: section truncated")

func wrapMalformed(kind common.Kind, err error) error {
	return &common.KindError{Err: common.ErrMalformed, Kind: kind, Detail: err.Error()}
}

const (
	lineageWireSize = 4 + 4 + 4 + 4 + 8 + 4 + 1 // Energy,Threshold,DecayRate,Rigidity,LastAccess,HeadIndex,Flags
	engramWireSize  = 8 + 4 + 8 + 4 + 4         // Timestamp,Stimulation,PayloadId,SourceId,PrevIndex
	bondWireSize    = 4 + 4 + 4 + 4 + 4 + 8 + 1 + 1
)

func putFloat32(b []byte, v float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

// encodeLineage writes l's fixed-width wire form into a freshly
// allocated buffer.
func encodeLineage(l arena.Lineage) []byte {
	b := make([]byte, lineageWireSize)
	putFloat32(b[0:4], l.Energy)
	putFloat32(b[4:8], l.Threshold)
	putFloat32(b[8:12], l.DecayRate)
	putFloat32(b[12:16], l.Rigidity)
	binary.BigEndian.PutUint64(b[16:24], uint64(l.LastAccess))
	binary.BigEndian.PutUint32(b[24:28], l.HeadIndex)
	b[28] = byte(l.Flags)
	return b
}

func decodeLineage(b []byte) (arena.Lineage, bool) {
	if len(b) < lineageWireSize {
		return arena.Lineage{}, false
	}
	return arena.Lineage{
		Energy:     getFloat32(b[0:4]),
		Threshold:  getFloat32(b[4:8]),
		DecayRate:  getFloat32(b[8:12]),
		Rigidity:   getFloat32(b[12:16]),
		LastAccess: int64(binary.BigEndian.Uint64(b[16:24])),
		HeadIndex:  binary.BigEndian.Uint32(b[24:28]),
		Flags:      arena.Flags(b[28]),
	}, true
}

func encodeEngram(e arena.Engram) []byte {
	b := make([]byte, engramWireSize)
	binary.BigEndian.PutUint64(b[0:8], uint64(e.Timestamp))
	putFloat32(b[8:12], e.Stimulation)
	binary.BigEndian.PutUint64(b[12:20], uint64(e.PayloadId))
	binary.BigEndian.PutUint32(b[20:24], uint32(e.SourceId))
	binary.BigEndian.PutUint32(b[24:28], uint32(e.PrevIndex))
	return b
}

func decodeEngram(b []byte) (arena.Engram, bool) {
	if len(b) < engramWireSize {
		return arena.Engram{}, false
	}
	return arena.Engram{
		Timestamp:   int64(binary.BigEndian.Uint64(b[0:8])),
		Stimulation: getFloat32(b[8:12]),
		PayloadId:   common.PayloadId(binary.BigEndian.Uint64(b[12:20])),
		SourceId:    common.LineageId(binary.BigEndian.Uint32(b[20:24])),
		PrevIndex:   common.EngramIndex(binary.BigEndian.Uint32(b[24:28])),
	}, true
}

func encodeBond(b graph.Bond) []byte {
	out := make([]byte, bondWireSize)
	binary.BigEndian.PutUint32(out[0:4], uint32(b.Source))
	binary.BigEndian.PutUint32(out[4:8], uint32(b.Target))
	putFloat32(out[8:12], b.Strength)
	putFloat32(out[12:16], b.Cost)
	putFloat32(out[16:20], b.DecayRate)
	binary.BigEndian.PutUint64(out[20:28], uint64(b.LastAccess))
	out[28] = byte(b.Flags)
	out[29] = byte(b.Polarity)
	return out
}

func decodeBond(b []byte) (graph.Bond, bool) {
	if len(b) < bondWireSize {
		return graph.Bond{}, false
	}
	return graph.Bond{
		Source:     common.LineageId(binary.BigEndian.Uint32(b[0:4])),
		Target:     common.LineageId(binary.BigEndian.Uint32(b[4:8])),
		Strength:   getFloat32(b[8:12]),
		Cost:       getFloat32(b[12:16]),
		DecayRate:  getFloat32(b[16:20]),
		LastAccess: int64(binary.BigEndian.Uint64(b[20:28])),
		Flags:      graph.BondFlags(b[28]),
		Polarity:   graph.Polarity(int8(b[29])),
	}, true
}
