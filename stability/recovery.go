// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package stability implements the startup/shutdown health machinery:
// the shutdown marker and recovery classifier, the warmup state
// machine gating request handling while resurrect runs, and the
// exhaustion level that gates writes by an observed energy. Grounded
// on original_source's stability module and the teacher's atomic
// state-machine idiom (eth/downloader/resultcache.go's atomic
// counters, core/state/pruner/bloom.go's atomic flag).
package stability

import "time"

// Classification is the outcome of analyzing the previous exit.
type Classification int

const (
	Normal Classification = iota
	Shock
	Coma
)

func (c Classification) String() string {
	switch c {
	case Shock:
		return "shock"
	case Coma:
		return "coma"
	default:
		return "normal"
	}
}

// Intensity returns the stimulation intensity §4.J assigns to this
// classification: 0 for Normal, 0.3 for Shock, 0.5 for Coma.
func (c Classification) Intensity() float64 {
	switch c {
	case Shock:
		return 0.3
	case Coma:
		return 0.5
	default:
		return 0
	}
}

// comaDowntime is the downtime threshold past which a graceful exit is
// still classified Coma rather than Normal.
const comaDowntime = 3600 * time.Second

// ShutdownMarker is written at exit and read-and-cleared at the next
// startup. Analyze classifies an absent marker as Normal; only a
// marker with Graceful false yields Shock.
type ShutdownMarker struct {
	Timestamp time.Time
	Graceful  bool
	Version   uint32
}

// Analyze classifies the previous exit given the marker read at
// startup (nil if absent/already cleared) and the current time.
//
//   - absent                                  -> Normal
//   - present, graceful, downtime <= 1h        -> Normal
//   - present, graceful, downtime > 1h         -> Coma
//   - present, not graceful (any downtime)     -> Shock
func Analyze(marker *ShutdownMarker, now time.Time) Classification {
	if marker == nil {
		return Normal
	}
	if !marker.Graceful {
		return Shock
	}
	if now.Sub(marker.Timestamp) > comaDowntime {
		return Coma
	}
	return Normal
}
