// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package system bootstraps the reserved "_system.*" lineages
// (health, state, resistance) and applies the stability layer's
// recovery intensity to them at startup. Grounded on spec.md §4.K and
// the teacher's genesis-allocation idiom in core/genesis.go (ensure a
// handful of well-known accounts exist before normal operation
// begins).
package system

import (
	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/dynamics"
	"github.com/laphilosophia/mindfry/stability"
)

// Reserved key names. Host code and clients MUST NOT create names in
// this space (spec.md §6.3).
const (
	KeyHealth           = "_system.health"
	KeyState            = "_system.state"
	KeyResistance       = "_system.resistance"
	KeyShutdownGraceful = "_system.shutdown.graceful"
	KeyShutdownForced   = "_system.shutdown.forced"
	KeyShock            = "_system.shock"
	KeyComa             = "_system.coma"
	KeyInstability      = "_system.instability"
)

// resistanceDecayPerTick is the fixed per-tick decay §4.J assigns to
// _system.resistance, independent of the lineage's own DecayRate field.
const resistanceDecayPerTick = 0.01

// Lineages bundles the resolved ids of the three bootstrapped reserved
// lineages, so callers (engine.Engine) don't need to re-hash the keys
// on every tick.
type Lineages struct {
	Health     common.LineageId
	State      common.LineageId
	Resistance common.LineageId
}

// Ensure looks up each reserved key's hash and allocates it with the
// spec's initial energy if absent: health=1.0, state=1.0,
// resistance=0.5. Safe to call after genesis or after a resurrect,
// since keys already in the arena's key map (engine.Engine rebuilds it
// from the KeyIndex after a resurrect) resolve to the existing id.
func Ensure(a *arena.PsycheArena) Lineages {
	return Lineages{
		Health:     ensureOne(a, KeyHealth, 1.0),
		State:      ensureOne(a, KeyState, 1.0),
		Resistance: ensureOne(a, KeyResistance, 0.5),
	}
}

func ensureOne(a *arena.PsycheArena, key string, initialEnergy float32) common.LineageId {
	hash := common.KeyHash64(key)
	if id, ok := a.Lookup(hash); ok {
		return id
	}
	return a.AllocWithKey(hash, arena.Lineage{Energy: initialEnergy, Threshold: 0.5})
}

// ApplyRecovery stimulates the instability lineage and the shock or
// coma lineage with the classification's intensity, and bumps
// _system.resistance by the same intensity, per spec.md §4.J. The
// instability/shock/coma keys are ensured (allocated if absent) since
// they are only ever touched on a non-Normal recovery.
func ApplyRecovery(a *arena.PsycheArena, decay *dynamics.DecayEngine, lineages Lineages, class stability.Classification, nowNs int64) {
	intensity := class.Intensity()
	if intensity == 0 {
		return
	}
	var key string
	switch class {
	case stability.Shock:
		key = KeyShock
	case stability.Coma:
		key = KeyComa
	default:
		return
	}
	target := ensureOne(a, key, 0)
	if l, ok := a.Get(target); ok {
		decay.Stimulate(l, intensity, nowNs)
	}
	instability := ensureOne(a, KeyInstability, 0)
	if l, ok := a.Get(instability); ok {
		decay.Stimulate(l, intensity, nowNs)
	}
	if l, ok := a.Get(lineages.Resistance); ok {
		decay.Stimulate(l, intensity, nowNs)
	}
}

// DecayResistance applies the fixed 0.01/tick resistance decay. Unlike
// every other lineage, resistance's decay is not driven by its own
// DecayRate/observable-energy curve: it is a flat per-tick subtraction
// clamped at 0, since spec.md §4.J specifies it as a tick-rate constant
// rather than an exponential parameter.
func DecayResistance(a *arena.PsycheArena, resistance common.LineageId, nowNs int64) {
	l, ok := a.Get(resistance)
	if !ok {
		return
	}
	next := float64(l.Energy) - resistanceDecayPerTick
	if next < 0 {
		next = 0
	}
	l.Energy = float32(next)
	l.LastAccess = nowNs
}
