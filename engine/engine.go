// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package engine wires every subsystem (arenas, graph, dynamics,
// cortex, gc, persistence, stability, system) behind the single
// shared/exclusive guard spec.md §5 describes: reads without observer
// effect take the shared lock, everything else (observer-effect reads,
// all writes, snapshot/resurrect, ticks, propagation) takes the
// exclusive lock. Grounded on the teacher's core.BlockChain, whose
// public methods uniformly take chain.mu (a sync.RWMutex) around the
// same kind of single big piece of mutable state.
package engine

import (
	"sync"
	"time"

	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/config"
	"github.com/laphilosophia/mindfry/cortex"
	"github.com/laphilosophia/mindfry/dynamics"
	"github.com/laphilosophia/mindfry/gc"
	"github.com/laphilosophia/mindfry/graph"
	"github.com/laphilosophia/mindfry/internal/metrics"
	"github.com/laphilosophia/mindfry/internal/xlog"
	"github.com/laphilosophia/mindfry/persistence"
	"github.com/laphilosophia/mindfry/stability"
	"github.com/laphilosophia/mindfry/system"
	"github.com/laphilosophia/mindfry/trit"
	"golang.org/x/time/rate"
)

// defaultStimulateDelta is applied by observer-effect reads, per
// spec.md §5 ("stimulate-on-read by a small default delta").
const defaultStimulateDelta = 0.01

// defaultObserveRate/Burst bound how often ObserveWithEffect may
// actually apply its stimulation; callers beyond the budget still get
// a reading, just without the side effect, so a hot read loop can't
// turn into an unbounded stimulation flood.
const (
	defaultObserveRate  = 1000
	defaultObserveBurst = 200
)

// Engine is the single shared in-memory state plus every subsystem
// that operates on it, guarded by one RWMutex as spec.md §5 mandates.
// None of arena/graph/dynamics/cortex/gc are internally synchronized;
// this is the one place that enforces the concurrency model.
type Engine struct {
	mu sync.RWMutex

	psyche *arena.PsycheArena
	strata *arena.StrataArena
	bonds  *graph.BondGraph

	decay   *dynamics.DecayEngine
	synapse *dynamics.SynapseEngine
	cortex  *cortex.Cortex
	gc      *gc.Pipeline

	cfg     config.Config
	store   *persistence.Engine
	system  system.Lineages
	warmup  *stability.WarmupTracker
	exhaust *stability.Tuner
	health  *stability.HealthReport

	log     xlog.Logger
	metrics *metrics.Registry

	observeLimiter *rate.Limiter
}

// Option configures New.
type Option func(*Engine)

// WithStore attaches a persistence engine (snapshot/resurrect become
// available once set).
func WithStore(store *persistence.Engine) Option {
	return func(e *Engine) { e.store = store }
}

// WithLogger overrides the default root xlog.Logger.
func WithLogger(l xlog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New builds an Engine from cfg, starting Cold and empty (callers
// drive Bootstrap to reach Ready).
func New(cfg config.Config, opts ...Option) *Engine {
	decay := dynamics.NewDecayEngine(cfg.Decay.MinEnergyThreshold)
	personality := unpackPersonality(cfg.Personality)
	synapseCfg := dynamics.SynapseConfig{
		Cutoff:     cfg.Synapse.Cutoff,
		MaxDepth:   cfg.Synapse.MaxDepth,
		Resistance: cfg.Synapse.Resistance,
	}
	e := &Engine{
		psyche:         arena.NewPsycheArena(cfg.Sizes.MaxLineages),
		strata:         arena.NewStrataArena(cfg.Sizes.MaxLineages, cfg.Sizes.StrataDepth),
		bonds:          graph.NewBondGraph(cfg.Sizes.MaxLineages),
		decay:          decay,
		synapse:        dynamics.NewSynapseEngine(decay, synapseCfg),
		cortex:         cortex.New(personality, cfg.Quantizer.BaseThreshold, cfg.Retention.DefaultTTL),
		cfg:            cfg,
		warmup:         stability.NewWarmupTracker(),
		exhaust:        stability.NewTuner(cfg.Exhaustion.TunerWindow, cfg.Exhaustion.TunerWarmupN, cfg.Exhaustion.TunerK, cfg.Exhaustion.TunerMinFloor, cfg.Exhaustion.TunerHardCeiling),
		health:         stability.NewHealthReport(0.2, 0.1),
		log:            xlog.New("module", "engine"),
		metrics:        metrics.NewRegistry(),
		observeLimiter: rate.NewLimiter(rate.Limit(defaultObserveRate), defaultObserveBurst),
	}
	e.gc = gc.New(decay, e.cortex)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// unpackPersonality converts the packed -1/0/1 config values into a
// trit.Octet, the cortex's native personality representation.
func unpackPersonality(raw [8]int8) trit.Octet {
	var o trit.Octet
	for i, v := range raw {
		o[i] = trit.FromInt(int(v))
	}
	return o
}

// Bootstrap resurrects from the newest snapshot if a store is
// attached and one exists; otherwise it ensures the reserved system
// lineages from genesis. Either way it applies the stability layer's
// recovery classification and marks the tracker Ready.
func (e *Engine) Bootstrap(marker *stability.ShutdownMarker, now time.Time, nowNs int64) stability.Classification {
	class := stability.Analyze(marker, now)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store != nil {
		e.warmup.BeginResurrect()
		if restored, err := e.store.Resurrect(); err == nil {
			e.psyche, e.strata, e.bonds = restored.Psyche, restored.Strata, restored.Bonds
			if restored.Cortex != nil {
				e.cortex = restored.Cortex
				e.gc = gc.New(e.decay, e.cortex)
			}
			e.bonds.SetMaxLineages(e.psyche.Cap())
			e.rebuildKeyMap()
		}
	}
	e.system = system.Ensure(e.psyche)
	system.ApplyRecovery(e.psyche, e.decay, e.system, class, nowNs)
	if e.store != nil {
		for _, key := range []string{system.KeyHealth, system.KeyState, system.KeyResistance, system.KeyShock, system.KeyComa, system.KeyInstability} {
			hash := common.KeyHash64(key)
			if id, ok := e.psyche.Lookup(hash); ok {
				if err := e.store.KeyIndex().Insert(hash, id); err != nil {
					e.log.Warn("key index insert failed", "key", key, "err", err)
				}
			}
		}
	}
	e.warmup.Complete()
	e.log.Info("bootstrap complete", "classification", class.String())
	return class
}

// rebuildKeyMap restores the fresh PsycheArena's in-memory hash64 ->
// id key map from the durable KeyIndex, since a snapshot's encoded
// psyche section carries no key information of its own (see
// persistence.Resurrect). Must be called with e.mu held.
func (e *Engine) rebuildKeyMap() {
	e.store.KeyIndex().ForEach(func(hash64 uint64, id common.LineageId) {
		if _, ok := e.psyche.Get(id); ok {
			e.psyche.RestoreKey(hash64, id)
		}
	})
}

// Resurrect reloads the newest snapshot into the running engine without
// restarting the process, for operator-triggered recovery (e.g. the
// mfcli `resurrect` verb). It takes the same exclusive guard Bootstrap
// does but skips the stability classification pass, since the engine
// is already past warmup.
func (e *Engine) Resurrect() error {
	if e.store == nil {
		return common.ErrStorage
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	restored, err := e.store.Resurrect()
	if err != nil {
		return err
	}
	e.psyche, e.strata, e.bonds = restored.Psyche, restored.Strata, restored.Bonds
	if restored.Cortex != nil {
		e.cortex = restored.Cortex
		e.gc = gc.New(e.decay, e.cortex)
	}
	e.bonds.SetMaxLineages(e.psyche.Cap())
	e.rebuildKeyMap()
	e.system = system.Ensure(e.psyche)
	e.log.Info("resurrect complete")
	return nil
}

// SetMood overrides the cortex's mood directly (exclusive guard), for
// operator-driven mood steering (e.g. the mfcli `mood` verb) rather
// than the gradual ShiftMood path driven by the decay/GC cycle.
func (e *Engine) SetMood(v float64) error {
	if err := common.ValidateUnit(v); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cortex.SetMood(v)
	return nil
}

// IsReady reports whether request handling may proceed.
func (e *Engine) IsReady() bool { return e.warmup.IsReady() }

func (e *Engine) exhaustionLevel() stability.Level {
	th := e.exhaust.Thresholds()
	l, ok := e.psyche.Get(e.system.Health)
	if !ok {
		return stability.LevelNormal
	}
	return stability.Classify(float64(l.Energy), th)
}

// Create allocates a new lineage, keyed by name if non-empty, subject
// to the exhaustion write gate. A non-empty key is also recorded in
// the durable KeyIndex (when a store is attached), from which
// Bootstrap and Resurrect rebuild the arena's key map.
func (e *Engine) Create(key string, seed arena.Lineage) (common.LineageId, error) {
	if err := validateLineageSeed(seed); err != nil {
		return common.NullLineage, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.exhaustionLevel().WritesAllowed() {
		return common.NullLineage, common.ErrSaturated
	}
	if key == "" {
		return e.psyche.Alloc(seed), nil
	}
	hash := common.KeyHash64(key)
	if _, exists := e.psyche.Lookup(hash); exists {
		return common.NullLineage, common.Exists(common.KindLineage, key)
	}
	id := e.psyche.AllocWithKey(hash, seed)
	if e.store != nil {
		if err := e.store.KeyIndex().Insert(hash, id); err != nil {
			e.log.Warn("key index insert failed", "key", key, "err", err)
		}
	}
	return id, nil
}

// validateLineageSeed rejects a seed carrying a NaN or infinite
// energy-like field, per spec.md §7's error taxonomy (malformed input
// is rejected outright, never silently clamped).
func validateLineageSeed(l arena.Lineage) error {
	for _, v := range [...]float32{l.Energy, l.Threshold, l.DecayRate, l.Rigidity} {
		if err := common.ValidateUnit(float64(v)); err != nil {
			return err
		}
	}
	return nil
}

// Observe reads observable energy without stimulating (shared guard,
// no observer effect).
func (e *Engine) Observe(id common.LineageId, nowNs int64) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.psyche.Get(id)
	if !ok {
		return 0, common.NotFound(common.KindLineage, "")
	}
	return e.decay.ObservableEnergy(l, nowNs, false), nil
}

// ObserveWithEffect reads observable energy and applies the default
// stimulate-on-read delta (exclusive guard, per spec.md §5), unless
// the observe-rate budget is exhausted, in which case it degrades to
// a plain read rather than rejecting the caller.
func (e *Engine) ObserveWithEffect(id common.LineageId, nowNs int64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.psyche.Get(id)
	if !ok {
		return 0, common.NotFound(common.KindLineage, "")
	}
	if !e.observeLimiter.Allow() {
		return e.decay.ObservableEnergy(l, nowNs, false), nil
	}
	return e.decay.Stimulate(l, defaultStimulateDelta, nowNs), nil
}

// Stimulate applies delta to id's energy.
func (e *Engine) Stimulate(id common.LineageId, delta float64, nowNs int64) (float64, error) {
	if err := common.ValidateUnit(delta); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.exhaustionLevel().WritesAllowed() {
		return 0, common.ErrSaturated
	}
	l, ok := e.psyche.Get(id)
	if !ok {
		return 0, common.NotFound(common.KindLineage, "")
	}
	return e.decay.Stimulate(l, delta, nowNs), nil
}

// Forget frees a lineage.
func (e *Engine) Forget(id common.LineageId) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.psyche.Free(id) {
		return common.NotFound(common.KindLineage, "")
	}
	return nil
}

// Connect creates a bond between two existing, distinct lineages.
func (e *Engine) Connect(b graph.Bond) (common.BondId, error) {
	for _, v := range [...]float32{b.Strength, b.Cost, b.DecayRate} {
		if err := common.ValidateUnit(float64(v)); err != nil {
			return common.NullBond, err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.exhaustionLevel().WritesAllowed() {
		return common.NullBond, common.ErrSaturated
	}
	if b.Source.IsNull() || b.Target.IsNull() {
		return common.NullBond, common.ErrInvalidEndpoint
	}
	if _, ok := e.psyche.Get(b.Source); !ok {
		return common.NullBond, common.ErrInvalidEndpoint
	}
	if _, ok := e.psyche.Get(b.Target); !ok {
		return common.NullBond, common.ErrInvalidEndpoint
	}
	id, ok := e.bonds.Connect(b)
	if !ok {
		return common.NullBond, common.ErrInvalidEndpoint
	}
	return id, nil
}

// Sever disconnects a bond.
func (e *Engine) Sever(id common.BondId) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.bonds.Disconnect(id) {
		return common.NotFound(common.KindBond, "")
	}
	return nil
}

// Propagate stimulates source's neighbors through the bond graph.
func (e *Engine) Propagate(source common.LineageId, inputEnergy float64, nowNs int64) (int, error) {
	if err := common.ValidateUnit(inputEnergy); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.exhaustionLevel().WritesAllowed() {
		return 0, common.ErrSaturated
	}
	if _, ok := e.psyche.Get(source); !ok {
		return 0, common.NotFound(common.KindLineage, "")
	}
	return e.synapse.Propagate(e.psyche, e.bonds, source, inputEnergy, nowNs), nil
}

// Tick runs one decay scan followed by one GC pass, the periodic
// maintenance cycle spec.md describes as two ordered write operations.
func (e *Engine) Tick(nowNs int64) (dynamics.TickResult, gc.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tick := e.decay.TickPsyche(e.psyche, nowNs)
	result := e.gc.Pass(e.psyche, nowNs)
	e.health.Observe(result.Retained, result.Processed)
	if healthLineage, ok := e.psyche.Get(e.system.Health); ok {
		e.exhaust.Observe(float64(healthLineage.Energy))
	}
	system.DecayResistance(e.psyche, e.system.Resistance, nowNs)
	e.metrics.Meter("gc.pruned").Mark(int64(result.Pruned))
	e.metrics.Gauge("psyche.len").Update(int64(e.psyche.Len()))
	return tick, result
}

// Snapshot persists the current state, requiring a store to have been
// attached via WithStore.
func (e *Engine) Snapshot(nowNs int64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return 0, common.ErrStorage
	}
	return e.store.Save(nowNs, e.psyche, e.strata, e.bonds, e.cortex)
}

// Inspect returns a copy of a lineage's raw record for debug tooling
// (e.g. the mfcli `dump` verb), bypassing the decay/observer-effect
// machinery entirely.
func (e *Engine) Inspect(id common.LineageId) (arena.Lineage, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.psyche.Get(id)
	if !ok {
		return arena.Lineage{}, false
	}
	return *l, true
}

// Metrics exposes the registry for host-level reporting (e.g. the
// mfcli `stats` verb).
func (e *Engine) Metrics() *metrics.Registry { return e.metrics }

// Health returns the rolling GC health report.
func (e *Engine) Health() *stability.HealthReport { return e.health }
