// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package metrics is a small in-process Counter/Gauge/Meter registry
// in the go-ethereum metrics idiom (NewRegisteredCounter-style
// construction, a flat name->metric registry, read via Snapshot).
// Grounded on the shape of the teacher's metrics.Meter/metrics.Counter
// types referenced throughout core/rawdb (e.g. freezer_table.go's
// readMeter/writeMeter) — no external TSDB/exporter backend is wired,
// since nothing in the retrieval pack ships an actual metrics/
// implementation to adapt and SPEC_FULL.md's scope stops at an
// in-process counter surface for the engine's own use.
package metrics

import "sync/atomic"

// Counter is a monotonic (or not) int64 counter.
type Counter struct{ v int64 }

func (c *Counter) Inc(delta int64) { atomic.AddInt64(&c.v, delta) }
func (c *Counter) Count() int64    { return atomic.LoadInt64(&c.v) }

// Gauge holds the most recently set value.
type Gauge struct{ v int64 }

func (g *Gauge) Update(v int64) { atomic.StoreInt64(&g.v, v) }
func (g *Gauge) Value() int64   { return atomic.LoadInt64(&g.v) }

// Meter tracks a running count plus the count observed at the previous
// SinceLastSnapshot call, so callers can derive a rate over whatever interval they
// poll at (the registry does not assume a fixed sampling period).
type Meter struct {
	total int64
	prev  int64
}

// Mark records n events.
func (m *Meter) Mark(n int64) { atomic.AddInt64(&m.total, n) }

// Total returns the all-time count.
func (m *Meter) Total() int64 { return atomic.LoadInt64(&m.total) }

// SinceLastSnapshot returns events recorded since the previous
// SinceLastSnapshot call and resets the baseline.
func (m *Meter) SinceLastSnapshot() int64 {
	total := atomic.LoadInt64(&m.total)
	delta := total - m.prev
	m.prev = total
	return delta
}

// Registry is a flat name -> metric map. Not safe for concurrent
// registration (engine.Engine creates its metrics lazily, under its
// exclusive lock); reads via the metric handles themselves are safe
// for concurrent use.
type Registry struct {
	counters map[string]*Counter
	gauges   map[string]*Gauge
	meters   map[string]*Meter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		meters:   make(map[string]*Meter),
	}
}

// Counter returns the named counter, creating it if absent.
func (r *Registry) Counter(name string) *Counter {
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{}
	r.counters[name] = c
	return c
}

// Gauge returns the named gauge, creating it if absent.
func (r *Registry) Gauge(name string) *Gauge {
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{}
	r.gauges[name] = g
	return g
}

// Meter returns the named meter, creating it if absent.
func (r *Registry) Meter(name string) *Meter {
	if m, ok := r.meters[name]; ok {
		return m
	}
	m := &Meter{}
	r.meters[name] = m
	return m
}

// Snapshot captures every metric's current value by name, for a
// one-shot dump (e.g. the mfcli `stats` verb).
func (r *Registry) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(r.counters)+len(r.gauges)+len(r.meters))
	for name, c := range r.counters {
		out[name] = c.Count()
	}
	for name, g := range r.gauges {
		out[name] = g.Value()
	}
	for name, m := range r.meters {
		out[name] = m.Total()
	}
	return out
}
