// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package cortex implements the ternary brain: an immutable
// personality octet, a mutable mood, a mood-biased quantizer, and the
// retention buffer that grants lineages a TTL reprieve before
// deletion. Grounded on spec.md §4.G and the Rust original's
// personality+mood+quantizer triple (original_source has no standalone
// cortex.rs; the brain is distributed across dynamics/decay.rs's
// callers per the Rust src/lib.rs, which this package consolidates).
package cortex

import (
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/trit"
)

// Cortex is the personality+mood+quantizer+retention-buffer brain
// that makes GC verdicts.
type Cortex struct {
	Personality trit.Octet // immutable once constructed
	mood        float64
	Quantizer   trit.Quantizer
	Retention   *RetentionBuffer
}

// New builds a Cortex with the given personality and base threshold,
// starting at neutral mood.
func New(personality trit.Octet, baseThreshold float64, defaultTTL uint8) *Cortex {
	return &Cortex{
		Personality: personality,
		Quantizer:   trit.NewQuantizer(baseThreshold),
		Retention:   NewRetentionBuffer(defaultTTL),
	}
}

// Mood returns the current mood, in [-1, 1].
func (c *Cortex) Mood() float64 { return c.mood }

// SetMood overrides mood directly (external override), clamping to [-1,1].
func (c *Cortex) SetMood(v float64) { c.mood = common.ClampSigned(v) }

// ShiftMood adds delta to mood, clamping to [-1,1].
func (c *Cortex) ShiftMood(delta float64) { c.mood = common.ClampSigned(c.mood + delta) }

// Evaluate returns the resonance of the personality against an event octet.
func (c *Cortex) Evaluate(event trit.Octet) float64 {
	return c.Personality.Resonance(event)
}

// Decide quantizes v with the current mood.
func (c *Cortex) Decide(v float64) trit.Trit {
	return c.Quantizer.Quantize(v, c.mood)
}

// ConsciousnessState computes delta = energy - threshold, a mood-biased
// gain in [2.5, 7.5], and quantizes delta*gain with mood. +1 is Lucid
// (wakeful), 0 is Dreaming (liminal), -1 is Dormant.
func (c *Cortex) ConsciousnessState(energy, threshold float64) trit.Trit {
	delta := energy - threshold
	gain := 5.0 * (1 + 0.5*c.mood)
	return c.Quantizer.Quantize(delta*gain, c.mood)
}
