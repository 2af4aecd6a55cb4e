// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package dynamics implements lazy exponential decay with its
// precomputed lookup-table fast path, and damped polarity-weighted
// synapse propagation. Grounded on original_source/dynamics/decay.rs
// and dynamics/synapse.rs, and benches/decay.rs (the batch entry
// point this package keeps as a first-class export, see DecayEngine.BatchDecayFactors).
package dynamics

import "math"

const (
	// DefaultRateBuckets (R) and DefaultTimeBuckets (T) size the LUT grid.
	DefaultRateBuckets = 256
	DefaultTimeBuckets = 32

	// OneYearSeconds caps the time-bucket partition.
	OneYearSeconds = 365.25 * 24 * 3600
	// smallestTimeBoundary is the first non-zero time boundary.
	smallestTimeBoundary = 0.1
)

// DecayLUT is a read-only, precomputed grid of exp(-rate*t) values
// indexed by (rate bucket, time bucket). It is safe to share across
// goroutines without synchronization once built: construction happens
// once, and Lookup never mutates.
type DecayLUT struct {
	rateBuckets int
	timeBuckets int
	rates       []float64 // rateBuckets entries: the representative rate of each bucket
	times       []float64 // timeBuckets entries: the boundary (seconds) of each bucket
	data        []float64 // rateBuckets*timeBuckets
}

// NewDecayLUT builds the table with R rate buckets and T time buckets.
// Bucket 0 always maps to rate 0 (decay factor 1 regardless of
// elapsed time). Buckets 1..R-1 are geometric over three decades,
// 1e-6 up to 1e-3: rate = 10^((b/(R-1))*3 - 6); rates above 1e-3 use
// the top bucket. Time buckets are a fixed logarithmic
// partition from 0 through OneYearSeconds; boundary 0 is always first.
func NewDecayLUT(rateBuckets, timeBuckets int) *DecayLUT {
	if rateBuckets < 2 {
		rateBuckets = 2
	}
	if timeBuckets < 2 {
		timeBuckets = 2
	}
	lut := &DecayLUT{
		rateBuckets: rateBuckets,
		timeBuckets: timeBuckets,
		rates:       make([]float64, rateBuckets),
		times:       make([]float64, timeBuckets),
		data:        make([]float64, rateBuckets*timeBuckets),
	}
	for b := 0; b < rateBuckets; b++ {
		if b == 0 {
			lut.rates[b] = 0
			continue
		}
		exponent := (float64(b)/float64(rateBuckets-1))*3 - 6
		lut.rates[b] = math.Pow(10, exponent)
	}
	lut.times[0] = 0
	if timeBuckets > 1 {
		logMin := math.Log10(smallestTimeBoundary)
		logMax := math.Log10(OneYearSeconds)
		for i := 1; i < timeBuckets; i++ {
			frac := float64(i-1) / float64(timeBuckets-2)
			if timeBuckets == 2 {
				frac = 1
			}
			lut.times[i] = math.Pow(10, logMin+frac*(logMax-logMin))
		}
	}
	for rb := 0; rb < rateBuckets; rb++ {
		for tb := 0; tb < timeBuckets; tb++ {
			lut.data[rb*timeBuckets+tb] = math.Exp(-lut.rates[rb] * lut.times[tb])
		}
	}
	return lut
}

// rateBucketFor maps a decay rate to its bucket index.
func (l *DecayLUT) rateBucketFor(rate float64) int {
	if rate <= 0 {
		return 0
	}
	exponent := math.Log10(rate)
	frac := (exponent + 6) / 3
	b := int(math.Round(frac * float64(l.rateBuckets-1)))
	if b < 1 {
		b = 1
	}
	if b > l.rateBuckets-1 {
		b = l.rateBuckets - 1
	}
	return b
}

// timeBucketFor returns the index of the largest boundary <= elapsed.
// Negative elapsed is clamped to 0; elapsed beyond the largest
// boundary returns the last bucket.
func (l *DecayLUT) timeBucketFor(elapsed float64) int {
	if elapsed < 0 {
		elapsed = 0
	}
	// times is sorted ascending; find the last index whose boundary <= elapsed.
	idx := 0
	for i, boundary := range l.times {
		if boundary <= elapsed {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// Lookup returns the precomputed decay factor for the given rate and
// elapsed seconds.
func (l *DecayLUT) Lookup(rate, elapsed float64) float64 {
	rb := l.rateBucketFor(rate)
	tb := l.timeBucketFor(elapsed)
	return l.data[rb*l.timeBuckets+tb]
}
