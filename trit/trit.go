// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package trit implements the ternary primitives: Trit, Octet and the
// mood-biased Quantizer. Grounded on original_source/src/setun.rs (the
// balanced-ternary core of the Rust implementation this package is
// distilled from) and generalized to the full personality-octet and
// resonance machinery spec.md §3-§4.A describe.
package trit

// Trit is a three-valued atom: Inhibit (-1), Unknown (0), Excite (+1).
// All operations are total and constant-time.
type Trit int8

const (
	Inhibit Trit = -1
	Unknown Trit = 0
	Excite  Trit = 1
)

// Weight returns the signed integer value of the trit.
func (t Trit) Weight() int { return int(t) }

// Negate swaps Excite/Inhibit and fixes Unknown.
func (t Trit) Negate() Trit { return -t }

// Consensus is the ternary product used for trit agreement: integer
// multiplication over {-1,0,1}. It is commutative and associative, and
// Unknown (0) absorbs.
func Consensus(a, b Trit) Trit {
	return Trit(a.Weight() * b.Weight())
}

// FromInt clamps an arbitrary int into a valid Trit, mapping anything
// negative to Inhibit and anything positive to Excite.
func FromInt(v int) Trit {
	switch {
	case v < 0:
		return Inhibit
	case v > 0:
		return Excite
	default:
		return Unknown
	}
}

// Packed bit patterns: 00 = Unknown, 01 = Excite, 11 = Inhibit. The
// remaining pattern (10) decodes as Unknown, per spec.md §3.
const (
	bitsUnknown = 0b00
	bitsExcite  = 0b01
	bitsInhibit = 0b11
)

// Pack encodes the trit into its two-bit wire representation.
func (t Trit) Pack() uint8 {
	switch t {
	case Excite:
		return bitsExcite
	case Inhibit:
		return bitsInhibit
	default:
		return bitsUnknown
	}
}

// Unpack decodes a two-bit pattern into a Trit. The unused 10 pattern
// decodes as Unknown, matching the packing note in spec.md §3.
func Unpack(bits uint8) Trit {
	switch bits & 0b11 {
	case bitsExcite:
		return Excite
	case bitsInhibit:
		return Inhibit
	default:
		return Unknown
	}
}

func (t Trit) String() string {
	switch t {
	case Excite:
		return "excite"
	case Inhibit:
		return "inhibit"
	default:
		return "unknown"
	}
}
