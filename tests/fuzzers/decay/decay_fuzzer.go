// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package decay holds a go-fuzz entry point for the decay LUT,
// grounded on tests/fuzzers/trit/octet_fuzzer.go's layout.
package decay

import (
	"encoding/binary"
	"math"

	"github.com/laphilosophia/mindfry/dynamics"
)

var lut = dynamics.NewDecayLUT(64, 64)

// Fuzz exercises DecayLUT.Lookup over arbitrary (rate, elapsed) pairs,
// including negative and out-of-range inputs the clamp logic must
// handle without panicking, and checks the result always stays within
// the valid decay factor range [0, 1].
func Fuzz(data []byte) int {
	if len(data) < 16 {
		return 0
	}
	rate := math.Float64frombits(binary.BigEndian.Uint64(data[0:8]))
	elapsed := math.Float64frombits(binary.BigEndian.Uint64(data[8:16]))

	factor := lut.Lookup(rate, elapsed)
	if math.IsNaN(factor) || factor < 0 || factor > 1 {
		panic("decay factor escaped [0, 1]")
	}
	return 1
}
