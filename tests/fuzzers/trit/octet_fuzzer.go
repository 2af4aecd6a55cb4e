// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package trit holds a go-fuzz entry point for the Octet wire format,
// grounded on tests/fuzzers/transactions/tx_fuzzer.go's layout.
package trit

import "github.com/laphilosophia/mindfry/trit"

// Fuzz exercises the Octet pack/unpack round trip over arbitrary
// 16-bit inputs, including the unused per-dimension bit pattern (10)
// that must decode to Unknown.
func Fuzz(data []byte) int {
	if len(data) < 2 {
		return 0
	}
	bits := uint16(data[0]) | uint16(data[1])<<8
	o := trit.UnpackOctet(bits)
	if trit.UnpackOctet(o.Pack()) != o {
		panic("octet pack/unpack not idempotent after first decode")
	}
	return 1
}
