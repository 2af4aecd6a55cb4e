// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package config loads the engine's TOML configuration file (the
// knobs spec.md §6.5 lists) and optionally watches it for live
// reloads. Grounded on the shape of cmd/geth/config.go's
// naoina/toml-based loadConfig/defaultNodeConfig pair — that concrete
// file was not present in the retrieval pack, but naoina/toml is a
// direct teacher dependency (go.mod) used for exactly this purpose,
// and rjeczalik/notify likewise (the teacher's file-watch-triggered
// reload, e.g. of keystore directories).
package config

import (
	"os"

	"github.com/naoina/toml"
)

// Config is the full set of engine knobs, defaulted per spec.md §4 and
// overridable from a TOML file.
type Config struct {
	Sizes       Sizes
	Decay       Decay
	Synapse     Synapse
	Retention   Retention
	Quantizer   Quantizer
	Personality [8]int8 // trit.Octet's packed dimension values, -1/0/1
	Exhaustion  Exhaustion
}

// Sizes are the arena/graph capacity knobs.
type Sizes struct {
	MaxLineages int
	MaxBonds    int
	StrataDepth int
}

// Decay holds the decay engine's tick/threshold/parallelism knobs.
type Decay struct {
	TickIntervalMs     int64
	MinEnergyThreshold float64
	BondPruneThreshold float64
	Parallel           bool
}

// Synapse mirrors dynamics.SynapseConfig for TOML loading.
type Synapse struct {
	Resistance float64
	Cutoff     float64
	MaxDepth   int
}

// Retention holds the GC/TTL knob.
type Retention struct {
	DefaultTTL uint8
}

// Quantizer holds the cortex's base threshold knob.
type Quantizer struct {
	BaseThreshold float64
}

// Exhaustion holds the static thresholds plus the optional adaptive
// tuner's configuration.
type Exhaustion struct {
	Normal, Elevated, Exhausted float64
	TunerWindow                 int
	TunerWarmupN                int
	TunerK                      float64
	TunerMinFloor               float64
	TunerHardCeiling            float64
}

// Default returns the spec's documented defaults.
func Default() Config {
	return Config{
		Sizes: Sizes{MaxLineages: 1 << 16, MaxBonds: 1 << 18, StrataDepth: 16},
		Decay: Decay{
			TickIntervalMs:     1000,
			MinEnergyThreshold: 0.001,
			BondPruneThreshold: 0.01,
			Parallel:           true,
		},
		Synapse:   Synapse{Resistance: 0.5, Cutoff: 0.1, MaxDepth: 10},
		Retention: Retention{DefaultTTL: 3},
		Quantizer: Quantizer{BaseThreshold: 0.1},
		Exhaustion: Exhaustion{
			Normal: 0.7, Elevated: 0.4, Exhausted: 0.1,
			TunerWindow: 100, TunerWarmupN: 100, TunerK: 1.5,
			TunerMinFloor: 0.01, TunerHardCeiling: 0.9,
		},
	}
}

// Load reads a TOML file at path over top of Default(), so an absent
// or partial file still produces a fully populated Config.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
