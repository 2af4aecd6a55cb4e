// Copyright 2024 The mindfry Authors
// This file is part of the mindfry library.
//
// The mindfry library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command mfcli is an interactive shell over an in-process engine.Engine.
// It is a local operator console, not a network server: grounded on
// the teacher's cmd/geth console idiom (urfave/cli.v1 flags plus a
// peterh/liner-driven REPL) — the concrete console.go file wasn't in
// the retrieval pack, but urfave/cli.v1, peterh/liner and
// olekukonko/tablewriter are all direct teacher dependencies used for
// exactly this purpose.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/laphilosophia/mindfry/arena"
	"github.com/laphilosophia/mindfry/common"
	"github.com/laphilosophia/mindfry/config"
	"github.com/laphilosophia/mindfry/engine"
	"github.com/laphilosophia/mindfry/graph"
	"github.com/laphilosophia/mindfry/persistence"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"
	cli "gopkg.in/urfave/cli.v1"
)

func main() {
	app := cli.NewApp()
	app.Name = "mfcli"
	app.Usage = "interactive console over a mindfry engine"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a TOML config file"},
		cli.StringFlag{Name: "datadir", Usage: "snapshot storage directory (leveldb)"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg := config.Default()
	if path := ctx.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
	}

	var opts []engine.Option
	if dir := ctx.String("datadir"); dir != "" {
		store, err := persistence.Open(dir, 16)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, engine.WithStore(store))
	}
	e := engine.New(cfg, opts...)
	class := e.Bootstrap(nil, time.Now(), time.Now().UnixNano())
	fmt.Printf("bootstrap classification: %s\n", class)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	shell := &shell{engine: e, line: line}
	shell.loop()
	return nil
}

type shell struct {
	engine *engine.Engine
	line   *liner.State
	names  map[string]common.LineageId
}

func (s *shell) loop() {
	if s.names == nil {
		s.names = make(map[string]common.LineageId)
	}
	for {
		input, err := s.line.Prompt("mindfry> ")
		if err != nil {
			return
		}
		s.line.AppendHistory(input)
		if err := s.dispatch(strings.TrimSpace(input)); err != nil {
			if err == errQuit {
				return
			}
			fmt.Println("error:", err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func (s *shell) dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	verb, args := fields[0], fields[1:]
	now := time.Now().UnixNano()

	switch verb {
	case "quit", "exit":
		return errQuit
	case "create":
		return s.cmdCreate(args)
	case "stimulate":
		return s.cmdStimulate(args, now)
	case "observe":
		return s.cmdObserve(args, now)
	case "connect":
		return s.cmdConnect(args)
	case "sever":
		return s.cmdSever(args)
	case "forget":
		return s.cmdForget(args)
	case "tick":
		tick, gcResult := s.engine.Tick(now)
		fmt.Printf("decay: scanned=%d  gc: processed=%d retained=%d pending=%d pruned=%d\n",
			tick.Scanned, gcResult.Processed, gcResult.Retained, gcResult.Pending, gcResult.Pruned)
		return nil
	case "snapshot":
		id, err := s.engine.Snapshot(now)
		if err != nil {
			return err
		}
		fmt.Printf("saved snapshot #%d\n", id)
		return nil
	case "stats":
		s.cmdStats()
		return nil
	case "dump":
		return s.cmdDump(args)
	case "mood":
		return s.cmdMood(args)
	case "resurrect":
		return s.cmdResurrect()
	default:
		return fmt.Errorf("unknown verb %q", verb)
	}
}

func (s *shell) cmdCreate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: create <name> [energy]")
	}
	energy := 0.5
	if len(args) > 1 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}
		energy = v
	}
	id, err := s.engine.Create(args[0], arena.Lineage{Energy: float32(energy), Threshold: 0.5, DecayRate: 0.01})
	if err != nil {
		return err
	}
	s.names[args[0]] = id
	fmt.Printf("created %s -> id %d\n", args[0], id)
	return nil
}

func (s *shell) resolve(token string) (common.LineageId, error) {
	if id, ok := s.names[token]; ok {
		return id, nil
	}
	n, err := strconv.ParseUint(token, 10, 32)
	if err != nil {
		return common.NullLineage, fmt.Errorf("unknown lineage %q", token)
	}
	return common.LineageId(n), nil
}

func (s *shell) cmdStimulate(args []string, now int64) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: stimulate <name> <delta>")
	}
	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return err
	}
	after, err := s.engine.Stimulate(id, delta, now)
	if err != nil {
		return err
	}
	fmt.Printf("%s energy -> %.4f\n", args[0], after)
	return nil
}

func (s *shell) cmdObserve(args []string, now int64) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: observe <name>")
	}
	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	energy, err := s.engine.Observe(id, now)
	if err != nil {
		return err
	}
	fmt.Printf("%s observable energy: %.4f\n", args[0], energy)
	return nil
}

func (s *shell) cmdConnect(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: connect <a> <b> [strength] [polarity:-1|0|1]")
	}
	a, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	b, err := s.resolve(args[1])
	if err != nil {
		return err
	}
	strength := 0.5
	if len(args) > 2 {
		v, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return err
		}
		strength = v
	}
	polarity := graph.PolarityExcite
	if len(args) > 3 {
		v, err := strconv.Atoi(args[3])
		if err != nil {
			return err
		}
		polarity = graph.Polarity(v)
	}
	bond := graph.Bond{
		Source:   a,
		Target:   b,
		Strength: float32(strength),
		Flags:    graph.FlagActive,
		Polarity: polarity,
	}
	id, err := s.engine.Connect(bond)
	if err != nil {
		return err
	}
	fmt.Printf("bond #%d created\n", id)
	return nil
}

func (s *shell) cmdSever(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sever <bond-id>")
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return err
	}
	return s.engine.Sever(common.BondId(n))
}

func (s *shell) cmdForget(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: forget <name>")
	}
	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if err := s.engine.Forget(id); err != nil {
		return err
	}
	delete(s.names, args[0])
	return nil
}

func (s *shell) cmdDump(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dump <name>")
	}
	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	l, ok := s.engine.Inspect(id)
	if !ok {
		return fmt.Errorf("unknown lineage %q", args[0])
	}
	fmt.Println(spew.Sdump(l))
	return nil
}

func (s *shell) cmdMood(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: mood <value in [-1, 1]>")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return err
	}
	if err := s.engine.SetMood(v); err != nil {
		return err
	}
	fmt.Printf("mood -> %.4f\n", v)
	return nil
}

func (s *shell) cmdResurrect() error {
	if err := s.engine.Resurrect(); err != nil {
		return err
	}
	fmt.Println("resurrect complete")
	return nil
}

func (s *shell) cmdStats() {
	snap := s.engine.Metrics().Snapshot()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"metric", "value"})
	for k, v := range snap {
		table.Append([]string{k, strconv.FormatInt(v, 10)})
	}
	table.Render()

	fmt.Printf("gc health ratio: %.3f (%s)\n", s.engine.Health().Ratio(), s.engine.Health().Status())
}
