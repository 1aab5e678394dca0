// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command tracegen writes a synthetic Chrome Trace Event Format file,
// for exercising traceparse without needing a real captured trace.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/infra/tracing/fastparse/o11y/clog"
)

func main() {
	app := &subcommands.DefaultApplication{
		Name:  "trace_gen",
		Title: "generates a synthetic Chrome Trace Event Format file",
		Commands: []*subcommands.Command{
			genCmd(),
			subcommands.CmdHelp,
		},
	}
	os.Exit(subcommands.Run(app, os.Args[1:]))
}

func genCmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "trace_gen [--out=FILE] [--seed=INT] [--events=INT] [--array]",
		ShortDesc: "writes a synthetic trace to --out or stdout",
		LongDesc: "Generates --events synthetic TraceEvent records and writes them as\n" +
			"Chrome Trace Event Format JSON, object-wrapped by default or as a\n" +
			"bare array with --array, seeded deterministically by --seed.",
		CommandRun: func() subcommands.CommandRun {
			r := &genRun{}
			r.init()
			return r
		},
	}
}

type genRun struct {
	subcommands.CommandRunBase
	out    string
	seed   int64
	events int
	array  bool
}

func (r *genRun) init() {
	r.Flags.StringVar(&r.out, "out", "", "output path; stdout if empty")
	r.Flags.Int64Var(&r.seed, "seed", 1, "PRNG seed, for reproducible output")
	r.Flags.IntVar(&r.events, "events", 1000, "number of TraceEvent records to generate")
	r.Flags.BoolVar(&r.array, "array", false, "emit a bare top-level array instead of the object wrapper")
}

var syntheticNames = []string{"Compile", "Link", "Parse", "GC", "RunTask", "Dispatch", "Wait"}
var syntheticCats = []string{"toplevel", "disabled-by-default-v8", "blink", "cc", ""}
var syntheticPhases = []byte{'B', 'E', 'X', 'i', 'b', 'e'}

func (r *genRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := context.Background()
	ctx = clog.NewContext(ctx, clog.New(ctx))
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: unexpected positional arguments\n", a.GetName())
		return 1
	}

	out := os.Stdout
	if r.out != "" {
		f, err := os.Create(r.out)
		if err != nil {
			clog.Errorf(ctx, "trace_gen: %v", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	if err := writeSyntheticTrace(out, rand.New(rand.NewPCG(uint64(r.seed), uint64(r.seed)>>1|1)), r.events, r.array); err != nil {
		clog.Errorf(ctx, "trace_gen: %v", err)
		return 1
	}
	return 0
}

func writeSyntheticTrace(w *os.File, rng *rand.Rand, n int, array bool) error {
	if !array {
		if _, err := fmt.Fprint(w, `{"traceEvents":[`); err != nil {
			return err
		}
	} else if _, err := fmt.Fprint(w, "["); err != nil {
		return err
	}
	pid := uint32(1000 + rng.IntN(8))
	ts := uint64(0)
	for i := 0; i < n; i++ {
		if i > 0 {
			if _, err := fmt.Fprint(w, ","); err != nil {
				return err
			}
		}
		ts += uint64(rng.IntN(500) + 1)
		name := syntheticNames[rng.IntN(len(syntheticNames))]
		cat := syntheticCats[rng.IntN(len(syntheticCats))]
		ph := syntheticPhases[rng.IntN(len(syntheticPhases))]
		tid := uint32(1 + rng.IntN(4))
		_, err := fmt.Fprintf(w, `{"name":%q,"cat":%q,"ph":"%c","ts":%d,"pid":%d,"tid":%d}`,
			name, cat, ph, ts, pid, tid)
		if err != nil {
			return err
		}
	}
	if !array {
		_, err := fmt.Fprint(w, `],"metadata":{"generator":"trace_gen"}}`)
		return err
	}
	_, err := fmt.Fprint(w, "]")
	return err
}
