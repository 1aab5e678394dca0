// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command parserbench measures the streaming throughput of the trace
// parser against a file on disk, optionally zstd-compressed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/maruel/subcommands"

	"go.chromium.org/infra/tracing/fastparse/arena"
	"go.chromium.org/infra/tracing/fastparse/o11y/clog"
	"go.chromium.org/infra/tracing/fastparse/o11y/tracemetrics"
	"go.chromium.org/infra/tracing/fastparse/trace"
	"go.chromium.org/infra/tracing/fastparse/traceparse"
	"go.chromium.org/infra/tracing/fastparse/ui"
)

func main() {
	app := &subcommands.DefaultApplication{
		Name:  "parser_bench",
		Title: "measures throughput of the streaming trace parser",
		Commands: []*subcommands.Command{
			benchCmd(),
			subcommands.CmdHelp,
		},
	}
	os.Exit(subcommands.Run(app, os.Args[1:]))
}

func benchCmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "parser_bench [--chunk=BYTES] FILE",
		ShortDesc: "parses FILE and reports throughput",
		LongDesc: "Feeds FILE through traceparse.Parser in --chunk-sized pieces, printing\n" +
			"the event count and MB/s once parsing completes. FILE may end in .zst\n" +
			"for a zstd-compressed trace.",
		CommandRun: func() subcommands.CommandRun {
			r := &benchRun{}
			r.init()
			return r
		},
	}
}

type benchRun struct {
	subcommands.CommandRunBase
	chunk int
}

func (r *benchRun) init() {
	r.Flags.IntVar(&r.chunk, "chunk", 64*1024, "chunk size in bytes fed to Parser.Parse per call")
}

func (r *benchRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := context.Background()
	ctx = clog.NewContext(ctx, clog.New(ctx))
	if len(args) != 1 {
		fmt.Fprintf(a.GetErr(), "%s: want exactly one FILE argument\n", a.GetName())
		return 1
	}
	spin := ui.Default.NewSpinner()
	spin.Start("parsing %s", args[0])
	stats, err := runBench(ctx, args[0], r.chunk)
	if err != nil {
		spin.Stop(err)
		clog.Errorf(ctx, "parser_bench: %v", err)
		return 1
	}
	spin.Done("%d events, %.2fMB/s", stats.Events, stats.MBPerSecond())
	fmt.Fprintf(a.GetOut(), "chunks=%d bytes=%d events=%d skippedKeys=%d parseTime=%s throughput=%.2fMB/s\n",
		stats.Chunks, stats.Bytes, stats.Events, stats.SkippedKeys, stats.ParseTime, stats.MBPerSecond())
	return 0
}

func runBench(ctx context.Context, path string, chunkSize int) (tracemetrics.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return tracemetrics.Stats{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return tracemetrics.Stats{}, err
		}
		defer zr.Close()
		r = zr
	}

	metrics := tracemetrics.New(path)
	tr := trace.New()
	p := traceparse.NewParser(arena.New(), tr)
	p.SetMetrics(metrics)
	buf := make([]byte, chunkSize)

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			start := time.Now()
			res := p.Parse(buf[:n])
			metrics.ChunkDone(n, time.Since(start))
			if res == traceparse.Error {
				return metrics.Stats(), fmt.Errorf("parse error: %s", p.Err())
			}
			if res == traceparse.Done {
				break
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return metrics.Stats(), fmt.Errorf("unexpected EOF before the trace finished parsing")
			}
			return metrics.Stats(), readErr
		}
	}
	clog.Infof(ctx, "parsed %d events from %s", len(tr.Events), path)
	return metrics.Stats(), nil
}
