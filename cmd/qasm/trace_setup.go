package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"qasm3/internal/trace"
)

// setupTracing builds the tracer described by s and stores it in the command
// context. The returned cleanup flushes the tracer; in ring mode it also
// dumps the buffered events, since nothing else would ever show them.
func setupTracing(cmd *cobra.Command, s *settings) (func(), error) {
	cfg, err := s.cfg.TraceConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid trace settings: %w", err)
	}
	if cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	cleanup := func() {
		if ring, ok := tracer.(*trace.RingTracer); ok {
			if err := dumpRing(ring, cfg); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

func dumpRing(ring *trace.RingTracer, cfg trace.Config) error {
	var w io.Writer = os.Stderr
	format := trace.FormatText
	if cfg.OutputPath != "" && cfg.OutputPath != "-" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
		if cfg.Format == trace.FormatNDJSON || strings.HasSuffix(cfg.OutputPath, ".ndjson") {
			format = trace.FormatNDJSON
		}
	}
	return ring.Dump(w, format)
}
