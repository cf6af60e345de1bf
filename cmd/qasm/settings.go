package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"qasm3/internal/config"
)

// settings is qasm.toml with the command line applied on top.
type settings struct {
	cfg     config.Config
	color   bool
	timings bool
}

// loadSettings reads --config, or the nearest qasm.toml, and overrides it
// with every persistent flag the user set explicitly.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	if flags.Changed("max-diagnostics") {
		if cfg.Diagnostics.Max, err = flags.GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"trace", &cfg.Trace.Output},
		{"trace-level", &cfg.Trace.Level},
		{"trace-mode", &cfg.Trace.Mode},
	}
	for _, o := range overrides {
		if !flags.Changed(o.flag) {
			continue
		}
		if *o.dst, err = flags.GetString(o.flag); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
	}
	// a trace file without a level would record nothing
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
		if !flags.Changed("trace-mode") {
			cfg.Trace.Mode = "stream"
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &settings{cfg: cfg}
	colorMode, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(colorMode) {
	case "on":
		s.color = true
	case "off":
		s.color = false
	case "auto", "":
		s.color = isTerminal(os.Stdout)
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorMode)
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return s, nil
}
