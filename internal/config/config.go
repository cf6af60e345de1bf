// Package config loads qasm.toml, the per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"qasm3/internal/trace"
)

// FileName is the name searched for by Find.
const FileName = "qasm.toml"

type Diagnostics struct {
	Max              int    `toml:"max"`
	WarningsAsErrors bool   `toml:"warnings_as_errors"`
	Format           string `toml:"format"`
}

type Semantics struct {
	// AngleArithmetic is "closed" (angle op scalar yields double) or "open".
	AngleArithmetic string `toml:"angle_arithmetic"`
}

type Trace struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

type Check struct {
	// Jobs bounds parallel units; 0 means one per CPU.
	Jobs int `toml:"jobs"`
}

// Config is the decoded qasm.toml. Path is empty for the defaults.
type Config struct {
	Path        string      `toml:"-"`
	Diagnostics Diagnostics `toml:"diagnostics"`
	Semantics   Semantics   `toml:"semantics"`
	Trace       Trace       `toml:"trace"`
	Check       Check       `toml:"check"`
}

// Default returns the settings used when no qasm.toml exists.
func Default() Config {
	return Config{
		Diagnostics: Diagnostics{Max: 100, Format: "pretty"},
		Semantics:   Semantics{AngleArithmetic: "closed"},
		Trace:       Trace{Level: "off", Mode: "ring"},
	}
}

// OpenAngles reports whether angle arithmetic stays in the angle domain.
func (c *Config) OpenAngles() bool {
	return c.Semantics.AngleArithmetic == "open"
}

// Find walks up from startDir to locate qasm.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes the file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest qasm.toml above startDir, or the defaults.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.Diagnostics.Format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("[diagnostics].format must be pretty, short or json, got %q", c.Diagnostics.Format)
	}
	if c.Diagnostics.Max < 0 {
		return fmt.Errorf("[diagnostics].max must not be negative")
	}
	switch c.Semantics.AngleArithmetic {
	case "closed", "open":
	default:
		return fmt.Errorf("[semantics].angle_arithmetic must be closed or open, got %q", c.Semantics.AngleArithmetic)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	if c.Check.Jobs < 0 {
		return fmt.Errorf("[check].jobs must not be negative")
	}
	return nil
}

// TraceConfig converts the [trace] table for trace.New.
func (c *Config) TraceConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{Level: level, Mode: mode, Format: trace.FormatAuto, OutputPath: c.Trace.Output}, nil
}
