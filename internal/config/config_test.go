package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qasm3/internal/trace"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "[diagnostics]\nmax = 7\nformat = \"json\"\n\n[semantics]\nangle_arithmetic = \"open\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Path != path {
		t.Fatalf("found %q, want %q", cfg.Path, path)
	}
	if cfg.Diagnostics.Max != 7 || cfg.Diagnostics.Format != "json" || !cfg.OpenAngles() {
		t.Fatalf("unexpected config %+v", cfg)
	}
	// unset keys keep their defaults
	if cfg.Trace.Mode != "ring" {
		t.Fatalf("trace mode default lost: %q", cfg.Trace.Mode)
	}
}

func TestDiscoverWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Path != "" && !strings.HasSuffix(cfg.Path, FileName) {
		t.Fatalf("unexpected path %q", cfg.Path)
	}
	def := Default()
	if cfg.Path == "" && (cfg.Diagnostics != def.Diagnostics || cfg.OpenAngles()) {
		t.Fatalf("defaults differ: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"format", "[diagnostics]\nformat = \"xml\"\n", "[diagnostics].format"},
		{"angles", "[semantics]\nangle_arithmetic = \"wide\"\n", "[semantics].angle_arithmetic"},
		{"level", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"unknown key", "[diagnostics]\ncolour = true\n", "unknown keys"},
		{"syntax", "[diagnostics\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTraceConfig(t *testing.T) {
	cfg := Default()
	cfg.Trace = Trace{Level: "phase", Mode: "stream", Output: "trace.ndjson"}
	tc, err := cfg.TraceConfig()
	if err != nil {
		t.Fatalf("TraceConfig: %v", err)
	}
	if tc.Level != trace.LevelPhase || tc.Mode != trace.ModeStream || tc.OutputPath != "trace.ndjson" {
		t.Fatalf("unexpected trace config %+v", tc)
	}
}
