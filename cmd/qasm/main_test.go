package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"qasm3/internal/diagfmt"
	"qasm3/internal/export"
)

var units = filepath.Join("..", "..", "internal", "driver", "testdata", "units")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCastCommand(t *testing.T) {
	out, err := execute(t, "cast", "int", "float")
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if !strings.HasPrefix(out, "int -> float: ") || strings.Contains(out, "not allowed") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = execute(t, "cast", "duration", "int")
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if strings.TrimSpace(out) != "duration -> int: not allowed" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := execute(t, "cast", "nosuch", "int"); err == nil {
		t.Fatalf("unknown type accepted")
	}
}

func TestCastListsTargets(t *testing.T) {
	out, err := execute(t, "cast", "angle")
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(castTargets)-1 {
		t.Fatalf("got %d lines, want %d", len(lines), len(castTargets)-1)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload.Tool != "qasm" || payload.Language != languageVersion {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCheckJSONReport(t *testing.T) {
	out, err := execute(t, "check", "--ui", "off", "--format", "json",
		filepath.Join(units, "ok.json"), filepath.Join(units, "bad.json"))
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got %v", err)
	}
	var report diagfmt.ReportOutput
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(report.Units) != 2 || report.Errors == 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Units[0].Unit != "ok" || report.Units[0].Count != 0 {
		t.Fatalf("ok unit reported %+v", report.Units[0])
	}
}

func TestCheckCleanUnitPasses(t *testing.T) {
	out, err := execute(t, "check", "--ui", "off", "--format", "pretty", filepath.Join(units, "ok.json"))
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 unit(s) checked: 0 error(s), 0 warning(s)") {
		t.Fatalf("missing summary in %q", out)
	}
}

func TestMangleCommand(t *testing.T) {
	out, err := execute(t, "mangle", filepath.Join(units, "ok.json"))
	if err != nil {
		t.Fatalf("mangle: %v\n%s", err, out)
	}
	if !strings.Contains(out, "_Qqc2_1q_E") {
		t.Fatalf("mangled qubit register missing from %q", out)
	}
}

func TestExportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.msgpack")
	if out, err := execute(t, "export", "-o", path, filepath.Join(units, "ok.json")); err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	m, err := export.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	q, ok := m.Lookup("q")
	if !ok || q.Mangled != "_Qqc2_1q_E" {
		t.Fatalf("q = %+v, %v", q, ok)
	}

	if _, err := execute(t, "export", "-o", path, filepath.Join(units, "bad.json")); !errors.Is(err, errFailed) {
		t.Fatalf("broken unit exported: %v", err)
	}
}
