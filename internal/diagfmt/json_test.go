package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"qasm3/internal/diag"
	"qasm3/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.qasm", []byte("qubit q;\nint x = y;\n"))
	d := diag.NewError(diag.SemaUndeclaredIdentifier, source.Span{File: id, Start: 17, End: 18}, "undeclared identifier 'y'").
		WithNote(source.Span{File: id, Start: 0, End: 5}, "note")

	var buf bytes.Buffer
	if err := JSON(&buf, singleBag(d), fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("unexpected count %+v", out)
	}
	got := out.Diagnostics[0]
	if got.Severity != "ERROR" || got.Code != "SEM3001" || got.Message != "undeclared identifier 'y'" {
		t.Fatalf("unexpected diagnostic %+v", got)
	}
	want := LocationJSON{File: "test.qasm", StartByte: 17, EndByte: 18, StartLine: 2, StartCol: 9, EndLine: 2, EndCol: 10}
	if got.Location != want {
		t.Fatalf("location = %+v, want %+v", got.Location, want)
	}
	if len(got.Notes) != 1 || got.Notes[0].Location.StartLine != 1 {
		t.Fatalf("notes = %+v", got.Notes)
	}
}

func TestJSONOmitsPositionsAndNotesByDefault(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.qasm", []byte("x;\n"))
	d := diag.NewError(diag.SemaUndeclaredIdentifier, source.Span{File: id, Start: 0, End: 1}, "x").WithNote(source.NoSpan, "n")
	out := BuildDiagnosticsOutput(singleBag(d), fs, JSONOpts{})
	got := out.Diagnostics[0]
	if got.Location.StartLine != 0 || got.Notes != nil {
		t.Fatalf("unexpected extras %+v", got)
	}
}

func TestJSONKeepsTimingNotes(t *testing.T) {
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, "timings").WithNote(source.NoSpan, "{}")
	out := BuildDiagnosticsOutput(singleBag(d), nil, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 1 || out.Diagnostics[0].Location.File != "" {
		t.Fatalf("unexpected %+v", out.Diagnostics[0])
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	bag := diag.NewBag(0)
	for range 5 {
		bag.Add(diag.NewError(diag.SemaTypeMismatch, source.NoSpan, "m"))
	}
	out := BuildDiagnosticsOutput(bag, nil, JSONOpts{Max: 2})
	if out.Count != 2 || bag.Len() != 5 {
		t.Fatalf("count = %d, bag = %d", out.Count, bag.Len())
	}
}

func TestJSONFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.qasm", []byte("int a = 42\n"))
	d := diag.NewError(diag.SemaTypeMismatch, source.Span{File: id, Start: 0, End: 3}, "m").
		WithFix("insert semicolon", diag.FixEdit{Span: source.Span{File: id, Start: 10, End: 10}, NewText: ";"})
	out := BuildDiagnosticsOutput(singleBag(d), fs, JSONOpts{IncludeFixes: true, IncludePreviews: true})
	fixes := out.Diagnostics[0].Fixes
	if len(fixes) != 1 || len(fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", fixes)
	}
	edit := fixes[0].Edits[0]
	if edit.NewText != ";" || strings.Join(edit.AfterLines, "") != "int a = 42;" || strings.Join(edit.BeforeLines, "") != "int a = 42" {
		t.Fatalf("edit = %+v", edit)
	}
}

func TestReportTotals(t *testing.T) {
	var r ReportOutput
	bad := diag.NewBag(0)
	bad.Add(diag.NewError(diag.SemaTypeMismatch, source.NoSpan, "e"))
	bad.Add(diag.New(diag.SevWarning, diag.SemaShadowsGlobal, source.NoSpan, "w"))
	r.AddUnit("bad", "bad.json", bad, nil, JSONOpts{})
	r.AddUnit("ok", "ok.json", diag.NewBag(0), nil, JSONOpts{})

	var buf bytes.Buffer
	if err := Report(&buf, &r); err != nil {
		t.Fatalf("Report: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["errors"].(float64) != 1 || decoded["warnings"].(float64) != 1 {
		t.Fatalf("totals = %v", decoded)
	}
	units := decoded["units"].([]any)
	first := units[0].(map[string]any)
	if first["unit"] != "bad" || first["count"].(float64) != 2 {
		t.Fatalf("first unit = %v", first)
	}
}

func TestShort(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("s.qasm", []byte("int x;\nint x;\n"))
	bag := singleBag(diag.NewError(diag.SemaDuplicateSymbol, source.Span{File: id, Start: 11, End: 12}, "redeclaration of 'x'"))
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, false); err != nil {
		t.Fatalf("Short: %v", err)
	}
	if buf.String() != "s.qasm:2:5: ERROR SEM3002 redeclaration of 'x'\n" {
		t.Fatalf("got %q", buf.String())
	}
	buf.Reset()
	if err := Short(&buf, diag.NewBag(0), fs, false); err != nil || buf.Len() != 0 {
		t.Fatalf("empty bag wrote %q", buf.String())
	}
}
