package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"qasm3/internal/diag"
	"qasm3/internal/source"
)

func render(t *testing.T, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) string {
	t.Helper()
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, opts)
	return buf.String()
}

func singleBag(d diag.Diagnostic) *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(d)
	return bag
}

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/home/user/project/src/test.qasm", []byte("int x = y;\n"))
	bag := singleBag(diag.NewError(diag.SemaUndeclaredIdentifier, source.Span{File: fileID, Start: 8, End: 9}, "undeclared identifier 'y'"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/src/test.qasm:1:9"},
		{"relative", PathModeRelative, "src/test.qasm:1:9"},
		{"basename", PathModeBasename, "test.qasm:1:9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode, BaseDir: "/home/user/project"})
			if !strings.Contains(out, tt.contains) {
				t.Fatalf("expected %q in:\n%s", tt.contains, out)
			}
			for _, want := range []string{"ERROR", "SEM3001", "undeclared identifier"} {
				if !strings.Contains(out, want) {
					t.Fatalf("expected %q in:\n%s", want, out)
				}
			}
		})
	}
}

func TestPathModeAuto(t *testing.T) {
	tests := []struct {
		path, expected string
	}{
		{"test.qasm", "test.qasm:1:1"},
		{"/very/long/absolute/path/to/some/nested/directory/file.qasm", "file.qasm:1:1"},
	}
	for _, tt := range tests {
		fs := source.NewFileSet()
		id := fs.AddVirtual(tt.path, []byte("qubit q;\n"))
		bag := singleBag(diag.New(diag.SevWarning, diag.SemaShadowsGlobal, source.Span{File: id, Start: 0, End: 5}, "w"))
		out := render(t, bag, fs, PrettyOpts{})
		if !strings.HasPrefix(out, tt.expected) {
			t.Fatalf("expected prefix %q, got:\n%s", tt.expected, out)
		}
	}
}

func TestPrettyCaretUnderline(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.qasm", []byte("int x = yy;\n"))
	out := render(t, singleBag(diag.NewError(diag.SemaUndeclaredIdentifier, source.Span{File: id, Start: 8, End: 10}, "undeclared")), fs, PrettyOpts{})
	if !strings.Contains(out, "  1 | int x = yy;\n") {
		t.Fatalf("source line missing:\n%s", out)
	}
	if !strings.Contains(out, "    | "+strings.Repeat(" ", 8)+"^~\n") {
		t.Fatalf("underline misplaced:\n%s", out)
	}
}

func TestPrettyCaretCountsDisplayWidth(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("b = \"日本\" + y;\n")
	start := uint32(bytes.IndexByte(content, 'y'))
	id := fs.AddVirtual("wide.qasm", content)
	out := render(t, singleBag(diag.NewError(diag.SemaTypeMismatch, source.Span{File: id, Start: start, End: start + 1}, "mismatch")), fs, PrettyOpts{})
	if !strings.Contains(out, "| "+strings.Repeat(" ", 13)+"^\n") {
		t.Fatalf("caret should sit under y:\n%s", out)
	}
}

func TestPrettyContextLines(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("ctx.qasm", []byte("qubit q;\nbit c;\nc = measure r;\nreset q;\n"))
	sp := source.Span{File: id, Start: 28, End: 29}
	out := render(t, singleBag(diag.NewError(diag.SemaUndeclaredIdentifier, sp, "undeclared")), fs, PrettyOpts{Context: 1})
	for _, want := range []string{"2 | bit c;", "3 | c = measure r;", "4 | reset q;"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "qubit q;") {
		t.Fatalf("context too wide:\n%s", out)
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("int x;\nint x = 1\n")
	id := fs.AddVirtual("test.qasm", content)

	d := diag.NewError(diag.SemaDuplicateSymbol, source.Span{File: id, Start: 11, End: 12}, "redeclaration of 'x'").
		WithNote(source.Span{File: id, Start: 4, End: 5}, "previous declaration").
		WithFix("insert semicolon", diag.FixEdit{Span: source.Span{File: id, Start: 16, End: 16}, NewText: ";"})

	out := render(t, singleBag(d), fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true, ShowPreview: true})
	for _, want := range []string{
		"note: test.qasm:1:5: previous declaration",
		"fix #1: insert semicolon",
		`apply=";"`,
		"preview:",
		"- int x = 1",
		"+ int x = 1;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	hidden := render(t, singleBag(d), fs, PrettyOpts{})
	if strings.Contains(hidden, "note:") || strings.Contains(hidden, "fix #1") {
		t.Fatalf("notes and fixes are opt-in:\n%s", hidden)
	}
}

func TestPrettyFallbackLocation(t *testing.T) {
	d := diag.NewError(diag.SemaUndeclaredIdentifier, source.Span{Start: 3, End: 7}, "undeclared")
	out := render(t, singleBag(d), source.NewFileSet(), PrettyOpts{Fallback: "bad.json"})
	if !strings.HasPrefix(out, "bad.json@3..7: ERROR SEM3001: undeclared") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	out = render(t, singleBag(diag.NewError(diag.IOLoadFileError, source.NoSpan, "gone")), nil, PrettyOpts{})
	if !strings.HasPrefix(out, "<unknown>: ERROR") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrettyAlwaysShowsTimings(t *testing.T) {
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, "timings").WithNote(source.NoSpan, `{"kind":"unit"}`)
	out := render(t, singleBag(d), nil, PrettyOpts{Fallback: "x"})
	if !strings.Contains(out, `{"kind":"unit"}`) {
		t.Fatalf("timing payload missing:\n%s", out)
	}
}

func TestPrettyColor(t *testing.T) {
	d := diag.NewError(diag.SemaUndeclaredIdentifier, source.NoSpan, "undeclared")
	if out := render(t, singleBag(d), nil, PrettyOpts{Color: true}); !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected escape codes:\n%q", out)
	}
	if out := render(t, singleBag(d), nil, PrettyOpts{}); strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected escape codes:\n%q", out)
	}
}
