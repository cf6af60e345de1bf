package diag

import (
	"fmt"
	"sort"
	"strings"

	"qasm3/internal/source"
)

type lineDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShortDiagnostics renders one line per diagnostic, sorted by position:
//
//	path:line:col: SEVERITY CODE message
//
// Notes follow their diagnostic with a "note" severity when includeNotes is set.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]lineDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, lineOf(fs, d.Primary, d.Severity.String(), d.Code.ID(), d.Message))
		if includeNotes {
			for _, n := range d.Notes {
				rendered = append(rendered, lineOf(fs, n.Span, "NOTE", d.Code.ID(), n.Msg))
			}
		}
	}
	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		return di.Column < dj.Column
	})

	var sb strings.Builder
	for i, r := range rendered {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s:%d:%d: %s %s %s", r.Path, r.Line, r.Column, r.Severity, r.Code, r.Message)
	}
	return sb.String()
}

func lineOf(fs *source.FileSet, sp source.Span, sev, code, msg string) lineDiagnostic {
	ld := lineDiagnostic{Severity: sev, Code: code, Path: "<unknown>", Message: msg}
	if fs == nil {
		return ld
	}
	if f := fs.Get(sp.File); f != nil {
		start, _ := fs.Resolve(sp)
		ld.Path = f.Path
		ld.Line = start.Line
		ld.Column = start.Col
	}
	return ld
}
