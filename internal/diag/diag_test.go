package diag

import (
	"strings"
	"testing"

	"qasm3/internal/source"
)

func TestBagHasErrorsCountsICE(t *testing.T) {
	bag := NewBag(10)
	r := BagReporter{Bag: bag}
	ReportWarning(r, CfgSwitchNoDefault, source.NoSpan, "switch without default").Emit()
	if bag.HasErrors() {
		t.Fatalf("warning must not fail the unit")
	}
	ReportICE(r, ICESymbolTransfer, source.NoSpan, "conflict").Emit()
	if !bag.HasErrors() {
		t.Fatalf("ICE must count as an error")
	}
	if bag.CountExact(SevICE) != 1 || bag.Count(SevWarning) != 2 {
		t.Fatalf("unexpected counts: ice=%d warn+=%d", bag.CountExact(SevICE), bag.Count(SevWarning))
	}
}

func TestBagLimit(t *testing.T) {
	bag := NewBag(1)
	if !bag.Add(NewError(SemaTypeMismatch, source.NoSpan, "a")) {
		t.Fatalf("first diagnostic rejected")
	}
	if bag.Add(NewError(SemaTypeMismatch, source.NoSpan, "b")) {
		t.Fatalf("limit not enforced")
	}
	if bag.Dropped() != 1 {
		t.Fatalf("dropped = %d", bag.Dropped())
	}
}

func TestEmitOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportError(BagReporter{Bag: bag}, SemaDuplicateSymbol, source.NoSpan, "x")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("builder emitted %d times", bag.Len())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 1, Start: 2, End: 3}
	for range 3 {
		r.Report(SemaBadCast, SevError, sp, "bad", nil, nil)
	}
	r.Report(SemaBadCast, SevError, sp, "other", nil, nil)
	r.Report(SemaBadCast, SevError, source.Span{File: 1, Start: 2, End: 4}, "bad", nil, nil)
	r.Report(SemaBadCast, SevWarning, sp, "bad", nil, nil)
	if bag.Len() != 4 {
		t.Fatalf("dedup kept %d diagnostics", bag.Len())
	}
	if got := r.Suppressed(); got != 2 {
		t.Fatalf("suppressed %d repeats, want 2", got)
	}
}

func TestSeverityFloor(t *testing.T) {
	bag := NewBag(0)
	r := SeverityFloor{Next: BagReporter{Bag: bag}, Min: SevError, From: SevWarning}
	r.Report(CfgSwitchNoDefault, SevWarning, source.NoSpan, "w", nil, nil)
	r.Report(SemaInfo, SevInfo, source.NoSpan, "i", nil, nil)
	if got := bag.Items()[0].Severity; got != SevError {
		t.Fatalf("warning not promoted: %s", got)
	}
	if got := bag.Items()[1].Severity; got != SevInfo {
		t.Fatalf("info must stay info: %s", got)
	}
}

func TestCodeIDs(t *testing.T) {
	tests := map[Code]string{
		SemaTypeMismatch:   "SEM3003",
		CfgSwitchNoDefault: "CFG4008",
		ICESymbolTransfer:  "ICE9001",
		ScrSchemaViolation: "SCR1002",
		Code(2500):         "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %s, want %s", code, got, want)
		}
	}
	if Code(3999).Title() != "Unknown error" {
		t.Fatalf("fallback title drifted")
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.qasm", []byte("int x;\nint x;\n"))
	d := NewError(SemaDuplicateSymbol, source.Span{File: id, Start: 11, End: 12}, "redeclaration of 'x'").
		WithNote(source.Span{File: id, Start: 4, End: 5}, "previous declaration")
	out := FormatShortDiagnostics([]Diagnostic{d}, fs, true)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if lines[0] != "a.qasm:1:5: NOTE SEM3002 previous declaration" {
		t.Fatalf("note line = %q", lines[0])
	}
	if lines[1] != "a.qasm:2:5: ERROR SEM3002 redeclaration of 'x'" {
		t.Fatalf("error line = %q", lines[1])
	}
}
