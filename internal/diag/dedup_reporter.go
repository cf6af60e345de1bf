package diag

import "qasm3/internal/source"

// reportKey identifies a diagnostic for repeat detection. Notes and fixes
// are not part of it.
type reportKey struct {
	code Code
	sev  Severity
	at   source.Span
	msg  string
}

// DedupReporter forwards a diagnostic to Next only the first time it is
// seen. The evaluator and the validator may both reject the same node while
// a statement is being built.
type DedupReporter struct {
	Next       Reporter
	emitted    map[reportKey]bool
	suppressed int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{Next: next, emitted: map[reportKey]bool{}}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	k := reportKey{code: code, sev: sev, at: primary, msg: msg}
	if r.emitted[k] {
		r.suppressed++
		return
	}
	if r.emitted == nil {
		r.emitted = map[reportKey]bool{}
	}
	r.emitted[k] = true
	if r.Next != nil {
		r.Next.Report(code, sev, primary, msg, notes, fixes)
	}
}

// Suppressed counts the repeats that were dropped.
func (r *DedupReporter) Suppressed() int {
	if r == nil {
		return 0
	}
	return r.suppressed
}
