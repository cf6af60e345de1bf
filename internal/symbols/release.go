package symbols

import "qasm3/internal/trace"

// ReleaseStats summarizes one Release call.
type ReleaseStats struct {
	Released     int
	SkippedViews int
	SkippedParts int
}

// Release drops every live entry at the end of a translation unit. Indexed
// views ("q[3]", "%q:3") and complex parts (".real", ".imag") belong to their
// base symbol and are only counted. Calling Release again is a no-op.
func (t *Table) Release() ReleaseStats {
	var st ReleaseStats
	t.Each(func(e *Entry) {
		if !e.Live() {
			return
		}
		e.released = true
		switch {
		case IsIndexedName(e.Name):
			st.SkippedViews++
		case IsComplexPartName(e.Name):
			st.SkippedParts++
		default:
			st.Released++
		}
	})
	for i := range t.maps {
		clear(t.maps[i])
	}
	clear(t.defcals)
	clear(t.literals)
	if st != (ReleaseStats{}) {
		trace.Point(t.tracer, trace.ScopeModule, t.unit, "symbol.release", "")
	}
	return st
}
