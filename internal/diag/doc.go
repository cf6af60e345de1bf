// Package diag defines the diagnostic model shared by every semantic component.
//
// Diagnostic is the central record: Severity (Info, Warning, Error, ICE),
// a numeric Code with a stable string form, a short Message, a Primary span
// and optional Notes and Fixes.
//
// Components never store diagnostics themselves. They emit through a
// Reporter, usually via the ReportError / ReportWarning / ReportICE builders:
//
//	diag.ReportError(r, diag.SemaDuplicateSymbol, sp, "redeclaration of 'x'").
//		WithNote(prev, "previous declaration").
//		Emit()
//
// BagReporter collects into a Bag, which the driver sorts, deduplicates and
// hands to internal/diagfmt for rendering. A compilation unit is failed when
// its bag HasErrors; ICE counts as an error.
package diag
