// Package trace records what the checker did, at four granularities:
// the driver run, passes (decode, replay, mangle, export), translation units
// and individual semantic events such as context push/pop or symbol creation.
//
// A Tracer is carried in context.Context. Stream tracers write text or NDJSON
// as events arrive; ring tracers keep the tail in memory so it can be dumped
// when a check fails.
package trace
