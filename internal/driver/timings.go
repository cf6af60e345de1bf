package driver

import (
	"encoding/json"
	"fmt"

	"qasm3/internal/diag"
	"qasm3/internal/observ"
	"qasm3/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// beginPhase starts a phase on t and returns the func that ends it. A nil
// timer records nothing.
func beginPhase(t *observ.Timer, unit, name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	idx := t.BeginUnit(unit, name)
	return func(note string) { t.End(idx, note) }
}

func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "unit"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s, %s", msg, payload.Path)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, msg).WithNote(source.NoSpan, string(data))

	if bag.Add(entry) {
		return
	}
	// a full bag still reports timings
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
