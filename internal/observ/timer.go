package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a check run, e.g. "replay" for a unit.
type Phase struct {
	Name  string
	Unit  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer collects phase durations. Units checked in parallel share one Timer.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns its handle for End.
func (t *Timer) Begin(name string) int {
	return t.BeginUnit("", name)
}

func (t *Timer) BeginUnit(unit, name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Unit: unit, Start: time.Now()})
	return len(t.phases) - 1
}

func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// PhaseReport is the serialisable form of one aggregated phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	Units      int     `json:"units"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report sums phases of the same name across units, keeping first-seen order.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	var (
		report Report
		total  time.Duration
		byName = make(map[string]int)
		sums   []time.Duration
	)
	for _, p := range t.phases {
		total += p.Dur
		i, ok := byName[p.Name]
		if !ok {
			i = len(report.Phases)
			byName[p.Name] = i
			report.Phases = append(report.Phases, PhaseReport{Name: p.Name, Note: p.Note})
			sums = append(sums, 0)
		}
		sums[i] += p.Dur
		report.Phases[i].Units++
	}
	for i := range report.Phases {
		report.Phases[i].DurationMS = durationToMillis(sums[i])
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Units > 1 {
			fmt.Fprintf(&sb, "  x%d", p.Units)
		}
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-20s %7.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
