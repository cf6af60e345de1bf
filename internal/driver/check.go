// Package driver runs action scripts through compiler units, one unit per
// script, in parallel.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"qasm3/internal/compiler"
	"qasm3/internal/diag"
	"qasm3/internal/export"
	"qasm3/internal/observ"
	"qasm3/internal/script"
	"qasm3/internal/source"
	"qasm3/internal/trace"
)

// ScriptExt is the extension Expand looks for inside directories.
const ScriptExt = ".json"

// Options configure Check.
type Options struct {
	// Jobs bounds the number of units checked at once; 0 means one per CPU.
	Jobs           int
	MaxDiagnostics int
	// AngleArithmetic keeps angle op scalar in the angle domain.
	AngleArithmetic bool
	// ExportDir, when set, receives one manifest per clean unit.
	ExportDir string
	// Timings appends an ObsTimings diagnostic to every unit.
	Timings bool
	// Tracer overrides the tracer stored in the context.
	Tracer   trace.Tracer
	Progress ProgressSink
}

// UnitResult is the outcome of one script.
type UnitResult struct {
	Path   string
	Script *script.Script
	// FileID is the OpenQASM source the unit's spans point into. It is
	// NoFileID when the script names no source or the source is missing.
	FileID source.FileID
	// ScriptID is the action script itself.
	ScriptID source.FileID
	Bag      *diag.Bag
	Result   *compiler.Result
	Manifest *export.Manifest
	// ManifestPath is where Manifest was written.
	ManifestPath string
	Timing       *observ.Report
}

// Failed reports whether the unit should fail the run.
func (r *UnitResult) Failed(warningsAsErrors bool) bool {
	if r.Bag == nil {
		return false
	}
	if r.Bag.HasErrors() {
		return true
	}
	return warningsAsErrors && r.Bag.HasWarnings()
}

// Expand replaces directories in paths with the scripts they contain, sorted.
func Expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			// reported as a load error by Check
			files = append(files, p)
			continue
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ScriptExt) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// pending is a unit whose inputs were loaded but not yet replayed.
type pending struct {
	path     string
	unit     string
	script   *script.Script
	scriptID source.FileID
	sourceID source.FileID
	bag      *diag.Bag
	timer    *observ.Timer
}

// Check replays every script of paths and finishes its unit. The returned
// error is reserved for cancellation; everything about the scripts themselves
// ends up in the per-unit bags.
func Check(ctx context.Context, paths []string, opts Options) (*source.FileSet, []UnitResult, error) {
	files, err := Expand(paths)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSet()
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	root := trace.Begin(tracer, trace.ScopeDriver, "check", trace.CurrentSpan(ctx))
	defer root.End(fmt.Sprintf("%d unit(s)", len(files)))

	for _, path := range files {
		emit(opts.Progress, path, StageLoad, StatusQueued, nil, 0)
	}

	// FileSet is not safe for concurrent use, so every input is loaded before
	// the workers start.
	units := make([]pending, len(files))
	for i, path := range files {
		units[i] = load(fileSet, path, opts, tracer, root.ID())
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]UnitResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i := range units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = checkUnit(&units[i], opts, tracer, root.ID())
			verdict := StatusDone
			if results[i].Bag.HasErrors() {
				verdict = StatusError
			}
			emit(opts.Progress, results[i].Path, StageDone, verdict, nil, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

func load(fileSet *source.FileSet, path string, opts Options, tracer trace.Tracer, parent uint64) pending {
	p := pending{
		path: path,
		unit: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		bag:  diag.NewBag(opts.MaxDiagnostics),
	}
	if opts.Timings {
		p.timer = observ.NewTimer()
	}
	start := time.Now()
	emit(opts.Progress, path, StageLoad, StatusWorking, nil, 0)
	span := trace.BeginUnit(tracer, trace.ScopePass, p.unit, "decode", parent)
	end := beginPhase(p.timer, p.unit, "load")

	fail := func(d diag.Diagnostic, err error) pending {
		p.bag.Add(d)
		end("failed")
		span.End(err.Error())
		emit(opts.Progress, path, StageLoad, StatusError, err, time.Since(start))
		return p
	}

	id, err := fileSet.Load(path)
	if err != nil {
		return fail(diag.NewError(diag.IOLoadFileError, source.NoSpan, "failed to load file: "+err.Error()), err)
	}
	p.scriptID = id
	at := source.Span{File: id}

	s, err := script.Decode(p.unit, fileSet.Get(id).Content)
	if err != nil {
		var (
			d   diag.Diagnostic
			inv *script.InvalidError
		)
		if errors.As(err, &inv) {
			d = diag.NewError(diag.ScrSchemaViolation, at, fmt.Sprintf("%s is not a valid action script", path))
			for _, pr := range inv.Problems {
				d = d.WithNote(at, pr.String())
			}
		} else {
			d = diag.NewError(diag.ScrInvalidJSON, at, fmt.Sprintf("%s is not valid JSON", path)).WithNote(at, err.Error())
		}
		return fail(d, err)
	}
	p.script = s
	p.unit = s.Unit

	if s.Source != "" {
		src := s.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(filepath.Dir(path), src)
		}
		sid, err := fileSet.Load(src)
		if err != nil {
			p.bag.Add(diag.New(diag.SevWarning, diag.IOLoadFileError, at,
				fmt.Sprintf("source %s is unavailable, positions are shown as offsets", s.Source)).
				WithNote(at, err.Error()))
		} else {
			p.sourceID = sid
		}
	}

	end("")
	span.End("")
	emit(opts.Progress, path, StageLoad, StatusDone, nil, time.Since(start))
	return p
}

func checkUnit(p *pending, opts Options, tracer trace.Tracer, parent uint64) (res UnitResult) {
	res = UnitResult{Path: p.path, Script: p.script, FileID: p.sourceID, ScriptID: p.scriptID, Bag: p.bag}
	defer func() {
		if p.timer == nil {
			return
		}
		report := p.timer.Report()
		res.Timing = &report
		appendTimingDiagnostic(res.Bag, timingPayload{Path: p.path, TotalMS: report.TotalMS, Phases: report.Phases})
	}()
	if p.script == nil {
		return res
	}

	module := trace.BeginUnit(tracer, trace.ScopeModule, p.unit, "unit", parent)
	defer module.End("")

	u := compiler.NewUnit(compiler.Options{
		Name:            p.unit,
		File:            p.sourceID,
		Tracer:          tracer,
		AngleArithmetic: opts.AngleArithmetic,
		MaxDiagnostics:  opts.MaxDiagnostics,
	})
	u.Diagnostics().Merge(p.bag)
	res.Bag = u.Diagnostics()

	start := time.Now()
	emit(opts.Progress, p.path, StageReplay, StatusWorking, nil, 0)
	span := trace.BeginUnit(tracer, trace.ScopePass, p.unit, "replay", module.ID())
	end := beginPhase(p.timer, p.unit, "replay")
	replayErr := script.Replay(u, p.script)
	end(fmt.Sprintf("%d action(s)", len(p.script.Actions)))
	span.End("")
	if replayErr != nil {
		code := diag.ScrBadOperand
		var re *script.ReplayError
		if errors.As(replayErr, &re) {
			code = re.Code
		}
		res.Bag.Add(diag.NewError(code, source.Span{File: p.scriptID}, replayErr.Error()))
		emit(opts.Progress, p.path, StageReplay, StatusError, replayErr, time.Since(start))
	} else {
		emit(opts.Progress, p.path, StageReplay, StatusDone, nil, time.Since(start))
	}

	start = time.Now()
	emit(opts.Progress, p.path, StageFinish, StatusWorking, nil, 0)
	end = beginPhase(p.timer, p.unit, "finish")
	res.Result = u.Finish()
	end(fmt.Sprintf("%d entities", len(res.Result.Entities)))
	res.Bag = res.Result.Diagnostics

	if opts.ExportDir == "" || res.Bag.HasErrors() {
		status := StatusDone
		if res.Bag.HasErrors() {
			status = StatusError
		}
		emit(opts.Progress, p.path, StageFinish, status, nil, time.Since(start))
		return res
	}
	emit(opts.Progress, p.path, StageFinish, StatusDone, nil, time.Since(start))
	exportUnit(&res, p, opts, tracer, module.ID())
	return res
}

func exportUnit(res *UnitResult, p *pending, opts Options, tracer trace.Tracer, parent uint64) {
	start := time.Now()
	emit(opts.Progress, p.path, StageExport, StatusWorking, nil, 0)
	span := trace.BeginUnit(tracer, trace.ScopePass, p.unit, "export", parent)
	end := beginPhase(p.timer, p.unit, "export")
	defer span.End("")

	m, err := export.Build(res.Result, p.script.Source)
	if err == nil {
		res.ManifestPath = filepath.Join(opts.ExportDir, p.unit+".msgpack")
		err = export.WriteFile(res.ManifestPath, m)
	}
	if err != nil {
		res.ManifestPath = ""
		end("failed")
		res.Bag.Add(diag.NewError(diag.IOExportFailed, source.NoSpan, fmt.Sprintf("export of %s failed: %v", p.unit, err)))
		emit(opts.Progress, p.path, StageExport, StatusError, err, time.Since(start))
		return
	}
	res.Manifest = m
	end(res.ManifestPath)
	emit(opts.Progress, p.path, StageExport, StatusDone, nil, time.Since(start))
}
