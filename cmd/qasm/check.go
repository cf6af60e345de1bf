package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qasm3/internal/diag"
	"qasm3/internal/diagfmt"
	"qasm3/internal/driver"
	"qasm3/internal/source"
	"qasm3/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <script.json|directory>...",
	Short: "Check action scripts and report diagnostics",
	Long:  `Replay every action script through a fresh unit and report the semantic diagnostics of each`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "", "output format (pretty|short|json), default from qasm.toml")
	checkCmd.Flags().Int("jobs", 0, "max parallel units (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "preview the lines fix suggestions would change")
	checkCmd.Flags().String("paths", "auto", "how to print file paths (auto|absolute|relative|basename)")
	checkCmd.Flags().String("export-dir", "", "write a manifest for every clean unit into this directory")
}

// renderOptions collects the flags shared by every command that prints
// diagnostics.
type renderOptions struct {
	format   string
	color    bool
	notes    bool
	fixes    bool
	preview  bool
	pathMode diagfmt.PathMode
	max      int
}

func readRenderOptions(cmd *cobra.Command, s *settings) (renderOptions, error) {
	ro := renderOptions{format: s.cfg.Diagnostics.Format, color: s.color, max: s.cfg.Diagnostics.Max}
	flags := cmd.Flags()
	if flags.Lookup("format") != nil && flags.Changed("format") {
		f, err := flags.GetString("format")
		if err != nil {
			return ro, fmt.Errorf("failed to get format flag: %w", err)
		}
		ro.format = strings.ToLower(f)
	}
	switch ro.format {
	case "pretty", "short", "json":
	default:
		return ro, fmt.Errorf("unknown format %q (expected pretty|short|json)", ro.format)
	}
	var err error
	if flags.Lookup("with-notes") != nil {
		if ro.notes, err = flags.GetBool("with-notes"); err != nil {
			return ro, fmt.Errorf("failed to get with-notes flag: %w", err)
		}
	}
	if flags.Lookup("suggest") != nil {
		if ro.fixes, err = flags.GetBool("suggest"); err != nil {
			return ro, fmt.Errorf("failed to get suggest flag: %w", err)
		}
	}
	if flags.Lookup("preview") != nil {
		if ro.preview, err = flags.GetBool("preview"); err != nil {
			return ro, fmt.Errorf("failed to get preview flag: %w", err)
		}
	}
	if flags.Lookup("paths") != nil {
		paths, err := flags.GetString("paths")
		if err != nil {
			return ro, fmt.Errorf("failed to get paths flag: %w", err)
		}
		mode, ok := diagfmt.ParsePathMode(paths)
		if !ok {
			return ro, fmt.Errorf("unknown paths value %q", paths)
		}
		ro.pathMode = mode
	}
	return ro, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, s)
	if err != nil {
		return err
	}
	defer cleanup()

	ro, err := readRenderOptions(cmd, s)
	if err != nil {
		return err
	}
	jobs := s.cfg.Check.Jobs
	if cmd.Flags().Changed("jobs") {
		if jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	strict, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	strict = strict || s.cfg.Diagnostics.WarningsAsErrors
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := ui.ParseMode(uiValue)
	if err != nil {
		return err
	}
	exportDir, err := cmd.Flags().GetString("export-dir")
	if err != nil {
		return fmt.Errorf("failed to get export-dir flag: %w", err)
	}

	files, err := driver.Expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s scripts found", driver.ScriptExt)
	}

	opts := driver.Options{
		Jobs:            jobs,
		MaxDiagnostics:  s.cfg.Diagnostics.Max,
		AngleArithmetic: s.cfg.OpenAngles(),
		ExportDir:       exportDir,
		Timings:         s.timings,
	}
	var (
		fs      *source.FileSet
		results []driver.UnitResult
	)
	work := func(sink driver.ProgressSink) error {
		opts.Progress = sink
		var err error
		fs, results, err = driver.Check(cmd.Context(), files, opts)
		return err
	}
	out := cmd.OutOrStdout()
	if ro.format != "json" && mode.Enabled(out) {
		err = ui.Run("checking", files, out, work)
	} else {
		err = work(nil)
	}
	if err != nil {
		return err
	}

	if err := render(out, fs, results, ro); err != nil {
		return err
	}
	for i := range results {
		if results[i].Failed(strict) {
			return errFailed
		}
	}
	return nil
}

func unitName(r *driver.UnitResult) string {
	if r.Result != nil {
		return r.Result.Unit
	}
	if r.Script != nil && r.Script.Unit != "" {
		return r.Script.Unit
	}
	return strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))
}

// render prints the diagnostics of every unit in the chosen format.
func render(w io.Writer, fs *source.FileSet, results []driver.UnitResult, ro renderOptions) error {
	switch ro.format {
	case "json":
		report := &diagfmt.ReportOutput{}
		jopts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         ro.pathMode,
			Max:              ro.max,
			IncludeNotes:     ro.notes,
			IncludeFixes:     ro.fixes,
			IncludePreviews:  ro.preview,
		}
		for i := range results {
			r := &results[i]
			r.Bag.Sort()
			report.AddUnit(unitName(r), r.Path, r.Bag, fs, jopts)
		}
		return diagfmt.Report(w, report)
	case "short":
		for i := range results {
			r := &results[i]
			r.Bag.Sort()
			if err := diagfmt.Short(w, r.Bag, fs, ro.notes); err != nil {
				return err
			}
		}
		return nil
	}

	errs, warns := 0, 0
	printed := false
	for i := range results {
		r := &results[i]
		if r.Bag.Len() == 0 {
			continue
		}
		r.Bag.Sort()
		if printed {
			fmt.Fprintln(w)
		}
		diagfmt.Pretty(w, r.Bag, fs, diagfmt.PrettyOpts{
			Color:       ro.color,
			Context:     1,
			PathMode:    ro.pathMode,
			Fallback:    r.Path,
			ShowNotes:   ro.notes,
			ShowFixes:   ro.fixes,
			ShowPreview: ro.preview,
		})
		printed = true
		errs += r.Bag.Count(diag.SevError)
		warns += r.Bag.CountExact(diag.SevWarning)
	}
	if printed {
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintf(w, "%d unit(s) checked: %d error(s), %d warning(s)\n", len(results), errs, warns)
	return err
}
