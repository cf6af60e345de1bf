// Package diagfmt renders diagnostic bags for people (Pretty, Short) and
// for tools (JSON).
package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"qasm3/internal/diag"
	"qasm3/internal/source"
)

const tabWidth = 4

type palette struct {
	sev    map[diag.Severity]*color.Color
	code   *color.Color
	gutter *color.Color
	caret  *color.Color
	note   *color.Color
	fix    *color.Color
	minus  *color.Color
	plus   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevICE:     color.New(color.FgMagenta, color.Bold),
		},
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		note:   color.New(color.FgCyan),
		fix:    color.New(color.FgGreen),
		minus:  color.New(color.FgRed),
		plus:   color.New(color.FgGreen),
	}
	all := []*color.Color{p.code, p.gutter, p.caret, p.note, p.fix, p.minus, p.plus}
	for _, c := range p.sev {
		all = append(all, c)
	}
	// the global NoColor switch must not decide what the caller asked for
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	if c, ok := p.sev[s]; ok {
		return c
	}
	return p.code
}

// Pretty writes every diagnostic of bag in order, callers sort first:
//
//	path:line:col: SEVERITY CODE: message
//	   3 | int x = y;
//	     |         ^
//
// followed by notes, fixes and fix previews when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pr := prettyPrinter{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		pr.diagnostic(d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
}

// location renders path:line:col, or the fallback name with byte offsets for
// spans outside any loaded file.
func (p *prettyPrinter) location(sp source.Span) string {
	var f *source.File
	if p.fs != nil {
		f = p.fs.Get(sp.File)
	}
	if f == nil {
		name := p.opts.Fallback
		if name == "" {
			name = "<unknown>"
		}
		if sp.Start == 0 && sp.End == 0 {
			return name
		}
		return fmt.Sprintf("%s@%d..%d", name, sp.Start, sp.End)
	}
	start, _ := p.fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f.Path, p.opts.PathMode, p.opts.BaseDir), start.Line, start.Col)
}

func (p *prettyPrinter) diagnostic(d diag.Diagnostic) {
	sev := p.pal.severity(d.Severity)
	fmt.Fprintf(p.w, "%s: %s %s: %s\n",
		p.location(d.Primary), sev.Sprint(d.Severity.String()), p.pal.code.Sprint(d.Code.ID()), d.Message)
	p.snippet(d.Primary)

	// timing payloads are the point of ObsTimings, so they always print
	if p.opts.ShowNotes || d.Code == diag.ObsTimings {
		for _, n := range d.Notes {
			fmt.Fprintf(p.w, "  %s %s: %s\n", p.pal.note.Sprint("note:"), p.location(n.Span), n.Msg)
		}
	}
	if !p.opts.ShowFixes {
		return
	}
	for i, fix := range d.Fixes {
		fmt.Fprintf(p.w, "  %s %s\n", p.pal.fix.Sprintf("fix #%d:", i+1), fix.Title)
		for _, edit := range fix.Edits {
			fmt.Fprintf(p.w, "    edit %s apply=%s\n", p.location(edit.Span), strconv.Quote(edit.NewText))
			if !p.opts.ShowPreview {
				continue
			}
			preview, err := buildFixEditPreview(p.fs, edit)
			if err != nil {
				continue
			}
			fmt.Fprintln(p.w, "    preview:")
			for _, line := range preview.before {
				fmt.Fprintf(p.w, "      %s\n", p.pal.minus.Sprint("- "+line))
			}
			for _, line := range preview.after {
				fmt.Fprintf(p.w, "      %s\n", p.pal.plus.Sprint("+ "+line))
			}
		}
	}
}

// snippet prints the primary line with Context lines around it and a caret
// underline sized to the display width of the span.
func (p *prettyPrinter) snippet(sp source.Span) {
	if p.fs == nil {
		return
	}
	f := p.fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := p.fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	ctx := uint32(max(p.opts.Context, 0))
	first := start.Line - min(ctx, start.Line-1)
	last := start.Line + ctx
	if n := uint32(len(f.LineIdx)) + 1; last > n {
		last = n
	}
	gutterWidth := len(strconv.FormatUint(uint64(last), 10))

	for line := first; line <= last; line++ {
		text := f.GetLine(line)
		if line != start.Line && text == "" {
			continue
		}
		fmt.Fprintf(p.w, "%s %s\n", p.pal.gutter.Sprintf("%*d |", gutterWidth+2, line), expandTabs(text))
		if line != start.Line {
			continue
		}
		prefix := text[:min(int(start.Col-1), len(text))]
		stop := len(text)
		if end.Line == start.Line {
			stop = min(int(end.Col-1), len(text))
		}
		marked := ""
		if stop > len(prefix) {
			marked = text[len(prefix):stop]
		}
		pad := runewidth.StringWidth(expandTabs(prefix))
		width := max(runewidth.StringWidth(expandTabs(marked)), 1)
		underline := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(p.w, "%s %s%s\n", p.pal.gutter.Sprintf("%*s |", gutterWidth+2, ""), strings.Repeat(" ", pad), p.pal.caret.Sprint(underline))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
