package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"qasm3/internal/compiler"
)

var mangleCmd = &cobra.Command{
	Use:   "mangle [flags] <script.json>",
	Short: "Print the mangled name of every entity of a unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runMangle,
}

func init() {
	mangleCmd.Flags().Bool("all", false, "include locals whose scope already closed")
}

func runMangle(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, s)
	if err != nil {
		return err
	}
	defer cleanup()

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	r, err := checkOne(cmd, s, args[0])
	if err != nil {
		return err
	}
	if r.Result == nil {
		return errFailed
	}
	printEntities(cmd.OutOrStdout(), r.Result.Entities, all, s.color)
	if r.Failed(false) {
		return errFailed
	}
	return nil
}

func printEntities(w io.Writer, entities []compiler.Entity, all, color bool) {
	header := []string{"NAME", "TYPE", "SCOPE", "MAP", "MANGLED"}
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		if !e.Live && !all {
			continue
		}
		name := e.Name
		if !e.Live {
			name += " (closed)"
		}
		typ := e.Type.String()
		if e.Bits > 0 {
			typ = fmt.Sprintf("%s[%d]", typ, e.Bits)
		}
		if e.Const {
			typ = "const " + typ
		}
		rows = append(rows, []string{name, typ, e.Scope.String(), e.Map.String(), e.Mangled})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	style := lipgloss.NewStyle()
	if color {
		style = style.Bold(true).Foreground(lipgloss.Color("6"))
	}
	fmt.Fprintln(w, style.Render(formatRow(header, widths)))
	for _, row := range rows {
		fmt.Fprintln(w, formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	out := ""
	for i, cell := range cells {
		if i == len(cells)-1 {
			out += cell
			break
		}
		out += runewidth.FillRight(cell, widths[i]) + "  "
	}
	return out
}
