package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qasm3/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] <script.json>",
	Short: "Write the msgpack manifest of a clean unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "manifest path (default <unit>.msgpack)")
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, s)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	r, err := checkOne(cmd, s, args[0])
	if err != nil {
		return err
	}
	if r.Result == nil || r.Failed(false) {
		return errFailed
	}
	src := ""
	if r.Script != nil {
		src = r.Script.Source
	}
	m, err := export.Build(r.Result, src)
	if err != nil {
		return err
	}
	if out == "" {
		out = r.Result.Unit + ".msgpack"
	}
	if err := export.WriteFile(out, m); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d entities, %d literals)\n", out, len(m.Entities), m.Literals)
	return nil
}
