package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"qasm3/internal/types"
)

var castCmd = &cobra.Command{
	Use:   "cast <from> [to]",
	Short: "Explain the cast rules between two types",
	Long:  `Show whether a value of one type may be cast, explicitly or implicitly, to another. With one type, list every target`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCast,
}

// castTargets are the surface type names accepted by cast, in display order.
var castTargets = []string{
	"bool", "bit", "int", "uint", "float", "double", "longdouble",
	"mpinteger", "mpuinteger", "mpdecimal", "complex",
	"angle", "duration", "stretch", "qubit", "char", "string",
}

func parseType(name string) (types.Type, error) {
	t, ok := types.Parse(name)
	if !ok {
		return types.Undefined, fmt.Errorf("unknown type %q", name)
	}
	return t, nil
}

func runCast(cmd *cobra.Command, args []string) error {
	from, err := parseType(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) == 2 {
		to, err := parseType(args[1])
		if err != nil {
			return err
		}
		describeCast(out, args[0], from, args[1], to)
		return nil
	}
	for _, name := range castTargets {
		to, _ := types.Parse(name)
		if to == from {
			continue
		}
		describeCast(out, args[0], from, name, to)
	}
	return nil
}

func describeCast(w io.Writer, fromName string, from types.Type, toName string, to types.Type) {
	if !types.CanCast(from, to) {
		fmt.Fprintf(w, "%s -> %s: not allowed\n", fromName, toName)
		return
	}
	implicit := "explicit only"
	if types.CanImplicitConvert(from, to) {
		implicit = "implicit"
	}
	fmt.Fprintf(w, "%s -> %s: %s, %s\n", fromName, toName, types.ResolveConversionMethod(from, to), implicit)
}
