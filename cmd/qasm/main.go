package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"qasm3/internal/version"
)

// errFailed ends the process with status 1 after the diagnostics were
// already printed.
var errFailed = errors.New("qasm: check failed")

var rootCmd = &cobra.Command{
	Use:               "qasm",
	Short:             "OpenQASM 3 semantic checker",
	Long:              `qasm replays action scripts through the OpenQASM 3 semantic core and reports what it finds`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: startProfiling,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(mangleCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(castCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per unit")
	rootCmd.PersistentFlags().String("config", "", "path to qasm.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "ring", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	err := rootCmd.Execute()
	if perr := stopProfiling(); perr != nil {
		fmt.Fprintf(os.Stderr, "qasm: profiling: %v\n", perr)
	}
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "qasm: %v\n", err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
