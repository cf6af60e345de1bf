package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qasm3/internal/driver"
)

// checkOne runs a single script through the driver with the settings of s
// and prints its diagnostics. The unit result is returned even when it has
// errors; callers decide what that means.
func checkOne(cmd *cobra.Command, s *settings, path string) (*driver.UnitResult, error) {
	ro, err := readRenderOptions(cmd, s)
	if err != nil {
		return nil, err
	}
	opts := driver.Options{
		Jobs:            1,
		MaxDiagnostics:  s.cfg.Diagnostics.Max,
		AngleArithmetic: s.cfg.OpenAngles(),
		Timings:         s.timings,
	}
	fs, results, err := driver.Check(cmd.Context(), []string{path}, opts)
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("expected one unit for %s, got %d", path, len(results))
	}
	r := &results[0]
	if r.Bag.Len() > 0 {
		if err := render(cmd.ErrOrStderr(), fs, results, ro); err != nil {
			return nil, err
		}
	}
	return r, nil
}
