package diagfmt

import (
	"os"
	"path/filepath"
	"strings"
)

const autoPathLimit = 40

func formatPath(path string, mode PathMode, base string) string {
	if path == "" {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
		return path
	case PathModeRelative:
		if base == "" {
			wd, err := os.Getwd()
			if err != nil {
				return path
			}
			base = wd
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		rel, err := filepath.Rel(base, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			return path
		}
		return filepath.ToSlash(rel)
	case PathModeBasename:
		return filepath.Base(path)
	default:
		if filepath.IsAbs(path) && len(path) > autoPathLimit {
			return filepath.Base(path)
		}
		return path
	}
}
