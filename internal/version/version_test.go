package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColoredPlain(t *testing.T) {
	if got := Colored(false); got != Version {
		t.Fatalf("Colored(false) = %q, want %q", got, Version)
	}
}

func TestColoredWrapsEachPart(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-rc1"
	got := Colored(true)
	if strings.Count(got, "\x1b[") < 3 || !strings.HasSuffix(got, "-rc1") {
		t.Fatalf("Colored(true) = %q", got)
	}

	Version = "nightly"
	if got := Colored(true); got != "nightly" {
		t.Fatalf("Colored(true) = %q", got)
	}
}
