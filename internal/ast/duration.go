package ast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidDuration is returned for literals without a known unit suffix or
// with a malformed magnitude.
var ErrInvalidDuration = errors.New("invalid duration")

type TimeUnit uint8

const (
	UnitNone TimeUnit = iota
	UnitDt
	UnitNs
	UnitUs
	UnitMs
	UnitS
)

func (u TimeUnit) String() string {
	switch u {
	case UnitDt:
		return "dt"
	case UnitNs:
		return "ns"
	case UnitUs:
		return "us"
	case UnitMs:
		return "ms"
	case UnitS:
		return "s"
	}
	return "none"
}

// nanosPer is the length of one unit in nanoseconds. dt is backend defined
// and has no fixed length.
var nanosPer = map[TimeUnit]float64{
	UnitNs: 1,
	UnitUs: 1e3,
	UnitMs: 1e6,
	UnitS:  1e9,
}

// Duration is a parsed duration literal. An invalid literal keeps its text and
// has Valid == false; Value and Unit are meaningless then.
type Duration struct {
	Value float64
	Unit  TimeUnit
	Text  string
	Valid bool
}

// Nanoseconds converts to ns. It fails for invalid durations and for dt.
func (d Duration) Nanoseconds() (float64, bool) {
	if !d.Valid {
		return 0, false
	}
	f, ok := nanosPer[d.Unit]
	if !ok {
		return 0, false
	}
	return d.Value * f, true
}

func (d Duration) String() string {
	if !d.Valid {
		return "<invalid " + strconv.Quote(d.Text) + ">"
	}
	return strconv.FormatFloat(d.Value, 'g', -1, 64) + d.Unit.String()
}

// ParseDuration parses "100ns", "1.5 ms", "4dt", "20µs". The micro sign and the
// Greek mu are folded with NFKC so both spellings are accepted.
func ParseDuration(text string) (Duration, error) {
	s := strings.TrimSpace(norm.NFKC.String(text))
	bad := Duration{Text: text}

	cut := len(s)
	for cut > 0 {
		c := s[cut-1]
		if (c >= 'a' && c <= 'z') || c >= 0x80 {
			cut--
			continue
		}
		break
	}
	num, suffix := strings.TrimSpace(s[:cut]), s[cut:]
	if num == "" || suffix == "" {
		return bad, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}

	var unit TimeUnit
	switch suffix {
	case "dt":
		unit = UnitDt
	case "ns":
		unit = UnitNs
	case "us", "μs":
		unit = UnitUs
	case "ms":
		unit = UnitMs
	case "s":
		unit = UnitS
	default:
		return bad, fmt.Errorf("%w: unknown unit %q in %q", ErrInvalidDuration, suffix, text)
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return bad, fmt.Errorf("%w: bad magnitude %q", ErrInvalidDuration, num)
	}
	return Duration{Value: v, Unit: unit, Text: text, Valid: true}, nil
}
