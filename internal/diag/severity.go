package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
	// SevICE marks a broken invariant inside the compiler itself.
	SevICE
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevICE:
		return "ICE"
	}
	return "UNKNOWN"
}
