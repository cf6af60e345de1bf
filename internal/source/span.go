package source

import "fmt"

// Span is a half-open byte range inside one file.
type Span struct {
	File  FileID
	Start uint32 // inclusive, bytes
	End   uint32 // exclusive, bytes
}

// NoSpan is used for synthesized nodes that have no source position.
var NoSpan = Span{}

func (s Span) Empty() bool {
	return s.Start == s.End
}

// Known reports whether the span points into a real file.
func (s Span) Known() bool {
	return s.File != NoFileID
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover widens s so that it also contains other. Spans from different files
// are left untouched.
func (s Span) Cover(other Span) Span {
	if !other.Known() {
		return s
	}
	if !s.Known() {
		return other
	}
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
