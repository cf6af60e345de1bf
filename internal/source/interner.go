package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

type StringID uint32

const NoStringID StringID = 0

// Interner maps identifier spellings to stable IDs. Spellings are NFC
// normalised first, so composed and decomposed forms of the same name share
// one ID.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern returns the ID for s, allocating one on first sight.
func (in *Interner) Intern(s string) StringID {
	s = norm.NFC.String(s)
	if id, ok := in.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	cpy := string([]byte(s))
	id := StringID(n)
	in.byID = append(in.byID, cpy)
	in.index[cpy] = id
	return id
}

// Canonical returns the normalised spelling of s without interning it.
func Canonical(s string) string {
	return norm.NFC.String(s)
}

func (in *Interner) Lookup(id StringID) (string, bool) {
	if !in.Has(id) {
		return "", false
	}
	return in.byID[id], true
}

func (in *Interner) MustLookup(id StringID) string {
	s, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("invalid string ID %d", id))
	}
	return s
}

func (in *Interner) Has(id StringID) bool {
	return int(id) < len(in.byID)
}

// Len counts NoStringID too, so it is never below 1.
func (in *Interner) Len() int {
	return len(in.byID)
}

func (in *Interner) Snapshot() []string {
	return slices.Clone(in.byID)
}
