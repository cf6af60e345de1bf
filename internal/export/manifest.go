// Package export writes the hand-off manifest of a finished unit: every
// declared entity with its mangled name, msgpack encoded.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"qasm3/internal/compiler"
	"qasm3/internal/diag"
)

// SchemaVersion is bumped whenever Manifest changes shape.
const SchemaVersion uint16 = 1

var (
	// ErrSchema is returned when a manifest was written by another version.
	ErrSchema = errors.New("export: manifest schema mismatch")
	// ErrBroken is returned by Build for units with errors.
	ErrBroken = errors.New("export: unit has errors")
)

// Entity is one exported symbol.
type Entity struct {
	Name    string `msgpack:"name"`
	Mangled string `msgpack:"mangled"`
	Type    string `msgpack:"type"`
	Bits    uint32 `msgpack:"bits"`
	Scope   string `msgpack:"scope"`
	Map     string `msgpack:"map"`
	Const   bool   `msgpack:"const,omitempty"`
	Hash    uint64 `msgpack:"hash,omitempty"`
	// Live is false for locals whose scope closed before the end of the unit.
	Live bool `msgpack:"live"`
}

type Manifest struct {
	Schema   uint16   `msgpack:"schema"`
	Unit     string   `msgpack:"unit"`
	Source   string   `msgpack:"source,omitempty"`
	Entities []Entity `msgpack:"entities"`
	Literals int      `msgpack:"literals"`
	Warnings int      `msgpack:"warnings"`
}

// Build collects the manifest of res. Units with errors are not exported.
func Build(res *compiler.Result, source string) (*Manifest, error) {
	if res.Diagnostics.HasErrors() {
		return nil, fmt.Errorf("%w: %s has %d error(s)", ErrBroken, res.Unit, res.Diagnostics.Count(diag.SevError))
	}
	m := &Manifest{
		Schema:   SchemaVersion,
		Unit:     res.Unit,
		Source:   source,
		Literals: res.Literals,
		Warnings: res.Diagnostics.CountExact(diag.SevWarning),
	}
	m.Entities = make([]Entity, 0, len(res.Entities))
	for _, e := range res.Entities {
		m.Entities = append(m.Entities, Entity{
			Name:    e.Name,
			Mangled: e.Mangled,
			Type:    e.Type.String(),
			Bits:    e.Bits,
			Scope:   e.Scope.String(),
			Map:     e.Map.String(),
			Const:   e.Const,
			Hash:    e.Hash,
			Live:    e.Live,
		})
	}
	return m, nil
}

// Lookup returns the entity named name, preferring live entries.
func (m *Manifest) Lookup(name string) (Entity, bool) {
	var found Entity
	ok := false
	for _, e := range m.Entities {
		if e.Name != name {
			continue
		}
		if e.Live {
			return e, true
		}
		found, ok = e, true
	}
	return found, ok
}

func Encode(w io.Writer, m *Manifest) error {
	return msgpack.NewEncoder(w).Encode(m)
}

func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := msgpack.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	if m.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, m.Schema, SchemaVersion)
	}
	return &m, nil
}

// WriteFile encodes m into a temporary file next to path and renames it into
// place.
func WriteFile(path string, m *Manifest) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "manifest-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err = Encode(f, m); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func ReadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
