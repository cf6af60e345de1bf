package symbols

import (
	"errors"
	"fmt"

	"qasm3/internal/ast"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

type EntryID uint32

const NoEntryID EntryID = 0

func (id EntryID) IsValid() bool { return id != NoEntryID }

// Scope is the scope flag of an entry.
type Scope uint8

const (
	ScopeGlobal Scope = iota + 1
	ScopeLocal
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeLocal:
		return "local"
	}
	return "none"
}

// MapKind names the map an entry lives in.
type MapKind uint8

const (
	MapGlobal MapKind = iota
	MapLocal
	MapQubit
	MapAngle
	MapFunction
	MapCalibration
	MapDefcal
	MapLiteral
	mapCount
)

func (m MapKind) String() string {
	switch m {
	case MapGlobal:
		return "global"
	case MapLocal:
		return "local"
	case MapQubit:
		return "qubit"
	case MapAngle:
		return "angle"
	case MapFunction:
		return "function"
	case MapCalibration:
		return "calibration"
	case MapDefcal:
		return "defcal"
	case MapLiteral:
		return "literal"
	}
	return "unknown"
}

var (
	// ErrNoValue is returned by ValueExpr for entries without a bound value.
	ErrNoValue = errors.New("symbol has no value")
	// ErrTypeChange is returned when a value would silently retype an entry.
	ErrTypeChange = errors.New("symbol value type change")
)

// Entry binds a name to its ident, type and optional value.
type Entry struct {
	ID    EntryID
	Name  string
	Ident ast.IdentID
	Type  types.Type
	Bits  uint32
	Value ast.ExprID
	Scope Scope
	Ctx   ast.ContextID
	Map   MapKind
	Const bool
	Span  source.Span

	// Hash is the defcal signature or literal content hash.
	Hash uint64

	erased   bool
	released bool
}

// ValueExpr returns the bound value expression or ErrNoValue.
func (e *Entry) ValueExpr() (ast.ExprID, error) {
	if e == nil || !e.Value.IsValid() {
		return ast.NoExprID, ErrNoValue
	}
	return e.Value, nil
}

// ValueType is the semantic type of the entry.
func (e *Entry) ValueType() types.Type {
	if e == nil {
		return types.Undefined
	}
	return e.Type
}

// SetValue binds value. Once an entry has a concrete type, a value of a
// different concrete type is refused.
func (e *Entry) SetValue(value ast.ExprID, typ types.Type) error {
	if e.Type != types.Undefined && typ != types.Undefined && typ != e.Type {
		return fmt.Errorf("%w: %q is %s, value is %s", ErrTypeChange, e.Name, e.Type, typ)
	}
	if e.Type == types.Undefined {
		e.Type = typ
	}
	e.Value = value
	return nil
}

// Live reports entries still reachable from the table maps.
func (e *Entry) Live() bool {
	return !e.erased && !e.released
}

func (e *Entry) Erased() bool   { return e.erased }
func (e *Entry) Released() bool { return e.released }
