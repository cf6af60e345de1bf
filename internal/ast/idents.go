package ast

import (
	"qasm3/internal/source"
	"qasm3/internal/types"
)

// ComplexPart marks idents that name the real or imaginary half of a complex
// value. Such idents share storage with their parent.
type ComplexPart uint8

const (
	PartNone ComplexPart = iota
	PartReal
	PartImag
)

// Ident is a declared name: a variable, register, gate, function, parameter,
// or an element view of a register such as q[3].
type Ident struct {
	Name    source.StringID
	Span    source.Span
	Type    types.Type
	Bits    uint32
	Const   bool
	Mangled string

	// Element views: Base is the container, Index the element.
	Base    IdentID
	Index   uint32
	Indexed bool
	Part    ComplexPart
}

// IsView reports idents whose storage belongs to another ident.
func (id *Ident) IsView() bool {
	return id.Indexed || id.Part != PartNone
}

// Resolved reports whether the ident carries a concrete value type.
func (id *Ident) Resolved() bool {
	return id.Type != types.Undefined && id.Type != types.Error && !types.IsWrapperType(id.Type)
}

type Idents struct {
	Arena *Arena[Ident]
}

func NewIdents(capHint uint) *Idents {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Idents{Arena: NewArena[Ident](capHint)}
}

func (i *Idents) New(name source.StringID, span source.Span, typ types.Type, bits uint32) IdentID {
	return IdentID(i.Arena.Allocate(Ident{Name: name, Span: span, Type: typ, Bits: bits}))
}

// NewView allocates the ident for element index of base.
func (i *Idents) NewView(base IdentID, name source.StringID, span source.Span, typ types.Type, index uint32) IdentID {
	return IdentID(i.Arena.Allocate(Ident{
		Name: name, Span: span, Type: typ, Bits: 1,
		Base: base, Index: index, Indexed: true,
	}))
}

func (i *Idents) NewPart(base IdentID, name source.StringID, span source.Span, part ComplexPart) IdentID {
	return IdentID(i.Arena.Allocate(Ident{
		Name: name, Span: span, Type: types.Double, Bits: 64,
		Base: base, Part: part,
	}))
}

func (i *Idents) Get(id IdentID) *Ident {
	return i.Arena.Get(uint32(id))
}
