package ast

import (
	"math/big"

	"qasm3/internal/source"
	"qasm3/internal/types"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota + 1
	ExprIndexed
	ExprLit
	ExprBinary
	ExprUnary
	ExprCast
	ExprImplicit
	ExprGroup
	ExprCall
	ExprMeasure
	ExprDurationOf
	ExprError
)

func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "ident"
	case ExprIndexed:
		return "indexed"
	case ExprLit:
		return "literal"
	case ExprBinary:
		return "binary"
	case ExprUnary:
		return "unary"
	case ExprCast:
		return "cast"
	case ExprImplicit:
		return "implicit"
	case ExprGroup:
		return "group"
	case ExprCall:
		return "call"
	case ExprMeasure:
		return "measure"
	case ExprDurationOf:
		return "durationof"
	case ExprError:
		return "error"
	}
	return "unknown"
}

// Expr is the common header of every expression. Type is the node's own
// semantic type: a value type once resolved, or a wrapper tag for groups.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Type    types.Type
	Bits    uint32
	Payload PayloadID
	Mangled string
}

type ExprIdentData struct {
	Ident IdentID
}

type ExprIndexedData struct {
	Base  ExprID
	Index ExprID
	// View is the element ident registered for constant indices.
	View IdentID
}

type LitKind uint8

const (
	LitInt LitKind = iota + 1
	LitFloat
	LitBool
	LitString
	LitBitstring
	LitDuration
	LitConstant
)

// ExprLiteralData holds one literal. Only the field matching Kind is set.
type ExprLiteralData struct {
	Kind     LitKind
	Int      *big.Int
	Float    *big.Float
	Bool     bool
	Text     string // string, bitstring and constant name
	Duration Duration
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
	// Operand is the promoted operand type; Expr.Type is the result.
	Operand types.Type
}

type ExprUnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

type ExprCastData struct {
	Value  ExprID
	From   types.Type
	Method types.ConversionMethod
}

type ExprImplicitData struct {
	Value ExprID
	From  types.Type
	Valid bool
}

type ExprGroupData struct {
	Inner ExprID
}

type ExprCallData struct {
	Callee IdentID
	Args   []ExprID
}

type ExprMeasureData struct {
	Target ExprID
}

type ExprDurationOfData struct {
	Body ListID
}

// ExprErrorData remembers what the node was before it was marked erroneous.
type ExprErrorData struct {
	Msg     string
	Was     ExprKind
	WasType types.Type
}

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena       *Arena[Expr]
	Idents      *Arena[ExprIdentData]
	Indexed     *Arena[ExprIndexedData]
	Literals    *Arena[ExprLiteralData]
	Binaries    *Arena[ExprBinaryData]
	Unaries     *Arena[ExprUnaryData]
	Casts       *Arena[ExprCastData]
	Implicits   *Arena[ExprImplicitData]
	Groups      *Arena[ExprGroupData]
	Calls       *Arena[ExprCallData]
	Measures    *Arena[ExprMeasureData]
	DurationOfs *Arena[ExprDurationOfData]
	Errors      *Arena[ExprErrorData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:       NewArena[Expr](capHint),
		Idents:      NewArena[ExprIdentData](capHint),
		Indexed:     NewArena[ExprIndexedData](capHint / 4),
		Literals:    NewArena[ExprLiteralData](capHint),
		Binaries:    NewArena[ExprBinaryData](capHint),
		Unaries:     NewArena[ExprUnaryData](capHint / 4),
		Casts:       NewArena[ExprCastData](capHint / 4),
		Implicits:   NewArena[ExprImplicitData](capHint / 4),
		Groups:      NewArena[ExprGroupData](capHint / 4),
		Calls:       NewArena[ExprCallData](capHint / 4),
		Measures:    NewArena[ExprMeasureData](capHint / 4),
		DurationOfs: NewArena[ExprDurationOfData](capHint / 8),
		Errors:      NewArena[ExprErrorData](capHint / 8),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, typ types.Type, bits uint32, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Type:    typ,
		Bits:    bits,
		Payload: PayloadID(payload),
	}))
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payloadOf(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) NewIdent(span source.Span, ident IdentID, typ types.Type, bits uint32) ExprID {
	p := e.Idents.Allocate(ExprIdentData{Ident: ident})
	return e.new(ExprIdent, span, typ, bits, p)
}

func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	p, ok := e.payloadOf(id, ExprIdent)
	if !ok {
		return nil, false
	}
	return e.Idents.Get(p), true
}

func (e *Exprs) NewIndexed(span source.Span, base, index ExprID, view IdentID, typ types.Type, bits uint32) ExprID {
	p := e.Indexed.Allocate(ExprIndexedData{Base: base, Index: index, View: view})
	return e.new(ExprIndexed, span, typ, bits, p)
}

func (e *Exprs) IndexedData(id ExprID) (*ExprIndexedData, bool) {
	p, ok := e.payloadOf(id, ExprIndexed)
	if !ok {
		return nil, false
	}
	return e.Indexed.Get(p), true
}

func (e *Exprs) NewLiteral(span source.Span, typ types.Type, bits uint32, lit ExprLiteralData) ExprID {
	p := e.Literals.Allocate(lit)
	return e.new(ExprLit, span, typ, bits, p)
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	p, ok := e.payloadOf(id, ExprLit)
	if !ok {
		return nil, false
	}
	return e.Literals.Get(p), true
}

// NewBinary allocates an unresolved binary node; the evaluator sets the types.
func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	p := e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right})
	return e.new(ExprBinary, span, types.BinaryOp, 0, p)
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payloadOf(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

func (e *Exprs) NewUnary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	p := e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand})
	return e.new(ExprUnary, span, types.UnaryOp, 0, p)
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payloadOf(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

// NewCast records the cast target in the header; From and Method are filled
// in once the operand is resolved.
func (e *Exprs) NewCast(span source.Span, value ExprID, to types.Type, bits uint32) ExprID {
	p := e.Casts.Allocate(ExprCastData{Value: value})
	return e.new(ExprCast, span, to, bits, p)
}

func (e *Exprs) Cast(id ExprID) (*ExprCastData, bool) {
	p, ok := e.payloadOf(id, ExprCast)
	if !ok {
		return nil, false
	}
	return e.Casts.Get(p), true
}

func (e *Exprs) NewImplicit(span source.Span, value ExprID, from, to types.Type, bits uint32, valid bool) ExprID {
	p := e.Implicits.Allocate(ExprImplicitData{Value: value, From: from, Valid: valid})
	return e.new(ExprImplicit, span, to, bits, p)
}

func (e *Exprs) Implicit(id ExprID) (*ExprImplicitData, bool) {
	p, ok := e.payloadOf(id, ExprImplicit)
	if !ok {
		return nil, false
	}
	return e.Implicits.Get(p), true
}

// NewGroup wraps inner as a parenthesised operand. Its header type stays the
// OpndTy wrapper tag; consumers unwrap it.
func (e *Exprs) NewGroup(span source.Span, inner ExprID) ExprID {
	p := e.Groups.Allocate(ExprGroupData{Inner: inner})
	return e.new(ExprGroup, span, types.OpndTy, 0, p)
}

func (e *Exprs) Group(id ExprID) (*ExprGroupData, bool) {
	p, ok := e.payloadOf(id, ExprGroup)
	if !ok {
		return nil, false
	}
	return e.Groups.Get(p), true
}

func (e *Exprs) NewCall(span source.Span, callee IdentID, args []ExprID, result types.Type, bits uint32) ExprID {
	p := e.Calls.Allocate(ExprCallData{Callee: callee, Args: append([]ExprID(nil), args...)})
	return e.new(ExprCall, span, result, bits, p)
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payloadOf(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) NewMeasure(span source.Span, target ExprID, bits uint32) ExprID {
	p := e.Measures.Allocate(ExprMeasureData{Target: target})
	return e.new(ExprMeasure, span, types.Bitset, bits, p)
}

func (e *Exprs) Measure(id ExprID) (*ExprMeasureData, bool) {
	p, ok := e.payloadOf(id, ExprMeasure)
	if !ok {
		return nil, false
	}
	return e.Measures.Get(p), true
}

func (e *Exprs) NewDurationOf(span source.Span, body ListID) ExprID {
	p := e.DurationOfs.Allocate(ExprDurationOfData{Body: body})
	return e.new(ExprDurationOf, span, types.Duration, 64, p)
}

func (e *Exprs) DurationOf(id ExprID) (*ExprDurationOfData, bool) {
	p, ok := e.payloadOf(id, ExprDurationOf)
	if !ok {
		return nil, false
	}
	return e.DurationOfs.Get(p), true
}

// NewError allocates a fresh error node.
func (e *Exprs) NewError(span source.Span, msg string) ExprID {
	p := e.Errors.Allocate(ExprErrorData{Msg: msg})
	return e.new(ExprError, span, types.Error, 0, p)
}

// MarkError turns an existing node into an error node in place so that
// parents keep a valid reference.
func (e *Exprs) MarkError(id ExprID, msg string) {
	expr := e.Get(id)
	if expr == nil || expr.Kind == ExprError {
		return
	}
	p := e.Errors.Allocate(ExprErrorData{Msg: msg, Was: expr.Kind, WasType: expr.Type})
	expr.Kind = ExprError
	expr.Type = types.Error
	expr.Payload = PayloadID(p)
	expr.Mangled = ""
}

func (e *Exprs) ErrorData(id ExprID) (*ExprErrorData, bool) {
	p, ok := e.payloadOf(id, ExprError)
	if !ok {
		return nil, false
	}
	return e.Errors.Get(p), true
}

// IsError reports error nodes; an invalid ID counts as an error.
func (e *Exprs) IsError(id ExprID) bool {
	expr := e.Get(id)
	return expr == nil || expr.Kind == ExprError
}

// Unwrap strips parentheses.
func (e *Exprs) Unwrap(id ExprID) ExprID {
	for {
		g, ok := e.Group(id)
		if !ok {
			return id
		}
		id = g.Inner
	}
}
