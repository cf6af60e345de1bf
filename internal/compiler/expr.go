package compiler

import (
	"math"
	"math/big"
	"strings"

	"qasm3/internal/ast"
	"qasm3/internal/ctrlflow"
	"qasm3/internal/diag"
	"qasm3/internal/sema"
	"qasm3/internal/source"
	"qasm3/internal/symbols"
	"qasm3/internal/types"
)

// anyError reports whether one of ids is an error node.
func (u *Unit) anyError(ids ...ast.ExprID) bool {
	for _, id := range ids {
		if u.B.Exprs.IsError(u.B.Exprs.Unwrap(id)) {
			return true
		}
	}
	return false
}

// fail turns id into an error node carrying msg.
func (u *Unit) fail(id ast.ExprID, msg string) ast.ExprID {
	u.B.Exprs.MarkError(id, msg)
	return id
}

// Ident builds a reference to a declared name.
func (u *Unit) Ident(span source.Span, name string) ast.ExprID {
	u.mustBuild()
	name = source.Canonical(name)
	e := u.Table.Lookup(name)
	if e == nil {
		u.errorf(diag.SemaUndeclaredIdentifier, span, "use of undeclared identifier '%s'", name).Emit()
		return u.B.Exprs.NewError(u.span(span), "undeclared "+name)
	}
	return u.B.Exprs.NewIdent(u.span(span), e.Ident, e.Type, e.Bits)
}

// element returns the type and width of one element of a value of type t.
func elementOf(t types.Type, bits uint32) (types.Type, uint32, bool) {
	switch {
	case t == types.QubitContainer, t == types.QubitContainerAlias:
		return types.Qubit, 1, true
	case types.IsNonArrayIndexableType(t):
		return types.Bitset, 1, true
	case types.IsArrayType(t):
		return types.ElemOf(t), bits, true
	}
	return types.Undefined, 0, false
}

// IndexedIdent builds base[index]. A constant index into a declared name registers
// the element view ("q[3]") with the symbol table.
func (u *Unit) IndexedIdent(span source.Span, base, index ast.ExprID) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	if u.anyError(base, index) {
		return u.fail(u.B.Exprs.NewIndexed(span, base, index, ast.NoIdentID, types.Error, 0), "operand error")
	}
	bt := u.Eval.LeafType(base)
	baseBits := u.B.Exprs.Get(u.B.Exprs.Unwrap(base)).Bits
	elem, elemBits, ok := elementOf(bt, baseBits)
	if !ok {
		u.errorf(diag.SemaNotIndexable, span, "type %s cannot be indexed", bt).Emit()
		return u.fail(u.B.Exprs.NewIndexed(span, base, index, ast.NoIdentID, types.Error, 0), "not indexable")
	}
	if !u.Valid.IsIntegerExpr(index) && u.Eval.LeafType(index) != types.Bool {
		u.errorf(diag.SemaTypeMismatch, span, "index must be an integer, found %s", u.Eval.LeafType(index)).Emit()
		return u.fail(u.B.Exprs.NewIndexed(span, base, index, ast.NoIdentID, elem, elemBits), "bad index")
	}

	view := ast.NoIdentID
	data, isIdent := u.B.Exprs.Ident(u.B.Exprs.Unwrap(base))
	if v, err := u.Eval.ConstInt(index); err == nil && v.IsInt64() {
		size := int64(baseBits)
		if types.IsArrayType(bt) && isIdent {
			size = int64(u.lengths[data.Ident])
		}
		idx := v.Int64()
		if idx < 0 {
			idx += size
		}
		if idx < 0 || idx >= size {
			u.errorf(diag.SemaIndexOutOfRange, span, "index %s is out of range for size %d", v, size).Emit()
			return u.fail(u.B.Exprs.NewIndexed(span, base, index, ast.NoIdentID, elem, elemBits), "index out of range")
		}
		if isIdent {
			view = u.viewOf(data.Ident, uint32(idx), span, elem, elemBits)
		}
	}
	return u.B.Exprs.NewIndexed(span, base, index, view, elem, elemBits)
}

// viewOf returns the element view ident of base at index, creating it and
// its table entry on first use.
func (u *Unit) viewOf(base ast.IdentID, index uint32, span source.Span, elem types.Type, bits uint32) ast.IdentID {
	key := viewKey{base: base, index: index}
	if id, ok := u.views[key]; ok {
		return id
	}
	baseName := u.B.Name(base)
	name := symbols.ViewName(baseName, index)
	if u.B.Idents.Get(base).Type == types.QubitContainerAlias {
		name = symbols.AliasViewName(baseName, index)
	}
	id := u.B.Idents.NewView(base, u.B.Strings.Intern(name), span, elem, index)
	view := u.B.Idents.Get(id)
	view.Bits = bits
	view.Const = u.B.Idents.Get(base).Const
	if entry := u.entries[base]; entry.IsValid() {
		if e := u.Table.CreateView(entry, name, id, elem, bits); e.IsValid() {
			u.entries[id] = e
		}
	}
	u.views[key] = id
	return id
}

// Part builds the real or imaginary half of a complex name.
func (u *Unit) Part(span source.Span, base ast.ExprID, part ast.ComplexPart) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	data, ok := u.B.Exprs.Ident(u.B.Exprs.Unwrap(base))
	if !ok || u.Eval.LeafType(base) != types.MPComplex {
		u.errorf(diag.SemaTypeMismatch, span, "only complex values have real and imaginary parts").Emit()
		return u.B.Exprs.NewError(span, "not complex")
	}
	suffix := ".real"
	if part == ast.PartImag {
		suffix = ".imag"
	}
	name := u.B.Name(data.Ident) + suffix
	id := u.B.Idents.NewPart(data.Ident, u.B.Strings.Intern(name), span, part)
	if entry := u.entries[data.Ident]; entry.IsValid() {
		if e := u.Table.CreateView(entry, name, id, types.Double, 64); e.IsValid() {
			u.entries[id] = e
			id = u.Table.Get(e).Ident
		}
	}
	return u.B.Exprs.NewIdent(span, id, types.Double, 64)
}

// IntLit parses an integer literal. Decimal, 0x, 0o and 0b forms with
// underscores are accepted.
func (u *Unit) IntLit(span source.Span, text string) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	v, ok := new(big.Int).SetString(text, 0)
	if !ok {
		u.errorf(diag.SemaTypeMismatch, span, "malformed integer literal '%s'", text).Emit()
		return u.B.Exprs.NewError(span, "bad integer literal")
	}
	typ, bits := types.Int, uint32(32)
	switch n := v.BitLen(); {
	case n >= 64:
		typ, bits = types.MPInteger, uint32(n+1)
	case n >= 32:
		bits = 64
	}
	return u.B.Exprs.NewLiteral(span, typ, bits, ast.ExprLiteralData{Kind: ast.LitInt, Int: v})
}

func (u *Unit) FloatLit(span source.Span, text string) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	v, ok := new(big.Float).SetPrec(64).SetString(strings.ReplaceAll(text, "_", ""))
	if !ok {
		u.errorf(diag.SemaTypeMismatch, span, "malformed float literal '%s'", text).Emit()
		return u.B.Exprs.NewError(span, "bad float literal")
	}
	return u.B.Exprs.NewLiteral(span, types.Double, 64, ast.ExprLiteralData{Kind: ast.LitFloat, Float: v})
}

func (u *Unit) BoolLit(span source.Span, v bool) ast.ExprID {
	u.mustBuild()
	return u.B.Exprs.NewLiteral(u.span(span), types.Bool, 1, ast.ExprLiteralData{Kind: ast.LitBool, Bool: v})
}

func (u *Unit) StringLit(span source.Span, text string) ast.ExprID {
	u.mustBuild()
	return u.B.Exprs.NewLiteral(u.span(span), types.StringLiteral, uint32(8*len(text)),
		ast.ExprLiteralData{Kind: ast.LitString, Text: text})
}

// BitstringLit builds "0101"-style literals; the width is the digit count.
func (u *Unit) BitstringLit(span source.Span, text string) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	digits := strings.ReplaceAll(text, "_", "")
	if digits == "" || strings.Trim(digits, "01") != "" {
		u.errorf(diag.SemaTypeMismatch, span, "malformed bitstring literal \"%s\"", text).Emit()
		return u.B.Exprs.NewError(span, "bad bitstring")
	}
	return u.B.Exprs.NewLiteral(span, types.Bitset, uint32(len(digits)),
		ast.ExprLiteralData{Kind: ast.LitBitstring, Text: digits})
}

// DurationLit builds a duration literal. A malformed one keeps its text in
// an invalid Duration and the node becomes an error.
func (u *Unit) DurationLit(span source.Span, text string) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	d, err := ast.ParseDuration(text)
	id := u.B.Exprs.NewLiteral(span, types.Duration, 64, ast.ExprLiteralData{Kind: ast.LitDuration, Duration: d})
	if err != nil {
		u.errorf(diag.SemaInvalidDuration, span, "%v", err).Emit()
		return u.fail(id, err.Error())
	}
	return id
}

var builtinConstants = map[string]struct {
	name  string
	value float64
}{
	"pi": {"pi", math.Pi}, "π": {"pi", math.Pi},
	"tau": {"tau", 2 * math.Pi}, "τ": {"tau", 2 * math.Pi},
	"euler": {"euler", math.E}, "ℇ": {"euler", math.E},
}

// Constant builds one of the built-in constants pi, tau and euler.
func (u *Unit) Constant(span source.Span, name string) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	c, ok := builtinConstants[source.Canonical(name)]
	if !ok {
		u.errorf(diag.SemaUndeclaredIdentifier, span, "unknown constant '%s'", name).Emit()
		return u.B.Exprs.NewError(span, "unknown constant")
	}
	return u.B.Exprs.NewLiteral(span, types.Double, 64, ast.ExprLiteralData{
		Kind:  ast.LitConstant,
		Text:  c.name,
		Float: big.NewFloat(c.value),
	})
}

func (u *Unit) Group(span source.Span, inner ast.ExprID) ast.ExprID {
	u.mustBuild()
	return u.B.Exprs.NewGroup(u.span(span), inner)
}

// Binary builds and resolves left op right.
func (u *Unit) Binary(span source.Span, op ast.BinaryOp, left, right ast.ExprID) ast.ExprID {
	u.mustBuild()
	id := u.B.Exprs.NewBinary(u.span(span), op, left, right)
	if u.anyError(left, right) {
		return u.fail(id, "operand error")
	}
	if !u.Eval.ResolveBinary(id) {
		return u.fail(id, "invalid operands to '"+op.String()+"'")
	}
	if op == ast.BinDiv || op == ast.BinMod {
		if v, err := u.Eval.ConstInt(right); err == nil && v.Sign() == 0 {
			u.errorf(diag.SemaDivisionByZeroConstant, span, "division by zero").Emit()
			return u.fail(id, sema.ErrDivisionByZero.Error())
		}
	}
	return id
}

func (u *Unit) Unary(span source.Span, op ast.UnaryOp, operand ast.ExprID) ast.ExprID {
	u.mustBuild()
	id := u.B.Exprs.NewUnary(u.span(span), op, operand)
	if u.anyError(operand) {
		return u.fail(id, "operand error")
	}
	if !u.Eval.ResolveUnary(id) {
		return u.fail(id, "invalid operand to '"+op.String()+"'")
	}
	return id
}

// Cast builds to[bits](value). A zero width takes the type's default.
func (u *Unit) Cast(span source.Span, value ast.ExprID, to types.Type, bits uint32) ast.ExprID {
	u.mustBuild()
	if bits == 0 {
		bits = types.DefaultBits(to)
	}
	id := u.B.Exprs.NewCast(u.span(span), value, to, bits)
	if !u.Eval.ResolveCast(id) {
		return u.fail(id, "bad cast")
	}
	return id
}

// ImplicitConversion wraps value in a conversion to to. Only conversions the
// implicit table allows are valid.
func (u *Unit) ImplicitConversion(span source.Span, value ast.ExprID, to types.Type, bits uint32) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	if bits == 0 {
		bits = types.DefaultBits(to)
	}
	from := u.Eval.LeafType(value)
	valid := from != types.Error && u.Casts.CanImplicitConvert(value, to)
	id := u.B.Exprs.NewImplicit(span, value, from, to, bits, valid)
	if from == types.Error {
		return u.fail(id, "operand error")
	}
	if !valid {
		u.errorf(diag.SemaInvalidImplicitConv, span, "%s does not convert implicitly to %s", from, to).Emit()
		return u.fail(id, "invalid implicit conversion")
	}
	return id
}

// Call builds a call of a function or extern kernel.
func (u *Unit) Call(span source.Span, name string, args []ast.ExprID) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	name = source.Canonical(name)
	e := u.Table.Lookup(name)
	if e == nil {
		u.errorf(diag.SemaUndeclaredIdentifier, span, "call of undeclared '%s'", name).Emit()
		return u.B.Exprs.NewError(span, "undeclared "+name)
	}
	sig, ok := u.sigs[e.Ident]
	if !ok || (sig.kind != types.Function && sig.kind != types.Kernel) {
		u.errorf(diag.SemaNotCallable, span, "'%s' is a %s, not a function", name, e.Type).
			WithNote(e.Span, "declared here").Emit()
		return u.B.Exprs.NewError(span, "not callable")
	}
	result, bits := sig.result, sig.bits
	if result == types.Undefined {
		result = types.Void
	}
	if len(args) != len(sig.params) {
		u.errorf(diag.SemaCallArity, span, "'%s' takes %d arguments, %d given", name, len(sig.params), len(args)).Emit()
		return u.fail(u.B.Exprs.NewCall(span, e.Ident, args, result, bits), "arity")
	}
	conv := make([]ast.ExprID, len(args))
	bad := false
	for i, arg := range args {
		pt := sig.params[i]
		if types.IsQubitType(pt) {
			conv[i] = arg
			if !u.anyError(arg) && !u.Valid.Expr(arg, types.IsQubitType) {
				u.errorf(diag.SemaTypeMismatch, span, "argument %d of '%s' must be a qubit", i+1, name).Emit()
				bad = true
			}
			continue
		}
		conv[i] = u.convert(arg, pt, types.DefaultBits(pt), "argument")
		bad = bad || u.anyError(conv[i])
	}
	id := u.B.Exprs.NewCall(span, e.Ident, conv, result, bits)
	if bad {
		return u.fail(id, "bad argument")
	}
	return id
}

// Measure builds measure target. The result is a bit string as wide as the
// measured register.
func (u *Unit) Measure(span source.Span, target ast.ExprID) ast.ExprID {
	u.mustBuild()
	span = u.span(span)
	bits := uint32(1)
	if t := u.B.Exprs.Get(u.B.Exprs.Unwrap(target)); t != nil && t.Bits > 0 {
		bits = t.Bits
	}
	id := u.B.Exprs.NewMeasure(span, target, bits)
	if u.anyError(target) {
		return u.fail(id, "operand error")
	}
	if !u.Valid.Expr(target, types.IsQubitType) {
		u.errorf(diag.SemaMeasureTarget, span, "only qubits can be measured, found %s", u.Eval.LeafType(target)).Emit()
		return u.fail(id, "measure of a non-qubit")
	}
	return id
}

// BeginDurationOf opens the body of durationof({ ... }).
func (u *Unit) BeginDurationOf(span source.Span) {
	u.mustBuild()
	u.settle()
	ctx := u.Ctx.CreateContext(types.Box, ast.NoStmtID)
	list := u.Flow.Lists.Open()
	u.Flow.Braces.Left(ctrlflow.BraceBlock)
	u.blocks = append(u.blocks, block{kind: types.Box, ctx: ctx, list: list, brace: ctrlflow.BraceBlock, braced: true, span: u.span(span)})
}

// EndDurationOf closes the body and returns the durationof expression.
func (u *Unit) EndDurationOf() ast.ExprID {
	u.mustBuild()
	bl, ok := u.closeBlock(types.Box)
	if !ok {
		return u.B.Exprs.NewError(source.NoSpan, "unbalanced durationof")
	}
	u.Table.EraseContext(bl.ctx)
	return u.B.Exprs.NewDurationOf(bl.span, bl.list)
}
