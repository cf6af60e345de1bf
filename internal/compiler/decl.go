package compiler

import (
	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

// Decl describes a classical declaration such as "const int[32] n = 4;".
type Decl struct {
	Name  string
	Type  types.Type
	Bits  uint32
	Const bool
	Init  ast.ExprID
}

// Param is a typed parameter of a function, defcal or kernel.
type Param struct {
	Name string
	Type types.Type
	Bits uint32
}

func declarable(t types.Type) bool {
	switch {
	case !t.Valid(), t == types.Undefined, t == types.Void, t == types.Error:
		return false
	case types.IsWrapperType(t), types.IsControlType(t), types.IsCallableType(t):
		return false
	}
	return true
}

// width checks a written width designator and fills in the default.
func (u *Unit) width(span source.Span, t types.Type, bits uint32) uint32 {
	def := types.DefaultBits(t)
	if bits == 0 {
		return def
	}
	if !types.IsArbitraryWidthType(t) && bits != def {
		u.errorf(diag.SemaInvalidWidth, span, "type %s does not take a width designator", t).Emit()
		return def
	}
	return bits
}

// Declare builds a classical variable or constant declaration. Qubit types
// are routed to DeclareQubit.
func (u *Unit) Declare(span source.Span, d Decl) (ast.IdentID, ast.StmtID) {
	u.mustBuild()
	if types.IsQubitType(d.Type) {
		return u.DeclareQubit(span, d.Name, d.Bits)
	}
	u.settle()
	span = u.span(span)
	name := source.Canonical(d.Name)
	if !declarable(d.Type) {
		u.errorf(diag.SemaTypeMismatch, span, "cannot declare '%s' with type %s", name, d.Type).Emit()
		return ast.NoIdentID, ast.NoStmtID
	}
	typ := d.Type
	bits := u.width(span, typ, d.Bits)
	if d.Const && !types.CanBeConst(typ) {
		u.errorf(diag.SemaTypeMismatch, span, "type %s cannot be const", typ).Emit()
	}

	init := d.Init
	switch {
	case init.IsValid():
		if typ == types.Angle {
			u.Eval.OpenAngleArithmetic()
			u.reresolve(init)
			u.Eval.CloseAngleArithmetic()
		}
		init = u.convert(init, typ, bits, "initializer")
		if d.Const && !u.anyError(init) && !u.Valid.IsConstantExpr(init) {
			u.errorf(diag.SemaNonConstInit, span, "const '%s' needs a constant initializer", name).Emit()
		}
	case d.Const:
		u.errorf(diag.SemaConstWithoutInit, span, "const '%s' has no initializer", name).Emit()
	}

	ident := u.newIdent(name, span, typ, bits)
	u.B.Idents.Get(ident).Const = d.Const
	if entry, ok := u.bind(ident); ok && init.IsValid() && !u.anyError(init) {
		if err := u.Table.Get(entry).SetValue(init, typ); err != nil {
			u.ice(diag.ICETableInsert, span, "binding the initializer of '%s': %v", name, err)
		}
	}
	stmt := u.B.Stmts.NewDecl(span, typ, ident, init, d.Const)
	u.emit(stmt)
	return ident, stmt
}

// reresolve types an already built tree again, after the angle window
// changed.
func (u *Unit) reresolve(id ast.ExprID) {
	exprs := u.B.Exprs
	id = exprs.Unwrap(id)
	expr := exprs.Get(id)
	if expr == nil || expr.Kind == ast.ExprError {
		return
	}
	switch expr.Kind {
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		u.reresolve(data.Left)
		u.reresolve(data.Right)
		if !u.Eval.ResolveBinary(id) {
			exprs.MarkError(id, "invalid operands to '"+data.Op.String()+"'")
		}
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		u.reresolve(data.Operand)
		if !u.Eval.ResolveUnary(id) {
			exprs.MarkError(id, "invalid operand to '"+data.Op.String()+"'")
		}
	case ast.ExprCast:
		data, _ := exprs.Cast(id)
		u.reresolve(data.Value)
	case ast.ExprImplicit:
		data, _ := exprs.Implicit(id)
		u.reresolve(data.Value)
	}
}

// convert makes value usable where a to[bits] is expected. Equal types pass
// through; widening conversions and constant expressions that can be cast
// get an implicit conversion node; anything else is a type mismatch.
func (u *Unit) convert(value ast.ExprID, to types.Type, bits uint32, what string) ast.ExprID {
	if u.anyError(value) {
		return value
	}
	exprs := u.B.Exprs
	inner := exprs.Get(exprs.Unwrap(value))
	span := inner.Span
	from := u.Eval.LeafType(value)

	if inner.Kind == ast.ExprMeasure {
		switch to {
		case types.Bitset:
			if inner.Bits != bits {
				u.errorf(diag.SemaTypeMismatch, span, "measurement of %d qubits stored in bit[%d]", inner.Bits, bits).Emit()
				return u.fail(exprs.NewImplicit(span, value, from, to, bits, false), "width mismatch")
			}
			return value
		case types.Angle:
			u.warnf(diag.SemaMeasureIntoAngle, span, "measurement result stored in an angle may lose precision").Emit()
			return exprs.NewImplicit(span, value, from, to, bits, true)
		default:
			u.errorf(diag.SemaMeasureTarget, span, "measurement result cannot be stored in %s", to).Emit()
			return u.fail(exprs.NewImplicit(span, value, from, to, bits, false), "bad measure target")
		}
	}

	if from == to {
		return value
	}
	if u.Casts.CanImplicitConvert(value, to) {
		return exprs.NewImplicit(span, value, from, to, bits, true)
	}
	if u.Valid.IsConstantExpr(value) && u.Casts.CanCast(value, to) {
		if u.Casts.ResolveConversionMethod(value, to) == types.Truncation {
			u.warnf(diag.SemaCastTruncation, span, "%s of type %s is truncated to %s", what, from, to).Emit()
		}
		return exprs.NewImplicit(span, value, from, to, bits, true)
	}
	u.errorf(diag.SemaTypeMismatch, span, "%s of type %s does not match %s", what, from, to).Emit()
	return u.fail(exprs.NewImplicit(span, value, from, to, bits, false), "type mismatch")
}

// DeclareQubit declares "qubit q;" (size 0) or "qubit[size] q;".
func (u *Unit) DeclareQubit(span source.Span, name string, size uint32) (ast.IdentID, ast.StmtID) {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	name = source.Canonical(name)
	if !u.Ctx.InGlobal() {
		u.errorf(diag.SemaQubitNotGlobal, span, "qubit '%s' must be declared in the global scope", name).Emit()
	}
	typ, bits := types.Qubit, uint32(1)
	if size > 0 {
		typ, bits = types.QubitContainer, size
	}
	ident := u.newIdent(name, span, typ, bits)
	u.bind(ident)
	stmt := u.B.Stmts.NewDecl(span, typ, ident, ast.NoExprID, false)
	u.emit(stmt)
	return ident, stmt
}

// DeclareAlias declares "let name = target;" over qubits.
func (u *Unit) DeclareAlias(span source.Span, name string, target ast.ExprID) (ast.IdentID, ast.StmtID) {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	name = source.Canonical(name)
	bits := uint32(0)
	if !u.anyError(target) {
		if !u.Valid.Expr(target, types.IsQubitType) {
			u.errorf(diag.SemaTypeMismatch, span, "alias '%s' must refer to qubits, found %s", name, u.Eval.LeafType(target)).Emit()
		}
		bits = u.B.Exprs.Get(u.B.Exprs.Unwrap(target)).Bits
	}
	ident := u.newIdent(name, span, types.QubitContainerAlias, bits)
	if entry, ok := u.bind(ident); ok && !u.anyError(target) {
		if err := u.Table.Get(entry).SetValue(target, types.QubitContainerAlias); err != nil {
			u.ice(diag.ICETableInsert, span, "binding alias '%s': %v", name, err)
		}
	}
	stmt := u.B.Stmts.NewDecl(span, types.QubitContainerAlias, ident, target, false)
	u.emit(stmt)
	return ident, stmt
}

// DeclareArray declares "array[elem[bits], length] name;".
func (u *Unit) DeclareArray(span source.Span, name string, elem types.Type, elemBits, length uint32) (ast.IdentID, ast.StmtID) {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	name = source.Canonical(name)
	arr, ok := types.ArrayOf(elem)
	if !ok || !types.CanBeArrayType(elem) || types.IsQubitType(elem) {
		u.errorf(diag.SemaInvalidArrayElement, span, "%s cannot be an array element", elem).Emit()
		return ast.NoIdentID, ast.NoStmtID
	}
	if length == 0 {
		u.errorf(diag.SemaInvalidWidth, span, "array '%s' must have a positive length", name).Emit()
	}
	ident := u.newIdent(name, span, arr, u.width(span, elem, elemBits))
	u.lengths[ident] = length
	u.bind(ident)
	stmt := u.B.Stmts.NewDecl(span, arr, ident, ast.NoExprID, false)
	u.emit(stmt)
	return ident, stmt
}
