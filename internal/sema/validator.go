package sema

import (
	"qasm3/internal/ast"
	"qasm3/internal/types"
)

// Predicate is one of the classification tables in package types.
type Predicate func(types.Type) bool

// Validator applies the type classification tables to nodes. Operator nodes
// are resolved through the Evaluator first; error nodes never satisfy a
// predicate.
type Validator struct {
	ev *Evaluator
}

func NewValidator(ev *Evaluator) *Validator {
	return &Validator{ev: ev}
}

// Expr resolves id to its leaf type and applies p.
func (v *Validator) Expr(id ast.ExprID, p Predicate) bool {
	t := v.ev.LeafType(id)
	if t == types.Error || t == types.Undefined {
		return false
	}
	return p(t)
}

// Ident applies p to the declared type of id.
func (v *Validator) Ident(id ast.IdentID, p Predicate) bool {
	ident := v.ev.b.Idents.Get(id)
	if ident == nil || !ident.Resolved() {
		return false
	}
	return p(ident.Type)
}

func (v *Validator) IsIntegerExpr(id ast.ExprID) bool    { return v.Expr(id, types.IsIntegerType) }
func (v *Validator) IsNumericExpr(id ast.ExprID) bool    { return v.Expr(id, types.IsNumericType) }
func (v *Validator) IsArithmeticExpr(id ast.ExprID) bool { return v.Expr(id, types.IsArithmeticType) }
func (v *Validator) IsAngleExpr(id ast.ExprID) bool      { return v.Expr(id, types.IsAngleType) }
func (v *Validator) IsTimeExpr(id ast.ExprID) bool       { return v.Expr(id, types.IsTimeType) }

// IsMutable reports whether id may be written after its declaration.
func (v *Validator) IsMutable(id ast.IdentID) bool {
	ident := v.ev.b.Idents.Get(id)
	return ident != nil && !ident.Const
}

// CanBeAssignedTo combines type assignability with mutability of the target.
func (v *Validator) CanBeAssignedTo(id ast.IdentID) bool {
	return v.Ident(id, types.IsAssignableType) && v.IsMutable(id)
}

// IsConstantExpr reports expressions built only from literals, built-in
// constants and const identifiers.
func (v *Validator) IsConstantExpr(id ast.ExprID) bool {
	exprs := v.ev.b.Exprs
	id = exprs.Unwrap(id)
	expr := exprs.Get(id)
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case ast.ExprLit:
		return true
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		ident := v.ev.b.Idents.Get(data.Ident)
		return ident != nil && ident.Const
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		return v.IsConstantExpr(data.Left) && v.IsConstantExpr(data.Right)
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		return v.IsConstantExpr(data.Operand)
	case ast.ExprCast:
		data, _ := exprs.Cast(id)
		return v.IsConstantExpr(data.Value)
	case ast.ExprImplicit:
		data, _ := exprs.Implicit(id)
		return v.IsConstantExpr(data.Value)
	}
	return false
}
