package sema

import (
	"errors"
	"testing"

	"qasm3/internal/ast"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

func TestCanBeAssignedToKeepsChecksApart(t *testing.T) {
	f := newFixture()
	v := NewValidator(f.ev)
	mut := f.b.Idents.New(f.b.Strings.Intern("m"), source.NoSpan, types.Int, 32)
	k := f.b.Idents.New(f.b.Strings.Intern("k"), source.NoSpan, types.Int, 32)
	f.b.Idents.Get(k).Const = true
	q := f.b.Idents.New(f.b.Strings.Intern("q"), source.NoSpan, types.Qubit, 1)

	if !v.CanBeAssignedTo(mut) {
		t.Fatalf("mutable int must be assignable")
	}
	if v.CanBeAssignedTo(k) || !v.Ident(k, types.IsAssignableType) || v.IsMutable(k) {
		t.Fatalf("const int: type check and mutability check got mixed")
	}
	if v.CanBeAssignedTo(q) || !v.IsMutable(q) {
		t.Fatalf("qubit: type assignability must fail on its own")
	}
}

func TestValidatorResolvesOperators(t *testing.T) {
	f := newFixture()
	v := NewValidator(f.ev)
	sum := f.b.Exprs.NewBinary(source.NoSpan, ast.BinAdd, f.ident("i", types.Int, 32), f.ident("u", types.UInt, 32))
	if !v.IsIntegerExpr(sum) || !v.IsNumericExpr(sum) || v.IsAngleExpr(sum) {
		t.Fatalf("int + uint must classify as an integer")
	}
	bad := f.b.Exprs.NewError(source.NoSpan, "x")
	if v.IsArithmeticExpr(bad) {
		t.Fatalf("error nodes satisfy no predicate")
	}
	if !v.IsTimeExpr(f.ident("d", types.Duration, 64)) {
		t.Fatalf("duration is a time type")
	}
}

func TestConstantFolding(t *testing.T) {
	f := newFixture()
	v := NewValidator(f.ev)
	k, kRef := f.constIdent("k", types.Int)
	kVal := f.intLit(5)
	f.ev.SetConstResolver(func(id ast.IdentID) (ast.ExprID, bool) {
		if id == k {
			return kVal, true
		}
		return ast.NoExprID, false
	})

	sum := f.b.Exprs.NewBinary(source.NoSpan, ast.BinAdd, f.intLit(3), kRef)
	prod := f.b.Exprs.NewBinary(source.NoSpan, ast.BinMul, f.b.Exprs.NewGroup(source.NoSpan, sum), f.intLit(2))
	got, err := f.ev.ConstInt(prod)
	if err != nil || got.Int64() != 16 {
		t.Fatalf("(3 + k) * 2 = %v, %v", got, err)
	}
	if !v.IsConstantExpr(prod) {
		t.Fatalf("literal arithmetic must be constant")
	}

	div := f.b.Exprs.NewBinary(source.NoSpan, ast.BinDiv, f.intLit(1), f.intLit(0))
	if _, err := f.ev.ConstInt(div); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("1 / 0: %v", err)
	}

	x := f.ident("x", types.Int, 32)
	if _, err := f.ev.ConstInt(x); !errors.Is(err, ErrNotConstant) {
		t.Fatalf("mutable ident folded: %v", err)
	}
	if v.IsConstantExpr(x) {
		t.Fatalf("mutable ident is not constant")
	}
	neg := f.b.Exprs.NewUnary(source.NoSpan, ast.UnNeg, f.intLit(7))
	if got, err := f.ev.ConstInt(neg); err != nil || got.Int64() != -7 {
		t.Fatalf("-7 = %v, %v", got, err)
	}
}
