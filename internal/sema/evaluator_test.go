package sema

import (
	"math/big"
	"strings"
	"testing"

	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

type fixture struct {
	b   *ast.Builder
	bag *diag.Bag
	ev  *Evaluator
}

func newFixture() *fixture {
	b := ast.NewBuilder(ast.Hints{}, nil)
	bag := diag.NewBag(0)
	return &fixture{b: b, bag: bag, ev: NewEvaluator(b, diag.BagReporter{Bag: bag})}
}

func (f *fixture) ident(name string, typ types.Type, bits uint32) ast.ExprID {
	id := f.b.Idents.New(f.b.Strings.Intern(name), source.NoSpan, typ, bits)
	return f.b.Exprs.NewIdent(source.NoSpan, id, typ, bits)
}

func (f *fixture) constIdent(name string, typ types.Type) (ast.IdentID, ast.ExprID) {
	id := f.b.Idents.New(f.b.Strings.Intern(name), source.NoSpan, typ, 32)
	f.b.Idents.Get(id).Const = true
	return id, f.b.Exprs.NewIdent(source.NoSpan, id, typ, 32)
}

func (f *fixture) intLit(v int64) ast.ExprID {
	return f.b.Exprs.NewLiteral(source.NoSpan, types.Int, 32, ast.ExprLiteralData{Kind: ast.LitInt, Int: big.NewInt(v)})
}

func TestIntPlusFloatIsFloat(t *testing.T) {
	f := newFixture()
	x := f.ident("x", types.Int, 32)
	y := f.ident("y", types.Float, 32)
	sum := f.b.Exprs.NewBinary(source.NoSpan, ast.BinAdd, x, y)

	if got := f.ev.EvaluatesTo(sum); got != types.Float {
		t.Fatalf("int + float evaluated to %s", got)
	}
	if !f.ev.ResolveBinary(sum) {
		t.Fatalf("resolve failed: %v", f.bag.Items())
	}
	if expr := f.b.Exprs.Get(sum); expr.Type != types.Float || expr.Bits != 32 {
		t.Fatalf("header = %s/%d", expr.Type, expr.Bits)
	}
}

func TestComparisonNodeIsBool(t *testing.T) {
	f := newFixture()
	lt := f.b.Exprs.NewBinary(source.NoSpan, ast.BinLt, f.ident("x", types.Int, 32), f.ident("y", types.Double, 64))
	if !f.ev.ResolveBinary(lt) {
		t.Fatalf("resolve failed")
	}
	data, _ := f.b.Exprs.Binary(lt)
	if f.b.Exprs.Get(lt).Type != types.Bool || data.Operand != types.Double {
		t.Fatalf("got node %s operand %s", f.b.Exprs.Get(lt).Type, data.Operand)
	}
}

func TestRankSymmetryForCommutativeOps(t *testing.T) {
	var ranked []types.Type
	for _, typ := range types.All() {
		if types.HasRank(typ) {
			ranked = append(ranked, typ)
		}
	}
	ops := []ast.BinaryOp{ast.BinAdd, ast.BinMul, ast.BinEq}
	for _, a := range ranked {
		for _, b := range ranked {
			for _, op := range ops {
				f := newFixture()
				ab := f.ev.EvaluatesTo(f.b.Exprs.NewBinary(source.NoSpan, op, f.ident("a", a, 8), f.ident("b", b, 8)))
				ba := f.ev.EvaluatesTo(f.b.Exprs.NewBinary(source.NoSpan, op, f.ident("b", b, 8), f.ident("a", a, 8)))
				if ab != ba {
					t.Fatalf("%s %s %s = %s but reversed = %s", a, op, b, ab, ba)
				}
				if ab == types.Undefined || a == types.Angle || b == types.Angle {
					continue
				}
				if types.RankOf(ab) < types.RankOf(a) || types.RankOf(ab) < types.RankOf(b) {
					t.Fatalf("%s %s %s = %s is below an operand rank", a, op, b, ab)
				}
			}
		}
	}
}

func TestAngleArithmeticWindow(t *testing.T) {
	f := newFixture()
	mk := func(op ast.BinaryOp, l, r types.Type) ast.ExprID {
		return f.b.Exprs.NewBinary(source.NoSpan, op, f.ident("l", l, 32), f.ident("r", r, 32))
	}
	if got := f.ev.EvaluatesTo(mk(ast.BinMul, types.Angle, types.Int)); got != types.Double {
		t.Fatalf("closed window: angle * int = %s", got)
	}
	f.ev.OpenAngleArithmetic()
	if got := f.ev.EvaluatesTo(mk(ast.BinMul, types.Int, types.Angle)); got != types.Angle {
		t.Fatalf("open window: int * angle = %s", got)
	}
	f.ev.CloseAngleArithmetic()
	if got := f.ev.EvaluatesTo(mk(ast.BinSub, types.Angle, types.Angle)); got != types.Angle {
		t.Fatalf("angle - angle = %s", got)
	}
	if f.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", f.bag.Items())
	}
	if got := f.ev.EvaluatesTo(mk(ast.BinLt, types.Angle, types.Angle)); got != types.Undefined {
		t.Fatalf("angle < angle = %s", got)
	}
	if got := f.ev.EvaluatesTo(mk(ast.BinMod, types.Angle, types.Int)); got != types.Undefined {
		t.Fatalf("angle %% int = %s", got)
	}
	if f.bag.CountExact(diag.SevError) != 2 || !f.bag.HasCode(diag.SemaAngleOperator) {
		t.Fatalf("expected two angle operator errors, got %v", f.bag.Items())
	}
}

func TestPromotedResultTakesDeclarationWidth(t *testing.T) {
	f := newFixture()
	mul := f.b.Exprs.NewBinary(source.NoSpan, ast.BinMul, f.ident("a", types.Angle, 16), f.ident("n", types.Int, 32))
	if !f.ev.ResolveBinary(mul) {
		t.Fatalf("resolve failed: %v", f.bag.Items())
	}
	want := types.DefaultBits(types.Double)
	if expr := f.b.Exprs.Get(mul); expr.Type != types.Double || expr.Bits != want {
		t.Fatalf("angle * int header = %s/%d, want double/%d", expr.Type, expr.Bits, want)
	}
	for _, typ := range types.All() {
		if got, want := defaultBits(typ), types.DefaultBits(typ); got != want {
			t.Fatalf("result width of %s = %d, declaration width %d", typ, got, want)
		}
	}
}

func TestAngleWindowUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	newFixture().ev.CloseAngleArithmetic()
}

func TestOpenPulseArithmeticIsRejected(t *testing.T) {
	f := newFixture()
	e := f.b.Exprs.NewBinary(source.NoSpan, ast.BinAdd, f.ident("fr", types.OpenPulseFrame, 0), f.ident("n", types.Int, 32))
	if got := f.ev.EvaluatesTo(e); got != types.Undefined {
		t.Fatalf("frame + int = %s", got)
	}
	if !f.bag.HasCode(diag.SemaOpenPulseArithmetic) {
		t.Fatalf("missing openpulse diagnostic")
	}
}

func TestUnresolvableRankIsError(t *testing.T) {
	f := newFixture()
	e := f.b.Exprs.NewBinary(source.NoSpan, ast.BinAdd, f.ident("q", types.Qubit, 1), f.ident("n", types.Int, 32))
	if got := f.ev.EvaluatesTo(e); got != types.Undefined {
		t.Fatalf("qubit + int = %s", got)
	}
	if !f.bag.HasCode(diag.SemaInvalidBinaryOperands) {
		t.Fatalf("missing operand diagnostic")
	}
}

func TestErrorOperandIsSilent(t *testing.T) {
	f := newFixture()
	x := f.ident("x", types.Int, 32)
	f.b.Exprs.MarkError(x, "broken")
	e := f.b.Exprs.NewBinary(source.NoSpan, ast.BinAdd, x, f.ident("y", types.Int, 32))
	if f.ev.ResolveBinary(e) {
		t.Fatalf("resolve succeeded over an error operand")
	}
	if f.bag.Len() != 0 {
		t.Fatalf("cascading diagnostic: %v", f.bag.Items())
	}
}

func TestUnaryRules(t *testing.T) {
	tests := []struct {
		op   ast.UnaryOp
		in   types.Type
		want types.Type
		code diag.Code
	}{
		{ast.UnNot, types.Float, types.Bool, 0},
		{ast.UnPopcount, types.Bitset, types.Bitset, 0},
		{ast.UnRotl, types.UInt, types.UInt, 0},
		{ast.UnRotr, types.Float, types.Undefined, diag.SemaInvalidUnaryOperand},
		{ast.UnSin, types.Int, types.Double, 0},
		{ast.UnExp, types.MPComplex, types.MPComplex, 0},
		{ast.UnCos, types.Angle, types.Angle, 0},
		{ast.UnSqrt, types.Qubit, types.Undefined, diag.SemaInvalidUnaryOperand},
		{ast.UnNeg, types.Duration, types.Duration, 0},
		{ast.UnNeg, types.Bool, types.Undefined, diag.SemaInvalidUnaryOperand},
		{ast.UnLeftFold, types.Int, types.Undefined, diag.SemaUnsupportedOperator},
		{ast.UnRightFold, types.Int, types.Undefined, diag.SemaUnsupportedOperator},
	}
	for _, tt := range tests {
		f := newFixture()
		e := f.b.Exprs.NewUnary(source.NoSpan, tt.op, f.ident("v", tt.in, 32))
		if got := f.ev.EvaluatesTo(e); got != tt.want {
			t.Fatalf("%s %s = %s, want %s", tt.op, tt.in, got, tt.want)
		}
		if tt.code != 0 && !f.bag.HasCode(tt.code) {
			t.Fatalf("%s %s: missing %s", tt.op, tt.in, tt.code)
		}
		if tt.code == 0 && f.bag.Len() != 0 {
			t.Fatalf("%s %s: unexpected %v", tt.op, tt.in, f.bag.Items())
		}
	}
}

func TestCastScenarios(t *testing.T) {
	f := newFixture()
	b := f.ident("b", types.Bool, 1)
	toInt := f.b.Exprs.NewCast(source.NoSpan, b, types.Int, 32)
	if !f.ev.ResolveCast(toInt) {
		t.Fatalf("int(bool) rejected")
	}
	data, _ := f.b.Exprs.Cast(toInt)
	if data.From != types.Bool || data.Method != types.Bitcast {
		t.Fatalf("int(bool) resolved as %s from %s", data.Method, data.From)
	}

	a := f.ident("a", types.Angle, 20)
	cc := NewCastController(f.ev)
	if cc.CanCast(a, types.MPComplex) || cc.ResolveConversionMethod(a, types.MPComplex) != types.BadCast {
		t.Fatalf("complex(angle) must be a bad cast")
	}
	toComplex := f.b.Exprs.NewCast(source.NoSpan, a, types.MPComplex, 128)
	if f.ev.EvaluatesTo(toComplex) != types.Undefined || f.ev.ResolveCast(toComplex) {
		t.Fatalf("complex(angle) resolved")
	}
	if !f.bag.HasCode(diag.SemaBadCast) {
		t.Fatalf("missing bad cast diagnostic")
	}
	if !cc.CanImplicitConvert(f.ident("n", types.Int, 32), types.Double) {
		t.Fatalf("int must widen to double")
	}
}

func TestImplicitConversionValidity(t *testing.T) {
	f := newFixture()
	x := f.ident("x", types.Int, 32)
	ok := f.b.Exprs.NewImplicit(source.NoSpan, x, types.Int, types.Double, 64, true)
	bad := f.b.Exprs.NewImplicit(source.NoSpan, x, types.Int, types.Angle, 32, false)
	if f.ev.EvaluatesTo(ok) != types.Double || f.ev.EvaluatesTo(bad) != types.Undefined {
		t.Fatalf("implicit conversion validity ignored")
	}
}

func TestWrapperLeafPanics(t *testing.T) {
	f := newFixture()
	raw := f.ident("raw", types.Identifier, 0)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		if err, ok := r.(error); !ok || !strings.Contains(err.Error(), "wrapper tag") {
			t.Fatalf("unexpected panic value %v", r)
		}
	}()
	f.ev.LeafType(raw)
}

func TestGroupsAreUnwrapped(t *testing.T) {
	f := newFixture()
	g := f.b.Exprs.NewGroup(source.NoSpan, f.ident("x", types.UInt, 16))
	if got := f.ev.LeafType(g); got != types.UInt {
		t.Fatalf("group leaf = %s", got)
	}
}
