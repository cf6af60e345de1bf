package mangle

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nalgeon/be"

	"qasm3/internal/ast"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

func declare(b *ast.Builder, name string, typ types.Type, bits uint32) ast.IdentID {
	return b.Idents.New(b.Strings.Intern(name), source.NoSpan, typ, bits)
}

func TestIdentEncoding(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	m := New(b)
	x := declare(b, "x", types.Int, 32)
	s, err := m.Ident(x)
	be.Err(t, err, nil)
	be.Equal(t, s, "_Qi32_1x_E")
	be.Equal(t, b.Idents.Get(x).Mangled, s)

	again, err := m.Ident(x)
	be.Err(t, err, nil)
	be.Equal(t, again, s)

	k := declare(b, "k", types.Angle, 20)
	b.Idents.Get(k).Const = true
	s, _ = m.Ident(k)
	be.Equal(t, s, "_QKa20_1k_E")
}

func TestViewsAndParts(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	m := New(b)
	q := declare(b, "q", types.QubitContainer, 4)
	v := b.Idents.NewView(q, b.Strings.Intern("q[2]"), source.NoSpan, types.Qubit, 2)
	s, err := m.Ident(v)
	be.Err(t, err, nil)
	be.Equal(t, s, "_Qq1_4q[2]I2_E")

	z := declare(b, "z", types.MPComplex, 128)
	re := b.Idents.NewPart(z, b.Strings.Intern("z.real"), source.NoSpan, ast.PartReal)
	s, _ = m.Ident(re)
	be.Equal(t, s, "_Qd64_6z.realR_E")
}

func TestUnresolvedIsAnError(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	m := New(b)
	u := declare(b, "u", types.Undefined, 0)
	_, err := m.Ident(u)
	be.Err(t, err, ErrUnresolved)

	sum := b.Exprs.NewBinary(source.NoSpan, ast.BinAdd, ast.NoExprID, ast.NoExprID)
	_, err = m.Expr(sum)
	be.Err(t, err, ErrUnresolved)
	be.Equal(t, b.Exprs.Get(sum).Mangled, "")

	_, err = TypeCode(types.If)
	be.Err(t, err, ErrNoCode)
}

func TestExpressionEncodingIsDeterministic(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	m := New(b)
	x := declare(b, "x", types.Int, 32)
	xRef := b.Exprs.NewIdent(source.NoSpan, x, types.Int, 32)
	one := b.Exprs.NewLiteral(source.NoSpan, types.Int, 32, ast.ExprLiteralData{Kind: ast.LitInt, Int: big.NewInt(1)})
	sum := b.Exprs.NewBinary(source.NoSpan, ast.BinAdd, xRef, one)
	hdr := b.Exprs.Get(sum)
	hdr.Type, hdr.Bits = types.Int, 32
	grp := b.Exprs.NewGroup(source.NoSpan, sum)

	s, err := m.Expr(grp)
	be.Err(t, err, nil)
	be.Equal(t, s, "_QBi32_1+_Qi32_1x_E_QLi32_11_E_E")
	again, _ := m.Expr(grp)
	be.Equal(t, again, s)
	be.Equal(t, b.Exprs.Get(sum).Mangled, s)
}

func TestCallableSignatures(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	m := New(b)
	g := declare(b, "rz", types.Gate, 0)
	theta := declare(b, "theta", types.Angle, 0)
	a := declare(b, "a", types.Qubit, 1)
	gate := b.Stmts.NewGate(source.NoSpan, ast.GateData{Ident: g, Params: []ast.IdentID{theta}, Qubits: []ast.IdentID{a}})
	s, err := m.Stmt(gate)
	be.Err(t, err, nil)
	be.Equal(t, s, "_QG0_2rzP1_Qa0_5theta_EQ1_Qq1_1a_E_E")

	d := declare(b, "x90", types.Defcal, 0)
	dc := b.Stmts.NewDefcal(source.NoSpan, ast.DefcalData{Ident: d, Hash: 0xbeef})
	s, err = m.Stmt(dc)
	be.Err(t, err, nil)
	be.Equal(t, s, "_QDc0_3x90Hbeef_E")

	f := declare(b, "f", types.Function, 0)
	n := declare(b, "n", types.Int, 32)
	fn := b.Stmts.NewFunction(source.NoSpan, ast.FunctionData{Ident: f, Params: []ast.IdentID{n}, Result: types.Bool, ResultBits: 1})
	s, err = m.Stmt(fn)
	be.Err(t, err, nil)
	be.Equal(t, s, "_QF0_1fP1_Qi32_1n_ERb1__E")

	if _, err := m.Stmt(ast.StmtID(999)); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("missing stmt: %v", err)
	}
}
