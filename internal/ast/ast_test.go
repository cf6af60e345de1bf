package ast

import (
	"errors"
	"testing"

	"qasm3/internal/source"
	"qasm3/internal/types"
)

func TestArenaSentinel(t *testing.T) {
	a := NewArena[int](0)
	if a.Get(0) != nil || a.Get(1) != nil {
		t.Fatalf("empty arena returned a value")
	}
	id := a.Allocate(42)
	if id != 1 || *a.Get(id) != 42 || a.Len() != 1 {
		t.Fatalf("unexpected allocation %d", id)
	}
}

func TestNormalizeElseIf(t *testing.T) {
	for n := 0; n <= 4; n++ {
		b := NewBuilder(Hints{}, nil)
		ifID := b.Stmts.NewIf(source.NoSpan, NoExprID, Control{})
		var want []StmtID
		for range n {
			want = append(want, b.Stmts.NewElseIf(source.NoSpan, ifID, NoExprID, Control{}))
		}
		if got := b.Stmts.NormalizeElseIf(ifID); got != n {
			t.Fatalf("n=%d: chain length %d", n, got)
		}
		chain := b.Stmts.ElseIfChain(ifID)
		if len(chain) != n {
			t.Fatalf("n=%d: walked %d links", n, len(chain))
		}
		for i := range chain {
			if chain[i] != want[i] {
				t.Fatalf("n=%d: link %d is %d, want %d", n, i, chain[i], want[i])
			}
		}
		if n > 0 {
			last, _ := b.Stmts.ElseIf(want[n-1])
			if last.Next.IsValid() {
				t.Fatalf("last else-if must end the chain")
			}
		}
	}
}

func TestSingleElse(t *testing.T) {
	b := NewBuilder(Hints{}, nil)
	ifID := b.Stmts.NewIf(source.NoSpan, NoExprID, Control{})
	if !b.Stmts.NewElse(source.NoSpan, ifID, Control{}).IsValid() {
		t.Fatalf("first else rejected")
	}
	if b.Stmts.NewElse(source.NoSpan, ifID, Control{}).IsValid() {
		t.Fatalf("second else accepted")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in    string
		unit  TimeUnit
		value float64
		ns    float64
	}{
		{"100ns", UnitNs, 100, 100},
		{"1.5ms", UnitMs, 1.5, 1.5e6},
		{"20µs", UnitUs, 20, 20000},
		{"20μs", UnitUs, 20, 20000},
		{"3 us", UnitUs, 3, 3000},
		{"2s", UnitS, 2, 2e9},
	}
	for _, tt := range tests {
		d, err := ParseDuration(tt.in)
		if err != nil {
			t.Fatalf("ParseDuration(%q): %v", tt.in, err)
		}
		if d.Unit != tt.unit || d.Value != tt.value {
			t.Fatalf("ParseDuration(%q) = %+v", tt.in, d)
		}
		if ns, ok := d.Nanoseconds(); !ok || ns != tt.ns {
			t.Fatalf("%q in ns = %v, %v", tt.in, ns, ok)
		}
	}

	d, err := ParseDuration("4dt")
	if err != nil || d.Unit != UnitDt {
		t.Fatalf("dt: %+v %v", d, err)
	}
	if _, ok := d.Nanoseconds(); ok {
		t.Fatalf("dt must not convert to ns")
	}
}

func TestParseDurationInvalid(t *testing.T) {
	for _, in := range []string{"100", "ns", "10xs", "-5ns", "1..2ms"} {
		d, err := ParseDuration(in)
		if !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("ParseDuration(%q) err = %v", in, err)
		}
		if d.Valid || d.Text != in {
			t.Fatalf("ParseDuration(%q) must keep the text in an invalid state: %+v", in, d)
		}
	}
}

func TestMarkError(t *testing.T) {
	b := NewBuilder(Hints{}, nil)
	l := b.Exprs.NewLiteral(source.NoSpan, types.Int, 32, ExprLiteralData{Kind: LitBool})
	r := b.Exprs.NewLiteral(source.NoSpan, types.Int, 32, ExprLiteralData{Kind: LitBool})
	bin := b.Exprs.NewBinary(source.NoSpan, BinAdd, l, r)
	b.Exprs.MarkError(bin, "boom")
	if !b.Exprs.IsError(bin) || b.Exprs.Get(bin).Type != types.Error {
		t.Fatalf("node not marked")
	}
	ed, ok := b.Exprs.ErrorData(bin)
	if !ok || ed.Was != ExprBinary || ed.Msg != "boom" {
		t.Fatalf("error payload %+v", ed)
	}
	if _, ok := b.Exprs.Binary(bin); ok {
		t.Fatalf("binary accessor must reject an error node")
	}
}

func TestWalkIsPostOrder(t *testing.T) {
	b := NewBuilder(Hints{}, nil)
	inner := b.Stmts.NewExprStmt(source.NoSpan, NoExprID)
	body := b.Lists.New()
	b.Lists.Append(body, inner)
	ifID := b.Stmts.NewIf(source.NoSpan, NoExprID, Control{Body: Body{List: body}})
	elseBody := b.Stmts.NewExprStmt(source.NoSpan, NoExprID)
	elseID := b.Stmts.NewElse(source.NoSpan, ifID, Control{Body: Body{Single: elseBody}})
	b.Lists.Append(b.Top, ifID)

	var order []StmtID
	b.WalkList(b.Top, func(id StmtID) { order = append(order, id) })
	want := []StmtID{inner, elseBody, elseID, ifID}
	if len(order) != len(want) {
		t.Fatalf("visited %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("visited %v, want %v", order, want)
		}
	}
}

func TestOperatorSpelling(t *testing.T) {
	if op, ok := ParseBinaryOp("**"); !ok || op != BinPow {
		t.Fatalf("** not parsed")
	}
	if op, ok := ParseUnaryOp("popcount"); !ok || !op.IsBitRotation() {
		t.Fatalf("popcount not parsed")
	}
	if !BinLt.IsRelational() || BinLt.IsAngleArithmetic() || !BinDiv.IsAngleArithmetic() {
		t.Fatalf("operator classes drifted")
	}
}
