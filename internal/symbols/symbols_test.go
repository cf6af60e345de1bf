package symbols

import (
	"testing"

	"github.com/nalgeon/be"

	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

func newTable() (*Table, *diag.Bag) {
	bag := diag.NewBag(0)
	return NewTable(NewTracker(), diag.BagReporter{Bag: bag}), bag
}

func TestDuplicateDeclarationKeepsFirst(t *testing.T) {
	tab, bag := newTable()
	first, ok := tab.CreateEntry(Decl{Name: "x", Type: types.Int, Bits: 32, Span: source.Span{File: 1, Start: 4, End: 5}})
	be.True(t, ok)

	again, ok := tab.CreateEntry(Decl{Name: "x", Type: types.Int, Bits: 32, Span: source.Span{File: 1, Start: 20, End: 21}})
	be.True(t, !ok)
	be.Equal(t, again, first)
	be.True(t, bag.HasCode(diag.SemaDuplicateSymbol))
	be.Equal(t, bag.Count(diag.SevError), 1)

	e := tab.Lookup("x")
	be.Equal(t, e.ID, first)
	be.Equal(t, e.Span.Start, uint32(4))
}

func TestDuplicateAcrossMapsInSameContext(t *testing.T) {
	tab, bag := newTable()
	_, ok := tab.CreateEntry(Decl{Name: "q", Type: types.Qubit, Bits: 1})
	be.True(t, ok)
	_, ok = tab.CreateEntry(Decl{Name: "q", Type: types.Int, Bits: 32})
	be.True(t, !ok)
	be.True(t, bag.HasCode(diag.SemaDuplicateSymbol))
}

func TestCreateLookupRoundTrip(t *testing.T) {
	tab, _ := newTable()
	cases := []struct {
		name string
		typ  types.Type
		bits uint32
		m    MapKind
	}{
		{"a", types.Int, 32, MapGlobal},
		{"q", types.QubitContainer, 4, MapQubit},
		{"theta", types.Angle, 20, MapAngle},
		{"f", types.Function, 0, MapFunction},
		{"c", types.Bitset, 8, MapGlobal},
	}
	for _, c := range cases {
		_, ok := tab.CreateEntry(Decl{Name: c.name, Type: c.typ, Bits: c.bits})
		be.True(t, ok)
	}
	for _, c := range cases {
		e := tab.Lookup(c.name)
		be.True(t, e != nil)
		be.Equal(t, e.Type, c.typ)
		be.Equal(t, e.Bits, c.bits)
		be.Equal(t, e.Map, c.m)
		be.Equal(t, e.Scope, ScopeGlobal)
	}
	be.True(t, tab.LookupBits("a", 64) == nil)
	be.True(t, tab.LookupTyped("q", 4, types.QubitContainer) != nil)
	be.True(t, tab.LookupTyped("a", 0, types.Float) == nil)
}

func TestShadowingAndContextErase(t *testing.T) {
	tab, _ := newTable()
	outer, _ := tab.CreateEntry(Decl{Name: "x", Type: types.Int, Bits: 32})

	ctx := tab.Contexts().CreateContext(types.For, ast.NoStmtID)
	inner, ok := tab.CreateEntry(Decl{Name: "x", Type: types.Float, Bits: 64})
	be.True(t, ok)
	be.Equal(t, tab.Lookup("x").ID, inner)
	be.Equal(t, tab.Get(inner).Scope, ScopeLocal)
	be.Equal(t, tab.Get(inner).Map, MapLocal)

	erased := tab.EraseContext(ctx)
	be.Equal(t, erased, []EntryID{inner})
	tab.Contexts().PopCurrentContext()
	be.Equal(t, tab.Lookup("x").ID, outer)
}

func TestInnerDeclarationInOtherMapShadows(t *testing.T) {
	tab, _ := newTable()
	tab.Contexts().CreateContext(types.Function, ast.NoStmtID)
	outer, ok := tab.CreateEntry(Decl{Name: "a", Type: types.Int, Bits: 32})
	be.True(t, ok)
	be.Equal(t, tab.Get(outer).Map, MapLocal)

	ifCtx := tab.Contexts().CreateContext(types.If, ast.NoStmtID)
	inner, ok := tab.CreateEntry(Decl{Name: "a", Type: types.Angle, Bits: 20})
	be.True(t, ok)
	be.Equal(t, tab.Get(inner).Map, MapAngle)
	be.Equal(t, tab.Lookup("a").ID, inner)

	tab.EraseContext(ifCtx)
	tab.Contexts().PopCurrentContext()
	be.Equal(t, tab.Lookup("a").ID, outer)

	tab.Contexts().CreateContext(types.While, ast.NoStmtID)
	q, ok := tab.CreateEntry(Decl{Name: "a", Type: types.Qubit, Bits: 1})
	be.True(t, ok)
	be.Equal(t, tab.Lookup("a").ID, q)
}

func TestOutOfScopeLocalIsInvisible(t *testing.T) {
	tab, _ := newTable()
	tab.Contexts().CreateContext(types.If, ast.NoStmtID)
	_, _ = tab.CreateEntry(Decl{Name: "tmp", Type: types.Int, Bits: 32})
	tab.Contexts().PopCurrentContext()
	be.True(t, tab.Lookup("tmp") == nil)
}

func TestTransferRoundTrip(t *testing.T) {
	tab, bag := newTable()
	fn := tab.Contexts().CreateContext(types.Function, ast.NoStmtID)
	id, _ := tab.CreateEntry(Decl{Name: "v", Type: types.Int, Bits: 32})
	be.Equal(t, tab.Get(id).Scope, ScopeLocal)

	be.True(t, tab.TransferLocalSymbolToGlobal("v", id))
	e := tab.Get(id)
	be.Equal(t, e.Scope, ScopeGlobal)
	be.Equal(t, e.Map, MapGlobal)
	be.Equal(t, e.Ctx, GlobalContextID)

	be.True(t, tab.TransferGlobalSymbolToLocal("v", id))
	e = tab.Get(id)
	be.Equal(t, e.ID, id)
	be.Equal(t, e.Scope, ScopeLocal)
	be.Equal(t, e.Map, MapLocal)
	be.Equal(t, e.Ctx, fn)
	be.Equal(t, bag.Len(), 0)
}

func TestTransferConflictIsICE(t *testing.T) {
	tab, bag := newTable()
	_, _ = tab.CreateEntry(Decl{Name: "f", Type: types.Function})
	tab.Contexts().CreateContext(types.Function, ast.NoStmtID)
	local, _ := tab.CreateEntry(Decl{Name: "f", Type: types.Function})

	be.True(t, !tab.TransferLocalSymbolToGlobal("f", local))
	be.True(t, bag.HasCode(diag.ICESymbolTransfer))
	be.Equal(t, bag.Count(diag.SevICE), 1)
	be.Equal(t, tab.Get(local).Scope, ScopeLocal)

	be.True(t, !tab.TransferLocalSymbolToGlobal("missing", NoEntryID))
	be.Equal(t, bag.Count(diag.SevICE), 2)
}

func TestEraseIsIdempotent(t *testing.T) {
	tab, _ := newTable()
	tab.Contexts().CreateContext(types.Gate, ast.NoStmtID)
	_, _ = tab.CreateEntry(Decl{Name: "a", Type: types.Qubit, Bits: 1})
	_, _ = tab.CreateEntry(Decl{Name: "t", Type: types.Angle})
	_, _ = tab.CreateEntry(Decl{Name: "n", Type: types.Int, Bits: 32})

	be.True(t, tab.EraseLocalQubit("a"))
	be.True(t, !tab.EraseLocalQubit("a"))
	be.True(t, tab.EraseLocalAngle("t"))
	be.True(t, !tab.EraseLocalAngle("t"))
	be.True(t, !tab.EraseLocalSymbol("n", 64, types.Undefined))
	be.True(t, tab.EraseLocalSymbol("n", 32, types.Int))
	be.Equal(t, tab.EraseLocal("n"), 0)
	be.True(t, !tab.EraseGlobalSymbol("nothing", 0, types.Undefined))
}

func TestDefcalOverloads(t *testing.T) {
	tab, bag := newTable()
	_, ok := tab.CreateDefcal(Decl{Name: "x90"}, 11)
	be.True(t, ok)
	be.True(t, tab.Lookup("x90") != nil)

	_, ok = tab.CreateDefcal(Decl{Name: "x90"}, 12)
	be.True(t, ok)
	be.Equal(t, tab.DefcalOverloads("x90"), 2)
	be.True(t, tab.Lookup("x90") == nil)
	be.True(t, tab.LookupDefcal("x90", 12) != nil)

	_, ok = tab.CreateDefcal(Decl{Name: "x90"}, 12)
	be.True(t, !ok)
	be.True(t, bag.HasCode(diag.SemaDefcalRedefinition))

	be.True(t, tab.EraseDefcal("x90", 11))
	be.True(t, !tab.EraseDefcal("x90", 11))
}

func TestCalibrationEntries(t *testing.T) {
	tab, _ := newTable()
	tab.Contexts().SetCalibrationContext()
	id, ok := tab.CreateEntry(Decl{Name: "drive", Type: types.OpenPulseFrame})
	be.True(t, ok)
	be.Equal(t, tab.Get(id).Map, MapCalibration)
	be.Equal(t, tab.Lookup("drive").ID, id)
	tab.Contexts().PopCurrentContext()

	be.True(t, tab.Lookup("drive") == nil)
	tab.Contexts().CreateContext(types.Defcal, ast.NoStmtID)
	be.Equal(t, tab.Lookup("drive").ID, id)
}

func TestInternLiteral(t *testing.T) {
	tab, _ := newTable()
	a, fresh := tab.InternLiteral("_QI32_3E", 1, types.Int, 32)
	be.True(t, fresh)
	b, fresh := tab.InternLiteral("_QI32_3E", 2, types.Int, 32)
	be.True(t, !fresh)
	be.Equal(t, a, b)
	be.Equal(t, tab.Get(a).Value, ast.ExprID(1))
	be.True(t, tab.Get(a).Hash != 0)
	be.Equal(t, tab.LiteralCount(), 1)
}

func TestReleaseSkipsViewsAndParts(t *testing.T) {
	tab, _ := newTable()
	for _, name := range []string{"q", "q[3]", "%q:3", "z", "z.real", "z.imag"} {
		_, ok := tab.CreateEntry(Decl{Name: name, Type: types.Int, Bits: 32})
		be.True(t, ok)
	}
	st := tab.Release()
	be.Equal(t, st, ReleaseStats{Released: 2, SkippedViews: 2, SkippedParts: 2})
	be.Equal(t, tab.Release(), ReleaseStats{})
	be.True(t, tab.Lookup("q") == nil)
}

func TestValueBinding(t *testing.T) {
	tab, _ := newTable()
	id, _ := tab.CreateEntry(Decl{Name: "k", Type: types.Int, Bits: 32, Const: true})
	e := tab.Get(id)
	_, err := e.ValueExpr()
	be.Err(t, err, ErrNoValue)
	be.Err(t, e.SetValue(3, types.Float), ErrTypeChange)
	be.Err(t, e.SetValue(3, types.Int), nil)
	v, err := e.ValueExpr()
	be.Err(t, err, nil)
	be.Equal(t, v, ast.ExprID(3))
}

func TestContextStackDepth(t *testing.T) {
	for n := 0; n < 6; n++ {
		for m := 0; m < 8; m++ {
			tr := NewTracker()
			for i := 0; i < n; i++ {
				tr.CreateContext(types.While, ast.NoStmtID)
			}
			for i := 0; i < m; i++ {
				tr.PopCurrentContext()
			}
			want := 1 + max(n-m, 0)
			be.Equal(t, tr.Depth(), want)
			be.True(t, tr.Global().IsAlive())
		}
	}
}

func TestContextRegistry(t *testing.T) {
	tr := NewTracker()
	ctx := tr.Get(tr.CreateContext(types.Function, ast.NoStmtID))
	ref := ast.ExprRef(4)
	be.True(t, ctx.RegisterSymbol(ref, types.Int))
	be.True(t, !ctx.RegisterSymbol(ref, types.Int))
	typ, ok := ctx.RegisteredType(ref)
	be.True(t, ok)
	be.Equal(t, typ, types.Int)
	be.True(t, ctx.UnregisterSymbol(ref))
	be.Equal(t, len(ctx.Registered()), 0)
}

func TestNames(t *testing.T) {
	be.True(t, IsIndexedName(ViewName("q", 3)))
	be.True(t, IsIndexedName(AliasViewName("q", 3)))
	be.Equal(t, AliasViewName("q", 3), "%q:3")
	be.True(t, !IsIndexedName("[3]"))
	be.True(t, IsComplexPartName("z.imag"))
	be.True(t, !IsComplexPartName("zimag"))
}

func TestCreateViewReusesEntry(t *testing.T) {
	tab, bag := newTable()
	q, _ := tab.CreateEntry(Decl{Name: "q", Type: types.QubitContainer, Bits: 4})
	v1 := tab.CreateView(q, "q[1]", 0, types.Qubit, 1)
	v2 := tab.CreateView(q, "q[1]", 0, types.Qubit, 1)
	be.Equal(t, v1, v2)
	be.Equal(t, tab.Get(v1).Map, MapQubit)
	be.True(t, tab.CreateView(NoEntryID, "x[0]", 0, types.Bitset, 1) == NoEntryID)
	be.True(t, bag.HasCode(diag.ICETableInsert))
	be.Equal(t, tab.Release(), ReleaseStats{Released: 1, SkippedViews: 1})
}
