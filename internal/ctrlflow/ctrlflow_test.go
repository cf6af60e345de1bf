package ctrlflow

import (
	"testing"

	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/symbols"
	"qasm3/internal/types"
)

func TestBraces(t *testing.T) {
	var b Braces
	if !b.IsZero(BraceIf) || !b.IsBalanced(BraceIf) {
		t.Fatalf("fresh matcher must be zero and balanced")
	}
	b.Left(BraceIf)
	b.Left(BraceIf)
	if b.Depth(BraceIf) != 2 || b.IsBalanced(BraceIf) {
		t.Fatalf("depth = %d", b.Depth(BraceIf))
	}
	if !b.Right(BraceIf) || !b.Right(BraceIf) || b.Right(BraceIf) {
		t.Fatalf("right braces must close exactly the open ones")
	}
	if !b.IsBalanced(BraceIf) || b.IsZero(BraceIf) {
		t.Fatalf("closed matcher must be balanced but not zero")
	}
	b.Left(BraceFor)
	if got := b.Unbalanced(); len(got) != 1 || got[0] != BraceFor {
		t.Fatalf("unbalanced = %v", got)
	}
	b.Reset(BraceFor)
	if !b.IsZero(BraceFor) {
		t.Fatalf("reset must clear counts")
	}
}

func TestListBuilderISC(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	lb := NewListBuilder(b.Lists, b.Top)
	s1 := b.Stmts.NewExprStmt(source.NoSpan, ast.NoExprID)
	s2 := b.Stmts.NewExprStmt(source.NoSpan, ast.NoExprID)
	if lb.Append(s1) != 0 || lb.ISC() != 1 {
		t.Fatalf("first statement must get index 0")
	}
	inner := lb.Open()
	if lb.ISC() != 0 || lb.Current() != inner {
		t.Fatalf("fresh list must start at 0")
	}
	lb.Append(s2)
	if lb.Pop() != inner || lb.Current() != b.Top || lb.ISC() != 1 {
		t.Fatalf("pop must restore the enclosing list and its index")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("popping the top-level list must panic")
		}
	}()
	lb.Pop()
}

func TestIfStateMachine(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	ifs := NewIfTracker(b.Stmts)
	ifID := b.Stmts.NewIf(source.NoSpan, ast.NoExprID, ast.Control{})
	ifs.Push(ifID, symbols.GlobalContextID)
	if ifs.State(ifID) != IfOpen {
		t.Fatalf("push must open, got %s", ifs.State(ifID))
	}
	if _, closed := ifs.EndBody(); closed || ifs.State(ifID) != IfPendingElseIf {
		t.Fatalf("end of if body must wait for else")
	}
	ei := b.Stmts.NewElseIf(source.NoSpan, ifID, ast.NoExprID, ast.Control{})
	if !ifs.AttachElseIf(ei) || ifs.State(ifID) != IfOpen || ifs.Branch() != ei {
		t.Fatalf("else if must reopen")
	}
	ifs.EndBody()
	if !ifs.SawElse() || ifs.State(ifID) != IfPendingElse {
		t.Fatalf("else keyword must move to pending-else")
	}
	el := b.Stmts.NewElse(source.NoSpan, ifID, ast.Control{})
	if !ifs.AttachElse(el) {
		t.Fatalf("else rejected")
	}
	if ifs.AttachElseIf(ast.NoStmtID) {
		t.Fatalf("else if accepted while a body is open")
	}
	got, closed := ifs.EndBody()
	if !closed || got != ifID || ifs.State(ifID) != IfClosed || ifs.Len() != 0 {
		t.Fatalf("end of else body must close the chain")
	}
	if chain := b.Stmts.ElseIfChain(ifID); len(chain) != 1 || chain[0] != ei {
		t.Fatalf("chain = %v", chain)
	}
}

func TestPopCurrentIf(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	ifs := NewIfTracker(b.Stmts)
	ifID := b.Stmts.NewIf(source.NoSpan, ast.NoExprID, ast.Control{})
	ifs.Push(ifID, symbols.GlobalContextID)
	if ifs.PopCurrentIf() != ast.NoStmtID {
		t.Fatalf("open if must not be popped")
	}
	ifs.EndBody()
	if ifs.PopCurrentIf() != ifID || ifs.State(ifID) != IfClosed {
		t.Fatalf("pending if must close")
	}
}

func TestCheckDeclarationContext(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	ctx := symbols.NewTracker()
	tr := New(b, ctx)

	tests := []struct {
		kind types.Type
		code diag.Code
	}{
		{types.Else, diag.CfgElseWithoutIf},
		{types.ElseIf, diag.CfgElseIfWithoutIf},
		{types.Case, diag.CfgCaseOutsideSwitch},
		{types.Default, diag.CfgDefaultOutsideSwitch},
		{types.Break, diag.CfgBreakOutsideLoop},
		{types.Continue, diag.CfgContinueOutsideLoop},
		{types.Return, diag.CfgReturnOutsideFunc},
	}
	for _, tt := range tests {
		code, ok := tr.CheckDeclarationContext(tt.kind)
		if ok || code != tt.code {
			t.Fatalf("%s at global: got %v/%s", tt.kind, ok, code)
		}
	}

	ctx.CreateContext(types.Function, ast.NoStmtID)
	ctx.CreateContext(types.While, ast.NoStmtID)
	ctx.CreateContext(types.If, ast.NoStmtID)
	for _, k := range []types.Type{types.Break, types.Continue, types.Return} {
		if _, ok := tr.CheckDeclarationContext(k); !ok {
			t.Fatalf("%s inside while inside def rejected", k)
		}
	}
	ctx.CreateContext(types.Gate, ast.NoStmtID)
	if code, ok := tr.CheckDeclarationContext(types.Break); ok || code != diag.CfgBreakOutsideLoop {
		t.Fatalf("break must not cross a gate boundary")
	}
	ctx.PopCurrentContext()

	ctx.CreateContext(types.Switch, ast.NoStmtID)
	if _, ok := tr.CheckDeclarationContext(types.Case); !ok {
		t.Fatalf("case directly inside switch rejected")
	}

	ifID := b.Stmts.NewIf(source.NoSpan, ast.NoExprID, ast.Control{})
	tr.Ifs.Push(ifID, ctx.CurrentID())
	if _, ok := tr.CheckDeclarationContext(types.Else); ok {
		t.Fatalf("else accepted while the if body is open")
	}
	tr.Ifs.EndBody()
	if _, ok := tr.CheckDeclarationContext(types.Else); !ok {
		t.Fatalf("else after if body rejected")
	}
	tr.Ifs.AttachElse(b.Stmts.NewElse(source.NoSpan, ifID, ast.Control{}))
	tr.Ifs.EndBody()
	if code, _ := tr.CheckDeclarationContext(types.Else); code != diag.CfgElseWithoutIf {
		t.Fatalf("else after a closed chain: %s", code)
	}
}

// Builds `def f() { if (c1) { int a; } else if (c2) { int b; } else { int c; } }`
// and checks that leaving f erases all three locals.
func TestRemoveOutOfScopeErasesIfChain(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	ctx := symbols.NewTracker()
	table := symbols.NewTable(ctx, nil)
	tr := New(b, ctx)

	fnCtx := ctx.CreateContext(types.Function, ast.NoStmtID)
	fnBody := b.Lists.New()

	branch := func(name string, typ types.Type) ast.Control {
		c := ctx.CreateContext(typ, ast.NoStmtID)
		if _, ok := table.CreateEntry(symbols.Decl{Name: name, Type: types.Int, Bits: 32}); !ok {
			t.Fatalf("declare %s failed", name)
		}
		ctx.PopCurrentContext()
		return ast.Control{Body: ast.Body{List: b.Lists.New()}, Ctx: c}
	}

	ifID := b.Stmts.NewIf(source.NoSpan, ast.NoExprID, branch("a", types.If))
	b.Lists.Append(fnBody, ifID)
	tr.Ifs.Push(ifID, fnCtx)
	tr.Ifs.EndBody()
	tr.Ifs.AttachElseIf(b.Stmts.NewElseIf(source.NoSpan, ifID, ast.NoExprID, branch("b", types.ElseIf)))
	tr.Ifs.EndBody()
	tr.Ifs.SawElse()
	tr.Ifs.AttachElse(b.Stmts.NewElse(source.NoSpan, ifID, branch("c", types.Else)))
	tr.Ifs.EndBody()

	ifd, _ := b.Stmts.If(ifID)
	if len(ifd.ElseIfs) != 1 || !ifd.Else.IsValid() {
		t.Fatalf("if must have one else-if and an else")
	}
	if table.MapLen(symbols.MapLocal) != 3 {
		t.Fatalf("expected three locals, got %d", table.MapLen(symbols.MapLocal))
	}

	fn := b.Stmts.NewFunction(source.NoSpan, ast.FunctionData{Control: ast.Control{Body: ast.Body{List: fnBody}, Ctx: fnCtx}})
	if n := tr.RemoveOutOfScope(b, table, fn); n != 3 {
		t.Fatalf("erased %d entries, want 3", n)
	}
	if table.MapLen(symbols.MapLocal) != 0 {
		t.Fatalf("locals leaked past the function")
	}
	if tr.Ifs.State(ifID) != IfClosed {
		t.Fatalf("if chain not closed")
	}
}

func TestLoopAndSwitchTrackers(t *testing.T) {
	var loops LoopTracker
	loops.Push(1, types.For, 3)
	loops.Push(2, types.DoWhile, 4)
	if f, ok := loops.Innermost(); !ok || f.Kind != types.DoWhile {
		t.Fatalf("innermost = %+v", f)
	}
	if loops.Pop().Stmt != 2 || loops.Len() != 1 {
		t.Fatalf("pop order broken")
	}

	var sw SwitchTracker
	sw.Push(7)
	first := source.Span{File: 1, Start: 1, End: 2}
	if _, ok := sw.AddLabel(3, first); !ok {
		t.Fatalf("first label rejected")
	}
	if prev, ok := sw.AddLabel(3, source.Span{File: 1, Start: 9, End: 10}); ok || prev != first {
		t.Fatalf("duplicate label accepted")
	}
	if _, ok := sw.SetDefault(first); !ok {
		t.Fatalf("first default rejected")
	}
	if _, ok := sw.SetDefault(first); ok {
		t.Fatalf("second default accepted")
	}
	if id, hasDefault := sw.Pop(); id != 7 || !hasDefault {
		t.Fatalf("pop = %d/%v", id, hasDefault)
	}
}
