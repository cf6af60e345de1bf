package compiler

import (
	"fmt"
	"slices"

	"qasm3/internal/ast"
	"qasm3/internal/ctrlflow"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/trace"
	"qasm3/internal/types"
)

// push opens the body of stmt: a fresh statement list in context ctx.
func (u *Unit) push(stmt ast.StmtID, kind types.Type, ctx ast.ContextID, brace ctrlflow.Construct, braced bool, isc uint32, span source.Span) {
	list := u.Flow.Lists.Open()
	if braced {
		u.Flow.Braces.Left(brace)
	}
	if ctl, ok := u.B.Stmts.ControlOf(stmt); ok {
		ctl.Ctx = ctx
		ctl.Frame = uint32(len(u.blocks))
		ctl.ISC = isc
	}
	u.blocks = append(u.blocks, block{
		stmt: stmt, kind: kind, ctx: ctx, list: list,
		brace: brace, braced: braced, span: span,
	})
	trace.Point(u.tracer, trace.ScopeNode, u.Name, "block.open", fmt.Sprintf("%s %d", kind, stmt))
}

// detach opens a body for a construct that was rejected by placement checks.
func (u *Unit) detach(kind types.Type, brace ctrlflow.Construct, braced bool, span source.Span) {
	ctx := u.Ctx.CreateContext(kind, ast.NoStmtID)
	u.push(ast.NoStmtID, kind, ctx, brace, braced, 0, span)
	u.blocks[len(u.blocks)-1].detached = true
}

// closeBlock ends the innermost open body, which must be of one of kinds.
func (u *Unit) closeBlock(kinds ...types.Type) (block, bool) {
	u.settle()
	if len(u.blocks) == 0 {
		u.ice(diag.ICEContextMisuse, source.NoSpan, "closing %v with no open block", kinds)
		return block{}, false
	}
	bl := u.blocks[len(u.blocks)-1]
	if !slices.Contains(kinds, bl.kind) {
		u.ice(diag.ICEContextMisuse, bl.span, "closing %v but the open block is %s", kinds, bl.kind)
		return block{}, false
	}
	u.blocks = u.blocks[:len(u.blocks)-1]
	u.Flow.Lists.Pop()

	if ctl, ok := u.B.Stmts.ControlOf(bl.stmt); ok {
		items := u.B.Lists.Items(bl.list)
		if !bl.braced && len(items) == 1 {
			ctl.Body = ast.Body{Single: items[0]}
		} else {
			ctl.Body = ast.Body{List: bl.list}
		}
	}
	u.Ctx.PopTo(bl.ctx)
	u.Ctx.PopCurrentContext()
	if bl.braced && !u.Flow.Braces.Right(bl.brace) {
		u.errorf(diag.CfgUnbalancedBraces, bl.span, "unbalanced braces in %s", bl.brace).Emit()
	}
	trace.Point(u.tracer, trace.ScopeNode, u.Name, "block.close", fmt.Sprintf("%s %d", bl.kind, bl.stmt))
	return bl, true
}

// Depth is the number of open construct bodies.
func (u *Unit) Depth() int { return len(u.blocks) }

func (u *Unit) checkCondition(cond ast.ExprID) {
	if u.anyError(cond) {
		return
	}
	ok := u.Valid.Expr(cond, func(t types.Type) bool {
		return t == types.Bool || types.IsIntegerType(t)
	})
	if !ok {
		sp := u.B.Exprs.Get(u.B.Exprs.Unwrap(cond)).Span
		u.errorf(diag.SemaConditionType, sp, "condition of type %s does not convert to bool", u.Eval.LeafType(cond)).Emit()
	}
}

// BeginIf opens "if (cond)". braced tells whether '{' follows.
func (u *Unit) BeginIf(span source.Span, cond ast.ExprID, braced bool) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	u.checkCondition(cond)
	stmt := u.B.Stmts.NewIf(span, cond, ast.Control{})
	isc := u.emit(stmt)
	outer := u.Ctx.CurrentID()
	ctx := u.Ctx.CreateContext(types.If, stmt)
	u.Flow.Ifs.Push(stmt, outer)
	u.push(stmt, types.If, ctx, ctrlflow.BraceIf, braced, isc, span)
	return stmt
}

// EndIfBody closes the body of the current if, else-if or else branch. The
// if itself stays open for a following else until the next statement.
func (u *Unit) EndIfBody() ast.StmtID {
	u.mustBuild()
	bl, ok := u.closeBlock(types.If, types.ElseIf, types.Else)
	if !ok || bl.detached {
		return ast.NoStmtID
	}
	if closed, done := u.Flow.Ifs.EndBody(); done {
		u.finishConstruct(closed)
	}
	return bl.stmt
}

// BeginElseIf opens "else if (cond)" after an if or else-if body.
func (u *Unit) BeginElseIf(span source.Span, cond ast.ExprID, braced bool) ast.StmtID {
	u.mustBuild()
	span = u.span(span)
	u.checkCondition(cond)
	if code, ok := u.Flow.CheckDeclarationContext(types.ElseIf); !ok {
		u.errorf(code, span, "'else if' does not follow an if body").Emit()
		u.detach(types.ElseIf, ctrlflow.BraceElseIf, braced, span)
		return ast.NoStmtID
	}
	u.Flow.Ifs.SawElse()
	owner, _, _ := u.Flow.Ifs.Top()
	isc := u.Flow.Lists.ISC()
	stmt := u.B.Stmts.NewElseIf(span, owner, cond, ast.Control{})
	ctx := u.Ctx.CreateContext(types.ElseIf, stmt)
	u.Flow.Ifs.AttachElseIf(stmt)
	u.push(stmt, types.ElseIf, ctx, ctrlflow.BraceElseIf, braced, isc, span)
	return stmt
}

// BeginElse opens the final else branch.
func (u *Unit) BeginElse(span source.Span, braced bool) ast.StmtID {
	u.mustBuild()
	span = u.span(span)
	if code, ok := u.Flow.CheckDeclarationContext(types.Else); !ok {
		u.errorf(code, span, "'else' does not follow an if body").Emit()
		u.detach(types.Else, ctrlflow.BraceElse, braced, span)
		return ast.NoStmtID
	}
	u.Flow.Ifs.SawElse()
	owner, _, _ := u.Flow.Ifs.Top()
	isc := u.Flow.Lists.ISC()
	stmt := u.B.Stmts.NewElse(span, owner, ast.Control{})
	if !stmt.IsValid() {
		u.ice(diag.ICETrackerState, span, "if %d already has an else", owner)
		u.detach(types.Else, ctrlflow.BraceElse, braced, span)
		return ast.NoStmtID
	}
	ctx := u.Ctx.CreateContext(types.Else, stmt)
	u.Flow.Ifs.AttachElse(stmt)
	u.push(stmt, types.Else, ctx, ctrlflow.BraceElse, braced, isc, span)
	return stmt
}

// FinishIf closes ifs of the current context that are still waiting for an
// else. Drivers call it at the end of a statement list; any other statement
// does the same implicitly.
func (u *Unit) FinishIf() {
	u.mustBuild()
	u.settle()
}

// ForRange is either start:step:stop (Step may be NoExprID) or an explicit
// set of values.
type ForRange struct {
	Start, Step, Stop ast.ExprID
	Set               []ast.ExprID
}

// BeginFor opens "for type[bits] name in range". The loop variable is bound
// in the loop's own context.
func (u *Unit) BeginFor(span source.Span, name string, typ types.Type, bits uint32, r ForRange, braced bool) (ast.IdentID, ast.StmtID) {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	if typ == types.Undefined {
		typ = types.Int
	}
	bits = u.width(span, typ, bits)
	if !types.IsIntegerType(typ) && !types.IsFloatingPointType(typ) && typ != types.Angle {
		u.errorf(diag.SemaLoopRangeType, span, "loop variable cannot be of type %s", typ).Emit()
	}

	data := ast.ForData{Start: r.Start, Step: r.Step, Stop: r.Stop}
	if len(r.Set) > 0 {
		data.Set = make([]ast.ExprID, len(r.Set))
		for i, v := range r.Set {
			data.Set[i] = u.convert(v, typ, bits, "loop value")
		}
	} else {
		for _, e := range []ast.ExprID{r.Start, r.Step, r.Stop} {
			if e.IsValid() && !u.anyError(e) && !u.Valid.IsIntegerExpr(e) {
				sp := u.B.Exprs.Get(u.B.Exprs.Unwrap(e)).Span
				u.errorf(diag.SemaLoopRangeType, sp, "range bound of type %s is not an integer", u.Eval.LeafType(e)).Emit()
			}
		}
	}

	stmt := u.B.Stmts.NewFor(span, data)
	isc := u.emit(stmt)
	ctx := u.Ctx.CreateContext(types.For, stmt)
	ident := u.newIdent(source.Canonical(name), span, typ, bits)
	u.bind(ident)
	fd, _ := u.B.Stmts.For(stmt)
	fd.Var = ident
	u.Flow.Loops.Push(stmt, types.For, ctx)
	u.push(stmt, types.For, ctx, ctrlflow.BraceFor, braced, isc, span)
	return ident, stmt
}

func (u *Unit) endLoop(kind types.Type) (block, bool) {
	u.mustBuild()
	bl, ok := u.closeBlock(kind)
	if !ok {
		return bl, false
	}
	if f := u.Flow.Loops.Pop(); f.Stmt != bl.stmt {
		u.ice(diag.ICETrackerState, bl.span, "loop %d closed while %d is innermost", bl.stmt, f.Stmt)
	}
	return bl, true
}

func (u *Unit) EndFor() ast.StmtID {
	bl, ok := u.endLoop(types.For)
	if !ok {
		return ast.NoStmtID
	}
	u.finishConstruct(bl.stmt)
	return bl.stmt
}

func (u *Unit) BeginWhile(span source.Span, cond ast.ExprID, braced bool) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	u.checkCondition(cond)
	stmt := u.B.Stmts.NewWhile(span, cond, ast.Control{})
	isc := u.emit(stmt)
	ctx := u.Ctx.CreateContext(types.While, stmt)
	u.Flow.Loops.Push(stmt, types.While, ctx)
	u.push(stmt, types.While, ctx, ctrlflow.BraceWhile, braced, isc, span)
	return stmt
}

func (u *Unit) EndWhile() ast.StmtID {
	bl, ok := u.endLoop(types.While)
	if !ok {
		return ast.NoStmtID
	}
	u.finishConstruct(bl.stmt)
	return bl.stmt
}

// BeginDoWhile opens "do { ... }"; the condition arrives with EndDoWhile.
func (u *Unit) BeginDoWhile(span source.Span, braced bool) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	stmt := u.B.Stmts.NewDoWhile(span, ast.Control{})
	isc := u.emit(stmt)
	ctx := u.Ctx.CreateContext(types.DoWhile, stmt)
	u.Flow.Loops.Push(stmt, types.DoWhile, ctx)
	u.push(stmt, types.DoWhile, ctx, ctrlflow.BraceDoWhile, braced, isc, span)
	return stmt
}

func (u *Unit) EndDoWhile(cond ast.ExprID) ast.StmtID {
	bl, ok := u.endLoop(types.DoWhile)
	if !ok {
		return ast.NoStmtID
	}
	u.checkCondition(cond)
	if wd, ok := u.B.Stmts.While(bl.stmt); ok {
		wd.Cond = cond
	}
	u.finishConstruct(bl.stmt)
	return bl.stmt
}

// BeginSwitch opens "switch (subject)". Only case and default may follow.
func (u *Unit) BeginSwitch(span source.Span, subject ast.ExprID, braced bool) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	if !u.anyError(subject) && !u.Valid.IsIntegerExpr(subject) {
		u.errorf(diag.CfgSwitchNotInteger, span, "switch subject of type %s is not an integer", u.Eval.LeafType(subject)).Emit()
	}
	stmt := u.B.Stmts.NewSwitch(span, subject, ast.Control{})
	isc := u.emit(stmt)
	ctx := u.Ctx.CreateContext(types.Switch, stmt)
	u.Flow.Switches.Push(stmt)
	u.push(stmt, types.Switch, ctx, ctrlflow.BraceSwitch, braced, isc, span)
	return stmt
}

// caseValues folds the labels of one case and records them with the switch.
func (u *Unit) caseValues(labels []ast.ExprID) []int64 {
	values := make([]int64, 0, len(labels))
	for _, l := range labels {
		if u.anyError(l) {
			continue
		}
		sp := u.B.Exprs.Get(u.B.Exprs.Unwrap(l)).Span
		v, err := u.Eval.ConstInt(l)
		if err != nil || !v.IsInt64() {
			u.errorf(diag.CfgCaseLabelNotConst, sp, "case label is not an integer constant").Emit()
			continue
		}
		if prev, ok := u.Flow.Switches.AddLabel(v.Int64(), sp); !ok {
			u.errorf(diag.CfgDuplicateCaseLabel, sp, "duplicate case label %d", v.Int64()).
				WithNote(prev, "first used here").Emit()
			continue
		}
		values = append(values, v.Int64())
	}
	return values
}

func (u *Unit) BeginCase(span source.Span, labels []ast.ExprID, braced bool) ast.StmtID {
	u.mustBuild()
	span = u.span(span)
	if code, ok := u.Flow.CheckDeclarationContext(types.Case); !ok {
		u.errorf(code, span, "'case' outside a switch").Emit()
		u.detach(types.Case, ctrlflow.BraceCase, braced, span)
		return ast.NoStmtID
	}
	values := u.caseValues(labels)
	owner := u.Flow.Switches.Current()
	stmt := u.B.Stmts.NewCase(span, owner, labels, values, ast.Control{})
	sw, _ := u.B.Stmts.Switch(owner)
	ctx := u.Ctx.CreateContext(types.Case, stmt)
	u.push(stmt, types.Case, ctx, ctrlflow.BraceCase, braced, uint32(len(sw.Cases)-1), span)
	return stmt
}

func (u *Unit) BeginDefault(span source.Span, braced bool) ast.StmtID {
	u.mustBuild()
	span = u.span(span)
	if code, ok := u.Flow.CheckDeclarationContext(types.Default); !ok {
		u.errorf(code, span, "'default' outside a switch").Emit()
		u.detach(types.Default, ctrlflow.BraceCase, braced, span)
		return ast.NoStmtID
	}
	if prev, ok := u.Flow.Switches.SetDefault(span); !ok {
		u.errorf(diag.CfgDuplicateDefault, span, "switch already has a default").
			WithNote(prev, "first default is here").Emit()
		u.detach(types.Default, ctrlflow.BraceCase, braced, span)
		return ast.NoStmtID
	}
	owner := u.Flow.Switches.Current()
	stmt := u.B.Stmts.NewDefault(span, owner, ast.Control{})
	ctx := u.Ctx.CreateContext(types.Default, stmt)
	u.push(stmt, types.Default, ctx, ctrlflow.BraceCase, braced, 0, span)
	return stmt
}

// EndCase closes a case or default body.
func (u *Unit) EndCase() ast.StmtID {
	u.mustBuild()
	bl, ok := u.closeBlock(types.Case, types.Default)
	if !ok || bl.detached {
		return ast.NoStmtID
	}
	return bl.stmt
}

func (u *Unit) EndSwitch() ast.StmtID {
	u.mustBuild()
	bl, ok := u.closeBlock(types.Switch)
	if !ok {
		return ast.NoStmtID
	}
	if _, hasDefault := u.Flow.Switches.Pop(); !hasDefault {
		u.warnf(diag.CfgSwitchNoDefault, bl.span, "switch has no default case").Emit()
	}
	u.finishConstruct(bl.stmt)
	return bl.stmt
}

// LeftBrace and RightBrace count the braces of a bare block.
func (u *Unit) LeftBrace(span source.Span) {
	u.mustBuild()
	u.Flow.Braces.Left(ctrlflow.BraceBlock)
}

func (u *Unit) RightBrace(span source.Span) {
	u.mustBuild()
	if !u.Flow.Braces.Right(ctrlflow.BraceBlock) {
		u.errorf(diag.CfgUnbalancedBraces, span, "'}' without a matching '{'").Emit()
	}
}
