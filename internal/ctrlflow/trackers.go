package ctrlflow

import (
	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/symbols"
	"qasm3/internal/types"
)

// Trackers bundles the per-unit control-flow state.
type Trackers struct {
	Braces   Braces
	Lists    *ListBuilder
	Ifs      *IfTracker
	Loops    LoopTracker
	Switches SwitchTracker

	ctx *symbols.Tracker
}

func New(b *ast.Builder, ctx *symbols.Tracker) *Trackers {
	return &Trackers{
		Lists: NewListBuilder(b.Lists, b.Top),
		Ifs:   NewIfTracker(b.Stmts),
		ctx:   ctx,
	}
}

func isLoop(t types.Type) bool {
	return t == types.For || t == types.While || t == types.DoWhile
}

// a jump never crosses one of these
func isBoundary(t types.Type) bool {
	switch t {
	case types.Function, types.Gate, types.Defcal, types.Kernel, types.Calibration:
		return true
	}
	return false
}

// CheckDeclarationContext decides whether a construct of kind may start in
// the current declaration context. It returns the diagnostic code to report
// and false when it may not.
func (t *Trackers) CheckDeclarationContext(kind types.Type) (diag.Code, bool) {
	cur := t.ctx.Current()
	switch kind {
	case types.ElseIf, types.Else:
		code := diag.CfgElseWithoutIf
		if kind == types.ElseIf {
			code = diag.CfgElseIfWithoutIf
		}
		_, state, ok := t.Ifs.Top()
		if !ok || t.Ifs.TopContext() != cur.ID {
			return code, false
		}
		if t.Ifs.ElseSeen() {
			return diag.CfgElseAfterElse, false
		}
		if state != IfPendingElseIf && state != IfPendingElse {
			return code, false
		}
	case types.Case:
		if cur.Type != types.Switch {
			return diag.CfgCaseOutsideSwitch, false
		}
	case types.Default:
		if cur.Type != types.Switch {
			return diag.CfgDefaultOutsideSwitch, false
		}
	case types.Break, types.Continue:
		if _, ok := t.ctx.Enclosing(isLoop, isBoundary); !ok {
			if kind == types.Break {
				return diag.CfgBreakOutsideLoop, false
			}
			return diag.CfgContinueOutsideLoop, false
		}
	case types.Return:
		isFn := func(t types.Type) bool { return t == types.Function || t == types.Defcal }
		stop := func(t types.Type) bool { return t == types.Gate || t == types.Calibration }
		if _, ok := t.ctx.Enclosing(isFn, stop); !ok {
			return diag.CfgReturnOutsideFunc, false
		}
	}
	return 0, true
}

// RemoveOutOfScope walks root in post-order and erases the local symbols of
// every nested construct whose context is not global. It returns the number
// of erased entries.
func (t *Trackers) RemoveOutOfScope(b *ast.Builder, table *symbols.Table, root ast.StmtID) int {
	n := 0
	b.WalkStmt(root, func(id ast.StmtID) {
		ctl, ok := b.Stmts.ControlOf(id)
		if !ok || !ctl.Ctx.IsValid() {
			return
		}
		if ctl.Ctx == symbols.GlobalContextID || ctl.Ctx == symbols.CalibrationContextID {
			return
		}
		n += len(table.EraseContext(ctl.Ctx))
		switch b.Stmts.Get(id).Kind {
		case ast.StmtIf, ast.StmtElseIf, ast.StmtElse:
			t.Ifs.Close(id)
		}
	})
	return n
}
