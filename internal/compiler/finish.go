package compiler

import (
	"errors"
	"fmt"

	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/mangle"
	"qasm3/internal/source"
	"qasm3/internal/symbols"
	"qasm3/internal/trace"
	"qasm3/internal/types"
)

// Entity is one symbol of a finished unit.
type Entity struct {
	Name    string
	Mangled string
	Type    types.Type
	Bits    uint32
	Scope   symbols.Scope
	Map     symbols.MapKind
	Const   bool
	Span    source.Span
	Hash    uint64
	// Live is false for locals erased when their scope closed.
	Live bool
}

// Result is what Finish hands to exporters and reporters.
type Result struct {
	Unit        string
	Entities    []Entity
	Literals    int
	Release     symbols.ReleaseStats
	Diagnostics *diag.Bag
	// Statements counts the top-level statements.
	Statements int
}

// Finish closes whatever the driver left open, mangles every resolved node,
// pools literals and releases the symbol table. The unit cannot be built
// further; calling Finish again returns the same result.
func (u *Unit) Finish() *Result {
	if u.finished {
		return u.result
	}
	for i := len(u.blocks) - 1; i >= 0; i-- {
		bl := u.blocks[i]
		u.errorf(diag.CfgUnclosedConstruct, bl.span, "%s is never closed", bl.kind).Emit()
		u.forceClose(bl.kind)
	}
	u.settle()
	for _, c := range u.Flow.Braces.Unbalanced() {
		u.errorf(diag.CfgUnbalancedBraces, source.NoSpan, "unbalanced braces in %s", c).Emit()
	}

	sp := trace.BeginUnit(u.tracer, trace.ScopePass, u.Name, "mangle", 0)
	u.mangleAll()
	literals := u.poolLiterals()
	sp.End(fmt.Sprintf("%d literals", literals))

	res := &Result{
		Unit:        u.Name,
		Entities:    u.entities(),
		Literals:    literals,
		Diagnostics: u.bag,
		Statements:  len(u.B.Lists.Items(u.B.Top)),
	}
	res.Release = u.Table.Release()
	u.finished = true
	u.result = res
	return res
}

func (u *Unit) forceClose(kind types.Type) {
	switch kind {
	case types.If, types.ElseIf, types.Else:
		u.EndIfBody()
	case types.For:
		u.EndFor()
	case types.While:
		u.EndWhile()
	case types.DoWhile:
		u.EndDoWhile(ast.NoExprID)
	case types.Switch:
		u.EndSwitch()
	case types.Case, types.Default:
		u.EndCase()
	case types.Gate:
		u.EndGate()
	case types.Defcal:
		u.EndDefcal()
	case types.Function:
		u.EndFunction()
	case types.Calibration:
		u.EndCal()
	case types.Box:
		u.EndDurationOf()
	default:
		u.ice(diag.ICEContextMisuse, source.NoSpan, "no way to close a %s block", kind)
		u.blocks = u.blocks[:len(u.blocks)-1]
	}
}

// mangleFailed reports a node the mangler refused. With user errors in the
// unit the failure is expected and stays silent.
func (u *Unit) mangleFailed(span source.Span, err error) {
	if u.bag.HasErrors() {
		return
	}
	code := diag.ICEUnresolvedMangle
	if errors.Is(err, mangle.ErrNoCode) {
		code = diag.ICEWrapperLeaf
	}
	u.ice(code, span, "%v", err)
}

func (u *Unit) mangleAll() {
	stmts := u.B.Stmts
	for i := uint32(1); i <= stmts.Arena.Len(); i++ {
		id := ast.StmtID(i)
		if _, err := u.Mangler.Stmt(id); err != nil {
			u.mangleFailed(stmts.Get(id).Span, err)
		}
	}
	// parents come after their operands, so walking backwards mangles each
	// tree once from its root
	exprs := u.B.Exprs
	for i := exprs.Arena.Len(); i >= 1; i-- {
		id := ast.ExprID(i)
		e := exprs.Get(id)
		if e.Mangled != "" || e.Kind == ast.ExprError || e.Kind == ast.ExprGroup || exprs.IsError(id) {
			continue
		}
		if _, err := u.Mangler.Expr(id); err != nil {
			u.mangleFailed(e.Span, err)
		}
	}
}

// poolLiterals interns every mangled literal and returns the pool size.
func (u *Unit) poolLiterals() int {
	exprs := u.B.Exprs
	for i := uint32(1); i <= exprs.Arena.Len(); i++ {
		e := exprs.Get(ast.ExprID(i))
		if e.Kind != ast.ExprLit || e.Mangled == "" {
			continue
		}
		u.Table.InternLiteral(e.Mangled, ast.ExprID(i), e.Type, e.Bits)
	}
	return u.Table.LiteralCount()
}

func (u *Unit) entities() []Entity {
	var out []Entity
	u.Table.Each(func(e *symbols.Entry) {
		if e.Map == symbols.MapLiteral {
			return
		}
		ent := Entity{
			Name:  e.Name,
			Type:  e.Type,
			Bits:  e.Bits,
			Scope: e.Scope,
			Map:   e.Map,
			Const: e.Const,
			Span:  e.Span,
			Hash:  e.Hash,
			Live:  e.Live(),
		}
		if id := u.B.Idents.Get(e.Ident); id != nil {
			ent.Mangled = id.Mangled
			if ent.Mangled == "" {
				ent.Mangled, _ = u.Mangler.Ident(e.Ident)
			}
		}
		out = append(out, ent)
	})
	return out
}
