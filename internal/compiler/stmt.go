package compiler

import (
	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

// targetIdent returns the ident an assignment target writes to.
func (u *Unit) targetIdent(target ast.ExprID) ast.IdentID {
	exprs := u.B.Exprs
	target = exprs.Unwrap(target)
	if data, ok := exprs.Ident(target); ok {
		return data.Ident
	}
	if data, ok := exprs.IndexedData(target); ok {
		if data.View.IsValid() {
			return data.View
		}
		return u.targetIdent(data.Base)
	}
	return ast.NoIdentID
}

// Assign builds "target = value" or, with a non-zero op, "target op= value".
func (u *Unit) Assign(span source.Span, target ast.ExprID, op ast.BinaryOp, value ast.ExprID) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	data := ast.AssignData{Target: target, Value: value, Compound: op != 0, Op: op}
	if u.anyError(target) {
		return u.emitAssign(span, data)
	}
	ident := u.targetIdent(target)
	if !ident.IsValid() {
		u.errorf(diag.SemaNotAssignable, span, "expression is not assignable").Emit()
		return u.emitAssign(span, data)
	}
	id := u.B.Idents.Get(ident)
	name := u.B.Name(ident)
	if id.Const {
		b := u.errorf(diag.SemaAssignToConst, span, "cannot assign to const '%s'", name)
		if e := u.EntryOf(ident); e != nil {
			b = b.WithNote(e.Span, "declared const here")
		}
		b.Emit()
		return u.emitAssign(span, data)
	}
	typ := u.Eval.LeafType(target)
	if !types.IsAssignableType(typ) {
		u.errorf(diag.SemaNotAssignable, span, "'%s' of type %s is not assignable", name, typ).Emit()
		return u.emitAssign(span, data)
	}
	if data.Compound {
		value = u.Binary(span, op, target, value)
	}
	bits := u.B.Exprs.Get(u.B.Exprs.Unwrap(target)).Bits
	data.Value = u.convert(value, typ, bits, "assigned value")
	return u.emitAssign(span, data)
}

func (u *Unit) emitAssign(span source.Span, data ast.AssignData) ast.StmtID {
	stmt := u.B.Stmts.NewAssign(span, data)
	u.emit(stmt)
	return stmt
}

func (u *Unit) ExprStmt(span source.Span, expr ast.ExprID) ast.StmtID {
	u.mustBuild()
	u.settle()
	stmt := u.B.Stmts.NewExprStmt(u.span(span), expr)
	u.emit(stmt)
	return stmt
}

// qubitOperands reports every operand that is not qubit typed.
func (u *Unit) qubitOperands(span source.Span, what string, operands []ast.ExprID) {
	for i, q := range operands {
		if u.anyError(q) {
			continue
		}
		if !u.Valid.Expr(q, types.IsQubitType) {
			u.errorf(diag.SemaGateOperandNotQubit, u.B.Exprs.Get(q).Span,
				"operand %d of %s is %s, not a qubit", i+1, what, u.Eval.LeafType(q)).
				WithNote(span, "in this statement").Emit()
		}
	}
}

// GateCall builds "name(params) qubits;".
func (u *Unit) GateCall(span source.Span, name string, params, qubits []ast.ExprID) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	name = source.Canonical(name)
	data := ast.GateCallData{
		Params: append([]ast.ExprID(nil), params...),
		Qubits: append([]ast.ExprID(nil), qubits...),
	}
	e := u.Table.Lookup(name)
	if e != nil && e.Type == types.Defcal {
		if g := u.Table.LookupGlobal(name); g != nil && g.Type == types.Gate {
			e = g
		}
	}
	switch {
	case e == nil && u.Table.DefcalOverloads(name) > 0:
		// resolved against a defcal overload by the backend
	case e == nil:
		u.errorf(diag.SemaUndeclaredIdentifier, span, "gate '%s' is not declared", name).Emit()
	case e.Type == types.Defcal:
		data.Gate = e.Ident
	case e.Type != types.Gate:
		u.errorf(diag.SemaNotAGate, span, "'%s' is a %s, not a gate", name, e.Type).
			WithNote(e.Span, "declared here").Emit()
	default:
		data.Gate = e.Ident
		sig := u.sigs[e.Ident]
		if len(params) != len(sig.params) {
			u.errorf(diag.SemaGateParamArity, span, "gate '%s' takes %d parameters, %d given", name, len(sig.params), len(params)).Emit()
		}
		if len(qubits) != sig.qubits {
			u.errorf(diag.SemaGateQubitArity, span, "gate '%s' acts on %d qubits, %d given", name, sig.qubits, len(qubits)).Emit()
		}
	}
	for i, p := range params {
		if !u.anyError(p) && !u.Valid.IsArithmeticExpr(p) {
			u.errorf(diag.SemaTypeMismatch, span, "parameter %d of '%s' is %s, not a number", i+1, name, u.Eval.LeafType(p)).Emit()
		}
	}
	u.qubitOperands(span, "'"+name+"'", qubits)
	stmt := u.B.Stmts.NewGateCall(span, data)
	u.emit(stmt)
	return stmt
}

func (u *Unit) Reset(span source.Span, target ast.ExprID) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	u.qubitOperands(span, "reset", []ast.ExprID{target})
	stmt := u.B.Stmts.NewReset(span, target)
	u.emit(stmt)
	return stmt
}

func (u *Unit) Barrier(span source.Span, targets []ast.ExprID) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	u.qubitOperands(span, "barrier", targets)
	stmt := u.B.Stmts.NewBarrier(span, targets)
	u.emit(stmt)
	return stmt
}

// delayOperand classifies the length expression of a delay.
func (u *Unit) delayOperand(length ast.ExprID) (ast.DelayOperand, bool) {
	exprs := u.B.Exprs
	id := exprs.Unwrap(length)
	expr := exprs.Get(id)
	if expr == nil || expr.Kind == ast.ExprError {
		return nil, true
	}
	switch expr.Kind {
	case ast.ExprLit:
		if lit, _ := exprs.Literal(id); lit.Kind == ast.LitDuration {
			return ast.DelayLiteral{Value: lit.Duration}, true
		}
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		if expr.Type == types.Stretch || expr.Type == types.Duration {
			return ast.DelayStretch{Ident: data.Ident}, true
		}
	case ast.ExprBinary:
		return ast.DelayBinary{Expr: id}, u.Valid.IsTimeExpr(id)
	case ast.ExprUnary:
		return ast.DelayUnary{Expr: id}, u.Valid.IsTimeExpr(id)
	case ast.ExprDurationOf:
		return ast.DelayDurationOf{Expr: id}, true
	}
	return nil, false
}

// Delay builds "delay[length] qubits;".
func (u *Unit) Delay(span source.Span, length ast.ExprID, qubits []ast.ExprID) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	operand, ok := u.delayOperand(length)
	if !ok {
		u.errorf(diag.SemaDelayOperand, span, "delay length must be a duration, found %s", u.Eval.LeafType(length)).Emit()
		operand = nil
	}
	u.qubitOperands(span, "delay", qubits)
	stmt := u.B.Stmts.NewDelay(span, operand, qubits)
	u.emit(stmt)
	return stmt
}

func (u *Unit) jump(span source.Span, kind ast.StmtKind, typ types.Type) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	target := ast.NoStmtID
	if code, ok := u.Flow.CheckDeclarationContext(typ); !ok {
		u.errorf(code, span, "'%s' is not inside a loop", typ).Emit()
	} else if loop, ok := u.Flow.Loops.Innermost(); ok {
		target = loop.Stmt
	}
	stmt := u.B.Stmts.NewJump(span, kind, target, ast.NoExprID)
	u.emit(stmt)
	return stmt
}

func (u *Unit) Break(span source.Span) ast.StmtID {
	return u.jump(span, ast.StmtBreak, types.Break)
}

func (u *Unit) Continue(span source.Span) ast.StmtID {
	return u.jump(span, ast.StmtContinue, types.Continue)
}

// Return builds "return value;"; value may be NoExprID.
func (u *Unit) Return(span source.Span, value ast.ExprID) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	target := ast.NoStmtID
	if code, ok := u.Flow.CheckDeclarationContext(types.Return); !ok {
		u.errorf(code, span, "'return' outside of a function").Emit()
	} else if bl := u.innermost(types.Function, types.Defcal); bl != nil {
		target = bl.stmt
		if fd, ok := u.B.Stmts.Function(bl.stmt); ok {
			value = u.returnValue(span, fd, value)
		}
	}
	stmt := u.B.Stmts.NewJump(span, ast.StmtReturn, target, value)
	u.emit(stmt)
	return stmt
}

func (u *Unit) returnValue(span source.Span, fd *ast.FunctionData, value ast.ExprID) ast.ExprID {
	name := u.B.Name(fd.Ident)
	void := fd.Result == types.Void || fd.Result == types.Undefined
	switch {
	case void && value.IsValid():
		u.errorf(diag.SemaReturnType, span, "'%s' returns no value", name).Emit()
	case !void && !value.IsValid():
		u.errorf(diag.SemaReturnType, span, "'%s' must return a %s", name, fd.Result).Emit()
	case !void:
		return u.convert(value, fd.Result, fd.ResultBits, "return value")
	}
	return value
}

// innermost returns the innermost open block of one of kinds.
func (u *Unit) innermost(kinds ...types.Type) *block {
	for i := len(u.blocks) - 1; i >= 0; i-- {
		for _, k := range kinds {
			if u.blocks[i].kind == k {
				return &u.blocks[i]
			}
		}
	}
	return nil
}
