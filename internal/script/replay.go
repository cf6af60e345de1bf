package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"qasm3/internal/ast"
	"qasm3/internal/compiler"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

type replayer struct {
	u   *compiler.Unit
	err error
	// index of the action being replayed, for error messages
	at int
}

// Replay drives u through every action of s in order. Semantic problems end
// up in the unit's diagnostics; the returned error is reserved for actions
// the unit API cannot express. Replay does not call Finish.
func Replay(u *compiler.Unit, s *Script) error {
	r := &replayer{u: u}
	r.actions(s.Actions)
	return r.err
}

func (r *replayer) failf(code diag.Code, format string, args ...any) {
	if r.err == nil {
		r.err = &ReplayError{Action: r.at, Code: code, Msg: fmt.Sprintf(format, args...)}
	}
}

func span(at []uint32) source.Span {
	if len(at) != 2 {
		return source.NoSpan
	}
	return source.Span{Start: at[0], End: at[1]}
}

func (r *replayer) typ(name string) types.Type {
	if name == "" {
		return types.Undefined
	}
	t, ok := types.Parse(name)
	if !ok {
		r.failf(diag.ScrUnknownType, "unknown type %q", name)
		return types.Error
	}
	return t
}

func (r *replayer) raw(msg json.RawMessage, into any) {
	if len(msg) == 0 {
		return
	}
	if err := json.Unmarshal(msg, into); err != nil {
		r.failf(diag.ScrBadOperand, "%v", err)
	}
}

func (r *replayer) rawExprs(msg json.RawMessage) []ast.ExprID {
	var es []*Expr
	r.raw(msg, &es)
	return r.exprs(es)
}

func (r *replayer) rawNames(msg json.RawMessage) []string {
	var names []string
	r.raw(msg, &names)
	return names
}

func (r *replayer) rawParams(msg json.RawMessage) []compiler.Param {
	var ps []Param
	r.raw(msg, &ps)
	out := make([]compiler.Param, len(ps))
	for i, p := range ps {
		out[i] = compiler.Param{Name: p.Name, Type: r.typ(p.Type), Bits: p.Bits}
	}
	return out
}

func (r *replayer) exprs(es []*Expr) []ast.ExprID {
	out := make([]ast.ExprID, 0, len(es))
	for _, e := range es {
		out = append(out, r.expr(e))
	}
	return out
}

func (r *replayer) expr(e *Expr) ast.ExprID {
	if e == nil {
		return ast.NoExprID
	}
	u := r.u
	sp := span(e.At)
	switch e.Kind {
	case "ident":
		return u.Ident(sp, e.Name)
	case "int":
		return u.IntLit(sp, e.Text)
	case "float":
		return u.FloatLit(sp, e.Text)
	case "bool":
		return u.BoolLit(sp, e.Value)
	case "string":
		return u.StringLit(sp, e.Text)
	case "bitstring":
		return u.BitstringLit(sp, e.Text)
	case "duration":
		return u.DurationLit(sp, e.Text)
	case "constant":
		return u.Constant(sp, e.Name)
	case "group":
		return u.Group(sp, r.expr(e.Operand))
	case "binary":
		op, ok := ast.ParseBinaryOp(e.Op)
		if !ok {
			r.failf(diag.ScrBadOperand, "unknown binary operator %q", e.Op)
			return ast.NoExprID
		}
		left := r.expr(e.Left)
		right := r.expr(e.Right)
		return u.Binary(sp, op, left, right)
	case "unary":
		op, ok := ast.ParseUnaryOp(e.Op)
		if !ok {
			r.failf(diag.ScrBadOperand, "unknown unary operator %q", e.Op)
			return ast.NoExprID
		}
		return u.Unary(sp, op, r.expr(e.Operand))
	case "cast":
		return u.Cast(sp, r.expr(e.Operand), r.typ(e.Type), e.Bits)
	case "implicit":
		return u.ImplicitConversion(sp, r.expr(e.Operand), r.typ(e.Type), e.Bits)
	case "index":
		base := r.expr(e.Base)
		index := r.expr(e.Index)
		return u.IndexedIdent(sp, base, index)
	case "part":
		part := ast.PartReal
		if e.Part == "imag" {
			part = ast.PartImag
		}
		return u.Part(sp, r.expr(e.Operand), part)
	case "call":
		return u.Call(sp, e.Name, r.exprs(e.Args))
	case "measure":
		return u.Measure(sp, r.expr(e.Operand))
	case "durationof":
		u.BeginDurationOf(sp)
		r.actions(e.Body)
		return u.EndDurationOf()
	}
	r.failf(diag.ScrBadOperand, "unknown expression kind %q", e.Kind)
	return ast.NoExprID
}

// assignOp maps "=", "+=", "<<=" ... to the compound operator, 0 for plain
// assignment.
func (r *replayer) assignOp(s string) ast.BinaryOp {
	if s == "" || s == "=" {
		return 0
	}
	op, ok := ast.ParseBinaryOp(strings.TrimSuffix(s, "="))
	if !ok {
		r.failf(diag.ScrBadOperand, "unknown assignment operator %q", s)
	}
	return op
}

func (r *replayer) actions(list []Action) {
	for i := range list {
		if r.err != nil {
			return
		}
		r.action(&list[i])
		r.at++
	}
}

func (r *replayer) action(a *Action) {
	u := r.u
	sp := span(a.At)
	braced := a.IsBraced()
	switch a.Action {
	case "declare":
		u.Declare(sp, compiler.Decl{
			Name:  a.Name,
			Type:  r.typ(a.Type),
			Bits:  a.Bits,
			Const: a.Const,
			Init:  r.expr(a.Init),
		})
	case "qubit":
		u.DeclareQubit(sp, a.Name, a.Size)
	case "alias":
		u.DeclareAlias(sp, a.Name, r.expr(a.Target))
	case "array":
		u.DeclareArray(sp, a.Name, r.typ(a.Type), a.Bits, a.Length)
	case "assign":
		op := r.assignOp(a.Op)
		target := r.expr(a.Target)
		u.Assign(sp, target, op, r.expr(a.Value))
	case "expr":
		u.ExprStmt(sp, r.expr(a.Value))
	case "gatecall":
		params := r.rawExprs(a.Params)
		u.GateCall(sp, a.Name, params, r.rawExprs(a.Qubits))
	case "reset":
		u.Reset(sp, r.expr(a.Target))
	case "barrier":
		u.Barrier(sp, r.rawExprs(a.Qubits))
	case "delay":
		length := r.expr(a.Duration)
		u.Delay(sp, length, r.rawExprs(a.Qubits))
	case "break":
		u.Break(sp)
	case "continue":
		u.Continue(sp)
	case "return":
		u.Return(sp, r.expr(a.Value))

	case "if":
		u.BeginIf(sp, r.expr(a.Cond), braced)
	case "elseif":
		u.BeginElseIf(sp, r.expr(a.Cond), braced)
	case "else":
		u.BeginElse(sp, braced)
	case "endif":
		u.EndIfBody()
	case "for":
		rng := compiler.ForRange{
			Start: r.expr(a.Start),
			Step:  r.expr(a.Step),
			Stop:  r.expr(a.Stop),
			Set:   r.exprs(a.Set),
		}
		u.BeginFor(sp, a.Name, r.typ(a.Type), a.Bits, rng, braced)
	case "endfor":
		u.EndFor()
	case "while":
		u.BeginWhile(sp, r.expr(a.Cond), braced)
	case "endwhile":
		u.EndWhile()
	case "do":
		u.BeginDoWhile(sp, braced)
	case "enddo":
		u.EndDoWhile(r.expr(a.Cond))
	case "switch":
		u.BeginSwitch(sp, r.expr(a.Subject), braced)
	case "case":
		u.BeginCase(sp, r.exprs(a.Labels), braced)
	case "default":
		u.BeginDefault(sp, braced)
	case "endcase":
		u.EndCase()
	case "endswitch":
		u.EndSwitch()

	case "gate":
		u.BeginGate(sp, a.Name, r.rawNames(a.Params), r.rawNames(a.Qubits), braced)
	case "endgate":
		u.EndGate()
	case "defcal":
		u.BeginDefcal(sp, a.Name, r.rawParams(a.Params), r.rawNames(a.Qubits), braced)
	case "enddefcal":
		u.EndDefcal()
	case "def":
		u.BeginFunction(sp, a.Name, r.rawParams(a.Params), r.typ(a.Result), a.Bits, braced)
	case "enddef":
		u.EndFunction()
	case "extern":
		params := r.rawParams(a.Params)
		pts := make([]types.Type, len(params))
		for i, p := range params {
			pts[i] = p.Type
		}
		u.DeclareKernel(sp, a.Name, pts, r.typ(a.Result), a.Bits)
	case "cal":
		u.BeginCal(sp, braced)
	case "endcal":
		u.EndCal()
	case "lbrace":
		u.LeftBrace(sp)
	case "rbrace":
		u.RightBrace(sp)
	case "angle_open":
		u.OpenAngleArithmetic()
	case "angle_close":
		u.CloseAngleArithmetic()
	default:
		r.failf(diag.ScrUnknownAction, "unknown action %q", a.Action)
	}
}
