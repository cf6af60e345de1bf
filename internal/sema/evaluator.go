package sema

import (
	"fmt"

	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/types"
)

// Evaluator resolves the semantic type of expression nodes. It reads the
// builder's arenas and writes resolved types back into node headers.
type Evaluator struct {
	b        *ast.Builder
	reporter diag.Reporter

	// angleWindow > 0 keeps angle op scalar in the angle domain.
	angleWindow int
	angleOpen   bool

	consts ConstResolver
}

func NewEvaluator(b *ast.Builder, reporter diag.Reporter) *Evaluator {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Evaluator{b: b, reporter: reporter}
}

func (e *Evaluator) Builder() *ast.Builder { return e.b }

// SetAngleArithmetic makes the angle window permanently open.
func (e *Evaluator) SetAngleArithmetic(open bool) { e.angleOpen = open }

// OpenAngleArithmetic and CloseAngleArithmetic nest.
func (e *Evaluator) OpenAngleArithmetic() { e.angleWindow++ }

func (e *Evaluator) CloseAngleArithmetic() {
	if e.angleWindow == 0 {
		panic(fmt.Errorf("sema: angle arithmetic window closed more often than opened"))
	}
	e.angleWindow--
}

func (e *Evaluator) AngleArithmeticOpen() bool {
	return e.angleOpen || e.angleWindow > 0
}

func (e *Evaluator) report(code diag.Code, span source.Span, format string, args ...any) {
	diag.ReportError(e.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
}

// LeafType unwraps groups, operators, casts, conversions and identifiers
// down to a concrete value type. Error nodes yield types.Error. A wrapper
// tag surviving the walk is a bug in whoever built the node and panics.
func (e *Evaluator) LeafType(id ast.ExprID) types.Type {
	typ := e.leaf(id)
	if types.IsWrapperType(typ) {
		panic(fmt.Errorf("sema: wrapper tag %s survived leaf resolution of expr %d", typ, id))
	}
	return typ
}

func (e *Evaluator) leaf(id ast.ExprID) types.Type {
	id = e.b.Exprs.Unwrap(id)
	expr := e.b.Exprs.Get(id)
	if expr == nil {
		return types.Undefined
	}
	switch expr.Kind {
	case ast.ExprError:
		return types.Error
	case ast.ExprIdent:
		data, _ := e.b.Exprs.Ident(id)
		if ident := e.b.Idents.Get(data.Ident); ident != nil && ident.Type != types.Undefined {
			return ident.Type
		}
		return expr.Type
	case ast.ExprBinary:
		if expr.Type == types.BinaryOp {
			return e.EvaluatesToBinary(id)
		}
	case ast.ExprUnary:
		if expr.Type == types.UnaryOp {
			return e.EvaluatesToUnary(id)
		}
	case ast.ExprCast:
		return e.EvaluatesToCast(id)
	case ast.ExprImplicit:
		return e.EvaluatesToImplicit(id)
	}
	return expr.Type
}

func (e *Evaluator) bitsOf(id ast.ExprID) uint32 {
	if expr := e.b.Exprs.Get(e.b.Exprs.Unwrap(id)); expr != nil {
		return expr.Bits
	}
	return 0
}

// EvaluatesTo dispatches on the node kind.
func (e *Evaluator) EvaluatesTo(id ast.ExprID) types.Type {
	expr := e.b.Exprs.Get(id)
	if expr == nil {
		return types.Undefined
	}
	switch expr.Kind {
	case ast.ExprBinary:
		return e.EvaluatesToBinary(id)
	case ast.ExprUnary:
		return e.EvaluatesToUnary(id)
	case ast.ExprCast:
		return e.EvaluatesToCast(id)
	case ast.ExprImplicit:
		return e.EvaluatesToImplicit(id)
	}
	return e.LeafType(id)
}

// EvaluatesToBinary returns the type an arithmetic on the two operand leaves
// promotes to: the higher ranked side wins. Angle mixed with a plain scalar
// stays Angle under + - * / while the angle window is open and becomes Double
// otherwise. Failures report and return Undefined; an operand that is
// already an error returns Undefined silently.
func (e *Evaluator) EvaluatesToBinary(id ast.ExprID) types.Type {
	data, ok := e.b.Exprs.Binary(id)
	if !ok {
		panic(fmt.Errorf("sema: expr %d is not a binary operation", id))
	}
	span := e.b.Exprs.Get(id).Span
	lt, rt := e.LeafType(data.Left), e.LeafType(data.Right)
	if lt == types.Error || rt == types.Error {
		return types.Undefined
	}
	op := data.Op

	if types.IsOpenPulseType(lt) || types.IsOpenPulseType(rt) {
		e.report(diag.SemaOpenPulseArithmetic, span,
			"operator '%s' is not defined for %s and %s", op, lt, rt)
		return types.Undefined
	}
	la, ra := types.RankOf(lt), types.RankOf(rt)
	if la == types.NoRank || ra == types.NoRank {
		e.report(diag.SemaInvalidBinaryOperands, span,
			"invalid operands to '%s': %s and %s", op, lt, rt)
		return types.Undefined
	}

	leftAngle, rightAngle := lt == types.Angle, rt == types.Angle
	switch {
	case leftAngle && rightAngle:
		if !op.IsAngleArithmetic() {
			e.report(diag.SemaAngleOperator, span, "operator '%s' is not defined on two angles", op)
			return types.Undefined
		}
		return types.Angle
	case leftAngle || rightAngle:
		other := rt
		if rightAngle {
			other = lt
		}
		if !op.IsAngleArithmetic() || types.RankOf(other) > types.RankOf(types.Angle) {
			e.report(diag.SemaAngleOperator, span,
				"operator '%s' cannot combine angle with %s", op, other)
			return types.Undefined
		}
		if e.AngleArithmeticOpen() {
			return types.Angle
		}
		return types.Double
	}

	return promote(lt, rt)
}

// promote breaks rank ties between distinct types (int and bit, char and
// utf8) by tag order so that operand order never changes the result.
func promote(lt, rt types.Type) types.Type {
	if types.RankOf(lt) == types.RankOf(rt) {
		return max(lt, rt)
	}
	res, _ := types.Promote(lt, rt)
	return res
}

func isBitwiseOperand(t types.Type) bool {
	return t == types.Bool || types.IsIntegerType(t)
}

// ResolveBinary evaluates id and stores the result in its header. The node
// type is bool for comparisons and logical connectives; Operand keeps the
// promoted operand type. It returns false when the node must be marked as an
// error by the caller.
func (e *Evaluator) ResolveBinary(id ast.ExprID) bool {
	operand := e.EvaluatesToBinary(id)
	if operand == types.Undefined {
		return false
	}
	data, _ := e.b.Exprs.Binary(id)
	expr := e.b.Exprs.Get(id)
	data.Operand = operand
	if data.Op.IsRelational() {
		expr.Type, expr.Bits = types.Bool, 1
		return true
	}
	expr.Type = operand
	lb, rb := e.bitsOf(data.Left), e.bitsOf(data.Right)
	switch operand {
	case e.LeafType(data.Left):
		expr.Bits = lb
		if operand == e.LeafType(data.Right) {
			expr.Bits = max(lb, rb)
		}
	case e.LeafType(data.Right):
		expr.Bits = rb
	default:
		expr.Bits = defaultBits(operand)
	}
	return true
}

// EvaluatesToUnary applies the operator rules to the operand leaf.
func (e *Evaluator) EvaluatesToUnary(id ast.ExprID) types.Type {
	data, ok := e.b.Exprs.Unary(id)
	if !ok {
		panic(fmt.Errorf("sema: expr %d is not a unary operation", id))
	}
	span := e.b.Exprs.Get(id).Span
	t := e.LeafType(data.Operand)
	if t == types.Error {
		return types.Undefined
	}
	op := data.Op
	switch {
	case op == ast.UnNot:
		return types.Bool
	case op == ast.UnBitNot:
		if isBitwiseOperand(t) {
			return t
		}
	case op.IsBitRotation():
		if types.IsIntegerType(t) {
			return t
		}
	case op.IsTranscendental():
		switch {
		case types.IsIntegerType(t), types.IsFloatingPointType(t), t == types.Bool:
			return types.Double
		case types.IsComplexType(t):
			return types.MPComplex
		case types.IsAngleType(t):
			return types.Angle
		}
	case op == ast.UnNeg, op == ast.UnPos:
		if types.CanDoArithmeticNegPos(t) {
			return t
		}
	case op == ast.UnLeftFold, op == ast.UnRightFold:
		e.report(diag.SemaUnsupportedOperator, span, "operator '%s' is not supported", op)
		return types.Undefined
	}
	e.report(diag.SemaInvalidUnaryOperand, span, "operator '%s' is not defined for %s", op, t)
	return types.Undefined
}

// ResolveUnary stores the evaluated type in the header.
func (e *Evaluator) ResolveUnary(id ast.ExprID) bool {
	t := e.EvaluatesToUnary(id)
	if t == types.Undefined {
		return false
	}
	data, _ := e.b.Exprs.Unary(id)
	expr := e.b.Exprs.Get(id)
	expr.Type = t
	switch {
	case t == types.Bool:
		expr.Bits = 1
	case t == e.LeafType(data.Operand):
		expr.Bits = e.bitsOf(data.Operand)
	default:
		expr.Bits = defaultBits(t)
	}
	return true
}

// EvaluatesToCast returns the cast target when the operand leaf may be cast
// to it, else Undefined.
func (e *Evaluator) EvaluatesToCast(id ast.ExprID) types.Type {
	data, ok := e.b.Exprs.Cast(id)
	if !ok {
		panic(fmt.Errorf("sema: expr %d is not a cast", id))
	}
	to := e.b.Exprs.Get(id).Type
	from := e.LeafType(data.Value)
	if from == types.Error || !types.CanCast(from, to) {
		return types.Undefined
	}
	return to
}

// ResolveCast fills From and Method and reports illegal casts.
func (e *Evaluator) ResolveCast(id ast.ExprID) bool {
	data, _ := e.b.Exprs.Cast(id)
	expr := e.b.Exprs.Get(id)
	from := e.LeafType(data.Value)
	data.From = from
	data.Method = types.ResolveConversionMethod(from, expr.Type)
	if from == types.Error {
		return false
	}
	if data.Method == types.BadCast {
		e.report(diag.SemaBadCast, expr.Span, "cannot cast %s to %s", from, expr.Type)
		return false
	}
	return true
}

// EvaluatesToImplicit returns the target only for conversions marked valid
// when the node was built.
func (e *Evaluator) EvaluatesToImplicit(id ast.ExprID) types.Type {
	data, ok := e.b.Exprs.Implicit(id)
	if !ok {
		panic(fmt.Errorf("sema: expr %d is not an implicit conversion", id))
	}
	if !data.Valid {
		return types.Undefined
	}
	return e.b.Exprs.Get(id).Type
}

// defaultBits is the width given to a result whose type comes from neither
// operand. It matches the width of an unsized declaration of that type.
func defaultBits(t types.Type) uint32 { return types.DefaultBits(t) }
