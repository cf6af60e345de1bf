package sema

import (
	"errors"
	"fmt"
	"math/big"

	"qasm3/internal/ast"
	"qasm3/internal/types"
)

var (
	ErrNotConstant    = errors.New("not a constant integer expression")
	ErrDivisionByZero = errors.New("division by zero in constant expression")
)

// ConstResolver returns the initializer of a const identifier.
type ConstResolver func(ast.IdentID) (ast.ExprID, bool)

// SetConstResolver lets ConstInt see through const identifiers.
func (e *Evaluator) SetConstResolver(r ConstResolver) { e.consts = r }

// ConstInt folds an integer constant expression. Only integer, bool and bit
// valued nodes fold; anything else returns ErrNotConstant.
func (e *Evaluator) ConstInt(id ast.ExprID) (*big.Int, error) {
	return e.constInt(id, 0)
}

// const identifiers may refer to each other; the depth cap stops cycles built
// by a broken driver
const maxConstDepth = 64

func (e *Evaluator) constInt(id ast.ExprID, depth int) (*big.Int, error) {
	if depth > maxConstDepth {
		return nil, ErrNotConstant
	}
	exprs := e.b.Exprs
	id = exprs.Unwrap(id)
	expr := exprs.Get(id)
	if expr == nil {
		return nil, ErrNotConstant
	}
	switch expr.Kind {
	case ast.ExprLit:
		lit, _ := exprs.Literal(id)
		switch lit.Kind {
		case ast.LitInt:
			return new(big.Int).Set(lit.Int), nil
		case ast.LitBool:
			if lit.Bool {
				return big.NewInt(1), nil
			}
			return big.NewInt(0), nil
		case ast.LitBitstring:
			v, ok := new(big.Int).SetString(lit.Text, 2)
			if !ok {
				return nil, ErrNotConstant
			}
			return v, nil
		}
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		ident := e.b.Idents.Get(data.Ident)
		if ident == nil || !ident.Const || e.consts == nil {
			return nil, ErrNotConstant
		}
		if val, ok := e.consts(data.Ident); ok {
			return e.constInt(val, depth+1)
		}
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		v, err := e.constInt(data.Operand, depth+1)
		if err != nil {
			return nil, err
		}
		switch data.Op {
		case ast.UnNeg:
			return v.Neg(v), nil
		case ast.UnPos:
			return v, nil
		case ast.UnBitNot:
			return v.Not(v), nil
		case ast.UnNot:
			if v.Sign() == 0 {
				return big.NewInt(1), nil
			}
			return big.NewInt(0), nil
		}
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		l, err := e.constInt(data.Left, depth+1)
		if err != nil {
			return nil, err
		}
		r, err := e.constInt(data.Right, depth+1)
		if err != nil {
			return nil, err
		}
		return foldBinary(data.Op, l, r)
	case ast.ExprCast:
		data, _ := exprs.Cast(id)
		if !types.IsIntegerType(expr.Type) && expr.Type != types.Bool {
			return nil, ErrNotConstant
		}
		return e.constInt(data.Value, depth+1)
	case ast.ExprImplicit:
		data, _ := exprs.Implicit(id)
		return e.constInt(data.Value, depth+1)
	}
	return nil, ErrNotConstant
}

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func foldBinary(op ast.BinaryOp, l, r *big.Int) (*big.Int, error) {
	out := new(big.Int)
	switch op {
	case ast.BinAdd:
		return out.Add(l, r), nil
	case ast.BinSub:
		return out.Sub(l, r), nil
	case ast.BinMul:
		return out.Mul(l, r), nil
	case ast.BinDiv, ast.BinMod:
		if r.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		if op == ast.BinDiv {
			return out.Quo(l, r), nil
		}
		return out.Rem(l, r), nil
	case ast.BinPow:
		if r.Sign() < 0 {
			return nil, ErrNotConstant
		}
		return out.Exp(l, r, nil), nil
	case ast.BinBitAnd:
		return out.And(l, r), nil
	case ast.BinBitOr:
		return out.Or(l, r), nil
	case ast.BinBitXor:
		return out.Xor(l, r), nil
	case ast.BinShl, ast.BinShr:
		if r.Sign() < 0 || !r.IsUint64() || r.Uint64() > 4096 {
			return nil, fmt.Errorf("%w: shift by %s", ErrNotConstant, r)
		}
		if op == ast.BinShl {
			return out.Lsh(l, uint(r.Uint64())), nil
		}
		return out.Rsh(l, uint(r.Uint64())), nil
	case ast.BinEq:
		return boolInt(l.Cmp(r) == 0), nil
	case ast.BinNe:
		return boolInt(l.Cmp(r) != 0), nil
	case ast.BinLt:
		return boolInt(l.Cmp(r) < 0), nil
	case ast.BinLe:
		return boolInt(l.Cmp(r) <= 0), nil
	case ast.BinGt:
		return boolInt(l.Cmp(r) > 0), nil
	case ast.BinGe:
		return boolInt(l.Cmp(r) >= 0), nil
	case ast.BinLogAnd:
		return boolInt(l.Sign() != 0 && r.Sign() != 0), nil
	case ast.BinLogOr:
		return boolInt(l.Sign() != 0 || r.Sign() != 0), nil
	}
	return nil, ErrNotConstant
}
