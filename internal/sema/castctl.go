package sema

import (
	"qasm3/internal/ast"
	"qasm3/internal/types"
)

// CastController answers cast questions about nodes by resolving their leaf
// type and consulting the tables in package types.
type CastController struct {
	ev *Evaluator
}

func NewCastController(ev *Evaluator) *CastController {
	return &CastController{ev: ev}
}

func (c *CastController) CanCast(from ast.ExprID, to types.Type) bool {
	return types.CanCast(c.ev.LeafType(from), to)
}

func (c *CastController) ResolveConversionMethod(from ast.ExprID, to types.Type) types.ConversionMethod {
	return types.ResolveConversionMethod(c.ev.LeafType(from), to)
}

func (c *CastController) CanImplicitConvert(from ast.ExprID, to types.Type) bool {
	t := c.ev.LeafType(from)
	if t == types.Error || t == types.Undefined {
		return false
	}
	return types.CanImplicitConvert(t, to)
}
