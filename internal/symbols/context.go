package symbols

import (
	"fmt"
	"slices"

	"qasm3/internal/ast"
	"qasm3/internal/types"
)

// State is the liveness of a declaration context.
type State uint8

const (
	Alive State = iota
	Dead
)

func (s State) String() string {
	if s == Dead {
		return "dead"
	}
	return "alive"
}

// Well-known context indices. Both exist for the whole life of a Tracker.
const (
	GlobalContextID      ast.ContextID = 1
	CalibrationContextID ast.ContextID = 2
)

// Context is one lexical declaration scope. Type is the construct that
// opened it (types.Function, types.For, ...); the global context has type
// Undefined.
type Context struct {
	ID     ast.ContextID
	Name   string
	Type   types.Type
	Parent ast.ContextID
	State  State
	Owner  ast.StmtID
	Depth  uint32

	registry map[ast.NodeRef]types.Type
}

func (c *Context) IsGlobal() bool      { return c.ID == GlobalContextID }
func (c *Context) IsCalibration() bool { return c.ID == CalibrationContextID }
func (c *Context) IsAlive() bool       { return c.State == Alive }

// RegisterSymbol records that node was declared directly in c. A node that is
// already registered is rejected and keeps its first type.
func (c *Context) RegisterSymbol(node ast.NodeRef, typ types.Type) bool {
	if !node.IsValid() {
		return false
	}
	if c.registry == nil {
		c.registry = make(map[ast.NodeRef]types.Type)
	}
	if _, ok := c.registry[node]; ok {
		return false
	}
	c.registry[node] = typ
	return true
}

// UnregisterSymbol reports whether node was registered.
func (c *Context) UnregisterSymbol(node ast.NodeRef) bool {
	if _, ok := c.registry[node]; !ok {
		return false
	}
	delete(c.registry, node)
	return true
}

func (c *Context) RegisteredType(node ast.NodeRef) (types.Type, bool) {
	t, ok := c.registry[node]
	return t, ok
}

// Registered lists registered nodes in a stable order.
func (c *Context) Registered() []ast.NodeRef {
	out := make([]ast.NodeRef, 0, len(c.registry))
	for ref := range c.registry {
		out = append(out, ref)
	}
	slices.SortFunc(out, func(a, b ast.NodeRef) int {
		if a.Class != b.Class {
			return int(a.Class) - int(b.Class)
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func contextName(id ast.ContextID, typ types.Type) string {
	switch id {
	case GlobalContextID:
		return "ctx.global"
	case CalibrationContextID:
		return "ctx.calibration"
	}
	return fmt.Sprintf("ctx.%d.%s", id, typ)
}
