package ctrlflow

import (
	"fmt"

	"qasm3/internal/ast"
	"qasm3/internal/types"
)

type LoopFrame struct {
	Stmt ast.StmtID
	Kind types.Type
	Ctx  ast.ContextID
}

// LoopTracker covers for, while and do-while.
type LoopTracker struct {
	stack []LoopFrame
}

func (t *LoopTracker) Push(stmt ast.StmtID, kind types.Type, ctx ast.ContextID) {
	switch kind {
	case types.For, types.While, types.DoWhile:
	default:
		panic(fmt.Errorf("loop tracker: %s is not a loop", kind))
	}
	t.stack = append(t.stack, LoopFrame{Stmt: stmt, Kind: kind, Ctx: ctx})
}

func (t *LoopTracker) Pop() LoopFrame {
	if len(t.stack) == 0 {
		panic(fmt.Errorf("loop tracker: pop of an empty stack"))
	}
	f := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return f
}

func (t *LoopTracker) Innermost() (LoopFrame, bool) {
	if len(t.stack) == 0 {
		return LoopFrame{}, false
	}
	return t.stack[len(t.stack)-1], true
}

func (t *LoopTracker) Len() int { return len(t.stack) }
