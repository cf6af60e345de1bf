// Package testkit holds structural checks shared by package tests.
package testkit

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"qasm3/internal/ast"
	"qasm3/internal/compiler"
	"qasm3/internal/source"
	"qasm3/internal/symbols"
)

// CheckContexts verifies the context tree of a tracker:
// ids are dense from 1, every parent was created before its child, depth
// grows by one per level and the global context sits at the bottom of the
// stack.
func CheckContexts(tr *symbols.Tracker) error {
	if tr == nil {
		return fmt.Errorf("nil tracker")
	}
	n, err := safecast.Conv[uint32](tr.Len())
	if err != nil {
		return fmt.Errorf("context count overflow: %w", err)
	}
	for i := uint32(1); i <= n; i++ {
		id := ast.ContextID(i)
		c := tr.Get(id)
		if c == nil {
			return fmt.Errorf("context %d missing", id)
		}
		if c.ID != id {
			return fmt.Errorf("context %d stored with id %d", id, c.ID)
		}
		switch id {
		case symbols.GlobalContextID:
			if c.Parent.IsValid() || c.Depth != 0 {
				return fmt.Errorf("global context has parent %d depth %d", c.Parent, c.Depth)
			}
			if !c.IsAlive() {
				return fmt.Errorf("global context is dead")
			}
			continue
		case symbols.CalibrationContextID:
			if !c.IsAlive() {
				return fmt.Errorf("calibration context is dead")
			}
		}
		if !c.Parent.IsValid() || c.Parent >= id {
			return fmt.Errorf("context %d has parent %d", id, c.Parent)
		}
		p := tr.Get(c.Parent)
		if p == nil {
			return fmt.Errorf("context %d: parent %d missing", id, c.Parent)
		}
		if c.Depth != p.Depth+1 {
			return fmt.Errorf("context %d depth %d, parent depth %d", id, c.Depth, p.Depth)
		}
	}

	stack := tr.Stack()
	if len(stack) == 0 || stack[0] != symbols.GlobalContextID {
		return fmt.Errorf("stack %v does not start at the global context", stack)
	}
	for _, id := range stack {
		if c := tr.Get(id); c == nil || !c.IsAlive() {
			return fmt.Errorf("context %d on the stack is not alive", id)
		}
	}
	return nil
}

// CheckIfChains verifies that every if statement's else-if list and its
// normalised chain agree and that each branch points back to its owner.
func CheckIfChains(b *ast.Builder) error {
	if b == nil {
		return fmt.Errorf("nil builder")
	}
	stmts := b.Stmts
	for i := uint32(1); i <= stmts.Arena.Len(); i++ {
		id := ast.StmtID(i)
		ifd, ok := stmts.If(id)
		if !ok {
			continue
		}
		chain := stmts.ElseIfChain(id)
		if len(chain) != len(ifd.ElseIfs) {
			return fmt.Errorf("if %d: chain has %d links, list has %d", id, len(chain), len(ifd.ElseIfs))
		}
		for j, ei := range chain {
			if ei != ifd.ElseIfs[j] {
				return fmt.Errorf("if %d: link %d is %d, want %d", id, j, ei, ifd.ElseIfs[j])
			}
			data, ok := stmts.ElseIf(ei)
			if !ok {
				return fmt.Errorf("if %d: link %d is not an else-if", id, ei)
			}
			if data.Owner != id {
				return fmt.Errorf("else-if %d owned by %d, want %d", ei, data.Owner, id)
			}
		}
		if ifd.Else.IsValid() {
			el, ok := stmts.Else(ifd.Else)
			if !ok {
				return fmt.Errorf("if %d: else %d is not an else", id, ifd.Else)
			}
			if el.Owner != id {
				return fmt.Errorf("else %d owned by %d, want %d", ifd.Else, el.Owner, id)
			}
		}
	}
	return nil
}

// CheckFinished verifies the state of a unit after Finish: no construct is
// left open, only the global context is active and every mangled name has
// the expected frame.
func CheckFinished(u *compiler.Unit, res *compiler.Result) error {
	if u == nil || res == nil {
		return fmt.Errorf("nil unit or result")
	}
	if d := u.Depth(); d != 0 {
		return fmt.Errorf("%d constructs still open", d)
	}
	if stack := u.Ctx.Stack(); len(stack) != 1 || stack[0] != symbols.GlobalContextID {
		return fmt.Errorf("context stack after finish is %v", stack)
	}
	if err := CheckContexts(u.Ctx); err != nil {
		return err
	}
	if err := CheckIfChains(u.B); err != nil {
		return err
	}
	for _, e := range res.Entities {
		if e.Mangled == "" {
			continue
		}
		if !strings.HasPrefix(e.Mangled, "_Q") {
			return fmt.Errorf("%s: mangled name %q lacks the _Q prefix", e.Name, e.Mangled)
		}
	}
	return nil
}

// CheckSpanWithin verifies that sp is a non-empty range inside f.
func CheckSpanWithin(sp source.Span, f *source.File) error {
	if f == nil {
		return fmt.Errorf("nil file")
	}
	if sp.File != f.ID {
		return fmt.Errorf("span points to file %d, want %d", sp.File, f.ID)
	}
	if sp.End <= sp.Start {
		return fmt.Errorf("span is empty: %v", sp)
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End > size {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, size)
	}
	return nil
}
