package ctrlflow

import (
	"fmt"

	"qasm3/internal/ast"
	"qasm3/internal/trace"
)

// IfState is the position of one if construct in its lifecycle.
type IfState uint8

const (
	IfNone IfState = iota
	// IfOpen: a branch body is being accumulated.
	IfOpen
	// IfPendingElseIf: a body closed; an 'else if' or 'else' may follow.
	IfPendingElseIf
	// IfPendingElse: 'else' was seen, its body or an 'if' comes next.
	IfPendingElse
	IfClosed
)

func (s IfState) String() string {
	switch s {
	case IfOpen:
		return "open"
	case IfPendingElseIf:
		return "pending-else-if"
	case IfPendingElse:
		return "pending-else"
	case IfClosed:
		return "closed"
	}
	return "none"
}

type ifFrame struct {
	stmt     ast.StmtID
	branch   ast.StmtID
	ctx      ast.ContextID
	state    IfState
	elseSeen bool
}

// IfTracker is the stack of if constructs under construction.
type IfTracker struct {
	stmts  *ast.Stmts
	stack  []*ifFrame
	states map[ast.StmtID]IfState

	tracer trace.Tracer
	unit   string
}

func NewIfTracker(stmts *ast.Stmts) *IfTracker {
	return &IfTracker{
		stmts:  stmts,
		states: make(map[ast.StmtID]IfState),
		tracer: trace.Nop,
	}
}

func (t *IfTracker) SetTracer(tr trace.Tracer, unit string) {
	if tr == nil {
		tr = trace.Nop
	}
	t.tracer = tr
	t.unit = unit
}

func (t *IfTracker) set(f *ifFrame, s IfState) {
	f.state = s
	t.states[f.stmt] = s
	trace.Point(t.tracer, trace.ScopeNode, t.unit, "if.state", fmt.Sprintf("%d %s", f.stmt, s))
}

// Push starts tracking ifStmt, declared in context ctx, in state Open.
func (t *IfTracker) Push(ifStmt ast.StmtID, ctx ast.ContextID) {
	f := &ifFrame{stmt: ifStmt, branch: ifStmt, ctx: ctx}
	t.stack = append(t.stack, f)
	t.set(f, IfOpen)
}

func (t *IfTracker) top() *ifFrame {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// Top returns the innermost tracked if and its state.
func (t *IfTracker) Top() (ast.StmtID, IfState, bool) {
	f := t.top()
	if f == nil {
		return ast.NoStmtID, IfNone, false
	}
	return f.stmt, f.state, true
}

// TopContext is the context the innermost if was declared in.
func (t *IfTracker) TopContext() ast.ContextID {
	if f := t.top(); f != nil {
		return f.ctx
	}
	return ast.NoContextID
}

// Branch is the statement whose body is currently open.
func (t *IfTracker) Branch() ast.StmtID {
	if f := t.top(); f != nil {
		return f.branch
	}
	return ast.NoStmtID
}

// ElseSeen reports whether the innermost if already has its final else.
func (t *IfTracker) ElseSeen() bool {
	f := t.top()
	return f != nil && f.elseSeen
}

// State of any if ever pushed; IfNone for unknown statements.
func (t *IfTracker) State(ifStmt ast.StmtID) IfState {
	return t.states[ifStmt]
}

func (t *IfTracker) Len() int { return len(t.stack) }

// EndBody closes the current branch body. After an else body the whole
// construct closes and its id is returned with true; otherwise the construct
// waits for a possible 'else if' or 'else'.
func (t *IfTracker) EndBody() (ast.StmtID, bool) {
	f := t.top()
	if f == nil || f.state != IfOpen {
		panic(fmt.Errorf("if tracker: EndBody without an open branch"))
	}
	if f.elseSeen {
		return t.Pop(), true
	}
	t.set(f, IfPendingElseIf)
	return ast.NoStmtID, false
}

// SawElse records the 'else' keyword; the next step is AttachElseIf or
// AttachElse.
func (t *IfTracker) SawElse() bool {
	f := t.top()
	if f == nil || f.state != IfPendingElseIf {
		return false
	}
	t.set(f, IfPendingElse)
	return true
}

func (t *IfTracker) pending(f *ifFrame) bool {
	return f != nil && (f.state == IfPendingElseIf || f.state == IfPendingElse) && !f.elseSeen
}

// AttachElseIf makes branch the open body of the innermost if.
func (t *IfTracker) AttachElseIf(branch ast.StmtID) bool {
	f := t.top()
	if !t.pending(f) {
		return false
	}
	f.branch = branch
	t.set(f, IfOpen)
	return true
}

// AttachElse opens the final else branch.
func (t *IfTracker) AttachElse(branch ast.StmtID) bool {
	f := t.top()
	if !t.pending(f) {
		return false
	}
	f.branch = branch
	f.elseSeen = true
	t.set(f, IfOpen)
	return true
}

// Pop closes the innermost if, links its else-if chain and returns it.
func (t *IfTracker) Pop() ast.StmtID {
	f := t.top()
	if f == nil {
		panic(fmt.Errorf("if tracker: pop of an empty stack"))
	}
	t.stack = t.stack[:len(t.stack)-1]
	t.stmts.NormalizeElseIf(f.stmt)
	t.set(f, IfClosed)
	return f.stmt
}

// PopCurrentIf closes the innermost if if it is waiting for an else that
// did not come. It returns NoStmtID when nothing was pending.
func (t *IfTracker) PopCurrentIf() ast.StmtID {
	f := t.top()
	if f == nil || f.state != IfPendingElseIf {
		return ast.NoStmtID
	}
	return t.Pop()
}

// Close marks a construct closed without it being on the stack.
func (t *IfTracker) Close(ifStmt ast.StmtID) {
	if _, ok := t.states[ifStmt]; ok {
		t.states[ifStmt] = IfClosed
	}
}
