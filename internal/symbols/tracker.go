package symbols

import (
	"fmt"

	"qasm3/internal/ast"
	"qasm3/internal/trace"
	"qasm3/internal/types"
)

// Tracker is the stack of declaration contexts of one translation unit.
// The global context sits at the bottom and is never popped; the calibration
// context is a second singleton entered with SetCalibrationContext.
type Tracker struct {
	contexts *ast.Arena[Context]
	stack    []ast.ContextID

	tracer trace.Tracer
	unit   string
}

func NewTracker() *Tracker {
	t := &Tracker{
		contexts: ast.NewArena[Context](16),
		tracer:   trace.Nop,
	}
	g := t.alloc(types.Undefined, ast.NoContextID, ast.NoStmtID, 0)
	c := t.alloc(types.Calibration, g, ast.NoStmtID, 1)
	if g != GlobalContextID || c != CalibrationContextID {
		panic(fmt.Errorf("context tracker: unexpected singleton ids %d/%d", g, c))
	}
	t.stack = append(t.stack, g)
	return t
}

// SetTracer routes context push/pop events to tr.
func (t *Tracker) SetTracer(tr trace.Tracer, unit string) {
	if tr == nil {
		tr = trace.Nop
	}
	t.tracer = tr
	t.unit = unit
}

func (t *Tracker) alloc(typ types.Type, parent ast.ContextID, owner ast.StmtID, depth uint32) ast.ContextID {
	n := t.contexts.Len() + 1
	id := ast.ContextID(n)
	got := t.contexts.Allocate(Context{
		ID:     id,
		Name:   contextName(id, typ),
		Type:   typ,
		Parent: parent,
		State:  Alive,
		Owner:  owner,
		Depth:  depth,
	})
	if ast.ContextID(got) != id {
		panic(fmt.Errorf("context tracker: arena index %d does not match id %d", got, id))
	}
	return id
}

// CreateContext pushes a fresh context whose parent is the current one.
func (t *Tracker) CreateContext(typ types.Type, owner ast.StmtID) ast.ContextID {
	cur := t.Current()
	id := t.alloc(typ, cur.ID, owner, cur.Depth+1)
	t.stack = append(t.stack, id)
	trace.Point(t.tracer, trace.ScopeNode, t.unit, "ctx.push", t.Get(id).Name)
	return id
}

// Current returns the top of the stack. It is never nil.
func (t *Tracker) Current() *Context {
	return t.contexts.Get(uint32(t.stack[len(t.stack)-1]))
}

func (t *Tracker) CurrentID() ast.ContextID {
	return t.stack[len(t.stack)-1]
}

// PopCurrentContext marks the top context dead and pops it. With only the
// global context left it does nothing. The calibration singleton is popped
// but stays alive.
func (t *Tracker) PopCurrentContext() ast.ContextID {
	if len(t.stack) == 1 {
		return ast.NoContextID
	}
	id := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	ctx := t.contexts.Get(uint32(id))
	if !ctx.IsCalibration() {
		ctx.State = Dead
	}
	trace.Point(t.tracer, trace.ScopeNode, t.unit, "ctx.pop", ctx.Name)
	return id
}

// PopTo pops until id is the top again. Popping past the global context or to
// an id that is not on the stack is a driver bug and panics.
func (t *Tracker) PopTo(id ast.ContextID) {
	for t.CurrentID() != id {
		if len(t.stack) == 1 {
			panic(fmt.Errorf("context tracker: %d is not on the stack", id))
		}
		t.PopCurrentContext()
	}
}

// SetCalibrationContext pushes the calibration singleton.
func (t *Tracker) SetCalibrationContext() {
	cal := t.contexts.Get(uint32(CalibrationContextID))
	cal.State = Alive
	t.stack = append(t.stack, CalibrationContextID)
	trace.Point(t.tracer, trace.ScopeNode, t.unit, "ctx.push", cal.Name)
}

// InCalibrationContext reports whether the calibration context is on the stack.
func (t *Tracker) InCalibrationContext() bool {
	for i := len(t.stack) - 1; i > 0; i-- {
		if t.stack[i] == CalibrationContextID {
			return true
		}
	}
	return false
}

// GetDeclarationContext returns the context with index id, or nil.
func (t *Tracker) GetDeclarationContext(id ast.ContextID) *Context {
	return t.contexts.Get(uint32(id))
}

// Get is shorthand for GetDeclarationContext.
func (t *Tracker) Get(id ast.ContextID) *Context {
	return t.contexts.Get(uint32(id))
}

func (t *Tracker) Global() *Context {
	return t.contexts.Get(uint32(GlobalContextID))
}

func (t *Tracker) Calibration() *Context {
	return t.contexts.Get(uint32(CalibrationContextID))
}

// InGlobal reports whether the current context is the global one.
func (t *Tracker) InGlobal() bool {
	return t.CurrentID() == GlobalContextID
}

// SetType retypes a context. Retyping a singleton is a programming error.
func (t *Tracker) SetType(id ast.ContextID, typ types.Type) {
	if id == GlobalContextID || id == CalibrationContextID {
		panic(fmt.Errorf("context tracker: cannot retype singleton context %d to %s", id, typ))
	}
	ctx := t.Get(id)
	if ctx == nil {
		panic(fmt.Errorf("context tracker: retype of unknown context %d", id))
	}
	ctx.Type = typ
	ctx.Name = contextName(id, typ)
}

// Depth is the number of contexts on the stack, global included.
func (t *Tracker) Depth() int {
	return len(t.stack)
}

// Len counts every context ever created, dead ones and singletons included.
func (t *Tracker) Len() int {
	return int(t.contexts.Len())
}

// IsVisibleFrom reports whether declarations of ctx are in scope at from:
// ctx must be alive and be from itself or one of its ancestors.
func (t *Tracker) IsVisibleFrom(ctx, from ast.ContextID) bool {
	c := t.Get(ctx)
	if c == nil || !c.IsAlive() {
		return false
	}
	for id := from; id.IsValid(); {
		if id == ctx {
			return true
		}
		cur := t.Get(id)
		if cur == nil {
			return false
		}
		id = cur.Parent
	}
	return false
}

// Enclosing walks from the current context towards global and returns the
// first context whose type satisfies match. It stops, returning false, at
// any context whose type satisfies stop.
func (t *Tracker) Enclosing(match, stop func(types.Type) bool) (*Context, bool) {
	for i := len(t.stack) - 1; i >= 0; i-- {
		ctx := t.contexts.Get(uint32(t.stack[i]))
		if match(ctx.Type) {
			return ctx, true
		}
		if stop != nil && stop(ctx.Type) {
			return nil, false
		}
	}
	return nil, false
}

// Stack returns a copy of the active context ids, bottom first.
func (t *Tracker) Stack() []ast.ContextID {
	return append([]ast.ContextID(nil), t.stack...)
}
