// Package compiler owns the state of one translation unit and exposes the
// node construction API a grammar driver calls in source order. Every
// constructor resolves and stores the semantic type of the node it builds.
// User errors are reported, the offending node becomes an error node and
// construction goes on.
package compiler

import (
	"fmt"

	"qasm3/internal/ast"
	"qasm3/internal/ctrlflow"
	"qasm3/internal/diag"
	"qasm3/internal/mangle"
	"qasm3/internal/sema"
	"qasm3/internal/source"
	"qasm3/internal/symbols"
	"qasm3/internal/trace"
	"qasm3/internal/types"
)

// Options configure a Unit.
type Options struct {
	// Name identifies the unit in trace events and the export manifest.
	Name string
	File source.FileID
	// Reporter receives every diagnostic in addition to the unit's own bag.
	Reporter diag.Reporter
	Tracer   trace.Tracer
	// AngleArithmetic keeps angle op scalar in the angle domain everywhere.
	AngleArithmetic bool
	// MaxDiagnostics bounds the unit's bag; 0 means unlimited.
	MaxDiagnostics int
	Hints          ast.Hints
	Strings        *source.Interner
}

// signature of a gate, function or kernel
type signature struct {
	kind   types.Type
	params []types.Type
	qubits int
	result types.Type
	bits   uint32
}

type viewKey struct {
	base  ast.IdentID
	index uint32
}

// block is one construct whose body is being built.
type block struct {
	stmt   ast.StmtID
	kind   types.Type
	ctx    ast.ContextID
	list   ast.ListID
	brace  ctrlflow.Construct
	braced bool
	// detached blocks were rejected by placement checks; they are built so
	// that the driver's End call stays balanced but never reach the tree.
	detached bool

	names []string
	span  source.Span
	expr  ast.ExprID
}

// Unit is one translation unit under construction.
type Unit struct {
	Name string
	File source.FileID

	B       *ast.Builder
	Ctx     *symbols.Tracker
	Table   *symbols.Table
	Eval    *sema.Evaluator
	Valid   *sema.Validator
	Casts   *sema.CastController
	Flow    *ctrlflow.Trackers
	Mangler *mangle.Mangler

	bag      *diag.Bag
	reporter diag.Reporter
	tracer   trace.Tracer

	entries map[ast.IdentID]symbols.EntryID
	sigs    map[ast.IdentID]signature
	lengths map[ast.IdentID]uint32
	views   map[viewKey]ast.IdentID
	blocks  []block

	finished bool
	result   *Result
}

func NewUnit(opts Options) *Unit {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	bag := diag.NewBag(opts.MaxDiagnostics)
	var reporter diag.Reporter = diag.BagReporter{Bag: bag}
	if opts.Reporter != nil {
		reporter = diag.MultiReporter{reporter, opts.Reporter}
	}
	// evaluator and validator may both reject the same node
	reporter = diag.NewDedupReporter(reporter)

	b := ast.NewBuilder(opts.Hints, opts.Strings)
	ctx := symbols.NewTracker()
	ctx.SetTracer(tracer, opts.Name)
	table := symbols.NewTable(ctx, reporter)
	table.SetTracer(tracer, opts.Name)
	ev := sema.NewEvaluator(b, reporter)
	ev.SetAngleArithmetic(opts.AngleArithmetic)
	flow := ctrlflow.New(b, ctx)
	flow.Ifs.SetTracer(tracer, opts.Name)

	u := &Unit{
		Name:     opts.Name,
		File:     opts.File,
		B:        b,
		Ctx:      ctx,
		Table:    table,
		Eval:     ev,
		Valid:    sema.NewValidator(ev),
		Casts:    sema.NewCastController(ev),
		Flow:     flow,
		Mangler:  mangle.New(b),
		bag:      bag,
		reporter: reporter,
		tracer:   tracer,
		entries:  make(map[ast.IdentID]symbols.EntryID),
		sigs:     make(map[ast.IdentID]signature),
		lengths:  make(map[ast.IdentID]uint32),
		views:    make(map[viewKey]ast.IdentID),
	}
	ev.SetConstResolver(u.constValue)
	u.declareBuiltins()
	return u
}

// Diagnostics returns the unit's own bag.
func (u *Unit) Diagnostics() *diag.Bag { return u.bag }

func (u *Unit) errorf(code diag.Code, span source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportError(u.reporter, code, u.span(span), fmt.Sprintf(format, args...))
}

func (u *Unit) warnf(code diag.Code, span source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportWarning(u.reporter, code, u.span(span), fmt.Sprintf(format, args...))
}

func (u *Unit) ice(code diag.Code, span source.Span, format string, args ...any) {
	diag.ReportICE(u.reporter, code, u.span(span), fmt.Sprintf(format, args...)).Emit()
}

// span stamps the unit's file onto driver spans that carry none.
func (u *Unit) span(sp source.Span) source.Span {
	if sp.File == source.NoFileID && sp != source.NoSpan {
		sp.File = u.File
	}
	return sp
}

func (u *Unit) mustBuild() {
	if u.finished {
		panic(fmt.Errorf("compiler: unit %q used after Finish", u.Name))
	}
}

func (u *Unit) constValue(id ast.IdentID) (ast.ExprID, bool) {
	e := u.Table.Get(u.entries[id])
	if e == nil {
		return ast.NoExprID, false
	}
	v, err := e.ValueExpr()
	return v, err == nil
}

// EntryOf returns the symbol table entry bound to ident, or nil.
func (u *Unit) EntryOf(ident ast.IdentID) *symbols.Entry {
	return u.Table.Get(u.entries[ident])
}

// Lookup resolves name in the current scope.
func (u *Unit) Lookup(name string) *symbols.Entry {
	return u.Table.Lookup(source.Canonical(name))
}

// emit appends stmt to the statement list being filled.
func (u *Unit) emit(stmt ast.StmtID) uint32 {
	return u.Flow.Lists.Append(stmt)
}

// settle closes ifs of the current context that still wait for an else:
// anything other than else or else-if means none is coming.
func (u *Unit) settle() {
	cur := u.Ctx.CurrentID()
	for {
		_, state, ok := u.Flow.Ifs.Top()
		if !ok || state != ctrlflow.IfPendingElseIf || u.Flow.Ifs.TopContext() != cur {
			return
		}
		u.finishConstruct(u.Flow.Ifs.PopCurrentIf())
	}
}

// finishConstruct erases the locals of a construct that ended at top level.
// Nested constructs are swept when their enclosing callable closes.
func (u *Unit) finishConstruct(stmt ast.StmtID) {
	if stmt.IsValid() && u.Ctx.InGlobal() {
		u.Flow.RemoveOutOfScope(u.B, u.Table, stmt)
	}
}

func (u *Unit) newIdent(name string, span source.Span, typ types.Type, bits uint32) ast.IdentID {
	return u.B.Idents.New(u.B.Strings.Intern(name), u.span(span), typ, bits)
}

// bind creates the table entry for ident and registers it with the current
// context. A duplicate leaves ident unbound.
func (u *Unit) bind(ident ast.IdentID) (symbols.EntryID, bool) {
	id := u.B.Idents.Get(ident)
	entry, ok := u.Table.CreateEntry(symbols.Decl{
		Name:  u.B.Name(ident),
		Ident: ident,
		Type:  id.Type,
		Bits:  id.Bits,
		Const: id.Const,
		Span:  id.Span,
	})
	if !ok {
		return entry, false
	}
	u.entries[ident] = entry
	u.Ctx.Current().RegisterSymbol(ast.IdentRef(ident), id.Type)
	return entry, true
}

func (u *Unit) declareBuiltins() {
	u.builtinGate("U", 3, 1)
	u.builtinGate("gphase", 1, 0)
}

func (u *Unit) builtinGate(name string, params, qubits int) {
	ident := u.newIdent(name, source.NoSpan, types.Gate, 0)
	if _, ok := u.bind(ident); !ok {
		panic(fmt.Errorf("compiler: builtin gate %q declared twice", name))
	}
	sig := signature{kind: types.Gate, qubits: qubits}
	for range params {
		sig.params = append(sig.params, types.Angle)
	}
	u.sigs[ident] = sig
}

// OpenAngleArithmetic and CloseAngleArithmetic bracket expressions built in
// the angle domain.
func (u *Unit) OpenAngleArithmetic()  { u.Eval.OpenAngleArithmetic() }
func (u *Unit) CloseAngleArithmetic() { u.Eval.CloseAngleArithmetic() }
