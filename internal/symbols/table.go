package symbols

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"

	"qasm3/internal/ast"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/trace"
	"qasm3/internal/types"
)

// Table is the symbol table of one translation unit. Names live in one of
// several maps chosen by type; each map keeps, per name, a stack of entries
// with the innermost declaration last.
type Table struct {
	entries  *ast.Arena[Entry]
	maps     [MapDefcal]map[string][]EntryID
	defcals  map[string]map[uint64]EntryID
	literals map[string]EntryID

	ctx      *Tracker
	reporter diag.Reporter
	tracer   trace.Tracer
	unit     string
}

// Decl describes a declaration to insert.
type Decl struct {
	Name  string
	Ident ast.IdentID
	Type  types.Type
	Bits  uint32
	Const bool
	Span  source.Span
}

func NewTable(ctx *Tracker, reporter diag.Reporter) *Table {
	if ctx == nil {
		ctx = NewTracker()
	}
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	t := &Table{
		entries:  ast.NewArena[Entry](64),
		defcals:  make(map[string]map[uint64]EntryID),
		literals: make(map[string]EntryID),
		ctx:      ctx,
		reporter: reporter,
		tracer:   trace.Nop,
	}
	for i := range t.maps {
		t.maps[i] = make(map[string][]EntryID)
	}
	return t
}

func (t *Table) SetTracer(tr trace.Tracer, unit string) {
	if tr == nil {
		tr = trace.Nop
	}
	t.tracer = tr
	t.unit = unit
}

func (t *Table) Contexts() *Tracker { return t.ctx }

func (t *Table) Get(id EntryID) *Entry {
	return t.entries.Get(uint32(id))
}

// Len counts every entry ever created.
func (t *Table) Len() int {
	return int(t.entries.Len())
}

// MapLen counts live names in map m.
func (t *Table) MapLen(m MapKind) int {
	switch m {
	case MapDefcal:
		n := 0
		for _, byHash := range t.defcals {
			n += len(byHash)
		}
		return n
	case MapLiteral:
		return len(t.literals)
	}
	if m >= MapDefcal {
		return 0
	}
	n := 0
	for _, ids := range t.maps[m] {
		n += len(ids)
	}
	return n
}

// mapFor picks the map a new declaration of typ belongs to.
func (t *Table) mapFor(typ types.Type) MapKind {
	if t.ctx.InCalibrationContext() {
		return MapCalibration
	}
	switch {
	case types.IsQubitType(typ):
		return MapQubit
	case typ == types.Angle:
		return MapAngle
	case typ == types.Function, typ == types.Kernel, typ == types.Extern:
		return MapFunction
	}
	if t.ctx.InGlobal() {
		return MapGlobal
	}
	return MapLocal
}

func (t *Table) scopeFlag() Scope {
	cur := t.ctx.Current()
	if cur.IsGlobal() || cur.IsCalibration() {
		return ScopeGlobal
	}
	return ScopeLocal
}

// sameContext returns a live entry named name declared in ctx, in any map.
func (t *Table) sameContext(name string, ctx ast.ContextID) *Entry {
	for m := range t.maps {
		for _, id := range t.maps[m][name] {
			if e := t.Get(id); e.Live() && e.Ctx == ctx {
				return e
			}
		}
	}
	return nil
}

// CreateEntry inserts d into the map chosen by its type. A second declaration
// of the same name in the same context is reported and the first entry is
// returned unchanged with ok == false. Declarations in a narrower context
// shadow outer ones.
func (t *Table) CreateEntry(d Decl) (EntryID, bool) {
	if d.Type == types.Defcal {
		panic(fmt.Errorf("symbols: defcal %q must go through CreateDefcal", d.Name))
	}
	cur := t.ctx.CurrentID()
	if prev := t.sameContext(d.Name, cur); prev != nil {
		diag.ReportError(t.reporter, diag.SemaDuplicateSymbol, d.Span,
			fmt.Sprintf("redeclaration of '%s' in the same scope", d.Name)).
			WithNote(prev.Span, "previous declaration is here").
			Emit()
		return prev.ID, false
	}
	m := t.mapFor(d.Type)
	id := t.alloc(d, m, t.scopeFlag(), cur)
	t.maps[m][d.Name] = append(t.maps[m][d.Name], id)
	trace.Point(t.tracer, trace.ScopeNode, t.unit, "symbol.create", fmt.Sprintf("%s:%s in %s", d.Name, d.Type, m))
	return id, true
}

func (t *Table) alloc(d Decl, m MapKind, scope Scope, ctx ast.ContextID) EntryID {
	id := EntryID(t.entries.Len() + 1)
	got := t.entries.Allocate(Entry{
		ID:    id,
		Name:  d.Name,
		Ident: d.Ident,
		Type:  d.Type,
		Bits:  d.Bits,
		Scope: scope,
		Ctx:   ctx,
		Map:   m,
		Const: d.Const,
		Span:  d.Span,
	})
	if EntryID(got) != id {
		panic(fmt.Errorf("symbols: entry arena index %d does not match id %d", got, id))
	}
	return id
}

// visible returns the innermost entry of ids that is in scope here.
func (t *Table) visible(ids []EntryID, anyCtx bool) *Entry {
	cur := t.ctx.CurrentID()
	for i := len(ids) - 1; i >= 0; i-- {
		e := t.Get(ids[i])
		if !e.Live() {
			continue
		}
		if anyCtx || t.ctx.IsVisibleFrom(e.Ctx, cur) {
			return e
		}
	}
	return nil
}

func (t *Table) calibrationVisible() bool {
	if t.ctx.InCalibrationContext() {
		return true
	}
	_, ok := t.ctx.Enclosing(func(typ types.Type) bool { return typ == types.Defcal }, nil)
	return ok
}

// Lookup resolves name to the visible declaration whose context is
// innermost, searching the calibration map (inside calibration blocks and
// defcals) and the qubit, angle, function and local maps together. Equal
// depths go to the later entry. Only when none of these match does it try a
// defcal with a single overload, then the global map. It returns nil when
// nothing is visible.
func (t *Table) Lookup(name string) *Entry {
	var (
		best      *Entry
		bestDepth uint32
	)
	consider := func(e *Entry) {
		if e == nil {
			return
		}
		var depth uint32
		if c := t.ctx.Get(e.Ctx); c != nil {
			depth = c.Depth
		}
		if best == nil || depth > bestDepth || (depth == bestDepth && e.ID > best.ID) {
			best, bestDepth = e, depth
		}
	}
	if t.calibrationVisible() {
		consider(t.visible(t.maps[MapCalibration][name], true))
	}
	for _, m := range []MapKind{MapQubit, MapAngle, MapFunction, MapLocal} {
		consider(t.visible(t.maps[m][name], false))
	}
	if best != nil {
		return best
	}
	if byHash := t.defcals[name]; len(byHash) == 1 {
		for _, id := range byHash {
			if e := t.Get(id); e.Live() {
				return e
			}
		}
	}
	return t.visible(t.maps[MapGlobal][name], false)
}

// LookupBits is Lookup restricted to entries of the given width; 0 matches
// any width.
func (t *Table) LookupBits(name string, bits uint32) *Entry {
	e := t.Lookup(name)
	if e == nil || (bits != 0 && e.Bits != bits) {
		return nil
	}
	return e
}

// LookupTyped searches the map for typ first, then falls back to Lookup.
// The result must have type typ; Undefined matches any type.
func (t *Table) LookupTyped(name string, bits uint32, typ types.Type) *Entry {
	match := func(e *Entry) bool {
		return e != nil && (typ == types.Undefined || e.Type == typ) && (bits == 0 || e.Bits == bits)
	}
	var first MapKind = mapCount
	switch {
	case types.IsQubitType(typ):
		first = MapQubit
	case typ == types.Angle:
		first = MapAngle
	case typ == types.Function, typ == types.Kernel, typ == types.Extern:
		first = MapFunction
	case types.IsOpenPulseType(typ):
		first = MapCalibration
	}
	if first != mapCount {
		if e := t.visible(t.maps[first][name], first == MapCalibration); match(e) {
			return e
		}
	}
	if e := t.Lookup(name); match(e) {
		return e
	}
	return nil
}

// LookupGlobal ignores local declarations.
func (t *Table) LookupGlobal(name string) *Entry {
	for _, m := range []MapKind{MapGlobal, MapQubit, MapAngle, MapFunction} {
		ids := t.maps[m][name]
		for i := len(ids) - 1; i >= 0; i-- {
			if e := t.Get(ids[i]); e.Live() && e.Scope == ScopeGlobal {
				return e
			}
		}
	}
	return nil
}

func (t *Table) removeFromMap(e *Entry) {
	if e.Map >= MapDefcal {
		return
	}
	ids := t.maps[e.Map][e.Name]
	if i := slices.Index(ids, e.ID); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(t.maps[e.Map], e.Name)
	} else {
		t.maps[e.Map][e.Name] = ids
	}
}

func (t *Table) ice(code diag.Code, msg string) {
	diag.ReportICE(t.reporter, code, source.NoSpan, msg).Emit()
}

// conflict finds a live entry other than self named name in map m that
// satisfies pred.
func (t *Table) conflict(m MapKind, name string, self EntryID, pred func(*Entry) bool) *Entry {
	for _, id := range t.maps[m][name] {
		if id == self {
			continue
		}
		if e := t.Get(id); e.Live() && pred(e) {
			return e
		}
	}
	return nil
}

// TransferGlobalSymbolToLocal moves entry id into the current context while
// keeping its identity. It fails, with an ICE, when the entry is not a live
// global named name or the current context already declares name.
func (t *Table) TransferGlobalSymbolToLocal(name string, id EntryID) bool {
	e := t.Get(id)
	if e == nil || !e.Live() || e.Name != name || e.Scope != ScopeGlobal {
		t.ice(diag.ICESymbolTransfer, fmt.Sprintf("cannot move '%s' to local scope: not a live global entry", name))
		return false
	}
	cur := t.ctx.CurrentID()
	dest := e.Map
	if dest == MapGlobal {
		dest = MapLocal
	}
	if c := t.conflict(dest, name, id, func(o *Entry) bool { return o.Ctx == cur }); c != nil {
		t.ice(diag.ICESymbolTransfer, fmt.Sprintf("cannot move '%s' to local scope: %s map already holds it", name, dest))
		return false
	}
	if dest != e.Map {
		t.removeFromMap(e)
		e.Map = dest
		t.maps[dest][name] = append(t.maps[dest][name], id)
	}
	e.Scope = ScopeLocal
	e.Ctx = cur
	trace.Point(t.tracer, trace.ScopeNode, t.unit, "symbol.transfer", name+" -> local")
	return true
}

// TransferLocalSymbolToGlobal promotes entry id to global scope so that it
// outlives the context that declared it.
func (t *Table) TransferLocalSymbolToGlobal(name string, id EntryID) bool {
	e := t.Get(id)
	if e == nil || !e.Live() || e.Name != name || e.Scope != ScopeLocal {
		t.ice(diag.ICESymbolTransfer, fmt.Sprintf("cannot move '%s' to global scope: not a live local entry", name))
		return false
	}
	dest := e.Map
	if dest == MapLocal {
		dest = MapGlobal
	}
	if c := t.conflict(dest, name, id, func(o *Entry) bool { return o.Scope == ScopeGlobal }); c != nil {
		t.ice(diag.ICESymbolTransfer, fmt.Sprintf("cannot move '%s' to global scope: %s map already holds it", name, dest))
		return false
	}
	if dest != e.Map {
		t.removeFromMap(e)
		e.Map = dest
		t.maps[dest][name] = append(t.maps[dest][name], id)
	}
	e.Scope = ScopeGlobal
	e.Ctx = GlobalContextID
	trace.Point(t.tracer, trace.ScopeNode, t.unit, "symbol.transfer", name+" -> global")
	return true
}

func (t *Table) erase(e *Entry) {
	t.removeFromMap(e)
	e.erased = true
	trace.Point(t.tracer, trace.ScopeNode, t.unit, "symbol.erase", e.Name)
}

func matches(e *Entry, bits uint32, typ types.Type) bool {
	return (bits == 0 || e.Bits == bits) && (typ == types.Undefined || e.Type == typ)
}

// eraseInnermost erases the innermost live entry named name with the given
// scope flag in the first of maps that has one.
func (t *Table) eraseInnermost(name string, bits uint32, typ types.Type, scope Scope, maps ...MapKind) bool {
	for _, m := range maps {
		ids := t.maps[m][name]
		for i := len(ids) - 1; i >= 0; i-- {
			e := t.Get(ids[i])
			if e.Live() && e.Scope == scope && matches(e, bits, typ) {
				t.erase(e)
				return true
			}
		}
	}
	return false
}

// EraseLocalSymbol removes the innermost local declaration of name. Erasing
// something that is not there is not an error.
func (t *Table) EraseLocalSymbol(name string, bits uint32, typ types.Type) bool {
	return t.eraseInnermost(name, bits, typ, ScopeLocal, MapLocal, MapQubit, MapAngle, MapFunction, MapCalibration)
}

func (t *Table) EraseGlobalSymbol(name string, bits uint32, typ types.Type) bool {
	return t.eraseInnermost(name, bits, typ, ScopeGlobal, MapGlobal, MapQubit, MapAngle, MapFunction, MapCalibration)
}

// EraseLocal removes every local declaration of name and returns how many.
func (t *Table) EraseLocal(name string) int {
	n := 0
	for t.EraseLocalSymbol(name, 0, types.Undefined) {
		n++
	}
	return n
}

func (t *Table) EraseLocalQubit(name string) bool {
	return t.eraseInnermost(name, 0, types.Undefined, ScopeLocal, MapQubit)
}

func (t *Table) EraseLocalAngle(name string) bool {
	return t.eraseInnermost(name, 0, types.Undefined, ScopeLocal, MapAngle)
}

// EraseContext removes every local entry declared in ctx and returns them.
func (t *Table) EraseContext(ctx ast.ContextID) []EntryID {
	var out []EntryID
	for m := range t.maps {
		names := make([]string, 0, len(t.maps[m]))
		for name := range t.maps[m] {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			for _, id := range slices.Clone(t.maps[m][name]) {
				if e := t.Get(id); e.Live() && e.Ctx == ctx && e.Scope == ScopeLocal {
					t.erase(e)
					out = append(out, id)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}

// CreateDefcal registers one overload of a defcal, keyed by its signature
// hash. A second overload with the same hash is reported.
func (t *Table) CreateDefcal(d Decl, hash uint64) (EntryID, bool) {
	byHash := t.defcals[d.Name]
	if byHash == nil {
		byHash = make(map[uint64]EntryID)
		t.defcals[d.Name] = byHash
	}
	if prev, ok := byHash[hash]; ok && t.Get(prev).Live() {
		diag.ReportError(t.reporter, diag.SemaDefcalRedefinition, d.Span,
			fmt.Sprintf("defcal '%s' with this signature is already defined", d.Name)).
			WithNote(t.Get(prev).Span, "previous definition is here").
			Emit()
		return prev, false
	}
	d.Type = types.Defcal
	id := t.alloc(d, MapDefcal, ScopeGlobal, GlobalContextID)
	t.Get(id).Hash = hash
	byHash[hash] = id
	return id, true
}

func (t *Table) LookupDefcal(name string, hash uint64) *Entry {
	if id, ok := t.defcals[name][hash]; ok {
		if e := t.Get(id); e.Live() {
			return e
		}
	}
	return nil
}

func (t *Table) DefcalOverloads(name string) int {
	return len(t.defcals[name])
}

// EraseDefcal is idempotent.
func (t *Table) EraseDefcal(name string, hash uint64) bool {
	id, ok := t.defcals[name][hash]
	if !ok {
		return false
	}
	delete(t.defcals[name], hash)
	if len(t.defcals[name]) == 0 {
		delete(t.defcals, name)
	}
	if e := t.Get(id); e.Live() {
		e.erased = true
	}
	return true
}

// InternLiteral deduplicates constant literals by content. content must be
// the canonical spelling of the value including its type, e.g. the mangled
// literal. The returned bool is true when a new entry was made.
func (t *Table) InternLiteral(content string, value ast.ExprID, typ types.Type, bits uint32) (EntryID, bool) {
	sum := sha256.Sum256([]byte(content))
	key := hex.EncodeToString(sum[:])
	if id, ok := t.literals[key]; ok {
		return id, false
	}
	id := t.alloc(Decl{Name: content, Type: typ, Bits: bits, Const: true}, MapLiteral, ScopeGlobal, GlobalContextID)
	e := t.Get(id)
	e.Value = value
	e.Hash = binary.BigEndian.Uint64(sum[:8])
	t.literals[key] = id
	return id, true
}

func (t *Table) LiteralCount() int {
	return len(t.literals)
}

// Each calls fn for every entry in creation order, erased ones included.
func (t *Table) Each(fn func(*Entry)) {
	for i := uint32(1); i <= t.entries.Len(); i++ {
		fn(t.entries.Get(i))
	}
}

// CreateView registers the element view name of base, e.g. "q[3]", in the
// same map and context as base. An existing live view is returned as is.
func (t *Table) CreateView(base EntryID, name string, ident ast.IdentID, typ types.Type, bits uint32) EntryID {
	b := t.Get(base)
	if b == nil || !b.Live() || b.Map >= MapDefcal {
		t.ice(diag.ICETableInsert, fmt.Sprintf("view '%s' of a missing base entry", name))
		return NoEntryID
	}
	for _, id := range t.maps[b.Map][name] {
		if e := t.Get(id); e.Live() && e.Ctx == b.Ctx {
			return id
		}
	}
	id := t.alloc(Decl{Name: name, Ident: ident, Type: typ, Bits: bits, Const: b.Const, Span: b.Span}, b.Map, b.Scope, b.Ctx)
	t.maps[b.Map][name] = append(t.maps[b.Map][name], id)
	return id
}
