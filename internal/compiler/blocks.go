package compiler

import (
	"crypto/sha256"
	"encoding/binary"

	"qasm3/internal/ast"
	"qasm3/internal/ctrlflow"
	"qasm3/internal/diag"
	"qasm3/internal/source"
	"qasm3/internal/symbols"
	"qasm3/internal/types"
)

// globalOnly reports a callable definition outside the global scope.
func (u *Unit) globalOnly(span source.Span, what, name string) bool {
	if u.Ctx.InGlobal() {
		return true
	}
	u.errorf(diag.SemaShadowsGlobal, span, "%s '%s' must be defined at global scope", what, name).Emit()
	return false
}

// duplicateGlobal reports name if a global callable already owns it.
func (u *Unit) duplicateGlobal(span source.Span, name string) bool {
	prev := u.Table.LookupGlobal(name)
	if prev == nil {
		return false
	}
	u.errorf(diag.SemaDuplicateSymbol, span, "redeclaration of '%s'", name).
		WithNote(prev.Span, "previous declaration is here").Emit()
	return true
}

// paramIdent creates the ident for one typed parameter.
func (u *Unit) paramIdent(span source.Span, p Param) ast.IdentID {
	typ, bits := p.Type, p.Bits
	if types.IsQubitType(typ) {
		typ, bits = types.Qubit, 1
		if p.Bits > 1 {
			typ, bits = types.QubitContainer, p.Bits
		}
	} else {
		bits = u.width(span, typ, bits)
	}
	ident := u.newIdent(source.Canonical(p.Name), span, typ, bits)
	u.bind(ident)
	return ident
}

// BeginGate opens "gate name(params) qubits { ... }". Parameters are angles.
func (u *Unit) BeginGate(span source.Span, name string, params, qubits []string, braced bool) (ast.IdentID, ast.StmtID) {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	name = source.Canonical(name)
	if !u.globalOnly(span, "gate", name) {
		u.detach(types.Gate, ctrlflow.BraceGate, braced, span)
		return ast.NoIdentID, ast.NoStmtID
	}
	ident := u.newIdent(name, span, types.Gate, 0)
	if _, ok := u.bind(ident); !ok {
		u.detach(types.Gate, ctrlflow.BraceGate, braced, span)
		return ast.NoIdentID, ast.NoStmtID
	}
	sig := signature{kind: types.Gate, qubits: len(qubits)}

	stmt := u.B.Stmts.NewGate(span, ast.GateData{Ident: ident})
	isc := u.emit(stmt)
	ctx := u.Ctx.CreateContext(types.Gate, stmt)
	gd, _ := u.B.Stmts.Gate(stmt)
	for _, p := range params {
		gd.Params = append(gd.Params, u.paramIdent(span, Param{Name: p, Type: types.Angle}))
		sig.params = append(sig.params, types.Angle)
	}
	for _, q := range qubits {
		gd.Qubits = append(gd.Qubits, u.paramIdent(span, Param{Name: q, Type: types.Qubit}))
	}
	u.sigs[ident] = sig
	u.push(stmt, types.Gate, ctx, ctrlflow.BraceGate, braced, isc, span)
	return ident, stmt
}

// EndGate closes a gate body and drops its parameters.
func (u *Unit) EndGate() ast.StmtID {
	u.mustBuild()
	bl, ok := u.closeBlock(types.Gate)
	if !ok || bl.detached {
		return ast.NoStmtID
	}
	gd, _ := u.B.Stmts.Gate(bl.stmt)
	for _, p := range gd.Params {
		u.Table.EraseLocalAngle(u.B.Name(p))
	}
	for _, q := range gd.Qubits {
		u.Table.EraseLocalQubit(u.B.Name(q))
	}
	u.finishConstruct(bl.stmt)
	return bl.stmt
}

// defcalHash keys one defcal overload by its name, parameter types and
// qubit operands.
func defcalHash(name string, params []Param, qubits []string) uint64 {
	h := sha256.New()
	h.Write([]byte(name))
	for _, p := range params {
		h.Write([]byte{0, byte(p.Type >> 8), byte(p.Type)})
		h.Write(binary.BigEndian.AppendUint32(nil, p.Bits))
	}
	for _, q := range qubits {
		h.Write([]byte{1})
		h.Write([]byte(q))
	}
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

// BeginDefcal opens "defcal name(params) qubits { ... }". Overloads with
// different signatures coexist.
func (u *Unit) BeginDefcal(span source.Span, name string, params []Param, qubits []string, braced bool) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	name = source.Canonical(name)
	if !u.globalOnly(span, "defcal", name) {
		u.detach(types.Defcal, ctrlflow.BraceDefcal, braced, span)
		return ast.NoStmtID
	}
	hash := defcalHash(name, params, qubits)
	ident := u.newIdent(name, span, types.Defcal, 0)
	entry, ok := u.Table.CreateDefcal(symbols.Decl{Name: name, Ident: ident, Type: types.Defcal, Span: span}, hash)
	if !ok {
		u.detach(types.Defcal, ctrlflow.BraceDefcal, braced, span)
		return ast.NoStmtID
	}
	u.entries[ident] = entry

	stmt := u.B.Stmts.NewDefcal(span, ast.DefcalData{Ident: ident, Qubits: append([]string(nil), qubits...), Hash: hash})
	isc := u.emit(stmt)
	ctx := u.Ctx.CreateContext(types.Defcal, stmt)
	dd, _ := u.B.Stmts.Defcal(stmt)
	for _, p := range params {
		pid := u.paramIdent(span, p)
		id := u.B.Idents.Get(pid)
		dd.Params = append(dd.Params, u.B.Exprs.NewIdent(span, pid, id.Type, id.Bits))
	}
	for _, q := range qubits {
		u.paramIdent(span, Param{Name: q, Type: types.Qubit})
	}
	u.push(stmt, types.Defcal, ctx, ctrlflow.BraceDefcal, braced, isc, span)
	return stmt
}

func (u *Unit) EndDefcal() ast.StmtID {
	u.mustBuild()
	bl, ok := u.closeBlock(types.Defcal)
	if !ok || bl.detached {
		return ast.NoStmtID
	}
	u.finishConstruct(bl.stmt)
	return bl.stmt
}

// BeginFunction opens "def name(params) -> result { ... }". The function is
// visible inside its own body and moves to global scope when the body ends.
func (u *Unit) BeginFunction(span source.Span, name string, params []Param, result types.Type, resultBits uint32, braced bool) (ast.IdentID, ast.StmtID) {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	name = source.Canonical(name)
	if !u.globalOnly(span, "function", name) || u.duplicateGlobal(span, name) {
		u.detach(types.Function, ctrlflow.BraceFunction, braced, span)
		return ast.NoIdentID, ast.NoStmtID
	}
	if result == types.Undefined {
		result = types.Void
	}
	if result != types.Void {
		resultBits = u.width(span, result, resultBits)
	}

	stmt := u.B.Stmts.NewFunction(span, ast.FunctionData{Result: result, ResultBits: resultBits})
	isc := u.emit(stmt)
	ctx := u.Ctx.CreateContext(types.Function, stmt)
	ident := u.newIdent(name, span, types.Function, 0)
	u.bind(ident)
	fd, _ := u.B.Stmts.Function(stmt)
	fd.Ident = ident
	sig := signature{kind: types.Function, result: result, bits: resultBits}
	for _, p := range params {
		pid := u.paramIdent(span, p)
		fd.Params = append(fd.Params, pid)
		sig.params = append(sig.params, u.B.Idents.Get(pid).Type)
	}
	u.sigs[ident] = sig
	u.push(stmt, types.Function, ctx, ctrlflow.BraceFunction, braced, isc, span)
	return ident, stmt
}

func (u *Unit) EndFunction() ast.StmtID {
	u.mustBuild()
	bl, ok := u.closeBlock(types.Function)
	if !ok || bl.detached {
		return ast.NoStmtID
	}
	fd, _ := u.B.Stmts.Function(bl.stmt)
	if entry, ok := u.entries[fd.Ident]; ok {
		u.Table.TransferLocalSymbolToGlobal(u.B.Name(fd.Ident), entry)
	}
	u.finishConstruct(bl.stmt)
	return bl.stmt
}

// DeclareKernel declares "extern name(params) -> result;".
func (u *Unit) DeclareKernel(span source.Span, name string, params []types.Type, result types.Type, bits uint32) (ast.IdentID, ast.StmtID) {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	name = source.Canonical(name)
	if !u.globalOnly(span, "extern", name) {
		return ast.NoIdentID, ast.NoStmtID
	}
	if result == types.Undefined {
		result = types.Void
	}
	if result != types.Void {
		bits = u.width(span, result, bits)
	}
	ident := u.newIdent(name, span, types.Kernel, 0)
	if _, ok := u.bind(ident); !ok {
		return ast.NoIdentID, ast.NoStmtID
	}
	u.sigs[ident] = signature{kind: types.Kernel, params: append([]types.Type(nil), params...), result: result, bits: bits}
	stmt := u.B.Stmts.NewKernel(span, ast.KernelData{Ident: ident, Params: params, Result: result, ResultBits: bits})
	u.emit(stmt)
	return ident, stmt
}

// BeginCal opens "cal { ... }". Declarations inside live in the calibration
// context and stay visible to later calibration blocks and defcals.
func (u *Unit) BeginCal(span source.Span, braced bool) ast.StmtID {
	u.mustBuild()
	u.settle()
	span = u.span(span)
	stmt := u.B.Stmts.NewCal(span, ast.Control{})
	isc := u.emit(stmt)
	u.Ctx.SetCalibrationContext()
	u.push(stmt, types.Calibration, symbols.CalibrationContextID, ctrlflow.BraceCal, braced, isc, span)
	return stmt
}

func (u *Unit) EndCal() ast.StmtID {
	u.mustBuild()
	bl, ok := u.closeBlock(types.Calibration)
	if !ok {
		return ast.NoStmtID
	}
	return bl.stmt
}
