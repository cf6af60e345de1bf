package ast

import (
	"qasm3/internal/source"
	"qasm3/internal/types"
)

type StmtKind uint8

const (
	StmtDecl StmtKind = iota + 1
	StmtAssign
	StmtExpr
	StmtIf
	StmtElseIf
	StmtElse
	StmtFor
	StmtWhile
	StmtDoWhile
	StmtSwitch
	StmtCase
	StmtDefault
	StmtBreak
	StmtContinue
	StmtReturn
	StmtGate
	StmtDefcal
	StmtFunction
	StmtKernel
	StmtGateCall
	StmtReset
	StmtBarrier
	StmtDelay
	StmtCal
)

var stmtKindNames = [...]string{
	StmtDecl: "decl", StmtAssign: "assign", StmtExpr: "expr",
	StmtIf: "if", StmtElseIf: "elseif", StmtElse: "else",
	StmtFor: "for", StmtWhile: "while", StmtDoWhile: "dowhile",
	StmtSwitch: "switch", StmtCase: "case", StmtDefault: "default",
	StmtBreak: "break", StmtContinue: "continue", StmtReturn: "return",
	StmtGate: "gate", StmtDefcal: "defcal", StmtFunction: "def", StmtKernel: "extern",
	StmtGateCall: "gatecall", StmtReset: "reset", StmtBarrier: "barrier",
	StmtDelay: "delay", StmtCal: "cal",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) && stmtKindNames[k] != "" {
		return stmtKindNames[k]
	}
	return "unknown"
}

// Stmt is the common header of every statement. Type is the semantic tag
// (types.If, types.Gate, ...).
type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Type    types.Type
	Payload PayloadID
}

// Body is the operand of a control construct: either one statement or a
// braced list. At most one of the two is set.
type Body struct {
	List   ListID
	Single StmtID
}

func (b Body) Braced() bool { return b.List.IsValid() }
func (b Body) Empty() bool  { return !b.List.IsValid() && !b.Single.IsValid() }

// Control carries what every block construct records while it is built.
type Control struct {
	Body  Body
	Ctx   ContextID
	Frame uint32 // nesting depth of the construct when it was opened
	ISC   uint32 // statement-list index used by the list builder
}

type DeclData struct {
	Ident IdentID
	Init  ExprID
	Const bool
}

type AssignOp uint8

const (
	AssignPlain AssignOp = iota
	AssignCompound
)

type AssignData struct {
	Target ExprID
	Value  ExprID
	// Op is meaningful when Compound; the value is Target Op Value.
	Compound bool
	Op       BinaryOp
}

type ExprStmtData struct {
	Expr ExprID
}

type IfData struct {
	Control
	Cond    ExprID
	ElseIfs []StmtID
	Else    StmtID
}

// ElseIfData links back to the owning if; Next is filled by NormalizeElseIf.
type ElseIfData struct {
	Control
	Cond  ExprID
	Owner StmtID
	Next  StmtID
}

type ElseData struct {
	Control
	Owner StmtID
}

type ForData struct {
	Control
	Var IdentID
	// Either a range start:step:stop or an explicit set / iterable expression.
	Start, Step, Stop ExprID
	Set               []ExprID
}

type WhileData struct {
	Control
	Cond ExprID
}

type SwitchData struct {
	Control
	Subject ExprID
	Cases   []StmtID
	Default StmtID
}

type CaseData struct {
	Control
	Owner  StmtID
	Labels []ExprID
	Values []int64
}

type JumpData struct {
	// Target is the loop a break/continue leaves, or the function for return.
	Target StmtID
	Value  ExprID
}

type GateData struct {
	Control
	Ident  IdentID
	Params []IdentID
	Qubits []IdentID
}

type DefcalData struct {
	Control
	Ident  IdentID
	Params []ExprID
	Qubits []string
	Hash   uint64
}

type FunctionData struct {
	Control
	Ident      IdentID
	Params     []IdentID
	Result     types.Type
	ResultBits uint32
}

type KernelData struct {
	Ident      IdentID
	Params     []types.Type
	Result     types.Type
	ResultBits uint32
}

type GateCallData struct {
	Gate   IdentID
	Params []ExprID
	Qubits []ExprID
}

type QuantumOpData struct {
	Targets []ExprID
}

type DelayData struct {
	Length DelayOperand
	Qubits []ExprID
}

type CalData struct {
	Control
}

type Stmts struct {
	Arena     *Arena[Stmt]
	Decls     *Arena[DeclData]
	Assigns   *Arena[AssignData]
	ExprStmts *Arena[ExprStmtData]
	Ifs       *Arena[IfData]
	ElseIfs   *Arena[ElseIfData]
	Elses     *Arena[ElseData]
	Fors      *Arena[ForData]
	Whiles    *Arena[WhileData]
	Switches  *Arena[SwitchData]
	Cases     *Arena[CaseData]
	Jumps     *Arena[JumpData]
	Gates     *Arena[GateData]
	Defcals   *Arena[DefcalData]
	Functions *Arena[FunctionData]
	Kernels   *Arena[KernelData]
	GateCalls *Arena[GateCallData]
	QOps      *Arena[QuantumOpData]
	Delays    *Arena[DelayData]
	Cals      *Arena[CalData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 7
	}
	small := capHint / 4
	return &Stmts{
		Arena:     NewArena[Stmt](capHint),
		Decls:     NewArena[DeclData](capHint),
		Assigns:   NewArena[AssignData](capHint),
		ExprStmts: NewArena[ExprStmtData](small),
		Ifs:       NewArena[IfData](small),
		ElseIfs:   NewArena[ElseIfData](small),
		Elses:     NewArena[ElseData](small),
		Fors:      NewArena[ForData](small),
		Whiles:    NewArena[WhileData](small),
		Switches:  NewArena[SwitchData](small),
		Cases:     NewArena[CaseData](small),
		Jumps:     NewArena[JumpData](small),
		Gates:     NewArena[GateData](small),
		Defcals:   NewArena[DefcalData](small),
		Functions: NewArena[FunctionData](small),
		Kernels:   NewArena[KernelData](small),
		GateCalls: NewArena[GateCallData](capHint),
		QOps:      NewArena[QuantumOpData](small),
		Delays:    NewArena[DelayData](small),
		Cals:      NewArena[CalData](small),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, typ types.Type, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: span, Type: typ, Payload: PayloadID(payload)}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) payloadOf(id StmtID, kinds ...StmtKind) (uint32, bool) {
	st := s.Get(id)
	if st == nil {
		return 0, false
	}
	for _, k := range kinds {
		if st.Kind == k {
			return uint32(st.Payload), true
		}
	}
	return 0, false
}

func (s *Stmts) NewDecl(span source.Span, typ types.Type, ident IdentID, init ExprID, isConst bool) StmtID {
	return s.new(StmtDecl, span, typ, s.Decls.Allocate(DeclData{Ident: ident, Init: init, Const: isConst}))
}

func (s *Stmts) Decl(id StmtID) (*DeclData, bool) {
	p, ok := s.payloadOf(id, StmtDecl)
	if !ok {
		return nil, false
	}
	return s.Decls.Get(p), true
}

func (s *Stmts) NewAssign(span source.Span, data AssignData) StmtID {
	return s.new(StmtAssign, span, types.Expression, s.Assigns.Allocate(data))
}

func (s *Stmts) Assign(id StmtID) (*AssignData, bool) {
	p, ok := s.payloadOf(id, StmtAssign)
	if !ok {
		return nil, false
	}
	return s.Assigns.Get(p), true
}

func (s *Stmts) NewExprStmt(span source.Span, expr ExprID) StmtID {
	return s.new(StmtExpr, span, types.Expression, s.ExprStmts.Allocate(ExprStmtData{Expr: expr}))
}

func (s *Stmts) ExprStmt(id StmtID) (*ExprStmtData, bool) {
	p, ok := s.payloadOf(id, StmtExpr)
	if !ok {
		return nil, false
	}
	return s.ExprStmts.Get(p), true
}

func (s *Stmts) NewIf(span source.Span, cond ExprID, ctl Control) StmtID {
	return s.new(StmtIf, span, types.If, s.Ifs.Allocate(IfData{Control: ctl, Cond: cond}))
}

func (s *Stmts) If(id StmtID) (*IfData, bool) {
	p, ok := s.payloadOf(id, StmtIf)
	if !ok {
		return nil, false
	}
	return s.Ifs.Get(p), true
}

// NewElseIf allocates an else-if and appends it to owner's chain.
func (s *Stmts) NewElseIf(span source.Span, owner StmtID, cond ExprID, ctl Control) StmtID {
	id := s.new(StmtElseIf, span, types.ElseIf, s.ElseIfs.Allocate(ElseIfData{Control: ctl, Cond: cond, Owner: owner}))
	if ifd, ok := s.If(owner); ok {
		ifd.ElseIfs = append(ifd.ElseIfs, id)
	}
	return id
}

func (s *Stmts) ElseIf(id StmtID) (*ElseIfData, bool) {
	p, ok := s.payloadOf(id, StmtElseIf)
	if !ok {
		return nil, false
	}
	return s.ElseIfs.Get(p), true
}

// NewElse allocates the final else of owner. It returns NoStmtID when owner
// already has one.
func (s *Stmts) NewElse(span source.Span, owner StmtID, ctl Control) StmtID {
	ifd, ok := s.If(owner)
	if ok && ifd.Else.IsValid() {
		return NoStmtID
	}
	id := s.new(StmtElse, span, types.Else, s.Elses.Allocate(ElseData{Control: ctl, Owner: owner}))
	if ok {
		ifd.Else = id
	}
	return id
}

func (s *Stmts) Else(id StmtID) (*ElseData, bool) {
	p, ok := s.payloadOf(id, StmtElse)
	if !ok {
		return nil, false
	}
	return s.Elses.Get(p), true
}

func (s *Stmts) NewFor(span source.Span, data ForData) StmtID {
	return s.new(StmtFor, span, types.For, s.Fors.Allocate(data))
}

func (s *Stmts) For(id StmtID) (*ForData, bool) {
	p, ok := s.payloadOf(id, StmtFor)
	if !ok {
		return nil, false
	}
	return s.Fors.Get(p), true
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, ctl Control) StmtID {
	return s.new(StmtWhile, span, types.While, s.Whiles.Allocate(WhileData{Control: ctl, Cond: cond}))
}

func (s *Stmts) NewDoWhile(span source.Span, ctl Control) StmtID {
	return s.new(StmtDoWhile, span, types.DoWhile, s.Whiles.Allocate(WhileData{Control: ctl}))
}

// While returns the payload of while and do-while statements.
func (s *Stmts) While(id StmtID) (*WhileData, bool) {
	p, ok := s.payloadOf(id, StmtWhile, StmtDoWhile)
	if !ok {
		return nil, false
	}
	return s.Whiles.Get(p), true
}

func (s *Stmts) NewSwitch(span source.Span, subject ExprID, ctl Control) StmtID {
	return s.new(StmtSwitch, span, types.Switch, s.Switches.Allocate(SwitchData{Control: ctl, Subject: subject}))
}

func (s *Stmts) Switch(id StmtID) (*SwitchData, bool) {
	p, ok := s.payloadOf(id, StmtSwitch)
	if !ok {
		return nil, false
	}
	return s.Switches.Get(p), true
}

// NewCase allocates a case of owner and records it there.
func (s *Stmts) NewCase(span source.Span, owner StmtID, labels []ExprID, values []int64, ctl Control) StmtID {
	id := s.new(StmtCase, span, types.Case, s.Cases.Allocate(CaseData{
		Control: ctl, Owner: owner,
		Labels: append([]ExprID(nil), labels...),
		Values: append([]int64(nil), values...),
	}))
	if sw, ok := s.Switch(owner); ok {
		sw.Cases = append(sw.Cases, id)
	}
	return id
}

func (s *Stmts) NewDefault(span source.Span, owner StmtID, ctl Control) StmtID {
	id := s.new(StmtDefault, span, types.Default, s.Cases.Allocate(CaseData{Control: ctl, Owner: owner}))
	if sw, ok := s.Switch(owner); ok && !sw.Default.IsValid() {
		sw.Default = id
	}
	return id
}

// Case returns the payload of case and default statements.
func (s *Stmts) Case(id StmtID) (*CaseData, bool) {
	p, ok := s.payloadOf(id, StmtCase, StmtDefault)
	if !ok {
		return nil, false
	}
	return s.Cases.Get(p), true
}

func (s *Stmts) NewJump(span source.Span, kind StmtKind, target StmtID, value ExprID) StmtID {
	var typ types.Type
	switch kind {
	case StmtBreak:
		typ = types.Break
	case StmtContinue:
		typ = types.Continue
	default:
		kind, typ = StmtReturn, types.Return
	}
	return s.new(kind, span, typ, s.Jumps.Allocate(JumpData{Target: target, Value: value}))
}

func (s *Stmts) Jump(id StmtID) (*JumpData, bool) {
	p, ok := s.payloadOf(id, StmtBreak, StmtContinue, StmtReturn)
	if !ok {
		return nil, false
	}
	return s.Jumps.Get(p), true
}

func (s *Stmts) NewGate(span source.Span, data GateData) StmtID {
	return s.new(StmtGate, span, types.Gate, s.Gates.Allocate(data))
}

func (s *Stmts) Gate(id StmtID) (*GateData, bool) {
	p, ok := s.payloadOf(id, StmtGate)
	if !ok {
		return nil, false
	}
	return s.Gates.Get(p), true
}

func (s *Stmts) NewDefcal(span source.Span, data DefcalData) StmtID {
	return s.new(StmtDefcal, span, types.Defcal, s.Defcals.Allocate(data))
}

func (s *Stmts) Defcal(id StmtID) (*DefcalData, bool) {
	p, ok := s.payloadOf(id, StmtDefcal)
	if !ok {
		return nil, false
	}
	return s.Defcals.Get(p), true
}

func (s *Stmts) NewFunction(span source.Span, data FunctionData) StmtID {
	return s.new(StmtFunction, span, types.Function, s.Functions.Allocate(data))
}

func (s *Stmts) Function(id StmtID) (*FunctionData, bool) {
	p, ok := s.payloadOf(id, StmtFunction)
	if !ok {
		return nil, false
	}
	return s.Functions.Get(p), true
}

func (s *Stmts) NewKernel(span source.Span, data KernelData) StmtID {
	return s.new(StmtKernel, span, types.Kernel, s.Kernels.Allocate(data))
}

func (s *Stmts) Kernel(id StmtID) (*KernelData, bool) {
	p, ok := s.payloadOf(id, StmtKernel)
	if !ok {
		return nil, false
	}
	return s.Kernels.Get(p), true
}

func (s *Stmts) NewGateCall(span source.Span, data GateCallData) StmtID {
	return s.new(StmtGateCall, span, types.GateQOp, s.GateCalls.Allocate(data))
}

func (s *Stmts) GateCall(id StmtID) (*GateCallData, bool) {
	p, ok := s.payloadOf(id, StmtGateCall)
	if !ok {
		return nil, false
	}
	return s.GateCalls.Get(p), true
}

func (s *Stmts) NewReset(span source.Span, target ExprID) StmtID {
	return s.new(StmtReset, span, types.Reset, s.QOps.Allocate(QuantumOpData{Targets: []ExprID{target}}))
}

func (s *Stmts) NewBarrier(span source.Span, targets []ExprID) StmtID {
	return s.new(StmtBarrier, span, types.Barrier, s.QOps.Allocate(QuantumOpData{Targets: append([]ExprID(nil), targets...)}))
}

// QuantumOp returns the operands of reset and barrier.
func (s *Stmts) QuantumOp(id StmtID) (*QuantumOpData, bool) {
	p, ok := s.payloadOf(id, StmtReset, StmtBarrier)
	if !ok {
		return nil, false
	}
	return s.QOps.Get(p), true
}

func (s *Stmts) NewDelay(span source.Span, length DelayOperand, qubits []ExprID) StmtID {
	return s.new(StmtDelay, span, types.Delay, s.Delays.Allocate(DelayData{Length: length, Qubits: append([]ExprID(nil), qubits...)}))
}

func (s *Stmts) Delay(id StmtID) (*DelayData, bool) {
	p, ok := s.payloadOf(id, StmtDelay)
	if !ok {
		return nil, false
	}
	return s.Delays.Get(p), true
}

func (s *Stmts) NewCal(span source.Span, ctl Control) StmtID {
	return s.new(StmtCal, span, types.Calibration, s.Cals.Allocate(CalData{Control: ctl}))
}

func (s *Stmts) Cal(id StmtID) (*CalData, bool) {
	p, ok := s.payloadOf(id, StmtCal)
	if !ok {
		return nil, false
	}
	return s.Cals.Get(p), true
}

// ControlOf returns the control header of any block construct.
func (s *Stmts) ControlOf(id StmtID) (*Control, bool) {
	st := s.Get(id)
	if st == nil {
		return nil, false
	}
	p := uint32(st.Payload)
	switch st.Kind {
	case StmtIf:
		return &s.Ifs.Get(p).Control, true
	case StmtElseIf:
		return &s.ElseIfs.Get(p).Control, true
	case StmtElse:
		return &s.Elses.Get(p).Control, true
	case StmtFor:
		return &s.Fors.Get(p).Control, true
	case StmtWhile, StmtDoWhile:
		return &s.Whiles.Get(p).Control, true
	case StmtSwitch:
		return &s.Switches.Get(p).Control, true
	case StmtCase, StmtDefault:
		return &s.Cases.Get(p).Control, true
	case StmtGate:
		return &s.Gates.Get(p).Control, true
	case StmtDefcal:
		return &s.Defcals.Get(p).Control, true
	case StmtFunction:
		return &s.Functions.Get(p).Control, true
	case StmtCal:
		return &s.Cals.Get(p).Control, true
	}
	return nil, false
}

// NormalizeElseIf links the else-if children of ifID into a chain in
// insertion order and returns its length. Re-running it is harmless.
func (s *Stmts) NormalizeElseIf(ifID StmtID) int {
	ifd, ok := s.If(ifID)
	if !ok {
		return 0
	}
	for i, id := range ifd.ElseIfs {
		ei, ok := s.ElseIf(id)
		if !ok {
			continue
		}
		ei.Owner = ifID
		if i+1 < len(ifd.ElseIfs) {
			ei.Next = ifd.ElseIfs[i+1]
		} else {
			ei.Next = NoStmtID
		}
	}
	return len(ifd.ElseIfs)
}

// ElseIfChain walks the normalised chain from the first else-if.
func (s *Stmts) ElseIfChain(ifID StmtID) []StmtID {
	ifd, ok := s.If(ifID)
	if !ok || len(ifd.ElseIfs) == 0 {
		return nil
	}
	out := make([]StmtID, 0, len(ifd.ElseIfs))
	for id := ifd.ElseIfs[0]; id.IsValid(); {
		out = append(out, id)
		ei, ok := s.ElseIf(id)
		if !ok {
			break
		}
		id = ei.Next
	}
	return out
}
