package ast

type (
	ExprID    uint32
	StmtID    uint32
	IdentID   uint32
	ListID    uint32
	PayloadID uint32
	// ContextID is the index of a declaration context. Contexts live in the
	// symbols package; nodes only remember which one they opened.
	ContextID uint32
)

const (
	NoExprID    ExprID    = 0
	NoStmtID    StmtID    = 0
	NoIdentID   IdentID   = 0
	NoListID    ListID    = 0
	NoPayloadID PayloadID = 0
	NoContextID ContextID = 0
)

func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id StmtID) IsValid() bool    { return id != NoStmtID }
func (id IdentID) IsValid() bool   { return id != NoIdentID }
func (id ListID) IsValid() bool    { return id != NoListID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
func (id ContextID) IsValid() bool { return id != NoContextID }

// NodeClass says which arena a NodeRef points into.
type NodeClass uint8

const (
	ClassExpr NodeClass = iota + 1
	ClassStmt
	ClassIdent
)

func (c NodeClass) String() string {
	switch c {
	case ClassExpr:
		return "expr"
	case ClassStmt:
		return "stmt"
	case ClassIdent:
		return "ident"
	}
	return "unknown"
}

// NodeRef names any node across arenas. It is comparable and used as a map key
// by per-context registries.
type NodeRef struct {
	Class NodeClass
	ID    uint32
}

func ExprRef(id ExprID) NodeRef   { return NodeRef{Class: ClassExpr, ID: uint32(id)} }
func StmtRef(id StmtID) NodeRef   { return NodeRef{Class: ClassStmt, ID: uint32(id)} }
func IdentRef(id IdentID) NodeRef { return NodeRef{Class: ClassIdent, ID: uint32(id)} }

func (r NodeRef) IsValid() bool { return r.Class != 0 && r.ID != 0 }
