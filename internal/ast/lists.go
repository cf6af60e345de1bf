package ast

// StmtList is an ordered statement list, the body of a braced block.
type StmtList struct {
	Stmts []StmtID
}

type Lists struct {
	Arena *Arena[StmtList]
}

func NewLists(capHint uint) *Lists {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Lists{Arena: NewArena[StmtList](capHint)}
}

func (l *Lists) New() ListID {
	return ListID(l.Arena.Allocate(StmtList{}))
}

func (l *Lists) Get(id ListID) *StmtList {
	return l.Arena.Get(uint32(id))
}

func (l *Lists) Append(id ListID, stmt StmtID) {
	if list := l.Get(id); list != nil {
		list.Stmts = append(list.Stmts, stmt)
	}
}

// Items returns the statements of id, nil for NoListID.
func (l *Lists) Items(id ListID) []StmtID {
	if list := l.Get(id); list != nil {
		return list.Stmts
	}
	return nil
}
