package ast

import "qasm3/internal/source"

// Builder owns every arena of one translation unit. Nodes refer to each other
// by ID only; nothing is freed before the Builder itself is dropped.
type Builder struct {
	Exprs   *Exprs
	Stmts   *Stmts
	Idents  *Idents
	Lists   *Lists
	Strings *source.Interner
	// Top is the top-level statement list of the unit.
	Top ListID
}

type Hints struct {
	Exprs, Stmts, Idents, Lists uint
}

func NewBuilder(hints Hints, strings *source.Interner) *Builder {
	if strings == nil {
		strings = source.NewInterner()
	}
	b := &Builder{
		Exprs:   NewExprs(hints.Exprs),
		Stmts:   NewStmts(hints.Stmts),
		Idents:  NewIdents(hints.Idents),
		Lists:   NewLists(hints.Lists),
		Strings: strings,
	}
	b.Top = b.Lists.New()
	return b
}

// Name returns the spelling of ident id, "" for NoIdentID.
func (b *Builder) Name(id IdentID) string {
	ident := b.Idents.Get(id)
	if ident == nil {
		return ""
	}
	s, _ := b.Strings.Lookup(ident.Name)
	return s
}

// WalkList calls fn for every statement of list, descending into control
// bodies in post-order: children are visited before the construct itself.
func (b *Builder) WalkList(list ListID, fn func(StmtID)) {
	for _, id := range b.Lists.Items(list) {
		b.WalkStmt(id, fn)
	}
}

func (b *Builder) WalkStmt(id StmtID, fn func(StmtID)) {
	if ctl, ok := b.Stmts.ControlOf(id); ok {
		b.walkBody(ctl.Body, fn)
	}
	switch st := b.Stmts.Get(id); {
	case st == nil:
		return
	case st.Kind == StmtIf:
		ifd, _ := b.Stmts.If(id)
		for _, ei := range ifd.ElseIfs {
			b.WalkStmt(ei, fn)
		}
		if ifd.Else.IsValid() {
			b.WalkStmt(ifd.Else, fn)
		}
	case st.Kind == StmtSwitch:
		sw, _ := b.Stmts.Switch(id)
		for _, c := range sw.Cases {
			b.WalkStmt(c, fn)
		}
		if sw.Default.IsValid() {
			b.WalkStmt(sw.Default, fn)
		}
	}
	fn(id)
}

func (b *Builder) walkBody(body Body, fn func(StmtID)) {
	if body.List.IsValid() {
		b.WalkList(body.List, fn)
		return
	}
	if body.Single.IsValid() {
		b.WalkStmt(body.Single, fn)
	}
}
