package mangle

import (
	"fmt"
	"strconv"
	"strings"

	"qasm3/internal/ast"
)

// Stmt encodes declaring statements: declarations, gates, defcals,
// functions and kernels. Other statements have no encoding and return "".
func (m *Mangler) Stmt(id ast.StmtID) (string, error) {
	stmts := m.b.Stmts
	st := stmts.Get(id)
	if st == nil {
		return "", fmt.Errorf("%w: stmt %d does not exist", ErrUnresolved, id)
	}
	switch st.Kind {
	case ast.StmtDecl:
		d, _ := stmts.Decl(id)
		return m.Ident(d.Ident)
	case ast.StmtGate:
		g, _ := stmts.Gate(id)
		return m.signature(g.Ident, g.Params, g.Qubits)
	case ast.StmtFunction:
		f, _ := stmts.Function(id)
		s, err := m.signature(f.Ident, f.Params, nil)
		if err != nil {
			return "", err
		}
		if f.Result.Valid() && resolved(f.Result) {
			var sb strings.Builder
			sb.WriteString(strings.TrimSuffix(s, "_E"))
			sb.WriteByte('R')
			if err := header(&sb, f.Result, f.ResultBits); err != nil {
				return "", err
			}
			sb.WriteString("_E")
			s = sb.String()
			m.b.Idents.Get(f.Ident).Mangled = s
		}
		return s, nil
	case ast.StmtKernel:
		k, _ := stmts.Kernel(id)
		s, err := m.Ident(k.Ident)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		sb.WriteString(strings.TrimSuffix(s, "_E"))
		sb.WriteByte('P')
		sb.WriteString(strconv.Itoa(len(k.Params)))
		for _, p := range k.Params {
			code, err := TypeCode(p)
			if err != nil {
				return "", err
			}
			sb.WriteString(code)
		}
		sb.WriteString("_E")
		s = sb.String()
		m.b.Idents.Get(k.Ident).Mangled = s
		return s, nil
	case ast.StmtDefcal:
		d, _ := stmts.Defcal(id)
		s, err := m.Ident(d.Ident)
		if err != nil {
			return "", err
		}
		s = strings.TrimSuffix(s, "_E") + "H" + strconv.FormatUint(d.Hash, 16) + "_E"
		m.b.Idents.Get(d.Ident).Mangled = s
		return s, nil
	}
	return "", nil
}

// signature mangles a callable with its parameter and qubit idents.
func (m *Mangler) signature(name ast.IdentID, params, qubits []ast.IdentID) (string, error) {
	s, err := m.Ident(name)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(s, "_E"))
	sb.WriteByte('P')
	sb.WriteString(strconv.Itoa(len(params)))
	for _, p := range params {
		ps, err := m.Ident(p)
		if err != nil {
			return "", err
		}
		sb.WriteString(ps)
	}
	if qubits != nil {
		sb.WriteByte('Q')
		sb.WriteString(strconv.Itoa(len(qubits)))
		for _, q := range qubits {
			qs, err := m.Ident(q)
			if err != nil {
				return "", err
			}
			sb.WriteString(qs)
		}
	}
	sb.WriteString("_E")
	out := sb.String()
	m.b.Idents.Get(name).Mangled = out
	return out, nil
}
