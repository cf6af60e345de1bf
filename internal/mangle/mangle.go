// Package mangle produces the canonical name encoding of declared entities
// and expressions. Encodings have the form
//
//	_Q<typecode><bits>_<len><name>..._E
//
// and depend only on resolved types and values, so mangling a node twice
// yields the same string.
package mangle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"qasm3/internal/ast"
	"qasm3/internal/types"
)

var (
	// ErrUnresolved is returned for nodes whose type is not final yet.
	ErrUnresolved = errors.New("mangle: node is not resolved")
	// ErrNoCode is returned for type tags that have no encoding.
	ErrNoCode = errors.New("mangle: type has no encoding")
)

var typeCodes = map[types.Type]string{
	types.Void:                "v",
	types.Bool:                "b",
	types.Char:                "h",
	types.UTF8:                "u8",
	types.StringLiteral:       "s",
	types.Bitset:              "c",
	types.Int:                 "i",
	types.UInt:                "j",
	types.Float:               "f",
	types.Double:              "d",
	types.LongDouble:          "e",
	types.MPInteger:           "mi",
	types.MPUInteger:          "mj",
	types.MPDecimal:           "md",
	types.MPComplex:           "mc",
	types.Angle:               "a",
	types.Duration:            "du",
	types.Stretch:             "st",
	types.TimeUnit:            "tu",
	types.Qubit:               "q",
	types.QubitContainer:      "qc",
	types.QubitContainerAlias: "qa",
	types.Gate:                "G",
	types.Defcal:              "Dc",
	types.Function:            "F",
	types.Kernel:              "Kr",
	types.Extern:              "X",
	types.OpenPulseFrame:      "pf",
	types.OpenPulsePort:       "pp",
	types.OpenPulseWaveform:   "pw",
}

// TypeCode returns the short code of t. Arrays are "A" followed by the
// element code.
func TypeCode(t types.Type) (string, error) {
	if code, ok := typeCodes[t]; ok {
		return code, nil
	}
	if types.IsArrayType(t) {
		elem, err := TypeCode(types.ElemOf(t))
		if err != nil {
			return "", err
		}
		return "A" + elem, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoCode, t)
}

func resolved(t types.Type) bool {
	return t != types.Undefined && t != types.Error && !types.IsWrapperType(t)
}

func lenPrefixed(sb *strings.Builder, s string) {
	sb.WriteString(strconv.Itoa(len(s)))
	sb.WriteString(s)
}

func header(sb *strings.Builder, t types.Type, bits uint32) error {
	code, err := TypeCode(t)
	if err != nil {
		return err
	}
	sb.WriteString(code)
	sb.WriteString(strconv.FormatUint(uint64(bits), 10))
	sb.WriteByte('_')
	return nil
}

// Mangler writes encodings into the Mangled slot of idents and expressions.
type Mangler struct {
	b *ast.Builder
}

func New(b *ast.Builder) *Mangler {
	return &Mangler{b: b}
}

// Ident encodes a declared name. Element views append I<index>, complex
// parts R or J, constants are prefixed with K.
func (m *Mangler) Ident(id ast.IdentID) (string, error) {
	ident := m.b.Idents.Get(id)
	if ident == nil {
		return "", fmt.Errorf("%w: ident %d does not exist", ErrUnresolved, id)
	}
	if !ident.Resolved() {
		return "", fmt.Errorf("%w: %q has type %s", ErrUnresolved, m.b.Name(id), ident.Type)
	}
	var sb strings.Builder
	sb.WriteString("_Q")
	if ident.Const {
		sb.WriteByte('K')
	}
	if err := header(&sb, ident.Type, ident.Bits); err != nil {
		return "", err
	}
	lenPrefixed(&sb, m.b.Name(id))
	switch {
	case ident.Indexed:
		sb.WriteByte('I')
		sb.WriteString(strconv.FormatUint(uint64(ident.Index), 10))
	case ident.Part == ast.PartReal:
		sb.WriteByte('R')
	case ident.Part == ast.PartImag:
		sb.WriteByte('J')
	}
	sb.WriteString("_E")
	ident.Mangled = sb.String()
	return ident.Mangled, nil
}

// LiteralText is the canonical spelling of a literal value.
func LiteralText(lit *ast.ExprLiteralData) string {
	switch lit.Kind {
	case ast.LitInt:
		if lit.Int != nil {
			return lit.Int.String()
		}
		return "0"
	case ast.LitFloat:
		if lit.Float != nil {
			return lit.Float.Text('g', -1)
		}
		return "0"
	case ast.LitBool:
		return strconv.FormatBool(lit.Bool)
	case ast.LitDuration:
		return lit.Duration.String()
	}
	return lit.Text
}

// Expr encodes an expression tree and stores the result in every visited
// node.
func (m *Mangler) Expr(id ast.ExprID) (string, error) {
	var sb strings.Builder
	if err := m.expr(&sb, id); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (m *Mangler) expr(sb *strings.Builder, id ast.ExprID) error {
	exprs := m.b.Exprs
	expr := exprs.Get(id)
	if expr == nil {
		return fmt.Errorf("%w: expr %d does not exist", ErrUnresolved, id)
	}
	if expr.Kind == ast.ExprGroup {
		g, _ := exprs.Group(id)
		return m.expr(sb, g.Inner)
	}
	if !resolved(expr.Type) {
		return fmt.Errorf("%w: %s expression has type %s", ErrUnresolved, expr.Kind, expr.Type)
	}
	var out strings.Builder
	out.WriteString("_Q")
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		s, err := m.Ident(data.Ident)
		if err != nil {
			return err
		}
		out.Reset()
		out.WriteString(s)
	case ast.ExprLit:
		lit, _ := exprs.Literal(id)
		out.WriteByte('L')
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		lenPrefixed(&out, LiteralText(lit))
		out.WriteString("_E")
	case ast.ExprIndexed:
		data, _ := exprs.IndexedData(id)
		out.WriteByte('X')
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		if err := m.expr(&out, data.Base); err != nil {
			return err
		}
		if err := m.expr(&out, data.Index); err != nil {
			return err
		}
		out.WriteString("_E")
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		out.WriteByte('B')
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		lenPrefixed(&out, data.Op.String())
		if err := m.expr(&out, data.Left); err != nil {
			return err
		}
		if err := m.expr(&out, data.Right); err != nil {
			return err
		}
		out.WriteString("_E")
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		out.WriteByte('U')
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		lenPrefixed(&out, data.Op.String())
		if err := m.expr(&out, data.Operand); err != nil {
			return err
		}
		out.WriteString("_E")
	case ast.ExprCast:
		data, _ := exprs.Cast(id)
		if data.Method == types.BadCast {
			return fmt.Errorf("%w: cast to %s was not resolved", ErrUnresolved, expr.Type)
		}
		out.WriteByte('C')
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		if err := m.expr(&out, data.Value); err != nil {
			return err
		}
		out.WriteString("_E")
	case ast.ExprImplicit:
		data, _ := exprs.Implicit(id)
		if !data.Valid {
			return fmt.Errorf("%w: invalid implicit conversion", ErrUnresolved)
		}
		out.WriteByte('M')
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		if err := m.expr(&out, data.Value); err != nil {
			return err
		}
		out.WriteString("_E")
	case ast.ExprCall:
		data, _ := exprs.Call(id)
		out.WriteByte('P')
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		lenPrefixed(&out, m.b.Name(data.Callee))
		for _, arg := range data.Args {
			if err := m.expr(&out, arg); err != nil {
				return err
			}
		}
		out.WriteString("_E")
	case ast.ExprMeasure:
		data, _ := exprs.Measure(id)
		out.WriteString("Ms")
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		if err := m.expr(&out, data.Target); err != nil {
			return err
		}
		out.WriteString("_E")
	case ast.ExprDurationOf:
		data, _ := exprs.DurationOf(id)
		out.WriteString("Do")
		if err := header(&out, expr.Type, expr.Bits); err != nil {
			return err
		}
		out.WriteString(strconv.Itoa(len(m.b.Lists.Items(data.Body))))
		out.WriteString("_E")
	default:
		return fmt.Errorf("%w: %s expression", ErrUnresolved, expr.Kind)
	}
	expr.Mangled = out.String()
	sb.WriteString(expr.Mangled)
	return nil
}
