package ctrlflow

import (
	"fmt"

	"qasm3/internal/ast"
	"qasm3/internal/source"
)

type switchFrame struct {
	stmt       ast.StmtID
	labels     map[int64]source.Span
	hasDefault bool
	defSpan    source.Span
}

// SwitchTracker is the stack of switch statements under construction.
type SwitchTracker struct {
	stack []*switchFrame
}

func (t *SwitchTracker) Push(stmt ast.StmtID) {
	t.stack = append(t.stack, &switchFrame{stmt: stmt, labels: make(map[int64]source.Span)})
}

// Pop returns the switch and whether it had a default.
func (t *SwitchTracker) Pop() (ast.StmtID, bool) {
	if len(t.stack) == 0 {
		panic(fmt.Errorf("switch tracker: pop of an empty stack"))
	}
	f := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return f.stmt, f.hasDefault
}

func (t *SwitchTracker) Current() ast.StmtID {
	if len(t.stack) == 0 {
		return ast.NoStmtID
	}
	return t.stack[len(t.stack)-1].stmt
}

// AddLabel records a case value. A repeated value returns false and the
// span of its first use.
func (t *SwitchTracker) AddLabel(value int64, span source.Span) (source.Span, bool) {
	f := t.stack[len(t.stack)-1]
	if prev, ok := f.labels[value]; ok {
		return prev, false
	}
	f.labels[value] = span
	return span, true
}

// SetDefault returns false, with the first default's span, on a second default.
func (t *SwitchTracker) SetDefault(span source.Span) (source.Span, bool) {
	f := t.stack[len(t.stack)-1]
	if f.hasDefault {
		return f.defSpan, false
	}
	f.hasDefault, f.defSpan = true, span
	return span, true
}

func (t *SwitchTracker) Len() int { return len(t.stack) }
