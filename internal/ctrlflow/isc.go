package ctrlflow

import (
	"fmt"

	"fortio.org/safecast"

	"qasm3/internal/ast"
)

type listFrame struct {
	list ast.ListID
	next uint32
}

// ListBuilder tracks the statement list currently being filled and the
// index the next statement will get in it.
type ListBuilder struct {
	lists *ast.Lists
	stack []listFrame
}

func NewListBuilder(lists *ast.Lists, top ast.ListID) *ListBuilder {
	lb := &ListBuilder{lists: lists}
	lb.Push(top)
	return lb
}

// Push makes list the current list.
func (lb *ListBuilder) Push(list ast.ListID) {
	n, err := safecast.Conv[uint32](len(lb.lists.Items(list)))
	if err != nil {
		panic(fmt.Errorf("statement list %d overflow: %w", list, err))
	}
	lb.stack = append(lb.stack, listFrame{list: list, next: n})
}

// Open allocates a fresh list and makes it current.
func (lb *ListBuilder) Open() ast.ListID {
	id := lb.lists.New()
	lb.Push(id)
	return id
}

// Pop returns to the enclosing list. The top-level list is never popped.
func (lb *ListBuilder) Pop() ast.ListID {
	if len(lb.stack) == 1 {
		panic(fmt.Errorf("statement list builder: pop of the top-level list"))
	}
	top := lb.stack[len(lb.stack)-1]
	lb.stack = lb.stack[:len(lb.stack)-1]
	return top.list
}

func (lb *ListBuilder) Current() ast.ListID {
	return lb.stack[len(lb.stack)-1].list
}

// ISC is the index the next statement appended to the current list gets.
func (lb *ListBuilder) ISC() uint32 {
	return lb.stack[len(lb.stack)-1].next
}

// Append adds stmt to the current list and returns its index there.
func (lb *ListBuilder) Append(stmt ast.StmtID) uint32 {
	top := &lb.stack[len(lb.stack)-1]
	lb.lists.Append(top.list, stmt)
	idx := top.next
	top.next++
	return idx
}

func (lb *ListBuilder) Depth() int {
	return len(lb.stack)
}
