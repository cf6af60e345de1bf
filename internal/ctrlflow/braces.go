package ctrlflow

import "fmt"

// Construct names the block kinds a brace matcher counts separately.
type Construct uint8

const (
	BraceBlock Construct = iota
	BraceIf
	BraceElseIf
	BraceElse
	BraceFor
	BraceWhile
	BraceDoWhile
	BraceSwitch
	BraceCase
	BraceGate
	BraceDefcal
	BraceFunction
	BraceCal
	constructCount
)

var constructNames = [...]string{
	BraceBlock:    "block",
	BraceIf:       "if",
	BraceElseIf:   "else if",
	BraceElse:     "else",
	BraceFor:      "for",
	BraceWhile:    "while",
	BraceDoWhile:  "do-while",
	BraceSwitch:   "switch",
	BraceCase:     "case",
	BraceGate:     "gate",
	BraceDefcal:   "defcal",
	BraceFunction: "def",
	BraceCal:      "cal",
}

func (c Construct) String() string {
	if c < constructCount {
		return constructNames[c]
	}
	return fmt.Sprintf("Construct(%d)", uint8(c))
}

// Braces counts '{' and '}' per construct.
type Braces struct {
	left  [constructCount]uint32
	right [constructCount]uint32
}

func (b *Braces) Left(c Construct) {
	b.left[c]++
}

// Right returns false when there is no open brace of kind c to close.
func (b *Braces) Right(c Construct) bool {
	if b.right[c] >= b.left[c] {
		return false
	}
	b.right[c]++
	return true
}

// Depth is the number of open braces of kind c.
func (b *Braces) Depth(c Construct) uint32 {
	return b.left[c] - b.right[c]
}

// IsZero reports that no brace of kind c was ever seen.
func (b *Braces) IsZero(c Construct) bool {
	return b.left[c] == 0 && b.right[c] == 0
}

func (b *Braces) IsBalanced(c Construct) bool {
	return b.left[c] == b.right[c]
}

func (b *Braces) Reset(c Construct) {
	b.left[c], b.right[c] = 0, 0
}

// Unbalanced lists constructs with braces still open.
func (b *Braces) Unbalanced() []Construct {
	var out []Construct
	for c := range constructCount {
		if !b.IsBalanced(c) {
			out = append(out, c)
		}
	}
	return out
}
