package ast

import "fmt"

type BinaryOp uint8

const (
	BinAdd BinaryOp = iota + 1
	BinSub
	BinMul
	BinDiv
	BinMod
	BinPow
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinLogAnd
	BinLogOr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

var binaryNames = map[BinaryOp]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%", BinPow: "**",
	BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^", BinShl: "<<", BinShr: ">>",
	BinLogAnd: "&&", BinLogOr: "||",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
}

func (op BinaryOp) String() string {
	if s, ok := binaryNames[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", uint8(op))
}

// ParseBinaryOp maps an operator spelling to its op.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for op, name := range binaryNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

// IsAngleArithmetic reports the four operators that keep angle operands in
// the angle domain.
func (op BinaryOp) IsAngleArithmetic() bool {
	switch op {
	case BinAdd, BinSub, BinMul, BinDiv:
		return true
	}
	return false
}

func (op BinaryOp) IsArithmetic() bool {
	switch op {
	case BinAdd, BinSub, BinMul, BinDiv, BinMod, BinPow:
		return true
	}
	return false
}

func (op BinaryOp) IsBitwise() bool {
	switch op {
	case BinBitAnd, BinBitOr, BinBitXor, BinShl, BinShr:
		return true
	}
	return false
}

// IsRelational covers comparisons and logical connectives; their node type
// is always bool.
func (op BinaryOp) IsRelational() bool {
	switch op {
	case BinEq, BinNe, BinLt, BinLe, BinGt, BinGe, BinLogAnd, BinLogOr:
		return true
	}
	return false
}

// IsCommutative is used by tests of rank symmetry.
func (op BinaryOp) IsCommutative() bool {
	switch op {
	case BinAdd, BinMul, BinEq, BinNe, BinBitAnd, BinBitOr, BinBitXor, BinLogAnd, BinLogOr:
		return true
	}
	return false
}

type UnaryOp uint8

const (
	UnNot UnaryOp = iota + 1
	UnBitNot
	UnNeg
	UnPos
	UnRotl
	UnRotr
	UnPopcount
	UnSin
	UnCos
	UnTan
	UnArcsin
	UnArccos
	UnArctan
	UnExp
	UnLn
	UnSqrt
	UnLeftFold
	UnRightFold
)

var unaryNames = map[UnaryOp]string{
	UnNot: "!", UnBitNot: "~", UnNeg: "-", UnPos: "+",
	UnRotl: "rotl", UnRotr: "rotr", UnPopcount: "popcount",
	UnSin: "sin", UnCos: "cos", UnTan: "tan",
	UnArcsin: "arcsin", UnArccos: "arccos", UnArctan: "arctan",
	UnExp: "exp", UnLn: "ln", UnSqrt: "sqrt",
	UnLeftFold: "lfold", UnRightFold: "rfold",
}

func (op UnaryOp) String() string {
	if s, ok := unaryNames[op]; ok {
		return s
	}
	return fmt.Sprintf("UnaryOp(%d)", uint8(op))
}

func ParseUnaryOp(s string) (UnaryOp, bool) {
	for op, name := range unaryNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

// IsTranscendental reports sin..sqrt.
func (op UnaryOp) IsTranscendental() bool {
	return op >= UnSin && op <= UnSqrt
}

func (op UnaryOp) IsBitRotation() bool {
	switch op {
	case UnRotl, UnRotr, UnPopcount:
		return true
	}
	return false
}
