package types

import "fmt"

// Type is the closed set of semantic type tags carried by every AST node,
// symbol table entry and declaration context.
type Type uint16

const (
	Undefined Type = iota

	// scalars
	Void
	Bool
	Char
	UTF8
	StringLiteral
	Bitset
	Int
	UInt
	Float
	Double
	LongDouble
	MPInteger
	MPUInteger
	MPDecimal
	MPComplex
	Angle
	Duration
	Stretch
	TimeUnit

	// quantum
	Qubit
	QubitContainer
	QubitContainerAlias
	Gate
	GateQOp
	Defcal
	Measure
	Reset
	Barrier
	Delay
	Box

	// callables
	Function
	Kernel
	Extern

	// arrays
	BoolArray
	IntArray
	UIntArray
	FloatArray
	MPIntegerArray
	MPDecimalArray
	MPComplexArray
	AngleArray
	CBitArray
	QubitArray
	DurationArray

	// OpenPulse
	OpenPulseFrame
	OpenPulsePort
	OpenPulseWaveform
	Calibration

	// control
	If
	ElseIf
	Else
	For
	While
	DoWhile
	Switch
	Case
	Default
	Break
	Continue
	Return

	// node tags that must be resolved before ranking
	Identifier
	IdentifierRef
	BinaryOp
	UnaryOp
	Cast
	ImplicitConversion
	OpTy
	OpndTy
	Expression

	// error variant
	Error

	typeCount
)

var typeNames = [...]string{
	Undefined:           "undefined",
	Void:                "void",
	Bool:                "bool",
	Char:                "char",
	UTF8:                "utf8",
	StringLiteral:       "string",
	Bitset:              "bit",
	Int:                 "int",
	UInt:                "uint",
	Float:               "float",
	Double:              "double",
	LongDouble:          "long double",
	MPInteger:           "mpinteger",
	MPUInteger:          "mpuinteger",
	MPDecimal:           "mpdecimal",
	MPComplex:           "complex",
	Angle:               "angle",
	Duration:            "duration",
	Stretch:             "stretch",
	TimeUnit:            "timeunit",
	Qubit:               "qubit",
	QubitContainer:      "qubit[]",
	QubitContainerAlias: "qubit alias",
	Gate:                "gate",
	GateQOp:             "gate call",
	Defcal:              "defcal",
	Measure:             "measure",
	Reset:               "reset",
	Barrier:             "barrier",
	Delay:               "delay",
	Box:                 "box",
	Function:            "def",
	Kernel:              "kernel",
	Extern:              "extern",
	BoolArray:           "array[bool]",
	IntArray:            "array[int]",
	UIntArray:           "array[uint]",
	FloatArray:          "array[float]",
	MPIntegerArray:      "array[mpinteger]",
	MPDecimalArray:      "array[mpdecimal]",
	MPComplexArray:      "array[complex]",
	AngleArray:          "array[angle]",
	CBitArray:           "array[bit]",
	QubitArray:          "array[qubit]",
	DurationArray:       "array[duration]",
	OpenPulseFrame:      "frame",
	OpenPulsePort:       "port",
	OpenPulseWaveform:   "waveform",
	Calibration:         "cal",
	If:                  "if",
	ElseIf:              "else if",
	Else:                "else",
	For:                 "for",
	While:               "while",
	DoWhile:             "do-while",
	Switch:              "switch",
	Case:                "case",
	Default:             "default",
	Break:               "break",
	Continue:            "continue",
	Return:              "return",
	Identifier:          "identifier",
	IdentifierRef:       "identifier-ref",
	BinaryOp:            "binary-op",
	UnaryOp:             "unary-op",
	Cast:                "cast",
	ImplicitConversion:  "implicit-conversion",
	OpTy:                "operator",
	OpndTy:              "operand",
	Expression:          "expression",
	Error:               "error",
}

func (t Type) String() string {
	if t < typeCount {
		if name := typeNames[t]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("Type(%d)", uint16(t))
}

// Valid reports whether t is one of the declared tags.
func (t Type) Valid() bool { return t < typeCount }

// All returns every declared tag in declaration order.
func All() []Type {
	out := make([]Type, 0, int(typeCount))
	for t := Undefined; t < typeCount; t++ {
		out = append(out, t)
	}
	return out
}

// Parse maps a surface type name to its tag. Width designators are not part
// of the name: "int" and "int[32]" both resolve through "int".
func Parse(name string) (Type, bool) {
	switch name {
	case "bool":
		return Bool, true
	case "bit", "creg":
		return Bitset, true
	case "int":
		return Int, true
	case "uint":
		return UInt, true
	case "float":
		return Float, true
	case "double":
		return Double, true
	case "long double", "longdouble":
		return LongDouble, true
	case "mpinteger":
		return MPInteger, true
	case "mpuinteger":
		return MPUInteger, true
	case "mpdecimal":
		return MPDecimal, true
	case "complex":
		return MPComplex, true
	case "angle":
		return Angle, true
	case "duration":
		return Duration, true
	case "stretch":
		return Stretch, true
	case "qubit", "qreg":
		return Qubit, true
	case "char":
		return Char, true
	case "string":
		return StringLiteral, true
	case "void":
		return Void, true
	case "frame":
		return OpenPulseFrame, true
	case "port":
		return OpenPulsePort, true
	case "waveform":
		return OpenPulseWaveform, true
	}
	return Undefined, false
}

// ArrayOf returns the array tag holding elements of type elem.
func ArrayOf(elem Type) (Type, bool) {
	switch elem {
	case Bool:
		return BoolArray, true
	case Int:
		return IntArray, true
	case UInt:
		return UIntArray, true
	case Float, Double, LongDouble:
		return FloatArray, true
	case MPInteger, MPUInteger:
		return MPIntegerArray, true
	case MPDecimal:
		return MPDecimalArray, true
	case MPComplex:
		return MPComplexArray, true
	case Angle:
		return AngleArray, true
	case Bitset:
		return CBitArray, true
	case Qubit:
		return QubitArray, true
	case Duration:
		return DurationArray, true
	}
	return Undefined, false
}

// ElemOf returns the element tag of an array tag.
func ElemOf(arr Type) Type {
	switch arr {
	case BoolArray:
		return Bool
	case IntArray:
		return Int
	case UIntArray:
		return UInt
	case FloatArray:
		return Float
	case MPIntegerArray:
		return MPInteger
	case MPDecimalArray:
		return MPDecimal
	case MPComplexArray:
		return MPComplex
	case AngleArray:
		return Angle
	case CBitArray:
		return Bitset
	case QubitArray:
		return Qubit
	case DurationArray:
		return Duration
	}
	return Undefined
}

// DefaultBits returns the width a declaration gets when none is written.
func DefaultBits(t Type) uint32 {
	switch t {
	case Bool, Bitset, Qubit:
		return 1
	case Char:
		return 8
	case Int, UInt, Float:
		return 32
	case Double, Angle, Duration, Stretch:
		return 64
	case LongDouble:
		return 128
	case MPInteger, MPUInteger:
		return 64
	case MPDecimal, MPComplex:
		return 128
	}
	return 0
}
