package types

// Classification predicates. Each one is a closed switch over the tag set;
// adding a tag means revisiting every list below.

// IsSimpleIntegerType reports fixed-width machine integers.
func IsSimpleIntegerType(t Type) bool {
	switch t {
	case Int, UInt:
		return true
	default:
		return false
	}
}

// IsScalarIntegerType reports types with an integer bit pattern that fit a
// machine word (bool and bit included).
func IsScalarIntegerType(t Type) bool {
	switch t {
	case Bool, Int, UInt, Bitset:
		return true
	default:
		return false
	}
}

// IsIntegerType reports every integer family type, arbitrary precision included.
func IsIntegerType(t Type) bool {
	switch t {
	case Int, UInt, Bitset, MPInteger, MPUInteger:
		return true
	default:
		return false
	}
}

func IsFloatingPointType(t Type) bool {
	switch t {
	case Float, Double, LongDouble, MPDecimal:
		return true
	default:
		return false
	}
}

func IsComplexType(t Type) bool {
	return t == MPComplex
}

// IsNumericType reports integer, floating and complex value types.
func IsNumericType(t Type) bool {
	switch t {
	case Int, UInt, MPInteger, MPUInteger,
		Float, Double, LongDouble, MPDecimal,
		MPComplex:
		return true
	default:
		return false
	}
}

func IsAngleType(t Type) bool {
	return t == Angle
}

func IsTimeType(t Type) bool {
	switch t {
	case Duration, Stretch, TimeUnit:
		return true
	default:
		return false
	}
}

// IsArithmeticType reports operand types accepted by + - * /.
func IsArithmeticType(t Type) bool {
	switch t {
	case Int, UInt, MPInteger, MPUInteger,
		Float, Double, LongDouble, MPDecimal,
		MPComplex, Bitset, Angle, Duration, Stretch:
		return true
	default:
		return false
	}
}

func CanBeConst(t Type) bool {
	switch t {
	case Bool, Char, UTF8, StringLiteral, Bitset,
		Int, UInt, MPInteger, MPUInteger,
		Float, Double, LongDouble, MPDecimal, MPComplex,
		Angle, Duration:
		return true
	}
	return IsArrayType(t) && t != QubitArray
}

// CanDoArithmeticNegPos reports operand types for unary minus and plus.
func CanDoArithmeticNegPos(t Type) bool {
	switch t {
	case Int, UInt, MPInteger, MPUInteger,
		Float, Double, LongDouble, MPDecimal,
		MPComplex, Angle, Duration:
		return true
	default:
		return false
	}
}

// IsAssignableType reports whether a value of type t may appear on the left
// of '='. Mutability of the particular symbol is checked separately.
func IsAssignableType(t Type) bool {
	switch t {
	case Bool, Char, UTF8, Bitset,
		Int, UInt, MPInteger, MPUInteger,
		Float, Double, LongDouble, MPDecimal, MPComplex,
		Angle, Duration, OpenPulseFrame, OpenPulseWaveform:
		return true
	}
	return IsArrayType(t) && t != QubitArray
}

func IsLogicallyNegateType(t Type) bool {
	switch t {
	case Bool, Int, UInt, Bitset, MPInteger, MPUInteger:
		return true
	default:
		return false
	}
}

func IsArrayType(t Type) bool {
	switch t {
	case BoolArray, IntArray, UIntArray, FloatArray,
		MPIntegerArray, MPDecimalArray, MPComplexArray,
		AngleArray, CBitArray, QubitArray, DurationArray:
		return true
	default:
		return false
	}
}

// CanBeArrayType reports whether t may be used as an array element.
func CanBeArrayType(t Type) bool {
	switch t {
	case Bool, Int, UInt, Float, Double, LongDouble,
		MPInteger, MPUInteger, MPDecimal, MPComplex,
		Angle, Bitset, Duration, Qubit:
		return true
	default:
		return false
	}
}

// IsArbitraryWidthType reports types that accept a [N] width designator.
func IsArbitraryWidthType(t Type) bool {
	switch t {
	case Int, UInt, Float, Bitset, Angle,
		MPInteger, MPUInteger, MPDecimal, MPComplex,
		QubitContainer:
		return true
	default:
		return false
	}
}

// IsNonArrayIndexableType reports scalars whose individual bits (or qubits)
// can be addressed with a subscript.
func IsNonArrayIndexableType(t Type) bool {
	switch t {
	case Bitset, Int, UInt, MPInteger, MPUInteger, Angle,
		QubitContainer, QubitContainerAlias:
		return true
	default:
		return false
	}
}

// IsQubitType reports the quantum register family.
func IsQubitType(t Type) bool {
	switch t {
	case Qubit, QubitContainer, QubitContainerAlias, QubitArray:
		return true
	default:
		return false
	}
}

func IsOpenPulseType(t Type) bool {
	switch t {
	case OpenPulseFrame, OpenPulsePort, OpenPulseWaveform:
		return true
	default:
		return false
	}
}

// IsCallableType reports declarations that are invoked rather than read.
func IsCallableType(t Type) bool {
	switch t {
	case Gate, Defcal, Function, Kernel, Extern:
		return true
	default:
		return false
	}
}

// IsControlType reports statement tags of the control-flow family.
func IsControlType(t Type) bool {
	switch t {
	case If, ElseIf, Else, For, While, DoWhile,
		Switch, Case, Default, Break, Continue, Return:
		return true
	default:
		return false
	}
}

// IsWrapperType reports tags that name a node shape rather than a value type.
// A resolved leaf type must never be one of these.
func IsWrapperType(t Type) bool {
	switch t {
	case Identifier, IdentifierRef, BinaryOp, UnaryOp,
		Cast, ImplicitConversion, OpTy, OpndTy, Expression:
		return true
	default:
		return false
	}
}
