package types

import "fmt"

// ConversionMethod describes how a legal cast changes the representation.
type ConversionMethod uint8

const (
	BadCast ConversionMethod = iota
	Bitcast
	Promotion
	Truncation
	Conversion
)

func (m ConversionMethod) String() string {
	switch m {
	case BadCast:
		return "badcast"
	case Bitcast:
		return "bitcast"
	case Promotion:
		return "promotion"
	case Truncation:
		return "truncation"
	case Conversion:
		return "conversion"
	default:
		return fmt.Sprintf("ConversionMethod(%d)", uint8(m))
	}
}

// numeric scalars that may be the source of a general numeric cast
func isNumericScalar(t Type) bool {
	switch t {
	case Int, UInt, MPInteger, MPUInteger,
		Float, Double, LongDouble, MPDecimal:
		return true
	default:
		return false
	}
}

// CanCast reports whether an explicit cast from one type to another is legal.
func CanCast(from, to Type) bool {
	switch from {
	case Bitset:
		return IsScalarIntegerType(to) || to == Angle || to == MPInteger || to == MPUInteger
	case Bool:
		return IsScalarIntegerType(to) || IsFloatingPointType(to)
	case Int, UInt, MPInteger, MPUInteger:
		return isNumericScalar(to) || to == Angle || to == MPComplex ||
			to == Bool || to == Bitset
	case Float, Double, LongDouble, MPDecimal:
		return isNumericScalar(to) || to == Angle || to == MPComplex || to == Bool
	case Angle:
		switch to {
		case Bitset, Int, UInt, Float, Double, LongDouble, MPInteger, MPDecimal, Angle:
			return true
		}
		return false
	case MPComplex:
		switch to {
		case Float, Double, LongDouble, Angle, MPDecimal:
			return true
		}
		return false
	case Duration, Stretch:
		return to == Duration
	}
	return false
}

// bit-pattern family: reinterpreting between these never changes the bits
func isBitPattern(t Type) bool {
	switch t {
	case Bool, Int, UInt, Bitset, Angle, MPInteger, MPUInteger:
		return true
	default:
		return false
	}
}

// ResolveConversionMethod refines a legal cast into its conversion method.
// Pairs rejected by CanCast always yield BadCast.
func ResolveConversionMethod(from, to Type) ConversionMethod {
	if !CanCast(from, to) {
		return BadCast
	}
	switch {
	case from == to:
		return Bitcast
	case from == MPComplex || to == MPComplex:
		return Conversion
	case from == Angle && IsFloatingPointType(to),
		IsFloatingPointType(from) && to == Angle:
		return Conversion
	case isBitPattern(from) && isBitPattern(to):
		return Bitcast
	case isBitPattern(from) && IsFloatingPointType(to):
		return Promotion
	case IsFloatingPointType(from) && isBitPattern(to):
		return Truncation
	case IsFloatingPointType(from) && IsFloatingPointType(to):
		if RankOf(to) >= RankOf(from) {
			return Promotion
		}
		return Truncation
	case IsTimeType(from) && to == Duration:
		return Bitcast
	}
	return Conversion
}

// CanImplicitConvert reports whether a value of type from may be used where
// to is expected without a written cast. Only widening integer and decimal
// paths qualify.
func CanImplicitConvert(from, to Type) bool {
	if from == to {
		return true
	}
	switch from {
	case Bool:
		switch to {
		case Int, UInt:
			return true
		}
	case Int:
		switch to {
		case MPInteger, Float, Double, LongDouble, MPDecimal:
			return true
		}
	case UInt:
		switch to {
		case MPInteger, MPUInteger, Float, Double, LongDouble, MPDecimal:
			return true
		}
	case MPInteger:
		return to == MPDecimal
	case MPUInteger:
		return to == MPDecimal
	case Float:
		switch to {
		case Double, LongDouble, MPDecimal:
			return true
		}
	case Double:
		switch to {
		case LongDouble, MPDecimal:
			return true
		}
	case LongDouble:
		return to == MPDecimal
	}
	return false
}
