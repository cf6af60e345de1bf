package types

// Rank orders value types for binary promotion: the operand with the higher
// rank decides the result type.
type Rank int16

// NoRank marks types that never take part in promotion.
const NoRank Rank = -1

var rankTable = map[Type]Rank{
	Char:              0,
	UTF8:              0,
	Bool:              1,
	Bitset:            2,
	Int:               2,
	UInt:              3,
	MPInteger:         4,
	MPUInteger:        5,
	Float:             6,
	Double:            7,
	LongDouble:        8,
	MPDecimal:         9,
	MPComplex:         10,
	Angle:             100,
	Duration:          101,
	Stretch:           102,
	TimeUnit:          103,
	OpenPulseFrame:    200,
	OpenPulsePort:     201,
	OpenPulseWaveform: 202,
}

// RankOf returns the promotion rank of t, or NoRank.
func RankOf(t Type) Rank {
	if r, ok := rankTable[t]; ok {
		return r
	}
	return NoRank
}

// HasRank reports whether t takes part in promotion.
func HasRank(t Type) bool {
	_, ok := rankTable[t]
	return ok
}

// Promote returns the higher-ranked of a and b. Equal ranks return a, which
// keeps Int op Bitset == Int and Bitset op Int == Bitset.
func Promote(a, b Type) (Type, bool) {
	ra, rb := RankOf(a), RankOf(b)
	if ra == NoRank || rb == NoRank {
		return Undefined, false
	}
	if rb > ra {
		return b, true
	}
	return a, true
}
