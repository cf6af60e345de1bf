package types

import "testing"

func TestRankTable(t *testing.T) {
	tests := []struct {
		typ  Type
		rank Rank
	}{
		{Char, 0},
		{Bool, 1},
		{Int, 2},
		{Bitset, 2},
		{UInt, 3},
		{MPInteger, 4},
		{Float, 6},
		{MPComplex, 10},
		{Angle, 100},
		{Duration, 101},
		{Stretch, 102},
		{TimeUnit, 103},
		{OpenPulseFrame, 200},
		{OpenPulseWaveform, 202},
		{Qubit, NoRank},
		{BinaryOp, NoRank},
	}
	for _, tt := range tests {
		if got := RankOf(tt.typ); got != tt.rank {
			t.Errorf("RankOf(%s) = %d, want %d", tt.typ, got, tt.rank)
		}
	}
}

func TestPromoteIsSymmetricOnDistinctRanks(t *testing.T) {
	ranked := make([]Type, 0)
	for _, typ := range All() {
		if HasRank(typ) {
			ranked = append(ranked, typ)
		}
	}
	for _, a := range ranked {
		for _, b := range ranked {
			ab, ok1 := Promote(a, b)
			ba, ok2 := Promote(b, a)
			if !ok1 || !ok2 {
				t.Fatalf("promote(%s, %s) failed", a, b)
			}
			if RankOf(a) != RankOf(b) && ab != ba {
				t.Fatalf("promote not symmetric: %s/%s -> %s vs %s", a, b, ab, ba)
			}
			if RankOf(ab) < RankOf(a) || RankOf(ab) < RankOf(b) {
				t.Fatalf("promote(%s, %s) = %s is not the higher rank", a, b, ab)
			}
		}
	}
}

func TestWrapperTagsAreUnranked(t *testing.T) {
	for _, typ := range All() {
		if IsWrapperType(typ) && HasRank(typ) {
			t.Fatalf("wrapper tag %s must not carry a rank", typ)
		}
	}
}

func TestClassificationTables(t *testing.T) {
	if !IsScalarIntegerType(Bool) || IsScalarIntegerType(MPInteger) {
		t.Fatalf("scalar integer table drifted")
	}
	if IsNumericType(Bool) || IsNumericType(Bitset) || !IsNumericType(MPComplex) {
		t.Fatalf("numeric table drifted")
	}
	if !IsArithmeticType(Angle) || IsArithmeticType(Qubit) {
		t.Fatalf("arithmetic table drifted")
	}
	if IsAssignableType(Qubit) || IsAssignableType(QubitArray) || !IsAssignableType(IntArray) {
		t.Fatalf("assignable table drifted")
	}
	if !IsNonArrayIndexableType(QubitContainer) || IsNonArrayIndexableType(Float) {
		t.Fatalf("indexable table drifted")
	}
	if CanDoArithmeticNegPos(Bool) || !CanDoArithmeticNegPos(Angle) {
		t.Fatalf("neg/pos table drifted")
	}
	for _, typ := range All() {
		if IsArrayType(typ) {
			if elem := ElemOf(typ); !CanBeArrayType(elem) {
				t.Fatalf("array %s holds non-array element %s", typ, elem)
			}
		}
	}
}

func TestParseAndString(t *testing.T) {
	for _, name := range []string{"bool", "bit", "int", "uint", "float", "angle", "duration", "complex", "qubit"} {
		typ, ok := Parse(name)
		if !ok {
			t.Fatalf("Parse(%q) failed", name)
		}
		if typ.String() == "" {
			t.Fatalf("empty name for %d", typ)
		}
	}
	if _, ok := Parse("quaternion"); ok {
		t.Fatalf("unexpected type for quaternion")
	}
	if got := Type(9999).String(); got != "Type(9999)" {
		t.Fatalf("unexpected fallback name %q", got)
	}
}
