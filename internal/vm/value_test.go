package vm

import "testing"

func TestValueImmediates(t *testing.T) {
	if !IntVal(42).IsInt() || IntVal(42).AsInt() != 42 {
		t.Fatalf("IntVal round-trip failed")
	}
	if !CharVal('x').IsChar() || CharVal('x').AsChar() != 'x' {
		t.Fatalf("CharVal round-trip failed")
	}
	if !BoolVal(true).AsBool() || BoolVal(false).AsBool() {
		t.Fatalf("BoolVal round-trip failed")
	}
	if !UnitVal().IsUnit() {
		t.Fatalf("UnitVal should report IsUnit")
	}
}

func TestValueEqual(t *testing.T) {
	if !IntVal(1).Equal(IntVal(1)) {
		t.Fatalf("equal ints should be Equal")
	}
	if IntVal(1).Equal(IntVal(2)) {
		t.Fatalf("unequal ints should not be Equal")
	}
	if IntVal(1).Equal(BoolVal(true)) {
		t.Fatalf("values of different Kind should never be Equal")
	}
}

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{IntVal(7), "7"},
		{BoolVal(true), "true"},
		{UnitVal(), "()"},
		{CharVal('a'), "a"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
