package avm2

import (
	"math"
	"testing"
)

func TestCoerceBoolean(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Undefined, false},
		{Null, false},
		{True, true},
		{False, false},
		{NumberValue(0), false},
		{NumberValue(math.NaN()), false},
		{NumberValue(0.5), true},
		{IntegerValue(0), false},
		{IntegerValue(-1), true},
		{StringValue(StaticString("")), false},
		{StringValue(StaticString("x")), true},
	}
	for _, c := range cases {
		if got := c.v.CoerceBoolean(); got != c.want {
			t.Errorf("CoerceBoolean(%s %v) = %v, want %v", c.v.Kind(), c.v, got, c.want)
		}
	}
}

func TestCoerceNumber(t *testing.T) {
	if n := Null.CoerceNumber(); n != 0 {
		t.Errorf("null = %v", n)
	}
	if n := Undefined.CoerceNumber(); !math.IsNaN(n) {
		t.Errorf("undefined = %v, want NaN", n)
	}
	if n := True.CoerceNumber(); n != 1 {
		t.Errorf("true = %v", n)
	}
	if n := StringValue(StaticString("12.5")).CoerceNumber(); n != 12.5 {
		t.Errorf("\"12.5\" = %v", n)
	}
	if n := StringValue(StaticString("")).CoerceNumber(); n != 0 {
		t.Errorf("\"\" = %v", n)
	}
	if n := StringValue(StaticString("abc")).CoerceNumber(); !math.IsNaN(n) {
		t.Errorf("\"abc\" = %v, want NaN", n)
	}
}

func TestCoerceInteger(t *testing.T) {
	if i := NumberValue(3.9).CoerceInteger(); i != 3 {
		t.Errorf("3.9 = %d", i)
	}
	if i := NumberValue(math.NaN()).CoerceInteger(); i != 0 {
		t.Errorf("NaN = %d", i)
	}
	if i := NumberValue(math.Inf(1)).CoerceInteger(); i != 0 {
		t.Errorf("Infinity = %d", i)
	}
}

func TestCoerceString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Undefined, "undefined"},
		{Null, "null"},
		{True, "true"},
		{False, "false"},
		{IntegerValue(-7), "-7"},
		{NumberValue(3), "3"},
		{NumberValue(3.25), "3.25"},
		{NumberValue(math.NaN()), "NaN"},
		{NumberValue(math.Inf(1)), "Infinity"},
		{NumberValue(math.Inf(-1)), "-Infinity"},
		{StringValue(StaticString("s")), "s"},
	}
	for _, c := range cases {
		if got := c.v.CoerceString(); got != c.want {
			t.Errorf("CoerceString(%s) = %q, want %q", c.v.Kind(), got, c.want)
		}
	}
}

func TestStrictEquals(t *testing.T) {
	if !IntegerValue(3).StrictEquals(NumberValue(3)) {
		t.Error("integer 3 !== number 3")
	}
	if Undefined.StrictEquals(Null) {
		t.Error("undefined === null")
	}
	if !Undefined.StrictEquals(Undefined) {
		t.Error("undefined !== undefined")
	}
	if StringValue(StaticString("1")).StrictEquals(IntegerValue(1)) {
		t.Error("\"1\" === 1")
	}
}

func TestLooseEquals(t *testing.T) {
	if !Undefined.Equals(Null) {
		t.Error("undefined != null")
	}
	if !StringValue(StaticString("5")).Equals(IntegerValue(5)) {
		t.Error("\"5\" != 5")
	}
	if True.Equals(StringValue(StaticString("true"))) {
		t.Error("true == \"true\"; booleans compare numerically")
	}
	if !True.Equals(IntegerValue(1)) {
		t.Error("true != 1")
	}
}

func TestAccessorPanicsOnWrongKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Integer() on a string did not panic")
		}
	}()
	StringValue(StaticString("x")).Integer()
}

func TestLessThan(t *testing.T) {
	if less, ordered := lessThan(IntegerValue(1), IntegerValue(2)); !ordered || !less {
		t.Error("1 < 2 false")
	}
	if less, ordered := lessThan(NumberValue(math.NaN()), IntegerValue(2)); ordered || less {
		t.Error("NaN compared as ordered")
	}
	if less, ordered := lessThan(IntegerValue(2), NumberValue(math.NaN())); ordered || less {
		t.Error("NaN on the right compared as ordered")
	}
	if less, ordered := lessThan(StringValue(StaticString("a")), StringValue(StaticString("b"))); !ordered || !less {
		t.Error("\"a\" < \"b\" false")
	}
	// Mixed string and number compares numerically.
	if less, ordered := lessThan(StringValue(StaticString("9")), IntegerValue(10)); !ordered || !less {
		t.Error("\"9\" < 10 false")
	}
}
