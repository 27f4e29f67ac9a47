package value

import (
	"math"
	"testing"
)

func TestCanonicalization(t *testing.T) {
	v := NewUInt(42)
	if v.Kind() != KindInt {
		t.Fatalf("expected canonicalized Int, got %s", v.Kind())
	}
	i, ok := v.GetInt()
	if !ok || i != 42 {
		t.Fatalf("expected Int(42), got %v ok=%v", i, ok)
	}

	big := NewUInt(math.MaxUint64)
	if big.Kind() != KindUInt {
		t.Fatalf("expected UInt to stay UInt, got %s", big.Kind())
	}
}

func TestListSharing(t *testing.T) {
	l := NewList(NewInt(1), NewInt(2), NewInt(3))
	clone := l

	l.Append(NewInt(4))

	if clone.Len() != 3 {
		t.Fatalf("expected clone to keep its snapshot, got len %d", clone.Len())
	}
	if l.Len() != 4 {
		t.Fatalf("expected mutated list to grow, got len %d", l.Len())
	}
}

func TestListUnpack(t *testing.T) {
	l := NewList(NewBool(true), NewInt(10), NewFloat(3.1416))
	var b bool
	var i int64
	var f float64
	ok, errMsg := l.Unpack(&b, &i, &f)
	if !ok || errMsg != "" {
		t.Fatalf("expected ok, got ok=%v err=%q", ok, errMsg)
	}
	if !b || i != 10 || f != 3.1416 {
		t.Fatalf("unexpected unpack result: %v %v %v", b, i, f)
	}

	short := NewList(NewBool(true), NewInt(10))
	ok, errMsg = short.Unpack(&b, &i, &f)
	if ok {
		t.Fatalf("expected arity mismatch to fail")
	}
	want := "expected 3 arguments but 2 were given"
	if errMsg != want {
		t.Fatalf("expected %q, got %q", want, errMsg)
	}
}

func TestMapGet(t *testing.T) {
	m := NewMap()
	m.Set("x", NewInt(10))
	m.Set("y", NewInt(20))

	var x, y int64
	ok, errMsg := m.Get("x", &x, "y", &y)
	if !ok || errMsg != "" {
		t.Fatalf("expected ok, got %v %q", ok, errMsg)
	}
	if x != 10 || y != 20 {
		t.Fatalf("unexpected values: %d %d", x, y)
	}

	ok, errMsg = m.Get("z", &x)
	if ok || errMsg != "invalid key z" {
		t.Fatalf("expected invalid key error, got %v %q", ok, errMsg)
	}
}

func TestValueRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Null(), "null"},
		{NewBool(true), "true"},
		{NewInt(-5), "-5"},
		{NewFloat(2), "2.0"},
		{NewString("hi"), `"hi"`},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestNegativeIndexing(t *testing.T) {
	l := NewList(NewInt(1), NewInt(2), NewInt(3))

	v, ok := l.Get(-1)
	if i, _ := v.GetInt(); !ok || i != 3 {
		t.Fatalf("expected -1 to address the last element, got %v ok=%v", v, ok)
	}
	if _, ok := l.Get(-4); ok {
		t.Fatal("expected -4 to be out of range")
	}
	if l.Set(3, NewInt(9)) {
		t.Fatal("expected out-of-range Set to fail")
	}
	if !l.Set(-3, NewInt(9)) {
		t.Fatal("expected -3 to address the first element")
	}
	first, _ := l.Get(0)
	if i, _ := first.GetInt(); i != 9 {
		t.Fatalf("expected Set(-3) to replace the first element, got %v", first)
	}
}

func TestListResize(t *testing.T) {
	l := NewList(NewInt(1), NewInt(2), NewInt(3))
	l.Resize(5)
	if l.Len() != 5 {
		t.Fatalf("expected padded length 5, got %d", l.Len())
	}
	pad, _ := l.Get(4)
	if !pad.GetNull() {
		t.Fatalf("expected Null padding, got %v", pad)
	}
	l.Resize(1)
	if l.Len() != 1 {
		t.Fatalf("expected truncated length 1, got %d", l.Len())
	}
}

func TestMapSharingAndErase(t *testing.T) {
	m := NewMap()
	m.Set("a", NewInt(1))
	clone := m

	m.Erase("a")
	if m.Contains("a") {
		t.Fatal("expected Erase to remove the key")
	}
	if !clone.Contains("a") {
		t.Fatal("expected the clone to keep its snapshot")
	}
	// Erasing an absent key leaves the map unchanged.
	m.Erase("missing")
	if m.Len() != 0 {
		t.Fatalf("expected empty map, got len %d", m.Len())
	}
}

func TestCoercingAccessors(t *testing.T) {
	// get_int accepts a UInt whose magnitude fits, and a decimal string.
	v := NewString("42")
	i, ok := v.GetInt()
	if !ok || i != 42 {
		t.Fatalf("expected string coercion to Int, got %v %v", i, ok)
	}

	f, ok := NewInt(3).GetFloat()
	if !ok || f != 3.0 {
		t.Fatalf("expected Int->Float coercion, got %v %v", f, ok)
	}
}
