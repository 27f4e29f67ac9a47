// Package value implements the universal message payload used throughout
// traeger: an immutable, self-describing tagged union with structural
// sharing for its List and Map variants.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value currently holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUInt:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged sum of Null, Bool, Int, UInt, Float, String, List and
// Map. The zero Value is Null. Values are copied by assignment; List and
// Map share their backing storage copy-on-write, so copying a Value is
// always cheap and mutating one copy of a List/Map never affects another.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	list List
	m    Map
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewInt wraps a signed 64-bit integer.
func NewInt(i int64) Value { return Value{kind: KindInt, i: i} }

// NewUInt wraps an unsigned 64-bit integer. Per the canonicalization rule,
// a magnitude that fits in the signed 64-bit range is stored as Int
// instead: Value is always constructed through this canonical form.
func NewUInt(u uint64) Value {
	if u <= math.MaxInt64 {
		return Value{kind: KindInt, i: int64(u)}
	}
	return Value{kind: KindUInt, u: u}
}

// NewFloat wraps an IEEE-754 binary64 float.
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }

// NewString wraps a UTF-8 string.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// FromList wraps a List in a Value.
func FromList(l List) Value { return Value{kind: KindList, list: l} }

// FromMap wraps a Map in a Value.
func FromMap(m Map) Value { return Value{kind: KindMap, m: m} }

// Kind reports which variant v currently holds.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns the textual name of v's variant, matching the error
// message vocabulary used by List.Unpack/Map.Get.
func (v Value) TypeName() string { return v.kind.String() }

// Equal compares by variant-then-content, honouring Int/UInt
// canonicalization (two values that canonicalize to the same Int-tagged
// form compare equal even if constructed differently).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindUInt:
		return v.u == other.u
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindList:
		return v.list.Equal(other.list)
	case KindMap:
		return v.m.Equal(other.m)
	}
	return false
}

// GetNull reports whether v holds Null.
func (v Value) GetNull() bool { return v.kind == KindNull }

// GetString is a strict accessor: it returns the string and true only if
// v holds String.
func (v Value) GetString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// GetList is a strict accessor: it returns the List and true only if v
// holds List.
func (v Value) GetList() (List, bool) {
	if v.kind != KindList {
		return List{}, false
	}
	return v.list, true
}

// GetMap is a strict accessor: it returns the Map and true only if v
// holds Map.
func (v Value) GetMap() (Map, bool) {
	if v.kind != KindMap {
		return Map{}, false
	}
	return v.m, true
}

// GetBool is a coercing accessor: besides native Bool it accepts a String
// of "true"/"false".
func (v Value) GetBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		switch v.s {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// GetInt is a coercing accessor: besides native Int it accepts a UInt
// whose magnitude fits in int64, and a String holding a decimal integer
// with an optional sign.
func (v Value) GetInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindUInt:
		if v.u <= math.MaxInt64 {
			return int64(v.u), true
		}
	case KindString:
		if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// GetUInt is a coercing accessor: besides native UInt it accepts a
// non-negative Int, and a String holding a decimal unsigned integer.
func (v Value) GetUInt() (uint64, bool) {
	switch v.kind {
	case KindUInt:
		return v.u, true
	case KindInt:
		if v.i >= 0 {
			return uint64(v.i), true
		}
	case KindString:
		if u, err := strconv.ParseUint(v.s, 10, 64); err == nil {
			return u, true
		}
	}
	return 0, false
}

// GetFloat is a coercing accessor: besides native Float it accepts Int
// and UInt (converted losslessly where possible), and a String holding a
// decimal number with an optional fraction or exponent.
func (v Value) GetFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindUInt:
		return float64(v.u), true
	case KindString:
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// String renders v using the textual rendering rules: null, true/false,
// decimal numbers, a forced-decimal-point float, a double-quoted
// C-style-escaped string, a bracketed list, or a brace-delimited map using
// insertion-snapshot iteration order.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUInt:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return quote(v.s)
	case KindList:
		var b strings.Builder
		b.WriteByte('[')
		v.list.Each(func(i int, elem Value) bool {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(elem.String())
			return true
		})
		b.WriteByte(']')
		return b.String()
	case KindMap:
		var b strings.Builder
		b.WriteByte('{')
		first := true
		v.m.Each(func(key string, elem Value) bool {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(quote(key))
			b.WriteByte(':')
			b.WriteString(elem.String())
			return true
		})
		b.WriteByte('}')
		return b.String()
	}
	return ""
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	return strconv.Quote(s)
}

// assignTo coerces v into dst, where dst is a pointer to one of the
// accessor-compatible Go types. It returns the destination type name on
// failure so callers can build a precise "invalid cast" message.
func assignTo(dst any, v Value) (ok bool, wantType string) {
	switch d := dst.(type) {
	case *bool:
		b, ok := v.GetBool()
		if ok {
			*d = b
		}
		return ok, "bool"
	case *int64:
		i, ok := v.GetInt()
		if ok {
			*d = i
		}
		return ok, "int"
	case *uint64:
		u, ok := v.GetUInt()
		if ok {
			*d = u
		}
		return ok, "uint"
	case *float64:
		f, ok := v.GetFloat()
		if ok {
			*d = f
		}
		return ok, "float"
	case *string:
		s, ok := v.GetString()
		if ok {
			*d = s
		}
		return ok, "string"
	case *List:
		l, ok := v.GetList()
		if ok {
			*d = l
		}
		return ok, "list"
	case *Map:
		m, ok := v.GetMap()
		if ok {
			*d = m
		}
		return ok, "map"
	case *Value:
		*d = v
		return true, v.TypeName()
	default:
		return false, fmt.Sprintf("%T", dst)
	}
}
