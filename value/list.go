package value

import "fmt"

// listData is the immutable backing store shared copy-on-write between
// List handles. It is never mutated in place: every mutating List method
// builds a new listData and reseats the handle's own pointer to it, so a
// List captured before a mutation keeps observing its original snapshot.
type listData struct {
	items []Value
}

// List is an ordered, copy-on-write sequence of Value.
type List struct {
	data *listData
}

// NewList builds a List from the given elements.
func NewList(items ...Value) List {
	cp := make([]Value, len(items))
	copy(cp, items)
	return List{data: &listData{items: cp}}
}

func (l List) items() []Value {
	if l.data == nil {
		return nil
	}
	return l.data.items
}

// Len returns the number of elements.
func (l List) Len() int { return len(l.items()) }

// resolveIndex turns a possibly-negative index (counting from the end,
// -1 being the last element) into a non-negative one, or reports false if
// it is out of range.
func resolveIndex(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// Get returns the element at i, or absent if i is out of range.
func (l List) Get(i int) (Value, bool) {
	items := l.items()
	idx, ok := resolveIndex(i, len(items))
	if !ok {
		return Value{}, false
	}
	return items[idx], true
}

// Append adds v to the end of the list, producing a new snapshot.
func (l *List) Append(v Value) {
	old := l.items()
	next := make([]Value, len(old)+1)
	copy(next, old)
	next[len(old)] = v
	l.data = &listData{items: next}
}

// Set replaces the element at i, producing a new snapshot. It fails and
// leaves l unchanged if i is out of range.
func (l *List) Set(i int, v Value) bool {
	old := l.items()
	idx, ok := resolveIndex(i, len(old))
	if !ok {
		return false
	}
	next := make([]Value, len(old))
	copy(next, old)
	next[idx] = v
	l.data = &listData{items: next}
	return true
}

// Resize truncates or Null-pads the list to length n, producing a new
// snapshot.
func (l *List) Resize(n int) {
	if n < 0 {
		n = 0
	}
	old := l.items()
	next := make([]Value, n)
	copy(next, old)
	for i := len(old); i < n; i++ {
		next[i] = Null()
	}
	l.data = &listData{items: next}
}

// Each iterates the elements in order over a stable snapshot, stopping
// early if fn returns false.
func (l List) Each(fn func(i int, v Value) bool) {
	for i, v := range l.items() {
		if !fn(i, v) {
			return
		}
	}
}

// Equal compares two lists element-wise.
func (l List) Equal(other List) bool {
	a, b := l.items(), other.items()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Unpack coerces each element into the corresponding destination pointer
// (*bool, *int64, *uint64, *float64, *string, *List, *Map, or *Value). It
// fails if the arity doesn't match or any element doesn't coerce to its
// destination's type, returning a precise, spec-worded error message in
// either case.
func (l List) Unpack(dsts ...any) (bool, string) {
	items := l.items()
	if len(dsts) != len(items) {
		return false, fmt.Sprintf("expected %d arguments but %d were given", len(dsts), len(items))
	}
	for i, dst := range dsts {
		ok, wantType := assignTo(dst, items[i])
		if !ok {
			return false, fmt.Sprintf("invalid cast in argument %d from type %s to %s", i, items[i].TypeName(), wantType)
		}
	}
	return true, ""
}
