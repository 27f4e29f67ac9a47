package value

import "fmt"

// mapData is the immutable backing store shared copy-on-write between Map
// handles, mirroring listData.
type mapData struct {
	entries map[string]Value
	order   []string
}

// Map is a string-keyed, copy-on-write mapping to Value. Iteration order
// is insertion order for a given snapshot (unspecified but stable, as the
// spec requires).
type Map struct {
	data *mapData
}

// NewMap builds an empty Map.
func NewMap() Map {
	return Map{data: &mapData{entries: map[string]Value{}}}
}

func (m Map) snapshot() *mapData {
	if m.data == nil {
		return &mapData{entries: map[string]Value{}}
	}
	return m.data
}

// Len returns the number of keys.
func (m Map) Len() int { return len(m.snapshot().entries) }

// Find looks up key without coercion.
func (m Map) Find(key string) (Value, bool) {
	v, ok := m.snapshot().entries[key]
	return v, ok
}

// Contains reports whether key is present.
func (m Map) Contains(key string) bool {
	_, ok := m.snapshot().entries[key]
	return ok
}

// Set inserts or replaces key, producing a new snapshot.
func (m *Map) Set(key string, v Value) {
	old := m.snapshot()
	entries := make(map[string]Value, len(old.entries)+1)
	for k, ev := range old.entries {
		entries[k] = ev
	}
	_, existed := entries[key]
	entries[key] = v
	order := old.order
	if !existed {
		next := make([]string, len(order)+1)
		copy(next, order)
		next[len(order)] = key
		order = next
	}
	m.data = &mapData{entries: entries, order: order}
}

// Erase removes key, producing a new snapshot. It is a no-op if key is
// absent.
func (m *Map) Erase(key string) {
	old := m.snapshot()
	if _, ok := old.entries[key]; !ok {
		return
	}
	entries := make(map[string]Value, len(old.entries))
	order := make([]string, 0, len(old.order))
	for k, ev := range old.entries {
		if k == key {
			continue
		}
		entries[k] = ev
	}
	for _, k := range old.order {
		if k != key {
			order = append(order, k)
		}
	}
	m.data = &mapData{entries: entries, order: order}
}

// Each iterates entries in snapshot insertion order, stopping early if fn
// returns false.
func (m Map) Each(fn func(key string, v Value) bool) {
	d := m.snapshot()
	for _, k := range d.order {
		if !fn(k, d.entries[k]) {
			return
		}
	}
}

// Equal compares two maps by key/value content, independent of order.
func (m Map) Equal(other Map) bool {
	a, b := m.snapshot(), other.snapshot()
	if len(a.entries) != len(b.entries) {
		return false
	}
	for k, v := range a.entries {
		ov, ok := b.entries[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Get coerces a sequence of (key, destination) pairs, mirroring
// List.Unpack. It fails on the first missing key or failed coercion,
// returning a precise error message.
func (m Map) Get(pairs ...any) (bool, string) {
	if len(pairs)%2 != 0 {
		return false, "Get requires key/destination pairs"
	}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return false, fmt.Sprintf("invalid key argument at position %d", i)
		}
		v, ok := m.Find(key)
		if !ok {
			return false, "invalid key " + key
		}
		ok, wantType := assignTo(pairs[i+1], v)
		if !ok {
			return false, fmt.Sprintf("invalid cast in argument %s from type %s to %s", key, v.TypeName(), wantType)
		}
	}
	return true, ""
}
