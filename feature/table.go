package feature

import (
	"fmt"
)

// IDKey is the attribute name promoted to a feature's top-level "id".
const IDKey = "id"

// Table is an insertion ordered attribute table. The zero value is an
// empty table ready to use.
type Table struct {
	names  []string
	values map[string]Value
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string]Value)}
}

// TableOf builds a table from alternating name and value pairs, e.g.
// TableOf("name", "x", "count", 3). It panics on malformed input and is
// meant for literals.
func TableOf(pairs ...any) *Table {
	if len(pairs)%2 != 0 {
		panic("feature: TableOf needs name/value pairs")
	}
	t := NewTable()
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("feature: TableOf name at %d is %T", i, pairs[i]))
		}
		t.Set(name, MustValueOf(pairs[i+1]))
	}
	return t
}

// Len returns the number of attributes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the attribute names in insertion order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Get returns the value stored under name.
func (t *Table) Get(name string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.values[name]
	return v, ok
}

// Exists reports whether name is present.
func (t *Table) Exists(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// Add inserts a new attribute and fails if name is already present.
func (t *Table) Add(name string, v Value) error {
	if t.Exists(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateAttribute, name)
	}
	t.Set(name, v)
	return nil
}

// Set stores v under name, keeping the original position when name is
// already present.
func (t *Table) Set(name string, v Value) {
	if t.values == nil {
		t.values = make(map[string]Value)
	}
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = v
}

// Delete removes name and reports whether it was present.
func (t *Table) Delete(name string) bool {
	if !t.Exists(name) {
		return false
	}
	delete(t.values, name)
	for i, n := range t.names {
		if n == name {
			t.names = append(t.names[:i], t.names[i+1:]...)
			break
		}
	}
	return true
}

// Range calls fn for each attribute in order until fn returns false.
func (t *Table) Range(fn func(name string, v Value) bool) {
	if t == nil {
		return
	}
	for _, name := range t.names {
		if !fn(name, t.values[name]) {
			return
		}
	}
}

// Map returns the attributes as a map of natural Go values.
func (t *Table) Map() map[string]any {
	if t == nil {
		return nil
	}
	m := make(map[string]any, len(t.names))
	for _, name := range t.names {
		m[name] = t.values[name].Interface()
	}
	return m
}

// Equal compares names, order and values.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	if t == nil || o == nil {
		return t == nil && o == nil
	}
	for i, name := range t.names {
		if o.names[i] != name || !t.values[name].Equal(o.values[name]) {
			return false
		}
	}
	return true
}
