package facts

import "encoding/json"

// Table maps a concept name to every accepted value for it, in document
// order. Position 0 is the current period by convention, position 1 the
// prior period.
type Table struct {
	values map[string][]Value
	order  []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string][]Value)}
}

// Append adds v to the end of the concept's sequence.
func (t *Table) Append(concept string, v Value) {
	if _, ok := t.values[concept]; !ok {
		t.order = append(t.order, concept)
	}
	t.values[concept] = append(t.values[concept], v)
}

// Has reports whether the concept has at least one value.
func (t *Table) Has(concept string) bool {
	if t == nil {
		return false
	}
	return len(t.values[concept]) > 0
}

// Values returns the concept's sequence. The slice must not be modified.
func (t *Table) Values(concept string) []Value {
	if t == nil {
		return nil
	}
	return t.values[concept]
}

// At returns the value at position idx of the concept's sequence.
func (t *Table) At(concept string, idx int) (Value, bool) {
	vals := t.Values(concept)
	if idx < 0 || idx >= len(vals) {
		return Null(), false
	}
	return vals[idx], true
}

// FirstSeen returns the concept names in the order they were first appended.
func (t *Table) FirstSeen() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len is the number of distinct concepts.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// MarshalJSON writes the table as an object of arrays. encoding/json sorts
// map keys, so the output is stable.
func (t *Table) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.values)
}
