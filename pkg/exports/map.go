package exports

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Map is an insertion-ordered exports map: subpath key ("." or "./...")
// to Entry. encoding/json's map type randomizes key order, which corrupts
// hand-authored exports fields on round-trip, so ordering is kept manually.
type Map struct {
	keys    []string
	entries map[string]Entry
}

// NewMap creates an empty exports map.
func NewMap() *Map {
	return &Map{entries: make(map[string]Entry)}
}

// Len returns the number of subpath entries.
func (m *Map) Len() int { return len(m.keys) }

// Has reports whether the subpath key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Get returns the entry for a subpath key.
func (m *Map) Get(key string) (Entry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// Keys returns the subpath keys in insertion order. The slice is shared;
// callers must not mutate it.
func (m *Map) Keys() []string { return m.keys }

// Set inserts or replaces an entry. A new key is appended; replacing an
// existing key keeps its position.
func (m *Map) Set(key string, e Entry) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = e
}

// SetIfAbsent inserts the entry only when the key is not already present.
// Returns false when the key existed (the additive-only invariant).
func (m *Map) SetIfAbsent(key string, e Entry) bool {
	if _, ok := m.entries[key]; ok {
		return false
	}
	m.Set(key, e)
	return true
}

// Clone returns a shallow copy safe for additive mutation.
func (m *Map) Clone() *Map {
	out := &Map{
		keys:    append([]string(nil), m.keys...),
		entries: make(map[string]Entry, len(m.entries)),
	}
	for k, v := range m.entries {
		out.entries[k] = v
	}
	return out
}

// MarshalJSON serializes the map with keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.entries[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an exports field preserving key order. Values are
// kept as verbatim raw fragments so an existing map survives a
// read-modify-write untouched. A bare string exports field ("exports":
// "./index.js") decodes as a single "." entry; so does an array-form
// fallback list, which Node applies to the root subpath.
func (m *Map) UnmarshalJSON(data []byte) error {
	m.keys = nil
	m.entries = make(map[string]Entry)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		m.Set(".", PathEntry(s))
		return nil
	}
	if trimmed[0] == '[' {
		m.Set(".", RawEntry(append([]byte(nil), trimmed...)))
		return nil
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("exports: expected object, array or string, got %s", preview(trimmed))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	// Consume opening brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("exports: non-string key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("exports: value for %q: %w", key, err)
		}
		m.Set(key, RawEntry(raw))
	}
	// Consume closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Equal compares two maps by serialized form. Used to decide whether a
// recomputed map needs writing back at all.
func (m *Map) Equal(other *Map) bool {
	if other == nil {
		return m == nil
	}
	a, errA := json.Marshal(m)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func preview(data []byte) string {
	if len(data) > 24 {
		data = data[:24]
	}
	return string(data)
}
