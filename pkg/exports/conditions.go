// Package exports models the package.json "exports" field: subpath keys
// mapping to either bare path strings or objects of conditional entries.
//
// Two ordering rules matter to Node's resolver and are enforced here in one
// place: condition keys serialize in the fixed order
// source, types, import, require, browser, default — and subpath keys keep
// their insertion order (hand-authored maps round-trip verbatim).
package exports

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Condition key names, in their canonical serialization order.
const (
	CondSource  = "source"
	CondTypes   = "types"
	CondImport  = "import"
	CondRequire = "require"
	CondBrowser = "browser"
	CondDefault = "default"
)

// ConditionOrder is the fixed serialization order of condition keys.
var ConditionOrder = []string{CondSource, CondTypes, CondImport, CondRequire, CondBrowser, CondDefault}

// Condition is one named resolution branch inside an entry.
type Condition struct {
	Name  string
	Value string
}

// Entry is one exports-map value. It is either a bare path string, an
// ordered conditions object, or a verbatim fragment carried over from a
// hand-authored exports field.
type Entry struct {
	raw        json.RawMessage
	path       string
	conditions []Condition
}

// PathEntry returns an entry that serializes as a bare string.
func PathEntry(path string) Entry {
	return Entry{path: path}
}

// RawEntry wraps a pre-existing exports value so it round-trips byte for
// byte. Used when an exports field is already present in package.json.
func RawEntry(raw json.RawMessage) Entry {
	return Entry{raw: raw}
}

// IsZero reports whether the entry carries no value at all.
func (e Entry) IsZero() bool {
	return e.raw == nil && e.path == "" && len(e.conditions) == 0
}

// IsRaw reports whether the entry is a verbatim hand-authored fragment.
func (e Entry) IsRaw() bool { return e.raw != nil }

// Path returns the bare string value, or "" if the entry is an object.
func (e Entry) Path() string { return e.path }

// Conditions returns the ordered condition list (nil for bare strings).
func (e Entry) Conditions() []Condition { return e.conditions }

// Condition returns the value of the named condition, if present.
func (e Entry) Condition(name string) (string, bool) {
	for _, c := range e.conditions {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// MarshalJSON serializes the entry: raw fragments verbatim, bare paths as
// JSON strings, conditions as an object in canonical key order.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	if len(e.conditions) == 0 {
		return json.Marshal(e.path)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range e.conditions {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Builder accumulates optional condition values and emits a canonically
// ordered Entry. Setters with empty values are no-ops, so call sites can
// pass through unresolved lookups without guarding every assignment.
type Builder struct {
	values map[string]string
}

// NewBuilder creates an empty conditions builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]string, len(ConditionOrder))}
}

// Set records a condition value. Unknown names are rejected so typos fail
// loudly in tests rather than silently dropping a condition.
func (b *Builder) Set(name, value string) *Builder {
	if value == "" {
		return b
	}
	if !knownCondition(name) {
		panic(fmt.Sprintf("exports: unknown condition %q", name))
	}
	b.values[name] = value
	return b
}

// Source sets the "source" condition.
func (b *Builder) Source(v string) *Builder { return b.Set(CondSource, v) }

// Types sets the "types" condition.
func (b *Builder) Types(v string) *Builder { return b.Set(CondTypes, v) }

// Import sets the "import" condition.
func (b *Builder) Import(v string) *Builder { return b.Set(CondImport, v) }

// Require sets the "require" condition.
func (b *Builder) Require(v string) *Builder { return b.Set(CondRequire, v) }

// Browser sets the "browser" condition.
func (b *Builder) Browser(v string) *Builder { return b.Set(CondBrowser, v) }

// Default sets the "default" condition.
func (b *Builder) Default(v string) *Builder { return b.Set(CondDefault, v) }

// Empty reports whether no condition has been set.
func (b *Builder) Empty() bool { return len(b.values) == 0 }

// Build emits the entry. A conditions set whose only populated key is
// "default" collapses to a bare string.
func (b *Builder) Build() Entry {
	if len(b.values) == 1 {
		if def, ok := b.values[CondDefault]; ok {
			return PathEntry(def)
		}
	}
	conds := make([]Condition, 0, len(b.values))
	for _, name := range ConditionOrder {
		if v, ok := b.values[name]; ok {
			conds = append(conds, Condition{Name: name, Value: v})
		}
	}
	return Entry{conditions: conds}
}

func knownCondition(name string) bool {
	for _, n := range ConditionOrder {
		if n == name {
			return true
		}
	}
	return false
}
