package pkgjson

import (
	"bytes"
	"encoding/json"

	"github.com/gnana997/exportfix/pkg/pathutil"
)

// BrowserMapping is one per-file override from an object-form browser field.
// Blocked marks a `false` value: the subpath is explicitly unavailable under
// the browser condition (it still produces an export entry, just without a
// browser key).
type BrowserMapping struct {
	Key     string
	Value   string
	Blocked bool
}

// BrowserField is the normalized view of a package.json browser field: an
// optional root-level browser path plus per-file overrides in the order
// they appear in the object.
type BrowserField struct {
	Root     string
	Mappings []BrowserMapping
}

// ParseBrowserField normalizes the raw browser field against the main and
// module fields.
//
// A string-form field becomes the root browser path directly. In the object
// form, a key matching the main field becomes the root (main takes priority;
// a false value means no root browser at all), a key matching the module
// field becomes the root only when main did not already claim it (otherwise
// it stays a normal mapping), and every other key becomes a mapping entry.
// Key equivalence is textual after "./" normalization — "lib/index.js" and
// "./lib/index.js" match, an index-implicit directory spelling does not.
//
// Malformed shapes are not matched and contribute nothing; parsing never
// fails.
func ParseBrowserField(raw json.RawMessage, mainField, moduleField string) BrowserField {
	var out BrowserField

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			out.Root = pathutil.Normalize(s)
		}
		return out
	}
	if trimmed[0] != '{' {
		return out
	}

	pairs := decodeOrderedPairs(trimmed)

	normMain := ""
	if mainField != "" {
		normMain = pathutil.Normalize(mainField)
	}
	normModule := ""
	if moduleField != "" {
		normModule = pathutil.Normalize(moduleField)
	}

	// Main's claim on the root is resolved up front so that a module-matching
	// key seen earlier in the object does not steal it.
	rootClaimedByMain := false
	if normMain != "" {
		for _, p := range pairs {
			if pathutil.Normalize(p.key) == normMain {
				rootClaimedByMain = true
				break
			}
		}
	}

	for _, p := range pairs {
		normKey := pathutil.Normalize(p.key)

		if normMain != "" && normKey == normMain {
			if !p.blocked {
				out.Root = pathutil.Normalize(p.value)
			}
			// false: main explicitly has no browser variant; no root, no mapping.
			continue
		}

		if normModule != "" && normKey == normModule && !rootClaimedByMain && out.Root == "" && !p.blocked {
			out.Root = pathutil.Normalize(p.value)
			continue
		}

		mapping := BrowserMapping{Key: normKey, Blocked: p.blocked}
		if !p.blocked {
			mapping.Value = pathutil.Normalize(p.value)
		}
		out.Mappings = append(out.Mappings, mapping)
	}

	return out
}

type browserPair struct {
	key     string
	value   string
	blocked bool
}

// decodeOrderedPairs walks the object with a token decoder so mapping
// entries keep their authored order. Values that are neither strings nor
// false are dropped.
func decodeOrderedPairs(data []byte) []browserPair {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil
	}

	var pairs []browserPair
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return pairs
		}
		key, ok := tok.(string)
		if !ok {
			return pairs
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return pairs
		}

		switch {
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				pairs = append(pairs, browserPair{key: key, value: s})
			}
		case bytes.Equal(bytes.TrimSpace(raw), []byte("false")):
			pairs = append(pairs, browserPair{key: key, blocked: true})
		}
	}
	return pairs
}
