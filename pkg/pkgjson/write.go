package pkgjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/gnana997/exportfix/pkg/exports"
)

// RenderWithExports returns the package.json body with its exports field
// replaced wholesale by the computed map. Every other field keeps its
// authored order; a package without an exports field gains one at the end.
// The result is re-indented with two spaces (npm's own style) and ends with
// a newline.
func RenderWithExports(data []byte, m *exports.Map) ([]byte, error) {
	exportsValue, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal exports map: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parse package.json: top-level value is not an object")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	replaced := false
	first := true

	writePair := func(key string, value []byte) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		compact := bytes.Buffer{}
		if err := json.Compact(&compact, value); err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(compact.Bytes())
		return nil
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse package.json: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parse package.json: non-string key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse package.json field %q: %w", key, err)
		}

		if key == "exports" {
			raw = exportsValue
			replaced = true
		}
		if err := writePair(key, raw); err != nil {
			return nil, err
		}
	}
	if !replaced {
		if err := writePair("exports", exportsValue); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("format package.json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// WriteExports rewrites the package.json at path with the computed exports
// map, preserving file permissions where possible.
func WriteExports(path string, m *exports.Map) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	rendered, err := RenderWithExports(data, m)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, rendered, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
