// Package pkgjson reads the package.json fields the inference engine
// consumes and writes the computed exports field back.
package pkgjson

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/gnana997/exportfix/pkg/exports"
)

// Descriptor is a read-only snapshot of a package.json's relevant fields.
// It is never mutated in place; write-back produces a patched copy.
type Descriptor struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Private bool   `json:"private"`

	Main    string `json:"main"`
	Module  string `json:"module"`
	Types   string `json:"types"`
	Typings string `json:"typings"`
	Source  string `json:"source"`
	Type    string `json:"type"`

	// Browser is the raw "browser" field: a string or an object mapping.
	Browser json.RawMessage `json:"browser"`

	// Exports is the pre-existing exports field, nil when absent.
	Exports *exports.Map `json:"exports"`
}

// TypesField returns the declaration-file path: "types" wins over the
// legacy "typings" spelling.
func (d *Descriptor) TypesField() string {
	if d.Types != "" {
		return d.Types
	}
	return d.Typings
}

// HasEntryFields reports whether any entry-point field is present at all.
func (d *Descriptor) HasEntryFields() bool {
	return d.Main != "" || d.Module != "" || d.TypesField() != "" ||
		d.Source != "" || len(d.Browser) > 0
}

// Parse decodes a package.json body. Comments and trailing commas are
// tolerated; some generated packages carry them.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(jsonc.ToJSON(data), &d); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	if d.Exports != nil && d.Exports.Len() == 0 {
		// "exports": {} carries no information; treat as absent.
		d.Exports = nil
	}
	return &d, nil
}

// Load reads and parses the package.json at path.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
