package usage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/tidwall/jsonc"
)

// Dictionary maps package names to their usage records. The zero value is
// not usable; construct with NewDictionary or Load.
type Dictionary struct {
	records map[string]*Record
	logger  *slog.Logger
}

// NewDictionary creates an empty usage dictionary.
func NewDictionary(logger *slog.Logger) *Dictionary {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dictionary{records: make(map[string]*Record), logger: logger}
}

// Len returns the number of packages in the dictionary.
func (d *Dictionary) Len() int {
	return len(d.records)
}

// Get returns the record for a package name.
func (d *Dictionary) Get(pkg string) (*Record, bool) {
	r, ok := d.records[pkg]
	return r, ok
}

// Packages returns all package names, sorted.
func (d *Dictionary) Packages() []string {
	names := make([]string, 0, len(d.records))
	for name := range d.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add merges import evidence for a package into the dictionary. An unknown
// package gets a new record; an existing one is extended additively. A
// non-empty versionRequirement overwrites the stored one only when the
// record has none yet. Returns the number of new import paths recorded.
func (d *Dictionary) Add(pkg, versionRequirement string, importPaths ...string) int {
	r, ok := d.records[pkg]
	if !ok {
		r = &Record{Package: pkg}
		d.records[pkg] = r
	}
	if r.VersionRequirement == "" && versionRequirement != "" {
		if errs := (&Record{Package: pkg, VersionRequirement: versionRequirement}).Validate(); len(errs) > 0 {
			d.logger.Warn("ignoring invalid version requirement",
				"package", pkg, "requirement", versionRequirement)
		} else {
			r.VersionRequirement = versionRequirement
		}
	}
	return r.AddPaths(importPaths...)
}

// Merge folds every record of other into the dictionary, additively.
// Returns the total number of new import paths recorded.
func (d *Dictionary) Merge(other *Dictionary) int {
	added := 0
	for _, name := range other.Packages() {
		r := other.records[name]
		added += d.Add(r.Package, r.VersionRequirement, r.ImportPaths...)
	}
	return added
}

// Load reads a usage dictionary from a JSON file. A missing or unreadable
// file is an error; the fix/evaluate commands treat it as fatal.
func Load(path string, logger *slog.Logger) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage file: %w", err)
	}
	return LoadBytes(data, logger)
}

// LoadBytes parses a usage dictionary from raw JSON bytes. Comments and
// trailing commas are tolerated. Records that fail validation are logged
// and skipped; the rest of the file still loads.
func LoadBytes(data []byte, logger *slog.Logger) (*Dictionary, error) {
	var raw map[string]*Record
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse usage file: %w", err)
	}

	d := NewDictionary(logger)
	for name, r := range raw {
		if r == nil {
			continue
		}
		if r.Package == "" {
			r.Package = name
		}
		if errs := r.Validate(); len(errs) > 0 {
			d.logger.Warn("skipping invalid usage record", "package", name, "errors", errs)
			continue
		}
		if r.Package != name {
			d.logger.Warn("skipping usage record whose package field disagrees with its key",
				"key", name, "package", r.Package)
			continue
		}
		d.Add(r.Package, r.VersionRequirement, r.ImportPaths...)
	}
	return d, nil
}

// MarshalJSON serializes the dictionary with sorted package keys and
// sorted import paths, so repeated saves of the same evidence are
// byte-identical.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	out := make(map[string]*Record, len(d.records))
	for name, r := range d.records {
		clone := &Record{
			Package:            r.Package,
			VersionRequirement: r.VersionRequirement,
			ImportPaths:        append([]string(nil), r.ImportPaths...),
		}
		clone.SortPaths()
		out[name] = clone
	}
	return json.Marshal(out)
}

// Save writes the dictionary to path as indented JSON with a trailing
// newline. Existing content is replaced wholesale; merging with on-disk
// state is the caller's job (load, Merge, then Save).
func (d *Dictionary) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize usage dictionary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write usage file: %w", err)
	}
	return nil
}
