// Package usage models the usage dictionary: per-package aggregated
// import evidence collected by scanning a consuming codebase.
package usage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/gnana997/exportfix/pkg/pathutil"
)

// Record holds one package's aggregated import evidence.
type Record struct {
	Package string `json:"package"`

	// VersionRequirement is the range declared by the consuming repo,
	// informational only. Validated as a semver constraint on ingest.
	VersionRequirement string `json:"versionRequirement,omitempty"`

	// ImportPaths are the distinct package-relative specifiers observed,
	// each "." or "./..."-prefixed. Set semantics; sorted on save.
	ImportPaths []string `json:"importPaths"`
}

// Validate checks a record for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (r *Record) Validate() []error {
	var errs []error

	if r.Package == "" {
		errs = append(errs, fmt.Errorf("record package name is required"))
	}
	for i, p := range r.ImportPaths {
		if p != "." && !strings.HasPrefix(p, "./") {
			errs = append(errs, fmt.Errorf("record %q importPaths[%d]: %q is not package-relative", r.Package, i, p))
		}
	}
	if r.VersionRequirement != "" {
		if _, err := semver.NewConstraint(r.VersionRequirement); err != nil {
			errs = append(errs, fmt.Errorf("record %q: invalid version requirement %q: %w", r.Package, r.VersionRequirement, err))
		}
	}

	return errs
}

// AddPaths merges import paths into the record, normalizing each and
// dropping duplicates. Returns the number of paths actually added.
func (r *Record) AddPaths(paths ...string) int {
	seen := make(map[string]bool, len(r.ImportPaths))
	for _, existing := range r.ImportPaths {
		seen[existing] = true
	}

	added := 0
	for _, p := range paths {
		normalized := pathutil.Normalize(p)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		r.ImportPaths = append(r.ImportPaths, normalized)
		added++
	}
	return added
}

// SortPaths sorts the import paths lexicographically for reproducible
// output.
func (r *Record) SortPaths() {
	sort.Strings(r.ImportPaths)
}
