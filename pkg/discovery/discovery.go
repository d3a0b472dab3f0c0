// Package discovery enumerates the packages of a repository by locating
// their package.json manifests.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/exportfix/pkg/pkgjson"
)

// Package identifies one discovered package.
type Package struct {
	// Name is the package.json name field.
	Name string

	// Dir is the absolute package directory.
	Dir string

	// PackageJSONPath is the absolute path to the manifest.
	PackageJSONPath string

	// Private mirrors the package.json private flag.
	Private bool
}

// Options configures discovery.
type Options struct {
	// Exclude holds doublestar patterns matched against root-relative
	// paths. A matched directory is skipped wholesale.
	Exclude []string
}

// DefaultOptions excludes the directories that never hold first-party
// manifests: dependency trees and build output.
func DefaultOptions() Options {
	return Options{
		Exclude: []string{
			"**/node_modules",
			"**/dist",
			"**/build",
			"**/.git",
		},
	}
}

// Discover walks root and returns every package with a parseable, named
// package.json, sorted by directory depth-first walk order. Manifests that
// fail to parse or lack a name are logged and skipped.
func Discover(root string, options Options, logger *slog.Logger) ([]Package, error) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, pattern := range options.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	var packages []Package
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		for _, pattern := range options.Exclude {
			matched, _ := doublestar.PathMatch(pattern, relPath)
			if matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() || d.Name() != "package.json" {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Warn("skipping unreadable package.json", "path", path, "error", readErr)
			return nil
		}
		desc, parseErr := pkgjson.Parse(data)
		if parseErr != nil {
			logger.Warn("skipping malformed package.json", "path", path, "error", parseErr)
			return nil
		}
		if desc.Name == "" {
			logger.Warn("skipping nameless package.json", "path", path)
			return nil
		}

		packages = append(packages, Package{
			Name:            desc.Name,
			Dir:             filepath.Dir(path),
			PackageJSONPath: path,
			Private:         desc.Private,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}

	return packages, nil
}

// ByName builds a name → package index over a discovery result. Later
// duplicates of a name are dropped with a warning.
func ByName(packages []Package, logger *slog.Logger) map[string]Package {
	if logger == nil {
		logger = slog.Default()
	}
	index := make(map[string]Package, len(packages))
	for _, p := range packages {
		if existing, ok := index[p.Name]; ok {
			logger.Warn("duplicate package name, keeping first",
				"name", p.Name, "kept", existing.Dir, "dropped", p.Dir)
			continue
		}
		index[p.Name] = p
	}
	return index
}
