// Package scanner walks a consuming codebase, extracts the import
// specifiers of every JavaScript/TypeScript source in parallel, and
// aggregates them into per-package usage records.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"

	"github.com/gnana997/exportfix/pkg/extractor"
	"github.com/gnana997/exportfix/pkg/parser"
	"github.com/gnana997/exportfix/pkg/usage"
	"github.com/gnana997/exportfix/pkg/util"
)

// Options configures a scan.
type Options struct {
	// Workers is the worker count; 0 means CPU-derived default.
	Workers int

	// Exclude holds doublestar patterns matched against root-relative
	// paths.
	Exclude []string

	// Packages restricts aggregation to these package names. Empty means
	// every bare specifier is recorded.
	Packages []string
}

// DefaultOptions skips dependency trees and build output.
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

// Stats summarizes one scan.
type Stats struct {
	FilesScanned int
	FilesFailed  int
	ImportsFound int
	Duration     time.Duration
}

// Scanner owns the parsing stack shared across scans: parser pools, the
// compiled import queries, and the mmap file cache.
type Scanner struct {
	parsers   *parser.Manager
	extractor *extractor.Extractor
	cache     util.FileCache
	logger    *slog.Logger
}

// New creates a Scanner. Close it to release parsers and mapped files.
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	parsers := parser.NewManager(logger)
	return &Scanner{
		parsers:   parsers,
		extractor: extractor.New(parsers, logger),
		cache:     util.NewFileCache(&util.FileCacheConfig{Logger: logger}),
		logger:    logger,
	}
}

// Close releases the scanner's parsers, queries, and file mappings.
func (s *Scanner) Close() error {
	s.extractor.Close()
	if err := s.parsers.Close(); err != nil {
		return err
	}
	return s.cache.Close()
}

// Scan walks root, extracts imports from every source file through the
// worker pool, and returns the aggregated usage dictionary. Per-file
// failures are warnings; only an unwalkable root is an error.
func (s *Scanner) Scan(ctx context.Context, root string, options Options) (*usage.Dictionary, *Stats, error) {
	start := time.Now()

	files, err := s.discoverFiles(root, options)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("scanning source files", "root", root, "files", len(files))

	ranges := readDeclaredRanges(root, s.logger)
	only := make(map[string]bool, len(options.Packages))
	for _, name := range options.Packages {
		only[name] = true
	}

	dict := usage.NewDictionary(s.logger)
	stats := &Stats{}

	pool := newWorkerPool(options.Workers, s.cache, s.extractor, s.logger)
	pool.start()

	var collectors sync.WaitGroup
	var aggregateMu sync.Mutex

	collectors.Add(1)
	go func() {
		defer collectors.Done()
		for result := range pool.results {
			aggregateMu.Lock()
			stats.FilesScanned++
			stats.ImportsFound += s.aggregate(dict, result.Imports, ranges, only)
			aggregateMu.Unlock()
		}
	}()

	collectors.Add(1)
	go func() {
		defer collectors.Done()
		for ferr := range pool.errors {
			s.logger.Warn("skipping file", "path", ferr.FilePath, "error", ferr.Err)
			aggregateMu.Lock()
			stats.FilesFailed++
			aggregateMu.Unlock()
		}
	}()

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		if err := pool.submit(FileJob{FilePath: file}); err != nil {
			break
		}
	}
	pool.stop()
	collectors.Wait()

	stats.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return dict, stats, err
	}
	return dict, stats, nil
}

// aggregate folds one file's specifiers into the dictionary. Returns the
// number of new import paths recorded.
func (s *Scanner) aggregate(dict *usage.Dictionary, imports []extractor.Import, ranges map[string]string, only map[string]bool) int {
	added := 0
	for _, imp := range imports {
		pkg, importPath, ok := SplitSpecifier(imp.Specifier)
		if !ok {
			continue
		}
		if len(only) > 0 && !only[pkg] {
			continue
		}
		added += dict.Add(pkg, ranges[pkg], importPath)
	}
	return added
}

// discoverFiles walks root collecting parseable source files, honoring
// the exclude patterns.
func (s *Scanner) discoverFiles(root string, options Options) ([]string, error) {
	for _, pattern := range options.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
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

		if !d.IsDir() && parser.DetectLanguage(path) != parser.LanguageUnknown {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}
	return files, nil
}

// readDeclaredRanges pulls the dependency ranges from the scanned repo's
// root package.json so usage records can carry versionRequirement.
// Missing or malformed manifests just mean no ranges.
func readDeclaredRanges(root string, logger *slog.Logger) map[string]string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}

	var manifest struct {
		Dependencies     map[string]string `json:"dependencies"`
		DevDependencies  map[string]string `json:"devDependencies"`
		PeerDependencies map[string]string `json:"peerDependencies"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &manifest); err != nil {
		logger.Warn("could not parse root package.json for dependency ranges", "error", err)
		return nil
	}

	ranges := make(map[string]string)
	for _, deps := range []map[string]string{manifest.PeerDependencies, manifest.DevDependencies, manifest.Dependencies} {
		for name, rng := range deps {
			ranges[name] = rng
		}
	}
	return ranges
}
