// Package fsprobe is the file-system probing layer under the inference
// engine: existence checks, multi-extension discovery, and index-file
// lookup. Probes are read-only stat calls; a failed probe is "does not
// exist", never an error.
//
// Results are memoized in an LRU cache because inference probes the same
// handful of candidate paths repeatedly (every usage path fans out across
// build directories and extension families).
package fsprobe

import (
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the stat-result cache. Monorepos with 100k+
// files stay well under this per package.
const DefaultCacheSize = 8192

// Resolver probes the file system with memoized stat results.
//
// Thread-safe: the underlying LRU cache serializes access; stat calls run
// lock-free.
type Resolver struct {
	cache  *lru.Cache[string, bool]
	logger *slog.Logger
}

// NewResolver creates a Resolver. cacheSize <= 0 uses DefaultCacheSize;
// a nil logger falls back to slog.Default().
func NewResolver(cacheSize int, logger *slog.Logger) *Resolver {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	// lru.New only fails for a non-positive size, which is guarded above.
	cache, _ := lru.New[string, bool](cacheSize)
	return &Resolver{cache: cache, logger: logger}
}

// Exists reports whether path is an existing regular file. Permission
// errors and any other stat failure count as not existing.
func (r *Resolver) Exists(path string) bool {
	path = filepath.Clean(path)
	if cached, ok := r.cache.Get(path); ok {
		return cached
	}

	info, err := os.Stat(path)
	exists := err == nil && info.Mode().IsRegular()
	r.cache.Add(path, exists)
	return exists
}

// FindWithExtensions probes basePath joined with each extension in the
// caller-supplied priority order (an empty extension probes basePath
// itself) and returns the first hit. Never partial or fuzzy matches.
func (r *Resolver) FindWithExtensions(basePath string, extensions []string) (string, bool) {
	for _, ext := range extensions {
		candidate := basePath + ext
		if r.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// FindIndexFile probes dirPath/index.<ext> for each extension in priority
// order and returns the first hit.
func (r *Resolver) FindIndexFile(dirPath string, extensions []string) (string, bool) {
	for _, ext := range extensions {
		if ext == "" {
			continue
		}
		candidate := filepath.Join(dirPath, "index"+ext)
		if r.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Invalidate drops the cached result for path. Used by watch mode when a
// file changes under a long-lived resolver.
func (r *Resolver) Invalidate(path string) {
	r.cache.Remove(filepath.Clean(path))
}

// Purge drops the whole cache.
func (r *Resolver) Purge() {
	r.cache.Purge()
}
