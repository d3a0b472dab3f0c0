package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache serves source file contents through memory-mapped regions so
// repeated parses of the same file (initial scan, then watch-triggered
// rescans) avoid re-reading from disk. Files that cannot be mmapped fall
// back to a plain in-memory copy.
//
// Thread-safe. Slices returned by ReadFile alias the mapping and are only
// valid until Close; callers must not retain them past the cache lifetime
// or mutate them.
type FileCache interface {
	// ReadFile returns the file's contents, mapping it on first access.
	ReadFile(path string) ([]byte, error)

	// Size returns the number of currently cached files.
	Size() int

	// Stats returns a snapshot of the cache counters.
	Stats() FileCacheStats

	// Close unmaps every file and resets the cache.
	Close() error
}

// FileCacheConfig bounds the cache. Zero values mean unlimited.
type FileCacheConfig struct {
	// MaxFiles caps the number of cached files; further loads error.
	MaxFiles int

	// MaxMemoryMB caps total mapped bytes. Virtual address space, not
	// resident RAM: untouched pages cost nothing.
	MaxMemoryMB int

	Logger *slog.Logger
}

// DefaultFileCacheConfig covers repos up to tens of thousands of source
// files without letting a runaway scan exhaust descriptors.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:    10000,
		MaxMemoryMB: 2048,
	}
}

// FileCacheStats holds cumulative cache counters.
type FileCacheStats struct {
	FilesCached  int
	Hits         int64
	Misses       int64
	MmapFailures int64
	MappedBytes  int64
}

type mappedFile struct {
	data mmap.MMap
	file *os.File // nil for fallback entries
}

type fileCache struct {
	config *FileCacheConfig
	logger *slog.Logger

	mu    sync.RWMutex
	files map[string]*mappedFile
	bytes int64

	statsMu sync.Mutex
	stats   FileCacheStats
}

// NewFileCache creates a FileCache. A nil config uses the defaults.
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &fileCache{
		config: config,
		logger: logger,
		files:  make(map[string]*mappedFile),
	}
}

func (fc *fileCache) ReadFile(path string) ([]byte, error) {
	fc.mu.RLock()
	if mf, ok := fc.files[path]; ok {
		fc.mu.RUnlock()
		fc.count(func(s *FileCacheStats) { s.Hits++ })
		return mf.data, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Another goroutine may have loaded it while we waited.
	if mf, ok := fc.files[path]; ok {
		fc.count(func(s *FileCacheStats) { s.Hits++ })
		return mf.data, nil
	}
	fc.count(func(s *FileCacheStats) { s.Misses++ })

	if fc.config.MaxFiles > 0 && len(fc.files) >= fc.config.MaxFiles {
		return nil, fmt.Errorf("file cache limit reached: %d files", len(fc.files))
	}

	mf, err := fc.load(path)
	if err != nil {
		return nil, err
	}

	if limit := int64(fc.config.MaxMemoryMB) * 1024 * 1024; limit > 0 && fc.bytes+int64(len(mf.data)) > limit {
		fc.release(path, mf)
		return nil, fmt.Errorf("file cache memory limit reached: %d MB", fc.config.MaxMemoryMB)
	}

	fc.files[path] = mf
	fc.bytes += int64(len(mf.data))
	return mf.data, nil
}

func (fc *fileCache) load(path string) (*mappedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// Zero bytes cannot be mapped.
	if stat.Size() == 0 {
		file.Close()
		return &mappedFile{}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		fc.logger.Warn("mmap failed, reading file into memory", "path", path, "error", err)
		fc.count(func(s *FileCacheStats) { s.MmapFailures++ })

		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, readErr)
		}
		return &mappedFile{data: mmap.MMap(raw)}, nil
	}

	return &mappedFile{data: data, file: file}, nil
}

func (fc *fileCache) release(path string, mf *mappedFile) {
	if mf.file != nil {
		if mf.data != nil {
			if err := mf.data.Unmap(); err != nil {
				fc.logger.Warn("failed to unmap file", "path", path, "error", err)
			}
		}
		if err := mf.file.Close(); err != nil {
			fc.logger.Warn("failed to close file", "path", path, "error", err)
		}
	}
}

func (fc *fileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.files)
}

func (fc *fileCache) Stats() FileCacheStats {
	fc.mu.RLock()
	cached := len(fc.files)
	mapped := fc.bytes
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()
	stats := fc.stats
	stats.FilesCached = cached
	stats.MappedBytes = mapped
	return stats
}

func (fc *fileCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var firstErr error
	for path, mf := range fc.files {
		if mf.file != nil && mf.data != nil {
			if err := mf.data.Unmap(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("unmap %s: %w", path, err)
			}
		}
		if mf.file != nil {
			if err := mf.file.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close %s: %w", path, err)
			}
		}
	}
	fc.files = make(map[string]*mappedFile)
	fc.bytes = 0
	return firstErr
}

func (fc *fileCache) count(update func(*FileCacheStats)) {
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}
