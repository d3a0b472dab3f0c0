package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/exportfix/pkg/parser"
	"github.com/gnana997/exportfix/pkg/usage"
)

// WatchOptions configures the incremental watcher.
type WatchOptions struct {
	// DebounceMs groups rapid saves of the same file; 0 means 200ms.
	DebounceMs int

	// Scan options used to filter events the same way the initial scan
	// filtered files.
	Scan Options
}

// Watcher keeps a usage dictionary current as files change. Usage
// evidence is additive, so deletions and renames never shrink the
// dictionary; only writes and creates feed it.
type Watcher struct {
	watcher *fsnotify.Watcher
	scanner *Scanner
	dict    *usage.Dictionary
	options WatchOptions
	logger  *slog.Logger

	// onUpdate fires after a file's imports have been merged, with the
	// number of new paths recorded.
	onUpdate func(added int)

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// rescanMu serializes dictionary merges from concurrent debounce
	// timers.
	rescanMu sync.Mutex

	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex

	root   string
	ranges map[string]string
	only   map[string]bool
}

// NewWatcher creates a Watcher that merges new evidence into dict and
// calls onUpdate after each merge. onUpdate may be nil.
func NewWatcher(s *Scanner, dict *usage.Dictionary, options WatchOptions, onUpdate func(added int), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if options.DebounceMs == 0 {
		options.DebounceMs = 200
	}
	if logger == nil {
		logger = slog.Default()
	}

	only := make(map[string]bool, len(options.Scan.Packages))
	for _, name := range options.Scan.Packages {
		only[name] = true
	}

	return &Watcher{
		watcher:        fsw,
		scanner:        s,
		dict:           dict,
		options:        options,
		logger:         logger,
		onUpdate:       onUpdate,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
		only:           only,
	}, nil
}

// Start registers watches over root's directory tree and begins handling
// events in the background.
func (w *Watcher) Start(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	for _, pattern := range w.options.Scan.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	w.root = absRoot
	w.ranges = readDeclaredRanges(absRoot, w.logger)

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set up watches: %w", err)
	}

	w.logger.Info("watching for changes", "root", absRoot)
	go w.eventLoop()
	return nil
}

// Stop halts event handling and closes the underlying watcher.
// Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.shouldIgnore(path) {
		return
	}

	// New directories need their own watch for events beneath them.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	if parser.DetectLanguage(path) == parser.LanguageUnknown {
		return
	}
	if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
		w.debounce(path)
	}
}

// debounce schedules a rescan once saves of the file settle down.
func (w *Watcher) debounce(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(
		time.Duration(w.options.DebounceMs)*time.Millisecond,
		func() {
			w.rescanFile(path)
			w.debounceMu.Lock()
			delete(w.debounceTimers, path)
			w.debounceMu.Unlock()
		},
	)
}

// rescanFile re-extracts one file and merges its evidence. Reads straight
// from disk: the event means any cached mapping is stale.
func (w *Watcher) rescanFile(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read changed file", "path", path, "error", err)
		return
	}

	imports, err := w.scanner.extractor.ExtractImports(content, path)
	if err != nil {
		w.logger.Warn("failed to extract changed file", "path", path, "error", err)
		return
	}

	w.rescanMu.Lock()
	added := w.scanner.aggregate(w.dict, imports, w.ranges, w.only)
	w.logger.Debug("rescanned file", "path", path, "new_paths", added)
	if added > 0 && w.onUpdate != nil {
		w.onUpdate(added)
	}
	w.rescanMu.Unlock()
}

// shouldIgnore filters event paths the same way the initial scan filtered
// files: the usual dependency/build directories, then the configured
// exclude patterns. Events arrive as single paths rather than a tree walk,
// so a pattern that would have skipped a directory must be matched against
// every ancestor of the event path.
func (w *Watcher) shouldIgnore(path string) bool {
	switch filepath.Base(path) {
	case "node_modules", ".git", "dist", "build", ".next":
		return true
	}
	if len(w.options.Scan.Exclude) == 0 || w.root == "" {
		return false
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.options.Scan.Exclude {
		for p := rel; p != "."; {
			if matched, _ := doublestar.PathMatch(pattern, p); matched {
				return true
			}
			idx := strings.LastIndexByte(p, '/')
			if idx < 0 {
				break
			}
			p = p[:idx]
		}
	}
	return false
}
