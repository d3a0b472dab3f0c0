package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/exportfix/pkg/extractor"
	"github.com/gnana997/exportfix/pkg/util"
)

// FileJob is one source file queued for import extraction.
type FileJob struct {
	FilePath string
}

// FileResult carries the specifiers extracted from one file.
type FileResult struct {
	FilePath string
	Imports  []extractor.Import
}

// FileError reports a file that could not be processed.
type FileError struct {
	FilePath string
	Err      error
}

// workerPool fans file jobs out to extraction workers. Worker count
// matches the parser pool size so no worker ever blocks waiting for a
// parser while one sits idle.
type workerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup

	cache     util.FileCache
	extractor *extractor.Extractor
	logger    *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

func newWorkerPool(numWorkers int, cache util.FileCache, ext *extractor.Extractor, logger *slog.Logger) *workerPool {
	if numWorkers <= 0 {
		numWorkers = util.GetOptimalPoolSize()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &workerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		cache:      cache,
		extractor:  ext,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (wp *workerPool) start() {
	if !wp.started.CompareAndSwap(false, true) {
		return
	}
	wp.logger.Debug("starting scan workers", "workers", wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *workerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.process(job)
		}
	}
}

func (wp *workerPool) process(job FileJob) {
	content, err := wp.cache.ReadFile(job.FilePath)
	if err != nil {
		wp.jobsFailed.Add(1)
		wp.errors <- FileError{FilePath: job.FilePath, Err: fmt.Errorf("failed to read file: %w", err)}
		return
	}

	imports, err := wp.extractor.ExtractImports(content, job.FilePath)
	if err != nil {
		wp.jobsFailed.Add(1)
		wp.errors <- FileError{FilePath: job.FilePath, Err: fmt.Errorf("extraction failed: %w", err)}
		return
	}

	wp.jobsProcessed.Add(1)
	wp.results <- FileResult{FilePath: job.FilePath, Imports: imports}
}

// submit blocks when the queue is full; returns an error after stop or
// context cancellation.
func (wp *workerPool) submit(job FileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled")
	case wp.jobs <- job:
		return nil
	}
}

// finishSubmitting closes the job queue so workers drain and exit.
// Idempotent.
func (wp *workerPool) finishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// stop drains workers and closes the result channels. Idempotent.
func (wp *workerPool) stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}
	wp.finishSubmitting()
	wp.wg.Wait()
	close(wp.results)
	close(wp.errors)
	wp.cancel()
	wp.logger.Debug("scan workers stopped",
		"processed", wp.jobsProcessed.Load(),
		"failed", wp.jobsFailed.Load())
}
