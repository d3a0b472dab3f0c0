package fsprobe

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BatchOptions configures the concurrent probe fan-out.
type BatchOptions struct {
	// Concurrency caps simultaneous probes so very large trees cannot
	// exhaust file descriptors. Default: 10.
	Concurrency int

	// Timeout bounds a single probe; a slow or stuck filesystem degrades
	// throughput, not correctness. Default: 5s.
	Timeout time.Duration

	// ContinueOnError keeps the batch going when an individual probe times
	// out, collecting the failure instead of aborting. Default: true.
	ContinueOnError bool
}

// DefaultBatchOptions returns the recommended batch configuration.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Concurrency:     10,
		Timeout:         5 * time.Second,
		ContinueOnError: true,
	}
}

// BatchResult is the outcome of one probe in a batch. Err is only set for
// probe-level failures (timeout, cancellation); a clean "file absent" is
// Exists=false with a nil Err.
type BatchResult struct {
	Path   string
	Exists bool
	Err    error
}

// ExistsBatch probes all paths concurrently with bounded parallelism.
// Results are returned in input order. With ContinueOnError (the default)
// individual failures are collected per result; otherwise the first
// failure aborts the batch.
func (r *Resolver) ExistsBatch(ctx context.Context, paths []string, opts BatchOptions) ([]BatchResult, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultBatchOptions().Concurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBatchOptions().Timeout
	}

	results := make([]BatchResult, len(paths))
	sem := make(chan struct{}, opts.Concurrency)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		abortErr error
	)

	for i, path := range paths {
		select {
		case <-ctx.Done():
			results[i] = BatchResult{Path: path, Err: ctx.Err()}
		case sem <- struct{}{}:
			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				defer func() { <-sem }()

				exists, err := r.existsWithTimeout(ctx, path, opts.Timeout)
				results[i] = BatchResult{Path: path, Exists: exists, Err: err}

				if err != nil {
					r.logger.Warn("probe failed", "path", path, "error", err)
					if !opts.ContinueOnError {
						mu.Lock()
						if abortErr == nil {
							abortErr = fmt.Errorf("probe %s: %w", path, err)
						}
						mu.Unlock()
						cancel()
					}
				}
			}(i, path)
		}
	}

	wg.Wait()

	if abortErr != nil {
		return results, abortErr
	}
	if err := ctx.Err(); err != nil && !opts.ContinueOnError {
		return results, err
	}
	return results, nil
}

// existsWithTimeout runs a single probe in its own goroutine so a hung
// stat call cannot stall the batch. The goroutine is leaked for the
// duration of the stuck syscall; the result is simply discarded.
func (r *Resolver) existsWithTimeout(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	done := make(chan bool, 1)
	go func() {
		done <- r.Exists(path)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case exists := <-done:
		return exists, nil
	case <-timer.C:
		return false, fmt.Errorf("probe timed out after %s", timeout)
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
