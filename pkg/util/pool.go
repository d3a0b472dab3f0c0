package util

import "runtime"

// GetOptimalPoolSize returns the worker count for CPU-bound parallel work:
// min(max(NumCPU*2, 4), 32). Twice the core count keeps cores busy while
// goroutines block in CGO parser calls; the cap bounds per-worker parser
// memory on large machines.
func GetOptimalPoolSize() int {
	size := runtime.NumCPU() * 2
	if size < 4 {
		size = 4
	}
	if size > 32 {
		size = 32
	}
	return size
}

// GetOptimalPoolSizeWithOverride uses override when positive, otherwise
// the computed optimum.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
