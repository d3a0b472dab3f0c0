package fsprobe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0, nil)

	file := touch(t, dir, "a.js")
	assert.True(t, r.Exists(file))
	assert.False(t, r.Exists(filepath.Join(dir, "missing.js")))

	// Directories are not files.
	assert.False(t, r.Exists(dir))
}

func TestExists_CachesResults(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0, nil)

	path := filepath.Join(dir, "later.js")
	assert.False(t, r.Exists(path))

	// Created after the first probe: the cached miss still answers until
	// invalidated.
	touch(t, dir, "later.js")
	assert.False(t, r.Exists(path))

	r.Invalidate(path)
	assert.True(t, r.Exists(path))
}

func TestFindWithExtensions(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0, nil)

	touch(t, dir, "utils.ts")
	touch(t, dir, "utils.js")

	base := filepath.Join(dir, "utils")

	// Priority order decides which of several hits wins.
	found, ok := r.FindWithExtensions(base, []string{".ts", ".js"})
	require.True(t, ok)
	assert.Equal(t, base+".ts", found)

	found, ok = r.FindWithExtensions(base, []string{".js", ".ts"})
	require.True(t, ok)
	assert.Equal(t, base+".js", found)

	// Empty extension probes the base path itself.
	exact := touch(t, dir, "exact")
	found, ok = r.FindWithExtensions(exact, []string{"", ".js"})
	require.True(t, ok)
	assert.Equal(t, exact, found)

	_, ok = r.FindWithExtensions(filepath.Join(dir, "nope"), []string{".ts", ".js"})
	assert.False(t, ok)
}

func TestFindIndexFile(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0, nil)

	touch(t, dir, "utils/index.ts")

	found, ok := r.FindIndexFile(filepath.Join(dir, "utils"), []string{".ts", ".js"})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "utils", "index.ts"), found)

	_, ok = r.FindIndexFile(filepath.Join(dir, "empty"), []string{".ts"})
	assert.False(t, ok)
}

func TestExistsBatch(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0, nil)

	a := touch(t, dir, "a.js")
	b := touch(t, dir, "b.js")
	missing := filepath.Join(dir, "missing.js")

	results, err := r.ExistsBatch(context.Background(), []string{a, missing, b}, DefaultBatchOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Exists)
	assert.False(t, results[1].Exists)
	assert.NoError(t, results[1].Err)
	assert.True(t, results[2].Exists)

	// Input order is preserved.
	assert.Equal(t, a, results[0].Path)
	assert.Equal(t, missing, results[1].Path)
}

func TestExistsBatch_ManyPaths(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0, nil)

	var paths []string
	for i := 0; i < 100; i++ {
		paths = append(paths, touch(t, dir, filepath.Join("src", "file"+string(rune('a'+i%26))+".ts")))
	}

	opts := DefaultBatchOptions()
	opts.Concurrency = 4

	results, err := r.ExistsBatch(context.Background(), paths, opts)
	require.NoError(t, err)
	require.Len(t, results, 100)
	for _, res := range results {
		assert.True(t, res.Exists, res.Path)
	}
}

func TestExistsBatch_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := r.ExistsBatch(ctx, []string{filepath.Join(dir, "a.js")}, DefaultBatchOptions())
	require.Len(t, results, 1)
	// Continue-on-error batches surface cancellation per result, not as a
	// batch failure.
	assert.NoError(t, err)
}
