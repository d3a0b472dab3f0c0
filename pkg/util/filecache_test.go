package util

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileCacheReadFile(t *testing.T) {
	path := writeTemp(t, "mod.ts", "import { x } from './dep';\n")

	fc := NewFileCache(nil)
	defer fc.Close()

	data, err := fc.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "import { x } from './dep';\n", string(data))
	assert.Equal(t, 1, fc.Size())
}

func TestFileCacheHitMissCounters(t *testing.T) {
	path := writeTemp(t, "a.js", "const a = 1;\n")

	fc := NewFileCache(nil)
	defer fc.Close()

	_, err := fc.ReadFile(path)
	require.NoError(t, err)
	_, err = fc.ReadFile(path)
	require.NoError(t, err)

	stats := fc.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.FilesCached)
	assert.Greater(t, stats.MappedBytes, int64(0))
}

func TestFileCacheEmptyFile(t *testing.T) {
	path := writeTemp(t, "empty.js", "")

	fc := NewFileCache(nil)
	defer fc.Close()

	data, err := fc.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileCacheMissingFile(t *testing.T) {
	fc := NewFileCache(nil)
	defer fc.Close()

	_, err := fc.ReadFile(filepath.Join(t.TempDir(), "nope.js"))
	assert.Error(t, err)
}

func TestFileCacheMaxFiles(t *testing.T) {
	dir := t.TempDir()
	fc := NewFileCache(&FileCacheConfig{MaxFiles: 2})
	defer fc.Close()

	for i, name := range []string{"a.js", "b.js", "c.js"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		_, err := fc.ReadFile(path)
		if i < 2 {
			assert.NoError(t, err)
		} else {
			assert.Error(t, err)
		}
	}
}

func TestFileCacheCloseResets(t *testing.T) {
	path := writeTemp(t, "a.js", "const a = 1;\n")

	fc := NewFileCache(nil)
	_, err := fc.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, fc.Close())
	assert.Equal(t, 0, fc.Size())

	// Reusable after Close.
	_, err = fc.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, fc.Close())
}

func TestFileCacheConcurrentAccess(t *testing.T) {
	path := writeTemp(t, "shared.js", "export const shared = true;\n")

	fc := NewFileCache(nil)
	defer fc.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := fc.ReadFile(path)
			assert.NoError(t, err)
			assert.Equal(t, "export const shared = true;\n", string(data))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fc.Size())
}
