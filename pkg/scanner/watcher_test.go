package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/exportfix/pkg/usage"
)

func TestWatcherMergesNewEvidence(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))

	s := New(nil)
	defer s.Close()

	dict := usage.NewDictionary(nil)
	updated := make(chan int, 8)

	w, err := NewWatcher(s, dict, WatchOptions{DebounceMs: 10, Scan: DefaultOptions()},
		func(added int) { updated <- added }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(root))
	defer w.Stop()

	writeSource(t, root, "src/new.ts", `import { Button } from 'design-system/lib/Button';`)

	select {
	case added := <-updated:
		assert.Greater(t, added, 0)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the new file")
	}

	record, ok := dict.Get("design-system")
	require.True(t, ok)
	assert.Equal(t, []string{"./lib/Button"}, record.ImportPaths)
}

func TestWatcherHonorsExcludePatterns(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "generated"), 0755))

	s := New(nil)
	defer s.Close()

	dict := usage.NewDictionary(nil)
	updated := make(chan int, 8)

	options := DefaultOptions()
	options.Exclude = append(options.Exclude, "**/generated")

	w, err := NewWatcher(s, dict, WatchOptions{DebounceMs: 10, Scan: options},
		func(added int) { updated <- added }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(root))
	defer w.Stop()

	assert.True(t, w.shouldIgnore(filepath.Join(root, "src", "generated", "client.ts")))
	assert.False(t, w.shouldIgnore(filepath.Join(root, "src", "app.ts")))

	writeSource(t, root, "src/generated/client.ts", `import { api } from 'codegen-pkg';`)
	writeSource(t, root, "src/app.ts", `import { helper } from 'shared-lib/lib/helper';`)

	select {
	case <-updated:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the included file")
	}

	_, ok := dict.Get("shared-lib")
	assert.True(t, ok)
	_, ok = dict.Get("codegen-pkg")
	assert.False(t, ok, "excluded tree must not feed the dictionary")
}

func TestWatcherRejectsInvalidExclude(t *testing.T) {
	s := New(nil)
	defer s.Close()

	options := DefaultOptions()
	options.Exclude = []string{"[unclosed"}

	w, err := NewWatcher(s, usage.NewDictionary(nil), WatchOptions{Scan: options}, nil, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.Start(t.TempDir()))
}

func TestWatcherStopIdempotent(t *testing.T) {
	s := New(nil)
	defer s.Close()

	w, err := NewWatcher(s, usage.NewDictionary(nil), WatchOptions{}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.TempDir()))

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
