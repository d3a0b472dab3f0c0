package infer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/exportfix/pkg/fsprobe"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("// "+name+"\n"), 0644))
	}
}

func newSourceInferencer() *SourceInferencer {
	return NewSourceInferencer(fsprobe.NewResolver(0, nil))
}

func TestInferSource_LibToSrc(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "src/utils.ts")

	s := newSourceInferencer()
	assert.Equal(t, "./src/utils.ts", s.InferSource("./lib/utils.js", dir))
}

func TestInferSource_DistToSrc(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "src/index.tsx")

	s := newSourceInferencer()
	assert.Equal(t, "./src/index.tsx", s.InferSource("./dist/index.js", dir))
}

func TestInferSource_BuildToSource(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "source/main.js")

	s := newSourceInferencer()
	assert.Equal(t, "./source/main.js", s.InferSource("./build/main.js", dir))
}

func TestInferSource_TypeScriptPreferred(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "src/utils.js", "src/utils.ts")

	s := newSourceInferencer()
	// Fixed priority list, not filesystem order: .ts wins over .js.
	assert.Equal(t, "./src/utils.ts", s.InferSource("./lib/utils.js", dir))
}

func TestInferSource_IndexFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "src/utils/index.ts")

	s := newSourceInferencer()
	assert.Equal(t, "./src/utils/index.ts", s.InferSource("./lib/utils.js", dir))
}

func TestInferSource_FallbackSourceDirs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "source/widget.ts")

	s := newSourceInferencer()
	// "./dist/widget.js" substitutes to "./src/widget" first (miss), then
	// the stripped path retries against each canonical source dir.
	assert.Equal(t, "./source/widget.ts", s.InferSource("./dist/widget.js", dir))
}

func TestInferSource_NothingPlausible(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "lib/utils.js")

	s := newSourceInferencer()
	assert.Equal(t, "", s.InferSource("./lib/utils.js", dir))
}

func TestInferSource_NestedPath(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "src/components/Button.tsx")

	s := newSourceInferencer()
	assert.Equal(t, "./src/components/Button.tsx", s.InferSource("./lib/components/Button.js", dir))
}
