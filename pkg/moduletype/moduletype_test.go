package moduletype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// --- ClassifyIdentifier ---

func TestClassifyIdentifier(t *testing.T) {
	tests := []struct {
		token string
		want  Kind
	}{
		{"cjs", KindCJS},
		{"CJS", KindCJS},
		{"commonjs", KindCJS},
		{"common", KindCJS},
		{"node", KindCJS},
		{"esm", KindESM},
		{"ESM", KindESM},
		{"es", KindESM},
		{"module", KindESM},
		{"modules", KindESM},
		{"import", KindESM},
		{"lib", KindUnknown},
		{"cjs2", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyIdentifier(tt.token), "token %q", tt.token)
	}
}

func TestClassifyExtension(t *testing.T) {
	assert.Equal(t, KindCJS, ClassifyExtension(".cjs"))
	assert.Equal(t, KindESM, ClassifyExtension(".mjs"))
	assert.Equal(t, KindUnknown, ClassifyExtension(".js"))
	assert.Equal(t, KindUnknown, ClassifyExtension(".ts"))
}

// --- Detect ---

func TestDetect_ExtensionWins(t *testing.T) {
	dir := t.TempDir()
	d := NewDetector(nil)

	// Extension beats package.json type and content.
	writeFile(t, dir, "package.json", `{"type": "module"}`)
	mjs := writeFile(t, dir, "a.mjs", `module.exports = {}`)
	cjs := writeFile(t, dir, "b.cjs", `export const x = 1`)

	assert.Equal(t, KindESM, d.Detect(mjs, dir))
	assert.Equal(t, KindCJS, d.Detect(cjs, dir))
}

func TestDetect_PackageJSONType(t *testing.T) {
	dir := t.TempDir()
	d := NewDetector(nil)

	writeFile(t, dir, "package.json", `{"type": "module"}`)
	js := writeFile(t, dir, "lib/a.js", `module.exports = {}`)

	// "type": "module" wins over CJS-looking content.
	assert.Equal(t, KindESM, d.Detect(js, dir))
}

func TestDetect_NearestPackageJSONWins(t *testing.T) {
	dir := t.TempDir()
	d := NewDetector(nil)

	writeFile(t, dir, "package.json", `{"type": "module"}`)
	writeFile(t, dir, "lib/package.json", `{"type": "commonjs"}`)
	js := writeFile(t, dir, "lib/a.js", ``)

	assert.Equal(t, KindCJS, d.Detect(js, dir))
}

func TestDetect_ContentSniff(t *testing.T) {
	dir := t.TempDir()
	d := NewDetector(nil)

	esm := writeFile(t, dir, "esm.js", "import fs from 'fs'\nexport default fs\n")
	cjs := writeFile(t, dir, "cjs.js", "const fs = require('fs')\nmodule.exports = fs\n")
	dyn := writeFile(t, dir, "dyn.js", "const load = () => import('./lazy')\n")
	plain := writeFile(t, dir, "plain.js", "const x = 1\n")

	assert.Equal(t, KindESM, d.Detect(esm, dir))
	assert.Equal(t, KindCJS, d.Detect(cjs, dir))
	assert.Equal(t, KindESM, d.Detect(dyn, dir))
	assert.Equal(t, KindUnknown, d.Detect(plain, dir))
}

func TestDetect_MissingFile(t *testing.T) {
	dir := t.TempDir()
	d := NewDetector(nil)

	assert.Equal(t, KindUnknown, d.Detect(filepath.Join(dir, "nope.js"), dir))
}
