package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"src/app.ts", LanguageTypeScript},
		{"src/App.tsx", LanguageTypeScript},
		{"src/mod.mts", LanguageTypeScript},
		{"src/mod.cts", LanguageTypeScript},
		{"lib/index.js", LanguageJavaScript},
		{"lib/index.jsx", LanguageJavaScript},
		{"lib/index.mjs", LanguageJavaScript},
		{"lib/index.cjs", LanguageJavaScript},
		{"README.md", LanguageUnknown},
		{"lib/index", LanguageUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.path), tt.path)
	}
}

func TestIsTSXFile(t *testing.T) {
	assert.True(t, IsTSXFile("src/App.tsx"))
	assert.False(t, IsTSXFile("src/app.ts"))
	assert.False(t, IsTSXFile("src/app.jsx"))
}

func TestParseTypeScript(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	tree, err := manager.Parse([]byte("const x: number = 1;\n"), LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, "program", tree.RootNode().Kind())
}

func TestParseTSX(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	tree, err := manager.Parse([]byte("export const App = () => <div>hello</div>;\n"), LanguageTypeScript, true)
	require.NoError(t, err)
	defer tree.Close()

	assert.Contains(t, tree.RootNode().ToSexp(), "jsx_element")
}

func TestParseJavaScript(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	tree, err := manager.Parse([]byte("const x = require('./dep');\n"), LanguageJavaScript, false)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, "program", tree.RootNode().Kind())
}

func TestParseFile(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	tree, err := manager.ParseFile([]byte("import { x } from './dep';\n"), "src/app.ts")
	require.NoError(t, err)
	tree.Close()

	_, err = manager.ParseFile([]byte("whatever"), "notes.txt")
	assert.Error(t, err)
}

func TestParseUnknownLanguage(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	_, err := manager.Parse([]byte("x"), LanguageUnknown, false)
	assert.Error(t, err)
}

func TestParseSyntaxErrorStillReturnsTree(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	tree, err := manager.Parse([]byte("import { from './broken\n"), LanguageJavaScript, false)
	require.NoError(t, err)
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}
