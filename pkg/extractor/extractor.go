// Package extractor pulls module specifiers out of JavaScript and
// TypeScript sources with tree-sitter queries: the raw material for usage
// records.
package extractor

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/exportfix/pkg/parser"
)

// ImportKind says which syntactic form produced a specifier.
type ImportKind int

const (
	// KindStatic is an import declaration: import x from "spec".
	KindStatic ImportKind = iota
	// KindReexport is an export-from declaration: export { x } from "spec".
	KindReexport
	// KindDynamic is a dynamic import call: import("spec").
	KindDynamic
	// KindRequire is a CommonJS call: require("spec").
	KindRequire
)

// String returns the kind name.
func (k ImportKind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindReexport:
		return "reexport"
	case KindDynamic:
		return "dynamic"
	case KindRequire:
		return "require"
	default:
		return "unknown"
	}
}

// Import is one extracted module specifier.
type Import struct {
	// Specifier is the literal module source, e.g. "react" or
	// "some-pkg/lib/utils". Relative specifiers are included too; the
	// scanner decides what it cares about.
	Specifier string

	Kind ImportKind
}

// importQuery matches every syntactic form that names a module. String
// literals only: template-literal and computed specifiers cannot feed an
// exports map and are ignored.
const importQuery = `
(import_statement
  source: (string (string_fragment) @import.static))

(export_statement
  source: (string (string_fragment) @import.reexport))

(call_expression
  function: (import)
  arguments: (arguments . (string (string_fragment) @import.dynamic)))

(call_expression
  function: (identifier) @_callee
  arguments: (arguments . (string (string_fragment) @import.require))
  (#eq? @_callee "require"))
`

var captureKinds = map[string]ImportKind{
	"import.static":   KindStatic,
	"import.reexport": KindReexport,
	"import.dynamic":  KindDynamic,
	"import.require":  KindRequire,
}

// Extractor compiles and caches the import query per grammar and runs it
// over parse trees. Safe for concurrent use.
type Extractor struct {
	parsers *parser.Manager
	logger  *slog.Logger

	mutex   sync.RWMutex
	queries map[queryKey]*ts.Query
}

type queryKey struct {
	lang  parser.Language
	isTSX bool
}

// New creates an Extractor over a parser manager.
func New(parsers *parser.Manager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		parsers: parsers,
		logger:  logger,
		queries: make(map[queryKey]*ts.Query),
	}
}

// ExtractImports parses source and returns its module specifiers in
// document order, deduplicated. Files with syntax errors still contribute
// whatever specifiers parsed cleanly.
func (e *Extractor) ExtractImports(source []byte, filePath string) ([]Import, error) {
	lang := parser.DetectLanguage(filePath)
	if lang == parser.LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	isTSX := parser.IsTSXFile(filePath)

	tree, err := e.parsers.Parse(source, lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	defer tree.Close()

	query, err := e.getQuery(lang, isTSX)
	if err != nil {
		return nil, err
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	captureNames := query.CaptureNames()
	matches := cursor.Matches(query, tree.RootNode(), source)

	var imports []Import
	seen := make(map[string]bool)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			name := ""
			if int(capture.Index) < len(captureNames) {
				name = captureNames[capture.Index]
			}
			kind, ok := captureKinds[name]
			if !ok {
				continue
			}
			specifier := capture.Node.Utf8Text(source)
			if specifier == "" || seen[specifier] {
				continue
			}
			seen[specifier] = true
			imports = append(imports, Import{Specifier: specifier, Kind: kind})
		}
	}
	return imports, nil
}

// Close frees the compiled queries. The parser manager is owned by the
// caller and is not closed here.
func (e *Extractor) Close() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	for _, q := range e.queries {
		q.Close()
	}
	e.queries = make(map[queryKey]*ts.Query)
}

func (e *Extractor) getQuery(lang parser.Language, isTSX bool) (*ts.Query, error) {
	key := queryKey{lang: lang, isTSX: isTSX}

	e.mutex.RLock()
	query, exists := e.queries[key]
	e.mutex.RUnlock()
	if exists {
		return query, nil
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if query, exists = e.queries[key]; exists {
		return query, nil
	}

	langPtr, err := e.parsers.LanguagePointer(lang, isTSX)
	if err != nil {
		return nil, err
	}
	query, qerr := ts.NewQuery(ts.NewLanguage(langPtr), importQuery)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile import query for %s: %s", lang, qerr.Message)
	}
	e.queries[key] = query
	return query, nil
}
