package infer

import (
	"log/slog"
	"path/filepath"

	"github.com/gnana997/exportfix/pkg/exports"
	"github.com/gnana997/exportfix/pkg/fsprobe"
	"github.com/gnana997/exportfix/pkg/moduletype"
	"github.com/gnana997/exportfix/pkg/pathutil"
	"github.com/gnana997/exportfix/pkg/pkgjson"
)

// fallbackRootEntry is emitted when a package.json carries no entry-point
// fields at all.
const fallbackRootEntry = "./lib/index.js"

// BaselineGenerator synthesizes the root (".") export entry and any
// browser-field-driven entries directly from package.json fields,
// independent of usage data.
type BaselineGenerator struct {
	probes   *fsprobe.Resolver
	source   *SourceInferencer
	detector *moduletype.Detector
	logger   *slog.Logger
}

// NewBaselineGenerator creates a BaselineGenerator.
func NewBaselineGenerator(probes *fsprobe.Resolver, source *SourceInferencer, detector *moduletype.Detector, logger *slog.Logger) *BaselineGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaselineGenerator{probes: probes, source: source, detector: detector, logger: logger}
}

// Generate builds the baseline exports map for a package. The map always
// has a "." entry; object-form browser mappings contribute additional
// per-subpath entries in their authored order.
func (bg *BaselineGenerator) Generate(desc *pkgjson.Descriptor, packageDir string) *exports.Map {
	m := exports.NewMap()

	if !desc.HasEntryFields() {
		m.Set(".", exports.PathEntry(fallbackRootEntry))
		return m
	}

	browser := pkgjson.ParseBrowserField(desc.Browser, desc.Main, desc.Module)

	root := exports.NewBuilder().
		Source(bg.rootSource(desc, packageDir)).
		Browser(browser.Root)

	if types := desc.TypesField(); types != "" {
		root.Types(pathutil.Normalize(types))
	}

	// The module field is always treated as ESM, unconditionally — even
	// when its extension would be ambiguous on its own.
	if desc.Module != "" {
		root.Import(pathutil.Normalize(desc.Module))
	}

	if desc.Main != "" {
		main := pathutil.Normalize(desc.Main)
		root.Default(main)

		kind := bg.detector.Detect(filepath.Join(packageDir, pathutil.StripPrefix(main)), packageDir)
		if kind != moduletype.KindESM {
			// CJS or unknown: unknown defaults to the safer require side.
			root.Require(main)
		}
	}

	if !root.Empty() {
		m.Set(".", root.Build())
	} else {
		m.Set(".", exports.PathEntry(fallbackRootEntry))
	}

	for _, mapping := range browser.Mappings {
		entry := exports.NewBuilder().
			Source(bg.source.InferSource(mapping.Key, packageDir)).
			Default(mapping.Key)
		if !mapping.Blocked {
			// Blocked subpaths still get an entry, just without the
			// browser key — the browser-blocked signal.
			entry.Browser(mapping.Value)
		}
		m.SetIfAbsent(mapping.Key, entry.Build())
	}

	return m
}

// rootSource resolves the root entry's source condition: the explicit
// source field when the file exists, else inference against main, else
// against module.
func (bg *BaselineGenerator) rootSource(desc *pkgjson.Descriptor, packageDir string) string {
	if desc.Source != "" {
		normalized := pathutil.Normalize(desc.Source)
		if bg.probes.Exists(filepath.Join(packageDir, pathutil.StripPrefix(normalized))) {
			return normalized
		}
	}
	if desc.Main != "" {
		if found := bg.source.InferSource(pathutil.Normalize(desc.Main), packageDir); found != "" {
			return found
		}
	}
	if desc.Module != "" {
		if found := bg.source.InferSource(pathutil.Normalize(desc.Module), packageDir); found != "" {
			return found
		}
	}
	return ""
}
