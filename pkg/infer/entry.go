package infer

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gnana997/exportfix/pkg/buildpattern"
	"github.com/gnana997/exportfix/pkg/exports"
	"github.com/gnana997/exportfix/pkg/fsprobe"
	"github.com/gnana997/exportfix/pkg/pathutil"
)

// Candidate extensions for resolving an import path against compiled
// output, in priority order. The empty extension probes the path verbatim.
var candidateExts = []string{"", ".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs"}

// EntryGenerator resolves one import path against a package directory into
// a single export entry. Resolution tries an ordered list of strategies and
// takes the first that produces an entry; the last strategy always does, so
// every usage path yields something — possibly an unverified guess.
type EntryGenerator struct {
	probes *fsprobe.Resolver
	source *SourceInferencer
	logger *slog.Logger
}

// NewEntryGenerator creates an EntryGenerator. A nil logger falls back to
// slog.Default().
func NewEntryGenerator(probes *fsprobe.Resolver, source *SourceInferencer, logger *slog.Logger) *EntryGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryGenerator{probes: probes, source: source, logger: logger}
}

type request struct {
	importPath string
	packageDir string
	pattern    buildpattern.Pattern
}

// Generate resolves importPath (package-relative) into an export entry.
// pattern is the package's detected dual-build convention; pass a none
// pattern to skip expansion.
func (g *EntryGenerator) Generate(importPath, packageDir string, pattern buildpattern.Pattern) exports.Entry {
	req := request{
		importPath: pathutil.Normalize(importPath),
		packageDir: packageDir,
		pattern:    pattern,
	}

	strategies := []func(request) (exports.Entry, bool){
		g.exactSearch,
		g.patternExpansion,
		g.sourceFallback,
		g.lastResort,
	}
	for _, strategy := range strategies {
		if entry, ok := strategy(req); ok {
			return entry
		}
	}
	// Unreachable: lastResort always succeeds.
	return exports.Entry{}
}

// PrewarmCandidates fans every on-disk candidate the resolution strategies
// will consult for the given import paths through the batch prober. The
// strategies themselves stay sequential; they just run against memoized
// stat results afterwards. Probe failures are ignored here; a cold path is
// simply re-probed inline.
func (g *EntryGenerator) PrewarmCandidates(ctx context.Context, importPaths []string, packageDir string, pattern buildpattern.Pattern) {
	seen := make(map[string]bool)
	var probes []string
	add := func(base string) {
		abs := filepath.Join(packageDir, pathutil.StripPrefix(pathutil.Normalize(base)))
		for _, ext := range candidateExts {
			if candidate := abs + ext; !seen[candidate] {
				seen[candidate] = true
				probes = append(probes, candidate)
			}
			if ext == "" {
				continue
			}
			if index := filepath.Join(abs, "index"+ext); !seen[index] {
				seen[index] = true
				probes = append(probes, index)
			}
		}
	}

	for _, importPath := range importPaths {
		normalized := pathutil.Normalize(importPath)
		for _, base := range g.exactCandidates(normalized) {
			add(base)
		}
		if cjsPath, esmPath, ok := pattern.Expand(normalized); ok {
			add(cjsPath)
			add(esmPath)
		}
	}

	if len(probes) == 0 {
		return
	}
	if _, err := g.probes.ExistsBatch(ctx, probes, fsprobe.DefaultBatchOptions()); err != nil {
		g.logger.Debug("candidate prewarm aborted", "error", err)
	}
}

// ExpandPattern runs only the pattern-expansion strategy. The assembler
// prefers it for usage-driven paths so a dual-build package gets an
// import/require pair even when the unmodified path also resolves.
func (g *EntryGenerator) ExpandPattern(importPath, packageDir string, pattern buildpattern.Pattern) (exports.Entry, bool) {
	return g.patternExpansion(request{
		importPath: pathutil.Normalize(importPath),
		packageDir: packageDir,
		pattern:    pattern,
	})
}

// exactSearch probes the import path directly, then re-rooted into each
// known build directory, across the candidate extensions and index files.
func (g *EntryGenerator) exactSearch(req request) (exports.Entry, bool) {
	for _, base := range g.exactCandidates(req.importPath) {
		resolved, ok := g.resolveWithExts(base, req.packageDir)
		if !ok {
			continue
		}
		return g.entryForResolved(resolved, req.packageDir), true
	}
	return exports.Entry{}, false
}

// exactCandidates lists the package-relative bases to probe: the path
// itself, then the path re-rooted into each other build directory (with a
// leading build dir replaced, not stacked).
func (g *EntryGenerator) exactCandidates(importPath string) []string {
	stripped := pathutil.StripPrefix(importPath)
	rest := stripped
	if first, remainder, found := strings.Cut(stripped, "/"); found {
		for _, buildDir := range buildDirs {
			if first == buildDir {
				rest = remainder
				break
			}
		}
	}

	candidates := []string{importPath}
	for _, buildDir := range buildDirs {
		candidate := "./" + buildDir + "/" + rest
		if candidate != importPath {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// entryForResolved builds the export entry for a file found on disk.
func (g *EntryGenerator) entryForResolved(resolved, packageDir string) exports.Entry {
	jsPath := compiledJSPath(resolved)

	b := exports.NewBuilder().
		Source(g.source.InferSource(resolved, packageDir)).
		Types(g.declarationSibling(resolved, packageDir)).
		Default(jsPath)

	// A TypeScript hit means the built JS does not exist yet; the import
	// condition signals where compilation will put it.
	if isTypeScript(resolved) {
		b.Import(jsPath)
	}
	return b.Build()
}

// patternExpansion rewrites the import path into its CJS-side and ESM-side
// candidates, probes all three variants (original included), and assembles
// import/require from whichever exist. Falls through when none resolve.
func (g *EntryGenerator) patternExpansion(req request) (exports.Entry, bool) {
	cjsPath, esmPath, ok := req.pattern.Expand(req.importPath)
	if !ok {
		return exports.Entry{}, false
	}

	originalResolved, originalOK := g.resolveWithExts(req.importPath, req.packageDir)
	cjsResolved, cjsOK := g.resolveWithExts(cjsPath, req.packageDir)
	esmResolved, esmOK := g.resolveWithExts(esmPath, req.packageDir)

	if !originalOK && !cjsOK && !esmOK {
		return exports.Entry{}, false
	}

	b := exports.NewBuilder()
	if esmOK {
		b.Import(esmResolved)
	}
	if cjsOK {
		b.Require(cjsResolved)
	}

	switch {
	case originalOK:
		b.Default(originalResolved)
	case esmOK:
		b.Default(esmResolved)
	default:
		b.Default(cjsResolved)
	}

	// Types and source resolve against the unmodified-original path.
	typesBase := req.importPath
	if originalOK {
		typesBase = originalResolved
	}
	b.Types(g.declarationSibling(typesBase, req.packageDir))
	b.Source(g.source.InferSource(typesBase, req.packageDir))

	return b.Build(), true
}

// sourceFallback handles packages that have not been built yet: when the
// source tree has the file, it predicts the entry the build will produce.
func (g *EntryGenerator) sourceFallback(req request) (exports.Entry, bool) {
	base := stripBuildDirPrefix(req.importPath)

	var sourcePath string
	direct := filepath.Join(req.packageDir, "src", base)
	if g.probes.Exists(direct + ".ts") {
		sourcePath = "./src/" + base + ".ts"
	} else if g.probes.Exists(filepath.Join(direct, "index.ts")) {
		sourcePath = "./src/" + base + "/index.ts"
	} else {
		return exports.Entry{}, false
	}

	predicted := "./lib/" + base
	return exports.NewBuilder().
		Source(sourcePath).
		Types(predicted + ".d.ts").
		Import(predicted + ".js").
		Default(predicted + ".js").
		Build(), true
}

// lastResort guesses a lib build output without verifying anything. The
// warning is informational; a wrong guess surfaces in the dry-run diff.
func (g *EntryGenerator) lastResort(req request) (exports.Entry, bool) {
	base := stripBuildDirPrefix(req.importPath)
	guessed := "./lib/" + base

	g.logger.Warn("could not find file for import path, guessing build output",
		"import_path", req.importPath,
		"guessed", guessed+".js")

	return exports.NewBuilder().
		Source(g.source.InferSource(guessed+".js", req.packageDir)).
		Types(guessed + ".d.ts").
		Default(guessed + ".js").
		Build(), true
}

// resolveWithExts probes base across the candidate extensions, then index
// files under a same-named directory. Returns the package-relative hit.
func (g *EntryGenerator) resolveWithExts(base, packageDir string) (string, bool) {
	abs := filepath.Join(packageDir, pathutil.StripPrefix(pathutil.Normalize(base)))
	if found, ok := g.probes.FindWithExtensions(abs, candidateExts); ok {
		return relativize(found, packageDir), true
	}
	if found, ok := g.probes.FindIndexFile(abs, candidateExts); ok {
		return relativize(found, packageDir), true
	}
	return "", false
}

// declarationSibling returns the .d.ts path next to a resolved file when it
// exists on disk.
func (g *EntryGenerator) declarationSibling(resolved, packageDir string) string {
	base := pathutil.StripExt(pathutil.Normalize(resolved))
	candidate := base + ".d.ts"
	if g.probes.Exists(filepath.Join(packageDir, pathutil.StripPrefix(candidate))) {
		return candidate
	}
	return ""
}

// compiledJSPath rewrites a TypeScript path to the JS file its build emits.
func compiledJSPath(resolved string) string {
	resolved = pathutil.Normalize(resolved)
	switch pathutil.Ext(resolved) {
	case ".ts", ".tsx":
		return pathutil.StripExt(resolved) + ".js"
	}
	return resolved
}

// isTypeScript is false for .d.ts files: pathutil.Ext reports them whole.
func isTypeScript(path string) bool {
	switch pathutil.Ext(path) {
	case ".ts", ".tsx":
		return true
	}
	return false
}
