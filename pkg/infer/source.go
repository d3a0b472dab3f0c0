// Package infer is the exports-map inference engine: given a package's
// on-disk layout and the import paths observed for it, it deduces the
// conditional export entries Node's resolver would need.
//
// Everything here is heuristic and best-effort. A lookup that finds
// nothing is a normal outcome ("omit this condition", "try the next
// strategy"), never an error.
package infer

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/gnana997/exportfix/pkg/fsprobe"
	"github.com/gnana997/exportfix/pkg/pathutil"
)

// Build-output directory names, in probe priority order, and the source
// directory each conventionally compiles from.
var buildDirs = []string{"lib", "dist", "build", "out"}

var buildDirToSourceDir = map[string]string{
	"lib":   "src",
	"dist":  "src",
	"build": "source",
	"out":   "src",
}

// Canonical source directory names tried when direct substitution fails.
var sourceDirs = []string{"src", "source"}

// Source extensions in fixed priority order: TypeScript is preferred over
// JavaScript when several candidates exist at the same base.
var sourceExts = []string{".ts", ".tsx", ".jsx", ".js"}

// SourceInferencer guesses the original source file behind a compiled
// output path. The guess populates the "source" export condition and is
// allowed to be unverifiable against a build artifact.
type SourceInferencer struct {
	probes *fsprobe.Resolver
}

// NewSourceInferencer creates a SourceInferencer over the given prober.
func NewSourceInferencer(probes *fsprobe.Resolver) *SourceInferencer {
	return &SourceInferencer{probes: probes}
}

// InferSource maps a compiled-output path (package-relative, e.g.
// "./lib/utils.js") to the most plausible source file. Returns "" — not an
// error — when nothing plausible exists; callers omit the source condition.
func (s *SourceInferencer) InferSource(targetOutputPath, packageDir string) string {
	target := pathutil.Normalize(targetOutputPath)

	// (a) Literal build-dir substitution on the target path.
	for buildDir, sourceDir := range substitutionsFor(target) {
		substituted := strings.Replace(target, "/"+buildDir+"/", "/"+sourceDir+"/", 1)
		if found := s.probeBase(pathutil.StripExt(substituted), packageDir); found != "" {
			return found
		}
	}

	// (b) Strip the build-dir prefix and retry against each canonical
	// source directory directly.
	rest := stripBuildDirPrefix(target)
	for _, sourceDir := range sourceDirs {
		if found := s.probeBase("./"+sourceDir+"/"+rest, packageDir); found != "" {
			return found
		}
	}
	return ""
}

// probeBase probes base+ext for each source extension, then index files
// inside a directory of that name. base is package-relative.
func (s *SourceInferencer) probeBase(base, packageDir string) string {
	abs := filepath.Join(packageDir, pathutil.StripPrefix(base))
	if found, ok := s.probes.FindWithExtensions(abs, sourceExts); ok {
		return relativize(found, packageDir)
	}
	if found, ok := s.probes.FindIndexFile(abs, sourceExts); ok {
		return relativize(found, packageDir)
	}
	return ""
}

// substitutionsFor returns the build-dir → source-dir substitutions that
// apply to the target path, keyed by the build dir present in it.
func substitutionsFor(target string) map[string]string {
	out := make(map[string]string, 1)
	for buildDir, sourceDir := range buildDirToSourceDir {
		if strings.Contains(target, "/"+buildDir+"/") {
			out[buildDir] = sourceDir
		}
	}
	return out
}

// stripBuildDirPrefix removes a leading known build directory and any
// extension: "./lib/utils.js" becomes "utils".
func stripBuildDirPrefix(target string) string {
	rest := pathutil.StripPrefix(pathutil.StripExt(target))
	first, remainder, found := strings.Cut(rest, "/")
	if !found {
		return rest
	}
	for _, buildDir := range buildDirs {
		if first == buildDir {
			return remainder
		}
	}
	return rest
}

// relativize converts an absolute probe hit back to a normalized
// package-relative path with forward slashes.
func relativize(absPath, packageDir string) string {
	rel, err := filepath.Rel(packageDir, absPath)
	if err != nil {
		return ""
	}
	return pathutil.Normalize(path.Clean(filepath.ToSlash(rel)))
}
