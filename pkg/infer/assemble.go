package infer

import (
	"context"
	"log/slog"
	"sort"

	"github.com/gnana997/exportfix/pkg/buildpattern"
	"github.com/gnana997/exportfix/pkg/exports"
	"github.com/gnana997/exportfix/pkg/fsprobe"
	"github.com/gnana997/exportfix/pkg/moduletype"
	"github.com/gnana997/exportfix/pkg/pathutil"
	"github.com/gnana997/exportfix/pkg/pkgjson"
)

// Assembler merges baseline entries with usage-driven entries into the
// final exports map. Existing entries — whether hand-authored in
// package.json or produced by the baseline — are never overwritten or
// removed: assembly is additive only.
type Assembler struct {
	baseline *BaselineGenerator
	entries  *EntryGenerator
	logger   *slog.Logger
}

// NewAssembler wires an Assembler from its two generators.
func NewAssembler(baseline *BaselineGenerator, entries *EntryGenerator, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{baseline: baseline, entries: entries, logger: logger}
}

// NewDefaultAssembler builds an Assembler with the standard component
// stack over a shared file prober.
func NewDefaultAssembler(probes *fsprobe.Resolver, logger *slog.Logger) *Assembler {
	source := NewSourceInferencer(probes)
	detector := moduletype.NewDetector(logger)
	return NewAssembler(
		NewBaselineGenerator(probes, source, detector, logger),
		NewEntryGenerator(probes, source, logger),
		logger,
	)
}

// Assemble computes the exports map for one package. A pre-existing
// exports field in package.json is respected verbatim as the starting
// point (hand-authored maps are not regenerated); otherwise the baseline
// is synthesized from the entry-point fields. Usage paths are processed in
// sorted order for reproducible output.
func (a *Assembler) Assemble(ctx context.Context, desc *pkgjson.Descriptor, packageDir string, importPaths []string) *exports.Map {
	var m *exports.Map
	if desc.Exports != nil {
		m = desc.Exports.Clone()
	} else {
		m = a.baseline.Generate(desc, packageDir)
	}

	pattern := buildpattern.Detect(desc.Main, desc.Module)

	sorted := append([]string(nil), importPaths...)
	sort.Strings(sorted)

	a.entries.PrewarmCandidates(ctx, sorted, packageDir, pattern)

	for _, importPath := range sorted {
		key := pathutil.Normalize(importPath)
		if key == "." && m.Has(".") {
			continue
		}
		if m.Has(key) {
			a.logger.Debug("export entry already present, skipping", "path", key)
			continue
		}

		entry, ok := a.entries.ExpandPattern(key, packageDir, pattern)
		if !ok {
			entry = a.entries.Generate(key, packageDir, pattern)
		}
		if entry.IsZero() {
			continue
		}
		m.Set(key, entry)
	}

	return m
}
