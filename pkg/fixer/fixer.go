// Package fixer orchestrates the evaluate and fix operations: it joins
// usage evidence with discovered packages, runs the exports assembler,
// and writes (or previews) the resulting package.json changes.
package fixer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gnana997/exportfix/pkg/discovery"
	"github.com/gnana997/exportfix/pkg/exports"
	"github.com/gnana997/exportfix/pkg/fsprobe"
	"github.com/gnana997/exportfix/pkg/infer"
	"github.com/gnana997/exportfix/pkg/pkgjson"
	"github.com/gnana997/exportfix/pkg/usage"
)

// Evaluation is the computed state of one package.
type Evaluation struct {
	Package string
	Dir     string

	// HasExports reports whether package.json already carries an exports
	// field.
	HasExports bool

	// NeedsUpdate is true when the computed map differs from the current
	// exports value (or none exists).
	NeedsUpdate bool

	Current  *exports.Map
	Computed *exports.Map
}

// EvaluateOptions configures Evaluate.
type EvaluateOptions struct {
	// Root is the directory searched for packages.
	Root string

	// PrivateOnly restricts evaluation to private packages.
	PrivateOnly bool
}

// FixOptions configures Fix.
type FixOptions struct {
	// Root is the directory searched for packages.
	Root string

	// Package limits the fix to one package name. For a named package a
	// missing or unreadable package.json is a hard error; otherwise such
	// packages are skipped with a warning.
	Package string

	// DryRun prints diffs instead of writing.
	DryRun bool

	// Out receives dry-run diffs and progress lines. Defaults to
	// os.Stdout.
	Out io.Writer
}

// FixReport summarizes a fix run.
type FixReport struct {
	Evaluated int
	Changed   int
	Written   int
}

// Fixer wires discovery, inference and writing together. One Fixer is
// reusable across commands; the probe cache persists between calls.
type Fixer struct {
	assembler *infer.Assembler
	probes    *fsprobe.Resolver
	logger    *slog.Logger
}

// New creates a Fixer.
func New(logger *slog.Logger) *Fixer {
	if logger == nil {
		logger = slog.Default()
	}
	probes := fsprobe.NewResolver(0, logger)
	return &Fixer{
		assembler: infer.NewDefaultAssembler(probes, logger),
		probes:    probes,
		logger:    logger,
	}
}

// Evaluate computes the exports map for every usage-dictionary package
// found under options.Root and reports which ones need updating. Nothing
// is written. Packages that cannot be found or parsed are skipped with a
// warning.
func (f *Fixer) Evaluate(ctx context.Context, dict *usage.Dictionary, options EvaluateOptions) ([]Evaluation, error) {
	index, err := f.discoverIndex(options.Root)
	if err != nil {
		return nil, err
	}

	var evaluations []Evaluation
	for _, name := range dict.Packages() {
		record, _ := dict.Get(name)

		pkg, found := index[name]
		if !found {
			f.logger.Warn("package not found in repository, skipping", "package", name)
			continue
		}
		if options.PrivateOnly && !pkg.Private {
			f.logger.Debug("skipping non-private package", "package", name)
			continue
		}

		desc, err := pkgjson.Load(pkg.PackageJSONPath)
		if err != nil {
			f.logger.Warn("skipping package with unreadable package.json",
				"package", name, "error", err)
			continue
		}

		evaluations = append(evaluations, f.evaluateOne(ctx, desc, pkg, record))
	}
	return evaluations, nil
}

// Fix computes and writes exports maps. A package is written only when
// the computed map differs from the existing exports value; with DryRun
// the diff is printed instead.
func (f *Fixer) Fix(ctx context.Context, dict *usage.Dictionary, options FixOptions) (*FixReport, error) {
	out := options.Out
	if out == nil {
		out = os.Stdout
	}

	index, err := f.discoverIndex(options.Root)
	if err != nil {
		return nil, err
	}

	names := dict.Packages()
	if options.Package != "" {
		if _, ok := dict.Get(options.Package); !ok {
			return nil, fmt.Errorf("package %q has no usage records", options.Package)
		}
		names = []string{options.Package}
	}

	report := &FixReport{}
	for _, name := range names {
		record, _ := dict.Get(name)

		pkg, found := index[name]
		if !found {
			if options.Package != "" {
				return nil, fmt.Errorf("package %q not found under %s", name, options.Root)
			}
			f.logger.Warn("package not found in repository, skipping", "package", name)
			continue
		}

		desc, err := pkgjson.Load(pkg.PackageJSONPath)
		if err != nil {
			if options.Package != "" {
				return nil, fmt.Errorf("failed to load package.json for %q: %w", name, err)
			}
			f.logger.Warn("skipping package with unreadable package.json",
				"package", name, "error", err)
			continue
		}

		eval := f.evaluateOne(ctx, desc, pkg, record)
		report.Evaluated++
		if !eval.NeedsUpdate {
			f.logger.Debug("exports already up to date", "package", name)
			continue
		}
		report.Changed++

		if options.DryRun {
			renderDiff(out, eval)
			continue
		}

		if err := pkgjson.WriteExports(pkg.PackageJSONPath, eval.Computed); err != nil {
			if options.Package != "" {
				return nil, fmt.Errorf("failed to write package.json for %q: %w", name, err)
			}
			f.logger.Warn("failed to write package.json", "package", name, "error", err)
			continue
		}
		report.Written++
		fmt.Fprintf(out, "updated %s (%s)\n", name, pkg.PackageJSONPath)
	}
	return report, nil
}

func (f *Fixer) evaluateOne(ctx context.Context, desc *pkgjson.Descriptor, pkg discovery.Package, record *usage.Record) Evaluation {
	computed := f.assembler.Assemble(ctx, desc, pkg.Dir, record.ImportPaths)

	eval := Evaluation{
		Package:    pkg.Name,
		Dir:        pkg.Dir,
		HasExports: desc.Exports != nil,
		Current:    desc.Exports,
		Computed:   computed,
	}
	eval.NeedsUpdate = desc.Exports == nil || !computed.Equal(desc.Exports)
	return eval
}

func (f *Fixer) discoverIndex(root string) (map[string]discovery.Package, error) {
	if root == "" {
		root = "."
	}
	packages, err := discovery.Discover(root, discovery.DefaultOptions(), f.logger)
	if err != nil {
		return nil, fmt.Errorf("package discovery failed: %w", err)
	}
	return discovery.ByName(packages, f.logger), nil
}
