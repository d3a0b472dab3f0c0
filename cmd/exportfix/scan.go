package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/exportfix/pkg/scanner"
	"github.com/gnana997/exportfix/pkg/usage"
)

var (
	scanCwd      string
	scanOut      string
	scanWatch    bool
	scanPackages []string
	scanExclude  []string
	scanWorkers  int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a codebase for workspace package imports",
	Long: `Walks the source tree, extracts import specifiers from JavaScript and
TypeScript files, and records per-package import paths in the usage
dictionary. An existing dictionary is merged additively, never pruned.`,
	Example: "  exportfix scan --cwd ./apps/web --out usage.json --packages design-system",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		dict := usage.NewDictionary(logger)
		if _, err := os.Stat(scanOut); err == nil {
			existing, err := usage.Load(scanOut, logger)
			if err != nil {
				return err
			}
			dict = existing
		}

		s := scanner.New(logger)
		defer s.Close()

		options := scanner.DefaultOptions()
		if len(scanExclude) > 0 {
			options.Exclude = scanExclude
		}
		options.Packages = scanPackages
		options.Workers = scanWorkers

		fresh, stats, err := s.Scan(cmd.Context(), scanCwd, options)
		if err != nil {
			return err
		}
		dict.Merge(fresh)

		if err := dict.Save(scanOut); err != nil {
			return err
		}
		fmt.Printf("scanned %d files in %s: %d packages recorded, %d files failed\n",
			stats.FilesScanned, stats.Duration.Round(time.Millisecond), dict.Len(), stats.FilesFailed)

		if !scanWatch {
			return nil
		}
		return watchAndSave(cmd.Context(), s, dict, options, logger)
	},
}

// watchAndSave keeps the dictionary on disk current until interrupted.
func watchAndSave(ctx context.Context, s *scanner.Scanner, dict *usage.Dictionary, options scanner.Options, logger *slog.Logger) error {
	w, err := scanner.NewWatcher(s, dict, scanner.WatchOptions{Scan: options},
		func(added int) {
			if err := dict.Save(scanOut); err != nil {
				logger.Warn("failed to save usage dictionary", "path", scanOut, "error", err)
				return
			}
			logger.Info("usage dictionary updated", "new_paths", added, "path", scanOut)
		}, logger)
	if err != nil {
		return err
	}
	if err := w.Start(scanCwd); err != nil {
		return err
	}
	defer w.Stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case <-sigs:
	}
	return nil
}

func init() {
	scanCmd.Flags().StringVarP(&scanCwd, "cwd", "c", ".",
		"Directory to scan for imports")
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "usage.json",
		"Usage dictionary file to create or merge into")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false,
		"Keep watching for file changes after the initial scan")
	scanCmd.Flags().StringSliceVarP(&scanPackages, "packages", "p", []string{},
		"Only record imports of these packages (default: all)")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", []string{},
		"Glob patterns to exclude from scanning (default: node_modules, dist, build, .git)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0,
		"Number of parser workers (default: sized to CPU count)")
}
