package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnana997/exportfix/pkg/fixer"
	"github.com/gnana997/exportfix/pkg/usage"
)

var (
	fixCwd    string
	fixDryRun bool
)

var fixCmd = &cobra.Command{
	Use:   "fix <usage-file> [package]",
	Short: "Write inferred exports maps into package.json files",
	Long: `Computes the exports map for every recorded package (or a single named
one) and rewrites package.json where it differs. Existing exports
entries are preserved; only missing ones are added. With --dry-run a
colored diff is printed instead of writing.`,
	Example: `  exportfix fix usage.json --dry-run
  exportfix fix usage.json design-system`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		dict, err := usage.Load(args[0], logger)
		if err != nil {
			return err
		}

		options := fixer.FixOptions{
			Root:   fixCwd,
			DryRun: fixDryRun,
			Out:    os.Stdout,
		}
		if len(args) == 2 {
			options.Package = args[1]
		}

		report, err := fixer.New(logger).Fix(cmd.Context(), dict, options)
		if err != nil {
			return err
		}

		if fixDryRun {
			fmt.Printf("%d of %d packages would be updated\n", report.Changed, report.Evaluated)
		} else {
			fmt.Printf("updated %d of %d packages\n", report.Written, report.Evaluated)
		}
		return nil
	},
}

func init() {
	fixCmd.Flags().StringVarP(&fixCwd, "cwd", "c", ".",
		"Directory searched for workspace packages")
	fixCmd.Flags().BoolVarP(&fixDryRun, "dry-run", "n", false,
		"Print diffs instead of writing package.json files")
}
