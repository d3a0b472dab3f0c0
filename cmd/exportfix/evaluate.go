package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gnana997/exportfix/pkg/fixer"
	"github.com/gnana997/exportfix/pkg/usage"
)

var (
	evaluateCwd         string
	evaluateMainRepo    string
	evaluatePrivateOnly bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <usage-file>",
	Short: "Report which packages need an exports map update",
	Long: `Computes the exports map every recorded package should carry and lists
each package's state without writing anything. Packages missing from
the repository are skipped with a warning.`,
	Example: "  exportfix evaluate usage.json --main-repo ../monorepo --private-only",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		dict, err := usage.Load(args[0], logger)
		if err != nil {
			return err
		}

		// Packages live in the main repo; usage may have been scanned
		// elsewhere.
		root := evaluateMainRepo
		if root == "" {
			root = evaluateCwd
		}

		evaluations, err := fixer.New(logger).Evaluate(cmd.Context(), dict, fixer.EvaluateOptions{
			Root:        root,
			PrivateOnly: evaluatePrivateOnly,
		})
		if err != nil {
			return err
		}

		needsUpdate := 0
		for _, eval := range evaluations {
			status := "up to date"
			switch {
			case !eval.HasExports:
				status = "missing exports"
			case eval.NeedsUpdate:
				status = "needs update"
			}
			if eval.NeedsUpdate {
				needsUpdate++
			}
			fmt.Printf("%-16s %s (%s)\n", status, eval.Package, eval.Dir)
		}
		fmt.Printf("\n%d of %d packages need an exports update\n", needsUpdate, len(evaluations))
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateCwd, "cwd", "c", ".",
		"Directory searched for workspace packages")
	evaluateCmd.Flags().StringVar(&evaluateMainRepo, "main-repo", "",
		"Repository to search for packages instead of --cwd")
	evaluateCmd.Flags().BoolVar(&evaluatePrivateOnly, "private-only", false,
		"Only evaluate packages marked private in package.json")
}
