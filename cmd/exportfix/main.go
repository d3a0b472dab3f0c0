// Command exportfix infers and maintains the exports field of workspace
// package.json files from observed import usage.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnana997/exportfix/pkg/util"
)

const version = "0.1.0-dev"

var (
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "exportfix",
		Short: "Infer package.json exports maps from observed import usage",
		Long: `exportfix scans a consuming codebase for imports of workspace packages,
records them in a usage dictionary, and infers the exports map each
package should carry. Inferred maps preserve existing exports entries
and only ever add new ones.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.SetDefault(util.NewLogger(util.LoggerConfig{
				Level:  util.LogLevel(logLevel),
				Format: util.LogFormat(logFormat),
				Output: os.Stderr,
			}))
		},
	}
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the exportfix version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("exportfix %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format: text, json")

	rootCmd.AddCommand(scanCmd, evaluateCmd, fixCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
