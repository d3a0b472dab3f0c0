package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gnana997/exportfix/pkg/mcp"
	"github.com/gnana997/exportfix/pkg/mcplog"
	"github.com/gnana997/exportfix/pkg/usage"
)

var (
	serveCwd string
	serveLog string
)

var serveCmd = &cobra.Command{
	Use:   "serve <usage-file>",
	Short: "Start the MCP server on stdin/stdout",
	Long: `Serves the usage dictionary and exports inference over the Model
Context Protocol so editor agents can evaluate packages without
writing anything.`,
	Example: "  exportfix serve usage.json --log ~/.exportfix/mcp.jsonl",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		dict, err := usage.Load(args[0], logger)
		if err != nil {
			return err
		}

		toolLog, err := mcplog.NewLogger(serveLog)
		if err != nil {
			return err
		}
		if toolLog != nil {
			defer toolLog.Close()
		}

		logger.Info("starting MCP server on stdio", "packages", dict.Len(), "root", serveCwd)
		return mcp.NewServer(dict, serveCwd, toolLog, logger).ServeStdio()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveCwd, "cwd", "c", ".",
		"Directory searched for workspace packages")
	serveCmd.Flags().StringVar(&serveLog, "log", "",
		"JSONL file recording every tool call (disabled when empty)")
}
