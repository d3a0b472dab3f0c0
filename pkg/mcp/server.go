// Package mcp exposes the exports-inference engine over the Model
// Context Protocol so that editor agents can query usage evidence and
// preview computed exports maps without touching package.json.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/exportfix/pkg/fixer"
	"github.com/gnana997/exportfix/pkg/fsprobe"
	"github.com/gnana997/exportfix/pkg/infer"
	"github.com/gnana997/exportfix/pkg/mcplog"
	"github.com/gnana997/exportfix/pkg/usage"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server, exposing the usage dictionary and
// exports inference as tools.
type Server struct {
	mcpServer *server.MCPServer
	dict      *usage.Dictionary
	fixer     *fixer.Fixer
	assembler *infer.Assembler
	root      string
	logger    *mcplog.Logger // nil disables tool-call logging
	slogger   *slog.Logger
}

// NewServer creates an MCP server backed by the given usage dictionary.
// root is the directory searched for workspace packages; it defaults to
// the current directory. logger may be nil to disable JSONL tool-call
// logging.
func NewServer(dict *usage.Dictionary, root string, logger *mcplog.Logger, slogger *slog.Logger) *Server {
	if slogger == nil {
		slogger = slog.Default()
	}
	if root == "" {
		root = "."
	}

	s := &Server{
		dict:      dict,
		fixer:     fixer.New(slogger),
		assembler: infer.NewDefaultAssembler(fsprobe.NewResolver(0, slogger), slogger),
		root:      root,
		logger:    logger,
		slogger:   slogger,
	}

	options := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		options = append(options, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("exportfix", serverVersion, options...)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: evaluatePackageTool(), Handler: s.handleEvaluatePackage},
		server.ServerTool{Tool: inferExportsTool(), Handler: s.handleInferExports},
		server.ServerTool{Tool: getUsageTool(), Handler: s.handleGetUsage},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
