package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/exportfix/pkg/exports"
	"github.com/gnana997/exportfix/pkg/fixer"
	"github.com/gnana997/exportfix/pkg/pkgjson"
	"github.com/gnana997/exportfix/pkg/usage"
)

// evaluationResult is the JSON payload returned by evaluate_package.
type evaluationResult struct {
	Package     string       `json:"package"`
	Dir         string       `json:"dir"`
	HasExports  bool         `json:"hasExports"`
	NeedsUpdate bool         `json:"needsUpdate"`
	Current     *exports.Map `json:"current,omitempty"`
	Computed    *exports.Map `json:"computed"`
}

func (s *Server) handleEvaluatePackage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	name, ok := args["package"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("package is required and must be a string"), nil
	}

	record, ok := s.dict.Get(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("package %q has no usage records", name)), nil
	}

	// Evaluate just this record; the fixer handles discovery and inference.
	sub := usage.NewDictionary(s.slogger)
	sub.Add(record.Package, record.VersionRequirement, record.ImportPaths...)

	evaluations, err := s.fixer.Evaluate(ctx, sub, fixer.EvaluateOptions{Root: s.root})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(evaluations) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("package %q not found under %s", name, s.root)), nil
	}

	eval := evaluations[0]
	return marshalResult(evaluationResult{
		Package:     eval.Package,
		Dir:         eval.Dir,
		HasExports:  eval.HasExports,
		NeedsUpdate: eval.NeedsUpdate,
		Current:     eval.Current,
		Computed:    eval.Computed,
	})
}

func (s *Server) handleInferExports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	dir, ok := args["package_dir"].(string)
	if !ok || dir == "" {
		return mcp.NewToolResultError("package_dir is required and must be a string"), nil
	}

	rawPaths, ok := args["import_paths"].([]any)
	if !ok || len(rawPaths) == 0 {
		return mcp.NewToolResultError("import_paths is required and must be a non-empty array of strings"), nil
	}
	importPaths := make([]string, 0, len(rawPaths))
	for _, raw := range rawPaths {
		p, ok := raw.(string)
		if !ok {
			return mcp.NewToolResultError("import_paths must contain only strings"), nil
		}
		importPaths = append(importPaths, p)
	}

	desc, err := pkgjson.Load(filepath.Join(dir, "package.json"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load package.json: %v", err)), nil
	}

	computed := s.assembler.Assemble(ctx, desc, dir, importPaths)
	return marshalResult(computed)
}

func (s *Server) handleGetUsage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	if name, ok := args["package"].(string); ok && name != "" {
		record, found := s.dict.Get(name)
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("package %q has no usage records", name)), nil
		}
		return marshalResult(record)
	}

	return marshalResult(s.dict)
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
