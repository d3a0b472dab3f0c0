package mcp

import "github.com/mark3labs/mcp-go/mcp"

func evaluatePackageTool() mcp.Tool {
	return mcp.NewTool("evaluate_package",
		mcp.WithDescription("Compute the exports map a workspace package should carry, based on its recorded usage, and report whether its package.json needs updating. Nothing is written."),
		mcp.WithString("package",
			mcp.Required(),
			mcp.Description("Package name present in the usage dictionary."),
		),
	)
}

func inferExportsTool() mcp.Tool {
	return mcp.NewTool("infer_exports",
		mcp.WithDescription("Infer an exports map for a package directory from an explicit list of import paths, without consulting the usage dictionary."),
		mcp.WithString("package_dir",
			mcp.Required(),
			mcp.Description("Directory containing the package.json to infer exports for."),
		),
		mcp.WithArray("import_paths",
			mcp.Required(),
			mcp.Description("Package-relative import paths, each \".\" or \"./\"-prefixed."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

func getUsageTool() mcp.Tool {
	return mcp.NewTool("get_usage",
		mcp.WithDescription("Return recorded import evidence: one package's usage record, or the whole dictionary when no package is named."),
		mcp.WithString("package",
			mcp.Description("Package name to look up. Omit to return every record."),
		),
	)
}
