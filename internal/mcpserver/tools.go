package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/deadwood-io/deadwood/internal/output"
	"github.com/deadwood-io/deadwood/internal/service"
	"github.com/deadwood-io/deadwood/pkg/config"
	"github.com/deadwood-io/deadwood/pkg/models"
)

// ToolInput is the base input shared by every tool.
type ToolInput struct {
	Root   string `json:"root,omitempty" jsonschema:"Workspace root to operate on. Defaults to the current directory."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ScanInput configures the scan_workspace tool.
type ScanInput struct {
	ToolInput
	Entries              []string `json:"entries,omitempty" jsonschema:"Explicit entry points, workspace-relative. When set, manifest and convention discovery are skipped."`
	AssetRoots           []string `json:"asset_roots,omitempty" jsonschema:"Directory prefixes that bound asset usage accounting. Empty means the whole workspace."`
	IncludeNonProdDeps   bool     `json:"include_non_prod_deps,omitempty" jsonschema:"Also check dev, peer, and optional dependencies."`
	IncludeLowConfidence bool     `json:"include_low_confidence,omitempty" jsonschema:"Keep low-confidence findings in the report instead of only counting them."`
	MaxFileSize          int64    `json:"max_file_size,omitempty" jsonschema:"Skip source files larger than this many bytes. 0 means no limit."`
}

// TrashSessionsInput configures the list_trash_sessions tool.
type TrashSessionsInput struct {
	ToolInput
}

// Helper functions

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

func getFormat(input ToolInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func handleScanWorkspace(ctx context.Context, req *mcp.CallToolRequest, input ScanInput) (*mcp.CallToolResult, any, error) {
	root, err := resolveRoot(input.Root)
	if err != nil {
		return toolError(err.Error())
	}

	svc := service.New(service.WithConfig(config.LoadOrDefault(root)))
	report, err := svc.Scan(ctx, root, service.ScanOptions{
		Entries:              input.Entries,
		AssetRoots:           input.AssetRoots,
		IncludeNonProdDeps:   input.IncludeNonProdDeps,
		IncludeLowConfidence: input.IncludeLowConfidence,
		MaxFileSize:          input.MaxFileSize,
	})
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(report, getFormat(input.ToolInput))
}

func handleListTrashSessions(ctx context.Context, req *mcp.CallToolRequest, input TrashSessionsInput) (*mcp.CallToolResult, any, error) {
	root, err := resolveRoot(input.Root)
	if err != nil {
		return toolError(err.Error())
	}

	svc := service.New(service.WithConfig(config.LoadOrDefault(root)))
	sessions, err := svc.TrashSessions(root)
	if err != nil {
		return toolError(err.Error())
	}
	if sessions == nil {
		sessions = []models.TrashSession{}
	}

	out := struct {
		Sessions []models.TrashSession `json:"sessions" toon:"sessions"`
		Total    int                   `json:"total" toon:"total"`
	}{sessions, len(sessions)}

	return toolResult(out, getFormat(input.ToolInput))
}
