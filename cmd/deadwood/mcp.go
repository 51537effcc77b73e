package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/deadwood-io/deadwood/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes workspace
analysis as tools LLMs can invoke. The tools only read; moving files to
the trash stays behind the interactive clean command.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "deadwood": {
        "command": "deadwood",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - scan_workspace        Unused files, assets, dependencies, and exports
  - list_trash_sessions   Restorable deletion sessions in the trash`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Print the MCP registry manifest and exit",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	if c.Bool("manifest") {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	server := mcpserver.NewServer(version)
	return server.Run(c.Context)
}
