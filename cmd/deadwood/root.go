package main

import (
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "deadwood",
		Usage:   "Find and safely remove unused code in JS/TS workspaces",
		Version: version,
		Description: `Deadwood analyzes JavaScript and TypeScript workspaces for files,
assets, dependencies, and exports that no entry point reaches, and can
move dead files into a reversible per-session trash area.

Supports: JavaScript, TypeScript, JSX/TSX, and static assets.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"DEADWOOD_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			scanCmd(),
			cleanCmd(),
			restoreCmd(),
			trashCmd(),
			initCmd(),
			mcpCmd(),
		},
	}
}
