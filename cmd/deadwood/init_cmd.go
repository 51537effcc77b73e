package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/deadwood-io/deadwood/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a deadwood configuration file",
		Description: `Creates a configuration file with the default settings. The format
follows the file extension: .toml (default), .yaml/.yml, or .json.

Examples:
  deadwood init                           # Creates deadwood.toml
  deadwood init -o deadwood.yaml          # YAML instead of TOML
  deadwood init -o .deadwood/deadwood.toml
  deadwood init --force                   # Overwrite an existing file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "deadwood.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	outputPath := c.String("output")
	force := c.Bool("force")

	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := renderDefaultConfig(outputPath)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", outputPath)
	fmt.Println("Edit this file to customize analysis settings.")
	return nil
}

// renderDefaultConfig serializes the defaults in the format implied by
// the output path's extension.
func renderDefaultConfig(path string) ([]byte, error) {
	cfg := config.DefaultConfig()
	header := "# deadwood configuration\n# Documentation: https://github.com/deadwood-io/deadwood\n\n"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		content, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		return append([]byte(header), content...), nil

	case ".json":
		content, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		return append(content, '\n'), nil

	default:
		content, err := toml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		return append([]byte(header), content...), nil
	}
}
