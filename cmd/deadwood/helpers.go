package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/deadwood-io/deadwood/internal/output"
	"github.com/deadwood-io/deadwood/internal/service"
	"github.com/deadwood-io/deadwood/pkg/config"
	"github.com/deadwood-io/deadwood/pkg/models"
)

// getRoot returns the workspace root from the first positional argument,
// defaulting to the current directory.
func getRoot(c *cli.Context) (string, error) {
	root := "."
	if c.Args().Len() > 0 {
		root = c.Args().First()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", root, err)
	}
	return abs, nil
}

// loadConfig resolves configuration for root, honoring the global
// --config flag and the global output overrides.
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault(root)
	}

	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// analysisFlags are the analysis controls shared by scan and clean.
func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "entry",
			Usage: "Explicit entry point, workspace-relative (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "asset-roots",
			Usage: "Only count asset usage under these directories",
		},
		&cli.BoolFlag{
			Name:  "include-non-prod-deps",
			Usage: "Also check dev, peer, and optional dependencies",
		},
		&cli.BoolFlag{
			Name:  "include-low-confidence",
			Usage: "Keep low-confidence findings in the report",
		},
		&cli.Int64Flag{
			Name:  "max-file-size",
			Usage: "Skip source files larger than this many bytes (0 = no limit)",
		},
	}
}

// scanOptions maps the shared analysis flags onto service options.
func scanOptions(c *cli.Context, showProgress bool) service.ScanOptions {
	return service.ScanOptions{
		Entries:              c.StringSlice("entry"),
		AssetRoots:           c.StringSlice("asset-roots"),
		IncludeNonProdDeps:   c.Bool("include-non-prod-deps"),
		IncludeLowConfidence: c.Bool("include-low-confidence"),
		MaxFileSize:          c.Int64("max-file-size"),
		ShowProgress:         showProgress,
	}
}

// renderReport writes the report in the requested format, falling back to
// the configured default format.
func renderReport(c *cli.Context, cfg *config.Config, report *models.Report) error {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}

	formatter, err := output.NewFormatter(output.ParseFormat(format), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.NewScanReport(report))
}
