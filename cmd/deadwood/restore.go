package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/deadwood-io/deadwood/internal/service"
	"github.com/deadwood-io/deadwood/internal/trash"
)

func restoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Restore trashed files back into the workspace",
		ArgsUsage: "[path] [pattern]",
		Description: `Restores files from the session trash to their original locations.
With no flags, the positional pattern is matched against trashed paths:
plain text matches as a substring, * and ? act as wildcards, and re: or
/.../  forms match as a regular expression.

Examples:
  deadwood restore --last                       # Undo the most recent batch
  deadwood restore --session batch-1725000000000
  deadwood restore --all                        # Restore everything
  deadwood restore 'src/legacy/*'               # Restore by pattern
  deadwood restore ../app img/logo.png          # Explicit root and pattern`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "last",
				Usage: "Restore the most recent deletion session",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Restore a specific session by id",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Restore every trashed file",
			},
		},
		Action: runRestoreCmd,
	}
}

func runRestoreCmd(c *cli.Context) error {
	root, pattern, err := restoreArgs(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}

	tr := service.New(service.WithConfig(cfg)).Trash(root)

	var result trash.BatchResult
	switch {
	case c.Bool("last"):
		result, err = tr.RestorePrevious()
	case c.String("session") != "":
		result, err = tr.RestoreSession(c.String("session"))
	case c.Bool("all"):
		result, err = tr.RestoreAll()
	case pattern != "":
		result, err = tr.RestorePattern(pattern)
	default:
		return fmt.Errorf("specify --last, --session, --all, or a pattern to restore")
	}

	switch {
	case errors.Is(err, trash.ErrEmpty):
		color.Yellow("Trash is empty")
		return nil
	case errors.Is(err, trash.ErrNoMatch):
		if pattern != "" {
			color.Yellow("No trashed files match %q", pattern)
		} else {
			color.Yellow("No such session in trash")
		}
		return nil
	case err != nil:
		return err
	}

	printOutcomes(result)
	return nil
}

// restoreArgs splits positionals into workspace root and pattern. A single
// argument that is not an existing directory is treated as a pattern
// against the current directory's trash.
func restoreArgs(c *cli.Context) (string, string, error) {
	args := c.Args().Slice()
	root := "."
	pattern := ""

	switch len(args) {
	case 0:
	case 1:
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			root = args[0]
		} else {
			pattern = args[0]
		}
	default:
		root = args[0]
		pattern = args[1]
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", "", fmt.Errorf("invalid path %s: %w", root, err)
	}
	return abs, pattern, nil
}

// printOutcomes reports per-file restore results.
func printOutcomes(result trash.BatchResult) {
	for _, o := range result.Outcomes {
		if o.OK {
			fmt.Printf("  restored %s\n", o.Path)
		} else {
			color.Red("  failed   %s (%s)", o.Path, o.Detail)
		}
	}

	if failed := result.Failed(); failed > 0 {
		color.Yellow("Restored %d file(s), %d failed", result.Succeeded(), failed)
	} else {
		color.Green("Restored %d file(s)", result.Succeeded())
	}
}
