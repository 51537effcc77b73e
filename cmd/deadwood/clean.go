package main

import (
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/deadwood-io/deadwood/internal/dashboard"
	"github.com/deadwood-io/deadwood/internal/service"
	"github.com/deadwood-io/deadwood/internal/vcs"
)

func cleanCmd() *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "Review findings interactively and move dead files to the trash",
		ArgsUsage: "[path]",
		Description: `Runs the same analysis as scan, then opens an interactive dashboard to
select files and assets for deletion. Deleted files move into the
session trash under the workspace root and can be restored at any time
with the restore command.`,
		Flags:  analysisFlags(),
		Action: runCleanCmd,
	}
}

func runCleanCmd(c *cli.Context) error {
	root, err := getRoot(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}

	svc := service.New(service.WithConfig(cfg))

	report, err := svc.Scan(c.Context, root, scanOptions(c, true))
	if err != nil {
		return err
	}

	tr := svc.Trash(root)
	trashed, _ := tr.TrashedEntries()
	if report.TotalFindings() == 0 && len(trashed) == 0 {
		color.Green("Nothing to clean: no unused files or assets found")
		return nil
	}

	if dirty, err := vcs.WorkingTreeDirty(root); err == nil && dirty {
		color.Yellow("Working tree has uncommitted changes; trashed files can be restored with 'deadwood restore'")
	}

	return dashboard.Run(report, tr)
}
