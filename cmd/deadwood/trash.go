package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/deadwood-io/deadwood/internal/output"
	"github.com/deadwood-io/deadwood/internal/service"
)

func trashCmd() *cli.Command {
	return &cli.Command{
		Name:  "trash",
		Usage: "Inspect or empty the session trash",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List trash sessions and their files",
				ArgsUsage: "[path]",
				Action:    runTrashListCmd,
			},
			{
				Name:      "empty",
				Usage:     "Permanently delete everything in the trash",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Confirm permanent deletion",
					},
				},
				Action: runTrashEmptyCmd,
			},
		},
	}
}

func runTrashListCmd(c *cli.Context) error {
	root, err := getRoot(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}

	sessions, err := service.New(service.WithConfig(cfg)).TrashSessions(root)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		color.Yellow("Trash is empty")
		return nil
	}

	formatter, err := output.NewFormatter(output.FormatText, "", cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	total := 0
	for _, s := range sessions {
		total += len(s.Entries)
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(len(s.Entries)),
		})
	}

	table := output.NewTable(
		"Trash sessions",
		[]string{"Session", "Created", "Files"},
		rows,
		[]string{"Total", "", strconv.Itoa(total)},
		sessions,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if cfg.Output.Verbose {
		for _, s := range sessions {
			fmt.Printf("\n%s:\n", s.ID)
			for _, e := range s.Entries {
				fmt.Printf("  - %s\n", e.OriginalPath)
			}
		}
	}
	return nil
}

func runTrashEmptyCmd(c *cli.Context) error {
	root, err := getRoot(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}

	if !c.Bool("force") {
		return fmt.Errorf("emptying the trash is permanent; rerun with --force to confirm")
	}

	removed, err := service.New(service.WithConfig(cfg)).Trash(root).Empty()
	if err != nil {
		return err
	}
	if removed == 0 {
		color.Yellow("Trash is already empty")
		return nil
	}

	color.Green("Permanently removed %d file(s) from trash", removed)
	return nil
}
