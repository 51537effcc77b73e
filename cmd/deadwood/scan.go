package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/deadwood-io/deadwood/internal/remote"
	"github.com/deadwood-io/deadwood/internal/service"
	"github.com/deadwood-io/deadwood/pkg/config"
	"github.com/deadwood-io/deadwood/pkg/watch"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Analyze a workspace for unused files, assets, dependencies, and exports",
		ArgsUsage: "[path | owner/repo | git-url]",
		Description: `Scans a JS/TS workspace and reports everything nothing uses. The
workspace is never modified; use 'deadwood clean' to act on findings.

The target can be a local directory, a GitHub owner/repo shorthand, or
a full git URL. Remote repositories are cloned to a temp directory for
the scan and removed afterwards; append @ref to a shorthand to scan a
branch, tag, or commit.

Examples:
  deadwood scan
  deadwood scan ../app --format json -o report.json
  deadwood scan --entry src/main.ts --entry src/worker.ts
  deadwood scan facebook/react@v18.2.0
  deadwood scan --watch`,
		Flags: append(analysisFlags(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Watch for changes and rescan",
			},
		),
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	src, err := remote.Parse(c.Args().First())
	if err != nil {
		return err
	}

	var root string
	if src != nil {
		if c.Bool("watch") {
			return fmt.Errorf("--watch needs a local workspace, not %s", src)
		}
		color.New(color.FgCyan).Fprintf(color.Error, "Cloning %s...\n", src)
		if err := src.Clone(c.Context, os.Stderr); err != nil {
			return err
		}
		defer src.Cleanup()
		root = src.CloneDir
	} else {
		root, err = getRoot(c)
		if err != nil {
			return err
		}
	}

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}

	svc := service.New(service.WithConfig(cfg))

	if c.Bool("watch") {
		return runScanWatch(c, svc, cfg, root)
	}

	report, err := svc.Scan(c.Context, root, scanOptions(c, true))
	if err != nil {
		return err
	}
	return renderReport(c, cfg, report)
}

// runScanWatch performs an initial scan, then rescans whenever watched
// files change until interrupted.
func runScanWatch(c *cli.Context, svc *service.Service, cfg *config.Config, root string) error {
	rescan := func(showProgress bool) {
		report, err := svc.Scan(c.Context, root, scanOptions(c, showProgress))
		if err != nil {
			color.Red("Scan error: %v", err)
			return
		}
		if err := renderReport(c, cfg, report); err != nil {
			color.Red("Output error: %v", err)
		}
	}

	rescan(true)

	watcher, err := watch.NewWatcher(root, cfg, 500*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.SetCallback(func(changed []string) {
		rescan(false)
	})

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
