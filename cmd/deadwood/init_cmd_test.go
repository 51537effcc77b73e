package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deadwood-io/deadwood/pkg/config"
)

func TestInitCommandRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{name: "toml", file: "deadwood.toml"},
		{name: "yaml", file: "deadwood.yaml"},
		{name: "json", file: "deadwood.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)

			app := newApp()
			if err := app.Run([]string{"deadwood", "--no-color", "init", "-o", path}); err != nil {
				t.Fatalf("init: %v", err)
			}

			cfg, err := config.Load(path)
			if err != nil {
				t.Fatalf("generated config does not load: %v", err)
			}

			defaults := config.DefaultConfig()
			if cfg.Trash.Dir != defaults.Trash.Dir {
				t.Errorf("Trash.Dir = %q, want %q", cfg.Trash.Dir, defaults.Trash.Dir)
			}
			if cfg.Output.Format != defaults.Output.Format {
				t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, defaults.Output.Format)
			}
			if !cfg.Output.Color {
				t.Error("Output.Color should default to true")
			}
			if !cfg.Exclude.Gitignore {
				t.Error("Exclude.Gitignore should default to true")
			}
			if len(cfg.Exclude.Dirs) != len(defaults.Exclude.Dirs) {
				t.Errorf("Exclude.Dirs = %v, want %v", cfg.Exclude.Dirs, defaults.Exclude.Dirs)
			}
			if cfg.Analysis.IncludeNonProdDeps || cfg.Analysis.IncludeLowConfidence {
				t.Error("analysis toggles should default to false")
			}
			if cfg.Analysis.MaxFileSize != 0 {
				t.Errorf("MaxFileSize = %d, want 0", cfg.Analysis.MaxFileSize)
			}
		})
	}
}

func TestInitCommandHeaderComment(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "deadwood.toml")
	app := newApp()
	if err := app.Run([]string{"deadwood", "--no-color", "init", "-o", tomlPath}); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(tomlPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "# deadwood configuration") {
		t.Error("toml output should start with a comment header")
	}

	jsonPath := filepath.Join(dir, "deadwood.json")
	if err := newApp().Run([]string{"deadwood", "--no-color", "init", "-o", jsonPath}); err != nil {
		t.Fatalf("init json: %v", err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "{") {
		t.Error("json output must not carry a comment header")
	}
}

func TestInitCommandRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadwood.toml")

	if err := newApp().Run([]string{"deadwood", "--no-color", "init", "-o", path}); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := newApp().Run([]string{"deadwood", "--no-color", "init", "-o", path}); err == nil {
		t.Error("expected error when target exists")
	}
	if err := newApp().Run([]string{"deadwood", "--no-color", "init", "--force", "-o", path}); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestInitCommandCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".deadwood", "deadwood.toml")

	if err := newApp().Run([]string{"deadwood", "--no-color", "init", "-o", path}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not created: %v", err)
	}
}
