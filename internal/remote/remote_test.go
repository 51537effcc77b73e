package remote

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestParse(t *testing.T) {
	local := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantURL string
		wantRef string
	}{
		{
			name: "existing local path wins",
			path: local,
		},
		{
			name:    "github shorthand",
			path:    "facebook/react",
			wantURL: "https://github.com/facebook/react",
		},
		{
			name:    "shorthand with ref",
			path:    "facebook/react@v18.2.0",
			wantURL: "https://github.com/facebook/react",
			wantRef: "v18.2.0",
		},
		{
			name:    "shorthand with dotted repo name",
			path:    "sindresorhus/dot.js",
			wantURL: "https://github.com/sindresorhus/dot.js",
		},
		{
			name:    "https url verbatim",
			path:    "https://github.com/facebook/react",
			wantURL: "https://github.com/facebook/react",
		},
		{
			name:    "scp style url verbatim",
			path:    "git@github.com:facebook/react.git",
			wantURL: "git@github.com:facebook/react.git",
		},
		{
			name: "bare name is not remote",
			path: "missing-directory",
		},
		{
			name: "dotted owner looks like a host",
			path: "example.com/repo",
		},
		{
			name: "nested path is not shorthand",
			path: "a/b/c",
		},
		{
			name: "relative dot path is not remote",
			path: "./gone/away",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.path)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if tt.wantURL == "" {
				if src != nil {
					t.Fatalf("Parse() = %+v, want nil", src)
				}
				return
			}

			if src == nil {
				t.Fatal("Parse() = nil, want a source")
			}
			if src.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", src.URL, tt.wantURL)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
		})
	}
}

func TestSourceString(t *testing.T) {
	src := &Source{URL: "https://github.com/a/b"}
	if got := src.String(); got != "https://github.com/a/b" {
		t.Errorf("String() = %q", got)
	}

	src.Ref = "main"
	if got := src.String(); got != "https://github.com/a/b@main" {
		t.Errorf("String() = %q", got)
	}
}

// initSourceRepo creates a local git repository to clone from.
func initSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if _, err := wt.Add("package.json"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return dir
}

func TestSourceClone(t *testing.T) {
	src := &Source{URL: initSourceRepo(t)}

	if err := src.Clone(context.Background(), io.Discard); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	t.Cleanup(func() { src.Cleanup() })

	if src.CloneDir == "" {
		t.Fatal("CloneDir not set")
	}
	if _, err := os.Stat(filepath.Join(src.CloneDir, "package.json")); err != nil {
		t.Errorf("cloned file missing: %v", err)
	}

	dir := src.CloneDir
	if err := src.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("clone directory should be removed")
	}
	if src.CloneDir != "" {
		t.Error("CloneDir should be cleared")
	}
}

func TestSourceCloneFailure(t *testing.T) {
	src := &Source{URL: filepath.Join(t.TempDir(), "nope")}

	if err := src.Clone(context.Background(), io.Discard); err == nil {
		t.Fatal("expected clone error")
	}
	if src.CloneDir != "" {
		t.Error("CloneDir must stay empty after a failed clone")
	}
}

func TestCleanupWithoutClone(t *testing.T) {
	src := &Source{URL: "https://github.com/a/b"}
	if err := src.Cleanup(); err != nil {
		t.Errorf("Cleanup without clone: %v", err)
	}
}
