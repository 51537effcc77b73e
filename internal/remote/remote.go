// Package remote resolves scan targets that name a repository instead
// of a local directory and materializes them as temporary clones.
package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/deadwood-io/deadwood/internal/vcs"
)

// Source is a remote repository to scan.
type Source struct {
	URL      string // clone URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory, set by Clone
}

// Parse decides whether path names a remote repository. An existing
// local path always wins and returns nil. Recognized remote forms are
// explicit git URLs and the owner/repo GitHub shorthand, optionally
// suffixed with @ref.
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	if isGitURL(path) {
		return &Source{URL: path}, nil
	}

	ref := ""
	if idx := strings.LastIndex(path, "@"); idx != -1 {
		ref = path[idx+1:]
		path = path[:idx]
	}

	if isGitHubShorthand(path) {
		return &Source{
			URL: "https://github.com/" + path,
			Ref: ref,
		}, nil
	}

	return nil, nil
}

// isGitURL reports whether path is an explicit clone URL. These are
// used verbatim, without @ref splitting, since scp-style addresses
// carry their own @.
func isGitURL(path string) bool {
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// isGitHubShorthand reports whether path matches owner/repo: exactly
// one slash, and no dots in the owner part, which would indicate a
// host name.
func isGitHubShorthand(path string) bool {
	owner, repo, ok := strings.Cut(path, "/")
	if !ok || owner == "" || repo == "" {
		return false
	}
	if strings.Contains(repo, "/") {
		return false
	}
	return !strings.ContainsAny(owner, ".:\\")
}

// Clone fetches the source into a fresh temp directory and records it
// in CloneDir. Progress output goes to progress; pass io.Discard to
// silence it.
func (s *Source) Clone(ctx context.Context, progress io.Writer) error {
	dir, err := os.MkdirTemp("", "deadwood-remote-*")
	if err != nil {
		return err
	}

	if err := vcs.CloneAtRef(ctx, s.URL, s.Ref, dir, progress); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("cloning %s: %w", s, err)
	}

	s.CloneDir = dir
	return nil
}

// Cleanup removes the temp clone, if any.
func (s *Source) Cleanup() error {
	if s.CloneDir == "" {
		return nil
	}
	dir := s.CloneDir
	s.CloneDir = ""
	return os.RemoveAll(dir)
}

// String renders the source for messages, URL@ref when a ref is set.
func (s *Source) String() string {
	if s.Ref == "" {
		return s.URL
	}
	return s.URL + "@" + s.Ref
}
