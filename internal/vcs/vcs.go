// Package vcs is the thin go-git layer: fetching remote workspaces
// into a local directory and checking working tree state before the
// interactive clean flow moves files around.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// WorkingTreeDirty reports whether the workspace at root has
// uncommitted changes to tracked files. Untracked files do not count
// as dirty, and a workspace outside version control reports clean.
func WorkingTreeDirty(root string) (bool, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}

	status, err := wt.Status()
	if err != nil {
		return false, err
	}

	for _, s := range status {
		if s.Staging == git.Untracked && s.Worktree == git.Untracked {
			continue
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			return true, nil
		}
	}

	return false, nil
}

// CloneAtRef clones url into dir and, when ref is non-empty, checks
// out that branch, tag, or commit. Without a ref only the default
// branch is fetched. Progress output goes to progress, which may be
// io.Discard.
func CloneAtRef(ctx context.Context, url, ref, dir string, progress io.Writer) error {
	opts := &git.CloneOptions{
		URL:      url,
		Progress: progress,
	}
	if ref == "" {
		opts.SingleBranch = true
		opts.Tags = git.NoTags
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return err
	}
	if ref == "" {
		return nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("resolving ref %q: %w", ref, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash})
}
