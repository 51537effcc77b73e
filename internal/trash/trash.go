// Package trash makes file deletion reversible. Instead of unlinking,
// files move into a session directory under the workspace's trash area,
// mirroring their relative paths, and every move is recorded in an
// append-only JSONL log. Sessions and the log persist across runs, so a
// deleted file stays restorable until the trash is emptied.
package trash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/deadwood-io/deadwood/internal/scanner"
	"github.com/deadwood-io/deadwood/pkg/models"
)

// Candidate kinds, matching the finding kinds the dashboard offers for
// deletion.
const (
	KindFile  = "file"
	KindAsset = "asset"
)

var (
	// ErrEmpty reports that the trash holds no restorable files.
	ErrEmpty = errors.New("trash is empty")

	// ErrNoMatch reports that no trashed file matched the request.
	ErrNoMatch = errors.New("no trashed files matched")

	// ErrNoUndo reports that no delete batch from this run is left to undo.
	ErrNoUndo = errors.New("nothing to undo")
)

// Item identifies one workspace file offered for deletion or restore.
type Item struct {
	RelPath string `json:"rel_path"` // slash-separated, relative to the workspace root
	Kind    string `json:"kind"`     // KindFile or KindAsset
}

// Entry records one file moved into the trash: where it came from and
// where its trashed copy lives.
type Entry struct {
	Item
	OriginalAbs string `json:"original_abs"`
	TrashAbs    string `json:"trash_abs"`
	Checksum    string `json:"checksum,omitempty"` // blake3 of the content at delete time
}

// BatchResult describes one mutating trash operation. Every attempted
// item appears in Outcomes individually; a batch never collapses into a
// single verdict.
type BatchResult struct {
	// BatchID is the log batch the operation wrote, empty when nothing
	// was logged.
	BatchID string

	// Outcomes holds one entry per item the operation attempted.
	Outcomes []models.Outcome

	// Sessions lists the trash session ids a restore drew files from,
	// in the order they were processed. Nil for delete and undo.
	Sessions []string
}

// Succeeded counts the successful outcomes.
func (r BatchResult) Succeeded() int { return models.Succeeded(r.Outcomes) }

// Failed counts the failed outcomes.
func (r BatchResult) Failed() int { return models.Failed(r.Outcomes) }

// Trash owns the session trash area and deletion log for one workspace
// root. All mutating operations serialize behind the handle's mutex; the
// file move and its log append form the critical section. Concurrent
// processes sharing one trash directory are not coordinated.
type Trash struct {
	mu     sync.Mutex
	root   string // workspace root, symlinks resolved
	dir    string // trash area under the root
	undo   [][]Entry
	lastMs int64
}

// New returns a handle on the trash area for root. dirName is the trash
// directory name under the root, typically from config. Nothing is
// created on disk until the first delete.
func New(root, dirName string) *Trash {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &Trash{
		root: abs,
		dir:  filepath.Join(abs, dirName),
	}
}

// Dir returns the absolute path of the trash area.
func (t *Trash) Dir() string { return t.dir }

// Root returns the workspace root the handle operates on.
func (t *Trash) Root() string { return t.root }

// Delete moves the given files into a fresh trash session. Each move is
// attempted independently: a file that cannot be moved is reported as a
// failed outcome and left in place, and the rest of the batch continues.
// Successful moves are appended to the log and pushed onto the undo
// stack as one batch.
func (t *Trash) Delete(items []Item) (BatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(items) == 0 {
		return BatchResult{}, nil
	}

	batchID := t.nextBatchID()
	result := BatchResult{BatchID: batchID}
	var moved []Entry

	for _, item := range items {
		abs := filepath.Join(t.root, filepath.FromSlash(item.RelPath))
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		if !within(t.root, abs) {
			result.Outcomes = append(result.Outcomes, models.Outcome{
				Path: item.RelPath, Detail: "outside the workspace root",
			})
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.Mode().IsRegular() {
			result.Outcomes = append(result.Outcomes, models.Outcome{
				Path: item.RelPath, Detail: "not a regular file",
			})
			continue
		}

		entry, err := t.moveToTrash(item, abs, batchID)
		if err != nil {
			result.Outcomes = append(result.Outcomes, models.Outcome{
				Path: item.RelPath, Detail: err.Error(),
			})
			continue
		}
		moved = append(moved, entry)
		result.Outcomes = append(result.Outcomes, models.Outcome{Path: item.RelPath, OK: true})
	}

	if len(moved) == 0 {
		result.BatchID = ""
		return result, nil
	}
	t.undo = append(t.undo, moved)
	if err := t.appendLog("delete", batchID, moved); err != nil {
		// Files are already in the trash; the caller learns the log is behind.
		return result, fmt.Errorf("writing deletion log: %w", err)
	}
	return result, nil
}

// Undo restores the most recently approved delete batch. Files whose
// original path is occupied again fail individually and stay in the
// trash; they are not re-queued for another undo.
func (t *Trash) Undo() (BatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.undo) == 0 {
		return BatchResult{}, ErrNoUndo
	}
	batch := t.undo[len(t.undo)-1]
	t.undo = t.undo[:len(t.undo)-1]

	result := BatchResult{}
	var restored []Entry
	for _, entry := range batch {
		if err := restoreEntry(entry.TrashAbs, entry.OriginalAbs); err != nil {
			result.Outcomes = append(result.Outcomes, models.Outcome{
				Path: entry.RelPath, Detail: err.Error(),
			})
			continue
		}
		restored = append(restored, entry)
		result.Outcomes = append(result.Outcomes, models.Outcome{Path: entry.RelPath, OK: true})
	}

	if len(restored) > 0 {
		result.BatchID = t.nextBatchID()
		// Undo records are informational; a log failure must not block the restore.
		_ = t.appendLog("undo", result.BatchID, restored)
	}
	return result, nil
}

// Empty removes every session from the trash and clears the undo stack.
// It returns the number of session entries removed. The deletion log is
// kept; an empty_trash marker records the event.
func (t *Trash) Empty() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	sessions := t.sessionsDir()
	dirents, err := os.ReadDir(sessions)
	if err == nil {
		for _, d := range dirents {
			if err := os.RemoveAll(filepath.Join(sessions, d.Name())); err != nil {
				return removed, fmt.Errorf("emptying trash: %w", err)
			}
			removed++
		}
	}

	t.undo = nil
	_ = t.appendLog("empty_trash", t.nextBatchID(), nil)
	return removed, nil
}

// moveToTrash renames abs into the session directory for batchID,
// mirroring the item's relative path, and checksums the content first so
// the log can vouch for what was deleted.
func (t *Trash) moveToTrash(item Item, abs, batchID string) (Entry, error) {
	trashAbs := filepath.Join(t.sessionsDir(), batchID, filepath.FromSlash(item.RelPath))
	if err := os.MkdirAll(filepath.Dir(trashAbs), 0755); err != nil {
		return Entry{}, err
	}
	sum, _ := checksumFile(abs)
	if err := movePath(abs, trashAbs); err != nil {
		return Entry{}, err
	}
	return Entry{
		Item:        item,
		OriginalAbs: filepath.Join(t.root, filepath.FromSlash(item.RelPath)),
		TrashAbs:    trashAbs,
		Checksum:    sum,
	}, nil
}

// restoreEntry moves a trashed file back to its original path. The
// destination is never overwritten.
func restoreEntry(trashAbs, originalAbs string) error {
	if err := os.MkdirAll(filepath.Dir(originalAbs), 0755); err != nil {
		return err
	}
	if _, err := os.Lstat(originalAbs); err == nil {
		return errors.New("destination already exists")
	}
	return movePath(trashAbs, originalAbs)
}

func (t *Trash) sessionsDir() string {
	return filepath.Join(t.dir, "sessions")
}

// nextBatchID returns a fresh batch id. Ids are millisecond timestamps;
// two batches inside the same millisecond would share a session
// directory, so collisions bump forward to keep ids strictly increasing.
func (t *Trash) nextBatchID() string {
	ms := time.Now().UnixMilli()
	if ms <= t.lastMs {
		ms = t.lastMs + 1
	}
	t.lastMs = ms
	return fmt.Sprintf("batch-%d", ms)
}

// KindOf classifies a path as asset or file by extension, checking
// every given location of the file.
func KindOf(paths ...string) string {
	for _, p := range paths {
		if scanner.IsAssetPath(p) {
			return KindAsset
		}
	}
	return KindFile
}

// within reports whether path sits at or below root.
func within(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}

// checksumFile computes a BLAKE3 hash of the file's contents.
func checksumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// movePath renames src to dst. When the rename fails, typically because
// src and dst sit on different devices, it copies through a temporary
// name in dst's directory and swaps it in, so a partial copy never lands
// at the final path.
func movePath(src, dst string) error {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil || !info.Mode().IsRegular() {
		return renameErr
	}
	in, err := os.Open(src)
	if err != nil {
		return renameErr
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".deadwood-move-*")
	if err != nil {
		return renameErr
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Remove(src)
}
