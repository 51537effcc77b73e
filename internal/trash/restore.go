package trash

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/deadwood-io/deadwood/pkg/models"
)

// RestorePrevious restores every file of the most recent trash session
// back to its original location. Result.Sessions names the session
// restored from.
func (t *Trash) RestorePrevious() (BatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.sessionIDs()
	if err != nil {
		return BatchResult{}, err
	}
	if len(ids) == 0 {
		return BatchResult{}, ErrEmpty
	}

	id := ids[len(ids)-1]
	entries, outcomes := t.restoreSessionDir(id)
	result := BatchResult{Outcomes: outcomes, Sessions: []string{id}}
	if len(entries) > 0 {
		result.BatchID = t.nextBatchID()
		_ = t.appendLog("restore_previous_session", result.BatchID, entries)
	}
	t.pruneEmptySessions()
	return result, nil
}

// RestoreAll restores every trash session, oldest first. Result.Sessions
// lists the sessions that still held files; a session already drained by
// an earlier restore is skipped silently.
func (t *Trash) RestoreAll() (BatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.sessionIDs()
	if err != nil {
		return BatchResult{}, err
	}
	if len(ids) == 0 {
		return BatchResult{}, ErrEmpty
	}

	var result BatchResult
	for _, id := range ids {
		entries, outcomes := t.restoreSessionDir(id)
		if len(outcomes) == 0 {
			continue
		}
		result.Sessions = append(result.Sessions, id)
		result.Outcomes = append(result.Outcomes, outcomes...)
		if len(entries) > 0 {
			_ = t.appendLog("restore_all_sessions", t.nextBatchID(), entries)
		}
	}
	t.pruneEmptySessions()
	return result, nil
}

// RestoreSession restores every file of the named trash session.
// An unknown session id is ErrNoMatch.
func (t *Trash) RestoreSession(id string) (BatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.sessionIDs()
	if err != nil {
		return BatchResult{}, err
	}
	if len(ids) == 0 {
		return BatchResult{}, ErrEmpty
	}
	found := false
	for _, have := range ids {
		if have == id {
			found = true
			break
		}
	}
	if !found {
		return BatchResult{}, ErrNoMatch
	}

	entries, outcomes := t.restoreSessionDir(id)
	result := BatchResult{Outcomes: outcomes, Sessions: []string{id}}
	if len(entries) > 0 {
		result.BatchID = t.nextBatchID()
		_ = t.appendLog("restore_session", result.BatchID, entries)
	}
	t.pruneEmptySessions()
	return result, nil
}

// RestoreFile restores the single trashed file whose relative path
// equals path exactly, after query normalization.
func (t *Trash) RestoreFile(path string) (BatchResult, error) {
	q := NormalizeQuery(path)
	return t.restoreMatching("restore_file", func(rel string) bool { return rel == q })
}

// RestoreFolder restores every trashed file at or below the given
// folder path.
func (t *Trash) RestoreFolder(path string) (BatchResult, error) {
	q := NormalizeQuery(path)
	prefix := q + "/"
	return t.restoreMatching("restore_folder", func(rel string) bool {
		return rel == q || strings.HasPrefix(rel, prefix)
	})
}

// RestoreSelected restores the trashed files whose relative paths appear
// in rels, for callers that picked rows rather than typed a pattern.
func (t *Trash) RestoreSelected(rels []string) (BatchResult, error) {
	want := make(map[string]bool, len(rels))
	for _, rel := range rels {
		want[NormalizeQuery(rel)] = true
	}
	return t.restoreMatching("restore_file", func(rel string) bool { return want[rel] })
}

// RestorePattern restores the trashed files matching a user query, which
// may be a substring, a shell-style wildcard, or a regular expression.
func (t *Trash) RestorePattern(query string) (BatchResult, error) {
	m := BuildMatcher(query)
	return t.restoreMatching("restore_file", m.Matches)
}

// restoreMatching restores every trashed file whose relative path the
// matcher accepts, taking the newest trashed copy when several sessions
// hold the same path. Files whose original location is occupied fail
// individually and keep their trashed copy.
func (t *Trash) restoreMatching(action string, match func(string) bool) (BatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	trashed, err := t.latestTrashedEntries()
	if err != nil {
		return BatchResult{}, err
	}
	if len(trashed) == 0 {
		return BatchResult{}, ErrEmpty
	}

	var matches []Entry
	for _, e := range trashed {
		if match(e.RelPath) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return BatchResult{}, ErrNoMatch
	}

	var result BatchResult
	var restored []Entry
	for _, e := range matches {
		if !within(t.root, e.OriginalAbs) {
			result.Outcomes = append(result.Outcomes, models.Outcome{
				Path: e.RelPath, Detail: "outside the workspace root",
			})
			continue
		}
		if err := restoreEntry(e.TrashAbs, e.OriginalAbs); err != nil {
			result.Outcomes = append(result.Outcomes, models.Outcome{
				Path: e.RelPath, Detail: err.Error(),
			})
			continue
		}
		restored = append(restored, e)
		result.Outcomes = append(result.Outcomes, models.Outcome{Path: e.RelPath, OK: true})
	}

	t.pruneEmptySessions()
	if len(restored) > 0 {
		result.BatchID = t.nextBatchID()
		_ = t.appendLog(action, result.BatchID, restored)
	}
	return result, nil
}

// restoreSessionDir moves every file of one session back under the
// workspace root, mirroring relative paths. It returns the restored
// entries for logging plus the per-file outcomes, failures included.
func (t *Trash) restoreSessionDir(id string) ([]Entry, []models.Outcome) {
	sessionPath := filepath.Join(t.sessionsDir(), id)
	var entries []Entry
	var outcomes []models.Outcome

	filepath.WalkDir(sessionPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(sessionPath, path)
		if relErr != nil {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		target := filepath.Join(t.root, rel)
		if !within(t.root, target) {
			outcomes = append(outcomes, models.Outcome{
				Path: relSlash, Detail: "outside the workspace root",
			})
			return nil
		}
		if err := restoreEntry(path, target); err != nil {
			outcomes = append(outcomes, models.Outcome{Path: relSlash, Detail: err.Error()})
			return nil
		}
		entries = append(entries, Entry{
			Item:        Item{RelPath: relSlash, Kind: KindOf(relSlash, target)},
			OriginalAbs: target,
			TrashAbs:    path,
		})
		outcomes = append(outcomes, models.Outcome{Path: relSlash, OK: true})
		return nil
	})
	return entries, outcomes
}

// pruneEmptySessions removes session directories that no longer hold any
// files. A session with a failed restore keeps its files, so it stays.
// Best effort; returns the number of directories removed.
func (t *Trash) pruneEmptySessions() int {
	ids, err := t.sessionIDs()
	if err != nil {
		return 0
	}
	removed := 0
	for _, id := range ids {
		sessionPath := filepath.Join(t.sessionsDir(), id)
		if sessionHasFiles(sessionPath) {
			continue
		}
		if os.RemoveAll(sessionPath) == nil {
			removed++
		}
	}
	return removed
}

// sessionHasFiles reports whether any regular file survives under path.
func sessionHasFiles(path string) bool {
	found := false
	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}
