package trash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/deadwood-io/deadwood/pkg/models"
)

// logName is the append-only deletion log under the trash area.
const logName = "deletions.jsonl"

// LogRecord is one line of the deletion log. A batch with no file
// entries, such as an empty_trash, still writes a single marker record
// with the path fields blank.
type LogRecord struct {
	Action      string `json:"action"`
	BatchID     string `json:"batch_id"`
	Kind        string `json:"kind"`
	RelPath     string `json:"rel_path"`
	OriginalAbs string `json:"original_abs"`
	TrashAbs    string `json:"trash_abs"`
	Checksum    string `json:"checksum,omitempty"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}

func (t *Trash) logPath() string {
	return filepath.Join(t.dir, logName)
}

// appendLog appends one record per entry to the deletion log, or a
// single marker record when entries is empty. All records of a batch
// share one timestamp.
func (t *Trash) appendLog(action, batchID string, entries []Entry) error {
	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return err
	}

	ts := time.Now().UnixMilli()
	var buf bytes.Buffer
	var records []LogRecord
	if len(entries) == 0 {
		records = append(records, LogRecord{Action: action, BatchID: batchID, TsUnixMs: ts})
	}
	for _, e := range entries {
		records = append(records, LogRecord{
			Action:      action,
			BatchID:     batchID,
			Kind:        e.Kind,
			RelPath:     e.RelPath,
			OriginalAbs: e.OriginalAbs,
			TrashAbs:    e.TrashAbs,
			Checksum:    e.Checksum,
			TsUnixMs:    ts,
		})
	}
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	f, err := os.OpenFile(t.logPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LogRecords returns every readable record of the deletion log in
// append order. A missing or unreadable log is treated as no history,
// and malformed lines are skipped; trash history is a convenience, never
// a reason to fail.
func (t *Trash) LogRecords() []LogRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.logPath())
	if err != nil {
		return nil
	}
	var records []LogRecord
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec LogRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Sessions lists the session directories currently on disk, oldest
// first, with the trashed files each one holds.
func (t *Trash) Sessions() ([]models.TrashSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.sessionIDs()
	if err != nil {
		return nil, err
	}

	var sessions []models.TrashSession
	for _, id := range ids {
		sessionPath := filepath.Join(t.sessionsDir(), id)
		session := models.TrashSession{ID: id, CreatedAt: sessionTime(sessionPath, id)}
		err := filepath.WalkDir(sessionPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(sessionPath, path)
			if relErr != nil {
				return nil
			}
			session.Entries = append(session.Entries, models.TrashEntry{
				OriginalPath: filepath.ToSlash(rel),
				TrashedPath:  path,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing trash session %s: %w", id, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// TrashedEntries returns the most recent trashed copy of every relative
// path across all sessions, sorted by path. When several sessions hold
// the same path, the newest session wins.
func (t *Trash) TrashedEntries() ([]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latestTrashedEntries()
}

// latestTrashedEntries is TrashedEntries without the lock, for use
// inside mutating operations.
func (t *Trash) latestTrashedEntries() ([]Entry, error) {
	ids, err := t.sessionIDs()
	if err != nil {
		return nil, err
	}

	// Newest session first, so the first copy of a rel path wins.
	latest := make(map[string]Entry)
	for i := len(ids) - 1; i >= 0; i-- {
		sessionPath := filepath.Join(t.sessionsDir(), ids[i])
		err := filepath.WalkDir(sessionPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(sessionPath, path)
			if relErr != nil {
				return nil
			}
			relSlash := filepath.ToSlash(rel)
			if _, seen := latest[relSlash]; seen {
				return nil
			}
			originalAbs := filepath.Join(t.root, rel)
			latest[relSlash] = Entry{
				Item:        Item{RelPath: relSlash, Kind: KindOf(relSlash, path, originalAbs)},
				OriginalAbs: originalAbs,
				TrashAbs:    path,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking trash session %s: %w", ids[i], err)
		}
	}

	entries := make([]Entry, 0, len(latest))
	for _, e := range latest {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

// sessionIDs returns the session directory names sorted ascending,
// which is oldest first for the timestamp-based ids.
func (t *Trash) sessionIDs() ([]string, error) {
	dirents, err := os.ReadDir(t.sessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading trash sessions: %w", err)
	}
	var ids []string
	for _, d := range dirents {
		if d.IsDir() {
			ids = append(ids, d.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// sessionTime recovers a session's creation time from its batch id,
// falling back to the directory's mtime for foreign names.
func sessionTime(path, id string) time.Time {
	if ms, err := strconv.ParseInt(strings.TrimPrefix(id, "batch-"), 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
