package trash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrashWorkspace(t *testing.T, files map[string]string) *Trash {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return New(root, ".deadwood_trash")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func TestDeleteMovesIntoSession(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{
		"src/dead.js":  "export const gone = 1;\n",
		"img/logo.png": "png-bytes",
	})

	result, err := tr.Delete([]Item{
		{RelPath: "src/dead.js", Kind: KindFile},
		{RelPath: "img/logo.png", Kind: KindAsset},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, 0, result.Failed())
	require.True(t, strings.HasPrefix(result.BatchID, "batch-"), "batch id %q", result.BatchID)

	// Originals are gone, trashed copies mirror the relative layout.
	assert.False(t, fileExists(filepath.Join(tr.Root(), "src", "dead.js")))
	trashed := filepath.Join(tr.Dir(), "sessions", result.BatchID, "src", "dead.js")
	assert.Equal(t, "export const gone = 1;\n", readFile(t, trashed))

	records := tr.LogRecords()
	require.Len(t, records, 2)
	byRel := make(map[string]LogRecord)
	for _, rec := range records {
		byRel[rec.RelPath] = rec
	}
	assert.Equal(t, "delete", byRel["src/dead.js"].Action)
	assert.Equal(t, KindFile, byRel["src/dead.js"].Kind)
	assert.Equal(t, KindAsset, byRel["img/logo.png"].Kind)
	assert.Equal(t, result.BatchID, byRel["src/dead.js"].BatchID)
	assert.NotEmpty(t, byRel["src/dead.js"].Checksum)
	assert.Greater(t, byRel["src/dead.js"].TsUnixMs, int64(0))
}

func TestDeleteFailuresAreIsolated(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"a.js": "a", "b.js": "b"})

	result, err := tr.Delete([]Item{
		{RelPath: "a.js", Kind: KindFile},
		{RelPath: "missing.js", Kind: KindFile},
		{RelPath: "../outside.js", Kind: KindFile},
		{RelPath: "b.js", Kind: KindFile},
	})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, 2, result.Failed())

	assert.True(t, result.Outcomes[0].OK)
	assert.Equal(t, "not a regular file", result.Outcomes[1].Detail)
	assert.Equal(t, "outside the workspace root", result.Outcomes[2].Detail)
	assert.True(t, result.Outcomes[3].OK)
}

func TestDeleteRejectsDirectory(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"src/a.js": "a"})

	result, err := tr.Delete([]Item{{RelPath: "src", Kind: KindFile}})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.False(t, result.Outcomes[0].OK)
	assert.Empty(t, result.BatchID)
	assert.True(t, fileExists(filepath.Join(tr.Root(), "src", "a.js")))
}

func TestDeleteEmptySelection(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"a.js": "a"})

	result, err := tr.Delete(nil)
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Empty(t, result.BatchID)

	// An empty selection must not create the trash area.
	_, statErr := os.Stat(tr.Dir())
	assert.True(t, os.IsNotExist(statErr))
}

func TestUndoRoundTrip(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{
		"src/dead.js": "the exact original bytes\n",
		"img/old.png": "binary",
	})

	_, err := tr.Delete([]Item{
		{RelPath: "src/dead.js", Kind: KindFile},
		{RelPath: "img/old.png", Kind: KindAsset},
	})
	require.NoError(t, err)

	result, err := tr.Undo()
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, 0, result.Failed())
	assert.Equal(t, "the exact original bytes\n", readFile(t, filepath.Join(tr.Root(), "src", "dead.js")))

	// The log shows a matched delete/undo pair with the same checksum.
	var del, undo LogRecord
	for _, rec := range tr.LogRecords() {
		if rec.RelPath != "src/dead.js" {
			continue
		}
		switch rec.Action {
		case "delete":
			del = rec
		case "undo":
			undo = rec
		}
	}
	require.NotEmpty(t, del.Checksum)
	assert.Equal(t, del.Checksum, undo.Checksum)

	_, err = tr.Undo()
	assert.ErrorIs(t, err, ErrNoUndo)
}

func TestUndoNeverOverwrites(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"a.js": "v1"})

	del, err := tr.Delete([]Item{{RelPath: "a.js", Kind: KindFile}})
	require.NoError(t, err)

	// The path is occupied again before the undo.
	require.NoError(t, os.WriteFile(filepath.Join(tr.Root(), "a.js"), []byte("v2"), 0o644))

	result, err := tr.Undo()
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded())
	assert.Equal(t, 1, result.Failed())
	assert.Equal(t, "destination already exists", result.Outcomes[0].Detail)

	// Both the live file and the trashed copy survive.
	assert.Equal(t, "v2", readFile(t, filepath.Join(tr.Root(), "a.js")))
	trashed := filepath.Join(tr.Dir(), "sessions", del.BatchID, "a.js")
	assert.Equal(t, "v1", readFile(t, trashed))
}

func TestEmptyTrash(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"a.js": "a", "b.js": "b"})

	_, err := tr.Delete([]Item{{RelPath: "a.js", Kind: KindFile}})
	require.NoError(t, err)
	_, err = tr.Delete([]Item{{RelPath: "b.js", Kind: KindFile}})
	require.NoError(t, err)

	removed, err := tr.Empty()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := tr.TrashedEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Emptying forgets the undo stack along with the files.
	_, err = tr.Undo()
	assert.ErrorIs(t, err, ErrNoUndo)

	records := tr.LogRecords()
	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.Equal(t, "empty_trash", last.Action)
	assert.Empty(t, last.RelPath)
	assert.NotEmpty(t, last.BatchID)
}

func TestBatchIDsStrictlyIncrease(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"a.js": "a", "b.js": "b"})

	first, err := tr.Delete([]Item{{RelPath: "a.js", Kind: KindFile}})
	require.NoError(t, err)
	second, err := tr.Delete([]Item{{RelPath: "b.js", Kind: KindFile}})
	require.NoError(t, err)

	assert.Less(t, first.BatchID, second.BatchID)
}

func TestSessions(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"src/a.js": "a", "src/b.js": "b"})

	one, err := tr.Delete([]Item{{RelPath: "src/a.js", Kind: KindFile}})
	require.NoError(t, err)
	two, err := tr.Delete([]Item{{RelPath: "src/b.js", Kind: KindFile}})
	require.NoError(t, err)

	sessions, err := tr.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Oldest first.
	assert.Equal(t, one.BatchID, sessions[0].ID)
	assert.Equal(t, two.BatchID, sessions[1].ID)
	assert.True(t, sessions[0].CreatedAt.Before(sessions[1].CreatedAt))

	require.Len(t, sessions[0].Entries, 1)
	assert.Equal(t, "src/a.js", sessions[0].Entries[0].OriginalPath)
	assert.True(t, fileExists(sessions[0].Entries[0].TrashedPath))
}

func TestTrashedEntriesNewestSessionWins(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"a.js": "v1"})

	_, err := tr.Delete([]Item{{RelPath: "a.js", Kind: KindFile}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tr.Root(), "a.js"), []byte("v2"), 0o644))
	_, err = tr.Delete([]Item{{RelPath: "a.js", Kind: KindFile}})
	require.NoError(t, err)

	entries, err := tr.TrashedEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.js", entries[0].RelPath)
	assert.Equal(t, "v2", readFile(t, entries[0].TrashAbs))
}

func TestTrashedEntriesSortedWithKinds(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"z.js": "z", "img/a.png": "p"})

	_, err := tr.Delete([]Item{
		{RelPath: "z.js", Kind: KindFile},
		{RelPath: "img/a.png", Kind: KindAsset},
	})
	require.NoError(t, err)

	entries, err := tr.TrashedEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "img/a.png", entries[0].RelPath)
	assert.Equal(t, KindAsset, entries[0].Kind)
	assert.Equal(t, "z.js", entries[1].RelPath)
	assert.Equal(t, KindFile, entries[1].Kind)
}

func TestLogRecordsSkipsMalformedLines(t *testing.T) {
	tr := newTrashWorkspace(t, map[string]string{"a.js": "a"})
	assert.Nil(t, tr.LogRecords())

	_, err := tr.Delete([]Item{{RelPath: "a.js", Kind: KindFile}})
	require.NoError(t, err)

	// A torn write must not poison the rest of the log.
	f, err := os.OpenFile(filepath.Join(tr.Dir(), "deletions.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{torn json line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = tr.Undo()
	require.NoError(t, err)

	records := tr.LogRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "delete", records[0].Action)
	assert.Equal(t, "undo", records[1].Action)
}

func TestChecksumFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.js")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	sum, err := checksumFile(path)
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	again, err := checksumFile(path)
	require.NoError(t, err)
	assert.Equal(t, sum, again)

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o644))
	changed, err := checksumFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, sum, changed)
}
