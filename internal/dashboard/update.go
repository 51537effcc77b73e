package dashboard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/deadwood-io/deadwood/internal/trash"
)

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.page == PageSummary {
			return m.updateSummary(msg)
		}
		return m.updateDelete(msg)
	}
	return m, nil
}

func (m Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "d":
		m.page = PageDelete
	}
	return m, nil
}

func (m Model) updateDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editingSearch {
		return m.updateSearchEdit(msg)
	}
	if m.pending != pendingNone {
		return m.updatePending(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "b", "esc":
		m.page = PageSummary
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor+1 < len(m.filteredIndices()) {
			m.cursor++
		}
	case "enter", " ":
		m.toggleSelected()
	case "a":
		m.selectAllFiltered()
	case "c":
		m.selected = make(map[int]bool)
		m.message = "Selection cleared."
	case "x":
		if len(m.selected) == 0 {
			m.message = "No items selected for deletion."
		} else {
			m.pending = pendingDelete
			m.message = fmt.Sprintf("Confirm delete %d selected files? Press y to confirm, n to cancel.", len(m.selected))
		}
	case "z":
		m.pending = pendingEmptyTrash
		m.message = "Empty trash and clear undo history? Press y to confirm, n to cancel."
	case "r":
		m.pending = pendingRestorePrevious
		m.message = "Restore most recent previous trash session? Press y to confirm, n to cancel."
	case "R":
		m.pending = pendingRestoreAll
		m.message = "Restore ALL trash sessions? Press y to confirm, n to cancel."
	case "u":
		m.undoLastDeletion()
	case "i":
		m.restoreFileFromTrash()
	case "o":
		m.restoreFolderFromTrash()
	case "f":
		m.filter = m.filter.next()
		m.clampCursor()
		m.message = "Filter: " + m.filter.label()
	case "g":
		m.resetFilterAndSearch()
	case "/":
		m.editingSearch = true
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.Focus()
		m.message = "Search mode: type and press Enter to apply."
		return m, textinput.Blink
	}
	return m, nil
}

// updateSearchEdit routes keys to the search input until the edit is
// applied or canceled. Canceling keeps the previously applied query.
func (m Model) updateSearchEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searchQuery = m.searchInput.Value()
		m.editingSearch = false
		m.searchInput.Blur()
		applied := m.searchQuery
		if applied == "" {
			applied = "(none)"
		}
		m.message = fmt.Sprintf("Search applied: '%s'.", applied)
		m.clampCursor()
		return m, nil
	case tea.KeyEsc:
		m.editingSearch = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.message = "Search edit canceled."
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// updatePending resolves a requested destructive action: y commits it,
// anything that reads as "no" cancels it.
func (m Model) updatePending(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		action := m.pending
		m.pending = pendingNone
		switch action {
		case pendingDelete:
			m.applySelectedDeletions()
		case pendingEmptyTrash:
			m.emptyTrash()
		case pendingRestorePrevious:
			m.restorePreviousSession()
		case pendingRestoreAll:
			m.restoreAllSessions()
		}
	case "n", "esc":
		switch m.pending {
		case pendingDelete:
			m.message = "Deletion canceled."
		case pendingEmptyTrash:
			m.message = "Empty trash canceled."
		case pendingRestorePrevious:
			m.message = "Restore previous session canceled."
		case pendingRestoreAll:
			m.message = "Restore all sessions canceled."
		}
		m.pending = pendingNone
	}
	return m, nil
}

func (m *Model) toggleSelected() {
	filtered := m.filteredIndices()
	if len(filtered) == 0 || m.cursor >= len(filtered) {
		return
	}
	idx := filtered[m.cursor]
	if m.selected[idx] {
		delete(m.selected, idx)
	} else {
		m.selected[idx] = true
	}
	m.message = fmt.Sprintf("Selected %d items.", len(m.selected))
}

func (m *Model) selectAllFiltered() {
	filtered := m.filteredIndices()
	m.selected = make(map[int]bool, len(filtered))
	for _, idx := range filtered {
		m.selected[idx] = true
	}
	m.message = fmt.Sprintf("Selected %d items.", len(m.selected))
}

func (m *Model) resetFilterAndSearch() {
	m.filter = FilterAll
	m.searchQuery = ""
	m.searchInput.SetValue("")
	m.editingSearch = false
	m.clampCursor()
	m.message = "Reset filter and search."
}

// applySelectedDeletions commits an approved delete. Rows already in
// the trash count as failures, live rows move as one batch, and rows
// the batch moved flip to deleted.
func (m *Model) applySelectedDeletions() {
	indices := make([]int, 0, len(m.selected))
	for idx := range m.selected {
		if idx < len(m.items) {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	var batch []trash.Item
	rows := make(map[string]int, len(indices))
	alreadyDeleted := 0
	for _, idx := range indices {
		item := m.items[idx]
		if item.State == CandidateDeleted {
			alreadyDeleted++
			continue
		}
		batch = append(batch, trash.Item{RelPath: item.RelPath, Kind: item.Kind})
		rows[item.RelPath] = idx
	}

	result, err := m.trash.Delete(batch)
	for _, o := range result.Outcomes {
		if o.OK {
			if idx, ok := rows[o.Path]; ok {
				m.items[idx].State = CandidateDeleted
			}
		}
	}

	m.selected = make(map[int]bool)
	m.clampCursor()
	deleted := result.Succeeded()
	failed := result.Failed() + alreadyDeleted
	if err != nil {
		m.message = fmt.Sprintf("Deleted %d files. Failed: %d. Deletion log not written: %v", deleted, failed, err)
		return
	}
	m.message = fmt.Sprintf("Deleted %d files. Failed: %d. Press 'u' to undo.", deleted, failed)
}

func (m *Model) undoLastDeletion() {
	result, err := m.trash.Undo()
	if err != nil {
		if errors.Is(err, trash.ErrNoUndo) {
			m.message = "Nothing to undo."
		} else {
			m.message = fmt.Sprintf("Undo failed: %v", err)
		}
		return
	}
	m.markRestored(result)
	m.message = fmt.Sprintf("Restored %d files. Failed: %d.", result.Succeeded(), result.Failed())
}

func (m *Model) emptyTrash() {
	removed, err := m.trash.Empty()
	if err != nil {
		m.message = fmt.Sprintf("Empty trash failed: %v", err)
		return
	}
	m.message = fmt.Sprintf("Trash emptied. Removed %d session entries.", removed)
}

func (m *Model) restorePreviousSession() {
	result, err := m.trash.RestorePrevious()
	if err != nil {
		if errors.Is(err, trash.ErrEmpty) {
			m.message = "No previous trash sessions found."
		} else {
			m.message = fmt.Sprintf("Restore failed: %v", err)
		}
		return
	}
	m.markRestored(result)
	session := ""
	if len(result.Sessions) > 0 {
		session = result.Sessions[0]
	}
	if failed := result.Failed(); failed > 0 {
		m.message = fmt.Sprintf("Restored %d files from session %s. Failed: %d (kept in trash).", result.Succeeded(), session, failed)
	} else {
		m.message = fmt.Sprintf("Restored %d files from session %s. Failed: 0.", result.Succeeded(), session)
	}
}

func (m *Model) restoreAllSessions() {
	result, err := m.trash.RestoreAll()
	if err != nil {
		if errors.Is(err, trash.ErrEmpty) {
			m.message = "No trash sessions found."
		} else {
			m.message = fmt.Sprintf("Restore failed: %v", err)
		}
		return
	}
	m.markRestored(result)
	restored, sessions, failed := result.Succeeded(), len(result.Sessions), result.Failed()
	if failed > 0 {
		m.message = fmt.Sprintf("Restored %d files from %d session(s). Failed: %d (kept in trash).", restored, sessions, failed)
	} else {
		m.message = fmt.Sprintf("Restored %d files from %d session(s). Failed: %d.", restored, sessions, failed)
	}
}

// restoreFileFromTrash restores the selected deleted rows, or falls
// back to an exact match on the applied search query.
func (m *Model) restoreFileFromTrash() {
	var rels []string
	for idx := range m.selected {
		if idx < len(m.items) && m.items[idx].State == CandidateDeleted {
			rels = append(rels, m.items[idx].RelPath)
		}
	}

	if len(rels) > 0 {
		result, err := m.trash.RestoreSelected(rels)
		m.finishScopedRestore(result, err, "file", "selected rows")
		return
	}

	query := trash.NormalizeQuery(m.searchQuery)
	if query == "" {
		m.message = "Select deleted rows (or set search to exact file path), then press i."
		return
	}
	result, err := m.trash.RestoreFile(query)
	m.finishScopedRestore(result, err, "file", query)
}

func (m *Model) restoreFolderFromTrash() {
	query := trash.NormalizeQuery(m.searchQuery)
	if query == "" {
		m.message = "Set search to a folder path, then press o to restore that folder from trash."
		return
	}
	result, err := m.trash.RestoreFolder(query)
	m.finishScopedRestore(result, err, "folder", query)
}

func (m *Model) finishScopedRestore(result trash.BatchResult, err error, scope, query string) {
	if err != nil {
		switch {
		case errors.Is(err, trash.ErrEmpty):
			m.message = "Trash is empty."
		case errors.Is(err, trash.ErrNoMatch):
			m.message = fmt.Sprintf("No trashed %s matched '%s'.", scope, query)
		default:
			m.message = fmt.Sprintf("Restore failed: %v", err)
		}
		return
	}
	m.markRestored(result)
	m.message = fmt.Sprintf("Restored %d %s match(es). Failed: %d.", result.Succeeded(), scope, result.Failed())
}

// markRestored flips successfully restored rows back to active,
// re-sorts, and drops the selection since row indices moved.
func (m *Model) markRestored(result trash.BatchResult) {
	for _, o := range result.Outcomes {
		if o.OK {
			m.upsert(o.Path, trash.KindOf(o.Path), CandidateActive)
		}
	}
	m.sortItems()
	m.selected = make(map[int]bool)
	m.clampCursor()
}
