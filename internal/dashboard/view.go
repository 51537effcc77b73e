package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deadwood-io/deadwood/pkg/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle  = lipgloss.NewStyle().Bold(true)
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func (m Model) View() string {
	if m.page == PageDelete {
		return m.viewDelete()
	}
	return m.viewSummary()
}

func (m Model) viewSummary() string {
	var b strings.Builder
	s := m.report.Summary

	b.WriteString(titleStyle.Render(fmt.Sprintf("deadwood summary | %s | d delete page | q quit", m.report.Root)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  source files:           %d\n", s.TotalSourceFiles)
	fmt.Fprintf(&b, "  asset files:            %d\n", s.TotalAssetFiles)
	fmt.Fprintf(&b, "  reachable source files: %d\n", s.TotalReachableFiles)
	fmt.Fprintf(&b, "  entry files:            %d\n", s.TotalEntries)
	fmt.Fprintf(&b, "  unused files:           %d\n", s.UnusedFiles)
	fmt.Fprintf(&b, "  used assets:            %d\n", s.UsedAssets)
	fmt.Fprintf(&b, "  unused assets:          %d\n", s.UnusedAssets)
	fmt.Fprintf(&b, "  asset coverage:         %.1f%%\n", s.AssetCoveragePct)
	fmt.Fprintf(&b, "  unused dependencies:    %d\n", s.UnusedDependencies)
	fmt.Fprintf(&b, "  unused exports:         %d\n", s.UnusedExports)
	fmt.Fprintf(&b, "  unresolved imports:     %d\n", s.UnresolvedLocalImports)
	fmt.Fprintf(&b, "  graph confidence:       %s\n", s.GraphConfidence)
	fmt.Fprintf(&b, "  omitted low-confidence: %d\n", s.OmittedLowConfidence)
	b.WriteString("\n")

	sectionList(&b, "Warnings", m.report.Warnings, 8)
	sectionList(&b, "Entries", m.report.Entries, 8)
	sectionList(&b, "Used assets", m.report.UsedAssets, 8)
	sectionList(&b, "Unused dependencies", findingSubjects(m.report.UnusedDependencies), 10)
	sectionList(&b, "Unused assets", findingSubjects(m.report.UnusedAssets), 10)
	sectionList(&b, "Unused exports", exportLines(m.report.UnusedExports), 10)

	return b.String()
}

func (m Model) viewDelete() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Delete page: select unused files/assets only"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Controls: j/k move | space toggle | a all | c clear | f filter | / search | g reset search+filter | x delete | u undo | i restore file (search) | o restore folder (search) | r restore prev | R restore all | z empty trash | y approve | b back | q quit"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Deleted files are shown in red and remain searchable for restore."))
	b.WriteString("\n\n")

	filtered := m.filteredIndices()
	query := m.searchQuery
	if query == "" {
		query = "(none)"
	}
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Candidates %d | filter=%s | search='%s'", len(filtered), m.filter.label(), query)))
	b.WriteString("\n")

	visible := 20
	if m.height > 0 {
		visible = m.height - 9
		if visible < 1 {
			visible = 1
		}
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(filtered) {
		end = len(filtered)
	}

	if len(filtered) == 0 {
		b.WriteString("  (none)\n")
	}
	for pos := start; pos < end; pos++ {
		idx := filtered[pos]
		item := m.items[idx]

		marker := "  "
		if pos == m.cursor {
			marker = "> "
		}
		checkbox := "[ ]"
		if m.selected[idx] {
			checkbox = "[x]"
		}
		label := item.Kind
		if item.State == CandidateDeleted {
			label = "deleted"
		}

		row := fmt.Sprintf("%s%s (%s) %s", marker, checkbox, label, item.RelPath)
		switch {
		case item.State == CandidateDeleted:
			row = deletedStyle.Render(row)
		case pos == m.cursor:
			row = cursorStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(messageStyle.Render(m.message))
	b.WriteString("\n")
	b.WriteString(m.footerLine())
	b.WriteString("\n")
	return b.String()
}

// footerLine shows the pending approval prompt, the live search input,
// or the selection count.
func (m Model) footerLine() string {
	switch m.pending {
	case pendingDelete:
		return promptStyle.Render("Approve delete: press y to confirm, n/Esc to cancel.")
	case pendingEmptyTrash:
		return promptStyle.Render("Approve empty trash: press y to confirm, n/Esc to cancel.")
	case pendingRestorePrevious:
		return promptStyle.Render("Approve restore previous session: press y to confirm, n/Esc to cancel.")
	case pendingRestoreAll:
		return promptStyle.Render("Approve restore ALL sessions: press y to confirm, n/Esc to cancel.")
	}
	if m.editingSearch {
		return "Search input: " + m.searchInput.View()
	}
	return fmt.Sprintf("Selected: %d", len(m.selected))
}

func sectionList(b *strings.Builder, title string, lines []string, limit int) {
	b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", title, len(lines))))
	b.WriteString("\n")
	if len(lines) == 0 {
		b.WriteString("  (none)\n\n")
		return
	}
	if len(lines) > limit {
		lines = lines[:limit]
	}
	for _, line := range lines {
		b.WriteString("  - " + line + "\n")
	}
	b.WriteString("\n")
}

func findingSubjects(findings []models.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Subject)
	}
	return out
}

func exportLines(findings []models.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.File+" -> "+f.Symbol)
	}
	return out
}
