// Package dashboard is the interactive terminal UI over an analysis
// report: a summary page and a delete page where unused files and
// assets are selected, moved to the trash, and restored. Destructive
// actions pass through an explicit pending-approval step; canceling
// returns to browsing with no effect.
package dashboard

import (
	"os"
	"sort"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/deadwood-io/deadwood/internal/trash"
	"github.com/deadwood-io/deadwood/pkg/models"
)

// Page selects which screen the dashboard shows.
type Page int

const (
	PageSummary Page = iota
	PageDelete
)

// CandidateState tracks whether a candidate row is live in the
// workspace or currently sitting in the trash.
type CandidateState int

const (
	CandidateActive CandidateState = iota
	CandidateDeleted
)

// Candidate is one deletable row on the delete page. Deleted rows stay
// listed so they remain addressable for restore.
type Candidate struct {
	RelPath string
	Kind    string // trash.KindFile or trash.KindAsset
	State   CandidateState
}

// pendingAction is a requested destructive operation awaiting explicit
// approval with y. Any other answer cancels it.
type pendingAction int

const (
	pendingNone pendingAction = iota
	pendingDelete
	pendingEmptyTrash
	pendingRestorePrevious
	pendingRestoreAll
)

// Filter restricts the candidate list by kind.
type Filter int

const (
	FilterAll Filter = iota
	FilterFiles
	FilterAssets
)

func (f Filter) next() Filter {
	switch f {
	case FilterAll:
		return FilterFiles
	case FilterFiles:
		return FilterAssets
	default:
		return FilterAll
	}
}

func (f Filter) label() string {
	switch f {
	case FilterFiles:
		return "files"
	case FilterAssets:
		return "assets"
	default:
		return "all"
	}
}

// Model holds the dashboard state. All filesystem mutation goes through
// the trash handle; the model only rearranges rows and messages.
type Model struct {
	report *models.Report
	trash  *trash.Trash

	page     Page
	items    []Candidate
	selected map[int]bool
	cursor   int
	pending  pendingAction
	filter   Filter

	searchQuery   string
	searchInput   textinput.Model
	editingSearch bool

	message string
	width   int
	height  int
}

// New builds the dashboard over a report and a trash handle. Candidate
// rows cover the report's unused files and assets plus anything still
// in the trash from earlier runs, so trashed files stay addressable.
func New(report *models.Report, tr *trash.Trash) Model {
	ti := textinput.New()
	ti.Placeholder = "substring, glob, or re:pattern"
	ti.CharLimit = 200
	ti.Width = 40

	m := Model{
		report:      report,
		trash:       tr,
		page:        PageSummary,
		items:       buildCandidates(report),
		selected:    make(map[int]bool),
		searchInput: ti,
		message:     "Select unused files/assets, then press x and confirm with y.",
	}
	m.hydrateFromTrash()
	return m
}

// Run starts the dashboard and blocks until the user quits.
func Run(report *models.Report, tr *trash.Trash) error {
	p := tea.NewProgram(New(report, tr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// buildCandidates lists the report's unused files and assets as
// deletable rows, sorted by path. Dependencies and exports are not
// files and never become candidates.
func buildCandidates(report *models.Report) []Candidate {
	var items []Candidate
	for _, f := range report.UnusedFiles {
		items = append(items, Candidate{RelPath: f.Subject, Kind: trash.KindFile})
	}
	for _, f := range report.UnusedAssets {
		items = append(items, Candidate{RelPath: f.Subject, Kind: trash.KindAsset})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].RelPath < items[j].RelPath })
	return items
}

// hydrateFromTrash folds previously trashed files into the candidate
// list so earlier sessions show up, marked deleted, once the user
// searches for them.
func (m *Model) hydrateFromTrash() {
	entries, err := m.trash.TrashedEntries()
	if err != nil {
		return
	}
	for _, e := range entries {
		state := CandidateDeleted
		if _, statErr := os.Stat(e.OriginalAbs); statErr == nil {
			state = CandidateActive
		}
		m.upsert(e.RelPath, e.Kind, state)
	}
	m.sortItems()
	m.clampCursor()
}

// upsert updates the state of an existing row or appends a new one.
func (m *Model) upsert(relPath, kind string, state CandidateState) {
	for i := range m.items {
		if m.items[i].RelPath == relPath && m.items[i].Kind == kind {
			m.items[i].State = state
			return
		}
	}
	m.items = append(m.items, Candidate{RelPath: relPath, Kind: kind, State: state})
}

// sortItems orders rows by path then kind. Selections index into the
// row slice, so callers clear the selection after sorting.
func (m *Model) sortItems() {
	sort.Slice(m.items, func(i, j int) bool {
		if m.items[i].RelPath != m.items[j].RelPath {
			return m.items[i].RelPath < m.items[j].RelPath
		}
		return m.items[i].Kind < m.items[j].Kind
	})
}

// filteredIndices returns the item indices the current filter and
// search allow. Deleted rows stay hidden unless the user is actively
// searching, which keeps the default list equal to the live report.
func (m Model) filteredIndices() []int {
	query := m.searchQuery
	matcher := trash.BuildMatcher(query)
	var out []int
	for i, item := range m.items {
		if item.State == CandidateDeleted && query == "" {
			continue
		}
		switch m.filter {
		case FilterFiles:
			if item.Kind != trash.KindFile {
				continue
			}
		case FilterAssets:
			if item.Kind != trash.KindAsset {
				continue
			}
		}
		if query != "" && !matcher.Matches(item.RelPath) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// clampCursor keeps the cursor inside the filtered list.
func (m *Model) clampCursor() {
	n := len(m.filteredIndices())
	if n == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
}
