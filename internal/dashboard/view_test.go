package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deadwood-io/deadwood/pkg/models"
)

func TestViewSummaryPage(t *testing.T) {
	root, tr := newDashboardWorkspace(t, nil)
	report := reportFor(root, []string{"src/dead.js"}, []string{"img/old.png"})
	report.Entries = append(report.Entries, "src/index.ts")
	report.Summary.TotalSourceFiles = 10
	report.Summary.TotalReachableFiles = 9
	report.Summary.TotalEntries = 1
	report.Summary.GraphConfidence = models.GraphHigh
	report.Add(models.Finding{Subject: "lodash", Kind: models.KindUnusedDependency, Confidence: models.ConfidenceHigh})
	report.Add(models.Finding{
		Subject: "src/util.ts#helper",
		Kind:    models.KindUnusedExport,
		File:    "src/util.ts",
		Symbol:  "helper",
	})

	out := New(report, tr).View()

	assert.Contains(t, out, "deadwood summary | "+root)
	assert.Contains(t, out, "source files:           10")
	assert.Contains(t, out, "graph confidence:       high")
	assert.Contains(t, out, "src/index.ts")
	assert.Contains(t, out, "- lodash")
	assert.Contains(t, out, "- src/util.ts -> helper")
	assert.Contains(t, out, "Warnings (0)")
	assert.Contains(t, out, "(none)")
}

func TestViewDeletePage(t *testing.T) {
	root, tr := newDashboardWorkspace(t, nil)
	m := New(reportFor(root, []string{"src/a.js"}, []string{"img/logo.png"}), tr)
	m = press(t, m, "d")

	out := m.View()
	assert.Contains(t, out, "Delete page: select unused files/assets only")
	assert.Contains(t, out, "Candidates 2 | filter=all | search='(none)'")
	assert.Contains(t, out, "> [ ] (asset) img/logo.png")
	assert.Contains(t, out, "  [ ] (file) src/a.js")
	assert.Contains(t, out, "Selected: 0")
}

func TestViewDeletePageMarksDeletedRows(t *testing.T) {
	root, tr := newDashboardWorkspace(t, nil)
	m := New(reportFor(root, []string{"src/a.js"}, nil), tr)
	m = press(t, m, "d", "space")

	m.items[0].State = CandidateDeleted
	m.searchQuery = "src"
	out := m.View()
	assert.Contains(t, out, "(deleted) src/a.js")
}

func TestViewDeletePagePendingPrompt(t *testing.T) {
	root, tr := newDashboardWorkspace(t, nil)
	m := New(reportFor(root, []string{"src/a.js"}, nil), tr)
	m = press(t, m, "d", "space", "x")

	out := m.View()
	assert.Contains(t, out, "Approve delete: press y to confirm, n/Esc to cancel.")
	assert.Contains(t, out, "Confirm delete 1 selected files?")
}

func TestViewDeletePageSearchInput(t *testing.T) {
	root, tr := newDashboardWorkspace(t, nil)
	m := New(reportFor(root, []string{"src/a.js"}, nil), tr)
	m = press(t, m, "d", "/")
	m = typeText(t, m, "a.js")

	out := m.View()
	assert.Contains(t, out, "Search input:")
	assert.Contains(t, out, "a.js")
}

func TestViewDeletePageWindowFollowsCursor(t *testing.T) {
	root, tr := newDashboardWorkspace(t, nil)
	var files []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files = append(files, "src/"+name+".js")
	}
	m := New(reportFor(root, files, nil), tr)
	m = press(t, m, "d")
	m.height = 12 // three visible rows
	m = press(t, m, "j", "j", "j", "j")

	out := m.View()
	assert.NotContains(t, out, "src/a.js")
	assert.Contains(t, out, "> [ ] (file) src/e.js")
	assert.Contains(t, out, "src/c.js")
}

func TestViewEmptyCandidateList(t *testing.T) {
	root, tr := newDashboardWorkspace(t, nil)
	m := New(reportFor(root, nil, nil), tr)
	m = press(t, m, "d")

	out := m.View()
	assert.Contains(t, out, "Candidates 0")
	assert.Contains(t, out, "(none)")
}
