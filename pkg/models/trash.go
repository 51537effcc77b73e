package models

import "time"

// TrashSession is one approved delete batch: the files moved out of the
// project by a single committed deletion, restorable as a unit.
type TrashSession struct {
	ID        string       `json:"id"` // batch-<unix-ms>
	CreatedAt time.Time    `json:"created_at"`
	Entries   []TrashEntry `json:"entries"`
}

// TrashEntry maps one trashed file back to its original location.
type TrashEntry struct {
	OriginalPath string `json:"original_path"` // workspace-relative
	TrashedPath  string `json:"trashed_path"`  // absolute, inside the trash area
}

// Outcome is the per-item result of a mutating trash operation. Batch
// operations return one outcome per selected item, never a single
// aggregate verdict.
type Outcome struct {
	Path   string `json:"path"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"` // failure cause, empty on success
}

// Succeeded counts the successful outcomes.
func Succeeded(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.OK {
			n++
		}
	}
	return n
}

// Failed counts the failed outcomes.
func Failed(outcomes []Outcome) int {
	return len(outcomes) - Succeeded(outcomes)
}
