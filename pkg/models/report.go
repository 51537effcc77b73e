package models

// FindingKind identifies what sort of unused subject a finding reports.
type FindingKind string

const (
	KindUnusedFile       FindingKind = "unused-file"
	KindUnusedAsset      FindingKind = "unused-asset"
	KindUnusedDependency FindingKind = "unused-dependency"
	KindUnusedExport     FindingKind = "unused-export"
)

// String returns the string representation.
func (k FindingKind) String() string {
	return string(k)
}

// Confidence is the qualitative trust level attached to a finding.
// High findings rest only on statically certain signals; Low findings
// involve at least one ambiguous signal (dynamic import, broad glob,
// unresolved alias, degraded entry set).
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// String returns the string representation.
func (c Confidence) String() string {
	return string(c)
}

// Finding is one reported unused-subject verdict. Findings are immutable
// once produced; consumers filter them, never mutate them.
type Finding struct {
	Subject    string      `json:"subject"` // rel path, package name, or file#symbol
	Kind       FindingKind `json:"kind"`
	Confidence Confidence  `json:"confidence"`
	Reason     string      `json:"reason"`
	File       string      `json:"file,omitempty"`   // declaring file, for exports
	Symbol     string      `json:"symbol,omitempty"` // exported symbol name
}

// GraphConfidence describes how trustworthy the whole reachability graph is.
type GraphConfidence string

const (
	// GraphHigh means every local import resolved to an inventory file.
	GraphHigh GraphConfidence = "high"
	// GraphLow means at least one local import could not be resolved, so
	// unreached files may actually be alive through paths the analysis
	// cannot see.
	GraphLow GraphConfidence = "low"
	// GraphDegraded means no entry points were found; every verdict is
	// capped at low confidence.
	GraphDegraded GraphConfidence = "degraded"
)

// Summary provides aggregate statistics for one analysis run.
type Summary struct {
	TotalSourceFiles       int             `json:"total_source_files"`
	TotalAssetFiles        int             `json:"total_asset_files"`
	TotalReachableFiles    int             `json:"total_reachable_files"`
	TotalEntries           int             `json:"total_entries"`
	UnresolvedLocalImports int             `json:"unresolved_local_imports"`
	GraphConfidence        GraphConfidence `json:"graph_confidence"`
	CoveragePct            float64         `json:"coverage_pct"`
	UnusedFiles            int             `json:"unused_files"`
	UsedAssets             int             `json:"used_assets"`
	UnusedAssets           int             `json:"unused_assets"`
	AssetCoveragePct       float64         `json:"asset_coverage_pct"`
	UnusedDependencies     int             `json:"unused_dependencies"`
	UnusedExports          int             `json:"unused_exports"`
	OmittedLowConfidence   int             `json:"omitted_low_confidence"`
	Fingerprint            string          `json:"fingerprint"`
	DurationMS             int64           `json:"duration_ms"`
}

// CalculateCoverage computes the file and asset coverage percentages.
func (s *Summary) CalculateCoverage() {
	if s.TotalSourceFiles > 0 {
		s.CoveragePct = float64(s.TotalReachableFiles) / float64(s.TotalSourceFiles) * 100
	}
	if s.TotalAssetFiles > 0 {
		s.AssetCoveragePct = float64(s.UsedAssets) / float64(s.TotalAssetFiles) * 100
	}
}

// Report is the full analysis result: a summary plus one findings list
// per finding kind, and any non-fatal warnings raised along the way.
type Report struct {
	Root               string    `json:"root"`
	Summary            Summary   `json:"summary"`
	Entries            []string  `json:"entries"`
	UsedAssets         []string  `json:"used_assets"`
	UnusedFiles        []Finding `json:"unused_files"`
	UnusedAssets       []Finding `json:"unused_assets"`
	UnusedDependencies []Finding `json:"unused_dependencies"`
	UnusedExports      []Finding `json:"unused_exports"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// NewReport creates a report with initialized findings lists.
func NewReport() *Report {
	return &Report{
		Entries:            make([]string, 0),
		UsedAssets:         make([]string, 0),
		UnusedFiles:        make([]Finding, 0),
		UnusedAssets:       make([]Finding, 0),
		UnusedDependencies: make([]Finding, 0),
		UnusedExports:      make([]Finding, 0),
	}
}

// Add appends a finding to the list matching its kind and updates the
// summary counters.
func (r *Report) Add(f Finding) {
	switch f.Kind {
	case KindUnusedFile:
		r.UnusedFiles = append(r.UnusedFiles, f)
		r.Summary.UnusedFiles++
	case KindUnusedAsset:
		r.UnusedAssets = append(r.UnusedAssets, f)
		r.Summary.UnusedAssets++
	case KindUnusedDependency:
		r.UnusedDependencies = append(r.UnusedDependencies, f)
		r.Summary.UnusedDependencies++
	case KindUnusedExport:
		r.UnusedExports = append(r.UnusedExports, f)
		r.Summary.UnusedExports++
	}
}

// AddWarning records a non-fatal anomaly observed during analysis.
func (r *Report) AddWarning(w string) {
	r.Warnings = append(r.Warnings, w)
}

// TotalFindings returns the number of findings across all kinds.
func (r *Report) TotalFindings() int {
	return len(r.UnusedFiles) + len(r.UnusedAssets) + len(r.UnusedDependencies) + len(r.UnusedExports)
}

// AllFindings returns every finding in kind order. The slice is freshly
// allocated; mutating it does not affect the report.
func (r *Report) AllFindings() []Finding {
	out := make([]Finding, 0, r.TotalFindings())
	out = append(out, r.UnusedFiles...)
	out = append(out, r.UnusedAssets...)
	out = append(out, r.UnusedDependencies...)
	out = append(out, r.UnusedExports...)
	return out
}
