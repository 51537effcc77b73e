package models

import (
	"encoding/json"
	"testing"
)

func TestNewReport(t *testing.T) {
	r := NewReport()

	if r.UnusedFiles == nil || r.UnusedAssets == nil || r.UnusedDependencies == nil || r.UnusedExports == nil {
		t.Error("findings lists should be initialized")
	}
	if r.TotalFindings() != 0 {
		t.Errorf("TotalFindings = %d, expected 0", r.TotalFindings())
	}
}

func TestReport_Add(t *testing.T) {
	r := NewReport()

	r.Add(Finding{Subject: "src/dead.ts", Kind: KindUnusedFile, Confidence: ConfidenceHigh})
	r.Add(Finding{Subject: "img/old.png", Kind: KindUnusedAsset, Confidence: ConfidenceHigh})
	r.Add(Finding{Subject: "lodash", Kind: KindUnusedDependency, Confidence: ConfidenceHigh})
	r.Add(Finding{Subject: "src/util.ts#helper", Kind: KindUnusedExport, Confidence: ConfidenceLow, File: "src/util.ts", Symbol: "helper"})

	if len(r.UnusedFiles) != 1 || r.Summary.UnusedFiles != 1 {
		t.Errorf("unused files: list %d summary %d, expected 1/1", len(r.UnusedFiles), r.Summary.UnusedFiles)
	}
	if len(r.UnusedAssets) != 1 || r.Summary.UnusedAssets != 1 {
		t.Errorf("unused assets: list %d summary %d, expected 1/1", len(r.UnusedAssets), r.Summary.UnusedAssets)
	}
	if len(r.UnusedDependencies) != 1 || r.Summary.UnusedDependencies != 1 {
		t.Errorf("unused dependencies: list %d summary %d, expected 1/1", len(r.UnusedDependencies), r.Summary.UnusedDependencies)
	}
	if len(r.UnusedExports) != 1 || r.Summary.UnusedExports != 1 {
		t.Errorf("unused exports: list %d summary %d, expected 1/1", len(r.UnusedExports), r.Summary.UnusedExports)
	}
	if r.TotalFindings() != 4 {
		t.Errorf("TotalFindings = %d, expected 4", r.TotalFindings())
	}
	if got := len(r.AllFindings()); got != 4 {
		t.Errorf("AllFindings returned %d findings, expected 4", got)
	}
}

func TestSummary_CalculateCoverage(t *testing.T) {
	s := Summary{
		TotalSourceFiles:    10,
		TotalReachableFiles: 8,
		TotalAssetFiles:     4,
		UsedAssets:          3,
	}
	s.CalculateCoverage()

	if s.CoveragePct != 80.0 {
		t.Errorf("CoveragePct = %v, expected 80", s.CoveragePct)
	}
	if s.AssetCoveragePct != 75.0 {
		t.Errorf("AssetCoveragePct = %v, expected 75", s.AssetCoveragePct)
	}

	// Zero totals must not divide by zero.
	empty := Summary{}
	empty.CalculateCoverage()
	if empty.CoveragePct != 0 || empty.AssetCoveragePct != 0 {
		t.Error("empty summary coverage should stay 0")
	}
}

func TestReportJSONShape(t *testing.T) {
	r := NewReport()
	r.Root = "/work/app"
	r.Summary.GraphConfidence = GraphHigh
	r.Add(Finding{Subject: "src/dead.ts", Kind: KindUnusedFile, Confidence: ConfidenceHigh, Reason: "not reachable from any entry"})

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"root", "summary", "entries", "used_assets", "unused_files", "unused_assets", "unused_dependencies", "unused_exports"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report JSON missing key %q", key)
		}
	}
}

func TestTrashSessionHelpers(t *testing.T) {
	outcomes := []Outcome{
		{Path: "a.ts", OK: true},
		{Path: "b.ts", OK: false, Detail: "destination exists"},
		{Path: "c.ts", OK: true},
	}

	if got := Succeeded(outcomes); got != 2 {
		t.Errorf("Succeeded = %d, expected 2", got)
	}
	if got := Failed(outcomes); got != 1 {
		t.Errorf("Failed = %d, expected 1", got)
	}
}
