package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"

	"github.com/deadwood-io/deadwood/pkg/models"
)

// ScanReport renders one analysis report. Text output follows the
// classic flat layout, markdown gets tables, and JSON/TOON serialize
// the report model itself.
type ScanReport struct {
	Report *models.Report
}

// NewScanReport wraps a report for the Formatter.
func NewScanReport(r *models.Report) *ScanReport {
	return &ScanReport{Report: r}
}

func (s *ScanReport) RenderData() any {
	return s.Report
}

func (s *ScanReport) RenderText(w io.Writer, colored bool) error {
	r := s.Report
	header := fmt.Fprintln
	if colored {
		bold := color.New(color.Bold)
		header = func(w io.Writer, args ...any) (int, error) {
			return bold.Fprintln(w, args...)
		}
	}

	fmt.Fprintf(w, "Root: %s\n", r.Root)

	fmt.Fprintln(w)
	header(w, "Summary:")
	fmt.Fprintf(w, "  - Total source files: %d\n", r.Summary.TotalSourceFiles)
	fmt.Fprintf(w, "  - Total asset files: %d\n", r.Summary.TotalAssetFiles)
	fmt.Fprintf(w, "  - Reachable source files: %d\n", r.Summary.TotalReachableFiles)
	fmt.Fprintf(w, "  - Source coverage: %.1f%%\n", r.Summary.CoveragePct)
	fmt.Fprintf(w, "  - Entry files: %d\n", r.Summary.TotalEntries)
	fmt.Fprintf(w, "  - Unresolved local imports: %d\n", r.Summary.UnresolvedLocalImports)
	fmt.Fprintf(w, "  - Graph confidence: %s\n", r.Summary.GraphConfidence)
	fmt.Fprintf(w, "  - Omitted low-confidence findings: %d\n", r.Summary.OmittedLowConfidence)
	fmt.Fprintf(w, "  - Unused files: %d\n", r.Summary.UnusedFiles)
	fmt.Fprintf(w, "  - Used assets: %d\n", r.Summary.UsedAssets)
	fmt.Fprintf(w, "  - Unused assets: %d\n", r.Summary.UnusedAssets)
	fmt.Fprintf(w, "  - Asset usage coverage: %.1f%%\n", r.Summary.AssetCoveragePct)
	fmt.Fprintf(w, "  - Unused dependencies: %d\n", r.Summary.UnusedDependencies)
	fmt.Fprintf(w, "  - Unused exports: %d\n", r.Summary.UnusedExports)

	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "Entries: (none detected)")
	} else {
		header(w, "Entries:")
		for _, entry := range r.Entries {
			fmt.Fprintf(w, "  - %s\n", entry)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		header(w, "Warnings:")
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}

	fmt.Fprintln(w)
	header(w, fmt.Sprintf("Unused files (%d):", len(r.UnusedFiles)))
	writeFindingLines(w, r.UnusedFiles)

	fmt.Fprintln(w)
	header(w, fmt.Sprintf("Used assets (%d):", len(r.UsedAssets)))
	for _, path := range r.UsedAssets {
		fmt.Fprintf(w, "  - %s\n", path)
	}

	fmt.Fprintln(w)
	header(w, fmt.Sprintf("Unused assets (%d):", len(r.UnusedAssets)))
	writeFindingLines(w, r.UnusedAssets)

	fmt.Fprintln(w)
	header(w, fmt.Sprintf("Unused dependencies (%d):", len(r.UnusedDependencies)))
	writeFindingLines(w, r.UnusedDependencies)

	fmt.Fprintln(w)
	header(w, fmt.Sprintf("Unused exports (%d):", len(r.UnusedExports)))
	for _, group := range groupExportsByFile(r.UnusedExports) {
		fmt.Fprintf(w, "  - %s\n", group.file)
		for _, symbol := range group.symbols {
			fmt.Fprintf(w, "      - %s\n", symbol)
		}
	}

	return nil
}

// writeFindingLines prints one bullet per finding; low-confidence
// findings carry their reason inline.
func writeFindingLines(w io.Writer, findings []models.Finding) {
	for _, f := range findings {
		if f.Confidence == models.ConfidenceLow {
			fmt.Fprintf(w, "  - %s (low confidence: %s)\n", f.Subject, f.Reason)
			continue
		}
		fmt.Fprintf(w, "  - %s\n", f.Subject)
	}
}

type exportGroup struct {
	file    string
	symbols []string
}

// groupExportsByFile buckets export findings under their declaring file,
// files in sorted order.
func groupExportsByFile(findings []models.Finding) []exportGroup {
	byFile := make(map[string][]string)
	for _, f := range findings {
		byFile[f.File] = append(byFile[f.File], f.Symbol)
	}
	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	groups := make([]exportGroup, 0, len(files))
	for _, file := range files {
		groups = append(groups, exportGroup{file: file, symbols: byFile[file]})
	}
	return groups
}

func (s *ScanReport) RenderMarkdown(w io.Writer) error {
	r := s.Report

	fmt.Fprintf(w, "# Unused code report\n\n")
	fmt.Fprintf(w, "Root: `%s`\n\n", r.Root)

	summary := NewTable("Summary",
		[]string{"Metric", "Value"},
		[][]string{
			{"Total source files", strconv.Itoa(r.Summary.TotalSourceFiles)},
			{"Total asset files", strconv.Itoa(r.Summary.TotalAssetFiles)},
			{"Reachable source files", strconv.Itoa(r.Summary.TotalReachableFiles)},
			{"Source coverage", fmt.Sprintf("%.1f%%", r.Summary.CoveragePct)},
			{"Entry files", strconv.Itoa(r.Summary.TotalEntries)},
			{"Unresolved local imports", strconv.Itoa(r.Summary.UnresolvedLocalImports)},
			{"Graph confidence", string(r.Summary.GraphConfidence)},
			{"Omitted low-confidence findings", strconv.Itoa(r.Summary.OmittedLowConfidence)},
			{"Unused files", strconv.Itoa(r.Summary.UnusedFiles)},
			{"Used assets", strconv.Itoa(r.Summary.UsedAssets)},
			{"Unused assets", strconv.Itoa(r.Summary.UnusedAssets)},
			{"Asset usage coverage", fmt.Sprintf("%.1f%%", r.Summary.AssetCoveragePct)},
			{"Unused dependencies", strconv.Itoa(r.Summary.UnusedDependencies)},
			{"Unused exports", strconv.Itoa(r.Summary.UnusedExports)},
		}, nil, nil)
	if err := summary.RenderMarkdown(w); err != nil {
		return err
	}

	fmt.Fprintf(w, "## Entry points (%d)\n\n", len(r.Entries))
	writeMarkdownList(w, r.Entries)

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "## Warnings (%d)\n\n", len(r.Warnings))
		writeMarkdownList(w, r.Warnings)
	}

	if err := renderFindingTable(w, fmt.Sprintf("Unused files (%d)", len(r.UnusedFiles)), "Path", r.UnusedFiles); err != nil {
		return err
	}
	if err := renderFindingTable(w, fmt.Sprintf("Unused assets (%d)", len(r.UnusedAssets)), "Path", r.UnusedAssets); err != nil {
		return err
	}
	if err := renderFindingTable(w, fmt.Sprintf("Unused dependencies (%d)", len(r.UnusedDependencies)), "Package", r.UnusedDependencies); err != nil {
		return err
	}

	fmt.Fprintf(w, "## Unused exports (%d)\n\n", len(r.UnusedExports))
	if len(r.UnusedExports) == 0 {
		fmt.Fprintf(w, "_(none)_\n\n")
	} else {
		rows := make([][]string, 0, len(r.UnusedExports))
		for _, f := range r.UnusedExports {
			rows = append(rows, []string{f.File, f.Symbol, string(f.Confidence), f.Reason})
		}
		table := NewTable("", []string{"File", "Export", "Confidence", "Reason"}, rows, nil, nil)
		if err := table.RenderMarkdown(w); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "## Used assets (%d)\n\n", len(r.UsedAssets))
	writeMarkdownList(w, r.UsedAssets)

	return nil
}

func renderFindingTable(w io.Writer, title, subjectHeader string, findings []models.Finding) error {
	fmt.Fprintf(w, "## %s\n\n", title)
	if len(findings) == 0 {
		fmt.Fprintf(w, "_(none)_\n\n")
		return nil
	}
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{f.Subject, string(f.Confidence), f.Reason})
	}
	table := NewTable("", []string{subjectHeader, "Confidence", "Reason"}, rows, nil, nil)
	return table.RenderMarkdown(w)
}

func writeMarkdownList(w io.Writer, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "_(none)_\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "- %s\n", item)
	}
	fmt.Fprintln(w)
}
