// Package unused finds files, assets, dependencies, and exports that
// nothing in a JS/TS workspace uses. Detection is conservative: a weak
// signal (dynamic import, broad glob, unresolved alias) keeps a subject
// alive or lowers the finding's confidence, never the other way around.
package unused

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/deadwood-io/deadwood/internal/fileproc"
	"github.com/deadwood-io/deadwood/internal/scanner"
	"github.com/deadwood-io/deadwood/pkg/analyzer"
	"github.com/deadwood-io/deadwood/pkg/config"
	"github.com/deadwood-io/deadwood/pkg/models"
)

// Analyzer runs the full unused-code analysis over one workspace root.
type Analyzer struct {
	cfg *config.Config

	entries              []string
	assetRoots           []string
	includeNonProdDeps   bool
	includeLowConfidence bool
	maxFileSize          int64
}

// Compile-time check that Analyzer implements WorkspaceAnalyzer.
var _ analyzer.WorkspaceAnalyzer[*models.Report] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithConfig applies a loaded configuration. Its analysis settings seed
// the analyzer; later options override individual fields.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		if cfg == nil {
			return
		}
		a.cfg = cfg
		a.entries = cfg.Analysis.Entries
		a.assetRoots = cfg.Analysis.AssetRoots
		a.includeNonProdDeps = cfg.Analysis.IncludeNonProdDeps
		a.includeLowConfidence = cfg.Analysis.IncludeLowConfidence
		a.maxFileSize = cfg.Analysis.MaxFileSize
	}
}

// WithEntries sets explicit entry points, workspace-relative. When any
// are given, manifest and convention discovery are skipped and an entry
// that resolves to nothing is a hard error.
func WithEntries(entries ...string) Option {
	return func(a *Analyzer) {
		a.entries = entries
	}
}

// WithAssetRoots restricts asset accounting to these directory
// prefixes: assets outside them are never reported, references outside
// them never count.
func WithAssetRoots(roots ...string) Option {
	return func(a *Analyzer) {
		a.assetRoots = roots
	}
}

// WithIncludeNonProdDeps also checks dev, peer, and optional
// dependencies. By default only production dependencies are reported.
func WithIncludeNonProdDeps() Option {
	return func(a *Analyzer) {
		a.includeNonProdDeps = true
	}
}

// WithIncludeLowConfidence keeps low-confidence findings in the report.
// By default they are omitted and only counted.
func WithIncludeLowConfidence() Option {
	return func(a *Analyzer) {
		a.includeLowConfidence = true
	}
}

// WithMaxFileSize skips source files larger than maxSize bytes
// (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// New creates an unused-code analyzer with default options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg: config.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Analyze scans the workspace rooted at root and reports everything
// nothing uses. The workspace is never modified.
func (a *Analyzer) Analyze(ctx context.Context, root string) (*models.Report, error) {
	start := time.Now()

	inv, err := scanner.NewScanner(a.cfg).ScanDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	report := models.NewReport()
	report.Root = inv.Root
	report.AddWarning("Analysis is conservative by default to minimize false positives.")

	assets := scanner.FilterAssetsByRoots(inv.Assets(), a.assetRoots)
	if len(a.assetRoots) > 0 && len(assets) == 0 {
		report.AddWarning("No assets matched --asset-roots filter; asset findings may be empty.")
	}

	facts, err := a.parseSources(ctx, inv, report)
	if err != nil {
		return nil, err
	}

	r := NewResolver(inv.Root, inv)

	entries, entryWarnings, err := DiscoverEntries(inv.Root, inv, r, a.entries)
	if err != nil {
		return nil, err
	}
	for _, w := range entryWarnings {
		report.AddWarning(w)
	}
	if entries.Degraded() {
		report.AddWarning("No entry files discovered. Pass --entry to improve unused file accuracy.")
	}

	ig := buildImportGraph(inv, r, facts)
	reach := ig.traverse(entries)

	unresolved := ig.unresolvedFrom(reach.full)
	maybeUsed := inferMaybeUsed(inv.Sources(), unresolved)
	if len(unresolved) > 0 {
		report.AddWarning(fmt.Sprintf(
			"Skipped high-risk findings because %d local/alias imports could not be resolved.",
			len(unresolved)))
		if len(maybeUsed) > 0 {
			report.AddWarning(fmt.Sprintf(
				"Suppressed unused-export findings for %d files potentially referenced by unresolved imports.",
				len(maybeUsed)))
		}
	}

	dynPrefixes, unanchored := ig.dynPrefixesFrom(reach.full)
	if unanchored > 0 {
		report.AddWarning(fmt.Sprintf(
			"%d dynamic imports have no literal prefix; files they load cannot be traced.",
			unanchored))
	}

	graphConf := models.GraphHigh
	switch {
	case entries.Degraded():
		graphConf = models.GraphDegraded
	case len(unresolved) > 0:
		graphConf = models.GraphLow
	}

	a.reportDependencies(report, inv, ig, reach, graphConf)
	a.reportFiles(report, inv, ig, reach, maybeUsed, dynPrefixes, graphConf)
	assetUsage := a.reportAssets(report, inv, facts, graphConf)

	// Exports are always computed so the omitted count stays honest, but
	// the advisory warnings only make sense next to visible findings.
	verdicts := detectUnusedExports(facts, r, ig, reach, entries, maybeUsed)
	a.reportExports(report, verdicts, graphConf)
	if graphConf == models.GraphHigh || a.includeLowConfidence {
		for _, w := range verdicts.barrelWarnings {
			report.AddWarning(w)
		}
		if verdicts.suppressed > 0 {
			report.AddWarning(fmt.Sprintf(
				"Suppressed %d unused-export findings because the symbol appears in other reachable files.",
				verdicts.suppressed))
		}
	} else {
		report.AddWarning("unused_files and unused_exports omitted (use --include-low-confidence to force).")
		report.AddWarning("unused_assets omitted because graph confidence is low (use --include-low-confidence to force).")
	}

	report.Entries = entries.Rels()
	report.Summary.TotalSourceFiles = len(inv.Sources())
	report.Summary.TotalAssetFiles = len(assets)
	report.Summary.TotalReachableFiles = len(ig.reachedFiles(reach.full))
	report.Summary.TotalEntries = len(entries.Entries)
	report.Summary.UnresolvedLocalImports = len(unresolved)
	report.Summary.GraphConfidence = graphConf
	report.Summary.UsedAssets = len(assetUsage.used)
	report.Summary.CalculateCoverage()
	report.Summary.Fingerprint = fingerprint(inv, facts)
	report.Summary.DurationMS = time.Since(start).Milliseconds()

	return report, nil
}

// Close releases any resources held by the analyzer.
func (a *Analyzer) Close() {
}

// parseSources reads and parses every source file concurrently. Read
// failures degrade to warnings: the file stays in the inventory as a
// node with no facts, so it can still be reported, just never vouch for
// anything. Progress is reported through the context tracker when the
// caller installed one.
func (a *Analyzer) parseSources(ctx context.Context, inv *scanner.Inventory, report *models.Report) (map[string]*ParsedFacts, error) {
	kept, skipped := scanner.FilterBySize(inv.Sources(), a.maxFileSize)
	if skipped > 0 {
		report.AddWarning(fmt.Sprintf("Skipped %d source files larger than %d bytes.", skipped, a.maxFileSize))
	}

	paths := make([]string, len(kept))
	for i, f := range kept {
		paths[i] = f.Abs
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(paths))
	}

	type parsed struct {
		abs   string
		facts *ParsedFacts
	}

	results, errs := fileproc.ForEachFileWithContext(ctx, paths, func(path string) (parsed, error) {
		if tracker != nil {
			defer tracker.Tick(path)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return parsed{}, err
		}
		pf := parseSource(string(raw))
		return parsed{abs: path, facts: &pf}, nil
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs != nil {
		report.AddWarning(fmt.Sprintf(
			"%d source files could not be read; their imports are invisible to the graph.",
			len(errs.Errors)))
	}

	facts := make(map[string]*ParsedFacts, len(results))
	for _, p := range results {
		f, ok := inv.LookupAbs(p.abs)
		if !ok {
			continue
		}
		p.facts.File = f
		facts[p.abs] = p.facts
	}
	return facts, nil
}

// reportDependencies checks manifest-declared packages against the
// sentinel nodes the traversal reached. Dependencies are checked even
// when graph confidence is low: package names in import statements
// survive resolution failures.
func (a *Analyzer) reportDependencies(report *models.Report, inv *scanner.Inventory, ig *importGraph, reach reachability, graphConf models.GraphConfidence) {
	declared, err := collectDeclaredDependencies(inv.ManifestPath())
	if err != nil {
		report.AddWarning(fmt.Sprintf("package.json could not be parsed: %v", err))
		return
	}

	used := ig.usedPackages(reach.full)
	for _, name := range detectUnusedDependencies(declared, used, a.includeNonProdDeps) {
		f := models.Finding{
			Subject:    name,
			Kind:       models.KindUnusedDependency,
			Confidence: models.ConfidenceHigh,
			Reason:     "declared in package.json but imported by no reachable file",
		}
		if graphConf == models.GraphDegraded {
			f.Confidence = models.ConfidenceLow
			f.Reason = "declared in package.json, but with no entry points usage cannot be proven"
		}
		a.emit(report, f)
	}
}

// reportFiles turns unreached source files into findings. Test files
// are implicit entries, config files belong to tools, so neither is
// ever reported.
func (a *Analyzer) reportFiles(report *models.Report, inv *scanner.Inventory, ig *importGraph, reach reachability, maybeUsed map[string]bool, dynPrefixes []string, graphConf models.GraphConfidence) {
	for _, f := range inv.Sources() {
		if ig.fileReached(reach.full, f.Abs) {
			continue
		}
		if scanner.IsTestLikePath(f.Rel) || scanner.IsConfigLikePath(f.Rel) {
			continue
		}

		finding := models.Finding{
			Subject:    f.Rel,
			Kind:       models.KindUnusedFile,
			Confidence: models.ConfidenceHigh,
			Reason:     "not reachable from any entry point",
		}
		switch {
		case maybeUsed[f.Abs]:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "not reachable, but an unresolved import may point at it"
		case ig.broadGlobCovers(f.Rel):
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "not reachable, but a broad glob pattern could match it"
		case anyPrefixCovers(dynPrefixes, f.Rel):
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "not reachable, but a dynamic import prefix could cover it"
		case graphConf == models.GraphDegraded:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "not reachable, but no entry points were found"
		case graphConf == models.GraphLow:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "not reachable, but unresolved imports lower graph confidence"
		}
		a.emit(report, finding)
	}
}

// reportAssets records used assets and turns the rest into findings.
func (a *Analyzer) reportAssets(report *models.Report, inv *scanner.Inventory, facts map[string]*ParsedFacts, graphConf models.GraphConfidence) assetVerdicts {
	verdicts := detectUnusedAssets(inv, facts, a.assetRoots)
	report.UsedAssets = append(report.UsedAssets, verdicts.used...)

	for _, av := range verdicts.findings {
		finding := models.Finding{
			Subject:    av.Rel,
			Kind:       models.KindUnusedAsset,
			Confidence: models.ConfidenceHigh,
			Reason:     "referenced by no string literal in any source file",
		}
		switch {
		case av.GlobOnly:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "matched only by a glob pattern, never by a literal reference"
		case graphConf == models.GraphDegraded:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "unreferenced, but with no entry points usage cannot be proven"
		case graphConf == models.GraphLow:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "unreferenced, but unresolved imports lower graph confidence"
		}
		a.emit(report, finding)
	}

	return verdicts
}

// reportExports turns export verdicts into findings.
func (a *Analyzer) reportExports(report *models.Report, verdicts exportVerdicts, graphConf models.GraphConfidence) {
	for _, ev := range verdicts.findings {
		finding := models.Finding{
			Subject:    ev.File + "#" + ev.Symbol,
			Kind:       models.KindUnusedExport,
			Confidence: models.ConfidenceHigh,
			Reason:     "exported but imported by no file in the workspace",
			File:       ev.File,
			Symbol:     ev.Symbol,
		}
		switch {
		case ev.ReexportOnly:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "declaring file is alive only through re-export chains"
		case graphConf == models.GraphDegraded:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "unimported, but with no entry points usage cannot be proven"
		case graphConf == models.GraphLow:
			finding.Confidence = models.ConfidenceLow
			finding.Reason = "unimported, but unresolved imports lower graph confidence"
		}
		a.emit(report, finding)
	}
}

// emit adds a finding to the report, or counts it as omitted when it is
// low confidence and the caller did not opt in.
func (a *Analyzer) emit(report *models.Report, f models.Finding) {
	if f.Confidence == models.ConfidenceLow && !a.includeLowConfidence {
		report.Summary.OmittedLowConfidence++
		return
	}
	report.Add(f)
}

func anyPrefixCovers(prefixes []string, rel string) bool {
	for _, p := range prefixes {
		if prefixCovers(p, rel) {
			return true
		}
	}
	return false
}

// fingerprint hashes the inventory so two runs over an unchanged
// workspace produce the same value: source files contribute their
// content hash, assets their size.
func fingerprint(inv *scanner.Inventory, facts map[string]*ParsedFacts) string {
	digest := xxhash.New()
	for _, f := range inv.Files {
		switch f.Kind {
		case scanner.KindSource:
			var h uint64
			if pf := facts[f.Abs]; pf != nil {
				h = pf.ContentHash
			}
			fmt.Fprintf(digest, "%s:%016x\n", f.Rel, h)
		case scanner.KindAsset:
			fmt.Fprintf(digest, "%s:%d\n", f.Rel, f.Size)
		}
	}
	return fmt.Sprintf("%016x", digest.Sum64())
}
