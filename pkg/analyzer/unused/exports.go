package unused

import (
	"fmt"
	"sort"

	"github.com/deadwood-io/deadwood/internal/scanner"
)

// exportUsage accumulates the observed usage of one file's exports
// across every import site in the workspace.
type exportUsage struct {
	all         bool // a namespace import consumes every export
	reexportAll bool // some file wildcard re-exports this one
	defaultUsed bool
	names       map[string]struct{}
}

func (u *exportUsage) nameUsed(symbol string) bool {
	_, ok := u.names[symbol]
	return ok
}

// UnusedExportFinding is one exported symbol with no observed import
// site. ReexportOnly marks symbols declared in files alive solely
// through barrel chains, where transitive consumption cannot be ruled
// out statically.
type UnusedExportFinding struct {
	File         string
	Symbol       string
	ReexportOnly bool
}

// exportVerdicts is the unused-export detection result: findings plus
// the bookkeeping the report surfaces as warnings.
type exportVerdicts struct {
	findings       []UnusedExportFinding
	suppressed     int
	barrelWarnings []string
}

// collectExportUsage indexes which exports each file's import sites
// consume, keyed by resolved target. Re-export records are not usage
// sites of their own target: a re-exported symbol only counts as used
// when some import site mentions that name. The returned name set holds
// every symbol imported anywhere, which gates wildcard re-exports in
// the verdict loop.
func collectExportUsage(facts map[string]*ParsedFacts, r *Resolver) (map[string]*exportUsage, map[string]struct{}) {
	usage := make(map[string]*exportUsage)
	importedNames := make(map[string]struct{})

	slot := func(abs string) *exportUsage {
		u := usage[abs]
		if u == nil {
			u = &exportUsage{names: make(map[string]struct{})}
			usage[abs] = u
		}
		return u
	}

	for abs, pf := range facts {
		for _, edge := range pf.Imports {
			if edge.SideEffect || edge.Kind == EdgeReexport || edge.Kind == EdgeGlob {
				continue
			}

			for _, name := range edge.Symbols {
				importedNames[name] = struct{}{}
			}
			if edge.Default {
				importedNames["default"] = struct{}{}
			}

			target, ok := r.Resolve(abs, edge.Spec)
			if !ok {
				continue
			}
			u := slot(target.Abs)
			if edge.Wildcard {
				u.all = true
			}
			if edge.Default {
				u.defaultUsed = true
			}
			for _, name := range edge.Symbols {
				u.names[name] = struct{}{}
			}
		}
	}

	// Named re-exports mark a symbol used on the target only when that
	// name is imported somewhere. Wildcard re-exports set a flag the
	// verdict loop checks per symbol.
	for abs, pf := range facts {
		for _, edge := range pf.Imports {
			if edge.Kind != EdgeReexport {
				continue
			}
			target, ok := r.Resolve(abs, edge.Spec)
			if !ok {
				continue
			}
			u := slot(target.Abs)
			if edge.Wildcard {
				u.reexportAll = true
			}
			if edge.Default {
				u.defaultUsed = true
			}
			for _, name := range edge.Symbols {
				if _, imported := importedNames[name]; imported {
					u.names[name] = struct{}{}
				}
			}
		}
	}

	return usage, importedNames
}

// detectUnusedExports reports exported symbols of reached files that no
// import site consumes. Entry files, test files, and files plausibly
// referenced by unresolved imports are skipped outright. Before a
// symbol becomes a finding it must also be absent, as a bare token,
// from every other file: first within the reachable set, then across
// the whole workspace. That token pass is deliberately crude; it trades
// precision for never flagging a symbol consumed through a pattern the
// parser does not model.
func detectUnusedExports(
	facts map[string]*ParsedFacts,
	r *Resolver,
	ig *importGraph,
	reach reachability,
	entries EntrySet,
	maybeUsed map[string]bool,
) exportVerdicts {
	usage, importedNames := collectExportUsage(facts, r)

	entrySet := make(map[string]struct{}, len(entries.Entries))
	for _, abs := range entries.Paths() {
		entrySet[abs] = struct{}{}
	}

	allFacts := make([]*ParsedFacts, 0, len(facts))
	var reachableFacts []*ParsedFacts
	for abs, pf := range facts {
		allFacts = append(allFacts, pf)
		if ig.fileReached(reach.full, abs) {
			reachableFacts = append(reachableFacts, pf)
		}
	}
	reachableCounts := countTokens(reachableFacts)
	globalCounts := countTokens(allFacts)

	var out exportVerdicts
	for abs, pf := range facts {
		if !ig.fileReached(reach.full, abs) {
			continue
		}
		if maybeUsed[abs] {
			continue
		}
		if _, isEntry := entrySet[abs]; isEntry {
			continue
		}
		rel := pf.File.Rel
		if scanner.IsTestLikePath(rel) {
			continue
		}

		u := usage[abs]
		if u == nil {
			u = &exportUsage{}
		}

		reexportOnly := !ig.fileReached(reach.direct, abs)

		if !u.all {
			for _, decl := range pf.Exports {
				if decl.Kind == ExportDefault {
					continue
				}
				if appearsBeyondDeclaring(reachableCounts, len(reachableFacts), decl.Symbol) {
					out.suppressed++
					continue
				}
				if appearsBeyondDeclaring(globalCounts, len(allFacts), decl.Symbol) {
					out.suppressed++
					continue
				}
				if u.nameUsed(decl.Symbol) {
					continue
				}
				if u.reexportAll {
					if _, imported := importedNames[decl.Symbol]; imported {
						continue
					}
				}
				out.findings = append(out.findings, UnusedExportFinding{
					File:         rel,
					Symbol:       decl.Symbol,
					ReexportOnly: reexportOnly,
				})
			}

			if hasDefaultExport(pf) && !u.defaultUsed {
				out.findings = append(out.findings, UnusedExportFinding{
					File:         rel,
					Symbol:       "default",
					ReexportOnly: reexportOnly,
				})
			}
		}

		if pf.HasExportAll && !u.all {
			out.barrelWarnings = append(out.barrelWarnings,
				fmt.Sprintf("%s re-exports '*' and may need manual verification.", rel))
		}
	}

	sort.Slice(out.findings, func(i, j int) bool {
		if out.findings[i].File != out.findings[j].File {
			return out.findings[i].File < out.findings[j].File
		}
		return out.findings[i].Symbol < out.findings[j].Symbol
	})
	dedup := out.findings[:0]
	for i, f := range out.findings {
		if i == 0 || f.File != out.findings[i-1].File || f.Symbol != out.findings[i-1].Symbol {
			dedup = append(dedup, f)
		}
	}
	out.findings = dedup

	sort.Strings(out.barrelWarnings)
	return out
}

func hasDefaultExport(pf *ParsedFacts) bool {
	for _, decl := range pf.Exports {
		if decl.Kind == ExportDefault {
			return true
		}
	}
	return false
}
