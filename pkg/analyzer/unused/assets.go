package unused

import (
	"path"
	"sort"
	"strings"

	"github.com/deadwood-io/deadwood/internal/scanner"
)

// UnusedAssetFinding is one asset file with no trustworthy reference.
// GlobOnly marks assets vouched for solely by a glob or interpolated
// pattern that could cover them.
type UnusedAssetFinding struct {
	Rel      string
	GlobOnly bool
}

// assetVerdicts is the asset usage detection result. Both slices come
// out in inventory order, which is sorted by rel path.
type assetVerdicts struct {
	used     []string
	findings []UnusedAssetFinding
}

// detectUnusedAssets matches every asset in the inventory against the
// string references collected during parsing. A literal match counts as
// used. A glob that could cover the asset is not proof either way, so
// the asset surfaces as a low-trust finding, even under public/. With
// no reference at all, public/ assets are used by convention (served
// verbatim) and everything else is an unused finding.
func detectUnusedAssets(inv *scanner.Inventory, facts map[string]*ParsedFacts, assetRoots []string) assetVerdicts {
	assets := scanner.FilterAssetsByRoots(inv.Assets(), assetRoots)
	literals, globPatterns := collectAssetReferences(facts, assetRoots)

	globs := make([]assetGlob, len(globPatterns))
	for i, pattern := range globPatterns {
		globs[i] = compileAssetGlob(pattern)
	}

	var out assetVerdicts
	for _, asset := range assets {
		cands := assetCandidates(asset.Rel)

		hit := false
		for _, c := range cands {
			if _, ok := literals[c]; ok {
				hit = true
				break
			}
		}
		if hit {
			out.used = append(out.used, asset.Rel)
			continue
		}

		filename := path.Base(asset.Rel)
		couldMatch := false
		for _, g := range globs {
			if g.couldMatch(cands, filename) {
				couldMatch = true
				break
			}
		}
		if couldMatch {
			out.findings = append(out.findings, UnusedAssetFinding{Rel: asset.Rel, GlobOnly: true})
			continue
		}

		if scanner.IsPublicPath(asset.Rel) {
			out.used = append(out.used, asset.Rel)
			continue
		}

		out.findings = append(out.findings, UnusedAssetFinding{Rel: asset.Rel})
	}

	return out
}

// collectAssetReferences gathers the literal and glob references from
// every parsed file. When asset roots are configured, a reference only
// participates if some normalized variant of it falls under a root.
func collectAssetReferences(facts map[string]*ParsedFacts, assetRoots []string) (map[string]struct{}, []string) {
	var roots []string
	for _, r := range assetRoots {
		if norm := scanner.NormalizeAssetRoot(r); norm != "" {
			roots = append(roots, norm)
		}
	}

	literals := make(map[string]struct{})
	globSet := make(map[string]struct{})

	for _, pf := range facts {
		for _, ref := range pf.Assets {
			if len(roots) > 0 && !underAnyRoot(specVariants(ref.Raw), roots) {
				continue
			}
			if ref.Glob {
				globSet[ref.Raw] = struct{}{}
			} else {
				literals[ref.Raw] = struct{}{}
			}
		}
	}

	globs := make([]string, 0, len(globSet))
	for g := range globSet {
		globs = append(globs, g)
	}
	sort.Strings(globs)
	return literals, globs
}

// assetCandidates returns the literal strings that would address the
// asset at rel: the path itself and slash-rooted, the same with a
// leading src/ or public/ stripped, and the bare filename.
func assetCandidates(rel string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}

	add(rel)
	add("/" + rel)
	if stripped, ok := strings.CutPrefix(rel, "src/"); ok {
		add(stripped)
		add("/" + stripped)
	}
	if stripped, ok := strings.CutPrefix(rel, "public/"); ok {
		add(stripped)
		add("/" + stripped)
	}
	add(path.Base(rel))
	return out
}

// specVariants returns the normalized forms of a reference spec: the
// spec itself, with one leading route marker (/, ./, @/, ~/) removed,
// and each of those with a leading src/ removed.
func specVariants(spec string) []string {
	s := strings.ReplaceAll(strings.TrimSpace(spec), "\\", "/")

	base := []string{s}
	for _, prefix := range []string{"/", "./", "@/", "~/"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			base = append(base, rest)
		}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, v := range base {
		for _, w := range []string{v, strings.TrimPrefix(v, "src/")} {
			if w == "" {
				continue
			}
			if _, dup := seen[w]; !dup {
				seen[w] = struct{}{}
				out = append(out, w)
			}
		}
	}
	return out
}

func underAnyRoot(variants []string, roots []string) bool {
	for _, root := range roots {
		for _, v := range variants {
			if v == root || strings.HasPrefix(v, root+"/") {
				return true
			}
		}
	}
	return false
}

// assetGlob is a compiled glob reference: one matcher per spec variant,
// plus the basename segment when it carries a wildcard. The basename
// check is deliberately loose; a glob ending in a wildcard could address
// any file whose name fits, wherever the alias in its prefix points.
type assetGlob struct {
	matchers []relMatcher
	baseSeg  string
}

func compileAssetGlob(pattern string) assetGlob {
	g := assetGlob{}
	for _, v := range specVariants(pattern) {
		g.matchers = append(g.matchers, compileRelPattern(v))
	}
	if base := path.Base(pattern); strings.Contains(base, "*") {
		g.baseSeg = base
	}
	return g
}

func (g assetGlob) couldMatch(cands []string, filename string) bool {
	for _, rm := range g.matchers {
		for _, c := range cands {
			if rm.matches(strings.TrimPrefix(c, "/")) {
				return true
			}
		}
	}
	if g.baseSeg != "" {
		if ok, err := path.Match(g.baseSeg, filename); err == nil && ok {
			return true
		}
	}
	return false
}
