package unused

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/deadwood-io/deadwood/internal/scanner"
)

// edgeMeta aggregates every import record between one ordered node pair.
type edgeMeta struct {
	nonReexport bool
}

// resolvedGlob is a glob import mapped to a root-relative pattern.
type resolvedGlob struct {
	fromAbs string
	pattern string
	broad   bool // wildcard crosses path components (**)
}

// resolvedPrefix is a non-literal dynamic call anchored to a
// root-relative directory prefix. An empty prefix means the call gave no
// usable anchor at all.
type resolvedPrefix struct {
	fromAbs   string
	relPrefix string
}

// importGraph is the workspace module graph: one node per source file
// and one sentinel node per external package, edges importer to
// imported.
type importGraph struct {
	inv      *scanner.Inventory
	resolver *Resolver

	g      *simple.DirectedGraph
	fileID map[string]int64
	pkgID  map[string]int64
	files  map[int64]scanner.File
	pkgs   map[int64]string
	meta   map[int64]map[int64]*edgeMeta
	next   int64

	unresolvedByFile map[string][]UnresolvedImport
	globs            []resolvedGlob
	prefixes         []resolvedPrefix
}

// buildImportGraph wires every parsed file into the graph. Facts are
// keyed by absolute path; files without facts contribute no edges.
func buildImportGraph(inv *scanner.Inventory, r *Resolver, facts map[string]*ParsedFacts) *importGraph {
	ig := &importGraph{
		inv:              inv,
		resolver:         r,
		g:                simple.NewDirectedGraph(),
		fileID:           make(map[string]int64),
		pkgID:            make(map[string]int64),
		files:            make(map[int64]scanner.File),
		pkgs:             make(map[int64]string),
		meta:             make(map[int64]map[int64]*edgeMeta),
		unresolvedByFile: make(map[string][]UnresolvedImport),
	}

	// Nodes first, in Rel order, so ids are deterministic.
	for _, f := range inv.Sources() {
		ig.addFileNode(f)
	}
	for _, f := range inv.Sources() {
		if pf := facts[f.Abs]; pf != nil {
			ig.wireFile(f, pf)
		}
	}

	return ig
}

func (ig *importGraph) addFileNode(f scanner.File) int64 {
	if id, ok := ig.fileID[f.Abs]; ok {
		return id
	}
	id := ig.next
	ig.next++
	ig.g.AddNode(simple.Node(id))
	ig.fileID[f.Abs] = id
	ig.files[id] = f
	return id
}

func (ig *importGraph) packageNode(name string) int64 {
	if id, ok := ig.pkgID[name]; ok {
		return id
	}
	id := ig.next
	ig.next++
	ig.g.AddNode(simple.Node(id))
	ig.pkgID[name] = id
	ig.pkgs[id] = name
	return id
}

func (ig *importGraph) wireFile(f scanner.File, pf *ParsedFacts) {
	fromID := ig.fileID[f.Abs]

	for _, edge := range pf.Imports {
		if edge.Kind == EdgeGlob {
			ig.wireGlob(f, fromID, edge)
			continue
		}

		if target, ok := ig.resolver.Resolve(f.Abs, edge.Spec); ok {
			ig.connect(fromID, ig.fileID[target.Abs], edge.Kind != EdgeReexport)
			continue
		}

		spec := normalizeSpecifier(edge.Spec)
		if spec == "" {
			continue
		}

		// Package classification and unresolved accounting are not
		// exclusive: an alias-shaped specifier with no live target
		// counts as both.
		if looksLikePackageSpecifier(spec) {
			ig.connect(fromID, ig.packageNode(packageName(spec)), edge.Kind != EdgeReexport)
		}

		if ig.resolver.IsLikelyLocal(spec) && !ig.resolver.LocalExists(f.Abs, spec) {
			ig.unresolvedByFile[f.Abs] = append(ig.unresolvedByFile[f.Abs], UnresolvedImport{
				FromFile: f.Rel,
				Spec:     edge.Spec,
			})
		}
	}

	for _, dyn := range pf.Dynamics {
		ig.prefixes = append(ig.prefixes, resolvedPrefix{
			fromAbs:   f.Abs,
			relPrefix: ig.resolveDynPrefix(f, dyn.Prefix),
		})
	}
}

// wireGlob expands a glob import against the inventory: every matched
// source file gets an edge. The pattern is also retained for the
// could-match confidence checks.
func (ig *importGraph) wireGlob(f scanner.File, fromID int64, edge ImportEdge) {
	pattern := ig.rootRelPattern(f, edge.Spec)
	if pattern == "" {
		return
	}

	ig.globs = append(ig.globs, resolvedGlob{
		fromAbs: f.Abs,
		pattern: pattern,
		broad:   strings.Contains(pattern, "**"),
	})

	matcher := compileRelPattern(pattern)
	for _, target := range ig.inv.Sources() {
		if target.Abs == f.Abs {
			continue
		}
		if matcher.matches(target.Rel) {
			ig.connect(fromID, ig.fileID[target.Abs], edge.Kind != EdgeReexport)
		}
	}
}

func (ig *importGraph) connect(from, to int64, nonReexport bool) {
	if from == to {
		return
	}

	row := ig.meta[from]
	if row == nil {
		row = make(map[int64]*edgeMeta)
		ig.meta[from] = row
	}
	m := row[to]
	if m == nil {
		m = &edgeMeta{}
		row[to] = m
	}
	if nonReexport {
		m.nonReexport = true
	}

	ig.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
}

// rootRelPattern maps a glob specifier to a root-relative slash pattern:
// relative against the importer's dir, root-absolute against the root,
// alias-substituted otherwise. Bare patterns are taken as root-relative.
func (ig *importGraph) rootRelPattern(f scanner.File, spec string) string {
	s := strings.ReplaceAll(strings.TrimSpace(spec), "\\", "/")
	if s == "" {
		return ""
	}

	if isRelativeSpecifier(s) {
		joined := path.Join(path.Dir(f.Rel), s)
		if joined == "." || strings.HasPrefix(joined, "../") {
			return ""
		}
		return joined
	}

	if strings.HasPrefix(s, "/") {
		return strings.TrimPrefix(path.Clean(s), "/")
	}

	for _, rule := range ig.resolver.aliases {
		star, ok := matchAlias(rule.key, s)
		if !ok {
			continue
		}
		abs := filepath.Join(rule.baseDir, applyAliasTarget(rule.target, star))
		rel := scanner.Rel(ig.inv.Root, abs)
		if rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
			continue
		}
		return rel
	}

	return s
}

// resolveDynPrefix anchors a dynamic-call literal prefix to a
// root-relative directory, or "" when it cannot be anchored.
func (ig *importGraph) resolveDynPrefix(f scanner.File, prefix string) string {
	p := strings.ReplaceAll(strings.TrimSpace(prefix), "\\", "/")
	if p == "" {
		return ""
	}

	if isRelativeSpecifier(p) {
		joined := path.Join(path.Dir(f.Rel), p)
		if joined == "." || strings.HasPrefix(joined, "../") {
			return ""
		}
		return joined
	}

	if strings.HasPrefix(p, "/") {
		return strings.TrimPrefix(path.Clean(p), "/")
	}

	for _, rule := range ig.resolver.aliases {
		star, ok := matchAlias(rule.key, p)
		if !ok {
			continue
		}
		abs := filepath.Join(rule.baseDir, applyAliasTarget(rule.target, star))
		rel := scanner.Rel(ig.inv.Root, abs)
		if rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
			continue
		}
		return rel
	}

	if looksLikePackageSpecifier(p) {
		return ""
	}
	return path.Clean(p)
}

// relMatcher matches root-relative paths with glob semantics: * stays
// within a path component, ** crosses components. The pattern-matching
// core treats a fully-matched pattern as a directory prefix, so patterns
// without ** additionally pin the exact depth.
type relMatcher struct {
	m     gitignore.Pattern
	depth int // -1 when the pattern contains **
}

func compileRelPattern(pattern string) relMatcher {
	anchored := pattern
	if !strings.Contains(anchored, "/") {
		anchored = "/" + anchored
	}

	depth := -1
	if !strings.Contains(pattern, "**") {
		depth = len(strings.Split(strings.TrimPrefix(pattern, "/"), "/"))
	}

	return relMatcher{m: gitignore.ParsePattern(anchored, nil), depth: depth}
}

func (rm relMatcher) matches(rel string) bool {
	parts := strings.Split(rel, "/")
	if rm.depth >= 0 && len(parts) != rm.depth {
		return false
	}
	return rm.m.Match(parts, false) == gitignore.Exclude
}

// reachability holds the two traversals: full, and one that refuses
// pure re-export edges. Files present only in the full set are alive
// solely through barrel chains.
type reachability struct {
	full   *roaring.Bitmap
	direct *roaring.Bitmap
}

func (ig *importGraph) traverse(entries EntrySet) reachability {
	return reachability{
		full: ig.walk(entries, nil),
		direct: ig.walk(entries, func(from, to int64) bool {
			m := ig.meta[from][to]
			return m != nil && m.nonReexport
		}),
	}
}

func (ig *importGraph) walk(entries EntrySet, allow func(from, to int64) bool) *roaring.Bitmap {
	seen := roaring.New()
	bf := traverse.BreadthFirst{
		Visit: func(n gonumgraph.Node) { seen.Add(uint32(n.ID())) },
	}
	if allow != nil {
		bf.Traverse = func(e gonumgraph.Edge) bool {
			return allow(e.From().ID(), e.To().ID())
		}
	}

	for _, entry := range entries.Entries {
		id, ok := ig.fileID[entry.Abs]
		if !ok {
			continue
		}
		if seen.Contains(uint32(id)) {
			continue
		}
		bf.Walk(ig.g, simple.Node(id), nil)
	}

	return seen
}

func (ig *importGraph) fileReached(bm *roaring.Bitmap, abs string) bool {
	id, ok := ig.fileID[abs]
	return ok && bm.Contains(uint32(id))
}

// reachedFiles returns the source files in the bitmap, in Rel order.
func (ig *importGraph) reachedFiles(bm *roaring.Bitmap) []scanner.File {
	var out []scanner.File
	for id, f := range ig.files {
		if bm.Contains(uint32(id)) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out
}

// usedPackages returns the external packages imported by any file in
// the bitmap.
func (ig *importGraph) usedPackages(bm *roaring.Bitmap) map[string]bool {
	out := make(map[string]bool)
	for name, id := range ig.pkgID {
		if bm.Contains(uint32(id)) {
			out[name] = true
		}
	}
	return out
}

// unresolvedFrom collects the unresolved local imports originating in
// reached files, sorted and deduplicated.
func (ig *importGraph) unresolvedFrom(bm *roaring.Bitmap) []UnresolvedImport {
	var out []UnresolvedImport
	for abs, items := range ig.unresolvedByFile {
		if ig.fileReached(bm, abs) {
			out = append(out, items...)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FromFile != out[j].FromFile {
			return out[i].FromFile < out[j].FromFile
		}
		return out[i].Spec < out[j].Spec
	})

	dedup := out[:0]
	for i, item := range out {
		if i == 0 || item != out[i-1] {
			dedup = append(dedup, item)
		}
	}
	return dedup
}

// dynPrefixesFrom returns the anchored dynamic prefixes originating in
// reached files, and the count of dynamics with no anchor at all.
func (ig *importGraph) dynPrefixesFrom(bm *roaring.Bitmap) (prefixes []string, unanchored int) {
	seen := make(map[string]struct{})
	for _, p := range ig.prefixes {
		if !ig.fileReached(bm, p.fromAbs) {
			continue
		}
		if p.relPrefix == "" {
			unanchored++
			continue
		}
		if _, dup := seen[p.relPrefix]; !dup {
			seen[p.relPrefix] = struct{}{}
			prefixes = append(prefixes, p.relPrefix)
		}
	}
	sort.Strings(prefixes)
	return prefixes, unanchored
}

// broadGlobCovers reports whether any component-crossing glob pattern
// matches the path. Narrow globs resolve to real edges, so they never
// vouch for an unreached file.
func (ig *importGraph) broadGlobCovers(rel string) bool {
	for _, g := range ig.globs {
		if !g.broad {
			continue
		}
		if compileRelPattern(g.pattern).matches(rel) {
			return true
		}
	}
	return false
}

func prefixCovers(relPrefix, rel string) bool {
	return relPrefix != "" && (rel == relPrefix || strings.HasPrefix(rel, relPrefix+"/"))
}

// inferMaybeUsed returns files plausibly referenced by unresolved
// imports, matched by path suffix or bare leaf name. These files keep
// their export findings suppressed.
func inferMaybeUsed(files []scanner.File, unresolved []UnresolvedImport) map[string]bool {
	out := make(map[string]bool)
	if len(unresolved) == 0 {
		return out
	}

	type fileIndex struct {
		abs      string
		rel      string
		relNoExt string
		stem     string
	}
	index := make([]fileIndex, 0, len(files))
	for _, f := range files {
		base := path.Base(f.Rel)
		index = append(index, fileIndex{
			abs:      f.Abs,
			rel:      f.Rel,
			relNoExt: stripFileExtension(f.Rel),
			stem:     strings.TrimSuffix(base, path.Ext(base)),
		})
	}

	for _, item := range unresolved {
		suffixes := unresolvedSpecifierSuffixes(item.Spec)
		leaf, hasLeaf := unresolvedLeafName(item.Spec)

		for _, f := range index {
			matched := false
			for _, suffix := range suffixes {
				if f.relNoExt == suffix ||
					strings.HasSuffix(f.relNoExt, "/"+suffix) ||
					strings.HasSuffix(f.rel, "/"+suffix) ||
					strings.HasSuffix(f.relNoExt, "/"+suffix+"/index") {
					matched = true
					break
				}
			}
			if matched {
				out[f.abs] = true
				continue
			}
			if hasLeaf && f.stem == leaf {
				out[f.abs] = true
			}
		}
	}

	return out
}

// unresolvedSpecifierSuffixes derives the path suffixes an unresolved
// specifier could refer to, with alias and src prefixes stripped.
func unresolvedSpecifierSuffixes(spec string) []string {
	clean := spec
	if left, _, ok := strings.Cut(clean, "?"); ok {
		clean = left
	}
	if idx := strings.Index(clean, "#"); idx > 0 {
		clean = clean[:idx]
	}
	clean = strings.ReplaceAll(clean, "\\", "/")

	set := make(map[string]struct{})
	base := strings.TrimSpace(clean)
	for {
		if rest, ok := strings.CutPrefix(base, "./"); ok {
			base = rest
			continue
		}
		if rest, ok := strings.CutPrefix(base, "../"); ok {
			base = rest
			continue
		}
		break
	}

	if stripped, ok := strings.CutPrefix(base, "/"); ok {
		set[stripped] = struct{}{}
	}
	set[base] = struct{}{}
	if stripped, ok := strings.CutPrefix(base, "@/"); ok {
		set[stripped] = struct{}{}
	}
	if stripped, ok := strings.CutPrefix(base, "~/"); ok {
		set[stripped] = struct{}{}
	}
	if stripped, ok := strings.CutPrefix(base, "#"); ok {
		set[stripped] = struct{}{}
	}
	if strings.HasPrefix(base, "@") {
		if _, rest, ok := strings.Cut(base, "/"); ok {
			set[rest] = struct{}{}
		}
	}
	if stripped, ok := strings.CutPrefix(base, "src/"); ok {
		set[stripped] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for s := range set {
		if s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// unresolvedLeafName extracts the final path segment of a specifier
// without its extension, when one exists.
func unresolvedLeafName(spec string) (string, bool) {
	clean := spec
	if left, _, ok := strings.Cut(clean, "?"); ok {
		clean = left
	}
	if idx := strings.Index(clean, "#"); idx > 0 {
		clean = clean[:idx]
	}
	clean = strings.ReplaceAll(clean, "\\", "/")

	var leaf string
	for _, seg := range strings.Split(clean, "/") {
		if seg != "" {
			leaf = seg
		}
	}
	if leaf == "" || leaf == "." || leaf == ".." {
		return "", false
	}
	return stripFileExtension(leaf), true
}
