package unused

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deadwood-io/deadwood/internal/scanner"
)

// sourceProbeExtensions are tried, in order, when a specifier has no
// extension. Framework single-file components come last so plain js/ts
// wins when both exist.
var sourceProbeExtensions = []string{"js", "jsx", "ts", "tsx", "mjs", "cjs", "vue", "svelte"}

var localProbeExtensions = buildLocalProbeExtensions()

func buildLocalProbeExtensions() []string {
	out := append([]string{}, sourceProbeExtensions...)
	out = append(out, "json")
	return append(out, scanner.AssetExtensions()...)
}

type aliasRule struct {
	key     string
	target  string
	baseDir string
}

// Resolver maps import specifiers to workspace files. It understands
// relative imports, root-absolute imports, tsconfig path aliases, and
// baseUrl-style root imports, in that order.
type Resolver struct {
	root     string
	inv      *scanner.Inventory
	baseDirs []string
	aliases  []aliasRule
}

// NewResolver builds a resolver for the inventory's workspace, folding
// in every tsconfig reachable from the root seeds.
func NewResolver(root string, inv *scanner.Inventory) *Resolver {
	r := &Resolver{
		root:     root,
		inv:      inv,
		baseDirs: []string{root, filepath.Join(root, "src")},
	}

	for _, configPath := range discoverTsconfigs(root) {
		applyCompilerOptions(configPath, r)
	}
	r.baseDirs = dedupPaths(r.baseDirs)

	// Most specific rule first: exact keys beat wildcards, longer
	// literal prefixes beat shorter ones. Targets of one key keep their
	// declaration order.
	sort.SliceStable(r.aliases, func(i, j int) bool {
		return aliasSpecificity(r.aliases[i].key) > aliasSpecificity(r.aliases[j].key)
	})

	return r
}

func aliasSpecificity(key string) int {
	prefix, _, hasStar := strings.Cut(key, "*")
	if !hasStar {
		return len(key) + 1<<16
	}
	return len(prefix)
}

// Resolve maps a specifier from the importing file to an inventory
// file. A false result means the specifier is a package, a miss, or an
// alias with no live target.
func (r *Resolver) Resolve(fromAbs, specifier string) (scanner.File, bool) {
	normalized := normalizeSpecifier(specifier)
	if normalized == "" {
		return scanner.File{}, false
	}

	if isRelativeSpecifier(normalized) {
		return r.lookupCandidate(filepath.Join(filepath.Dir(fromAbs), normalized))
	}

	if trimmed, ok := strings.CutPrefix(normalized, "/"); ok {
		return r.lookupCandidate(filepath.Join(r.root, trimmed))
	}

	for _, rule := range r.aliases {
		if star, ok := matchAlias(rule.key, normalized); ok {
			target := applyAliasTarget(rule.target, star)
			if f, ok := r.lookupCandidate(filepath.Join(rule.baseDir, target)); ok {
				return f, true
			}
		}
	}

	// Root imports through baseUrl, e.g. import x from "utils/foo".
	if !looksLikePackageSpecifier(normalized) {
		for _, base := range r.baseDirs {
			if f, ok := r.lookupCandidate(filepath.Join(base, normalized)); ok {
				return f, true
			}
		}
	}

	return scanner.File{}, false
}

// IsLikelyLocal reports whether a specifier points into the workspace
// rather than at a package. Dotted bare names count as local, they are
// usually root aliases or extensionful paths.
func (r *Resolver) IsLikelyLocal(specifier string) bool {
	normalized := normalizeSpecifier(specifier)
	if normalized == "" {
		return false
	}

	if isRelativeSpecifier(normalized) || strings.HasPrefix(normalized, "/") {
		return true
	}

	for _, rule := range r.aliases {
		if _, ok := matchAlias(rule.key, normalized); ok {
			return true
		}
	}

	return !looksLikePackageSpecifier(normalized)
}

// LocalExists reports whether the specifier lands on anything on disk.
// Unlike Resolve it probes json, styles, and asset extensions too, so an
// import of a non-source file does not read as a broken import.
func (r *Resolver) LocalExists(fromAbs, specifier string) bool {
	normalized := normalizeSpecifier(specifier)
	if normalized == "" {
		return false
	}

	if isRelativeSpecifier(normalized) {
		return anyCandidateExists(filepath.Join(filepath.Dir(fromAbs), normalized))
	}

	if trimmed, ok := strings.CutPrefix(normalized, "/"); ok {
		return anyCandidateExists(filepath.Join(r.root, trimmed))
	}

	for _, rule := range r.aliases {
		if star, ok := matchAlias(rule.key, normalized); ok {
			if anyCandidateExists(filepath.Join(rule.baseDir, applyAliasTarget(rule.target, star))) {
				return true
			}
		}
	}

	if !looksLikePackageSpecifier(normalized) {
		for _, base := range r.baseDirs {
			if anyCandidateExists(filepath.Join(base, normalized)) {
				return true
			}
		}
	}

	return false
}

// lookupCandidate probes the raw path, extension variants, then index
// files, returning the first probe that lands on an inventory source
// file. Imports of json, styles, and assets never resolve here; they are
// covered by LocalExists so they do not read as broken imports.
func (r *Resolver) lookupCandidate(raw string) (scanner.File, bool) {
	for _, candidate := range candidatePaths(raw, sourceProbeExtensions) {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		f, ok := r.inv.LookupAbs(canonicalizePath(candidate))
		if ok && f.Kind == scanner.KindSource {
			return f, true
		}
	}
	return scanner.File{}, false
}

func anyCandidateExists(raw string) bool {
	for _, candidate := range candidatePaths(raw, localProbeExtensions) {
		if _, err := os.Stat(candidate); err == nil {
			return true
		}
	}
	return false
}

func candidatePaths(raw string, exts []string) []string {
	if hasExtension(raw) {
		return []string{raw}
	}

	out := make([]string, 0, 1+2*len(exts))
	out = append(out, raw)
	for _, ext := range exts {
		out = append(out, raw+"."+ext)
	}
	for _, ext := range exts {
		out = append(out, filepath.Join(raw, "index."+ext))
	}
	return out
}

// normalizeSpecifier trims whitespace and drops query strings and hash
// fragments, e.g. "./logo.svg?react". A leading '#' is a subpath-import
// prefix, not a fragment, and survives.
func normalizeSpecifier(specifier string) string {
	out := strings.TrimSpace(specifier)
	if out == "" {
		return out
	}

	if left, _, ok := strings.Cut(out, "?"); ok {
		out = left
	}
	if idx := strings.Index(out, "#"); idx > 0 {
		out = out[:idx]
	}

	return strings.TrimSpace(out)
}

func isRelativeSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// looksLikePackageSpecifier reports whether a specifier names an npm
// package. Dotted paths and tsconfig-style root aliases are treated as
// potentially local.
func looksLikePackageSpecifier(specifier string) bool {
	if isRelativeSpecifier(specifier) || strings.HasPrefix(specifier, "/") {
		return false
	}

	if strings.HasPrefix(specifier, "#") {
		return false
	}

	if strings.Contains(specifier, ".") {
		return false
	}

	return true
}

// packageName extracts the package from a specifier, keeping the scope
// for scoped packages.
func packageName(specifier string) string {
	first, rest, _ := strings.Cut(specifier, "/")
	if strings.HasPrefix(first, "@") {
		second, _, _ := strings.Cut(rest, "/")
		return first + "/" + second
	}
	return first
}

func matchAlias(key, specifier string) (string, bool) {
	if prefix, suffix, ok := strings.Cut(key, "*"); ok {
		if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
			return "", false
		}
		end := len(specifier) - len(suffix)
		if end < len(prefix) {
			return "", false
		}
		return specifier[len(prefix):end], true
	}

	if key == specifier {
		return "", true
	}
	return "", false
}

func applyAliasTarget(target, wildcard string) string {
	if strings.Contains(target, "*") {
		return strings.ReplaceAll(target, "*", wildcard)
	}
	return target
}

// stripFileExtension removes the extension from the last path segment
// only, leaving dotted directory names alone.
func stripFileExtension(pathLike string) string {
	fileName := pathLike
	if idx := strings.LastIndex(pathLike, "/"); idx >= 0 {
		fileName = pathLike[idx+1:]
	}
	if dot := strings.LastIndex(fileName, "."); dot >= 0 {
		return pathLike[:len(pathLike)-(len(fileName)-dot)]
	}
	return pathLike
}
