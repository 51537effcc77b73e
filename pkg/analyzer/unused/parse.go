package unused

import (
	"regexp"
	"sort"
	"strings"

	"github.com/deadwood-io/deadwood/internal/scanner"
)

// The parse layer extracts module facts with line-anchored patterns over
// comment-stripped text. No AST: the recognized forms are the documented
// import/export/require/dynamic-import shapes, and anything beyond them
// degrades to a low-confidence reference instead of being dropped.
var (
	importFromRe       = regexp.MustCompile(`(?m)^\s*import\s+([^;\n]+?)\s+from\s+['"]([^'"]+)['"]`)
	importSideEffectRe = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	requireRe          = regexp.MustCompile(`(?m)(?:^|[\s=(])require\(\s*['"]([^'"]+)['"]\s*\)`)
	destructureReqRe   = regexp.MustCompile(`(?m)\{\s*([^}]+?)\s*\}\s*=\s*require\(\s*['"]([^'"]+)['"]\s*\)`)
	dynImportRe        = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
	dynCallRe          = regexp.MustCompile(`\b(?:import|require)\(\s*([^)]*?)\s*\)`)
	dynPrefixRe        = regexp.MustCompile(`^['"]([^'"]*)['"]\s*\+`)
	globRe             = regexp.MustCompile(`import\.meta\.glob\(\s*['"]([^'"]+)['"]`)
	exportDeclRe       = regexp.MustCompile(`(?m)^\s*export\s+(?:const|let|var|function|class|interface|type|enum)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	exportListRe       = regexp.MustCompile(`(?m)^\s*export(?:\s+(type))?\s*\{\s*([^}]+?)\s*\}(?:\s*from\s*['"]([^'"]+)['"])?`)
	exportDefaultRe    = regexp.MustCompile(`(?m)^\s*export\s+default\b`)
	exportAllRe        = regexp.MustCompile(`(?m)^\s*export\s+\*\s+from\s+['"]([^'"]+)['"]`)
	stringLiteralRe    = regexp.MustCompile("'((?:\\\\.|[^'\\\\])*)'|\"((?:\\\\.|[^\"\\\\])*)\"|`((?:\\\\.|[^`\\\\])*)`")
)

// parseSource extracts all facts from one source file's raw text. Import
// and export recognition runs on comment-stripped text; string literals
// and identifier tokens run on the raw text so commented-out references
// still count as weak usage signals.
func parseSource(content string) ParsedFacts {
	stripped := stripComments(content)

	facts := ParsedFacts{
		Tokens:      tokenSet(content),
		ContentHash: hashContent(content),
	}

	for _, m := range importFromRe.FindAllStringSubmatch(stripped, -1) {
		edge := ImportEdge{Spec: m[2], Kind: EdgeStatic}
		parseImportClause(m[1], &edge)
		facts.Imports = append(facts.Imports, edge)
	}

	for _, m := range importSideEffectRe.FindAllStringSubmatch(stripped, -1) {
		facts.Imports = append(facts.Imports, ImportEdge{
			Spec:       m[1],
			Kind:       EdgeStatic,
			SideEffect: true,
		})
	}

	// A bare require claims the whole module, like a namespace import.
	for _, m := range requireRe.FindAllStringSubmatch(stripped, -1) {
		facts.Imports = append(facts.Imports, ImportEdge{
			Spec:     m[1],
			Kind:     EdgeRequire,
			Wildcard: true,
		})
	}

	for _, m := range destructureReqRe.FindAllStringSubmatch(stripped, -1) {
		facts.Imports = append(facts.Imports, ImportEdge{
			Spec:    m[2],
			Kind:    EdgeRequire,
			Symbols: parseDestructuredNames(m[1]),
		})
	}

	for _, m := range dynImportRe.FindAllStringSubmatch(stripped, -1) {
		facts.Imports = append(facts.Imports, ImportEdge{
			Spec:     m[1],
			Kind:     EdgeDynamic,
			Wildcard: true,
		})
	}

	for _, m := range dynCallRe.FindAllStringSubmatch(stripped, -1) {
		if ref, ok := nonLiteralDynamic(m[1]); ok {
			facts.Dynamics = append(facts.Dynamics, ref)
		}
	}

	for _, m := range globRe.FindAllStringSubmatch(stripped, -1) {
		facts.Imports = append(facts.Imports, ImportEdge{
			Spec:     m[1],
			Kind:     EdgeGlob,
			Wildcard: true,
		})
		facts.Assets = append(facts.Assets, AssetReference{Raw: m[1], Glob: true})
	}

	exports := make(map[string]struct{})
	for _, m := range exportDeclRe.FindAllStringSubmatch(stripped, -1) {
		if m[1] != "" {
			exports[m[1]] = struct{}{}
		}
	}

	for _, m := range exportListRe.FindAllStringSubmatch(stripped, -1) {
		typeOnly := m[1] == "type"
		names, spec := m[2], m[3]

		if spec != "" {
			// Re-export: an import of the names from the target, not an
			// export surface of this file.
			edge := ImportEdge{Spec: spec, Kind: EdgeReexport, TypeOnly: typeOnly}
			parseExportListAsImport(names, &edge)
			facts.Imports = append(facts.Imports, edge)
		} else {
			for _, name := range parseExportNames(names) {
				exports[name] = struct{}{}
			}
		}
	}

	for name := range exports {
		facts.Exports = append(facts.Exports, ExportDecl{Symbol: name, Kind: ExportNamed})
	}
	sort.Slice(facts.Exports, func(i, j int) bool {
		return facts.Exports[i].Symbol < facts.Exports[j].Symbol
	})

	if exportDefaultRe.MatchString(stripped) {
		facts.Exports = append(facts.Exports, ExportDecl{Symbol: "default", Kind: ExportDefault})
	}

	for _, m := range exportAllRe.FindAllStringSubmatch(stripped, -1) {
		facts.HasExportAll = true
		facts.Imports = append(facts.Imports, ImportEdge{
			Spec:     m[1],
			Kind:     EdgeReexport,
			Wildcard: true,
		})
	}

	facts.Assets = append(facts.Assets, collectAssetLiterals(content)...)

	return facts
}

// stripComments removes // and /* */ comments while respecting string and
// template literals. Newlines inside block comments are preserved so the
// line-anchored patterns keep their positions.
func stripComments(source string) string {
	var out strings.Builder
	out.Grow(len(source))

	runes := []rune(source)
	i := 0
	var inString rune

	for i < len(runes) {
		c := runes[i]

		if inString != 0 {
			out.WriteRune(c)
			if c == '\\' && i+1 < len(runes) {
				i++
				out.WriteRune(runes[i])
			} else if c == inString {
				inString = 0
			}
			i++
			continue
		}

		if c == '\'' || c == '"' || c == '`' {
			inString = c
			out.WriteRune(c)
			i++
			continue
		}

		if c == '/' && i+1 < len(runes) {
			if runes[i+1] == '/' {
				i += 2
				for i < len(runes) && runes[i] != '\n' {
					i++
				}
				if i < len(runes) {
					out.WriteRune('\n')
					i++
				}
				continue
			}

			if runes[i+1] == '*' {
				i += 2
				for i+1 < len(runes) {
					if runes[i] == '*' && runes[i+1] == '/' {
						i += 2
						break
					}
					if runes[i] == '\n' {
						out.WriteRune('\n')
					}
					i++
				}
				continue
			}
		}

		out.WriteRune(c)
		i++
	}

	return out.String()
}

// parseImportClause fills an edge from the text between `import` and
// `from`: default binding, namespace binding, named list, type prefix.
func parseImportClause(clause string, edge *ImportEdge) {
	cleaned := strings.TrimSpace(clause)
	if rest, ok := strings.CutPrefix(cleaned, "type "); ok {
		edge.TypeOnly = true
		cleaned = strings.TrimSpace(rest)
	}

	if strings.Contains(cleaned, "* as") {
		edge.Wildcard = true
	}

	if strings.HasPrefix(cleaned, "{") {
		edge.Symbols = parseExportNames(cleaned)
		return
	}

	if first, rest, ok := strings.Cut(cleaned, ","); ok {
		if strings.TrimSpace(first) != "" {
			edge.Default = true
		}
		if strings.Contains(rest, "*") {
			edge.Wildcard = true
		}
		if strings.Contains(rest, "{") {
			edge.Symbols = parseExportNames(rest)
		}
		return
	}

	if strings.Contains(cleaned, "{") {
		edge.Symbols = parseExportNames(cleaned)
	} else if cleaned != "" {
		edge.Default = true
	}
}

// parseExportListAsImport reads `export { a, b as c } from 'x'` as an
// import of a and b from x. The left side of `as` is what the target
// module must provide.
func parseExportListAsImport(names string, edge *ImportEdge) {
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(names, ",") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}

		if part == "default" {
			edge.Default = true
			continue
		}

		if strings.HasPrefix(part, "*") {
			edge.Wildcard = true
			continue
		}

		name := part
		if left, _, ok := strings.Cut(part, " as "); ok {
			name = strings.TrimSpace(left)
		}
		name = strings.TrimSpace(strings.TrimPrefix(name, "type "))

		if name != "" {
			seen[name] = struct{}{}
		}
	}
	edge.Symbols = sortedKeys(seen)
}

// parseExportNames reads a brace list and returns the outward-facing
// names: the right side of `as`, the bare name otherwise.
func parseExportNames(names string) []string {
	seen := make(map[string]struct{})

	trimmed := strings.TrimSpace(names)
	trimmed = strings.TrimPrefix(trimmed, "{")
	trimmed = strings.TrimSuffix(trimmed, "}")

	for _, raw := range strings.Split(trimmed, ",") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}

		if part == "default" {
			seen["default"] = struct{}{}
			continue
		}

		name := part
		if _, right, ok := strings.Cut(part, " as "); ok {
			name = strings.TrimSpace(right)
		}
		name = strings.TrimSpace(strings.TrimPrefix(name, "type "))

		if name != "" {
			seen[name] = struct{}{}
		}
	}

	return sortedKeys(seen)
}

// parseDestructuredNames reads `{ a, b: c }` from a destructured require
// and returns the left-side keys, which are the target's export names.
func parseDestructuredNames(names string) []string {
	seen := make(map[string]struct{})

	for _, raw := range strings.Split(names, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}

		left := item
		if l, _, ok := strings.Cut(item, ":"); ok {
			left = strings.TrimSpace(l)
		}

		if left != "" {
			seen[left] = struct{}{}
		}
	}

	return sortedKeys(seen)
}

// nonLiteralDynamic classifies a dynamic call argument. Literal strings
// are handled by the literal patterns; everything else becomes a
// DynamicRef keeping any leading literal prefix.
func nonLiteralDynamic(arg string) (DynamicRef, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return DynamicRef{}, false
	}

	// Plain string literal: already an edge.
	if (arg[0] == '\'' || arg[0] == '"') && !strings.Contains(arg, "+") {
		return DynamicRef{}, false
	}

	if m := dynPrefixRe.FindStringSubmatch(arg); m != nil {
		return DynamicRef{Prefix: m[1]}, true
	}

	if arg[0] == '`' {
		body := strings.Trim(arg, "`")
		if idx := strings.Index(body, "${"); idx >= 0 {
			return DynamicRef{Prefix: body[:idx]}, true
		}
		return DynamicRef{Prefix: body}, true
	}

	return DynamicRef{}, true
}

// collectAssetLiterals gathers single- and double-quoted literals that
// look like file references. Interpolated template literals cannot be
// matched exactly, so a path-looking prefix degrades to a wildcard
// reference instead of being dropped.
func collectAssetLiterals(content string) []AssetReference {
	var refs []AssetReference
	seen := make(map[string]struct{})

	add := func(ref AssetReference) {
		if _, dup := seen[ref.Raw]; dup {
			return
		}
		seen[ref.Raw] = struct{}{}
		refs = append(refs, ref)
	}

	for _, m := range stringLiteralRe.FindAllStringSubmatch(content, -1) {
		for _, lit := range []string{m[1], m[2]} {
			if lit == "" {
				continue
			}
			if !strings.Contains(lit, "/") && !scanner.IsAssetPath(lit) {
				continue
			}
			add(AssetReference{Raw: lit})
		}

		if tpl := m[3]; tpl != "" {
			idx := strings.Index(tpl, "${")
			if idx < 0 {
				continue
			}
			prefix := tpl[:idx]
			if strings.Contains(prefix, "/") {
				add(AssetReference{Raw: prefix + "*", Glob: true})
			}
		}
	}

	return refs
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
