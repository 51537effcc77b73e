package unused

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// tsconfigSeeds are probed at the workspace root. Each discovered config
// fans out through extends chains and project references.
var tsconfigSeeds = []string{
	"tsconfig.json",
	"jsconfig.json",
	"tsconfig.app.json",
	"tsconfig.base.json",
}

// sanitizeJSONC strips comments and trailing commas so tsconfig-style
// JSONC parses as strict JSON.
func sanitizeJSONC(input string) string {
	current := stripComments(input)
	for {
		next := trailingCommaRe.ReplaceAllString(current, "$1")
		if next == current {
			return next
		}
		current = next
	}
}

// readJSONC parses a JSONC file into a generic document. Unreadable or
// malformed files yield nil, never an error: a broken tsconfig should
// not abort analysis.
func readJSONC(path string) map[string]any {
	raw, _ := os.ReadFile(path)
	var doc map[string]any
	if err := json.Unmarshal([]byte(sanitizeJSONC(string(raw))), &doc); err != nil {
		return nil
	}
	return doc
}

// discoverTsconfigs returns every related config reachable from the
// root seeds, in sorted path order.
func discoverTsconfigs(root string) []string {
	found := make(map[string]struct{})

	for _, seed := range tsconfigSeeds {
		path := filepath.Join(root, seed)
		if _, err := os.Stat(path); err == nil {
			walkTsconfig(path, found, make(map[string]struct{}))
		}
	}

	out := make([]string, 0, len(found))
	for p := range found {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func walkTsconfig(configPath string, out, visiting map[string]struct{}) {
	canonical := canonicalizePath(configPath)
	if _, err := os.Stat(canonical); err != nil {
		return
	}
	if _, seen := visiting[canonical]; seen {
		return
	}
	visiting[canonical] = struct{}{}
	out[canonical] = struct{}{}

	doc := readJSONC(canonical)
	if doc == nil {
		return
	}
	configDir := filepath.Dir(canonical)

	if extends, ok := doc["extends"].(string); ok {
		if path := resolveTsconfigRef(configDir, extends); path != "" {
			walkTsconfig(path, out, visiting)
		}
	}

	if refs, ok := doc["references"].([]any); ok {
		for _, item := range refs {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			pathStr, ok := obj["path"].(string)
			if !ok {
				continue
			}
			if path := resolveTsconfigRef(configDir, pathStr); path != "" {
				walkTsconfig(path, out, visiting)
			}
		}
	}
}

// resolveTsconfigRef maps an extends or reference value to a config
// file. Directory references mean dir/tsconfig.json; a bare name gets a
// .json extension.
func resolveTsconfigRef(baseDir, ref string) string {
	if strings.TrimSpace(ref) == "" {
		return ""
	}

	candidate := ref
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(baseDir, candidate)
	}

	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		candidate = filepath.Join(candidate, "tsconfig.json")
	}

	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	if !hasExtension(candidate) {
		withJSON := candidate + ".json"
		if _, err := os.Stat(withJSON); err == nil {
			return withJSON
		}
	}

	return ""
}

// applyCompilerOptions folds one config's baseUrl and paths into the
// resolver. Alias keys apply in sorted order within a config, and every
// target in a paths array becomes its own rule so fallback chains work.
func applyCompilerOptions(configPath string, r *Resolver) {
	doc := readJSONC(configPath)
	if doc == nil {
		return
	}

	configDir := filepath.Dir(configPath)
	co, ok := doc["compilerOptions"].(map[string]any)
	if !ok {
		return
	}

	if baseURL, ok := co["baseUrl"].(string); ok {
		r.baseDirs = append(r.baseDirs, filepath.Join(configDir, baseURL))
	}

	paths, ok := co["paths"].(map[string]any)
	if !ok {
		return
	}

	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		arr, ok := paths[key].([]any)
		if !ok {
			continue
		}
		for _, t := range arr {
			target, ok := t.(string)
			if !ok {
				continue
			}
			r.aliases = append(r.aliases, aliasRule{key: key, target: target, baseDir: configDir})
		}
	}
}

func dedupPaths(paths []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		canonical := canonicalizePath(p)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}

	return out
}

// canonicalizePath makes a path absolute and resolves symlinks,
// degrading gracefully for paths that do not exist.
func canonicalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func hasExtension(path string) bool {
	ext := filepath.Ext(path)
	return ext != "" && ext != filepath.Base(path)
}
