package unused

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deadwood-io/deadwood/internal/scanner"
)

// conventionalEntries are probed at the root when neither flags nor the
// manifest name an entry point.
var conventionalEntries = []string{
	"src/index.ts", "src/index.tsx", "src/index.js", "src/index.jsx",
	"src/main.ts", "src/main.tsx", "src/main.js", "src/main.jsx",
	"index.ts", "index.js",
}

// appRouteStems are the app-router filenames that act as framework
// entry points under app/ or src/app/.
var appRouteStems = map[string]bool{
	"page": true, "layout": true, "route": true, "loading": true,
	"error": true, "not-found": true, "template": true, "default": true,
	"head": true,
}

// DiscoverEntries resolves the workspace entry set. Explicit entries are
// authoritative: when given, only they are used, and one that does not
// resolve to a source file is an input error. Otherwise package.json
// targets, conventional roots, framework routes, and test files combine.
// The returned warnings carry non-fatal anomalies like an unparseable
// manifest.
func DiscoverEntries(root string, inv *scanner.Inventory, r *Resolver, explicit []string) (EntrySet, []string, error) {
	var warnings []string
	found := make(map[string]Entry)

	add := func(f scanner.File, p EntryProvenance) {
		if _, dup := found[f.Abs]; !dup {
			found[f.Abs] = Entry{Abs: f.Abs, Rel: f.Rel, Provenance: p}
		}
	}

	if len(explicit) > 0 {
		for _, raw := range explicit {
			f, ok := r.lookupCandidate(filepath.Join(root, raw))
			if !ok {
				return EntrySet{}, nil, fmt.Errorf("entry %q does not resolve to a workspace source file", raw)
			}
			add(f, EntryExplicit)
		}
		return collectEntrySet(found), nil, nil
	}

	if manifest := inv.ManifestPath(); manifest != "" {
		candidates, err := manifestEntryCandidates(manifest)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("package.json could not be parsed: %v", err))
		}
		for _, candidate := range candidates {
			if f, ok := r.lookupCandidate(filepath.Join(root, candidate)); ok {
				add(f, EntryManifest)
			}
		}
	}

	for _, candidate := range conventionalEntries {
		if f, ok := r.lookupCandidate(filepath.Join(root, candidate)); ok {
			add(f, EntryConvention)
		}
	}

	for _, f := range inv.Sources() {
		if isFrameworkEntry(f.Rel) {
			add(f, EntryFramework)
		} else if scanner.IsTestLikePath(f.Rel) {
			add(f, EntryTestFile)
		}
	}

	return collectEntrySet(found), warnings, nil
}

func collectEntrySet(found map[string]Entry) EntrySet {
	out := make([]Entry, 0, len(found))
	for _, e := range found {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return EntrySet{Entries: out}
}

// isFrameworkEntry recognizes routing conventions: anything under a
// pages dir, and app-router route files under an app dir.
func isFrameworkEntry(rel string) bool {
	if strings.HasPrefix(rel, "pages/") || strings.HasPrefix(rel, "src/pages/") {
		return true
	}

	if strings.HasPrefix(rel, "app/") || strings.HasPrefix(rel, "src/app/") {
		base := path.Base(rel)
		stem := strings.TrimSuffix(base, path.Ext(base))
		return appRouteStems[stem]
	}

	return false
}

// manifestEntryCandidates pulls entry-like fields from package.json:
// main, module, types, browser, bin values, and every string leaf under
// exports.
func manifestEntryCandidates(manifestPath string) ([]string, error) {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	var out []string
	for _, key := range []string{"main", "module", "types", "browser"} {
		if v, ok := doc[key].(string); ok {
			out = append(out, v)
		}
	}

	switch bin := doc["bin"].(type) {
	case string:
		out = append(out, bin)
	case map[string]any:
		keys := make([]string, 0, len(bin))
		for k := range bin {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v, ok := bin[k].(string); ok {
				out = append(out, v)
			}
		}
	}

	if exports, ok := doc["exports"]; ok {
		collectStringLeaves(exports, &out)
	}

	return out, nil
}

func collectStringLeaves(value any, out *[]string) {
	switch v := value.(type) {
	case string:
		*out = append(*out, v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStringLeaves(v[k], out)
		}
	case []any:
		for _, item := range v {
			collectStringLeaves(item, out)
		}
	}
}
