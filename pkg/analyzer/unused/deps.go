package unused

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// DepKind classifies which manifest map declared a dependency.
type DepKind int

const (
	DepProd DepKind = iota
	DepDev
	DepPeer
	DepOptional
)

func (k DepKind) String() string {
	switch k {
	case DepProd:
		return "prod"
	case DepDev:
		return "dev"
	case DepPeer:
		return "peer"
	case DepOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// collectDeclaredDependencies reads the dependency maps out of the root
// manifest. A package declared in several maps keeps the kind of the
// first map that mentions it, in dependencies, devDependencies,
// peerDependencies, optionalDependencies order. An empty path yields an
// empty map: a workspace without a manifest declares nothing.
func collectDeclaredDependencies(manifestPath string) (map[string]DepKind, error) {
	deps := make(map[string]DepKind)
	if manifestPath == "" {
		return deps, nil
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	sections := []struct {
		key  string
		kind DepKind
	}{
		{"dependencies", DepProd},
		{"devDependencies", DepDev},
		{"peerDependencies", DepPeer},
		{"optionalDependencies", DepOptional},
	}
	for _, section := range sections {
		obj, ok := doc[section.key].(map[string]any)
		if !ok {
			continue
		}
		for name := range obj {
			if _, dup := deps[name]; !dup {
				deps[name] = section.kind
			}
		}
	}
	return deps, nil
}

// detectUnusedDependencies returns declared packages no import in any
// reached file refers to, sorted. @types packages ride along with their
// runtime package and are never reported. Non-production dependencies
// are only examined on request.
func detectUnusedDependencies(declared map[string]DepKind, used map[string]bool, includeNonProd bool) []string {
	var out []string
	for name, kind := range declared {
		if strings.HasPrefix(name, "@types/") {
			continue
		}
		if !includeNonProd && kind != DepProd {
			continue
		}
		if used[name] {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
