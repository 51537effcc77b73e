// Package scanner walks a workspace and classifies every file it finds.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/deadwood-io/deadwood/pkg/config"
)

// Kind classifies a scanned file.
type Kind int

const (
	KindOther Kind = iota
	KindSource
	KindAsset
	KindManifest
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindAsset:
		return "asset"
	case KindManifest:
		return "manifest"
	default:
		return "other"
	}
}

// sourceExtensions are the JS/TS dialects the parser understands, including
// markup-embedded script files.
var sourceExtensions = map[string]bool{
	".js":     true,
	".jsx":    true,
	".ts":     true,
	".tsx":    true,
	".mjs":    true,
	".cjs":    true,
	".vue":    true,
	".svelte": true,
}

// assetExtensions are static files a workspace can reference by path.
// Stylesheets are assets: they are imported for effect, never for symbols.
var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".avif": true, ".svg": true, ".ico": true, ".bmp": true, ".tiff": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true, ".ogg": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".pdf": true, ".txt": true,
	".css": true, ".scss": true, ".sass": true, ".less": true,
}

// AssetExtensions returns the recognized asset extensions, without
// dots, in sorted order.
func AssetExtensions() []string {
	out := make([]string, 0, len(assetExtensions))
	for ext := range assetExtensions {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// File is a single entry in a workspace inventory.
type File struct {
	Abs  string // absolute, symlink-resolved path
	Rel  string // slash-separated path relative to the inventory root
	Kind Kind
	Size int64
}

// Inventory is the immutable result of walking a workspace root.
type Inventory struct {
	Root  string // absolute, symlink-resolved
	Files []File // sorted by Rel

	byRel map[string]int
	byAbs map[string]int
}

// Sources returns the source files in Rel order.
func (inv *Inventory) Sources() []File {
	return inv.ofKind(KindSource)
}

// Assets returns the asset files in Rel order.
func (inv *Inventory) Assets() []File {
	return inv.ofKind(KindAsset)
}

func (inv *Inventory) ofKind(kind Kind) []File {
	var out []File
	for _, f := range inv.Files {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// ManifestPath returns the absolute path of the root package.json, or ""
// when the workspace has none.
func (inv *Inventory) ManifestPath() string {
	if i, ok := inv.byRel["package.json"]; ok {
		return inv.Files[i].Abs
	}
	return ""
}

// Lookup finds a file by its slash-separated relative path.
func (inv *Inventory) Lookup(rel string) (File, bool) {
	if i, ok := inv.byRel[rel]; ok {
		return inv.Files[i], true
	}
	return File{}, false
}

// LookupAbs finds a file by absolute path.
func (inv *Inventory) LookupAbs(abs string) (File, bool) {
	if i, ok := inv.byAbs[abs]; ok {
		return inv.Files[i], true
	}
	return File{}, false
}

func (inv *Inventory) index() {
	sort.Slice(inv.Files, func(i, j int) bool {
		return inv.Files[i].Rel < inv.Files[j].Rel
	})
	inv.byRel = make(map[string]int, len(inv.Files))
	inv.byAbs = make(map[string]int, len(inv.Files))
	for i, f := range inv.Files {
		inv.byRel[f.Rel] = i
		inv.byAbs[f.Abs] = i
	}
}

// Scanner walks directories and builds inventories.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// NewScanner creates a scanner. A nil config gets the defaults.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for a .git
// directory. Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and
// .gitignore files. Config patterns are parsed as gitignore syntax.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	// ReadPatterns recursively reads every .gitignore in the tree.
	if s.config.Exclude.Gitignore {
		gitRoot := findGitRoot(root)
		if gitRoot != "" {
			fs := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// isExcluded checks if a path matches any exclusion pattern.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	if len(s.matchers) == 0 {
		return false
	}

	pathParts := strings.Split(path, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir walks root and returns its inventory. Ignored directories are
// pruned by name at any depth, and symlinks that escape the root are
// skipped so the analysis never reads outside the workspace.
func (s *Scanner) ScanDir(root string) (*Inventory, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	inv := &Inventory{Root: absRoot, Files: make([]File, 0, 1024)}

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(absRoot, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if path != absRoot && (s.config.IsExcludedDir(d.Name()) || s.isExcluded(relPath, true)) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}

		rel := filepath.ToSlash(relPath)
		kind := classify(rel)
		if kind == KindOther {
			return nil
		}

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}

		inv.Files = append(inv.Files, File{
			Abs:  path,
			Rel:  rel,
			Kind: kind,
			Size: size,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	inv.index()
	return inv, nil
}

// classify maps a root-relative path to its inventory kind.
func classify(rel string) Kind {
	if rel == "package.json" {
		return KindManifest
	}
	if IsSourcePath(rel) {
		return KindSource
	}
	if IsAssetPath(rel) {
		return KindAsset
	}
	return KindOther
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative components.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Separator suffix prevents "/root2" matching "/root".
	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}

	return true
}

// IsSourcePath reports whether path has a JS/TS source extension.
// Declaration files carry source extensions but hold no runtime code, so
// they are not source.
func IsSourcePath(path string) bool {
	if isDeclarationPath(path) {
		return false
	}
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsAssetPath reports whether path has a static asset extension.
func IsAssetPath(path string) bool {
	return assetExtensions[strings.ToLower(filepath.Ext(path))]
}

func isDeclarationPath(path string) bool {
	return strings.HasSuffix(filepath.Base(path), ".d.ts")
}

// IsTestLikePath reports whether path looks like a test file. Test files
// are implicit entry points: code only tests import is still live code.
func IsTestLikePath(path string) bool {
	base := filepath.Base(path)
	norm := filepath.ToSlash(path)
	return strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.") ||
		strings.Contains(norm, "/__tests__/") ||
		strings.HasPrefix(norm, "__tests__/")
}

// IsConfigLikePath reports whether path names a tooling config file
// (vite.config.ts, .eslintrc.json, tailwind.config.js). Config files are
// loaded by tools, not imported, so they are never reported unused.
func IsConfigLikePath(path string) bool {
	base := filepath.Base(path)
	if strings.Contains(strings.ToLower(base), "config") {
		return true
	}
	return strings.HasPrefix(base, ".eslintrc") ||
		strings.HasPrefix(base, ".prettierrc") ||
		strings.HasPrefix(base, ".stylelintrc") ||
		strings.HasPrefix(base, ".babelrc")
}

// IsPublicPath reports whether any path component is "public". Files under
// a public directory are served verbatim by most frameworks, so public
// assets are never reported unused.
func IsPublicPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "public" {
			return true
		}
	}
	return false
}

// Rel returns path relative to root with forward slashes, falling back to
// path itself when it is not under root.
func Rel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// FilterAssetsByRoots keeps only assets whose relative path sits under one
// of the given roots. Empty roots keep everything.
func FilterAssetsByRoots(assets []File, assetRoots []string) []File {
	if len(assetRoots) == 0 {
		return assets
	}

	roots := make([]string, 0, len(assetRoots))
	for _, r := range assetRoots {
		if norm := NormalizeAssetRoot(r); norm != "" {
			roots = append(roots, norm)
		}
	}
	if len(roots) == 0 {
		return assets
	}

	var filtered []File
	for _, asset := range assets {
		for _, prefix := range roots {
			if asset.Rel == prefix || strings.HasPrefix(asset.Rel, prefix+"/") {
				filtered = append(filtered, asset)
				break
			}
		}
	}
	return filtered
}

// NormalizeAssetRoot trims separators and leading "./" so configured roots
// compare cleanly against inventory Rel paths.
func NormalizeAssetRoot(value string) string {
	v := strings.TrimSpace(value)
	v = strings.ReplaceAll(v, "\\", "/")
	v = strings.TrimPrefix(v, "./")
	return strings.Trim(v, "/")
}

// FilterBySize drops files larger than maxSize bytes. Returns the kept
// files and the count skipped. A zero maxSize keeps everything.
func FilterBySize(files []File, maxSize int64) ([]File, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]File, 0, len(files))
	skipped := 0

	for _, f := range files {
		if f.Size > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}
