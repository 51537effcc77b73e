package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for deadwood. The non-koanf tags
// keep generated config files (deadwood init) loadable by the koanf
// parsers.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" yaml:"analysis" json:"analysis"`

	// File exclusion rules applied by the walker
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude" json:"exclude"`

	// Trash area settings
	Trash TrashConfig `koanf:"trash" toml:"trash" yaml:"trash" json:"trash"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output" json:"output"`
}

// AnalysisConfig controls the reachability and usage analysis.
type AnalysisConfig struct {
	// Entries are explicit entry points, workspace-relative. When set,
	// manifest and convention discovery are skipped.
	Entries []string `koanf:"entries" toml:"entries" yaml:"entries" json:"entries"`

	// AssetRoots restrict asset usage accounting to these directory
	// prefixes. Empty means the whole workspace.
	AssetRoots []string `koanf:"asset_roots" toml:"asset_roots" yaml:"asset_roots" json:"asset_roots"`

	// IncludeNonProdDeps also checks dev/peer/optional dependencies.
	IncludeNonProdDeps bool `koanf:"include_non_prod_deps" toml:"include_non_prod_deps" yaml:"include_non_prod_deps" json:"include_non_prod_deps"`

	// IncludeLowConfidence keeps low-confidence findings in the report
	// instead of omitting them.
	IncludeLowConfidence bool `koanf:"include_low_confidence" toml:"include_low_confidence" yaml:"include_low_confidence" json:"include_low_confidence"`

	// MaxFileSize skips source files larger than this many bytes
	// (0 = no limit).
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size" json:"max_file_size"`
}

// ExcludeConfig defines file exclusion rules.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns" json:"patterns"` // glob patterns matched against the base name
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs" json:"dirs"`                 // directory names skipped at any depth
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore" json:"gitignore"`
}

// TrashConfig controls the reversible deletion area.
type TrashConfig struct {
	// Dir is the trash directory name under the workspace root. It is
	// always excluded from the walk regardless of other settings.
	Dir string `koanf:"dir" toml:"dir" yaml:"dir" json:"dir"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format" yaml:"format" json:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color" yaml:"color" json:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose" yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Entries:              []string{},
			AssetRoots:           []string{},
			IncludeNonProdDeps:   false,
			IncludeLowConfidence: false,
			MaxFileSize:          0,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{},
			Dirs: []string{
				"node_modules",
				".git",
				"dist",
				"build",
				"coverage",
				"target",
				".next",
				"out",
			},
			Gitignore: true,
		},
		Trash: TrashConfig{
			Dir: ".deadwood_trash",
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	// Load the config file
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations under root
// or returns defaults. The workspace root is searched first, then its
// .deadwood subdirectory.
func LoadOrDefault(root string) *Config {
	configNames := []string{
		"deadwood.toml",
		"deadwood.yaml",
		"deadwood.yml",
		"deadwood.json",
		".deadwood.toml",
		".deadwood.yaml",
		".deadwood.yml",
		".deadwood.json",
	}

	searchDirs := []string{root, filepath.Join(root, ".deadwood")}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	// Check directory exclusions
	for _, dir := range c.excludedDirs() {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

// IsExcludedDir checks a single directory name against the exclusion list.
func (c *Config) IsExcludedDir(name string) bool {
	for _, dir := range c.excludedDirs() {
		if name == dir {
			return true
		}
	}
	return false
}

// excludedDirs returns the configured directory exclusions plus the trash
// directory, which is excluded unconditionally.
func (c *Config) excludedDirs() []string {
	if c.Trash.Dir == "" {
		return c.Exclude.Dirs
	}
	out := make([]string, 0, len(c.Exclude.Dirs)+1)
	out = append(out, c.Exclude.Dirs...)
	out = append(out, c.Trash.Dir)
	return out
}
