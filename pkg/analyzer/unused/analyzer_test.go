package unused

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadwood-io/deadwood/pkg/config"
	"github.com/deadwood-io/deadwood/pkg/models"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func findingSubjects(findings []models.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Subject)
	}
	return out
}

func TestAnalyzeDeadFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"entry.js": `import { go } from './used';
go();
`,
		"used.js": `export const go = () => {};`,
		"dead.js": `export const zombie = 1;`,
	})

	report, err := New(WithEntries("entry.js")).Analyze(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, report.UnusedFiles, 1)
	assert.Equal(t, "dead.js", report.UnusedFiles[0].Subject)
	assert.Equal(t, models.ConfidenceHigh, report.UnusedFiles[0].Confidence)
	assert.NotContains(t, findingSubjects(report.UnusedFiles), "used.js")

	assert.Equal(t, models.GraphHigh, report.Summary.GraphConfidence)
	assert.Equal(t, 3, report.Summary.TotalSourceFiles)
	assert.Equal(t, 2, report.Summary.TotalReachableFiles)
	assert.Equal(t, 1, report.Summary.TotalEntries)
	assert.InDelta(t, 66.7, report.Summary.CoveragePct, 0.1)
	assert.Equal(t, []string{"entry.js"}, report.Entries)

	assert.Empty(t, report.UnusedExports)
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, "Analysis is conservative by default to minimize false positives.", report.Warnings[0])
}

func TestAnalyzeUnusedDependency(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{
  "name": "app",
  "main": "src/index.js",
  "dependencies": {"lodash": "^4.17.21", "react": "^18.0.0"},
  "devDependencies": {"@types/lodash": "^4.14.0", "vitest": "^1.0.0"}
}`,
		"src/index.js": `import React from 'react';
export default function App() { return React.createElement('div'); }
`,
	})

	report, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, report.UnusedDependencies, 1)
	assert.Equal(t, "lodash", report.UnusedDependencies[0].Subject)
	assert.Equal(t, models.ConfidenceHigh, report.UnusedDependencies[0].Confidence)
	assert.Equal(t, []string{"src/index.js"}, report.Entries)
}

func TestAnalyzeIncludeNonProdDeps(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{
  "name": "app",
  "main": "src/index.js",
  "dependencies": {"lodash": "^4.17.21"},
  "devDependencies": {"@types/lodash": "^4.14.0", "vitest": "^1.0.0"}
}`,
		"src/index.js": `export const app = 1;`,
	})

	report, err := New(WithIncludeNonProdDeps()).Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"lodash", "vitest"}, findingSubjects(report.UnusedDependencies),
		"@types/ packages are never reported")
}

func TestAnalyzeRequireCountsDependency(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{
  "name": "app",
  "main": "src/index.js",
  "dependencies": {"lodash": "^4.17.21"}
}`,
		"src/index.js": `const _ = require('lodash');
module.exports = _.chunk([1, 2], 1);
`,
	})

	report, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, report.UnusedDependencies)
	assert.Zero(t, report.Summary.UnusedDependencies)
}

func TestAnalyzeUnusedExport(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.js": `import { used } from './util';
console.log(used);
`,
		"src/util.js": `export const used = 1;
export function helper() {}
`,
	})

	report, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, report.UnusedExports, 1)
	f := report.UnusedExports[0]
	assert.Equal(t, "src/util.js#helper", f.Subject)
	assert.Equal(t, "src/util.js", f.File)
	assert.Equal(t, "helper", f.Symbol)
	assert.Equal(t, models.ConfidenceHigh, f.Confidence)
}

func TestAnalyzePublicAssetGlobConfidence(t *testing.T) {
	root := writeTree(t, map[string]string{
		"tsconfig.json": `{"compilerOptions": {"baseUrl": ".", "paths": {"@/*": ["src/*"]}}}`,
		"src/main.ts": `const icons = import.meta.glob('@/assets/*');
export default icons;
`,
		"public/logo.png": "png-bytes",
	})

	report, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	// The glob could cover the asset, so the finding is low confidence
	// and stays out of the default report.
	assert.Empty(t, report.UnusedAssets)
	assert.Empty(t, report.UsedAssets)
	assert.Equal(t, 1, report.Summary.OmittedLowConfidence)
	assert.Equal(t, 1, report.Summary.TotalAssetFiles)
	assert.Equal(t, models.GraphHigh, report.Summary.GraphConfidence)

	forced, err := New(WithIncludeLowConfidence()).Analyze(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, forced.UnusedAssets, 1)
	assert.Equal(t, "public/logo.png", forced.UnusedAssets[0].Subject)
	assert.Equal(t, models.ConfidenceLow, forced.UnusedAssets[0].Confidence)
	assert.Zero(t, forced.Summary.OmittedLowConfidence)
}

func TestAnalyzeLiteralAssetReference(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.js": `export const hero = '/img/hero.png';`,
		"img/hero.png": "hero",
		"img/other.png": "other",
	})

	report, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"img/hero.png"}, report.UsedAssets)
	require.Len(t, report.UnusedAssets, 1)
	assert.Equal(t, "img/other.png", report.UnusedAssets[0].Subject)
	assert.Equal(t, models.ConfidenceHigh, report.UnusedAssets[0].Confidence)

	assert.Equal(t, 2, report.Summary.TotalAssetFiles)
	assert.Equal(t, 1, report.Summary.UsedAssets)
	assert.InDelta(t, 50.0, report.Summary.AssetCoveragePct, 0.01)
}

func TestAnalyzeDegradedWithoutEntries(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/a.js": `export const a = 1;`,
	})

	report, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, models.GraphDegraded, report.Summary.GraphConfidence)
	assert.Empty(t, report.Entries)
	assert.Empty(t, report.UnusedFiles)
	assert.Equal(t, 1, report.Summary.OmittedLowConfidence)
	assert.Contains(t, report.Warnings,
		"No entry files discovered. Pass --entry to improve unused file accuracy.")
	assert.Contains(t, report.Warnings,
		"unused_files and unused_exports omitted (use --include-low-confidence to force).")
	assert.Contains(t, report.Warnings,
		"unused_assets omitted because graph confidence is low (use --include-low-confidence to force).")

	forced, err := New(WithIncludeLowConfidence()).Analyze(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, forced.UnusedFiles, 1)
	assert.Equal(t, "lib/a.js", forced.UnusedFiles[0].Subject)
	assert.Equal(t, models.ConfidenceLow, forced.UnusedFiles[0].Confidence)
}

func TestAnalyzeUnresolvedImportLowersConfidence(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{"name": "app", "dependencies": {"lodash": "^4.17.21"}}`,
		"src/index.ts": `import { u } from './used';
import { gone } from './missing';
export const run = () => u + gone;
`,
		"src/used.ts": `export const u = 1;`,
		"src/dead.ts": `export const d = 2;`,
	})

	report, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, models.GraphLow, report.Summary.GraphConfidence)
	assert.Equal(t, 1, report.Summary.UnresolvedLocalImports)
	assert.Contains(t, report.Warnings,
		"Skipped high-risk findings because 1 local/alias imports could not be resolved.")

	// File and export findings are capped at low and omitted, but
	// dependency findings survive: package names in import statements do
	// not depend on path resolution.
	assert.Empty(t, report.UnusedFiles)
	assert.Equal(t, []string{"lodash"}, findingSubjects(report.UnusedDependencies))
	assert.Equal(t, models.ConfidenceHigh, report.UnusedDependencies[0].Confidence)
	assert.Equal(t, 1, report.Summary.OmittedLowConfidence)
}

func TestAnalyzeSkipsTestAndConfigFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.ts":       `export const app = 1;`,
		"src/button.test.ts": `import { app } from './index';`,
		"vite.config.ts":     `export default {};`,
		"src/dead.ts":        `export const nope = 1;`,
	})

	report, err := New(WithEntries("src/index.ts")).Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/dead.ts"}, findingSubjects(report.UnusedFiles))
}

func TestAnalyzeExplicitEntryMissing(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.ts": `export const app = 1;`,
	})

	_, err := New(WithEntries("src/nope.ts")).Analyze(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "src/nope.ts")
}

func TestAnalyzeIdempotent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.ts": `import './a';`,
		"src/a.ts":     `export const a = 1;`,
		"src/dead.ts":  `export const d = 1;`,
	})

	first, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)
	second, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first.Summary.Fingerprint, second.Summary.Fingerprint)
	assert.Equal(t, first.UnusedFiles, second.UnusedFiles)
	assert.Equal(t, first.UnusedExports, second.UnusedExports)
	assert.Equal(t, first.Warnings, second.Warnings)

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "src", "dead.ts"), []byte(`export const changed = 1;`), 0o644))

	third, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)
	assert.NotEqual(t, first.Summary.Fingerprint, third.Summary.Fingerprint)
}

func TestAnalyzeCanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.ts": `export const app = 1;`,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Analyze(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeConfigSeedsOptions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app.ts":  `export const app = 1;`,
		"src/dead.ts": `export const d = 1;`,
	})

	// app.ts is not a conventional entry name, so reaching it proves the
	// config's explicit entry list was applied.
	cfg := config.DefaultConfig()
	cfg.Analysis.Entries = []string{"src/app.ts"}

	report, err := New(WithConfig(cfg)).Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, models.GraphHigh, report.Summary.GraphConfidence)
	assert.Equal(t, []string{"src/app.ts"}, report.Entries)
	assert.Equal(t, []string{"src/dead.ts"}, findingSubjects(report.UnusedFiles))
}
