package unused

import (
	"github.com/deadwood-io/deadwood/internal/scanner"
)

// EdgeKind distinguishes how one module references another.
type EdgeKind int

const (
	// EdgeStatic is an ES `import ... from` or bare `import 'x'`.
	EdgeStatic EdgeKind = iota
	// EdgeDynamic is an `import('x')` call with a literal argument.
	EdgeDynamic
	// EdgeRequire is a CommonJS `require('x')` call.
	EdgeRequire
	// EdgeReexport is an `export ... from 'x'` or `export * from 'x'`.
	EdgeReexport
	// EdgeGlob is an `import.meta.glob('pattern')` expansion edge.
	EdgeGlob
)

// ImportEdge is one import site extracted from a source file.
type ImportEdge struct {
	Spec       string   // raw specifier text
	Kind       EdgeKind
	Symbols    []string // named symbols imported from the target
	Default    bool     // default import present
	Wildcard   bool     // namespace import: uses every export of the target
	TypeOnly   bool     // `import type` / `export type ... from`
	SideEffect bool     // no bindings, imported for effect only
}

// ExportKind distinguishes export declaration forms.
type ExportKind int

const (
	ExportNamed ExportKind = iota
	ExportDefault
	ExportReexport
)

// ExportDecl is one exported symbol declared by a source file.
// Default exports use the symbol name "default".
type ExportDecl struct {
	Symbol string
	Kind   ExportKind
}

// AssetReference is a raw string found in source text that looks like it
// addresses a file: a literal path or a glob pattern.
type AssetReference struct {
	Raw  string
	Glob bool
}

// DynamicRef records a dynamic import or require whose argument was not a
// single string literal. Prefix keeps any leading literal fragment
// (`import('./locales/' + lang)` keeps "./locales/"); it may be empty.
type DynamicRef struct {
	Prefix string
}

// ParsedFacts holds everything the parse phase extracted from one source
// file. Facts are derived once and never mutated afterwards.
type ParsedFacts struct {
	File         scanner.File
	Imports      []ImportEdge
	Exports      []ExportDecl
	HasExportAll bool
	Assets       []AssetReference
	Dynamics     []DynamicRef
	Tokens       map[uint64]struct{} // xxhash-interned identifier tokens
	ContentHash  uint64
}

// UnresolvedImport is a local-looking specifier that resolved to nothing
// on disk. These never drop silently: they degrade graph confidence.
type UnresolvedImport struct {
	FromFile string // rel path of the importing file
	Spec     string
}

// EntryProvenance records where an entry point came from.
type EntryProvenance int

const (
	EntryExplicit EntryProvenance = iota
	EntryManifest
	EntryConvention
	EntryFramework
	EntryTestFile
)

func (p EntryProvenance) String() string {
	switch p {
	case EntryExplicit:
		return "explicit"
	case EntryManifest:
		return "manifest"
	case EntryConvention:
		return "convention"
	case EntryFramework:
		return "framework"
	case EntryTestFile:
		return "test"
	default:
		return "unknown"
	}
}

// Entry is one resolved entry point.
type Entry struct {
	Abs        string
	Rel        string
	Provenance EntryProvenance
}

// EntrySet is the resolved set of analysis roots. An empty set degrades
// the whole run: analysis proceeds but every verdict is capped at low
// confidence.
type EntrySet struct {
	Entries []Entry
}

// Degraded reports whether no entry points were found.
func (e *EntrySet) Degraded() bool {
	return len(e.Entries) == 0
}

// Paths returns the absolute entry paths in declaration order.
func (e *EntrySet) Paths() []string {
	out := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		out[i] = entry.Abs
	}
	return out
}

// Rels returns the root-relative entry paths in declaration order.
func (e *EntrySet) Rels() []string {
	out := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		out[i] = entry.Rel
	}
	return out
}
