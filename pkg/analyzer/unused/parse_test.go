package unused

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findImport(t *testing.T, facts ParsedFacts, spec string) ImportEdge {
	t.Helper()
	for _, edge := range facts.Imports {
		if edge.Spec == spec {
			return edge
		}
	}
	t.Fatalf("no import edge for %q", spec)
	return ImportEdge{}
}

func exportSymbols(facts ParsedFacts) []string {
	out := make([]string, 0, len(facts.Exports))
	for _, e := range facts.Exports {
		out = append(out, e.Symbol)
	}
	return out
}

func TestParseSourceStaticImports(t *testing.T) {
	src := `
import React from 'react';
import { useState, useEffect } from 'react-hooks';
import * as path from 'node:path';
import Default, { named } from './local';
import type { Props } from './types';
`
	facts := parseSource(src)

	react := findImport(t, facts, "react")
	assert.True(t, react.Default)
	assert.Empty(t, react.Symbols)
	assert.Equal(t, EdgeStatic, react.Kind)

	hooks := findImport(t, facts, "react-hooks")
	assert.Equal(t, []string{"useEffect", "useState"}, hooks.Symbols)
	assert.False(t, hooks.Default)

	pathEdge := findImport(t, facts, "node:path")
	assert.True(t, pathEdge.Wildcard)

	local := findImport(t, facts, "./local")
	assert.True(t, local.Default)
	assert.Equal(t, []string{"named"}, local.Symbols)

	types := findImport(t, facts, "./types")
	assert.True(t, types.TypeOnly)
	assert.Equal(t, []string{"Props"}, types.Symbols)
}

func TestParseSourceSideEffectImport(t *testing.T) {
	facts := parseSource(`import './styles.css';`)

	edge := findImport(t, facts, "./styles.css")
	assert.True(t, edge.SideEffect)
	assert.False(t, edge.Default)
	assert.Empty(t, edge.Symbols)
}

func TestParseSourceRequire(t *testing.T) {
	src := `
const fs = require('fs');
const { readFile, join: pathJoin } = require('./util');
`
	facts := parseSource(src)

	fs := findImport(t, facts, "fs")
	assert.Equal(t, EdgeRequire, fs.Kind)
	assert.True(t, fs.Wildcard)

	// The destructured require produces a named edge alongside the bare
	// whole-module edge.
	var named *ImportEdge
	for i := range facts.Imports {
		if facts.Imports[i].Spec == "./util" && len(facts.Imports[i].Symbols) > 0 {
			named = &facts.Imports[i]
		}
	}
	require.NotNil(t, named)
	assert.Equal(t, []string{"join", "readFile"}, named.Symbols)
}

func TestParseSourceDynamicImports(t *testing.T) {
	src := `
const mod = await import('./lazy');
const page = await import('./pages/' + name);
const locale = await import(` + "`./locales/${lang}.json`" + `);
const unknown = await import(resolvePath(x));
`
	facts := parseSource(src)

	lazy := findImport(t, facts, "./lazy")
	assert.Equal(t, EdgeDynamic, lazy.Kind)
	assert.True(t, lazy.Wildcard)

	require.Len(t, facts.Dynamics, 3)
	prefixes := make([]string, 0, 3)
	for _, d := range facts.Dynamics {
		prefixes = append(prefixes, d.Prefix)
	}
	assert.Contains(t, prefixes, "./pages/")
	assert.Contains(t, prefixes, "./locales/")
	assert.Contains(t, prefixes, "")
}

func TestParseSourceGlobImport(t *testing.T) {
	facts := parseSource(`const icons = import.meta.glob('./icons/*.svg');`)

	edge := findImport(t, facts, "./icons/*.svg")
	assert.Equal(t, EdgeGlob, edge.Kind)
	assert.True(t, edge.Wildcard)

	require.NotEmpty(t, facts.Assets)
	var globRef *AssetReference
	for i := range facts.Assets {
		if facts.Assets[i].Glob {
			globRef = &facts.Assets[i]
		}
	}
	require.NotNil(t, globRef)
	assert.Equal(t, "./icons/*.svg", globRef.Raw)
}

func TestParseSourceExports(t *testing.T) {
	src := `
export const alpha = 1;
export let beta = 2;
export function gamma() {}
export class Delta {}
export interface Shape {}
export type Alias = string;
export enum Color {}
export { epsilon, internal as zeta };
export default function main() {}
`
	facts := parseSource(src)

	syms := exportSymbols(facts)
	assert.Contains(t, syms, "alpha")
	assert.Contains(t, syms, "beta")
	assert.Contains(t, syms, "gamma")
	assert.Contains(t, syms, "Delta")
	assert.Contains(t, syms, "Shape")
	assert.Contains(t, syms, "Alias")
	assert.Contains(t, syms, "Color")
	assert.Contains(t, syms, "epsilon")
	assert.Contains(t, syms, "zeta")
	assert.NotContains(t, syms, "internal")
	assert.Contains(t, syms, "default")
}

func TestParseSourceReexports(t *testing.T) {
	src := `
export { helper, thing as renamed } from './impl';
export type { Props } from './types';
export * from './all';
`
	facts := parseSource(src)

	// Re-export lists register imports of the target, not exports of
	// this file.
	assert.Empty(t, exportSymbols(facts))
	assert.True(t, facts.HasExportAll)

	impl := findImport(t, facts, "./impl")
	assert.Equal(t, EdgeReexport, impl.Kind)
	assert.Equal(t, []string{"helper", "thing"}, impl.Symbols)

	types := findImport(t, facts, "./types")
	assert.True(t, types.TypeOnly)
	assert.Equal(t, []string{"Props"}, types.Symbols)

	all := findImport(t, facts, "./all")
	assert.Equal(t, EdgeReexport, all.Kind)
	assert.True(t, all.Wildcard)
}

func TestParseSourceIgnoresCommentedImports(t *testing.T) {
	src := `
// import dead from './dead';
/*
import alsoDead from './also-dead';
*/
import live from './live';
`
	facts := parseSource(src)

	require.Len(t, facts.Imports, 1)
	assert.Equal(t, "./live", facts.Imports[0].Spec)
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "a // gone\nb", "a \nb"},
		{"block comment", "a /* gone */ b", "a  b"},
		{"block keeps newlines", "a /* x\ny */ b", "a \n b"},
		{"slashes in string", `s = "http://x" // c`, `s = "http://x" `},
		{"slashes in template", "s = `a//b`", "s = `a//b`"},
		{"escaped quote", `s = 'it\'s' // c`, `s = 'it\'s' `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripComments(tt.in))
		})
	}
}

func TestParseImportClause(t *testing.T) {
	tests := []struct {
		clause   string
		def      bool
		wildcard bool
		typeOnly bool
		symbols  []string
	}{
		{"React", true, false, false, nil},
		{"{ a, b }", false, false, false, []string{"a", "b"}},
		{"* as ns", true, true, false, nil},
		{"Def, { a }", true, false, false, []string{"a"}},
		{"Def, * as ns", true, true, false, nil},
		{"type Foo", true, false, true, nil},
		{"type { Foo }", false, false, true, []string{"Foo"}},
		{"{ a as b }", false, false, false, []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			edge := ImportEdge{}
			parseImportClause(tt.clause, &edge)
			assert.Equal(t, tt.def, edge.Default, "default")
			assert.Equal(t, tt.wildcard, edge.Wildcard, "wildcard")
			assert.Equal(t, tt.typeOnly, edge.TypeOnly, "type-only")
			assert.Equal(t, tt.symbols, edge.Symbols, "symbols")
		})
	}
}

func TestCollectAssetLiterals(t *testing.T) {
	src := `
const logo = '/images/logo.png';
const rel = "assets/bg.jpg";
const bare = 'favicon.ico';
const word = 'hello';
const tpl = ` + "`/images/${name}.png`" + `;
`
	refs := collectAssetLiterals(src)

	raws := make([]string, 0, len(refs))
	for _, r := range refs {
		raws = append(raws, r.Raw)
	}
	assert.Contains(t, raws, "/images/logo.png")
	assert.Contains(t, raws, "assets/bg.jpg")
	assert.Contains(t, raws, "favicon.ico")
	assert.NotContains(t, raws, "hello")

	// The interpolated template degrades to a wildcard reference.
	var tpl *AssetReference
	for i := range refs {
		if refs[i].Raw == "/images/*" {
			tpl = &refs[i]
		}
	}
	require.NotNil(t, tpl)
	assert.True(t, tpl.Glob)
}

func TestParseDestructuredNames(t *testing.T) {
	names := parseDestructuredNames("a, b: renamed, c ")
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestTokenScopeCounts(t *testing.T) {
	a := parseSource("export const helper = 1;")
	b := parseSource("const x = helper();")
	c := parseSource("const unrelated = 2;")

	counts := countTokens([]*ParsedFacts{&a, &b, &c})
	assert.True(t, appearsBeyondDeclaring(counts, 3, "helper"))
	assert.False(t, appearsBeyondDeclaring(counts, 3, "missing"))

	solo := countTokens([]*ParsedFacts{&a})
	assert.True(t, appearsBeyondDeclaring(solo, 1, "helper"))
}
