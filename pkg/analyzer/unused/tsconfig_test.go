package unused

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeJSONC(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "{\n// note\n\"a\": 1}", "{\n\n\"a\": 1}"},
		{"block comment", `{"a": /* gone */ 1}`, `{"a":  1}`},
		{"trailing comma object", `{"a": 1,}`, `{"a": 1}`},
		{"trailing comma array", `{"a": [1, 2,]}`, `{"a": [1, 2]}`},
		{"nested trailing commas", `{"a": {"b": [1,],},}`, `{"a": {"b": [1]}}`},
		// Trailing-comma removal is textual; it does not respect strings.
		{"comma inside string", `{"a": ",}"}`, `{"a": "}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeJSONC(tt.in))
		})
	}
}

func TestReadJSONC(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "tsconfig.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
  // base url
  "compilerOptions": { "baseUrl": "src", },
}`), 0o644))

	doc := readJSONC(good)
	require.NotNil(t, doc)
	co := doc["compilerOptions"].(map[string]any)
	assert.Equal(t, "src", co["baseUrl"])

	bad := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	assert.Nil(t, readJSONC(bad))

	assert.Nil(t, readJSONC(filepath.Join(dir, "absent.json")))
}

func TestResolveTsconfigRef(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "tsconfig.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.json"), []byte("{}"), 0o644))

	// Directory references mean dir/tsconfig.json.
	got := resolveTsconfigRef(dir, "./pkg")
	assert.Equal(t, filepath.Join(dir, "pkg", "tsconfig.json"), got)

	// Bare names get a .json extension.
	got = resolveTsconfigRef(dir, "./base")
	assert.Equal(t, filepath.Join(dir, "base.json"), got)

	got = resolveTsconfigRef(dir, "./base.json")
	assert.Equal(t, filepath.Join(dir, "base.json"), got)

	assert.Equal(t, "", resolveTsconfigRef(dir, "./missing"))
	assert.Equal(t, "", resolveTsconfigRef(dir, "  "))
}

func TestDiscoverTsconfigsFollowsCycles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	write("tsconfig.json", `{"extends": "./a.json"}`)
	write("a.json", `{"extends": "./b.json"}`)
	write("b.json", `{"extends": "./a.json"}`)

	got := discoverTsconfigs(dir)
	require.Len(t, got, 3)

	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	assert.ElementsMatch(t, []string{"tsconfig.json", "a.json", "b.json"}, names)
}

func TestHasExtension(t *testing.T) {
	assert.True(t, hasExtension("a/b.ts"))
	assert.True(t, hasExtension("b.config.js"))
	assert.False(t, hasExtension("a/b"))
	assert.False(t, hasExtension(".env"))
	assert.False(t, hasExtension("a/.gitignore"))
}
