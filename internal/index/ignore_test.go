package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreCacheSimple(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte("*.tmp\n# comment\n"), 0644))

	ic := NewIgnoreCache(dir)

	assert.True(t, ic.Match(filepath.Join(dir, "foo.tmp"), false))
	assert.True(t, ic.Match(filepath.Join(dir, "deep", "er", "foo.tmp"), false))
	assert.False(t, ic.Match(filepath.Join(dir, "foo.jar"), false))

	assert.True(t, ic.Match(filepath.Join(dir, ".sync_temp"), true), "core ignore")
	assert.True(t, ic.Match(filepath.Join(dir, ".sync_temp", "remote_index.db"), false))
	assert.True(t, ic.Match(filepath.Join(dir, "packsync.yaml"), false))
	assert.False(t, ic.Match(dir, true), "root is never ignored")
}

func TestIgnoreCacheCascade(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte("*.log\n"), 0644))
	child := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(child, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(child, IgnoreFileName), []byte("!keep.log\n"), 0644))

	ic := NewIgnoreCache(root)

	assert.True(t, ic.Match(filepath.Join(child, "other.log"), false), "parent rule applies in child")
	assert.False(t, ic.Match(filepath.Join(child, "keep.log"), false), "child negation wins")
	assert.True(t, ic.Match(filepath.Join(root, "keep.log"), false), "child negation does not leak upwards")
}

func TestIgnoreCacheDirectoryPattern(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte("crash-reports/\nlogs\n"), 0644))
	ic := NewIgnoreCache(root)

	assert.True(t, ic.Match(filepath.Join(root, "logs"), true))
	assert.True(t, ic.Match(filepath.Join(root, "crash-reports"), true))
	assert.False(t, ic.Match(filepath.Join(root, "config"), true))
}

func TestIgnoreCacheExtraPatterns(t *testing.T) {
	root := t.TempDir()
	ic := NewIgnoreCache(root, "*.bak", "!important.bak")

	assert.True(t, ic.Match(filepath.Join(root, "mods", "x.bak"), false))
	assert.False(t, ic.Match(filepath.Join(root, "mods", "important.bak"), false))
}

func TestIgnoreCacheClear(t *testing.T) {
	root := t.TempDir()
	ic := NewIgnoreCache(root)
	p := filepath.Join(root, "a.tmp")
	assert.False(t, ic.Match(p, false))

	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte("*.tmp\n"), 0644))
	assert.False(t, ic.Match(p, false), "cached until cleared")
	ic.ClearCache()
	assert.True(t, ic.Match(p, false))
}

func TestIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte("*.log\nsaves/\n"), 0644))
	ic := NewIgnoreCache(root, "!keep.log")

	got := ic.Patterns()
	for _, want := range []string{"*.log", "**/*.log", "saves/", "!keep.log", "!**/keep.log", ".sync_temp"} {
		assert.Contains(t, got, want)
	}
	assert.IsIncreasing(t, got)
}
