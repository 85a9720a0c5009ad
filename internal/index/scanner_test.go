package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packsync/internal/synctree"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func instance(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "mods/a.jar", "aaa")
	writeFile(t, root, "mods/b.jar", "bbb")
	writeFile(t, root, "logs/latest.log", "noise")
	writeFile(t, root, ".sync_temp/state.json", "{}")
	writeFile(t, root, "packsync.yaml", "project_name: x")
	writeFile(t, root, IgnoreFileName, "logs\n")
	return root
}

func TestScanSkipsIgnored(t *testing.T) {
	root := instance(t)
	s, err := NewScanner(root, nil, nil, nil)
	require.NoError(t, err)

	entries, err := s.Scan(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
		if e.IsDir {
			assert.Empty(t, e.LocalHash)
		} else {
			assert.Len(t, e.LocalHash, 16)
		}
		assert.Empty(t, e.RemoteHash)
	}
	assert.Equal(t, []string{"mods", "mods/a.jar", "mods/b.jar"}, paths)
}

func TestScanExtraIgnores(t *testing.T) {
	root := instance(t)
	s, err := NewScanner(root, []string{"b.jar"}, nil, nil)
	require.NoError(t, err)

	entries, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "mods/a.jar", entries[1].Path)
}

func TestScanEqualContentHashesEqual(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x/one", "same")
	writeFile(t, root, "y/two", "same")

	s, err := NewScanner(root, nil, nil, nil)
	require.NoError(t, err)
	metas, err := s.ScanMeta(context.Background())
	require.NoError(t, err)

	hashes := map[string]string{}
	for _, m := range metas {
		hashes[m.Rel] = m.Hash
	}
	assert.Equal(t, hashes["x/one"], hashes["y/two"])
}

func TestScanReusesCachedHash(t *testing.T) {
	root := instance(t)
	cache, err := OpenHashCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	s, err := NewScanner(root, nil, cache, nil)
	require.NoError(t, err)
	first, err := s.ScanMeta(context.Background())
	require.NoError(t, err)

	files, _, err := cache.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, files)

	// Same size and mtime: the cached hash is trusted.
	p := filepath.Join(root, "mods", "a.jar")
	info, err := os.Stat(p)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, []byte("zzz"), 0644))
	require.NoError(t, os.Chtimes(p, info.ModTime(), info.ModTime()))

	second, err := s.ScanMeta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[1].Hash, second[1].Hash)

	// A new mtime forces a rehash.
	later := info.ModTime().Add(time.Minute)
	require.NoError(t, os.Chtimes(p, later, later))
	third, err := s.ScanMeta(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first[1].Hash, third[1].Hash)
}

func TestScanCancelled(t *testing.T) {
	root := instance(t)
	s, err := NewScanner(root, nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewScannerEmptyRoot(t *testing.T) {
	_, err := NewScanner("  ", nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyRoot)
	_, err = (&Scanner{}).Scan(context.Background())
	assert.ErrorIs(t, err, ErrEmptyRoot)
}

func TestScanFeedsTree(t *testing.T) {
	root := instance(t)
	s, err := NewScanner(root, nil, nil, nil)
	require.NoError(t, err)
	local, err := s.Scan(context.Background())
	require.NoError(t, err)

	remote := []synctree.Entry{synctree.RemoteEntry("mods/c.jar", false, "c")}
	tabs := synctree.BuildTabs(local, remote, synctree.ModeDownload)
	assert.Equal(t, 3, tabs[0].Root.Len())
	assert.Equal(t, synctree.ChangeRepoOnly, tabs[0].Root.ChangeType())
}

func TestHashCacheForgetAndReset(t *testing.T) {
	cache, err := OpenHashCache(filepath.Join(t.TempDir(), "c", "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Store([]CachedHash{
		{Path: "a", Hash: "1", Size: 1, ModTime: 1},
		{Path: "b", Hash: "2", Size: 2, ModTime: 2},
	}))
	require.NoError(t, cache.Store([]CachedHash{{Path: "a", Hash: "9", Size: 1, ModTime: 3}}))

	snap, err := cache.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "9", snap["a"].Hash)
	assert.EqualValues(t, 3, snap["a"].ModTime)

	require.NoError(t, cache.Forget([]string{"b"}))
	files, bytes, err := cache.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, files)
	assert.EqualValues(t, 1, bytes)

	n, err := cache.Reset()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
