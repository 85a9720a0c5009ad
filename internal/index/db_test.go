package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packsync/internal/synctree"
)

func TestSaveAndLoadIndexDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".sync_temp", "indexing_files.db")
	metas := []FileMeta{
		{Path: "/srv/mc/mods", Rel: "mods", IsDir: true},
		{Path: "/srv/mc/mods/a.jar", Rel: "mods/a.jar", Size: 3, ModTime: 42, Hash: "abc"},
	}
	require.NoError(t, SaveIndexDB(dbPath, metas))

	got, err := LoadIndexDB(dbPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, metas, got)

	// Saving again replaces the content.
	require.NoError(t, SaveIndexDB(dbPath, metas[1:]))
	got, err = LoadIndexDB(dbPath)
	require.NoError(t, err)
	assert.Equal(t, metas[1:], got)
}

func TestLoadIndexDBMissing(t *testing.T) {
	_, err := LoadIndexDB(filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestRemoteEntriesFiltersRows(t *testing.T) {
	metas := []FileMeta{
		{Rel: ""},
		{Rel: "."},
		{Rel: ".sync_temp", IsDir: true},
		{Rel: ".sync_temp/indexing_files.db", Hash: "x"},
		{Rel: "kubejs/.sync_temp/x", Hash: "x"},
		{Rel: "config", IsDir: true, Hash: "ignored"},
		{Rel: "config/a.toml", Hash: "h1"},
		{Rel: "config/b.toml", Size: 7, ModTime: 9},
	}
	got := RemoteEntries(metas)
	assert.Equal(t, []synctree.Entry{
		synctree.RemoteEntry("config", true, ""),
		synctree.RemoteEntry("config/a.toml", false, "h1"),
		synctree.RemoteEntry("config/b.toml", false, "unhashed:7:9"),
	}, got)

	local := LocalEntries(metas[6:7])
	assert.Equal(t, "h1", local[0].LocalHash)
	assert.Empty(t, local[0].RemoteHash)
}
