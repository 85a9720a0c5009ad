package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.Empty(t, GetAllPaths())

	require.NoError(t, Record("/srv/pack-a", ""))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, Record("/srv/pack-b", ""))
	assert.Equal(t, []string{"/srv/pack-b", "/srv/pack-a"}, GetAllPaths())

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, Record("/srv/pack-a", ""))
	assert.Equal(t, []string{"/srv/pack-a", "/srv/pack-b"}, GetAllPaths(), "re-adding refreshes the access time")

	assert.Equal(t, []string{"/srv/pack-b"}, SearchPaths("PACK-B"))

	require.NoError(t, RemovePath("/srv/pack-a"))
	assert.Equal(t, []string{"/srv/pack-b"}, GetAllPaths())
}

func TestRecordKeepsProjectName(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Record("/srv/pack-a", "atm9"))
	require.NoError(t, Record("/srv/pack-a", ""))
	h, err := LoadHistory()
	require.NoError(t, err)
	require.Len(t, h.Entries, 1)
	assert.Equal(t, "atm9", h.Entries[0].Project)

	assert.Equal(t, []string{"/srv/pack-a"}, SearchPaths("ATM"))
}

func TestPruneMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	live := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(live, "packsync.yaml"), []byte("mode: download\n"), 0644))
	gone := filepath.Join(t.TempDir(), "deleted")

	require.NoError(t, Record(live, ""))
	require.NoError(t, Record(gone, ""))

	removed, err := PruneMissing("packsync.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{gone}, removed)
	assert.Equal(t, []string{live}, GetAllPaths())

	removed, err = PruneMissing("packsync.yaml")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestHistoryIsCapped(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	h := &History{}
	base := time.Now()
	for i := 0; i < MaxEntries+5; i++ {
		h.Entries = append(h.Entries, HistoryEntry{
			Path:       fmt.Sprintf("/srv/pack-%02d", i),
			LastAccess: base.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, SaveHistory(h))

	paths := GetAllPaths()
	require.Len(t, paths, MaxEntries)
	assert.Equal(t, fmt.Sprintf("/srv/pack-%02d", MaxEntries+4), paths[0])
	assert.NotContains(t, paths, "/srv/pack-00")
}
