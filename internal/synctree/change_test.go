package synctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLeaf(t *testing.T) {
	testCases := []struct {
		local, remote string
		expected      ChangeType
	}{
		{"h", "h", ChangeUnchanged},
		{"h1", "h2", ChangeModified},
		{"h", "", ChangeLocalOnly},
		{"", "h", ChangeRepoOnly},
		{"", "", ChangeNone},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ClassifyLeaf(tc.local, tc.remote), "local=%q remote=%q", tc.local, tc.remote)
	}
}

func TestAggregatePriority(t *testing.T) {
	set := func(types ...ChangeType) map[ChangeType]bool {
		m := map[ChangeType]bool{}
		for _, c := range types {
			m[c] = true
		}
		return m
	}
	testCases := []struct {
		desc     string
		present  map[ChangeType]bool
		download ChangeType
		upload   ChangeType
	}{
		{"no children", set(), ChangeUnchanged, ChangeUnchanged},
		{"modified wins", set(ChangeModified, ChangeRepoOnly, ChangeLocalOnly), ChangeModified, ChangeModified},
		{"repo vs local", set(ChangeRepoOnly, ChangeLocalOnly), ChangeRepoOnly, ChangeLocalOnly},
		{"unchanged vs local", set(ChangeUnchanged, ChangeLocalOnly), ChangeUnchanged, ChangeLocalOnly},
		{"unchanged vs repo", set(ChangeUnchanged, ChangeRepoOnly), ChangeRepoOnly, ChangeUnchanged},
		{"local vs none", set(ChangeLocalOnly, ChangeNone), ChangeLocalOnly, ChangeLocalOnly},
		{"only none", set(ChangeNone), ChangeNone, ChangeNone},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.download, Aggregate(ModeDownload, tc.present))
			assert.Equal(t, tc.upload, Aggregate(ModeUpload, tc.present))
		})
	}
}

func TestCanCheck(t *testing.T) {
	assert.False(t, CanCheck(ModeDownload, ChangeUnchanged))
	assert.False(t, CanCheck(ModeDownload, ChangeLocalOnly))
	assert.True(t, CanCheck(ModeDownload, ChangeRepoOnly))
	assert.True(t, CanCheck(ModeDownload, ChangeModified))
	assert.True(t, CanCheck(ModeDownload, ChangeNone))

	assert.False(t, CanCheck(ModeUpload, ChangeUnchanged))
	assert.True(t, CanCheck(ModeUpload, ChangeLocalOnly))
	assert.True(t, CanCheck(ModeUpload, ChangeRepoOnly))
	assert.True(t, CanCheck(ModeUpload, ChangeModified))
	assert.True(t, CanCheck(ModeUpload, ChangeNone))
}

func TestDirectoryClassification(t *testing.T) {
	local, remote := fixture()

	root := selectionRoot(ModeDownload, local, remote)
	assert.Equal(t, ChangeModified, root.ChangeType())
	assert.Equal(t, ChangeModified, root.Find("root/sub", true).ChangeType())

	onlyUnchanged := selectionRoot(ModeDownload,
		[]Entry{LocalEntry("root/x/a", false, "1"), LocalEntry("root/x/b", false, "2")},
		[]Entry{RemoteEntry("root/x/a", false, "1"), RemoteEntry("root/x/b", false, "2")},
	)
	assert.Equal(t, ChangeUnchanged, onlyUnchanged.ChangeType())
	assert.Equal(t, ChangeUnchanged, onlyUnchanged.Find("root/x", true).ChangeType())

	mixed := []Entry{LocalEntry("root/l.txt", false, "1"), LocalEntry("root/u.txt", false, "2")}
	mixedRemote := []Entry{RemoteEntry("root/r.txt", false, "3"), RemoteEntry("root/u.txt", false, "2")}
	assert.Equal(t, ChangeRepoOnly, selectionRoot(ModeDownload, mixed, mixedRemote).ChangeType())
	assert.Equal(t, ChangeLocalOnly, selectionRoot(ModeUpload, mixed, mixedRemote).ChangeType())
}

func TestParseModeAndChangeType(t *testing.T) {
	m, err := ParseMode("Upload")
	assert.NoError(t, err)
	assert.Equal(t, ModeUpload, m)
	_, err = ParseMode("sideways")
	assert.Error(t, err)

	c, err := ParseChangeType("repo-only")
	assert.NoError(t, err)
	assert.Equal(t, ChangeRepoOnly, c)
	_, err = ParseChangeType("bogus")
	assert.Error(t, err)
}
