package synctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterKeepsAncestorsOfMatchingDescendants(t *testing.T) {
	local, remote := fixture()
	root := selectionRoot(ModeDownload, local, remote)

	ApplyFilter([]*Node{root}, NewFilter(ChangeLocalOnly))

	assert.False(t, root.Find("root/sub/c.txt", false).IsVisible())
	assert.True(t, root.Find("root/sub/d.txt", false).IsVisible())
	assert.True(t, root.Find("root/sub", true).IsVisible(), "modified directory shown for its local only child")
	assert.True(t, root.IsVisible())
	assert.False(t, root.Find("root/a.txt", false).IsVisible())
	assert.False(t, root.Find("root/b.txt", false).IsVisible())
}

func TestFilterEmptySetHidesEverything(t *testing.T) {
	local, remote := fixture()
	root := selectionRoot(ModeDownload, local, remote)

	ApplyFilter([]*Node{root}, NewFilter())
	root.Walk(func(n *Node) bool {
		assert.False(t, n.IsVisible(), n.Path())
		return true
	})

	ApplyFilter([]*Node{root}, AllChanges())
	root.Walk(func(n *Node) bool {
		assert.True(t, n.IsVisible(), n.Path())
		return true
	})
}

func TestFilterPlaceholderMatchesNone(t *testing.T) {
	tabs := BuildTabsFor(nil, nil, ModeDownload, []Category{CategoryMods})
	ApplyFilterTabs(tabs, NewFilter(ChangeModified))
	assert.False(t, tabs[0].Root.IsVisible())
	ApplyFilterTabs(tabs, NewFilter(ChangeNone))
	assert.True(t, tabs[0].Root.IsVisible())
}

func TestFilterToleratesListenerMutatingRoots(t *testing.T) {
	local, remote := fixture()
	first := selectionRoot(ModeDownload, local, remote)
	second := selectionRoot(ModeDownload, local, remote)
	roots := []*Node{first, second}

	first.AddListener(func(source *Node, p Property) {
		if p == PropVisible {
			roots = roots[:0]
		}
	})

	require.NotPanics(t, func() { ApplyFilter(roots, NewFilter(ChangeRepoOnly)) })
	assert.Empty(t, roots)
	assert.False(t, second.Find("root/a.txt", false).IsVisible(), "second root filtered despite the list being cleared")
	assert.True(t, second.Find("root/b.txt", false).IsVisible())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, AllChanges(), f)

	f, err = ParseFilter([]string{"modified,repo-only", " local-only "})
	require.NoError(t, err)
	assert.Equal(t, []string{"repo-only", "local-only", "modified"}, f.Strings())

	_, err = ParseFilter([]string{"bogus"})
	assert.Error(t, err)
}

func TestFilterToggle(t *testing.T) {
	f := NewFilter(ChangeModified)
	f.Toggle(ChangeModified)
	assert.False(t, f.Contains(ChangeModified))
	f.Toggle(ChangeRepoOnly)
	assert.True(t, f.Contains(ChangeRepoOnly))
}
