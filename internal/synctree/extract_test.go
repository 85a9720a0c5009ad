package synctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestExtractCheckedFiles(t *testing.T) {
	local, remote := fixture()
	root := selectionRoot(ModeUpload, local, remote)
	root.Find("root/sub", true).SetChecked(true)

	assert.Equal(t, []string{"root/sub/c.txt", "root/sub/d.txt"}, paths(ExtractChecked(root, true)))
	assert.Equal(t, []string{"root/sub", "root/sub/c.txt", "root/sub/d.txt"}, paths(ExtractChecked(root, false)))
	assert.Empty(t, ExtractChecked(nil, true))
}

func TestExtractCheckedActionableSkipsUnchanged(t *testing.T) {
	local, remote := fixture()
	root := selectionRoot(ModeDownload, local, remote)
	root.SetChecked(true)

	a := root.Find("root/a.txt", false)
	a.check = Checked

	var got []string
	for _, n := range ExtractCheckedActionable(root) {
		assert.False(t, n.IsDir())
		got = append(got, n.Path())
	}
	assert.Equal(t, []string{"root/b.txt", "root/sub/c.txt"}, got)
	assert.Contains(t, paths(ExtractChecked(root, true)), "root/a.txt")
}

func TestExtractCheckedActionableSkipsHidden(t *testing.T) {
	local, remote := fixture()
	root := selectionRoot(ModeDownload, local, remote)
	root.SetChecked(true)
	ApplyFilter([]*Node{root}, NewFilter(ChangeModified))

	var got []string
	for _, n := range ExtractCheckedActionable(root) {
		got = append(got, n.Path())
	}
	assert.Equal(t, []string{"root/sub/c.txt"}, got)
}

func TestCount(t *testing.T) {
	local, remote := fixture()
	root := selectionRoot(ModeDownload, local, remote)
	root.SetChecked(true)

	c := Count(root)
	assert.Equal(t, 4, c.Files)
	assert.Equal(t, 2, c.Checked)
	assert.Equal(t, 2, c.Actionable)
	assert.Equal(t, 1, c.ByChange[ChangeModified])
	assert.Equal(t, 1, c.ByChange[ChangeLocalOnly])
}
