package synctree

import (
	"sort"
	"strings"
)

// pathNode is the merge-time tree. Siblings are keyed by (name, isDir) so a
// file and a directory of the same name stay separate nodes.
type pathNode struct {
	name       string
	path       string
	isDir      bool
	localHash  string
	remoteHash string
	children   []*pathNode
	index      map[childKey]*pathNode
}

type childKey struct {
	name  string
	isDir bool
}

func newRoot() *pathNode {
	return &pathNode{isDir: true}
}

// build merges both listings. Callers are expected to have dropped blank
// paths already.
func build(local, remote []Entry) *pathNode {
	root := newRoot()
	for _, e := range local {
		root.insert(e)
	}
	for _, e := range remote {
		root.insert(e)
	}
	root.sortRecursive()
	return root
}

func (n *pathNode) insert(e Entry) {
	segments := strings.Split(e.Path, "/")
	cur := n
	for i, seg := range segments {
		last := i == len(segments)-1
		isDir := true
		if last {
			isDir = e.IsDir
		}
		cur = cur.child(seg, isDir)
	}
	if e.LocalHash != "" {
		cur.localHash = e.LocalHash
	}
	if e.RemoteHash != "" {
		cur.remoteHash = e.RemoteHash
	}
}

func (n *pathNode) child(name string, isDir bool) *pathNode {
	key := childKey{name: name, isDir: isDir}
	if c, ok := n.index[key]; ok {
		return c
	}
	p := name
	if n.path != "" {
		p = n.path + "/" + name
	}
	c := &pathNode{name: name, path: p, isDir: isDir}
	if n.index == nil {
		n.index = make(map[childKey]*pathNode)
	}
	n.index[key] = c
	n.children = append(n.children, c)
	return c
}

// find returns the child with the given name and directory flag, or nil.
func (n *pathNode) find(name string, isDir bool) *pathNode {
	return n.index[childKey{name: name, isDir: isDir}]
}

func (n *pathNode) sortRecursive() {
	sort.Slice(n.children, func(i, j int) bool {
		return lessChild(n.children[i], n.children[j])
	})
	for _, c := range n.children {
		c.sortRecursive()
	}
}

// lessChild orders by ordinal name, directories first on equal names.
func lessChild(a, b *pathNode) bool {
	if a.name != b.name {
		return a.name < b.name
	}
	return a.isDir && !b.isDir
}
