package synctree

// fixture builds a small instance tree:
//
//	root/a.txt      unchanged
//	root/b.txt      repo only
//	root/sub/c.txt  modified
//	root/sub/d.txt  local only
func fixture() (local, remote []Entry) {
	local = []Entry{
		LocalEntry("root", true, ""),
		LocalEntry("root/a.txt", false, "h-a"),
		LocalEntry("root/sub", true, ""),
		LocalEntry("root/sub/c.txt", false, "h-c-local"),
		LocalEntry("root/sub/d.txt", false, "h-d"),
	}
	remote = []Entry{
		RemoteEntry("root", true, ""),
		RemoteEntry("root/a.txt", false, "h-a"),
		RemoteEntry("root/b.txt", false, "h-b"),
		RemoteEntry("root/sub", true, ""),
		RemoteEntry("root/sub/c.txt", false, "h-c-remote"),
	}
	return local, remote
}

// selectionRoot returns the node for "root" in the merged fixture.
func selectionRoot(mode Mode, local, remote []Entry) *Node {
	return newNode(build(local, remote), mode).Find("root", true)
}

func childNames(n *Node) []string {
	names := make([]string, 0, n.Len())
	for _, c := range n.Children() {
		if c.IsDir() {
			names = append(names, c.Name()+"/")
		} else {
			names = append(names, c.Name())
		}
	}
	return names
}

// assertConsistent reports the first directory whose check state disagrees
// with its children.
func firstInconsistent(root *Node) *Node {
	var bad *Node
	root.Walk(func(n *Node) bool {
		if n.Len() > 0 && n.CheckState() != n.aggregateCheck() {
			bad = n
			return false
		}
		return true
	})
	return bad
}
