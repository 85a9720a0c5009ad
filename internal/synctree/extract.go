package synctree

// ExtractChecked returns the entries of checked nodes below root. Files count
// when checked; with fileOnly false, fully checked directories are included
// as well.
func ExtractChecked(root *Node, fileOnly bool) []Entry {
	var out []Entry
	if root == nil {
		return out
	}
	root.Walk(func(n *Node) bool {
		if n.check != Checked {
			return true
		}
		if !n.entry.IsDir || !fileOnly {
			out = append(out, n.entry)
		}
		return true
	})
	return out
}

// ExtractCheckedActionable returns the checked, visible files whose content
// actually differs between the two sides. This is the set handed to a
// transfer.
func ExtractCheckedActionable(root *Node) []*Node {
	var out []*Node
	if root == nil {
		return out
	}
	root.Walk(func(n *Node) bool {
		if n.entry.IsDir || n.check != Checked || !n.visible {
			return true
		}
		if n.change == ChangeUnchanged {
			return true
		}
		out = append(out, n)
		return true
	})
	return out
}

// Counts summarises a subtree for status lines.
type Counts struct {
	Files      int
	Checked    int
	Actionable int
	ByChange   map[ChangeType]int
}

// Count walks root and tallies its files.
func Count(root *Node) Counts {
	c := Counts{ByChange: make(map[ChangeType]int)}
	if root == nil {
		return c
	}
	root.Walk(func(n *Node) bool {
		if n.entry.IsDir {
			return true
		}
		c.Files++
		c.ByChange[n.change]++
		if n.check == Checked {
			c.Checked++
			if n.change != ChangeUnchanged && n.visible {
				c.Actionable++
			}
		}
		return true
	})
	return c
}
