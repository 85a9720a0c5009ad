package cmd

import (
	"fmt"
	"strings"

	"packsync/internal/synctree"
	"packsync/internal/util"
)

func checkBox(n *synctree.Node) string {
	switch {
	case !n.CanCheck():
		return "   "
	case n.CheckState() == synctree.Checked:
		return "[x]"
	case n.CheckState() == synctree.Indeterminate:
		return "[-]"
	}
	return "[ ]"
}

// renderTab prints the visible part of a tab as an indented tree.
func renderTab(p *util.SafePrinter, t synctree.Tab) {
	c := synctree.Count(t.Root)
	var b strings.Builder
	fmt.Fprintf(&b, "== %s (%s) files %d, actionable %d ==\n", t.Title, t.Category.Root(), c.Files, c.Actionable)
	if !t.Root.IsVisible() {
		b.WriteString("  (nothing matches the filter)\n")
	}
	var walk func(n *synctree.Node, depth int)
	walk = func(n *synctree.Node, depth int) {
		if !n.IsVisible() {
			return
		}
		name := n.Name()
		if n.IsDir() {
			name += "/"
		}
		fmt.Fprintf(&b, "%s%s %s  %s\n", strings.Repeat("  ", depth), checkBox(n), name, n.ChangeType())
		for _, ch := range n.Children() {
			walk(ch, depth+1)
		}
	}
	walk(t.Root, 0)
	p.PrintBlock(b.String())
}

// actionVerb names what a transfer would do with a node in mode.
func actionVerb(mode synctree.Mode, c synctree.ChangeType) string {
	switch c {
	case synctree.ChangeModified:
		return "update"
	case synctree.ChangeRepoOnly:
		if mode == synctree.ModeDownload {
			return "fetch"
		}
		return "delete"
	case synctree.ChangeLocalOnly:
		if mode == synctree.ModeUpload {
			return "push"
		}
		return "remove"
	}
	return "keep"
}

// renderPlan prints the actionable files of one tab.
func renderPlan(p *util.SafePrinter, mode synctree.Mode, t synctree.Tab, nodes []*synctree.Node) {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s: %d file(s) ==\n", t.Title, len(nodes))
	for _, n := range nodes {
		fmt.Fprintf(&b, "  %-7s %s  (%s)\n", actionVerb(mode, n.ChangeType()), n.Path(), n.ChangeType())
	}
	p.PrintBlock(b.String())
}
