package synctree

import (
	"sort"
	"strings"
)

// Filter is the set of change types whose nodes stay visible. ChangeNone is a
// regular member.
type Filter map[ChangeType]bool

// NewFilter returns a filter with the given active types.
func NewFilter(types ...ChangeType) Filter {
	f := make(Filter, len(types))
	for _, t := range types {
		f[t] = true
	}
	return f
}

// AllChanges shows every node.
func AllChanges() Filter {
	return NewFilter(ChangeNone, ChangeUnchanged, ChangeRepoOnly, ChangeLocalOnly, ChangeModified)
}

// ParseFilter parses change type names; an empty list means AllChanges.
func ParseFilter(names []string) (Filter, error) {
	if len(names) == 0 {
		return AllChanges(), nil
	}
	f := make(Filter, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, err := ParseChangeType(part)
			if err != nil {
				return nil, err
			}
			f[t] = true
		}
	}
	return f, nil
}

func (f Filter) Contains(t ChangeType) bool { return f[t] }

// Toggle flips membership of t.
func (f Filter) Toggle(t ChangeType) {
	if f[t] {
		delete(f, t)
		return
	}
	f[t] = true
}

// Strings returns the active type names in declaration order.
func (f Filter) Strings() []string {
	types := make([]ChangeType, 0, len(f))
	for t, on := range f {
		if on {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

// ApplyFilter recomputes visibility of every node below roots, post-order.
// Listeners may mutate the tab list while this runs; each level iterates over
// a snapshot.
func ApplyFilter(roots []*Node, f Filter) {
	snapshot := append([]*Node(nil), roots...)
	for _, r := range snapshot {
		if r != nil {
			applyFilter(r, f)
		}
	}
}

// ApplyFilterTabs is ApplyFilter over the roots of tabs.
func ApplyFilterTabs(tabs []Tab, f Filter) {
	ApplyFilter(Roots(tabs), f)
}

func applyFilter(n *Node, f Filter) bool {
	visible := f.Contains(n.change)
	for _, c := range n.Children() {
		if applyFilter(c, f) {
			visible = true
		}
	}
	n.setVisible(visible)
	return visible
}
