package synctree

// CheckState is the tri-state checkbox value of a node.
type CheckState int8

const (
	Unchecked CheckState = iota
	Checked
	Indeterminate
)

func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// CheckStateOf converts a plain boolean.
func CheckStateOf(b bool) CheckState {
	if b {
		return Checked
	}
	return Unchecked
}

// Property names the node field a notification is about.
type Property int8

const (
	PropCheck Property = iota
	PropSelected
	PropVisible
	PropExpanded
)

// Listener observes changes of a node and of every node below it.
type Listener func(source *Node, p Property)

type listenerSlot struct {
	id int
	fn Listener
}

// mutation carries the re-entrancy guards of one SetCheckState call down the
// call stack.
type mutation struct {
	descending bool // parents must not recompute while a push-down is running
	ascending  bool // recomputation must not push down again
}

// Node is the presentation tree node. A parent owns its children through the
// children slice; children reach their parent only through the two callbacks
// the parent registers on them at construction.
type Node struct {
	entry    Entry
	mode     Mode
	change   ChangeType
	check    CheckState
	visible  bool
	expanded bool
	selected bool
	children []*Node

	childChanged func(m *mutation)
	bubble       func(source *Node, p Property)

	listeners []listenerSlot
	nextID    int
}

// newNode builds the selection subtree for pn. Classification is derived once
// from immutable hash observations; nothing between rebuilds can change it.
func newNode(pn *pathNode, mode Mode) *Node {
	n := &Node{
		entry: Entry{
			Name:       pn.name,
			Path:       pn.path,
			IsDir:      pn.isDir,
			LocalHash:  pn.localHash,
			RemoteHash: pn.remoteHash,
		},
		mode:    mode,
		visible: true,
	}
	if !pn.isDir {
		n.change = ClassifyLeaf(pn.localHash, pn.remoteHash)
		return n
	}
	present := make(map[ChangeType]bool, len(pn.children))
	n.children = make([]*Node, 0, len(pn.children))
	for _, c := range pn.children {
		child := newNode(c, mode)
		n.adopt(child)
		present[child.change] = true
	}
	n.change = Aggregate(mode, present)
	return n
}

// newPlaceholder returns the empty root used for a category missing from the
// merged tree.
func newPlaceholder(path string, mode Mode) *Node {
	return &Node{
		entry:   Entry{Name: baseName(path), Path: path, IsDir: true},
		mode:    mode,
		change:  ChangeNone,
		visible: true,
	}
}

func (n *Node) adopt(child *Node) {
	child.childChanged = n.onChildChanged
	child.bubble = n.notify
	n.children = append(n.children, child)
}

func (n *Node) Name() string           { return n.entry.Name }
func (n *Node) Path() string           { return n.entry.Path }
func (n *Node) IsDir() bool            { return n.entry.IsDir }
func (n *Node) Entry() Entry           { return n.entry }
func (n *Node) Mode() Mode             { return n.mode }
func (n *Node) ChangeType() ChangeType { return n.change }
func (n *Node) CheckState() CheckState { return n.check }
func (n *Node) IsVisible() bool        { return n.visible }
func (n *Node) IsExpanded() bool       { return n.expanded }
func (n *Node) IsSelected() bool       { return n.selected }
func (n *Node) Len() int               { return len(n.children) }

// CanCheck reports whether this node may be ticked in its mode.
func (n *Node) CanCheck() bool { return CanCheck(n.mode, n.change) }

// Children returns a snapshot of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// SetCheckState sets the tri-state value. Non-checkable nodes are forced to
// Unchecked. On a directory a definite value is pushed to every descendant,
// after which the directory settles to the aggregate of its children.
func (n *Node) SetCheckState(v CheckState) {
	n.setCheck(v, &mutation{})
}

// SetChecked is SetCheckState for a plain boolean.
func (n *Node) SetChecked(b bool) { n.SetCheckState(CheckStateOf(b)) }

func (n *Node) coerce(v CheckState) CheckState {
	if !n.CanCheck() {
		return Unchecked
	}
	return v
}

func (n *Node) setCheck(v CheckState, m *mutation) {
	v = n.coerce(v)
	if len(n.children) > 0 {
		if v != Indeterminate && !m.ascending {
			m.descending = true
			for _, c := range n.children {
				c.applyDown(v, m)
			}
			m.descending = false
		}
		v = n.aggregateCheck()
	}
	n.assignCheck(v, m)
}

// applyDown is one step of the downward push: the child coerces the value for
// itself and is only touched when its state differs.
func (n *Node) applyDown(v CheckState, m *mutation) {
	target := n.coerce(v)
	if n.check == target {
		return
	}
	if len(n.children) > 0 {
		for _, c := range n.children {
			c.applyDown(target, m)
		}
		target = n.aggregateCheck()
	}
	n.assignCheck(target, m)
}

func (n *Node) onChildChanged(m *mutation) {
	if m.descending {
		return
	}
	prev := m.ascending
	m.ascending = true
	n.assignCheck(n.aggregateCheck(), m)
	m.ascending = prev
}

func (n *Node) assignCheck(v CheckState, m *mutation) {
	if n.check == v {
		return
	}
	n.check = v
	n.notify(n, PropCheck)
	if n.childChanged != nil {
		n.childChanged(m)
	}
}

func (n *Node) aggregateCheck() CheckState {
	var checked, unchecked int
	for _, c := range n.children {
		switch c.check {
		case Checked:
			checked++
		case Unchecked:
			unchecked++
		}
	}
	switch len(n.children) {
	case checked:
		return Checked
	case unchecked:
		return Unchecked
	}
	return Indeterminate
}

// SetSelected pushes the highlight flag down the subtree with the same
// checkability gating as SetCheckState. Parents are never recomputed.
func (n *Node) SetSelected(v bool) {
	if v && !n.CanCheck() {
		v = false
	}
	if n.selected != v {
		n.selected = v
		n.notify(n, PropSelected)
	}
	for _, c := range n.children {
		c.SetSelected(v)
	}
}

// SetExpanded toggles the expansion flag of this node only.
func (n *Node) SetExpanded(v bool) {
	if n.expanded == v {
		return
	}
	n.expanded = v
	n.notify(n, PropExpanded)
}

func (n *Node) setVisible(v bool) {
	if n.visible == v {
		return
	}
	n.visible = v
	n.notify(n, PropVisible)
}

// AddListener registers l for changes of n and its descendants and returns an
// id for RemoveListener.
func (n *Node) AddListener(l Listener) int {
	n.nextID++
	n.listeners = append(n.listeners, listenerSlot{id: n.nextID, fn: l})
	return n.nextID
}

// RemoveListener detaches a listener. Unknown ids are ignored.
func (n *Node) RemoveListener(id int) {
	for i, s := range n.listeners {
		if s.id == id {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of listeners attached directly to n.
func (n *Node) ListenerCount() int { return len(n.listeners) }

func (n *Node) notify(source *Node, p Property) {
	if len(n.listeners) > 0 {
		snapshot := make([]listenerSlot, len(n.listeners))
		copy(snapshot, n.listeners)
		for _, s := range snapshot {
			s.fn(source, p)
		}
	}
	if n.bubble != nil {
		n.bubble(source, p)
	}
}

// Walk visits n and its descendants depth first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children() {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the descendant (or n itself) with the given path and
// directory flag.
func (n *Node) Find(path string, isDir bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.entry.Path == path && c.entry.IsDir == isDir {
			found = c
			return false
		}
		return true
	})
	return found
}
