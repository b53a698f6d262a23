package ir

import (
	"slices"
	"strings"
)

// ScopeNode is a node of the path scope tree.
//
// A fenced node isolates the paths compiled beneath it from the enclosing
// scope. Call arguments are compiled under a fence because they may bind to
// SET OF parameters; arguments that turn out not to need isolation have their
// fence collapsed back into the parent.
type ScopeNode struct {
	Fenced   bool
	parent   *ScopeNode
	children []*ScopeNode
	paths    []PathID
	optional map[PathID]bool
}

// NewScopeTree returns a fenced root node.
func NewScopeTree() *ScopeNode {
	return &ScopeNode{Fenced: true}
}

// Parent returns the enclosing node, nil for the root.
func (n *ScopeNode) Parent() *ScopeNode {
	return n.parent
}

// Children returns the direct child nodes.
func (n *ScopeNode) Children() []*ScopeNode {
	return n.children
}

// Paths returns the paths attached directly to n.
func (n *ScopeNode) Paths() []PathID {
	return n.paths
}

// AttachFence creates a fenced child node.
func (n *ScopeNode) AttachFence() *ScopeNode {
	child := &ScopeNode{Fenced: true, parent: n}
	n.children = append(n.children, child)
	return child
}

// AttachBranch creates an unfenced child node.
func (n *ScopeNode) AttachBranch() *ScopeNode {
	child := &ScopeNode{parent: n}
	n.children = append(n.children, child)
	return child
}

// AttachPath makes path visible at n. Attaching twice is a no-op.
func (n *ScopeNode) AttachPath(path PathID) {
	if !slices.Contains(n.paths, path) {
		n.paths = append(n.paths, path)
	}
}

// MarkOptional flags path as optional at n, so that an empty value for it
// does not propagate emptiness to the enclosing expression.
func (n *ScopeNode) MarkOptional(path PathID) {
	if n.optional == nil {
		n.optional = make(map[PathID]bool)
	}
	n.optional[path] = true
}

// IsOptional reports whether path was marked optional at n or above.
func (n *ScopeNode) IsOptional(path PathID) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.optional[path] {
			return true
		}
	}
	return false
}

// Collapse merges n into its parent: its paths, optional marks and children
// move up and n is detached. Collapsing the root is a no-op.
func (n *ScopeNode) Collapse() {
	p := n.parent
	if p == nil {
		return
	}
	p.removeChild(n)
	for _, path := range n.paths {
		p.AttachPath(path)
	}
	for path := range n.optional {
		p.MarkOptional(path)
	}
	for _, child := range n.children {
		child.parent = p
		p.children = append(p.children, child)
	}
	n.parent, n.children, n.paths, n.optional = nil, nil, nil, nil
}

// Remove detaches n and its subtree from the tree.
func (n *ScopeNode) Remove() {
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
}

func (n *ScopeNode) removeChild(child *ScopeNode) {
	n.children = slices.DeleteFunc(n.children, func(c *ScopeNode) bool { return c == child })
}

// Find returns the node in n's subtree where path is attached.
func (n *ScopeNode) Find(path PathID) *ScopeNode {
	if slices.Contains(n.paths, path) {
		return n
	}
	for _, child := range n.children {
		if found := child.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// String renders the subtree for debugging, one node per line:
//
//	FENCE [a b]
//	  BRANCH [c?]
func (n *ScopeNode) String() string {
	var b strings.Builder
	n.format(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (n *ScopeNode) format(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.Fenced {
		b.WriteString("FENCE")
	} else {
		b.WriteString("BRANCH")
	}
	b.WriteString(" [")
	for i, p := range n.paths {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(p))
		if n.optional[p] {
			b.WriteByte('?')
		}
	}
	b.WriteString("]\n")
	for _, child := range n.children {
		child.format(b, depth+1)
	}
}
