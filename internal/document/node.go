package document

import (
	"fmt"

	"hpresolve/internal/literal"
)

// NodeKind tags a Node.
type NodeKind int

const (
	ScalarNode NodeKind = iota + 1
	SequenceNode
	MappingNode
)

func (k NodeKind) String() string {
	switch k {
	case ScalarNode:
		return "scalar"
	case SequenceNode:
		return "sequence"
	case MappingNode:
		return "mapping"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is one value of a parsed document.
//
// Alias sites are not copies: every alias of an anchor holds the very
// *Node the anchor was defined on, and that node's Anchor field points at
// the shared Anchor entry. Nodes are never mutated after Parse returns;
// edits build new nodes and share the untouched ones.
type Node struct {
	Kind NodeKind

	// Scalar holds the parsed literal of a ScalarNode. When the token was
	// malformed, Err is set and Scalar is the token as a String.
	Scalar literal.TypedValue
	Err    error

	Items []*Node

	keys   []string
	fields map[string]*Node

	// Anchor is set on a node defined with &name; alias sites share it.
	Anchor *Anchor
	// Base is set on a mapping built from a merge key (<<: *name). It is
	// the first merged anchor.
	Base *Anchor

	File   string
	Line   int
	Column int
}

// NewScalar returns a scalar node holding v.
func NewScalar(v literal.TypedValue) *Node {
	return &Node{Kind: ScalarNode, Scalar: v}
}

// NewSequence returns a sequence node.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: SequenceNode, Items: items}
}

// NewMapping returns an empty mapping node.
func NewMapping() *Node {
	return &Node{Kind: MappingNode, fields: map[string]*Node{}}
}

// Keys returns the mapping keys in document order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != MappingNode {
		return nil
	}
	return n.keys
}

// Get returns the value of key in a mapping node.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != MappingNode {
		return nil, false
	}
	v, ok := n.fields[key]
	return v, ok
}

// Has reports whether a mapping node carries key.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Set assigns key on a mapping node, appending new keys at the end. It is
// meant for nodes under construction.
func (n *Node) Set(key string, v *Node) {
	if n.fields == nil {
		n.fields = map[string]*Node{}
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = v
}

// Delete removes key from a mapping node under construction.
func (n *Node) Delete(key string) {
	if _, ok := n.fields[key]; !ok {
		return
	}
	delete(n.fields, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i:i], n.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of items or keys.
func (n *Node) Len() int {
	switch {
	case n == nil:
		return 0
	case n.Kind == SequenceNode:
		return len(n.Items)
	case n.Kind == MappingNode:
		return len(n.keys)
	}
	return 0
}

// IsNull reports whether n is absent or the null literal.
func (n *Node) IsNull() bool {
	return n == nil || (n.Kind == ScalarNode && n.Scalar.IsNull())
}

// ShallowCopy returns a copy of n with its own key table, for building an
// edited version of a mapping without touching the original.
func (n *Node) ShallowCopy() *Node {
	c := *n
	c.Anchor = nil
	if n.Kind == MappingNode {
		c.keys = append([]string(nil), n.keys...)
		c.fields = make(map[string]*Node, len(n.fields))
		for k, v := range n.fields {
			c.fields[k] = v
		}
	}
	if n.Kind == SequenceNode {
		c.Items = append([]*Node(nil), n.Items...)
	}
	return &c
}

// Origin returns the anchor this node stands for: its own anchor, or the
// base of a merge-key overlay.
func (n *Node) Origin() *Anchor {
	if n == nil {
		return nil
	}
	if n.Anchor != nil {
		return n.Anchor
	}
	return n.Base
}

// Source renders the node position as file:line.
func (n *Node) Source() string {
	if n == nil || n.File == "" {
		return ""
	}
	if n.Line == 0 {
		return n.File
	}
	return fmt.Sprintf("%s:%d", n.File, n.Line)
}

// Typed converts n into plain containers: scalars become
// literal.TypedValue, sequences []any and mappings map[string]any.
func (n *Node) Typed() any {
	if n == nil {
		return literal.NullValue()
	}
	switch n.Kind {
	case SequenceNode:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.Typed()
		}
		return out
	case MappingNode:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.fields[k].Typed()
		}
		return out
	}
	return n.Scalar
}
