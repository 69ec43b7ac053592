package expr

import "gopkg.in/yaml.v3"

// Node captures the raw YAML tree for a condition. The tree is kept
// verbatim at unmarshal time so Compile can interpret it separately.
type Node struct {
	raw *yaml.Node
}

// Raw exposes the underlying YAML node.
func (n *Node) Raw() *yaml.Node {
	if n == nil {
		return nil
	}
	return n.raw
}

// UnmarshalYAML stores the condition tree verbatim.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	n.raw = value
	return nil
}

// NewNode wraps a YAML condition node.
func NewNode(node *yaml.Node) *Node {
	return &Node{raw: node}
}
