package kdtree

import (
	"fmt"

	"github.com/achilleasa/kdtrace/types"
)

type NodeKind uint8

const (
	InternalNode NodeKind = iota
	LeafNode
)

// A kd-tree node. Nodes are stored in a contiguous list with the root at
// index 0. The children of an internal node occupy two adjacent slots
// starting at Left; leaves reference a range of the shared primitive index
// list.
type Node struct {
	Kind NodeKind

	// Internal node fields.
	Axis  types.Axis
	Split float32
	Left  uint32

	// Leaf node fields.
	First uint32
	Count uint32
}

// Get the index of the right child of an internal node.
func (n *Node) Right() uint32 {
	return n.Left + 1
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Kind == LeafNode
}

// Implements fmt.Stringer
func (n Node) String() string {
	if n.Kind == LeafNode {
		return fmt.Sprintf("leaf{first: %d, count: %d}", n.First, n.Count)
	}
	return fmt.Sprintf("node{axis: %s, split: %g, children: [%d, %d]}", n.Axis, n.Split, n.Left, n.Left+1)
}
