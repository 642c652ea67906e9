package model

import (
	"fmt"
	"io"
	"strings"
)

// HierarchyNode is one node of a skeleton's scene-graph tree.
// A node exclusively owns its children, which keep the order of the source asset.
// The tree is built once at import and treated as read-only afterwards, so it can be
// shared by every clip and animator of a model.
type HierarchyNode struct {
	// Name identifies the node and links it to keyframe tracks and bone registry entries.
	Name string

	// LocalTransform is the bind-pose transform relative to the parent node.
	LocalTransform [16]float32

	// Children are visited in this order during traversal.
	Children []*HierarchyNode
}

// NewHierarchyNode creates a node with the given children.
//
// Parameters:
//   - name: the node name
//   - local: the bind-pose transform relative to the parent
//   - children: the ordered child nodes
//
// Returns:
//   - *HierarchyNode: the node
func NewHierarchyNode(name string, local [16]float32, children ...*HierarchyNode) *HierarchyNode {
	return &HierarchyNode{Name: name, LocalTransform: local, Children: children}
}

// Walk visits the tree depth-first in pre-order, passing each node's depth.
// Returning false from fn skips that node's children.
//
// Parameters:
//   - fn: the visitor
func (n *HierarchyNode) Walk(fn func(node *HierarchyNode, depth int) bool) {
	if n == nil {
		return
	}
	n.walk(fn, 0)
}

func (n *HierarchyNode) walk(fn func(node *HierarchyNode, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Find returns the first node with the given name in pre-order, or nil.
//
// Parameters:
//   - name: the node name to search for
//
// Returns:
//   - *HierarchyNode: the node or nil
func (n *HierarchyNode) Find(name string) *HierarchyNode {
	var found *HierarchyNode
	n.Walk(func(node *HierarchyNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the tree rooted at n.
func (n *HierarchyNode) Count() int {
	count := 0
	n.Walk(func(*HierarchyNode, int) bool {
		count++
		return true
	})
	return count
}

// Dump writes an indented listing of the rig hierarchy, one node per line.
// Nodes present in registry are annotated with their bone index; registry may be nil.
//
// Parameters:
//   - w: the destination
//   - registry: optional registry used to annotate bone nodes
//
// Returns:
//   - error: the first write error
func (n *HierarchyNode) Dump(w io.Writer, registry BoneRegistry) error {
	var err error
	n.Walk(func(node *HierarchyNode, depth int) bool {
		if err != nil {
			return false
		}
		line := strings.Repeat("  ", depth) + node.Name
		if registry != nil {
			if entry, ok := registry.Lookup(node.Name); ok {
				line += fmt.Sprintf(" [bone %d]", entry.Index)
			}
		}
		_, err = fmt.Fprintln(w, line)
		return true
	})
	return err
}
