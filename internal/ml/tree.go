package ml

import "math"

// Node is one entry of a flattened decision tree. Leaves have Left < 0.
type Node struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree is a binary decision tree over dense feature vectors.
// Missing values always follow the right branch.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func newTree(root []float64) *Tree {
	return &Tree{Nodes: []Node{{Left: -1, Right: -1, Value: root}}}
}

// split turns leaf i into an internal node and returns its children.
func (t *Tree) split(i, feature int, threshold float64, left, right []float64) (int, int) {
	l := len(t.Nodes)
	t.Nodes = append(t.Nodes,
		Node{Left: -1, Right: -1, Value: left},
		Node{Left: -1, Right: -1, Value: right},
	)
	t.Nodes[i] = Node{Feature: feature, Threshold: threshold, Left: l, Right: l + 1}
	return l, l + 1
}

// Leaf returns the value of the leaf x falls into.
func (t *Tree) Leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if v := x[n.Feature]; !math.IsNaN(v) && v <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Leaves counts the leaves of t.
func (t *Tree) Leaves() int {
	n := 0
	for _, node := range t.Nodes {
		if node.Left < 0 {
			n++
		}
	}
	return n
}

// Depth returns the longest root-to-leaf path length.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Left < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// goesLeft mirrors Leaf on a binned row.
func goesLeft(b uint16, edge int) bool {
	return b != missingBin && int(b) <= edge
}
