/*
Package tree implements the heap-indexed fixed-depth binary tree and its
per-level frontier map (C6 of spec.md §4.5): the structure the trainer (C7)
grows one level at a time and the forest (C8) predicts pixel labels from.
*/
package tree

import (
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/weaklearner"
)

// NodeCount returns 2^(depth+1) - 1, the number of nodes in a complete
// binary tree of the given depth.
func NodeCount(depth int) int {
	return (1 << uint(depth+1)) - 1
}

// LevelRange returns the contiguous heap-index range [begin, end) occupied
// by level, per spec.md §4.5: level ℓ is [2^ℓ-1, 2^(ℓ+1)-1).
func LevelRange(level int) (begin, end int) {
	return (1 << uint(level)) - 1, (1 << uint(level+1)) - 1
}

// Tree is a fixed-depth complete binary tree stored in heap order: the
// node at index i has children 2i+1 and 2i+2. Root is index 0. All nodes
// are allocated up front, leaf or not (spec.md §3 "Tree").
type Tree struct {
	Depth int
	Nodes []Node
}

// New allocates a Tree of the given depth with every node a leaf.
func New(depth int) *Tree {
	nodes := make([]Node, NodeCount(depth))
	for i := range nodes {
		nodes[i].Leaf = true
	}
	return &Tree{Depth: depth, Nodes: nodes}
}

// NumLevels returns the number of levels a tree of this depth has: levels
// 0..depth inclusive.
func (t *Tree) NumLevels() int {
	return t.Depth + 1
}

// Route descends from the root following s's routing decision at each
// non-leaf node until it reaches a leaf, and returns that leaf's index.
func (t *Tree) Route(s pximage.Sample) int {
	i := 0
	for !t.Nodes[i].Leaf {
		if t.Nodes[i].Split.RoutesLeft(s) {
			i = 2*i + 1
		} else {
			i = 2*i + 2
		}
	}
	return i
}

// RouteToLevel descends from the root the same way Route does, but stops
// as soon as it reaches a node at or past the given level's begin index,
// even if that node has not (yet) been declared a leaf. It is used to
// build a level's frontier map from a tree whose deeper levels are still
// unset.
func (t *Tree) RouteToLevel(s pximage.Sample, level int) int {
	begin, end := LevelRange(level)
	i := 0
	for i < begin {
		if t.Nodes[i].Leaf {
			return i
		}
		if t.Nodes[i].Split.RoutesLeft(s) {
			i = 2*i + 1
		} else {
			i = 2*i + 2
		}
	}
	if i >= end {
		return i
	}
	return i
}

// ApplySplit turns the leaf at nodeIndex into a split node: it records the
// chosen split point and parent statistics, then pre-sets both children's
// leaf flag to true so they start the next level as leaves (spec.md §4.6
// step 2's "pre-set both children's leaf flag to true").
func (t *Tree) ApplySplit(nodeIndex int, sp pximage.SplitPoint, stats weaklearner.Statistics) {
	n := &t.Nodes[nodeIndex]
	n.Leaf = false
	n.Split = sp
	n.Stats = stats
	left, right := 2*nodeIndex+1, 2*nodeIndex+2
	if left < len(t.Nodes) {
		t.Nodes[left].Leaf = true
	}
	if right < len(t.Nodes) {
		t.Nodes[right].Leaf = true
	}
}

// FrontierMap maps a node index at one training level to the dense list of
// samples currently routed to it (spec.md §4.5 "Frontier map
// construction"). Its lifetime is one level; it is discarded before the
// next.
type FrontierMap map[int][]pximage.Sample

// BuildFrontierMap inserts an empty bucket for every node index in level's
// range, routes each sample in bag through the tree up to that level, and
// appends it to its terminating node's bucket if that node falls within
// the range. Samples whose routing terminates above the frontier (an
// ancestor became a leaf in a prior level) are dropped.
func BuildFrontierMap(t *Tree, level int, bag []pximage.Sample) FrontierMap {
	begin, end := LevelRange(level)
	fm := make(FrontierMap, end-begin)
	for i := begin; i < end; i++ {
		fm[i] = nil
	}
	for _, s := range bag {
		i := t.RouteToLevel(s, level)
		if i >= begin && i < end {
			fm[i] = append(fm[i], s)
		}
	}
	return fm
}

// LevelParts splits level's node-index range into contiguous chunks of at
// most partSize nodes, per spec.md §4.5 "Level parts". partSize <= 0 means
// the whole level is one part. Final tree state does not depend on
// partitioning; it exists only to bound peak memory.
func LevelParts(level, partSize int) [][2]int {
	begin, end := LevelRange(level)
	if partSize <= 0 {
		return [][2]int{{begin, end}}
	}
	var parts [][2]int
	for lo := begin; lo < end; lo += partSize {
		hi := lo + partSize
		if hi > end {
			hi = end
		}
		parts = append(parts, [2]int{lo, hi})
	}
	return parts
}
