package tree

import (
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/weaklearner"
)

// Node is one slot of a Tree's heap-ordered array, at index i with children
// at 2i+1 and 2i+2 (spec.md §3 "Tree"). A non-leaf node's SplitPoint is set
// and its children are allocated (implicitly, since the array is pre-sized
// to the tree's full depth); a leaf's SplitPoint is the zero value and is
// not read.
type Node struct {
	Leaf  bool
	Split pximage.SplitPoint
	Stats weaklearner.Statistics
}
