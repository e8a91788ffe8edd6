/*
Package serialize defines the wire-format-agnostic Codec trait a tree is
saved and loaded through (C9b of spec.md §4.10), plus the flat wire types
every adapter encodes to/from. jsonfmt and binfmt are the two adapters; a
checkpoint.Store persists whatever bytes a Codec produces.
*/
package serialize

import (
	"io"
	"strconv"

	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/tree"
	"github.com/pbanos/pxforest/weaklearner"
)

// Codec writes and reads a *tree.Tree in one wire format.
type Codec interface {
	Encode(w io.Writer, t *tree.Tree) error
	Decode(r io.Reader) (*tree.Tree, error)
}

// ForestCodec writes and reads a WireForest in one wire format.
type ForestCodec interface {
	EncodeForest(w io.Writer, f WireForest) error
	DecodeForest(r io.Reader) (WireForest, error)
}

// WireSplitPoint is the flat split-point shape spec.md §6 requires on the
// wire: offset_x1, offset_y1, offset_x2, offset_y2, threshold, rather than
// the nested Feature/Threshold struct pximage.SplitPoint uses in memory.
type WireSplitPoint struct {
	OffsetX1  int     `json:"offset_x1"`
	OffsetY1  int     `json:"offset_y1"`
	OffsetX2  int     `json:"offset_x2"`
	OffsetY2  int     `json:"offset_y2"`
	Threshold float64 `json:"threshold"`
}

// WireNode is one heap-indexed node on the wire: its index (decimal
// string, per spec.md §4.10), whether it is a leaf, its split point (zero
// value if a leaf), and its label histogram.
type WireNode struct {
	Index     string         `json:"index"`
	Leaf      bool           `json:"leaf"`
	Split     WireSplitPoint `json:"split,omitempty"`
	Histogram map[string]int `json:"histogram,omitempty"`
}

// WireTree is the top-level document a Codec produces: the tree's depth
// plus every node, in heap-index order.
type WireTree struct {
	Depth int        `json:"depth"`
	Nodes []WireNode `json:"nodes"`
}

func toWireNode(index int, n *tree.Node) WireNode {
	wn := WireNode{Index: indexKey(index), Leaf: n.Leaf}
	if !n.Leaf {
		wn.Split = WireSplitPoint{
			OffsetX1:  n.Split.Feature.OX1,
			OffsetY1:  n.Split.Feature.OY1,
			OffsetX2:  n.Split.Feature.OX2,
			OffsetY2:  n.Split.Feature.OY2,
			Threshold: n.Split.Threshold,
		}
	}
	hist := n.Stats.Histogram()
	if len(hist) > 0 {
		wn.Histogram = make(map[string]int, len(hist))
		for label, count := range hist {
			wn.Histogram[labelKey(label)] = count
		}
	}
	return wn
}

func fromWireNode(wn WireNode) (weaklearner.Statistics, WireSplitPoint) {
	s := weaklearner.Empty()
	for key, count := range wn.Histogram {
		label := parseLabelKey(key)
		for i := 0; i < count; i++ {
			s.Accumulate(label)
		}
	}
	return s, wn.Split
}

func wireSplitPointToDomain(wsp WireSplitPoint) pximage.SplitPoint {
	return pximage.SplitPoint{
		Feature: pximage.Feature{
			OX1: wsp.OffsetX1, OY1: wsp.OffsetY1,
			OX2: wsp.OffsetX2, OY2: wsp.OffsetY2,
		},
		Threshold: wsp.Threshold,
	}
}

func indexKey(i int) string {
	return strconv.Itoa(i)
}

func parseIndexKey(s string) (int, error) {
	return strconv.Atoi(s)
}

func labelKey(label pximage.Pixel) string {
	return strconv.FormatInt(int64(label), 10)
}

func parseLabelKey(s string) pximage.Pixel {
	n, _ := strconv.ParseInt(s, 10, 32)
	return pximage.Pixel(n)
}

// TreeToWire converts t into its wire representation.
func TreeToWire(t *tree.Tree) WireTree {
	wt := WireTree{Depth: t.Depth, Nodes: make([]WireNode, len(t.Nodes))}
	for i := range t.Nodes {
		wt.Nodes[i] = toWireNode(i, &t.Nodes[i])
	}
	return wt
}

// TreeFromWire rebuilds a *tree.Tree from its wire representation. It
// returns an error if a node's index is malformed or the node count does
// not match the depth the wire document claims.
func TreeFromWire(wt WireTree) (*tree.Tree, error) {
	t := tree.New(wt.Depth)
	if len(wt.Nodes) != len(t.Nodes) {
		return nil, &DecodeError{Msg: "node count does not match depth"}
	}
	for _, wn := range wt.Nodes {
		i, err := parseIndexKey(wn.Index)
		if err != nil {
			return nil, &DecodeError{Msg: "malformed node index " + wn.Index}
		}
		if i < 0 || i >= len(t.Nodes) {
			return nil, &DecodeError{Msg: "node index out of range: " + wn.Index}
		}
		stats, wsp := fromWireNode(wn)
		t.Nodes[i].Leaf = wn.Leaf
		t.Nodes[i].Stats = stats
		if !wn.Leaf {
			t.Nodes[i].Split = wireSplitPointToDomain(wsp)
		}
	}
	return t, nil
}

// WireForest is the top-level document a ForestCodec produces: the
// background label shared by every tree (spec.md §3 "Forest") plus each
// tree's own wire representation, in forest order.
type WireForest struct {
	BackgroundLabel pximage.Pixel `json:"background_label"`
	Trees           []WireTree    `json:"trees"`
}

// DecodeError reports a malformed wire document.
type DecodeError struct{ Msg string }

func (e *DecodeError) Error() string { return "serialize: " + e.Msg }
