/*
Package jsonfmt is the JSON serialize.Codec adapter: it streams a tree's
header, per-node array elements, and footer the way the teacher's
tree/json package streamed rootID/label/nodes, adapted to the heap-indexed
node shape and exact field names spec.md §6 requires.
*/
package jsonfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pbanos/pxforest/serialize"
	"github.com/pbanos/pxforest/tree"
)

// Codec is the JSON serialize.Codec.
type Codec struct{}

// New returns a JSON Codec.
func New() *Codec {
	return &Codec{}
}

// Encode writes t to w as a JSON object: {"depth": D, "nodes": [...]}, one
// array element per heap index, in index order.
func (c *Codec) Encode(w io.Writer, t *tree.Tree) error {
	wt := serialize.TreeToWire(t)
	if _, err := fmt.Fprintf(w, `{"depth":%d,"nodes":[`, wt.Depth); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for i, n := range wt.Nodes {
		if i != 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}
		if err := enc.Encode(n); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte("]}"))
	return err
}

// Decode reads a JSON document written by Encode and rebuilds the tree it
// describes.
func (c *Codec) Decode(r io.Reader) (*tree.Tree, error) {
	var wt serialize.WireTree
	if err := json.NewDecoder(r).Decode(&wt); err != nil {
		return nil, err
	}
	return serialize.TreeFromWire(wt)
}

// EncodeForest writes f to w as a single JSON object, satisfying
// serialize.ForestCodec.
func (c *Codec) EncodeForest(w io.Writer, f serialize.WireForest) error {
	return json.NewEncoder(w).Encode(f)
}

// DecodeForest reads a JSON document written by EncodeForest.
func (c *Codec) DecodeForest(r io.Reader) (serialize.WireForest, error) {
	var wf serialize.WireForest
	err := json.NewDecoder(r).Decode(&wf)
	return wf, err
}
