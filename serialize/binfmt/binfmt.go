/*
Package binfmt is the binary serialize.Codec adapter, using encoding/gob to
encode the tree's wire representation. Grounded on wlattner-rf's Save/Load
gob methods: the only Go-native binary model serialization in the
retrieval pack, and so the one place this module reaches for a standard
library codec rather than a third-party one.
*/
package binfmt

import (
	"encoding/gob"
	"io"

	"github.com/pbanos/pxforest/serialize"
	"github.com/pbanos/pxforest/tree"
)

// Codec is the gob-backed serialize.Codec.
type Codec struct{}

// New returns a binary Codec.
func New() *Codec {
	return &Codec{}
}

// Encode gob-encodes t's wire representation to w.
func (c *Codec) Encode(w io.Writer, t *tree.Tree) error {
	return gob.NewEncoder(w).Encode(serialize.TreeToWire(t))
}

// Decode gob-decodes a tree previously written by Encode.
func (c *Codec) Decode(r io.Reader) (*tree.Tree, error) {
	var wt serialize.WireTree
	if err := gob.NewDecoder(r).Decode(&wt); err != nil {
		return nil, err
	}
	return serialize.TreeFromWire(wt)
}

// EncodeForest gob-encodes f to w, satisfying serialize.ForestCodec. The
// train command writes its finished forest through it; no checkpoint is
// written in this format during training.
func (c *Codec) EncodeForest(w io.Writer, f serialize.WireForest) error {
	return gob.NewEncoder(w).Encode(f)
}

// DecodeForest gob-decodes a forest previously written by EncodeForest.
func (c *Codec) DecodeForest(r io.Reader) (serialize.WireForest, error) {
	var wf serialize.WireForest
	err := gob.NewDecoder(r).Decode(&wf)
	return wf, err
}
