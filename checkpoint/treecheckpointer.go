package checkpoint

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pbanos/pxforest/serialize"
	"github.com/pbanos/pxforest/tree"
)

// TreeCheckpointer implements trainer.Checkpointer by encoding the tree
// with codec and writing it to store under a key derived from the tree
// index and level, so a store keeps one entry per level per tree.
type TreeCheckpointer struct {
	Store Store
	Codec serialize.Codec
	Kind  Kind
}

// NewTreeCheckpointer returns a TreeCheckpointer writing codec-encoded
// trees to store, tagged with kind.
func NewTreeCheckpointer(store Store, codec serialize.Codec, kind Kind) *TreeCheckpointer {
	return &TreeCheckpointer{Store: store, Codec: codec, Kind: kind}
}

// Checkpoint satisfies trainer.Checkpointer.
func (c *TreeCheckpointer) Checkpoint(ctx context.Context, treeIndex, level int, t *tree.Tree) error {
	var buf bytes.Buffer
	if err := c.Codec.Encode(&buf, t); err != nil {
		return fmt.Errorf("encoding tree %d level %d checkpoint: %w", treeIndex, level, err)
	}
	key := fmt.Sprintf("tree%d_level%d", treeIndex, level)
	return c.Store.Put(ctx, key, c.Kind, buf.Bytes())
}
