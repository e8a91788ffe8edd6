package checkpoint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbanos/pxforest/checkpoint"
	"github.com/pbanos/pxforest/checkpoint/filestore"
	"github.com/pbanos/pxforest/serialize/jsonfmt"
	"github.com/pbanos/pxforest/tree"
)

func TestTreeCheckpointerWritesOneFilePerLevel(t *testing.T) {
	dir := t.TempDir()
	store := filestore.New(dir, "tree_", "forest_")
	cp := checkpoint.NewTreeCheckpointer(store, jsonfmt.New(), checkpoint.JSONTree)

	tr := tree.New(1)
	require.NoError(t, cp.Checkpoint(context.Background(), 2, 1, tr))
	require.NoError(t, cp.Checkpoint(context.Background(), 2, 2, tr))

	_, err := os.Stat(filepath.Join(dir, "tree_tree2_level1.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "tree_tree2_level2.json"))
	assert.NoError(t, err)
}
