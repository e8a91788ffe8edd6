/*
Package filestore writes checkpoints to the local filesystem, named the way
spec.md §6's temporary_json_tree_file_prefix / temporary_binary_forest_file_prefix
keys describe: <prefix><key>.<ext>.
*/
package filestore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pbanos/pxforest/checkpoint"
	"github.com/pbanos/pxforest/perr"
)

// Store writes checkpoint payloads under Dir, one file per (key, kind).
type Store struct {
	Dir          string
	JSONPrefix   string
	BinaryPrefix string
}

// New returns a filestore.Store rooted at dir, with the given per-kind file
// prefixes.
func New(dir, jsonPrefix, binaryPrefix string) *Store {
	return &Store{Dir: dir, JSONPrefix: jsonPrefix, BinaryPrefix: binaryPrefix}
}

func (s *Store) Put(ctx context.Context, key string, kind checkpoint.Kind, payload []byte) error {
	path := filepath.Join(s.Dir, s.filename(key, kind))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return perr.Wrapf(err, perr.IO, "writing checkpoint %s", path)
	}
	return nil
}

func (s *Store) filename(key string, kind checkpoint.Kind) string {
	switch kind {
	case checkpoint.BinaryForest:
		return s.BinaryPrefix + key + ".bin"
	default:
		return s.JSONPrefix + key + ".json"
	}
}
