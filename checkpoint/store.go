/*
Package checkpoint implements the best-effort periodic persistence of C9:
a narrow Store interface plus file, SQL (sqlite3/postgres) and Redis
implementations. Every Store's Put is allowed to fail — the trainer logs
and continues past an IO error rather than aborting, per spec.md §7.
*/
package checkpoint

import "context"

// Kind distinguishes the payload a checkpoint carries, so a Store can pick
// a file extension or column without parsing the bytes.
type Kind int

const (
	// JSONTree is a serialize/jsonfmt-encoded *tree.Tree.
	JSONTree Kind = iota
	// BinaryForest is a serialize/binfmt-encoded forest snapshot.
	BinaryForest
)

func (k Kind) String() string {
	switch k {
	case JSONTree:
		return "json_tree"
	case BinaryForest:
		return "binary_forest"
	default:
		return "unknown"
	}
}

// Store persists checkpoint payloads under a run-scoped key. Put may
// perform IO and is expected to fail occasionally; callers treat failures
// as best-effort per spec.md §7 and log rather than abort.
type Store interface {
	Put(ctx context.Context, key string, kind Kind, payload []byte) error
}
