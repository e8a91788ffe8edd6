package queue

import "fmt"

// TreeJob describes one tree for a worker to grow: which bagging batch the
// sample cache should hand it and which slot in the forest it fills
// (spec.md §4.7's optional fan-out of one tree-growing job per tree to a
// distributed queue). It carries no sample data itself — a worker pulling
// a TreeJob re-derives its bag from the shared cache by BatchIndex, so the
// job is cheap to serialize across a network queue.
type TreeJob struct {
	TreeIndex  int
	BatchIndex int
	Seed       int64
}

// ID identifies the job by its tree index, unique within one forest run.
func (j *TreeJob) ID() string {
	return fmt.Sprintf("tree-%d", j.TreeIndex)
}

func (j *TreeJob) String() string {
	return fmt.Sprintf("{TreeJob tree:%d batch:%d}", j.TreeIndex, j.BatchIndex)
}
