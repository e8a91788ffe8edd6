/*
Package queue implements the distributed-coordination transport (C10 of
spec.md §4.7): a Queue of TreeJobs that a forest driver pushes one per
tree and workers pull, run, and complete or drop.
*/
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Queue represents a queue where jobs to grow a tree can be pushed and
// pulled. A worker uses Pull to obtain a job, grows the tree, and then
// either Completes or Drops it.
//
// All methods take a context.Context as first parameter that
// implementations may use to allow timeouts and cancellations.
type Queue interface {
	// Push takes a job and stores it in the queue or returns an error.
	// The job counts as pending.
	Push(context.Context, *TreeJob) error
	// Pull returns a job and a context that may carry a timeout or allow
	// cancellation, or an error. The pulled job is counted as running
	// from then on. If there is nothing to pull, implementations should
	// not return an error, but three nil values. In case of
	// cancellation, workers should still drop the job.
	Pull(context.Context) (*TreeJob, context.Context, error)
	// Drop takes the ID of a job and makes it pending again, unless it
	// has already been completed. Workers use this to return jobs they
	// did not finish.
	Drop(context.Context, string) error
	// Complete takes the ID of a job and removes it from the running
	// set.
	Complete(context.Context, string) error
	// Count returns the number of pending and running jobs.
	Count(context.Context) (int, int, error)
	// Stop frees resources and cancels pulled contexts.
	Stop(context.Context) error
}

type memQueue struct {
	pendingJobs []*TreeJob
	runningJobs map[string]*TreeJob
	lock        *sync.RWMutex
	ctx         context.Context
	ctxCancel   context.CancelFunc
}

// New returns a Queue backed only by process memory.
func New() Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &memQueue{
		runningJobs: make(map[string]*TreeJob),
		lock:        &sync.RWMutex{},
		ctx:         ctx,
		ctxCancel:   cancel,
	}
}

// WaitFor blocks until q's Count reports 0 pending and 0 running, polling
// once a second, or returns a non-nil error if ctx is done first or Count
// fails. Use it after pushing every tree's job to wait for a forest run to
// finish.
func WaitFor(ctx context.Context, q Queue) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		pending, running, err := q.Count(ctx)
		if err != nil {
			return err
		}
		if pending+running == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (mq *memQueue) Push(ctx context.Context, j *TreeJob) error {
	return mq.withLock(ctx, func(ctx context.Context) error {
		mq.pendingJobs = append(mq.pendingJobs, j)
		return nil
	})
}

func (mq *memQueue) Pull(ctx context.Context) (*TreeJob, context.Context, error) {
	var job *TreeJob
	err := mq.withLock(ctx, func(ctx context.Context) error {
		if len(mq.pendingJobs) == 0 {
			return nil
		}
		job = mq.pendingJobs[0]
		mq.pendingJobs = mq.pendingJobs[1:]
		mq.runningJobs[job.ID()] = job
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, nil
	}
	return job, mq.ctx, nil
}

func (mq *memQueue) Drop(ctx context.Context, id string) error {
	return mq.withLock(ctx, func(ctx context.Context) error {
		j, ok := mq.runningJobs[id]
		if !ok {
			return nil
		}
		delete(mq.runningJobs, id)
		mq.pendingJobs = append(mq.pendingJobs, j)
		return nil
	})
}

func (mq *memQueue) Complete(ctx context.Context, id string) error {
	return mq.withLock(ctx, func(ctx context.Context) error {
		delete(mq.runningJobs, id)
		return nil
	})
}

func (mq *memQueue) Count(ctx context.Context) (int, int, error) {
	var pending, running int
	err := mq.withRLock(ctx, func(ctx context.Context) error {
		pending = len(mq.pendingJobs)
		running = len(mq.runningJobs)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return pending, running, nil
}

func (mq *memQueue) Stop(ctx context.Context) error {
	mq.ctxCancel()
	return nil
}

func (mq *memQueue) String() string {
	return fmt.Sprintf("{Queue pending: %d (%v)}", len(mq.pendingJobs), mq.pendingJobs)
}

func (mq *memQueue) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mq.lock.Lock()
		select {
		case <-ctx.Done():
			mq.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mq.lock.Unlock()
	}
	return f(ctx)
}

func (mq *memQueue) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mq.lock.RLock()
		select {
		case <-ctx.Done():
			mq.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mq.lock.RUnlock()
	}
	return f(ctx)
}
