package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemQueuePushPullCompleteDrainsToZero(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	require.NoError(t, q.Push(ctx, &TreeJob{TreeIndex: 0}))
	require.NoError(t, q.Push(ctx, &TreeJob{TreeIndex: 1}))

	pending, running, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
	assert.Equal(t, 0, running)

	j1, _, err := q.Pull(ctx)
	require.NoError(t, err)
	require.NotNil(t, j1)

	pending, running, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 1, running)

	require.NoError(t, q.Complete(ctx, j1.ID()))

	j2, _, err := q.Pull(ctx)
	require.NoError(t, err)
	require.NotNil(t, j2)
	require.NoError(t, q.Complete(ctx, j2.ID()))

	pending, running, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
	assert.Equal(t, 0, running)
}

func TestMemQueuePullOnEmptyReturnsNilsNoError(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)
	j, jctx, err := q.Pull(ctx)
	require.NoError(t, err)
	assert.Nil(t, j)
	assert.Nil(t, jctx)
}

func TestMemQueueDropReturnsJobToPending(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	require.NoError(t, q.Push(ctx, &TreeJob{TreeIndex: 5}))
	j, _, err := q.Pull(ctx)
	require.NoError(t, err)
	require.NotNil(t, j)

	require.NoError(t, q.Drop(ctx, j.ID()))
	pending, running, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 0, running)

	j2, _, err := q.Pull(ctx)
	require.NoError(t, err)
	require.NotNil(t, j2)
	assert.Equal(t, j.TreeIndex, j2.TreeIndex)
}

func TestWaitForReturnsImmediatelyOnEmptyQueue(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)
	assert.NoError(t, WaitFor(ctx, q))
}
