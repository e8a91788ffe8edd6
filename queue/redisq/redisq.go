/*
Package redisq is a Redis-backed queue.Queue: one set of job keys pending,
one running, a per-job exclusive lock, and a per-job running mark that
expires so a crashed worker's job is eventually reclaimed.
*/
package redisq

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	redis "gopkg.in/redis.v5"

	"github.com/pbanos/pxforest/queue"
)

// EncodeDecoder encodes/decodes queue.TreeJobs to/from the bytes stored in
// Redis.
type EncodeDecoder interface {
	Encode(*queue.TreeJob) ([]byte, error)
	Decode([]byte) (*queue.TreeJob, error)
}

type redisQ struct {
	id        string
	rc        *redis.Client
	allJobCtx context.Context
	allJobCF  context.CancelFunc
	jobMaxRun time.Duration
	lockTTL   time.Duration
	EncodeDecoder
}

const lockReleaseScript = `
if redis.call("GET",KEYS[1]) == ARGV[1] then
    return redis.call("DEL",KEYS[1])
else
    return 0
end
`
const lockAttempts = 5
const failToLockSleep = 10 * time.Millisecond

// New returns a queue.Queue backed by rc. id prefixes every key the queue
// uses:
//   - id:pending, id:running are sets of job key prefixes
//   - id:job:<jobID>:data holds the job's encoded bytes
//   - id:job:<jobID>:lock is an exclusive-management lock, expiring after lockTTL
//   - id:job:<jobID>:running marks the job as running, expiring after
//     jobMaxRun (0 disables expiry and the reclaim sweep below)
//
// The returned queue is safe for concurrent use by multiple goroutines. A
// background goroutine periodically reclaims jobs whose running mark has
// expired (a worker died mid-job) by dropping them back to pending.
func New(id string, rc *redis.Client, jobMaxRun, lockTTL time.Duration, encDec EncodeDecoder) queue.Queue {
	ctx, cf := context.WithCancel(context.Background())
	rq := &redisQ{
		id:            id,
		rc:            rc,
		allJobCtx:     ctx,
		allJobCF:      cf,
		jobMaxRun:     jobMaxRun,
		lockTTL:       lockTTL,
		EncodeDecoder: encDec,
	}
	if jobMaxRun > 0 {
		go rq.dropTimedOutJobs()
	}
	return rq
}

func (rq *redisQ) Push(ctx context.Context, j *queue.TreeJob) error {
	data, err := rq.Encode(j)
	if err != nil {
		return fmt.Errorf("pushing job %s to queue: %v", j.ID(), err)
	}
	jKeyPrefix := rq.jobKeyPrefix(j.ID())
	jDataKey := fmt.Sprintf("%s:data", jKeyPrefix)
	ok, err := rq.rc.SetNX(jDataKey, string(data), time.Duration(0)).Result()
	if err != nil {
		return fmt.Errorf("pushing job %s to queue: %v", j.ID(), err)
	}
	if !ok {
		return fmt.Errorf("pushing job %s to queue: key %q already exists", j.ID(), jDataKey)
	}
	added, err := rq.rc.SAdd(rq.pendingSetKey(), jKeyPrefix).Result()
	if err != nil || added != 1 {
		rq.rc.Del(jDataKey)
		if err == nil {
			err = fmt.Errorf("%q already in pending set %q", jKeyPrefix, rq.pendingSetKey())
		}
		return fmt.Errorf("pushing job %s to queue: %v", j.ID(), err)
	}
	return nil
}

func (rq *redisQ) Pull(ctx context.Context) (*queue.TreeJob, context.Context, error) {
	iter := rq.rc.SScan(rq.pendingSetKey(), 0, "", 0).Iterator()
	for iter.Next() {
		var jctx context.Context
		var jcf context.CancelFunc
		if rq.jobMaxRun == 0 {
			jctx, jcf = rq.allJobCtx, func() {}
		} else {
			jctx, jcf = context.WithTimeout(rq.allJobCtx, rq.jobMaxRun)
		}
		jobKeyPrefix := iter.Val()
		err := rq.withLockFor(ctx, jobKeyPrefix, 0, func(ctx context.Context) error {
			ok, err := rq.rc.SetNX(fmt.Sprintf("%s:running", jobKeyPrefix), "true", rq.jobMaxRun).Result()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("job %q already running", jobKeyPrefix)
			}
			_, err = rq.rc.SMove(rq.pendingSetKey(), rq.runningSetKey(), jobKeyPrefix).Result()
			if err != nil {
				if ctx.Err() == nil {
					rq.rc.Del(fmt.Sprintf("%s:running", jobKeyPrefix))
				}
				return fmt.Errorf("moving %q from %q set to %q set: %v", jobKeyPrefix, rq.pendingSetKey(), rq.runningSetKey(), err)
			}
			return nil
		})
		if err == nil {
			id := jobID(jobKeyPrefix)
			jData, err := rq.rc.Get(fmt.Sprintf("%s:data", jobKeyPrefix)).Result()
			if err != nil {
				jcf()
				rq.Drop(ctx, id)
				continue
			}
			j, err := rq.Decode([]byte(jData))
			if err != nil {
				jcf()
				rq.Drop(ctx, id)
				continue
			}
			return j, jctx, nil
		}
		jcf()
	}
	if err := iter.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating over pending jobs in %q set: %v", rq.pendingSetKey(), err)
	}
	return nil, nil, nil
}

func (rq *redisQ) Drop(ctx context.Context, id string) error {
	jKeyPrefix := rq.jobKeyPrefix(id)
	err := rq.withLockFor(ctx, jKeyPrefix, lockAttempts, func(ctx context.Context) error {
		ok, err := rq.rc.SMove(rq.runningSetKey(), rq.pendingSetKey(), jKeyPrefix).Result()
		if err != nil {
			return fmt.Errorf("moving %q from %q to %q: %v", jKeyPrefix, rq.runningSetKey(), rq.pendingSetKey(), err)
		}
		if !ok {
			return nil
		}
		runningMarkKey := fmt.Sprintf("%s:running", jKeyPrefix)
		_, err = rq.rc.Del(runningMarkKey).Result()
		if err != nil {
			return fmt.Errorf("removing %q: %v", runningMarkKey, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("dropping %s: %v", id, err)
	}
	return nil
}

func (rq *redisQ) Complete(ctx context.Context, id string) error {
	jKeyPrefix := rq.jobKeyPrefix(id)
	err := rq.withLockFor(ctx, jKeyPrefix, lockAttempts, func(ctx context.Context) error {
		count, err := rq.rc.SRem(rq.runningSetKey(), jKeyPrefix).Result()
		if err != nil {
			return fmt.Errorf("removing %q from %q: %v", jKeyPrefix, rq.runningSetKey(), err)
		}
		if count == 0 {
			return nil
		}
		runningMarkKey := fmt.Sprintf("%s:running", jKeyPrefix)
		_, err = rq.rc.Del(runningMarkKey).Result()
		if err != nil {
			return fmt.Errorf("removing %q: %v", runningMarkKey, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("completing %s: %v", id, err)
	}
	return nil
}

func (rq *redisQ) Count(context.Context) (int, int, error) {
	// Count both sets in one EVAL so a job moving between them mid-count
	// cannot be seen as a false "work finished" (0, 0) reading.
	cmd := redis.NewSliceCmd(
		"EVAL",
		`return {redis.call("SCARD", KEYS[1]), redis.call("SCARD", KEYS[2])}`,
		2,
		rq.pendingSetKey(),
		rq.runningSetKey(),
	)
	if err := rq.rc.Process(cmd); err != nil {
		return 0, 0, fmt.Errorf("counting jobs: %v", err)
	}
	v, err := cmd.Result()
	if err != nil {
		return 0, 0, fmt.Errorf("counting jobs: %v", err)
	}
	if len(v) != 2 {
		return 0, 0, fmt.Errorf("counting jobs: redis returned %d counts instead of 2", len(v))
	}
	p, ok := v[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("counting jobs: cannot extract pending count from %v (%T)", v[0], v[0])
	}
	r, ok := v[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("counting jobs: cannot extract running count from %v (%T)", v[1], v[1])
	}
	return int(p), int(r), nil
}

func (rq *redisQ) Stop(context.Context) error {
	rq.allJobCF()
	return nil
}

func (rq *redisQ) jobKeyPrefix(id string) string {
	return fmt.Sprintf("%s:job:%s", rq.id, id)
}

func (rq *redisQ) pendingSetKey() string {
	return fmt.Sprintf("%s:pending", rq.id)
}

func (rq *redisQ) runningSetKey() string {
	return fmt.Sprintf("%s:running", rq.id)
}

func jobID(jobKeyPrefix string) string {
	tokens := strings.Split(jobKeyPrefix, ":")
	return tokens[len(tokens)-1]
}

func (rq *redisQ) withLockFor(ctx context.Context, jobKeyPrefix string, additionalAttempts int, f func(ctx context.Context) error) error {
	lockKey := fmt.Sprintf("%s:lock", jobKeyPrefix)
	lockValue := randString(20)
	lctx, cf := context.WithTimeout(ctx, rq.lockTTL)
	defer cf()
	ok, err := rq.rc.SetNX(lockKey, lockValue, rq.lockTTL).Result()
	if err != nil {
		return fmt.Errorf("could not acquire lock: %v", err)
	}
	if !ok {
		if additionalAttempts > 0 {
			cf()
			d, _ := rq.rc.TTL(lockKey).Result()
			time.Sleep(d + time.Duration(rand.Int63n(int64(failToLockSleep)*int64(additionalAttempts))))
			return rq.withLockFor(ctx, jobKeyPrefix, additionalAttempts-1, f)
		}
		return fmt.Errorf("could not acquire lock: already taken")
	}
	defer rq.rc.Eval(lockReleaseScript, []string{lockKey}, lockValue)
	return f(lctx)
}

func (rq *redisQ) dropTimedOutJobs() {
	ticker := time.NewTicker(rq.jobMaxRun / 2)
	defer ticker.Stop()
	for {
		iter := rq.rc.SScan(rq.runningSetKey(), 0, "", 0).Iterator()
		for iter.Next() {
			var timedOut bool
			jobKeyPrefix := iter.Val()
			rq.withLockFor(rq.allJobCtx, jobKeyPrefix, 0, func(ctx context.Context) error {
				exists, err := rq.rc.Exists(fmt.Sprintf("%s:running", jobKeyPrefix)).Result()
				if err != nil {
					return err
				}
				timedOut = !exists
				return nil
			})
			if timedOut {
				rq.Drop(rq.allJobCtx, jobID(jobKeyPrefix))
			}
			if rq.allJobCtx.Err() != nil {
				return
			}
		}
		select {
		case <-rq.allJobCtx.Done():
			return
		case <-ticker.C:
		}
	}
}

const randStringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = randStringAlphabet[rand.Intn(len(randStringAlphabet))]
	}
	return string(b)
}
