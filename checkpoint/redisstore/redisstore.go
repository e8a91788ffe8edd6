/*
Package redisstore is a checkpoint.Store backed by Redis, grounded on the
teacher's tree/redisstore key-per-item shape: one key per (run, key, kind),
set with a TTL so a supervising process can poll training progress without
shared disk, and so a stale run's checkpoints expire on their own.
*/
package redisstore

import (
	"context"
	"fmt"
	"time"

	redis "gopkg.in/redis.v5"

	"github.com/pbanos/pxforest/checkpoint"
	"github.com/pbanos/pxforest/perr"
)

type redisStore struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// New builds a checkpoint.Store backed by rc. Every key is namespaced
// "<prefix>:<key>:<kind>" and set with ttl (0 disables expiry).
func New(rc *redis.Client, prefix string, ttl time.Duration) checkpoint.Store {
	return &redisStore{rc: rc, prefix: prefix, ttl: ttl}
}

func (rs *redisStore) Put(ctx context.Context, key string, kind checkpoint.Kind, payload []byte) error {
	_, err := rs.rc.Set(rs.keyFor(key, kind), payload, rs.ttl).Result()
	if err != nil {
		return perr.Wrapf(err, perr.IO, "writing checkpoint %q to redis", key)
	}
	return nil
}

func (rs *redisStore) keyFor(key string, kind checkpoint.Kind) string {
	return fmt.Sprintf("%s:%s:%s", rs.prefix, key, kind)
}
