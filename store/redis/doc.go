// Package redis provides a checkpoint store over Redis using go-redis/v9.
//
// Each thread's checkpoint is a single JSON value under
// "<prefix>thread:<id>:checkpoint". An optional TTL may be set so
// abandoned conversations age out; by default checkpoints never expire,
// matching the contract that a pause may last arbitrarily long.
//
// Usage:
//
//	st := redis.NewRedisCheckpointStore(redis.RedisOptions{
//		Addr: "localhost:6379",
//		TTL:  7 * 24 * time.Hour,
//	})
//
// Because the store holds one value per thread and replaces it whole,
// concurrent writers to distinct threads never interfere; writers to the
// same thread are last-writer-wins, which is why callers must serialize
// turns within a thread.
package redis

import "github.com/smallnest/queryflow/store"

var _ store.CheckpointStore = (*RedisCheckpointStore)(nil)
