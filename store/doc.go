// Package store defines the checkpoint contract that lets an interrupted
// conversation be suspended mid-pipeline and resumed later, possibly in a
// different process.
//
// The contract is deliberately narrow: one checkpoint row per conversation
// thread, fetched and replaced whole. Subpackages provide backends over an
// in-process map (memory), JSON files (file), SQLite (sqlite), Redis
// (redis) and PostgreSQL (postgres). Retention of stale checkpoints is an
// external policy; no backend expires rows on its own unless configured to
// (the redis backend accepts a TTL).
package store
