// Package postgres provides a checkpoint store over PostgreSQL using
// jackc/pgx/v5.
//
// One row per thread, state stored as JSONB, replaced whole on every Put
// via INSERT ... ON CONFLICT DO UPDATE. Call InitSchema once at startup to
// create the table.
package postgres

import "github.com/smallnest/queryflow/store"

var _ store.CheckpointStore = (*PostgresCheckpointStore)(nil)
