// Package sqlite provides a checkpoint store over SQLite using
// mattn/go-sqlite3.
//
// One row per thread in a single table (default name "checkpoints"):
//
//	thread_id   TEXT PRIMARY KEY
//	state       TEXT      -- JSON-serialized conversation state
//	last_stage  TEXT      -- resume anchor, empty when not paused
//	updated_at  DATETIME
//
// Usage:
//
//	st, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{Path: "checkpoints.db"})
//	if err != nil { ... }
//	defer st.Close()
package sqlite

import "github.com/smallnest/queryflow/store"

var _ store.CheckpointStore = (*SqliteCheckpointStore)(nil)
