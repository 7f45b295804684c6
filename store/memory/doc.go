// Package memory provides an in-process checkpoint store backed by a
// mutex-guarded map. It is the default store for tests and for embedders
// that do not need checkpoints to outlive the process.
package memory

import "github.com/smallnest/queryflow/store"

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)
