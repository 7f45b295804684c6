// Package file provides a checkpoint store that keeps one JSON file per
// conversation thread under a base directory. Writes are atomic via a temp
// file and rename.
package file

import "github.com/smallnest/queryflow/store"

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)
