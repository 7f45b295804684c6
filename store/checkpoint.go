package store

import (
	"context"
	"errors"
	"time"

	"github.com/smallnest/queryflow/conversation"
)

// Checkpoint is the persisted snapshot of a conversation thread: the full
// state, the stage the pipeline paused at (empty when the last turn ran to
// completion), and the write time. One row per thread; a Put replaces the
// previous row (last writer wins per key).
type Checkpoint struct {
	ThreadID  string              `json:"thread_id"`
	State     *conversation.State `json:"state"`
	LastStage string              `json:"last_stage_before_interrupt,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ErrNotFound is returned by Get when no checkpoint exists for a thread.
var ErrNotFound = errors.New("checkpoint not found")

// CheckpointStore persists conversation state across turns and process
// boundaries. Implementations must support concurrent access to distinct
// thread keys without interference; callers serialize turns within one
// thread.
type CheckpointStore interface {
	// Get retrieves the checkpoint for a thread, or ErrNotFound.
	Get(ctx context.Context, threadID string) (*Checkpoint, error)

	// Put stores the checkpoint for a thread, replacing any previous one.
	Put(ctx context.Context, checkpoint *Checkpoint) error

	// Delete removes the checkpoint for a thread. Deleting a missing
	// thread is not an error.
	Delete(ctx context.Context, threadID string) error
}
