package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/smallnest/queryflow/store"
)

// MemoryCheckpointStore implements store.CheckpointStore with an in-process
// map. Intended for tests and single-process embedding; state does not
// survive a restart.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string][]byte
}

// NewMemoryCheckpointStore creates a new in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string][]byte),
	}
}

// Put stores a checkpoint. The checkpoint is serialized on write so later
// mutations of the caller's state do not leak into the stored snapshot.
func (s *MemoryCheckpointStore) Put(ctx context.Context, checkpoint *store.Checkpoint) error {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[checkpoint.ThreadID] = data
	return nil
}

// Get retrieves the checkpoint for a thread.
func (s *MemoryCheckpointStore) Get(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	data, ok := s.checkpoints[threadID]
	s.mu.RUnlock()

	if !ok {
		return nil, store.ErrNotFound
	}

	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint for a thread.
func (s *MemoryCheckpointStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, threadID)
	return nil
}

// Len returns the number of stored threads.
func (s *MemoryCheckpointStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.checkpoints)
}
