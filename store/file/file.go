package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/queryflow/store"
)

// FileCheckpointStore implements store.CheckpointStore with one JSON file
// per thread under a base directory. Suitable for single-node deployments
// that need checkpoints to survive restarts without a database.
type FileCheckpointStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileCheckpointStore creates a file-based checkpoint store rooted at
// the given directory, creating it if needed.
func NewFileCheckpointStore(dir string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{dir: dir}, nil
}

// threadPath maps a thread id to its file, replacing path separators so a
// thread id can never escape the base directory.
func (s *FileCheckpointStore) threadPath(threadID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(threadID)
	return filepath.Join(s.dir, safe+".json")
}

// Put stores a checkpoint, replacing any previous file for the thread. The
// write goes through a temp file and rename so readers never observe a
// partial checkpoint.
func (s *FileCheckpointStore) Put(ctx context.Context, checkpoint *store.Checkpoint) error {
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.threadPath(checkpoint.ThreadID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Get retrieves the checkpoint for a thread.
func (s *FileCheckpointStore) Get(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.threadPath(threadID))
	s.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint file for a thread.
func (s *FileCheckpointStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.threadPath(threadID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
