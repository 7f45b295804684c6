package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/store"
)

func TestMemoryCheckpointStore_New(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()

	if ms == nil {
		t.Fatal("Store should not be nil")
	}

	// Verify it implements the interface
	var _ store.CheckpointStore = ms
}

func TestMemoryCheckpointStore_BasicOperations(t *testing.T) {
	t.Parallel()

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()

		ms := NewMemoryCheckpointStore()
		ctx := context.Background()

		state := conversation.New("thread-alice")
		state.UserQuestion = "how many payments failed last week?"
		state.IntentApproved = true

		cp := &store.Checkpoint{
			ThreadID:  "thread-alice",
			State:     state,
			LastStage: "human_approval",
			UpdatedAt: time.Now(),
		}

		err := ms.Put(ctx, cp)
		if err != nil {
			t.Fatalf("Failed to put: %v", err)
		}

		loaded, err := ms.Get(ctx, "thread-alice")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}

		if loaded.ThreadID != cp.ThreadID {
			t.Errorf("ThreadID mismatch: got %s, want %s", loaded.ThreadID, cp.ThreadID)
		}
		if loaded.LastStage != cp.LastStage {
			t.Errorf("LastStage mismatch: got %s, want %s", loaded.LastStage, cp.LastStage)
		}
		if loaded.State.UserQuestion != state.UserQuestion {
			t.Errorf("UserQuestion mismatch: got %s, want %s", loaded.State.UserQuestion, state.UserQuestion)
		}
		if !loaded.State.IntentApproved {
			t.Error("IntentApproved not preserved")
		}
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		ms := NewMemoryCheckpointStore()

		_, err := ms.Get(context.Background(), "no-such-thread")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("put replaces previous checkpoint", func(t *testing.T) {
		t.Parallel()

		ms := NewMemoryCheckpointStore()
		ctx := context.Background()

		first := &store.Checkpoint{
			ThreadID:  "thread-1",
			State:     conversation.New("thread-1"),
			LastStage: "clarification",
		}
		if err := ms.Put(ctx, first); err != nil {
			t.Fatalf("Failed to put: %v", err)
		}

		second := &store.Checkpoint{
			ThreadID: "thread-1",
			State:    conversation.New("thread-1"),
		}
		if err := ms.Put(ctx, second); err != nil {
			t.Fatalf("Failed to put: %v", err)
		}

		loaded, err := ms.Get(ctx, "thread-1")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if loaded.LastStage != "" {
			t.Errorf("LastStage should be cleared by the second put, got %q", loaded.LastStage)
		}
		if ms.Len() != 1 {
			t.Errorf("Expected a single stored thread, got %d", ms.Len())
		}
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		ms := NewMemoryCheckpointStore()
		ctx := context.Background()

		cp := &store.Checkpoint{ThreadID: "thread-2", State: conversation.New("thread-2")}
		if err := ms.Put(ctx, cp); err != nil {
			t.Fatalf("Failed to put: %v", err)
		}

		if err := ms.Delete(ctx, "thread-2"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}

		if _, err := ms.Get(ctx, "thread-2"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}

		// Deleting a missing thread is not an error.
		if err := ms.Delete(ctx, "thread-2"); err != nil {
			t.Errorf("Delete of missing thread should not error, got %v", err)
		}
	})
}

func TestMemoryCheckpointStore_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	state := conversation.New("thread-iso")
	state.UserQuestion = "original question"

	cp := &store.Checkpoint{ThreadID: "thread-iso", State: state}
	if err := ms.Put(ctx, cp); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	// Mutating the caller's state after Put must not change the snapshot.
	state.UserQuestion = "mutated after put"

	loaded, err := ms.Get(ctx, "thread-iso")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if loaded.State.UserQuestion != "original question" {
		t.Errorf("Stored snapshot leaked a later mutation: %q", loaded.State.UserQuestion)
	}

	// Mutating a loaded copy must not change the snapshot either.
	loaded.State.UserQuestion = "mutated after get"

	again, err := ms.Get(ctx, "thread-iso")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if again.State.UserQuestion != "original question" {
		t.Errorf("Stored snapshot leaked a reader mutation: %q", again.State.UserQuestion)
	}
}

func TestMemoryCheckpointStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			threadID := fmt.Sprintf("thread-%d", n)
			cp := &store.Checkpoint{ThreadID: threadID, State: conversation.New(threadID)}
			if err := ms.Put(ctx, cp); err != nil {
				t.Errorf("Failed to put %s: %v", threadID, err)
				return
			}
			if _, err := ms.Get(ctx, threadID); err != nil {
				t.Errorf("Failed to get %s: %v", threadID, err)
			}
		}(i)
	}
	wg.Wait()

	if ms.Len() != 20 {
		t.Errorf("Expected 20 stored threads, got %d", ms.Len())
	}
}
