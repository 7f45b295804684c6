package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/store"
	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisCheckpointStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewRedisCheckpointStoreWithClient(client, "", ttl), mr
}

func TestRedisCheckpointStore(t *testing.T) {
	rs, _ := newTestStore(t, 0)
	defer rs.Close()

	ctx := context.Background()

	state := conversation.New("thread-redis")
	state.UserQuestion = "top merchants by volume"
	state.ClarificationNeeded = true
	state.PendingRequest = &conversation.PendingRequest{
		Source: "ambiguity_resolver",
		Kind:   conversation.ChoiceSelection,
		Prompt: "Which one did you mean?",
		Options: []conversation.Option{
			{ID: "Merchant_Name", DisplayName: "Merchant Name"},
			{ID: "Merchant_ID", DisplayName: "Merchant Id"},
		},
	}

	cp := &store.Checkpoint{
		ThreadID:  "thread-redis",
		State:     state,
		LastStage: "clarification",
		UpdatedAt: time.Now(),
	}

	// Put
	err := rs.Put(ctx, cp)
	assert.NoError(t, err)

	// Get
	loaded, err := rs.Get(ctx, "thread-redis")
	assert.NoError(t, err)
	assert.Equal(t, "thread-redis", loaded.ThreadID)
	assert.Equal(t, "clarification", loaded.LastStage)
	assert.True(t, loaded.State.ClarificationNeeded)
	assert.NotNil(t, loaded.State.PendingRequest)
	assert.Equal(t, conversation.ChoiceSelection, loaded.State.PendingRequest.Kind)
	assert.Len(t, loaded.State.PendingRequest.Options, 2)

	// Put again replaces the row
	state.ClearPause()
	state.FinalAnswer = "Done."
	err = rs.Put(ctx, &store.Checkpoint{ThreadID: "thread-redis", State: state, UpdatedAt: time.Now()})
	assert.NoError(t, err)

	loaded, err = rs.Get(ctx, "thread-redis")
	assert.NoError(t, err)
	assert.Empty(t, loaded.LastStage)
	assert.False(t, loaded.State.Paused())
	assert.Equal(t, "Done.", loaded.State.FinalAnswer)

	// Delete
	err = rs.Delete(ctx, "thread-redis")
	assert.NoError(t, err)

	_, err = rs.Get(ctx, "thread-redis")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	// Deleting a missing thread is not an error
	err = rs.Delete(ctx, "thread-redis")
	assert.NoError(t, err)
}

func TestRedisCheckpointStore_TTL(t *testing.T) {
	rs, mr := newTestStore(t, time.Minute)
	defer rs.Close()

	ctx := context.Background()
	cp := &store.Checkpoint{ThreadID: "thread-ttl", State: conversation.New("thread-ttl")}

	err := rs.Put(ctx, cp)
	assert.NoError(t, err)

	_, err = rs.Get(ctx, "thread-ttl")
	assert.NoError(t, err)

	// Past the TTL the checkpoint is gone.
	mr.FastForward(2 * time.Minute)

	_, err = rs.Get(ctx, "thread-ttl")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestRedisCheckpointStore_KeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	rs := NewRedisCheckpointStoreWithClient(client, "custom:", 0)
	defer rs.Close()

	ctx := context.Background()
	cp := &store.Checkpoint{ThreadID: "t1", State: conversation.New("t1")}

	err := rs.Put(ctx, cp)
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:thread:t1:checkpoint"))
}
