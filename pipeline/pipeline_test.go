package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/queryflow/conversation"
)

// record appends a marker to the state's query field so tests can observe
// execution order.
func record(name string) Func {
	return func(ctx context.Context, s *conversation.State) error {
		s.Query += name
		return nil
	}
}

func TestPipelineRunsToHalt(t *testing.T) {
	p := New()
	p.AddStage("a", record("A"))
	p.AddStage("b", record("B"))
	p.AddStage("c", record("C"))
	p.SetEntryPoint("a")
	p.AddEdge("a", "b")
	p.AddEdge("b", "c")
	p.AddEdge("c", Halt)

	r, err := p.Compile()
	require.NoError(t, err)

	s := conversation.New("t1")
	paused, err := r.Run(context.Background(), s)
	assert.NoError(t, err)
	assert.False(t, paused)
	assert.Equal(t, "ABC", s.Query)
}

func TestPipelineConditionalEdge(t *testing.T) {
	p := New()
	p.AddStage("check", func(ctx context.Context, s *conversation.State) error {
		s.DomainCheckFailed = true
		return nil
	})
	p.AddStage("ok", record("OK"))
	p.AddStage("rejected", record("REJECTED"))
	p.SetEntryPoint("check")
	p.AddConditionalEdge("check", func(s *conversation.State) Stage {
		if s.DomainCheckFailed {
			return "rejected"
		}
		return "ok"
	})
	p.AddEdge("ok", Halt)
	p.AddEdge("rejected", Halt)

	r, err := p.Compile()
	require.NoError(t, err)

	s := conversation.New("t1")
	_, err = r.Run(context.Background(), s)
	assert.NoError(t, err)
	assert.Equal(t, "REJECTED", s.Query)
}

func TestPipelinePauseAndResume(t *testing.T) {
	p := New()
	p.AddStage("analyze", func(ctx context.Context, s *conversation.State) error {
		s.HumanApprovalNeeded = true
		return nil
	})
	p.AddStage("gate", record("G"))
	p.AddStage("after", record("X"))
	p.SetEntryPoint("analyze")
	p.AddEdge("analyze", "gate")
	p.AddConditionalEdge("gate", func(s *conversation.State) Stage {
		if s.HumanApprovalNeeded {
			return Halt
		}
		return "after"
	})
	p.AddEdge("after", Halt)

	r, err := p.Compile()
	require.NoError(t, err)

	s := conversation.New("t1")
	paused, err := r.Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, paused)
	assert.Equal(t, "gate", s.LastStageBeforeInterrupt)
	assert.Equal(t, "G", s.Query)

	// Human answers; flag cleared, resume continues after the gate.
	s.HumanApprovalNeeded = false
	paused, err = r.Resume(context.Background(), s)
	assert.NoError(t, err)
	assert.False(t, paused)
	assert.Equal(t, "GX", s.Query)
	assert.Empty(t, s.LastStageBeforeInterrupt)
}

func TestPipelineResumeWhileStillPaused(t *testing.T) {
	p := New()
	p.AddStage("gate", noopStage)
	p.SetEntryPoint("gate")
	p.AddConditionalEdge("gate", func(s *conversation.State) Stage { return Halt })

	r, err := p.Compile()
	require.NoError(t, err)

	s := conversation.New("t1")
	s.HumanApprovalNeeded = true
	s.LastStageBeforeInterrupt = "gate"

	paused, err := r.Resume(context.Background(), s)
	assert.NoError(t, err)
	assert.True(t, paused)
	assert.Equal(t, "gate", s.LastStageBeforeInterrupt)
}

func TestPipelineResumeWithoutAnchor(t *testing.T) {
	p := New()
	p.AddStage("a", noopStage)
	p.SetEntryPoint("a")
	p.AddEdge("a", Halt)

	r, err := p.Compile()
	require.NoError(t, err)

	_, err = r.Resume(context.Background(), conversation.New("t1"))
	assert.ErrorIs(t, err, ErrNoResumePoint)
}

func TestPipelineStageFailureRoutesToErrorStage(t *testing.T) {
	p := New()
	p.AddStage("boom", func(ctx context.Context, s *conversation.State) error {
		return errors.New("collaborator down")
	})
	p.AddStage("apology", func(ctx context.Context, s *conversation.State) error {
		s.FinalAnswer = "sorry"
		return nil
	})
	p.SetEntryPoint("boom")
	p.SetErrorStage("apology")
	p.AddEdge("boom", Halt)
	p.AddEdge("apology", Halt)

	r, err := p.Compile()
	require.NoError(t, err)

	s := conversation.New("t1")
	paused, err := r.Run(context.Background(), s)
	assert.NoError(t, err)
	assert.False(t, paused)
	assert.Contains(t, s.Error, "collaborator down")
	assert.Equal(t, "sorry", s.FinalAnswer)
}

func TestPipelineStagePanicIsContained(t *testing.T) {
	p := New()
	p.AddStage("boom", func(ctx context.Context, s *conversation.State) error {
		panic("nil deref somewhere")
	})
	p.AddStage("apology", func(ctx context.Context, s *conversation.State) error {
		s.FinalAnswer = "sorry"
		return nil
	})
	p.SetEntryPoint("boom")
	p.SetErrorStage("apology")
	p.AddEdge("boom", Halt)
	p.AddEdge("apology", Halt)

	r, err := p.Compile()
	require.NoError(t, err)

	s := conversation.New("t1")
	_, err = r.Run(context.Background(), s)
	assert.NoError(t, err)
	assert.Contains(t, s.Error, "panic in stage boom")
	assert.Equal(t, "sorry", s.FinalAnswer)
}

func TestPipelineErrorStageFailurePropagates(t *testing.T) {
	p := New()
	p.AddStage("boom", func(ctx context.Context, s *conversation.State) error {
		return errors.New("first failure")
	})
	p.AddStage("apology", func(ctx context.Context, s *conversation.State) error {
		return errors.New("second failure")
	})
	p.SetEntryPoint("boom")
	p.SetErrorStage("apology")
	p.AddEdge("boom", Halt)
	p.AddEdge("apology", Halt)

	r, err := p.Compile()
	require.NoError(t, err)

	_, err = r.Run(context.Background(), conversation.New("t1"))
	assert.Error(t, err)
}

func TestCompileValidation(t *testing.T) {
	t.Run("MissingEntryPoint", func(t *testing.T) {
		p := New()
		p.AddStage("a", noopStage)
		_, err := p.Compile()
		assert.ErrorIs(t, err, ErrEntryPointNotSet)
	})

	t.Run("UnknownEntryPoint", func(t *testing.T) {
		p := New()
		p.AddStage("a", noopStage)
		p.SetEntryPoint("missing")
		_, err := p.Compile()
		assert.ErrorIs(t, err, ErrStageNotFound)
	})

	t.Run("DanglingStage", func(t *testing.T) {
		p := New()
		p.AddStage("a", noopStage)
		p.SetEntryPoint("a")
		_, err := p.Compile()
		assert.ErrorIs(t, err, ErrNoOutgoingEdge)
	})
}

func TestPipelineContextCancellation(t *testing.T) {
	p := New()
	p.AddStage("a", noopStage)
	p.SetEntryPoint("a")
	p.AddEdge("a", Halt)

	r, err := p.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Run(ctx, conversation.New("t1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func noopStage(ctx context.Context, s *conversation.State) error { return nil }
