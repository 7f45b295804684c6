package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/interrupt"
	"github.com/smallnest/queryflow/log"
	"github.com/smallnest/queryflow/pipeline"
	"github.com/smallnest/queryflow/resolver"
	"github.com/smallnest/queryflow/schema"
	"github.com/smallnest/queryflow/store"
	"github.com/smallnest/queryflow/store/memory"
)

// DefaultHistoryWindow is how many recent messages model-facing formatters
// see. The full history always persists.
const DefaultHistoryWindow = 5

// ErrMissingThreadID is returned when RunTurn is called without a thread id.
var ErrMissingThreadID = errors.New("thread id is required")

// ErrMissingQuestion is returned when RunTurn is called with neither a
// question nor a response to an outstanding pause.
var ErrMissingQuestion = errors.New("question is required")

// Config assembles an Engine. Interpreter and Schemas are required; every
// other collaborator has a usable default.
type Config struct {
	// Store persists conversation state between turns. Defaults to the
	// in-memory store.
	Store store.CheckpointStore

	// DomainChecker classifies question relevance. Nil means every
	// question is treated as in scope.
	DomainChecker DomainChecker

	// Interpreter produces the structured interpretation. Required.
	Interpreter IntentInterpreter

	// Schemas supplies the data-source description per thread. Required.
	Schemas schema.Provider

	// Resolver is the ambiguity decision engine. Defaults to
	// resolver.New().
	Resolver *resolver.Resolver

	// Handler applies human responses. Defaults to interrupt.NewHandler().
	Handler *interrupt.Handler

	// HistoryWindow caps how many recent messages formatters see.
	// Defaults to DefaultHistoryWindow.
	HistoryWindow int

	// Downstream query pipeline transforms. Any nil transform is a no-op;
	// a nil Rephrase falls back to echoing the query result.
	QueryGen      StageTransform
	QueryClean    StageTransform
	QueryValidate StageTransform
	QueryExec     StageTransform
	Rephrase      StageTransform

	// Logger for engine diagnostics. Defaults to the package-level logger.
	Logger log.Logger
}

// Engine drives one conversational turn through the fixed stage topology,
// checkpointing at every pause and resuming when the caller supplies a
// human response.
type Engine struct {
	store    store.CheckpointStore
	domain   DomainChecker
	intent   IntentInterpreter
	schemas  schema.Provider
	resolver *resolver.Resolver
	handler  *interrupt.Handler
	logger   log.Logger

	historyWindow int

	queryGen      pipeline.Func
	queryClean    pipeline.Func
	queryValidate pipeline.Func
	queryExec     pipeline.Func
	rephrase      pipeline.Func

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Engine from the config.
func New(cfg Config) (*Engine, error) {
	if cfg.Interpreter == nil {
		return nil, errors.New("intent interpreter is required")
	}
	if cfg.Schemas == nil {
		return nil, errors.New("schema provider is required")
	}

	e := &Engine{
		store:         cfg.Store,
		domain:        cfg.DomainChecker,
		intent:        cfg.Interpreter,
		schemas:       cfg.Schemas,
		resolver:      cfg.Resolver,
		handler:       cfg.Handler,
		logger:        cfg.Logger,
		historyWindow: cfg.HistoryWindow,
		queryGen:      orNoop(cfg.QueryGen),
		queryClean:    orNoop(cfg.QueryClean),
		queryValidate: orNoop(cfg.QueryValidate),
		queryExec:     orNoop(cfg.QueryExec),
		rephrase:      cfg.Rephrase,
		locks:         make(map[string]*sync.Mutex),
	}

	if e.store == nil {
		e.store = memory.NewMemoryCheckpointStore()
	}
	if e.resolver == nil {
		e.resolver = resolver.New()
	}
	if e.handler == nil {
		e.handler = interrupt.NewHandler()
	}
	if e.logger == nil {
		e.logger = log.GetDefaultLogger()
	}
	if e.historyWindow <= 0 {
		e.historyWindow = DefaultHistoryWindow
	}
	if e.rephrase == nil {
		e.rephrase = defaultRephrase
	}

	return e, nil
}

func orNoop(fn StageTransform) pipeline.Func {
	if fn == nil {
		return noop
	}
	return fn
}

func defaultRephrase(ctx context.Context, s *conversation.State) error {
	if s.QueryResult != "" {
		s.FinalAnswer = "Here is what I found: " + s.QueryResult
		return nil
	}
	s.FinalAnswer = "The query ran but returned no data."
	return nil
}

// TurnResult is what a caller gets back from one turn: either a pause
// payload to put in front of the human, or a final answer.
type TurnResult struct {
	Paused       bool                         `json:"paused"`
	PausePayload *conversation.PendingRequest `json:"pause_payload,omitempty"`
	FinalAnswer  string                       `json:"final_answer,omitempty"`
	Error        string                       `json:"error,omitempty"`
}

// RunTurn executes one turn for a thread.
//
// On a fresh question the state is loaded (or created), the question
// appended, and the pipeline run from the top. If the previous turn paused
// and resp is non-nil, the response is applied and the pipeline resumes
// from the stage after the suspension point; a confirmation denial re-arms
// the pause instead of resuming. A new question while a pause is
// outstanding abandons that pause and starts over.
//
// Turns within one thread are serialized on a per-thread lock; different
// threads run fully in parallel.
func (e *Engine) RunTurn(ctx context.Context, threadID, question string, resp *interrupt.Response) (*TurnResult, error) {
	if threadID == "" {
		return nil, ErrMissingThreadID
	}

	unlock := e.lockThread(threadID)
	defer unlock()

	turnID := uuid.NewString()

	state, err := e.loadState(ctx, threadID)
	if err != nil {
		return nil, err
	}

	t := &turn{engine: e}
	runnable, err := e.compile(t)
	if err != nil {
		return nil, err
	}

	var paused bool
	switch {
	case resp != nil && state.Paused():
		e.logger.Debug("turn %s: applying human response to thread %s", turnID, threadID)
		e.handler.Apply(state, resp)
		paused, err = runnable.Resume(ctx, state)

	default:
		if question == "" {
			return nil, ErrMissingQuestion
		}
		e.logger.Debug("turn %s: new question on thread %s", turnID, threadID)
		state.BeginTurn(question)
		paused, err = runnable.Run(ctx, state)
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	if !paused && state.FinalAnswer != "" {
		state.AppendMessage(conversation.RoleAssistant, state.FinalAnswer)
	}

	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}

	if paused {
		return &TurnResult{Paused: true, PausePayload: state.PendingRequest}, nil
	}
	return &TurnResult{FinalAnswer: state.FinalAnswer, Error: state.Error}, nil
}

func (e *Engine) loadState(ctx context.Context, threadID string) (*conversation.State, error) {
	cp, err := e.store.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return conversation.New(threadID), nil
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp.State == nil {
		return conversation.New(threadID), nil
	}
	return cp.State, nil
}

func (e *Engine) saveState(ctx context.Context, s *conversation.State) error {
	cp := &store.Checkpoint{
		ThreadID:  s.ThreadID,
		State:     s,
		LastStage: s.LastStageBeforeInterrupt,
		UpdatedAt: time.Now(),
	}
	if err := e.store.Put(ctx, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// lockThread serializes turns within a thread. The checkpoint
// load-mutate-store sequence is not atomic, so two concurrent turns on one
// thread would race; the keyed lock closes that window for in-process
// callers. Multi-process deployments need the same serialization at their
// own boundary.
func (e *Engine) lockThread(threadID string) func() {
	e.mu.Lock()
	m, ok := e.locks[threadID]
	if !ok {
		m = &sync.Mutex{}
		e.locks[threadID] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}
