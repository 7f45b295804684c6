package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/log"
)

// Halt is the terminal sentinel. A route returning Halt stops execution;
// whether the stop is a pause or a terminal completion is decided by the
// pause flags on the state.
const Halt Stage = "HALT"

// Stage identifies a processing stage in the pipeline. Stages are typed
// constants wired into an explicit transition table; there is no runtime
// string dispatch beyond the table lookups.
type Stage string

// Func is a single stage transform. It mutates the state in place and
// returns an error only for a genuine stage failure; pauses are signalled
// through the state's pause flags, never through errors.
type Func func(ctx context.Context, s *conversation.State) error

// Route inspects the post-stage state and returns the next stage, or Halt.
type Route func(s *conversation.State) Stage

var (
	// ErrEntryPointNotSet is returned when the entry stage is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrStageNotFound is returned when a transition targets an unknown stage.
	ErrStageNotFound = errors.New("stage not found")

	// ErrNoOutgoingEdge is returned when a stage has neither a static edge
	// nor a route.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for stage")

	// ErrNoResumePoint is returned when Resume is called on a state that
	// holds no suspension anchor.
	ErrNoResumePoint = errors.New("state has no stage to resume from")
)

// Pipeline holds the named stages and their transition table. The topology
// is fixed at build time and compiled into a Runnable.
type Pipeline struct {
	stages map[Stage]Func
	next   map[Stage]Stage
	routes map[Stage]Route

	entry      Stage
	errorStage Stage
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{
		stages: make(map[Stage]Func),
		next:   make(map[Stage]Stage),
		routes: make(map[Stage]Route),
	}
}

// AddStage registers a stage transform under the given identifier.
func (p *Pipeline) AddStage(id Stage, fn Func) {
	p.stages[id] = fn
}

// AddEdge adds an unconditional transition from one stage to the next.
func (p *Pipeline) AddEdge(from, to Stage) {
	p.next[from] = to
}

// AddConditionalEdge adds a routing function that picks the next stage by
// inspecting the post-stage state. A conditional edge takes precedence over
// a static edge from the same stage.
func (p *Pipeline) AddConditionalEdge(from Stage, route Route) {
	p.routes[from] = route
}

// SetEntryPoint sets the stage execution starts from.
func (p *Pipeline) SetEntryPoint(id Stage) {
	p.entry = id
}

// SetErrorStage sets the stage that a failing stage routes to. The failure
// is recorded on the state and the error stage produces the user-visible
// response; the error never propagates past the executor.
func (p *Pipeline) SetErrorStage(id Stage) {
	p.errorStage = id
}

// Compile validates the topology and returns a Runnable.
func (p *Pipeline) Compile() (*Runnable, error) {
	if p.entry == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := p.stages[p.entry]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrStageNotFound, p.entry)
	}
	for id := range p.stages {
		if _, hasRoute := p.routes[id]; hasRoute {
			continue
		}
		if _, hasNext := p.next[id]; !hasNext {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, id)
		}
	}
	return &Runnable{pipeline: p}, nil
}

// Runnable is a compiled pipeline that can be executed against a state.
type Runnable struct {
	pipeline *Pipeline
}

// Run executes the pipeline from the entry stage until a terminal Halt or a
// pause. The returned flag reports whether the run stopped on a pause.
func (r *Runnable) Run(ctx context.Context, s *conversation.State) (paused bool, err error) {
	return r.runFrom(ctx, s, r.pipeline.entry)
}

// Resume continues an interrupted run. The suspension anchor on the state
// names the stage that paused; execution picks up at whatever stage that
// stage's route selects for the post-response state. If the applied response
// re-armed the pause, Resume leaves the state suspended and returns
// immediately.
func (r *Runnable) Resume(ctx context.Context, s *conversation.State) (paused bool, err error) {
	last := Stage(s.LastStageBeforeInterrupt)
	if last == "" {
		return false, ErrNoResumePoint
	}
	if s.Paused() {
		return true, nil
	}

	next, err := r.route(last, s)
	if err != nil {
		return false, err
	}
	s.LastStageBeforeInterrupt = ""
	if next == Halt {
		return false, nil
	}
	return r.runFrom(ctx, s, next)
}

func (r *Runnable) runFrom(ctx context.Context, s *conversation.State, from Stage) (bool, error) {
	current := from
	for current != Halt {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		fn, ok := r.pipeline.stages[current]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrStageNotFound, current)
		}

		if err := r.execStage(ctx, current, fn, s); err != nil {
			log.Warn("stage %s failed: %v", current, err)
			s.Error = err.Error()
			if r.pipeline.errorStage == "" || current == r.pipeline.errorStage {
				return false, err
			}
			current = r.pipeline.errorStage
			continue
		}

		next, err := r.route(current, s)
		if err != nil {
			return false, err
		}

		if next == Halt && s.Paused() {
			s.LastStageBeforeInterrupt = string(current)
			return true, nil
		}
		current = next
	}
	return false, nil
}

// execStage runs one stage transform with panic containment. A panicking
// stage is indistinguishable from a failing one at the executor boundary.
func (r *Runnable) execStage(ctx context.Context, id Stage, fn Func, s *conversation.State) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in stage %s: %v", id, p)
		}
	}()
	return fn(ctx, s)
}

func (r *Runnable) route(from Stage, s *conversation.State) (Stage, error) {
	if route, ok := r.pipeline.routes[from]; ok {
		next := route(s)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next stage from %s", from)
		}
		return next, nil
	}
	if next, ok := r.pipeline.next[from]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}
