package engine

import (
	"context"
	"fmt"

	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/pipeline"
	"github.com/smallnest/queryflow/schema"
)

// Stage identifiers. The topology below is fixed and known at build time;
// it is wired once per turn into a pipeline.Pipeline.
const (
	StageDomainCheck            pipeline.Stage = "domain_check"
	StageIntentPick             pipeline.Stage = "intent_pick"
	StageConversationalAnalysis pipeline.Stage = "conversational_analysis"
	StageHumanApproval          pipeline.Stage = "human_approval"
	StageClarification          pipeline.Stage = "clarification"
	StageContextClip            pipeline.Stage = "context_clip"
	StageQueryGen               pipeline.Stage = "query_generation"
	StageQueryClean             pipeline.Stage = "query_cleanup"
	StageQueryValidate          pipeline.Stage = "query_validation"
	StageQueryExec              pipeline.Stage = "query_execution"
	StageRephrase               pipeline.Stage = "rephrase"
	StageErrorResponse          pipeline.Stage = "error_response"
)

// turn carries per-turn scratch shared by the stage closures, chiefly the
// lazily fetched schema so one turn hits the provider at most once.
type turn struct {
	engine *Engine
	schema schema.Schema
	loaded bool
}

func (t *turn) getSchema(ctx context.Context, threadID string) (schema.Schema, error) {
	if t.loaded {
		return t.schema, nil
	}
	sch, err := t.engine.schemas.GetSchema(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("schema fetch failed: %w", err)
	}
	t.schema = sch
	t.loaded = true
	return sch, nil
}

// compile wires the fixed topology for one turn.
func (e *Engine) compile(t *turn) (*pipeline.Runnable, error) {
	p := pipeline.New()

	p.AddStage(StageDomainCheck, t.domainCheck)
	p.AddStage(StageIntentPick, t.intentPick)
	p.AddStage(StageConversationalAnalysis, t.conversationalAnalysis)
	p.AddStage(StageHumanApproval, noop)
	p.AddStage(StageClarification, noop)
	p.AddStage(StageContextClip, t.contextClip)
	p.AddStage(StageQueryGen, e.queryGen)
	p.AddStage(StageQueryClean, e.queryClean)
	p.AddStage(StageQueryValidate, e.queryValidate)
	p.AddStage(StageQueryExec, e.queryExec)
	p.AddStage(StageRephrase, e.rephrase)
	p.AddStage(StageErrorResponse, errorResponse)

	p.AddConditionalEdge(StageDomainCheck, func(s *conversation.State) pipeline.Stage {
		if s.DomainCheckFailed {
			return StageErrorResponse
		}
		return StageIntentPick
	})
	p.AddEdge(StageIntentPick, StageConversationalAnalysis)
	p.AddEdge(StageConversationalAnalysis, StageHumanApproval)
	p.AddConditionalEdge(StageHumanApproval, func(s *conversation.State) pipeline.Stage {
		if s.HumanApprovalNeeded {
			return pipeline.Halt
		}
		return StageClarification
	})
	p.AddConditionalEdge(StageClarification, func(s *conversation.State) pipeline.Stage {
		if s.ClarificationNeeded {
			return pipeline.Halt
		}
		return StageContextClip
	})
	p.AddEdge(StageContextClip, StageQueryGen)
	p.AddEdge(StageQueryGen, StageQueryClean)
	p.AddEdge(StageQueryClean, StageQueryValidate)
	p.AddEdge(StageQueryValidate, StageQueryExec)
	p.AddEdge(StageQueryExec, StageRephrase)
	p.AddEdge(StageRephrase, pipeline.Halt)
	p.AddEdge(StageErrorResponse, pipeline.Halt)

	p.SetEntryPoint(StageDomainCheck)
	p.SetErrorStage(StageErrorResponse)

	return p.Compile()
}

func noop(ctx context.Context, s *conversation.State) error {
	return nil
}

// domainCheck asks the relevance classifier whether the question is in
// scope. A rejection is not a failure; the routing sends it to the error
// response stage for a polite refusal.
func (t *turn) domainCheck(ctx context.Context, s *conversation.State) error {
	if t.engine.domain == nil {
		return nil
	}
	sch, err := t.getSchema(ctx, s.ThreadID)
	if err != nil {
		return err
	}
	res, err := t.engine.domain.Check(ctx, s.UserQuestion, s.RecentHistory(t.engine.historyWindow), sch)
	if err != nil {
		return fmt.Errorf("domain check failed: %w", err)
	}
	s.DomainCheckFailed = !res.IsRelevant
	return nil
}

// intentPick asks the interpreter for a structured proposal. A missing
// interpretation downstream reads as confidence 0.
func (t *turn) intentPick(ctx context.Context, s *conversation.State) error {
	sch, err := t.getSchema(ctx, s.ThreadID)
	if err != nil {
		return err
	}
	interp, err := t.engine.intent.Infer(ctx, s.UserQuestion, s.RecentHistory(t.engine.historyWindow), sch)
	if err != nil {
		return fmt.Errorf("intent inference failed: %w", err)
	}
	if interp == nil {
		interp = &conversation.Interpretation{}
	}
	s.Interpretation = interp
	return nil
}

// conversationalAnalysis runs the ambiguity resolver and translates its
// decision into state flags. Exactly one pause flag is set at a pause:
// confirmations stop at the human-approval gate, choice selections at the
// clarification gate.
func (t *turn) conversationalAnalysis(ctx context.Context, s *conversation.State) error {
	sch, err := t.getSchema(ctx, s.ThreadID)
	if err != nil {
		return err
	}

	var interp conversation.Interpretation
	if s.Interpretation != nil {
		interp = *s.Interpretation
	}

	resolution := t.engine.resolver.Resolve(s.UserQuestion, interp, sch)

	if resolution.AutoProceed || resolution.Request == nil {
		s.ClearPause()
		s.IntentApproved = true
		return nil
	}

	s.PendingRequest = resolution.Request
	s.IntentApproved = false
	switch resolution.Request.Kind {
	case conversation.ChoiceSelection:
		s.ClarificationNeeded = true
		s.HumanApprovalNeeded = false
	default:
		s.HumanApprovalNeeded = true
		s.ClarificationNeeded = false
	}
	return nil
}

// contextClip rebuilds the clipped history window the downstream
// formatters are allowed to see. The full history is never shrunk.
func (t *turn) contextClip(ctx context.Context, s *conversation.State) error {
	s.ContextWindow = s.RecentHistory(t.engine.historyWindow)
	return nil
}

// errorResponse turns whatever went wrong into a natural-language answer.
// The user never sees a raw error.
func errorResponse(ctx context.Context, s *conversation.State) error {
	if s.DomainCheckFailed && s.Error == "" {
		s.FinalAnswer = "That question seems to be outside the data I can help with. Could you ask about something in the connected data source?"
		return nil
	}
	s.FinalAnswer = "Sorry, I ran into a problem while working on that. Could you try rephrasing your question?"
	return nil
}
