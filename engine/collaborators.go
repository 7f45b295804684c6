package engine

import (
	"context"

	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/pipeline"
	"github.com/smallnest/queryflow/schema"
)

// DomainCheckResult is the relevance classifier's verdict on a question.
type DomainCheckResult struct {
	IsRelevant bool    `json:"is_relevant"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// DomainChecker decides whether a question is in scope for the data source.
// The core calls into this contract; the classifier's internals are not its
// concern.
type DomainChecker interface {
	Check(ctx context.Context, question string, history []conversation.Message, sch schema.Schema) (DomainCheckResult, error)
}

// IntentInterpreter translates a question into a structured interpretation.
type IntentInterpreter interface {
	Infer(ctx context.Context, question string, history []conversation.Message, sch schema.Schema) (*conversation.Interpretation, error)
}

// StageTransform is an injected downstream stage: query generation,
// cleanup, validation, execution and rephrasing are opaque to the core
// beyond the state fields they read and write.
type StageTransform = pipeline.Func
