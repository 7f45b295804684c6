package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/engine"
	"github.com/smallnest/queryflow/schema"
)

// Interpreter implements engine.IntentInterpreter over any langchaingo
// model. The model is asked for a JSON object matching the interpretation
// contract; anything it cannot fill stays empty and reads as low
// confidence downstream.
type Interpreter struct {
	model llms.Model
}

var _ engine.IntentInterpreter = (*Interpreter)(nil)

// NewInterpreter creates an interpreter over the given model.
func NewInterpreter(model llms.Model) *Interpreter {
	return &Interpreter{model: model}
}

// Infer implements engine.IntentInterpreter.
func (i *Interpreter) Infer(ctx context.Context, question string, history []conversation.Message, sch schema.Schema) (*conversation.Interpretation, error) {
	prompt := interpretPrompt(question, history, sch)

	out, err := llms.GenerateFromSinglePrompt(ctx, i.model, prompt, llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("interpretation call failed: %w", err)
	}

	var interp conversation.Interpretation
	if err := json.Unmarshal([]byte(stripFences(out)), &interp); err != nil {
		return nil, fmt.Errorf("interpretation response is not valid JSON: %w", err)
	}
	return &interp, nil
}

// Checker implements engine.DomainChecker over any langchaingo model.
type Checker struct {
	model llms.Model
}

var _ engine.DomainChecker = (*Checker)(nil)

// NewChecker creates a domain checker over the given model.
func NewChecker(model llms.Model) *Checker {
	return &Checker{model: model}
}

// Check implements engine.DomainChecker.
func (c *Checker) Check(ctx context.Context, question string, history []conversation.Message, sch schema.Schema) (engine.DomainCheckResult, error) {
	prompt := domainPrompt(question, history, sch)

	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithJSONMode())
	if err != nil {
		return engine.DomainCheckResult{}, fmt.Errorf("domain check call failed: %w", err)
	}

	var res engine.DomainCheckResult
	if err := json.Unmarshal([]byte(stripFences(out)), &res); err != nil {
		return engine.DomainCheckResult{}, fmt.Errorf("domain check response is not valid JSON: %w", err)
	}
	return res, nil
}
