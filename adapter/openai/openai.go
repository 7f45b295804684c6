package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/engine"
	"github.com/smallnest/queryflow/schema"
)

// Checker implements engine.DomainChecker directly against the OpenAI API,
// for deployments that talk to OpenAI without the langchaingo layer.
type Checker struct {
	client *openai.Client
	model  string
}

var _ engine.DomainChecker = (*Checker)(nil)

// NewChecker creates a checker. An empty model defaults to gpt-4o-mini.
func NewChecker(client *openai.Client, model string) *Checker {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Checker{client: client, model: model}
}

// Check implements engine.DomainChecker.
func (c *Checker) Check(ctx context.Context, question string, history []conversation.Message, sch schema.Schema) (engine.DomainCheckResult, error) {
	var b strings.Builder
	b.WriteString("Database schema:\n")
	for _, tableName := range sch.TableNames() {
		fmt.Fprintf(&b, "- table %s: columns %s\n", tableName, strings.Join(sch[tableName].ColumnNames(), ", "))
	}
	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Decide whether the user's question can be answered from the database described. " +
					`Respond with JSON: {"is_relevant": bool, "confidence": number, "reasoning": string}.`,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: b.String(),
			},
		},
	})
	if err != nil {
		return engine.DomainCheckResult{}, fmt.Errorf("domain check call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return engine.DomainCheckResult{}, fmt.Errorf("domain check returned no choices")
	}

	var res engine.DomainCheckResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &res); err != nil {
		return engine.DomainCheckResult{}, fmt.Errorf("domain check response is not valid JSON: %w", err)
	}
	return res, nil
}
