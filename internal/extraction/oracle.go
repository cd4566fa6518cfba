package extraction

import (
	"context"
	"strings"
)

// Oracle binds an LLMClient to a model and token budget and exposes the
// plain prompt-in/text-out call the intake prompts are written against.
type Oracle struct {
	client    LLMClient
	model     string
	maxTokens int32
}

// NewOracle creates an oracle. model may be empty for providers that carry
// the model in the client itself (Gemini).
func NewOracle(client LLMClient, model string, maxTokens int32) *Oracle {
	if client == nil {
		panic("extraction: llm client cannot be nil")
	}
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &Oracle{client: client, model: model, maxTokens: maxTokens}
}

// Generate sends a single-user-message completion and returns the trimmed
// response text. The text carries no format guarantees.
func (o *Oracle) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Complete(ctx, LLMRequest{
		Model:       o.model,
		MaxTokens:   o.maxTokens,
		Temperature: -1,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
