package extraction

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type fakeConverseAPI struct {
	lastInput *bedrockruntime.ConverseInput
	text      string
}

func (f *fakeConverseAPI) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.lastInput = in
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: f.text},
				},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(3),
			TotalTokens:  aws.Int32(15),
		},
	}, nil
}

func TestBedrockComplete(t *testing.T) {
	api := &fakeConverseAPI{text: "  new_complaint  "}
	client := NewBedrockLLMClient(api)

	resp, err := client.Complete(context.Background(), LLMRequest{
		Model:       "test-model",
		MaxTokens:   50,
		Temperature: -1,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "classify this"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "new_complaint" {
		t.Errorf("Text = %q, want trimmed new_complaint", resp.Text)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", resp.Usage.TotalTokens)
	}
	if got := aws.ToString(api.lastInput.ModelId); got != "test-model" {
		t.Errorf("ModelId = %q, want test-model", got)
	}
	// Temperature < 0 means "let the model default"; only MaxTokens is set.
	if api.lastInput.InferenceConfig == nil || api.lastInput.InferenceConfig.Temperature != nil {
		t.Error("negative temperature should be omitted from inference config")
	}
}

func TestBedrockCompleteRequiresModel(t *testing.T) {
	client := NewBedrockLLMClient(&fakeConverseAPI{text: "x"})
	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected error for missing model id")
	}
}

func TestBedrockCompleteRejectsUnknownRole(t *testing.T) {
	client := NewBedrockLLMClient(&fakeConverseAPI{text: "x"})
	_, err := client.Complete(context.Background(), LLMRequest{
		Model:    "test-model",
		Messages: []ChatMessage{{Role: "tool", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected error for unsupported role")
	}
}
