package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"github.com/zappybot/zappy/internal/models"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   openai.ChatCompletion
	err    error
	params *openai.ChatCompletionNewParams
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.params = &params
	return m.resp, m.err
}

func completionWith(content string) openai.ChatCompletion {
	return openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestGeneratePrompt_Success(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: completionWith("Hello World")}}
	out, err := client.GeneratePrompt(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
}

func TestGeneratePrompt_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}}
	_, err := client.GeneratePrompt(context.Background(), "sys", "usr")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestGeneratePrompt_NoChoices(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: openai.ChatCompletion{}}}
	_, err := client.GeneratePrompt(context.Background(), "sys", "usr")
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestAnalyzeMessage_ParsesJSON(t *testing.T) {
	mock := &mockChatService{resp: completionWith(`{"intent":"order_placement","confidence":0.92,"language":"taglish"}`)}
	client := &Client{chat: mock, model: DefaultModel}

	result, err := client.AnalyzeMessage(context.Background(), "gusto ko mag-order ng pizza", nil)
	if err != nil {
		t.Fatalf("AnalyzeMessage failed: %v", err)
	}
	if result.Intent != models.IntentOrderPlacement {
		t.Errorf("intent = %q", result.Intent)
	}
	if result.Confidence != 0.92 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if result.Language != models.LanguageTaglish {
		t.Errorf("language = %q", result.Language)
	}
}

func TestAnalyzeMessage_ToleratesCodeFence(t *testing.T) {
	mock := &mockChatService{resp: completionWith("```json\n{\"intent\":\"greeting\",\"confidence\":0.95,\"language\":\"en\"}\n```")}
	client := &Client{chat: mock, model: DefaultModel}

	result, err := client.AnalyzeMessage(context.Background(), "hi there", nil)
	if err != nil {
		t.Fatalf("AnalyzeMessage failed: %v", err)
	}
	if result.Intent != models.IntentGreeting {
		t.Errorf("intent = %q", result.Intent)
	}
}

func TestAnalyzeMessage_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"prose", "The user wants to order pizza."},
		{"unknown intent", `{"intent":"pizza_time","confidence":0.9,"language":"en"}`},
		{"confidence out of range", `{"intent":"greeting","confidence":1.7,"language":"en"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{chat: &mockChatService{resp: completionWith(tt.content)}, model: DefaultModel}
			_, err := client.AnalyzeMessage(context.Background(), "hello", nil)
			if !errors.Is(err, ErrInvalidAnalysis) {
				t.Errorf("expected ErrInvalidAnalysis, got %v", err)
			}
		})
	}
}

func TestAnalyzeMessage_IncludesHistory(t *testing.T) {
	mock := &mockChatService{resp: completionWith(`{"intent":"faq","confidence":0.8,"language":"en"}`)}
	client := &Client{chat: mock, model: DefaultModel}

	history := []models.HistoryTurn{
		{Role: "user", Content: "do you have pasta"},
		{Role: "assistant", Content: "Yes, we have Skilletti!"},
	}
	if _, err := client.AnalyzeMessage(context.Background(), "how much is it", history); err != nil {
		t.Fatalf("AnalyzeMessage failed: %v", err)
	}
	// system + 2 history turns + current message
	if got := len(mock.params.Messages); got != 4 {
		t.Errorf("sent %d messages, want 4", got)
	}
}

func TestExtractOrderItems(t *testing.T) {
	mock := &mockChatService{resp: completionWith(`[{"name":"Hawaiian Delight","quantity":2},{"name":"Mojos","quantity":0}]`)}
	client := &Client{chat: mock, model: DefaultModel}

	items, err := client.ExtractOrderItems(context.Background(), "dalawang hawaiian at mojos", []string{"Hawaiian Delight", "Mojos"})
	if err != nil {
		t.Fatalf("ExtractOrderItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("items[0].Quantity = %d", items[0].Quantity)
	}
	if items[1].Quantity != 1 {
		t.Errorf("zero quantity not defaulted to 1: %d", items[1].Quantity)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[]\n```", "[]"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
