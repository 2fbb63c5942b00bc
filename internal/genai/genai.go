// Package genai wraps the OpenAI chat API for message analysis.
//
// The classifier prompt asks for strict JSON so the intent detector can parse
// the result; anything malformed surfaces as ErrInvalidAnalysis and callers
// fall back to the keyword classifier.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zappybot/zappy/internal/models"
)

// Error variables for GenAI operations.
var (
	ErrNoChoicesReturned = errors.New("no choices returned from completion")
	ErrInvalidAnalysis   = errors.New("analysis response is not valid JSON")
)

// DefaultModel is the chat model used unless overridden.
const DefaultModel = openai.ChatModelGPT4oMini

// chatService abstracts the chat completion API for testing.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// openaiChat adapts the real client to chatService.
type openaiChat struct {
	client openai.Client
}

func (c openaiChat) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// Client performs chat-based analysis of user messages.
type Client struct {
	chat  chatService
	model openai.ChatModel
}

// NewClient creates a GenAI client from options. The API key is required.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		slog.Error("GenAI client API key not set")
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("GenAI client created", "model", cfg.Model)
	return &Client{chat: openaiChat{client: cli}, model: cfg.Model}, nil
}

// GeneratePrompt sends a system and user prompt and returns the completion text.
func (c *Client) GeneratePrompt(ctx context.Context, system, user string) (string, error) {
	resp, err := c.chat.Create(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		slog.Error("GenAI GeneratePrompt failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

const analysisSystemPrompt = `You are an intent classifier for a pizza delivery brand's Messenger bot in the Philippines.
Classify the user's message into exactly one intent:
greeting, faq, menu_inquiry, order_placement, location_inquiry, promo_inquiry, party_inquiry, tracking_inquiry, supercard_inquiry, complaint, human_request, unknown.

Also detect the language the user wrote in: "en" (English), "tl" (Tagalog), or "taglish" (mixed English and Tagalog).

Respond with ONLY a JSON object, no prose, no code fences:
{"intent": "<intent>", "confidence": <0.0-1.0>, "language": "<en|tl|taglish>"}`

// analysisResponse mirrors the JSON the classifier prompt requests.
type analysisResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

// AnalyzeMessage classifies one user message with recent history as context.
func (c *Client) AnalyzeMessage(ctx context.Context, message string, history []models.HistoryTurn) (models.IntentResult, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(analysisSystemPrompt),
	}
	for _, turn := range history {
		if turn.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(turn.Content))
		} else {
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	resp, err := c.chat.Create(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Error("GenAI AnalyzeMessage failed", "error", err)
		return models.IntentResult{}, fmt.Errorf("analysis completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.IntentResult{}, ErrNoChoicesReturned
	}
	return parseAnalysis(resp.Choices[0].Message.Content)
}

// parseAnalysis decodes the classifier JSON, tolerating code fences.
func parseAnalysis(raw string) (models.IntentResult, error) {
	cleaned := stripCodeFence(raw)
	var decoded analysisResponse
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		slog.Warn("GenAI analysis response not parseable", "raw", raw)
		return models.IntentResult{}, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}
	result := models.IntentResult{
		Intent:     models.Intent(decoded.Intent),
		Confidence: decoded.Confidence,
		Language:   models.Language(decoded.Language),
	}
	if !validIntent(result.Intent) {
		return models.IntentResult{}, fmt.Errorf("%w: unknown intent %q", ErrInvalidAnalysis, decoded.Intent)
	}
	if !models.IsValidLanguage(result.Language) {
		result.Language = ""
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return models.IntentResult{}, fmt.Errorf("%w: confidence %v out of range", ErrInvalidAnalysis, decoded.Confidence)
	}
	return result, nil
}

func validIntent(i models.Intent) bool {
	switch i {
	case models.IntentGreeting, models.IntentFAQ, models.IntentMenuInquiry,
		models.IntentOrderPlacement, models.IntentLocationInquiry, models.IntentPromoInquiry,
		models.IntentPartyInquiry, models.IntentTrackingInquiry, models.IntentSupercard,
		models.IntentComplaint, models.IntentHumanRequest, models.IntentUnknown:
		return true
	default:
		return false
	}
}

// ExtractedItem is one product reference pulled from an order message.
type ExtractedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

const extractionSystemPrompt = `You extract product orders from customer messages for a pizza delivery brand.
Given the available product names and the customer's message, list the products the customer wants with quantities.
Match loosely (misspellings, partial names, Tagalog quantity words like isa/dalawa/tatlo). Only include products from the provided list.
Respond with ONLY a JSON array, no prose, no code fences: [{"name": "<exact product name from list>", "quantity": <n>}]
Respond with [] when nothing matches.`

// ExtractOrderItems asks the model which catalog products a message refers to.
func (c *Client) ExtractOrderItems(ctx context.Context, message string, productNames []string) ([]ExtractedItem, error) {
	user := fmt.Sprintf("Available products:\n%s\n\nCustomer message: %s", strings.Join(productNames, "\n"), message)
	resp, err := c.chat.Create(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionSystemPrompt),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		slog.Error("GenAI ExtractOrderItems failed", "error", err)
		return nil, fmt.Errorf("extraction completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoicesReturned
	}
	cleaned := stripCodeFence(resp.Choices[0].Message.Content)
	var items []ExtractedItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		slog.Warn("GenAI extraction response not parseable", "raw", resp.Choices[0].Message.Content)
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}
	for i := range items {
		if items[i].Quantity <= 0 {
			items[i].Quantity = 1
		}
	}
	return items, nil
}

// stripCodeFence removes a surrounding markdown code fence, if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
