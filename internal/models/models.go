// Package models defines the core data structures for Zappy.
//
// It includes types for users, threads, messages, outbound message payloads,
// and API responses, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// Language identifies the reply language for a thread.
type Language string

const (
	// LanguageEnglish is plain English.
	LanguageEnglish Language = "en"
	// LanguageTagalog is plain Tagalog.
	LanguageTagalog Language = "tl"
	// LanguageTaglish is mixed English and Tagalog.
	LanguageTaglish Language = "taglish"
)

// IsValidLanguage checks if the given language is supported.
func IsValidLanguage(l Language) bool {
	switch l {
	case LanguageEnglish, LanguageTagalog, LanguageTaglish:
		return true
	default:
		return false
	}
}

// MessageType describes what kind of content a persisted message holds.
type MessageType string

const (
	MessageTypeText       MessageType = "text"
	MessageTypePostback   MessageType = "postback"
	MessageTypeAttachment MessageType = "attachment"
	MessageTypeButton     MessageType = "button"
	MessageTypeCarousel   MessageType = "carousel"
	MessageTypeCoupon     MessageType = "coupon"
	MessageTypeQuickReply MessageType = "quick_reply"
)

// DeliveryStatus tracks the outbound delivery state of a bot message.
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// Send API constraints. Requests exceeding these limits are rejected by the
// platform, so senders truncate to fit before the call.
const (
	// MaxButtons is the maximum number of buttons in a button template.
	MaxButtons = 3
	// MaxCarouselItems is the maximum number of cards in a carousel.
	MaxCarouselItems = 10
	// MaxQuickReplies is the maximum number of quick reply options.
	MaxQuickReplies = 13
)

// Error variables for better error handling and testability.
var (
	ErrEmptyRecipient  = errors.New("recipient cannot be empty")
	ErrEmptyBody       = errors.New("message body cannot be empty")
	ErrNoButtons       = errors.New("at least one button is required")
	ErrNoCarouselItems = errors.New("at least one carousel item is required")
	ErrNoQuickReplies  = errors.New("at least one quick reply is required")
	ErrInvalidButton   = errors.New("button must carry a payload or url matching its type")
	ErrInvalidFlowType = errors.New("invalid flow type")
	ErrEmptySenderSSID = errors.New("sender ssid cannot be empty")
	ErrEmptyContent    = errors.New("message content cannot be empty")
)

// User is an external identity keyed by the platform's page-scoped id (SSID).
// Profile fields are best-effort enrichment, never required for a turn.
type User struct {
	ID         string    `json:"id"`
	SSID       string    `json:"ssid"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Thread is the durable conversation between the bot and one user identity.
type Thread struct {
	ID           string    `json:"id"`
	UserSSID     string    `json:"user_ssid"`
	LastMessage  string    `json:"last_message,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message is one turn of a conversation. Rows are append-only except for
// delivery tracking updates on bot-authored messages.
type Message struct {
	ID                string         `json:"id"`
	ThreadID          string         `json:"thread_id"`
	SenderSSID        string         `json:"sender_ssid"`
	Content           string         `json:"content"`
	MessageType       MessageType    `json:"message_type"`
	IsFromBot         bool           `json:"is_from_bot"`
	DeliveryStatus    DeliveryStatus `json:"delivery_status,omitempty"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`
	FailureReason     string         `json:"failure_reason,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
}

// CreateMessageInput is the payload for persisting a new message.
type CreateMessageInput struct {
	SenderSSID  string      `json:"sender_ssid"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"message_type,omitempty"`
	IsFromBot   bool        `json:"is_from_bot,omitempty"`
}

// Validate performs validation on a CreateMessageInput structure.
func (in *CreateMessageInput) Validate() error {
	if in.SenderSSID == "" {
		return ErrEmptySenderSSID
	}
	if in.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// HistoryTurn is one entry of recent conversation history handed to the
// intent classifier for context.
type HistoryTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ButtonType distinguishes postback buttons from webview links.
type ButtonType string

const (
	ButtonTypePostback ButtonType = "postback"
	ButtonTypeWebURL   ButtonType = "web_url"
)

// Button is a pressable element in button templates and carousel cards.
type Button struct {
	Title   string     `json:"title"`
	Type    ButtonType `json:"type"`
	Payload string     `json:"payload,omitempty"`
	URL     string     `json:"url,omitempty"`
}

// Validate checks that the button carries the field its type requires.
func (b Button) Validate() error {
	switch b.Type {
	case ButtonTypePostback:
		if b.Payload == "" {
			return ErrInvalidButton
		}
	case ButtonTypeWebURL:
		if b.URL == "" {
			return ErrInvalidButton
		}
	default:
		return ErrInvalidButton
	}
	return nil
}

// QuickReply is a tappable shortcut rendered beneath a text message.
type QuickReply struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// CarouselItem is one card of a generic (carousel) template.
type CarouselItem struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Buttons  []Button `json:"buttons,omitempty"`
}

// Coupon describes one coupon template send.
type Coupon struct {
	Title       string `json:"title"`
	CouponCode  string `json:"coupon_code"`
	Subtitle    string `json:"subtitle,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	PreMessage  string `json:"pre_message,omitempty"`
	ButtonTitle string `json:"button_title,omitempty"`
	URL         string `json:"url,omitempty"`
}

// SendResult reports the outcome of one Send API call.
type SendResult struct {
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// IncomingEvent is the normalized form of one inbound webhook message event.
// All supported wire shapes normalize to this before reaching the dispatcher.
type IncomingEvent struct {
	SenderID        string `json:"sender_id"`
	Timestamp       int64  `json:"timestamp"`
	Text            string `json:"text,omitempty"`
	PostbackPayload string `json:"postback_payload,omitempty"`
	PostbackTitle   string `json:"postback_title,omitempty"`
	AttachmentType  string `json:"attachment_type,omitempty"`
	ProviderMID     string `json:"provider_mid,omitempty"`
}

// IsPostback reports whether the event came from a button press.
func (e IncomingEvent) IsPostback() bool {
	return e.PostbackPayload != ""
}

// Input returns the text the dispatcher treats as the user's turn: the
// postback payload verbatim for button presses, the message text otherwise.
func (e IncomingEvent) Input() string {
	if e.PostbackPayload != "" {
		return e.PostbackPayload
	}
	return e.Text
}

// FAQ is one localized FAQ row.
type FAQ struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
