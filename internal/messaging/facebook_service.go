package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/zappybot/zappy/internal/models"
)

// DefaultGraphAPIBase is the Facebook Graph API endpoint used unless
// overridden via options.
const DefaultGraphAPIBase = "https://graph.facebook.com/v21.0"

// DefaultRequestTimeout bounds each Graph API call.
const DefaultRequestTimeout = 10 * time.Second

// FacebookOpts holds configuration for the Facebook service.
type FacebookOpts struct {
	AccessToken string
	APIBase     string
	HTTPClient  *http.Client
}

// FacebookOption configures the Facebook service.
type FacebookOption func(*FacebookOpts)

// WithAccessToken sets the page access token.
func WithAccessToken(token string) FacebookOption {
	return func(o *FacebookOpts) { o.AccessToken = token }
}

// WithAPIBase overrides the Graph API base URL (used in tests).
func WithAPIBase(base string) FacebookOption {
	return func(o *FacebookOpts) { o.APIBase = base }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) FacebookOption {
	return func(o *FacebookOpts) { o.HTTPClient = c }
}

// FacebookService sends messages through the Messenger Send API.
type FacebookService struct {
	token   string
	apiBase string
	client  *http.Client
}

// Compile-time check that FacebookService implements Service.
var _ Service = (*FacebookService)(nil)

// NewFacebookService creates a Facebook Graph API backed messaging service.
func NewFacebookService(opts ...FacebookOption) (*FacebookService, error) {
	var cfg FacebookOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("facebook access token not set")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultGraphAPIBase
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	slog.Debug("FacebookService created", "apiBase", cfg.APIBase)
	return &FacebookService{token: cfg.AccessToken, apiBase: cfg.APIBase, client: cfg.HTTPClient}, nil
}

// Wire types for the Send API.

type recipientRef struct {
	ID string `json:"id"`
}

type quickReplyPayload struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

type buttonPayload struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload,omitempty"`
	URL     string `json:"url,omitempty"`
}

type templateElement struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
	Buttons  []buttonPayload `json:"buttons,omitempty"`
}

type templatePayload struct {
	TemplateType string            `json:"template_type"`
	Text         string            `json:"text,omitempty"`
	Buttons      []buttonPayload   `json:"buttons,omitempty"`
	Elements     []templateElement `json:"elements,omitempty"`
	Title        string            `json:"title,omitempty"`
	Subtitle     string            `json:"subtitle,omitempty"`
	CouponCode   string            `json:"coupon_code,omitempty"`
	CouponURL    string            `json:"coupon_url,omitempty"`
	ImageURL     string            `json:"image_url,omitempty"`
}

type attachmentPayload struct {
	Type    string          `json:"type"`
	Payload templatePayload `json:"payload"`
}

type messagePayload struct {
	Text         string              `json:"text,omitempty"`
	QuickReplies []quickReplyPayload `json:"quick_replies,omitempty"`
	Attachment   *attachmentPayload  `json:"attachment,omitempty"`
}

type sendRequest struct {
	Recipient    recipientRef    `json:"recipient"`
	Message      *messagePayload `json:"message,omitempty"`
	SenderAction string          `json:"sender_action,omitempty"`
}

type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (f *FacebookService) SendText(ctx context.Context, recipient, text string) (models.SendResult, error) {
	if recipient == "" {
		return models.SendResult{}, models.ErrEmptyRecipient
	}
	if text == "" {
		return models.SendResult{}, models.ErrEmptyBody
	}
	return f.send(ctx, sendRequest{
		Recipient: recipientRef{ID: recipient},
		Message:   &messagePayload{Text: text},
	})
}

func (f *FacebookService) SendButtons(ctx context.Context, recipient, text string, buttons []models.Button) (models.SendResult, error) {
	if recipient == "" {
		return models.SendResult{}, models.ErrEmptyRecipient
	}
	if len(buttons) == 0 {
		return models.SendResult{}, models.ErrNoButtons
	}
	if len(buttons) > models.MaxButtons {
		slog.Warn("FacebookService SendButtons truncating", "recipient", recipient, "count", len(buttons), "max", models.MaxButtons)
		buttons = buttons[:models.MaxButtons]
	}
	wire := make([]buttonPayload, 0, len(buttons))
	for _, b := range buttons {
		if err := b.Validate(); err != nil {
			return models.SendResult{}, err
		}
		wire = append(wire, buttonPayload{Type: string(b.Type), Title: b.Title, Payload: b.Payload, URL: b.URL})
	}
	return f.send(ctx, sendRequest{
		Recipient: recipientRef{ID: recipient},
		Message: &messagePayload{Attachment: &attachmentPayload{
			Type:    "template",
			Payload: templatePayload{TemplateType: "button", Text: text, Buttons: wire},
		}},
	})
}

func (f *FacebookService) SendQuickReplies(ctx context.Context, recipient, text string, replies []models.QuickReply) (models.SendResult, error) {
	if recipient == "" {
		return models.SendResult{}, models.ErrEmptyRecipient
	}
	if text == "" {
		return models.SendResult{}, models.ErrEmptyBody
	}
	if len(replies) == 0 {
		return models.SendResult{}, models.ErrNoQuickReplies
	}
	if len(replies) > models.MaxQuickReplies {
		slog.Warn("FacebookService SendQuickReplies truncating", "recipient", recipient, "count", len(replies), "max", models.MaxQuickReplies)
		replies = replies[:models.MaxQuickReplies]
	}
	wire := make([]quickReplyPayload, 0, len(replies))
	for _, r := range replies {
		wire = append(wire, quickReplyPayload{ContentType: "text", Title: r.Title, Payload: r.Payload})
	}
	return f.send(ctx, sendRequest{
		Recipient: recipientRef{ID: recipient},
		Message:   &messagePayload{Text: text, QuickReplies: wire},
	})
}

func (f *FacebookService) SendCarousel(ctx context.Context, recipient string, items []models.CarouselItem) (models.SendResult, error) {
	if recipient == "" {
		return models.SendResult{}, models.ErrEmptyRecipient
	}
	if len(items) == 0 {
		return models.SendResult{}, models.ErrNoCarouselItems
	}
	if len(items) > models.MaxCarouselItems {
		slog.Warn("FacebookService SendCarousel truncating", "recipient", recipient, "count", len(items), "max", models.MaxCarouselItems)
		items = items[:models.MaxCarouselItems]
	}
	elements := make([]templateElement, 0, len(items))
	for _, item := range items {
		el := templateElement{Title: item.Title, Subtitle: item.Subtitle, ImageURL: item.ImageURL}
		buttons := item.Buttons
		if len(buttons) > models.MaxButtons {
			buttons = buttons[:models.MaxButtons]
		}
		for _, b := range buttons {
			if err := b.Validate(); err != nil {
				return models.SendResult{}, err
			}
			el.Buttons = append(el.Buttons, buttonPayload{Type: string(b.Type), Title: b.Title, Payload: b.Payload, URL: b.URL})
		}
		elements = append(elements, el)
	}
	return f.send(ctx, sendRequest{
		Recipient: recipientRef{ID: recipient},
		Message: &messagePayload{Attachment: &attachmentPayload{
			Type:    "template",
			Payload: templatePayload{TemplateType: "generic", Elements: elements},
		}},
	})
}

func (f *FacebookService) SendCoupon(ctx context.Context, recipient string, coupon models.Coupon) (models.SendResult, error) {
	if recipient == "" {
		return models.SendResult{}, models.ErrEmptyRecipient
	}
	if coupon.PreMessage != "" {
		if _, err := f.SendText(ctx, recipient, coupon.PreMessage); err != nil {
			return models.SendResult{}, err
		}
	}
	return f.send(ctx, sendRequest{
		Recipient: recipientRef{ID: recipient},
		Message: &messagePayload{Attachment: &attachmentPayload{
			Type: "template",
			Payload: templatePayload{
				TemplateType: "coupon",
				Title:        coupon.Title,
				Subtitle:     coupon.Subtitle,
				CouponCode:   coupon.CouponCode,
				CouponURL:    coupon.URL,
				ImageURL:     coupon.ImageURL,
			},
		}},
	})
}

func (f *FacebookService) SendTypingIndicator(ctx context.Context, recipient string, on bool) error {
	if recipient == "" {
		return models.ErrEmptyRecipient
	}
	action := "typing_on"
	if !on {
		action = "typing_off"
	}
	_, err := f.send(ctx, sendRequest{
		Recipient:    recipientRef{ID: recipient},
		SenderAction: action,
	})
	return err
}

func (f *FacebookService) GetProfile(ctx context.Context, ssid string) (models.User, error) {
	if ssid == "" {
		return models.User{}, models.ErrEmptySenderSSID
	}
	endpoint := fmt.Sprintf("%s/%s?fields=first_name,last_name,profile_pic&access_token=%s",
		f.apiBase, url.PathEscape(ssid), url.QueryEscape(f.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to build profile request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		slog.Error("FacebookService GetProfile request failed", "error", err, "ssid", ssid)
		return models.User{}, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to read profile response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Warn("FacebookService GetProfile non-OK response", "status", resp.StatusCode, "ssid", ssid)
		return models.User{}, fmt.Errorf("profile request returned status %d", resp.StatusCode)
	}
	var profile struct {
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		ProfilePic string `json:"profile_pic"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return models.User{}, fmt.Errorf("failed to decode profile response: %w", err)
	}
	return models.User{
		SSID:       ssid,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		ProfilePic: profile.ProfilePic,
	}, nil
}

// send posts one Send API request and decodes the result.
func (f *FacebookService) send(ctx context.Context, payload sendRequest) (models.SendResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.SendResult{}, fmt.Errorf("failed to encode send request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", f.apiBase, url.QueryEscape(f.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.SendResult{}, fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Error("FacebookService send request failed", "error", err, "recipient", payload.Recipient.ID)
		return models.SendResult{Success: false, Error: err.Error()}, fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SendResult{Success: false, Error: err.Error()}, fmt.Errorf("failed to read send response: %w", err)
	}

	var decoded sendResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return models.SendResult{Success: false, Error: err.Error()}, fmt.Errorf("failed to decode send response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || decoded.Error != nil {
		msg := fmt.Sprintf("send API returned status %d", resp.StatusCode)
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		slog.Error("FacebookService send rejected", "status", resp.StatusCode, "error", msg, "recipient", payload.Recipient.ID)
		return models.SendResult{Success: false, Error: msg}, fmt.Errorf("send rejected: %s", msg)
	}
	slog.Debug("FacebookService send succeeded", "recipient", payload.Recipient.ID, "messageID", decoded.MessageID)
	return models.SendResult{Success: true, ProviderMessageID: decoded.MessageID}, nil
}
