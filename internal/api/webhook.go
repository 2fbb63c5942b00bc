package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zappybot/zappy/internal/models"
)

// verifyWebhookHandler answers the platform's subscription challenge: echo
// hub.challenge when the mode and token match, 403 otherwise.
func (s *Server) verifyWebhookHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && s.verifyToken != "" && token == s.verifyToken {
		slog.Info("Server.verifyWebhookHandler: webhook verified")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge)); err != nil {
			slog.Error("Server.verifyWebhookHandler: failed to write challenge", "error", err)
		}
		return
	}

	slog.Warn("Server.verifyWebhookHandler: verification rejected", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

// Webhook wire shapes. The platform nests events under entry[].messaging[],
// but test harnesses post flat messaging arrays or a bare event, so all
// three normalize to models.IncomingEvent.
type webhookBody struct {
	Object    string          `json:"object,omitempty"`
	Entry     []webhookEntry  `json:"entry,omitempty"`
	Messaging []webhookEvent  `json:"messaging,omitempty"`
	Sender    *webhookSender  `json:"sender,omitempty"`
	Message   *webhookMessage `json:"message,omitempty"`
	Postback  *webhookPost    `json:"postback,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

type webhookEntry struct {
	ID        string         `json:"id,omitempty"`
	Time      int64          `json:"time,omitempty"`
	Messaging []webhookEvent `json:"messaging,omitempty"`
}

type webhookEvent struct {
	Sender    *webhookSender  `json:"sender,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Message   *webhookMessage `json:"message,omitempty"`
	Postback  *webhookPost    `json:"postback,omitempty"`
}

type webhookSender struct {
	ID string `json:"id"`
}

type webhookMessage struct {
	MID         string              `json:"mid,omitempty"`
	Text        string              `json:"text,omitempty"`
	QuickReply  *webhookQuickReply  `json:"quick_reply,omitempty"`
	Attachments []webhookAttachment `json:"attachments,omitempty"`
}

type webhookQuickReply struct {
	Payload string `json:"payload"`
}

type webhookAttachment struct {
	Type string `json:"type,omitempty"`
}

type webhookPost struct {
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload,omitempty"`
	MID     string `json:"mid,omitempty"`
}

// receiveWebhookHandler ingests event deliveries. Events are processed
// before the acknowledgement so a crash mid-batch leaves the delivery
// unacked and the platform redelivers; dedup drops the replayed events that
// already went through. The ack is always 200 so content problems never
// cause a retry loop.
func (s *Server) receiveWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}

	var body webhookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Warn("Server.receiveWebhookHandler: undecodable body", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	events := normalizeEvents(body)
	slog.Debug("Server.receiveWebhookHandler: delivery received", "events", len(events))

	for _, event := range events {
		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		if err := s.proc.ProcessEvent(ctx, event); err != nil {
			slog.Error("Server.receiveWebhookHandler: event processing failed", "error", err, "sender", event.SenderID)
		}
		cancel()
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("EVENT_RECEIVED")); err != nil {
		slog.Error("Server.receiveWebhookHandler: failed to write acknowledgement", "error", err)
	}
}

// normalizeEvents flattens any supported wire shape into incoming events.
func normalizeEvents(body webhookBody) []models.IncomingEvent {
	var raw []webhookEvent
	switch {
	case len(body.Entry) > 0:
		for _, entry := range body.Entry {
			raw = append(raw, entry.Messaging...)
		}
	case len(body.Messaging) > 0:
		raw = body.Messaging
	case body.Sender != nil:
		raw = []webhookEvent{{
			Sender:    body.Sender,
			Timestamp: body.Timestamp,
			Message:   body.Message,
			Postback:  body.Postback,
		}}
	}

	var events []models.IncomingEvent
	for _, ev := range raw {
		if ev.Sender == nil || ev.Sender.ID == "" {
			continue
		}
		event := models.IncomingEvent{
			SenderID:  ev.Sender.ID,
			Timestamp: ev.Timestamp,
		}
		switch {
		case ev.Postback != nil:
			event.PostbackPayload = ev.Postback.Payload
			event.PostbackTitle = ev.Postback.Title
			event.ProviderMID = ev.Postback.MID
		case ev.Message != nil:
			event.ProviderMID = ev.Message.MID
			if ev.Message.QuickReply != nil {
				// Quick reply taps carry a payload like postbacks do.
				event.PostbackPayload = ev.Message.QuickReply.Payload
				event.PostbackTitle = ev.Message.Text
			} else {
				event.Text = ev.Message.Text
			}
			if len(ev.Message.Attachments) > 0 {
				event.AttachmentType = ev.Message.Attachments[0].Type
			}
		default:
			continue
		}
		events = append(events, event)
	}
	return events
}
