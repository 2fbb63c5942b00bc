package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/store"
)

// TrackedSender pairs every outbound send with a persisted message row.
// The row is written first with pending status, then updated to sent or
// failed once the Send API answers, so the chat history always reflects
// what the bot attempted.
type TrackedSender struct {
	svc Service
	st  store.Store
}

// NewTrackedSender creates a sender that records deliveries in the store.
func NewTrackedSender(svc Service, st store.Store) *TrackedSender {
	return &TrackedSender{svc: svc, st: st}
}

// Text sends a plain text message and records it.
func (t *TrackedSender) Text(ctx context.Context, recipient, text string) error {
	return t.track(ctx, recipient, text, models.MessageTypeText, func() (models.SendResult, error) {
		return t.svc.SendText(ctx, recipient, text)
	})
}

// Buttons sends a button template and records it.
func (t *TrackedSender) Buttons(ctx context.Context, recipient, text string, buttons []models.Button) error {
	content := fmt.Sprintf("%s [%d buttons]", text, len(buttons))
	return t.track(ctx, recipient, content, models.MessageTypeButton, func() (models.SendResult, error) {
		return t.svc.SendButtons(ctx, recipient, text, buttons)
	})
}

// QuickReplies sends a text message with quick replies and records it.
func (t *TrackedSender) QuickReplies(ctx context.Context, recipient, text string, replies []models.QuickReply) error {
	content := fmt.Sprintf("%s [%d quick replies]", text, len(replies))
	return t.track(ctx, recipient, content, models.MessageTypeQuickReply, func() (models.SendResult, error) {
		return t.svc.SendQuickReplies(ctx, recipient, text, replies)
	})
}

// Carousel sends a generic template and records it with a short summary.
func (t *TrackedSender) Carousel(ctx context.Context, recipient, summary string, items []models.CarouselItem) error {
	content := fmt.Sprintf("%s [%d cards]", summary, len(items))
	return t.track(ctx, recipient, content, models.MessageTypeCarousel, func() (models.SendResult, error) {
		return t.svc.SendCarousel(ctx, recipient, items)
	})
}

// Coupon sends a coupon template and records it.
func (t *TrackedSender) Coupon(ctx context.Context, recipient string, coupon models.Coupon) error {
	content := fmt.Sprintf("Coupon sent: %s (%s)", coupon.Title, coupon.CouponCode)
	return t.track(ctx, recipient, content, models.MessageTypeCoupon, func() (models.SendResult, error) {
		return t.svc.SendCoupon(ctx, recipient, coupon)
	})
}

// Typing toggles the typing indicator. Not persisted; failures are logged
// and swallowed.
func (t *TrackedSender) Typing(ctx context.Context, recipient string, on bool) {
	if err := t.svc.SendTypingIndicator(ctx, recipient, on); err != nil {
		slog.Debug("TrackedSender typing indicator failed", "error", err, "recipient", recipient)
	}
}

func (t *TrackedSender) track(ctx context.Context, recipient, content string, msgType models.MessageType, send func() (models.SendResult, error)) error {
	msg, err := t.st.CreateMessage(models.CreateMessageInput{
		SenderSSID:  recipient,
		Content:     content,
		MessageType: msgType,
		IsFromBot:   true,
	})
	if err != nil {
		slog.Error("TrackedSender persist failed", "error", err, "recipient", recipient)
		return fmt.Errorf("failed to persist outbound message: %w", err)
	}

	result, sendErr := send()
	if sendErr != nil {
		reason := sendErr.Error()
		if result.Error != "" {
			reason = result.Error
		}
		if err := t.st.UpdateMessageDelivery(msg.ID, models.DeliveryStatusFailed, "", reason); err != nil {
			slog.Error("TrackedSender delivery update failed", "error", err, "messageID", msg.ID)
		}
		return fmt.Errorf("send to %s failed: %w", recipient, sendErr)
	}

	if err := t.st.UpdateMessageDelivery(msg.ID, models.DeliveryStatusSent, result.ProviderMessageID, ""); err != nil {
		slog.Error("TrackedSender delivery update failed", "error", err, "messageID", msg.ID)
	}
	return nil
}
