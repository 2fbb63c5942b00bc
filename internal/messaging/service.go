// Package messaging provides the Messenger delivery abstraction for Zappy.
//
// The Service interface covers every outbound shape the flows use (text,
// buttons, quick replies, carousels, coupons) plus typing indicators and
// profile lookup. The Facebook Graph implementation lives in
// facebook_service.go; TrackedSender pairs sends with persisted messages and
// delivery status updates.
package messaging

import (
	"context"

	"github.com/zappybot/zappy/internal/models"
)

// Service defines a pluggable message delivery abstraction.
type Service interface {
	// SendText sends a plain text message.
	SendText(ctx context.Context, recipient, text string) (models.SendResult, error)

	// SendButtons sends a button template. At most models.MaxButtons buttons
	// are delivered; extras are truncated.
	SendButtons(ctx context.Context, recipient, text string, buttons []models.Button) (models.SendResult, error)

	// SendQuickReplies sends a text message with tappable quick replies,
	// truncated to models.MaxQuickReplies.
	SendQuickReplies(ctx context.Context, recipient, text string, replies []models.QuickReply) (models.SendResult, error)

	// SendCarousel sends a generic template, truncated to
	// models.MaxCarouselItems cards.
	SendCarousel(ctx context.Context, recipient string, items []models.CarouselItem) (models.SendResult, error)

	// SendCoupon sends a coupon template.
	SendCoupon(ctx context.Context, recipient string, coupon models.Coupon) (models.SendResult, error)

	// SendTypingIndicator toggles the typing indicator for a recipient.
	// Failures are advisory; callers ignore the error on the hot path.
	SendTypingIndicator(ctx context.Context, recipient string, on bool) error

	// GetProfile fetches the recipient's public profile fields.
	GetProfile(ctx context.Context, ssid string) (models.User, error)
}
