package messaging

import (
	"context"
	"testing"

	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/store"
	"github.com/zappybot/zappy/internal/testutil"
)

func TestTrackedSenderRecordsSent(t *testing.T) {
	st := store.NewInMemoryStore()
	mock := testutil.NewMockMessenger()
	sender := NewTrackedSender(mock, st)

	err := sender.Text(context.Background(), "user-1", "welcome!")
	testutil.MustNoError(t, err, "Text send")

	th, _ := st.GetOrCreateThread("user-1")
	msgs, err := st.ListMessages(th.ID)
	testutil.MustNoError(t, err, "ListMessages")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if !m.IsFromBot {
		t.Error("message not marked as bot-authored")
	}
	if m.DeliveryStatus != models.DeliveryStatusSent {
		t.Errorf("delivery status = %q, want sent", m.DeliveryStatus)
	}
	if m.ProviderMessageID == "" {
		t.Error("provider message id not recorded")
	}
}

func TestTrackedSenderRecordsFailure(t *testing.T) {
	st := store.NewInMemoryStore()
	mock := testutil.NewMockMessenger()
	mock.FailAll = true
	sender := NewTrackedSender(mock, st)

	if err := sender.Text(context.Background(), "user-2", "hello"); err == nil {
		t.Fatal("expected send error")
	}

	th, _ := st.GetOrCreateThread("user-2")
	msgs, _ := st.ListMessages(th.ID)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].DeliveryStatus != models.DeliveryStatusFailed {
		t.Errorf("delivery status = %q, want failed", msgs[0].DeliveryStatus)
	}
	if msgs[0].FailureReason == "" {
		t.Error("failure reason not recorded")
	}
}

func TestTrackedSenderRichContentSummaries(t *testing.T) {
	st := store.NewInMemoryStore()
	mock := testutil.NewMockMessenger()
	sender := NewTrackedSender(mock, st)
	ctx := context.Background()

	err := sender.Carousel(ctx, "user-3", "Product carousel", []models.CarouselItem{{Title: "Hawaiian"}, {Title: "Pepperoni"}})
	testutil.MustNoError(t, err, "Carousel send")
	err = sender.Coupon(ctx, "user-3", models.Coupon{Title: "SuperCard Gold", CouponCode: "GOLD999"})
	testutil.MustNoError(t, err, "Coupon send")

	th, _ := st.GetOrCreateThread("user-3")
	msgs, _ := st.ListMessages(th.ID)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].MessageType != models.MessageTypeCarousel {
		t.Errorf("msgs[0] type = %q", msgs[0].MessageType)
	}
	if msgs[1].MessageType != models.MessageTypeCoupon {
		t.Errorf("msgs[1] type = %q", msgs[1].MessageType)
	}
}
