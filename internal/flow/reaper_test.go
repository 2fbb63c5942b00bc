package flow

import (
	"testing"
	"time"

	"github.com/zappybot/zappy/internal/messaging"
	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/store"
	"github.com/zappybot/zappy/internal/testutil"
)

func newTestReaper(t *testing.T, delay time.Duration) (*Reaper, *testutil.MockMessenger) {
	t.Helper()
	st := store.NewInMemoryStore()
	mock := testutil.NewMockMessenger()
	r := NewReaper(messaging.NewTrackedSender(mock, st), delay)
	t.Cleanup(r.Stop)
	return r, mock
}

func waitForSends(t *testing.T, mock *testutil.MockMessenger, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(mock.Messages()) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d sends, have %d", want, len(mock.Messages()))
}

func TestReaperFiresOnce(t *testing.T) {
	r, mock := newTestReaper(t, 10*time.Millisecond)

	r.Arm("thread-1", "user-1", models.LanguageEnglish)
	waitForSends(t, mock, 1)

	last := mock.LastMessage(t)
	testutil.AssertEqual(t, last.Kind, "quick_replies", "check-in kind")
	testutil.AssertEqual(t, last.QuickReplies[0].Payload, "start_order", "check-in quick reply")

	time.Sleep(50 * time.Millisecond)
	testutil.AssertEqual(t, len(mock.Messages()), 1, "check-in must fire once")
}

func TestReaperCancel(t *testing.T) {
	r, mock := newTestReaper(t, 20*time.Millisecond)

	r.Arm("thread-1", "user-1", models.LanguageEnglish)
	r.Cancel("thread-1")

	time.Sleep(60 * time.Millisecond)
	testutil.AssertEqual(t, len(mock.Messages()), 0, "cancelled nudge must not send")
}

func TestReaperRearmResetsClock(t *testing.T) {
	r, mock := newTestReaper(t, 40*time.Millisecond)

	r.Arm("thread-1", "user-1", models.LanguageEnglish)
	time.Sleep(25 * time.Millisecond)
	r.Arm("thread-1", "user-1", models.LanguageEnglish)
	time.Sleep(25 * time.Millisecond)
	testutil.AssertEqual(t, len(mock.Messages()), 0, "re-armed timer must not have fired yet")

	waitForSends(t, mock, 1)
}

func TestReaperSwallowsSendFailure(t *testing.T) {
	r, mock := newTestReaper(t, 10*time.Millisecond)
	mock.FailAll = true

	r.Arm("thread-1", "user-1", models.LanguageTagalog)
	time.Sleep(50 * time.Millisecond)
	// No panic and nothing recorded is the whole contract here.
	testutil.AssertEqual(t, len(mock.Messages()), 0, "failed nudge records nothing")
}
