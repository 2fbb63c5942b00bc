package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zappybot/zappy/internal/messaging"
	"github.com/zappybot/zappy/internal/models"
)

// DefaultIdleDelay is how long a thread sits quiet before the check-in nudge.
const DefaultIdleDelay = 5 * time.Minute

// Reaper nudges idle threads. Each inbound turn re-arms the thread's timer;
// if it fires, the user gets one check-in with the main menu quick replies.
// Send failures are logged and swallowed.
type Reaper struct {
	sender *messaging.TrackedSender
	delay  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewReaper creates a reaper. A non-positive delay falls back to the default.
func NewReaper(sender *messaging.TrackedSender, delay time.Duration) *Reaper {
	if delay <= 0 {
		delay = DefaultIdleDelay
	}
	return &Reaper{
		sender: sender,
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// Arm schedules (or reschedules) the idle nudge for a thread.
func (r *Reaper) Arm(threadID, userSSID string, lang models.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[threadID]; ok {
		t.Stop()
	}
	r.timers[threadID] = time.AfterFunc(r.delay, func() {
		r.fire(threadID, userSSID, lang)
	})
}

// Cancel drops the pending nudge for a thread, if any.
func (r *Reaper) Cancel(threadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[threadID]; ok {
		t.Stop()
		delete(r.timers, threadID)
	}
}

// Stop cancels all pending nudges.
func (r *Reaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}

func (r *Reaper) fire(threadID, userSSID string, lang models.Language) {
	r.mu.Lock()
	delete(r.timers, threadID)
	r.mu.Unlock()

	slog.Debug("Reaper fire", "threadID", threadID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := r.sender.QuickReplies(ctx, userSSID, checkInText(lang), mainMenuQuickReplies(lang))
	if err != nil {
		slog.Warn("Reaper check-in send failed", "error", err, "threadID", threadID)
	}
}
