// Package flow implements the per-thread conversation state machines and the
// dispatcher that routes inbound turns to them.
//
// Each flow is a Handler keyed by its FlowType. The Processor owns the
// registry, resolves the thread's context, and hands the turn to the active
// flow; handlers advance steps through the StateManager and reply through
// the tracked sender.
package flow

import (
	"context"

	"github.com/zappybot/zappy/internal/catalog"
	"github.com/zappybot/zappy/internal/messaging"
	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/payment"
	"github.com/zappybot/zappy/internal/store"
)

// Turn bundles everything a handler needs for one inbound turn.
type Turn struct {
	ThreadID string
	UserSSID string
	// Input is the user's text, or the postback payload verbatim for button
	// presses.
	Input    string
	Postback bool
	Context  models.ConversationContext
	Language models.Language
}

// Handler processes turns for one flow type.
type Handler interface {
	// Type identifies the flow this handler owns.
	Type() models.FlowType
	// Handle processes one turn. The turn's context carries the current step;
	// handlers treat an unknown step as the flow's initial step.
	Handle(ctx context.Context, turn *Turn) error
}

// Deps carries the shared collaborators injected into flow handlers.
type Deps struct {
	Store    store.Store
	Sender   *messaging.TrackedSender
	States   *StateManager
	Matcher  *catalog.Matcher
	Payment  *payment.Service
	Notifier *payment.Notifier
}
