package flow

import (
	"context"
	"fmt"

	"github.com/zappybot/zappy/internal/models"
)

// complaintHandler apologizes, tells the user a human is on the way, and
// latches the thread for human takeover. Once latched, the dispatcher stays
// silent on this thread until an operator clears it.
type complaintHandler struct {
	deps Deps
}

// NewComplaintHandler creates the complaint flow handler.
func NewComplaintHandler(deps Deps) Handler {
	return &complaintHandler{deps: deps}
}

func (h *complaintHandler) Type() models.FlowType { return models.FlowTypeComplaint }

func (h *complaintHandler) Handle(ctx context.Context, turn *Turn) error {
	lang := turn.Language

	apology := pick(lang,
		"I'm really sorry to hear that. 😔 That's not the experience we want you to have.",
		"Humihingi ako ng paumanhin. 😔 Hindi iyan ang karanasang nais naming ibigay sa iyo.",
		"Sorry talaga to hear that. 😔 Hindi yan ang experience na gusto naming maibigay sa'yo.",
	)
	if err := h.deps.Sender.Text(ctx, turn.UserSSID, apology); err != nil {
		return err
	}

	handoff := fmt.Sprintf(pick(lang,
		"I'm connecting you to one of our team members who can sort this out. They'll reply here shortly. If it's urgent, you can also call %s.",
		"Ikokonekta kita sa isa sa aming team na makakaayos nito. Magre-reply sila dito sa lalong madaling panahon. Kung urgent, maaari ka ring tumawag sa %s.",
		"Kinokonekta na kita sa team namin para maayos ito. Magre-reply sila dito shortly. If urgent, pwede ka ring tumawag sa %s.",
	), HotlineNumber)
	if err := h.deps.Sender.Text(ctx, turn.UserSSID, handoff); err != nil {
		return err
	}

	return h.deps.States.EscalateToHuman(turn.ThreadID, turn.Input)
}
