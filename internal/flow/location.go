package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zappybot/zappy/internal/catalog"
	"github.com/zappybot/zappy/internal/models"
)

// Store hotline numbers shown by the location and complaint flows.
const (
	HotlineNumber = "7777-7777"
	HotlineShort  = "#77-777"
)

// locationHandler helps the user find a branch. It offers the branch
// carousel, the hotline, and free-text branch matching by number or name.
type locationHandler struct {
	deps Deps
}

// NewLocationHandler creates the location flow handler.
func NewLocationHandler(deps Deps) Handler {
	return &locationHandler{deps: deps}
}

func (h *locationHandler) Type() models.FlowType { return models.FlowTypeLocation }

func (h *locationHandler) Handle(ctx context.Context, turn *Turn) error {
	switch turn.Context.CurrentStep {
	case models.StepShowLocations:
		return h.handleChoice(ctx, turn)
	case models.StepLocationChosen:
		return h.handleChoice(ctx, turn)
	default:
		return h.intro(ctx, turn)
	}
}

func (h *locationHandler) intro(ctx context.Context, turn *Turn) error {
	lang := turn.Language
	text := pick(lang,
		"I can help you find a Zappy branch! What would you like to do?",
		"Matutulungan kitang hanapin ang pinakamalapit na Zappy branch! Ano ang gusto mong gawin?",
		"I can help you find a Zappy branch! Ano ang gusto mong gawin?",
	)
	replies := []models.QuickReply{
		{Title: pick(lang, "📍 Show Branches", "📍 Mga Branch", "📍 Show Branches"), Payload: "show_locations"},
		{Title: pick(lang, "📞 Call Hotline", "📞 Tawag sa Hotline", "📞 Call Hotline"), Payload: "call_hotline"},
	}
	if err := h.deps.Sender.QuickReplies(ctx, turn.UserSSID, text, replies); err != nil {
		return err
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepShowLocations, nil)
}

func (h *locationHandler) handleChoice(ctx context.Context, turn *Turn) error {
	lang := turn.Language

	switch turn.Input {
	case "show_locations":
		return h.showCarousel(ctx, turn)
	case "call_hotline":
		text := fmt.Sprintf(pick(lang,
			"Call us anytime at %s, or just %s from your mobile. 📞",
			"Tumawag ka anumang oras sa %s, o %s mula sa mobile. 📞",
			"Call us anytime at %s, or %s lang from your mobile. 📞",
		), HotlineNumber, HotlineShort)
		if err := h.deps.Sender.Text(ctx, turn.UserSSID, text); err != nil {
			return err
		}
		return h.deps.States.EndFlow(turn.ThreadID)
	}

	if loc, ok := catalog.LocationByChoice(turn.Input); ok {
		return h.branchDetails(ctx, turn, loc)
	}

	// Unrecognized choice re-shows the branch list.
	return h.showCarousel(ctx, turn)
}

func (h *locationHandler) showCarousel(ctx context.Context, turn *Turn) error {
	lang := turn.Language
	locs := catalog.Locations()

	items := make([]models.CarouselItem, 0, len(locs))
	for _, loc := range locs {
		items = append(items, models.CarouselItem{
			Title:    loc.Name,
			Subtitle: loc.Address,
			ImageURL: loc.Image,
			Buttons: []models.Button{
				{Title: pick(lang, "Get Directions", "Direksyon", "Get Directions"), Type: models.ButtonTypeWebURL, URL: loc.GoogleMapsURL},
				{Title: pick(lang, "Call Branch", "Tawagan", "Call Branch"), Type: models.ButtonTypeWebURL, URL: "tel:" + loc.Phone},
			},
		})
	}

	summary := pick(lang,
		"Here are our branches. Reply with a number or branch name for details!",
		"Narito ang aming mga branch. Mag-reply ng numero o pangalan ng branch para sa detalye!",
		"Here are our branches. Reply ka lang ng number or branch name for details!",
	)
	if err := h.deps.Sender.Carousel(ctx, turn.UserSSID, summary, items); err != nil {
		// Carousel templates can be rejected by the platform; a numbered
		// text list keeps the flow usable.
		slog.Warn("LocationHandler carousel failed, sending text list", "error", err, "threadID", turn.ThreadID)
		var b strings.Builder
		b.WriteString(summary + "\n")
		for i, loc := range locs {
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, loc.Name, loc.Address)
		}
		if err := h.deps.Sender.Text(ctx, turn.UserSSID, b.String()); err != nil {
			return err
		}
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepLocationChosen, nil)
}

func (h *locationHandler) branchDetails(ctx context.Context, turn *Turn, loc catalog.Location) error {
	lang := turn.Language
	text := fmt.Sprintf(pick(lang,
		"📍 %s\n%s\n📞 %s\n\nSee you there!",
		"📍 %s\n%s\n📞 %s\n\nKita tayo doon!",
		"📍 %s\n%s\n📞 %s\n\nSee you there!",
	), loc.Name, loc.Address, loc.Phone)
	buttons := []models.Button{
		{Title: pick(lang, "🗺️ Get Directions", "🗺️ Direksyon", "🗺️ Get Directions"), Type: models.ButtonTypeWebURL, URL: loc.GoogleMapsURL},
	}
	if err := h.deps.Sender.Buttons(ctx, turn.UserSSID, text, buttons); err != nil {
		return err
	}
	return h.deps.States.EndFlow(turn.ThreadID)
}
