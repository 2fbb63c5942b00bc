package flow

import (
	"context"

	"github.com/zappybot/zappy/internal/catalog"
	"github.com/zappybot/zappy/internal/models"
)

// partyInquiryURL is the group order inquiry webview.
const partyInquiryURL = "https://zappy-pizza.example.com/group-order"

// partyHandler pitches the party packages: an intro with a packages button
// and an inquiry webview, then the package carousel with a follow-up.
type partyHandler struct {
	deps Deps
}

// NewPartyHandler creates the party flow handler.
func NewPartyHandler(deps Deps) Handler {
	return &partyHandler{deps: deps}
}

func (h *partyHandler) Type() models.FlowType { return models.FlowTypeParty }

func (h *partyHandler) Handle(ctx context.Context, turn *Turn) error {
	if turn.Context.CurrentStep == models.StepShowPackages {
		return h.showPackages(ctx, turn)
	}
	return h.intro(ctx, turn)
}

func (h *partyHandler) intro(ctx context.Context, turn *Turn) error {
	lang := turn.Language
	text := pick(lang,
		"Planning a party? 🎉 We've got plated packages from ₱220 per head and buffet packages for the whole crew. Want to see them?",
		"May handaan ka ba? 🎉 May plated packages kami mula ₱220 bawat ulo at buffet packages para sa buong grupo. Gusto mong makita?",
		"May party ka ba? 🎉 May plated packages tayo from ₱220 per head and buffet packages para sa buong crew. Gusto mo makita?",
	)
	buttons := []models.Button{
		{Title: pick(lang, "🎂 See Packages", "🎂 Mga Package", "🎂 See Packages"), Type: models.ButtonTypePostback, Payload: "show_party_packages"},
		{Title: pick(lang, "📋 Inquire Online", "📋 Mag-inquire", "📋 Inquire Online"), Type: models.ButtonTypeWebURL, URL: partyInquiryURL},
	}
	if err := h.deps.Sender.Buttons(ctx, turn.UserSSID, text, buttons); err != nil {
		h.deps.States.EndFlow(turn.ThreadID)
		return err
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepShowPackages, nil)
}

func (h *partyHandler) showPackages(ctx context.Context, turn *Turn) error {
	defer h.deps.States.EndFlow(turn.ThreadID)

	lang := turn.Language
	packages := catalog.PartyPackages()

	items := make([]models.CarouselItem, 0, len(packages))
	for _, p := range packages {
		items = append(items, models.CarouselItem{
			Title:    p.Name + " - " + p.Price,
			Subtitle: p.Description,
			ImageURL: p.Image,
			Buttons: []models.Button{
				{Title: pick(lang, "Inquire", "Mag-inquire", "Inquire"), Type: models.ButtonTypeWebURL, URL: partyInquiryURL},
				{Title: pick(lang, "Call Us", "Tawagan Kami", "Call Us"), Type: models.ButtonTypeWebURL, URL: "tel:" + HotlineNumber},
			},
		})
	}

	summary := pick(lang,
		"Our party packages 🎉",
		"Ang aming mga party package 🎉",
		"Party packages natin 🎉",
	)
	if err := h.deps.Sender.Carousel(ctx, turn.UserSSID, summary, items); err != nil {
		return err
	}

	followUp := pick(lang,
		"Plated packages need a minimum of 30 guests; buffets are good for 10-12. Tap Inquire on any card and our events team will take it from there!",
		"Ang plated packages ay para sa hindi bababa sa 30 bisita; ang buffet ay para sa 10-12. Pindutin ang Mag-inquire at aasikasuhin ka ng aming events team!",
		"Plated packages need minimum of 30 guests; buffets are good for 10-12. Tap Inquire on any card and bahala na ang events team natin!",
	)
	return h.deps.Sender.Text(ctx, turn.UserSSID, followUp)
}
