package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/zappybot/zappy/internal/models"
)

// supercardHandler answers loyalty card questions from the FAQ table, then
// pitches the Gold and Classic cards as coupons. If both coupon sends fail,
// a webview button goes out instead. One turn, then the flow ends.
type supercardHandler struct {
	deps Deps

	// couponGap spaces the two card pitches apart. Tests shrink it.
	couponGap time.Duration
}

// NewSupercardHandler creates the supercard flow handler.
func NewSupercardHandler(deps Deps) Handler {
	return &supercardHandler{deps: deps, couponGap: 500 * time.Millisecond}
}

func (h *supercardHandler) Type() models.FlowType { return models.FlowTypeSupercard }

func (h *supercardHandler) Handle(ctx context.Context, turn *Turn) error {
	defer h.deps.States.EndFlow(turn.ThreadID)

	lang := turn.Language

	answer := ""
	faqs, err := h.deps.Store.SearchFAQs(turn.Input, lang)
	if err != nil {
		slog.Warn("SupercardHandler FAQ search failed", "error", err)
	} else if len(faqs) > 0 {
		answer = faqs[0].Answer
	}
	if answer == "" {
		answer = pick(lang,
			"The SuperCard is our loyalty card: exclusive deals, free pizza on sign-up, and discounts all year long!",
			"Ang SuperCard ang aming loyalty card: mga eksklusibong deal, libreng pizza sa pag-sign up, at diskwento buong taon!",
			"Ang SuperCard ang loyalty card natin: exclusive deals, free pizza on sign-up, at discounts buong taon!",
		)
	}
	if err := h.deps.Sender.Text(ctx, turn.UserSSID, answer); err != nil {
		return err
	}

	if err := h.deps.States.UpdateStep(turn.ThreadID, models.StepOfferCard, nil); err != nil {
		slog.Warn("SupercardHandler step update failed", "error", err)
	}
	return h.offerCards(ctx, turn)
}

func (h *supercardHandler) offerCards(ctx context.Context, turn *Turn) error {
	lang := turn.Language
	cards := []models.Coupon{
		{
			Title:      "SuperCard Gold - ₱999",
			CouponCode: "SCGOLD",
			Subtitle: pick(lang,
				"Free large pizza on sign-up plus the biggest year-round discounts",
				"Libreng large pizza sa pag-sign up at pinakamalaking diskwento buong taon",
				"Free large pizza on sign-up plus pinakamalaking discounts all year"),
			ImageURL:    "https://images.unsplash.com/photo-1556742049-0cfed4f6a45d?w=800",
			PreMessage:  pick(lang, "Want in? Here are the cards: 👇", "Gusto mo? Narito ang mga card: 👇", "Gusto mo? Eto ang mga cards: 👇"),
			ButtonTitle: pick(lang, "Get Gold", "Kunin ang Gold", "Get Gold"),
			URL:         "https://zappy-pizza.example.com/supercard/gold",
		},
		{
			Title:      "SuperCard Classic - ₱699",
			CouponCode: "SCCLASSIC",
			Subtitle: pick(lang,
				"Everyday deals and a free regular pizza on sign-up",
				"Pang-araw-araw na deal at libreng regular pizza sa pag-sign up",
				"Everyday deals at free regular pizza on sign-up"),
			ImageURL:    "https://images.unsplash.com/photo-1556742111-a301076d9d18?w=800",
			ButtonTitle: pick(lang, "Get Classic", "Kunin ang Classic", "Get Classic"),
			URL:         "https://zappy-pizza.example.com/supercard/classic",
		},
	}

	sent := 0
	for i, c := range cards {
		if i > 0 && h.couponGap > 0 {
			time.Sleep(h.couponGap)
		}
		if err := h.deps.Sender.Coupon(ctx, turn.UserSSID, c); err != nil {
			slog.Warn("SupercardHandler coupon send failed", "error", err, "coupon", c.CouponCode)
			continue
		}
		sent++
	}
	if sent > 0 {
		return nil
	}

	text := pick(lang,
		"Grab your SuperCard online: Gold at ₱999 or Classic at ₱699.",
		"Kunin ang iyong SuperCard online: Gold sa ₱999 o Classic sa ₱699.",
		"Kunin mo na ang SuperCard mo online: Gold at ₱999 or Classic at ₱699.",
	)
	buttons := []models.Button{
		{Title: pick(lang, "Get a SuperCard", "Kumuha ng SuperCard", "Get a SuperCard"), Type: models.ButtonTypeWebURL, URL: "https://zappy-pizza.example.com/supercard"},
	}
	return h.deps.Sender.Buttons(ctx, turn.UserSSID, text, buttons)
}
