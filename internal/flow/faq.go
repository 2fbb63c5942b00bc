package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/zappybot/zappy/internal/catalog"
	"github.com/zappybot/zappy/internal/models"
)

// faqHandler answers one-shot questions about the menu, prices, hours, and
// contact details. It never holds a multi-turn state: every turn answers and
// ends the flow.
type faqHandler struct {
	deps Deps
}

// NewFAQHandler creates the FAQ flow handler.
func NewFAQHandler(deps Deps) Handler {
	return &faqHandler{deps: deps}
}

func (h *faqHandler) Type() models.FlowType { return models.FlowTypeFAQ }

func (h *faqHandler) Handle(ctx context.Context, turn *Turn) error {
	defer h.deps.States.EndFlow(turn.ThreadID)

	lang := turn.Language
	msg := strings.ToLower(turn.Input)

	if answer := h.answerFor(msg, lang); answer != "" {
		return h.deps.Sender.QuickReplies(ctx, turn.UserSSID, answer, mainMenuQuickReplies(lang))
	}

	faqs, err := h.deps.Store.SearchFAQs(turn.Input, lang)
	if err == nil && len(faqs) > 0 {
		return h.deps.Sender.QuickReplies(ctx, turn.UserSSID, faqs[0].Answer, mainMenuQuickReplies(lang))
	}

	generic := pick(lang,
		"Good question! You can browse the full menu, check our promos, or find the nearest branch below. For anything else, our hotline is 7777-7777.",
		"Magandang tanong! Maaari mong tingnan ang buong menu, mga promo, o ang pinakamalapit na branch sa ibaba. Para sa iba pa, tumawag sa 7777-7777.",
		"Good question! Pwede mong i-browse ang full menu, promos, o ang nearest branch below. For anything else, tawag lang sa 7777-7777.",
	)
	return h.deps.Sender.QuickReplies(ctx, turn.UserSSID, generic, mainMenuQuickReplies(lang))
}

// answerFor handles the question buckets that have canned answers. Returns
// empty when no bucket matches.
func (h *faqHandler) answerFor(msg string, lang models.Language) string {
	switch {
	case containsAny(msg, "menu", "what do you have", "ano meron", "anong meron", "food"):
		return h.menuSummary(lang)
	case containsAny(msg, "price", "magkano", "presyo", "how much"):
		return pick(lang,
			"Pizzas start at ₱389, Chicken 'N' Mojos at ₱279, and pastas at ₱229. Want me to show you the menu?",
			"Nagsisimula ang pizza sa ₱389, Chicken 'N' Mojos sa ₱279, at pasta sa ₱229. Gusto mong ipakita ko ang menu?",
			"Pizzas start at ₱389, Chicken 'N' Mojos at ₱279, tapos pastas at ₱229. Gusto mo makita ang menu?",
		)
	case containsAny(msg, "open", "close", "hours", "kailan", "anong oras"):
		return pick(lang,
			"We're open daily from 10 AM to 10 PM, and delivery runs until 9:30 PM.",
			"Bukas kami araw-araw mula 10 AM hanggang 10 PM, at ang delivery ay hanggang 9:30 PM.",
			"Open kami daily from 10 AM to 10 PM, and delivery runs hanggang 9:30 PM.",
		)
	case containsAny(msg, "contact", "hotline", "phone", "number", "tawag"):
		return pick(lang,
			"You can reach us at 7777-7777, or just #77-777 from your mobile.",
			"Matatawagan mo kami sa 7777-7777, o #77-777 mula sa mobile.",
			"Pwede mo kaming tawagan sa 7777-7777, or #77-777 from your mobile.",
		)
	}
	return ""
}

func (h *faqHandler) menuSummary(lang models.Language) string {
	counts := map[string]int{}
	for _, p := range catalog.Products() {
		counts[p.Category]++
	}
	lines := fmt.Sprintf("🍕 %d pizzas • 🍗 %d chicken meals • 🍝 %d pastas • 🥤 %d drinks • 🍰 %d desserts",
		counts[catalog.CategoryPizza], counts[catalog.CategoryChicken], counts[catalog.CategoryPasta],
		counts[catalog.CategoryDrinks], counts[catalog.CategoryDesserts])
	return pick(lang,
		"Here's what's cooking:\n"+lines+"\nTap Order Now and I'll walk you through it!",
		"Narito ang aming handog:\n"+lines+"\nPindutin ang Mag-order at sasamahan kita!",
		"Here's what's cooking:\n"+lines+"\nTap mo lang ang Order Na and I'll walk you through it!",
	)
}

func containsAny(msg string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
