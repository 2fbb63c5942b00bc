package flow

import (
	"fmt"

	"github.com/zappybot/zappy/internal/models"
)

// pick selects the reply text for a language, falling back to English.
func pick(lang models.Language, en, tl, tag string) string {
	switch lang {
	case models.LanguageTagalog:
		if tl != "" {
			return tl
		}
	case models.LanguageTaglish:
		if tag != "" {
			return tag
		}
	}
	return en
}

// greetingText is the reply to a plain hello. firstName may be empty.
func greetingText(lang models.Language, firstName string) string {
	name := ""
	if firstName != "" {
		name = " " + firstName
	}
	return pick(lang,
		fmt.Sprintf("Hey%s! I'm Zappy, your pizza buddy. What can I get started for you?", name),
		fmt.Sprintf("Kumusta%s! Ako si Zappy, ang pizza buddy mo. Ano ang maitutulong ko?", name),
		fmt.Sprintf("Hey%s! Si Zappy ito, ang pizza buddy mo. Ano po ang gusto mong i-order today?", name),
	)
}

// unknownText is the reply when no intent maps to a flow.
func unknownText(lang models.Language) string {
	return pick(lang,
		"Hmm, I didn't quite catch that. Here are a few things I can help with:",
		"Pasensya na, hindi ko naintindihan. Narito ang mga maitutulong ko:",
		"Oops, hindi ko na-gets yun. Here's what I can help with:",
	)
}

// clearedText confirms a conversation reset.
func clearedText(lang models.Language) string {
	return pick(lang,
		"All cleared! We're starting fresh. What can I help you with?",
		"Ayos, na-clear na natin ang usapan. Ano ang maitutulong ko?",
		"All cleared na! Fresh start tayo. Ano ang maitutulong ko?",
	)
}

// checkInText is the idle nudge sent after a quiet spell.
func checkInText(lang models.Language) string {
	return pick(lang,
		"Still there? I'm here whenever you're ready. 🍕",
		"Nandito pa rin ako kung kailangan mo ng tulong. 🍕",
		"Still there? Nandito lang ako pag ready ka na. 🍕",
	)
}

// mainMenuQuickReplies are the standard entry points offered with greetings,
// unknown replies, and idle check-ins.
func mainMenuQuickReplies(lang models.Language) []models.QuickReply {
	return []models.QuickReply{
		{Title: pick(lang, "🍕 Order Now", "🍕 Mag-order", "🍕 Order Na"), Payload: "start_order"},
		{Title: pick(lang, "🎉 View Offers", "🎉 Mga Promo", "🎉 View Promos"), Payload: "view_offers"},
		{Title: pick(lang, "📍 Find a Store", "📍 Hanapin ang Branch", "📍 Find a Branch"), Payload: "find_location"},
	}
}
