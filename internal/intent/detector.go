// Package intent classifies inbound messages into intents and maps intents
// to conversation flows.
//
// Classification is AI-first with a deterministic keyword fallback, so a
// turn always produces an intent even when the model is down.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zappybot/zappy/internal/models"
)

// analyzer is the slice of the GenAI client the detector needs.
type analyzer interface {
	AnalyzeMessage(ctx context.Context, message string, history []models.HistoryTurn) (models.IntentResult, error)
}

// Detector classifies user messages. A nil analyzer skips straight to the
// keyword fallback.
type Detector struct {
	ai analyzer
}

// NewDetector creates a detector. ai may be nil.
func NewDetector(ai analyzer) *Detector {
	return &Detector{ai: ai}
}

// Detect classifies a message, falling back to keywords when the model
// fails or answers garbage. The result always carries a language.
func (d *Detector) Detect(ctx context.Context, message string, history []models.HistoryTurn) models.IntentResult {
	if d.ai != nil {
		result, err := d.ai.AnalyzeMessage(ctx, message, history)
		if err == nil {
			if result.Language == "" {
				result.Language = DetectLanguage(message)
			}
			return result
		}
		slog.Warn("Detector AI classification failed, using keyword fallback", "error", err)
	}
	return DetectFallback(message)
}

// DetectFallback classifies a message with keyword matching alone. Checks
// run in priority order; the first hit wins.
func DetectFallback(message string) models.IntentResult {
	msg := strings.ToLower(strings.TrimSpace(message))
	lang := DetectLanguage(message)

	result := func(i models.Intent, confidence float64) models.IntentResult {
		return models.IntentResult{Intent: i, Confidence: confidence, Language: lang}
	}

	switch {
	case matchesAny(msg, greetingKeywords):
		return result(models.IntentGreeting, 0.95)
	case matchesAny(msg, humanKeywords):
		return result(models.IntentHumanRequest, 1.0)
	case matchesAny(msg, complaintKeywords):
		return result(models.IntentComplaint, 0.9)
	case matchesOrder(msg):
		return result(models.IntentOrderPlacement, 0.85)
	case matchesAny(msg, menuKeywords):
		return result(models.IntentMenuInquiry, 0.85)
	case matchesAny(msg, locationKeywords):
		return result(models.IntentLocationInquiry, 0.85)
	case matchesAny(msg, promoKeywords):
		return result(models.IntentPromoInquiry, 0.85)
	case matchesAny(msg, partyKeywords):
		return result(models.IntentPartyInquiry, 0.85)
	case matchesAny(msg, trackingKeywords):
		return result(models.IntentTrackingInquiry, 0.85)
	case matchesAny(msg, supercardKeywords):
		return result(models.IntentSupercard, 0.85)
	case matchesAny(msg, faqKeywords):
		return result(models.IntentFAQ, 0.75)
	default:
		return result(models.IntentUnknown, 0.5)
	}
}

// IntentToFlow maps an intent to the flow it starts. Greeting and unknown
// start no flow.
func IntentToFlow(i models.Intent) (models.FlowType, bool) {
	switch i {
	case models.IntentFAQ, models.IntentMenuInquiry:
		return models.FlowTypeFAQ, true
	case models.IntentOrderPlacement:
		return models.FlowTypeOrder, true
	case models.IntentLocationInquiry:
		return models.FlowTypeLocation, true
	case models.IntentPromoInquiry:
		return models.FlowTypePromo, true
	case models.IntentPartyInquiry:
		return models.FlowTypeParty, true
	case models.IntentTrackingInquiry:
		return models.FlowTypeTracking, true
	case models.IntentSupercard:
		return models.FlowTypeSupercard, true
	case models.IntentComplaint, models.IntentHumanRequest:
		return models.FlowTypeComplaint, true
	default:
		return "", false
	}
}

func matchesAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// matchesOrder skips "how do I order" style questions so they classify as
// FAQ instead of starting an order.
func matchesOrder(msg string) bool {
	for _, kw := range orderNegativeKeywords {
		if strings.Contains(msg, kw) {
			return false
		}
	}
	return matchesAny(msg, orderKeywords)
}

var greetingKeywords = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"kumusta", "kamusta", "musta",
}

var humanKeywords = []string{
	"live agent", "human", "talk to someone", "speak to agent",
	"representative", "customer service", "tao", "agent",
}

var complaintKeywords = []string{
	"complaint", "complain", "issue", "problem", "wrong order", "late delivery",
	"not delivered", "cold food", "reklamo", "late", "wrong", "missing",
	"refund", "cancel",
}

var orderKeywords = []string{
	"order", "buy", "purchase", "want", "need", "gusto", "kailangan",
	"pabili", "bili", "delivery", "carryout", "pick up", "checkout",
	"cart", "add to cart", "pa-order",
}

var orderNegativeKeywords = []string{"how to order", "paano mag-order"}

var menuKeywords = []string{
	"menu", "pizza", "chicken", "pasta", "drinks", "food",
	"what do you have", "ano meron", "ano ang", "available",
	"price", "presyo", "magkano", "how much",
}

var locationKeywords = []string{
	"location", "branch", "store", "nearest", "near me", "saan", "where",
	"address", "malapit", "deliver", "delivery area", "coverage",
}

var promoKeywords = []string{
	"promo", "promotion", "discount", "sale", "offer", "deal",
	"voucher", "coupon", "off", "50%", "buy one", "bogo",
}

var partyKeywords = []string{
	"party", "group order", "birthday", "celebration", "event", "buffet",
	"package", "pista", "kaarawan", "handaan", "grupo", "party package",
	"plated", "mascot",
}

var trackingKeywords = []string{
	"track", "tracking", "order status", "where is my order", "saan na",
	"nasaan", "order number", "delivery status", "asan na",
}

var supercardKeywords = []string{
	"supercard", "super card", "loyalty", "loyalty card", "rewards",
	"points", "membership", "member", "card",
}

var faqKeywords = []string{
	"how", "what", "when", "why", "paano", "ano", "kailan", "bakit",
	"open", "close", "hours", "contact", "hotline", "payment", "bayad",
}
