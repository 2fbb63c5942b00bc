package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/zappybot/zappy/internal/models"
)

// promoHandler shows the running promos as a coupon sequence. Coupon sends
// that fail are skipped; if every coupon fails, a plain-text rundown goes out
// instead. The flow always ends after one turn.
type promoHandler struct {
	deps Deps

	// couponGap spaces the coupon cards so clients render them in order.
	couponGap time.Duration
}

// NewPromoHandler creates the promo flow handler.
func NewPromoHandler(deps Deps) Handler {
	return &promoHandler{deps: deps, couponGap: 500 * time.Millisecond}
}

func (h *promoHandler) Type() models.FlowType { return models.FlowTypePromo }

// activeCoupons are the current promotions, newest first.
func activeCoupons(lang models.Language) []models.Coupon {
	return []models.Coupon{
		{
			Title:      "Family Meal Deals",
			CouponCode: "FAMILY25",
			Subtitle: pick(lang,
				"Bundles from ₱1,149 to ₱2,699 for the whole barkada",
				"Mga bundle mula ₱1,149 hanggang ₱2,699 para sa buong pamilya",
				"Bundles from ₱1,149 to ₱2,699 para sa buong barkada"),
			ImageURL:    "https://images.unsplash.com/photo-1513104890138-7c749659a591?w=800",
			PreMessage:  pick(lang, "Here's what's hot right now! 🔥", "Narito ang mga sikat ngayon! 🔥", "Eto ang mga hot deals ngayon! 🔥"),
			ButtonTitle: pick(lang, "Claim Deal", "Kunin ang Deal", "Claim Deal"),
			URL:         "https://zappy-pizza.example.com/promos/family-meal-deals",
		},
		{
			Title:      "Pizza 'N' Mojos Bundle",
			CouponCode: "PIZZAMOJOS",
			Subtitle: pick(lang,
				"Large pizza + basket of Mojos at a bundle price",
				"Large pizza + basket ng Mojos sa bundle na presyo",
				"Large pizza + basket of Mojos sa bundle price"),
			ImageURL:    "https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=800",
			ButtonTitle: pick(lang, "Claim Deal", "Kunin ang Deal", "Claim Deal"),
			URL:         "https://zappy-pizza.example.com/promos/pizza-n-mojos",
		},
		{
			Title:      "SuperCard Exclusive Deals",
			CouponCode: "SUPERDEAL",
			Subtitle: pick(lang,
				"Extra savings all year for SuperCard holders",
				"Dagdag na tipid buong taon para sa mga may SuperCard",
				"Extra savings all year para sa SuperCard holders"),
			ImageURL:    "https://images.unsplash.com/photo-1594007654729-407eedc4be65?w=800",
			ButtonTitle: pick(lang, "Claim Deal", "Kunin ang Deal", "Claim Deal"),
			URL:         "https://zappy-pizza.example.com/promos/supercard-exclusives",
		},
	}
}

func (h *promoHandler) Handle(ctx context.Context, turn *Turn) error {
	defer h.deps.States.EndFlow(turn.ThreadID)

	coupons := activeCoupons(turn.Language)
	sent := 0
	for i, c := range coupons {
		if i > 0 && h.couponGap > 0 {
			time.Sleep(h.couponGap)
		}
		if err := h.deps.Sender.Coupon(ctx, turn.UserSSID, c); err != nil {
			slog.Warn("PromoHandler coupon send failed", "error", err, "coupon", c.CouponCode)
			continue
		}
		sent++
	}
	if sent > 0 {
		return nil
	}

	// Every coupon template failed; a plain-text rundown still gets the
	// promos across.
	var b strings.Builder
	b.WriteString(pick(turn.Language,
		"Here are our current promos:\n",
		"Narito ang aming mga promo ngayon:\n",
		"Eto ang mga current promos natin:\n"))
	for _, c := range coupons {
		b.WriteString("🎉 " + c.Title + " - " + c.Subtitle + " (code: " + c.CouponCode + ")\n")
	}
	return h.deps.Sender.Text(ctx, turn.UserSSID, b.String())
}
