package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/zappybot/zappy/internal/catalog"
	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/payment"
)

// orderWebviewURL is the full online ordering webview.
const orderWebviewURL = "https://zappy-pizza.example.com/order"

// carouselCutoff decides between a carousel and a numbered list when showing
// matched products.
const carouselCutoff = 6

// maxListedProducts caps the numbered list shown for broad matches.
const maxListedProducts = 10

// orderHandler walks the user from "I want pizza" to a payment link: choose
// the ordering method, match products from free text, upsell drinks and
// desserts, collect the delivery address, and mint the checkout link.
type orderHandler struct {
	deps Deps
}

// NewOrderHandler creates the order flow handler.
func NewOrderHandler(deps Deps) Handler {
	return &orderHandler{deps: deps}
}

func (h *orderHandler) Type() models.FlowType { return models.FlowTypeOrder }

func (h *orderHandler) Handle(ctx context.Context, turn *Turn) error {
	var data orderData
	if err := decodeData(turn.Context.FlowData, &data); err != nil {
		slog.Warn("OrderHandler bad flow data, starting over", "error", err, "threadID", turn.ThreadID)
		data = orderData{}
	}

	switch turn.Context.CurrentStep {
	case models.StepChooseOrderMethod:
		return h.chooseMethod(ctx, turn, &data)
	case models.StepAIOrderStart:
		return h.matchOrder(ctx, turn, &data)
	case models.StepShowProductCarousel, models.StepShowProductList, models.StepProductSelected:
		return h.selectProduct(ctx, turn, &data)
	case models.StepAskDrinks:
		return h.askDrinksChoice(ctx, turn, &data)
	case models.StepShowDrinksCarousel:
		return h.addFromCategory(ctx, turn, &data, "add_drink_", catalog.CategoryDrinks)
	case models.StepAskDesserts:
		return h.askDessertsChoice(ctx, turn, &data)
	case models.StepShowDessertCarousel:
		return h.addFromCategory(ctx, turn, &data, "add_dessert_", catalog.CategoryDesserts)
	case models.StepCollectLocation:
		return h.collectAddress(ctx, turn, &data)
	default:
		return h.intro(ctx, turn)
	}
}

func (h *orderHandler) intro(ctx context.Context, turn *Turn) error {
	lang := turn.Language
	text := pick(lang,
		"Let's get you fed! 🍕 How would you like to order?",
		"Halina't kumain! 🍕 Paano mo gustong mag-order?",
		"Order na tayo! 🍕 Paano mo gusto mag-order?",
	)
	buttons := []models.Button{
		{Title: pick(lang, "💬 Chat to Order", "💬 Order sa Chat", "💬 Chat to Order"), Type: models.ButtonTypePostback, Payload: "choose_ai_order"},
		{Title: pick(lang, "🌐 Order Online", "🌐 Order Online", "🌐 Order Online"), Type: models.ButtonTypeWebURL, URL: orderWebviewURL},
	}
	if err := h.deps.Sender.Buttons(ctx, turn.UserSSID, text, buttons); err != nil {
		return err
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepChooseOrderMethod, nil)
}

func (h *orderHandler) chooseMethod(ctx context.Context, turn *Turn, data *orderData) error {
	if turn.Postback && turn.Input == "choose_ai_order" {
		lang := turn.Language
		text := pick(lang,
			"Great! Tell me what you're craving. For example: \"2 Hawaiian Delight and an iced tea\"",
			"Sige! Sabihin mo kung ano ang gusto mo. Halimbawa: \"2 Hawaiian Delight at isang iced tea\"",
			"Great! Sabihin mo lang kung ano ang craving mo. Example: \"2 Hawaiian Delight and iced tea\"",
		)
		if err := h.deps.Sender.Text(ctx, turn.UserSSID, text); err != nil {
			return err
		}
		return h.deps.States.UpdateStep(turn.ThreadID, models.StepAIOrderStart, nil)
	}
	// Typed text at the method prompt reads as the order itself.
	if !turn.Postback && strings.TrimSpace(turn.Input) != "" {
		return h.matchOrder(ctx, turn, data)
	}
	return h.intro(ctx, turn)
}

func (h *orderHandler) matchOrder(ctx context.Context, turn *Turn, data *orderData) error {
	lang := turn.Language

	h.deps.Sender.Typing(ctx, turn.UserSSID, true)
	matches := h.deps.Matcher.MatchProducts(ctx, turn.Input)
	h.deps.Sender.Typing(ctx, turn.UserSSID, false)

	if len(matches) == 0 {
		text := pick(lang,
			"I couldn't find that on our menu. 🤔 Try something like \"pepperoni pizza\" or \"chicken and mojos\"!",
			"Hindi ko mahanap iyan sa aming menu. 🤔 Subukan mo ang \"pepperoni pizza\" o \"chicken at mojos\"!",
			"Hindi ko mahanap yan sa menu natin. 🤔 Try mo ang \"pepperoni pizza\" or \"chicken and mojos\"!",
		)
		return h.deps.Sender.Text(ctx, turn.UserSSID, text)
	}

	data.Candidates = candidatesFromMatches(matches)

	if len(matches) <= carouselCutoff {
		items := make([]models.CarouselItem, 0, len(matches))
		for i, m := range matches {
			items = append(items, models.CarouselItem{
				Title:    fmt.Sprintf("%s - %s", m.Product.Name, m.Product.Price),
				Subtitle: m.Product.Description,
				ImageURL: m.Product.Image,
				Buttons: []models.Button{
					{Title: pick(lang, "Add to Cart", "Idagdag sa Cart", "Add to Cart"), Type: models.ButtonTypePostback, Payload: fmt.Sprintf("add_product_%d", i)},
				},
			})
		}
		summary := pick(lang, "Here's what I found:", "Narito ang nahanap ko:", "Eto ang nahanap ko:")
		if err := h.deps.Sender.Carousel(ctx, turn.UserSSID, summary, items); err != nil {
			// The numbered list is the fallback when the carousel template
			// does not go through.
			slog.Warn("OrderHandler carousel failed, sending text list", "error", err, "threadID", turn.ThreadID)
			return h.sendProductList(ctx, turn, data, matches)
		}
		encoded, err := encodeData(*data)
		if err != nil {
			return err
		}
		return h.deps.States.UpdateStep(turn.ThreadID, models.StepShowProductCarousel, encoded)
	}

	// Too many matches for a carousel; a numbered list keeps them all visible.
	return h.sendProductList(ctx, turn, data, matches)
}

func (h *orderHandler) sendProductList(ctx context.Context, turn *Turn, data *orderData, matches []catalog.Match) error {
	lang := turn.Language

	listed := matches
	if len(listed) > maxListedProducts {
		listed = listed[:maxListedProducts]
	}
	var b strings.Builder
	b.WriteString(pick(lang,
		"I found a few options. Reply with a number:\n",
		"May ilang pagpipilian ako. Mag-reply ng numero:\n",
		"May ilang options ako. Reply ka lang ng number:\n"))
	for i, m := range listed {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, m.Product.Name, m.Product.Price)
	}
	if err := h.deps.Sender.Text(ctx, turn.UserSSID, b.String()); err != nil {
		return err
	}
	encoded, err := encodeData(*data)
	if err != nil {
		return err
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepShowProductList, encoded)
}

func (h *orderHandler) selectProduct(ctx context.Context, turn *Turn, data *orderData) error {
	lang := turn.Language

	idx := -1
	if strings.HasPrefix(turn.Input, "add_product_") {
		if n, err := strconv.Atoi(strings.TrimPrefix(turn.Input, "add_product_")); err == nil {
			idx = n
		}
	} else if n, err := strconv.Atoi(strings.TrimSpace(turn.Input)); err == nil {
		idx = n - 1
	}

	if idx < 0 || idx >= len(data.Candidates) {
		// Not a selection; treat it as a fresh order message.
		return h.matchOrder(ctx, turn, data)
	}

	c := data.Candidates[idx]
	data.Cart = append(data.Cart, models.CartItem{
		ProductID: c.ProductID,
		Name:      c.Name,
		Price:     c.Price,
		Quantity:  c.Quantity,
		Category:  c.Category,
	})
	data.Candidates = nil

	added := fmt.Sprintf(pick(lang,
		"Added %s x%d to your cart! 🛒",
		"Naidagdag ang %s x%d sa iyong cart! 🛒",
		"Added na ang %s x%d sa cart mo! 🛒",
	), c.Name, c.Quantity)
	if err := h.deps.Sender.Text(ctx, turn.UserSSID, added); err != nil {
		return err
	}

	encoded, err := encodeData(*data)
	if err != nil {
		return err
	}
	if err := h.deps.States.UpdateStep(turn.ThreadID, models.StepProductSelected, encoded); err != nil {
		return err
	}
	return h.askDrinks(ctx, turn)
}

func (h *orderHandler) askDrinks(ctx context.Context, turn *Turn) error {
	lang := turn.Language
	text := pick(lang,
		"Want to add some drinks? 🥤",
		"Gusto mo bang magdagdag ng inumin? 🥤",
		"Gusto mo ba ng drinks? 🥤",
	)
	replies := []models.QuickReply{
		{Title: pick(lang, "🥤 Show Drinks", "🥤 Mga Inumin", "🥤 Show Drinks"), Payload: "show_drinks"},
		{Title: pick(lang, "Skip", "Hindi na", "Skip muna"), Payload: "skip_drinks"},
	}
	if err := h.deps.Sender.QuickReplies(ctx, turn.UserSSID, text, replies); err != nil {
		return err
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepAskDrinks, nil)
}

func (h *orderHandler) askDrinksChoice(ctx context.Context, turn *Turn, data *orderData) error {
	switch turn.Input {
	case "show_drinks":
		return h.showCategoryCarousel(ctx, turn, catalog.CategoryDrinks, "add_drink_", models.StepShowDrinksCarousel)
	case "skip_drinks":
		return h.askDesserts(ctx, turn)
	default:
		return h.askDrinks(ctx, turn)
	}
}

func (h *orderHandler) askDesserts(ctx context.Context, turn *Turn) error {
	lang := turn.Language
	text := pick(lang,
		"How about dessert? 🍰",
		"Gusto mo ba ng panghimagas? 🍰",
		"Dessert naman? 🍰",
	)
	replies := []models.QuickReply{
		{Title: pick(lang, "🍰 Show Desserts", "🍰 Mga Panghimagas", "🍰 Show Desserts"), Payload: "show_desserts"},
		{Title: pick(lang, "✅ Checkout", "✅ Mag-checkout", "✅ Checkout na"), Payload: "proceed_checkout"},
	}
	if err := h.deps.Sender.QuickReplies(ctx, turn.UserSSID, text, replies); err != nil {
		return err
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepAskDesserts, nil)
}

func (h *orderHandler) askDessertsChoice(ctx context.Context, turn *Turn, data *orderData) error {
	switch turn.Input {
	case "show_desserts":
		return h.showCategoryCarousel(ctx, turn, catalog.CategoryDesserts, "add_dessert_", models.StepShowDessertCarousel)
	case "skip_desserts", "proceed_checkout":
		return h.collectLocation(ctx, turn)
	default:
		return h.askDesserts(ctx, turn)
	}
}

func (h *orderHandler) showCategoryCarousel(ctx context.Context, turn *Turn, category, payloadPrefix string, next models.StepType) error {
	lang := turn.Language
	products := catalog.ProductsByCategory(category)

	items := make([]models.CarouselItem, 0, len(products))
	for _, p := range products {
		items = append(items, models.CarouselItem{
			Title:    fmt.Sprintf("%s - %s", p.Name, p.Price),
			Subtitle: p.Description,
			ImageURL: p.Image,
			Buttons: []models.Button{
				{Title: pick(lang, "Add to Cart", "Idagdag sa Cart", "Add to Cart"), Type: models.ButtonTypePostback, Payload: fmt.Sprintf("%s%d", payloadPrefix, p.ID)},
			},
		})
	}
	summary := pick(lang, "Take your pick:", "Pumili ka:", "Pili ka na:")
	if err := h.deps.Sender.Carousel(ctx, turn.UserSSID, summary, items); err != nil {
		return err
	}
	return h.deps.States.UpdateStep(turn.ThreadID, next, nil)
}

func (h *orderHandler) addFromCategory(ctx context.Context, turn *Turn, data *orderData, payloadPrefix, category string) error {
	lang := turn.Language

	if strings.HasPrefix(turn.Input, payloadPrefix) {
		if id, err := strconv.Atoi(strings.TrimPrefix(turn.Input, payloadPrefix)); err == nil {
			if p, ok := catalog.ProductByID(id); ok {
				data.Cart = append(data.Cart, models.CartItem{
					ProductID: strconv.Itoa(p.ID),
					Name:      p.Name,
					Price:     p.Price,
					Quantity:  1,
					Category:  p.Category,
				})
				added := fmt.Sprintf(pick(lang,
					"Added %s to your cart! 🛒",
					"Naidagdag ang %s sa iyong cart! 🛒",
					"Added na ang %s sa cart mo! 🛒",
				), p.Name)
				if err := h.deps.Sender.Text(ctx, turn.UserSSID, added); err != nil {
					return err
				}
				encoded, encErr := encodeData(*data)
				if encErr != nil {
					return encErr
				}
				// Merge the updated cart before moving on.
				if category == catalog.CategoryDrinks {
					if err := h.deps.States.UpdateStep(turn.ThreadID, models.StepShowDrinksCarousel, encoded); err != nil {
						return err
					}
					return h.askDesserts(ctx, turn)
				}
				if err := h.deps.States.UpdateStep(turn.ThreadID, models.StepShowDessertCarousel, encoded); err != nil {
					return err
				}
				return h.collectLocation(ctx, turn)
			}
		}
	}

	// Anything else skips the upsell.
	if category == catalog.CategoryDrinks {
		return h.askDesserts(ctx, turn)
	}
	return h.collectLocation(ctx, turn)
}

func (h *orderHandler) collectLocation(ctx context.Context, turn *Turn) error {
	lang := turn.Language
	text := pick(lang,
		"Almost there! 📍 Where should we deliver? Send me your full address.",
		"Malapit na! 📍 Saan namin ihahatid? Ibigay mo ang buong address mo.",
		"Almost there! 📍 Saan natin ide-deliver? Send mo ang full address mo.",
	)
	if err := h.deps.Sender.Text(ctx, turn.UserSSID, text); err != nil {
		return err
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepCollectLocation, nil)
}

func (h *orderHandler) collectAddress(ctx context.Context, turn *Turn, data *orderData) error {
	lang := turn.Language

	address := strings.TrimSpace(turn.Input)
	if turn.Postback || len(address) < 10 {
		text := pick(lang,
			"I need a complete address to get this delivered. Could you spell it out, street and all?",
			"Kailangan ko ng kumpletong address para maihatid ito. Pakisulat nang buo, kasama ang kalye.",
			"Need ko ng complete address para ma-deliver ito. Paki-spell out, kasama ang street.",
		)
		return h.deps.Sender.Text(ctx, turn.UserSSID, text)
	}

	data.DeliveryAddress = address
	return h.generatePayment(ctx, turn, data)
}

func (h *orderHandler) generatePayment(ctx context.Context, turn *Turn, data *orderData) error {
	lang := turn.Language

	if len(data.Cart) == 0 {
		if err := h.deps.States.EndFlow(turn.ThreadID); err != nil {
			return err
		}
		text := pick(lang,
			"Looks like your cart is empty! Tell me what you'd like and we'll start over.",
			"Mukhang walang laman ang cart mo! Sabihin mo kung ano ang gusto mo at magsisimula tayo ulit.",
			"Mukhang empty ang cart mo! Sabihin mo lang ang gusto mo and start tayo ulit.",
		)
		return h.deps.Sender.Text(ctx, turn.UserSSID, text)
	}

	total, err := payment.CalculateTotal(data.Cart)
	if err != nil {
		return fmt.Errorf("failed to total cart for thread %s: %w", turn.ThreadID, err)
	}
	link, ref, err := h.deps.Payment.GenerateLink(data.Cart, total, data.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("failed to generate payment link: %w", err)
	}
	data.OrderReference = ref

	encoded, err := encodeData(*data)
	if err != nil {
		return err
	}
	if err := h.deps.States.UpdateStep(turn.ThreadID, models.StepGeneratePayment, encoded); err != nil {
		return err
	}

	summary := pick(lang, "Here's your order:\n\n", "Narito ang order mo:\n\n", "Eto ang order mo:\n\n") + payment.FormatCart(data.Cart)
	if err := h.deps.Sender.Text(ctx, turn.UserSSID, summary); err != nil {
		return err
	}

	payText := pick(lang,
		"Tap below to pay and confirm your order. 💳",
		"Pindutin sa ibaba para magbayad at kumpirmahin ang order mo. 💳",
		"Tap below para magbayad and i-confirm ang order mo. 💳",
	)
	buttons := []models.Button{
		{Title: pick(lang, "💳 Pay Now", "💳 Magbayad", "💳 Pay Now"), Type: models.ButtonTypeWebURL, URL: link},
	}
	if err := h.deps.Sender.Buttons(ctx, turn.UserSSID, payText, buttons); err != nil {
		return err
	}

	if h.deps.Notifier != nil {
		if _, err := h.deps.Notifier.PushOrder(ctx, payment.OrderWebhookData{
			Reference: ref,
			ThreadID:  turn.ThreadID,
			UserSSID:  turn.UserSSID,
			Cart:      data.Cart,
			Total:     total,
			Address:   data.DeliveryAddress,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			slog.Warn("OrderHandler order push failed", "error", err, "reference", ref)
		}
	}

	slog.Info("OrderHandler order completed", "reference", ref, "total", total, "items", len(data.Cart))
	return h.deps.States.EndFlow(turn.ThreadID)
}

func candidatesFromMatches(matches []catalog.Match) []candidateItem {
	out := make([]candidateItem, 0, len(matches))
	for _, m := range matches {
		out = append(out, candidateItem{
			ProductID: strconv.Itoa(m.Product.ID),
			Name:      m.Product.Name,
			Price:     m.Product.Price,
			Category:  m.Product.Category,
			Quantity:  normalizeQty(m.Quantity),
		})
	}
	return out
}

func normalizeQty(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}
