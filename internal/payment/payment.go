// Package payment handles cart math, payment link minting, and pushing
// completed orders to an external fulfillment webhook.
package payment

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/zappybot/zappy/internal/catalog"
	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/util"
)

// DefaultBaseURL hosts the checkout webview unless overridden.
const DefaultBaseURL = "https://zappy-pizza.example.com"

// Opts holds configuration for the payment service.
type Opts struct {
	BaseURL string
}

// Option configures the payment service.
type Option func(*Opts)

// WithBaseURL sets the checkout base URL.
func WithBaseURL(base string) Option {
	return func(o *Opts) { o.BaseURL = base }
}

// Service mints payment links for completed carts.
type Service struct {
	baseURL string
}

// NewService creates a payment service.
func NewService(opts ...Option) *Service {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Service{baseURL: strings.TrimSuffix(cfg.BaseURL, "/")}
}

// LinkData is the order payload encoded into a payment link.
type LinkData struct {
	Reference string            `json:"reference"`
	Cart      []models.CartItem `json:"cart"`
	Total     float64           `json:"total"`
	Address   string            `json:"address,omitempty"`
	Phone     string            `json:"phone,omitempty"`
}

// GenerateLink mints the checkout URL for an order, with a fresh order
// reference encoded alongside the cart.
func (s *Service) GenerateLink(cart []models.CartItem, total float64, address string) (string, string, error) {
	ref := util.GenerateOrderReference()
	data := LinkData{Reference: ref, Cart: cart, Total: total, Address: address}
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode link data: %w", err)
	}
	link := fmt.Sprintf("%s/order?cart=%s", s.baseURL, url.QueryEscape(string(encoded)))
	return link, ref, nil
}

// CalculateTotal sums a cart using the display prices.
func CalculateTotal(cart []models.CartItem) (float64, error) {
	var total float64
	for _, item := range cart {
		price, err := catalog.ParsePrice(item.Price)
		if err != nil {
			return 0, fmt.Errorf("cart item %q: %w", item.Name, err)
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += price * float64(qty)
	}
	return total, nil
}

// FormatCart renders a cart as a chat-friendly summary with line totals.
func FormatCart(cart []models.CartItem) string {
	if len(cart) == 0 {
		return "Empty cart"
	}
	var b strings.Builder
	for _, item := range cart {
		price, err := catalog.ParsePrice(item.Price)
		if err != nil {
			price = 0
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		fmt.Fprintf(&b, "• %s x%d - ₱%.2f\n", item.Name, qty, price*float64(qty))
	}
	total, err := CalculateTotal(cart)
	if err != nil {
		total = 0
	}
	fmt.Fprintf(&b, "\n*Total: ₱%.2f*", total)
	return b.String()
}
