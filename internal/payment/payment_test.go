package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/zappybot/zappy/internal/models"
)

func sampleCart() []models.CartItem {
	return []models.CartItem{
		{ProductID: "1", Name: "Hawaiian Delight Pizza", Price: "₱389", Quantity: 2, Category: "Pizza"},
		{ProductID: "13", Name: "House Blend Iced Tea", Price: "₱69", Quantity: 1, Category: "Drinks"},
	}
}

func TestCalculateTotal(t *testing.T) {
	total, err := CalculateTotal(sampleCart())
	if err != nil {
		t.Fatalf("CalculateTotal failed: %v", err)
	}
	if total != 847 {
		t.Errorf("total = %v, want 847", total)
	}

	zeroQty := []models.CartItem{{Name: "Sundae Cup", Price: "₱89", Quantity: 0}}
	total, err = CalculateTotal(zeroQty)
	if err != nil {
		t.Fatalf("CalculateTotal failed: %v", err)
	}
	if total != 89 {
		t.Errorf("zero quantity should count as 1, total = %v", total)
	}

	if _, err := CalculateTotal([]models.CartItem{{Name: "Mystery", Price: "???", Quantity: 1}}); err == nil {
		t.Error("expected error for unparseable price")
	}
}

func TestFormatCart(t *testing.T) {
	out := FormatCart(sampleCart())
	if !strings.Contains(out, "Hawaiian Delight Pizza x2 - ₱778.00") {
		t.Errorf("missing line total:\n%s", out)
	}
	if !strings.Contains(out, "*Total: ₱847.00*") {
		t.Errorf("missing total:\n%s", out)
	}
	if got := FormatCart(nil); got != "Empty cart" {
		t.Errorf("empty cart = %q", got)
	}
}

func TestGenerateLink(t *testing.T) {
	svc := NewService(WithBaseURL("https://pay.example.com/"))
	link, ref, err := svc.GenerateLink(sampleCart(), 847, "123 Main St, Makati")
	if err != nil {
		t.Fatalf("GenerateLink failed: %v", err)
	}
	if !strings.HasPrefix(ref, "ord_") {
		t.Errorf("reference = %q", ref)
	}
	if !strings.HasPrefix(link, "https://pay.example.com/order?cart=") {
		t.Errorf("link = %q", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link unparseable: %v", err)
	}
	var decoded LinkData
	if err := json.Unmarshal([]byte(u.Query().Get("cart")), &decoded); err != nil {
		t.Fatalf("cart param undecodable: %v", err)
	}
	if decoded.Reference != ref || decoded.Total != 847 || len(decoded.Cart) != 2 {
		t.Errorf("decoded link data = %+v", decoded)
	}
	if decoded.Address != "123 Main St, Makati" {
		t.Errorf("address = %q", decoded.Address)
	}
}

func TestNotifierPushOrder(t *testing.T) {
	var received OrderWebhookData
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("decode push payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	ok, err := n.PushOrder(context.Background(), OrderWebhookData{Reference: "ord_x", ThreadID: "t1", UserSSID: "u1", Total: 847})
	if err != nil || !ok {
		t.Fatalf("PushOrder = %v, %v", ok, err)
	}
	if received.Reference != "ord_x" || received.Total != 847 {
		t.Errorf("received payload = %+v", received)
	}
}

func TestNotifierDisabledWithoutURL(t *testing.T) {
	n := NewNotifier("")
	ok, err := n.PushOrder(context.Background(), OrderWebhookData{Reference: "ord_y"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if ok {
		t.Error("push reported success without a configured URL")
	}
}

func TestNotifierRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	ok, err := n.PushOrder(context.Background(), OrderWebhookData{Reference: "ord_z"})
	if err == nil || ok {
		t.Errorf("PushOrder = %v, %v; want failure", ok, err)
	}
}
