package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/zappybot/zappy/internal/genai"
)

func TestEmbeddedDataLoads(t *testing.T) {
	if len(Products()) == 0 {
		t.Fatal("no products loaded")
	}
	if len(Locations()) == 0 {
		t.Fatal("no locations loaded")
	}
	for _, p := range Products() {
		if _, err := ParsePrice(p.Price); err != nil {
			t.Errorf("product %q has unparseable price %q: %v", p.Name, p.Price, err)
		}
	}
	if len(ProductsByCategory(CategoryDrinks)) == 0 {
		t.Error("no drinks in catalog")
	}
	if len(ProductsByCategory(CategoryDesserts)) == 0 {
		t.Error("no desserts in catalog")
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"₱389", 389, false},
		{"₱1,149", 1149, false},
		{"₱4,099", 4099, false},
		{"250", 250, false},
		{" ₱99 ", 99, false},
		{"", 0, true},
		{"free", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePrice(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLocationByChoice(t *testing.T) {
	if loc, ok := LocationByChoice("1"); !ok || loc.ID != 1 {
		t.Errorf("LocationByChoice(1) = %+v, %v", loc, ok)
	}
	if loc, ok := LocationByChoice("bgc"); !ok || loc.Name != "BGC High Street" {
		t.Errorf("LocationByChoice(bgc) = %+v, %v", loc, ok)
	}
	if _, ok := LocationByChoice("99"); ok {
		t.Error("out of range index matched")
	}
	if _, ok := LocationByChoice("narnia"); ok {
		t.Error("unknown name matched")
	}
	if _, ok := LocationByChoice(""); ok {
		t.Error("empty choice matched")
	}
}

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"4x hawaiian", 4},
		{"hawaiian x2", 2},
		{"3 pcs chicken", 3},
		{"2 of those", 2},
		{"dalawang hawaiian please", 2},
		{"tatlong mojos", 3},
		{"isang pizza", 1},
		{"just a pizza", 1},
		{"500 pcs", 1},
	}
	for _, tt := range tests {
		if got := ExtractQuantity(tt.in); got != tt.want {
			t.Errorf("ExtractQuantity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFallbackMatch(t *testing.T) {
	matches := FallbackMatch("I want a hawaiian delight please")
	if len(matches) == 0 {
		t.Fatal("no matches for hawaiian delight")
	}
	if matches[0].Product.Name != "Hawaiian Delight Pizza" {
		t.Errorf("top match = %q", matches[0].Product.Name)
	}

	if got := FallbackMatch("xyzzy nothing here"); len(got) != 0 {
		t.Errorf("unexpected matches: %d", len(got))
	}

	matches = FallbackMatch("dalawang skilletti")
	if len(matches) == 0 || matches[0].Quantity != 2 {
		t.Errorf("quantity not extracted: %+v", matches)
	}
}

// mockExtractor scripts AI extraction results.
type mockExtractor struct {
	items []genai.ExtractedItem
	err   error
}

func (m *mockExtractor) ExtractOrderItems(_ context.Context, _ string, _ []string) ([]genai.ExtractedItem, error) {
	return m.items, m.err
}

func TestMatcherPrefersAI(t *testing.T) {
	m := NewMatcher(&mockExtractor{items: []genai.ExtractedItem{{Name: "Skilletti", Quantity: 3}}})
	matches := m.MatchProducts(context.Background(), "three of the spaghetti thing")
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Product.Name != "Skilletti" || matches[0].Quantity != 3 {
		t.Errorf("match = %+v", matches[0])
	}
}

func TestMatcherFallsBackOnAIError(t *testing.T) {
	m := NewMatcher(&mockExtractor{err: errors.New("quota exceeded")})
	matches := m.MatchProducts(context.Background(), "pepperoni please")
	if len(matches) == 0 {
		t.Fatal("fallback produced no matches")
	}
	if matches[0].Product.Name != "Pepperoni Crrrunch Pizza" {
		t.Errorf("top match = %q", matches[0].Product.Name)
	}
}

func TestMatcherNilExtractor(t *testing.T) {
	m := NewMatcher(nil)
	if matches := m.MatchProducts(context.Background(), "skilletti please"); len(matches) == 0 {
		t.Error("nil extractor should still keyword match")
	}
}
