package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/zappybot/zappy/internal/models"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		message string
		want    models.Language
	}{
		{"hi there", models.LanguageEnglish},
		{"kumusta po kayo", models.LanguageTaglish},
		{"salamat po", models.LanguageTagalog},
		{"I want to order pizza", models.LanguageEnglish},
		{"gusto ko po ng pizza", models.LanguageTaglish},
		{"", models.LanguageEnglish},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.message); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestDetectFallbackPriorities(t *testing.T) {
	tests := []struct {
		message    string
		wantIntent models.Intent
		wantConf   float64
	}{
		{"hello!", models.IntentGreeting, 0.95},
		{"I need a live agent now", models.IntentHumanRequest, 1.0},
		{"my order is late and wrong", models.IntentComplaint, 0.9},
		{"I want to buy a pizza", models.IntentOrderPlacement, 0.85},
		{"pabili ng pizza", models.IntentOrderPlacement, 0.85},
		{"magkano ang pizza", models.IntentMenuInquiry, 0.85},
		{"nearest branch?", models.IntentLocationInquiry, 0.85},
		{"any promo today?", models.IntentPromoInquiry, 0.85},
		{"birthday package for 20 pax", models.IntentPartyInquiry, 0.85},
		{"track #12345", models.IntentTrackingInquiry, 0.85},
		{"supercard renewal", models.IntentSupercard, 0.85},
		{"kailan kayo open", models.IntentFAQ, 0.75},
		{"asdf qwerty", models.IntentUnknown, 0.5},
	}
	for _, tt := range tests {
		got := DetectFallback(tt.message)
		if got.Intent != tt.wantIntent {
			t.Errorf("DetectFallback(%q).Intent = %q, want %q", tt.message, got.Intent, tt.wantIntent)
			continue
		}
		if got.Confidence != tt.wantConf {
			t.Errorf("DetectFallback(%q).Confidence = %v, want %v", tt.message, got.Confidence, tt.wantConf)
		}
		if got.Language == "" {
			t.Errorf("DetectFallback(%q) has empty language", tt.message)
		}
	}
}

func TestDetectFallbackOrderNegativeKeywords(t *testing.T) {
	got := DetectFallback("how to order?")
	if got.Intent == models.IntentOrderPlacement {
		t.Errorf("how-to question classified as order placement")
	}
	got = DetectFallback("paano mag-order dito")
	if got.Intent == models.IntentOrderPlacement {
		t.Errorf("paano mag-order classified as order placement")
	}
}

func TestIntentToFlow(t *testing.T) {
	tests := []struct {
		intent   models.Intent
		wantFlow models.FlowType
		wantOK   bool
	}{
		{models.IntentGreeting, "", false},
		{models.IntentUnknown, "", false},
		{models.IntentFAQ, models.FlowTypeFAQ, true},
		{models.IntentMenuInquiry, models.FlowTypeFAQ, true},
		{models.IntentOrderPlacement, models.FlowTypeOrder, true},
		{models.IntentLocationInquiry, models.FlowTypeLocation, true},
		{models.IntentPromoInquiry, models.FlowTypePromo, true},
		{models.IntentPartyInquiry, models.FlowTypeParty, true},
		{models.IntentTrackingInquiry, models.FlowTypeTracking, true},
		{models.IntentSupercard, models.FlowTypeSupercard, true},
		{models.IntentComplaint, models.FlowTypeComplaint, true},
		{models.IntentHumanRequest, models.FlowTypeComplaint, true},
	}
	for _, tt := range tests {
		flow, ok := IntentToFlow(tt.intent)
		if flow != tt.wantFlow || ok != tt.wantOK {
			t.Errorf("IntentToFlow(%q) = %q, %v; want %q, %v", tt.intent, flow, ok, tt.wantFlow, tt.wantOK)
		}
	}
}

// mockAnalyzer scripts AI analysis results.
type mockAnalyzer struct {
	result models.IntentResult
	err    error
}

func (m *mockAnalyzer) AnalyzeMessage(_ context.Context, _ string, _ []models.HistoryTurn) (models.IntentResult, error) {
	return m.result, m.err
}

func TestDetectPrefersAI(t *testing.T) {
	d := NewDetector(&mockAnalyzer{result: models.IntentResult{
		Intent: models.IntentPartyInquiry, Confidence: 0.88, Language: models.LanguageTagalog,
	}})
	got := d.Detect(context.Background(), "handaan for my kid", nil)
	if got.Intent != models.IntentPartyInquiry || got.Language != models.LanguageTagalog {
		t.Errorf("Detect = %+v", got)
	}
}

func TestDetectFillsMissingLanguage(t *testing.T) {
	d := NewDetector(&mockAnalyzer{result: models.IntentResult{
		Intent: models.IntentGreeting, Confidence: 0.9,
	}})
	got := d.Detect(context.Background(), "kumusta po kayo", nil)
	if got.Language != models.LanguageTaglish {
		t.Errorf("language = %q, want taglish from heuristic", got.Language)
	}
}

func TestDetectFallsBackOnAIError(t *testing.T) {
	d := NewDetector(&mockAnalyzer{err: errors.New("model down")})
	got := d.Detect(context.Background(), "any promo today?", nil)
	if got.Intent != models.IntentPromoInquiry {
		t.Errorf("fallback intent = %q", got.Intent)
	}
}

func TestDetectNilAnalyzer(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(context.Background(), "hello", nil)
	if got.Intent != models.IntentGreeting {
		t.Errorf("intent = %q", got.Intent)
	}
}
