package catalog

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zappybot/zappy/internal/genai"
)

// Match is one product matched from a free-text order message.
type Match struct {
	Product    Product
	Quantity   int
	Confidence float64
}

// maxFallbackMatches caps keyword matching results.
const maxFallbackMatches = 5

// itemExtractor is the slice of the GenAI client the matcher needs.
type itemExtractor interface {
	ExtractOrderItems(ctx context.Context, message string, productNames []string) ([]genai.ExtractedItem, error)
}

// Matcher resolves order messages to catalog products, AI first with a
// keyword fallback. A nil extractor skips straight to the fallback.
type Matcher struct {
	ai itemExtractor
}

// NewMatcher creates a product matcher. extractor may be nil.
func NewMatcher(extractor itemExtractor) *Matcher {
	return &Matcher{ai: extractor}
}

// MatchProducts resolves a message to products. AI extraction errors degrade
// to keyword matching rather than failing the turn.
func (m *Matcher) MatchProducts(ctx context.Context, message string) []Match {
	if m.ai != nil {
		items, err := m.ai.ExtractOrderItems(ctx, message, ProductNames())
		if err == nil {
			var matches []Match
			for _, item := range items {
				if p, ok := ProductByName(item.Name); ok {
					matches = append(matches, Match{Product: p, Quantity: item.Quantity, Confidence: 0.9})
				}
			}
			if len(matches) > 0 {
				return matches
			}
			// AI answered but matched nothing; keyword matching gets a shot.
		} else {
			slog.Warn("Matcher AI extraction failed, using keyword fallback", "error", err)
		}
	}
	return FallbackMatch(message)
}

// FallbackMatch scores products by how many of their name words appear in
// the message. Quantity comes from digits or Filipino number words.
func FallbackMatch(message string) []Match {
	lower := strings.ToLower(message)
	quantity := ExtractQuantity(lower)

	var matches []Match
	for _, p := range products {
		words := strings.Fields(strings.ToLower(p.Name))
		if len(words) == 0 {
			continue
		}
		score := 0.0
		for _, w := range words {
			if len(w) > 3 && strings.Contains(lower, w) {
				score += 0.3
			}
		}
		if strings.Contains(lower, words[0]) {
			score += 0.4
		}
		if score > 0.3 {
			if score > 0.85 {
				score = 0.85
			}
			matches = append(matches, Match{Product: p, Quantity: quantity, Confidence: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	if len(matches) > maxFallbackMatches {
		matches = matches[:maxFallbackMatches]
	}
	return matches
}

var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d+)\s*x\b`),
	regexp.MustCompile(`\bx\s*(\d+)\b`),
	regexp.MustCompile(`\b(\d+)\s*(?:pcs?|pieces?|orders?)\b`),
	regexp.MustCompile(`\b(\d+)\s+(?:of|ng)\b`),
}

var filipinoNumbers = []struct {
	word string
	n    int
}{
	{"isang", 1}, {"isa", 1},
	{"dalawang", 2}, {"dalawa", 2},
	{"tatlong", 3}, {"tatlo", 3},
	{"apat", 4},
	{"limang", 5}, {"lima", 5},
	{"anim", 6},
	{"pito", 7},
	{"walo", 8},
	{"siyam", 9},
	{"sampu", 10},
}

// ExtractQuantity pulls an order quantity out of a lowercase message,
// defaulting to 1.
func ExtractQuantity(message string) int {
	for _, pat := range quantityPatterns {
		if m := pat.FindStringSubmatch(message); m != nil {
			if qty, err := strconv.Atoi(m[1]); err == nil && qty > 0 && qty <= 100 {
				return qty
			}
		}
	}
	for _, fn := range filipinoNumbers {
		if strings.Contains(message, fn.word) {
			return fn.n
		}
	}
	return 1
}
