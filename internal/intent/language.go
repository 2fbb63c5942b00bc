package intent

import (
	"strings"

	"github.com/zappybot/zappy/internal/models"
)

// tagalogMarkers are common Tagalog function and courtesy words. A word
// containing any marker counts as a Tagalog word for language detection.
var tagalogMarkers = []string{
	"po", "ako", "opo", "salamat", "kumusta", "gusto", "saan", "may", "ba", "na", "ng",
}

// DetectLanguage guesses the language of a message from Tagalog marker words:
// two or more markers mixed with plain English words reads as Taglish, any
// marker without English words reads as Tagalog, otherwise English.
func DetectLanguage(message string) models.Language {
	words := strings.Fields(strings.ToLower(message))
	if len(words) == 0 {
		return models.LanguageEnglish
	}

	markerWords := 0
	englishWords := 0
	for _, w := range words {
		if containsMarker(w) {
			markerWords++
		} else if hasLetter(w) {
			englishWords++
		}
	}

	switch {
	case markerWords >= 2 && englishWords > 0:
		return models.LanguageTaglish
	case markerWords >= 1:
		return models.LanguageTagalog
	default:
		return models.LanguageEnglish
	}
}

func containsMarker(word string) bool {
	for _, m := range tagalogMarkers {
		if strings.Contains(word, m) {
			return true
		}
	}
	return false
}

func hasLetter(word string) bool {
	for _, r := range word {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
