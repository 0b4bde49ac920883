package ml

import (
	"strings"

	"github.com/fixora/fixora-api/models"
)

// Keyword sets for the local urgency heuristic used when the prediction
// service is unreachable.
var (
	urgentKeywords = []string{"emergency", "urgent", "danger", "fire", "accident", "gas", "collapse"}
	mediumKeywords = []string{"problem", "issue", "broken", "damage", "leak", "blocked"}
)

// FallbackPrediction classifies urgency from keywords alone. It cannot fail;
// the result is always flagged as a fallback so consumers can tell heuristic
// urgency from model-derived urgency.
func FallbackPrediction(description string) Prediction {
	text := strings.ToLower(description)

	for _, kw := range urgentKeywords {
		if strings.Contains(text, kw) {
			return Prediction{Urgency: models.UrgencyHigh, IsFallback: true}
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(text, kw) {
			return Prediction{Urgency: models.UrgencyMedium, IsFallback: true}
		}
	}
	return Prediction{Urgency: models.UrgencyLow, IsFallback: true}
}
