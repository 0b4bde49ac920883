package ml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixora/fixora-api/api/ml"
	"github.com/fixora/fixora-api/models"
)

func TestFallbackPrediction_UrgentKeywords(t *testing.T) {
	p := ml.FallbackPrediction("Gas leak smell near the school, EMERGENCY")

	assert.Equal(t, models.UrgencyHigh, p.Urgency)
	assert.True(t, p.IsFallback)
}

func TestFallbackPrediction_MediumKeywords(t *testing.T) {
	p := ml.FallbackPrediction("There is a problem with the drainage on Elm street")

	assert.Equal(t, models.UrgencyMedium, p.Urgency)
	assert.True(t, p.IsFallback)
}

func TestFallbackPrediction_DefaultsToLow(t *testing.T) {
	p := ml.FallbackPrediction("Graffiti on the park bench")

	assert.Equal(t, models.UrgencyLow, p.Urgency)
	assert.True(t, p.IsFallback)
}

func TestFallbackPrediction_UrgentWinsOverMedium(t *testing.T) {
	// "fire" outranks "damage" when both appear
	p := ml.FallbackPrediction("fire damage at the community center")

	assert.Equal(t, models.UrgencyHigh, p.Urgency)
}

func TestFallbackPrediction_Deterministic(t *testing.T) {
	first := ml.FallbackPrediction("broken swing at the playground")
	second := ml.FallbackPrediction("broken swing at the playground")

	assert.Equal(t, first, second)
	assert.Equal(t, models.UrgencyMedium, first.Urgency)
}

func TestFallbackPrediction_CaseInsensitive(t *testing.T) {
	p := ml.FallbackPrediction("URGENT: pipe burst")

	assert.Equal(t, models.UrgencyHigh, p.Urgency)
}
