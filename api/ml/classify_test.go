package ml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixora/fixora-api/api/ml"
)

func TestEvaluateGate_Passes(t *testing.T) {
	result := ml.EvaluateGate([]ml.Classification{
		{Category: "Pothole", Slug: "pothole", Confidence: 0.91},
		{Category: "Pothole", Slug: "pothole", Confidence: 0.85},
	}, 0.80)

	assert.True(t, result.Passed)
	assert.Equal(t, "Pothole", result.Category)
	assert.Equal(t, "pothole", result.Slug)
	assert.Equal(t, 0.85, result.LowestConfidence)
}

func TestEvaluateGate_MultipleCategories(t *testing.T) {
	result := ml.EvaluateGate([]ml.Classification{
		{Category: "Pothole", Slug: "pothole", Confidence: 0.91},
		{Category: "Garbage", Slug: "garbage", Confidence: 0.88},
	}, 0.80)

	assert.False(t, result.Passed)
	assert.True(t, result.MultipleCategories)
	assert.False(t, result.BelowThreshold)
	assert.Equal(t, []string{"Pothole", "Garbage"}, result.Categories)
}

func TestEvaluateGate_BelowThreshold(t *testing.T) {
	result := ml.EvaluateGate([]ml.Classification{
		{Category: "Pothole", Slug: "pothole", Confidence: 0.91},
		{Category: "Pothole", Slug: "pothole", Confidence: 0.79},
	}, 0.80)

	assert.False(t, result.Passed)
	assert.True(t, result.BelowThreshold)
	assert.False(t, result.MultipleCategories)
	assert.Equal(t, 0.79, result.LowestConfidence)
}

func TestEvaluateGate_ExactThresholdPasses(t *testing.T) {
	result := ml.EvaluateGate([]ml.Classification{
		{Category: "Pothole", Slug: "pothole", Confidence: 0.80},
	}, 0.80)

	assert.True(t, result.Passed)
}

func TestEvaluateGate_EmptyInput(t *testing.T) {
	result := ml.EvaluateGate(nil, 0.80)

	assert.False(t, result.Passed)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "pothole", ml.Slugify("Pothole"))
	assert.Equal(t, "road_damage", ml.Slugify("Road Damage"))
	assert.Equal(t, "street_light", ml.Slugify("  Street  Light  "))
	assert.Equal(t, "water_leak", ml.Slugify("Water-Leak"))
}
