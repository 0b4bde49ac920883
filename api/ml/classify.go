package ml

import (
	"context"
	"fmt"
	"strings"
)

// Classification is the category assigned to a single report image
type Classification struct {
	Category   string  `json:"category"`
	Slug       string  `json:"slug"`
	Confidence float64 `json:"confidence"`
}

// GateResult is the outcome of evaluating all image classifications against
// the submission gate. Exactly one of the failure flags is set when the gate
// fails for a distinguishable reason.
type GateResult struct {
	Passed             bool
	Category           string
	Slug               string
	MultipleCategories bool
	BelowThreshold     bool
	Categories         []string
	LowestConfidence   float64
}

// ClassifyImage sends one base64-encoded image to the classification
// endpoint and adapts the untyped response. Known field names:
// category/predicted_category/label and confidence/score/probability.
func (c *Client) ClassifyImage(ctx context.Context, imageBase64 string) (Classification, error) {
	bag, err := c.postJSON(ctx, c.ClassifyURL, map[string]string{"image": imageBase64})
	if err != nil {
		return Classification{}, err
	}
	return parseClassification(bag)
}

func parseClassification(bag map[string]interface{}) (Classification, error) {
	category, ok := stringField(bag, "category", "predicted_category", "label")
	if !ok {
		return Classification{}, fmt.Errorf("classification response contains no recognized category field")
	}
	confidence, ok := floatField(bag, "confidence", "score", "probability")
	if !ok {
		return Classification{}, fmt.Errorf("classification response contains no recognized confidence field")
	}

	return Classification{
		Category:   category,
		Slug:       Slugify(category),
		Confidence: confidence,
	}, nil
}

// EvaluateGate checks the classification gate: every image must classify to
// the same category and every confidence must meet minConfidence. Any
// violation blocks submission.
func EvaluateGate(results []Classification, minConfidence float64) GateResult {
	if len(results) == 0 {
		return GateResult{}
	}

	seen := make(map[string]bool)
	var categories []string
	lowest := results[0].Confidence
	for _, r := range results {
		if !seen[r.Slug] {
			seen[r.Slug] = true
			categories = append(categories, r.Category)
		}
		if r.Confidence < lowest {
			lowest = r.Confidence
		}
	}

	if len(categories) > 1 {
		return GateResult{MultipleCategories: true, Categories: categories, LowestConfidence: lowest}
	}
	if lowest < minConfidence {
		return GateResult{BelowThreshold: true, Categories: categories, LowestConfidence: lowest}
	}

	return GateResult{
		Passed:           true,
		Category:         results[0].Category,
		Slug:             results[0].Slug,
		Categories:       categories,
		LowestConfidence: lowest,
	}
}

// Slugify converts a display category label to its machine-normalized slug:
// lowercase with underscores.
func Slugify(category string) string {
	slug := strings.ToLower(strings.TrimSpace(category))
	slug = strings.Join(strings.Fields(slug), "_")
	return strings.ReplaceAll(slug, "-", "_")
}
