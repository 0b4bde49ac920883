package ml

import (
	"context"
	"fmt"
	"strings"

	"github.com/fixora/fixora-api/models"
)

// Prediction is the urgency assigned to a report description. IsFallback is
// true when the value came from the local keyword heuristic rather than the
// prediction service.
type Prediction struct {
	Urgency    models.Urgency `json:"urgency"`
	IsFallback bool           `json:"isFallback"`
}

// PredictUrgency asks the prediction endpoint for the urgency of a report
// description. The endpoint's response shape varies, so the result is mapped
// through an explicit adapter; an unrecognized response is an error, never a
// silent default.
func (c *Client) PredictUrgency(ctx context.Context, description string) (Prediction, error) {
	bag, err := c.postJSON(ctx, c.PredictURL, map[string]string{"text": description})
	if err != nil {
		return Prediction{}, err
	}
	return parsePrediction(bag)
}

// parsePrediction adapts the untyped prediction response to a typed result.
// Known field names: urgency, predicted_urgency, prediction.
func parsePrediction(bag map[string]interface{}) (Prediction, error) {
	raw, ok := stringField(bag, "urgency", "predicted_urgency", "prediction")
	if !ok {
		return Prediction{}, fmt.Errorf("prediction response contains no recognized urgency field")
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return Prediction{Urgency: models.UrgencyHigh}, nil
	case "medium":
		return Prediction{Urgency: models.UrgencyMedium}, nil
	case "low":
		return Prediction{Urgency: models.UrgencyLow}, nil
	}
	return Prediction{}, fmt.Errorf("unrecognized urgency value %q", raw)
}
