package duplicates

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// Match is the result of a duplicate lookup. When the query itself fails,
// IsDuplicate is false and Err carries the cause; a failed lookup must never
// block report submission.
type Match struct {
	IsDuplicate  bool           `json:"isDuplicate"`
	Original     *models.Report `json:"originalReport,omitempty"`
	Distance     float64        `json:"distance,omitempty"`
	DistanceText string         `json:"distanceText,omitempty"`
	Err          error          `json:"-"`
}

// Finder locates the nearest open report within a radius of a submission
// point. The report database is injected; the finder owns no state.
type Finder struct {
	DB databases.ReportDatabase

	// DefaultRadiusMeters is used when a caller passes a radius of zero.
	DefaultRadiusMeters float64
}

// Find returns the single open report with minimum distance from (lat, lon)
// within radiusMeters, optionally restricted to one category slug and one
// organization. The boundary is inclusive. Ties on distance are broken by
// iteration order, first seen wins; that non-determinism is accepted.
func (f Finder) Find(ctx context.Context, lat, lon float64, categorySlug string, radiusMeters float64, organizationID string) Match {
	if radiusMeters <= 0 {
		radiusMeters = f.DefaultRadiusMeters
	}

	filter := bson.M{
		"status": bson.M{"$in": models.OpenStatuses()},
	}
	if categorySlug != "" {
		filter["categorySlug"] = categorySlug
	}
	if organizationID != "" {
		filter["organizationId"] = organizationID
	}

	candidates, err := f.DB.Find(ctx, filter)
	if err != nil {
		zap.S().Warnw("duplicate check failed, proceeding as no duplicate",
			"error", err,
			"categorySlug", categorySlug,
		)
		return Match{IsDuplicate: false, Err: err}
	}

	var best *models.Report
	var bestDistance float64
	for i := range candidates {
		c := &candidates[i]
		if c.Latitude == 0 && c.Longitude == 0 {
			continue
		}
		d := Distance(lat, lon, c.Latitude, c.Longitude)
		if d > radiusMeters {
			continue
		}
		if best == nil || d < bestDistance {
			best = c
			bestDistance = d
		}
	}

	if best == nil {
		return Match{IsDuplicate: false}
	}

	return Match{
		IsDuplicate:  true,
		Original:     best,
		Distance:     bestDistance,
		DistanceText: FormatDistance(bestDistance),
	}
}
