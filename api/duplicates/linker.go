package duplicates

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// Linker records the duplicate/original relationship between two reports.
//
// The two writes below are not transactional: a crash between them leaves a
// duplicate marked without the original knowing about it, or vice versa.
// That is the documented best-effort behavior; the scheduler's reconciler
// repairs such drift after the fact.
type Linker struct {
	DB databases.ReportDatabase
}

// Link marks duplicateID as a duplicate of originalID at the given distance
// in meters. The original's duplicateReports list and duplicateCount are
// written together so no reader observes one without the other.
func (l Linker) Link(ctx context.Context, duplicateID, originalID primitive.ObjectID, distance float64) error {
	original, err := l.DB.FindOne(ctx, bson.M{"_id": originalID})
	if err != nil {
		return fmt.Errorf("failed to read original report: %w", err)
	}

	now := primitive.NewDateTimeFromTime(time.Now())

	_, err = l.DB.UpdateOne(ctx, bson.M{"_id": duplicateID}, bson.M{
		"$set": bson.M{
			"isDuplicate":       true,
			"originalReportId":  originalID.Hex(),
			"duplicateDistance": distance,
			"linkedAt":          now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to mark duplicate report: %w", err)
	}

	refs := append(original.DuplicateReports, duplicateRef(duplicateID, distance, now))
	_, err = l.DB.UpdateOne(ctx, bson.M{"_id": originalID}, bson.M{
		"$set": bson.M{
			"duplicateReports": refs,
			"duplicateCount":   original.DuplicateCount + 1,
			"lastDuplicateAt":  now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update original report: %w", err)
	}

	zap.S().Infow("linked duplicate report",
		"duplicateId", duplicateID.Hex(),
		"originalId", originalID.Hex(),
		"distance", distance,
	)
	return nil
}

// MergeImages writes the deduplicated union of both reports' image lists back
// to the original, keeping the original's images first and preserving first
// occurrence. The original's primary image becomes the first merged element.
// Merging is an explicit operation; linking never triggers it.
func (l Linker) MergeImages(ctx context.Context, originalID, duplicateID primitive.ObjectID) error {
	original, err := l.DB.FindOne(ctx, bson.M{"_id": originalID})
	if err != nil {
		return fmt.Errorf("failed to read original report: %w", err)
	}
	duplicate, err := l.DB.FindOne(ctx, bson.M{"_id": duplicateID})
	if err != nil {
		return fmt.Errorf("failed to read duplicate report: %w", err)
	}

	merged := mergeImageLists(original.ImageURLs, duplicate.ImageURLs)
	if len(merged) == 0 {
		return nil
	}

	_, err = l.DB.UpdateOne(ctx, bson.M{"_id": originalID}, bson.M{
		"$set": bson.M{
			"imageUrls": merged,
			"image":     merged[0],
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write merged images: %w", err)
	}
	return nil
}

func duplicateRef(id primitive.ObjectID, distance float64, at primitive.DateTime) models.DuplicateRef {
	return models.DuplicateRef{ReportID: id.Hex(), Distance: distance, LinkedAt: at}
}

func mergeImageLists(original, duplicate []string) []string {
	seen := make(map[string]bool, len(original)+len(duplicate))
	merged := make([]string, 0, len(original)+len(duplicate))
	for _, url := range append(append([]string{}, original...), duplicate...) {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		merged = append(merged, url)
	}
	return merged
}
