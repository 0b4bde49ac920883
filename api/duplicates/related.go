package duplicates

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// RelatedReport is a report inside a duplicate cluster, tagged by its role
type RelatedReport struct {
	models.Report
	IsOriginal  bool    `json:"isOriginal"`
	IsDuplicate bool    `json:"isDuplicate"`
	Distance    float64 `json:"distance,omitempty"`
}

// Stats is a compact summary of a report's position in its duplicate cluster
type Stats struct {
	IsDuplicate      bool                  `json:"isDuplicate"`
	IsOriginal       bool                  `json:"isOriginal"`
	OriginalReportID string                `json:"originalReportId,omitempty"`
	TotalDuplicates  int                   `json:"totalDuplicates"`
	Distance         float64               `json:"distance,omitempty"`
	DuplicateReports []models.DuplicateRef `json:"duplicateReports,omitempty"`
}

// Resolver reconstructs the full duplicate cluster around any report
type Resolver struct {
	DB databases.ReportDatabase
}

// Related returns every other report in the target's duplicate cluster. For a
// duplicate target, that is the original plus the sibling duplicates; for an
// original target, its duplicates. Referenced reports that no longer exist
// are skipped silently; a dangling reference never aborts the resolution.
func (r Resolver) Related(ctx context.Context, reportID primitive.ObjectID) ([]RelatedReport, error) {
	target, err := r.DB.FindOne(ctx, bson.M{"_id": reportID})
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	if target.OriginalReportID != "" {
		return r.relatedForDuplicate(ctx, reportID, target.OriginalReportID)
	}
	return r.duplicatesOf(ctx, target.DuplicateReports, primitive.NilObjectID), nil
}

func (r Resolver) relatedForDuplicate(ctx context.Context, targetID primitive.ObjectID, originalHex string) ([]RelatedReport, error) {
	originalID, err := primitive.ObjectIDFromHex(originalHex)
	if err != nil {
		return nil, fmt.Errorf("malformed original report reference: %w", err)
	}

	var related []RelatedReport
	original, err := r.DB.FindOne(ctx, bson.M{"_id": originalID})
	if err != nil {
		// dangling original: return what we can, which is nothing
		zap.S().Warnw("original report missing for duplicate", "originalId", originalHex)
		return related, nil
	}

	related = append(related, RelatedReport{Report: *original, IsOriginal: true})
	related = append(related, r.duplicatesOf(ctx, original.DuplicateReports, targetID)...)
	return related, nil
}

// duplicatesOf fetches each referenced duplicate except the excluded one,
// skipping references whose documents are gone.
func (r Resolver) duplicatesOf(ctx context.Context, refs []models.DuplicateRef, exclude primitive.ObjectID) []RelatedReport {
	var related []RelatedReport
	for _, ref := range refs {
		id, err := primitive.ObjectIDFromHex(ref.ReportID)
		if err != nil || id == exclude {
			continue
		}
		report, err := r.DB.FindOne(ctx, bson.M{"_id": id})
		if err != nil {
			zap.S().Debugw("skipping dangling duplicate reference", "reportId", ref.ReportID)
			continue
		}
		related = append(related, RelatedReport{Report: *report, IsDuplicate: true, Distance: ref.Distance})
	}
	return related
}

// GetStats summarizes the duplicate cluster around a report. It returns nil
// when the report does not exist.
func (r Resolver) GetStats(ctx context.Context, reportID primitive.ObjectID) (*Stats, error) {
	target, err := r.DB.FindOne(ctx, bson.M{"_id": reportID})
	if err != nil {
		return nil, nil
	}

	if target.OriginalReportID != "" {
		stats := &Stats{
			IsDuplicate:      true,
			OriginalReportID: target.OriginalReportID,
			Distance:         target.DuplicateDistance,
		}
		if originalID, err := primitive.ObjectIDFromHex(target.OriginalReportID); err == nil {
			if original, err := r.DB.FindOne(ctx, bson.M{"_id": originalID}); err == nil {
				stats.TotalDuplicates = original.DuplicateCount
			}
		}
		return stats, nil
	}

	return &Stats{
		IsOriginal:       true,
		TotalDuplicates:  target.DuplicateCount,
		DuplicateReports: target.DuplicateReports,
	}, nil
}
