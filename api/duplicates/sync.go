package duplicates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// ReportScanner supplies the candidate set the synchronizer inspects. The
// reference implementation scans the whole collection; an indexed geospatial
// strategy can be swapped in later without changing the Sync contract.
type ReportScanner interface {
	Scan(ctx context.Context) ([]models.Report, error)
}

// FullScan reads every report in the store
type FullScan struct {
	DB databases.ReportDatabase
}

// Scan returns all reports
func (f FullScan) Scan(ctx context.Context) ([]models.Report, error) {
	return f.DB.Find(ctx, bson.D{})
}

// Synchronizer propagates a status change on one report to every other
// report that shares at least one reporting user and lies within
// RadiusMeters of the source's position.
type Synchronizer struct {
	DB      databases.ReportDatabase
	Scanner ReportScanner

	// RadiusMeters is fixed at construction; it is configured independently
	// of the duplicate finder's radius.
	RadiusMeters float64
}

// Sync writes newStatus to every report related to reportID by a shared
// reporter within the radius. A source report with a single reporter is a
// no-op. The per-report writes run concurrently with no ordering guarantee.
func (s Synchronizer) Sync(ctx context.Context, reportID primitive.ObjectID, newStatus models.ReportStatus) (int, error) {
	source, err := s.DB.FindOne(ctx, bson.M{"_id": reportID})
	if err != nil {
		return 0, fmt.Errorf("failed to read source report: %w", err)
	}

	reporters := source.Reporters()
	if len(reporters) <= 1 {
		return 0, nil
	}

	scanner := s.Scanner
	if scanner == nil {
		scanner = FullScan{DB: s.DB}
	}
	candidates, err := scanner.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan reports: %w", err)
	}

	reporterSet := make(map[string]bool, len(reporters))
	for _, r := range reporters {
		reporterSet[r] = true
	}

	var targets []primitive.ObjectID
	for i := range candidates {
		c := &candidates[i]
		if c.ID == reportID {
			continue
		}
		if !sharesReporter(reporterSet, c.Reporters()) {
			continue
		}
		if Distance(source.Latitude, source.Longitude, c.Latitude, c.Longitude) > s.RadiusMeters {
			continue
		}
		targets = append(targets, c.ID)
	}

	if len(targets) == 0 {
		return 0, nil
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	update := bson.M{
		"$set": bson.M{
			"status":     newStatus,
			"syncedAt":   now,
			"syncedFrom": reportID.Hex(),
		},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	updated := 0
	failed := 0
	for _, id := range targets {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			if _, err := s.DB.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
				zap.S().Errorw("failed to sync report status",
					"reportId", id.Hex(),
					"sourceId", reportID.Hex(),
					"error", err,
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			updated++
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	if failed > 0 {
		return updated, fmt.Errorf("%d of %d status sync writes failed", failed, len(targets))
	}
	return updated, nil
}

func sharesReporter(set map[string]bool, reporters []string) bool {
	for _, r := range reporters {
		if set[r] {
			return true
		}
	}
	return false
}
