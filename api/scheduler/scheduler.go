package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// Scheduler runs the periodic reconciliation job that repairs drift left
// behind by the duplicate linker's non-transactional writes: duplicates
// pointing at missing originals, originals whose count diverged from their
// list, and list entries whose duplicate document lost its back-pointer.
type Scheduler struct {
	cron       *cron.Cron
	RDB        databases.ReportDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(rdb databases.ReportDatabase) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		RDB:        rdb,
		instanceID: uuid.New().String(),
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Reconcile duplicate links daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.reconcileDuplicateLinks)
	if err != nil {
		zap.S().Errorw("failed to register duplicate reconciliation job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Duplicate link reconciler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Duplicate link reconciler stopped")
}

// reconcileDuplicateLinks scans all reports and repairs duplicate-link drift
func (s *Scheduler) reconcileDuplicateLinks() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	zap.S().Infow("Running duplicate link reconciliation", "instance", s.instanceID)

	reports, err := s.RDB.Find(ctx, bson.D{})
	if err != nil {
		zap.S().Errorw("failed to scan reports for reconciliation", "error", err)
		return
	}

	byID := make(map[string]*models.Report, len(reports))
	for i := range reports {
		byID[reports[i].ID.Hex()] = &reports[i]
	}

	orphansCleared := 0
	listsRepaired := 0
	backPointersRestored := 0

	for i := range reports {
		r := &reports[i]

		if r.IsDuplicate || r.OriginalReportID != "" {
			if _, ok := byID[r.OriginalReportID]; !ok {
				if s.clearOrphanedDuplicate(ctx, r) {
					orphansCleared++
				}
			}
			continue
		}

		if len(r.DuplicateReports) == 0 && r.DuplicateCount == 0 {
			continue
		}
		repaired, restored := s.repairOriginal(ctx, r, byID)
		if repaired {
			listsRepaired++
		}
		backPointersRestored += restored
	}

	zap.S().Infow("Duplicate link reconciliation complete",
		"reportsScanned", len(reports),
		"orphansCleared", orphansCleared,
		"listsRepaired", listsRepaired,
		"backPointersRestored", backPointersRestored,
	)
}

// clearOrphanedDuplicate detaches a duplicate whose original no longer exists
func (s *Scheduler) clearOrphanedDuplicate(ctx context.Context, r *models.Report) bool {
	_, err := s.RDB.UpdateOne(ctx, bson.M{"_id": r.ID}, bson.M{
		"$set": bson.M{
			"isDuplicate":       false,
			"originalReportId":  "",
			"duplicateDistance": 0,
		},
	})
	if err != nil {
		zap.S().Errorw("failed to clear orphaned duplicate", "reportId", r.ID.Hex(), "error", err)
		return false
	}
	zap.S().Infow("cleared orphaned duplicate", "reportId", r.ID.Hex(), "missingOriginal", r.OriginalReportID)
	return true
}

// repairOriginal drops dangling entries from an original's duplicate list,
// realigns the count with the list and restores back-pointers on duplicate
// documents that lost theirs.
func (s *Scheduler) repairOriginal(ctx context.Context, r *models.Report, byID map[string]*models.Report) (bool, int) {
	valid := make([]models.DuplicateRef, 0, len(r.DuplicateReports))
	restored := 0

	for _, ref := range r.DuplicateReports {
		dup, ok := byID[ref.ReportID]
		if !ok {
			zap.S().Infow("dropping dangling duplicate reference",
				"originalId", r.ID.Hex(),
				"reportId", ref.ReportID,
			)
			continue
		}
		valid = append(valid, ref)

		if dup.OriginalReportID != r.ID.Hex() {
			if dupID, err := primitive.ObjectIDFromHex(ref.ReportID); err == nil {
				_, err := s.RDB.UpdateOne(ctx, bson.M{"_id": dupID}, bson.M{
					"$set": bson.M{
						"isDuplicate":       true,
						"originalReportId":  r.ID.Hex(),
						"duplicateDistance": ref.Distance,
						"linkedAt":          ref.LinkedAt,
					},
				})
				if err != nil {
					zap.S().Errorw("failed to restore duplicate back-pointer", "reportId", ref.ReportID, "error", err)
					continue
				}
				restored++
			}
		}
	}

	if len(valid) == len(r.DuplicateReports) && r.DuplicateCount == len(valid) {
		return false, restored
	}

	_, err := s.RDB.UpdateOne(ctx, bson.M{"_id": r.ID}, bson.M{
		"$set": bson.M{
			"duplicateReports": valid,
			"duplicateCount":   len(valid),
		},
	})
	if err != nil {
		zap.S().Errorw("failed to repair duplicate list", "originalId", r.ID.Hex(), "error", err)
		return false, restored
	}
	return true, restored
}
