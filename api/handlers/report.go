package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fixora/fixora-api/api"
	"github.com/fixora/fixora-api/api/duplicates"
	"github.com/fixora/fixora-api/api/storage"
	"github.com/fixora/fixora-api/config"
	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

var (
	// Page denotes the starting Page for pagination results
	Page = 0
)

// Report exported for testing purposes
type Report struct {
	RDB databases.ReportDatabase
	PDB databases.PushTokenDatabase

	Uploader *storage.Uploader

	Linker       duplicates.Linker
	Resolver     duplicates.Resolver
	Synchronizer duplicates.Synchronizer
}

// ReportByIDHandler returns a report by ID
func (h Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := h.RDB.FindOne(context.Background(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportsHandler returns all reports, filtered by optional status, category
// and organization query params
func (h Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ReportStatus(status).IsValid() {
			config.ErrorStatus("unknown status filter", http.StatusBadRequest, w, fmt.Errorf("status %q", status))
			return
		}
		filter["status"] = status
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["categorySlug"] = category
	}
	if orgID := r.URL.Query().Get("organization_id"); orgID != "" {
		filter["organizationId"] = orgID
	}

	dbResp, err := h.RDB.Find(context.TODO(), filter, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get reports", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportsByUserIDHandler returns all reports a user has submitted or joined
func (h Report) ReportsByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v", Limit|10))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	dbResp, err := h.RDB.Find(context.TODO(), bson.M{
		"$or": []bson.M{
			{"userId": userID},
			{"reportedByUsers": userID},
		},
	}, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get reports by user ID", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type statusUpdateRequest struct {
	Status models.ReportStatus `json:"status"`
}

type statusUpdateResponse struct {
	Report *models.Report `json:"report"`
	Synced int            `json:"synced"`
}

// UpdateReportStatusHandler writes a new status to a report, propagates it to
// related reports through the synchronizer, broadcasts the change over the
// websocket hub and pushes to the reporters.
func (h Report) UpdateReportStatusHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if !req.Status.IsValid() {
		config.ErrorStatus("unknown report status", http.StatusBadRequest, w, fmt.Errorf("status %q", req.Status))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := h.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
		return
	}

	_, err = h.RDB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{
		"$set": bson.M{"status": req.Status},
	})
	if err != nil {
		config.ErrorStatus("failed to update report status", http.StatusInternalServerError, w, err)
		return
	}
	report.Status = req.Status

	synced, err := h.Synchronizer.Sync(ctx, rID, req.Status)
	if err != nil {
		// partial sync failures are reported but the primary write stands
		zap.S().Errorw("status sync incomplete",
			"reportId", rID.Hex(),
			"synced", synced,
			"error", err,
		)
	}

	broadcastReportEvent("status_changed", map[string]interface{}{
		"reportId": rID.Hex(),
		"status":   string(req.Status),
		"synced":   synced,
	})
	go h.notifyReporters(report)

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(statusUpdateResponse{Report: report, Synced: synced})
}

// notifyReporters pushes a status change to everyone on the report
func (h Report) notifyReporters(report *models.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens, err := h.PDB.Find(ctx, bson.M{"userId": bson.M{"$in": report.Reporters()}})
	if err != nil {
		zap.S().Warnw("failed to load reporter push tokens", "error", err)
		return
	}
	var tokenStrings []string
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}
	_ = SendExpoPushNotifications(tokenStrings,
		fmt.Sprintf("Your %s report was updated", report.Category),
		fmt.Sprintf("Status is now %s", report.Status),
		map[string]interface{}{"reportId": report.ID.Hex(), "status": string(report.Status)},
	)
}

type linkRequest struct {
	OriginalReportID string `json:"originalReportId"`
}

// LinkReportHandler explicitly links a report as a duplicate of another.
// The distance recorded is computed from the two stored positions.
func (h Report) LinkReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	dupID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	origID, err := primitive.ObjectIDFromHex(req.OriginalReportID)
	if err != nil {
		config.ErrorStatus("malformed originalReportId", http.StatusBadRequest, w, err)
		return
	}
	if origID == dupID {
		config.ErrorStatus("a report cannot be its own duplicate", http.StatusBadRequest, w, fmt.Errorf("reportId %s", reportID))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dup, err := h.RDB.FindOne(ctx, bson.M{"_id": dupID})
	if err != nil {
		config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
		return
	}
	orig, err := h.RDB.FindOne(ctx, bson.M{"_id": origID})
	if err != nil {
		config.ErrorStatus("failed to get original report by ID", http.StatusNotFound, w, err)
		return
	}

	distance := duplicates.Distance(dup.Latitude, dup.Longitude, orig.Latitude, orig.Longitude)
	if err := h.Linker.Link(ctx, dupID, origID, distance); err != nil {
		config.ErrorStatus("failed to link reports", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"distance": distance,
	})
}

type mergeImagesRequest struct {
	DuplicateReportID string `json:"duplicateReportId"`
}

// MergeImagesHandler merges a duplicate's images into the original report
func (h Report) MergeImagesHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	origID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req mergeImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	dupID, err := primitive.ObjectIDFromHex(req.DuplicateReportID)
	if err != nil {
		config.ErrorStatus("malformed duplicateReportId", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.Linker.MergeImages(ctx, origID, dupID); err != nil {
		config.ErrorStatus("failed to merge report images", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// RelatedReportsHandler returns the other members of a report's duplicate
// cluster
func (h Report) RelatedReportsHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	related, err := h.Resolver.Related(ctx, rID)
	if err != nil {
		config.ErrorStatus("failed to resolve related reports", http.StatusNotFound, w, err)
		return
	}
	if len(related) == 0 {
		related = []duplicates.RelatedReport{}
	}

	b, err := json.Marshal(related)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DuplicateStatsHandler returns a report's position in its duplicate cluster
func (h Report) DuplicateStatsHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	stats, err := h.Resolver.GetStats(ctx, rID)
	if err != nil {
		config.ErrorStatus("failed to get duplicate stats", http.StatusInternalServerError, w, err)
		return
	}
	if stats == nil {
		config.ErrorStatus("report not found", http.StatusNotFound, w, fmt.Errorf("reportId %s", reportID))
		return
	}

	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type proofRequest struct {
	Image string `json:"image"`
}

// UploadProofHandler attaches a resolution proof image to a report
func (h Report) UploadProofHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req proofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.Image == "" {
		config.ErrorStatus("image is required", http.StatusBadRequest, w, fmt.Errorf("empty image"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	proofURL := req.Image
	if h.Uploader != nil {
		proofURL, err = h.Uploader.UploadImage(ctx, req.Image, "fixora/proofs")
		if err != nil {
			config.ErrorStatus("failed to upload proof image", http.StatusInternalServerError, w, err)
			return
		}
	}

	_, err = h.RDB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{
		"$set": bson.M{"proofImage": proofURL},
	})
	if err != nil {
		config.ErrorStatus("failed to save proof image", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"proofImage": proofURL})
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Warnf("failed to parse page, using default of %v", Page)
		}
	}
	return Page
}
