package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fixora/fixora-api/api"
	"github.com/fixora/fixora-api/api/duplicates"
	"github.com/fixora/fixora-api/api/geocode"
	"github.com/fixora/fixora-api/api/ml"
	"github.com/fixora/fixora-api/api/storage"
	"github.com/fixora/fixora-api/config"
	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// Submission orchestrates the report intake pipeline: validation, image
// classification, organization match, duplicate detection and the final
// create/link branch.
type Submission struct {
	RDB databases.ReportDatabase
	ODB databases.OrganizationDatabase
	UDB databases.UserDatabase
	PDB databases.PushTokenDatabase

	ML       *ml.Client
	Uploader *storage.Uploader
	Geocoder *geocode.Client

	Finder duplicates.Finder
	Linker duplicates.Linker

	Config config.Config
}

type submissionRequest struct {
	UserID         string   `json:"userId"`
	Description    string   `json:"description"`
	Images         []string `json:"images"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Address        string   `json:"address,omitempty"`
	OrganizationID string   `json:"organizationId,omitempty"`

	// DuplicateAction is empty on first submission. When the first attempt
	// returned 409, the client resubmits with "link" or "new"; a user who
	// cancels simply never resubmits.
	DuplicateAction string `json:"duplicateAction,omitempty"`
}

type submissionResponse struct {
	Report   *models.Report `json:"report,omitempty"`
	Linked   bool           `json:"linked,omitempty"`
	Attached bool           `json:"attached,omitempty"`
	Message  string         `json:"message,omitempty"`
}

type duplicatePromptResponse struct {
	DuplicateDetected bool             `json:"duplicateDetected"`
	Match             duplicates.Match `json:"match"`
	Message           string           `json:"message"`
}

// CreateReportHandler handles POST /api/v1/reports
func (s Submission) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode submission", http.StatusBadRequest, w, err)
		return
	}

	if subErr := s.validate(req); subErr != nil {
		writeSubmissionError(w, http.StatusBadRequest, *subErr)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// Every image must classify to one category with enough confidence
	// before the report is accepted.
	gate, err := s.classifyImages(ctx, req.Images)
	if err != nil {
		config.ErrorStatus("image classification unavailable", http.StatusBadGateway, w, err)
		return
	}
	if !gate.Passed {
		writeSubmissionError(w, http.StatusBadRequest, gateError(gate, s.Config.MinConfidence))
		return
	}

	// The chosen organization has to handle the classified category.
	if req.OrganizationID != "" {
		org, err := s.findOrganization(ctx, req.OrganizationID)
		if err != nil {
			config.ErrorStatus("organization not found", http.StatusBadRequest, w, err)
			return
		}
		if !org.HandlesCategory(gate.Slug) {
			writeSubmissionError(w, http.StatusBadRequest, models.SubmissionError{
				Error: fmt.Sprintf("%s does not handle %s reports", org.Name, gate.Category),
			})
			return
		}
	}

	match := s.Finder.Find(ctx, req.Latitude, req.Longitude, gate.Slug, s.Config.DuplicateRadiusMeters, req.OrganizationID)

	if match.IsDuplicate {
		switch req.DuplicateAction {
		case "":
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(duplicatePromptResponse{
				DuplicateDetected: true,
				Match:             match,
				Message:           fmt.Sprintf("A similar report exists %s", match.DistanceText),
			})
			return
		case "link":
			s.attachReporter(ctx, w, req, match)
			return
		case "new":
			// fall through to create; linked below
		default:
			writeSubmissionError(w, http.StatusBadRequest, models.SubmissionError{
				Error: fmt.Sprintf("unknown duplicateAction %q", req.DuplicateAction),
			})
			return
		}
	}

	report, err := s.createReport(ctx, req, gate)
	if err != nil {
		config.ErrorStatus("failed to create report", http.StatusInternalServerError, w, err)
		return
	}

	linked := false
	if match.IsDuplicate && req.DuplicateAction == "new" {
		if err := s.Linker.Link(ctx, report.ID, match.Original.ID, match.Distance); err != nil {
			// the report exists either way; surface the link failure without
			// rolling the create back
			zap.S().Errorw("failed to link new report to duplicate original",
				"reportId", report.ID.Hex(),
				"originalId", match.Original.ID.Hex(),
				"error", err,
			)
		} else {
			linked = true
		}
	}

	go s.notifyOrgAdmins(report)

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(submissionResponse{Report: report, Linked: linked})
}

func (s Submission) validate(req submissionRequest) *models.SubmissionError {
	if req.UserID == "" {
		return &models.SubmissionError{Error: "userId is required"}
	}
	if len(strings.TrimSpace(req.Description)) < s.Config.MinDescriptionLength {
		return &models.SubmissionError{
			Error: fmt.Sprintf("description must be at least %d characters", s.Config.MinDescriptionLength),
		}
	}
	if len(req.Images) == 0 {
		return &models.SubmissionError{Error: "at least one image is required"}
	}
	if req.Latitude == 0 && req.Longitude == 0 {
		return &models.SubmissionError{Error: "report location is required"}
	}
	return nil
}

// classifyImages classifies all images concurrently and evaluates the
// single-category / minimum-confidence gate over the results.
func (s Submission) classifyImages(ctx context.Context, images []string) (ml.GateResult, error) {
	results := make([]ml.Classification, len(images))
	errs := make([]error, len(images))

	var wg sync.WaitGroup
	for i, img := range images {
		wg.Add(1)
		go func(i int, img string) {
			defer wg.Done()
			results[i], errs[i] = s.ML.ClassifyImage(ctx, img)
		}(i, img)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return ml.GateResult{}, err
		}
	}
	return ml.EvaluateGate(results, s.Config.MinConfidence), nil
}

func (s Submission) findOrganization(ctx context.Context, id string) (*models.Organization, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("malformed organization id: %w", err)
	}
	return s.ODB.FindOne(ctx, bson.M{"_id": oid})
}

// attachReporter handles duplicateAction=link: the user joins the existing
// report instead of creating a new one. Attaching is idempotent; a user
// already on the report changes nothing.
func (s Submission) attachReporter(ctx context.Context, w http.ResponseWriter, req submissionRequest, match duplicates.Match) {
	original := match.Original
	reporters := original.Reporters()
	for _, u := range reporters {
		if u == req.UserID {
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(submissionResponse{
				Report:  original,
				Message: "already reported by this user",
			})
			return
		}
	}

	reporters = append(reporters, req.UserID)
	now := primitive.NewDateTimeFromTime(time.Now())
	_, err := s.RDB.UpdateOne(ctx, bson.M{"_id": original.ID}, bson.M{
		"$set": bson.M{
			"reportedByUsers": reporters,
			"reporterCount":   len(reporters),
			"lastReportedAt":  now,
		},
	})
	if err != nil {
		config.ErrorStatus("failed to attach reporter", http.StatusInternalServerError, w, err)
		return
	}

	original.ReportedByUsers = reporters
	original.ReporterCount = len(reporters)
	original.LastReportedAt = now

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(submissionResponse{Report: original, Attached: true})
}

func (s Submission) createReport(ctx context.Context, req submissionRequest, gate ml.GateResult) (*models.Report, error) {
	urgency := s.predictUrgency(ctx, req.Description)

	imageURLs := req.Images
	if s.Uploader != nil {
		uploaded, err := s.Uploader.UploadImages(ctx, req.Images, "fixora/reports")
		if err != nil {
			return nil, fmt.Errorf("image upload failed: %w", err)
		}
		imageURLs = uploaded
	}

	address := req.Address
	if address == "" && s.Geocoder != nil {
		resolved, err := s.Geocoder.Reverse(ctx, req.Latitude, req.Longitude)
		if err != nil {
			zap.S().Warnw("reverse geocode failed", "error", err)
		} else {
			address = resolved
		}
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	report := models.Report{
		ID:                primitive.NewObjectID(),
		UserID:            req.UserID,
		Category:          gate.Category,
		CategorySlug:      gate.Slug,
		Description:       req.Description,
		Image:             imageURLs[0],
		ImageURLs:         imageURLs,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Address:           address,
		OrganizationID:    req.OrganizationID,
		Status:            models.StatusPending,
		Urgency:           urgency.Urgency,
		UrgencyIsFallback: urgency.IsFallback,
		CreatedAt:         now,
		ReportedByUsers:   []string{req.UserID},
		ReporterCount:     1,
		LastReportedAt:    now,
	}

	if _, err := s.RDB.InsertOne(ctx, report); err != nil {
		return nil, err
	}
	return &report, nil
}

// predictUrgency asks the prediction service and falls back to the local
// keyword heuristic when it fails; submission never blocks on urgency.
func (s Submission) predictUrgency(ctx context.Context, description string) ml.Prediction {
	prediction, err := s.ML.PredictUrgency(ctx, description)
	if err != nil {
		zap.S().Warnw("urgency prediction failed, using keyword fallback", "error", err)
		return ml.FallbackPrediction(description)
	}
	return prediction
}

// notifyOrgAdmins pushes and emails the organization's staff about a new
// report. Best-effort: failures are logged and never reach the submitter.
func (s Submission) notifyOrgAdmins(report *models.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if report.OrganizationID == "" {
		return
	}

	staff, err := s.UDB.Find(ctx, bson.M{
		"organizationId": report.OrganizationID,
		"role":           bson.M{"$in": []models.UserRole{models.RoleStaff, models.RoleAdmin}},
		"active":         true,
	})
	if err != nil {
		zap.S().Warnw("failed to load organization staff for notification", "error", err)
		return
	}
	if len(staff) == 0 {
		return
	}

	var userIDs []string
	for _, u := range staff {
		userIDs = append(userIDs, u.ID.Hex())
	}
	tokens, err := s.PDB.Find(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
	if err != nil {
		zap.S().Warnw("failed to load push tokens for notification", "error", err)
	}

	var tokenStrings []string
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}
	title := fmt.Sprintf("New %s report", report.Category)
	body := report.Description
	if len(body) > 120 {
		body = body[:117] + "..."
	}
	_ = SendExpoPushNotifications(tokenStrings, title, body, map[string]interface{}{
		"reportId": report.ID.Hex(),
		"urgency":  string(report.Urgency),
	})

	for _, u := range staff {
		if u.Email == "" {
			continue
		}
		if err := sendNewReportEmail(u.Email, u.Name, report); err != nil {
			zap.S().Warnw("failed to send new report email", "email", u.Email, "error", err)
		}
	}
}

func gateError(gate ml.GateResult, minConfidence float64) models.SubmissionError {
	if gate.MultipleCategories {
		return models.SubmissionError{
			Error:              "images classify to different categories",
			MultipleCategories: true,
			Categories:         gate.Categories,
		}
	}
	return models.SubmissionError{
		Error:          fmt.Sprintf("image classification confidence %.2f is below the minimum %.2f", gate.LowestConfidence, minConfidence),
		BelowThreshold: true,
		Categories:     gate.Categories,
		MinConfidence:  minConfidence,
	}
}

func writeSubmissionError(w http.ResponseWriter, status int, subErr models.SubmissionError) {
	zap.S().Infow("submission rejected", "reason", subErr.Error)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(subErr)
}
