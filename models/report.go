package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ReportStatus is the lifecycle status of a report
type ReportStatus string

// Report lifecycle statuses. The main path is
// pending -> assigned -> in_progress -> resolved, with rejected and
// withdrawn as side branches.
const (
	StatusPending    ReportStatus = "pending"
	StatusAssigned   ReportStatus = "assigned"
	StatusInProgress ReportStatus = "in_progress"
	StatusResolved   ReportStatus = "resolved"
	StatusRejected   ReportStatus = "rejected"
	StatusWithdrawn  ReportStatus = "withdrawn"
)

// IsValid reports whether s is a known report status
func (s ReportStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusResolved, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// IsOpen reports whether a report in this status can still receive work.
// Resolved, rejected and withdrawn reports are never duplicate targets.
func (s ReportStatus) IsOpen() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress:
		return true
	}
	return false
}

// OpenStatuses lists the statuses a duplicate candidate may be in
func OpenStatuses() []ReportStatus {
	return []ReportStatus{StatusPending, StatusAssigned, StatusInProgress}
}

// Urgency is the triage priority of a report
type Urgency string

// Urgency levels
const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

// DuplicateRef is an entry in an original report's duplicateReports list
type DuplicateRef struct {
	ReportID string             `bson:"reportId" json:"reportId"`
	Distance float64            `bson:"distance" json:"distance"`
	LinkedAt primitive.DateTime `bson:"linkedAt" json:"linkedAt"`
}

// Report represents a citizen-submitted civic issue report
type Report struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         string             `bson:"userId" json:"userId"`
	Category       string             `bson:"category" json:"category"`
	CategorySlug   string             `bson:"categorySlug" json:"categorySlug"`
	Description    string             `bson:"description" json:"description"`
	Image          string             `bson:"image,omitempty" json:"image,omitempty"`
	ImageURLs      []string           `bson:"imageUrls" json:"imageUrls"`
	Latitude       float64            `bson:"latitude" json:"latitude"`
	Longitude      float64            `bson:"longitude" json:"longitude"`
	Address        string             `bson:"address,omitempty" json:"address,omitempty"`
	OrganizationID string             `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	Status         ReportStatus       `bson:"status" json:"status"`
	Urgency        Urgency            `bson:"urgency" json:"urgency"`
	// UrgencyIsFallback marks urgency values produced by the local keyword
	// heuristic rather than the prediction service.
	UrgencyIsFallback bool               `bson:"urgencyIsFallback,omitempty" json:"urgencyIsFallback,omitempty"`
	CreatedAt         primitive.DateTime `bson:"createdAt" json:"createdAt"`

	// ReportedByUsers always starts with the creating user and only grows.
	// ReporterCount mirrors its length.
	ReportedByUsers []string           `bson:"reportedByUsers" json:"reportedByUsers"`
	ReporterCount   int                `bson:"reporterCount" json:"reporterCount"`
	LastReportedAt  primitive.DateTime `bson:"lastReportedAt,omitempty" json:"lastReportedAt,omitempty"`

	// Duplicate-side fields, set only on reports linked as duplicates.
	IsDuplicate       bool               `bson:"isDuplicate,omitempty" json:"isDuplicate,omitempty"`
	OriginalReportID  string             `bson:"originalReportId,omitempty" json:"originalReportId,omitempty"`
	DuplicateDistance float64            `bson:"duplicateDistance,omitempty" json:"duplicateDistance,omitempty"`
	LinkedAt          primitive.DateTime `bson:"linkedAt,omitempty" json:"linkedAt,omitempty"`

	// Original-side fields. DuplicateCount mirrors len(DuplicateReports);
	// the two are always written together.
	DuplicateReports []DuplicateRef     `bson:"duplicateReports,omitempty" json:"duplicateReports,omitempty"`
	DuplicateCount   int                `bson:"duplicateCount,omitempty" json:"duplicateCount,omitempty"`
	LastDuplicateAt  primitive.DateTime `bson:"lastDuplicateAt,omitempty" json:"lastDuplicateAt,omitempty"`

	// Status synchronization bookkeeping.
	SyncedAt   primitive.DateTime `bson:"syncedAt,omitempty" json:"syncedAt,omitempty"`
	SyncedFrom string             `bson:"syncedFrom,omitempty" json:"syncedFrom,omitempty"`

	ProofImage string `bson:"proofImage,omitempty" json:"proofImage,omitempty"`
}

// Reporters returns the reportedByUsers list, defaulting to the submitting
// user when the field was never populated.
func (r *Report) Reporters() []string {
	if len(r.ReportedByUsers) == 0 {
		return []string{r.UserID}
	}
	return r.ReportedByUsers
}
