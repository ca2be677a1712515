package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ReportStatus string

const (
	StatusPending             ReportStatus = "pending"
	StatusVerified            ReportStatus = "verified"
	StatusVerifiedByCommunity ReportStatus = "verified_by_community"
	StatusApprovedByAdmin     ReportStatus = "approved_by_admin"
	StatusRejected            ReportStatus = "rejected"
	StatusInvalidPlate        ReportStatus = "invalid_plate"
)

// IsVerified reports whether s is one of the statuses that make a report
// eligible for a payout.
func (s ReportStatus) IsVerified() bool {
	switch s {
	case StatusVerified, StatusVerifiedByCommunity, StatusApprovedByAdmin:
		return true
	}
	return false
}

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusVerifiedByCommunity,
		StatusApprovedByAdmin, StatusRejected, StatusInvalidPlate:
		return true
	}
	return false
}

// TransitionSource names the signal that asked for a status change.
type TransitionSource string

const (
	SourceDetection TransitionSource = "detection"
	SourcePlate     TransitionSource = "plate"
	SourceCommunity TransitionSource = "community"
	SourceAdmin     TransitionSource = "admin"
)

// CanTransition is the status lattice. Automated and community signals only
// act on pending reports; an admin may move a report from any state to
// approved_by_admin or rejected. Nothing ever returns to pending.
func CanTransition(from, to ReportStatus, source TransitionSource) bool {
	if from == to || to == StatusPending {
		return false
	}
	switch source {
	case SourcePlate:
		return from == StatusPending && to == StatusInvalidPlate
	case SourceDetection:
		return from == StatusPending && to == StatusVerified
	case SourceCommunity:
		return from == StatusPending && to == StatusVerifiedByCommunity
	case SourceAdmin:
		return to == StatusApprovedByAdmin || to == StatusRejected
	}
	return false
}

// PointsAfter returns the base reward points a report holds once it enters
// status to.
func PointsAfter(to ReportStatus, current, base int) int {
	switch {
	case to.IsVerified():
		if current > 0 {
			return current
		}
		return base
	case to == StatusRejected || to == StatusInvalidPlate:
		return 0
	}
	return current
}

type ViolationType string

const (
	ViolationNoHelmet     ViolationType = "No Helmet"
	ViolationWrongSide    ViolationType = "Wrong-side Driving"
	ViolationSignalJump   ViolationType = "Signal Jump"
	ViolationTripleRiding ViolationType = "Triple Riding"
	ViolationOverloading  ViolationType = "Overloading"
	ViolationOthers       ViolationType = "Others"
)

var ViolationTypes = []ViolationType{
	ViolationNoHelmet,
	ViolationWrongSide,
	ViolationSignalJump,
	ViolationTripleRiding,
	ViolationOverloading,
	ViolationOthers,
}

func (v ViolationType) Valid() bool {
	for _, t := range ViolationTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Report is a single submitted traffic violation.
type Report struct {
	Model
	SubmitterID   uuid.UUID       `json:"submitter_id" gorm:"type:uuid;index;not null"`
	ViolationType ViolationType   `json:"violation_type" gorm:"type:varchar(40);not null"`
	Status        ReportStatus    `json:"status" gorm:"type:varchar(32);not null;default:pending;index"`
	ChallanAmount decimal.Decimal `json:"challan_amount" gorm:"type:numeric(12,2);not null;default:0"`
	MLConfidence  *float64        `json:"ml_confidence"`
	MLLabels      pq.StringArray  `json:"ml_labels" gorm:"type:text[]"`
	Points        int             `json:"points" gorm:"not null;default:0"`
	MediaKey      string          `json:"media_key"`
	MediaURL      string          `json:"media_url"`
	NumberPlate   string          `json:"number_plate"`
	Description   string          `json:"description" gorm:"type:varchar(1000)"`
	Location      string          `json:"location"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
}

// MediaRef is what the detection providers are pointed at.
func (r *Report) MediaRef() string {
	if r.MediaKey != "" {
		return r.MediaKey
	}
	return r.MediaURL
}

type CreateReportRequest struct {
	ViolationType string           `json:"violationType" binding:"required" conform:"trim"`
	MediaKey      string           `json:"mediaKey" binding:"required_without=MediaURL" conform:"trim"`
	MediaURL      string           `json:"mediaUrl" binding:"omitempty,url" conform:"trim"`
	Description   string           `json:"description" binding:"max=1000" conform:"trim"`
	Location      string           `json:"location" conform:"trim"`
	Latitude      float64          `json:"latitude" binding:"omitempty,latitude"`
	Longitude     float64          `json:"longitude" binding:"omitempty,longitude"`
	NumberPlate   string           `json:"numberPlate" conform:"trim,upper"`
	ChallanAmount *decimal.Decimal `json:"challanAmount"`
}

// ReportView is a report together with its current vote counts.
type ReportView struct {
	Report    *Report `json:"report"`
	Upvotes   int     `json:"upvotes"`
	Downvotes int     `json:"downvotes"`
}

// AdminDecision is an administrative verdict on a report.
type AdminDecision struct {
	ReportID uuid.UUID    `json:"-"`
	AdminID  uuid.UUID    `json:"-"`
	Decision ReportStatus `json:"decision" binding:"required" conform:"trim"`
}

// TransitionResult describes the outcome of a status change request.
// Applied is false when the report had already moved past the required state.
type TransitionResult struct {
	ReportID     uuid.UUID        `json:"report_id"`
	From         ReportStatus     `json:"from"`
	To           ReportStatus     `json:"to"`
	Source       TransitionSource `json:"source"`
	Applied      bool             `json:"applied"`
	Points       int              `json:"points"`
	PointsBefore int              `json:"-"`
}

// VerifiedDelta is +1 when the transition entered the verified set, -1 when it
// left it, and 0 otherwise.
func (t *TransitionResult) VerifiedDelta() int {
	if !t.Applied {
		return 0
	}
	switch {
	case t.To.IsVerified() && !t.From.IsVerified():
		return 1
	case !t.To.IsVerified() && t.From.IsVerified():
		return -1
	}
	return 0
}
