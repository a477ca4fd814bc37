package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportReason string

const (
	ReasonHarassment           ReportReason = "harassment"
	ReasonSpam                 ReportReason = "spam"
	ReasonInappropriateContent ReportReason = "inappropriate_content"
	ReasonFakeProfile          ReportReason = "fake_profile"
	ReasonScam                 ReportReason = "scam"
	ReasonHateSpeech           ReportReason = "hate_speech"
	ReasonViolence             ReportReason = "violence"
	ReasonUnderage             ReportReason = "underage"
	ReasonImpersonation        ReportReason = "impersonation"
	ReasonOther                ReportReason = "other"
)

var ReportReasons = []ReportReason{
	ReasonHarassment,
	ReasonSpam,
	ReasonInappropriateContent,
	ReasonFakeProfile,
	ReasonScam,
	ReasonHateSpeech,
	ReasonViolence,
	ReasonUnderage,
	ReasonImpersonation,
	ReasonOther,
}

func (r ReportReason) IsValid() bool {
	for _, reason := range ReportReasons {
		if r == reason {
			return true
		}
	}
	return false
}

type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportReviewed    ReportStatus = "reviewed"
	ReportActionTaken ReportStatus = "action_taken"
	ReportDismissed   ReportStatus = "dismissed"
)

// CanTransitionTo reports whether an admin may move a report from s to next.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	switch s {
	case ReportPending:
		return next == ReportReviewed || next == ReportActionTaken || next == ReportDismissed
	case ReportReviewed:
		return next == ReportActionTaken || next == ReportDismissed
	}
	return false
}

// Report is an abuse report; one per (ReportedUser, ReportedBy) pair.
type Report struct {
	ID           string       `json:"id" gorm:"primaryKey;type:uuid" bson:"_id"`
	ReportedUser string       `json:"reported_user" gorm:"not null;uniqueIndex:idx_report_pair;index" bson:"reportedUser"`
	ReportedBy   string       `json:"reported_by" gorm:"not null;uniqueIndex:idx_report_pair" bson:"reportedBy"`
	Reason       ReportReason `json:"reason" gorm:"not null" bson:"reason"`
	Description  string       `json:"description" bson:"description"`
	Status       ReportStatus `json:"status" gorm:"not null;default:pending;index" bson:"status"`
	ReviewedBy   string       `json:"reviewed_by,omitempty" bson:"reviewedBy"`
	ReviewDate   *time.Time   `json:"review_date,omitempty" bson:"reviewDate,omitempty"`
	ActionTaken  string       `json:"action_taken,omitempty" bson:"actionTaken"`
	Notes        string       `json:"notes,omitempty" bson:"notes"`
	CreatedAt    time.Time    `json:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updatedAt"`
}

func (r *Report) EnsureID() {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	r.EnsureID()
	return nil
}
