package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

type ReviewCategories struct {
	Cleanliness   int `json:"cleanliness" bson:"cleanliness"`
	Communication int `json:"communication" bson:"communication"`
	Accuracy      int `json:"accuracy" bson:"accuracy"`
	Location      int `json:"location" bson:"location"`
}

// Values returns the four scores in declaration order.
func (c ReviewCategories) Values() [4]int {
	return [4]int{c.Cleanliness, c.Communication, c.Accuracy, c.Location}
}

// Review is left by a seeker about a host they matched with. One per pair.
type Review struct {
	ID             string           `json:"id" gorm:"primaryKey;type:uuid" bson:"_id"`
	Reviewer       string           `json:"reviewer" gorm:"not null;uniqueIndex:idx_review_pair" bson:"reviewer"`
	Reviewed       string           `json:"reviewed" gorm:"not null;uniqueIndex:idx_review_pair;index" bson:"reviewed"`
	Rating         int              `json:"rating" gorm:"check:rating >= 1 AND rating <= 5" bson:"rating"`
	Categories     ReviewCategories `json:"categories" gorm:"embedded;embeddedPrefix:category_" bson:"categories"`
	Comment        string           `json:"comment" bson:"comment"`
	Status         ReviewStatus     `json:"status" gorm:"default:pending;index" bson:"status"`
	ModeratedAt    *time.Time       `json:"moderated_at,omitempty" bson:"moderatedAt,omitempty"`
	ModeratedBy    string           `json:"moderated_by,omitempty" bson:"moderatedBy"`
	ModerationNote string           `json:"moderation_note,omitempty" bson:"moderationNote"`
	CreatedAt      time.Time        `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time        `json:"updated_at" bson:"updatedAt"`
}

func (r *Review) EnsureID() {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	r.EnsureID()
	return nil
}
