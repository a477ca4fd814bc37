package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountBanned    AccountStatus = "banned"
)

// User is a roommate seeker (HasPlace=false) or host (HasPlace=true).
//
// IsMatch holds the usernames that liked this user and NotMatch the ones that
// passed on them. A mutual match between A and B exists when each appears in
// the other's IsMatch.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid" bson:"_id"`
	Username string `json:"username" gorm:"uniqueIndex;not null" bson:"username"`
	Email    string `json:"email" gorm:"uniqueIndex;not null" bson:"email"`
	Password string `json:"-" gorm:"not null" bson:"password"`
	Name     string `json:"name" bson:"name"`
	Bio      string `json:"bio" bson:"bio"`
	Age      int    `json:"age" bson:"age"`

	HasPlace   bool `json:"has_place" gorm:"default:false" bson:"hasPlace"`
	IsPremium  bool `json:"is_premium" gorm:"default:false" bson:"isPremium"`
	IsAdmin    bool `json:"is_admin" gorm:"default:false" bson:"isAdmin"`
	IsVerified bool `json:"is_verified" gorm:"default:false" bson:"isVerified"`

	// Sensitive fields, disclosed to a match only through RevealedInfo.
	Zones   pq.StringArray `json:"zones" gorm:"type:text[]" bson:"zones"`
	Budget  int            `json:"budget" bson:"budget"`
	Contact string         `json:"contact" bson:"contact"`

	Preferences Preferences    `json:"preferences" gorm:"serializer:json;type:text" bson:"preferences"`
	Photos      pq.StringArray `json:"photos" gorm:"type:text[]" bson:"photos"`

	IsMatch      pq.StringArray `json:"is_match" gorm:"type:text[]" bson:"isMatch"`
	NotMatch     pq.StringArray `json:"not_match" gorm:"type:text[]" bson:"notMatch"`
	BlockedUsers pq.StringArray `json:"blocked_users" gorm:"type:text[]" bson:"blockedUsers"`
	RevealedInfo []RevealedInfo `json:"revealed_info" gorm:"foreignKey:Owner;references:Username;constraint:OnDelete:CASCADE" bson:"revealedInfo"`

	AccountStatus  AccountStatus `json:"account_status" gorm:"default:active;index" bson:"accountStatus"`
	SuspendedUntil *time.Time    `json:"suspended_until,omitempty" bson:"suspendedUntil,omitempty"`

	VerificationCode      string     `json:"-" bson:"verificationCode"`
	VerificationExpiresAt *time.Time `json:"-" bson:"verificationExpiresAt,omitempty"`
	ResetCode             string     `json:"-" bson:"resetCode"`
	ResetCodeExpiresAt    *time.Time `json:"-" bson:"resetCodeExpiresAt,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" bson:"updatedAt"`
}

// EnsureID assigns a UUID when the user has none yet.
func (u *User) EnsureID() {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
}

// EnsureSets replaces nil list fields with empty ones. Document stores keep
// a nil slice as null, and array operators refuse to update a null field.
func (u *User) EnsureSets() {
	if u.Zones == nil {
		u.Zones = pq.StringArray{}
	}
	if u.Photos == nil {
		u.Photos = pq.StringArray{}
	}
	if u.IsMatch == nil {
		u.IsMatch = pq.StringArray{}
	}
	if u.NotMatch == nil {
		u.NotMatch = pq.StringArray{}
	}
	if u.BlockedUsers == nil {
		u.BlockedUsers = pq.StringArray{}
	}
	if u.RevealedInfo == nil {
		u.RevealedInfo = []RevealedInfo{}
	}
}

// BeforeCreate is the GORM hook that assigns the UUID primary key.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.EnsureID()
	return nil
}

// SetPassword replaces the stored password with its bcrypt hash.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies the password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// HasLiked reports whether other appears in u.IsMatch, i.e. other liked u.
func (u *User) HasLiked(other string) bool {
	return slices.Contains(u.IsMatch, other)
}

func (u *User) HasBlocked(other string) bool {
	return slices.Contains(u.BlockedUsers, other)
}

// IsSuspendedAt reports whether a suspension is still running at t.
func (u *User) IsSuspendedAt(t time.Time) bool {
	return u.AccountStatus == AccountSuspended && u.SuspendedUntil != nil && u.SuspendedUntil.After(t)
}

// RevealedTo returns u's disclosure record for counterpart, or nil.
func (u *User) RevealedTo(counterpart string) *RevealedInfo {
	for i := range u.RevealedInfo {
		if u.RevealedInfo[i].MatchedUser == counterpart {
			return &u.RevealedInfo[i]
		}
	}
	return nil
}

type InfoType string

const (
	InfoZones   InfoType = "zones"
	InfoBudget  InfoType = "budget"
	InfoContact InfoType = "contact"
)

func (t InfoType) IsValid() bool {
	switch t {
	case InfoZones, InfoBudget, InfoContact:
		return true
	}
	return false
}

// RevealedInfo records which sensitive fields Owner disclosed to MatchedUser.
// The flags only ever go from false to true.
type RevealedInfo struct {
	Owner           string    `json:"-" gorm:"primaryKey" bson:"-"`
	MatchedUser     string    `json:"matched_user" gorm:"primaryKey" bson:"matchedUser"`
	RevealedZones   bool      `json:"revealed_zones" gorm:"default:false" bson:"revealedZones"`
	RevealedBudget  bool      `json:"revealed_budget" gorm:"default:false" bson:"revealedBudget"`
	RevealedContact bool      `json:"revealed_contact" gorm:"default:false" bson:"revealedContact"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updatedAt"`
}

func (RevealedInfo) TableName() string {
	return "revealed_infos"
}

// Set flips the flag matching infoType to true.
func (r *RevealedInfo) Set(infoType InfoType) {
	switch infoType {
	case InfoZones:
		r.RevealedZones = true
	case InfoBudget:
		r.RevealedBudget = true
	case InfoContact:
		r.RevealedContact = true
	}
}

// Column is the storage column/field backing infoType's flag.
func (t InfoType) Column() string {
	switch t {
	case InfoZones:
		return "revealed_zones"
	case InfoBudget:
		return "revealed_budget"
	default:
		return "revealed_contact"
	}
}

// Field is the document field name backing infoType's flag.
func (t InfoType) Field() string {
	switch t {
	case InfoZones:
		return "revealedZones"
	case InfoBudget:
		return "revealedBudget"
	default:
		return "revealedContact"
	}
}
