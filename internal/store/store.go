// Package store is the persistence contract the services depend on.
//
// Every mutating method is a single atomic update of one record: set a field,
// add to a set, pull from a set. Operations that must touch two users (unmatch,
// block) are composed by the caller from two such calls.
package store

import (
	"context"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/models"
)

// UserSet names one of the string-set fields of a user.
type UserSet string

const (
	SetIsMatch      UserSet = "is_match"
	SetNotMatch     UserSet = "not_match"
	SetBlockedUsers UserSet = "blocked_users"
	SetPhotos       UserSet = "photos"
)

// Field names a scalar user field that UpdateUser can set.
type Field string

const (
	FieldName                  Field = "name"
	FieldBio                   Field = "bio"
	FieldAge                   Field = "age"
	FieldHasPlace              Field = "has_place"
	FieldIsPremium             Field = "is_premium"
	FieldIsVerified            Field = "is_verified"
	FieldZones                 Field = "zones"
	FieldBudget                Field = "budget"
	FieldContact               Field = "contact"
	FieldPreferences           Field = "preferences"
	FieldPassword              Field = "password"
	FieldAccountStatus         Field = "account_status"
	FieldSuspendedUntil        Field = "suspended_until"
	FieldVerificationCode      Field = "verification_code"
	FieldVerificationExpiresAt Field = "verification_expires_at"
	FieldResetCode             Field = "reset_code"
	FieldResetCodeExpiresAt    Field = "reset_code_expires_at"
)

// Updates maps fields to their new values. Value types: string for text
// fields and Password, int for Age and Budget, bool for flags, []string for
// Zones, models.Preferences, models.AccountStatus and *time.Time.
type Updates map[Field]interface{}

type UserFilter struct {
	Status   models.AccountStatus
	HasPlace *bool
	// Viewer, when set, drops the viewer and every user the viewer already
	// swiped on or was blocked by.
	Viewer  string
	Exclude []string
	Offset  int
	Limit   int
}

type ReviewFilter struct {
	Reviewed string
	Status   models.ReviewStatus
	Offset   int
	Limit    int
}

type ReportFilter struct {
	ReportedUser string
	Status       models.ReportStatus
	Offset       int
	Limit        int
}

// ReportReview is what an admin stamps on a report when moving it.
type ReportReview struct {
	Status      models.ReportStatus
	ReviewedBy  string
	ReviewDate  time.Time
	ActionTaken string
	Notes       string
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error)
	CountUsers(ctx context.Context, filter UserFilter) (int64, error)
	UpdateUser(ctx context.Context, username string, updates Updates) error
	DeleteUser(ctx context.Context, username string) error
	AddToSet(ctx context.Context, username string, set UserSet, value string) error
	PullFromSet(ctx context.Context, username string, set UserSet, value string) error
	// RevealInfo upserts owner's disclosure record for counterpart and sets one flag.
	RevealInfo(ctx context.Context, owner, counterpart string, infoType models.InfoType) (*models.RevealedInfo, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	FindReview(ctx context.Context, id string) (*models.Review, error)
	FindReviewByPair(ctx context.Context, reviewer, reviewed string) (*models.Review, error)
	ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error)
	CountReviews(ctx context.Context, filter ReviewFilter) (int64, error)
	ModerateReview(ctx context.Context, id string, status models.ReviewStatus, moderatedBy, note string, at time.Time) (*models.Review, error)
}

type ReportStore interface {
	CreateReport(ctx context.Context, report *models.Report) error
	FindReport(ctx context.Context, id string) (*models.Report, error)
	FindReportByPair(ctx context.Context, reportedUser, reportedBy string) (*models.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, error)
	CountReports(ctx context.Context, filter ReportFilter) (int64, error)
	// UpdateReport applies review only while the report is still in status from.
	UpdateReport(ctx context.Context, id string, from models.ReportStatus, review ReportReview) (*models.Report, error)
}

type ChatStore interface {
	FindOrCreateChat(ctx context.Context, a, b string) (*models.Chat, error)
	// FindChat loads the chat with its messages, oldest first.
	FindChat(ctx context.Context, id string) (*models.Chat, error)
	ListChats(ctx context.Context, username string) ([]models.Chat, error)
	AppendMessage(ctx context.Context, chatID string, msg *models.Message) error
	// MarkRead marks the messages sent to reader in the chat as read.
	MarkRead(ctx context.Context, chatID, reader string) (int64, error)
}

type Store interface {
	UserStore
	ReviewStore
	ReportStore
	ChatStore
	Close(ctx context.Context) error
}

func page(total, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return offset, end
}
