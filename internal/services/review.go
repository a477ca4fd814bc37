package services

import (
	"context"
	"math"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

const maxReviewCommentLength = 1000

// Eligibility reasons.
const (
	ReasonNotSeeker       = "only users looking for a place can leave reviews"
	ReasonNotHost         = "only users offering a place can be reviewed"
	ReasonNoMatch         = "you can only review a host who matched with you"
	ReasonAlreadyReviewed = "already reviewed"
)

type ReviewService struct {
	users   store.UserStore
	reviews store.ReviewStore
	now     func() time.Time
}

func NewReviewService(users store.UserStore, reviews store.ReviewStore) *ReviewService {
	return &ReviewService{users: users, reviews: reviews, now: time.Now}
}

type Eligibility struct {
	CanLeave       bool                `json:"canLeave"`
	Reason         string              `json:"reason,omitempty"`
	ExistingStatus models.ReviewStatus `json:"existingStatus,omitempty"`
	ExistingRating int                 `json:"existingRating,omitempty"`
}

type CreateReviewRequest struct {
	Reviewed   string                  `json:"reviewed" binding:"required"`
	Rating     int                     `json:"rating"`
	Categories models.ReviewCategories `json:"categories"`
	Comment    string                  `json:"comment"`
}

type CreateReviewResponse struct {
	ReviewID string              `json:"reviewId"`
	Status   models.ReviewStatus `json:"status"`
}

// ReviewView is a review as shown on a profile. Reviewer and Comment are
// empty when the requester may not see them.
type ReviewView struct {
	ID         string                  `json:"id"`
	Reviewer   string                  `json:"reviewer,omitempty"`
	Rating     int                     `json:"rating"`
	Categories models.ReviewCategories `json:"categories"`
	Comment    string                  `json:"comment,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

type UserReviews struct {
	Reviews        []ReviewView `json:"reviews"`
	CanViewReviews bool         `json:"canViewReviews"`
	Pagination     Pagination   `json:"pagination"`
}

type CategoryAverages struct {
	Cleanliness   float64 `json:"cleanliness"`
	Communication float64 `json:"communication"`
	Accuracy      float64 `json:"accuracy"`
	Location      float64 `json:"location"`
}

type ReviewStats struct {
	ReviewCount      int              `json:"reviewCount"`
	AverageRating    float64          `json:"averageRating"`
	CategoryAverages CategoryAverages `json:"categoryAverages"`
}

type ModerateReviewRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note"`
}

type ReviewPage struct {
	Reviews    []models.Review `json:"reviews"`
	Pagination Pagination      `json:"pagination"`
}

// CanLeaveReview decides whether reviewer may review reviewed. Unknown users
// are an error; every other refusal is reported in the Eligibility.
func (s *ReviewService) CanLeaveReview(ctx context.Context, reviewer, reviewed string) (*Eligibility, error) {
	author, err := s.users.FindUser(ctx, reviewer)
	if err != nil {
		return nil, err
	}
	subject, err := s.users.FindUser(ctx, reviewed)
	if err != nil {
		return nil, err
	}

	if author.HasPlace {
		return &Eligibility{Reason: ReasonNotSeeker}, nil
	}
	if !subject.HasPlace {
		return &Eligibility{Reason: ReasonNotHost}, nil
	}
	if !author.HasLiked(reviewed) {
		return &Eligibility{Reason: ReasonNoMatch}, nil
	}

	existing, err := s.reviews.FindReviewByPair(ctx, reviewer, reviewed)
	if err == nil {
		return &Eligibility{
			Reason:         ReasonAlreadyReviewed,
			ExistingStatus: existing.Status,
			ExistingRating: existing.Rating,
		}, nil
	}
	if !apperrors.Is(err, apperrors.NotFound) {
		return nil, err
	}
	return &Eligibility{CanLeave: true}, nil
}

func validateReview(req *CreateReviewRequest) error {
	if !utils.IsValidRating(req.Rating) {
		return apperrors.Invalidf("rating must be between 1 and 5")
	}
	names := [4]string{"cleanliness", "communication", "accuracy", "location"}
	for i, value := range req.Categories.Values() {
		if !utils.IsValidRating(value) {
			return apperrors.Invalidf("%s rating must be between 1 and 5", names[i])
		}
	}
	req.Comment = utils.SanitizeString(req.Comment)
	if req.Comment == "" {
		return apperrors.Invalidf("comment is required")
	}
	if len([]rune(req.Comment)) > maxReviewCommentLength {
		return apperrors.Invalidf("comment must be at most %d characters", maxReviewCommentLength)
	}
	return nil
}

// CreateReview stores a pending review after validating input and eligibility.
func (s *ReviewService) CreateReview(ctx context.Context, reviewer string, req CreateReviewRequest) (*CreateReviewResponse, error) {
	if err := validateReview(&req); err != nil {
		return nil, err
	}

	eligibility, err := s.CanLeaveReview(ctx, reviewer, req.Reviewed)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanLeave {
		if eligibility.Reason == ReasonAlreadyReviewed {
			return nil, apperrors.Conflictf("you already reviewed %s", req.Reviewed)
		}
		return nil, apperrors.New(apperrors.Forbidden, eligibility.Reason)
	}

	review := &models.Review{
		Reviewer:   reviewer,
		Reviewed:   req.Reviewed,
		Rating:     req.Rating,
		Categories: req.Categories,
		Comment:    req.Comment,
		Status:     models.ReviewPending,
	}
	// The unique (reviewer, reviewed) index turns a concurrent duplicate into Conflict.
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{"reviewer": reviewer, "reviewed": req.Reviewed, "review_id": review.ID}).Info("review created")
	return &CreateReviewResponse{ReviewID: review.ID, Status: review.Status}, nil
}

func canViewReviews(requester *models.User, reviewed string) bool {
	return requester.IsPremium || requester.HasPlace || requester.Username == reviewed
}

// GetReviewsForUser lists approved reviews about reviewed. Access is enforced
// here, not by clients: when canViewReviews denies the requester, entries come
// back without reviewer and comment and CanViewReviews is false.
func (s *ReviewService) GetReviewsForUser(ctx context.Context, requester, reviewed string, query PageQuery) (*UserReviews, error) {
	viewer, err := s.users.FindUser(ctx, requester)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindUser(ctx, reviewed); err != nil {
		return nil, err
	}

	page := query.normalized()
	filter := store.ReviewFilter{
		Reviewed: reviewed,
		Status:   models.ReviewApproved,
		Offset:   page.offset(),
		Limit:    page.Limit,
	}
	reviews, err := s.reviews.ListReviews(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.reviews.CountReviews(ctx, filter)
	if err != nil {
		return nil, err
	}

	allowed := canViewReviews(viewer, reviewed)
	views := make([]ReviewView, 0, len(reviews))
	for _, review := range reviews {
		view := ReviewView{
			ID:         review.ID,
			Rating:     review.Rating,
			Categories: review.Categories,
			CreatedAt:  review.CreatedAt,
		}
		if allowed {
			view.Reviewer = review.Reviewer
			view.Comment = review.Comment
		}
		views = append(views, view)
	}

	return &UserReviews{
		Reviews:        views,
		CanViewReviews: allowed,
		Pagination:     newPagination(page, total),
	}, nil
}

func roundToTenth(value float64) float64 {
	return math.Round(value*10) / 10
}

// ComputeReviewStats averages ratings and categories, rounded to one decimal.
// An empty slice yields all zeros.
func ComputeReviewStats(reviews []models.Review) ReviewStats {
	if len(reviews) == 0 {
		return ReviewStats{}
	}

	var rating float64
	var categories [4]float64
	for _, review := range reviews {
		rating += float64(review.Rating)
		for i, value := range review.Categories.Values() {
			categories[i] += float64(value)
		}
	}

	n := float64(len(reviews))
	return ReviewStats{
		ReviewCount:   len(reviews),
		AverageRating: roundToTenth(rating / n),
		CategoryAverages: CategoryAverages{
			Cleanliness:   roundToTenth(categories[0] / n),
			Communication: roundToTenth(categories[1] / n),
			Accuracy:      roundToTenth(categories[2] / n),
			Location:      roundToTenth(categories[3] / n),
		},
	}
}

// GetReviewStats aggregates the approved reviews about username.
func (s *ReviewService) GetReviewStats(ctx context.Context, username string) (*ReviewStats, error) {
	if _, err := s.users.FindUser(ctx, username); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListReviews(ctx, store.ReviewFilter{Reviewed: username, Status: models.ReviewApproved})
	if err != nil {
		return nil, err
	}
	stats := ComputeReviewStats(reviews)
	return &stats, nil
}

// ModerateReview approves or rejects a review on behalf of admin.
func (s *ReviewService) ModerateReview(ctx context.Context, id, admin string, req ModerateReviewRequest) (*models.Review, error) {
	var status models.ReviewStatus
	switch req.Action {
	case "approve":
		status = models.ReviewApproved
	case "reject":
		status = models.ReviewRejected
	default:
		return nil, apperrors.Invalidf("action must be approve or reject")
	}

	review, err := s.reviews.ModerateReview(ctx, id, status, admin, utils.SanitizeString(req.Note), s.now())
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{"admin": admin, "review_id": id, "status": status}).Info("review moderated")
	return review, nil
}

func (s *ReviewService) ListPendingReviews(ctx context.Context, query PageQuery) (*ReviewPage, error) {
	page := query.normalized()
	filter := store.ReviewFilter{Status: models.ReviewPending, Offset: page.offset(), Limit: page.Limit}

	reviews, err := s.reviews.ListReviews(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.reviews.CountReviews(ctx, filter)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &ReviewPage{Reviews: reviews, Pagination: newPagination(page, total)}, nil
}
