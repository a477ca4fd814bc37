package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReview(reviewed string, rating int) CreateReviewRequest {
	return CreateReviewRequest{
		Reviewed:   reviewed,
		Rating:     rating,
		Categories: models.ReviewCategories{Cleanliness: 4, Communication: 5, Accuracy: 3, Location: 4},
		Comment:    "  Very tidy place  ",
	}
}

func TestReviewService_CanLeaveReview(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "seeker", false)
	seedUser(t, st, "seeker2", false)
	seedUser(t, st, "host", true)
	seedUser(t, st, "host2", true)
	svc := NewReviewService(st, st)

	like(t, st, "host", "seeker")

	tests := []struct {
		name     string
		reviewer string
		reviewed string
		canLeave bool
		reason   string
	}{
		{"seeker with match reviews host", "seeker", "host", true, ""},
		{"host cannot review", "host", "host2", false, ReasonNotSeeker},
		{"seeker cannot be reviewed", "seeker", "seeker2", false, ReasonNotHost},
		{"no match", "seeker", "host2", false, ReasonNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanLeaveReview(ctx, tt.reviewer, tt.reviewed)
			require.NoError(t, err)
			assert.Equal(t, tt.canLeave, got.CanLeave)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}

	_, err := svc.CanLeaveReview(ctx, "seeker", "ghost")
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestReviewService_CreateReviewValidation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewReviewService(st, st)

	badRating := validReview("host", 6)
	badCategory := validReview("host", 4)
	badCategory.Categories.Location = 0
	noComment := validReview("host", 4)
	noComment.Comment = "   "

	for _, req := range []CreateReviewRequest{badRating, badCategory, noComment} {
		_, err := svc.CreateReview(ctx, "seeker", req)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	}
}

func TestReviewService_CreateReviewIsUniquePerPair(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "seeker", false)
	seedUser(t, st, "host", true)
	like(t, st, "host", "seeker")
	svc := NewReviewService(st, st)

	res, err := svc.CreateReview(ctx, "seeker", validReview("host", 4))
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPending, res.Status)
	assert.NotEmpty(t, res.ReviewID)

	_, err = svc.CreateReview(ctx, "seeker", validReview("host", 2))
	assert.True(t, apperrors.Is(err, apperrors.Conflict))

	eligibility, err := svc.CanLeaveReview(ctx, "seeker", "host")
	require.NoError(t, err)
	assert.False(t, eligibility.CanLeave)
	assert.Equal(t, ReasonAlreadyReviewed, eligibility.Reason)
	assert.Equal(t, models.ReviewPending, eligibility.ExistingStatus)
	assert.Equal(t, 4, eligibility.ExistingRating)
}

func TestReviewService_CreateReviewRoleInvariant(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "host", true)
	seedUser(t, st, "host2", true)
	like(t, st, "host2", "host")
	svc := NewReviewService(st, st)

	_, err := svc.CreateReview(ctx, "host", validReview("host2", 5))
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))

	count, err := st.CountReviews(ctx, store.ReviewFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReviewService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "seeker", false)
	seedUser(t, st, "host", true)
	seedUser(t, st, "other", false)
	like(t, st, "host", "seeker")
	svc := NewReviewService(st, st)

	res, err := svc.CreateReview(ctx, "seeker", validReview("host", 4))
	require.NoError(t, err)

	stats, err := svc.GetReviewStats(ctx, "host")
	require.NoError(t, err)
	assert.Zero(t, stats.ReviewCount)

	pending, err := svc.ListPendingReviews(ctx, PageQuery{})
	require.NoError(t, err)
	require.Len(t, pending.Reviews, 1)

	moderated, err := svc.ModerateReview(ctx, res.ReviewID, "admin", ModerateReviewRequest{Action: "approve", Note: "fine"})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewApproved, moderated.Status)
	assert.Equal(t, "admin", moderated.ModeratedBy)
	require.NotNil(t, moderated.ModeratedAt)

	stats, err = svc.GetReviewStats(ctx, "host")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ReviewCount)
	assert.Equal(t, 4.0, stats.AverageRating)
	assert.Equal(t, 5.0, stats.CategoryAverages.Communication)

	// The host sees everything, the non-premium seeker only ratings.
	own, err := svc.GetReviewsForUser(ctx, "host", "host", PageQuery{})
	require.NoError(t, err)
	assert.True(t, own.CanViewReviews)
	require.Len(t, own.Reviews, 1)
	assert.Equal(t, "seeker", own.Reviews[0].Reviewer)
	assert.Equal(t, "Very tidy place", own.Reviews[0].Comment)

	redacted, err := svc.GetReviewsForUser(ctx, "other", "host", PageQuery{})
	require.NoError(t, err)
	assert.False(t, redacted.CanViewReviews)
	require.Len(t, redacted.Reviews, 1)
	assert.Empty(t, redacted.Reviews[0].Reviewer)
	assert.Empty(t, redacted.Reviews[0].Comment)
	assert.Equal(t, 4, redacted.Reviews[0].Rating)

	require.NoError(t, st.UpdateUser(ctx, "other", store.Updates{store.FieldIsPremium: true}))
	premium, err := svc.GetReviewsForUser(ctx, "other", "host", PageQuery{})
	require.NoError(t, err)
	assert.True(t, premium.CanViewReviews)
}

func TestReviewService_ModerateReviewRejectsUnknownAction(t *testing.T) {
	st := store.NewMemory()
	svc := NewReviewService(st, st)

	_, err := svc.ModerateReview(context.Background(), "id", "admin", ModerateReviewRequest{Action: "delete"})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
}

func TestComputeReviewStats(t *testing.T) {
	assert.Equal(t, ReviewStats{}, ComputeReviewStats(nil))

	reviews := []models.Review{
		{Rating: 5, Categories: models.ReviewCategories{Cleanliness: 5, Communication: 4, Accuracy: 5, Location: 3}},
		{Rating: 4, Categories: models.ReviewCategories{Cleanliness: 4, Communication: 4, Accuracy: 5, Location: 3}},
		{Rating: 4, Categories: models.ReviewCategories{Cleanliness: 4, Communication: 5, Accuracy: 4, Location: 2}},
	}
	stats := ComputeReviewStats(reviews)
	assert.Equal(t, 3, stats.ReviewCount)
	assert.Equal(t, 4.3, stats.AverageRating)
	assert.Equal(t, 4.3, stats.CategoryAverages.Cleanliness)
	assert.Equal(t, 4.3, stats.CategoryAverages.Communication)
	assert.Equal(t, 4.7, stats.CategoryAverages.Accuracy)
	assert.Equal(t, 2.7, stats.CategoryAverages.Location)

	// Pure: same input, same output, input untouched.
	assert.Equal(t, stats, ComputeReviewStats(reviews))
	assert.Equal(t, 5, reviews[0].Rating)

	raw, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"reviewCount": 3,
		"averageRating": 4.3,
		"categoryAverages": {"cleanliness": 4.3, "communication": 4.3, "accuracy": 4.7, "location": 2.7}
	}`, string(raw))
}
