package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), currentUser(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendCreated(c, "Review submitted for moderation", review)
}

func (h *ReviewHandler) Eligibility(c *gin.Context) {
	eligibility, err := h.reviewService.CanLeaveReview(c.Request.Context(), currentUser(c), c.Param("username"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Eligibility retrieved successfully", eligibility)
}

func (h *ReviewHandler) GetUserReviews(c *gin.Context) {
	var query services.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	reviews, err := h.reviewService.GetReviewsForUser(c.Request.Context(), currentUser(c), c.Param("username"), query)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) GetUserStats(c *gin.Context) {
	stats, err := h.reviewService.GetReviewStats(c.Request.Context(), c.Param("username"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Review stats retrieved successfully", stats)
}

func (h *ReviewHandler) GetPendingReviews(c *gin.Context) {
	var query services.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	reviews, err := h.reviewService.ListPendingReviews(c.Request.Context(), query)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Pending reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	var req services.ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	review, err := h.reviewService.ModerateReview(c.Request.Context(), c.Param("review_id"), currentUser(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Review moderated successfully", review)
}
