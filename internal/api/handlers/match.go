package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/utils"
)

type MatchHandler struct {
	matchService *services.MatchService
}

func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) Swipe(c *gin.Context) {
	var req services.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	response, err := h.matchService.RecordSwipe(c.Request.Context(), currentUser(c), req.TargetUsername, *req.Liked)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Swipe recorded", response)
}

func (h *MatchHandler) Unmatch(c *gin.Context) {
	if err := h.matchService.Unmatch(c.Request.Context(), currentUser(c), c.Param("username")); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Match removed", gin.H{"ok": true})
}

func (h *MatchHandler) Candidates(c *gin.Context) {
	var query services.CandidateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	page, err := h.matchService.Candidates(c.Request.Context(), currentUser(c), query)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Candidates retrieved successfully", page)
}

func (h *MatchHandler) ListMatches(c *gin.Context) {
	matches, err := h.matchService.ListMatches(c.Request.Context(), currentUser(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Matches retrieved successfully", gin.H{"matches": matches})
}

func (h *MatchHandler) Block(c *gin.Context) {
	var req services.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	blocked, err := h.matchService.Block(c.Request.Context(), currentUser(c), req.TargetUsername)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "User blocked", services.BlockResponse{OK: true, BlockedUsers: blocked})
}

func (h *MatchHandler) Unblock(c *gin.Context) {
	blocked, err := h.matchService.Unblock(c.Request.Context(), currentUser(c), c.Param("username"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "User unblocked", services.BlockResponse{OK: true, BlockedUsers: blocked})
}
