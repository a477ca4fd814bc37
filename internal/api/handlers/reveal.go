package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/utils"
)

type RevealHandler struct {
	revealService *services.RevealService
}

func NewRevealHandler(revealService *services.RevealService) *RevealHandler {
	return &RevealHandler{revealService: revealService}
}

func (h *RevealHandler) Reveal(c *gin.Context) {
	var req services.RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	info, err := h.revealService.RevealInfo(c.Request.Context(), currentUser(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Information revealed", info)
}

func (h *RevealHandler) Status(c *gin.Context) {
	status, err := h.revealService.GetRevealStatus(c.Request.Context(), currentUser(c), c.Param("username"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Reveal status retrieved successfully", status)
}
