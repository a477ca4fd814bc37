package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/utils"
)

type PasswordHandler struct {
	authService *services.AuthService
}

func NewPasswordHandler(authService *services.AuthService) *PasswordHandler {
	return &PasswordHandler{
		authService: authService,
	}
}

func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req services.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "If your email exists in our system, you will receive a reset code shortly", nil)
}

func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Password reset successfully. Please login with your new password", nil)
}

func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), currentUser(c), req); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Password changed successfully", nil)
}
