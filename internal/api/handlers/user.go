package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/utils"
)

type UserHandler struct {
	profileService *services.ProfileService
}

func NewUserHandler(profileService *services.ProfileService) *UserHandler {
	return &UserHandler{profileService: profileService}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.profileService.GetMe(c.Request.Context(), currentUser(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Profile retrieved successfully", user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	user, err := h.profileService.UpdateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Profile updated successfully", user)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), currentUser(c), c.Param("username"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Profile retrieved successfully", profile)
}

func (h *UserHandler) UploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		utils.SendValidationError(c, "A photo file is required")
		return
	}
	defer file.Close()

	photos, err := h.profileService.UploadPhoto(c.Request.Context(), currentUser(c), file, header)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendCreated(c, "Photo uploaded successfully", gin.H{"photos": photos})
}

func (h *UserHandler) DeletePhoto(c *gin.Context) {
	var req services.DeletePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	photos, err := h.profileService.DeletePhoto(c.Request.Context(), currentUser(c), req.URL)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Photo deleted successfully", gin.H{"photos": photos})
}
