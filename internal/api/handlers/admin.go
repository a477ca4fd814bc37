package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/utils"
)

type AdminHandler struct {
	adminService   *services.AdminService
	profileService *services.ProfileService
}

func NewAdminHandler(adminService *services.AdminService, profileService *services.ProfileService) *AdminHandler {
	return &AdminHandler{adminService: adminService, profileService: profileService}
}

func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Dashboard data retrieved successfully", stats)
}

func (h *AdminHandler) GetReports(c *gin.Context) {
	var query services.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	reports, err := h.adminService.ListReports(c.Request.Context(), query)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Reports retrieved successfully", reports)
}

func (h *AdminHandler) GetReport(c *gin.Context) {
	report, err := h.adminService.GetReport(c.Request.Context(), c.Param("report_id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Report retrieved successfully", report)
}

func (h *AdminHandler) UpdateReport(c *gin.Context) {
	var req services.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	report, err := h.adminService.UpdateReportStatus(c.Request.Context(), c.Param("report_id"), currentUser(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Report updated successfully", report)
}

func (h *AdminHandler) UserAction(c *gin.Context) {
	var req services.UserActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	response, err := h.adminService.ApplyAction(c.Request.Context(), currentUser(c), c.Param("username"), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Action applied successfully", response)
}

func (h *AdminHandler) SetPremium(c *gin.Context) {
	var req services.SetPremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	user, err := h.profileService.SetPremium(c.Request.Context(), currentUser(c), c.Param("username"), *req.IsPremium)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Premium status updated", user)
}

func (h *AdminHandler) CheckContent(c *gin.Context) {
	var req services.ModerationCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	utils.SendSuccess(c, "Content checked", h.adminService.CheckContent(req.Text))
}
