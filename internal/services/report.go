package services

import (
	"context"
	"fmt"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

const maxReportDescriptionLength = 1000

type ReportService struct {
	users            store.UserStore
	reports          store.ReportStore
	warningThreshold int
}

func NewReportService(users store.UserStore, reports store.ReportStore, warningThreshold int) *ReportService {
	if warningThreshold < 1 {
		warningThreshold = 5
	}
	return &ReportService{users: users, reports: reports, warningThreshold: warningThreshold}
}

type CreateReportRequest struct {
	ReportedUser string `json:"reportedUser" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
	Description  string `json:"description"`
}

type CreateReportResponse struct {
	ReportID string `json:"reportId"`
	Warning  string `json:"warning,omitempty"`
}

// CreateReport files reportedBy's report. Once the reported user has
// collected warningThreshold pending reports the response carries a warning;
// no sanction is applied automatically.
func (s *ReportService) CreateReport(ctx context.Context, reportedBy string, req CreateReportRequest) (*CreateReportResponse, error) {
	if reportedBy == req.ReportedUser {
		return nil, apperrors.Forbiddenf("you cannot report yourself")
	}
	reason := models.ReportReason(req.Reason)
	if !reason.IsValid() {
		return nil, apperrors.Invalidf("invalid report reason %q", req.Reason)
	}
	description := utils.SanitizeString(req.Description)
	if len([]rune(description)) > maxReportDescriptionLength {
		return nil, apperrors.Invalidf("description must be at most %d characters", maxReportDescriptionLength)
	}
	if _, err := s.users.FindUser(ctx, req.ReportedUser); err != nil {
		return nil, err
	}

	report := &models.Report{
		ReportedUser: req.ReportedUser,
		ReportedBy:   reportedBy,
		Reason:       reason,
		Description:  description,
		Status:       models.ReportPending,
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	log := logger.WithFields(logger.Fields{"report_id": report.ID, "reported_user": req.ReportedUser, "reported_by": reportedBy, "reason": reason})
	log.Info("report created")

	response := &CreateReportResponse{ReportID: report.ID}
	pending, err := s.reports.CountReports(ctx, store.ReportFilter{ReportedUser: req.ReportedUser, Status: models.ReportPending})
	if err != nil {
		log.WithError(err).Warn("could not count pending reports")
		return response, nil
	}
	if pending >= int64(s.warningThreshold) {
		response.Warning = fmt.Sprintf("%s has %d pending reports and needs admin review", req.ReportedUser, pending)
		log.WithField("pending_reports", pending).Warn("report threshold reached")
	}
	return response, nil
}
