package services

import (
	"context"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/moderation"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

// User sanctions an admin can apply.
const (
	ActionWarning = "warning"
	ActionSuspend = "suspend"
	ActionBan     = "ban"
	ActionDelete  = "delete"
)

type AdminService struct {
	store     store.Store
	sanctions SanctionCache
	mailer    Mailer
	moderator ContentModerator
	now       func() time.Time
}

func NewAdminService(store store.Store, sanctions SanctionCache, mailer Mailer, moderator ContentModerator) *AdminService {
	return &AdminService{
		store:     store,
		sanctions: sanctions,
		mailer:    mailer,
		moderator: moderator,
		now:       time.Now,
	}
}

type ReportQuery struct {
	PageQuery
	Status string `form:"status"`
}

type ReportPage struct {
	Reports    []models.Report `json:"reports"`
	Pagination Pagination      `json:"pagination"`
}

type UpdateReportRequest struct {
	Status      string `json:"status" binding:"required"`
	ActionTaken string `json:"actionTaken"`
	Notes       string `json:"notes"`
}

type UserActionRequest struct {
	Action       string `json:"action" binding:"required"`
	DurationDays int    `json:"durationDays"`
	Reason       string `json:"reason"`
}

type UserActionResponse struct {
	Username       string               `json:"username"`
	Action         string               `json:"action"`
	AccountStatus  models.AccountStatus `json:"accountStatus,omitempty"`
	SuspendedUntil *time.Time           `json:"suspendedUntil,omitempty"`
}

type DashboardStats struct {
	TotalUsers     int64 `json:"total_users"`
	ActiveUsers    int64 `json:"active_users"`
	SuspendedUsers int64 `json:"suspended_users"`
	BannedUsers    int64 `json:"banned_users"`
	PendingReviews int64 `json:"pending_reviews"`
	PendingReports int64 `json:"pending_reports"`
	TotalReports   int64 `json:"total_reports"`
}

type ModerationCheckRequest struct {
	Text string `json:"text"`
}

type ModerationPreview struct {
	IsClean        bool                `json:"isClean"`
	Reason         string              `json:"reason,omitempty"`
	DetectedWords  []string            `json:"detectedWords"`
	PrivacyWarning bool                `json:"privacyWarning"`
	Severity       moderation.Severity `json:"severity"`
	Censored       string              `json:"censored"`
}

func (s *AdminService) ListReports(ctx context.Context, query ReportQuery) (*ReportPage, error) {
	status := models.ReportStatus(query.Status)
	if status != "" && !isReportStatus(status) {
		return nil, apperrors.Invalidf("invalid report status %q", query.Status)
	}

	page := query.PageQuery.normalized()
	filter := store.ReportFilter{Status: status, Offset: page.offset(), Limit: page.Limit}
	reports, err := s.store.ListReports(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountReports(ctx, filter)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return &ReportPage{Reports: reports, Pagination: newPagination(page, total)}, nil
}

func (s *AdminService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	return s.store.FindReport(ctx, id)
}

func isReportStatus(status models.ReportStatus) bool {
	switch status {
	case models.ReportPending, models.ReportReviewed, models.ReportActionTaken, models.ReportDismissed:
		return true
	}
	return false
}

// UpdateReportStatus moves a report along its workflow and stamps the reviewer.
// The store applies the change only if the report has not moved meanwhile.
func (s *AdminService) UpdateReportStatus(ctx context.Context, id, admin string, req UpdateReportRequest) (*models.Report, error) {
	next := models.ReportStatus(req.Status)
	if !isReportStatus(next) {
		return nil, apperrors.Invalidf("invalid report status %q", req.Status)
	}

	report, err := s.store.FindReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !report.Status.CanTransitionTo(next) {
		return nil, apperrors.Forbiddenf("report cannot move from %s to %s", report.Status, next)
	}

	updated, err := s.store.UpdateReport(ctx, id, report.Status, store.ReportReview{
		Status:      next,
		ReviewedBy:  admin,
		ReviewDate:  s.now(),
		ActionTaken: utils.SanitizeString(req.ActionTaken),
		Notes:       utils.SanitizeString(req.Notes),
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{"admin": admin, "report_id": id, "from": report.Status, "to": next}).Info("report status updated")
	return updated, nil
}

// ApplyAction sanctions username. Warnings only notify; suspensions and bans
// change the account status and are mirrored into the sanction cache.
func (s *AdminService) ApplyAction(ctx context.Context, admin, username string, req UserActionRequest) (*UserActionResponse, error) {
	if admin == username {
		return nil, apperrors.Forbiddenf("you cannot sanction yourself")
	}
	switch req.Action {
	case ActionWarning, ActionSuspend, ActionBan, ActionDelete:
	default:
		return nil, apperrors.Invalidf("unknown action %q", req.Action)
	}
	if req.Action == ActionSuspend && req.DurationDays < 1 {
		return nil, apperrors.Invalidf("suspension requires durationDays of at least 1")
	}

	user, err := s.store.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}

	reason := utils.SanitizeString(req.Reason)
	response := &UserActionResponse{Username: username, Action: req.Action, AccountStatus: user.AccountStatus}
	log := logger.WithFields(logger.Fields{"admin": admin, "user": username, "action": req.Action, "reason": reason})

	switch req.Action {
	case ActionWarning:
		log.Warn("user warned")

	case ActionSuspend:
		until := s.now().AddDate(0, 0, req.DurationDays)
		if err := s.store.UpdateUser(ctx, username, store.Updates{
			store.FieldAccountStatus:  models.AccountSuspended,
			store.FieldSuspendedUntil: &until,
		}); err != nil {
			return nil, err
		}
		if err := s.sanctions.Suspend(ctx, user.ID, until); err != nil {
			log.WithError(err).Error("failed to cache suspension")
		}
		response.AccountStatus = models.AccountSuspended
		response.SuspendedUntil = &until
		log.WithField("until", until).Info("user suspended")

	case ActionBan:
		if err := s.store.UpdateUser(ctx, username, store.Updates{
			store.FieldAccountStatus:  models.AccountBanned,
			store.FieldSuspendedUntil: (*time.Time)(nil),
		}); err != nil {
			return nil, err
		}
		if err := s.sanctions.Ban(ctx, user.ID); err != nil {
			log.WithError(err).Error("failed to cache ban")
		}
		response.AccountStatus = models.AccountBanned
		log.Info("user banned")

	case ActionDelete:
		if err := s.store.DeleteUser(ctx, username); err != nil {
			return nil, err
		}
		// Outstanding tokens of a deleted account are refused like a ban. The
		// key is the account ID, so a later account reusing the username is unaffected.
		if err := s.sanctions.Ban(ctx, user.ID); err != nil {
			log.WithError(err).Error("failed to cache deletion")
		}
		response.AccountStatus = ""
		log.Info("user deleted")
	}

	if s.mailer != nil {
		if err := s.mailer.SendSanctionNotice(user.Email, username, req.Action, reason, response.SuspendedUntil); err != nil {
			log.WithError(err).Warn("failed to send sanction notice")
		}
	}
	return response, nil
}

func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	counts := []struct {
		target *int64
		count  func() (int64, error)
	}{
		{&stats.TotalUsers, func() (int64, error) { return s.store.CountUsers(ctx, store.UserFilter{}) }},
		{&stats.ActiveUsers, func() (int64, error) {
			return s.store.CountUsers(ctx, store.UserFilter{Status: models.AccountActive})
		}},
		{&stats.SuspendedUsers, func() (int64, error) {
			return s.store.CountUsers(ctx, store.UserFilter{Status: models.AccountSuspended})
		}},
		{&stats.BannedUsers, func() (int64, error) {
			return s.store.CountUsers(ctx, store.UserFilter{Status: models.AccountBanned})
		}},
		{&stats.PendingReviews, func() (int64, error) {
			return s.store.CountReviews(ctx, store.ReviewFilter{Status: models.ReviewPending})
		}},
		{&stats.PendingReports, func() (int64, error) {
			return s.store.CountReports(ctx, store.ReportFilter{Status: models.ReportPending})
		}},
		{&stats.TotalReports, func() (int64, error) { return s.store.CountReports(ctx, store.ReportFilter{}) }},
	}
	for _, c := range counts {
		n, err := c.count()
		if err != nil {
			return nil, err
		}
		*c.target = n
	}
	return &stats, nil
}

// CheckContent previews what the chat moderator would do with text.
func (s *AdminService) CheckContent(text string) ModerationPreview {
	result := s.moderator.CheckMessage(text)
	detected := result.DetectedWords
	if detected == nil {
		detected = []string{}
	}
	return ModerationPreview{
		IsClean:        result.IsClean,
		Reason:         result.Reason,
		DetectedWords:  detected,
		PrivacyWarning: result.PrivacyWarning,
		Severity:       s.moderator.SeverityLevel(result.DetectedWords),
		Censored:       s.moderator.CensorMessage(text),
	}
}
