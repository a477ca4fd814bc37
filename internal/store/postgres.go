package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres keeps users, reviews, reports and chats in PostgreSQL through GORM.
// Set fields are text[] columns updated with single array_append/array_remove
// statements. The *gorm.DB must be opened with TranslateError so unique
// violations surface as gorm.ErrDuplicatedKey.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Close(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFoundOr(err error, notFound *apperrors.AppError, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Wrap(err, apperrors.Internal, op)
}

func setColumn(set UserSet) (string, error) {
	switch set {
	case SetIsMatch, SetNotMatch, SetBlockedUsers, SetPhotos:
		return string(set), nil
	}
	return "", apperrors.Invalidf("unknown set %q", set)
}

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	if user.AccountStatus == "" {
		user.AccountStatus = models.AccountActive
	}
	if err := p.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflictf("username or email is already registered")
		}
		return apperrors.Wrap(err, apperrors.Internal, "create user")
	}
	return nil
}

func (p *Postgres) FindUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := p.db.WithContext(ctx).Preload("RevealedInfo").Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, apperrors.NotFoundf("user %s not found", username), "find user")
	}
	return &user, nil
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := p.db.WithContext(ctx).Preload("RevealedInfo").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, apperrors.NotFoundf("user with email %s not found", email), "find user by email")
	}
	return &user, nil
}

func (p *Postgres) userQuery(ctx context.Context, filter UserFilter) *gorm.DB {
	query := p.db.WithContext(ctx).Model(&models.User{})
	if filter.Status != "" {
		query = query.Where("account_status = ?", filter.Status)
	}
	if filter.HasPlace != nil {
		query = query.Where("has_place = ?", *filter.HasPlace)
	}
	if len(filter.Exclude) > 0 {
		query = query.Where("username NOT IN ?", filter.Exclude)
	}
	if filter.Viewer != "" {
		query = query.
			Where("username <> ?", filter.Viewer).
			Where("NOT (? = ANY(COALESCE(is_match, '{}')))", filter.Viewer).
			Where("NOT (? = ANY(COALESCE(not_match, '{}')))", filter.Viewer).
			Where("NOT (? = ANY(COALESCE(blocked_users, '{}')))", filter.Viewer).
			Where("username NOT IN (SELECT unnest(COALESCE(blocked_users, '{}')) FROM users WHERE username = ?)", filter.Viewer)
	}
	return query
}

func (p *Postgres) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	var users []models.User
	query := p.userQuery(ctx, filter).Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "list users")
	}
	return users, nil
}

func (p *Postgres) CountUsers(ctx context.Context, filter UserFilter) (int64, error) {
	var count int64
	if err := p.userQuery(ctx, filter).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.Internal, "count users")
	}
	return count, nil
}

func columnValue(field Field, value interface{}) (interface{}, error) {
	switch field {
	case FieldZones:
		zones, ok := value.([]string)
		if !ok {
			return nil, fmt.Errorf("field %q: unexpected value type %T", field, value)
		}
		return pq.StringArray(zones), nil
	case FieldPreferences:
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	case FieldAccountStatus:
		if status, ok := value.(models.AccountStatus); ok {
			return string(status), nil
		}
	}
	return value, nil
}

func (p *Postgres) UpdateUser(ctx context.Context, username string, updates Updates) error {
	columns := make(map[string]interface{}, len(updates)+1)
	for field, value := range updates {
		v, err := columnValue(field, value)
		if err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, "invalid update")
		}
		columns[string(field)] = v
	}
	columns["updated_at"] = time.Now()

	result := p.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Updates(columns)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.Internal, "update user")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("user %s not found", username)
	}
	return nil
}

func (p *Postgres) DeleteUser(ctx context.Context, username string) error {
	result := p.db.WithContext(ctx).Where("username = ?", username).Delete(&models.User{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.Internal, "delete user")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("user %s not found", username)
	}
	return nil
}

// requireUser turns a no-op set update into NotFound when the user is missing.
func (p *Postgres) requireUser(ctx context.Context, username string) error {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "find user")
	}
	if count == 0 {
		return apperrors.NotFoundf("user %s not found", username)
	}
	return nil
}

func (p *Postgres) AddToSet(ctx context.Context, username string, set UserSet, value string) error {
	column, err := setColumn(set)
	if err != nil {
		return err
	}
	result := p.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Where(fmt.Sprintf("NOT (? = ANY(COALESCE(%s, '{}')))", column), value).
		Update(column, gorm.Expr(fmt.Sprintf("array_append(COALESCE(%s, '{}'), ?)", column), value))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.Internal, "add to "+column)
	}
	if result.RowsAffected == 0 {
		return p.requireUser(ctx, username)
	}
	return nil
}

func (p *Postgres) PullFromSet(ctx context.Context, username string, set UserSet, value string) error {
	column, err := setColumn(set)
	if err != nil {
		return err
	}
	result := p.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Update(column, gorm.Expr(fmt.Sprintf("array_remove(COALESCE(%s, '{}'), ?)", column), value))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.Internal, "pull from "+column)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("user %s not found", username)
	}
	return nil
}

func (p *Postgres) RevealInfo(ctx context.Context, owner, counterpart string, infoType models.InfoType) (*models.RevealedInfo, error) {
	if err := p.requireUser(ctx, owner); err != nil {
		return nil, err
	}
	entry := models.RevealedInfo{Owner: owner, MatchedUser: counterpart, UpdatedAt: time.Now()}
	entry.Set(infoType)

	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner"}, {Name: "matched_user"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			infoType.Column(): true,
			"updated_at":      entry.UpdatedAt,
		}),
	}).Create(&entry).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "reveal info")
	}

	var stored models.RevealedInfo
	if err := p.db.WithContext(ctx).Where("owner = ? AND matched_user = ?", owner, counterpart).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "load revealed info")
	}
	return &stored, nil
}

func (p *Postgres) CreateReview(ctx context.Context, review *models.Review) error {
	if err := p.db.WithContext(ctx).Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflictf("%s already reviewed %s", review.Reviewer, review.Reviewed)
		}
		return apperrors.Wrap(err, apperrors.Internal, "create review")
	}
	return nil
}

func (p *Postgres) FindReview(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		return nil, notFoundOr(err, apperrors.NotFoundf("review %s not found", id), "find review")
	}
	return &review, nil
}

func (p *Postgres) FindReviewByPair(ctx context.Context, reviewer, reviewed string) (*models.Review, error) {
	var review models.Review
	err := p.db.WithContext(ctx).Where("reviewer = ? AND reviewed = ?", reviewer, reviewed).First(&review).Error
	if err != nil {
		return nil, notFoundOr(err, apperrors.NotFoundf("no review from %s for %s", reviewer, reviewed), "find review")
	}
	return &review, nil
}

func (p *Postgres) reviewQuery(ctx context.Context, filter ReviewFilter) *gorm.DB {
	query := p.db.WithContext(ctx).Model(&models.Review{})
	if filter.Reviewed != "" {
		query = query.Where("reviewed = ?", filter.Reviewed)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

func (p *Postgres) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	var reviews []models.Review
	query := p.reviewQuery(ctx, filter).Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&reviews).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "list reviews")
	}
	return reviews, nil
}

func (p *Postgres) CountReviews(ctx context.Context, filter ReviewFilter) (int64, error) {
	var count int64
	if err := p.reviewQuery(ctx, filter).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.Internal, "count reviews")
	}
	return count, nil
}

func (p *Postgres) ModerateReview(ctx context.Context, id string, status models.ReviewStatus, moderatedBy, note string, at time.Time) (*models.Review, error) {
	result := p.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          status,
		"moderated_by":    moderatedBy,
		"moderation_note": note,
		"moderated_at":    at,
	})
	if result.Error != nil {
		return nil, apperrors.Wrap(result.Error, apperrors.Internal, "moderate review")
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFoundf("review %s not found", id)
	}
	return p.FindReview(ctx, id)
}

func (p *Postgres) CreateReport(ctx context.Context, report *models.Report) error {
	if report.Status == "" {
		report.Status = models.ReportPending
	}
	if err := p.db.WithContext(ctx).Create(report).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflictf("%s already reported %s", report.ReportedBy, report.ReportedUser)
		}
		return apperrors.Wrap(err, apperrors.Internal, "create report")
	}
	return nil
}

func (p *Postgres) FindReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, notFoundOr(err, apperrors.NotFoundf("report %s not found", id), "find report")
	}
	return &report, nil
}

func (p *Postgres) FindReportByPair(ctx context.Context, reportedUser, reportedBy string) (*models.Report, error) {
	var report models.Report
	err := p.db.WithContext(ctx).Where("reported_user = ? AND reported_by = ?", reportedUser, reportedBy).First(&report).Error
	if err != nil {
		return nil, notFoundOr(err, apperrors.NotFoundf("no report from %s about %s", reportedBy, reportedUser), "find report")
	}
	return &report, nil
}

func (p *Postgres) reportQuery(ctx context.Context, filter ReportFilter) *gorm.DB {
	query := p.db.WithContext(ctx).Model(&models.Report{})
	if filter.ReportedUser != "" {
		query = query.Where("reported_user = ?", filter.ReportedUser)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

func (p *Postgres) ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	var reports []models.Report
	query := p.reportQuery(ctx, filter).Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "list reports")
	}
	return reports, nil
}

func (p *Postgres) CountReports(ctx context.Context, filter ReportFilter) (int64, error) {
	var count int64
	if err := p.reportQuery(ctx, filter).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.Internal, "count reports")
	}
	return count, nil
}

func (p *Postgres) UpdateReport(ctx context.Context, id string, from models.ReportStatus, review ReportReview) (*models.Report, error) {
	result := p.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":       review.Status,
			"reviewed_by":  review.ReviewedBy,
			"review_date":  review.ReviewDate,
			"action_taken": review.ActionTaken,
			"notes":        review.Notes,
		})
	if result.Error != nil {
		return nil, apperrors.Wrap(result.Error, apperrors.Internal, "update report")
	}
	if result.RowsAffected == 0 {
		current, err := p.FindReport(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.Conflictf("report %s changed status to %s", id, current.Status)
	}
	return p.FindReport(ctx, id)
}

func (p *Postgres) FindOrCreateChat(ctx context.Context, a, b string) (*models.Chat, error) {
	first, second := models.ChatPair(a, b)
	chat := models.Chat{ParticipantA: first, ParticipantB: second}
	err := p.db.WithContext(ctx).
		Where(models.Chat{ParticipantA: first, ParticipantB: second}).
		FirstOrCreate(&chat).Error
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a creation race; the other request's row is there now.
			err = p.db.WithContext(ctx).Where("participant_a = ? AND participant_b = ?", first, second).First(&chat).Error
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.Internal, "find or create chat")
		}
	}
	return &chat, nil
}

func (p *Postgres) FindChat(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	err := p.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}})
		}).
		Where("id = ?", id).First(&chat).Error
	if err != nil {
		return nil, notFoundOr(err, apperrors.NotFoundf("chat %s not found", id), "find chat")
	}
	return &chat, nil
}

func (p *Postgres) ListChats(ctx context.Context, username string) ([]models.Chat, error) {
	var chats []models.Chat
	err := p.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", username, username).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "list chats")
	}
	return chats, nil
}

func (p *Postgres) AppendMessage(ctx context.Context, chatID string, msg *models.Message) error {
	msg.ChatID = chatID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if err := p.db.WithContext(ctx).Create(msg).Error; err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "append message")
	}
	// Bumps the chat to the top of ListChats; losing this update only affects ordering.
	p.db.WithContext(ctx).Model(&models.Chat{}).Where("id = ?", chatID).Update("updated_at", msg.Timestamp)
	return nil
}

func (p *Postgres) MarkRead(ctx context.Context, chatID, reader string) (int64, error) {
	result := p.db.WithContext(ctx).Model(&models.Message{}).
		Where("chat_id = ? AND sender <> ? AND read = ?", chatID, reader, false).
		Update("read", true)
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, apperrors.Internal, "mark messages read")
	}
	return result.RowsAffected, nil
}
