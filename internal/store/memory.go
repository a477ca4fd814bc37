package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
)

// Memory is a process-local Store used by tests and the "memory" driver.
// Records are copied on the way in and out so callers never share state.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	reviews map[string]*models.Review
	reports map[string]*models.Report
	chats   map[string]*models.Chat
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]*models.User),
		reviews: make(map[string]*models.Review),
		reports: make(map[string]*models.Report),
		chats:   make(map[string]*models.Chat),
		now:     time.Now,
	}
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Zones = slices.Clone(u.Zones)
	c.Photos = slices.Clone(u.Photos)
	c.IsMatch = slices.Clone(u.IsMatch)
	c.NotMatch = slices.Clone(u.NotMatch)
	c.BlockedUsers = slices.Clone(u.BlockedUsers)
	c.RevealedInfo = slices.Clone(u.RevealedInfo)
	if u.Preferences != nil {
		c.Preferences = make(models.Preferences, len(u.Preferences))
		for k, v := range u.Preferences {
			c.Preferences[k] = slices.Clone(v)
		}
	}
	return &c
}

func copyChat(c *models.Chat, withMessages bool) *models.Chat {
	out := *c
	out.Messages = nil
	if withMessages {
		out.Messages = slices.Clone(c.Messages)
	}
	return &out
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return apperrors.Conflictf("username %s is already taken", user.Username)
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperrors.Conflictf("email %s is already registered", user.Email)
		}
	}

	user.EnsureID()
	now := m.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.AccountStatus == "" {
		user.AccountStatus = models.AccountActive
	}
	m.users[user.Username] = copyUser(user)
	return nil
}

func (m *Memory) FindUser(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, apperrors.NotFoundf("user %s not found", username)
	}
	return copyUser(u), nil
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, apperrors.NotFoundf("user with email %s not found", email)
}

func (m *Memory) matchUsers(filter UserFilter) []*models.User {
	var viewer *models.User
	if filter.Viewer != "" {
		viewer = m.users[filter.Viewer]
	}

	var out []*models.User
	for _, u := range m.users {
		if filter.Status != "" && u.AccountStatus != filter.Status {
			continue
		}
		if filter.HasPlace != nil && u.HasPlace != *filter.HasPlace {
			continue
		}
		if slices.Contains(filter.Exclude, u.Username) {
			continue
		}
		if filter.Viewer != "" {
			if u.Username == filter.Viewer ||
				slices.Contains(u.IsMatch, filter.Viewer) ||
				slices.Contains(u.NotMatch, filter.Viewer) ||
				slices.Contains(u.BlockedUsers, filter.Viewer) {
				continue
			}
			if viewer != nil && slices.Contains(viewer.BlockedUsers, u.Username) {
				continue
			}
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matchUsers(filter)
	start, end := page(len(matched), filter.Offset, filter.Limit)
	users := make([]models.User, 0, end-start)
	for _, u := range matched[start:end] {
		users = append(users, *copyUser(u))
	}
	return users, nil
}

func (m *Memory) CountUsers(ctx context.Context, filter UserFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.matchUsers(filter))), nil
}

func (m *Memory) UpdateUser(ctx context.Context, username string, updates Updates) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return apperrors.NotFoundf("user %s not found", username)
	}
	next := copyUser(u)
	for field, value := range updates {
		if err := applyField(next, field, value); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, "invalid update")
		}
	}
	next.UpdatedAt = m.now()
	m.users[username] = next
	return nil
}

func applyField(u *models.User, field Field, value interface{}) error {
	var ok bool
	switch field {
	case FieldName:
		u.Name, ok = value.(string)
	case FieldBio:
		u.Bio, ok = value.(string)
	case FieldAge:
		u.Age, ok = value.(int)
	case FieldHasPlace:
		u.HasPlace, ok = value.(bool)
	case FieldIsPremium:
		u.IsPremium, ok = value.(bool)
	case FieldIsVerified:
		u.IsVerified, ok = value.(bool)
	case FieldZones:
		var zones []string
		zones, ok = value.([]string)
		u.Zones = slices.Clone(zones)
	case FieldBudget:
		u.Budget, ok = value.(int)
	case FieldContact:
		u.Contact, ok = value.(string)
	case FieldPreferences:
		u.Preferences, ok = value.(models.Preferences)
	case FieldPassword:
		u.Password, ok = value.(string)
	case FieldAccountStatus:
		u.AccountStatus, ok = value.(models.AccountStatus)
	case FieldSuspendedUntil:
		u.SuspendedUntil, ok = value.(*time.Time)
	case FieldVerificationCode:
		u.VerificationCode, ok = value.(string)
	case FieldVerificationExpiresAt:
		u.VerificationExpiresAt, ok = value.(*time.Time)
	case FieldResetCode:
		u.ResetCode, ok = value.(string)
	case FieldResetCodeExpiresAt:
		u.ResetCodeExpiresAt, ok = value.(*time.Time)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	if !ok {
		return fmt.Errorf("field %q: unexpected value type %T", field, value)
	}
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[username]; !ok {
		return apperrors.NotFoundf("user %s not found", username)
	}
	delete(m.users, username)
	return nil
}

func setOf(u *models.User, set UserSet) (*[]string, error) {
	switch set {
	case SetIsMatch:
		return (*[]string)(&u.IsMatch), nil
	case SetNotMatch:
		return (*[]string)(&u.NotMatch), nil
	case SetBlockedUsers:
		return (*[]string)(&u.BlockedUsers), nil
	case SetPhotos:
		return (*[]string)(&u.Photos), nil
	}
	return nil, apperrors.Invalidf("unknown set %q", set)
}

func (m *Memory) AddToSet(ctx context.Context, username string, set UserSet, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return apperrors.NotFoundf("user %s not found", username)
	}
	values, err := setOf(u, set)
	if err != nil {
		return err
	}
	if !slices.Contains(*values, value) {
		*values = append(slices.Clone(*values), value)
	}
	return nil
}

func (m *Memory) PullFromSet(ctx context.Context, username string, set UserSet, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return apperrors.NotFoundf("user %s not found", username)
	}
	values, err := setOf(u, set)
	if err != nil {
		return err
	}
	*values = slices.DeleteFunc(slices.Clone(*values), func(v string) bool { return v == value })
	return nil
}

func (m *Memory) RevealInfo(ctx context.Context, owner, counterpart string, infoType models.InfoType) (*models.RevealedInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[owner]
	if !ok {
		return nil, apperrors.NotFoundf("user %s not found", owner)
	}
	u.RevealedInfo = slices.Clone(u.RevealedInfo)
	entry := u.RevealedTo(counterpart)
	if entry == nil {
		u.RevealedInfo = append(u.RevealedInfo, models.RevealedInfo{Owner: owner, MatchedUser: counterpart})
		entry = &u.RevealedInfo[len(u.RevealedInfo)-1]
	}
	entry.Set(infoType)
	entry.UpdatedAt = m.now()

	out := *entry
	return &out, nil
}

func (m *Memory) CreateReview(ctx context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reviews {
		if r.Reviewer == review.Reviewer && r.Reviewed == review.Reviewed {
			return apperrors.Conflictf("%s already reviewed %s", review.Reviewer, review.Reviewed)
		}
	}
	review.EnsureID()
	now := m.now()
	review.CreatedAt, review.UpdatedAt = now, now
	stored := *review
	m.reviews[review.ID] = &stored
	return nil
}

func (m *Memory) FindReview(ctx context.Context, id string) (*models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reviews[id]
	if !ok {
		return nil, apperrors.NotFoundf("review %s not found", id)
	}
	out := *r
	return &out, nil
}

func (m *Memory) FindReviewByPair(ctx context.Context, reviewer, reviewed string) (*models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.reviews {
		if r.Reviewer == reviewer && r.Reviewed == reviewed {
			out := *r
			return &out, nil
		}
	}
	return nil, apperrors.NotFoundf("no review from %s for %s", reviewer, reviewed)
}

func (m *Memory) matchReviews(filter ReviewFilter) []models.Review {
	var out []models.Review
	for _, r := range m.reviews {
		if filter.Reviewed != "" && r.Reviewed != filter.Reviewed {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matchReviews(filter)
	start, end := page(len(matched), filter.Offset, filter.Limit)
	return matched[start:end], nil
}

func (m *Memory) CountReviews(ctx context.Context, filter ReviewFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.matchReviews(filter))), nil
}

func (m *Memory) ModerateReview(ctx context.Context, id string, status models.ReviewStatus, moderatedBy, note string, at time.Time) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[id]
	if !ok {
		return nil, apperrors.NotFoundf("review %s not found", id)
	}
	next := *r
	next.Status = status
	next.ModeratedBy = moderatedBy
	next.ModerationNote = note
	next.ModeratedAt = &at
	next.UpdatedAt = m.now()
	m.reviews[id] = &next

	out := next
	return &out, nil
}

func (m *Memory) CreateReport(ctx context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reports {
		if r.ReportedUser == report.ReportedUser && r.ReportedBy == report.ReportedBy {
			return apperrors.Conflictf("%s already reported %s", report.ReportedBy, report.ReportedUser)
		}
	}
	report.EnsureID()
	now := m.now()
	report.CreatedAt, report.UpdatedAt = now, now
	if report.Status == "" {
		report.Status = models.ReportPending
	}
	stored := *report
	m.reports[report.ID] = &stored
	return nil
}

func (m *Memory) FindReport(ctx context.Context, id string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, apperrors.NotFoundf("report %s not found", id)
	}
	out := *r
	return &out, nil
}

func (m *Memory) FindReportByPair(ctx context.Context, reportedUser, reportedBy string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.reports {
		if r.ReportedUser == reportedUser && r.ReportedBy == reportedBy {
			out := *r
			return &out, nil
		}
	}
	return nil, apperrors.NotFoundf("no report from %s about %s", reportedBy, reportedUser)
}

func (m *Memory) matchReports(filter ReportFilter) []models.Report {
	var out []models.Report
	for _, r := range m.reports {
		if filter.ReportedUser != "" && r.ReportedUser != filter.ReportedUser {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matchReports(filter)
	start, end := page(len(matched), filter.Offset, filter.Limit)
	return matched[start:end], nil
}

func (m *Memory) CountReports(ctx context.Context, filter ReportFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.matchReports(filter))), nil
}

func (m *Memory) UpdateReport(ctx context.Context, id string, from models.ReportStatus, review ReportReview) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, apperrors.NotFoundf("report %s not found", id)
	}
	if r.Status != from {
		return nil, apperrors.Conflictf("report %s changed status to %s", id, r.Status)
	}
	next := *r
	next.Status = review.Status
	next.ReviewedBy = review.ReviewedBy
	reviewDate := review.ReviewDate
	next.ReviewDate = &reviewDate
	next.ActionTaken = review.ActionTaken
	next.Notes = review.Notes
	next.UpdatedAt = m.now()
	m.reports[id] = &next

	out := next
	return &out, nil
}

func (m *Memory) FindOrCreateChat(ctx context.Context, a, b string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	first, second := models.ChatPair(a, b)
	for _, c := range m.chats {
		if c.ParticipantA == first && c.ParticipantB == second {
			return copyChat(c, false), nil
		}
	}
	now := m.now()
	chat := &models.Chat{ParticipantA: first, ParticipantB: second, CreatedAt: now, UpdatedAt: now}
	chat.EnsureID()
	m.chats[chat.ID] = chat
	return copyChat(chat, false), nil
}

func (m *Memory) FindChat(ctx context.Context, id string) (*models.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.chats[id]
	if !ok {
		return nil, apperrors.NotFoundf("chat %s not found", id)
	}
	return copyChat(c, true), nil
}

func (m *Memory) ListChats(ctx context.Context, username string) ([]models.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Chat
	for _, c := range m.chats {
		if c.HasParticipant(username) {
			out = append(out, *copyChat(c, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) AppendMessage(ctx context.Context, chatID string, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chats[chatID]
	if !ok {
		return apperrors.NotFoundf("chat %s not found", chatID)
	}
	msg.EnsureID()
	msg.ChatID = chatID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.now()
	}
	c.Messages = append(slices.Clone(c.Messages), *msg)
	c.UpdatedAt = msg.Timestamp
	return nil
}

func (m *Memory) MarkRead(ctx context.Context, chatID, reader string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chats[chatID]
	if !ok {
		return 0, apperrors.NotFoundf("chat %s not found", chatID)
	}
	messages := slices.Clone(c.Messages)
	var marked int64
	for i := range messages {
		if messages[i].Sender != reader && !messages[i].Read {
			messages[i].Read = true
			marked++
		}
	}
	c.Messages = messages
	return marked, nil
}
