package store

import (
	"context"
	"testing"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMemory returns a Memory whose clock advances one second per call,
// so ordering by creation time is deterministic.
func newTestMemory() *Memory {
	m := NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return m
}

func seedUsers(t *testing.T, m *Memory, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, m.CreateUser(context.Background(), &models.User{
			Username: name,
			Email:    name + "@example.com",
		}))
	}
}

func TestMemory_CreateUserConflicts(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	seedUsers(t, m, "ana")

	err := m.CreateUser(ctx, &models.User{Username: "ana", Email: "other@example.com"})
	assert.True(t, apperrors.Is(err, apperrors.Conflict))

	err = m.CreateUser(ctx, &models.User{Username: "other", Email: "ana@example.com"})
	assert.True(t, apperrors.Is(err, apperrors.Conflict))

	u, err := m.FindUser(ctx, "ana")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.AccountActive, u.AccountStatus)
}

func TestMemory_FindUserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	seedUsers(t, m, "ana")
	require.NoError(t, m.AddToSet(ctx, "ana", SetIsMatch, "beto"))

	u, err := m.FindUser(ctx, "ana")
	require.NoError(t, err)
	u.IsMatch[0] = "mutated"

	again, err := m.FindUser(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"beto"}, []string(again.IsMatch))
}

func TestMemory_SetOperationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	seedUsers(t, m, "ana")

	require.NoError(t, m.AddToSet(ctx, "ana", SetBlockedUsers, "beto"))
	require.NoError(t, m.AddToSet(ctx, "ana", SetBlockedUsers, "beto"))
	u, _ := m.FindUser(ctx, "ana")
	assert.Equal(t, []string{"beto"}, []string(u.BlockedUsers))

	require.NoError(t, m.PullFromSet(ctx, "ana", SetBlockedUsers, "beto"))
	require.NoError(t, m.PullFromSet(ctx, "ana", SetBlockedUsers, "beto"))
	u, _ = m.FindUser(ctx, "ana")
	assert.Empty(t, u.BlockedUsers)

	err := m.AddToSet(ctx, "ghost", SetIsMatch, "ana")
	assert.True(t, apperrors.Is(err, apperrors.NotFound))

	err = m.AddToSet(ctx, "ana", UserSet("friends"), "beto")
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
}

func TestMemory_UpdateUser(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	seedUsers(t, m, "ana")

	until := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.UpdateUser(ctx, "ana", Updates{
		FieldAge:            30,
		FieldZones:          []string{"palermo"},
		FieldAccountStatus:  models.AccountSuspended,
		FieldSuspendedUntil: &until,
	}))

	u, err := m.FindUser(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 30, u.Age)
	assert.Equal(t, []string{"palermo"}, []string(u.Zones))
	assert.True(t, u.IsSuspendedAt(until.Add(-time.Hour)))

	err = m.UpdateUser(ctx, "ana", Updates{FieldAge: "thirty"})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	err = m.UpdateUser(ctx, "ghost", Updates{FieldAge: 30})
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestMemory_ListUsersViewerFilter(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	seedUsers(t, m, "viewer", "liked", "passed", "blocker", "blocked", "fresh", "fresh2")

	// liked/passed already carry the viewer's swipe.
	require.NoError(t, m.AddToSet(ctx, "liked", SetIsMatch, "viewer"))
	require.NoError(t, m.AddToSet(ctx, "passed", SetNotMatch, "viewer"))
	require.NoError(t, m.AddToSet(ctx, "blocker", SetBlockedUsers, "viewer"))
	require.NoError(t, m.AddToSet(ctx, "viewer", SetBlockedUsers, "blocked"))

	users, err := m.ListUsers(ctx, UserFilter{Viewer: "viewer"})
	require.NoError(t, err)
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"fresh2", "fresh"}, names)

	count, err := m.CountUsers(ctx, UserFilter{Viewer: "viewer", Exclude: []string{"fresh"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	users, err = m.ListUsers(ctx, UserFilter{Viewer: "viewer", Limit: 1})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "fresh2", users[0].Username)
}

func TestMemory_RevealInfoUpserts(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	seedUsers(t, m, "ana", "beto")

	entry, err := m.RevealInfo(ctx, "ana", "beto", models.InfoZones)
	require.NoError(t, err)
	assert.True(t, entry.RevealedZones)
	assert.False(t, entry.RevealedContact)

	entry, err = m.RevealInfo(ctx, "ana", "beto", models.InfoContact)
	require.NoError(t, err)
	assert.True(t, entry.RevealedZones)
	assert.True(t, entry.RevealedContact)

	u, _ := m.FindUser(ctx, "ana")
	assert.Len(t, u.RevealedInfo, 1)
	assert.Equal(t, "ana", u.RevealedInfo[0].Owner)
}

func TestMemory_ReviewsAndModeration(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	review := &models.Review{Reviewer: "ana", Reviewed: "beto", Rating: 4, Status: models.ReviewPending}
	require.NoError(t, m.CreateReview(ctx, review))
	err := m.CreateReview(ctx, &models.Review{Reviewer: "ana", Reviewed: "beto", Rating: 2})
	assert.True(t, apperrors.Is(err, apperrors.Conflict))

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	moderated, err := m.ModerateReview(ctx, review.ID, models.ReviewApproved, "admin", "ok", at)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewApproved, moderated.Status)
	assert.Equal(t, at, *moderated.ModeratedAt)

	count, err := m.CountReviews(ctx, ReviewFilter{Reviewed: "beto", Status: models.ReviewApproved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = m.ModerateReview(ctx, "missing", models.ReviewApproved, "admin", "", at)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestMemory_UpdateReportChecksFromStatus(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	report := &models.Report{ReportedUser: "beto", ReportedBy: "ana", Reason: models.ReasonSpam}
	require.NoError(t, m.CreateReport(ctx, report))
	assert.Equal(t, models.ReportPending, report.Status)

	err := m.CreateReport(ctx, &models.Report{ReportedUser: "beto", ReportedBy: "ana"})
	assert.True(t, apperrors.Is(err, apperrors.Conflict))

	review := ReportReview{Status: models.ReportReviewed, ReviewedBy: "admin", ReviewDate: time.Now()}
	updated, err := m.UpdateReport(ctx, report.ID, models.ReportPending, review)
	require.NoError(t, err)
	assert.Equal(t, models.ReportReviewed, updated.Status)
	assert.Equal(t, "admin", updated.ReviewedBy)

	_, err = m.UpdateReport(ctx, report.ID, models.ReportPending, review)
	assert.True(t, apperrors.Is(err, apperrors.Conflict))
}

func TestMemory_Chats(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	chat, err := m.FindOrCreateChat(ctx, "beto", "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana", chat.ParticipantA)
	assert.Equal(t, "beto", chat.ParticipantB)

	same, err := m.FindOrCreateChat(ctx, "ana", "beto")
	require.NoError(t, err)
	assert.Equal(t, chat.ID, same.ID)

	require.NoError(t, m.AppendMessage(ctx, chat.ID, &models.Message{Sender: "ana", Content: "hola", Type: models.MessageText}))
	require.NoError(t, m.AppendMessage(ctx, chat.ID, &models.Message{Sender: "ana", Content: "che", Type: models.MessageText}))
	require.NoError(t, m.AppendMessage(ctx, chat.ID, &models.Message{Sender: "beto", Content: "buenas", Type: models.MessageText}))

	marked, err := m.MarkRead(ctx, chat.ID, "beto")
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	marked, err = m.MarkRead(ctx, chat.ID, "beto")
	require.NoError(t, err)
	assert.Zero(t, marked)

	full, err := m.FindChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, full.Messages, 3)
	assert.Equal(t, "hola", full.Messages[0].Content)
	assert.False(t, full.Messages[2].Read)

	chats, err := m.ListChats(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Empty(t, chats[0].Messages)

	err = m.AppendMessage(ctx, "missing", &models.Message{Sender: "ana", Content: "x"})
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestPage(t *testing.T) {
	start, end := page(10, 2, 3)
	assert.Equal(t, 2, start)
	assert.Equal(t, 5, end)

	start, end = page(10, 8, 5)
	assert.Equal(t, 8, start)
	assert.Equal(t, 10, end)

	start, end = page(3, 10, 0)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)
}
