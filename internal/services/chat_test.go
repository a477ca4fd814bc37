package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/moderation"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newChatFixture(t *testing.T, mode string, broker ChatBroker) (*ChatService, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	seedUser(t, st, "ana", false)
	seedUser(t, st, "beto", true)
	// beto liked ana, so ana may write to beto.
	like(t, st, "beto", "ana")
	return NewChatService(st, NewMatchService(st), moderation.New(), broker, mode), st
}

func TestChatService_SendMessage(t *testing.T) {
	ctx := context.Background()
	svc, st := newChatFixture(t, ModerationBlock, nil)

	res, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: "  hola, sigue libre la pieza?  "})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ChatID)
	assert.Equal(t, "hola, sigue libre la pieza?", res.Message.Content)
	assert.Equal(t, models.MessageText, res.Message.Type)
	assert.False(t, res.Censored)

	again, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: "te escribo de nuevo"})
	require.NoError(t, err)
	assert.Equal(t, res.ChatID, again.ChatID)

	chat, err := st.FindChat(ctx, res.ChatID)
	require.NoError(t, err)
	assert.Len(t, chat.Messages, 2)
}

func TestChatService_SendMessageGates(t *testing.T) {
	ctx := context.Background()

	t.Run("recipient has not liked sender", func(t *testing.T) {
		svc, _ := newChatFixture(t, ModerationBlock, nil)
		_, err := svc.SendMessage(ctx, "beto", SendMessageRequest{RecipientUsername: "ana", Content: "hola"})
		assert.True(t, apperrors.Is(err, apperrors.Forbidden))
	})

	t.Run("blocked by recipient", func(t *testing.T) {
		svc, st := newChatFixture(t, ModerationBlock, nil)
		require.NoError(t, st.AddToSet(ctx, "beto", store.SetBlockedUsers, "ana"))
		_, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: "hola"})
		assert.True(t, apperrors.Is(err, apperrors.Forbidden))
	})

	t.Run("self", func(t *testing.T) {
		svc, _ := newChatFixture(t, ModerationBlock, nil)
		_, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "ana", Content: "hola"})
		assert.True(t, apperrors.Is(err, apperrors.Forbidden))
	})

	t.Run("unknown recipient", func(t *testing.T) {
		svc, _ := newChatFixture(t, ModerationBlock, nil)
		_, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "ghost", Content: "hola"})
		assert.True(t, apperrors.Is(err, apperrors.NotFound))
	})

	t.Run("invalid input", func(t *testing.T) {
		svc, _ := newChatFixture(t, ModerationBlock, nil)
		for _, req := range []SendMessageRequest{
			{RecipientUsername: "beto", Content: "   "},
			{RecipientUsername: "beto", Content: strings.Repeat("a", maxMessageLength+1)},
			{RecipientUsername: "beto", Content: "hola", Type: "video"},
			{RecipientUsername: "beto", Content: "http://cdn/x.png", Type: models.MessageImage},
		} {
			_, err := svc.SendMessage(ctx, "ana", req)
			assert.True(t, apperrors.Is(err, apperrors.InvalidInput), "content %.20q", req.Content)
		}
	})
}

func TestChatService_Moderation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		mode     string
		content  string
		wantErr  bool
		want     string
		censored bool
	}{
		{"block mode rejects medium", ModerationBlock, "sos un boludo", true, "", false},
		{"censor mode masks medium", ModerationCensor, "sos un boludo", false, "sos un ******", true},
		{"censor mode rejects high", ModerationCensor, "sos un retrasado", true, "", false},
		{"censor mode rejects critical", ModerationCensor, "te voy a matar", true, "", false},
		{"spam is never censored", ModerationCensor, "hola" + strings.Repeat("!", 20), true, "", false},
		{"clean passes", ModerationCensor, "buenas tardes", false, "buenas tardes", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newChatFixture(t, tt.mode, nil)
			res, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: tt.content})
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.Forbidden), "got %v", err)
				chats, listErr := st.ListChats(ctx, "ana")
				require.NoError(t, listErr)
				assert.Empty(t, chats)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Message.Content)
			assert.Equal(t, tt.censored, res.Censored)
		})
	}
}

func TestChatService_ImageSkipsTextModeration(t *testing.T) {
	svc, _ := newChatFixture(t, ModerationBlock, nil)
	res, err := svc.SendMessage(context.Background(), "ana", SendMessageRequest{
		RecipientUsername: "beto",
		Content:           "https://cdn.example.com/boludo.png",
		Type:              models.MessageImage,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/boludo.png", res.Message.Content)
}

func TestChatService_PrivacyWarning(t *testing.T) {
	svc, _ := newChatFixture(t, ModerationBlock, nil)
	res, err := svc.SendMessage(context.Background(), "ana", SendMessageRequest{RecipientUsername: "beto", Content: "llamame al +54 11 5555 1234"})
	require.NoError(t, err)
	assert.True(t, res.PrivacyWarning)
}

func TestChatService_PublishesToBroker(t *testing.T) {
	ctx := context.Background()
	broker := new(MockBroker)
	broker.On("Publish", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(msg models.Message) bool {
		return msg.Sender == "ana" && msg.Content == "hola"
	})).Return(nil).Once()

	svc, _ := newChatFixture(t, ModerationBlock, broker)
	_, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: "hola"})
	require.NoError(t, err)
	broker.AssertExpectations(t)
}

func TestChatService_Subscribe(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	svc, _ := newChatFixture(t, ModerationBlock, NewLocalChatBroker())

	first, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: "hola"})
	require.NoError(t, err)

	ch, cancel, err := svc.Subscribe(ctx, "beto", first.ChatID)
	require.NoError(t, err)
	defer cancel()

	_, err = svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: "estas?"})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		assert.Equal(t, "estas?", msg.Content)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}

	_, _, err = svc.Subscribe(ctx, "caro", first.ChatID)
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))
}

func TestChatService_ReadAccess(t *testing.T) {
	ctx := context.Background()
	svc, st := newChatFixture(t, ModerationBlock, nil)
	seedUser(t, st, "caro", false)

	res, err := svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: "hola"})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "ana", SendMessageRequest{RecipientUsername: "beto", Content: "estas?"})
	require.NoError(t, err)

	_, err = svc.GetChat(ctx, "caro", res.ChatID)
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))

	_, err = svc.GetChat(ctx, "beto", "missing")
	assert.True(t, apperrors.Is(err, apperrors.NotFound))

	// The sender's own messages are not affected.
	n, err := svc.MarkRead(ctx, "ana", res.ChatID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = svc.MarkRead(ctx, "beto", res.ChatID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.MarkRead(ctx, "beto", res.ChatID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	summaries, err := svc.ListChats(ctx, "beto")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "ana", summaries[0].Counterpart)
}
