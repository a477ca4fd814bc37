package services

import (
	"context"
	"testing"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSanction(t *testing.T) {
	until := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)

	s := parseSanction("banned")
	assert.Equal(t, models.AccountBanned, s.Status)
	assert.Nil(t, s.Until)

	s = parseSanction("suspended|" + until.Format(time.RFC3339))
	assert.Equal(t, models.AccountSuspended, s.Status)
	require.NotNil(t, s.Until)
	assert.True(t, until.Equal(*s.Until))

	s = parseSanction("suspended|tomorrow")
	assert.Equal(t, models.AccountSuspended, s.Status)
	assert.Nil(t, s.Until)
}

func TestLocalSanctionCache(t *testing.T) {
	ctx := context.Background()
	cache := NewLocalSanctionCache()

	s, err := cache.Check(ctx, "ana")
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, cache.Suspend(ctx, "ana", time.Now().Add(time.Hour)))
	s, err = cache.Check(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, models.AccountSuspended, s.Status)

	require.NoError(t, cache.Lift(ctx, "ana"))
	s, err = cache.Check(ctx, "ana")
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, cache.Suspend(ctx, "beto", time.Now().Add(-time.Minute)))
	s, err = cache.Check(ctx, "beto")
	require.NoError(t, err)
	assert.Nil(t, s, "expired suspensions are ignored")

	require.NoError(t, cache.Ban(ctx, "caro"))
	s, err = cache.Check(ctx, "caro")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, models.AccountBanned, s.Status)
}

func TestLocalChatBroker(t *testing.T) {
	ctx := context.Background()
	broker := NewLocalChatBroker()

	ch, cancel := broker.Subscribe(ctx, "chat-1")
	other, cancelOther := broker.Subscribe(ctx, "chat-2")
	defer cancelOther()

	require.NoError(t, broker.Publish(ctx, "chat-1", testMessage("hola")))

	select {
	case msg := <-ch:
		assert.Equal(t, "hola", msg.Content)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive message")
	}
	select {
	case <-other:
		t.Fatal("message leaked to another chat")
	default:
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	require.NoError(t, broker.Publish(ctx, "chat-1", testMessage("nadie")))
}

func TestLocalChatBroker_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	broker := NewLocalChatBroker()
	ch, _ := broker.Subscribe(ctx, "chat-1")

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
}

func testMessage(content string) models.Message {
	return models.Message{ID: content, Sender: "ana", Content: content, Type: models.MessageText}
}
