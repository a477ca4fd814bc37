package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ChatBroker fans stored messages out to live chat streams.
type ChatBroker interface {
	Publish(ctx context.Context, chatID string, msg models.Message) error
	// Subscribe delivers messages for chatID until ctx is done or the
	// returned cancel func is called.
	Subscribe(ctx context.Context, chatID string) (<-chan models.Message, func())
}

func chatChannel(chatID string) string {
	return "chat:" + chatID
}

// RedisChatBroker publishes on one Redis channel per chat, so every API
// instance can serve any stream.
type RedisChatBroker struct {
	client *redis.Client
}

func NewRedisChatBroker(client *redis.Client) *RedisChatBroker {
	return &RedisChatBroker{client: client}
}

func (b *RedisChatBroker) Publish(ctx context.Context, chatID string, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, chatChannel(chatID), payload).Err()
}

func (b *RedisChatBroker) Subscribe(ctx context.Context, chatID string) (<-chan models.Message, func()) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, chatChannel(chatID))
	out := make(chan models.Message, 16)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg models.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					logger.Warnf("dropping malformed chat payload on %s: %v", raw.Channel, err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, cancel
}

// LocalChatBroker fans messages out inside one process.
type LocalChatBroker struct {
	mu   sync.RWMutex
	subs map[string]map[chan models.Message]struct{}
}

func NewLocalChatBroker() *LocalChatBroker {
	return &LocalChatBroker{subs: make(map[string]map[chan models.Message]struct{})}
}

func (b *LocalChatBroker) Publish(ctx context.Context, chatID string, msg models.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[chatID] {
		select {
		case ch <- msg:
		default:
			logger.Warnf("chat %s subscriber is slow, message %s dropped", chatID, msg.ID)
		}
	}
	return nil
}

func (b *LocalChatBroker) Subscribe(ctx context.Context, chatID string) (<-chan models.Message, func()) {
	ch := make(chan models.Message, 16)

	b.mu.Lock()
	if b.subs[chatID] == nil {
		b.subs[chatID] = make(map[chan models.Message]struct{})
	}
	b.subs[chatID][ch] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			delete(b.subs[chatID], ch)
			if len(b.subs[chatID]) == 0 {
				delete(b.subs, chatID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel
}
