package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// Sanction is an active suspension or ban. Until is nil for bans.
type Sanction struct {
	Status models.AccountStatus
	Until  *time.Time
}

// SanctionCache mirrors account sanctions so the auth middleware can refuse
// tokens issued before a suspension or ban without hitting the store.
type SanctionCache interface {
	Suspend(ctx context.Context, userID string, until time.Time) error
	Ban(ctx context.Context, userID string) error
	Lift(ctx context.Context, userID string) error
	// Check returns nil when userID has no active sanction.
	Check(ctx context.Context, userID string) (*Sanction, error)
}

const sanctionKeyPrefix = "sanction:"

// RedisSanctionCache keeps one key per sanctioned account. Suspension keys
// expire with the suspension; ban keys never expire.
type RedisSanctionCache struct {
	client *redis.Client
}

func NewRedisSanctionCache(client *redis.Client) *RedisSanctionCache {
	return &RedisSanctionCache{client: client}
}

func (c *RedisSanctionCache) Suspend(ctx context.Context, userID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return c.Lift(ctx, userID)
	}
	value := string(models.AccountSuspended) + "|" + until.UTC().Format(time.RFC3339)
	return c.client.Set(ctx, sanctionKeyPrefix+userID, value, ttl).Err()
}

func (c *RedisSanctionCache) Ban(ctx context.Context, userID string) error {
	return c.client.Set(ctx, sanctionKeyPrefix+userID, string(models.AccountBanned), 0).Err()
}

func (c *RedisSanctionCache) Lift(ctx context.Context, userID string) error {
	return c.client.Del(ctx, sanctionKeyPrefix+userID).Err()
}

func (c *RedisSanctionCache) Check(ctx context.Context, userID string) (*Sanction, error) {
	value, err := c.client.Get(ctx, sanctionKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseSanction(value), nil
}

func parseSanction(value string) *Sanction {
	status, until, found := strings.Cut(value, "|")
	sanction := &Sanction{Status: models.AccountStatus(status)}
	if found {
		if t, err := time.Parse(time.RFC3339, until); err == nil {
			sanction.Until = &t
		}
	}
	return sanction
}

// LocalSanctionCache is the in-process SanctionCache used when no Redis is configured.
type LocalSanctionCache struct {
	mu        sync.RWMutex
	sanctions map[string]Sanction
	now       func() time.Time
}

func NewLocalSanctionCache() *LocalSanctionCache {
	return &LocalSanctionCache{sanctions: make(map[string]Sanction), now: time.Now}
}

func (c *LocalSanctionCache) Suspend(ctx context.Context, userID string, until time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sanctions[userID] = Sanction{Status: models.AccountSuspended, Until: &until}
	return nil
}

func (c *LocalSanctionCache) Ban(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sanctions[userID] = Sanction{Status: models.AccountBanned}
	return nil
}

func (c *LocalSanctionCache) Lift(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sanctions, userID)
	return nil
}

func (c *LocalSanctionCache) Check(ctx context.Context, userID string) (*Sanction, error) {
	c.mu.RLock()
	sanction, ok := c.sanctions[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if sanction.Until != nil && !sanction.Until.After(c.now()) {
		_ = c.Lift(ctx, userID)
		return nil, nil
	}
	return &sanction, nil
}
