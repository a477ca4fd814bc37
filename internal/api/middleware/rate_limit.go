package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/config"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitMiddleware limits each client per route with two fixed windows:
// RateLimitBurst requests per second for spikes and RateLimitRPS per second
// sustained over a minute. Counters live in Redis when client is not nil so
// every instance shares them.
func RateLimitMiddleware(cfg *config.Config, client *redis.Client) gin.HandlersChain {
	burst := cfg.RateLimitBurst
	if burst < cfg.RateLimitRPS {
		burst = cfg.RateLimitRPS
	}
	windows := []struct {
		name string
		rate limiter.Rate
	}{
		{"burst", limiter.Rate{Period: time.Second, Limit: int64(burst)}},
		{"sustained", limiter.Rate{Period: time.Minute, Limit: int64(cfg.RateLimitRPS) * 60}},
	}

	chain := make(gin.HandlersChain, 0, len(windows))
	for _, w := range windows {
		instance := limiter.New(newLimiterStore(client, "limiter_"+w.name), w.rate, limiter.WithTrustForwardHeader(true))
		chain = append(chain, mgin.NewMiddleware(instance, mgin.WithKeyGetter(func(c *gin.Context) string {
			return fmt.Sprintf("%s:%s", c.ClientIP(), c.FullPath())
		})))
	}
	return chain
}

func newLimiterStore(client *redis.Client, prefix string) limiter.Store {
	if client != nil {
		store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
		if err == nil {
			return store
		}
		logger.WithFields(logger.Fields{"prefix": prefix}).WithError(err).Warn("redis rate limit store unavailable, using memory")
	}
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: limiter.DefaultCleanUpInterval})
}
