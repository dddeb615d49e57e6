// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
)

const connectAttempts = 3

// Client wraps the Redis client used for guest carts, applied promo codes and
// rate limiting
type Client struct {
	Redis *redis.Client
	log   *logrus.Logger
}

// Options maps the Redis config onto client options
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

// NewConnection connects to Redis, retrying the first ping while the server
// comes up
func NewConnection(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	c := &Client{Redis: redis.NewClient(Options(cfg.Redis)), log: log}

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = c.Redis.Ping(ctx).Err()
		cancel()
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Warn("Redis not reachable yet")
		if attempt < connectAttempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	if err != nil {
		_ = c.Redis.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithFields(logrus.Fields{
		"addr": cfg.GetRedisAddr(),
		"db":   cfg.Redis.DB,
	}).Info("Redis connection established")

	return c, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.Redis.Close()
}

// GetClient returns the Redis client instance
func (c *Client) GetClient() *redis.Client {
	return c.Redis
}

// Health pings Redis. Failures are logged with the pool state.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.Redis.Ping(ctx).Err(); err != nil {
		stats := c.Redis.PoolStats()
		if c.log != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"total_conns": stats.TotalConns,
				"idle_conns":  stats.IdleConns,
				"timeouts":    stats.Timeouts,
			}).Error("Redis health check failed")
		}
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
