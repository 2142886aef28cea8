package redis

import (
	"context"
	"time"

	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/errors"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Client is the subset of Redis operations the snapshot store needs.
type Client interface {
	Connect(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Close() error
}

// Config holds connection settings for a standalone Redis instance.
type Config struct {
	Addr           string
	Username       string
	Password       string
	DB             int
	ConnectTimeout time.Duration
	PoolSize       int
}

// DefaultConfig returns a Config with sane defaults for local development.
func DefaultConfig() *Config {
	return &Config{
		Addr:           "localhost:6379",
		ConnectTimeout: 5 * time.Second,
		PoolSize:       10,
	}
}

type client struct {
	logger *logger.Logger
	config *Config
	rdb    *redis.Client
}

// NewClient creates a new Redis client with the provided logger and configuration.
func NewClient(log *logger.Logger, config *Config) Client {
	return &client{
		logger: log,
		config: config,
	}
}

func (c *client) Connect(ctx context.Context) error {
	if c.config == nil {
		return errors.NewErrorDetails("redis config is nil", string(errors.RedisConfigError), "connect")
	}
	if c.config.Addr == "" {
		return errors.NewErrorDetails("redis address is empty", string(errors.RedisConfigError), "connect")
	}

	c.rdb = redis.NewClient(&redis.Options{
		Addr:        c.config.Addr,
		Username:    c.config.Username,
		Password:    c.config.Password,
		DB:          c.config.DB,
		DialTimeout: c.config.ConnectTimeout,
		PoolSize:    c.config.PoolSize,
	})

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.logger.Error(err, logger.Field{Key: "addr", Value: c.config.Addr})
		return errors.NewErrorDetails(err.Error(), string(errors.RedisConnectionError), "connect")
	}
	return nil
}

func (c *client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.NewErrorDetails(err.Error(), string(errors.RedisGetError), key)
	}
	return val, nil
}

func (c *client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.RedisSetError), key)
	}
	return nil
}

func (c *client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
