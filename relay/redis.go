package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig redis config struct
type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr"`
	Username     string        `json:"username" yaml:"username"`
	Password     string        `json:"password" yaml:"password"`
	Db           int           `json:"db" yaml:"db"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

type redisPublishCloser interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes events on a redis pub/sub channel
type RedisPublisher struct {
	client redisPublishCloser
}

// NewRedisPublisher connects to redis and checks the connection
func NewRedisPublisher(ctx context.Context, cfg *RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.Db,
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connect error: %w", err)
	}
	return &RedisPublisher{client: client}, nil
}

// Name implements Publisher
func (p *RedisPublisher) Name() string { return "redis" }

// Publish implements Publisher
func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	return p.client.Publish(ctx, msg.Topic, msg.Body).Err()
}

// Close implements Publisher
func (p *RedisPublisher) Close() error { return p.client.Close() }
