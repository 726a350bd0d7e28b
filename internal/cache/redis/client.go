// Package redis publishes trade intents to Redis streams using go-redis/v9.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize   = 10
	defaultMaxRetries = 3
	// writeTimeout bounds one XADD so a stalled server cannot hold up the
	// executor for longer than a bar.
	writeTimeout = 3 * time.Second
)

// ClientConfig holds connection parameters for the intent stream server.
type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLSEnabled bool
}

func (cfg ClientConfig) options() *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		WriteTimeout: writeTimeout,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// Client owns the connection pool shared by intent buses.
type Client struct {
	rdb  *redis.Client
	addr string
}

// New connects and pings the server at cfg.Addr.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	rdb := redis.NewClient(cfg.options())
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb, addr: cfg.Addr}, nil
}

// Addr returns the server address.
func (c *Client) Addr() string { return c.addr }

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
