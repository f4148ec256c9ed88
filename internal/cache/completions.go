package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/lead-extractor/pkg/logging"
)

const keyPrefix = "leadextract:completion:"

// Completions stores provider output keyed by a prompt digest.
type Completions interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Key derives a stable cache key from everything that shapes the provider output.
func Key(model string, temperature float32, maxTokens int, system []string, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	fmt.Fprintf(h, "\n\ntemperature=%s max_tokens=%d",
		strconv.FormatFloat(float64(temperature), 'g', -1, 32), maxTokens)
	for _, s := range system {
		h.Write([]byte("\n\n"))
		h.Write([]byte(s))
	}
	h.Write([]byte("\n\n"))
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// RedisCompletions is a Completions backed by Redis with a fixed TTL.
type RedisCompletions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCompletions(client *redis.Client, ttl time.Duration) *RedisCompletions {
	if client == nil {
		panic("cache: redis client cannot be nil")
	}
	return &RedisCompletions{client: client, ttl: ttl}
}

func (c *RedisCompletions) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get: %w", err)
	}
	return val, true, nil
}

func (c *RedisCompletions) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, keyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// RedisOptions carries the connection settings for BuildRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	TLS      bool
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, opts RedisOptions, logger *logging.Logger, verify bool) *redis.Client {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
	}
	if opts.TLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, completion cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
