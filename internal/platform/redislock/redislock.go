package redislock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

// ErrNotAcquired is returned when another holder owns the lock.
var ErrNotAcquired = errors.New("redislock: lock held elsewhere")

// Locker serializes a critical section across processes.
type Locker interface {
	// Acquire takes key for at most ttl and returns the release func.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type redisLocker struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// Compare-and-delete so a holder whose ttl lapsed cannot release a newer holder's lock.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// New returns (nil, nil) when no address is configured.
func New(log *logger.Logger, cfg Config) (Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "sharedexp:lock:"
	}
	return NewWithClient(log, rdb, prefix), nil
}

func NewWithClient(log *logger.Logger, rdb *goredis.Client, prefix string) Locker {
	return &redisLocker{log: log.With("service", "RedisLocker"), rdb: rdb, prefix: prefix}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l == nil || l.rdb == nil {
		return func() {}, nil
	}
	full := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", full, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return func() {
		// Release must run even if the caller's ctx was cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{full}, token).Err(); err != nil {
			l.log.Warn("redis lock release failed", "key", full, "error", err)
		}
	}, nil
}

// Noop is used when Redis is not configured; the database transaction still
// scopes the replace step.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (func(), error) { return func() {}, nil }
