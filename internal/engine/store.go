package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// storeKeyPrefix namespaces limiter keys in a shared Redis.
const storeKeyPrefix = "gt:limiter:"

// LimiterStore is the key/value backend of the HTTP rate limiters.
// It satisfies fiber.Storage. With a Redis URL the counters are shared
// across instances; otherwise they live in process memory.
type LimiterStore struct {
	mem             sync.Map      // key → *storeEntry
	rdb             *redis.Client // nil if Redis unavailable
	maxEntries      int
	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

type storeEntry struct {
	data      []byte
	expiresAt time.Time // zero = never
}

func (e *storeEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewLimiterStore sets up the limiter store.
// redisURL can be empty to keep counters in memory.
func NewLimiterStore(redisURL string, maxEntries int, cleanupInterval time.Duration) *LimiterStore {
	s := &LimiterStore{maxEntries: maxEntries, cleanupInterval: cleanupInterval, done: make(chan struct{})}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("limiter store: invalid redis URL, using memory", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("limiter store: redis unreachable, using memory", slog.Any("error", err))
				_ = rdb.Close()
			} else {
				s.rdb = rdb
				slog.Info("limiter store: redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	slog.Info("limiter store: initialized", slog.Bool("redis", s.rdb != nil), slog.Int("max_entries", maxEntries))

	if s.rdb == nil {
		go s.cleanupLoop()
	}
	return s
}

// Redis reports whether counters are kept in Redis.
func (s *LimiterStore) Redis() bool { return s.rdb != nil }

// Get returns nil, nil when the key does not exist or has expired.
func (s *LimiterStore) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	if s.rdb != nil {
		ctx, cancel := redisCtx()
		defer cancel()
		data, err := s.rdb.Get(ctx, storeKeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	}

	val, ok := s.mem.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(*storeEntry)
	if entry.expired(time.Now()) {
		s.mem.Delete(key)
		return nil, nil
	}
	return entry.data, nil
}

// Set stores val under key; exp == 0 means no expiration.
func (s *LimiterStore) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	if s.rdb != nil {
		ctx, cancel := redisCtx()
		defer cancel()
		return s.rdb.Set(ctx, storeKeyPrefix+key, val, exp).Err()
	}

	s.evictIfNeeded()

	entry := &storeEntry{data: append([]byte(nil), val...)}
	if exp > 0 {
		entry.expiresAt = time.Now().Add(exp)
	}
	s.mem.Store(key, entry)
	return nil
}

// Delete removes key.
func (s *LimiterStore) Delete(key string) error {
	if key == "" {
		return nil
	}
	if s.rdb != nil {
		ctx, cancel := redisCtx()
		defer cancel()
		return s.rdb.Del(ctx, storeKeyPrefix+key).Err()
	}
	s.mem.Delete(key)
	return nil
}

// Reset drops every limiter key.
func (s *LimiterStore) Reset() error {
	if s.rdb != nil {
		ctx, cancel := redisCtx()
		defer cancel()
		iter := s.rdb.Scan(ctx, 0, storeKeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		return iter.Err()
	}
	s.mem.Range(func(key, _ any) bool {
		s.mem.Delete(key)
		return true
	})
	return nil
}

// Close stops the cleanup loop and releases the Redis connection.
func (s *LimiterStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.rdb != nil {
			err = s.rdb.Close()
		}
	})
	return err
}

func redisCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}

// count returns the number of in-memory entries.
func (s *LimiterStore) count() int {
	n := 0
	s.mem.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// evictIfNeeded removes entries when memory exceeds maxEntries.
// Removes expired entries first, then the ones closest to expiry.
func (s *LimiterStore) evictIfNeeded() {
	if s.maxEntries <= 0 {
		return
	}

	count := s.count()
	if count < s.maxEntries {
		return
	}

	// Phase 1: remove expired
	now := time.Now()
	s.mem.Range(func(key, val any) bool {
		if entry, ok := val.(*storeEntry); ok && entry.expired(now) {
			s.mem.Delete(key)
			count--
		}
		return count >= s.maxEntries
	})

	// Phase 2: remove entries expiring soonest until under limit
	for count >= s.maxEntries {
		var oldestKey any
		var oldestAt time.Time
		s.mem.Range(func(key, val any) bool {
			entry, ok := val.(*storeEntry)
			if !ok || entry.expiresAt.IsZero() {
				return true
			}
			if oldestKey == nil || entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		s.mem.Delete(oldestKey)
		count--
	}
}

// cleanupLoop periodically removes expired entries.
func (s *LimiterStore) cleanupLoop() {
	interval := s.cleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mem.Range(func(key, val any) bool {
				if entry, ok := val.(*storeEntry); ok && entry.expired(now) {
					s.mem.Delete(key)
				}
				return true
			})
		}
	}
}
