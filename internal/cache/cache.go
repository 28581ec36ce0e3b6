// Package cache stores extracted invoices keyed by document content, so
// re-submitting an unchanged document skips extraction.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

const keyPrefix = "invoice-qc:extract:"

// Cache is the extraction result store.
type Cache interface {
	Get(ctx context.Context, key string) (*entity.Invoice, bool, error)
	Set(ctx context.Context, key string, inv *entity.Invoice) error
}

// Key combines the document hash with the profile that produced the record.
func Key(hashHex, profile string) string {
	return keyPrefix + profile + ":" + hashHex
}

// New returns a redis-backed cache when cfg.RedisAddr is set, memory otherwise.
func New(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RedisAddr == "" {
		logger.Info("cache.memory", "ttl", cfg.TTL)
		return NewMemory(cfg.TTL), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error("cache.redis.ping.failed", "addr", cfg.RedisAddr, "err", err)
		return nil, common.WrapError(err, "redis ping")
	}
	logger.Info("cache.redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB, "ttl", cfg.TTL)
	return NewRedis(client, cfg.TTL, logger), nil
}

// Redis keeps records as JSON strings with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) (*entity.Invoice, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, common.WrapError(err, "redis get")
	}
	var inv entity.Invoice
	if err := json.Unmarshal(b, &inv); err != nil {
		// stale or foreign payload: drop it and report a miss
		r.logger.Warn("cache.redis.decode.failed", "key", key, "err", err)
		_ = r.client.Del(ctx, key).Err()
		return nil, false, nil
	}
	return &inv, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, inv *entity.Invoice) error {
	b, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
		return common.WrapError(err, "redis set")
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }

type memEntry struct {
	payload []byte
	expires time.Time
}

// DefaultMaxEntries bounds a Memory cache.
const DefaultMaxEntries = 10000

// Memory is an in-process cache. Entries are stored serialized so callers
// never share a record. Expired entries are swept by Set; when the cache is
// full the entry closest to expiry is evicted.
type Memory struct {
	ttl        time.Duration
	now        func() time.Time
	maxEntries int

	mu        sync.Mutex
	entries   map[string]memEntry
	nextSweep time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, maxEntries: DefaultMaxEntries, entries: make(map[string]memEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (*entity.Invoice, bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	var inv entity.Invoice
	if err := json.Unmarshal(e.payload, &inv); err != nil {
		return nil, false, err
	}
	return &inv, true, nil
}

func (m *Memory) Set(_ context.Context, key string, inv *entity.Invoice) error {
	b, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	var exp time.Time
	if m.ttl > 0 {
		exp = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictOne()
	}
	m.entries[key] = memEntry{payload: b, expires: exp}
	return nil
}

// sweep drops expired entries, at most once per half TTL. Callers hold mu.
func (m *Memory) sweep() {
	if m.ttl <= 0 {
		return
	}
	now := m.now()
	if now.Before(m.nextSweep) {
		return
	}
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	m.nextSweep = now.Add(m.ttl / 2)
}

// evictOne removes the entry that expires first. Callers hold mu.
func (m *Memory) evictOne() {
	var (
		victim string
		first  time.Time
		found  bool
	)
	for k, e := range m.entries {
		if !found || e.expires.Before(first) {
			victim, first, found = k, e.expires, true
		}
	}
	if found {
		delete(m.entries, victim)
	}
}

// Len reports live and expired-but-unswept entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
