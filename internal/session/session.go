// Package session carries the teacher/class selection through scan and
// report calls, replacing what used to be ambient UI state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session identifies one teacher/class pairing. Every reconcile and
// aggregation call receives one explicitly.
type Session struct {
	Teacher string `json:"teacher"`
	Class   string `json:"class"`
}

// Valid reports whether both fields are set.
func (s Session) Valid() bool {
	return s.Teacher != "" && s.Class != ""
}

func (s Session) cacheKey() string {
	return "scan:last:" + s.Teacher + "|" + s.Class
}

// ErrNoResult is returned when no scan has been cached for a session.
var ErrNoResult = errors.New("session: no cached scan result")

// Cache stores the most recent scan result per session in redis so the
// dashboard can re-display it without re-scanning.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache wraps a redis client. A zero ttl means results never expire.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// SaveResult replaces the cached result for the session.
func (c *Cache) SaveResult(ctx context.Context, sess Session, result any) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, sess.cacheKey(), data, c.ttl).Err()
}

// LastResult loads the cached result for the session into dst.
func (c *Cache) LastResult(ctx context.Context, sess Session, dst any) error {
	if c == nil || c.rdb == nil {
		return ErrNoResult
	}
	data, err := c.rdb.Get(ctx, sess.cacheKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNoResult
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Clear drops the cached result, e.g. after a manual status change.
func (c *Cache) Clear(ctx context.Context, sess Session) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, sess.cacheKey()).Err()
}
