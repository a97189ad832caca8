package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/tasknest/tasknest/tracker"
)

type (
	// SessionStore is the durable side of session handling. The tracker
	// store satisfies it, everything else in this package only talks to
	// the interface.
	SessionStore interface {
		CreateSession(ctx context.Context, userID string, state string, ttl time.Duration) (tracker.Session, error)
		LookupSession(ctx context.Context, token string) (tracker.Session, error)
		DeleteSession(ctx context.Context, token string) error
	}

	// CachedSessions keeps recently seen sessions in memory so that the
	// per-request lookup does not always pay for a database roundtrip.
	// The cache only ever shadows the durable store, losing it costs a
	// lookup, never a session.
	CachedSessions struct {
		backend SessionStore
		cache   *bigcache.BigCache
	}

	cachedSession struct {
		UserID    string `json:"uid"`
		State     string `json:"state"`
		CreatedAt int64  `json:"cat"`
		ExpiresAt int64  `json:"eat"`
	}
)

func NewCachedSessions(backend SessionStore) (*CachedSessions, error) {
	cache, err := bigcache.NewBigCache(bigcache.DefaultConfig(10 * time.Minute))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize session cache, cause %w", err)
	}
	return &CachedSessions{
		backend: backend,
		cache:   cache,
	}, nil
}

func (c *CachedSessions) CreateSession(ctx context.Context, userID string, state string, ttl time.Duration) (tracker.Session, error) {
	sess, err := c.backend.CreateSession(ctx, userID, state, ttl)
	if err != nil {
		return tracker.Session{}, err
	}
	c.remember(sess)
	return sess, nil
}

func (c *CachedSessions) LookupSession(ctx context.Context, token string) (tracker.Session, error) {
	buf, err := c.cache.Get(token)
	if err == nil {
		var entry cachedSession
		if json.Unmarshal(buf, &entry) == nil {
			return tracker.Session{
				Token:     token,
				UserID:    entry.UserID,
				State:     entry.State,
				CreatedAt: time.Unix(entry.CreatedAt, 0).UTC(),
				ExpiresAt: time.Unix(entry.ExpiresAt, 0).UTC(),
			}, nil
		}
	}
	sess, err := c.backend.LookupSession(ctx, token)
	if err != nil {
		return tracker.Session{}, err
	}
	c.remember(sess)
	return sess, nil
}

func (c *CachedSessions) DeleteSession(ctx context.Context, token string) error {
	// drop the shadow copy first, a failed backend delete should not
	// leave a cache entry that outlives the retry
	c.cache.Delete(token)
	return c.backend.DeleteSession(ctx, token)
}

func (c *CachedSessions) remember(sess tracker.Session) {
	buf, err := json.Marshal(cachedSession{
		UserID:    sess.UserID,
		State:     sess.State,
		CreatedAt: sess.CreatedAt.Unix(),
		ExpiresAt: sess.ExpiresAt.Unix(),
	})
	if err != nil {
		return
	}
	c.cache.Set(sess.Token, buf)
}
