package tracker

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

type (
	Session struct {
		Token     string
		UserID    string
		State     string
		CreatedAt time.Time
		ExpiresAt time.Time
	}
)

// CreateSession issues a fresh opaque token bound to the given user. The
// token itself is the credential, so it comes straight from crypto/rand;
// the xxhash column only narrows the lookup the same way an index on the
// token would, without making the token guessable.
func (s *Store) CreateSession(ctx context.Context, userID string, state string, ttl time.Duration) (Session, error) {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	if err != nil {
		return Session{}, fmt.Errorf("unable to generate session token, cause %w", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	sess := Session{
		Token:     hex.EncodeToString(buf),
		UserID:    userID,
		State:     state,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err = s.db.ExecContext(ctx, `insert into sessions (token, token_hash64, user_id, state, created_at, expires_at)
	values (?, ?, ?, ?, ?, ?)`,
		sess.Token, int64(xxhash.Sum64String(sess.Token)), sess.UserID, sess.State, now.Unix(), sess.ExpiresAt.Unix())
	if err != nil {
		return Session{}, fmt.Errorf("unable to store session for user %v, cause %w", userID, err)
	}
	return sess, nil
}

// LookupSession returns the record behind a token. Expiry is not checked
// here, the caller decides what an expired record means.
func (s *Store) LookupSession(ctx context.Context, token string) (Session, error) {
	var sess Session
	var created, expires int64
	err := s.db.QueryRowContext(ctx, `select token, user_id, state, created_at, expires_at
	from sessions where token_hash64 = ? and token = ?`,
		int64(xxhash.Sum64String(token)), token).
		Scan(&sess.Token, &sess.UserID, &sess.State, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, SessionNotFound{}
	} else if err != nil {
		return Session{}, fmt.Errorf("unable to lookup session, cause %w", err)
	}
	sess.CreatedAt = time.Unix(created, 0).UTC()
	sess.ExpiresAt = time.Unix(expires, 0).UTC()
	return sess, nil
}

// DeleteSession destroys the record behind a token. Deleting a token that
// is already gone is not an error, logout must stay idempotent.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where token_hash64 = ? and token = ?`,
		int64(xxhash.Sum64String(token)), token)
	if err != nil {
		return fmt.Errorf("unable to delete session, cause %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes every record whose expiry is in the past
// and reports how many were dropped.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from sessions where expires_at <= ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("unable to purge expired sessions, cause %w", err)
	}
	return res.RowsAffected()
}
