package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tasknest/tasknest/auth"
	"github.com/tasknest/tasknest/internal/testutil"
	"github.com/tasknest/tasknest/tracker"
)

func TestCachedSessions(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireStore(ctx, t)
	defer cleanup()
	alice := testutil.RegisterUser(ctx, t, store, "alice", "pw123")
	sessions, err := auth.NewCachedSessions(store)
	if err != nil {
		t.Fatal(err)
	}

	sess, err := sessions.CreateSession(ctx, alice.ID, "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	found, err := sessions.LookupSession(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if found.UserID != alice.ID {
		t.Fatalf("lookup returned the wrong user: %v", found.UserID)
	}

	// a lookup that misses the cache still reaches the durable store
	cold, err := auth.NewCachedSessions(store)
	if err != nil {
		t.Fatal(err)
	}
	found, err = cold.LookupSession(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if found.UserID != alice.ID {
		t.Fatalf("cold lookup returned the wrong user: %v", found.UserID)
	}

	err = sessions.DeleteSession(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	_, err = sessions.LookupSession(ctx, sess.Token)
	var notFound tracker.SessionNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("deleted session must not survive in the cache, got %v", err)
	}
}

func TestCachedSessionsKeepExpiry(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireStore(ctx, t)
	defer cleanup()
	alice := testutil.RegisterUser(ctx, t, store, "alice", "pw123")
	sessions, err := auth.NewCachedSessions(store)
	if err != nil {
		t.Fatal(err)
	}

	sess, err := sessions.CreateSession(ctx, alice.ID, "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	cached, err := sessions.LookupSession(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if !cached.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("cache must not shift the expiry: %v != %v", cached.ExpiresAt, sess.ExpiresAt)
	}
}
