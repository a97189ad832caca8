package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tasknest/tasknest/internal/testutil"
	"github.com/tasknest/tasknest/tracker"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireStore(ctx, t)
	defer cleanup()
	alice := testutil.RegisterUser(ctx, t, store, "alice", "pw123")

	sess, err := store.CreateSession(ctx, alice.ID, "", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, sess.Token, 64, "token is 32 random bytes, hex encoded")
	require.Equal(t, alice.ID, sess.UserID)
	require.True(t, sess.ExpiresAt.After(time.Now().Add(23*time.Hour)))

	found, err := store.LookupSession(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.Token, found.Token)
	require.Equal(t, alice.ID, found.UserID)

	require.NoError(t, store.DeleteSession(ctx, sess.Token))
	_, err = store.LookupSession(ctx, sess.Token)
	var notFound tracker.SessionNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("deleted session should be gone, got %v", err)
	}
	// deleting again is not an error
	require.NoError(t, store.DeleteSession(ctx, sess.Token))
}

func TestSessionTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireStore(ctx, t)
	defer cleanup()
	alice := testutil.RegisterUser(ctx, t, store, "alice", "pw123")

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		sess, err := store.CreateSession(ctx, alice.ID, "", time.Hour)
		require.NoError(t, err)
		if seen[sess.Token] {
			t.Fatal("token issued twice")
		}
		seen[sess.Token] = true
	}
}

func TestPurgeExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireStore(ctx, t)
	defer cleanup()
	alice := testutil.RegisterUser(ctx, t, store, "alice", "pw123")

	expired, err := store.CreateSession(ctx, alice.ID, "", -time.Minute)
	require.NoError(t, err)
	live, err := store.CreateSession(ctx, alice.ID, "", time.Hour)
	require.NoError(t, err)

	purged, err := store.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	_, err = store.LookupSession(ctx, expired.Token)
	var notFound tracker.SessionNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expired session should have been purged, got %v", err)
	}
	_, err = store.LookupSession(ctx, live.Token)
	require.NoError(t, err)
}
