package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/tasknest/tasknest/auth"
	"github.com/tasknest/tasknest/internal/testutil"
	"github.com/tasknest/tasknest/tracker"
)

func acquireRealm(ctx context.Context, t *testing.T) (*tracker.Store, http.Handler, func()) {
	store, cleanup := testutil.AcquireStore(ctx, t)
	sessions, err := auth.NewCachedSessions(store)
	if err != nil {
		t.Fatal(err)
	}
	realm := NewSecurityRealm(store, sessions, testutil.TestHasher(), time.Hour, false)
	router := httprouter.New()
	realm.RegisterRoutes(router)
	return store, router, cleanup
}

func sessionCookie(t *testing.T, res apitest.Result) string {
	for _, c := range res.Response.Cookies() {
		if c.Name == SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("session cookie not set")
	return ""
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	_, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	res := apitest.New().
		Handler(handler).
		Post("/api/auth/signup").
		JSON(`{"username": "alice", "password": "pw123", "name": "Alice"}`).
		Expect(t).
		Status(http.StatusCreated).
		CookiePresent(SessionCookieName).
		Assert(jsonpath.Equal("$.success", true)).
		Assert(jsonpath.Equal("$.data.username", "alice")).
		Assert(jsonpath.Equal("$.data.name", "Alice")).
		Assert(jsonpath.NotPresent("$.data.password")).
		Assert(jsonpath.NotPresent("$.data.passwordHash")).
		End()

	// signup establishes a session right away
	token := sessionCookie(t, res)
	apitest.New().
		Handler(handler).
		Get("/api/auth/me").
		Cookies(apitest.NewCookie(SessionCookieName).Value(token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.data.username", "alice")).
		Assert(jsonpath.NotPresent("$.data.passwordHash")).
		End()
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	_, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	apitest.New().
		Handler(handler).
		Post("/api/auth/signup").
		JSON(`{"username": "alice"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.success", false)).
		End()

	apitest.New().
		Handler(handler).
		Post("/api/auth/signup").
		JSON(`{"username": "alice", "password": "pw123"}`).
		Expect(t).
		Status(http.StatusCreated).
		End()

	apitest.New().
		Handler(handler).
		Post("/api/auth/signup").
		JSON(`{"username": "alice", "password": "different"}`).
		Expect(t).
		Status(http.StatusConflict).
		Assert(jsonpath.Equal("$.message", "Username already exists")).
		End()
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()
	testutil.RegisterUser(ctx, t, store, "alice", "pw123")

	apitest.New().
		Handler(handler).
		Post("/api/auth/login").
		JSON(`{"username": "alice", "password": "pw123"}`).
		Expect(t).
		Status(http.StatusOK).
		CookiePresent(SessionCookieName).
		Assert(jsonpath.Equal("$.data.username", "alice")).
		Assert(jsonpath.NotPresent("$.data.passwordHash")).
		End()
}

func TestLoginFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	store, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()
	testutil.RegisterUser(ctx, t, store, "alice", "pw123")

	// wrong password and unknown username produce byte-identical
	// failures, repeated attempts learn nothing about which was wrong
	for _, body := range []string{
		`{"username": "alice", "password": "wrong"}`,
		`{"username": "nobody", "password": "pw123"}`,
	} {
		apitest.New().
			Handler(handler).
			Post("/api/auth/login").
			JSON(body).
			Expect(t).
			Status(http.StatusUnauthorized).
			Assert(jsonpath.Equal("$.message", "Invalid username or password")).
			CookieNotPresent(SessionCookieName).
			End()
	}
}

func TestMeRequiresSession(t *testing.T) {
	ctx := context.Background()
	_, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	apitest.New().
		Handler(handler).
		Get("/api/auth/me").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.New().
		Handler(handler).
		Get("/api/auth/me").
		Cookies(apitest.NewCookie(SessionCookieName).Value("forged-token")).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestExpiredSessionIsRejected(t *testing.T) {
	ctx := context.Background()
	store, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()
	alice := testutil.RegisterUser(ctx, t, store, "alice", "pw123")
	expired, err := store.CreateSession(ctx, alice.ID, "", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	res := apitest.New().
		Handler(handler).
		Get("/api/auth/me").
		Cookies(apitest.NewCookie(SessionCookieName).Value(expired.Token)).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	// the dead cookie is cleared so the client stops resending it
	for _, c := range res.Response.Cookies() {
		if c.Name == SessionCookieName && c.Value != "" {
			t.Fatal("expired session cookie was not cleared")
		}
	}
	// and the record itself is gone from the store
	_, err = store.LookupSession(ctx, expired.Token)
	if err == nil {
		t.Fatal("expired session should have been discarded on access")
	}
}

func TestStoreFailureIsNotAnonymous(t *testing.T) {
	ctx := context.Background()
	store, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()
	alice := testutil.RegisterUser(ctx, t, store, "alice", "pw123")
	sess, err := store.CreateSession(ctx, alice.ID, "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	// a store that cannot answer is an internal failure, not an
	// anonymous caller, and must not eat the session or the cookie
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	res := apitest.New().
		Handler(handler).
		Get("/api/auth/me").
		Cookies(apitest.NewCookie(SessionCookieName).Value(sess.Token)).
		Expect(t).
		Status(http.StatusInternalServerError).
		Assert(jsonpath.Equal("$.message", "Internal Server Error")).
		End()
	for _, c := range res.Response.Cookies() {
		if c.Name == SessionCookieName {
			t.Fatal("a failing lookup must not touch the client cookie")
		}
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()
	testutil.RegisterUser(ctx, t, store, "alice", "pw123")

	res := apitest.New().
		Handler(handler).
		Post("/api/auth/login").
		JSON(`{"username": "alice", "password": "pw123"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
	token := sessionCookie(t, res)

	apitest.New().
		Handler(handler).
		Get("/api/auth/logout").
		Cookies(apitest.NewCookie(SessionCookieName).Value(token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.data", nil)).
		End()

	// the session is gone, the same token no longer authenticates
	apitest.New().
		Handler(handler).
		Get("/api/auth/me").
		Cookies(apitest.NewCookie(SessionCookieName).Value(token)).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	// logging out again, with the dead token or with an empty cookie,
	// still succeeds and still clears the cookie
	apitest.New().
		Handler(handler).
		Get("/api/auth/logout").
		Cookies(apitest.NewCookie(SessionCookieName).Value(token)).
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().
		Handler(handler).
		Get("/api/auth/logout").
		Cookies(apitest.NewCookie(SessionCookieName).Value("")).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	store, handler, cleanup := acquireRealm(ctx, t)
	defer cleanup()
	testutil.RegisterUser(ctx, t, store, "alice", "pw123")
	bob := testutil.RegisterUser(ctx, t, store, "bob", "pw456")
	sess, err := store.CreateSession(ctx, bob.ID, "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	apitest.New().
		Handler(handler).
		Get("/api/auth/users").
		Cookies(apitest.NewCookie(SessionCookieName).Value(sess.Token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.data", 2)).
		Assert(jsonpath.Equal("$.data[0].username", "bob")).
		Assert(jsonpath.NotPresent("$.data[0].passwordHash")).
		End()
}
