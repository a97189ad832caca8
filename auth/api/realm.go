// Package api exposes the authentication endpoints and the session
// middleware that guards everything else.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tasknest/tasknest/auth"
	"github.com/tasknest/tasknest/internal/httpjson"
	"github.com/tasknest/tasknest/internal/logutil"
	"github.com/tasknest/tasknest/tracker"
)

type (
	// SecurityRealm resolves the session cookie once per request and
	// threads the resulting identity through the request context. There
	// is no ambient session object, a handler either finds an identity
	// in its context or the request never reached it.
	SecurityRealm struct {
		store         *tracker.Store
		sessions      auth.SessionStore
		hasher        auth.Hasher
		sessionTTL    time.Duration
		secureCookies bool
	}
)

const (
	// SessionCookieName is the client half of a session, an opaque token
	// that only means something to the session store.
	SessionCookieName = "nest_session"

	// DefaultSessionTTL is a fixed expiry, the deadline is set at login
	// and authenticated requests do not push it further out.
	DefaultSessionTTL = 24 * time.Hour
)

func NewSecurityRealm(store *tracker.Store, sessions auth.SessionStore, hasher auth.Hasher, sessionTTL time.Duration, secureCookies bool) *SecurityRealm {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &SecurityRealm{
		store:         store,
		sessions:      sessions,
		hasher:        hasher,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

// Protect rejects the request before the sensitive handler runs unless
// the session cookie resolves to a live identity. An anonymous caller
// gets a 401, a store that could not answer gets a 500, the two are
// never conflated.
func (s *SecurityRealm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.resolve(w, r)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		sensitive.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), user)))
	})
}

// resolve walks a request from cookie to identity. Missing cookie means
// anonymous, a token the store does not recognize or an expired or
// orphaned record all collapse into anonymous as well, clearing the
// cookie so the client stops resending a dead token. A store failure is
// none of those things, it bubbles up untouched and leaves both the
// cookie and the session record alone.
func (s *SecurityRealm) resolve(w http.ResponseWriter, r *http.Request) (tracker.User, error) {
	ctx := r.Context()
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return tracker.User{}, tracker.SessionNotFound{}
	}
	sess, err := s.sessions.LookupSession(ctx, cookie.Value)
	var noSession tracker.SessionNotFound
	if errors.As(err, &noSession) {
		s.clearCookie(w)
		return tracker.User{}, noSession
	} else if err != nil {
		return tracker.User{}, err
	}
	if time.Now().After(sess.ExpiresAt) {
		// lazily collect what the sweeper has not reached yet
		s.sessions.DeleteSession(ctx, cookie.Value)
		s.clearCookie(w)
		return tracker.User{}, tracker.SessionNotFound{}
	}
	user, err := s.store.FindUserByID(ctx, sess.UserID)
	var noUser tracker.UserNotFound
	if errors.As(err, &noUser) {
		// a session without a live identity is invalid, drop it now
		// instead of waiting for it to expire
		s.sessions.DeleteSession(ctx, cookie.Value)
		s.clearCookie(w)
		log := logutil.GetOrDefault(ctx)
		log.Warn().Err(err).Msg("Discarded session pointing to a missing user")
		return tracker.User{}, tracker.SessionNotFound{}
	} else if err != nil {
		return tracker.User{}, err
	}
	return user, nil
}

// establishSession creates a fresh session record for the identity and
// hands the token to the client. Login and signup both go through here,
// a successful login never reuses an existing record.
func (s *SecurityRealm) establishSession(w http.ResponseWriter, r *http.Request, user tracker.User) error {
	sess, err := s.sessions.CreateSession(r.Context(), user.ID, "", s.sessionTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies,
	})
	return nil
}

func (s *SecurityRealm) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies,
	})
}
