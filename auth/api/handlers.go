package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/tasknest/tasknest/auth"
	"github.com/tasknest/tasknest/internal/httpjson"
	"github.com/tasknest/tasknest/tracker"
)

type (
	credentialsRequest struct {
		Username string  `json:"username"`
		Password string  `json:"password"`
		Name     *string `json:"name"`
	}
)

// RegisterRoutes mounts the auth endpoints. Logout deliberately sits
// outside Protect: clearing a session that is already gone must succeed,
// a client holding a dead cookie would otherwise be stuck with it.
func (s *SecurityRealm) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc("POST", "/api/auth/signup", s.signup)
	router.HandlerFunc("POST", "/api/auth/login", s.login)
	router.HandlerFunc("GET", "/api/auth/logout", s.logout)
	router.Handler("GET", "/api/auth/me", s.Protect(http.HandlerFunc(s.me)))
	router.Handler("GET", "/api/auth/users", s.Protect(http.HandlerFunc(s.listUsers)))
}

func (s *SecurityRealm) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		httpjson.Fail(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	user, err := s.store.CreateUser(r.Context(), strings.TrimSpace(req.Username), digest, req.Name)
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	// auto-login, the client should not have to post the same
	// credentials twice in a row
	if err := s.establishSession(w, r, user); err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, "User registered successfully", user)
}

func (s *SecurityRealm) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpjson.Fail(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	user, err := auth.Authenticate(r.Context(), s.store, s.hasher, req.Username, req.Password)
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	if err := s.establishSession(w, r, user); err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, "Login successful", user)
}

func (s *SecurityRealm) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := s.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
	}
	s.clearCookie(w)
	httpjson.Write(w, http.StatusOK, "Logout successful", nil)
}

func (s *SecurityRealm) me(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	// re-fetch instead of trusting the snapshot taken by the middleware,
	// the identity may have vanished since the session was issued
	user, err := s.store.FindUserByID(r.Context(), identity.ID)
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, "User data retrieved successfully", user)
}

func (s *SecurityRealm) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	if users == nil {
		users = []tracker.User{}
	}
	httpjson.Write(w, http.StatusOK, fmt.Sprintf("Retrieved %v users successfully", len(users)), users)
}
