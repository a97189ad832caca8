// Package api assembles the full HTTP surface: liveness probe, auth
// endpoints and the protected task endpoints, all sharing one response
// envelope.
package api

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	authapi "github.com/tasknest/tasknest/auth/api"
	"github.com/tasknest/tasknest/internal/httpjson"
	"github.com/tasknest/tasknest/tracker"
	taskapi "github.com/tasknest/tasknest/tracker/api"
)

func Handler(store *tracker.Store, realm *authapi.SecurityRealm) http.Handler {
	router := httprouter.New()
	router.HandlerFunc("GET", "/api", alive)
	realm.RegisterRoutes(router)
	taskapi.RegisterRoutes(router, store, realm.Protect)
	// the original surface reports every unmatched request as a missing
	// route, method mismatches included
	router.NotFound = http.HandlerFunc(routeNotFound)
	router.MethodNotAllowed = http.HandlerFunc(routeNotFound)
	return router
}

func alive(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusCreated, "TaskNest Api is Active", map[string]interface{}{
		"status":    "active",
		"timestamp": time.Now().UTC(),
	})
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	httpjson.Fail(w, http.StatusNotFound, "Route not found")
}
