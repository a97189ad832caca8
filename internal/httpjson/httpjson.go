// Package httpjson is the single boundary between domain errors and HTTP
// responses. Handlers construct errors where they detect them and hand
// them over unmodified, the mapping to a status code and a client-facing
// message happens here and nowhere else.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tasknest/tasknest/internal/logutil"
	"github.com/tasknest/tasknest/tracker"
)

type (
	envelope struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}

	failureEnvelope struct {
		Success bool     `json:"success"`
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
)

const (
	// maxBodySize keeps a single request from buffering unbounded JSON
	maxBodySize = 1 << 20
)

// Write serializes a success envelope. A nil data is rendered as an
// explicit null, clients rely on the field always being present.
func Write(w http.ResponseWriter, status int, message string, data interface{}) {
	buf, err := json.Marshal(envelope{Success: true, Message: message, Data: data})
	if err != nil {
		http.Error(w, "unable to serialize response", http.StatusInternalServerError)
		return
	}
	writeBody(w, status, buf)
}

// Fail serializes a failure envelope with an explicit status, for
// validation problems the handler detects itself.
func Fail(w http.ResponseWriter, status int, message string) {
	buf, err := json.Marshal(failureEnvelope{Message: message, Errors: []string{}})
	if err != nil {
		http.Error(w, "unable to serialize response", http.StatusInternalServerError)
		return
	}
	writeBody(w, status, buf)
}

// WriteError maps a domain error to its status code and message. Anything
// outside the known taxonomy is logged with full detail and reported to
// the caller as a generic internal error.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).
			Str("req.method", r.Method).
			Str("req.path", r.URL.Path).
			Msg("Request failed with an unexpected error")
	}
	Fail(w, status, message)
}

// Decode reads the request body as JSON into out, with a size cap so a
// single client cannot buffer arbitrary amounts of memory.
func Decode(r *http.Request, out interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	err := dec.Decode(out)
	if err != nil {
		return fmt.Errorf("unable to decode request body, cause %w", err)
	}
	return nil
}

func classify(err error) (int, string) {
	var (
		invalidCredentials tracker.InvalidCredentials
		usernameTaken      tracker.UsernameTaken
		userNotFound       tracker.UserNotFound
		taskNotFound       tracker.TaskNotFound
		sessionNotFound    tracker.SessionNotFound
		invalidStatus      tracker.InvalidStatus
	)
	switch {
	case errors.As(err, &invalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.As(err, &usernameTaken):
		return http.StatusConflict, "Username already exists"
	case errors.As(err, &userNotFound):
		return http.StatusNotFound, "User not found"
	case errors.As(err, &taskNotFound):
		// not owned and not existing share one message on purpose,
		// a 403 here would confirm the task exists for someone else
		return http.StatusNotFound, "Task not found or you don't have permission to access it"
	case errors.As(err, &sessionNotFound):
		return http.StatusUnauthorized, "unauthorized - Please login first"
	case errors.As(err, &invalidStatus):
		return http.StatusBadRequest, "Invalid status. Must be PENDING or COMPLETED"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

func writeBody(w http.ResponseWriter, status int, buf []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	w.Write(buf)
}
