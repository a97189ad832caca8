// Package api exposes the ownership-scoped task endpoints. Every handler
// here runs behind the security realm, the identity always comes from the
// request context and is part of every store call, there is no task
// operation without an owner.
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
	taskRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
)

func RegisterRoutes(router *httprouter.Router, store *tracker.Store, protect func(http.Handler) http.Handler) {
	router.Handler("GET", "/api/tasks", protect(http.HandlerFunc(listTasks(store))))
	router.Handler("POST", "/api/tasks", protect(http.HandlerFunc(createTask(store))))
	router.Handler("GET", "/api/tasks/:id", protect(http.HandlerFunc(getTask(store))))
	router.Handler("PATCH", "/api/tasks/:id", protect(http.HandlerFunc(updateTask(store))))
	router.Handler("DELETE", "/api/tasks/:id", protect(http.HandlerFunc(deleteTask(store))))
}

func listTasks(store *tracker.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		var status tracker.Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			var err error
			status, err = tracker.ParseStatus(raw)
			if err != nil {
				httpjson.WriteError(w, r, err)
				return
			}
		}
		tasks, err := store.ListTasks(r.Context(), identity.ID, status)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		if tasks == nil {
			tasks = []tracker.Task{}
		}
		plural := "s"
		if len(tasks) == 1 {
			plural = ""
		}
		httpjson.Write(w, http.StatusOK, fmt.Sprintf("Retrieved %v task%v successfully", len(tasks), plural), tasks)
	}
}

func getTask(store *tracker.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		task, err := store.GetTask(r.Context(), identity.ID, id)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, "Task retrieved successfully", task)
	}
}

func createTask(store *tracker.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		var req taskRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Fail(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
		if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
			httpjson.Fail(w, http.StatusBadRequest, "Task title is required")
			return
		}
		status := tracker.StatusPending
		if req.Status != nil {
			var err error
			status, err = tracker.ParseStatus(*req.Status)
			if err != nil {
				httpjson.WriteError(w, r, err)
				return
			}
		}
		task, err := store.CreateTask(r.Context(), identity.ID, *req.Title, req.Description, status)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, "Task created successfully", task)
	}
}

func updateTask(store *tracker.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		var req taskRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Fail(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
		if req.Title == nil && req.Description == nil && req.Status == nil {
			httpjson.Fail(w, http.StatusBadRequest, "At least one field (title, description, or status) must be provided")
			return
		}
		patch := tracker.TaskPatch{
			Title:       req.Title,
			Description: req.Description,
		}
		if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
			httpjson.Fail(w, http.StatusBadRequest, "Task title cannot be empty")
			return
		}
		if req.Status != nil {
			status, err := tracker.ParseStatus(*req.Status)
			if err != nil {
				httpjson.WriteError(w, r, err)
				return
			}
			patch.Status = &status
		}
		task, err := store.UpdateTask(r.Context(), identity.ID, id, patch)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, "Task updated successfully", task)
	}
}

func deleteTask(store *tracker.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		err := store.DeleteTask(r.Context(), identity.ID, id)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, "Task deleted successfully", nil)
	}
}
