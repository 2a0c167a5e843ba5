// Package todoapi exposes the per-user todo endpoints.
//
// Every route resolves the bearer token first and scopes all store access to
// the resolved owner; a todo id belonging to someone else is a plain 404.
package todoapi

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"tasklist/cmd/identity"
	"tasklist/cmd/internal/todo"
)

// Config controls todo API behavior.
type Config struct {
	MaxBodyBytes int64
}

// LoadConfigFromEnv loads todo API config with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{MaxBodyBytes: 1 << 20}
	if v := strings.TrimSpace(os.Getenv("TASKLIST_TODO_MAX_BODY_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}
	return cfg
}

// Handler wires HTTP todo endpoints to the todo service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	todos    *todo.Service
	resolver *identity.Resolver
}

// NewHandler constructs a todo Handler.
func NewHandler(log *slog.Logger, cfg Config, todos *todo.Service, resolver *identity.Resolver) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if todos == nil {
		return nil, errors.New("todoapi: nil todo service")
	}
	if resolver == nil {
		return nil, errors.New("todoapi: nil resolver")
	}
	return &Handler{log: log, cfg: cfg, todos: todos, resolver: resolver}, nil
}

// Register wires todo routes onto the provided mux.
// The stats route registers before the {id} wildcard so "stats" is never
// parsed as a todo id.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("GET /todos/stats/count", h.handleStats)
	mux.HandleFunc("GET /todos", h.handleList)
	mux.HandleFunc("POST /todos", h.handleCreate)
	mux.HandleFunc("GET /todos/{id}", h.handleGet)
	mux.HandleFunc("PUT /todos/{id}", h.handlePut)
	mux.HandleFunc("PATCH /todos/{id}", h.handlePatch)
	mux.HandleFunc("DELETE /todos/{id}", h.handleDelete)
}

// ---- handlers ----

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	in := todo.ListInput{OwnerID: u.ID}

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("skip")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "skip must be an integer")
			return
		}
		in.Skip = n
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
			return
		}
		in.Limit = n
	}
	if v := strings.TrimSpace(q.Get("completed")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "completed must be a boolean")
			return
		}
		in.Completed = &b
	}

	res, err := h.todos.List(r.Context(), in)
	if err != nil {
		if errors.Is(err, todo.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.Error("todos.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(res))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createTodoRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	created, err := h.todos.Create(r.Context(), u.ID, req.Task, req.Completed)
	if err != nil {
		if errors.Is(err, todo.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.Error("todos.create.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toTodoResponse(created))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	got, err := h.todos.Get(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		h.writeTodoError(w, "todos.get.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, toTodoResponse(got))
}

// handlePut merges provided fields; an empty body is a no-op read.
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// handlePatch requires at least one field.
func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, requireFields bool) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req updateTodoRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	updated, err := h.todos.Update(r.Context(), u.ID, r.PathValue("id"), todo.Patch{
		Task:      req.Task,
		Completed: req.Completed,
	}, requireFields)
	if err != nil {
		switch {
		case errors.Is(err, todo.ErrNoFields):
			writeError(w, http.StatusBadRequest, "no_fields_provided", "at least one field must be provided")
		case errors.Is(err, todo.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			h.writeTodoError(w, "todos.update.fail", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponse(updated))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.todos.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		h.writeTodoError(w, "todos.delete.fail", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	st, err := h.todos.Stats(r.Context(), u.ID)
	if err != nil {
		h.log.Error("todos.stats.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(st))
}

// ---- helpers ----

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	u, err := h.resolver.Resolve(r.Context(), r.Header.Get("Authorization"), time.Now().UTC())
	if err != nil {
		if identity.IsInvalidCredentials(err) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
			return identity.User{}, false
		}
		h.log.Error("todos.resolve.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return identity.User{}, false
	}
	return u, true
}

func (h *Handler) writeTodoError(w http.ResponseWriter, logKey string, err error) {
	if errors.Is(err, todo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "todo not found")
		return
	}
	h.log.Error(logKey, "err", err)
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
}
