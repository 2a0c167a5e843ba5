// Package authapi exposes the account endpoints: registration, login,
// profile, password change, and token refresh.
package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tasklist/cmd/identity"
)

// Handler wires HTTP auth endpoints to the identity service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	accounts *identity.Service
	resolver *identity.Resolver
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, accounts *identity.Service, resolver *identity.Resolver) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if accounts == nil {
		return nil, errors.New("auth: nil account service")
	}
	if resolver == nil {
		return nil, errors.New("auth: nil resolver")
	}
	return &Handler{log: log, cfg: cfg, accounts: accounts, resolver: resolver}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("GET /auth/me", h.handleMe)
	mux.HandleFunc("PUT /auth/me", h.handleProfileUpdate)
	mux.HandleFunc("PUT /auth/me/password", h.handlePasswordChange)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	u, err := h.accounts.Register(r.Context(), identity.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusBadRequest, "email_registered", "email already registered")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	_, issued, err := h.accounts.Login(r.Context(), req.Email, req.Password, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAccountDisabled):
			writeError(w, http.StatusUnauthorized, "account_disabled", "account is disabled")
		case identity.IsInvalidCredentials(err):
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "incorrect email or password")
		default:
			h.log.Error("auth.login.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(issued))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	updated, err := h.accounts.UpdateProfile(r.Context(), u.ID, identity.UserPatch{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusBadRequest, "email_registered", "email already registered")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			h.log.Error("auth.me.update.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

func (h *Handler) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req passwordChangeRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	err := h.accounts.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrCurrentPasswordIncorrect):
			writeError(w, http.StatusBadRequest, "current_password_incorrect", "current password is incorrect")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			h.log.Error("auth.password.change.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated successfully"})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	issued, err := h.accounts.Refresh(r.Context(), u, time.Now().UTC())
	if err != nil {
		h.log.Error("auth.refresh.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(issued))
}

// ---- helpers ----

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	u, err := h.resolver.Resolve(r.Context(), r.Header.Get("Authorization"), time.Now().UTC())
	if err != nil {
		if identity.IsInvalidCredentials(err) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
			return identity.User{}, false
		}
		h.log.Error("auth.resolve.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return identity.User{}, false
	}
	return u, true
}
