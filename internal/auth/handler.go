package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"triage-assistant/internal/logging"
)

// Handler exposes signup/login/logout for patients and the doctor login.
type Handler struct {
	svc    *Service
	logger *logging.Logger

	// OnLogout is called with the session token after a successful logout so
	// the owner of the conversation state can drop it.
	OnLogout func(token string)
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := h.svc.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUserExists):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("signup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "something went wrong")
		}
		return
	}
	SetSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, sessionResponse{Username: session.Username, Role: session.Role})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.svc.Login)
}

func (h *Handler) DoctorLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.svc.DoctorLogin)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request,
	authenticate func(ctx context.Context, username, password string) (*Session, error)) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			h.logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "something went wrong")
		}
		return
	}
	SetSessionCookie(w, session)
	writeJSON(w, http.StatusOK, sessionResponse{Username: session.Username, Role: session.Role})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := FromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.svc.Logout(r.Context(), session.Token); err != nil {
		h.logger.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	if h.OnLogout != nil {
		h.OnLogout(session.Token)
	}
	ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// RegisterRoutes mounts the auth endpoints on the router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/doctor-login", h.DoctorLogin)
	r.Post("/logout", h.Logout)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
