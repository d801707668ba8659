package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"triage-assistant/internal/auth"
	"triage-assistant/internal/logging"
)

// PDFRenderer turns a triage result into a downloadable document.
type PDFRenderer interface {
	Render(res *Result) ([]byte, error)
}

// Handler exposes the patient chat endpoints and the doctor dashboard.
type Handler struct {
	svc     *Service
	results Repository
	auth    *auth.Service
	pdf     PDFRenderer
	logger  *logging.Logger
}

func NewHandler(svc *Service, results Repository, authSvc *auth.Service, pdf PDFRenderer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, results: results, auth: authSvc, pdf: pdf, logger: logger}
}

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	Message string `json:"message"`
	Triage  Level  `json:"triage"`
	Advice  string `json:"advice"`
}

// Ask handles one patient message. Intake is public: a browser without a
// session gets an anonymous one so its conversation stays isolated.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	session, err := h.ensureSession(w, r)
	if err != nil {
		h.logger.Error("failed to start session", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "no message provided")
		return
	}

	result, reply, err := h.svc.Submit(r.Context(), session.Token, session.Username, req.Message)
	if err != nil {
		if errors.Is(err, ErrMissingInput) {
			writeError(w, http.StatusBadRequest, "no message provided")
			return
		}
		h.logger.Error("submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	advice := result.Advice
	if advice == "" {
		advice = AdvicePending
	}
	writeJSON(w, http.StatusOK, askResponse{Message: reply, Triage: result.Level, Advice: advice})
}

// Reset truncates the caller's conversation back to the system prompt.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	session, err := h.ensureSession(w, r)
	if err != nil {
		h.logger.Error("failed to start session", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	h.svc.Reset(session.Token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "conversation reset"})
}

// ListResults returns the latest triage result per patient, newest first.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.ListLatest(r.Context())
	if err != nil {
		h.logger.Error("failed to list triage results", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	if results == nil {
		results = []Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

// ClearResults drops all stored triage results.
func (h *Handler) ClearResults(w http.ResponseWriter, r *http.Request) {
	if err := h.results.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear triage results", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// ExportPDF streams a PDF summary of a triage result. With no patient query
// parameter the most recently updated result is exported.
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	var result *Result
	if patient := r.URL.Query().Get("patient"); patient != "" {
		res, err := h.results.Latest(r.Context(), patient)
		if err != nil {
			if errors.Is(err, ErrResultNotFound) {
				writeError(w, http.StatusNotFound, "no triage result available")
				return
			}
			h.logger.Error("failed to load triage result", "error", err)
			writeError(w, http.StatusInternalServerError, "something went wrong")
			return
		}
		result = res
	} else {
		all, err := h.results.ListLatest(r.Context())
		if err != nil {
			h.logger.Error("failed to list triage results", "error", err)
			writeError(w, http.StatusInternalServerError, "something went wrong")
			return
		}
		if len(all) == 0 {
			writeError(w, http.StatusNotFound, "no triage result available")
			return
		}
		result = &all[0]
	}

	doc, err := h.pdf.Render(result)
	if err != nil {
		h.logger.Error("failed to render PDF", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="triage_report_%s.pdf"`, result.Patient))
	_, _ = w.Write(doc)
}

func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) (*auth.Session, error) {
	if session := auth.FromContext(r.Context()); session != nil {
		return session, nil
	}
	session, err := h.auth.StartAnonymous(r.Context())
	if err != nil {
		return nil, err
	}
	auth.SetSessionCookie(w, session)
	return session, nil
}

// RegisterRoutes mounts the chat endpoints and the doctor-gated dashboard.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/ask", h.Ask)
	r.Post("/reset", h.Reset)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleDoctor))
		r.Get("/triage-data", h.ListResults)
		r.Delete("/triage-data", h.ClearResults)
		r.Get("/triage-pdf", h.ExportPDF)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
