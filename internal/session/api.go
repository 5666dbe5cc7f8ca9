package session

import (
	"encoding/json"
	"net/http"

	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/shared/auth"
	"github.com/carebridge/platform/internal/shared/config"
	"github.com/carebridge/platform/internal/shared/errors"
	"github.com/go-chi/chi/v5"
)

// Handler issues and inspects caregiver sessions. The dashboard has a
// single caregiver, so login is a name prompt, not a credential check.
type Handler struct {
	cfg   config.AuthConfig
	store *patient.Store
}

// NewHandler creates a new session handler
func NewHandler(cfg config.AuthConfig, store *patient.Store) *Handler {
	return &Handler{cfg: cfg, store: store}
}

// Routes registers the public session routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	return r
}

// ProtectedRoutes registers routes that require an authenticated session
func (h *Handler) ProtectedRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.Me)
	return r
}

// LoginRequest is the login payload; the name is optional and defaults to
// the configured caregiver
type LoginRequest struct {
	Name string `json:"name"`
}

// Login issues a session token for the caregiver
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	cg := h.store.Caregiver()
	name := req.Name
	if name == "" {
		name = cg.Name
	}

	token, err := auth.IssueToken(h.cfg, cg.ID, name)
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"caregiver": cg,
	})
}

// Me returns the session extracted from the bearer token
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized("no active session"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"caregiver_id": s.CaregiverID,
		"name":         s.Name,
		"session_id":   s.SessionID,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
