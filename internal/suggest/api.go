package suggest

import (
	"encoding/json"
	"net/http"

	"github.com/carebridge/platform/internal/shared/errors"
	"github.com/go-chi/chi/v5"
)

// Handler serves the conflict-suggestion slot
type Handler struct {
	service *Service
}

// NewHandler creates a new suggestion handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the suggestion routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetSuggestions)
	r.Post("/refresh", h.Refresh)
	return r
}

// GetSuggestions returns the suggestion slot for the selected patient
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Current())
}

// Refresh synchronously re-fetches suggestions for the selected patient and
// returns the resulting slot
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := h.service.store.SelectedID()
	if id.IsZero() {
		writeError(w, errors.NotFound("selected patient", ""))
		return
	}

	h.service.Refresh(r.Context(), id)
	writeJSON(w, http.StatusOK, h.service.Current())
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
