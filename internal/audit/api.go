package audit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/carebridge/platform/internal/shared/errors"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler serves the activity trail
type Handler struct {
	trail *Trail
}

// NewHandler creates a new activity handler
func NewHandler(trail *Trail) *Handler {
	return &Handler{trail: trail}
}

// Routes registers the activity routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}

// List returns activity entries newest first. Accepts optional patient_id
// and limit query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var patientID types.ID
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		id, err := types.ParseID(raw)
		if err != nil {
			writeError(w, errors.BadRequest("invalid patient_id"))
			return
		}
		patientID = id
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, errors.BadRequest("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": h.trail.List(patientID, limit),
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
