package adherence

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/shared/errors"
	"github.com/carebridge/platform/internal/shared/metrics"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler serves adherence reports and escalation checks
type Handler struct {
	store *patient.Store
	now   func() time.Time
}

// NewHandler creates a new adherence handler
func NewHandler(store *patient.Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

// Routes registers the report routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/adherence", h.GetAdherence)
	r.Get("/escalations", h.GetEscalations)
	return r
}

// GetAdherence returns the adherence report for a patient. The patient
// defaults to the current selection and the window to the last 7 days.
func (h *Handler) GetAdherence(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, errors.BadRequest("days must be a positive integer"))
			return
		}
		days = parsed
	}

	report := Compute(p.Medications, LastDays(h.now(), days))
	writeJSON(w, http.StatusOK, report)
}

// GetEscalations returns the active consecutive-miss escalations for a
// patient under that patient's own notification settings
func (h *Handler) GetEscalations(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	escalations := DetectEscalations(p.Medications, p.NotificationSettings.EscalationAlerts)
	metrics.RecordEscalations(len(escalations))

	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id":  p.ID,
		"escalations": escalations,
	})
}

// resolvePatient reads the patient_id query parameter, falling back to the
// current selection when absent
func (h *Handler) resolvePatient(w http.ResponseWriter, r *http.Request) (patient.Patient, bool) {
	raw := r.URL.Query().Get("patient_id")
	if raw == "" {
		p, found := h.store.SelectedPatient()
		if !found {
			writeError(w, errors.NotFound("selected patient", ""))
			return patient.Patient{}, false
		}
		return p, true
	}

	id, err := types.ParseID(raw)
	if err != nil {
		writeError(w, errors.BadRequest("invalid patient_id"))
		return patient.Patient{}, false
	}

	p, found := h.store.Patient(id)
	if !found {
		writeError(w, errors.NotFound("patient", raw))
		return patient.Patient{}, false
	}
	return p, true
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
