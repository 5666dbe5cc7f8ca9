package schedule

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/shared/errors"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler serves calendar and appointment views
type Handler struct {
	store *patient.Store
	now   func() time.Time
}

// NewHandler creates a new schedule handler
func NewHandler(store *patient.Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

// Routes registers the schedule routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/upcoming", h.GetUpcoming)
	r.Get("/history", h.GetHistory)
	r.Get("/calendar", h.GetCalendar)
	return r
}

// GetUpcoming returns today's, the next and all upcoming appointments for a
// patient, with an imminence flag on the next one
func (h *Handler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	now := h.now()
	view := ClassifyUpcoming(p.Appointments, now)

	nextIsSoon := false
	if view.Next != nil {
		nextIsSoon = IsSoon(*view.Next, now)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id":   p.ID,
		"todays":       view.Todays,
		"next":         view.Next,
		"next_is_soon": nextIsSoon,
		"upcoming":     view.Upcoming,
	})
}

// GetHistory returns past appointments, most recent first
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id": p.ID,
		"history":    History(p.Appointments, h.now()),
	})
}

// GetCalendar returns the month grid. Year and month default to the current
// month when omitted.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	now := h.now()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errors.BadRequest("year must be an integer"))
			return
		}
		year = parsed
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			writeError(w, errors.BadRequest("month must be between 1 and 12"))
			return
		}
		month = time.Month(parsed)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id": p.ID,
		"year":       year,
		"month":      int(month),
		"weeks":      MonthGrid(year, month, p.Appointments, now.Location()),
	})
}

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
