package patient

import (
	"encoding/json"
	"net/http"

	"github.com/carebridge/platform/internal/shared/errors"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for the patient collection and the
// caregiver profile
type Handler struct {
	store *Store
}

// NewHandler creates a new patient handler
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Routes registers the patient routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/selected", h.Selected)

	r.Route("/{patientID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/select", h.Select)

		r.Put("/medications", h.UpsertMedication)
		r.Delete("/medications/{medicationID}", h.DeleteMedication)
		r.Post("/medications/{medicationID}/logs", h.AddMedicationLog)
		r.Patch("/medications/{medicationID}/logs/{logID}", h.SetMedicationLogStatus)

		r.Put("/appointments", h.UpsertAppointment)
		r.Delete("/appointments/{appointmentID}", h.DeleteAppointment)

		r.Put("/health-records", h.UpsertHealthRecord)
		r.Delete("/health-records/{recordID}", h.DeleteHealthRecord)

		r.Put("/notification-settings", h.SetNotificationSettings)
	})

	return r
}

// CaregiverRoutes registers the caregiver profile routes
func (h *Handler) CaregiverRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetCaregiver)
	r.Put("/", h.UpdateCaregiver)
	return r
}

// List returns all patients
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Patients())
}

// Create adds a patient and selects it
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if p.Name == "" {
		writeError(w, errors.Validation("name is required", map[string]string{"name": "required"}))
		return
	}

	created := h.store.CreatePatient(r.Context(), p)
	writeJSON(w, http.StatusCreated, created)
}

// Get returns the full entity graph for one patient
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}

	p, found := h.store.Patient(id)
	if !found {
		writeError(w, errors.NotFound("patient", id.String()))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update replaces a patient
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}

	var p Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	h.store.UpdatePatient(r.Context(), id, p)
	h.respondWithPatient(w, id)
}

// Delete removes a patient
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}

	h.store.DeletePatient(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// Selected returns the currently selected patient
func (h *Handler) Selected(w http.ResponseWriter, r *http.Request) {
	p, found := h.store.SelectedPatient()
	if !found {
		writeError(w, errors.NotFound("selected patient", ""))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Select changes the current selection
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}

	h.store.SelectPatient(r.Context(), id)
	h.respondWithPatient(w, id)
}

// UpsertMedication creates or replaces a medication
func (h *Handler) UpsertMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}

	var med Medication
	if err := json.NewDecoder(r.Body).Decode(&med); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	h.store.UpsertMedication(r.Context(), id, med)
	h.respondWithPatient(w, id)
}

// DeleteMedication removes a medication
func (h *Handler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}
	medID, ok := pathID(w, r, "medicationID")
	if !ok {
		return
	}

	h.store.DeleteMedication(r.Context(), id, medID)
	w.WriteHeader(http.StatusNoContent)
}

// AddMedicationLog appends a dose log
func (h *Handler) AddMedicationLog(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}
	medID, ok := pathID(w, r, "medicationID")
	if !ok {
		return
	}

	var log MedicationLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	h.store.AddMedicationLog(r.Context(), id, medID, log)
	h.respondWithPatient(w, id)
}

// SetMedicationLogStatus updates one dose log's status by log id
func (h *Handler) SetMedicationLogStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}
	medID, ok := pathID(w, r, "medicationID")
	if !ok {
		return
	}
	logID, ok := pathID(w, r, "logID")
	if !ok {
		return
	}

	var body struct {
		Status MedicationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if !body.Status.Valid() {
		writeError(w, errors.Validation("invalid status", map[string]string{"status": string(body.Status)}))
		return
	}

	h.store.SetMedicationLogStatus(r.Context(), id, medID, logID, body.Status)
	h.respondWithPatient(w, id)
}

// UpsertAppointment creates or replaces an appointment
func (h *Handler) UpsertAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}

	var appt Appointment
	if err := json.NewDecoder(r.Body).Decode(&appt); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	h.store.UpsertAppointment(r.Context(), id, appt)
	h.respondWithPatient(w, id)
}

// DeleteAppointment removes an appointment
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}
	apptID, ok := pathID(w, r, "appointmentID")
	if !ok {
		return
	}

	h.store.DeleteAppointment(r.Context(), id, apptID)
	w.WriteHeader(http.StatusNoContent)
}

// UpsertHealthRecord creates or replaces a health record
func (h *Handler) UpsertHealthRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}

	var rec HealthRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if rec.Type != "" && !rec.Type.Valid() {
		writeError(w, errors.Validation("invalid record type", map[string]string{"type": string(rec.Type)}))
		return
	}

	h.store.UpsertHealthRecord(r.Context(), id, rec)
	h.respondWithPatient(w, id)
}

// DeleteHealthRecord removes a health record
func (h *Handler) DeleteHealthRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}
	recID, ok := pathID(w, r, "recordID")
	if !ok {
		return
	}

	h.store.DeleteHealthRecord(r.Context(), id, recID)
	w.WriteHeader(http.StatusNoContent)
}

// SetNotificationSettings replaces a patient's notification settings
func (h *Handler) SetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := patientID(w, r)
	if !ok {
		return
	}

	var settings NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	h.store.SetNotificationSettings(r.Context(), id, settings)
	h.respondWithPatient(w, id)
}

// GetCaregiver returns the caregiver profile
func (h *Handler) GetCaregiver(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Caregiver())
}

// UpdateCaregiver replaces the caregiver profile
func (h *Handler) UpdateCaregiver(w http.ResponseWriter, r *http.Request) {
	var cg Caregiver
	if err := json.NewDecoder(r.Body).Decode(&cg); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	updated := h.store.UpdateCaregiver(r.Context(), cg)
	writeJSON(w, http.StatusOK, updated)
}

// respondWithPatient writes the patient's current state, or 404 when the
// mutation targeted an unknown patient
func (h *Handler) respondWithPatient(w http.ResponseWriter, id types.ID) {
	p, found := h.store.Patient(id)
	if !found {
		writeError(w, errors.NotFound("patient", id.String()))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Helpers ---

func patientID(w http.ResponseWriter, r *http.Request) (types.ID, bool) {
	return pathID(w, r, "patientID")
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (types.ID, bool) {
	id, err := types.ParseID(chi.URLParam(r, param))
	if err != nil {
		writeError(w, errors.BadRequest("invalid "+param))
		return "", false
	}
	return id, true
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
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
