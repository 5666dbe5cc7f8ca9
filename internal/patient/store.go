package patient

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/carebridge/platform/internal/kvstore"
	"github.com/carebridge/platform/internal/shared/events"
	"github.com/carebridge/platform/internal/shared/metrics"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/rs/zerolog"
)

// Snapshot keys in the durable store
const (
	keyCaregiver = "caregiver"
	keyPatients  = "patients"
	keySelected  = "selected_patient"
)

// Store holds the authoritative in-memory state: the caregiver profile, the
// patient collection and the selected-patient id. Every mutation re-derives
// the selection, mirrors the state to the durable key-value store and
// publishes an activity event. Mutations on missing ids are silent no-ops.
type Store struct {
	mu         sync.RWMutex
	caregiver  Caregiver
	patients   []Patient
	selectedID types.ID

	kv  kvstore.Store
	bus events.Bus
	log zerolog.Logger
}

// Seed is the state installed when no usable snapshot exists
type Seed struct {
	Caregiver Caregiver
	Patients  []Patient
}

// NewStore creates the store, restoring the snapshot from kv when present.
// A missing or malformed value for any key falls back to the seed for that
// key; corruption never prevents startup.
func NewStore(ctx context.Context, kv kvstore.Store, bus events.Bus, log zerolog.Logger, seed Seed) *Store {
	s := &Store{
		kv:  kv,
		bus: bus,
		log: log.With().Str("component", "store").Logger(),
	}

	s.caregiver = seed.Caregiver
	if data, err := kv.Get(ctx, keyCaregiver); err == nil {
		var cg Caregiver
		if err := json.Unmarshal(data, &cg); err == nil {
			s.caregiver = cg
		} else {
			s.log.Warn().Err(err).Msg("malformed caregiver snapshot, using defaults")
		}
	}

	s.patients = seed.Patients
	if data, err := kv.Get(ctx, keyPatients); err == nil {
		var ps []Patient
		if err := json.Unmarshal(data, &ps); err == nil {
			s.patients = ps
		} else {
			s.log.Warn().Err(err).Msg("malformed patients snapshot, using defaults")
		}
	}

	if data, err := kv.Get(ctx, keySelected); err == nil {
		s.selectedID = types.ID(data)
	}
	// Selection must always reference an existing patient
	if _, ok := s.lookup(s.selectedID); !ok {
		s.selectedID = ""
		if len(s.patients) > 0 {
			s.selectedID = s.patients[0].ID
		}
	}

	for i := range s.patients {
		normalize(&s.patients[i])
	}

	return s
}

// lookup finds a patient index by id; callers hold the lock
func (s *Store) lookup(id types.ID) (int, bool) {
	if id.IsZero() {
		return 0, false
	}
	for i := range s.patients {
		if s.patients[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// normalize assigns missing ids to nested entities and clamps settings so
// every stored patient satisfies the model invariants regardless of input.
func normalize(p *Patient) {
	if p.NotificationSettings == (NotificationSettings{}) {
		p.NotificationSettings = DefaultNotificationSettings()
	}
	if p.NotificationSettings.EscalationAlerts.MissedDosesThreshold < MinEscalationThreshold {
		p.NotificationSettings.EscalationAlerts.MissedDosesThreshold = MinEscalationThreshold
	}
	for i := range p.Medications {
		if p.Medications[i].ID.IsZero() {
			p.Medications[i].ID = types.NewID()
		}
		for j := range p.Medications[i].Logs {
			if p.Medications[i].Logs[j].ID.IsZero() {
				p.Medications[i].Logs[j].ID = types.NewID()
			}
		}
	}
	for i := range p.Appointments {
		if p.Appointments[i].ID.IsZero() {
			p.Appointments[i].ID = types.NewID()
		}
	}
	for i := range p.HealthRecords {
		if p.HealthRecords[i].ID.IsZero() {
			p.HealthRecords[i].ID = types.NewID()
		}
	}
}

// persist mirrors the full state to the durable store. Failures are logged
// and ignored; the in-memory state stays authoritative.
func (s *Store) persist(ctx context.Context) {
	ok := true

	if data, err := json.Marshal(s.caregiver); err == nil {
		if err := s.kv.Put(ctx, keyCaregiver, data); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist caregiver")
			ok = false
		}
	}
	if data, err := json.Marshal(s.patients); err == nil {
		if err := s.kv.Put(ctx, keyPatients, data); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist patients")
			ok = false
		}
	}
	if err := s.kv.Put(ctx, keySelected, []byte(s.selectedID)); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist selection")
		ok = false
	}

	metrics.RecordSnapshotWrite(ok)
}

func (s *Store) publish(ctx context.Context, eventType string, patientID types.ID, data map[string]any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.NewEvent(eventType, patientID, data)); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

// --- Queries ---

// Caregiver returns the caregiver profile
func (s *Store) Caregiver() Caregiver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caregiver
}

// Patients returns a deep copy of the patient collection
func (s *Store) Patients() []Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Patient, len(s.patients))
	for i, p := range s.patients {
		out[i] = p.Clone()
	}
	return out
}

// Patient returns a deep copy of the patient with the given id
func (s *Store) Patient(id types.ID) (Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.lookup(id)
	if !ok {
		return Patient{}, false
	}
	return s.patients[i].Clone(), true
}

// SelectedPatient resolves the current selection by lookup, never from a
// cached copy
func (s *Store) SelectedPatient() (Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.lookup(s.selectedID)
	if !ok {
		return Patient{}, false
	}
	return s.patients[i].Clone(), true
}

// SelectedID returns the current selection id, or the zero ID when no
// patient is selected
func (s *Store) SelectedID() types.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// --- Caregiver ---

// UpdateCaregiver replaces the caregiver profile, preserving its id
func (s *Store) UpdateCaregiver(ctx context.Context, cg Caregiver) Caregiver {
	s.mu.Lock()
	defer s.mu.Unlock()

	cg.ID = s.caregiver.ID
	s.caregiver = cg
	s.persist(ctx)
	metrics.RecordMutation("caregiver", "update")
	s.publish(ctx, "caregiver.updated", "", map[string]any{"name": cg.Name})
	return cg
}

// --- Patient mutations ---

// CreatePatient assigns a fresh id, appends the patient and selects it
func (s *Store) CreatePatient(ctx context.Context, p Patient) Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = types.NewID()
	normalize(&p)
	s.patients = append(s.patients, p)
	s.selectedID = p.ID

	s.persist(ctx)
	metrics.RecordMutation("patient", "create")
	s.publish(ctx, "patient.created", p.ID, map[string]any{"name": p.Name})
	s.publish(ctx, "patient.selected", p.ID, nil)
	return p.Clone()
}

// UpdatePatient replaces the patient with the given id; no-op if absent
func (s *Store) UpdatePatient(ctx context.Context, id types.ID, p Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(id)
	if !ok {
		return
	}

	p.ID = id
	normalize(&p)
	s.patients[i] = p

	s.persist(ctx)
	metrics.RecordMutation("patient", "update")
	s.publish(ctx, "patient.updated", id, map[string]any{"name": p.Name})
}

// DeletePatient removes the patient. When the selected patient is deleted,
// selection falls back to the first remaining patient, or none.
func (s *Store) DeletePatient(ctx context.Context, id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(id)
	if !ok {
		return
	}

	name := s.patients[i].Name
	s.patients = append(s.patients[:i], s.patients[i+1:]...)

	selectionMoved := false
	if s.selectedID == id {
		s.selectedID = ""
		if len(s.patients) > 0 {
			s.selectedID = s.patients[0].ID
		}
		selectionMoved = !s.selectedID.IsZero()
	}

	s.persist(ctx)
	metrics.RecordMutation("patient", "delete")
	s.publish(ctx, "patient.deleted", id, map[string]any{"name": name})
	if selectionMoved {
		s.publish(ctx, "patient.selected", s.selectedID, nil)
	}
}

// SelectPatient changes the selection; no-op if the id is unknown
func (s *Store) SelectPatient(ctx context.Context, id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(id); !ok {
		return
	}
	if s.selectedID == id {
		return
	}

	s.selectedID = id
	s.persist(ctx)
	metrics.RecordMutation("selection", "update")
	s.publish(ctx, "patient.selected", id, nil)
}

// --- Nested entity mutations ---

// UpsertMedication replaces the medication when its id matches an existing
// one, otherwise appends it with a fresh id
func (s *Store) UpsertMedication(ctx context.Context, patientID types.ID, med Medication) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	p := &s.patients[i]
	op := "create"
	replaced := false
	for j := range p.Medications {
		if p.Medications[j].ID == med.ID {
			p.Medications[j] = med
			replaced = true
			op = "update"
			break
		}
	}
	if !replaced {
		med.ID = types.NewID()
		p.Medications = append(p.Medications, med)
	}
	normalize(p)

	s.persist(ctx)
	metrics.RecordMutation("medication", op)
	s.publish(ctx, "medication.saved", patientID, map[string]any{"name": med.Name})
}

// DeleteMedication removes a medication by id; no-op if absent
func (s *Store) DeleteMedication(ctx context.Context, patientID, medicationID types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	p := &s.patients[i]
	for j := range p.Medications {
		if p.Medications[j].ID == medicationID {
			name := p.Medications[j].Name
			p.Medications = append(p.Medications[:j], p.Medications[j+1:]...)
			s.persist(ctx)
			metrics.RecordMutation("medication", "delete")
			s.publish(ctx, "medication.deleted", patientID, map[string]any{"name": name})
			return
		}
	}
}

// AddMedicationLog appends a dose log with a fresh id
func (s *Store) AddMedicationLog(ctx context.Context, patientID, medicationID types.ID, log MedicationLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	p := &s.patients[i]
	for j := range p.Medications {
		if p.Medications[j].ID == medicationID {
			log.ID = types.NewID()
			if !log.Status.Valid() {
				log.Status = StatusScheduled
			}
			p.Medications[j].Logs = append(p.Medications[j].Logs, log)
			s.persist(ctx)
			metrics.RecordMutation("medication_log", "create")
			s.publish(ctx, "medication.log_added", patientID, map[string]any{
				"medication": p.Medications[j].Name,
				"status":     string(log.Status),
			})
			return
		}
	}
}

// SetMedicationLogStatus updates the status of the log with the given id.
// Unknown patient, medication or log ids and invalid statuses are no-ops.
func (s *Store) SetMedicationLogStatus(ctx context.Context, patientID, medicationID, logID types.ID, status MedicationStatus) {
	if !status.Valid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	p := &s.patients[i]
	for j := range p.Medications {
		if p.Medications[j].ID != medicationID {
			continue
		}
		for k := range p.Medications[j].Logs {
			if p.Medications[j].Logs[k].ID == logID {
				p.Medications[j].Logs[k].Status = status
				s.persist(ctx)
				metrics.RecordMutation("medication_log", "update")
				s.publish(ctx, "medication.log_updated", patientID, map[string]any{
					"medication": p.Medications[j].Name,
					"status":     string(status),
				})
				return
			}
		}
		return
	}
}

// UpsertAppointment replaces the appointment when its id matches, otherwise
// appends it with a fresh id
func (s *Store) UpsertAppointment(ctx context.Context, patientID types.ID, appt Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	p := &s.patients[i]
	op := "create"
	replaced := false
	for j := range p.Appointments {
		if p.Appointments[j].ID == appt.ID {
			p.Appointments[j] = appt
			replaced = true
			op = "update"
			break
		}
	}
	if !replaced {
		appt.ID = types.NewID()
		p.Appointments = append(p.Appointments, appt)
	}

	s.persist(ctx)
	metrics.RecordMutation("appointment", op)
	s.publish(ctx, "appointment.saved", patientID, map[string]any{"doctor": appt.DoctorName})
}

// DeleteAppointment removes an appointment by id; no-op if absent
func (s *Store) DeleteAppointment(ctx context.Context, patientID, appointmentID types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	p := &s.patients[i]
	for j := range p.Appointments {
		if p.Appointments[j].ID == appointmentID {
			doctor := p.Appointments[j].DoctorName
			p.Appointments = append(p.Appointments[:j], p.Appointments[j+1:]...)
			s.persist(ctx)
			metrics.RecordMutation("appointment", "delete")
			s.publish(ctx, "appointment.deleted", patientID, map[string]any{"doctor": doctor})
			return
		}
	}
}

// UpsertHealthRecord replaces the record when its id matches, otherwise
// appends it with a fresh id
func (s *Store) UpsertHealthRecord(ctx context.Context, patientID types.ID, rec HealthRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	p := &s.patients[i]
	op := "create"
	replaced := false
	for j := range p.HealthRecords {
		if p.HealthRecords[j].ID == rec.ID {
			p.HealthRecords[j] = rec
			replaced = true
			op = "update"
			break
		}
	}
	if !replaced {
		rec.ID = types.NewID()
		p.HealthRecords = append(p.HealthRecords, rec)
	}

	s.persist(ctx)
	metrics.RecordMutation("health_record", op)
	s.publish(ctx, "health_record.saved", patientID, map[string]any{"name": rec.Name})
}

// DeleteHealthRecord removes a record by id; no-op if absent
func (s *Store) DeleteHealthRecord(ctx context.Context, patientID, recordID types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	p := &s.patients[i]
	for j := range p.HealthRecords {
		if p.HealthRecords[j].ID == recordID {
			name := p.HealthRecords[j].Name
			p.HealthRecords = append(p.HealthRecords[:j], p.HealthRecords[j+1:]...)
			s.persist(ctx)
			metrics.RecordMutation("health_record", "delete")
			s.publish(ctx, "health_record.deleted", patientID, map[string]any{"name": name})
			return
		}
	}
}

// SetNotificationSettings replaces the settings wholesale. The escalation
// threshold is clamped to the minimum rather than rejected.
func (s *Store) SetNotificationSettings(ctx context.Context, patientID types.ID, settings NotificationSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(patientID)
	if !ok {
		return
	}

	if settings.EscalationAlerts.MissedDosesThreshold < MinEscalationThreshold {
		settings.EscalationAlerts.MissedDosesThreshold = MinEscalationThreshold
	}
	s.patients[i].NotificationSettings = settings

	s.persist(ctx)
	metrics.RecordMutation("notification_settings", "update")
	s.publish(ctx, "notification_settings.updated", patientID, nil)
}
