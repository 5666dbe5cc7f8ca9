package patient

import (
	"context"
	"testing"
	"time"

	"github.com/carebridge/platform/internal/kvstore"
	"github.com/carebridge/platform/internal/shared/events"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T, kv kvstore.Store) *Store {
	t.Helper()

	seed := Seed{
		Caregiver: Caregiver{ID: types.NewID(), Name: "Alex Johnson"},
		Patients: []Patient{
			{ID: types.NewID(), Name: "Eleanor Vance", Age: 78},
			{ID: types.NewID(), Name: "Arthur Pendelton", Age: 82},
		},
	}
	return NewStore(context.Background(), kv, nil, zerolog.Nop(), seed)
}

// TestNewStoreSeedsWhenEmpty tests first-start behaviour
func TestNewStoreSeedsWhenEmpty(t *testing.T) {
	store := newTestStore(t, kvstore.NewMemory())

	patients := store.Patients()
	if len(patients) != 2 {
		t.Fatalf("Expected 2 seeded patients, got %d", len(patients))
	}

	// The first patient becomes the selection
	selected, found := store.SelectedPatient()
	if !found {
		t.Fatal("Expected a selected patient")
	}
	if selected.ID != patients[0].ID {
		t.Errorf("Expected first patient selected, got %s", selected.Name)
	}

	// Seeded patients get default notification settings
	if selected.NotificationSettings.EscalationAlerts.MissedDosesThreshold < MinEscalationThreshold {
		t.Error("Expected seeded patient to have a valid escalation threshold")
	}
}

// TestStateSurvivesRestart tests that a second store restores the snapshot
func TestStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	store := newTestStore(t, kv)
	created := store.CreatePatient(ctx, Patient{Name: "Maria Flores", Age: 69})
	store.UpsertMedication(ctx, created.ID, Medication{Name: "Lisinopril", Dosage: "10mg"})

	// A new store over the same kv must see everything, including selection
	restored := NewStore(ctx, kv, nil, zerolog.Nop(), Seed{})

	patients := restored.Patients()
	if len(patients) != 3 {
		t.Fatalf("Expected 3 patients after restart, got %d", len(patients))
	}

	if restored.SelectedID() != created.ID {
		t.Errorf("Expected selection %s to survive restart, got %s", created.ID, restored.SelectedID())
	}

	p, found := restored.Patient(created.ID)
	if !found {
		t.Fatal("Expected created patient after restart")
	}
	if len(p.Medications) != 1 || p.Medications[0].Name != "Lisinopril" {
		t.Error("Expected medication to survive restart")
	}
}

// TestMalformedSnapshotFallsBackToSeed tests corruption tolerance per key
func TestMalformedSnapshotFallsBackToSeed(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	kv.Put(ctx, "patients", []byte("{corrupt"))

	store := newTestStore(t, kv)

	patients := store.Patients()
	if len(patients) != 2 {
		t.Fatalf("Expected seed patients after corrupt snapshot, got %d", len(patients))
	}
	if store.SelectedID() != patients[0].ID {
		t.Error("Expected selection re-derived from seed")
	}
}

// TestCreatePatientSelectsIt tests creation side effects
func TestCreatePatientSelectsIt(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())

	created := store.CreatePatient(ctx, Patient{Name: "Maria Flores"})

	if created.ID.IsZero() {
		t.Error("Expected a fresh id")
	}
	if store.SelectedID() != created.ID {
		t.Error("Expected new patient to become the selection")
	}
	if created.NotificationSettings.EscalationAlerts.MissedDosesThreshold != 3 {
		t.Errorf("Expected default threshold 3, got %d",
			created.NotificationSettings.EscalationAlerts.MissedDosesThreshold)
	}
}

// TestDeleteSelectedPatientFallsBack tests selection fallback on delete
func TestDeleteSelectedPatientFallsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	patients := store.Patients()

	store.DeletePatient(ctx, patients[0].ID)

	if store.SelectedID() != patients[1].ID {
		t.Errorf("Expected selection to fall back to %s, got %s", patients[1].ID, store.SelectedID())
	}

	store.DeletePatient(ctx, patients[1].ID)

	if !store.SelectedID().IsZero() {
		t.Error("Expected no selection after deleting the last patient")
	}
	if _, found := store.SelectedPatient(); found {
		t.Error("Expected no selected patient")
	}
}

// TestDeleteUnselectedPatientKeepsSelection tests that deleting another
// patient leaves the selection alone
func TestDeleteUnselectedPatientKeepsSelection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	patients := store.Patients()

	store.DeletePatient(ctx, patients[1].ID)

	if store.SelectedID() != patients[0].ID {
		t.Error("Expected selection unchanged")
	}
}

// TestSelectPatientUnknownIsNoOp tests selection of a missing id
func TestSelectPatientUnknownIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	before := store.SelectedID()

	store.SelectPatient(ctx, types.NewID())

	if store.SelectedID() != before {
		t.Error("Expected selection unchanged for unknown id")
	}
}

// TestUpsertMedication tests append and replace semantics
func TestUpsertMedication(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	id := store.Patients()[0].ID

	store.UpsertMedication(ctx, id, Medication{Name: "Metformin", Dosage: "500mg"})

	p, _ := store.Patient(id)
	if len(p.Medications) != 1 {
		t.Fatalf("Expected 1 medication, got %d", len(p.Medications))
	}
	medID := p.Medications[0].ID
	if medID.IsZero() {
		t.Fatal("Expected medication to get a fresh id")
	}

	// Matching id replaces in place
	store.UpsertMedication(ctx, id, Medication{ID: medID, Name: "Metformin", Dosage: "1000mg"})

	p, _ = store.Patient(id)
	if len(p.Medications) != 1 {
		t.Fatalf("Expected replace, got %d medications", len(p.Medications))
	}
	if p.Medications[0].Dosage != "1000mg" {
		t.Errorf("Expected dosage 1000mg, got %s", p.Medications[0].Dosage)
	}

	// Unknown id appends with a fresh id
	store.UpsertMedication(ctx, id, Medication{ID: types.NewID(), Name: "Ibuprofen"})

	p, _ = store.Patient(id)
	if len(p.Medications) != 2 {
		t.Errorf("Expected append for unknown id, got %d medications", len(p.Medications))
	}
}

// TestMedicationLogLifecycle tests log append and status updates by log id
func TestMedicationLogLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	id := store.Patients()[0].ID

	store.UpsertMedication(ctx, id, Medication{Name: "Aspirin"})
	p, _ := store.Patient(id)
	medID := p.Medications[0].ID

	store.AddMedicationLog(ctx, id, medID, MedicationLog{Date: time.Now(), Status: StatusScheduled})
	store.AddMedicationLog(ctx, id, medID, MedicationLog{Date: time.Now(), Status: StatusScheduled})

	p, _ = store.Patient(id)
	logs := p.Medications[0].Logs
	if len(logs) != 2 {
		t.Fatalf("Expected 2 logs, got %d", len(logs))
	}
	if logs[0].ID == logs[1].ID {
		t.Error("Expected distinct log ids")
	}

	// Update the first log by id; the second is untouched
	store.SetMedicationLogStatus(ctx, id, medID, logs[0].ID, StatusTaken)

	p, _ = store.Patient(id)
	logs = p.Medications[0].Logs
	if logs[0].Status != StatusTaken {
		t.Errorf("Expected first log %s, got %s", StatusTaken, logs[0].Status)
	}
	if logs[1].Status != StatusScheduled {
		t.Errorf("Expected second log untouched, got %s", logs[1].Status)
	}

	// Invalid status is a no-op
	store.SetMedicationLogStatus(ctx, id, medID, logs[0].ID, MedicationStatus("Skipped"))

	p, _ = store.Patient(id)
	if p.Medications[0].Logs[0].Status != StatusTaken {
		t.Error("Expected invalid status to be ignored")
	}

	// Unknown log id is a no-op
	store.SetMedicationLogStatus(ctx, id, medID, types.NewID(), StatusMissed)

	p, _ = store.Patient(id)
	for _, log := range p.Medications[0].Logs {
		if log.Status == StatusMissed {
			t.Error("Expected unknown log id to change nothing")
		}
	}
}

// TestAddMedicationLogInvalidStatus tests that bad statuses become Scheduled
func TestAddMedicationLogInvalidStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	id := store.Patients()[0].ID

	store.UpsertMedication(ctx, id, Medication{Name: "Aspirin"})
	p, _ := store.Patient(id)
	medID := p.Medications[0].ID

	store.AddMedicationLog(ctx, id, medID, MedicationLog{Date: time.Now(), Status: MedicationStatus("bogus")})

	p, _ = store.Patient(id)
	if p.Medications[0].Logs[0].Status != StatusScheduled {
		t.Errorf("Expected invalid status coerced to %s, got %s", StatusScheduled, p.Medications[0].Logs[0].Status)
	}
}

// TestSetNotificationSettingsClampsThreshold tests the minimum threshold
func TestSetNotificationSettingsClampsThreshold(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	id := store.Patients()[0].ID

	store.SetNotificationSettings(ctx, id, NotificationSettings{
		EscalationAlerts: EscalationSettings{Enabled: true, MissedDosesThreshold: 1},
	})

	p, _ := store.Patient(id)
	if p.NotificationSettings.EscalationAlerts.MissedDosesThreshold != MinEscalationThreshold {
		t.Errorf("Expected threshold clamped to %d, got %d",
			MinEscalationThreshold, p.NotificationSettings.EscalationAlerts.MissedDosesThreshold)
	}
}

// TestUpdateCaregiverPreservesID tests the caregiver profile update
func TestUpdateCaregiverPreservesID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	before := store.Caregiver()

	updated := store.UpdateCaregiver(ctx, Caregiver{Name: "Jordan Lee", AvatarURL: "http://example.com/a.png"})

	if updated.ID != before.ID {
		t.Error("Expected caregiver id preserved")
	}
	if store.Caregiver().Name != "Jordan Lee" {
		t.Errorf("Expected name updated, got %s", store.Caregiver().Name)
	}
}

// TestQueriesReturnCopies tests that callers cannot mutate store state
func TestQueriesReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())
	id := store.Patients()[0].ID

	store.UpsertMedication(ctx, id, Medication{Name: "Aspirin"})

	p, _ := store.Patient(id)
	p.Medications[0].Name = "Tampered"
	p.Name = "Tampered"

	fresh, _ := store.Patient(id)
	if fresh.Name == "Tampered" || fresh.Medications[0].Name == "Tampered" {
		t.Error("Expected store state to be isolated from returned copies")
	}
}

// TestMutationsPublishEvents tests that the store emits activity events
func TestMutationsPublishEvents(t *testing.T) {
	ctx := context.Background()

	bus := events.NewMemoryBus()
	var seen []string
	bus.Subscribe(func(ctx context.Context, e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	seed := Seed{
		Caregiver: Caregiver{ID: types.NewID(), Name: "Alex"},
		Patients:  []Patient{{ID: types.NewID(), Name: "Eleanor Vance"}},
	}
	store := NewStore(ctx, kvstore.NewMemory(), bus, zerolog.Nop(), seed)

	created := store.CreatePatient(ctx, Patient{Name: "Maria Flores"})
	store.DeletePatient(ctx, created.ID)

	want := []string{"patient.created", "patient.selected", "patient.deleted", "patient.selected"}
	if len(seen) != len(want) {
		t.Fatalf("Expected %d events, got %d (%v)", len(want), len(seen), seen)
	}
	for i, eventType := range want {
		if seen[i] != eventType {
			t.Errorf("Expected event %d to be %s, got %s", i, eventType, seen[i])
		}
	}
}

// TestUpsertOnUnknownPatientIsNoOp tests silent no-ops for missing patients
func TestUpsertOnUnknownPatientIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory())

	store.UpsertMedication(ctx, types.NewID(), Medication{Name: "Ghost"})
	store.UpsertAppointment(ctx, types.NewID(), Appointment{DoctorName: "Ghost"})

	for _, p := range store.Patients() {
		if len(p.Medications) != 0 || len(p.Appointments) != 0 {
			t.Error("Expected no changes for unknown patient ids")
		}
	}
}
