package suggest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carebridge/platform/internal/kvstore"
	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/rs/zerolog"
)

func testStore(t *testing.T) (*patient.Store, patient.Patient, patient.Patient) {
	t.Helper()

	seed := patient.Seed{
		Caregiver: patient.Caregiver{ID: types.NewID(), Name: "Alex"},
		Patients: []patient.Patient{
			{ID: types.NewID(), Name: "Eleanor Vance", Age: 78},
			{ID: types.NewID(), Name: "Arthur Pendelton", Age: 82},
		},
	}

	store := patient.NewStore(context.Background(), kvstore.NewMemory(), nil, zerolog.Nop(), seed)
	patients := store.Patients()
	return store, patients[0], patients[1]
}

func suggestionServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiReply(t, AISuggestions{
			AppointmentConflicts: []AppointmentConflict{},
			MedicationConflicts: []MedicationConflict{
				{Description: "Test conflict", MedicationIDs: []string{}},
			},
		}))
	}))
}

// TestServiceRefresh tests a successful refresh for the selected patient
func TestServiceRefresh(t *testing.T) {
	store, first, _ := testStore(t)

	srv := suggestionServer(t)
	defer srv.Close()

	service := NewService(testClient("test-key", srv.URL), store, nil, zerolog.Nop())
	service.Refresh(context.Background(), first.ID)

	view := service.Current()
	if view.State != StateReady {
		t.Fatalf("Expected state %s, got %s", StateReady, view.State)
	}
	if view.PatientID != first.ID {
		t.Errorf("Expected result for patient %s, got %s", first.ID, view.PatientID)
	}
	if view.Result == nil || len(view.Result.MedicationConflicts) != 1 {
		t.Error("Expected a suggestion result")
	}
}

// TestServiceDropsStaleResult tests that a result for a no-longer-selected
// patient is discarded
func TestServiceDropsStaleResult(t *testing.T) {
	store, _, second := testStore(t)

	// The seed selects the first patient, so a fetch for the second patient
	// completes against a different selection.
	srv := suggestionServer(t)
	defer srv.Close()

	service := NewService(testClient("test-key", srv.URL), store, nil, zerolog.Nop())
	service.Refresh(context.Background(), second.ID)

	view := service.Current()
	if view.State == StateReady {
		t.Error("Expected stale result to be dropped")
	}
	if view.Result != nil {
		t.Error("Expected no result for a deselected patient")
	}
}

// TestServiceSelectionMovesDuringFetch tests the guard when the selection
// changes while a request is in flight
func TestServiceSelectionMovesDuringFetch(t *testing.T) {
	store, first, second := testStore(t)

	moved := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Move the selection away before replying
		store.SelectPatient(r.Context(), second.ID)
		close(moved)
		w.Write(geminiReply(t, AISuggestions{
			AppointmentConflicts: []AppointmentConflict{},
			MedicationConflicts:  []MedicationConflict{},
		}))
	}))
	defer srv.Close()

	service := NewService(testClient("test-key", srv.URL), store, nil, zerolog.Nop())
	service.Refresh(context.Background(), first.ID)

	select {
	case <-moved:
	case <-time.After(time.Second):
		t.Fatal("Server was never called")
	}

	view := service.Current()
	if view.State == StateReady && view.PatientID == first.ID {
		t.Error("Expected result for the deselected patient to be dropped")
	}
}

// TestServiceDisabled tests the disabled state with no API key
func TestServiceDisabled(t *testing.T) {
	store, first, _ := testStore(t)

	service := NewService(testClient("", "http://unused"), store, nil, zerolog.Nop())

	view := service.Current()
	if view.State != StateDisabled {
		t.Errorf("Expected state %s, got %s", StateDisabled, view.State)
	}

	service.Refresh(context.Background(), first.ID)
	view = service.Current()
	if view.State != StateDisabled {
		t.Errorf("Expected refresh to keep state %s, got %s", StateDisabled, view.State)
	}
	if view.Result != nil {
		t.Error("Expected no result when disabled")
	}
}
