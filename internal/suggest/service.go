package suggest

import (
	"context"
	"errors"
	"sync"

	"github.com/carebridge/platform/internal/patient"
	apperrors "github.com/carebridge/platform/internal/shared/errors"
	"github.com/carebridge/platform/internal/shared/events"
	"github.com/carebridge/platform/internal/shared/metrics"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/rs/zerolog"
)

// State describes the suggestion slot for the selected patient
type State string

const (
	// StateDisabled means no API key is configured
	StateDisabled State = "disabled"
	// StateLoading means a fetch is in flight for the current patient
	StateLoading State = "loading"
	// StateReady means Result holds suggestions for the current patient
	StateReady State = "ready"
)

// View is the suggestion slot as served to clients
type View struct {
	State     State          `json:"state"`
	PatientID types.ID       `json:"patient_id,omitempty"`
	Result    *AISuggestions `json:"result,omitempty"`
}

// Service holds at most one suggestion result, tied to the patient it was
// fetched for. Fetches run against a snapshot of the patient, so a result
// arriving after the selection moved on is dropped rather than shown under
// the wrong patient.
type Service struct {
	client *Client
	store  *patient.Store
	log    zerolog.Logger

	mu        sync.Mutex
	state     State
	patientID types.ID
	result    *AISuggestions
}

// NewService creates the suggestion service and refreshes on every
// selection change published to the bus
func NewService(client *Client, store *patient.Store, bus events.Bus, log zerolog.Logger) *Service {
	s := &Service{
		client: client,
		store:  store,
		log:    log.With().Str("component", "suggest").Logger(),
		state:  StateDisabled,
	}
	if client.Enabled() {
		s.state = StateLoading
	}

	if bus != nil {
		bus.Subscribe(func(ctx context.Context, e events.Event) error {
			if e.Type != "patient.selected" {
				return nil
			}
			go s.Refresh(context.WithoutCancel(ctx), e.PatientID)
			return nil
		})
	}
	return s
}

// Current returns the suggestion slot
func (s *Service) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		State:     s.state,
		PatientID: s.patientID,
		Result:    s.result,
	}
}

// Refresh fetches suggestions for the given patient and stores the result,
// unless the selection has moved to another patient in the meantime
func (s *Service) Refresh(ctx context.Context, patientID types.ID) {
	if !s.client.Enabled() {
		s.mu.Lock()
		s.state = StateDisabled
		s.patientID = ""
		s.result = nil
		s.mu.Unlock()
		metrics.RecordSuggestionRequest("disabled")
		return
	}

	p, found := s.store.Patient(patientID)
	if !found {
		return
	}

	s.mu.Lock()
	s.state = StateLoading
	s.patientID = patientID
	s.result = nil
	s.mu.Unlock()

	suggestions, err := s.client.Suggest(ctx, p)
	if err != nil {
		outcome := "error"
		if errors.Is(err, apperrors.ErrUnavailable) {
			outcome = "disabled"
		}
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("suggestion fetch failed")
		metrics.RecordSuggestionRequest(outcome)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop results for a patient who is no longer selected
	if s.store.SelectedID() != patientID {
		metrics.RecordSuggestionRequest("stale")
		return
	}

	s.state = StateReady
	s.patientID = patientID
	s.result = &suggestions
	metrics.RecordSuggestionRequest("ok")
}
