package audit

import (
	"fmt"
	"time"

	"github.com/carebridge/platform/internal/shared/events"
	"github.com/carebridge/platform/internal/shared/types"
)

// Entry is one row of the caregiver-facing activity trail
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	PatientID types.ID       `json:"patient_id,omitempty"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// fromEvent converts a domain event into a trail entry with a readable
// message. Unknown event types fall back to the raw type name.
func fromEvent(e events.Event) Entry {
	return Entry{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Type:      e.Type,
		PatientID: e.PatientID,
		Message:   describe(e),
		Data:      e.Data,
	}
}

func describe(e events.Event) string {
	name := func(key string) string {
		if e.Data == nil {
			return ""
		}
		if v, ok := e.Data[key].(string); ok {
			return v
		}
		return ""
	}

	switch e.Type {
	case "patient.created":
		return fmt.Sprintf("Patient %s added", name("name"))
	case "patient.updated":
		return fmt.Sprintf("Patient %s updated", name("name"))
	case "patient.deleted":
		return fmt.Sprintf("Patient %s removed", name("name"))
	case "patient.selected":
		return "Selected patient changed"
	case "medication.saved":
		return fmt.Sprintf("Medication %s saved", name("name"))
	case "medication.deleted":
		return fmt.Sprintf("Medication %s removed", name("name"))
	case "medication.log_added":
		return fmt.Sprintf("Dose logged for %s (%s)", name("medication"), name("status"))
	case "medication.log_updated":
		return fmt.Sprintf("Dose for %s marked %s", name("medication"), name("status"))
	case "appointment.saved":
		return fmt.Sprintf("Appointment with Dr. %s saved", name("doctor"))
	case "appointment.deleted":
		return fmt.Sprintf("Appointment with Dr. %s removed", name("doctor"))
	case "health_record.saved":
		return fmt.Sprintf("Health record %s saved", name("name"))
	case "health_record.deleted":
		return fmt.Sprintf("Health record %s removed", name("name"))
	case "notification_settings.updated":
		return "Notification settings updated"
	case "caregiver.updated":
		return "Caregiver profile updated"
	}
	return e.Type
}
