package patient

import (
	"time"

	"github.com/carebridge/platform/internal/shared/types"
)

// MedicationStatus is the outcome recorded for a single dose
type MedicationStatus string

const (
	StatusTaken     MedicationStatus = "Taken"
	StatusMissed    MedicationStatus = "Missed"
	StatusScheduled MedicationStatus = "Scheduled"
)

// Valid reports whether s is a known dose status
func (s MedicationStatus) Valid() bool {
	switch s {
	case StatusTaken, StatusMissed, StatusScheduled:
		return true
	}
	return false
}

// RecordType classifies a health record upload
type RecordType string

const (
	RecordTypePrescription     RecordType = "Prescription"
	RecordTypeLabReport        RecordType = "Lab Report"
	RecordTypeDischargeSummary RecordType = "Discharge Summary"
)

// Valid reports whether t is a known record type
func (t RecordType) Valid() bool {
	switch t {
	case RecordTypePrescription, RecordTypeLabReport, RecordTypeDischargeSummary:
		return true
	}
	return false
}

// MedicationLog is one dose entry. Logs keep insertion order; consumers sort
// by date when chronology matters. Every log has its own stable id so status
// changes address the log directly instead of by position.
type MedicationLog struct {
	ID     types.ID         `json:"id"`
	Date   time.Time        `json:"date"`
	Status MedicationStatus `json:"status"`
}

// Medication belongs to exactly one patient
type Medication struct {
	ID        types.ID        `json:"id"`
	Name      string          `json:"name"`
	Dosage    string          `json:"dosage"`
	Frequency string          `json:"frequency"`
	Duration  string          `json:"duration"`
	Logs      []MedicationLog `json:"logs"`
}

// Appointment is a single occurrence; there is no recurrence model
type Appointment struct {
	ID         types.ID  `json:"id"`
	DoctorName string    `json:"doctor_name"`
	Specialty  string    `json:"specialty"`
	Location   string    `json:"location"`
	DateTime   time.Time `json:"date_time"`
}

// HealthRecord points at an uploaded document; the file URL is opaque
type HealthRecord struct {
	ID         types.ID   `json:"id"`
	Name       string     `json:"name"`
	Type       RecordType `json:"type"`
	UploadDate time.Time  `json:"upload_date"`
	FileURL    string     `json:"file_url"`
}

// ReminderSettings are UI-only flags; no delivery happens
type ReminderSettings struct {
	Medication  bool `json:"medication"`
	Appointment bool `json:"appointment"`
}

// MinEscalationThreshold is the lowest accepted consecutive-miss threshold
const MinEscalationThreshold = 2

// EscalationSettings controls consecutive-missed-dose alerts
type EscalationSettings struct {
	Enabled              bool `json:"enabled"`
	MissedDosesThreshold int  `json:"missed_doses_threshold"`
}

// ContactSettings holds unvalidated contact strings
type ContactSettings struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NotificationSettings is owned one-to-one by a patient and replaced
// wholesale on save
type NotificationSettings struct {
	Reminders        ReminderSettings   `json:"reminders"`
	EscalationAlerts EscalationSettings `json:"escalation_alerts"`
	Contact          ContactSettings    `json:"contact"`
}

// DefaultNotificationSettings returns the settings a new patient starts with
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Reminders: ReminderSettings{Medication: true, Appointment: true},
		EscalationAlerts: EscalationSettings{
			Enabled:              true,
			MissedDosesThreshold: 3,
		},
	}
}

// PersonalInfo holds free-text identity details
type PersonalInfo struct {
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	EmergencyContact string `json:"emergency_contact"`
}

// Patient owns all of its nested collections exclusively
type Patient struct {
	ID                   types.ID             `json:"id"`
	Name                 string               `json:"name"`
	Age                  int                  `json:"age"`
	AvatarURL            string               `json:"avatar_url"`
	PersonalInfo         PersonalInfo         `json:"personal_info"`
	MedicalHistory       []string             `json:"medical_history"`
	Allergies            []string             `json:"allergies"`
	Medications          []Medication         `json:"medications"`
	Appointments         []Appointment        `json:"appointments"`
	HealthRecords        []HealthRecord       `json:"health_records"`
	NotificationSettings NotificationSettings `json:"notification_settings"`
}

// Caregiver is the single dashboard user
type Caregiver struct {
	ID        types.ID `json:"id"`
	Name      string   `json:"name"`
	AvatarURL string   `json:"avatar_url"`
}

// Clone returns a deep copy so callers can never mutate store state through
// a returned reference.
func (p Patient) Clone() Patient {
	out := p
	out.MedicalHistory = append([]string(nil), p.MedicalHistory...)
	out.Allergies = append([]string(nil), p.Allergies...)

	out.Medications = make([]Medication, len(p.Medications))
	for i, m := range p.Medications {
		out.Medications[i] = m.Clone()
	}

	out.Appointments = append([]Appointment(nil), p.Appointments...)
	out.HealthRecords = append([]HealthRecord(nil), p.HealthRecords...)
	return out
}

// Clone returns a deep copy of the medication including its logs
func (m Medication) Clone() Medication {
	out := m
	out.Logs = append([]MedicationLog(nil), m.Logs...)
	return out
}
