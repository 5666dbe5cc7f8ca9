package patient

import (
	"time"

	"github.com/carebridge/platform/internal/shared/config"
	"github.com/carebridge/platform/internal/shared/types"
)

// DefaultSeed returns the caregiver and sample patients installed on first
// start, when no snapshot exists yet. Timestamps are generated relative to
// now so the sample data always shows live adherence and upcoming visits.
func DefaultSeed(cfg config.CaregiverConfig, now time.Time) Seed {
	return Seed{
		Caregiver: Caregiver{
			ID:        types.NewID(),
			Name:      cfg.Name,
			AvatarURL: cfg.AvatarURL,
		},
		Patients: []Patient{
			{
				ID:   types.NewID(),
				Name: "Eleanor Vance",
				Age:  78,
				PersonalInfo: PersonalInfo{
					DateOfBirth:      "1946-03-15",
					Gender:           "Female",
					EmergencyContact: "Sarah Vance (Daughter) - 555-0101",
				},
				MedicalHistory: []string{"Hypertension", "Type 2 Diabetes", "Arthritis"},
				Allergies:      []string{"Penicillin"},
				Medications: []Medication{
					{
						ID:        types.NewID(),
						Name:      "Lisinopril",
						Dosage:    "10mg",
						Frequency: "Once daily",
						Duration:  "Ongoing",
						Logs: []MedicationLog{
							{ID: types.NewID(), Date: now.Add(-24 * time.Hour), Status: StatusTaken},
							{ID: types.NewID(), Date: now, Status: StatusScheduled},
						},
					},
					{
						ID:        types.NewID(),
						Name:      "Metformin",
						Dosage:    "500mg",
						Frequency: "Twice daily",
						Duration:  "Ongoing",
						Logs: []MedicationLog{
							{ID: types.NewID(), Date: now.Add(-24 * time.Hour), Status: StatusTaken},
							{ID: types.NewID(), Date: now.Add(-12 * time.Hour), Status: StatusTaken},
							{ID: types.NewID(), Date: now, Status: StatusScheduled},
						},
					},
					{
						ID:        types.NewID(),
						Name:      "Ibuprofen",
						Dosage:    "200mg",
						Frequency: "As needed for pain",
						Duration:  "As needed",
					},
				},
				Appointments: []Appointment{
					{
						ID:         types.NewID(),
						DoctorName: "Evelyn Reed",
						Specialty:  "Cardiology",
						Location:   "City Heart Clinic, 123 Main St",
						DateTime:   now.Add(3 * 24 * time.Hour),
					},
					{
						ID:         types.NewID(),
						DoctorName: "Ben Carter",
						Specialty:  "Endocrinology",
						Location:   "General Hospital, Room 302",
						DateTime:   now.Add(10 * 24 * time.Hour),
					},
				},
				HealthRecords: []HealthRecord{
					{
						ID:         types.NewID(),
						Name:       "Latest Blood Work",
						Type:       RecordTypeLabReport,
						UploadDate: now.Add(-20 * 24 * time.Hour),
						FileURL:    "#",
					},
					{
						ID:         types.NewID(),
						Name:       "Lisinopril Rx",
						Type:       RecordTypePrescription,
						UploadDate: now.Add(-90 * 24 * time.Hour),
						FileURL:    "#",
					},
				},
				NotificationSettings: NotificationSettings{
					Reminders: ReminderSettings{Medication: true, Appointment: true},
					EscalationAlerts: EscalationSettings{
						Enabled:              true,
						MissedDosesThreshold: 3,
					},
					Contact: ContactSettings{
						Email: "sarah.vance@example.com",
						Phone: "555-0101",
					},
				},
			},
			{
				ID:   types.NewID(),
				Name: "Arthur Pendelton",
				Age:  82,
				PersonalInfo: PersonalInfo{
					DateOfBirth:      "1942-07-22",
					Gender:           "Male",
					EmergencyContact: "Mark Pendelton (Son) - 555-0102",
				},
				MedicalHistory: []string{"Coronary Artery Disease", "Asthma"},
				Allergies:      []string{"None"},
				Medications: []Medication{
					{
						ID:        types.NewID(),
						Name:      "Aspirin",
						Dosage:    "81mg",
						Frequency: "Once daily",
						Duration:  "Ongoing",
						Logs: []MedicationLog{
							{ID: types.NewID(), Date: now.Add(-48 * time.Hour), Status: StatusMissed},
							{ID: types.NewID(), Date: now.Add(-24 * time.Hour), Status: StatusMissed},
						},
					},
					{
						ID:        types.NewID(),
						Name:      "Atorvastatin",
						Dosage:    "20mg",
						Frequency: "Once daily at night",
						Duration:  "Ongoing",
						Logs: []MedicationLog{
							{ID: types.NewID(), Date: now.Add(-24 * time.Hour), Status: StatusTaken},
						},
					},
					{
						ID:        types.NewID(),
						Name:      "Warfarin",
						Dosage:    "5mg",
						Frequency: "Once daily",
						Duration:  "Ongoing",
						Logs: []MedicationLog{
							{ID: types.NewID(), Date: now.Add(-24 * time.Hour), Status: StatusTaken},
						},
					},
				},
				Appointments: []Appointment{
					{
						ID:         types.NewID(),
						DoctorName: "Helen Cho",
						Specialty:  "Pulmonology",
						Location:   "Breathe Easy Clinic, 456 Oak Ave",
						DateTime:   now.Add(35 * 24 * time.Hour),
					},
					{
						ID:         types.NewID(),
						DoctorName: "Marcus Thorne",
						Specialty:  "General Checkup",
						Location:   "Downtown Medical Center",
						DateTime:   now.Add(35*24*time.Hour + 30*time.Minute),
					},
				},
				HealthRecords: []HealthRecord{
					{
						ID:         types.NewID(),
						Name:       "Chest X-Ray Results",
						Type:       RecordTypeLabReport,
						UploadDate: now.Add(-60 * 24 * time.Hour),
						FileURL:    "#",
					},
				},
				NotificationSettings: NotificationSettings{
					Reminders: ReminderSettings{Medication: true, Appointment: false},
					EscalationAlerts: EscalationSettings{
						Enabled:              true,
						MissedDosesThreshold: 2,
					},
					Contact: ContactSettings{
						Email: "mark.pendelton@example.com",
						Phone: "555-0102",
					},
				},
			},
		},
	}
}
