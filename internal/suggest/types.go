package suggest

// The suggestion payload keeps the camelCase field names of the external
// conflict-suggestion contract, unlike the rest of the API.

// AppointmentConflict flags appointments scheduled too close together
type AppointmentConflict struct {
	Description    string   `json:"description"`
	AppointmentIDs []string `json:"appointmentIds"`
}

// MedicationConflict flags a potential interaction between medications
type MedicationConflict struct {
	Description   string   `json:"description"`
	MedicationIDs []string `json:"medicationIds"`
}

// AISuggestions is the full conflict-suggestion result for one patient
type AISuggestions struct {
	AppointmentConflicts []AppointmentConflict `json:"appointmentConflicts"`
	MedicationConflicts  []MedicationConflict  `json:"medicationConflicts"`
}

// DegradedSuggestions is the placeholder result served when the upstream
// service fails; it renders as a single informational medication entry
func DegradedSuggestions() AISuggestions {
	return AISuggestions{
		AppointmentConflicts: []AppointmentConflict{},
		MedicationConflicts: []MedicationConflict{
			{
				Description:   "Could not fetch AI suggestions. Please check your connection or API key.",
				MedicationIDs: []string{},
			},
		},
	}
}
