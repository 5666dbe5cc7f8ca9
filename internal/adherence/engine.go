package adherence

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/shared/types"
)

// Window is an inclusive date range
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, bounds included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// LastDays returns the window covering the given number of days up to now
func LastDays(now time.Time, days int) Window {
	return Window{
		Start: now.AddDate(0, 0, -days),
		End:   now,
	}
}

// MedicationStats is the adherence summary for one medication
type MedicationStats struct {
	MedicationID types.ID `json:"medication_id"`
	Name         string   `json:"name"`
	Taken        int      `json:"taken"`
	Missed       int      `json:"missed"`
	Rate         int      `json:"rate"`
}

// Report summarises adherence over a window, per medication and overall
type Report struct {
	Window      Window            `json:"window"`
	Medications []MedicationStats `json:"medications"`
	OverallRate int               `json:"overall_rate"`
}

// Escalation flags a run of consecutive missed doses for one medication
type Escalation struct {
	MedicationID   types.ID `json:"medication_id"`
	MedicationName string   `json:"medication_name"`
	MissedCount    int      `json:"missed_count"`
	Message        string   `json:"message"`
}

// rate converts taken/missed counts into a rounded percentage. A medication
// with no resolved doses in the window counts as fully adherent.
func rate(taken, missed int) int {
	total := taken + missed
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(taken) / float64(total) * 100))
}

// Compute builds the adherence report for the given medications over the
// window. Scheduled doses are pending, not outcomes, so they never count
// toward the rate. The overall rate pools every dose before dividing rather
// than averaging the per-medication rates.
func Compute(meds []patient.Medication, window Window) Report {
	report := Report{
		Window:      window,
		Medications: make([]MedicationStats, 0, len(meds)),
	}

	totalTaken, totalMissed := 0, 0
	for _, med := range meds {
		stats := MedicationStats{
			MedicationID: med.ID,
			Name:         med.Name,
		}
		for _, log := range med.Logs {
			if !window.Contains(log.Date) {
				continue
			}
			switch log.Status {
			case patient.StatusTaken:
				stats.Taken++
			case patient.StatusMissed:
				stats.Missed++
			}
		}
		stats.Rate = rate(stats.Taken, stats.Missed)
		totalTaken += stats.Taken
		totalMissed += stats.Missed
		report.Medications = append(report.Medications, stats)
	}

	report.OverallRate = rate(totalTaken, totalMissed)
	return report
}

// DetectEscalations returns one escalation per medication whose most recent
// doses are all missed. The threshold controls how many recent doses are
// inspected and is never taken below the model minimum. Medications with
// fewer logs than the threshold cannot escalate. Disabled settings yield
// nothing.
func DetectEscalations(meds []patient.Medication, settings patient.EscalationSettings) []Escalation {
	if !settings.Enabled {
		return nil
	}

	threshold := settings.MissedDosesThreshold
	if threshold < patient.MinEscalationThreshold {
		threshold = patient.MinEscalationThreshold
	}

	var escalations []Escalation
	for _, med := range meds {
		if len(med.Logs) < threshold {
			continue
		}

		recent := append([]patient.MedicationLog(nil), med.Logs...)
		// Stable keeps insertion order for same-date logs deterministic
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].Date.After(recent[j].Date)
		})
		recent = recent[:threshold]

		allMissed := true
		for _, log := range recent {
			if log.Status != patient.StatusMissed {
				allMissed = false
				break
			}
		}
		if !allMissed {
			continue
		}

		escalations = append(escalations, Escalation{
			MedicationID:   med.ID,
			MedicationName: med.Name,
			MissedCount:    threshold,
			Message:        fmt.Sprintf("%s has been missed %d times in a row.", med.Name, threshold),
		})
	}
	return escalations
}
