package schedule

import (
	"testing"
	"time"

	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/shared/types"
)

func appt(doctor string, at time.Time) patient.Appointment {
	return patient.Appointment{
		ID:         types.NewID(),
		DoctorName: doctor,
		Specialty:  "General",
		DateTime:   at,
	}
}

// TestClassifyUpcoming tests the upcoming/today/next split
func TestClassifyUpcoming(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	yesterday := appt("Past", now.AddDate(0, 0, -1))
	thisMorning := appt("Morning", now.Add(-4*time.Hour))
	tonight := appt("Evening", now.Add(5*time.Hour))
	nextWeek := appt("Week", now.AddDate(0, 0, 7))

	// Deliberately unsorted input
	view := ClassifyUpcoming([]patient.Appointment{nextWeek, yesterday, tonight, thisMorning}, now)

	if len(view.Upcoming) != 3 {
		t.Fatalf("Expected 3 upcoming appointments, got %d", len(view.Upcoming))
	}

	// Earlier today still counts as upcoming, and order is ascending
	if view.Upcoming[0].DoctorName != "Morning" {
		t.Errorf("Expected Morning first, got %s", view.Upcoming[0].DoctorName)
	}
	if view.Upcoming[2].DoctorName != "Week" {
		t.Errorf("Expected Week last, got %s", view.Upcoming[2].DoctorName)
	}

	if view.Next == nil || view.Next.DoctorName != "Morning" {
		t.Error("Expected next appointment to be the first upcoming one")
	}

	if len(view.Todays) != 2 {
		t.Errorf("Expected 2 appointments today, got %d", len(view.Todays))
	}
}

// TestClassifyUpcomingEmpty tests the view with no appointments
func TestClassifyUpcomingEmpty(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	view := ClassifyUpcoming(nil, now)
	if view.Next != nil {
		t.Error("Expected no next appointment")
	}
	if len(view.Upcoming) != 0 || len(view.Todays) != 0 {
		t.Error("Expected empty slices, not nil-length mismatch")
	}
}

// TestIsSoon tests the imminence window
func TestIsSoon(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		at     time.Time
		expect bool
	}{
		{"30 minutes ahead", now.Add(30 * time.Minute), true},
		{"59 minutes ahead", now.Add(59 * time.Minute), true},
		{"Exactly one hour ahead", now.Add(time.Hour), false},
		{"Exactly now", now, false},
		{"10 minutes ago", now.Add(-10 * time.Minute), false},
		{"Tomorrow", now.AddDate(0, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSoon(appt("Dr", tt.at), now); got != tt.expect {
				t.Errorf("Expected %v, got %v", tt.expect, got)
			}
		})
	}
}

// TestHistory tests that only pre-today appointments appear, newest first
func TestHistory(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	old := appt("Old", now.AddDate(0, -1, 0))
	recent := appt("Recent", now.AddDate(0, 0, -2))
	earlierToday := appt("Today", now.Add(-2*time.Hour))
	future := appt("Future", now.AddDate(0, 0, 3))

	history := History([]patient.Appointment{old, future, earlierToday, recent}, now)

	if len(history) != 2 {
		t.Fatalf("Expected 2 past appointments, got %d", len(history))
	}
	if history[0].DoctorName != "Recent" || history[1].DoctorName != "Old" {
		t.Errorf("Expected Recent then Old, got %s then %s", history[0].DoctorName, history[1].DoctorName)
	}
}

// TestMonthGrid tests the Sunday-to-Saturday month layout
func TestMonthGrid(t *testing.T) {
	// June 2025: the 1st is a Sunday, the 30th a Monday
	weeks := MonthGrid(2025, time.June, nil, time.UTC)

	if len(weeks) != 5 {
		t.Fatalf("Expected 5 weeks for June 2025, got %d", len(weeks))
	}

	first := weeks[0][0]
	if first.Date.Weekday() != time.Sunday {
		t.Errorf("Expected grid to start on Sunday, got %s", first.Date.Weekday())
	}
	if !first.Date.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected grid to start on June 1, got %s", first.Date)
	}
	if !first.InMonth {
		t.Error("Expected June 1 to be in month")
	}

	lastWeek := weeks[len(weeks)-1]
	last := lastWeek[len(lastWeek)-1]
	if last.Date.Weekday() != time.Saturday {
		t.Errorf("Expected grid to end on Saturday, got %s", last.Date.Weekday())
	}
	if !last.Date.Equal(time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected grid to end on July 5, got %s", last.Date)
	}
	if last.InMonth {
		t.Error("Expected July 5 to be out of month")
	}
}

// TestMonthGridLeadingDays tests leading cells from the previous month
func TestMonthGridLeadingDays(t *testing.T) {
	// July 2025: the 1st is a Tuesday, so the grid starts Sunday June 29
	weeks := MonthGrid(2025, time.July, nil, time.UTC)

	first := weeks[0][0]
	if !first.Date.Equal(time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected grid to start on June 29, got %s", first.Date)
	}
	if first.InMonth {
		t.Error("Expected June 29 to be out of month")
	}

	for _, week := range weeks {
		if len(week) != 7 {
			t.Fatalf("Expected 7 days per week, got %d", len(week))
		}
	}
}

// TestMonthGridPlacesAppointments tests appointment placement on grid days
func TestMonthGridPlacesAppointments(t *testing.T) {
	early := appt("Early", time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	late := appt("Late", time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC))
	other := appt("Other", time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC))

	weeks := MonthGrid(2025, time.June, []patient.Appointment{late, other, early}, time.UTC)

	var day Day
	for _, week := range weeks {
		for _, d := range week {
			if d.Date.Day() == 10 && d.InMonth {
				day = d
			}
		}
	}

	if len(day.Appointments) != 2 {
		t.Fatalf("Expected 2 appointments on June 10, got %d", len(day.Appointments))
	}
	if day.Appointments[0].DoctorName != "Early" {
		t.Errorf("Expected appointments sorted by time, got %s first", day.Appointments[0].DoctorName)
	}
}

// TestSortByTimeDoesNotMutate tests that sorting copies the input
func TestSortByTimeDoesNotMutate(t *testing.T) {
	now := time.Now()
	b := appt("B", now.Add(2*time.Hour))
	a := appt("A", now.Add(time.Hour))

	in := []patient.Appointment{b, a}
	SortByTime(in)

	if in[0].DoctorName != "B" {
		t.Error("Expected input slice to be unchanged")
	}
}
