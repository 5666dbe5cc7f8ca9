package schedule

import (
	"sort"
	"time"

	"github.com/carebridge/platform/internal/patient"
)

// SoonWindow is how far ahead an appointment counts as imminent
const SoonWindow = time.Hour

// SortByTime returns the appointments ordered by date ascending. The input
// is not modified.
func SortByTime(appts []patient.Appointment) []patient.Appointment {
	out := append([]patient.Appointment(nil), appts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.Before(out[j].DateTime)
	})
	return out
}

// StartOfDay truncates t to midnight in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// IsSoon reports whether the appointment starts strictly in the future and
// within the soon window
func IsSoon(appt patient.Appointment, now time.Time) bool {
	until := appt.DateTime.Sub(now)
	return until > 0 && until < SoonWindow
}

// UpcomingView groups a patient's appointments for the dashboard. Upcoming
// holds everything from the start of today onward, ordered ascending; Next
// is its first entry; Todays narrows it to today's date.
type UpcomingView struct {
	Todays   []patient.Appointment `json:"todays"`
	Next     *patient.Appointment  `json:"next"`
	Upcoming []patient.Appointment `json:"upcoming"`
}

// ClassifyUpcoming builds the upcoming view relative to now. Appointments
// earlier today remain upcoming; only ones before today drop out.
func ClassifyUpcoming(appts []patient.Appointment, now time.Time) UpcomingView {
	dayStart := StartOfDay(now)

	view := UpcomingView{
		Todays:   []patient.Appointment{},
		Upcoming: []patient.Appointment{},
	}
	for _, appt := range SortByTime(appts) {
		if appt.DateTime.Before(dayStart) {
			continue
		}
		view.Upcoming = append(view.Upcoming, appt)
		if SameDay(appt.DateTime, now) {
			view.Todays = append(view.Todays, appt)
		}
	}
	if len(view.Upcoming) > 0 {
		next := view.Upcoming[0]
		view.Next = &next
	}
	return view
}

// History returns the appointments strictly before the start of today,
// most recent first
func History(appts []patient.Appointment, now time.Time) []patient.Appointment {
	dayStart := StartOfDay(now)

	out := []patient.Appointment{}
	for _, appt := range appts {
		if appt.DateTime.Before(dayStart) {
			out = append(out, appt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out
}

// Day is one cell of the month grid
type Day struct {
	Date         time.Time             `json:"date"`
	InMonth      bool                  `json:"in_month"`
	Appointments []patient.Appointment `json:"appointments"`
}

// MonthGrid lays out a calendar month as whole weeks running Sunday through
// Saturday. The grid starts on the Sunday on or before the first of the
// month and ends on the Saturday on or after the last day, so leading and
// trailing cells belong to the neighbouring months. Appointments are placed
// on their calendar date.
func MonthGrid(year int, month time.Month, appts []patient.Appointment, loc *time.Location) [][]Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	byDate := make(map[string][]patient.Appointment)
	for _, appt := range SortByTime(appts) {
		key := appt.DateTime.In(loc).Format("2006-01-02")
		byDate[key] = append(byDate[key], appt)
	}

	var weeks [][]Day
	var week []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		week = append(week, Day{
			Date:         d,
			InMonth:      d.Month() == month,
			Appointments: byDate[d.Format("2006-01-02")],
		})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = nil
		}
	}
	return weeks
}
