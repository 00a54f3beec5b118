package progress

import (
	"math"
	"time"

	"melodyhall/internal/models"
)

// PracticeStats summarises a student's practice history relative to a
// reference instant.
type PracticeStats struct {
	TotalMinutes  int
	WeeklyAverage int // minutes per week over the trailing 28 days, rounded
	Consistency   int // percent of days practiced so far this calendar month
	Skipped       int // records dropped by the sanity check
}

// CalculatePracticeStats aggregates practice sessions against "now".
//
// Total minutes counts every valid session regardless of date. The weekly
// average sums minutes in the trailing 28-day window ending at now and
// divides by 4, rounded to the nearest integer. Consistency is the count of
// distinct calendar days practiced in now's month so far, divided by days
// elapsed in that month, as a rounded percentage.
//
// Records with negative minutes fail the sanity check: they are skipped and
// counted rather than aborting the whole aggregate, so one bad row cannot
// blank a dashboard.
func CalculatePracticeStats(sessions []models.PracticeSession, now time.Time) PracticeStats {
	var stats PracticeStats

	today := dateOnly(now)
	windowStart := today.AddDate(0, 0, -28)
	windowMinutes := 0
	monthDays := make(map[string]struct{})

	for _, session := range sessions {
		if session.Minutes < 0 {
			stats.Skipped++
			continue
		}

		stats.TotalMinutes += session.Minutes

		day := dateOnly(session.Date)
		if !day.Before(windowStart) && !day.After(today) {
			windowMinutes += session.Minutes
		}
		if day.Year() == now.Year() && day.Month() == now.Month() && !day.After(today) {
			monthDays[day.Format("2006-01-02")] = struct{}{}
		}
	}

	stats.WeeklyAverage = int(math.Round(float64(windowMinutes) / 4.0))

	if len(monthDays) > 0 {
		daysElapsed := now.Day()
		if daysElapsed < 1 {
			daysElapsed = 1
		}
		stats.Consistency = int(math.Round(float64(len(monthDays)) / float64(daysElapsed) * 100))
	}

	return stats
}

// dateOnly truncates a time to its calendar day
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
