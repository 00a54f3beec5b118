package progress

import (
	"testing"
	"time"

	"melodyhall/internal/models"
)

// sessionOn builds a valid practice session for a calendar day
func sessionOn(date time.Time, minutes int) models.PracticeSession {
	return models.PracticeSession{StudentID: 1, Date: date, Minutes: minutes}
}

func TestCalculatePracticeStatsTotals(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		sessions    []models.PracticeSession
		wantTotal   int
		wantSkipped int
	}{
		{
			name:      "no sessions",
			sessions:  nil,
			wantTotal: 0,
		},
		{
			name: "sums all dates regardless of window",
			sessions: []models.PracticeSession{
				sessionOn(now, 30),
				sessionOn(now.AddDate(0, -3, 0), 45), // months ago, still counted
				sessionOn(now.AddDate(-1, 0, 0), 25), // last year, still counted
			},
			wantTotal: 100,
		},
		{
			name: "negative minutes skipped, rest kept",
			sessions: []models.PracticeSession{
				sessionOn(now, 30),
				sessionOn(now.AddDate(0, 0, -1), -10),
				sessionOn(now.AddDate(0, 0, -2), 20),
			},
			wantTotal:   50,
			wantSkipped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := CalculatePracticeStats(tt.sessions, now)
			if stats.TotalMinutes != tt.wantTotal {
				t.Errorf("TotalMinutes = %d, want %d", stats.TotalMinutes, tt.wantTotal)
			}
			if stats.Skipped != tt.wantSkipped {
				t.Errorf("Skipped = %d, want %d", stats.Skipped, tt.wantSkipped)
			}
		})
	}
}

func TestCalculatePracticeStatsWeeklyAverage(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		sessions []models.PracticeSession
		expected int
	}{
		{
			name:     "zero sessions in window",
			sessions: []models.PracticeSession{sessionOn(now.AddDate(0, 0, -40), 60)},
			expected: 0,
		},
		{
			name:     "one session exactly 28 days ago is inside the window",
			sessions: []models.PracticeSession{sessionOn(now.AddDate(0, 0, -28), 70)},
			expected: 18, // round(70 / 4)
		},
		{
			name:     "one session 29 days ago is outside",
			sessions: []models.PracticeSession{sessionOn(now.AddDate(0, 0, -29), 70)},
			expected: 0,
		},
		{
			name: "average over four weeks",
			sessions: []models.PracticeSession{
				sessionOn(now.AddDate(0, 0, -1), 60),
				sessionOn(now.AddDate(0, 0, -8), 60),
				sessionOn(now.AddDate(0, 0, -15), 60),
				sessionOn(now.AddDate(0, 0, -22), 60),
			},
			expected: 60,
		},
		{
			name:     "rounds to nearest",
			sessions: []models.PracticeSession{sessionOn(now, 30)},
			expected: 8, // round(7.5)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := CalculatePracticeStats(tt.sessions, now)
			if stats.WeeklyAverage != tt.expected {
				t.Errorf("WeeklyAverage = %d, want %d", stats.WeeklyAverage, tt.expected)
			}
		})
	}
}

func TestCalculatePracticeStatsConsistency(t *testing.T) {
	// Mid-month reference: March 10th
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("no sessions gives zero without dividing by zero", func(t *testing.T) {
		stats := CalculatePracticeStats(nil, now)
		if stats.Consistency != 0 {
			t.Errorf("Consistency = %d, want 0", stats.Consistency)
		}
	})

	t.Run("practiced every day so far is 100", func(t *testing.T) {
		var sessions []models.PracticeSession
		for day := 1; day <= 10; day++ {
			sessions = append(sessions, sessionOn(time.Date(2026, time.March, day, 18, 0, 0, 0, time.UTC), 20))
		}
		stats := CalculatePracticeStats(sessions, now)
		if stats.Consistency != 100 {
			t.Errorf("Consistency = %d, want 100", stats.Consistency)
		}
	})

	t.Run("two sessions on one day count as one day", func(t *testing.T) {
		sessions := []models.PracticeSession{
			sessionOn(time.Date(2026, time.March, 5, 8, 0, 0, 0, time.UTC), 20),
			sessionOn(time.Date(2026, time.March, 5, 19, 0, 0, 0, time.UTC), 25),
		}
		stats := CalculatePracticeStats(sessions, now)
		if stats.Consistency != 10 {
			t.Errorf("Consistency = %d, want 10 (1 of 10 days)", stats.Consistency)
		}
	})

	t.Run("previous month excluded from consistency but not totals", func(t *testing.T) {
		sessions := []models.PracticeSession{
			sessionOn(time.Date(2026, time.February, 28, 18, 0, 0, 0, time.UTC), 40),
			sessionOn(time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC), 30),
		}
		stats := CalculatePracticeStats(sessions, now)
		if stats.Consistency != 10 {
			t.Errorf("Consistency = %d, want 10", stats.Consistency)
		}
		if stats.TotalMinutes != 70 {
			t.Errorf("TotalMinutes = %d, want 70", stats.TotalMinutes)
		}
	})

	t.Run("stays within bounds", func(t *testing.T) {
		var sessions []models.PracticeSession
		for day := 1; day <= 10; day++ {
			for i := 0; i < 3; i++ {
				sessions = append(sessions, sessionOn(time.Date(2026, time.March, day, 8+i, 0, 0, 0, time.UTC), 15))
			}
		}
		stats := CalculatePracticeStats(sessions, now)
		if stats.Consistency < 0 || stats.Consistency > 100 {
			t.Errorf("Consistency = %d, want value in [0, 100]", stats.Consistency)
		}
	})

	t.Run("first of the month", func(t *testing.T) {
		first := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
		sessions := []models.PracticeSession{sessionOn(first, 30)}
		stats := CalculatePracticeStats(sessions, first)
		if stats.Consistency != 100 {
			t.Errorf("Consistency = %d, want 100", stats.Consistency)
		}
	})
}
